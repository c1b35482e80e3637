package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go-env-manager/internal/config"
	"go-env-manager/internal/database"
	"go-env-manager/internal/envbackend"
	"go-env-manager/internal/event"
	"go-env-manager/internal/repository"
	"go-env-manager/internal/service"
	"go-env-manager/internal/storage"
)

// Services is the wired domain layer shared by the HTTP server and envctl.
type Services struct {
	Store     storage.Store
	Backend   envbackend.Backend
	Bus       *event.InMemoryBus
	Trash     *service.TrashService
	Groups    *service.GroupService
	Variables *service.VariableService
	System    *service.SystemService
	Restore   *service.RestoreService
	Auth      *service.AuthService

	// Ping checks the store's connection; nil for embedded stores.
	Ping func(ctx context.Context) error

	cleanupFuncs []func()
}

func NewServices(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Services, error) {
	s := &Services{}

	store, err := s.openStore(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	s.Store = store
	s.cleanupFuncs = append(s.cleanupFuncs, func() {
		if err := store.Close(); err != nil {
			logger.Warn("closing document store failed", "error", err)
		}
	})

	backend, err := envbackend.New(cfg.EnvBackend, cfg.SystemEnvFile, config.ReservedKeys()...)
	if err != nil {
		s.Close()
		return nil, fmt.Errorf("failed to initialize environment backend: %w", err)
	}
	if backend == nil {
		logger.Warn("no environment backend configured; running in store-only mode")
	}
	s.Backend = backend

	s.Bus = event.NewBus(logger)
	s.Trash = service.NewTrashService(store, s.Bus, logger, cfg.TrashDefaultCleanupDays)
	s.Groups = service.NewGroupService(store, backend, s.Trash, s.Bus, logger)
	s.Variables = service.NewVariableService(store, backend, s.Trash, s.Bus, logger)
	s.System = service.NewSystemService(backend)
	s.Restore = service.NewRestoreService(s.Trash, s.Groups, s.Variables, s.Bus, logger)
	s.Auth = service.NewAuthService(cfg.AuthSecret, cfg.AuthTokenTTL)

	return s, nil
}

func (s *Services) openStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (storage.Store, error) {
	switch cfg.StoreDriver {
	case "postgres":
		logger.Info("connecting to PostgreSQL")
		db, err := database.New(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		if err := db.EnsureSchema(ctx); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to ensure database schema: %w", err)
		}
		s.Ping = db.Health
		s.cleanupFuncs = append(s.cleanupFuncs, db.Close)
		return repository.NewDocumentRepository(db.Pool), nil

	case "memory":
		logger.Warn("using in-memory document store; state is lost on exit")
		return storage.NewMemoryStore(), nil

	default:
		store, err := storage.OpenBadger(storage.BadgerConfig{
			Path:           cfg.BadgerPath,
			SyncWrites:     cfg.BadgerSyncWrites,
			Logger:         logger.With("component", "badger"),
			GCInterval:     10 * time.Minute,
			GCDiscardRatio: 0.5,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to open badger store at %s: %w", cfg.BadgerPath, err)
		}
		logger.Info("badger document store ready", "path", cfg.BadgerPath)
		return store, nil
	}
}

// Close releases the store and any pools in reverse order of creation.
func (s *Services) Close() {
	for i := len(s.cleanupFuncs) - 1; i >= 0; i-- {
		s.cleanupFuncs[i]()
	}
	s.cleanupFuncs = nil
}

func (s *Services) BackendName(cfg *config.Config) string {
	if s.Backend == nil {
		return envbackend.KindNone
	}
	return cfg.EnvBackend
}
