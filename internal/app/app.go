package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"go-env-manager/internal/config"
	"go-env-manager/internal/handler"
	"go-env-manager/internal/middleware"
	"go-env-manager/internal/router"
	"go-env-manager/internal/websocket"
)

type App struct {
	cfg      *config.Config
	logger   *slog.Logger
	services *Services
	hub      *websocket.Hub
	server   *http.Server
}

func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	services, err := NewServices(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	hub := websocket.NewHub(services.Bus, logger)
	authMiddleware := middleware.NewAuthMiddleware(services.Auth)
	if services.Auth.Enabled() {
		logger.Info("bearer token auth enabled")
	}

	appRouter := router.New(cfg, logger, authMiddleware, router.Handlers{
		Health:    handler.NewHealthHandler(cfg.StoreDriver, services.BackendName(cfg), services.Backend == nil, services.Ping),
		Groups:    handler.NewGroupHandler(services.Groups),
		Variables: handler.NewVariableHandler(services.Variables),
		System:    handler.NewSystemHandler(services.System),
		Trash:     handler.NewTrashHandler(services.Trash, services.Restore),
	}, hub)

	server := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           appRouter,
		ReadHeaderTimeout: cfg.ServerReadHeaderTimeout,
		WriteTimeout:      cfg.ServerWriteTimeout,
		IdleTimeout:       cfg.ServerIdleTimeout,
	}

	return &App{
		cfg:      cfg,
		logger:   logger,
		services: services,
		hub:      hub,
		server:   server,
	}, nil
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (a *App) Run(ctx context.Context) error {
	defer a.services.Close()

	bgCtx, bgCancel := context.WithCancel(ctx)
	defer bgCancel()

	go a.hub.Run(bgCtx)
	go a.services.Trash.StartCleanupTicker(bgCtx, a.cfg.TrashCleanupInterval)

	serveErr := make(chan error, 1)
	go func() {
		a.logger.Info("server starting", "addr", a.server.Addr, "store", a.cfg.StoreDriver, "backend", a.services.BackendName(a.cfg))
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err, ok := <-serveErr:
		if ok {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	bgCancel()
	if err := a.server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}

	a.logger.Info("server stopped")
	return nil
}

func (a *App) Handler() http.Handler {
	return a.server.Handler
}

// Close releases the store without serving; Run closes it on its own.
func (a *App) Close() {
	a.services.Close()
}
