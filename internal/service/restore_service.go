package service

import (
	"context"
	"fmt"
	"log/slog"

	"go-env-manager/internal/event"
	"go-env-manager/internal/metrics"
	"go-env-manager/internal/model"
)

// Restorer applies a trash record back through the component that owns it.
type Restorer interface {
	RestoreRecord(ctx context.Context, record model.TrashRecord) (any, error)
}

type RestorerFunc func(ctx context.Context, record model.TrashRecord) (any, error)

func (f RestorerFunc) RestoreRecord(ctx context.Context, record model.TrashRecord) (any, error) {
	return f(ctx, record)
}

// RestoreService consumes trash records. A record is deleted only after its
// restorer succeeded.
type RestoreService struct {
	trash     *TrashService
	restorers map[model.TabType]Restorer
	bus       event.Bus
	logger    *slog.Logger
}

func NewRestoreService(trash *TrashService, groups *GroupService, variables *VariableService, bus event.Bus, logger *slog.Logger) *RestoreService {
	if logger == nil {
		logger = slog.Default()
	}
	return &RestoreService{
		trash: trash,
		restorers: map[model.TabType]Restorer{
			model.TabGroups: RestorerFunc(func(ctx context.Context, record model.TrashRecord) (any, error) {
				return groups.RestoreRecord(ctx, record)
			}),
			model.TabUserVars: RestorerFunc(func(ctx context.Context, record model.TrashRecord) (any, error) {
				return variables.RestoreRecord(ctx, record)
			}),
		},
		bus:    bus,
		logger: logger,
	}
}

func (s *RestoreService) Restore(ctx context.Context, tab model.TabType, id string) (model.RestoreResult, error) {
	restorer, ok := s.restorers[tab]
	if !ok {
		return model.RestoreResult{}, fmt.Errorf("%w: no restorer for tab %q", model.ErrInvalidInput, tab)
	}

	record, err := s.trash.Get(ctx, tab, id)
	if err != nil {
		return model.RestoreResult{}, err
	}

	item, err := restorer.RestoreRecord(ctx, record)
	if err != nil {
		return model.RestoreResult{}, fmt.Errorf("restore %s %q: %w", record.ItemType, record.Name, err)
	}

	if err := s.trash.remove(ctx, tab, id); err != nil {
		// The item is already restored; the stale record is left in place.
		s.logger.Warn("restored item but failed to remove trash record", "tab", tab, "id", id, "error", err)
	}

	metrics.TrashRecordsRestored.WithLabelValues(string(tab)).Inc()
	result := model.RestoreResult{Record: record, Item: item}
	event.Publish(s.bus, event.TypeTrashRestored, result)
	return result, nil
}
