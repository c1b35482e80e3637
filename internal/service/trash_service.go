package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"go-env-manager/internal/event"
	"go-env-manager/internal/metrics"
	"go-env-manager/internal/model"
	"go-env-manager/internal/storage"
)

const DefaultCleanupDays = 30

var trashTabs = []model.TabType{model.TabGroups, model.TabUserVars}

// TrashService is the undo log. It is the only writer of trash records and
// trash settings.
type TrashService struct {
	store       storage.Store
	bus         event.Bus
	logger      *slog.Logger
	defaultDays int
	now         func() time.Time
}

func NewTrashService(store storage.Store, bus event.Bus, logger *slog.Logger, defaultCleanupDays int) *TrashService {
	if defaultCleanupDays < 1 {
		defaultCleanupDays = DefaultCleanupDays
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &TrashService{
		store:       store,
		bus:         bus,
		logger:      logger,
		defaultDays: defaultCleanupDays,
		now:         time.Now,
	}
}

// SetClock replaces the time source.
func (s *TrashService) SetClock(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

// Add assigns the record a time-ordered id and timestamp and persists it.
func (s *TrashService) Add(ctx context.Context, tab model.TabType, record model.TrashRecord) (model.TrashRecord, error) {
	record.TabType = tab
	if err := record.Validate(); err != nil {
		return model.TrashRecord{}, err
	}

	now := s.now().UTC()
	record.ID = fmt.Sprintf("%d-%s", now.UnixMilli(), randomSuffix())
	record.Timestamp = now

	if _, err := putJSON(ctx, s.store, trashDocID(tab, record.ID), record, ""); err != nil {
		return model.TrashRecord{}, fmt.Errorf("create trash record: %w", err)
	}

	metrics.TrashRecordsAdded.WithLabelValues(string(tab)).Inc()
	event.Publish(s.bus, event.TypeTrashAdded, record)
	return record, nil
}

// List returns the tab's records, newest first.
func (s *TrashService) List(ctx context.Context, tab model.TabType) ([]model.TrashRecord, error) {
	docs, err := s.store.ScanPrefix(ctx, trashDocPrefix(tab))
	if err != nil {
		return nil, fmt.Errorf("list trash records: %w", err)
	}

	records := make([]model.TrashRecord, 0, len(docs))
	for _, doc := range docs {
		var record model.TrashRecord
		if err := json.Unmarshal(doc.Data, &record); err != nil {
			s.logger.Warn("skipping unreadable trash record", "id", doc.ID, "error", err)
			continue
		}
		records = append(records, record)
	}

	sort.SliceStable(records, func(i, j int) bool {
		if !records[i].Timestamp.Equal(records[j].Timestamp) {
			return records[i].Timestamp.After(records[j].Timestamp)
		}
		return records[i].ID > records[j].ID
	})
	return records, nil
}

func (s *TrashService) Get(ctx context.Context, tab model.TabType, id string) (model.TrashRecord, error) {
	doc, err := s.store.Get(ctx, trashDocID(tab, id))
	if err != nil {
		return model.TrashRecord{}, notFoundAs(err, model.ErrTrashItemNotFound)
	}

	var record model.TrashRecord
	if err := json.Unmarshal(doc.Data, &record); err != nil {
		return model.TrashRecord{}, fmt.Errorf("decode trash record %q: %w", id, err)
	}
	return record, nil
}

// Delete permanently removes a record.
func (s *TrashService) Delete(ctx context.Context, tab model.TabType, id string) error {
	if err := s.remove(ctx, tab, id); err != nil {
		return err
	}
	event.Publish(s.bus, event.TypeTrashDeleted, map[string]string{"tab": string(tab), "id": id})
	return nil
}

func (s *TrashService) remove(ctx context.Context, tab model.TabType, id string) error {
	if err := s.store.Remove(ctx, trashDocID(tab, id)); err != nil {
		return notFoundAs(err, model.ErrTrashItemNotFound)
	}
	return nil
}

// ClearOld removes every record older than the tab's retention window and
// reports how many were removed.
func (s *TrashService) ClearOld(ctx context.Context, tab model.TabType) (int, error) {
	settings, err := s.Settings(ctx, tab)
	if err != nil {
		return 0, err
	}

	records, err := s.List(ctx, tab)
	if err != nil {
		return 0, err
	}

	cutoff := s.now().UTC().AddDate(0, 0, -settings.AutoCleanupDays)
	removed := 0
	for _, record := range records {
		if !record.Timestamp.Before(cutoff) {
			continue
		}
		if err := s.remove(ctx, tab, record.ID); err != nil {
			if errors.Is(err, model.ErrTrashItemNotFound) {
				continue
			}
			s.logger.Warn("failed to prune trash record", "tab", tab, "id", record.ID, "error", err)
			continue
		}
		removed++
	}

	if removed > 0 {
		metrics.TrashRecordsPruned.WithLabelValues(string(tab)).Add(float64(removed))
		event.Publish(s.bus, event.TypeTrashPruned, map[string]any{"tab": tab, "count": removed})
		s.logger.Info("pruned old trash records", "tab", tab, "count", removed, "days", settings.AutoCleanupDays)
	}
	return removed, nil
}

func (s *TrashService) Settings(ctx context.Context, tab model.TabType) (model.TrashSettings, error) {
	settings, _, err := s.loadSettings(ctx, tab)
	return settings, err
}

func (s *TrashService) loadSettings(ctx context.Context, tab model.TabType) (model.TrashSettings, string, error) {
	defaults := model.TrashSettings{AutoCleanupDays: s.defaultDays}

	doc, err := s.store.Get(ctx, trashSettingsDocID(tab))
	if errors.Is(err, model.ErrDocumentNotFound) {
		return defaults, "", nil
	}
	if err != nil {
		return model.TrashSettings{}, "", fmt.Errorf("load trash settings: %w", err)
	}

	settings := defaults
	if err := json.Unmarshal(doc.Data, &settings); err != nil {
		s.logger.Warn("unreadable trash settings; using defaults", "tab", tab, "error", err)
		return defaults, doc.Revision, nil
	}
	if settings.AutoCleanupDays < 1 {
		settings.AutoCleanupDays = s.defaultDays
	}
	return settings, doc.Revision, nil
}

// UpdateSettings merges patch into the stored settings for tab.
func (s *TrashService) UpdateSettings(ctx context.Context, tab model.TabType, patch model.TrashSettingsPatch) (model.TrashSettings, error) {
	settings, revision, err := s.loadSettings(ctx, tab)
	if err != nil {
		return model.TrashSettings{}, err
	}

	if patch.AutoCleanupDays != nil {
		if *patch.AutoCleanupDays < 1 {
			return model.TrashSettings{}, fmt.Errorf("%w: auto_cleanup_days must be at least 1", model.ErrValidation)
		}
		settings.AutoCleanupDays = *patch.AutoCleanupDays
	}

	if _, err := putJSON(ctx, s.store, trashSettingsDocID(tab), settings, revision); err != nil {
		return model.TrashSettings{}, fmt.Errorf("save trash settings: %w", err)
	}
	return settings, nil
}

func (s *TrashService) Count(ctx context.Context, tab model.TabType) (int, error) {
	docs, err := s.store.ScanPrefix(ctx, trashDocPrefix(tab))
	if err != nil {
		return 0, fmt.Errorf("count trash records: %w", err)
	}
	return len(docs), nil
}

// StartCleanupTicker runs ClearOld for every tab on interval until ctx is cancelled.
func (s *TrashService) StartCleanupTicker(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	// Run once on startup to clear records that expired while stopped.
	s.clearAllTabs(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.clearAllTabs(ctx)
		}
	}
}

func (s *TrashService) clearAllTabs(ctx context.Context) {
	for _, tab := range trashTabs {
		if _, err := s.ClearOld(ctx, tab); err != nil {
			s.logger.Warn("scheduled trash cleanup failed", "tab", tab, "error", err)
		}
	}
}

func randomSuffix() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:9]
}
