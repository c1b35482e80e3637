package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"go-env-manager/internal/envbackend"
	"go-env-manager/internal/event"
	"go-env-manager/internal/metrics"
	"go-env-manager/internal/model"
	"go-env-manager/internal/storage"
)

// VariableService mirrors user-scope OS variables into tracked records.
type VariableService struct {
	store   storage.Store
	backend envbackend.Backend
	trash   *TrashService
	bus     event.Bus
	logger  *slog.Logger
	now     func() time.Time
}

func NewVariableService(store storage.Store, backend envbackend.Backend, trash *TrashService, bus event.Bus, logger *slog.Logger) *VariableService {
	if logger == nil {
		logger = slog.Default()
	}
	return &VariableService{
		store:   store,
		backend: backend,
		trash:   trash,
		bus:     bus,
		logger:  logger,
		now:     time.Now,
	}
}

func (s *VariableService) SetClock(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

// Reconcile prunes tracked records missing from the live user scope,
// adopts untracked live variables and returns the merged list sorted by name.
func (s *VariableService) Reconcile(ctx context.Context) ([]model.IndividualVariable, error) {
	tracked, err := s.tracked(ctx)
	if err != nil {
		return nil, err
	}

	if s.backend == nil {
		out := make([]model.IndividualVariable, 0, len(tracked))
		for _, v := range tracked {
			out = append(out, v)
		}
		return sortVariables(out), nil
	}

	live, err := s.backend.ReadAll(ctx, model.ScopeUser)
	if err != nil {
		return nil, fmt.Errorf("read user variables: %w", err)
	}
	liveValues := make(map[string]string, len(live))
	for _, v := range live {
		liveValues[v.Name] = v.Value
	}

	out := make([]model.IndividualVariable, 0, len(live))
	for name, record := range tracked {
		value, ok := liveValues[name]
		if !ok {
			if err := s.store.Remove(ctx, variableDocID(name)); err != nil && !errors.Is(err, model.ErrDocumentNotFound) {
				s.logger.Warn("failed to prune tracked variable", "variable", name, "error", err)
			}
			continue
		}
		record.Value = value
		out = append(out, record)
	}

	now := s.now().UTC()
	for _, v := range live {
		if _, ok := tracked[v.Name]; ok {
			continue
		}
		record := model.IndividualVariable{
			Name:             v.Name,
			Value:            v.Value,
			IsSystemOriginal: true,
			CreatedAt:        now,
			UpdatedAt:        now,
		}
		revision, err := putJSON(ctx, s.store, variableDocID(v.Name), storedVariable(record), "")
		if err != nil {
			s.logger.Warn("failed to adopt live variable", "variable", v.Name, "error", err)
		}
		record.Revision = revision
		out = append(out, record)
	}

	return sortVariables(out), nil
}

func (s *VariableService) tracked(ctx context.Context) (map[string]model.IndividualVariable, error) {
	docs, err := s.store.ScanPrefix(ctx, variablePrefix)
	if err != nil {
		return nil, fmt.Errorf("list tracked variables: %w", err)
	}

	tracked := make(map[string]model.IndividualVariable, len(docs))
	for _, doc := range docs {
		v, err := decodeVariable(doc)
		if err != nil {
			s.logger.Warn("skipping unreadable variable record", "id", doc.ID, "error", err)
			continue
		}
		tracked[v.Name] = v
	}
	return tracked, nil
}

func (s *VariableService) Search(ctx context.Context, query string) ([]model.IndividualVariable, error) {
	vars, err := s.Reconcile(ctx)
	if err != nil {
		return nil, err
	}

	needle := strings.ToLower(strings.TrimSpace(query))
	if needle == "" {
		return vars, nil
	}

	matched := make([]model.IndividualVariable, 0)
	for _, v := range vars {
		if containsFold(v.Name, needle) || containsFold(v.Value, needle) {
			matched = append(matched, v)
		}
	}
	return matched, nil
}

// Get returns the tracked record for name with its live value.
func (s *VariableService) Get(ctx context.Context, name string) (model.IndividualVariable, error) {
	record, err := s.lookup(ctx, name)
	if err != nil {
		return model.IndividualVariable{}, err
	}
	if record == nil {
		return model.IndividualVariable{}, fmt.Errorf("%w: %s", model.ErrVariableNotFound, name)
	}

	if value, ok, err := s.liveValue(ctx, record.Name); err != nil {
		return model.IndividualVariable{}, err
	} else if ok {
		record.Value = value
	}
	record.IsPathList = IsListVariable(record.Name)
	return *record, nil
}

// Save writes name=value to the user scope and tracks it. Overwrites are
// recorded in the undo log with the prior live value.
func (s *VariableService) Save(ctx context.Context, name string, value string, isNew bool) (model.IndividualVariable, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return model.IndividualVariable{}, fmt.Errorf("%w: variable name is required", model.ErrValidation)
	}
	if strings.ContainsAny(name, "=\x00") {
		return model.IndividualVariable{}, fmt.Errorf("%w: variable name must not contain '='", model.ErrValidation)
	}
	if strings.TrimSpace(value) == "" {
		return model.IndividualVariable{}, fmt.Errorf("%w: variable value is required", model.ErrValidation)
	}

	prior, err := s.lookup(ctx, name)
	if err != nil {
		return model.IndividualVariable{}, err
	}

	var record *model.TrashRecord
	switch {
	case isNew && prior != nil:
		return model.IndividualVariable{}, fmt.Errorf("create variable %q: already tracked: %w", name, model.ErrConflict)
	case !isNew && prior == nil:
		return model.IndividualVariable{}, fmt.Errorf("%w: %s", model.ErrVariableNotFound, name)
	case !isNew:
		oldValue := prior.Value
		if live, ok, err := s.liveValue(ctx, name); err != nil {
			return model.IndividualVariable{}, err
		} else if ok {
			oldValue = live
		}

		original := model.VariableSnapshot(name, oldValue)
		added, err := s.trash.Add(ctx, model.TabUserVars, model.TrashRecord{
			Action:       model.TrashActionEdit,
			ItemType:     model.ItemTypeVariable,
			Name:         name,
			Data:         model.VariableSnapshot(name, value),
			OriginalData: &original,
		})
		if err != nil {
			return model.IndividualVariable{}, err
		}
		record = &added
	}

	if err := s.writeLive(ctx, name, value); err != nil {
		if record != nil {
			s.discardRecord(ctx, *record)
		}
		return model.IndividualVariable{}, err
	}

	saved, err := s.persist(ctx, name, value, prior, nil)
	if err != nil {
		return model.IndividualVariable{}, err
	}

	event.Publish(s.bus, event.TypeVariableSaved, saved)
	return saved, nil
}

// Delete records the variable in the undo log, removes it from the user
// scope and stops tracking it.
func (s *VariableService) Delete(ctx context.Context, name string) error {
	name = strings.TrimSpace(name)
	prior, err := s.lookup(ctx, name)
	if err != nil {
		return err
	}

	value, live, err := s.liveValue(ctx, name)
	if err != nil {
		return err
	}
	if !live {
		if prior == nil {
			return fmt.Errorf("%w: %s", model.ErrVariableNotFound, name)
		}
		value = prior.Value
	}

	record, err := s.trash.Add(ctx, model.TabUserVars, model.TrashRecord{
		Action:   model.TrashActionDelete,
		ItemType: model.ItemTypeVariable,
		Name:     name,
		Data:     model.VariableSnapshot(name, value),
	})
	if err != nil {
		return err
	}

	if s.backend != nil {
		if err := s.backend.Remove(ctx, name, model.ScopeUser); err != nil {
			metrics.EnvOperationFailures.WithLabelValues("remove").Inc()
			s.discardRecord(ctx, record)
			return fmt.Errorf("remove variable %q: %w", name, err)
		}
		s.notify(ctx)
	}

	if err := s.store.Remove(ctx, variableDocID(name)); err != nil && !errors.Is(err, model.ErrDocumentNotFound) {
		return fmt.Errorf("untrack variable %q: %w", name, err)
	}

	event.Publish(s.bus, event.TypeVariableDeleted, map[string]string{"name": name})
	return nil
}

// PathSegments returns the list variable's value split into segments.
func (s *VariableService) PathSegments(ctx context.Context, name string) ([]string, error) {
	if !IsListVariable(name) {
		return nil, fmt.Errorf("%w: %s is not a path list variable", model.ErrValidation, name)
	}

	value, ok, err := s.liveValue(ctx, name)
	if err != nil {
		return nil, err
	}
	if !ok {
		record, err := s.lookup(ctx, name)
		if err != nil {
			return nil, err
		}
		if record == nil {
			return nil, fmt.Errorf("%w: %s", model.ErrVariableNotFound, name)
		}
		value = record.Value
	}
	return SplitPathList(value), nil
}

// SavePathSegments joins segments with the platform separator and saves them.
func (s *VariableService) SavePathSegments(ctx context.Context, name string, segments []string) (model.IndividualVariable, error) {
	if !IsListVariable(name) {
		return model.IndividualVariable{}, fmt.Errorf("%w: %s is not a path list variable", model.ErrValidation, name)
	}

	joined := JoinPathList(segments)
	if joined == "" {
		return model.IndividualVariable{}, fmt.Errorf("%w: at least one non-empty segment is required", model.ErrValidation)
	}

	prior, err := s.lookup(ctx, name)
	if err != nil {
		return model.IndividualVariable{}, err
	}
	return s.Save(ctx, name, joined, prior == nil)
}

// RestoreRecord applies a user-vars trash record to the live environment
// and the tracked record.
func (s *VariableService) RestoreRecord(ctx context.Context, record model.TrashRecord) (model.IndividualVariable, error) {
	if record.ItemType != model.ItemTypeVariable || record.Data.Variable == nil {
		return model.IndividualVariable{}, fmt.Errorf("%w: record %s is not a variable record", model.ErrInvalidInput, record.ID)
	}

	var target model.EnvVar
	switch record.Action {
	case model.TrashActionDelete:
		target = *record.Data.Variable
	case model.TrashActionEdit:
		if record.OriginalData == nil || record.OriginalData.Variable == nil {
			return model.IndividualVariable{}, fmt.Errorf("%w: edit record %s has no original snapshot", model.ErrInvalidInput, record.ID)
		}
		target = *record.OriginalData.Variable
	default:
		return model.IndividualVariable{}, fmt.Errorf("%w: unknown trash action %q", model.ErrInvalidInput, record.Action)
	}

	if err := s.writeLive(ctx, target.Name, target.Value); err != nil {
		return model.IndividualVariable{}, err
	}

	prior, err := s.lookup(ctx, target.Name)
	if err != nil {
		return model.IndividualVariable{}, err
	}

	var systemOriginal *bool
	if record.Action == model.TrashActionDelete {
		no := false
		systemOriginal = &no
	}
	restored, err := s.persist(ctx, target.Name, target.Value, prior, systemOriginal)
	if err != nil {
		return model.IndividualVariable{}, err
	}

	event.Publish(s.bus, event.TypeVariableSaved, restored)
	return restored, nil
}

func (s *VariableService) lookup(ctx context.Context, name string) (*model.IndividualVariable, error) {
	doc, err := s.store.Get(ctx, variableDocID(name))
	if errors.Is(err, model.ErrDocumentNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load variable %q: %w", name, err)
	}
	v, err := decodeVariable(doc)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// liveValue reads name from the user scope. On Windows names match
// case-insensitively when no exact match exists.
func (s *VariableService) liveValue(ctx context.Context, name string) (string, bool, error) {
	if s.backend == nil {
		return "", false, nil
	}

	live, err := s.backend.ReadAll(ctx, model.ScopeUser)
	if err != nil {
		return "", false, fmt.Errorf("read user variables: %w", err)
	}

	fallback, found := "", false
	for _, v := range live {
		if v.Name == name {
			return v.Value, true, nil
		}
		if !found && sameName(v.Name, name) {
			fallback, found = v.Value, true
		}
	}
	return fallback, found, nil
}

func (s *VariableService) writeLive(ctx context.Context, name string, value string) error {
	if s.backend == nil {
		return nil
	}
	if err := s.backend.Write(ctx, name, value, model.ScopeUser); err != nil {
		metrics.EnvOperationFailures.WithLabelValues("write").Inc()
		return fmt.Errorf("write variable %q: %w", name, err)
	}
	s.notify(ctx)
	return nil
}

func (s *VariableService) notify(ctx context.Context) {
	if err := s.backend.NotifyChanged(ctx); err != nil {
		metrics.EnvOperationFailures.WithLabelValues("notify").Inc()
		s.logger.Warn("environment change broadcast failed", "error", err)
	}
}

// persist creates or overwrites the tracked record. Overwrites keep
// CreatedAt and, unless systemOriginal is given, IsSystemOriginal.
func (s *VariableService) persist(ctx context.Context, name string, value string, prior *model.IndividualVariable, systemOriginal *bool) (model.IndividualVariable, error) {
	now := s.now().UTC()

	record := model.IndividualVariable{Name: name, Value: value, CreatedAt: now, UpdatedAt: now}
	revision := ""
	if prior != nil {
		record.CreatedAt = prior.CreatedAt
		record.IsSystemOriginal = prior.IsSystemOriginal
		revision = prior.Revision
	}
	if systemOriginal != nil {
		record.IsSystemOriginal = *systemOriginal
	}

	newRevision, err := putJSON(ctx, s.store, variableDocID(name), storedVariable(record), revision)
	if err != nil {
		return model.IndividualVariable{}, fmt.Errorf("track variable %q: %w", name, err)
	}
	record.Revision = newRevision
	record.IsPathList = IsListVariable(name)
	return record, nil
}

func (s *VariableService) discardRecord(ctx context.Context, record model.TrashRecord) {
	if err := s.trash.remove(ctx, record.TabType, record.ID); err != nil && !errors.Is(err, model.ErrTrashItemNotFound) {
		s.logger.Warn("failed to discard trash record", "id", record.ID, "error", err)
	}
}

func sortVariables(vars []model.IndividualVariable) []model.IndividualVariable {
	for i := range vars {
		vars[i].IsPathList = IsListVariable(vars[i].Name)
	}
	sort.Slice(vars, func(i, j int) bool {
		li, lj := strings.ToLower(vars[i].Name), strings.ToLower(vars[j].Name)
		if li != lj {
			return li < lj
		}
		return vars[i].Name < vars[j].Name
	})
	return vars
}
