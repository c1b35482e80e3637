package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"go-env-manager/internal/envbackend"
	"go-env-manager/internal/event"
	"go-env-manager/internal/metrics"
	"go-env-manager/internal/model"
	"go-env-manager/internal/storage"
)

// GroupService owns the group lifecycle and is the only writer of IsActive.
// A nil backend selects store-only degraded mode.
type GroupService struct {
	store   storage.Store
	backend envbackend.Backend
	trash   *TrashService
	bus     event.Bus
	logger  *slog.Logger
	now     func() time.Time
}

func NewGroupService(store storage.Store, backend envbackend.Backend, trash *TrashService, bus event.Bus, logger *slog.Logger) *GroupService {
	if logger == nil {
		logger = slog.Default()
	}
	return &GroupService{
		store:   store,
		backend: backend,
		trash:   trash,
		bus:     bus,
		logger:  logger,
		now:     time.Now,
	}
}

func (s *GroupService) SetClock(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

// LoadGroups returns every stored group, newest first, with IsActive
// recomputed from the live environment. Corrections are written back
// without an undo record.
func (s *GroupService) LoadGroups(ctx context.Context) ([]model.VariableGroup, error) {
	docs, err := s.store.ScanPrefix(ctx, groupPrefix)
	if err != nil {
		return nil, fmt.Errorf("list groups: %w", err)
	}

	groups := make([]model.VariableGroup, 0, len(docs))
	for _, doc := range docs {
		group, err := decodeGroup(doc)
		if err != nil {
			s.logger.Warn("skipping unreadable group", "id", doc.ID, "error", err)
			continue
		}
		if strings.TrimSpace(group.Name) == "" {
			s.logger.Warn("skipping group without name", "id", doc.ID)
			continue
		}

		groups = append(groups, s.reconcile(ctx, group))
	}

	sortGroups(groups)
	return groups, nil
}

func (s *GroupService) reconcile(ctx context.Context, group model.VariableGroup) model.VariableGroup {
	if s.backend == nil {
		return group
	}

	active, err := s.probe(ctx, group)
	if err != nil {
		metrics.EnvOperationFailures.WithLabelValues("probe").Inc()
		s.logger.Warn("activation probe failed; keeping stored state", "group_id", group.ID, "error", err)
		return group
	}
	if active == group.IsActive {
		return group
	}

	corrected := group.Clone()
	corrected.IsActive = active
	corrected.UpdatedAt = s.now().UTC()

	revision, err := putJSON(ctx, s.store, groupDocID(group.ID), storedGroup(corrected), group.Revision)
	if err != nil {
		s.logger.Warn("failed to persist activation correction", "group_id", group.ID, "error", err)
		return group
	}

	corrected.Revision = revision
	metrics.ReconcileCorrections.Inc()
	s.logger.Debug("corrected group activation", "group_id", group.ID, "is_active", active)
	return corrected
}

// probe reports whether every named variable of the group exists. Values
// are not compared.
func (s *GroupService) probe(ctx context.Context, group model.VariableGroup) (bool, error) {
	checked := 0
	for _, v := range group.Variables {
		name := strings.TrimSpace(v.Name)
		if name == "" {
			continue
		}
		_, ok, err := s.backend.ReadOne(ctx, name)
		if err != nil {
			return false, fmt.Errorf("read %q: %w", name, err)
		}
		if !ok {
			return false, nil
		}
		checked++
	}
	return checked > 0, nil
}

func (s *GroupService) Get(ctx context.Context, id string) (model.VariableGroup, error) {
	doc, err := s.store.Get(ctx, groupDocID(id))
	if err != nil {
		return model.VariableGroup{}, notFoundAs(err, model.ErrGroupNotFound)
	}
	return decodeGroup(doc)
}

// Search filters reconciled groups on name, description and variables.
func (s *GroupService) Search(ctx context.Context, query string) ([]model.VariableGroup, error) {
	groups, err := s.LoadGroups(ctx)
	if err != nil {
		return nil, err
	}

	needle := strings.ToLower(strings.TrimSpace(query))
	if needle == "" {
		return groups, nil
	}

	matched := make([]model.VariableGroup, 0)
	for _, g := range groups {
		if groupMatches(g, needle) {
			matched = append(matched, g)
		}
	}
	return matched, nil
}

func groupMatches(g model.VariableGroup, needle string) bool {
	if containsFold(g.Name, needle) || containsFold(g.Description, needle) {
		return true
	}
	for _, v := range g.Variables {
		if containsFold(v.Name, needle) || containsFold(v.Value, needle) {
			return true
		}
	}
	return false
}

// ToggleActive flips the group's activation. Per-variable failures are
// reported in the result and the new flag is persisted regardless.
func (s *GroupService) ToggleActive(ctx context.Context, id string) (model.ToggleResult, error) {
	if err := refuseSystemView(id); err != nil {
		return model.ToggleResult{}, err
	}

	group, err := s.Get(ctx, id)
	if err != nil {
		return model.ToggleResult{}, err
	}

	activate := !group.IsActive
	result := model.ToggleResult{Applied: []string{}, Failed: []model.VariableFailure{}}

	if s.backend == nil {
		result.Degraded = true
	} else {
		if activate {
			result.Applied, result.Failed = s.applyVariables(ctx, group)
		} else {
			result.Applied, result.Failed = s.removeVariables(ctx, group)
		}
		if len(result.Applied) > 0 {
			s.notify(ctx)
		}
	}

	group.IsActive = activate
	group.UpdatedAt = s.now().UTC()
	revision, err := putJSON(ctx, s.store, groupDocID(group.ID), storedGroup(group), group.Revision)
	if err != nil {
		return model.ToggleResult{}, fmt.Errorf("persist group activation: %w", err)
	}
	group.Revision = revision

	direction := "deactivate"
	if activate {
		direction = "activate"
	}
	metrics.GroupToggles.WithLabelValues(direction).Inc()
	if len(result.Failed) > 0 {
		s.logger.Warn("group toggled with failures", "group_id", group.ID, "direction", direction, "failed", len(result.Failed))
	}

	result.Group = group
	event.Publish(s.bus, event.TypeGroupToggled, result)
	return result, nil
}

func (s *GroupService) applyVariables(ctx context.Context, group model.VariableGroup) ([]string, []model.VariableFailure) {
	applied := []string{}
	failed := []model.VariableFailure{}
	for _, v := range group.Variables {
		name := strings.TrimSpace(v.Name)
		if name == "" || strings.TrimSpace(v.Value) == "" {
			continue
		}
		if err := s.backend.Write(ctx, name, v.Value, model.ScopeUser); err != nil {
			metrics.EnvOperationFailures.WithLabelValues("write").Inc()
			s.logger.Warn("failed to write variable", "group_id", group.ID, "variable", name, "error", err)
			failed = append(failed, variableFailure(group.ID, name, err))
			continue
		}
		applied = append(applied, name)
	}
	return applied, failed
}

func (s *GroupService) removeVariables(ctx context.Context, group model.VariableGroup) ([]string, []model.VariableFailure) {
	removed := []string{}
	failed := []model.VariableFailure{}
	for _, v := range group.Variables {
		name := strings.TrimSpace(v.Name)
		if name == "" {
			continue
		}
		if err := s.backend.Remove(ctx, name, model.ScopeUser); err != nil {
			metrics.EnvOperationFailures.WithLabelValues("remove").Inc()
			s.logger.Warn("failed to remove variable", "group_id", group.ID, "variable", name, "error", err)
			failed = append(failed, variableFailure(group.ID, name, err))
			continue
		}
		removed = append(removed, name)
	}
	return removed, failed
}

func (s *GroupService) notify(ctx context.Context) {
	if s.backend == nil {
		return
	}
	if err := s.backend.NotifyChanged(ctx); err != nil {
		metrics.EnvOperationFailures.WithLabelValues("notify").Inc()
		s.logger.Warn("environment change broadcast failed", "error", err)
	}
}

// Save creates or edits a group. Edits are recorded in the undo log before
// they are persisted.
func (s *GroupService) Save(ctx context.Context, input model.GroupInput, mode model.GroupSaveMode) (model.VariableGroup, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return model.VariableGroup{}, fmt.Errorf("%w: group name is required", model.ErrValidation)
	}
	variables := filterVariables(input.Variables)
	if len(variables) == 0 {
		return model.VariableGroup{}, fmt.Errorf("%w: at least one variable with a name and value is required", model.ErrValidation)
	}
	now := s.now().UTC()

	switch mode {
	case model.SaveModeCreate:
		group := model.VariableGroup{
			ID:          "group-" + uuid.NewString(),
			Name:        name,
			Description: strings.TrimSpace(input.Description),
			Variables:   variables,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		revision, err := putJSON(ctx, s.store, groupDocID(group.ID), storedGroup(group), "")
		if err != nil {
			return model.VariableGroup{}, fmt.Errorf("create group: %w", err)
		}
		group.Revision = revision
		event.Publish(s.bus, event.TypeGroupCreated, group)
		return group, nil

	case model.SaveModeEdit:
		return s.edit(ctx, input, name, variables, now)

	default:
		return model.VariableGroup{}, fmt.Errorf("%w: unknown save mode %q", model.ErrInvalidInput, mode)
	}
}

func (s *GroupService) edit(ctx context.Context, input model.GroupInput, name string, variables []model.EnvVar, now time.Time) (model.VariableGroup, error) {
	if err := refuseSystemView(input.ID); err != nil {
		return model.VariableGroup{}, err
	}

	current, err := s.Get(ctx, input.ID)
	if err != nil {
		return model.VariableGroup{}, err
	}

	revision := current.Revision
	if input.Revision != "" {
		if input.Revision != current.Revision {
			return model.VariableGroup{}, fmt.Errorf("edit group %q: revision %s is stale: %w", input.ID, input.Revision, model.ErrConflict)
		}
		revision = input.Revision
	}

	updated := current.Clone()
	updated.Name = name
	updated.Description = strings.TrimSpace(input.Description)
	updated.Variables = variables
	updated.UpdatedAt = now

	original := model.GroupSnapshot(current)
	record, err := s.trash.Add(ctx, model.TabGroups, model.TrashRecord{
		Action:       model.TrashActionEdit,
		ItemType:     model.ItemTypeGroup,
		Name:         current.Name,
		Data:         model.GroupSnapshot(updated),
		OriginalData: &original,
	})
	if err != nil {
		return model.VariableGroup{}, err
	}

	newRevision, err := putJSON(ctx, s.store, groupDocID(updated.ID), storedGroup(updated), revision)
	if err != nil {
		s.discardRecord(ctx, record)
		return model.VariableGroup{}, fmt.Errorf("update group: %w", err)
	}

	updated.Revision = newRevision
	event.Publish(s.bus, event.TypeGroupUpdated, updated)
	return updated, nil
}

// Delete removes a group, deactivating it first when active.
func (s *GroupService) Delete(ctx context.Context, id string) (model.DeleteGroupResult, error) {
	result, changed, err := s.deleteOne(ctx, id)
	if changed {
		s.notify(ctx)
	}
	return result, err
}

// DeleteBatch deletes every id, continuing past failures, with one shared
// environment broadcast.
func (s *GroupService) DeleteBatch(ctx context.Context, ids []string) model.BatchDeleteResult {
	result := model.BatchDeleteResult{
		Deleted:          []string{},
		Failed:           []model.BatchDeleteFailure{},
		VariableFailures: []model.VariableFailure{},
	}

	anyChanged := false
	for _, id := range ids {
		deleted, changed, err := s.deleteOne(ctx, id)
		anyChanged = anyChanged || changed
		if err != nil {
			result.Failed = append(result.Failed, model.BatchDeleteFailure{ID: id, Reason: err.Error()})
			continue
		}
		result.Deleted = append(result.Deleted, id)
		result.VariableFailures = append(result.VariableFailures, deleted.Failed...)
		result.Degraded = result.Degraded || deleted.Degraded
	}

	if anyChanged {
		s.notify(ctx)
	}
	return result
}

func (s *GroupService) deleteOne(ctx context.Context, id string) (model.DeleteGroupResult, bool, error) {
	if err := refuseSystemView(id); err != nil {
		return model.DeleteGroupResult{}, false, err
	}

	group, err := s.Get(ctx, id)
	if err != nil {
		return model.DeleteGroupResult{}, false, err
	}

	record, err := s.trash.Add(ctx, model.TabGroups, model.TrashRecord{
		Action:   model.TrashActionDelete,
		ItemType: model.ItemTypeGroup,
		Name:     group.Name,
		Data:     model.GroupSnapshot(group),
	})
	if err != nil {
		return model.DeleteGroupResult{}, false, err
	}

	result := model.DeleteGroupResult{ID: group.ID, Name: group.Name, Removed: []string{}, Failed: []model.VariableFailure{}}
	if group.IsActive {
		if s.backend == nil {
			result.Degraded = true
		} else {
			result.Removed, result.Failed = s.removeVariables(ctx, group)
		}
	}
	changed := len(result.Removed) > 0

	if err := s.store.Remove(ctx, groupDocID(group.ID)); err != nil {
		s.discardRecord(ctx, record)
		return model.DeleteGroupResult{}, changed, fmt.Errorf("remove group: %w", notFoundAs(err, model.ErrGroupNotFound))
	}

	event.Publish(s.bus, event.TypeGroupDeleted, result)
	return result, changed, nil
}

// RestoreRecord applies a groups trash record. A delete record re-creates
// the group inactive. An edit record rewrites the existing group with its
// pre-edit snapshot.
func (s *GroupService) RestoreRecord(ctx context.Context, record model.TrashRecord) (model.VariableGroup, error) {
	if record.ItemType != model.ItemTypeGroup || record.Data.Group == nil {
		return model.VariableGroup{}, fmt.Errorf("%w: record %s is not a group record", model.ErrInvalidInput, record.ID)
	}
	now := s.now().UTC()

	switch record.Action {
	case model.TrashActionDelete:
		group := record.Data.Group.Clone()
		if group.ID == "" {
			group.ID = "group-" + uuid.NewString()
		}
		if group.CreatedAt.IsZero() {
			group.CreatedAt = now
		}
		group.IsActive = false
		group.UpdatedAt = now

		revision, err := putJSON(ctx, s.store, groupDocID(group.ID), storedGroup(group), "")
		if err != nil {
			return model.VariableGroup{}, fmt.Errorf("restore deleted group: %w", err)
		}
		group.Revision = revision
		event.Publish(s.bus, event.TypeGroupCreated, group)
		return group, nil

	case model.TrashActionEdit:
		if record.OriginalData == nil || record.OriginalData.Group == nil {
			return model.VariableGroup{}, fmt.Errorf("%w: edit record %s has no original snapshot", model.ErrInvalidInput, record.ID)
		}
		original := record.OriginalData.Group.Clone()

		current, err := s.Get(ctx, original.ID)
		if err != nil {
			return model.VariableGroup{}, err
		}

		restored := original
		restored.IsActive = current.IsActive
		restored.CreatedAt = current.CreatedAt
		restored.UpdatedAt = now

		revision, err := putJSON(ctx, s.store, groupDocID(restored.ID), storedGroup(restored), current.Revision)
		if err != nil {
			return model.VariableGroup{}, fmt.Errorf("restore edited group: %w", err)
		}
		restored.Revision = revision
		event.Publish(s.bus, event.TypeGroupUpdated, restored)
		return restored, nil

	default:
		return model.VariableGroup{}, fmt.Errorf("%w: unknown trash action %q", model.ErrInvalidInput, record.Action)
	}
}

// discardRecord removes an undo record whose mutation did not happen.
func (s *GroupService) discardRecord(ctx context.Context, record model.TrashRecord) {
	if err := s.trash.remove(ctx, record.TabType, record.ID); err != nil && !errors.Is(err, model.ErrTrashItemNotFound) {
		s.logger.Warn("failed to discard trash record", "id", record.ID, "error", err)
	}
}

func filterVariables(vars []model.EnvVar) []model.EnvVar {
	kept := make([]model.EnvVar, 0, len(vars))
	for _, v := range vars {
		name := strings.TrimSpace(v.Name)
		if name == "" || strings.TrimSpace(v.Value) == "" {
			continue
		}
		kept = append(kept, model.EnvVar{Name: name, Value: v.Value})
	}
	return kept
}

func variableFailure(groupID string, name string, err error) model.VariableFailure {
	code := "ENV_WRITE_FAILED"
	if errors.Is(err, model.ErrPermissionDenied) {
		code = "PERMISSION_DENIED"
	}
	return model.VariableFailure{Group: groupID, Name: name, Reason: err.Error(), Code: code}
}

func refuseSystemView(id string) error {
	if isSystemViewID(id) {
		return fmt.Errorf("%w: %w: %s is a system view group", model.ErrValidation, model.ErrReadOnly, id)
	}
	return nil
}

func sortGroups(groups []model.VariableGroup) {
	sort.SliceStable(groups, func(i, j int) bool {
		if !groups[i].UpdatedAt.Equal(groups[j].UpdatedAt) {
			return groups[i].UpdatedAt.After(groups[j].UpdatedAt)
		}
		return groups[i].ID < groups[j].ID
	})
}
