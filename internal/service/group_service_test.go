package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"go-env-manager/internal/envbackend"
	"go-env-manager/internal/model"
	"go-env-manager/internal/storage"
)

func activeFlags(groups []model.VariableGroup) map[string]bool {
	flags := make(map[string]bool, len(groups))
	for _, g := range groups {
		flags[g.ID] = g.IsActive
	}
	return flags
}

func TestGroupService_SaveCreate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	group, err := f.groups.Save(ctx, model.GroupInput{
		Name:        "  java  ",
		Description: "jdk 21",
		Variables:   []model.EnvVar{env("JAVA_HOME", "/opt/jdk"), env(" ", "x"), env("EMPTY", " "), env(" MAVEN_OPTS ", "-Xmx1g")},
	}, model.SaveModeCreate)
	require.NoError(t, err)

	assert.Regexp(t, `^group-[0-9a-f-]{36}$`, group.ID)
	assert.Equal(t, "java", group.Name)
	assert.False(t, group.IsActive)
	assert.NotEmpty(t, group.Revision)
	assert.Equal(t, []model.EnvVar{env("JAVA_HOME", "/opt/jdk"), env("MAVEN_OPTS", "-Xmx1g")}, group.Variables)

	doc, err := f.store.Get(ctx, "user-group-"+group.ID)
	require.NoError(t, err)
	var stored map[string]any
	require.NoError(t, json.Unmarshal(doc.Data, &stored))
	assert.NotContains(t, stored, "revision")
}

func TestGroupService_SaveValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.groups.Save(ctx, model.GroupInput{Name: " ", Variables: []model.EnvVar{env("A", "1")}}, model.SaveModeCreate)
	require.ErrorIs(t, err, model.ErrValidation)

	_, err = f.groups.Save(ctx, model.GroupInput{Name: "blank", Variables: []model.EnvVar{env("A", ""), env("", "1")}}, model.SaveModeCreate)
	require.ErrorIs(t, err, model.ErrValidation)

	groups, err := f.groups.LoadGroups(ctx)
	require.NoError(t, err)
	assert.Empty(t, groups)
}

func TestGroupService_LoadGroupsIsIdempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	present := f.createGroup(t, "present", env("A", "1"))
	absent := f.createGroup(t, "absent", env("B", "2"))
	f.env.Set(model.ScopeUser, "A", "1")

	first, err := f.groups.LoadGroups(ctx)
	require.NoError(t, err)
	second, err := f.groups.LoadGroups(ctx)
	require.NoError(t, err)

	assert.Equal(t, activeFlags(first), activeFlags(second))
	assert.True(t, activeFlags(first)[present.ID])
	assert.False(t, activeFlags(first)[absent.ID])

	// The correction happened once and is not an undoable action.
	assert.Empty(t, f.trashRecords(t, model.TabGroups))
	assert.Equal(t, first[0].Revision, second[0].Revision)
}

func TestGroupService_ActivationIsExistenceOnly(t *testing.T) {
	f := newFixture(t)
	group := f.createGroup(t, "mismatch", env("A", "1"))
	f.env.Set(model.ScopeUser, "A", "x")

	groups, err := f.groups.LoadGroups(context.Background())
	require.NoError(t, err)
	require.Len(t, groups, 1)
	assert.Equal(t, group.ID, groups[0].ID)
	assert.True(t, groups[0].IsActive)
}

func TestGroupService_EmptyGroupNeverActive(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// Written directly: Save refuses groups without variables.
	raw, err := json.Marshal(model.VariableGroup{ID: "group-empty", Name: "empty", IsActive: true})
	require.NoError(t, err)
	_, err = f.store.Put(ctx, "user-group-group-empty", raw, "")
	require.NoError(t, err)

	raw, err = json.Marshal(model.VariableGroup{ID: "group-blank", Name: "blank", IsActive: true, Variables: []model.EnvVar{env(" ", "1")}})
	require.NoError(t, err)
	_, err = f.store.Put(ctx, "user-group-group-blank", raw, "")
	require.NoError(t, err)

	groups, err := f.groups.LoadGroups(ctx)
	require.NoError(t, err)
	require.Len(t, groups, 2)
	for _, g := range groups {
		assert.False(t, g.IsActive, g.ID)
	}
}

func TestGroupService_LoadGroupsSkipsBadEntriesAndSorts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.store.Put(ctx, "user-group-nameless", []byte(`{"id":"nameless","name":"  "}`), "")
	require.NoError(t, err)
	_, err = f.store.Put(ctx, "user-group-garbage", []byte(`[1,2,3]`), "")
	require.NoError(t, err)

	older := f.createGroup(t, "older", env("A", "1"))
	newer := f.createGroup(t, "newer", env("B", "1"))

	groups, err := f.groups.LoadGroups(ctx)
	require.NoError(t, err)
	require.Len(t, groups, 2)
	assert.Equal(t, newer.ID, groups[0].ID)
	assert.Equal(t, older.ID, groups[1].ID)
}

func TestGroupService_ReadFailureKeepsStoredState(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	group := f.createGroup(t, "unreadable", env("A", "1"))
	_, err := f.groups.ToggleActive(ctx, group.ID)
	require.NoError(t, err)

	f.env.FailReads(errors.New("registry locked"))
	groups, err := f.groups.LoadGroups(ctx)
	require.NoError(t, err)
	require.Len(t, groups, 1)
	assert.True(t, groups[0].IsActive)
}

func TestGroupService_ToggleActivatesAndDeactivates(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	group := f.createGroup(t, "go", env("GOPATH", "/go"), env("GOFLAGS", "-mod=mod"))

	result, err := f.groups.ToggleActive(ctx, group.ID)
	require.NoError(t, err)
	assert.True(t, result.Group.IsActive)
	assert.Equal(t, []string{"GOPATH", "GOFLAGS"}, result.Applied)
	assert.Empty(t, result.Failed)
	assert.Equal(t, 1, f.env.NotifyCount())

	value, ok := f.env.Value(model.ScopeUser, "GOPATH")
	assert.True(t, ok)
	assert.Equal(t, "/go", value)

	result, err = f.groups.ToggleActive(ctx, group.ID)
	require.NoError(t, err)
	assert.False(t, result.Group.IsActive)
	_, ok = f.env.Value(model.ScopeUser, "GOPATH")
	assert.False(t, ok)
	assert.Equal(t, 2, f.env.NotifyCount())

	// Toggling is not undoable through the trash.
	assert.Empty(t, f.trashRecords(t, model.TabGroups))
}

func TestGroupService_TogglePartialFailure(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	group := f.createGroup(t, "pair", env("A", "1"), env("B", "2"))
	f.env.FailWrite("B", model.ErrPermissionDenied)

	result, err := f.groups.ToggleActive(ctx, group.ID)
	require.NoError(t, err)

	_, aExists := f.env.Value(model.ScopeUser, "A")
	_, bExists := f.env.Value(model.ScopeUser, "B")
	assert.True(t, aExists)
	assert.False(t, bExists)

	assert.True(t, result.Group.IsActive)
	assert.Equal(t, []string{"A"}, result.Applied)
	require.Len(t, result.Failed, 1)
	assert.Equal(t, "B", result.Failed[0].Name)
	assert.Equal(t, "PERMISSION_DENIED", result.Failed[0].Code)
	assert.Equal(t, 1, f.env.NotifyCount())

	stored, err := f.groups.Get(ctx, group.ID)
	require.NoError(t, err)
	assert.True(t, stored.IsActive)

	// The next load corrects the flag from live state.
	groups, err := f.groups.LoadGroups(ctx)
	require.NoError(t, err)
	assert.False(t, groups[0].IsActive)
}

func TestGroupService_ToggleWithEveryWriteFailingSkipsNotify(t *testing.T) {
	f := newFixture(t)
	group := f.createGroup(t, "denied", env("A", "1"))
	f.env.FailWrite("A", errors.New("boom"))

	result, err := f.groups.ToggleActive(context.Background(), group.ID)
	require.NoError(t, err)
	assert.Empty(t, result.Applied)
	require.Len(t, result.Failed, 1)
	assert.Equal(t, "ENV_WRITE_FAILED", result.Failed[0].Code)
	assert.Zero(t, f.env.NotifyCount())
}

func TestGroupService_ToggleCallOrder(t *testing.T) {
	store := storage.NewMemoryStore()
	backend := new(envbackend.MockBackend)
	logger := discardLogger()
	trash := NewTrashService(store, nil, logger, 0)
	svc := NewGroupService(store, backend, trash, nil, logger)
	ctx := context.Background()

	group, err := svc.Save(ctx, model.GroupInput{Name: "ordered", Variables: []model.EnvVar{env("A", "1"), env("B", "2")}}, model.SaveModeCreate)
	require.NoError(t, err)

	first := backend.On("Write", mock.Anything, "A", "1", model.ScopeUser).Return(nil).Once()
	second := backend.On("Write", mock.Anything, "B", "2", model.ScopeUser).Return(nil).Once().NotBefore(first)
	backend.On("NotifyChanged", mock.Anything).Return(errors.New("broadcast timed out")).Once().NotBefore(second)

	result, err := svc.ToggleActive(ctx, group.ID)
	require.NoError(t, err, "notify failures are logged only")
	assert.True(t, result.Group.IsActive)
	backend.AssertExpectations(t)
}

func TestGroupService_ToggleMissingGroup(t *testing.T) {
	f := newFixture(t)
	_, err := f.groups.ToggleActive(context.Background(), "group-nope")
	require.ErrorIs(t, err, model.ErrGroupNotFound)
}

func TestGroupService_RefusesSystemViewGroups(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.groups.ToggleActive(ctx, "system-sys-path")
	require.ErrorIs(t, err, model.ErrValidation)
	require.ErrorIs(t, err, model.ErrReadOnly)

	_, err = f.groups.Delete(ctx, "system-user-temp")
	require.ErrorIs(t, err, model.ErrValidation)

	_, err = f.groups.Save(ctx, model.GroupInput{ID: "system-user-temp", Name: "x", Variables: []model.EnvVar{env("A", "1")}}, model.SaveModeEdit)
	require.ErrorIs(t, err, model.ErrValidation)
}

func TestGroupService_EditRecordsUndoAndPreservesState(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	group := f.createGroup(t, "node", env("NODE_ENV", "development"))
	toggled, err := f.groups.ToggleActive(ctx, group.ID)
	require.NoError(t, err)

	edited, err := f.groups.Save(ctx, model.GroupInput{
		ID:        group.ID,
		Name:      "node prod",
		Variables: []model.EnvVar{env("NODE_ENV", "production")},
		Revision:  toggled.Group.Revision,
	}, model.SaveModeEdit)
	require.NoError(t, err)
	assert.True(t, edited.IsActive)
	assert.True(t, group.CreatedAt.Equal(edited.CreatedAt))
	assert.True(t, edited.UpdatedAt.After(group.UpdatedAt))

	records := f.trashRecords(t, model.TabGroups)
	require.Len(t, records, 1)
	record := records[0]
	assert.Equal(t, model.TrashActionEdit, record.Action)
	assert.Equal(t, "node prod", record.Data.Group.Name)
	require.NotNil(t, record.OriginalData)
	assert.Equal(t, "node", record.OriginalData.Group.Name)
	assert.Equal(t, "development", record.OriginalData.Group.Variables[0].Value)
}

func TestGroupService_StaleRevisionRejected(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	group := f.createGroup(t, "race", env("A", "1"))

	_, err := f.groups.Save(ctx, model.GroupInput{ID: group.ID, Name: "first", Variables: []model.EnvVar{env("A", "2")}, Revision: group.Revision}, model.SaveModeEdit)
	require.NoError(t, err)

	_, err = f.groups.Save(ctx, model.GroupInput{ID: group.ID, Name: "second", Variables: []model.EnvVar{env("A", "3")}, Revision: group.Revision}, model.SaveModeEdit)
	require.ErrorIs(t, err, model.ErrConflict)

	stored, err := f.groups.Get(ctx, group.ID)
	require.NoError(t, err)
	assert.Equal(t, "first", stored.Name)
	assert.Len(t, f.trashRecords(t, model.TabGroups), 1)
}

// conflictingStore fails every group update, simulating a concurrent writer.
type conflictingStore struct {
	*storage.MemoryStore
	armed bool
}

func (s *conflictingStore) Put(ctx context.Context, id string, data []byte, expectedRevision string) (string, error) {
	if s.armed && expectedRevision != "" && len(id) > len(groupPrefix) && id[:len(groupPrefix)] == groupPrefix {
		return "", model.ErrConflict
	}
	return s.MemoryStore.Put(ctx, id, data, expectedRevision)
}

func TestGroupService_EditPersistFailureDiscardsUndoRecord(t *testing.T) {
	store := &conflictingStore{MemoryStore: storage.NewMemoryStore()}
	f := newFixtureWith(t, store, envbackend.NewMemoryBackend())
	group := f.createGroup(t, "lost", env("A", "1"))

	store.armed = true
	_, err := f.groups.Save(context.Background(), model.GroupInput{ID: group.ID, Name: "renamed", Variables: []model.EnvVar{env("A", "2")}}, model.SaveModeEdit)
	require.ErrorIs(t, err, model.ErrConflict)
	assert.Empty(t, f.trashRecords(t, model.TabGroups))
}

func TestGroupService_DeleteRestoreRoundTrip(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	group := f.createGroup(t, "rust", env("CARGO_HOME", "/cargo"), env("RUSTUP_HOME", "/rustup"))
	_, err := f.groups.Save(ctx, model.GroupInput{ID: group.ID, Name: "rust", Description: "toolchain", Variables: group.Variables}, model.SaveModeEdit)
	require.NoError(t, err)
	_, err = f.groups.ToggleActive(ctx, group.ID)
	require.NoError(t, err)
	snapshot, err := f.groups.Get(ctx, group.ID)
	require.NoError(t, err)

	deleted, err := f.groups.Delete(ctx, group.ID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"CARGO_HOME", "RUSTUP_HOME"}, deleted.Removed)
	_, ok := f.env.Value(model.ScopeUser, "CARGO_HOME")
	assert.False(t, ok)

	_, err = f.groups.Get(ctx, group.ID)
	require.ErrorIs(t, err, model.ErrGroupNotFound)

	var deleteRecord model.TrashRecord
	for _, r := range f.trashRecords(t, model.TabGroups) {
		if r.Action == model.TrashActionDelete {
			deleteRecord = r
		}
	}
	require.NotEmpty(t, deleteRecord.ID)

	result, err := f.restore.Restore(ctx, model.TabGroups, deleteRecord.ID)
	require.NoError(t, err)
	restored, ok := result.Item.(model.VariableGroup)
	require.True(t, ok)

	assert.Equal(t, snapshot.ID, restored.ID)
	assert.Equal(t, snapshot.Name, restored.Name)
	assert.Equal(t, snapshot.Description, restored.Description)
	assert.Equal(t, snapshot.Variables, restored.Variables)
	assert.False(t, restored.IsActive)
	assert.True(t, restored.UpdatedAt.After(snapshot.UpdatedAt))

	_, err = f.trash.Get(ctx, model.TabGroups, deleteRecord.ID)
	require.ErrorIs(t, err, model.ErrTrashItemNotFound)
}

func TestGroupService_RestoreEditRecord(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	group := f.createGroup(t, "python", env("PYTHONPATH", "/src"))
	_, err := f.groups.Save(ctx, model.GroupInput{ID: group.ID, Name: "python3", Variables: []model.EnvVar{env("PYTHONPATH", "/lib")}}, model.SaveModeEdit)
	require.NoError(t, err)

	records := f.trashRecords(t, model.TabGroups)
	require.Len(t, records, 1)

	_, err = f.restore.Restore(ctx, model.TabGroups, records[0].ID)
	require.NoError(t, err)

	stored, err := f.groups.Get(ctx, group.ID)
	require.NoError(t, err)
	assert.Equal(t, "python", stored.Name)
	assert.Equal(t, []model.EnvVar{env("PYTHONPATH", "/src")}, stored.Variables)
	assert.Empty(t, f.trashRecords(t, model.TabGroups))
}

func TestGroupService_BatchDeleteScope(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	active := f.createGroup(t, "active", env("ACTIVE_A", "1"), env("ACTIVE_B", "2"))
	idle1 := f.createGroup(t, "idle1", env("IDLE_1", "1"))
	idle2 := f.createGroup(t, "idle2", env("IDLE_2", "1"))
	_, err := f.groups.ToggleActive(ctx, active.ID)
	require.NoError(t, err)
	f.env.Set(model.ScopeUser, "UNRELATED", "keep")
	notifies := f.env.NotifyCount()

	result := f.groups.DeleteBatch(ctx, []string{active.ID, idle1.ID, idle2.ID})
	assert.ElementsMatch(t, []string{active.ID, idle1.ID, idle2.ID}, result.Deleted)
	assert.Empty(t, result.Failed)
	assert.Empty(t, result.VariableFailures)

	userVars, err := f.env.ReadAll(ctx, model.ScopeUser)
	require.NoError(t, err)
	assert.Equal(t, []model.EnvVar{env("UNRELATED", "keep")}, userVars)

	groups, err := f.groups.LoadGroups(ctx)
	require.NoError(t, err)
	assert.Empty(t, groups)

	records := f.trashRecords(t, model.TabGroups)
	assert.Len(t, records, 3)
	for _, r := range records {
		assert.Equal(t, model.TrashActionDelete, r.Action)
	}
	assert.Equal(t, notifies+1, f.env.NotifyCount())
}

func TestGroupService_BatchDeleteContinuesPastFailures(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	active := f.createGroup(t, "active", env("A", "1"), env("B", "2"))
	_, err := f.groups.ToggleActive(ctx, active.ID)
	require.NoError(t, err)
	f.env.FailRemove("B", model.ErrPermissionDenied)

	result := f.groups.DeleteBatch(ctx, []string{"group-missing", active.ID})
	assert.Equal(t, []string{active.ID}, result.Deleted)
	require.Len(t, result.Failed, 1)
	assert.Equal(t, "group-missing", result.Failed[0].ID)
	require.Len(t, result.VariableFailures, 1)
	assert.Equal(t, "B", result.VariableFailures[0].Name)
	assert.Equal(t, active.ID, result.VariableFailures[0].Group)
}

func TestGroupService_DegradedMode(t *testing.T) {
	f := newFixtureWith(t, storage.NewMemoryStore(), nil)
	ctx := context.Background()
	group := f.createGroup(t, "offline", env("A", "1"))

	result, err := f.groups.ToggleActive(ctx, group.ID)
	require.NoError(t, err)
	assert.True(t, result.Degraded)
	assert.True(t, result.Group.IsActive)

	groups, err := f.groups.LoadGroups(ctx)
	require.NoError(t, err)
	require.Len(t, groups, 1)
	assert.True(t, groups[0].IsActive, "stored flags are trusted without a backend")

	deleted, err := f.groups.Delete(ctx, group.ID)
	require.NoError(t, err)
	assert.True(t, deleted.Degraded)
}

func TestGroupService_Search(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.createGroup(t, "Java", env("JAVA_HOME", "/opt/jdk"))
	f.createGroup(t, "proxy", env("HTTPS_PROXY", "http://corp:3128"))

	byName, err := f.groups.Search(ctx, "jav")
	require.NoError(t, err)
	require.Len(t, byName, 1)
	assert.Equal(t, "Java", byName[0].Name)

	byValue, err := f.groups.Search(ctx, "CORP")
	require.NoError(t, err)
	require.Len(t, byValue, 1)
	assert.Equal(t, "proxy", byValue[0].Name)

	all, err := f.groups.Search(ctx, " ")
	require.NoError(t, err)
	assert.Len(t, all, 2)
}
