package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-env-manager/internal/model"
)

func TestRestoreService_FailureKeepsRecord(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	group := f.createGroup(t, "gone", env("A", "1"))
	_, err := f.groups.Save(ctx, model.GroupInput{ID: group.ID, Name: "renamed", Variables: group.Variables}, model.SaveModeEdit)
	require.NoError(t, err)
	_, err = f.groups.Delete(ctx, group.ID)
	require.NoError(t, err)

	var editRecord model.TrashRecord
	for _, r := range f.trashRecords(t, model.TabGroups) {
		if r.Action == model.TrashActionEdit {
			editRecord = r
		}
	}
	require.NotEmpty(t, editRecord.ID)

	_, err = f.restore.Restore(ctx, model.TabGroups, editRecord.ID)
	require.ErrorIs(t, err, model.ErrGroupNotFound)

	_, err = f.trash.Get(ctx, model.TabGroups, editRecord.ID)
	require.NoError(t, err, "a failed restore leaves the record in place")
}

func TestRestoreService_DeleteRecordConflictsWithExistingGroup(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	group := f.createGroup(t, "twice", env("A", "1"))
	_, err := f.groups.Delete(ctx, group.ID)
	require.NoError(t, err)
	records := f.trashRecords(t, model.TabGroups)
	require.Len(t, records, 1)

	_, err = f.restore.Restore(ctx, model.TabGroups, records[0].ID)
	require.NoError(t, err)

	// Restoring the same snapshot again cannot clobber the live group.
	_, err = f.groups.RestoreRecord(ctx, records[0])
	require.ErrorIs(t, err, model.ErrConflict)
}

func TestRestoreService_UnknownRecordAndTab(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.restore.Restore(ctx, model.TabUserVars, "123-abc")
	require.ErrorIs(t, err, model.ErrTrashItemNotFound)

	_, err = f.restore.Restore(ctx, model.TabType("files"), "123-abc")
	require.ErrorIs(t, err, model.ErrInvalidInput)
}

func TestRestoreService_PublishesEvent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.vars.Save(ctx, "X", "1", true)
	require.NoError(t, err)
	require.NoError(t, f.vars.Delete(ctx, "X"))
	records := f.trashRecords(t, model.TabUserVars)
	require.Len(t, records, 1)

	events, unsubscribe := f.bus.Subscribe()
	defer unsubscribe()

	_, err = f.restore.Restore(ctx, model.TabUserVars, records[0].ID)
	require.NoError(t, err)

	seen := map[string]bool{}
	for len(events) > 0 {
		e := <-events
		seen[string(e.Type)] = true
	}
	assert.True(t, seen["trash.restored"])
	assert.True(t, seen["variable.saved"])
}
