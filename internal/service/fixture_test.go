package service

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"go-env-manager/internal/envbackend"
	"go-env-manager/internal/event"
	"go-env-manager/internal/model"
	"go-env-manager/internal/storage"
)

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTestClock() *testClock {
	return &testClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	// Advance slightly on every read so successive mutations are ordered.
	c.now = c.now.Add(time.Millisecond)
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type fixture struct {
	store   storage.Store
	env     *envbackend.MemoryBackend
	bus     *event.InMemoryBus
	clock   *testClock
	trash   *TrashService
	groups  *GroupService
	vars    *VariableService
	system  *SystemService
	restore *RestoreService
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	return newFixtureWith(t, storage.NewMemoryStore(), envbackend.NewMemoryBackend())
}

// newFixtureWith builds the services over store and env. A nil env selects
// degraded mode.
func newFixtureWith(t *testing.T, store storage.Store, env *envbackend.MemoryBackend) *fixture {
	t.Helper()

	var backend envbackend.Backend
	if env != nil {
		backend = env
	}

	logger := discardLogger()
	bus := event.NewBus(logger)
	clock := newTestClock()

	trash := NewTrashService(store, bus, logger, DefaultCleanupDays)
	trash.SetClock(clock.Now)
	groups := NewGroupService(store, backend, trash, bus, logger)
	groups.SetClock(clock.Now)
	vars := NewVariableService(store, backend, trash, bus, logger)
	vars.SetClock(clock.Now)

	return &fixture{
		store:   store,
		env:     env,
		bus:     bus,
		clock:   clock,
		trash:   trash,
		groups:  groups,
		vars:    vars,
		system:  NewSystemService(backend),
		restore: NewRestoreService(trash, groups, vars, bus, logger),
	}
}

func (f *fixture) createGroup(t *testing.T, name string, vars ...model.EnvVar) model.VariableGroup {
	t.Helper()
	group, err := f.groups.Save(context.Background(), model.GroupInput{Name: name, Variables: vars}, model.SaveModeCreate)
	require.NoError(t, err)
	return group
}

func (f *fixture) trashRecords(t *testing.T, tab model.TabType) []model.TrashRecord {
	t.Helper()
	records, err := f.trash.List(context.Background(), tab)
	require.NoError(t, err)
	return records
}

func env(name string, value string) model.EnvVar {
	return model.EnvVar{Name: name, Value: value}
}
