package storage

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-env-manager/internal/model"
)

func storeFactories(t *testing.T) map[string]func() Store {
	t.Helper()
	return map[string]func() Store{
		"memory": func() Store { return NewMemoryStore() },
		"badger": func() Store {
			s, err := OpenBadger(BadgerConfig{InMemory: true})
			require.NoError(t, err)
			return s
		},
	}
}

func TestStoreContract(t *testing.T) {
	for name, factory := range storeFactories(t) {
		t.Run(name, func(t *testing.T) {
			s := factory()
			t.Cleanup(func() { _ = s.Close() })
			ctx := context.Background()

			rev1, err := s.Put(ctx, "user-group-a", []byte(`{"name":"a"}`), "")
			require.NoError(t, err)
			require.NotEmpty(t, rev1)

			doc, err := s.Get(ctx, "user-group-a")
			require.NoError(t, err)
			assert.Equal(t, rev1, doc.Revision)
			assert.JSONEq(t, `{"name":"a"}`, string(doc.Data))

			_, err = s.Put(ctx, "user-group-a", []byte(`{"name":"dup"}`), "")
			require.ErrorIs(t, err, model.ErrConflict)

			rev2, err := s.Put(ctx, "user-group-a", []byte(`{"name":"b"}`), rev1)
			require.NoError(t, err)
			assert.NotEqual(t, rev1, rev2)

			_, err = s.Put(ctx, "user-group-a", []byte(`{"name":"stale"}`), rev1)
			require.ErrorIs(t, err, model.ErrConflict)

			_, err = s.Put(ctx, "user-group-missing", []byte(`{}`), rev1)
			require.ErrorIs(t, err, model.ErrConflict)

			require.NoError(t, s.Remove(ctx, "user-group-a"))
			_, err = s.Get(ctx, "user-group-a")
			require.ErrorIs(t, err, model.ErrDocumentNotFound)
			require.ErrorIs(t, s.Remove(ctx, "user-group-a"), model.ErrDocumentNotFound)
		})
	}
}

func TestStoreScanPrefix(t *testing.T) {
	for name, factory := range storeFactories(t) {
		t.Run(name, func(t *testing.T) {
			s := factory()
			t.Cleanup(func() { _ = s.Close() })
			ctx := context.Background()

			for _, id := range []string{
				"trash-history-groups-2",
				"trash-history-groups-1",
				"trash-history-user-vars-1",
				"trash-settings-groups",
			} {
				_, err := s.Put(ctx, id, []byte(`{}`), "")
				require.NoError(t, err)
			}

			docs, err := s.ScanPrefix(ctx, "trash-history-groups-")
			require.NoError(t, err)
			require.Len(t, docs, 2)
			assert.Equal(t, "trash-history-groups-1", docs[0].ID)
			assert.Equal(t, "trash-history-groups-2", docs[1].ID)

			docs, err = s.ScanPrefix(ctx, "nothing-")
			require.NoError(t, err)
			assert.Empty(t, docs)
		})
	}
}

func TestStoreConcurrentUpdatesOneWins(t *testing.T) {
	for name, factory := range storeFactories(t) {
		t.Run(name, func(t *testing.T) {
			s := factory()
			t.Cleanup(func() { _ = s.Close() })
			ctx := context.Background()

			rev, err := s.Put(ctx, "system-user-var-GOPATH", []byte(`{"value":"0"}`), "")
			require.NoError(t, err)

			const writers = 8
			var (
				wg      sync.WaitGroup
				mu      sync.Mutex
				success int
			)
			for i := 0; i < writers; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					if _, err := s.Put(ctx, "system-user-var-GOPATH", []byte(`{"value":"1"}`), rev); err == nil {
						mu.Lock()
						success++
						mu.Unlock()
					} else {
						assert.ErrorIs(t, err, model.ErrConflict)
					}
				}()
			}
			wg.Wait()
			assert.Equal(t, 1, success)
		})
	}
}

func TestNextRevisionIncrementsCounter(t *testing.T) {
	first := NextRevision("")
	assert.Regexp(t, `^1-[0-9a-f]{12}$`, first)
	assert.Regexp(t, `^2-[0-9a-f]{12}$`, NextRevision(first))
}

func TestBadgerStoreRejectsInvalidJSON(t *testing.T) {
	s, err := OpenBadger(BadgerConfig{InMemory: true})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	_, err = s.Put(context.Background(), "user-group-x", []byte("not json"), "")
	require.ErrorIs(t, err, model.ErrInvalidInput)
}
