package session

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/TeamHub/backend/internal/domain/layout"
	"github.com/GriffinCanCode/TeamHub/backend/internal/domain/layout/persist"
	"github.com/GriffinCanCode/TeamHub/backend/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/TeamHub/backend/internal/storage"
)

func newTestManager(backend storage.Backend) *Manager {
	m := NewManager(backend, zap.NewNop())
	n := 0
	clock := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	m.newID = func() string { n++; return fmt.Sprintf("sess_%02d", n) }
	m.now = func() time.Time { clock = clock.Add(time.Minute); return clock }
	return m
}

func newTestStore(ws string) *layout.Store {
	return layout.NewStore(ws, layout.NewRegistry(persist.DefaultState()), nil, zap.NewNop())
}

func tabIDs(s layout.State) []string {
	out := make([]string, len(s.Tabs))
	for i, t := range s.Tabs {
		out[i] = t.ID
	}
	return out
}

func TestSaveAndRestore(t *testing.T) {
	ctx := context.Background()
	m := newTestManager(storage.NewMemory())
	store := newTestStore("ws_a")

	store.OpenTab(ctx, "notes", layout.TabPatch{})
	store.ToggleSplitView(ctx, "notes", nil)
	saved, err := m.Save(ctx, store, "  Review  ", "triage")
	require.NoError(t, err)
	assert.Equal(t, "sess_01", saved.ID)
	assert.Equal(t, "Review", saved.Name)
	assert.Equal(t, "ws_a", saved.WorkspaceID)
	assert.Len(t, saved.Hash, 64)
	want := tabIDs(store.State())
	wantActive := store.Snapshot().ActiveTabID

	store.CloseAllTabs(ctx)
	require.NotEqual(t, want, tabIDs(store.State()))

	restored, err := m.Restore(ctx, store, saved.ID)
	require.NoError(t, err)
	assert.Equal(t, saved.ID, restored.ID)

	got := store.State()
	assert.Equal(t, want, tabIDs(got))
	assert.NotNil(t, got.SplitLayout)
	assert.Equal(t, wantActive, store.Snapshot().ActiveTabID)
}

func TestSaveValidates(t *testing.T) {
	ctx := context.Background()
	m := newTestManager(storage.NewMemory())
	store := newTestStore("ws_a")

	_, err := m.Save(ctx, store, "   ", "")
	assert.Error(t, err)

	_, err = m.Save(ctx, store, "ok", string(make([]byte, 4096)))
	assert.Error(t, err)
}

func TestGetReadsThroughCache(t *testing.T) {
	ctx := context.Background()
	backend := storage.NewMemory()
	store := newTestStore("ws_a")

	saved, err := newTestManager(backend).Save(ctx, store, "First", "")
	require.NoError(t, err)

	// A fresh manager has an empty cache and must decode from storage.
	fresh := newTestManager(backend)
	got, err := fresh.Get(ctx, "ws_a", saved.ID)
	require.NoError(t, err)
	assert.Equal(t, saved.Name, got.Name)
	assert.Equal(t, saved.Hash, got.Hash)
	assert.Equal(t, tabIDs(saved.State), tabIDs(got.State))
	assert.Equal(t, 1, fresh.Stats().Cached)
}

func TestGetReturnsCopies(t *testing.T) {
	ctx := context.Background()
	m := newTestManager(storage.NewMemory())
	saved, err := m.Save(ctx, newTestStore("ws_a"), "First", "")
	require.NoError(t, err)

	a, err := m.Get(ctx, "ws_a", saved.ID)
	require.NoError(t, err)
	a.State.Tabs[0].Title = "mutated"

	b, err := m.Get(ctx, "ws_a", saved.ID)
	require.NoError(t, err)
	assert.NotEqual(t, "mutated", b.State.Tabs[0].Title)
}

func TestGetUnknown(t *testing.T) {
	ctx := context.Background()
	m := newTestManager(storage.NewMemory())

	_, err := m.Get(ctx, "ws_a", "sess_missing")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = m.Get(ctx, "ws_a", "../escape")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGetMalformed(t *testing.T) {
	ctx := context.Background()
	backend := storage.NewMemory()
	require.NoError(t, backend.Put(ctx, Key("ws_a", "sess_bad"), []byte(`{"id":"sess_bad","layout":{"version":4}}`)))

	_, err := newTestManager(backend).Get(ctx, "ws_a", "sess_bad")
	assert.ErrorIs(t, err, persist.ErrMalformed)
}

func TestListScopedToWorkspace(t *testing.T) {
	ctx := context.Background()
	backend := storage.NewMemory()
	m := newTestManager(backend)

	_, err := m.Save(ctx, newTestStore("ws_a"), "One", "")
	require.NoError(t, err)
	_, err = m.Save(ctx, newTestStore("ws_b"), "Other", "")
	require.NoError(t, err)
	_, err = m.Save(ctx, newTestStore("ws_a"), "Two", "")
	require.NoError(t, err)
	require.NoError(t, backend.Put(ctx, Key("ws_a", "sess_zz"), []byte("garbage")))

	list, err := m.List(ctx, "ws_a")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "One", list[0].Name)
	assert.Equal(t, "Two", list[1].Name)
	assert.Equal(t, 3, list[0].TabCount)

	list, err = m.List(ctx, "ws_none")
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestDelete(t *testing.T) {
	ctx := context.Background()
	m := newTestManager(storage.NewMemory())
	saved, err := m.Save(ctx, newTestStore("ws_a"), "One", "")
	require.NoError(t, err)

	require.NoError(t, m.Delete(ctx, "ws_a", saved.ID))
	_, err = m.Get(ctx, "ws_a", saved.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, m.Delete(ctx, "ws_a", saved.ID), ErrNotFound)
}

func TestDeleteUnknownSession(t *testing.T) {
	ctx := context.Background()
	backend := storage.NewMemory()
	m := newTestManager(backend)
	saved, err := m.Save(ctx, newTestStore("ws_a"), "One", "")
	require.NoError(t, err)

	assert.ErrorIs(t, m.Delete(ctx, "ws_a", "sess_missing"), ErrNotFound)
	assert.ErrorIs(t, m.Delete(ctx, "ws_b", saved.ID), ErrNotFound)

	// A fresh manager has nothing cached and must still see the stored record
	fresh := newTestManager(backend)
	require.NoError(t, fresh.Delete(ctx, "ws_a", saved.ID))
	assert.ErrorIs(t, fresh.Delete(ctx, "ws_a", saved.ID), ErrNotFound)
}

func TestRestoreOtherWorkspaceNotFound(t *testing.T) {
	ctx := context.Background()
	m := newTestManager(storage.NewMemory())
	saved, err := m.Save(ctx, newTestStore("ws_a"), "One", "")
	require.NoError(t, err)

	_, err = m.Restore(ctx, newTestStore("ws_b"), saved.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStatsAndMetrics(t *testing.T) {
	ctx := context.Background()
	metrics := monitoring.NewMetrics()
	m := newTestManager(storage.NewMemory()).WithMetrics(metrics)
	store := newTestStore("ws_a")

	assert.Nil(t, m.Stats().LastSaved)

	saved, err := m.Save(ctx, store, "One", "")
	require.NoError(t, err)
	_, err = m.Restore(ctx, store, saved.ID)
	require.NoError(t, err)

	stats := m.Stats()
	require.NotNil(t, stats.LastSaved)
	require.NotNil(t, stats.LastRestored)
	assert.True(t, stats.LastRestored.After(*stats.LastSaved))

	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.SessionsSaved))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.SessionsRestored))
}
