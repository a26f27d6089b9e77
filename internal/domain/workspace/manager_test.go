package workspace

import (
	"context"
	"errors"
	"sync"
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
	m := NewManager(persist.NewAdapter(backend, zap.NewNop()), zap.NewNop())
	clock := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	m.now = func() time.Time { clock = clock.Add(time.Second); return clock }
	return m
}

func TestOpenLoadsDefaults(t *testing.T) {
	m := newTestManager(storage.NewMemory())

	store, err := m.Open(context.Background(), "ws_a")
	require.NoError(t, err)
	assert.Equal(t, "ws_a", store.WorkspaceID())
	assert.Len(t, store.State().Tabs, 3)
	assert.Equal(t, "dashboard", store.Snapshot().ActiveTabID)
}

func TestOpenReturnsSameStore(t *testing.T) {
	m := newTestManager(storage.NewMemory())
	ctx := context.Background()

	a, err := m.Open(ctx, "ws_a")
	require.NoError(t, err)
	b, err := m.Open(ctx, "ws_a")
	require.NoError(t, err)
	assert.Same(t, a, b)
}

func TestOpenConcurrent(t *testing.T) {
	m := newTestManager(storage.NewMemory())
	ctx := context.Background()

	var wg sync.WaitGroup
	stores := make([]*layout.Store, 16)
	for i := range stores {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			s, err := m.Open(ctx, "ws_a")
			assert.NoError(t, err)
			stores[i] = s
		}(i)
	}
	wg.Wait()

	for _, s := range stores {
		assert.Same(t, stores[0], s)
	}
}

func TestOpenRejectsInvalidID(t *testing.T) {
	m := newTestManager(storage.NewMemory())
	for _, bad := range []string{"", "../x", "a b", "ws:1"} {
		_, err := m.Open(context.Background(), bad)
		assert.ErrorIs(t, err, ErrInvalidWorkspace, bad)
	}
	assert.Empty(t, m.List())
}

func TestOpenReloadsPersistedLayout(t *testing.T) {
	ctx := context.Background()
	backend := storage.NewMemory()

	first := newTestManager(backend)
	store, err := first.Open(ctx, "ws_a")
	require.NoError(t, err)
	store.OpenTab(ctx, "notes", layout.TabPatch{})
	store.ToggleTabPinned(ctx, "notes")

	second := newTestManager(backend)
	reloaded, err := second.Open(ctx, "ws_a")
	require.NoError(t, err)
	tab := reloaded.State().Tabs[0]
	assert.Equal(t, "notes", tab.ID)
	assert.True(t, tab.IsPinned)
	assert.Equal(t, "notes", reloaded.Snapshot().ActiveTabID)
}

func TestGetListEvict(t *testing.T) {
	ctx := context.Background()
	m := newTestManager(storage.NewMemory())

	_, ok := m.Get("ws_a")
	assert.False(t, ok)

	_, err := m.Open(ctx, "ws_b")
	require.NoError(t, err)
	_, err = m.Open(ctx, "ws_a")
	require.NoError(t, err)

	_, ok = m.Get("ws_a")
	assert.True(t, ok)
	assert.Equal(t, []string{"ws_a", "ws_b"}, m.List())

	assert.True(t, m.Evict("ws_a"))
	assert.False(t, m.Evict("ws_a"))
	assert.Equal(t, []string{"ws_b"}, m.List())
}

func TestEvictKeepsPersistedLayout(t *testing.T) {
	ctx := context.Background()
	m := newTestManager(storage.NewMemory())

	store, err := m.Open(ctx, "ws_a")
	require.NoError(t, err)
	store.CloseTab(ctx, "workspace")
	m.Evict("ws_a")

	store, err = m.Open(ctx, "ws_a")
	require.NoError(t, err)
	assert.Len(t, store.State().Tabs, 2)
}

func TestEvictSkipsSubscribedStore(t *testing.T) {
	ctx := context.Background()
	m := newTestManager(storage.NewMemory())

	store, err := m.Open(ctx, "ws_a")
	require.NoError(t, err)
	_, cancel := store.Subscribe()

	assert.False(t, m.Evict("ws_a"))
	assert.Equal(t, []string{"ws_a"}, m.List())

	cancel()
	assert.True(t, m.Evict("ws_a"))
	assert.Empty(t, m.List())
}

// failingReads fails the first n reads and passes everything else through
type failingReads struct {
	storage.Backend
	mu sync.Mutex
	n  int
}

func (f *failingReads) Get(ctx context.Context, key string) ([]byte, error) {
	f.mu.Lock()
	fail := f.n > 0
	if fail {
		f.n--
	}
	f.mu.Unlock()
	if fail {
		return nil, errors.New("disk unavailable")
	}
	return f.Backend.Get(ctx, key)
}

func TestOpenUnreadableLayoutIsNotOverwritten(t *testing.T) {
	ctx := context.Background()
	backend := storage.NewMemory()

	seed, err := newTestManager(backend).Open(ctx, "ws_a")
	require.NoError(t, err)
	seed.OpenTab(ctx, "notes", layout.TabPatch{})
	seed.OpenTab(ctx, "todo", layout.TabPatch{})
	require.Len(t, seed.State().Tabs, 5)

	m := newTestManager(&failingReads{Backend: backend, n: 1})
	detached, err := m.Open(ctx, "ws_a")
	require.NoError(t, err)
	assert.Len(t, detached.State().Tabs, 3, "defaults are served while the read fails")
	assert.Empty(t, m.List(), "fallback store is not cached")

	detached.SetActiveTabID(ctx, "workspace")
	detached.CloseTab(ctx, "dashboard")

	store, err := m.Open(ctx, "ws_a")
	require.NoError(t, err)
	assert.NotSame(t, detached, store)
	assert.Len(t, store.State().Tabs, 5, "persisted layout survives the failed read")
	assert.Equal(t, "todo", store.Snapshot().ActiveTabID)
	assert.Equal(t, []string{"ws_a"}, m.List())
}

func TestMaxLoadedEvictsLeastRecentlyUsed(t *testing.T) {
	ctx := context.Background()
	m := newTestManager(storage.NewMemory()).WithMaxLoaded(2)

	for _, ws := range []string{"ws_a", "ws_b"} {
		_, err := m.Open(ctx, ws)
		require.NoError(t, err)
	}
	// Touch ws_a so ws_b becomes the oldest.
	_, err := m.Open(ctx, "ws_a")
	require.NoError(t, err)

	_, err = m.Open(ctx, "ws_c")
	require.NoError(t, err)
	assert.Equal(t, []string{"ws_a", "ws_c"}, m.List())
}

func TestMaxLoadedSkipsSubscribedStores(t *testing.T) {
	ctx := context.Background()
	m := newTestManager(storage.NewMemory()).WithMaxLoaded(1)

	store, err := m.Open(ctx, "ws_a")
	require.NoError(t, err)
	_, cancel := store.Subscribe()

	_, err = m.Open(ctx, "ws_b")
	require.NoError(t, err)
	assert.Equal(t, []string{"ws_a", "ws_b"}, m.List())

	cancel()
	_, err = m.Open(ctx, "ws_c")
	require.NoError(t, err)
	assert.Equal(t, []string{"ws_c"}, m.List())
}

func TestReset(t *testing.T) {
	ctx := context.Background()
	m := newTestManager(storage.NewMemory())

	store, err := m.Open(ctx, "ws_a")
	require.NoError(t, err)
	store.CloseAllTabs(ctx)
	updates, cancel := store.Subscribe()
	defer cancel()

	reset, err := m.Reset(ctx, "ws_a")
	require.NoError(t, err)
	assert.Same(t, store, reset)
	assert.Len(t, reset.State().Tabs, 3)

	select {
	case snap := <-updates:
		assert.Len(t, snap.Tabs, 3)
	case <-time.After(time.Second):
		t.Fatal("no snapshot after reset")
	}
}

func TestMetrics(t *testing.T) {
	ctx := context.Background()
	metrics := monitoring.NewMetrics()
	m := newTestManager(storage.NewMemory()).WithMetrics(metrics)

	store, err := m.Open(ctx, "ws_a")
	require.NoError(t, err)
	_, err = m.Open(ctx, "ws_b")
	require.NoError(t, err)
	assert.Equal(t, 2.0, testutil.ToFloat64(metrics.StoresLoaded))

	store.OpenTab(ctx, "notes", layout.TabPatch{})
	assert.Equal(t, 4.0, testutil.ToFloat64(metrics.TabsOpen.WithLabelValues("ws_a")))

	m.Evict("ws_a")
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.StoresLoaded))

	stats := m.Stats()
	assert.Equal(t, 1, stats.Loaded)
	assert.Equal(t, []string{"ws_b"}, stats.Workspaces)
}
