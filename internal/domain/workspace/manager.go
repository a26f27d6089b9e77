package workspace

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/TeamHub/backend/internal/domain/layout"
	"github.com/GriffinCanCode/TeamHub/backend/internal/domain/layout/persist"
	"github.com/GriffinCanCode/TeamHub/backend/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/TeamHub/backend/internal/shared/utils"
)

var ErrInvalidWorkspace = errors.New("invalid workspace id")

// Manager owns one layout store per workspace. Stores are loaded from
// persistence on first use and evicted least recently used first.
type Manager struct {
	mu        sync.RWMutex
	stores    map[string]*entry // Protected by mu
	adapter   *persist.Adapter
	logger    *zap.Logger
	metrics   *monitoring.Metrics
	maxLoaded int
	regOpts   []layout.Option
	now       func() time.Time
}

type entry struct {
	store    *layout.Store
	lastUsed time.Time
}

// Stats describes the loaded workspaces
type Stats struct {
	Loaded     int      `json:"loaded"`
	MaxLoaded  int      `json:"max_loaded"`
	Workspaces []string `json:"workspaces"`
}

// NewManager creates a workspace manager backed by adapter
func NewManager(adapter *persist.Adapter, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		stores:  make(map[string]*entry),
		adapter: adapter,
		logger:  logger,
		now:     time.Now,
	}
}

// WithMetrics adds metrics tracking to the manager
func (m *Manager) WithMetrics(metrics *monitoring.Metrics) *Manager {
	m.metrics = metrics
	return m
}

// WithMaxLoaded bounds the number of stores held in memory; 0 means no bound
func (m *Manager) WithMaxLoaded(n int) *Manager {
	m.maxLoaded = n
	return m
}

// WithRegistryOptions passes options to every registry the manager creates
func (m *Manager) WithRegistryOptions(opts ...layout.Option) *Manager {
	m.regOpts = opts
	return m
}

// Open returns the store of a workspace, loading it on first use
func (m *Manager) Open(ctx context.Context, workspaceID string) (*layout.Store, error) {
	if err := utils.ValidateID(workspaceID, "workspace_id", true); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidWorkspace, err)
	}

	m.mu.Lock()
	if e, ok := m.stores[workspaceID]; ok {
		e.lastUsed = m.now()
		m.mu.Unlock()
		return e.store, nil
	}
	m.mu.Unlock()

	// Load without holding the lock; a concurrent Open may win the race.
	state, err := m.adapter.Read(ctx, workspaceID)
	if errors.Is(err, persist.ErrUnavailable) {
		// Serve the defaults without caching or persisting them so the
		// stored layout survives and the next Open retries the read.
		m.logger.Warn("workspace layout unavailable, serving detached defaults",
			zap.String("workspace_id", workspaceID), zap.Error(err))
		return layout.NewStore(workspaceID, layout.NewRegistry(state, m.regOpts...), nil, m.logger), nil
	}
	store := layout.NewStore(workspaceID, layout.NewRegistry(state, m.regOpts...), m.adapter, m.logger)

	m.mu.Lock()
	defer m.mu.Unlock()
	if e, ok := m.stores[workspaceID]; ok {
		e.lastUsed = m.now()
		return e.store, nil
	}
	store.WithMetrics(m.metrics)
	m.stores[workspaceID] = &entry{store: store, lastUsed: m.now()}
	m.evictLocked(workspaceID)
	m.recordLoaded()

	m.logger.Info("workspace layout loaded",
		zap.String("workspace_id", workspaceID),
		zap.Int("tabs", len(state.Tabs)))
	return store, nil
}

// Get returns a loaded store without loading it
func (m *Manager) Get(workspaceID string) (*layout.Store, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.stores[workspaceID]
	if !ok {
		return nil, false
	}
	return e.store, true
}

// List returns the loaded workspace ids in order
func (m *Manager) List() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ids := make([]string, 0, len(m.stores))
	for id := range m.stores {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Evict drops a store from memory. Its persisted layout is kept. Stores with
// live subscribers are not evicted. A caller still holding an evicted store
// can persist after a later Open has loaded the older copy, so Evict is meant
// for idle workspaces.
func (m *Manager) Evict(workspaceID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.stores[workspaceID]
	if !ok || e.store.Subscribers() > 0 {
		return false
	}
	m.removeLocked(workspaceID)
	m.recordLoaded()
	return true
}

// Reset restores the default layout of a workspace and persists it.
// Connected subscribers receive the new layout.
func (m *Manager) Reset(ctx context.Context, workspaceID string) (*layout.Store, error) {
	store, err := m.Open(ctx, workspaceID)
	if err != nil {
		return nil, err
	}
	store.Replace(ctx, m.adapter.Defaults())
	return store, nil
}

// Stats returns a summary of loaded workspaces
func (m *Manager) Stats() Stats {
	ids := m.List()
	return Stats{Loaded: len(ids), MaxLoaded: m.maxLoaded, Workspaces: ids}
}

// evictLocked removes least recently used stores over the limit, skipping
// keep and any store with live subscribers.
func (m *Manager) evictLocked(keep string) {
	if m.maxLoaded <= 0 {
		return
	}
	for len(m.stores) > m.maxLoaded {
		victim := ""
		var oldest time.Time
		for id, e := range m.stores {
			if id == keep || e.store.Subscribers() > 0 {
				continue
			}
			if victim == "" || e.lastUsed.Before(oldest) {
				victim, oldest = id, e.lastUsed
			}
		}
		if victim == "" {
			return
		}
		m.removeLocked(victim)
		m.logger.Debug("workspace layout evicted", zap.String("workspace_id", victim))
	}
}

func (m *Manager) removeLocked(workspaceID string) {
	delete(m.stores, workspaceID)
	if m.metrics != nil {
		m.metrics.ForgetWorkspace(workspaceID)
	}
}

func (m *Manager) recordLoaded() {
	if m.metrics != nil {
		m.metrics.SetStoresLoaded(len(m.stores))
	}
}
