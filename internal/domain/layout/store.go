package layout

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/TeamHub/backend/internal/infrastructure/monitoring"
)

// Persister writes the durable subset of a workspace layout
type Persister interface {
	Persist(ctx context.Context, workspaceID string, s State) error
}

// Store is the state container for one workspace layout. Every mutation is
// applied atomically, persisted, then broadcast to subscribers.
type Store struct {
	mu          sync.RWMutex
	workspaceID string
	registry    *Registry // Protected by mu
	persister   Persister
	logger      *zap.Logger
	metrics     *monitoring.Metrics

	subMu   sync.Mutex
	subs    map[uint64]chan Snapshot // Protected by subMu
	nextSub uint64
}

// NewStore wraps a registry for concurrent use
func NewStore(workspaceID string, registry *Registry, persister Persister, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{
		workspaceID: workspaceID,
		registry:    registry,
		persister:   persister,
		logger:      logger.With(zap.String("workspace_id", workspaceID)),
		subs:        make(map[uint64]chan Snapshot),
	}
}

// WithMetrics adds metrics tracking to the store
func (s *Store) WithMetrics(metrics *monitoring.Metrics) *Store {
	s.metrics = metrics
	if metrics != nil {
		s.mu.RLock()
		metrics.SetTabsOpen(s.workspaceID, len(s.registry.state.Tabs))
		s.mu.RUnlock()
	}
	return s
}

// WorkspaceID returns the workspace this store belongs to
func (s *Store) WorkspaceID() string {
	return s.workspaceID
}

// Snapshot returns the current read view
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.registry.Snapshot()
}

// State returns a deep copy of the current state
func (s *Store) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.registry.State()
}

// Subscribe registers for snapshots published after each change. Slow
// subscribers only ever see the latest snapshot. The returned function
// cancels the subscription.
func (s *Store) Subscribe() (<-chan Snapshot, func()) {
	ch := make(chan Snapshot, 1)

	s.subMu.Lock()
	key := s.nextSub
	s.nextSub++
	s.subs[key] = ch
	s.subMu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.subMu.Lock()
			delete(s.subs, key)
			s.subMu.Unlock()
			close(ch)
		})
	}
}

// Subscribers returns the number of live subscriptions
func (s *Store) Subscribers() int {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	return len(s.subs)
}

func (s *Store) publish(snap Snapshot) {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	for _, ch := range s.subs {
		select {
		case <-ch:
		default:
		}
		ch <- snap
	}
}

// apply runs a mutation under the lock. Unchanged results skip persistence
// and notification.
func (s *Store) apply(ctx context.Context, op string, fn func(r *Registry) bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	changed := fn(s.registry)
	if s.metrics != nil {
		s.metrics.RecordLayoutOp(op, changed)
	}
	if !changed {
		s.logger.Debug("layout operation was a no-op", zap.String("op", op))
		return false
	}

	state := s.registry.State()
	if s.persister != nil {
		if err := s.persister.Persist(ctx, s.workspaceID, state); err != nil {
			s.logger.Warn("failed to persist layout", zap.String("op", op), zap.Error(err))
		}
	}
	if s.metrics != nil {
		s.metrics.SetTabsOpen(s.workspaceID, len(state.Tabs))
	}
	s.publish(state.Snapshot())
	return true
}

// OpenTab opens or re-activates a tab and returns its id
func (s *Store) OpenTab(ctx context.Context, tabID string, p TabPatch) string {
	var opened string
	s.apply(ctx, "open", func(r *Registry) bool {
		opened = r.OpenTab(tabID, p)
		return true
	})
	return opened
}

// CloseTab removes a tab; unknown ids are a no-op
func (s *Store) CloseTab(ctx context.Context, tabID string) bool {
	return s.apply(ctx, "close", func(r *Registry) bool {
		return r.CloseTab(tabID)
	})
}

// CloseAllTabs keeps only pinned tabs
func (s *Store) CloseAllTabs(ctx context.Context) int {
	var removed int
	s.apply(ctx, "close_all", func(r *Registry) bool {
		split := r.state.SplitLayout != nil
		active := r.state.PaneActiveTabIDs[PanePrimary]
		focused := r.state.FocusedPane
		removed = r.CloseAllTabs()
		return removed > 0 || split ||
			active != r.state.PaneActiveTabIDs[PanePrimary] ||
			focused != r.state.FocusedPane
	})
	return removed
}

// CloseTabsToRight removes unpinned tabs after tabID in its pane
func (s *Store) CloseTabsToRight(ctx context.Context, tabID string) int {
	var removed int
	s.apply(ctx, "close_right", func(r *Registry) bool {
		removed = r.CloseTabsToRight(tabID)
		return removed > 0
	})
	return removed
}

// CloseOtherTabs removes every other unpinned tab in the pane of tabID
func (s *Store) CloseOtherTabs(ctx context.Context, tabID string) int {
	var removed int
	s.apply(ctx, "close_others", func(r *Registry) bool {
		if r.state.find(tabID) == nil {
			return false
		}
		removed = r.CloseOtherTabs(tabID)
		return true
	})
	return removed
}

// DuplicateTab clones a tab and returns the clone's id
func (s *Store) DuplicateTab(ctx context.Context, tabID string) (string, bool) {
	var cloneID string
	ok := s.apply(ctx, "duplicate", func(r *Registry) bool {
		var found bool
		cloneID, found = r.DuplicateTab(tabID)
		return found
	})
	return cloneID, ok
}

// ToggleTabPinned flips a tab's pin flag
func (s *Store) ToggleTabPinned(ctx context.Context, tabID string) bool {
	return s.apply(ctx, "toggle_pin", func(r *Registry) bool {
		return r.ToggleTabPinned(tabID)
	})
}

// UpdateTab shallow-merges fields into a tab
func (s *Store) UpdateTab(ctx context.Context, tabID string, p TabPatch) bool {
	return s.apply(ctx, "update", func(r *Registry) bool {
		return r.UpdateTab(tabID, p)
	})
}

// SetActiveTabID activates a tab within its pane
func (s *Store) SetActiveTabID(ctx context.Context, tabID string) bool {
	return s.apply(ctx, "activate", func(r *Registry) bool {
		return r.SetActiveTabID(tabID)
	})
}

// ToggleSplitView splits, re-orients or collapses the view around tabID
func (s *Store) ToggleSplitView(ctx context.Context, tabID string, direction *SplitDirection) bool {
	return s.apply(ctx, "toggle_split", func(r *Registry) bool {
		return r.ToggleSplitView(tabID, direction)
	})
}

// MoveTab reorders a tab inside its pane
func (s *Store) MoveTab(ctx context.Context, tabID string, index int) bool {
	return s.apply(ctx, "move", func(r *Registry) bool {
		return r.MoveTab(tabID, index)
	})
}

// FocusPane moves focus between panes
func (s *Store) FocusPane(ctx context.Context, pane PaneID) bool {
	return s.apply(ctx, "focus_pane", func(r *Registry) bool {
		return r.FocusPane(pane)
	})
}

// UpdatePreferences merges sidebar and panel settings
func (s *Store) UpdatePreferences(ctx context.Context, p PreferencesPatch) {
	s.apply(ctx, "preferences", func(r *Registry) bool {
		r.UpdatePreferences(p)
		return true
	})
}

// Replace swaps in a whole layout, as when restoring a saved session
func (s *Store) Replace(ctx context.Context, state State) {
	s.apply(ctx, "replace", func(r *Registry) bool {
		r.Replace(state)
		return true
	})
}
