package layout

import (
	"time"

	"github.com/google/uuid"

	"github.com/GriffinCanCode/TeamHub/backend/internal/shared/id"
)

// Registry owns the ordered tab list and the active tab of each pane.
// It is not safe for concurrent use; Store adds locking on top.
type Registry struct {
	state      State
	newID      func() string
	newGroupID func() string
	now        func() time.Time
}

// Option configures a Registry
type Option func(*Registry)

// WithIDGenerator overrides how fresh tab IDs are produced
func WithIDGenerator(fn func() string) Option {
	return func(r *Registry) { r.newID = fn }
}

// WithGroupIDGenerator overrides how split group IDs are produced
func WithGroupIDGenerator(fn func() string) Option {
	return func(r *Registry) { r.newGroupID = fn }
}

// WithClock overrides the time source used for tab metadata
func WithClock(fn func() time.Time) Option {
	return func(r *Registry) { r.now = fn }
}

// NewRegistry creates a registry seeded with a normalized copy of initial
func NewRegistry(initial State, opts ...Option) *Registry {
	r := &Registry{
		state:      Normalize(initial),
		newID:      func() string { return id.NewTabID().String() },
		newGroupID: uuid.NewString,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// State returns a deep copy of the current state
func (r *Registry) State() State {
	return r.state.Clone()
}

// Replace swaps the whole state, normalizing it first
func (r *Registry) Replace(s State) {
	r.state = Normalize(s)
}

// resolvePane applies the pane coercion rules: unknown panes become primary
// and secondary is only honoured while a split is open.
func (r *Registry) resolvePane(p *PaneID) PaneID {
	if p == nil || !p.Valid() {
		return PanePrimary
	}
	if *p == PaneSecondary && r.state.SplitLayout == nil {
		return PanePrimary
	}
	return *p
}

func (r *Registry) touch(t *Tab, visit bool) {
	now := r.now()
	if t.Metadata == nil {
		t.Metadata = &Metadata{CreatedAt: now}
	}
	t.Metadata.UpdatedAt = now
	if visit {
		t.Metadata.LastVisitedAt = now
		t.Metadata.VisitCount++
	}
}

// merge applies a patch to t. It reports whether the pane changed.
func (r *Registry) merge(t *Tab, p TabPatch) bool {
	if p.Title != nil {
		t.Title = *p.Title
	}
	if p.Type != nil && p.Type.Valid() {
		t.Type = *p.Type
	}
	if p.Path != nil {
		t.Path = NormalizePath(*p.Path)
	}
	if p.IsDirty != nil {
		t.IsDirty = *p.IsDirty
	}
	if p.IsPinned != nil {
		t.IsPinned = *p.IsPinned
	}
	if p.SplitDirection != nil && p.SplitDirection.Valid() && t.IsSplit && t.SplitGroupID != "" {
		// Both members and the layout share one direction.
		r.reorient(t.SplitGroupID, *p.SplitDirection)
	}
	if p.Metadata != nil {
		mergeMetadata(t, p.Metadata)
	}
	if p.PaneID != nil {
		pane := r.resolvePane(p.PaneID)
		if pane != t.PaneID {
			t.PaneID = pane
			// Moving a split member breaks its pairing.
			t.clearSplit()
			return true
		}
	}
	return false
}

func mergeMetadata(t *Tab, in *Metadata) {
	if t.Metadata == nil {
		t.Metadata = &Metadata{}
	}
	if len(in.Context) > 0 {
		if t.Metadata.Context == nil {
			t.Metadata.Context = make(map[string]interface{}, len(in.Context))
		}
		for k, v := range in.Context {
			t.Metadata.Context[k] = v
		}
	}
	if in.Badge != "" {
		t.Metadata.Badge = in.Badge
	}
	if in.Preview != "" {
		t.Metadata.Preview = in.Preview
	}
}

// OpenTab opens a tab or, when id already exists, updates it in place and
// activates it. An empty id gets a freshly generated one. The id of the
// opened tab is returned.
func (r *Registry) OpenTab(tabID string, p TabPatch) string {
	if tabID != "" {
		if t := r.state.find(tabID); t != nil {
			r.merge(t, p)
			r.touch(t, true)
			r.state.activate(t.PaneID, t.ID)
			r.state.reconcile()
			return tabID
		}
	} else {
		tabID = r.newID()
	}

	t := Tab{
		ID:     tabID,
		Title:  tabID,
		Type:   DefaultTabType,
		Path:   "/",
		PaneID: r.resolvePane(p.PaneID),
	}
	p.PaneID = nil
	r.merge(&t, p)
	r.touch(&t, true)

	r.state.Tabs = append(r.state.Tabs, t)
	r.state.activate(t.PaneID, t.ID)
	r.state.reconcile()
	return tabID
}

// CloseTab removes a tab. If it was the active tab of its pane the first
// pinned tab, else the first tab of that pane takes over. Unknown ids are
// ignored.
func (r *Registry) CloseTab(tabID string) bool {
	if r.state.find(tabID) == nil {
		return false
	}
	r.state.removeWhere(func(t *Tab) bool { return t.ID == tabID })
	r.state.reconcile()
	return true
}

// CloseAllTabs keeps only pinned tabs and tears down any split.
func (r *Registry) CloseAllTabs() int {
	removed := r.state.removeWhere(func(t *Tab) bool { return !t.IsPinned })
	for i := range r.state.Tabs {
		r.state.Tabs[i].PaneID = PanePrimary
		r.state.Tabs[i].clearSplit()
	}
	r.state.SplitLayout = nil
	r.state.PaneActiveTabIDs = map[PaneID]string{}
	r.state.FocusedPane = PanePrimary
	r.state.reconcile()
	return removed
}

// CloseTabsToRight removes the unpinned tabs positioned after tabID in its
// pane.
func (r *Registry) CloseTabsToRight(tabID string) int {
	target := r.state.find(tabID)
	if target == nil {
		return 0
	}
	pane := target.PaneID
	seen := false
	removed := r.state.removeWhere(func(t *Tab) bool {
		if t.PaneID != pane {
			return false
		}
		if t.ID == tabID {
			seen = true
			return false
		}
		return seen && !t.IsPinned
	})
	r.keepActiveOr(pane, tabID)
	r.state.reconcile()
	return removed
}

// CloseOtherTabs removes every other unpinned tab in the pane of tabID.
func (r *Registry) CloseOtherTabs(tabID string) int {
	target := r.state.find(tabID)
	if target == nil {
		return 0
	}
	pane := target.PaneID
	removed := r.state.removeWhere(func(t *Tab) bool {
		return t.PaneID == pane && t.ID != tabID && !t.IsPinned
	})
	r.state.activate(pane, tabID)
	r.state.reconcile()
	return removed
}

// keepActiveOr points the pane at fallback when its active tab is gone.
func (r *Registry) keepActiveOr(pane PaneID, fallback string) {
	if cur, ok := r.state.PaneActiveTabIDs[pane]; ok && r.state.find(cur) != nil {
		return
	}
	r.state.PaneActiveTabIDs[pane] = fallback
}

// DuplicateTab inserts a copy of tabID right after it and activates the
// copy. The copy never joins the source's split group.
func (r *Registry) DuplicateTab(tabID string) (string, bool) {
	i := r.state.indexOf(tabID)
	if i < 0 {
		return "", false
	}
	clone := r.state.Tabs[i].clone()
	clone.ID = r.newID()
	clone.clearSplit()
	clone.Metadata = nil
	if src := r.state.Tabs[i].Metadata; src != nil {
		clone.Metadata = &Metadata{Context: src.clone().Context, Badge: src.Badge, Preview: src.Preview}
	}
	r.touch(&clone, true)

	tabs := make([]Tab, 0, len(r.state.Tabs)+1)
	tabs = append(tabs, r.state.Tabs[:i+1]...)
	tabs = append(tabs, clone)
	tabs = append(tabs, r.state.Tabs[i+1:]...)
	r.state.Tabs = tabs

	r.state.activate(clone.PaneID, clone.ID)
	r.state.reconcile()
	return clone.ID, true
}

// ToggleTabPinned flips the pin flag of a tab
func (r *Registry) ToggleTabPinned(tabID string) bool {
	t := r.state.find(tabID)
	if t == nil {
		return false
	}
	t.IsPinned = !t.IsPinned
	r.touch(t, false)
	r.state.reconcile()
	return true
}

// UpdateTab shallow-merges p into a tab
func (r *Registry) UpdateTab(tabID string, p TabPatch) bool {
	t := r.state.find(tabID)
	if t == nil {
		return false
	}
	r.merge(t, p)
	r.touch(t, false)
	r.state.reconcile()
	return true
}

// SetActiveTabID activates a tab within its own pane and focuses that pane.
// The other pane keeps its active tab.
func (r *Registry) SetActiveTabID(tabID string) bool {
	t := r.state.find(tabID)
	if t == nil {
		return false
	}
	r.touch(t, true)
	r.state.activate(t.PaneID, t.ID)
	r.state.reconcile()
	return true
}

// MoveTab moves a tab to index within its pane, clamped so that pinned and
// unpinned tabs stay grouped.
func (r *Registry) MoveTab(tabID string, index int) bool {
	t := r.state.find(tabID)
	if t == nil {
		return false
	}
	moving := *t
	var group []Tab
	for _, other := range r.state.Tabs {
		if other.PaneID == moving.PaneID && other.IsPinned == moving.IsPinned && other.ID != tabID {
			group = append(group, other)
		}
	}
	// index counts positions in the pane; translate it into the pin group.
	offset := 0
	if !moving.IsPinned {
		for _, other := range r.state.Tabs {
			if other.PaneID == moving.PaneID && other.IsPinned {
				offset++
			}
		}
	}
	pos := index - offset
	if pos < 0 {
		pos = 0
	}
	if pos > len(group) {
		pos = len(group)
	}
	reordered := make([]Tab, 0, len(group)+1)
	reordered = append(reordered, group[:pos]...)
	reordered = append(reordered, moving)
	reordered = append(reordered, group[pos:]...)

	tabs := make([]Tab, 0, len(r.state.Tabs))
	next := 0
	for _, other := range r.state.Tabs {
		if other.PaneID == moving.PaneID && other.IsPinned == moving.IsPinned {
			tabs = append(tabs, reordered[next])
			next++
			continue
		}
		tabs = append(tabs, other)
	}
	r.state.Tabs = tabs
	r.state.reconcile()
	return true
}

// FocusPane moves focus to a pane that currently has an active tab
func (r *Registry) FocusPane(pane PaneID) bool {
	if _, ok := r.state.PaneActiveTabIDs[pane]; !ok {
		return false
	}
	r.state.FocusedPane = pane
	return true
}

// UpdatePreferences merges panel and sidebar settings
func (r *Registry) UpdatePreferences(p PreferencesPatch) {
	prefs := &r.state.Preferences
	if p.SidebarWidth != nil && *p.SidebarWidth >= 0 {
		prefs.SidebarWidth = *p.SidebarWidth
	}
	if p.SidebarCollapsed != nil {
		prefs.SidebarCollapsed = *p.SidebarCollapsed
	}
	if p.PanelSizes != nil {
		prefs.PanelSizes = append([]float64(nil), p.PanelSizes...)
	}
	if p.AssistantVisible != nil {
		prefs.AssistantVisible = *p.AssistantVisible
	}
}
