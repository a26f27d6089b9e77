package layout

// Snapshot returns the read view of the registry
func (r *Registry) Snapshot() Snapshot {
	return r.state.Snapshot()
}

// Tab looks up a tab by id
func (s Snapshot) Tab(tabID string) (TabView, bool) {
	for _, t := range s.Tabs {
		if t.ID == tabID {
			return t, true
		}
	}
	return TabView{}, false
}

// ActiveTab returns the active tab of a pane
func (s Snapshot) ActiveTab(pane PaneID) (TabView, bool) {
	tabID, ok := s.PaneActiveTabIDs[pane]
	if !ok {
		return TabView{}, false
	}
	return s.Tab(tabID)
}

// PinnedTabs returns pinned tabs in display order
func (s Snapshot) PinnedTabs() []TabView {
	return s.filter(func(t TabView) bool { return t.IsPinned })
}

// UnpinnedTabs returns unpinned tabs in display order
func (s Snapshot) UnpinnedTabs() []TabView {
	return s.filter(func(t TabView) bool { return !t.IsPinned })
}

// TabsByType returns the tabs of one type
func (s Snapshot) TabsByType(tabType TabType) []TabView {
	return s.filter(func(t TabView) bool { return t.Type == tabType })
}

// TabsInPane returns the tabs hosted by a pane
func (s Snapshot) TabsInPane(pane PaneID) []TabView {
	return s.filter(func(t TabView) bool { return t.PaneID == pane })
}

// IsSplitActive reports whether the secondary pane is open
func (s Snapshot) IsSplitActive() bool {
	return s.SplitLayout != nil
}

func (s Snapshot) filter(keep func(TabView) bool) []TabView {
	out := make([]TabView, 0, len(s.Tabs))
	for _, t := range s.Tabs {
		if keep(t) {
			out = append(out, t)
		}
	}
	return out
}
