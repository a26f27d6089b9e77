package layout

import (
	"sort"
	"strings"
)

// NormalizePath trims the route and makes sure it starts with a slash
func NormalizePath(path string) string {
	path = strings.TrimSpace(path)
	if path == "" {
		return "/"
	}
	if !strings.HasPrefix(path, "/") {
		return "/" + path
	}
	return path
}

// Normalize returns a copy of s with every layout invariant restored.
// It is used for persisted state and after every registry mutation.
func Normalize(s State) State {
	out := s.Clone()
	out.reconcile()
	return out
}

func (s *State) indexOf(id string) int {
	for i := range s.Tabs {
		if s.Tabs[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *State) find(id string) *Tab {
	if i := s.indexOf(id); i >= 0 {
		return &s.Tabs[i]
	}
	return nil
}

func (s *State) countInPane(pane PaneID) int {
	n := 0
	for i := range s.Tabs {
		if s.Tabs[i].PaneID == pane {
			n++
		}
	}
	return n
}

// firstInPane returns the tab a pane falls back to. Tabs are sorted pinned
// first, so this prefers a pinned tab.
func (s *State) firstInPane(pane PaneID) string {
	for i := range s.Tabs {
		if s.Tabs[i].PaneID == pane {
			return s.Tabs[i].ID
		}
	}
	return ""
}

func (s *State) removeWhere(drop func(t *Tab) bool) int {
	kept := s.Tabs[:0]
	removed := 0
	for i := range s.Tabs {
		if drop(&s.Tabs[i]) {
			removed++
			continue
		}
		kept = append(kept, s.Tabs[i])
	}
	for i := len(kept); i < len(s.Tabs); i++ {
		s.Tabs[i] = Tab{}
	}
	s.Tabs = kept
	return removed
}

func (s *State) activate(pane PaneID, id string) {
	if s.PaneActiveTabIDs == nil {
		s.PaneActiveTabIDs = make(map[PaneID]string, 2)
	}
	s.PaneActiveTabIDs[pane] = id
	s.FocusedPane = pane
}

// sortTabs orders tabs primary then secondary, pinned before unpinned within
// a pane, keeping insertion order otherwise.
func (s *State) sortTabs() {
	sort.SliceStable(s.Tabs, func(i, j int) bool {
		return rank(s.Tabs[i]) < rank(s.Tabs[j])
	})
}

func rank(t Tab) int {
	r := 0
	if t.PaneID == PaneSecondary {
		r += 2
	}
	if !t.IsPinned {
		r++
	}
	return r
}

// reconcile restores every invariant after a mutation.
func (s *State) reconcile() {
	if s.PaneActiveTabIDs == nil {
		s.PaneActiveTabIDs = make(map[PaneID]string, 2)
	}
	if s.Tabs == nil {
		s.Tabs = []Tab{}
	}
	for i := range s.Tabs {
		t := &s.Tabs[i]
		if !t.PaneID.Valid() {
			t.PaneID = PanePrimary
		}
		if !t.Type.Valid() {
			t.Type = DefaultTabType
		}
		t.Path = NormalizePath(t.Path)
		if t.SplitDirection != "" && !t.SplitDirection.Valid() {
			t.SplitDirection = DefaultSplitDirection
		}
	}

	// The secondary pane only exists under a split and never without a
	// primary pane next to it.
	secondary := s.countInPane(PaneSecondary)
	if secondary > 0 && (s.SplitLayout == nil || s.countInPane(PanePrimary) == 0) {
		for i := range s.Tabs {
			s.Tabs[i].PaneID = PanePrimary
		}
		secondary = 0
	}
	if secondary == 0 {
		s.SplitLayout = nil
	} else if !s.SplitLayout.Direction.Valid() {
		s.SplitLayout.Direction = DefaultSplitDirection
	}

	s.repairSplitGroups()
	s.sortTabs()

	for _, pane := range []PaneID{PanePrimary, PaneSecondary} {
		id, ok := s.PaneActiveTabIDs[pane]
		if ok {
			if t := s.find(id); t != nil && t.PaneID == pane {
				continue
			}
		}
		if next := s.firstInPane(pane); next != "" {
			s.PaneActiveTabIDs[pane] = next
		} else {
			delete(s.PaneActiveTabIDs, pane)
		}
	}
	for k := range s.PaneActiveTabIDs {
		if !k.Valid() {
			delete(s.PaneActiveTabIDs, k)
		}
	}

	if !s.FocusedPane.Valid() {
		s.FocusedPane = PanePrimary
	}
	if _, ok := s.PaneActiveTabIDs[s.FocusedPane]; !ok {
		if _, other := s.PaneActiveTabIDs[s.FocusedPane.Other()]; other {
			s.FocusedPane = s.FocusedPane.Other()
		} else {
			s.FocusedPane = PanePrimary
		}
	}
}

// repairSplitGroups clears split flags on any tab whose group is not a
// primary/secondary pair.
func (s *State) repairSplitGroups() {
	type pair struct{ primary, secondary, total int }
	groups := make(map[string]*pair)
	for i := range s.Tabs {
		t := &s.Tabs[i]
		if t.SplitGroupID == "" {
			continue
		}
		g := groups[t.SplitGroupID]
		if g == nil {
			g = &pair{}
			groups[t.SplitGroupID] = g
		}
		g.total++
		if t.PaneID == PaneSecondary {
			g.secondary++
		} else {
			g.primary++
		}
	}
	for i := range s.Tabs {
		t := &s.Tabs[i]
		if t.SplitGroupID == "" {
			if t.IsSplit || t.SplitDirection != "" {
				t.clearSplit()
			}
			continue
		}
		g := groups[t.SplitGroupID]
		if g.total != 2 || g.primary != 1 || g.secondary != 1 {
			t.clearSplit()
			continue
		}
		t.IsSplit = true
		if !t.SplitDirection.Valid() {
			t.SplitDirection = DefaultSplitDirection
		}
	}
}

// Snapshot builds the read view of s with IsActive derived from the
// per-pane pointers.
func (s *State) Snapshot() Snapshot {
	c := s.Clone()
	views := make([]TabView, len(c.Tabs))
	for i, t := range c.Tabs {
		views[i] = TabView{Tab: t, IsActive: c.PaneActiveTabIDs[t.PaneID] == t.ID}
	}
	return Snapshot{
		Tabs:             views,
		ActiveTabID:      c.PaneActiveTabIDs[c.FocusedPane],
		PaneActiveTabIDs: c.PaneActiveTabIDs,
		FocusedPane:      c.FocusedPane,
		SplitLayout:      c.SplitLayout,
		Preferences:      c.Preferences,
	}
}
