package layout

// ToggleSplitView splits or collapses the view around tabID.
//
// An unsplit tab gets a mirrored clone in the other pane, the two sharing a
// split group. Calling it again on either member without a direction
// collapses the group: its secondary members are removed and the survivor's
// split flags cleared. Passing a direction for an already split tab only
// re-orients the split.
func (r *Registry) ToggleSplitView(tabID string, direction *SplitDirection) bool {
	t := r.state.find(tabID)
	if t == nil {
		return false
	}

	if t.IsSplit && t.SplitGroupID != "" {
		if direction != nil && direction.Valid() {
			r.reorient(t.SplitGroupID, *direction)
			return true
		}
		r.collapse(t.SplitGroupID)
		return true
	}

	dir := DefaultSplitDirection
	if direction != nil && direction.Valid() {
		dir = *direction
	}
	r.split(t, dir)
	return true
}

func (r *Registry) split(source *Tab, dir SplitDirection) {
	group := source.SplitGroupID
	if group == "" {
		group = r.newGroupID()
	}

	// The clone lands in the pane the source is not in; a plain tab sits in
	// primary so the clone normally opens the secondary pane.
	clone := source.clone()
	clone.ID = r.newID()
	clone.IsPinned = false
	clone.PaneID = source.PaneID.Other()
	clone.IsSplit = true
	clone.SplitDirection = dir
	clone.SplitGroupID = group
	r.touch(&clone, true)

	source.IsSplit = true
	source.SplitDirection = dir
	source.SplitGroupID = group
	focused := source.PaneID

	r.state.Tabs = append(r.state.Tabs, clone)
	r.state.SplitLayout = &SplitLayout{Direction: dir}
	r.state.PaneActiveTabIDs[clone.PaneID] = clone.ID
	r.state.reconcile()
	r.state.FocusedPane = focused
}

func (r *Registry) collapse(group string) {
	r.state.removeWhere(func(t *Tab) bool {
		return t.SplitGroupID == group && t.PaneID == PaneSecondary
	})
	for i := range r.state.Tabs {
		if r.state.Tabs[i].SplitGroupID == group {
			r.state.Tabs[i].clearSplit()
		}
	}
	r.state.reconcile()
}

func (r *Registry) reorient(group string, dir SplitDirection) {
	for i := range r.state.Tabs {
		if r.state.Tabs[i].SplitGroupID == group {
			r.state.Tabs[i].SplitDirection = dir
		}
	}
	if r.state.SplitLayout != nil {
		r.state.SplitLayout.Direction = dir
	}
}
