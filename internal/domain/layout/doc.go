// Package layout manages the tabbed workspace layout of a TeamHub user.
//
// A layout is an ordered list of tabs split across at most two panes.
// The primary pane always exists; the secondary pane only exists while a
// split view is open.
//
// Components:
//   - Registry: synchronous tab bookkeeping (open, close, pin, duplicate, move)
//   - Split controller: mirrors a tab into the other pane under a split group
//   - Store: lock, persistence hook and subscription fan-out around a Registry
//   - Snapshot: read view with derived active flags and selector helpers
//
// Invariants restored after every mutation:
//   - tab ids are unique
//   - pinned tabs sort before unpinned ones within a pane, order otherwise stable
//   - each pane has at most one active tab, tracked only in PaneActiveTabIDs
//   - a split group pairs exactly one primary and one secondary tab
//   - an empty secondary pane means no split layout
//
// Unknown tab ids are ignored by every operation so that callers racing an
// already closed tab never see an error.
//
// Example Usage:
//
//	reg := layout.NewRegistry(persist.DefaultState())
//	store := layout.NewStore("ws_1", reg, adapter, logger)
//	id := store.OpenTab(ctx, "", layout.TabPatch{Title: &title})
//	store.ToggleSplitView(ctx, id, nil)
package layout
