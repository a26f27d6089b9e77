package persist

import (
	"math"
	"strings"
	"time"

	"github.com/GriffinCanCode/TeamHub/backend/internal/domain/layout"
)

// Schema lineage:
//
//	v1  tabs carry route and metadata, per-tab isActive, top-level activeTabId
//	v2  route and metadata replaced by path
//	v3  pane fields added (paneId, isSplit, splitDirection, splitGroupId,
//	    paneActiveTabIds, splitLayout); isActive still stored
//	v4  isActive dropped, metadata restored, focusedPane and preferences added
//
// Unknown or missing versions are read with the same lenient rules; fields
// a version never had are simply absent.

// Migrate upgrades a decoded persisted state of the given version to the
// current shape. It never panics: wrong-typed or missing fields take their
// defaults. Migrating an already current state returns it unchanged.
func Migrate(raw map[string]interface{}, version int) layout.State {
	s := layout.State{
		Tabs:             []layout.Tab{},
		PaneActiveTabIDs: map[layout.PaneID]string{},
		FocusedPane:      layout.PanePrimary,
		Preferences:      migratePreferences(raw),
	}

	activeFlags := map[layout.PaneID]string{}
	seen := map[string]bool{}
	for _, item := range list(raw["tabs"]) {
		m, ok := item.(map[string]interface{})
		if !ok {
			continue
		}
		t, active, ok := migrateTab(m, version)
		if !ok || seen[t.ID] {
			continue
		}
		seen[t.ID] = true
		s.Tabs = append(s.Tabs, t)
		if active {
			if _, taken := activeFlags[t.PaneID]; !taken {
				activeFlags[t.PaneID] = t.ID
			}
		}
	}

	if dir := str(object(raw["splitLayout"])["direction"]); dir != "" {
		s.SplitLayout = &layout.SplitLayout{Direction: layout.SplitDirection(dir)}
	}

	pointers, hasPointers := raw["paneActiveTabIds"].(map[string]interface{})
	switch {
	case hasPointers:
		for pane, v := range pointers {
			if id := str(v); id != "" {
				s.PaneActiveTabIDs[layout.PaneID(pane)] = id
			}
		}
	case len(activeFlags) > 0:
		for pane, id := range activeFlags {
			s.PaneActiveTabIDs[pane] = id
		}
	}

	legacyActive := str(raw["activeTabId"])
	if legacyActive != "" && !hasPointers {
		if pane, ok := paneOf(s.Tabs, legacyActive); ok {
			s.PaneActiveTabIDs[pane] = legacyActive
		}
	}

	if focused := layout.PaneID(str(raw["focusedPane"])); focused.Valid() {
		s.FocusedPane = focused
	} else if pane, ok := paneOf(s.Tabs, legacyActive); ok && s.PaneActiveTabIDs[pane] == legacyActive {
		s.FocusedPane = pane
	}

	return layout.Normalize(s)
}

func migrateTab(m map[string]interface{}, version int) (layout.Tab, bool, bool) {
	id := strings.TrimSpace(str(m["id"]))
	if id == "" {
		return layout.Tab{}, false, false
	}

	path := str(m["path"])
	if path == "" {
		// v1 routes were either a string or {path, params}.
		switch r := m["route"].(type) {
		case string:
			path = r
		case map[string]interface{}:
			path = str(r["path"])
		}
	}

	title := str(m["title"])
	if title == "" {
		title = id
	}

	t := layout.Tab{
		ID:             id,
		Title:          title,
		Type:           layout.TabType(str(m["type"])),
		Path:           layout.NormalizePath(path),
		IsDirty:        boolean(m["isDirty"]),
		IsPinned:       boolean(m["isPinned"]),
		IsSplit:        boolean(m["isSplit"]),
		SplitDirection: layout.SplitDirection(str(m["splitDirection"])),
		PaneID:         layout.PaneID(str(m["paneId"])),
		SplitGroupID:   str(m["splitGroupId"]),
	}
	if version != 2 {
		t.Metadata = migrateMetadata(object(m["metadata"]))
	}
	if !t.PaneID.Valid() {
		t.PaneID = layout.PanePrimary
	}
	return t, boolean(m["isActive"]), true
}

func migrateMetadata(m map[string]interface{}) *layout.Metadata {
	if m == nil {
		return nil
	}
	md := &layout.Metadata{
		CreatedAt:     timestamp(m["createdAt"]),
		UpdatedAt:     timestamp(m["updatedAt"]),
		LastVisitedAt: timestamp(m["lastVisitedAt"]),
		VisitCount:    integer(m["visitCount"]),
		Badge:         str(m["badge"]),
		Preview:       str(m["preview"]),
	}
	if ctx := object(m["context"]); len(ctx) > 0 {
		md.Context = ctx
	}
	return md
}

func migratePreferences(raw map[string]interface{}) layout.Preferences {
	prefs := layout.DefaultPreferences()
	if v, ok := number(raw["sidebarWidth"]); ok && v >= 0 {
		prefs.SidebarWidth = int(v)
	}
	prefs.SidebarCollapsed = boolean(raw["sidebarCollapsed"])
	prefs.AssistantVisible = boolean(raw["assistantVisible"])

	var sizes []float64
	for _, v := range list(raw["panelSizes"]) {
		if f, ok := number(v); ok {
			sizes = append(sizes, f)
		}
	}
	if len(sizes) > 0 {
		prefs.PanelSizes = sizes
	}
	return prefs
}

func paneOf(tabs []layout.Tab, id string) (layout.PaneID, bool) {
	if id == "" {
		return "", false
	}
	for _, t := range tabs {
		if t.ID == id {
			return t.PaneID, true
		}
	}
	return "", false
}

func str(v interface{}) string {
	s, _ := v.(string)
	return s
}

func boolean(v interface{}) bool {
	b, _ := v.(bool)
	return b
}

func list(v interface{}) []interface{} {
	l, _ := v.([]interface{})
	return l
}

func object(v interface{}) map[string]interface{} {
	m, _ := v.(map[string]interface{})
	return m
}

func number(v interface{}) (float64, bool) {
	var f float64
	switch n := v.(type) {
	case float64:
		f = n
	case float32:
		f = float64(n)
	case int:
		f = float64(n)
	case int64:
		f = float64(n)
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func integer(v interface{}) int {
	f, ok := number(v)
	if !ok || f < 0 || f > math.MaxInt32 {
		return 0
	}
	return int(f)
}

// timestamp accepts RFC 3339 strings and epoch milliseconds
func timestamp(v interface{}) time.Time {
	switch t := v.(type) {
	case string:
		parsed, err := time.Parse(time.RFC3339Nano, t)
		if err != nil {
			return time.Time{}
		}
		return parsed.UTC()
	default:
		ms, ok := number(v)
		if !ok || ms <= 0 || ms > math.MaxInt64/2 {
			return time.Time{}
		}
		return time.UnixMilli(int64(ms)).UTC()
	}
}
