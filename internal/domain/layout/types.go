package layout

import (
	"fmt"
	"time"
)

// TabType identifies the kind of view a tab hosts
type TabType string

const (
	TabTypeTask     TabType = "task"
	TabTypeProject  TabType = "project"
	TabTypeDoc      TabType = "doc"
	TabTypeChannel  TabType = "channel"
	TabTypeCalendar TabType = "calendar"
	TabTypeTimeline TabType = "timeline"
	TabTypeDM       TabType = "dm"
	TabTypeAI       TabType = "ai"
	TabTypeAdmin    TabType = "admin"
	TabTypeExplorer TabType = "explorer"
)

// DefaultTabType is assigned to new tabs whose type is missing or unknown
const DefaultTabType = TabTypeExplorer

var tabTypes = []TabType{
	TabTypeTask, TabTypeProject, TabTypeDoc, TabTypeChannel, TabTypeCalendar,
	TabTypeTimeline, TabTypeDM, TabTypeAI, TabTypeAdmin, TabTypeExplorer,
}

// TabTypes returns every known tab type
func TabTypes() []TabType {
	out := make([]TabType, len(tabTypes))
	copy(out, tabTypes)
	return out
}

// Valid reports whether t is a known tab type
func (t TabType) Valid() bool {
	for _, known := range tabTypes {
		if t == known {
			return true
		}
	}
	return false
}

// ParseTabType converts a string into a TabType
func ParseTabType(s string) (TabType, error) {
	t := TabType(s)
	if !t.Valid() {
		return "", fmt.Errorf("unknown tab type %q", s)
	}
	return t, nil
}

// PaneID names one of the two display regions
type PaneID string

const (
	PanePrimary   PaneID = "primary"
	PaneSecondary PaneID = "secondary"
)

// Valid reports whether p is primary or secondary
func (p PaneID) Valid() bool {
	return p == PanePrimary || p == PaneSecondary
}

// Other returns the opposite pane
func (p PaneID) Other() PaneID {
	if p == PaneSecondary {
		return PanePrimary
	}
	return PaneSecondary
}

// ParsePaneID converts a string into a PaneID
func ParsePaneID(s string) (PaneID, error) {
	p := PaneID(s)
	if !p.Valid() {
		return "", fmt.Errorf("unknown pane %q", s)
	}
	return p, nil
}

// SplitDirection is an advisory layout hint for a split view
type SplitDirection string

const (
	SplitLeft  SplitDirection = "left"
	SplitRight SplitDirection = "right"
	SplitUp    SplitDirection = "up"
	SplitDown  SplitDirection = "down"
)

// DefaultSplitDirection is used when a split is created without a direction
const DefaultSplitDirection = SplitRight

// Valid reports whether d is a known direction
func (d SplitDirection) Valid() bool {
	switch d {
	case SplitLeft, SplitRight, SplitUp, SplitDown:
		return true
	}
	return false
}

// ParseSplitDirection converts a string into a SplitDirection
func ParseSplitDirection(s string) (SplitDirection, error) {
	d := SplitDirection(s)
	if !d.Valid() {
		return "", fmt.Errorf("unknown split direction %q", s)
	}
	return d, nil
}

// Metadata carries bookkeeping and presentation hints for a tab
type Metadata struct {
	CreatedAt     time.Time              `json:"createdAt"`
	UpdatedAt     time.Time              `json:"updatedAt"`
	LastVisitedAt time.Time              `json:"lastVisitedAt"`
	VisitCount    int                    `json:"visitCount"`
	Context       map[string]interface{} `json:"context,omitempty"`
	Badge         string                 `json:"badge,omitempty"`
	Preview       string                 `json:"preview,omitempty"`
}

func (m *Metadata) clone() *Metadata {
	if m == nil {
		return nil
	}
	c := *m
	if m.Context != nil {
		c.Context = make(map[string]interface{}, len(m.Context))
		for k, v := range m.Context {
			c.Context[k] = v
		}
	}
	return &c
}

// Tab is a logical open view in the workspace
type Tab struct {
	ID             string         `json:"id"`
	Title          string         `json:"title"`
	Type           TabType        `json:"type"`
	Path           string         `json:"path"`
	IsDirty        bool           `json:"isDirty"`
	IsPinned       bool           `json:"isPinned"`
	IsSplit        bool           `json:"isSplit"`
	SplitDirection SplitDirection `json:"splitDirection,omitempty"`
	PaneID         PaneID         `json:"paneId"`
	SplitGroupID   string         `json:"splitGroupId,omitempty"`
	Metadata       *Metadata      `json:"metadata,omitempty"`
}

func (t Tab) clone() Tab {
	t.Metadata = t.Metadata.clone()
	return t
}

func (t *Tab) clearSplit() {
	t.IsSplit = false
	t.SplitGroupID = ""
	t.SplitDirection = ""
}

// SplitLayout is present only while the secondary pane is open
type SplitLayout struct {
	Direction SplitDirection `json:"direction"`
}

// Preferences holds panel sizing and visibility that travel with the layout
type Preferences struct {
	SidebarWidth     int       `json:"sidebarWidth"`
	SidebarCollapsed bool      `json:"sidebarCollapsed"`
	PanelSizes       []float64 `json:"panelSizes,omitempty"`
	AssistantVisible bool      `json:"assistantVisible"`
}

// DefaultPreferences returns the preferences of a fresh workspace
func DefaultPreferences() Preferences {
	return Preferences{
		SidebarWidth: 260,
		PanelSizes:   []float64{50, 50},
	}
}

// State is the authoritative layout. Tabs are kept sorted; the active tab of
// each pane lives only in PaneActiveTabIDs.
type State struct {
	Tabs             []Tab             `json:"tabs"`
	PaneActiveTabIDs map[PaneID]string `json:"paneActiveTabIds"`
	FocusedPane      PaneID            `json:"focusedPane"`
	SplitLayout      *SplitLayout      `json:"splitLayout"`
	Preferences      Preferences       `json:"preferences"`
}

// Clone returns a deep copy of the state
func (s State) Clone() State {
	out := State{
		Tabs:             make([]Tab, len(s.Tabs)),
		PaneActiveTabIDs: make(map[PaneID]string, len(s.PaneActiveTabIDs)),
		FocusedPane:      s.FocusedPane,
		Preferences:      s.Preferences,
	}
	for i, t := range s.Tabs {
		out.Tabs[i] = t.clone()
	}
	for k, v := range s.PaneActiveTabIDs {
		out.PaneActiveTabIDs[k] = v
	}
	if s.SplitLayout != nil {
		l := *s.SplitLayout
		out.SplitLayout = &l
	}
	if s.Preferences.PanelSizes != nil {
		out.Preferences.PanelSizes = append([]float64(nil), s.Preferences.PanelSizes...)
	}
	return out
}

// TabPatch carries optional field updates for OpenTab and UpdateTab.
// Nil fields are left untouched.
type TabPatch struct {
	Title          *string         `json:"title,omitempty"`
	Type           *TabType        `json:"type,omitempty"`
	Path           *string         `json:"path,omitempty"`
	IsDirty        *bool           `json:"isDirty,omitempty"`
	IsPinned       *bool           `json:"isPinned,omitempty"`
	SplitDirection *SplitDirection `json:"splitDirection,omitempty"`
	PaneID         *PaneID         `json:"paneId,omitempty"`
	Metadata       *Metadata       `json:"metadata,omitempty"`
}

// PreferencesPatch carries optional preference updates
type PreferencesPatch struct {
	SidebarWidth     *int      `json:"sidebarWidth,omitempty"`
	SidebarCollapsed *bool     `json:"sidebarCollapsed,omitempty"`
	PanelSizes       []float64 `json:"panelSizes,omitempty"`
	AssistantVisible *bool     `json:"assistantVisible,omitempty"`
}

// TabView is a read-only tab with its derived active flag
type TabView struct {
	Tab
	IsActive bool `json:"isActive"`
}

// Snapshot is an immutable read view of a State
type Snapshot struct {
	Tabs             []TabView         `json:"tabs"`
	ActiveTabID      string            `json:"activeTabId,omitempty"`
	PaneActiveTabIDs map[PaneID]string `json:"paneActiveTabIds"`
	FocusedPane      PaneID            `json:"focusedPane"`
	SplitLayout      *SplitLayout      `json:"splitLayout"`
	Preferences      Preferences       `json:"preferences"`
}
