package persist

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/goccy/go-yaml"
	"github.com/pelletier/go-toml/v2"

	"github.com/GriffinCanCode/TeamHub/backend/internal/domain/layout"
)

// DefaultState is the layout used for new workspaces and whenever the
// persisted layout is missing or unreadable: dashboard, workspace and the
// general channel, all unpinned, with dashboard active.
func DefaultState() layout.State {
	return layout.Normalize(layout.State{
		Tabs: []layout.Tab{
			{ID: "dashboard", Title: "Dashboard", Type: layout.TabTypeExplorer, Path: "/dashboard", PaneID: layout.PanePrimary},
			{ID: "workspace", Title: "Workspace", Type: layout.TabTypeProject, Path: "/workspace", PaneID: layout.PanePrimary},
			{ID: "general-channel", Title: "# general", Type: layout.TabTypeChannel, Path: "/channels/general", PaneID: layout.PanePrimary},
		},
		PaneActiveTabIDs: map[layout.PaneID]string{layout.PanePrimary: "dashboard"},
		FocusedPane:      layout.PanePrimary,
		Preferences:      layout.DefaultPreferences(),
	})
}

// DefaultsFile describes a seed layout on disk
type DefaultsFile struct {
	Tabs []struct {
		ID     string `yaml:"id" toml:"id"`
		Title  string `yaml:"title" toml:"title"`
		Type   string `yaml:"type" toml:"type"`
		Path   string `yaml:"path" toml:"path"`
		Pinned bool   `yaml:"pinned" toml:"pinned"`
	} `yaml:"tabs" toml:"tabs"`
	Active       string    `yaml:"active" toml:"active"`
	SidebarWidth *int      `yaml:"sidebarWidth" toml:"sidebarWidth"`
	PanelSizes   []float64 `yaml:"panelSizes" toml:"panelSizes"`
}

// LoadDefaults reads a seed layout from a YAML or TOML file, picked by
// extension. An empty path returns DefaultState.
func LoadDefaults(path string) (layout.State, error) {
	if path == "" {
		return DefaultState(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return layout.State{}, fmt.Errorf("read defaults file: %w", err)
	}

	var f DefaultsFile
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		err = toml.Unmarshal(data, &f)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &f)
	default:
		return layout.State{}, fmt.Errorf("unsupported defaults file %q", path)
	}
	if err != nil {
		return layout.State{}, fmt.Errorf("parse defaults file: %w", err)
	}
	return f.State()
}

// State converts the seed into a normalized layout
func (f DefaultsFile) State() (layout.State, error) {
	if len(f.Tabs) == 0 {
		return layout.State{}, fmt.Errorf("defaults file has no tabs")
	}
	s := layout.State{
		PaneActiveTabIDs: map[layout.PaneID]string{},
		FocusedPane:      layout.PanePrimary,
		Preferences:      layout.DefaultPreferences(),
	}
	seen := make(map[string]bool, len(f.Tabs))
	for _, t := range f.Tabs {
		if t.ID == "" {
			return layout.State{}, fmt.Errorf("defaults file has a tab without id")
		}
		if seen[t.ID] {
			return layout.State{}, fmt.Errorf("defaults file repeats tab %q", t.ID)
		}
		seen[t.ID] = true
		tabType, err := layout.ParseTabType(t.Type)
		if err != nil {
			return layout.State{}, fmt.Errorf("tab %q: %w", t.ID, err)
		}
		title := t.Title
		if title == "" {
			title = t.ID
		}
		s.Tabs = append(s.Tabs, layout.Tab{
			ID:       t.ID,
			Title:    title,
			Type:     tabType,
			Path:     t.Path,
			IsPinned: t.Pinned,
			PaneID:   layout.PanePrimary,
		})
	}
	if f.Active != "" {
		if !seen[f.Active] {
			return layout.State{}, fmt.Errorf("active tab %q is not in the defaults file", f.Active)
		}
		s.PaneActiveTabIDs[layout.PanePrimary] = f.Active
	}
	if f.SidebarWidth != nil && *f.SidebarWidth >= 0 {
		s.Preferences.SidebarWidth = *f.SidebarWidth
	}
	if len(f.PanelSizes) > 0 {
		s.Preferences.PanelSizes = f.PanelSizes
	}
	return layout.Normalize(s), nil
}
