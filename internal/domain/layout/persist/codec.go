package persist

import (
	"errors"
	"fmt"

	"github.com/bytedance/sonic"

	"github.com/GriffinCanCode/TeamHub/backend/internal/domain/layout"
)

const (
	// StorageKey prefixes the key of every persisted layout
	StorageKey = "ui-store"
	// CurrentVersion is the schema version written by Encode
	CurrentVersion = 4
)

var ErrMalformed = errors.New("persist: malformed layout")

// ConfigStd sorts map keys, so equal states encode to equal bytes
var codec = sonic.ConfigStd

// persisted is the whitelisted subset written to storage
type persisted struct {
	Tabs             []layout.Tab             `json:"tabs"`
	ActiveTabID      string                   `json:"activeTabId,omitempty"`
	PaneActiveTabIDs map[layout.PaneID]string `json:"paneActiveTabIds"`
	FocusedPane      layout.PaneID            `json:"focusedPane"`
	SplitLayout      *layout.SplitLayout      `json:"splitLayout"`
	SidebarWidth     int                      `json:"sidebarWidth"`
	SidebarCollapsed bool                     `json:"sidebarCollapsed"`
	PanelSizes       []float64                `json:"panelSizes,omitempty"`
	AssistantVisible bool                     `json:"assistantVisible"`
}

type envelope struct {
	State   persisted `json:"state"`
	Version int       `json:"version"`
}

type rawEnvelope struct {
	State   map[string]interface{} `json:"state"`
	Version int                    `json:"version"`
}

// Encode serializes the persisted subset of s at CurrentVersion
func Encode(s layout.State) ([]byte, error) {
	s = layout.Normalize(s)
	snap := s.Snapshot()
	env := envelope{
		Version: CurrentVersion,
		State: persisted{
			Tabs:             s.Tabs,
			ActiveTabID:      snap.ActiveTabID,
			PaneActiveTabIDs: s.PaneActiveTabIDs,
			FocusedPane:      s.FocusedPane,
			SplitLayout:      s.SplitLayout,
			SidebarWidth:     s.Preferences.SidebarWidth,
			SidebarCollapsed: s.Preferences.SidebarCollapsed,
			PanelSizes:       s.Preferences.PanelSizes,
			AssistantVisible: s.Preferences.AssistantVisible,
		},
	}
	data, err := codec.Marshal(env)
	if err != nil {
		return nil, fmt.Errorf("encode layout: %w", err)
	}
	return data, nil
}

// Decode parses an envelope of any known version and migrates it. The
// version found in the envelope is returned alongside the state.
func Decode(data []byte) (layout.State, int, error) {
	var env rawEnvelope
	if err := codec.Unmarshal(data, &env); err != nil {
		return layout.State{}, 0, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if env.State == nil {
		return layout.State{}, env.Version, fmt.Errorf("%w: missing state", ErrMalformed)
	}
	if _, ok := env.State["tabs"].([]interface{}); !ok {
		return layout.State{}, env.Version, fmt.Errorf("%w: missing tabs", ErrMalformed)
	}
	return Migrate(env.State, env.Version), env.Version, nil
}

// ToRaw converts a state into the generic map form Migrate consumes
func ToRaw(s layout.State) (map[string]interface{}, error) {
	data, err := Encode(s)
	if err != nil {
		return nil, err
	}
	var env rawEnvelope
	if err := codec.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("decode layout: %w", err)
	}
	return env.State, nil
}
