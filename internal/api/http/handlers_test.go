package http

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/bytedance/sonic"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/TeamHub/backend/internal/domain/layout/persist"
	"github.com/GriffinCanCode/TeamHub/backend/internal/domain/session"
	"github.com/GriffinCanCode/TeamHub/backend/internal/domain/workspace"
	"github.com/GriffinCanCode/TeamHub/backend/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/TeamHub/backend/internal/storage"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type testServer struct {
	router  *gin.Engine
	backend storage.Backend
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	backend := storage.NewMemory()
	metrics := monitoring.NewMetrics()
	adapter := persist.NewAdapter(backend, zap.NewNop()).WithMetrics(metrics)
	workspaces := workspace.NewManager(adapter, zap.NewNop()).WithMetrics(metrics)
	sessions := session.NewManager(backend, zap.NewNop()).WithMetrics(metrics)

	router := gin.New()
	NewHandlers(workspaces, sessions, metrics, zap.NewNop()).Register(router)
	return &testServer{router: router, backend: backend}
}

func (s *testServer) do(method, path, body string, headers ...string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

type layoutBody struct {
	Layout struct {
		Tabs []struct {
			ID       string `json:"id"`
			Title    string `json:"title"`
			Type     string `json:"type"`
			Path     string `json:"path"`
			PaneID   string `json:"paneId"`
			IsPinned bool   `json:"isPinned"`
			IsSplit  bool   `json:"isSplit"`
			IsActive bool   `json:"isActive"`
		} `json:"tabs"`
		ActiveTabID string            `json:"activeTabId"`
		FocusedPane string            `json:"focusedPane"`
		PaneActive  map[string]string `json:"paneActiveTabIds"`
		SplitLayout *struct {
			Direction string `json:"direction"`
		} `json:"splitLayout"`
		Preferences struct {
			SidebarWidth int `json:"sidebarWidth"`
		} `json:"preferences"`
	} `json:"layout"`
	TabID   string `json:"tab_id"`
	Changed bool   `json:"changed"`
	Closed  int    `json:"closed"`
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, sonic.ConfigStd.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func ids(b layoutBody) []string {
	out := make([]string, len(b.Layout.Tabs))
	for i, tab := range b.Layout.Tabs {
		out[i] = tab.ID
	}
	return out
}

func TestRootAndHealth(t *testing.T) {
	s := newTestServer(t)

	w := s.do(http.MethodGet, "/", "")
	assert.Equal(t, http.StatusOK, w.Code)

	s.do(http.MethodGet, "/workspaces/ws_a/layout", "")
	w = s.do(http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, w.Code)
	body := decode[map[string]interface{}](t, w)
	assert.Equal(t, "healthy", body["status"])
	assert.Contains(t, body, "metrics")
	assert.Contains(t, body, "sessions")
	ws := body["workspaces"].(map[string]interface{})
	assert.EqualValues(t, 1, ws["loaded"])
}

func TestGetLayoutDefaults(t *testing.T) {
	s := newTestServer(t)

	w := s.do(http.MethodGet, "/workspaces/ws_a/layout", "")
	require.Equal(t, http.StatusOK, w.Code)
	body := decode[layoutBody](t, w)
	assert.Equal(t, []string{"dashboard", "workspace", "general-channel"}, ids(body))
	assert.Equal(t, "dashboard", body.Layout.ActiveTabID)
	assert.True(t, body.Layout.Tabs[0].IsActive)
	assert.Nil(t, body.Layout.SplitLayout)
}

func TestGetLayoutETag(t *testing.T) {
	s := newTestServer(t)

	w := s.do(http.MethodGet, "/workspaces/ws_a/layout", "")
	etag := w.Header().Get("ETag")
	require.NotEmpty(t, etag)

	w = s.do(http.MethodGet, "/workspaces/ws_a/layout", "", "If-None-Match", etag)
	assert.Equal(t, http.StatusNotModified, w.Code)

	s.do(http.MethodPost, "/workspaces/ws_a/tabs/workspace/activate", "")
	w = s.do(http.MethodGet, "/workspaces/ws_a/layout", "", "If-None-Match", etag)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEqual(t, etag, w.Header().Get("ETag"))
}

func TestInvalidWorkspace(t *testing.T) {
	s := newTestServer(t)
	for _, path := range []string{
		"/workspaces/bad.id/layout",
		"/workspaces/bad.id/sessions",
		"/workspaces/bad.id/sessions/sess_1",
	} {
		w := s.do(http.MethodGet, path, "")
		assert.Equal(t, http.StatusBadRequest, w.Code, path)
	}
}

func TestOpenTab(t *testing.T) {
	s := newTestServer(t)

	w := s.do(http.MethodPost, "/workspaces/ws_a/tabs",
		`{"id":"notes","title":"Notes","type":"doc","path":"docs/notes"}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	body := decode[layoutBody](t, w)
	assert.Equal(t, "notes", body.TabID)
	assert.Equal(t, "notes", body.Layout.ActiveTabID)
	last := body.Layout.Tabs[len(body.Layout.Tabs)-1]
	assert.Equal(t, "Notes", last.Title)
	assert.Equal(t, "doc", last.Type)
	assert.Equal(t, "/docs/notes", last.Path)

	// No body at all opens a fresh tab with a generated id.
	w = s.do(http.MethodPost, "/workspaces/ws_a/tabs", "")
	require.Equal(t, http.StatusCreated, w.Code)
	body = decode[layoutBody](t, w)
	assert.NotEmpty(t, body.TabID)
	assert.Len(t, body.Layout.Tabs, 5)
}

func TestOpenTabValidation(t *testing.T) {
	s := newTestServer(t)
	cases := map[string]string{
		"malformed":   `{"id":`,
		"bad id":      `{"id":"a/b"}`,
		"long title":  `{"title":"` + strings.Repeat("x", 300) + `"}`,
		"bad path":    `{"path":"a\nb"}`,
		"bad split":   `{"splitDirection":"diagonal"}`,
		"long badge":  `{"metadata":{"badge":"` + strings.Repeat("b", 40) + `"}}`,
		"wrong types": `{"title":12}`,
	}
	for name, body := range cases {
		w := s.do(http.MethodPost, "/workspaces/ws_a/tabs", body)
		assert.Equal(t, http.StatusBadRequest, w.Code, name)
	}

	w := s.do(http.MethodGet, "/workspaces/ws_a/layout", "")
	assert.Len(t, decode[layoutBody](t, w).Layout.Tabs, 3)
}

func TestUpdateTab(t *testing.T) {
	s := newTestServer(t)

	w := s.do(http.MethodPatch, "/workspaces/ws_a/tabs/workspace", `{"title":"Roadmap","isDirty":true}`)
	require.Equal(t, http.StatusOK, w.Code)
	body := decode[layoutBody](t, w)
	assert.True(t, body.Changed)
	assert.Equal(t, "Roadmap", body.Layout.Tabs[1].Title)

	w = s.do(http.MethodPatch, "/workspaces/ws_a/tabs/ghost", `{"title":"x"}`)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCloseAndActivate(t *testing.T) {
	s := newTestServer(t)

	w := s.do(http.MethodPost, "/workspaces/ws_a/tabs/general-channel/activate", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "general-channel", decode[layoutBody](t, w).Layout.ActiveTabID)

	w = s.do(http.MethodDelete, "/workspaces/ws_a/tabs/general-channel", "")
	require.Equal(t, http.StatusOK, w.Code)
	body := decode[layoutBody](t, w)
	assert.Equal(t, []string{"dashboard", "workspace"}, ids(body))
	assert.NotEmpty(t, body.Layout.ActiveTabID)

	w = s.do(http.MethodDelete, "/workspaces/ws_a/tabs/general-channel", "")
	require.Equal(t, http.StatusOK, w.Code, "closing a removed tab is a no-op")
	body = decode[layoutBody](t, w)
	assert.False(t, body.Changed)
	assert.Equal(t, []string{"dashboard", "workspace"}, ids(body))

	w = s.do(http.MethodPost, "/workspaces/ws_a/tabs/general-channel/activate", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.False(t, decode[layoutBody](t, w).Changed)

	w = s.do(http.MethodDelete, "/workspaces/ws_a/tabs/bad%20id", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPinAndCloseAll(t *testing.T) {
	s := newTestServer(t)

	w := s.do(http.MethodPost, "/workspaces/ws_a/tabs/general-channel/pin", "")
	require.Equal(t, http.StatusOK, w.Code)
	body := decode[layoutBody](t, w)
	assert.Equal(t, "general-channel", body.Layout.Tabs[0].ID)
	assert.True(t, body.Layout.Tabs[0].IsPinned)

	w = s.do(http.MethodPost, "/workspaces/ws_a/tabs/close-all", "")
	require.Equal(t, http.StatusOK, w.Code)
	body = decode[layoutBody](t, w)
	assert.Equal(t, 2, body.Closed)
	assert.Equal(t, []string{"general-channel"}, ids(body))
	assert.Equal(t, "general-channel", body.Layout.ActiveTabID)
}

func TestDuplicateTab(t *testing.T) {
	s := newTestServer(t)

	w := s.do(http.MethodPost, "/workspaces/ws_a/tabs/dashboard/duplicate", "")
	require.Equal(t, http.StatusCreated, w.Code)
	body := decode[layoutBody](t, w)
	require.NotEmpty(t, body.TabID)
	assert.NotEqual(t, "dashboard", body.TabID)
	assert.Equal(t, body.TabID, body.Layout.Tabs[1].ID)
	assert.Equal(t, body.TabID, body.Layout.ActiveTabID)

	w = s.do(http.MethodPost, "/workspaces/ws_a/tabs/ghost/duplicate", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSplitTab(t *testing.T) {
	s := newTestServer(t)

	w := s.do(http.MethodPost, "/workspaces/ws_a/tabs/dashboard/split", `{"direction":"down"}`)
	require.Equal(t, http.StatusOK, w.Code)
	body := decode[layoutBody](t, w)
	require.NotNil(t, body.Layout.SplitLayout)
	assert.Equal(t, "down", body.Layout.SplitLayout.Direction)
	assert.Len(t, body.Layout.Tabs, 4)
	assert.NotEmpty(t, body.Layout.PaneActive["secondary"])

	w = s.do(http.MethodGet, "/workspaces/ws_a/tabs?pane=secondary", "")
	require.Equal(t, http.StatusOK, w.Code)
	list := decode[struct {
		Tabs        []map[string]interface{} `json:"tabs"`
		SplitActive bool                     `json:"split_active"`
	}](t, w)
	assert.Len(t, list.Tabs, 1)
	assert.True(t, list.SplitActive)

	// Toggling again with no direction collapses the split.
	w = s.do(http.MethodPost, "/workspaces/ws_a/tabs/dashboard/split", "")
	require.Equal(t, http.StatusOK, w.Code)
	body = decode[layoutBody](t, w)
	assert.Nil(t, body.Layout.SplitLayout)
	assert.Len(t, body.Layout.Tabs, 3)

	w = s.do(http.MethodPost, "/workspaces/ws_a/tabs/dashboard/split", `{"direction":"sideways"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestMoveTab(t *testing.T) {
	s := newTestServer(t)

	w := s.do(http.MethodPost, "/workspaces/ws_a/tabs/general-channel/move", `{"index":0}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{"general-channel", "dashboard", "workspace"}, ids(decode[layoutBody](t, w)))

	for _, body := range []string{"", `{}`, `{"index":-1}`} {
		w = s.do(http.MethodPost, "/workspaces/ws_a/tabs/dashboard/move", body)
		assert.Equal(t, http.StatusBadRequest, w.Code, body)
	}
}

func TestCloseRightAndOthers(t *testing.T) {
	s := newTestServer(t)

	w := s.do(http.MethodPost, "/workspaces/ws_a/tabs/dashboard/close-right", "")
	require.Equal(t, http.StatusOK, w.Code)
	body := decode[layoutBody](t, w)
	assert.Equal(t, 2, body.Closed)
	assert.Equal(t, []string{"dashboard"}, ids(body))

	s.do(http.MethodPost, "/workspaces/ws_b/tabs/workspace/pin", "")
	w = s.do(http.MethodPost, "/workspaces/ws_b/tabs/general-channel/close-others", "")
	require.Equal(t, http.StatusOK, w.Code)
	body = decode[layoutBody](t, w)
	assert.Equal(t, 1, body.Closed)
	assert.Equal(t, []string{"workspace", "general-channel"}, ids(body))
}

func TestFocusPane(t *testing.T) {
	s := newTestServer(t)

	w := s.do(http.MethodPost, "/workspaces/ws_a/focus", `{"pane":"secondary"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.False(t, decode[layoutBody](t, w).Changed)

	s.do(http.MethodPost, "/workspaces/ws_a/tabs/dashboard/split", "")
	w = s.do(http.MethodPost, "/workspaces/ws_a/focus", `{"pane":"secondary"}`)
	require.Equal(t, http.StatusOK, w.Code)
	body := decode[layoutBody](t, w)
	assert.True(t, body.Changed)
	assert.Equal(t, "secondary", body.Layout.FocusedPane)
	assert.Equal(t, body.Layout.PaneActive["secondary"], body.Layout.ActiveTabID)

	w = s.do(http.MethodPost, "/workspaces/ws_a/focus", `{"pane":"tertiary"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestListTabsFilters(t *testing.T) {
	s := newTestServer(t)
	s.do(http.MethodPost, "/workspaces/ws_a/tabs/workspace/pin", "")

	type listBody struct {
		Tabs []struct {
			ID string `json:"id"`
		} `json:"tabs"`
		ActiveTabID string `json:"active_tab_id"`
	}
	cases := []struct {
		query string
		want  []string
	}{
		{"", []string{"workspace", "dashboard", "general-channel"}},
		{"?type=channel", []string{"general-channel"}},
		{"?pinned=true", []string{"workspace"}},
		{"?pinned=false&type=explorer", []string{"dashboard"}},
		{"?pane=primary&type=doc", []string{}},
	}
	for _, tc := range cases {
		w := s.do(http.MethodGet, "/workspaces/ws_a/tabs"+tc.query, "")
		require.Equal(t, http.StatusOK, w.Code, tc.query)
		body := decode[listBody](t, w)
		got := make([]string, 0, len(body.Tabs))
		for _, tab := range body.Tabs {
			got = append(got, tab.ID)
		}
		assert.Equal(t, tc.want, got, tc.query)
	}

	for _, q := range []string{"?type=spreadsheet", "?pane=left", "?pinned=maybe"} {
		w := s.do(http.MethodGet, "/workspaces/ws_a/tabs"+q, "")
		assert.Equal(t, http.StatusBadRequest, w.Code, q)
	}
}

func TestUpdatePreferences(t *testing.T) {
	s := newTestServer(t)

	w := s.do(http.MethodPut, "/workspaces/ws_a/preferences", `{"sidebarWidth":320,"assistantVisible":true}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 320, decode[layoutBody](t, w).Layout.Preferences.SidebarWidth)

	w = s.do(http.MethodPut, "/workspaces/ws_a/preferences", `{"sidebarWidth":-1}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w = s.do(http.MethodPut, "/workspaces/ws_a/preferences", `{"panelSizes":[60,-40]}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestResetLayout(t *testing.T) {
	s := newTestServer(t)
	s.do(http.MethodPost, "/workspaces/ws_a/tabs/close-all", "")

	w := s.do(http.MethodPost, "/workspaces/ws_a/reset", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[layoutBody](t, w).Layout.Tabs, 3)
}

func TestMutationsPersist(t *testing.T) {
	s := newTestServer(t)
	s.do(http.MethodPost, "/workspaces/ws_a/tabs", `{"id":"notes"}`)

	data, err := s.backend.Get(t.Context(), "ui-store:ws_a")
	require.NoError(t, err)
	state, version, err := persist.Decode(data)
	require.NoError(t, err)
	assert.Equal(t, persist.CurrentVersion, version)
	assert.Len(t, state.Tabs, 4)
}

func TestSessionLifecycle(t *testing.T) {
	s := newTestServer(t)
	s.do(http.MethodPost, "/workspaces/ws_a/tabs", `{"id":"notes"}`)

	w := s.do(http.MethodPost, "/workspaces/ws_a/sessions", `{"name":"Review","description":"triage"}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	saved := decode[struct {
		Session session.Metadata `json:"session"`
	}](t, w).Session
	assert.Equal(t, "Review", saved.Name)
	assert.Equal(t, 4, saved.TabCount)

	w = s.do(http.MethodGet, "/workspaces/ws_a/sessions", "")
	require.Equal(t, http.StatusOK, w.Code)
	list := decode[struct {
		Sessions []session.Metadata `json:"sessions"`
	}](t, w)
	require.Len(t, list.Sessions, 1)
	assert.Equal(t, saved.ID, list.Sessions[0].ID)

	w = s.do(http.MethodGet, "/workspaces/ws_a/sessions/"+saved.ID, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[layoutBody](t, w).Layout.Tabs, 4)

	s.do(http.MethodPost, "/workspaces/ws_a/tabs/close-all", "")
	w = s.do(http.MethodPost, "/workspaces/ws_a/sessions/"+saved.ID+"/restore", "")
	require.Equal(t, http.StatusOK, w.Code)
	body := decode[layoutBody](t, w)
	assert.Len(t, body.Layout.Tabs, 4)
	assert.Equal(t, "notes", body.Layout.ActiveTabID)

	w = s.do(http.MethodDelete, "/workspaces/ws_a/sessions/"+saved.ID, "")
	require.Equal(t, http.StatusOK, w.Code)
	w = s.do(http.MethodGet, "/workspaces/ws_a/sessions/"+saved.ID, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	w = s.do(http.MethodPost, "/workspaces/ws_a/sessions/"+saved.ID+"/restore", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	w = s.do(http.MethodDelete, "/workspaces/ws_a/sessions/"+saved.ID, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSaveSessionValidation(t *testing.T) {
	s := newTestServer(t)
	for _, body := range []string{"", `{"name":""}`, `{"name":"ok","description":"` + strings.Repeat("d", 600) + `"}`} {
		w := s.do(http.MethodPost, "/workspaces/ws_a/sessions", body)
		assert.Equal(t, http.StatusBadRequest, w.Code, body)
	}
}

func TestBodyTooLarge(t *testing.T) {
	s := newTestServer(t)
	body := `{"title":"` + strings.Repeat("x", 2*1024*1024) + `"}`
	w := s.do(http.MethodPost, "/workspaces/ws_a/tabs", body)
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
}
