package http

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/TeamHub/backend/internal/domain/layout"
	"github.com/GriffinCanCode/TeamHub/backend/internal/domain/workspace"
	"github.com/GriffinCanCode/TeamHub/backend/internal/shared/utils"
)

type openTabRequest struct {
	ID string `json:"id"`
	layout.TabPatch
}

type splitRequest struct {
	Direction *string `json:"direction"`
}

type moveRequest struct {
	Index *int `json:"index"`
}

type focusRequest struct {
	Pane string `json:"pane"`
}

// GetLayout returns the full layout snapshot
func (h *Handlers) GetLayout(c *gin.Context) {
	store, ok := h.store(c)
	if !ok {
		return
	}
	h.writeLayout(c, http.StatusOK, store.Snapshot(), nil)
}

// ListTabs returns tabs filtered by type, pane and pinned state
func (h *Handlers) ListTabs(c *gin.Context) {
	store, ok := h.store(c)
	if !ok {
		return
	}
	snap := store.Snapshot()
	tabs := snap.Tabs

	if raw := c.Query("type"); raw != "" {
		t, err := layout.ParseTabType(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		tabs = snap.TabsByType(t)
	}
	if raw := c.Query("pane"); raw != "" {
		p, err := layout.ParsePaneID(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		tabs = keep(tabs, func(t layout.TabView) bool { return t.PaneID == p })
	}
	if raw := c.Query("pinned"); raw != "" {
		pinned, err := strconv.ParseBool(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "pinned must be a boolean"})
			return
		}
		tabs = keep(tabs, func(t layout.TabView) bool { return t.IsPinned == pinned })
	}

	c.JSON(http.StatusOK, gin.H{
		"tabs":          tabs,
		"active_tab_id": snap.ActiveTabID,
		"split_active":  snap.IsSplitActive(),
	})
}

// OpenTab opens a new tab or re-activates an existing one
func (h *Handlers) OpenTab(c *gin.Context) {
	store, ok := h.store(c)
	if !ok {
		return
	}
	var req openTabRequest
	if !h.bind(c, &req) {
		return
	}
	if err := utils.ValidateID(req.ID, "id", false); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := validatePatch(req.TabPatch); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	tabID := store.OpenTab(c.Request.Context(), req.ID, req.TabPatch)
	h.log(c).Debug("tab opened", zap.String("tab_id", tabID))
	h.writeLayout(c, http.StatusCreated, store.Snapshot(), gin.H{"tab_id": tabID})
}

// UpdateTab merges fields into an existing tab
func (h *Handlers) UpdateTab(c *gin.Context) {
	store, tabID, ok := h.tab(c)
	if !ok {
		return
	}
	var patch layout.TabPatch
	if !h.bind(c, &patch) {
		return
	}
	if err := validatePatch(patch); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	changed := store.UpdateTab(c.Request.Context(), tabID, patch)
	h.writeLayout(c, http.StatusOK, store.Snapshot(), gin.H{"changed": changed})
}

// CloseTab closes a single tab
func (h *Handlers) CloseTab(c *gin.Context) {
	store, tabID, ok := h.tabRef(c)
	if !ok {
		return
	}
	changed := store.CloseTab(c.Request.Context(), tabID)
	h.writeLayout(c, http.StatusOK, store.Snapshot(), gin.H{"changed": changed})
}

// ActivateTab makes a tab the active tab of its pane and focuses that pane
func (h *Handlers) ActivateTab(c *gin.Context) {
	store, tabID, ok := h.tabRef(c)
	if !ok {
		return
	}
	changed := store.SetActiveTabID(c.Request.Context(), tabID)
	h.writeLayout(c, http.StatusOK, store.Snapshot(), gin.H{"changed": changed})
}

// PinTab toggles the pinned flag of a tab
func (h *Handlers) PinTab(c *gin.Context) {
	store, tabID, ok := h.tab(c)
	if !ok {
		return
	}
	changed := store.ToggleTabPinned(c.Request.Context(), tabID)
	h.writeLayout(c, http.StatusOK, store.Snapshot(), gin.H{"changed": changed})
}

// DuplicateTab clones a tab next to the original
func (h *Handlers) DuplicateTab(c *gin.Context) {
	store, tabID, ok := h.tab(c)
	if !ok {
		return
	}
	cloneID, _ := store.DuplicateTab(c.Request.Context(), tabID)
	h.writeLayout(c, http.StatusCreated, store.Snapshot(), gin.H{"tab_id": cloneID})
}

// SplitTab toggles split view for a tab
func (h *Handlers) SplitTab(c *gin.Context) {
	store, tabID, ok := h.tab(c)
	if !ok {
		return
	}
	var req splitRequest
	if !h.bind(c, &req) {
		return
	}
	var dir *layout.SplitDirection
	if req.Direction != nil {
		d, err := layout.ParseSplitDirection(*req.Direction)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		dir = &d
	}

	changed := store.ToggleSplitView(c.Request.Context(), tabID, dir)
	h.writeLayout(c, http.StatusOK, store.Snapshot(), gin.H{"changed": changed})
}

// MoveTab reorders a tab within its pinned or unpinned group
func (h *Handlers) MoveTab(c *gin.Context) {
	store, tabID, ok := h.tab(c)
	if !ok {
		return
	}
	var req moveRequest
	if !h.bind(c, &req) {
		return
	}
	if req.Index == nil || *req.Index < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "index must be a non-negative integer"})
		return
	}

	changed := store.MoveTab(c.Request.Context(), tabID, *req.Index)
	h.writeLayout(c, http.StatusOK, store.Snapshot(), gin.H{"changed": changed})
}

// CloseTabsToRight closes the unpinned tabs after a tab in its pane
func (h *Handlers) CloseTabsToRight(c *gin.Context) {
	store, tabID, ok := h.tab(c)
	if !ok {
		return
	}
	closed := store.CloseTabsToRight(c.Request.Context(), tabID)
	h.writeLayout(c, http.StatusOK, store.Snapshot(), gin.H{"closed": closed})
}

// CloseOtherTabs closes every other unpinned tab in the pane of a tab
func (h *Handlers) CloseOtherTabs(c *gin.Context) {
	store, tabID, ok := h.tab(c)
	if !ok {
		return
	}
	closed := store.CloseOtherTabs(c.Request.Context(), tabID)
	h.writeLayout(c, http.StatusOK, store.Snapshot(), gin.H{"closed": closed})
}

// CloseAllTabs closes every unpinned tab
func (h *Handlers) CloseAllTabs(c *gin.Context) {
	store, ok := h.store(c)
	if !ok {
		return
	}
	closed := store.CloseAllTabs(c.Request.Context())
	h.log(c).Debug("closed all tabs", zap.Int("closed", closed))
	h.writeLayout(c, http.StatusOK, store.Snapshot(), gin.H{"closed": closed})
}

// FocusPane moves keyboard focus to a pane
func (h *Handlers) FocusPane(c *gin.Context) {
	store, ok := h.store(c)
	if !ok {
		return
	}
	var req focusRequest
	if !h.bind(c, &req) {
		return
	}
	pane, err := layout.ParsePaneID(req.Pane)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	changed := store.FocusPane(c.Request.Context(), pane)
	h.writeLayout(c, http.StatusOK, store.Snapshot(), gin.H{"changed": changed})
}

// UpdatePreferences merges sidebar and panel preferences
func (h *Handlers) UpdatePreferences(c *gin.Context) {
	store, ok := h.store(c)
	if !ok {
		return
	}
	var patch layout.PreferencesPatch
	if !h.bind(c, &patch) {
		return
	}
	if patch.SidebarWidth != nil && *patch.SidebarWidth < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "sidebarWidth must not be negative"})
		return
	}
	for _, size := range patch.PanelSizes {
		if size < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "panelSizes must not be negative"})
			return
		}
	}

	store.UpdatePreferences(c.Request.Context(), patch)
	h.writeLayout(c, http.StatusOK, store.Snapshot(), nil)
}

// ResetLayout replaces the workspace layout with the defaults
func (h *Handlers) ResetLayout(c *gin.Context) {
	store, err := h.workspaces.Reset(c.Request.Context(), c.Param("ws"))
	if errors.Is(err, workspace.ErrInvalidWorkspace) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	h.log(c).Info("layout reset to defaults")
	h.writeLayout(c, http.StatusOK, store.Snapshot(), nil)
}

// tab resolves the workspace and the :id tab, writing 400 or 404 on failure
func (h *Handlers) tab(c *gin.Context) (*layout.Store, string, bool) {
	store, tabID, ok := h.tabRef(c)
	if !ok {
		return nil, "", false
	}
	if _, found := store.Snapshot().Tab(tabID); !found {
		c.JSON(http.StatusNotFound, gin.H{"error": "tab not found", "tab_id": tabID})
		return nil, "", false
	}
	return store, tabID, true
}

// tabRef validates the tab id without requiring the tab to exist. Close and
// activate answer unknown ids with changed=false since clients race against
// tabs that are already gone.
func (h *Handlers) tabRef(c *gin.Context) (*layout.Store, string, bool) {
	store, ok := h.store(c)
	if !ok {
		return nil, "", false
	}
	tabID := c.Param("id")
	if err := utils.ValidateID(tabID, "tab_id", true); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return nil, "", false
	}
	return store, tabID, true
}

func validatePatch(p layout.TabPatch) error {
	if p.Title != nil {
		if err := utils.ValidateTitle(*p.Title); err != nil {
			return err
		}
	}
	if p.Path != nil {
		if err := utils.ValidatePath(*p.Path); err != nil {
			return err
		}
	}
	if p.SplitDirection != nil && !p.SplitDirection.Valid() {
		return fmt.Errorf("unknown split direction %q", *p.SplitDirection)
	}
	if p.Metadata != nil {
		if err := utils.ValidateContext(p.Metadata.Context); err != nil {
			return err
		}
		if err := utils.ValidateString(p.Metadata.Badge, "badge", 0, utils.MaxBadgeLength, false); err != nil {
			return err
		}
		if err := utils.ValidateString(p.Metadata.Preview, "preview", 0, utils.MaxPreviewLength, false); err != nil {
			return err
		}
	}
	return nil
}

func keep(tabs []layout.TabView, fn func(layout.TabView) bool) []layout.TabView {
	out := make([]layout.TabView, 0, len(tabs))
	for _, t := range tabs {
		if fn(t) {
			out = append(out, t)
		}
	}
	return out
}
