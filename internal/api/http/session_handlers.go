package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/TeamHub/backend/internal/domain/session"
	"github.com/GriffinCanCode/TeamHub/backend/internal/shared/utils"
)

// ListSessions lists the saved layouts of a workspace
func (h *Handlers) ListSessions(c *gin.Context) {
	workspaceID := c.Param("ws")
	if err := utils.ValidateID(workspaceID, "workspace_id", true); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	sessions, err := h.sessions.List(c.Request.Context(), workspaceID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"sessions": sessions,
		"stats":    h.sessions.Stats(),
	})
}

// SaveSession saves the current layout under a name
func (h *Handlers) SaveSession(c *gin.Context) {
	store, ok := h.store(c)
	if !ok {
		return
	}
	var req struct {
		Name        string `json:"name"`
		Description string `json:"description"`
	}
	if !h.bind(c, &req) {
		return
	}
	if err := utils.ValidateName(req.Name, "name"); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := utils.ValidateString(req.Description, "description", 0, utils.MaxPreviewLength, false); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	saved, err := h.sessions.Save(c.Request.Context(), store, req.Name, req.Description)
	if err != nil {
		h.log(c).Error("failed to save session", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"session": saved.ToMetadata(),
	})
}

// GetSession returns a saved layout
func (h *Handlers) GetSession(c *gin.Context) {
	workspaceID, sessionID, ok := h.sessionParams(c)
	if !ok {
		return
	}
	s, err := h.sessions.Get(c.Request.Context(), workspaceID, sessionID)
	if err != nil {
		h.sessionError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"session": s.ToMetadata(),
		"hash":    s.Hash,
		"layout":  s.State.Snapshot(),
	})
}

// RestoreSession replaces the live layout with a saved one
func (h *Handlers) RestoreSession(c *gin.Context) {
	store, ok := h.store(c)
	if !ok {
		return
	}
	sessionID := c.Param("sid")
	if err := utils.ValidateID(sessionID, "session_id", true); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	s, err := h.sessions.Restore(c.Request.Context(), store, sessionID)
	if err != nil {
		h.sessionError(c, err)
		return
	}
	h.writeLayout(c, http.StatusOK, store.Snapshot(), gin.H{
		"success": true,
		"session": s.ToMetadata(),
	})
}

// DeleteSession deletes a saved layout
func (h *Handlers) DeleteSession(c *gin.Context) {
	workspaceID, sessionID, ok := h.sessionParams(c)
	if !ok {
		return
	}
	if err := h.sessions.Delete(c.Request.Context(), workspaceID, sessionID); err != nil {
		h.sessionError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"session_id": sessionID,
	})
}

// sessionParams validates :ws and :sid without loading the workspace layout
func (h *Handlers) sessionParams(c *gin.Context) (string, string, bool) {
	workspaceID := c.Param("ws")
	if err := utils.ValidateID(workspaceID, "workspace_id", true); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return "", "", false
	}
	sessionID := c.Param("sid")
	if err := utils.ValidateID(sessionID, "session_id", true); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return "", "", false
	}
	return workspaceID, sessionID, true
}

func (h *Handlers) sessionError(c *gin.Context, err error) {
	if errors.Is(err, session.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "session not found", "session_id": c.Param("sid")})
		return
	}
	h.log(c).Error("session operation failed", zap.Error(err))
	c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
}
