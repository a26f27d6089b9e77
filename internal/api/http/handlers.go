package http

import (
	"errors"
	"net/http"

	"github.com/bytedance/sonic"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/TeamHub/backend/internal/domain/layout"
	"github.com/GriffinCanCode/TeamHub/backend/internal/domain/session"
	"github.com/GriffinCanCode/TeamHub/backend/internal/domain/workspace"
	"github.com/GriffinCanCode/TeamHub/backend/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/TeamHub/backend/internal/infrastructure/resilience"
	"github.com/GriffinCanCode/TeamHub/backend/internal/infrastructure/tracing"
	"github.com/GriffinCanCode/TeamHub/backend/internal/shared/utils"
)

// Handlers contains all HTTP handlers
type Handlers struct {
	workspaces *workspace.Manager
	sessions   *session.Manager
	metrics    *monitoring.Metrics
	breaker    *resilience.Breaker
	logger     *zap.Logger
	hasher     *utils.Hasher
	size       *utils.JSONSizeValidator
}

// NewHandlers creates a new handler set
func NewHandlers(
	workspaces *workspace.Manager,
	sessions *session.Manager,
	metrics *monitoring.Metrics,
	logger *zap.Logger,
) *Handlers {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handlers{
		workspaces: workspaces,
		sessions:   sessions,
		metrics:    metrics,
		logger:     logger,
		hasher:     utils.DefaultHasher(),
		size:       utils.NewJSONSizeValidator(utils.MaxJSONSize),
	}
}

// WithBreaker reports the storage circuit breaker in health checks
func (h *Handlers) WithBreaker(b *resilience.Breaker) *Handlers {
	h.breaker = b
	return h
}

// Register mounts every layout and session route on r
func (h *Handlers) Register(r gin.IRouter) {
	r.GET("/", h.Root)
	r.GET("/health", h.Health)

	ws := r.Group("/workspaces/:ws")
	ws.GET("/layout", h.GetLayout)
	ws.GET("/tabs", h.ListTabs)
	ws.POST("/tabs", h.OpenTab)
	ws.POST("/tabs/close-all", h.CloseAllTabs)
	ws.PATCH("/tabs/:id", h.UpdateTab)
	ws.DELETE("/tabs/:id", h.CloseTab)
	ws.POST("/tabs/:id/activate", h.ActivateTab)
	ws.POST("/tabs/:id/pin", h.PinTab)
	ws.POST("/tabs/:id/duplicate", h.DuplicateTab)
	ws.POST("/tabs/:id/split", h.SplitTab)
	ws.POST("/tabs/:id/move", h.MoveTab)
	ws.POST("/tabs/:id/close-right", h.CloseTabsToRight)
	ws.POST("/tabs/:id/close-others", h.CloseOtherTabs)
	ws.POST("/focus", h.FocusPane)
	ws.PUT("/preferences", h.UpdatePreferences)
	ws.POST("/reset", h.ResetLayout)

	ws.GET("/sessions", h.ListSessions)
	ws.POST("/sessions", h.SaveSession)
	ws.GET("/sessions/:sid", h.GetSession)
	ws.POST("/sessions/:sid/restore", h.RestoreSession)
	ws.DELETE("/sessions/:sid", h.DeleteSession)
}

// Root identifies the service
func (h *Handlers) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "online",
		"service": "TeamHub Layout Service",
		"version": "0.1.0",
	})
}

// Health handles detailed health check
func (h *Handlers) Health(c *gin.Context) {
	body := gin.H{
		"status":     "healthy",
		"workspaces": h.workspaces.Stats(),
		"sessions":   h.sessions.Stats(),
	}
	if h.metrics != nil {
		body["metrics"] = h.metrics.Snapshot()
	}
	if h.breaker != nil {
		state := h.breaker.State()
		body["storage"] = gin.H{"breaker": state.String()}
		if state == resilience.StateOpen {
			body["status"] = "degraded"
		}
	}
	c.JSON(http.StatusOK, body)
}

// store resolves the workspace of the request, writing a 400 on failure
func (h *Handlers) store(c *gin.Context) (*layout.Store, bool) {
	store, err := h.workspaces.Open(c.Request.Context(), c.Param("ws"))
	if errors.Is(err, workspace.ErrInvalidWorkspace) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return nil, false
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return nil, false
	}
	return store, true
}

// bind decodes an optional JSON body into v. An empty body leaves v as is.
func (h *Handlers) bind(c *gin.Context, v interface{}) bool {
	data, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return false
	}
	if len(data) == 0 {
		return true
	}
	if err := h.size.ValidateSize(data); err != nil {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": err.Error()})
		return false
	}
	if err := sonic.ConfigStd.Unmarshal(data, v); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid JSON body: " + err.Error()})
		return false
	}
	return true
}

// writeLayout renders a snapshot with its ETag. GET requests carrying a
// matching If-None-Match get 304.
func (h *Handlers) writeLayout(c *gin.Context, status int, snap layout.Snapshot, extra gin.H) {
	hash, err := h.hasher.HashJSON(snap)
	if err == nil {
		etag := utils.ETag(hash)
		c.Header("ETag", etag)
		if c.Request.Method == http.MethodGet && c.GetHeader("If-None-Match") == etag {
			c.Status(http.StatusNotModified)
			return
		}
	}

	body := gin.H{"layout": snap}
	for k, v := range extra {
		body[k] = v
	}
	c.JSON(status, body)
}

func (h *Handlers) log(c *gin.Context) *zap.Logger {
	return h.logger.With(
		tracing.Field(c.Request.Context()),
		zap.String("workspace_id", c.Param("ws")),
	)
}
