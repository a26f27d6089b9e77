package ws

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/TeamHub/backend/internal/domain/layout"
	"github.com/GriffinCanCode/TeamHub/backend/internal/domain/workspace"
	"github.com/GriffinCanCode/TeamHub/backend/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/TeamHub/backend/internal/infrastructure/tracing"
	"github.com/GriffinCanCode/TeamHub/backend/internal/shared/utils"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

// Message is a frame on the layout stream
type Message struct {
	Type      string           `json:"type"`
	Layout    *layout.Snapshot `json:"layout,omitempty"`
	Message   string           `json:"message,omitempty"`
	Timestamp int64            `json:"timestamp"`
}

// Handler streams layout snapshots of a workspace over WebSocket
type Handler struct {
	workspaces *workspace.Manager
	metrics    *monitoring.Metrics
	logger     *zap.Logger
	upgrader   websocket.Upgrader
}

// NewHandler creates a new WebSocket handler. An empty origins list accepts
// any origin.
func NewHandler(workspaces *workspace.Manager, origins []string, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		workspaces: workspaces,
		logger:     logger,
		upgrader: websocket.Upgrader{
			CheckOrigin: checkOrigin(origins),
		},
	}
}

// WithMetrics adds connection tracking to the handler
func (h *Handler) WithMetrics(metrics *monitoring.Metrics) *Handler {
	h.metrics = metrics
	return h
}

// HandleConnection upgrades the request and streams snapshots until the
// client disconnects
func (h *Handler) HandleConnection(c *gin.Context) {
	store, err := h.workspaces.Open(c.Request.Context(), c.Param("ws"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	log := h.logger.With(
		tracing.Field(c.Request.Context()),
		zap.String("workspace_id", store.WorkspaceID()),
	)

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	if h.metrics != nil {
		h.metrics.IncWSConnections()
		defer h.metrics.DecWSConnections()
	}

	updates, cancel := store.Subscribe()
	defer cancel()

	log.Debug("layout stream opened")
	replies := make(chan Message, 8)
	closed := make(chan struct{})
	go h.readLoop(conn, replies, closed, log)

	if err := h.sendSnapshot(conn, store.Snapshot()); err != nil {
		return
	}

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case snap, ok := <-updates:
			if !ok {
				return
			}
			if err := h.sendSnapshot(conn, snap); err != nil {
				log.Debug("websocket write failed", zap.Error(err))
				return
			}
		case msg := <-replies:
			if msg.Type == "snapshot" {
				snap := store.Snapshot()
				msg.Layout = &snap
			}
			if err := h.send(conn, msg); err != nil {
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-closed:
			log.Debug("layout stream closed")
			return
		}
	}
}

// readLoop answers client frames. Writes stay on the connection goroutine;
// replies are handed over through the channel.
func (h *Handler) readLoop(conn *websocket.Conn, replies chan<- Message, closed chan<- struct{}, log *zap.Logger) {
	defer close(closed)

	conn.SetReadLimit(utils.MaxJSONSize)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var msg Message
		if err := conn.ReadJSON(&msg); err != nil {
			var closeErr *websocket.CloseError
			if !errors.As(err, &closeErr) {
				log.Debug("websocket read error", zap.Error(err))
			}
			return
		}

		var reply Message
		switch msg.Type {
		case "ping":
			reply = Message{Type: "pong"}
		case "snapshot":
			reply = Message{Type: "snapshot"}
		default:
			reply = Message{Type: "error", Message: "unknown message type"}
		}
		select {
		case replies <- reply:
		default:
		}
	}
}

func (h *Handler) sendSnapshot(conn *websocket.Conn, snap layout.Snapshot) error {
	return h.send(conn, Message{Type: "snapshot", Layout: &snap})
}

func (h *Handler) send(conn *websocket.Conn, msg Message) error {
	msg.Timestamp = time.Now().Unix()
	conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteJSON(msg)
}

func checkOrigin(origins []string) func(r *http.Request) bool {
	if len(origins) == 0 {
		return func(*http.Request) bool { return true }
	}
	allowed := make(map[string]struct{}, len(origins))
	for _, o := range origins {
		if o == "*" {
			return func(*http.Request) bool { return true }
		}
		allowed[o] = struct{}{}
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		_, ok := allowed[origin]
		return ok
	}
}
