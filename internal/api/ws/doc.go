// Package ws streams workspace layouts over WebSocket.
//
// A client connecting to /workspaces/:ws/stream receives the current layout
// immediately and a fresh snapshot after every change. Slow clients skip
// intermediate snapshots and only see the latest one.
//
// Message Types (Client → Server):
//   - ping: keep-alive, answered with pong
//   - snapshot: request the current layout again
//
// Message Types (Server → Client):
//   - snapshot: full layout in the "layout" field
//   - pong
//   - error: unknown message type
//
// Example Usage:
//
//	handler := ws.NewHandler(workspaces, cfg.CORS.Origins, logger).WithMetrics(metrics)
//	router.GET("/workspaces/:ws/stream", handler.HandleConnection)
package ws
