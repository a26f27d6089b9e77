// Package main is the entry point for the workspace layout service.
//
// The service keeps the tab and pane layout of every workspace: open tabs,
// pinning, split view and sidebar preferences. It persists each layout in a
// versioned envelope so older layouts migrate on load.
//
// The server provides:
//   - REST API for tabs, panes, preferences and saved sessions
//   - WebSocket stream of layout snapshots per workspace
//   - Prometheus metrics on /metrics
//   - Memory, compressed file or SQLite storage behind a circuit breaker
//
// Configuration:
//   - Environment variables (12-factor)
//   - CLI flags (override env vars)
//   - Defaults for development
//
// Usage:
//
//	# SQLite storage with a custom seed layout
//	./server -port 8080 -storage sqlite -storage-path ./data -defaults layout.yaml
//
//	# Development mode (console logs)
//	./server -dev -log-level debug
//
// Signals:
//   - SIGINT, SIGTERM: Graceful shutdown
package main
