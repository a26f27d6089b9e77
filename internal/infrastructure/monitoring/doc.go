/*
Package monitoring provides metrics collection for the layout service.

# Overview

Metrics are Prometheus collectors registered on a per-instance registry,
covering HTTP traffic, layout operations, persistence writes and
migrations, saved sessions and WebSocket subscribers.

# Usage

	metrics := monitoring.NewMetrics()
	router.Use(monitoring.Middleware(metrics))
	router.GET("/metrics", monitoring.Handler(metrics))

	store := layout.NewStore(wsID, reg, adapter, logger).WithMetrics(metrics)
*/
package monitoring
