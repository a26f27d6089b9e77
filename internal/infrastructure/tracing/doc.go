/*
Package tracing gives every HTTP request an id and logs a span for it.

The id is read from the X-Request-ID header when present, otherwise a
req_-prefixed ULID is generated. It is echoed in the response and stored in
the request context so handlers can attach it to their own log lines:

	router.Use(tracing.HTTPMiddleware(tracer))

	logger.Info("tab opened", tracing.Field(c.Request.Context()))

Spans are buffered and logged by a single collector goroutine. Failed
requests log at warn level, the rest at debug.
*/
package tracing
