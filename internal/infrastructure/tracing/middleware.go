package tracing

import (
	"github.com/gin-gonic/gin"
)

// HTTPMiddleware assigns every request an id, echoes it in the response
// header and records a span once the handler returns.
func HTTPMiddleware(tracer *Tracer) gin.HandlerFunc {
	return func(c *gin.Context) {
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}

		span, ctx := tracer.Start(c.Request.Context(), route, c.GetHeader(RequestHeader))
		span.Method = c.Request.Method
		c.Request = c.Request.WithContext(ctx)
		c.Header(RequestHeader, span.RequestID)

		c.Next()

		span.StatusCode = c.Writer.Status()
		span.Workspace = c.Param("ws")
		if len(c.Errors) > 0 {
			span.Error = c.Errors.Last()
		}
		tracer.Finish(span)
	}
}
