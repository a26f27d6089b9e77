package tracing

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/TeamHub/backend/internal/shared/id"
)

// RequestHeader carries the request id in and out of the service
const RequestHeader = "X-Request-ID"

// Span records one handled request
type Span struct {
	RequestID  string
	Name       string
	Method     string
	Workspace  string
	StartTime  time.Time
	Duration   time.Duration
	StatusCode int
	Error      error
}

// Tracer collects finished spans and logs them off the request path
type Tracer struct {
	logger *zap.Logger
	spans  chan *Span
	mu     sync.RWMutex
	closed bool // Protected by mu
}

// New creates a tracer with a buffer of size spans
func New(logger *zap.Logger, size int) *Tracer {
	if logger == nil {
		logger = zap.NewNop()
	}
	if size <= 0 {
		size = 1000
	}
	t := &Tracer{
		logger: logger,
		spans:  make(chan *Span, size),
	}
	go t.collect()
	return t
}

// Start opens a span, reusing requestID when the caller supplied one
func (t *Tracer) Start(ctx context.Context, name, requestID string) (*Span, context.Context) {
	if requestID == "" || len(requestID) > 128 {
		requestID = id.NewRequestID().String()
	}
	span := &Span{
		RequestID: requestID,
		Name:      name,
		StartTime: time.Now(),
	}
	return span, context.WithValue(ctx, requestIDKey, requestID)
}

// Finish stamps the duration and hands the span to the collector. Spans are
// dropped when the buffer is full.
func (t *Tracer) Finish(span *Span) {
	span.Duration = time.Since(span.StartTime)

	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.closed {
		return
	}
	select {
	case t.spans <- span:
	default:
		t.logger.Warn("span buffer full, dropping span", zap.String("request_id", span.RequestID))
	}
}

// Close stops the collector after draining buffered spans
func (t *Tracer) Close() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.closed {
		t.closed = true
		close(t.spans)
	}
}

func (t *Tracer) collect() {
	for span := range t.spans {
		fields := []zap.Field{
			zap.String("request_id", span.RequestID),
			zap.String("route", span.Name),
			zap.String("method", span.Method),
			zap.Int("status", span.StatusCode),
			zap.Duration("duration", span.Duration),
		}
		if span.Workspace != "" {
			fields = append(fields, zap.String("workspace_id", span.Workspace))
		}
		switch {
		case span.Error != nil:
			t.logger.Warn("request failed", append(fields, zap.Error(span.Error))...)
		case span.StatusCode >= 500:
			t.logger.Warn("request failed", fields...)
		default:
			t.logger.Debug("request completed", fields...)
		}
	}
}

type contextKey string

const requestIDKey contextKey = "request_id"

// RequestID returns the request id carried by ctx
func RequestID(ctx context.Context) string {
	v, _ := ctx.Value(requestIDKey).(string)
	return v
}

// Field returns the request id of ctx as a log field
func Field(ctx context.Context) zap.Field {
	return zap.String("request_id", RequestID(ctx))
}
