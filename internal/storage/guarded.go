package storage

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/TeamHub/backend/internal/infrastructure/resilience"
)

// Guarded routes backend calls through a circuit breaker so a failing disk
// or database fails fast instead of stalling every layout write.
type Guarded struct {
	Backend
	breaker *resilience.Breaker
}

// NewGuarded wraps backend with a breaker that trips after consecutive
// failures and probes again after timeout
func NewGuarded(backend Backend, failures uint32, timeout time.Duration, logger *zap.Logger) *Guarded {
	if logger == nil {
		logger = zap.NewNop()
	}
	if failures == 0 {
		failures = 5
	}
	breaker := resilience.New("storage", resilience.Settings{
		Timeout: timeout,
		ReadyToTrip: func(counts resilience.Counts) bool {
			return counts.ConsecutiveFailures >= failures
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, ErrNotFound) || errors.Is(err, ErrInvalidKey)
		},
		OnStateChange: func(name string, from, to resilience.State) {
			logger.Warn("storage circuit breaker changed state",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
	})
	return &Guarded{Backend: backend, breaker: breaker}
}

// Breaker exposes the underlying breaker
func (g *Guarded) Breaker() *resilience.Breaker {
	return g.breaker
}

func (g *Guarded) Get(ctx context.Context, key string) ([]byte, error) {
	return resilience.Call(g.breaker, func() ([]byte, error) {
		return g.Backend.Get(ctx, key)
	})
}

func (g *Guarded) Put(ctx context.Context, key string, value []byte) error {
	return g.breaker.Do(func() error {
		return g.Backend.Put(ctx, key, value)
	})
}

func (g *Guarded) Delete(ctx context.Context, key string) error {
	return g.breaker.Do(func() error {
		return g.Backend.Delete(ctx, key)
	})
}

func (g *Guarded) Keys(ctx context.Context, prefix string) ([]string, error) {
	return resilience.Call(g.breaker, func() ([]string, error) {
		return g.Backend.Keys(ctx, prefix)
	})
}
