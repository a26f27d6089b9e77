package persist

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/TeamHub/backend/internal/domain/layout"
	"github.com/GriffinCanCode/TeamHub/backend/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/TeamHub/backend/internal/storage"
)

// Adapter reads and writes workspace layouts through a storage backend.
// It implements layout.Persister.
type Adapter struct {
	backend  storage.Backend
	prefix   string
	defaults layout.State
	logger   *zap.Logger
	metrics  *monitoring.Metrics
}

// AdapterOption configures an Adapter
type AdapterOption func(*Adapter)

// WithKeyPrefix replaces StorageKey as the key prefix
func WithKeyPrefix(prefix string) AdapterOption {
	return func(a *Adapter) {
		if prefix != "" {
			a.prefix = prefix
		}
	}
}

// WithDefaults replaces DefaultState as the fallback layout
func WithDefaults(s layout.State) AdapterOption {
	return func(a *Adapter) { a.defaults = layout.Normalize(s) }
}

// NewAdapter creates a persistence adapter over backend
func NewAdapter(backend storage.Backend, logger *zap.Logger, opts ...AdapterOption) *Adapter {
	if logger == nil {
		logger = zap.NewNop()
	}
	a := &Adapter{
		backend:  backend,
		prefix:   StorageKey,
		defaults: DefaultState(),
		logger:   logger,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// WithMetrics adds metrics tracking to the adapter
func (a *Adapter) WithMetrics(metrics *monitoring.Metrics) *Adapter {
	a.metrics = metrics
	return a
}

// Key returns the storage key of a workspace layout
func (a *Adapter) Key(workspaceID string) string {
	return a.prefix + ":" + workspaceID
}

// Defaults returns a copy of the fallback layout
func (a *Adapter) Defaults() layout.State {
	return a.defaults.Clone()
}

// ErrUnavailable means the persisted layout could not be read. The data may
// still exist and must not be overwritten with the fallback.
var ErrUnavailable = errors.New("persisted layout unavailable")

// Load returns the persisted layout of a workspace. Missing or unreadable
// data yields the default layout; Load never fails.
func (a *Adapter) Load(ctx context.Context, workspaceID string) layout.State {
	s, _ := a.Read(ctx, workspaceID)
	return s
}

// Read is Load that also reports a failed backend read. The returned state
// is always usable; on ErrUnavailable it is the default layout.
func (a *Adapter) Read(ctx context.Context, workspaceID string) (layout.State, error) {
	log := a.logger.With(zap.String("workspace_id", workspaceID))

	data, err := a.backend.Get(ctx, a.Key(workspaceID))
	if errors.Is(err, storage.ErrNotFound) {
		log.Debug("no persisted layout, using defaults")
		return a.Defaults(), nil
	}
	if err != nil {
		log.Warn("failed to read persisted layout, using defaults", zap.Error(err))
		a.fallback()
		return a.Defaults(), fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	s, version, err := Decode(data)
	if err != nil {
		log.Warn("persisted layout is malformed, using defaults", zap.Error(err))
		a.fallback()
		return a.Defaults(), nil
	}
	if version != CurrentVersion {
		log.Info("migrated persisted layout",
			zap.Int("from_version", version),
			zap.Int("to_version", CurrentVersion))
		if a.metrics != nil {
			a.metrics.RecordMigration(strconv.Itoa(version))
		}
	}
	return s, nil
}

// Persist writes the persisted subset of s
func (a *Adapter) Persist(ctx context.Context, workspaceID string, s layout.State) error {
	start := time.Now()
	err := a.save(ctx, workspaceID, s)
	if a.metrics != nil {
		a.metrics.RecordPersist(time.Since(start), err)
	}
	return err
}

func (a *Adapter) save(ctx context.Context, workspaceID string, s layout.State) error {
	data, err := Encode(s)
	if err != nil {
		return err
	}
	if err := a.backend.Put(ctx, a.Key(workspaceID), data); err != nil {
		return fmt.Errorf("write layout %s: %w", workspaceID, err)
	}
	return nil
}

// Delete removes the persisted layout of a workspace
func (a *Adapter) Delete(ctx context.Context, workspaceID string) error {
	if err := a.backend.Delete(ctx, a.Key(workspaceID)); err != nil {
		return fmt.Errorf("delete layout %s: %w", workspaceID, err)
	}
	return nil
}

func (a *Adapter) fallback() {
	if a.metrics != nil {
		a.metrics.IncFallbacks()
	}
}
