package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/bytedance/sonic"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/TeamHub/backend/internal/domain/layout"
	"github.com/GriffinCanCode/TeamHub/backend/internal/domain/layout/persist"
	"github.com/GriffinCanCode/TeamHub/backend/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/TeamHub/backend/internal/shared/id"
	"github.com/GriffinCanCode/TeamHub/backend/internal/shared/utils"
	"github.com/GriffinCanCode/TeamHub/backend/internal/storage"
)

// KeyPrefix namespaces saved sessions in storage
const KeyPrefix = "session"

var ErrNotFound = errors.New("session not found")

// Session is a named, saved copy of a workspace layout
type Session struct {
	ID          string       `json:"id"`
	WorkspaceID string       `json:"workspace_id"`
	Name        string       `json:"name"`
	Description string       `json:"description,omitempty"`
	CreatedAt   time.Time    `json:"created_at"`
	Hash        string       `json:"hash"`
	State       layout.State `json:"-"`
}

// Metadata is the listing view of a session
type Metadata struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	TabCount    int       `json:"tab_count"`
}

// Stats summarizes session activity
type Stats struct {
	Cached       int        `json:"cached"`
	LastSaved    *time.Time `json:"last_saved,omitempty"`
	LastRestored *time.Time `json:"last_restored,omitempty"`
}

// ToMetadata returns the listing view of s
func (s *Session) ToMetadata() Metadata {
	return Metadata{
		ID:          s.ID,
		Name:        s.Name,
		Description: s.Description,
		CreatedAt:   s.CreatedAt,
		TabCount:    len(s.State.Tabs),
	}
}

// record is the stored form. The layout is kept in the versioned envelope so
// saved sessions migrate like live layouts.
type record struct {
	ID          string          `json:"id"`
	WorkspaceID string          `json:"workspace_id"`
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	Hash        string          `json:"hash"`
	Layout      json.RawMessage `json:"layout"`
}

// Manager saves and restores named layouts
type Manager struct {
	sessions     sync.Map // key -> *Session
	backend      storage.Backend
	logger       *zap.Logger
	metrics      *monitoring.Metrics
	hasher       *utils.Hasher
	now          func() time.Time
	newID        func() string
	mu           sync.RWMutex
	lastSaved    *time.Time
	lastRestored *time.Time
}

// NewManager creates a session manager over backend
func NewManager(backend storage.Backend, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		backend: backend,
		logger:  logger,
		hasher:  utils.DefaultHasher(),
		now:     time.Now,
		newID:   func() string { return id.NewSessionID().String() },
	}
}

// WithMetrics adds metrics tracking to the manager
func (m *Manager) WithMetrics(metrics *monitoring.Metrics) *Manager {
	m.metrics = metrics
	return m
}

// Key returns the storage key of a session
func Key(workspaceID, sessionID string) string {
	return KeyPrefix + ":" + workspaceID + ":" + sessionID
}

// Save captures the current layout of store under name
func (m *Manager) Save(ctx context.Context, store *layout.Store, name, description string) (*Session, error) {
	if err := utils.ValidateName(name, "name"); err != nil {
		return nil, err
	}
	if err := utils.ValidateString(description, "description", 0, utils.MaxPreviewLength, false); err != nil {
		return nil, err
	}

	state := store.State()
	data, err := persist.Encode(state)
	if err != nil {
		return nil, err
	}
	hash := m.hasher.Hash(data)

	now := m.now().UTC()
	s := &Session{
		ID:          m.newID(),
		WorkspaceID: store.WorkspaceID(),
		Name:        strings.TrimSpace(name),
		Description: description,
		CreatedAt:   now,
		Hash:        hash,
		State:       state,
	}

	buf, err := sonic.ConfigStd.Marshal(record{
		ID:          s.ID,
		WorkspaceID: s.WorkspaceID,
		Name:        s.Name,
		Description: s.Description,
		CreatedAt:   s.CreatedAt,
		Hash:        s.Hash,
		Layout:      data,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal session: %w", err)
	}

	// I/O without holding lock
	key := Key(s.WorkspaceID, s.ID)
	if err := m.backend.Put(ctx, key, buf); err != nil {
		return nil, fmt.Errorf("failed to write session: %w", err)
	}
	m.sessions.Store(key, s)

	m.mu.Lock()
	m.lastSaved = &now
	m.mu.Unlock()

	if m.metrics != nil {
		m.metrics.IncSessionsSaved()
	}
	m.logger.Info("session saved",
		zap.String("workspace_id", s.WorkspaceID),
		zap.String("session_id", s.ID),
		zap.Int("tabs", len(state.Tabs)))
	return s.clone(), nil
}

// Get loads a session, from cache when possible
func (m *Manager) Get(ctx context.Context, workspaceID, sessionID string) (*Session, error) {
	if err := utils.ValidateID(sessionID, "session_id", true); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotFound, err)
	}
	key := Key(workspaceID, sessionID)
	if cached, ok := m.sessions.Load(key); ok {
		return cached.(*Session).clone(), nil
	}

	data, err := m.backend.Get(ctx, key)
	if errors.Is(err, storage.ErrNotFound) || errors.Is(err, storage.ErrInvalidKey) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, sessionID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read session: %w", err)
	}

	s, err := decode(data)
	if err != nil {
		return nil, fmt.Errorf("session %s: %w", sessionID, err)
	}
	m.sessions.Store(key, s)
	return s.clone(), nil
}

// List returns the sessions of a workspace, oldest first
func (m *Manager) List(ctx context.Context, workspaceID string) ([]Metadata, error) {
	keys, err := m.backend.Keys(ctx, Key(workspaceID, ""))
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}

	list := make([]Metadata, 0, len(keys))
	for _, key := range keys {
		sessionID := strings.TrimPrefix(key, Key(workspaceID, ""))
		s, err := m.Get(ctx, workspaceID, sessionID)
		if err != nil {
			m.logger.Warn("skipping unreadable session",
				zap.String("workspace_id", workspaceID),
				zap.String("session_id", sessionID),
				zap.Error(err))
			continue
		}
		list = append(list, s.ToMetadata())
	}
	sort.SliceStable(list, func(i, j int) bool {
		if list[i].CreatedAt.Equal(list[j].CreatedAt) {
			return list[i].ID < list[j].ID
		}
		return list[i].CreatedAt.Before(list[j].CreatedAt)
	})
	return list, nil
}

// Restore replaces the layout of store with a saved session
func (m *Manager) Restore(ctx context.Context, store *layout.Store, sessionID string) (*Session, error) {
	s, err := m.Get(ctx, store.WorkspaceID(), sessionID)
	if err != nil {
		return nil, err
	}
	store.Replace(ctx, s.State)

	now := m.now().UTC()
	m.mu.Lock()
	m.lastRestored = &now
	m.mu.Unlock()

	if m.metrics != nil {
		m.metrics.IncSessionsRestored()
	}
	m.logger.Info("session restored",
		zap.String("workspace_id", s.WorkspaceID),
		zap.String("session_id", s.ID))
	return s, nil
}

// Delete removes a saved session
func (m *Manager) Delete(ctx context.Context, workspaceID, sessionID string) error {
	if err := utils.ValidateID(sessionID, "session_id", true); err != nil {
		return fmt.Errorf("%w: %v", ErrNotFound, err)
	}
	key := Key(workspaceID, sessionID)

	// Backends treat deleting a missing key as a no-op
	if _, err := m.backend.Get(ctx, key); err != nil {
		if errors.Is(err, storage.ErrNotFound) || errors.Is(err, storage.ErrInvalidKey) {
			m.sessions.Delete(key)
			return fmt.Errorf("%w: %s", ErrNotFound, sessionID)
		}
		return fmt.Errorf("failed to read session: %w", err)
	}

	if err := m.backend.Delete(ctx, key); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	m.sessions.Delete(key)
	return nil
}

// Stats returns session manager statistics
func (m *Manager) Stats() Stats {
	var cached int
	m.sessions.Range(func(_, _ interface{}) bool {
		cached++
		return true
	})

	m.mu.RLock()
	defer m.mu.RUnlock()
	return Stats{
		Cached:       cached,
		LastSaved:    m.lastSaved,
		LastRestored: m.lastRestored,
	}
}

func decode(data []byte) (*Session, error) {
	var r record
	if err := sonic.ConfigStd.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session: %w", err)
	}
	if r.ID == "" {
		return nil, errors.New("session has empty id")
	}
	state, _, err := persist.Decode(r.Layout)
	if err != nil {
		return nil, err
	}
	return &Session{
		ID:          r.ID,
		WorkspaceID: r.WorkspaceID,
		Name:        r.Name,
		Description: r.Description,
		CreatedAt:   r.CreatedAt,
		Hash:        r.Hash,
		State:       state,
	}, nil
}

func (s *Session) clone() *Session {
	c := *s
	c.State = s.State.Clone()
	return &c
}
