// apps/go-server/internal/session/memory.go
//
// In-memory registry of live game sessions (one engine per session).
// Sessions are ephemeral: state is lost on restart, which is fine because a
// round is interactive and short-lived. Concurrency-safe via RWMutex.

package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/robalobadob/recall/apps/go-server/internal/engine"
)

// Session couples a running engine with its owner.
type Session struct {
	ID        string
	UserID    string // empty for guests
	Engine    *engine.Engine
	CreatedAt time.Time
}

// Store defines the registry interface for game sessions.
type Store interface {
	// Save persists or updates a session.
	Save(ctx context.Context, s *Session) error

	// Get retrieves a session by ID.
	// Returns an error if the session is not found.
	Get(ctx context.Context, id string) (*Session, error)

	// Delete removes a session, stopping its engine.
	Delete(ctx context.Context, id string) error
}

// memory is an in-memory map-based Store implementation.
type memory struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewMemoryStore constructs a new in-memory Store.
func NewMemoryStore() Store {
	return &memory{sessions: make(map[string]*Session)}
}

func (m *memory) Save(ctx context.Context, s *Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[s.ID] = s
	return nil
}

func (m *memory) Get(ctx context.Context, id string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if s, ok := m.sessions[id]; ok {
		return s, nil
	}
	return nil, errors.New("not found")
}

func (m *memory) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.sessions[id]; ok {
		s.Engine.Close()
		delete(m.sessions, id)
	}
	return nil
}
