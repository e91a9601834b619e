package story

import (
	"context"
	"sync"
)

// MemoryStore keeps sessions in process memory. It is the volatile default
// registry: nothing survives a restart. Sessions are deep-copied on the way
// in and out so callers never share mutable state with the store.
type MemoryStore struct {
	sessions map[string]*Session
	mu       sync.RWMutex
	closed   bool
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string]*Session),
	}
}

// Create registers a new session.
func (m *MemoryStore) Create(ctx context.Context, sess *Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrStoreClosed
	}
	m.sessions[sess.ID] = sess.clone()
	return nil
}

// Get retrieves a session by ID.
func (m *MemoryStore) Get(ctx context.Context, sessionID string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return nil, ErrStoreClosed
	}
	sess, ok := m.sessions[sessionID]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return sess.clone(), nil
}

// Save persists the mutated session.
func (m *MemoryStore) Save(ctx context.Context, sess *Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrStoreClosed
	}
	m.sessions[sess.ID] = sess.clone()
	return nil
}

// Delete removes a session.
func (m *MemoryStore) Delete(ctx context.Context, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrStoreClosed
	}
	if _, ok := m.sessions[sessionID]; !ok {
		return ErrSessionNotFound
	}
	delete(m.sessions, sessionID)
	return nil
}

// List returns all registered sessions.
func (m *MemoryStore) List(ctx context.Context) ([]*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return nil, ErrStoreClosed
	}
	out := make([]*Session, 0, len(m.sessions))
	for _, sess := range m.sessions {
		out = append(out, sess.clone())
	}
	return out, nil
}

// Close releases the store.
func (m *MemoryStore) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	m.sessions = make(map[string]*Session)
	return nil
}

// clone deep-copies a session, including its slices.
func (s *Session) clone() *Session {
	out := *s
	state := *s.State
	state.Inventory = append([]string{}, s.State.Inventory...)
	state.ActiveThreats = append([]string{}, s.State.ActiveThreats...)
	out.State = &state
	out.Agents = append([]Agent{}, s.Agents...)
	out.NarrativeHistory = append([]string{}, s.NarrativeHistory...)
	return &out
}
