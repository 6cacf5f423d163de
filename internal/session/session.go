// Package session tracks per-connection conversation state. Sessions are
// in-memory only: created when a client connects, discarded on disconnect,
// never persisted across restarts.
package session

import (
	"sync"
	"time"
)

// Roles for conversation turns.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Turn is a single message in a conversation.
type Turn struct {
	Role    string
	Content string
	At      time.Time
}

// Session holds one live connection's accumulated conversation.
// Turn order is append-only and matches the order messages were received.
type Session struct {
	ID        string
	CreatedAt time.Time

	mu    sync.Mutex
	turns []Turn
}

// Append records a turn at the end of the conversation.
func (s *Session) Append(role, content string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.turns = append(s.turns, Turn{Role: role, Content: content, At: time.Now()})
}

// Turns returns a copy of the conversation so far, in receive order.
func (s *Session) Turns() []Turn {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Turn, len(s.turns))
	copy(out, s.turns)
	return out
}

// Len returns the number of recorded turns.
func (s *Session) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.turns)
}

// Store is a registry of live sessions keyed by connection ID.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewStore creates an empty session store.
func NewStore() *Store {
	return &Store{sessions: make(map[string]*Session)}
}

// Create registers a new session for the given connection ID, replacing any
// previous session under the same ID.
func (st *Store) Create(id string) *Session {
	sess := &Session{ID: id, CreatedAt: time.Now()}
	st.mu.Lock()
	st.sessions[id] = sess
	st.mu.Unlock()
	return sess
}

// Get returns the session for a connection ID, or nil if none exists.
func (st *Store) Get(id string) *Session {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return st.sessions[id]
}

// Delete removes a session from the store.
func (st *Store) Delete(id string) {
	st.mu.Lock()
	delete(st.sessions, id)
	st.mu.Unlock()
}

// Active returns the number of live sessions.
func (st *Store) Active() int {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return len(st.sessions)
}
