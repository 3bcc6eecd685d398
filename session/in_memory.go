package session

import (
	"sync"
	"time"

	"github.com/jonaskahn/lucas/core"
)

// Session is one conversation's cross-turn record: message history, the
// plugin context from the last completed turn and bookkeeping timestamps.
type Session struct {
	ID            string
	Messages      []core.Message
	PluginContext map[string]any
	Turns         int
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// NewSession creates an empty session with the given id.
func NewSession(id string) *Session {
	now := time.Now()
	return &Session{
		ID:            id,
		PluginContext: map[string]any{},
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

// Clone returns a deep copy safe for mutation outside the store.
func (s *Session) Clone() *Session {
	clone := &Session{
		ID:        s.ID,
		Messages:  append([]core.Message(nil), s.Messages...),
		Turns:     s.Turns,
		CreatedAt: s.CreatedAt,
		UpdatedAt: s.UpdatedAt,
	}
	clone.PluginContext = make(map[string]any, len(s.PluginContext))
	for k, v := range s.PluginContext {
		clone.PluginContext[k] = v
	}
	return clone
}

// Store persists sessions across turns.
type Store interface {
	Get(sessionID string) (*Session, error)
	Save(session *Session) error
	Delete(sessionID string) error
}

// InMemoryStore is a volatile Store implementation keeping sessions in a
// process local map. It is safe for concurrent access and best suited for
// tests or ephemeral demo processes. Each returned session is cloned to
// prevent external mutation of internal state.
type InMemoryStore struct {
	mu          sync.RWMutex
	sessions    map[string]*Session
	maxMessages int
}

// InMemoryOptions configures an InMemoryStore.
type InMemoryOptions struct {
	// MaxMessages bounds the retained history per session; the oldest
	// entries are dropped first. Zero means unbounded.
	MaxMessages int
}

// NewInMemoryStore constructs an empty in-memory session store.
func NewInMemoryStore(optFns ...func(o *InMemoryOptions)) *InMemoryStore {
	opts := InMemoryOptions{}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &InMemoryStore{
		sessions:    make(map[string]*Session),
		maxMessages: opts.MaxMessages,
	}
}

// Get returns an existing session (clone) or creates a new one lazily.
func (s *InMemoryStore) Get(sessionID string) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sess, ok := s.sessions[sessionID]; ok {
		return sess.Clone(), nil
	}
	sess := NewSession(sessionID)
	s.sessions[sessionID] = sess
	return sess.Clone(), nil
}

// Save stores a clone of the provided session snapshot, trimming history to
// the configured bound.
func (s *InMemoryStore) Save(session *Session) error {
	clone := session.Clone()
	clone.UpdatedAt = time.Now()
	if s.maxMessages > 0 && len(clone.Messages) > s.maxMessages {
		clone.Messages = append([]core.Message(nil), clone.Messages[len(clone.Messages)-s.maxMessages:]...)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[session.ID] = clone
	return nil
}

// Delete removes a session. Deleting an unknown id is a no-op.
func (s *InMemoryStore) Delete(sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, sessionID)
	return nil
}
