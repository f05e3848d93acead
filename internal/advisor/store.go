package advisor

import (
	"crypto/rand"
	"fmt"
	"sync"
	"time"
)

// SessionStore persists conversation sessions between turns.
type SessionStore interface {
	// GetOrCreate returns the student's active session, creating one when
	// none exists or the last one was ended.
	GetOrCreate(userID string) (*Session, error)
	Get(id string) (*Session, error)
	// Save writes back the session's context and history after a turn.
	Save(sess *Session) error
	End(id string) error
}

// MemoryStore is an in-memory SessionStore.
type MemoryStore struct {
	sessions map[string]*Session
	mu       sync.RWMutex
}

// NewMemoryStore creates an empty in-memory session store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[string]*Session)}
}

func (s *MemoryStore) GetOrCreate(userID string) (*Session, error) {
	if userID == "" {
		return nil, fmt.Errorf("user_id is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, sess := range s.sessions {
		if sess.UserID == userID && sess.EndedAt == nil {
			return sess, nil
		}
	}

	now := time.Now()
	sess := &Session{
		ID:        generateID(),
		UserID:    userID,
		StartedAt: now,
		UpdatedAt: now,
	}
	s.sessions[sess.ID] = sess
	return sess, nil
}

func (s *MemoryStore) Get(id string) (*Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, ok := s.sessions[id]
	if !ok {
		return nil, fmt.Errorf("session not found: %s", id)
	}
	return sess, nil
}

func (s *MemoryStore) Save(sess *Session) error {
	if sess == nil || sess.ID == "" {
		return fmt.Errorf("session id is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	sess.UpdatedAt = time.Now()
	s.sessions[sess.ID] = sess
	return nil
}

func (s *MemoryStore) End(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok {
		return fmt.Errorf("session not found: %s", id)
	}
	now := time.Now()
	sess.EndedAt = &now
	return nil
}

func generateID() string {
	b := make([]byte, 16)
	rand.Read(b)
	return fmt.Sprintf("%x", b)
}
