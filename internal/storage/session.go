// Package storage provides in-memory storage for live play sessions.
package storage

import (
	"sync"

	"github.com/lawyerjames/KanaLearning/internal/domain/entities"
)

// SessionStorage keeps live sessions by ID.
type SessionStorage struct {
	mu       sync.RWMutex
	sessions map[string]*entities.Session
}

// NewSessionStorage creates an empty SessionStorage.
func NewSessionStorage() *SessionStorage {
	return &SessionStorage{
		sessions: make(map[string]*entities.Session),
	}
}

// Store saves a session under its ID.
func (s *SessionStorage) Store(sess *entities.Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sess.ID] = sess
}

// Get retrieves a session by ID, or nil.
func (s *SessionStorage) Get(id string) *entities.Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sessions[id]
}

// Delete removes a session by ID.
func (s *SessionStorage) Delete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
}
