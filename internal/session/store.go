// Package session keeps authenticated user state in memory for the
// process lifetime. Nothing here is persisted; losing the process
// simply sends users back through the OAuth flow.
package session

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/upstats/earnings-backend/internal/models"
)

const CookieName = "earnings_session"

type Store struct {
	mu       sync.RWMutex
	sessions map[string]*models.Session
}

func NewStore() *Store {
	return &Store{sessions: make(map[string]*models.Session)}
}

// Create registers a new session and returns it with a fresh id.
func (s *Store) Create(sess models.Session) *models.Session {
	sess.ID = uuid.New().String()
	sess.CreatedAt = time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()
	stored := sess
	s.sessions[stored.ID] = &stored
	return &stored
}

// Get returns the session for id, or nil.
func (s *Store) Get(id string) *models.Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sessions[id]
}

// Update replaces the stored session under its existing id.
func (s *Store) Update(sess *models.Session) {
	if sess == nil || sess.ID == "" {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *sess
	s.sessions[copied.ID] = &copied
}

// Delete drops the session, ending the login.
func (s *Store) Delete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
}
