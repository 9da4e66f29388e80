package session

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/formsink/formsink/internal/dashboard/domain"
)

// Ensure Store implements domain.SessionStore
var _ domain.SessionStore = (*Store)(nil)

type entry struct {
	configID  string
	expiresAt time.Time
}

// Store is an in-memory session store keyed by opaque uuid tokens. Sessions
// expire after the configured TTL; expired entries are pruned lazily on
// access.
type Store struct {
	ttl time.Duration
	now func() time.Time

	mu       sync.Mutex
	sessions map[string]entry
}

func New(ttl time.Duration) *Store {
	return &Store{ttl: ttl, now: time.Now, sessions: make(map[string]entry)}
}

// Create registers a new session for a config id and returns its token.
func (s *Store) Create(configID string) string {
	token := uuid.NewString()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[token] = entry{configID: configID, expiresAt: s.now().Add(s.ttl)}
	return token
}

// Get resolves a token to its config id. Expired sessions are removed and
// reported as absent.
func (s *Store) Get(token string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.sessions[token]
	if !ok {
		return "", false
	}
	if s.now().After(e.expiresAt) {
		delete(s.sessions, token)
		return "", false
	}
	return e.configID, true
}

// Delete drops a session.
func (s *Store) Delete(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, token)
}
