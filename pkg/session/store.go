package session

import (
	"encoding/json"
	"sync"
)

// Persisted storage keys. One logical set shared by every client.
const (
	keyAccessToken  = "access_token"
	keyRefreshToken = "refresh_token"
	keyRole         = "role"
	keyProfile      = "profile"
)

// Store is the single source of truth for "who is logged in and with
// what role". All mutations are atomic with respect to Current: a
// reader never observes a role without a matching token.
type Store struct {
	mu      sync.Mutex
	storage Storage
	current Session
}

// NewStore creates a Store over the given storage backend. Call
// Initialize before first use to hydrate persisted state.
func NewStore(storage Storage) *Store {
	return &Store{storage: storage}
}

// Initialize hydrates the session from persisted storage. Missing or
// unparsable required fields result in an anonymous session and the
// corrupt entries are purged; this is the normal "not logged in" case,
// never an error.
func (s *Store) Initialize() {
	s.mu.Lock()
	defer s.mu.Unlock()

	access, hasAccess := s.storage.Get(keyAccessToken)
	roleRaw, hasRole := s.storage.Get(keyRole)

	if !hasAccess || access == "" || !hasRole {
		s.purgeLocked()
		return
	}

	role := NormalizeRole(roleRaw)
	if role == "" {
		s.purgeLocked()
		return
	}

	var profile *Profile
	if raw, ok := s.storage.Get(keyProfile); ok && raw != "" {
		profile = &Profile{}
		if err := json.Unmarshal([]byte(raw), profile); err != nil {
			s.purgeLocked()
			return
		}
	}

	refresh, _ := s.storage.Get(keyRefreshToken)

	s.current = Session{
		AccessToken:  access,
		RefreshToken: refresh,
		Role:         role,
		Profile:      profile,
	}
}

// Establish persists a fully authenticated session. It trusts the
// caller to have validated the backend response; this is a pure write.
func (s *Store) Establish(access, refresh string, role Role, profile Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rawProfile, err := json.Marshal(profile)
	if err != nil {
		return err
	}

	if err := s.storage.Set(keyAccessToken, access); err != nil {
		return err
	}
	if err := s.storage.Set(keyRefreshToken, refresh); err != nil {
		return err
	}
	if err := s.storage.Set(keyRole, string(role)); err != nil {
		return err
	}
	if err := s.storage.Set(keyProfile, string(rawProfile)); err != nil {
		return err
	}

	p := profile
	s.current = Session{
		AccessToken:  access,
		RefreshToken: refresh,
		Role:         role,
		Profile:      &p,
	}
	return nil
}

// Clear resets the session to anonymous. Idempotent.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.purgeLocked()
}

// Current returns a read-only snapshot of the session.
func (s *Store) Current() Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.current
	if s.current.Profile != nil {
		p := *s.current.Profile
		snapshot.Profile = &p
	}
	return snapshot
}

func (s *Store) purgeLocked() {
	_ = s.storage.Remove(keyAccessToken)
	_ = s.storage.Remove(keyRefreshToken)
	_ = s.storage.Remove(keyRole)
	_ = s.storage.Remove(keyProfile)
	s.current = Session{}
}
