package session

import (
	"fmt"
	"sync"

	"go.uber.org/zap"

	custom_error "toolroom/pkg/errors"
	"toolroom/pkg/models"
	"toolroom/pkg/roles"
)

// Store holds the authenticated actor for the running process and mirrors it
// into a durable Cache.
type Store struct {
	mu      sync.RWMutex
	cache   Cache
	log     *zap.Logger
	current *models.Session
}

func NewStore(cache Cache, log *zap.Logger) *Store {
	if log == nil {
		log = zap.NewNop()
	}
	return &Store{cache: cache, log: log}
}

// Login replaces any previous session.
func (s *Store) Login(role roles.Role, token string, userID int, fullName string) error {
	if !role.IsValid() {
		return custom_error.NewValidationError("role", fmt.Sprintf("invalid role: %q", role))
	}
	if token == "" {
		return custom_error.NewValidationError("session_id", "is empty")
	}

	sess := models.Session{SessionID: token, Role: role, UserID: userID, FullName: fullName}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.cache.Save(sess); err != nil {
		return fmt.Errorf("persist session: %w", err)
	}
	s.current = &sess
	s.log.Debug("session stored", zap.String("role", role.String()), zap.Int("user_id", userID))
	return nil
}

func (s *Store) Logout() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.current = nil
	if err := s.cache.Clear(); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}

// Restore loads the cached session. A cache entry lacking a token or a known
// role leaves the store unauthenticated.
func (s *Store) Restore() error {
	cached, err := s.cache.Load()
	if err != nil {
		return fmt.Errorf("restore session: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.current = nil
	if cached == nil || cached.SessionID == "" || !cached.Role.IsValid() {
		return nil
	}
	s.current = cached
	return nil
}

// Invalidate drops the session after the backend refused it.
func (s *Store) Invalidate() {
	if err := s.Logout(); err != nil {
		s.log.Warn("failed to clear rejected session", zap.Error(err))
	}
}

func (s *Store) Current() (models.Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.current == nil {
		return models.Session{}, false
	}
	return *s.current, true
}

func (s *Store) CurrentRole() (roles.Role, bool) {
	sess, ok := s.Current()
	return sess.Role, ok
}

func (s *Store) CurrentSessionToken() (string, bool) {
	sess, ok := s.Current()
	return sess.SessionID, ok
}

func (s *Store) IsAuthenticated() bool {
	_, ok := s.Current()
	return ok
}

// Token is read by the gateway on every authenticated call.
func (s *Store) Token() (string, bool) {
	return s.CurrentSessionToken()
}
