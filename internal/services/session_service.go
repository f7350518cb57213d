package services

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/patrickmn/go-cache"

	"toolhost/internal/memory"
)

// ErrSessionNotFound is returned when a session id is unknown or has expired.
var ErrSessionNotFound = errors.New("session not found")

// sessionEntry pairs a session with the lock that serializes tool calls on it.
type sessionEntry struct {
	session *memory.Session
	mu      sync.Mutex
}

// SessionService keeps working-memory sessions in memory with an idle TTL.
// Every access refreshes the TTL; expired sessions are dropped by DeleteExpired.
type SessionService struct {
	cache *cache.Cache
	ttl   time.Duration
}

// NewSessionService creates a session store. Expired entries are swept by the
// session sweep job rather than go-cache's own janitor.
func NewSessionService(idleTTL time.Duration) *SessionService {
	if idleTTL <= 0 {
		idleTTL = 30 * time.Minute
	}
	c := cache.New(idleTTL, 0)

	c.OnEvicted(func(key string, value interface{}) {
		if entry, ok := value.(*sessionEntry); ok {
			log.Printf("🧹 [SESSION] Evicted session %s (user=%s)", key, entry.session.UserID)
		}
	})

	return &SessionService{cache: c, ttl: idleTTL}
}

// Create starts a new session for the user. A blank id gets a ULID.
func (s *SessionService) Create(id, userID, orgID string) (*memory.Session, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		id = ulid.Make().String()
	}

	entry := &sessionEntry{session: memory.NewSession(id, userID, orgID)}
	if err := s.cache.Add(id, entry, cache.DefaultExpiration); err != nil {
		return nil, fmt.Errorf("session %s already exists", id)
	}

	log.Printf("🆕 [SESSION] Created session %s for user %s", id, userID)
	return entry.session, nil
}

func (s *SessionService) entry(id string) (*sessionEntry, error) {
	value, found := s.cache.Get(id)
	if !found {
		return nil, ErrSessionNotFound
	}
	entry, ok := value.(*sessionEntry)
	if !ok {
		return nil, ErrSessionNotFound
	}
	// Touch: go-cache does not slide expirations on read.
	s.cache.Set(id, entry, cache.DefaultExpiration)
	return entry, nil
}

// Acquire locks the session for exclusive use and returns a release func.
// The caller must call release exactly once.
func (s *SessionService) Acquire(id string) (*memory.Session, func(), error) {
	entry, err := s.entry(id)
	if err != nil {
		return nil, nil, err
	}
	entry.mu.Lock()
	return entry.session, entry.mu.Unlock, nil
}

// Snapshot runs fn while holding the session lock.
func (s *SessionService) Snapshot(id string, fn func(*memory.Session) error) error {
	session, release, err := s.Acquire(id)
	if err != nil {
		return err
	}
	defer release()
	return fn(session)
}

// SwitchBranch moves the session to another fact branch and returns the
// branch now current.
func (s *SessionService) SwitchBranch(id, branch string) (string, error) {
	session, release, err := s.Acquire(id)
	if err != nil {
		return "", err
	}
	defer release()

	if err := memory.SwitchBranch(session, branch); err != nil {
		return "", err
	}
	log.Printf("🔀 [SESSION] Session %s switched to branch %s", id, session.CurrentBranch)
	return session.CurrentBranch, nil
}

// Delete removes a session.
func (s *SessionService) Delete(id string) error {
	if _, found := s.cache.Get(id); !found {
		return ErrSessionNotFound
	}
	s.cache.Delete(id)
	log.Printf("🗑️  [SESSION] Deleted session %s", id)
	return nil
}

// DeleteExpired drops sessions past their idle TTL and returns how many went.
func (s *SessionService) DeleteExpired() int {
	before := s.cache.ItemCount()
	s.cache.DeleteExpired()
	return before - s.cache.ItemCount()
}

// Count returns the number of sessions held, including ones not yet swept.
func (s *SessionService) Count() int {
	return s.cache.ItemCount()
}

// IdleTTL returns the configured idle timeout.
func (s *SessionService) IdleTTL() time.Duration {
	return s.ttl
}
