package revocation

import (
	"context"
	"errors"
	"sync"
	"time"
)

// MemoryStore is a per-process denylist. Each entry carries its own expiry.
type MemoryStore struct {
	mu  sync.RWMutex
	now func() time.Time
	m   map[string]time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		now: time.Now,
		m:   make(map[string]time.Time),
	}
}

func (s *MemoryStore) Revoke(_ context.Context, jti string, until time.Time) error {
	if jti == "" {
		return errors.New("revocation: empty token id")
	}

	now := s.now()
	if !until.After(now) {
		return nil
	}

	s.mu.Lock()
	s.m[jti] = until
	s.sweepLocked(now)
	s.mu.Unlock()

	return nil
}

func (s *MemoryStore) IsRevoked(_ context.Context, jti string) (bool, error) {
	now := s.now()

	s.mu.RLock()
	exp, ok := s.m[jti]
	s.mu.RUnlock()

	if !ok {
		return false, nil
	}

	if now.After(exp) {
		s.mu.Lock()
		delete(s.m, jti)
		s.mu.Unlock()
		return false, nil
	}

	return true, nil
}

func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.m)
}

// sweepLocked drops expired entries so the map is bounded by live tokens.
func (s *MemoryStore) sweepLocked(now time.Time) {
	for k, exp := range s.m {
		if now.After(exp) {
			delete(s.m, k)
		}
	}
}
