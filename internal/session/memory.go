package session

import (
	"context"
	"sync"
	"time"

	"github.com/sokowatt/sokowatt-web/internal/domain"
	"github.com/sokowatt/sokowatt-web/internal/ports"
)

type memoryEntry struct {
	sess      domain.Session
	expiresAt time.Time
}

// MemoryStore keeps sessions in process memory. Fine for a single
// instance; multi-instance deploys use the redis store.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string]memoryEntry
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string]memoryEntry)}
}

var _ ports.SessionStore = (*MemoryStore)(nil)

func (s *MemoryStore) Save(ctx context.Context, sid string, sess domain.Session, ttl time.Duration) error {
	entry := memoryEntry{sess: sess}
	if ttl > 0 {
		entry.expiresAt = time.Now().Add(ttl)
	}

	s.mu.Lock()
	s.data[sid] = entry
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Load(ctx context.Context, sid string) (*domain.Session, error) {
	s.mu.RLock()
	entry, ok := s.data[sid]
	s.mu.RUnlock()

	if !ok {
		return nil, nil
	}
	if !entry.expiresAt.IsZero() && entry.expiresAt.Before(time.Now()) {
		s.mu.Lock()
		delete(s.data, sid)
		s.mu.Unlock()
		return nil, nil
	}

	sess := entry.sess
	return &sess, nil
}

func (s *MemoryStore) Clear(ctx context.Context, sid string) error {
	s.mu.Lock()
	delete(s.data, sid)
	s.mu.Unlock()
	return nil
}
