package wizard

import (
	"context"
	"sync"
)

// MemorySessionStore keeps sessions in a mutex-guarded map. This is the
// default backend: sessions deliberately do not survive a restart, since
// no partial appointment is ever committed.
type MemorySessionStore struct {
	mu       sync.RWMutex
	sessions map[int64]Session
}

// NewMemorySessionStore creates an empty in-memory session store.
func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{sessions: make(map[int64]Session)}
}

func (s *MemorySessionStore) Load(_ context.Context, userID int64) (*Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, ok := s.sessions[userID]
	if !ok {
		return nil, nil
	}
	copied := sess
	return &copied, nil
}

func (s *MemorySessionStore) Save(_ context.Context, userID int64, sess *Session) error {
	if sess == nil {
		return s.Clear(context.Background(), userID)
	}
	s.mu.Lock()
	s.sessions[userID] = *sess
	s.mu.Unlock()
	return nil
}

func (s *MemorySessionStore) Clear(_ context.Context, userID int64) error {
	s.mu.Lock()
	delete(s.sessions, userID)
	s.mu.Unlock()
	return nil
}
