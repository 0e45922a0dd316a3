package session

import (
	"context"
	"sync"
	"time"

	"github.com/matzehuels/crateview/pkg/navigator"
)

// MemoryStore keeps sessions in process memory.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	ttl      time.Duration
	factory  func() *navigator.Navigator
	now      func() time.Time
}

// NewMemoryStore creates a store whose sessions expire after ttl of
// inactivity. factory builds the navigator of each new session.
func NewMemoryStore(ttl time.Duration, factory func() *navigator.Navigator) *MemoryStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &MemoryStore{
		sessions: make(map[string]*Session),
		ttl:      ttl,
		factory:  factory,
		now:      time.Now,
	}
}

func (s *MemoryStore) Create(ctx context.Context) (*Session, error) {
	now := s.now()
	sess := &Session{
		ID:        GenerateID(),
		Navigator: s.factory(),
		CreatedAt: now,
		ExpiresAt: now.Add(s.ttl),
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sess.ID] = sess
	return sess, nil
}

func (s *MemoryStore) Get(ctx context.Context, sessionID string) (*Session, error) {
	if !ValidID(sessionID) {
		return nil, ErrInvalidID
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[sessionID]
	if !ok {
		return nil, nil
	}
	now := s.now()
	if sess.isExpiredAt(now) {
		s.remove(sess)
		return nil, nil
	}
	sess.ExpiresAt = now.Add(s.ttl)
	return sess, nil
}

func (s *MemoryStore) Delete(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sess, ok := s.sessions[sessionID]; ok {
		s.remove(sess)
	}
	return nil
}

func (s *MemoryStore) Cleanup(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	removed := 0
	for _, sess := range s.sessions {
		if sess.isExpiredAt(now) {
			s.remove(sess)
			removed++
		}
	}
	return removed, nil
}

// Len returns the number of stored sessions, expired or not.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// Run calls Cleanup every interval until ctx is done.
func (s *MemoryStore) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_, _ = s.Cleanup(ctx)
		}
	}
}

// remove drops sess and releases its navigator. s.mu must be held.
func (s *MemoryStore) remove(sess *Session) {
	delete(s.sessions, sess.ID)
	if sess.Navigator != nil {
		sess.Navigator.Reset()
	}
}

var _ Store = (*MemoryStore)(nil)
