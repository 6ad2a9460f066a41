// Package session holds per-user interaction state between metadata
// resolution and quality selection. Sessions expire after a fixed TTL and
// are deleted explicitly on completion or cancel.
package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ytfetch/ytfetch/internal/domain"
)

// Session is one pending interaction: metadata awaiting a quality choice.
type Session struct {
	ID        string
	UserID    int64
	Ref       domain.VideoReference
	Meta      *domain.VideoMetadata
	CreatedAt time.Time
}

// Store is a TTL-bound session map keyed by user id. One user has at most
// one pending session; a new one replaces the old.
type Store struct {
	mu       sync.RWMutex
	sessions map[int64]*Session
	ttl      time.Duration
}

// NewStore creates a store whose sessions expire after ttl.
func NewStore(ttl time.Duration) *Store {
	return &Store{
		sessions: make(map[int64]*Session),
		ttl:      ttl,
	}
}

// Create registers a pending session for userID, replacing any existing one.
func (s *Store) Create(userID int64, ref domain.VideoReference, meta *domain.VideoMetadata) *Session {
	sess := &Session{
		ID:        uuid.New().String(),
		UserID:    userID,
		Ref:       ref,
		Meta:      meta,
		CreatedAt: time.Now(),
	}

	s.mu.Lock()
	s.sessions[userID] = sess
	s.mu.Unlock()
	return sess
}

// Get returns the pending session for userID, or ok=false if none exists or
// it has expired. Expired sessions are removed on access.
func (s *Store) Get(userID int64) (*Session, bool) {
	s.mu.RLock()
	sess, ok := s.sessions[userID]
	s.mu.RUnlock()

	if !ok {
		return nil, false
	}
	if time.Since(sess.CreatedAt) > s.ttl {
		s.Delete(userID)
		return nil, false
	}
	return sess, true
}

// Delete removes the pending session for userID, if any.
func (s *Store) Delete(userID int64) {
	s.mu.Lock()
	delete(s.sessions, userID)
	s.mu.Unlock()
}

// Len returns the number of live sessions, expired ones included until the
// janitor collects them.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// StartJanitor periodically evicts expired sessions until ctx is canceled.
func (s *Store) StartJanitor(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				s.evictExpired()
			case <-ctx.Done():
				return
			}
		}
	}()
}

func (s *Store) evictExpired() {
	now := time.Now()
	s.mu.Lock()
	for userID, sess := range s.sessions {
		if now.Sub(sess.CreatedAt) > s.ttl {
			delete(s.sessions, userID)
		}
	}
	s.mu.Unlock()
}
