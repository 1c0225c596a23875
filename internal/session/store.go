// Package session keeps signed-in sessions in memory and signs the cookie
// tokens that point at them. Sessions do not survive a restart.
package session

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"sync"
	"time"

	"github.com/factshield/factshield/internal/domain"
	"github.com/factshield/factshield/internal/logger"
)

const idBytes = 32

type Store struct {
	mu       sync.RWMutex
	sessions map[string]domain.Session
	ttl      time.Duration
	now      func() time.Time
}

func NewStore(ttl time.Duration) *Store {
	return &Store{
		sessions: make(map[string]domain.Session),
		ttl:      ttl,
		now:      time.Now,
	}
}

// Create opens a session for user under a fresh 256-bit random id.
func (s *Store) Create(user domain.User) (domain.Session, error) {
	buf := make([]byte, idBytes)
	if _, err := rand.Read(buf); err != nil {
		return domain.Session{}, fmt.Errorf("failed to generate session id: %w", err)
	}

	now := s.now().UTC()
	sess := domain.Session{
		Id:                 hex.EncodeToString(buf),
		UserId:             user.Id,
		Username:           user.Username,
		MustChangePassword: user.MustChangePassword,
		CreatedAt:          now,
		ExpiresAt:          now.Add(s.ttl),
	}

	s.mu.Lock()
	s.sessions[sess.Id] = sess
	s.mu.Unlock()
	return sess, nil
}

// Get returns a live session. Expired sessions are dropped on access.
func (s *Store) Get(id string) (domain.Session, bool) {
	s.mu.RLock()
	sess, ok := s.sessions[id]
	s.mu.RUnlock()
	if !ok {
		return domain.Session{}, false
	}
	if sess.Expired(s.now()) {
		s.Delete(id)
		return domain.Session{}, false
	}
	return sess, true
}

// Delete is idempotent.
func (s *Store) Delete(id string) {
	s.mu.Lock()
	delete(s.sessions, id)
	s.mu.Unlock()
}

// SetMustChangePassword updates every session of the user.
func (s *Store) SetMustChangePassword(userId domain.UserId, v bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, sess := range s.sessions {
		if sess.UserId == userId {
			sess.MustChangePassword = v
			s.sessions[id] = sess
		}
	}
}

// DeleteUserSessions drops every session of the user except keep.
func (s *Store) DeleteUserSessions(userId domain.UserId, keep string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, sess := range s.sessions {
		if sess.UserId == userId && id != keep {
			delete(s.sessions, id)
		}
	}
}

// Cleanup removes expired sessions and reports how many were dropped.
func (s *Store) Cleanup() int {
	now := s.now()
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for id, sess := range s.sessions {
		if sess.Expired(now) {
			delete(s.sessions, id)
			n++
		}
	}
	return n
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// StartBackgroundCleanup sweeps expired sessions until ctx is cancelled.
func (s *Store) StartBackgroundCleanup(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	logger.Log.Info("started session cleanup", "interval", interval)

	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if n := s.Cleanup(); n > 0 {
					logger.Log.Debug("expired sessions removed", "count", n)
				}
			case <-ctx.Done():
				logger.Log.Info("session cleanup shutting down")
				return
			}
		}
	}()
}
