package redis

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"timed-quiz-service/internal/app"
	"timed-quiz-service/internal/domain"
)

// SessionStore is a Redis-aware implementation of app.SessionRepository.
// Notes:
//   - Session loops live in this process, so the sessions themselves stay in a local map.
//   - Redis holds a liveness marker per owner key (value: session id). A key claimed by another
//     instance is refused with domain.ErrSessionExists.
type SessionStore struct {
	client   *redis.Client
	ttl      time.Duration
	mu       sync.RWMutex
	sessions map[string]*app.Session
}

func NewSessionStore(client *redis.Client, ttl time.Duration) *SessionStore {
	return &SessionStore{
		client:   client,
		ttl:      ttl,
		sessions: make(map[string]*app.Session),
	}
}

func (s *SessionStore) GetOrCreate(key string, create func() (*app.Session, error)) (*app.Session, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if session, ok := s.sessions[key]; ok {
		s.touch(key, session)
		return session, true, nil
	}
	ctx := context.Background()
	if id, ok := s.Owner(ctx, key); ok {
		return nil, false, fmt.Errorf("%w: held by session %s", domain.ErrSessionExists, id)
	}
	session, err := create()
	if err != nil {
		return nil, false, err
	}
	claimed, err := s.client.SetNX(ctx, s.key(key), session.ID, s.ttl).Result()
	if err == nil && !claimed {
		return nil, false, domain.ErrSessionExists
	}
	// Redis being unreachable leaves the session local-only.
	s.sessions[key] = session
	return session, false, nil
}

func (s *SessionStore) Get(key string) (*app.Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessions[key]
	return session, ok
}

func (s *SessionStore) Delete(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[key]; !ok {
		return
	}
	delete(s.sessions, key)
	_ = s.client.Del(context.Background(), s.key(key)).Err()
}

// Owner returns the session id registered for key by any instance.
func (s *SessionStore) Owner(ctx context.Context, key string) (string, bool) {
	id, err := s.client.Get(ctx, s.key(key)).Result()
	if err != nil {
		return "", false
	}
	return id, true
}

// touch refreshes the best-effort liveness marker.
func (s *SessionStore) touch(key string, session *app.Session) {
	_ = s.client.Set(context.Background(), s.key(key), session.ID, s.ttl).Err()
}

func (s *SessionStore) key(key string) string {
	return "quiz:session:" + key
}
