package redis

import (
	"context"
	"sync"
	"time"

	"github.com/XianPaz/quizchain/internal/app"
	"github.com/XianPaz/quizchain/internal/domain"
	"github.com/redis/go-redis/v9"
)

// SessionStore is a Redis-aware implementation of app.SessionRepository.
// Sessions stay authoritative in the local map; Redis carries a liveness marker per room
// (hash with name and status, expiring after ttl) so other services can see which rooms are live.
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

func (s *SessionStore) Create(session *app.Session) error {
	code := session.RoomCode()

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[code]; ok {
		return domain.ErrRoomCodeTaken
	}
	s.sessions[code] = session

	snap := session.Snapshot()
	ctx := context.Background()
	pipe := s.client.TxPipeline()
	pipe.HSet(ctx, s.key(code), "name", snap.Name, "status", string(snap.Status), "questions", len(snap.Questions))
	if s.ttl > 0 {
		pipe.Expire(ctx, s.key(code), s.ttl)
	}
	// best-effort marker
	_, _ = pipe.Exec(ctx)
	return nil
}

func (s *SessionStore) Get(roomCode string) (*app.Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessions[roomCode]
	return session, ok
}

func (s *SessionStore) Delete(roomCode string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[roomCode]; !ok {
		return
	}
	delete(s.sessions, roomCode)
	_ = s.client.Del(context.Background(), s.key(roomCode)).Err()
}

// MarkStatus mirrors the status into the marker and refreshes its expiry.
func (s *SessionStore) MarkStatus(roomCode string, status domain.Status) {
	ctx := context.Background()
	pipe := s.client.TxPipeline()
	pipe.HSet(ctx, s.key(roomCode), "status", string(status))
	if s.ttl > 0 {
		pipe.Expire(ctx, s.key(roomCode), s.ttl)
	}
	_, _ = pipe.Exec(ctx)
}

func (s *SessionStore) key(roomCode string) string {
	return "quiz:session:" + roomCode
}
