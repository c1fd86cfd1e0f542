package memory

import (
	"sync"

	"github.com/XianPaz/quizchain/internal/app"
	"github.com/XianPaz/quizchain/internal/domain"
)

// SessionStore is an in-memory implementation of app.SessionRepository.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*app.Session
}

func NewSessionStore() *SessionStore {
	return &SessionStore{
		sessions: make(map[string]*app.Session),
	}
}

func (s *SessionStore) Create(session *app.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[session.RoomCode()]; ok {
		return domain.ErrRoomCodeTaken
	}
	s.sessions[session.RoomCode()] = session
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
	delete(s.sessions, roomCode)
}

// MarkStatus is a no-op: the session itself is the only record.
func (s *SessionStore) MarkStatus(string, domain.Status) {}
