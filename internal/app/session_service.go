package app

import (
	"context"
	"fmt"

	"github.com/XianPaz/quizchain/internal/domain"
)

// SessionRepository abstracts how live sessions are held (in-memory, Redis-marked, etc).
type SessionRepository interface {
	// Create stores session unless its room code is already live, in which case it returns domain.ErrRoomCodeTaken.
	Create(session *Session) error
	Get(roomCode string) (*Session, bool)
	Delete(roomCode string)
	// MarkStatus records a status change for observers outside the process.
	MarkStatus(roomCode string, status domain.Status)
}

// QuizRepository loads saved question sets (from cache/backing store).
type QuizRepository interface {
	GetQuiz(ctx context.Context, quizID string) (domain.Quiz, error)
}

// SessionService is the session store: the sole owner of session state.
// Every lookup of an unknown room code returns domain.ErrRoomNotFound.
type SessionService struct {
	sessions SessionRepository
	quizzes  QuizRepository
	newSess  func(roomCode, name string, questions []domain.Question) *Session
}

// NewSessionService wires the store. quizzes may be nil when saved quizzes are not supported.
func NewSessionService(sessions SessionRepository, quizzes QuizRepository) *SessionService {
	return &SessionService{sessions: sessions, quizzes: quizzes, newSess: NewSession}
}

// WithSessionFactory overrides how sessions are constructed; tests use it to inject a clock.
func (s *SessionService) WithSessionFactory(factory func(roomCode, name string, questions []domain.Question) *Session) *SessionService {
	s.newSess = factory
	return s
}

// CreateSession validates and registers a new session in the waiting state.
func (s *SessionService) CreateSession(roomCode, name string, questions []domain.Question) (domain.Session, error) {
	if err := domain.ValidateRoomCode(roomCode); err != nil {
		return domain.Session{}, err
	}
	if err := domain.ValidateQuestions(questions); err != nil {
		return domain.Session{}, err
	}
	session := s.newSess(roomCode, name, questions)
	if err := s.sessions.Create(session); err != nil {
		return domain.Session{}, err
	}
	return session.Snapshot(), nil
}

// CreateSessionFromQuiz creates a session from a saved question set.
func (s *SessionService) CreateSessionFromQuiz(ctx context.Context, roomCode, name, quizID string) (domain.Session, error) {
	if s.quizzes == nil {
		return domain.Session{}, domain.ErrQuizNotFound
	}
	quiz, err := s.quizzes.GetQuiz(ctx, quizID)
	if err != nil {
		return domain.Session{}, err
	}
	if name == "" {
		name = quiz.Name
	}
	return s.CreateSession(roomCode, name, quiz.Questions)
}

// GetSession returns a snapshot of the session.
func (s *SessionService) GetSession(roomCode string) (domain.Session, error) {
	session, err := s.lookup(roomCode)
	if err != nil {
		return domain.Session{}, err
	}
	return session.Snapshot(), nil
}

// LookupSession is GetSession for joiners: finished sessions report domain.ErrRoomExpired.
func (s *SessionService) LookupSession(roomCode string) (domain.Session, error) {
	snap, err := s.GetSession(roomCode)
	if err != nil {
		return domain.Session{}, err
	}
	if snap.Status == domain.StatusFinished {
		return snap, domain.ErrRoomExpired
	}
	return snap, nil
}

// AddParticipant joins p to the session. Re-joining with a known identity is a no-op
// and the returned flag is false.
func (s *SessionService) AddParticipant(roomCode string, p domain.Participant) (domain.Session, bool, error) {
	session, err := s.lookup(roomCode)
	if err != nil {
		return domain.Session{}, false, err
	}
	snap, joined := session.join(p)
	return snap, joined, nil
}

// RecordAnswer stores the first answer of identity to questionIndex. Later attempts return the
// unchanged session with recorded=false.
func (s *SessionService) RecordAnswer(roomCode string, questionIndex int, identity string, option, speedScore int) (domain.Session, bool, error) {
	session, err := s.lookup(roomCode)
	if err != nil {
		return domain.Session{}, false, err
	}
	return session.recordAnswer(questionIndex, identity, option, domain.ClampSpeedScore(speedScore))
}

// AllAnswered reports whether every current participant has an answer for questionIndex.
func (s *SessionService) AllAnswered(roomCode string, questionIndex int) (bool, error) {
	session, err := s.lookup(roomCode)
	if err != nil {
		return false, err
	}
	return session.allAnswered(questionIndex), nil
}

// ComputeQuestionScores credits correct answers for questionIndex once per session.
// It reports whether this call did the scoring.
func (s *SessionService) ComputeQuestionScores(roomCode string, questionIndex int) (bool, error) {
	session, err := s.lookup(roomCode)
	if err != nil {
		return false, err
	}
	return session.computeQuestionScores(questionIndex)
}

// ComputeFinalRewards sets every participant's total reward from their score record.
func (s *SessionService) ComputeFinalRewards(roomCode string) (domain.Session, error) {
	session, err := s.lookup(roomCode)
	if err != nil {
		return domain.Session{}, err
	}
	return session.computeFinalRewards(), nil
}

// ComputeQuestionStats returns the answer distribution for questionIndex.
func (s *SessionService) ComputeQuestionStats(roomCode string, questionIndex int) (domain.QuestionStats, error) {
	session, err := s.lookup(roomCode)
	if err != nil {
		return domain.QuestionStats{}, err
	}
	return session.questionStats(questionIndex)
}

// Scoreboard returns the current scores keyed by identity and ranked.
func (s *SessionService) Scoreboard(roomCode string) (domain.Scoreboard, error) {
	session, err := s.lookup(roomCode)
	if err != nil {
		return domain.Scoreboard{}, err
	}
	return session.scoreboard(), nil
}

// SetStatus moves the session to status. Statuses never move backwards and finished is terminal.
func (s *SessionService) SetStatus(roomCode string, status domain.Status) (domain.Session, error) {
	session, err := s.lookup(roomCode)
	if err != nil {
		return domain.Session{}, err
	}
	snap, err := session.setStatus(status)
	if err != nil {
		return domain.Session{}, err
	}
	s.sessions.MarkStatus(roomCode, snap.Status)
	return snap, nil
}

// SetCurrentQuestion opens questionIndex, moving the session to question_open.
func (s *SessionService) SetCurrentQuestion(roomCode string, questionIndex int) (domain.Session, error) {
	session, err := s.lookup(roomCode)
	if err != nil {
		return domain.Session{}, err
	}
	snap, err := session.setCurrentQuestion(questionIndex)
	if err != nil {
		return domain.Session{}, err
	}
	s.sessions.MarkStatus(roomCode, snap.Status)
	return snap, nil
}

// DeleteSession drops the session; unknown codes are ignored.
func (s *SessionService) DeleteSession(roomCode string) {
	s.sessions.Delete(roomCode)
}

func (s *SessionService) lookup(roomCode string) (*Session, error) {
	session, ok := s.sessions.Get(roomCode)
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrRoomNotFound, roomCode)
	}
	return session, nil
}
