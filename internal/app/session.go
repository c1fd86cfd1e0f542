package app

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/XianPaz/quizchain/internal/domain"
)

// Session is the in-memory aggregate for one quiz room. All state is guarded by mu;
// callers only ever see deep copies.
type Session struct {
	mu     sync.RWMutex
	now    func() time.Time
	state  domain.Session
	scored map[int]struct{}
}

// NewSession is exported for infrastructure layers that need to seed sessions.
func NewSession(roomCode, name string, questions []domain.Question) *Session {
	return NewSessionWithClock(roomCode, name, questions, time.Now)
}

// NewSessionWithClock is test-only for deterministic timestamps.
func NewSessionWithClock(roomCode, name string, questions []domain.Question, now func() time.Time) *Session {
	qs := make([]domain.Question, len(questions))
	for i, q := range questions {
		q.Options = append([]string(nil), q.Options...)
		qs[i] = q
	}
	return &Session{
		now: now,
		state: domain.Session{
			RoomCode:        roomCode,
			Name:            name,
			Questions:       qs,
			Participants:    []domain.Participant{},
			Answers:         make(map[int]map[string]domain.AnswerRecord),
			Scores:          make(map[string]domain.ScoreRecord),
			Status:          domain.StatusWaiting,
			CurrentQuestion: -1,
			CreatedAt:       now(),
		},
		scored: make(map[int]struct{}),
	}
}

// RoomCode returns the immutable room code.
func (s *Session) RoomCode() string {
	return s.state.RoomCode
}

// Snapshot returns a deep copy of the session state.
func (s *Session) Snapshot() domain.Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

// Status returns the current lifecycle status.
func (s *Session) Status() domain.Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Status
}

func (s *Session) join(p domain.Participant) (domain.Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state.HasParticipant(p.Identity) {
		return s.snapshotLocked(), false
	}
	s.state.Participants = append(s.state.Participants, p)
	s.state.Scores[p.Identity] = domain.ScoreRecord{SpeedScores: []int{}}
	return s.snapshotLocked(), true
}

func (s *Session) recordAnswer(questionIndex int, identity string, option, speedScore int) (domain.Session, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkQuestionLocked(questionIndex); err != nil {
		return domain.Session{}, false, err
	}
	if !s.state.HasParticipant(identity) {
		return domain.Session{}, false, domain.ErrParticipantNotFound
	}

	answers, ok := s.state.Answers[questionIndex]
	if !ok {
		answers = make(map[string]domain.AnswerRecord)
		s.state.Answers[questionIndex] = answers
	}
	// First answer is authoritative.
	if _, exists := answers[identity]; exists {
		return s.snapshotLocked(), false, nil
	}
	answers[identity] = domain.AnswerRecord{
		Identity:    identity,
		OptionIndex: option,
		SpeedScore:  speedScore,
		RecordedAt:  s.now(),
	}
	return s.snapshotLocked(), true, nil
}

// allAnswered compares against the participant count at call time, so a late joiner
// makes a previously complete question incomplete again until they answer or time out.
func (s *Session) allAnswered(questionIndex int) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.state.Answers[questionIndex]) >= len(s.state.Participants)
}

func (s *Session) computeQuestionScores(questionIndex int) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkQuestionLocked(questionIndex); err != nil {
		return false, err
	}
	if _, done := s.scored[questionIndex]; done {
		return false, nil
	}
	s.scored[questionIndex] = struct{}{}

	correct := s.state.Questions[questionIndex].Correct
	// Walk participants rather than the answer map so speed history order is stable.
	for _, p := range s.state.Participants {
		answer, ok := s.state.Answers[questionIndex][p.Identity]
		if !ok || answer.OptionIndex != correct {
			continue
		}
		score := s.state.Scores[p.Identity]
		score.Correct++
		score.SpeedScores = append(score.SpeedScores, answer.SpeedScore)
		s.state.Scores[p.Identity] = score
	}
	return true, nil
}

func (s *Session) computeFinalRewards() domain.Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	total := len(s.state.Questions)
	for identity, score := range s.state.Scores {
		score.TotalReward = ComputeReward(score.Correct, score.SpeedScores, total)
		s.state.Scores[identity] = score
	}
	return s.snapshotLocked()
}

func (s *Session) questionStats(questionIndex int) (domain.QuestionStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if err := s.checkQuestionLocked(questionIndex); err != nil {
		return domain.QuestionStats{}, err
	}
	question := s.state.Questions[questionIndex]
	stats := domain.QuestionStats{
		QuestionIndex: questionIndex,
		Distribution:  make([]domain.OptionCount, len(question.Options)),
		TotalPlayers:  len(s.state.Participants),
		CorrectIndex:  question.Correct,
	}
	for i := range stats.Distribution {
		stats.Distribution[i].Option = i
	}
	for _, answer := range s.state.Answers[questionIndex] {
		if answer.OptionIndex < 0 || answer.OptionIndex >= len(question.Options) {
			stats.TimedOut++
			continue
		}
		stats.Distribution[answer.OptionIndex].Count++
		stats.TotalAnswered++
		if answer.OptionIndex == question.Correct {
			stats.CorrectCount++
		}
	}
	return stats, nil
}

func (s *Session) setStatus(status domain.Status) (domain.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state.Status != status && !s.state.Status.CanTransition(status) {
		return domain.Session{}, fmt.Errorf("%w: %s -> %s", domain.ErrInvalidTransition, s.state.Status, status)
	}
	s.state.Status = status
	return s.snapshotLocked(), nil
}

func (s *Session) setCurrentQuestion(questionIndex int) (domain.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkQuestionLocked(questionIndex); err != nil {
		return domain.Session{}, err
	}
	if !s.state.Status.CanTransition(domain.StatusQuestionOpen) {
		return domain.Session{}, fmt.Errorf("%w: %s -> %s", domain.ErrInvalidTransition, s.state.Status, domain.StatusQuestionOpen)
	}
	s.state.CurrentQuestion = questionIndex
	s.state.Status = domain.StatusQuestionOpen
	return s.snapshotLocked(), nil
}

func (s *Session) scoreboard() domain.Scoreboard {
	s.mu.RLock()
	defer s.mu.RUnlock()

	board := domain.Scoreboard{
		Scores:      make(map[string]domain.ScoreEntry, len(s.state.Participants)),
		Leaderboard: make([]domain.ScoreEntry, 0, len(s.state.Participants)),
	}
	for _, p := range s.state.Participants {
		score := s.state.Scores[p.Identity]
		entry := domain.ScoreEntry{
			Identity:    p.Identity,
			DisplayName: p.DisplayName,
			Correct:     score.Correct,
			SpeedScores: append([]int{}, score.SpeedScores...),
			TotalReward: score.TotalReward,
		}
		board.Scores[p.Identity] = entry
		board.Leaderboard = append(board.Leaderboard, entry)
	}

	sort.SliceStable(board.Leaderboard, func(i, j int) bool {
		a, b := board.Leaderboard[i], board.Leaderboard[j]
		if a.TotalReward != b.TotalReward {
			return a.TotalReward > b.TotalReward
		}
		if a.Correct != b.Correct {
			return a.Correct > b.Correct
		}
		return a.DisplayName < b.DisplayName
	})
	return board
}

func (s *Session) checkQuestionLocked(questionIndex int) error {
	if questionIndex < 0 || questionIndex >= len(s.state.Questions) {
		return fmt.Errorf("%w: %d", domain.ErrQuestionOutOfRange, questionIndex)
	}
	return nil
}

func (s *Session) snapshotLocked() domain.Session {
	out := s.state
	out.Questions = make([]domain.Question, len(s.state.Questions))
	for i, q := range s.state.Questions {
		q.Options = append([]string(nil), q.Options...)
		out.Questions[i] = q
	}
	out.Participants = append([]domain.Participant{}, s.state.Participants...)
	out.Answers = make(map[int]map[string]domain.AnswerRecord, len(s.state.Answers))
	for q, answers := range s.state.Answers {
		copied := make(map[string]domain.AnswerRecord, len(answers))
		for id, a := range answers {
			copied[id] = a
		}
		out.Answers[q] = copied
	}
	out.Scores = make(map[string]domain.ScoreRecord, len(s.state.Scores))
	for id, score := range s.state.Scores {
		score.SpeedScores = append([]int{}, score.SpeedScores...)
		out.Scores[id] = score
	}
	return out
}
