package domain

import "time"

// Status is the lifecycle state of a quiz session.
type Status string

const (
	StatusWaiting      Status = "waiting"
	StatusActive       Status = "active"
	StatusQuestionOpen Status = "question_open"
	StatusShowingStats Status = "showing_stats"
	StatusFinished     Status = "finished"
)

// rank orders statuses so transitions can be checked for monotonicity.
// question_open and showing_stats share a rank because a play-through alternates between them.
func (s Status) rank() int {
	switch s {
	case StatusWaiting:
		return 0
	case StatusActive:
		return 1
	case StatusQuestionOpen, StatusShowingStats:
		return 2
	case StatusFinished:
		return 3
	default:
		return -1
	}
}

// CanTransition reports whether a session in status s may move to next.
func (s Status) CanTransition(next Status) bool {
	if next.rank() < 0 || s == StatusFinished {
		return false
	}
	return next.rank() >= s.rank()
}

// NoAnswer marks a timed-out answer record.
const NoAnswer = -1

// Question is one multiple choice prompt. Options are addressed by index.
type Question struct {
	Question  string   `json:"question"`
	Options   []string `json:"options"`
	Correct   int      `json:"correct"`
	TimeLimit int      `json:"timeLimit"` // seconds
}

// Quiz is a saved, reusable question set.
type Quiz struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	Questions []Question `json:"questions"`
}

// Participant is a player in a session, unique by Identity (e.g. a wallet address).
type Participant struct {
	Identity    string `json:"address"`
	DisplayName string `json:"name"`
	// ConnectionID is the transport handle the participant joined with.
	ConnectionID string `json:"-"`
}

// AnswerRecord is the single authoritative answer of a participant to one question.
type AnswerRecord struct {
	Identity    string    `json:"address"`
	OptionIndex int       `json:"answerIndex"`
	SpeedScore  int       `json:"speedScore"`
	RecordedAt  time.Time `json:"recordedAt"`
}

// TimedOut reports whether the record is a timeout rather than a chosen option.
func (a AnswerRecord) TimedOut() bool {
	return a.OptionIndex == NoAnswer
}

// ScoreRecord accumulates a participant's results over the session.
type ScoreRecord struct {
	Correct     int   `json:"correct"`
	SpeedScores []int `json:"speedScores"`
	TotalReward int64 `json:"totalTokens"`
}

// Session is a snapshot of one quiz room.
type Session struct {
	RoomCode        string                          `json:"roomCode"`
	Name            string                          `json:"name"`
	Questions       []Question                      `json:"questions"`
	Participants    []Participant                   `json:"players"`
	Answers         map[int]map[string]AnswerRecord `json:"-"`
	Scores          map[string]ScoreRecord          `json:"-"`
	Status          Status                          `json:"status"`
	CurrentQuestion int                             `json:"currentQuestion"`
	CreatedAt       time.Time                       `json:"createdAt"`
}

// HasParticipant reports whether identity has joined the session.
func (s Session) HasParticipant(identity string) bool {
	for _, p := range s.Participants {
		if p.Identity == identity {
			return true
		}
	}
	return false
}

// OptionCount is the number of answers for one option.
type OptionCount struct {
	Option int `json:"option"`
	Count  int `json:"count"`
}

// QuestionStats summarizes the answers to one question.
type QuestionStats struct {
	QuestionIndex int           `json:"questionIndex"`
	Distribution  []OptionCount `json:"distribution"`
	CorrectCount  int           `json:"correctCount"`
	// TotalAnswered counts answers that selected an option, so it always equals the distribution sum.
	TotalAnswered int `json:"totalAnswered"`
	TimedOut      int `json:"timedOut"`
	TotalPlayers  int `json:"totalPlayers"`
	CorrectIndex  int `json:"correctIndex"`
}

// ScoreEntry is the public view of one participant's score.
type ScoreEntry struct {
	Identity    string `json:"address"`
	DisplayName string `json:"name"`
	Correct     int    `json:"correct"`
	SpeedScores []int  `json:"speedScores"`
	TotalReward int64  `json:"totalTokens"`
}

// Scoreboard is the scores snapshot broadcast to a room.
type Scoreboard struct {
	Scores      map[string]ScoreEntry `json:"scores"`
	Leaderboard []ScoreEntry          `json:"leaderboard"`
}
