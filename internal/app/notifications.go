package app

import (
	"time"

	"github.com/XianPaz/quizchain/internal/domain"
)

// NotificationType names an outbound message.
type NotificationType string

const (
	NotifyParticipantJoined  NotificationType = "player_joined"
	NotifyQuizStarted        NotificationType = "quiz_started"
	NotifyQuestionOpened     NotificationType = "question_opened"
	NotifyAnswerAcknowledged NotificationType = "answer_ack"
	NotifyAnswerCount        NotificationType = "answer_count"
	NotifyAllAnswered        NotificationType = "all_answered"
	NotifyQuestionStats      NotificationType = "question_stats"
	NotifyQuizEnded          NotificationType = "quiz_ended"
	NotifySessionCancelled   NotificationType = "session_cancelled"
	NotifyRewardsDistributed NotificationType = "rewards_distributed"
	NotifyError              NotificationType = "error"
)

// Notification is an outbound message for a room or a single connection.
type Notification struct {
	Type    NotificationType `json:"type"`
	Payload any              `json:"payload,omitempty"`
}

type ParticipantsPayload struct {
	Players []domain.Participant `json:"players"`
}

type QuizStartedPayload struct {
	TotalQuestions int `json:"totalQuestions"`
}

// OpenQuestion is the participant-facing view of a question; the correct index is withheld.
type OpenQuestion struct {
	Question  string   `json:"question"`
	Options   []string `json:"options"`
	TimeLimit int      `json:"timeLimit"`
}

type QuestionOpenedPayload struct {
	QuestionIndex  int          `json:"questionIndex"`
	TotalQuestions int          `json:"totalQuestions"`
	Question       OpenQuestion `json:"question"`
	OpenedAt       time.Time    `json:"openedAt"`
}

type AnswerAckPayload struct {
	QuestionIndex int `json:"questionIndex"`
	AnswerIndex   int `json:"answerIndex"`
}

type AnswerCountPayload struct {
	QuestionIndex int `json:"questionIndex"`
	Answered      int `json:"answered"`
	Total         int `json:"total"`
}

type AllAnsweredPayload struct {
	QuestionIndex int `json:"questionIndex"`
}

type QuestionStatsPayload struct {
	domain.QuestionStats
	domain.Scoreboard
}

type RewardsDistributedPayload struct {
	domain.Scoreboard
	TxRef string `json:"txRef"`
}

type ErrorPayload struct {
	Message string `json:"message"`
}

func errorNotification(err error) Notification {
	return Notification{Type: NotifyError, Payload: ErrorPayload{Message: err.Error()}}
}
