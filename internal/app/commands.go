package app

import "github.com/XianPaz/quizchain/internal/domain"

// Role is the part a connection plays in a room.
type Role string

const (
	RoleHost        Role = "host"
	RoleParticipant Role = "student"
)

// Command is one inbound host or participant action. Each concrete type maps to one protocol message.
type Command interface {
	Room() string
	Name() string
}

// Join subscribes the connection to a room; participants also register with the session.
type Join struct {
	RoomCode    string
	Role        Role
	Participant *domain.Participant
}

// HostStart moves a waiting session to active.
type HostStart struct{ RoomCode string }

// HostOpenQuestion opens a question for answers.
type HostOpenQuestion struct {
	RoomCode      string
	QuestionIndex int
}

// ParticipantAnswer submits a choice. SpeedScore wins over TimeRemaining when both are set.
type ParticipantAnswer struct {
	RoomCode      string
	Identity      string
	QuestionIndex int
	OptionIndex   int
	SpeedScore    *int
	TimeRemaining *float64
}

// ParticipantTimeout records that the participant's countdown ran out.
type ParticipantTimeout struct {
	RoomCode      string
	Identity      string
	QuestionIndex int
}

// HostShowStats closes a question (forcing scoring if needed) and publishes its stats.
type HostShowStats struct {
	RoomCode      string
	QuestionIndex int
}

// HostEndQuiz finishes the session and publishes final rewards.
type HostEndQuiz struct{ RoomCode string }

// HostEndWithoutDistribute cancels the session without settling rewards and deletes it.
type HostEndWithoutDistribute struct{ RoomCode string }

// HostDistribute hands final rewards to the settlement sink.
type HostDistribute struct{ RoomCode string }

func (c Join) Room() string                     { return c.RoomCode }
func (c HostStart) Room() string                { return c.RoomCode }
func (c HostOpenQuestion) Room() string         { return c.RoomCode }
func (c ParticipantAnswer) Room() string        { return c.RoomCode }
func (c ParticipantTimeout) Room() string       { return c.RoomCode }
func (c HostShowStats) Room() string            { return c.RoomCode }
func (c HostEndQuiz) Room() string              { return c.RoomCode }
func (c HostEndWithoutDistribute) Room() string { return c.RoomCode }
func (c HostDistribute) Room() string           { return c.RoomCode }

func (Join) Name() string                     { return "join_room" }
func (HostStart) Name() string                { return "host_start_quiz" }
func (HostOpenQuestion) Name() string         { return "host_open_question" }
func (ParticipantAnswer) Name() string        { return "student_answer" }
func (ParticipantTimeout) Name() string       { return "student_timeout" }
func (HostShowStats) Name() string            { return "host_show_stats" }
func (HostEndQuiz) Name() string              { return "host_end_quiz" }
func (HostEndWithoutDistribute) Name() string { return "host_end_without_distribute" }
func (HostDistribute) Name() string           { return "host_distribute" }
