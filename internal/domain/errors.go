package domain

import "errors"

var (
	// ErrRoomCodeTaken is returned when creating a session with a code already in use.
	ErrRoomCodeTaken = errors.New("room code already in use")
	// ErrRoomNotFound is returned for any operation against an unknown room code.
	ErrRoomNotFound = errors.New("no active quiz found with that code")
	// ErrRoomExpired is returned when joining a session that has already finished.
	ErrRoomExpired = errors.New("this quiz has already ended")
	// ErrIdentityRequired is returned when a student joins without a player identity.
	ErrIdentityRequired = errors.New("player identity is required to join")
	// ErrUnknownRole is returned for a join whose role is neither host nor student.
	ErrUnknownRole = errors.New("unknown role")
	// ErrInvalidRoomCode indicates a room code that is empty or not alphanumeric.
	ErrInvalidRoomCode = errors.New("invalid room code")
	// ErrInvalidQuestionSet indicates a question list that fails creation-time validation.
	ErrInvalidQuestionSet = errors.New("invalid question set")
	// ErrQuizNotFound indicates saved quiz content could not be loaded.
	ErrQuizNotFound = errors.New("quiz not found")
	// ErrInvalidTransition is returned when a status change would move a session backwards.
	ErrInvalidTransition = errors.New("invalid status transition")
	// ErrQuestionOutOfRange indicates a question index outside the session's question list.
	ErrQuestionOutOfRange = errors.New("question index out of range")
	// ErrSettlementFailed wraps failures reported by the reward settlement sink.
	ErrSettlementFailed = errors.New("reward settlement failed")
)

// ErrParticipantNotFound is returned when an identity acts in a session it never joined.
var ErrParticipantNotFound = errors.New("participant not found in session")
