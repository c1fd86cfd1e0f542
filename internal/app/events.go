package app

import (
	"context"
	"time"
)

// EventKind names a session lifecycle milestone published outside the process.
type EventKind string

const (
	EventQuizStarted        EventKind = "quiz_started"
	EventQuizEnded          EventKind = "quiz_ended"
	EventSessionCancelled   EventKind = "session_cancelled"
	EventRewardsDistributed EventKind = "rewards_distributed"
)

// LifecycleEvent is the message body published for each milestone.
type LifecycleEvent struct {
	Kind     EventKind        `json:"kind"`
	RoomCode string           `json:"roomCode"`
	At       time.Time        `json:"at"`
	Rewards  map[string]int64 `json:"rewards,omitempty"`
	TxRef    string           `json:"txRef,omitempty"`
}

// EventPublisher ships lifecycle events to other services.
type EventPublisher interface {
	Publish(ctx context.Context, event LifecycleEvent) error
}

// NopPublisher drops every event.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, LifecycleEvent) error { return nil }
