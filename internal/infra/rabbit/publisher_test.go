package rabbit

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/XianPaz/quizchain/internal/app"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/require"
)

func TestRoutingKey(t *testing.T) {
	tests := map[app.EventKind]string{
		app.EventQuizStarted:        SessionStartRoutingKey,
		app.EventQuizEnded:          SessionEndRoutingKey,
		app.EventSessionCancelled:   SessionCancelRoutingKey,
		app.EventRewardsDistributed: SessionRewardsRoutingKey,
	}
	for kind, want := range tests {
		got, err := routingKey(kind)
		require.NoError(t, err)
		require.Equal(t, want, got)
	}

	_, err := routingKey("player_joined")
	require.Error(t, err)
}

func TestEncodeEvent(t *testing.T) {
	at := time.Date(2026, 10, 15, 9, 30, 0, 0, time.UTC)
	event := app.LifecycleEvent{
		Kind:     app.EventRewardsDistributed,
		RoomCode: "ROOM1",
		At:       at,
		Rewards:  map[string]int64{"0xabc": 51},
		TxRef:    "tx-9",
	}

	msg, key, err := encodeEvent(event)
	require.NoError(t, err)
	require.Equal(t, SessionRewardsRoutingKey, key)
	require.Equal(t, "application/json", msg.ContentType)
	require.Equal(t, amqp.Persistent, msg.DeliveryMode)
	require.Equal(t, at, msg.Timestamp)
	require.Equal(t, "ROOM1:rewards_distributed", msg.MessageId)

	var decoded app.LifecycleEvent
	require.NoError(t, json.Unmarshal(msg.Body, &decoded))
	require.Equal(t, event, decoded)
}

func TestEncodeEventRejectsUnknownKind(t *testing.T) {
	_, _, err := encodeEvent(app.LifecycleEvent{Kind: "mystery", RoomCode: "ROOM1"})
	require.Error(t, err)
}
