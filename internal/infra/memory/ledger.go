package memory

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Settlement is one delivered reward batch.
type Settlement struct {
	TxRef    string
	RoomCode string
	Rewards  map[string]int64
	At       time.Time
}

// Ledger is an in-process settlement sink that logs and keeps every batch.
// It stands in for the on-chain mint when no database is configured.
type Ledger struct {
	log *slog.Logger

	mu      sync.Mutex
	batches []Settlement
}

func NewLedger(log *slog.Logger) *Ledger {
	return &Ledger{log: log}
}

func (l *Ledger) Settle(ctx context.Context, roomCode string, rewards map[string]int64) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	batch := Settlement{
		TxRef:    uuid.NewString(),
		RoomCode: roomCode,
		Rewards:  make(map[string]int64, len(rewards)),
		At:       time.Now(),
	}
	var total int64
	for id, amount := range rewards {
		batch.Rewards[id] = amount
		total += amount
	}

	l.mu.Lock()
	l.batches = append(l.batches, batch)
	l.mu.Unlock()

	l.log.Info("settled rewards", "room", roomCode, "tx", batch.TxRef, "recipients", len(rewards), "total", total)
	return batch.TxRef, nil
}

// Totals sums settled rewards per identity for a room.
func (l *Ledger) Totals(_ context.Context, roomCode string) (map[string]int64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make(map[string]int64)
	for _, batch := range l.batches {
		if batch.RoomCode != roomCode {
			continue
		}
		for id, amount := range batch.Rewards {
			out[id] += amount
		}
	}
	return out, nil
}
