package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// rewardSettlement is one recipient row of a settled batch.
type rewardSettlement struct {
	bun.BaseModel `bun:"table:reward_settlements"`

	ID        int64     `bun:"id,pk,autoincrement"`
	TxRef     uuid.UUID `bun:"tx_ref,type:uuid"`
	RoomCode  string    `bun:"room_code"`
	Identity  string    `bun:"identity"`
	Amount    int64     `bun:"amount"`
	SettledAt time.Time `bun:"settled_at"`
}

// SettlementLedger records reward batches in Postgres. Each batch is written in one
// transaction under a fresh transaction reference.
type SettlementLedger struct {
	db  *bun.DB
	now func() time.Time
}

func NewSettlementLedger(db *bun.DB) *SettlementLedger {
	return &SettlementLedger{db: db, now: time.Now}
}

func (l *SettlementLedger) Settle(ctx context.Context, roomCode string, rewards map[string]int64) (string, error) {
	ref := uuid.New()
	at := l.now().UTC()

	identities := make([]string, 0, len(rewards))
	for id := range rewards {
		identities = append(identities, id)
	}
	sort.Strings(identities)

	rows := make([]rewardSettlement, 0, len(identities))
	for _, id := range identities {
		rows = append(rows, rewardSettlement{
			TxRef:     ref,
			RoomCode:  roomCode,
			Identity:  id,
			Amount:    rewards[id],
			SettledAt: at,
		})
	}

	err := l.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		if len(rows) == 0 {
			return nil
		}
		_, err := tx.NewInsert().Model(&rows).Exec(ctx)
		return err
	})
	if err != nil {
		return "", fmt.Errorf("settle rewards for %s: %w", roomCode, err)
	}
	return ref.String(), nil
}

// Totals sums settled rewards per identity for a room.
func (l *SettlementLedger) Totals(ctx context.Context, roomCode string) (map[string]int64, error) {
	var rows []rewardSettlement
	if err := l.db.NewSelect().Model(&rows).Where("room_code = ?", roomCode).Scan(ctx); err != nil {
		return nil, fmt.Errorf("load settlements: %w", err)
	}
	out := make(map[string]int64, len(rows))
	for _, row := range rows {
		out[row.Identity] += row.Amount
	}
	return out, nil
}
