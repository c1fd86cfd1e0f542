package memory

import (
	"context"
	"io"
	"log/slog"
	"testing"
)

func TestLedgerSettle(t *testing.T) {
	ledger := NewLedger(slog.New(slog.NewTextHandler(io.Discard, nil)))
	rewards := map[string]int64{"a": 51, "b": 5}

	ref, err := ledger.Settle(context.Background(), "ROOM1", rewards)
	if err != nil {
		t.Fatalf("settle: %v", err)
	}
	if ref == "" {
		t.Fatalf("expected a transaction reference")
	}
	rewards["a"] = 0

	if _, err := ledger.Settle(context.Background(), "ROOM2", map[string]int64{"a": 7}); err != nil {
		t.Fatalf("settle other room: %v", err)
	}
	if _, err := ledger.Settle(context.Background(), "ROOM1", map[string]int64{"b": 10}); err != nil {
		t.Fatalf("settle again: %v", err)
	}

	totals, err := ledger.Totals(context.Background(), "ROOM1")
	if err != nil {
		t.Fatalf("totals: %v", err)
	}
	if totals["a"] != 51 {
		t.Fatalf("batch must not alias the caller's map, got %d", totals["a"])
	}
	if totals["b"] != 15 || len(totals) != 2 {
		t.Fatalf("unexpected totals %v", totals)
	}
}

func TestLedgerSettleCancelled(t *testing.T) {
	ledger := NewLedger(slog.New(slog.NewTextHandler(io.Discard, nil)))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := ledger.Settle(ctx, "ROOM1", map[string]int64{"a": 5}); err == nil {
		t.Fatalf("expected error for cancelled context")
	}
	totals, _ := ledger.Totals(context.Background(), "ROOM1")
	if len(totals) != 0 {
		t.Fatalf("expected nothing settled, got %v", totals)
	}
}
