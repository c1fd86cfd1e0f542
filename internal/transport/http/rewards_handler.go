package http

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/XianPaz/quizchain/internal/domain"
	"github.com/gorilla/mux"
)

// SettlementReader reports what a settlement sink has delivered for a room.
type SettlementReader interface {
	Totals(ctx context.Context, roomCode string) (map[string]int64, error)
}

type RewardsHandler struct {
	ledger SettlementReader
	log    *slog.Logger
}

func NewRewardsHandler(ledger SettlementReader, log *slog.Logger) *RewardsHandler {
	return &RewardsHandler{ledger: ledger, log: log}
}

// Register mounts GET /sessions/{roomCode}/rewards.
func (h *RewardsHandler) Register(r *mux.Router) {
	r.HandleFunc("/sessions/{roomCode}/rewards", h.get).Methods(http.MethodGet)
}

type rewardsResponse struct {
	RoomCode string           `json:"roomCode"`
	Rewards  map[string]int64 `json:"rewards"`
	Total    int64            `json:"total"`
}

func (h *RewardsHandler) get(w http.ResponseWriter, r *http.Request) {
	code := domain.NormalizeRoomCode(mux.Vars(r)["roomCode"])
	totals, err := h.ledger.Totals(r.Context(), code)
	if err != nil {
		h.log.Error("load settled rewards", "room", code, "err", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
		return
	}
	if len(totals) == 0 {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "No rewards have been distributed for that code"})
		return
	}
	resp := rewardsResponse{RoomCode: code, Rewards: totals}
	for _, amount := range totals {
		resp.Total += amount
	}
	writeJSON(w, http.StatusOK, resp)
}
