package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/XianPaz/quizchain/internal/app"
	"github.com/XianPaz/quizchain/internal/domain"
	"github.com/gorilla/mux"
)

// SessionCatalog is the room lifecycle surface the REST handlers need.
type SessionCatalog interface {
	CreateSession(roomCode, name string, questions []domain.Question) (domain.Session, error)
	CreateSessionFromQuiz(ctx context.Context, roomCode, name, quizID string) (domain.Session, error)
	LookupSession(roomCode string) (domain.Session, error)
}

// RoomCloser tears down a room and everything subscribed to it.
type RoomCloser interface {
	CloseRoom(roomCode string)
}

type SessionsHandler struct {
	catalog SessionCatalog
	closer  RoomCloser
	log     *slog.Logger
}

func NewSessionsHandler(catalog SessionCatalog, closer RoomCloser, log *slog.Logger) *SessionsHandler {
	return &SessionsHandler{catalog: catalog, closer: closer, log: log}
}

// Register mounts the handlers under /sessions.
func (h *SessionsHandler) Register(r *mux.Router) {
	s := r.PathPrefix("/sessions").Subrouter()
	s.HandleFunc("/create", h.create).Methods(http.MethodPost)
	s.HandleFunc("/{roomCode}", h.get).Methods(http.MethodGet)
	s.HandleFunc("/{roomCode}", h.delete).Methods(http.MethodDelete)
}

type createRequest struct {
	RoomCode  string            `json:"roomCode"`
	Name      string            `json:"name"`
	Questions []domain.Question `json:"questions"`
	QuizID    string            `json:"quizId"`
}

type sessionResponse struct {
	Success bool           `json:"success"`
	Session domain.Session `json:"session"`
}

// sessionView is what anyone holding a room code may read; it carries no answer key.
type sessionView struct {
	RoomCode        string               `json:"roomCode"`
	Name            string               `json:"name"`
	Questions       []app.OpenQuestion   `json:"questions"`
	Participants    []domain.Participant `json:"players"`
	Status          domain.Status        `json:"status"`
	CurrentQuestion int                  `json:"currentQuestion"`
	CreatedAt       time.Time            `json:"createdAt"`
}

func newSessionView(s domain.Session) sessionView {
	questions := make([]app.OpenQuestion, len(s.Questions))
	for i, q := range s.Questions {
		questions[i] = app.OpenQuestion{Question: q.Question, Options: q.Options, TimeLimit: q.TimeLimit}
	}
	return sessionView{
		RoomCode:        s.RoomCode,
		Name:            s.Name,
		Questions:       questions,
		Participants:    s.Participants,
		Status:          s.Status,
		CurrentQuestion: s.CurrentQuestion,
		CreatedAt:       s.CreatedAt,
	}
}

type sessionViewResponse struct {
	Success bool        `json:"success"`
	Session sessionView `json:"session"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (h *SessionsHandler) create(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}
	code := domain.NormalizeRoomCode(req.RoomCode)
	if code == "" || (req.QuizID == "" && len(req.Questions) == 0) {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "roomCode and questions are required"})
		return
	}

	var (
		session domain.Session
		err     error
	)
	if req.QuizID != "" {
		session, err = h.catalog.CreateSessionFromQuiz(r.Context(), code, req.Name, req.QuizID)
	} else {
		session, err = h.catalog.CreateSession(code, req.Name, req.Questions)
	}
	switch {
	case err == nil:
		h.log.Info("session created", "room", code, "questions", len(session.Questions))
		writeJSON(w, http.StatusOK, sessionResponse{Success: true, Session: session})
	case errors.Is(err, domain.ErrRoomCodeTaken):
		writeJSON(w, http.StatusConflict, errorResponse{Error: "Room code already in use"})
	case errors.Is(err, domain.ErrQuizNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: err.Error()})
	case errors.Is(err, domain.ErrInvalidQuestionSet), errors.Is(err, domain.ErrInvalidRoomCode):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
	default:
		h.log.Error("create session", "room", code, "err", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
	}
}

func (h *SessionsHandler) get(w http.ResponseWriter, r *http.Request) {
	code := domain.NormalizeRoomCode(mux.Vars(r)["roomCode"])
	session, err := h.catalog.LookupSession(code)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, sessionViewResponse{Success: true, Session: newSessionView(session)})
	case errors.Is(err, domain.ErrRoomExpired):
		writeJSON(w, http.StatusGone, errorResponse{Error: "This quiz has already ended"})
	default:
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "No active quiz found with that code"})
	}
}

func (h *SessionsHandler) delete(w http.ResponseWriter, r *http.Request) {
	code := domain.NormalizeRoomCode(mux.Vars(r)["roomCode"])
	h.closer.CloseRoom(code)
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
