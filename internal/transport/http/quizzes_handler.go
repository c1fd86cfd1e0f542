package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/XianPaz/quizchain/internal/domain"
	"github.com/gorilla/mux"
)

// QuizSaver stores saved question sets for later sessions.
type QuizSaver interface {
	SaveQuiz(ctx context.Context, quiz domain.Quiz) error
}

type QuizzesHandler struct {
	saver QuizSaver
	log   *slog.Logger
}

func NewQuizzesHandler(saver QuizSaver, log *slog.Logger) *QuizzesHandler {
	return &QuizzesHandler{saver: saver, log: log}
}

// Register mounts PUT /quizzes/{quizId}.
func (h *QuizzesHandler) Register(r *mux.Router) {
	r.HandleFunc("/quizzes/{quizId}", h.put).Methods(http.MethodPut)
}

type saveQuizRequest struct {
	Name      string            `json:"name"`
	Questions []domain.Question `json:"questions"`
}

type saveQuizResponse struct {
	Success   bool   `json:"success"`
	ID        string `json:"id"`
	Questions int    `json:"questions"`
}

func (h *QuizzesHandler) put(w http.ResponseWriter, r *http.Request) {
	var req saveQuizRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}
	quiz := domain.Quiz{ID: mux.Vars(r)["quizId"], Name: req.Name, Questions: req.Questions}

	err := h.saver.SaveQuiz(r.Context(), quiz)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, saveQuizResponse{Success: true, ID: quiz.ID, Questions: len(quiz.Questions)})
	case errors.Is(err, domain.ErrInvalidQuestionSet):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
	default:
		h.log.Error("save quiz", "quiz", quiz.ID, "err", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
	}
}
