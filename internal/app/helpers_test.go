package app_test

import (
	"time"

	"github.com/XianPaz/quizchain/internal/app"
	"github.com/XianPaz/quizchain/internal/domain"
	"github.com/XianPaz/quizchain/internal/infra/memory"
)

var fixedNow = time.Date(2026, 10, 15, 9, 0, 0, 0, time.UTC)

func clock() time.Time { return fixedNow }

func newTestStore() *app.SessionService {
	quizRepo := memory.NewQuizRepository(memory.NewStaticQuizLoader(map[string]domain.Quiz{
		"quiz-1": {ID: "quiz-1", Name: "Saved", Questions: sampleQuestions(2)},
	}), 5*time.Minute)
	return app.NewSessionService(memory.NewSessionStore(), quizRepo).
		WithSessionFactory(func(roomCode, name string, questions []domain.Question) *app.Session {
			return app.NewSessionWithClock(roomCode, name, questions, clock)
		})
}

// sampleQuestions builds n questions whose correct option is always index 1.
func sampleQuestions(n int) []domain.Question {
	qs := make([]domain.Question, n)
	for i := range qs {
		qs[i] = domain.Question{
			Question:  "Pick the second option",
			Options:   []string{"A", "B", "C"},
			Correct:   1,
			TimeLimit: 20,
		}
	}
	return qs
}

func player(id string) domain.Participant {
	return domain.Participant{Identity: id, DisplayName: "player " + id}
}
