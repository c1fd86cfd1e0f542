package app_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/XianPaz/quizchain/internal/app"
	"github.com/XianPaz/quizchain/internal/domain"
	"github.com/XianPaz/quizchain/internal/infra/memory"
	"github.com/stretchr/testify/require"
)

type failingCache struct {
	app.QuizCache
}

func (failingCache) Invalidate(context.Context, string) error {
	return errors.New("cache down")
}

func newLibrary() (*app.QuizLibrary, *memory.QuizRepository) {
	loader := memory.NewStaticQuizLoader(map[string]domain.Quiz{
		"quiz-1": {ID: "quiz-1", Name: "Saved", Questions: sampleQuestions(2)},
	})
	cache := memory.NewQuizRepository(loader, time.Hour)
	return app.NewQuizLibrary(loader, cache, slog.New(slog.NewTextHandler(io.Discard, nil))), cache
}

func TestQuizLibrarySaveRefreshesCachedQuiz(t *testing.T) {
	ctx := context.Background()
	library, cache := newLibrary()
	store := app.NewSessionService(memory.NewSessionStore(), cache)

	first, err := store.CreateSessionFromQuiz(ctx, "ROOM1", "", "quiz-1")
	require.NoError(t, err)
	require.Equal(t, "Saved", first.Name)
	require.Len(t, first.Questions, 2)

	require.NoError(t, library.SaveQuiz(ctx, domain.Quiz{ID: "quiz-1", Name: "Edited", Questions: sampleQuestions(3)}))

	second, err := store.CreateSessionFromQuiz(ctx, "ROOM2", "", "quiz-1")
	require.NoError(t, err)
	require.Equal(t, "Edited", second.Name)
	require.Len(t, second.Questions, 3)
}

func TestQuizLibraryRejectsInvalidQuiz(t *testing.T) {
	ctx := context.Background()
	library, cache := newLibrary()

	bad := sampleQuestions(1)
	bad[0].Correct = 7
	require.ErrorIs(t, library.SaveQuiz(ctx, domain.Quiz{ID: "quiz-1", Questions: bad}), domain.ErrInvalidQuestionSet)
	require.ErrorIs(t, library.SaveQuiz(ctx, domain.Quiz{Questions: sampleQuestions(1)}), domain.ErrInvalidQuestionSet)

	quiz, err := cache.GetQuiz(ctx, "quiz-1")
	require.NoError(t, err)
	require.Equal(t, "Saved", quiz.Name)
}

func TestQuizLibraryIgnoresInvalidateFailure(t *testing.T) {
	ctx := context.Background()
	loader := memory.NewStaticQuizLoader(nil)
	library := app.NewQuizLibrary(loader, failingCache{}, slog.New(slog.NewTextHandler(io.Discard, nil)))

	require.NoError(t, library.SaveQuiz(ctx, domain.Quiz{ID: "quiz-9", Name: "New", Questions: sampleQuestions(1)}))
	quiz, err := loader.LoadQuiz(ctx, "quiz-9")
	require.NoError(t, err)
	require.Equal(t, "New", quiz.Name)
}
