package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/XianPaz/quizchain/internal/domain"
)

// QuizWriter persists saved question sets.
type QuizWriter interface {
	SaveQuiz(ctx context.Context, quiz domain.Quiz) error
}

// QuizCache is a QuizRepository whose entries can be dropped.
type QuizCache interface {
	QuizRepository
	Invalidate(ctx context.Context, quizID string) error
}

// QuizLibrary stores saved quizzes and keeps the read cache in step with them.
type QuizLibrary struct {
	writer QuizWriter
	cache  QuizCache
	log    *slog.Logger
}

func NewQuizLibrary(writer QuizWriter, cache QuizCache, log *slog.Logger) *QuizLibrary {
	return &QuizLibrary{writer: writer, cache: cache, log: log}
}

// SaveQuiz validates and stores quiz, then drops any cached copy so the next session
// created from it sees the new content.
func (l *QuizLibrary) SaveQuiz(ctx context.Context, quiz domain.Quiz) error {
	if quiz.ID == "" {
		return fmt.Errorf("%w: quiz id is required", domain.ErrInvalidQuestionSet)
	}
	if err := domain.ValidateQuestions(quiz.Questions); err != nil {
		return err
	}
	if err := l.writer.SaveQuiz(ctx, quiz); err != nil {
		return err
	}
	if err := l.cache.Invalidate(ctx, quiz.ID); err != nil {
		// The cached copy still expires with its TTL.
		l.log.Warn("invalidate cached quiz", "quiz", quiz.ID, "err", err)
	}
	l.log.Info("quiz saved", "quiz", quiz.ID, "questions", len(quiz.Questions))
	return nil
}
