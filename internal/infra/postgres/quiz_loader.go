package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/XianPaz/quizchain/internal/domain"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
)

// QuizLoader loads saved question sets stored as JSONB.
type QuizLoader struct {
	pool *pgxpool.Pool
}

func NewQuizLoader(pool *pgxpool.Pool) *QuizLoader {
	return &QuizLoader{pool: pool}
}

func (l *QuizLoader) LoadQuiz(ctx context.Context, quizID string) (domain.Quiz, error) {
	var (
		name string
		raw  []byte
	)
	err := l.pool.QueryRow(ctx, `SELECT name, data FROM quizzes WHERE id=$1`, quizID).Scan(&name, &raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Quiz{}, fmt.Errorf("%w: %s", domain.ErrQuizNotFound, quizID)
	}
	if err != nil {
		return domain.Quiz{}, fmt.Errorf("load quiz: %w", err)
	}

	var questions []domain.Question
	if err := json.Unmarshal(raw, &questions); err != nil {
		return domain.Quiz{}, fmt.Errorf("unmarshal quiz: %w", err)
	}
	return domain.Quiz{ID: quizID, Name: name, Questions: questions}, nil
}

// SaveQuiz upserts a question set.
func (l *QuizLoader) SaveQuiz(ctx context.Context, quiz domain.Quiz) error {
	if err := domain.ValidateQuestions(quiz.Questions); err != nil {
		return err
	}
	raw, err := json.Marshal(quiz.Questions)
	if err != nil {
		return fmt.Errorf("marshal quiz: %w", err)
	}
	_, err = l.pool.Exec(ctx,
		`INSERT INTO quizzes (id, name, data) VALUES ($1, $2, $3::jsonb)
		 ON CONFLICT (id) DO UPDATE SET name=EXCLUDED.name, data=EXCLUDED.data`,
		quiz.ID, quiz.Name, string(raw))
	if err != nil {
		return fmt.Errorf("save quiz: %w", err)
	}
	return nil
}
