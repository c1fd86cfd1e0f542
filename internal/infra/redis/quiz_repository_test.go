package redis

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/XianPaz/quizchain/internal/domain"
	"github.com/XianPaz/quizchain/internal/infra/memory"
)

func TestQuizRepositoryCachesInRedis(t *testing.T) {
	mr, client := newMiniredis(t)

	loader := &countingLoader{
		QuizLoader: memory.NewStaticQuizLoader(map[string]domain.Quiz{
			"quiz-1": sampleQuiz(),
		}),
	}
	repo := NewQuizRepository(client, loader, time.Minute)

	quiz, err := repo.GetQuiz(context.Background(), "quiz-1")
	if err != nil {
		t.Fatalf("get quiz: %v", err)
	}
	if quiz.Name != "Arithmetic" || len(quiz.Questions) != 1 {
		t.Fatalf("unexpected quiz %+v", quiz)
	}
	if loader.count() != 1 {
		t.Fatalf("expected loader called once, got %d", loader.count())
	}
	if !mr.Exists("quiz:quiz-1:content") {
		t.Fatalf("expected cached content key")
	}
	if ttl := mr.TTL("quiz:quiz-1:content"); ttl < time.Minute || ttl > time.Minute+6*time.Second {
		t.Fatalf("ttl %s outside jitter window", ttl)
	}

	// Second call should hit cache, loader not incremented.
	cached, err := repo.GetQuiz(context.Background(), "quiz-1")
	if err != nil {
		t.Fatalf("get quiz 2: %v", err)
	}
	if loader.count() != 1 {
		t.Fatalf("expected cache hit, loader calls=%d", loader.count())
	}
	if cached.Questions[0].Correct != 1 || cached.Questions[0].TimeLimit != 15 {
		t.Fatalf("cached quiz lost fields: %+v", cached.Questions[0])
	}

	if err := repo.Invalidate(context.Background(), "quiz-1"); err != nil {
		t.Fatalf("invalidate: %v", err)
	}
	_, _ = repo.GetQuiz(context.Background(), "quiz-1")
	if loader.count() != 2 {
		t.Fatalf("expected reload after invalidate, loader calls=%d", loader.count())
	}
}

func TestQuizRepositoryServesPrewarmedEntry(t *testing.T) {
	mr, client := newMiniredis(t)
	raw, err := json.Marshal(sampleQuiz())
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if err := mr.Set("quiz:quiz-1:content", string(raw)); err != nil {
		t.Fatalf("seed: %v", err)
	}

	loader := &countingLoader{QuizLoader: memory.NewStaticQuizLoader(nil)}
	repo := NewQuizRepository(client, loader, time.Minute)

	if _, err := repo.GetQuiz(context.Background(), "quiz-1"); err != nil {
		t.Fatalf("get quiz: %v", err)
	}
	if loader.count() != 0 {
		t.Fatalf("expected no loader calls, got %d", loader.count())
	}
}

func TestQuizRepositoryDoesNotCacheInvalidQuiz(t *testing.T) {
	mr, client := newMiniredis(t)
	bad := sampleQuiz()
	bad.Questions[0].Options = []string{"only"}
	repo := NewQuizRepository(client, memory.NewStaticQuizLoader(map[string]domain.Quiz{"quiz-1": bad}), time.Minute)

	_, err := repo.GetQuiz(context.Background(), "quiz-1")
	if !errors.Is(err, domain.ErrInvalidQuestionSet) {
		t.Fatalf("expected invalid question set, got %v", err)
	}
	if mr.Exists("quiz:quiz-1:content") {
		t.Fatalf("invalid quiz must not be cached")
	}
}

type countingLoader struct {
	memory.QuizLoader

	mu    sync.Mutex
	calls int
}

func (l *countingLoader) LoadQuiz(ctx context.Context, quizID string) (domain.Quiz, error) {
	l.mu.Lock()
	l.calls++
	l.mu.Unlock()
	return l.QuizLoader.LoadQuiz(ctx, quizID)
}

func (l *countingLoader) count() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.calls
}

func sampleQuiz() domain.Quiz {
	return domain.Quiz{
		ID:   "quiz-1",
		Name: "Arithmetic",
		Questions: []domain.Question{
			{
				Question:  "What is 2 + 2?",
				Options:   []string{"3", "4"},
				Correct:   1,
				TimeLimit: 15,
			},
		},
	}
}
