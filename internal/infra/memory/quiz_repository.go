package memory

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/XianPaz/quizchain/internal/domain"
	"golang.org/x/sync/singleflight"
)

// QuizLoader fetches saved question sets from a backing store.
type QuizLoader interface {
	LoadQuiz(ctx context.Context, quizID string) (domain.Quiz, error)
}

// QuizRepository caches validated quizzes with a TTL so session creation does not hit the loader every time.
type QuizRepository struct {
	loader QuizLoader
	ttl    time.Duration
	clock  func() time.Time
	group  singleflight.Group

	rndMu sync.Mutex
	rnd   *rand.Rand

	mu      sync.RWMutex
	entries map[string]quizEntry
}

type quizEntry struct {
	quiz      domain.Quiz
	expiresAt time.Time
}

func NewQuizRepository(loader QuizLoader, ttl time.Duration) *QuizRepository {
	return &QuizRepository{
		loader:  loader,
		ttl:     ttl,
		clock:   time.Now,
		rnd:     rand.New(rand.NewSource(time.Now().UnixNano())),
		entries: make(map[string]quizEntry),
	}
}

func (r *QuizRepository) GetQuiz(ctx context.Context, quizID string) (domain.Quiz, error) {
	if quiz, ok := r.cached(quizID); ok {
		return quiz, nil
	}

	v, err, _ := r.group.Do(quizID, func() (interface{}, error) {
		if quiz, ok := r.cached(quizID); ok {
			return quiz, nil
		}
		quiz, err := r.loader.LoadQuiz(ctx, quizID)
		if err != nil {
			return domain.Quiz{}, err
		}
		if err := domain.ValidateQuestions(quiz.Questions); err != nil {
			return domain.Quiz{}, fmt.Errorf("quiz %s: %w", quizID, err)
		}

		r.mu.Lock()
		r.entries[quizID] = quizEntry{quiz: quiz, expiresAt: r.clock().Add(r.ttlWithJitter())}
		r.mu.Unlock()
		return quiz, nil
	})
	if err != nil {
		return domain.Quiz{}, err
	}
	return v.(domain.Quiz), nil
}

// Invalidate forgets a cached quiz so the next lookup reloads it.
func (r *QuizRepository) Invalidate(_ context.Context, quizID string) error {
	r.mu.Lock()
	delete(r.entries, quizID)
	r.mu.Unlock()
	return nil
}

func (r *QuizRepository) cached(quizID string) (domain.Quiz, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	entry, ok := r.entries[quizID]
	if !ok || !entry.expiresAt.After(r.clock()) {
		return domain.Quiz{}, false
	}
	return entry.quiz, true
}

// ttlWithJitter spreads expirations by up to 10%.
func (r *QuizRepository) ttlWithJitter() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	r.rndMu.Lock()
	defer r.rndMu.Unlock()
	return r.ttl + time.Duration(r.rnd.Int63n(int64(r.ttl)/10+1))
}

// StaticQuizLoader serves quizzes from an in-process map (demos and tests).
type StaticQuizLoader struct {
	mu      sync.RWMutex
	quizzes map[string]domain.Quiz
}

func NewStaticQuizLoader(quizzes map[string]domain.Quiz) *StaticQuizLoader {
	l := &StaticQuizLoader{quizzes: make(map[string]domain.Quiz, len(quizzes))}
	for id, quiz := range quizzes {
		l.quizzes[id] = quiz
	}
	return l
}

func (l *StaticQuizLoader) LoadQuiz(_ context.Context, quizID string) (domain.Quiz, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	quiz, ok := l.quizzes[quizID]
	if !ok {
		return domain.Quiz{}, fmt.Errorf("%w: %s", domain.ErrQuizNotFound, quizID)
	}
	return quiz, nil
}

// SaveQuiz stores or replaces quiz under its ID.
func (l *StaticQuizLoader) SaveQuiz(_ context.Context, quiz domain.Quiz) error {
	if err := domain.ValidateQuestions(quiz.Questions); err != nil {
		return err
	}
	quiz.Questions = append([]domain.Question(nil), quiz.Questions...)
	l.mu.Lock()
	l.quizzes[quiz.ID] = quiz
	l.mu.Unlock()
	return nil
}
