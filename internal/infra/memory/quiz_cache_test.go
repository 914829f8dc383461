package memory

import (
	"context"
	"testing"
	"time"

	"github.com/altazietsman/lexi-meter/internal/domain"
)

type countingLoader struct {
	calls int
	quiz  domain.Quiz
	err   error
}

func (l *countingLoader) LoadQuiz(_ context.Context, quizID string) (domain.Quiz, error) {
	l.calls++
	if l.err != nil {
		return domain.Quiz{}, l.err
	}
	q := l.quiz
	q.ID = quizID
	return q, nil
}

func TestQuizCacheHitsWithinTTL(t *testing.T) {
	loader := &countingLoader{quiz: domain.Quiz{Title: "Cached"}}
	cache := NewQuizCache(loader, time.Minute)
	ctx := context.Background()

	first, err := cache.GetQuiz(ctx, "quiz-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	second, err := cache.GetQuiz(ctx, "quiz-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if loader.calls != 1 {
		t.Fatalf("expected one loader call, got %d", loader.calls)
	}
	if first.Title != second.Title {
		t.Fatalf("cache returned different quizzes")
	}

	// A different quiz is a separate entry.
	if _, err := cache.GetQuiz(ctx, "quiz-2"); err != nil {
		t.Fatalf("get other: %v", err)
	}
	if loader.calls != 2 {
		t.Fatalf("expected loader call for second quiz, got %d", loader.calls)
	}
}

func TestQuizCacheExpires(t *testing.T) {
	loader := &countingLoader{quiz: domain.Quiz{Title: "Cached"}}
	cache := NewQuizCache(loader, time.Minute)
	now := time.Now()
	cache.clock = func() time.Time { return now }
	ctx := context.Background()

	if _, err := cache.GetQuiz(ctx, "quiz-1"); err != nil {
		t.Fatalf("get: %v", err)
	}
	// Jitter extends the TTL by at most 10%.
	now = now.Add(2 * time.Minute)
	if _, err := cache.GetQuiz(ctx, "quiz-1"); err != nil {
		t.Fatalf("get after expiry: %v", err)
	}
	if loader.calls != 2 {
		t.Fatalf("expected reload after expiry, got %d calls", loader.calls)
	}
}

func TestQuizCacheInvalidate(t *testing.T) {
	loader := &countingLoader{quiz: domain.Quiz{Title: "Cached"}}
	cache := NewQuizCache(loader, time.Minute)
	ctx := context.Background()

	if _, err := cache.GetQuiz(ctx, "quiz-1"); err != nil {
		t.Fatalf("get: %v", err)
	}
	cache.Invalidate(ctx, "quiz-1")
	if _, err := cache.GetQuiz(ctx, "quiz-1"); err != nil {
		t.Fatalf("get after invalidate: %v", err)
	}
	if loader.calls != 2 {
		t.Fatalf("expected reload after invalidate, got %d calls", loader.calls)
	}
}

func TestQuizCacheDoesNotCacheErrors(t *testing.T) {
	loader := &countingLoader{err: domain.ErrQuizNotFound}
	cache := NewQuizCache(loader, time.Minute)
	ctx := context.Background()

	if _, err := cache.GetQuiz(ctx, "quiz-1"); err != domain.ErrQuizNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
	loader.err = nil
	if _, err := cache.GetQuiz(ctx, "quiz-1"); err != nil {
		t.Fatalf("expected recovery after loader heals, got %v", err)
	}
}
