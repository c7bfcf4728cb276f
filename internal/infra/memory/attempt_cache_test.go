package memory

import (
	"context"
	"testing"
	"time"

	"testmaker-service/internal/domain"
)

func TestAttemptCacheServesFromCache(t *testing.T) {
	ctx := context.Background()
	loader := &countingLoader{loader: NewStoreLoader(newPopulatedStore(t))}
	cache := NewAttemptCache(loader, time.Minute)

	content, err := cache.GetAttemptContent(ctx, "quiz-1")
	if err != nil {
		t.Fatalf("get attempt content: %v", err)
	}
	if content.Quiz.ID != "quiz-1" || len(content.Questions) != 1 {
		t.Fatalf("unexpected content: %+v", content)
	}
	if loader.calls != 1 {
		t.Fatalf("expected loader called once, got %d", loader.calls)
	}

	if _, err := cache.GetAttemptContent(ctx, "quiz-1"); err != nil {
		t.Fatalf("get attempt content: %v", err)
	}
	if loader.calls != 1 {
		t.Fatalf("expected cache hit, loader calls=%d", loader.calls)
	}
}

func TestAttemptCacheExpires(t *testing.T) {
	ctx := context.Background()
	loader := &countingLoader{loader: NewStoreLoader(newPopulatedStore(t))}
	cache := NewAttemptCache(loader, time.Minute)

	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	cache.clock = func() time.Time { return now }

	if _, err := cache.GetAttemptContent(ctx, "quiz-1"); err != nil {
		t.Fatalf("get attempt content: %v", err)
	}
	// Past the TTL even with maximum jitter applied.
	now = now.Add(2 * time.Minute)
	if _, err := cache.GetAttemptContent(ctx, "quiz-1"); err != nil {
		t.Fatalf("get attempt content: %v", err)
	}
	if loader.calls != 2 {
		t.Fatalf("expected reload after expiry, loader calls=%d", loader.calls)
	}
}

func TestAttemptCacheMissingQuiz(t *testing.T) {
	ctx := context.Background()
	loader := &countingLoader{loader: NewStoreLoader(NewStore())}
	cache := NewAttemptCache(loader, time.Minute)

	if _, err := cache.GetAttemptContent(ctx, "nope"); !domain.IsNotFound(err) {
		t.Fatalf("expected a not-found error, got %v", err)
	}
	// Errors are not cached.
	_, _ = cache.GetAttemptContent(ctx, "nope")
	if loader.calls != 2 {
		t.Fatalf("expected loader retried on error, calls=%d", loader.calls)
	}
}

func TestStoreLoaderAssemblesAggregate(t *testing.T) {
	ctx := context.Background()
	loader := NewStoreLoader(newPopulatedStore(t))

	content, err := loader.LoadAttemptContent(ctx, "quiz-1")
	if err != nil {
		t.Fatalf("load attempt content: %v", err)
	}
	if content.Quiz.Title != "First" {
		t.Fatalf("expected quiz First, got %q", content.Quiz.Title)
	}
	if len(content.Questions) != 1 || content.Questions[0].Question.ID != "q-1" {
		t.Fatalf("unexpected questions: %+v", content.Questions)
	}
	if len(content.Questions[0].Answers) != 1 || content.Questions[0].Answers[0].ID != "a-1" {
		t.Fatalf("unexpected answers: %+v", content.Questions[0].Answers)
	}
	if len(content.Results) != 1 || content.Results[0].ID != "r-1" {
		t.Fatalf("unexpected results: %+v", content.Results)
	}
}

type countingLoader struct {
	loader AttemptLoader
	calls  int
}

func (l *countingLoader) LoadAttemptContent(ctx context.Context, quizID string) (domain.AttemptContent, error) {
	l.calls++
	return l.loader.LoadAttemptContent(ctx, quizID)
}
