package memory

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"testmaker-service/internal/app"
	"testmaker-service/internal/domain"
)

// AttemptLoader assembles the full quiz aggregate from a backing store.
type AttemptLoader interface {
	LoadAttemptContent(ctx context.Context, quizID string) (domain.AttemptContent, error)
}

// AttemptCache caches attempt content with TTL to avoid re-assembling the
// aggregate on every resolution.
type AttemptCache struct {
	loader AttemptLoader
	ttl    time.Duration
	clock  func() time.Time
	sf     singleflight.Group
	rnd    *rand.Rand

	mu    sync.RWMutex
	cache map[string]cachedContent
}

type cachedContent struct {
	content   domain.AttemptContent
	expiresAt time.Time
}

func NewAttemptCache(loader AttemptLoader, ttl time.Duration) *AttemptCache {
	return &AttemptCache{
		loader: loader,
		ttl:    ttl,
		clock:  time.Now,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
		cache:  make(map[string]cachedContent),
	}
}

func (c *AttemptCache) GetAttemptContent(ctx context.Context, quizID string) (domain.AttemptContent, error) {
	now := c.clock()

	c.mu.RLock()
	if entry, ok := c.cache[quizID]; ok && entry.expiresAt.After(now) {
		c.mu.RUnlock()
		return entry.content, nil
	}
	c.mu.RUnlock()

	result, err, _ := c.sf.Do(quizID, func() (interface{}, error) {
		now := c.clock()
		c.mu.RLock()
		if entry, ok := c.cache[quizID]; ok && entry.expiresAt.After(now) {
			c.mu.RUnlock()
			return entry.content, nil
		}
		c.mu.RUnlock()

		content, err := c.loader.LoadAttemptContent(ctx, quizID)
		if err != nil {
			return domain.AttemptContent{}, err
		}

		c.mu.Lock()
		c.cache[quizID] = cachedContent{
			content:   content,
			expiresAt: now.Add(c.ttlWithJitter()),
		}
		c.mu.Unlock()
		return content, nil
	})
	if err != nil {
		return domain.AttemptContent{}, err
	}
	return result.(domain.AttemptContent), nil
}

func (c *AttemptCache) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	// add up to 10% jitter to spread expirations
	jitterMax := int64(c.ttl) / 10
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}

// StoreLoader assembles attempt content straight from an app.Store, for
// deployments without a dedicated read path.
type StoreLoader struct {
	store app.Store
}

func NewStoreLoader(store app.Store) *StoreLoader {
	return &StoreLoader{store: store}
}

func (l *StoreLoader) LoadAttemptContent(ctx context.Context, quizID string) (domain.AttemptContent, error) {
	quiz, err := l.store.GetQuiz(ctx, quizID)
	if err != nil {
		return domain.AttemptContent{}, err
	}
	questions, err := l.store.ListQuestions(ctx, quizID)
	if err != nil {
		return domain.AttemptContent{}, err
	}
	content := domain.AttemptContent{Quiz: quiz, Questions: make([]domain.QuestionContent, 0, len(questions))}
	for _, question := range questions {
		answers, err := l.store.ListAnswers(ctx, question.ID)
		if err != nil {
			return domain.AttemptContent{}, err
		}
		content.Questions = append(content.Questions, domain.QuestionContent{
			Question: question,
			Answers:  answers,
		})
	}
	content.Results, err = l.store.ListResults(ctx, quizID)
	if err != nil {
		return domain.AttemptContent{}, err
	}
	return content, nil
}
