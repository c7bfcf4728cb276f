package redis

import (
	"context"
	"encoding/json"
	"math/rand"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"testmaker-service/internal/domain"
)

// AttemptLoader assembles the full quiz aggregate from a backing store.
type AttemptLoader interface {
	LoadAttemptContent(ctx context.Context, quizID string) (domain.AttemptContent, error)
}

// AttemptCache caches the marshaled quiz aggregate in Redis
// (SET quiz:{quizID}:attempt) and falls back to the loader on cache miss.
// Writers are not expected to invalidate; staleness is bounded by the TTL.
type AttemptCache struct {
	client *redis.Client
	loader AttemptLoader
	ttl    time.Duration
	sf     singleflight.Group
	rnd    *rand.Rand
}

func NewAttemptCache(client *redis.Client, loader AttemptLoader, ttl time.Duration) *AttemptCache {
	return &AttemptCache{
		client: client,
		loader: loader,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (c *AttemptCache) GetAttemptContent(ctx context.Context, quizID string) (domain.AttemptContent, error) {
	key := c.key(quizID)

	if raw, err := c.client.Get(ctx, key).Bytes(); err == nil {
		var content domain.AttemptContent
		if err := json.Unmarshal(raw, &content); err == nil {
			return content, nil
		}
		// corrupt entry, fall through to the loader
	}

	result, err, _ := c.sf.Do(quizID, func() (interface{}, error) {
		// Re-check cache in case another goroutine filled it.
		if raw, err := c.client.Get(ctx, key).Bytes(); err == nil {
			var content domain.AttemptContent
			if err := json.Unmarshal(raw, &content); err == nil {
				return content, nil
			}
		}

		content, err := c.loader.LoadAttemptContent(ctx, quizID)
		if err != nil {
			return domain.AttemptContent{}, err
		}

		if raw, err := json.Marshal(content); err == nil {
			_ = c.client.Set(ctx, key, raw, c.ttlWithJitter()).Err()
		}
		return content, nil
	})
	if err != nil {
		return domain.AttemptContent{}, err
	}
	return result.(domain.AttemptContent), nil
}

func (c *AttemptCache) key(quizID string) string {
	return "quiz:" + quizID + ":attempt"
}

func (c *AttemptCache) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	jitterMax := int64(c.ttl) / 10
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}
