package redis

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"pdf-quiz-service/internal/domain"
)

// ContextLoader extracts context text from a document (e.g., the PDF loader).
type ContextLoader interface {
	LoadContext(ctx context.Context, doc domain.Document) (string, error)
}

// ContextCache keeps extracted context text in Redis so every instance
// shares it, and falls back to the loader on a miss.
// Text is stored as: SET quiz:context:{digest} {text} EX ttl
type ContextCache struct {
	client *redis.Client
	loader ContextLoader
	ttl    time.Duration
	sf     singleflight.Group
	rnd    *rand.Rand
	rndMu  sync.Mutex
}

func NewContextCache(client *redis.Client, loader ContextLoader, ttl time.Duration) *ContextCache {
	return &ContextCache{
		client: client,
		loader: loader,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (c *ContextCache) LoadContext(ctx context.Context, doc domain.Document) (string, error) {
	key := c.key(doc)

	text, err := c.client.Get(ctx, key).Result()
	if err == nil {
		return text, nil
	}

	result, err, _ := c.sf.Do(key, func() (interface{}, error) {
		// Re-check cache in case another goroutine filled it.
		text, err := c.client.Get(ctx, key).Result()
		if err == nil {
			return text, nil
		}
		if !errors.Is(err, redis.Nil) {
			// Redis trouble should not block generation.
			text, loadErr := c.loader.LoadContext(ctx, doc)
			return text, loadErr
		}

		text, err = c.loader.LoadContext(ctx, doc)
		if err != nil {
			return "", err
		}
		_ = c.client.Set(ctx, key, text, c.ttlWithJitter()).Err()
		return text, nil
	})
	if err != nil {
		return "", err
	}
	return result.(string), nil
}

func (c *ContextCache) key(doc domain.Document) string {
	id := doc.Digest
	if id == "" {
		id = doc.Path
	}
	return "quiz:context:" + id
}

func (c *ContextCache) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	jitterMax := int64(c.ttl) / 10
	c.rndMu.Lock()
	defer c.rndMu.Unlock()
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}
