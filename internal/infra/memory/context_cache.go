package memory

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"pdf-quiz-service/internal/domain"
)

// ContextLoader extracts context text from a document (e.g., the PDF loader).
type ContextLoader interface {
	LoadContext(ctx context.Context, doc domain.Document) (string, error)
}

// ContextCache caches extracted context text with TTL to avoid re-parsing
// the same PDF on every generation. Entries are keyed by content digest,
// so re-uploading an identical file under another name is still a hit.
type ContextCache struct {
	loader ContextLoader
	ttl    time.Duration
	clock  func() time.Time
	sf     singleflight.Group
	rnd    *rand.Rand
	rndMu  sync.Mutex

	mu    sync.RWMutex
	cache map[string]cachedContext
}

type cachedContext struct {
	text      string
	expiresAt time.Time
}

func NewContextCache(loader ContextLoader, ttl time.Duration) *ContextCache {
	return &ContextCache{
		loader: loader,
		ttl:    ttl,
		clock:  time.Now,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
		cache:  make(map[string]cachedContext),
	}
}

func (c *ContextCache) LoadContext(ctx context.Context, doc domain.Document) (string, error) {
	key := cacheKey(doc)
	now := c.clock()

	c.mu.RLock()
	if entry, ok := c.cache[key]; ok && entry.expiresAt.After(now) {
		c.mu.RUnlock()
		return entry.text, nil
	}
	c.mu.RUnlock()

	result, err, _ := c.sf.Do(key, func() (interface{}, error) {
		now := c.clock()
		c.mu.RLock()
		if entry, ok := c.cache[key]; ok && entry.expiresAt.After(now) {
			c.mu.RUnlock()
			return entry.text, nil
		}
		c.mu.RUnlock()

		text, err := c.loader.LoadContext(ctx, doc)
		if err != nil {
			return "", err
		}

		c.mu.Lock()
		c.cache[key] = cachedContext{
			text:      text,
			expiresAt: now.Add(c.ttlWithJitter()),
		}
		c.mu.Unlock()
		return text, nil
	})
	if err != nil {
		return "", err
	}
	return result.(string), nil
}

func (c *ContextCache) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	// add up to 10% jitter to spread expirations
	jitterMax := int64(c.ttl) / 10
	c.rndMu.Lock()
	defer c.rndMu.Unlock()
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}

func cacheKey(doc domain.Document) string {
	if doc.Digest != "" {
		return doc.Digest
	}
	return doc.Path
}
