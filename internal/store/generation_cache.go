package store

import (
	"context"
	"time"
)

// GenerationCache adapts Store to the tailoring service's cache contract.
type GenerationCache struct {
	store *Store
	ttl   time.Duration
	clock func() time.Time
}

// NewGenerationCache returns a cache that keeps entries for ttl.
func NewGenerationCache(s *Store, ttl time.Duration) *GenerationCache {
	return &GenerationCache{store: s, ttl: ttl, clock: time.Now}
}

func (c *GenerationCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	gen, err := c.store.GetGeneration(ctx, key, c.clock())
	if err != nil || gen == nil {
		return nil, false, err
	}
	return []byte(gen.ResponseJSON), true, nil
}

func (c *GenerationCache) Put(ctx context.Context, key, promptSlug, model string, payload []byte) error {
	return c.store.PutGeneration(ctx, Generation{
		Key:          key,
		PromptSlug:   promptSlug,
		Model:        model,
		ResponseJSON: string(payload),
	}, c.ttl, c.clock())
}
