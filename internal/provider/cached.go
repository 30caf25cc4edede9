package provider

import (
	"context"
	"strconv"
	"time"

	"github.com/ppiankov/veridict/internal/cache"
)

// Cached memoizes a provider's scores. Model inference dominates batch
// latency, so repeated (image, text) pairs — and re-runs over the same
// dataset with a disk-backed cache — skip the provider entirely.
type Cached struct {
	provider Provider
	store    cache.Cache
	ttl      time.Duration
}

// NewCached wraps a provider with the given cache backend.
func NewCached(p Provider, store cache.Cache, ttl time.Duration) *Cached {
	return &Cached{provider: p, store: store, ttl: ttl}
}

// Name returns the wrapped provider's channel identifier.
func (c *Cached) Name() string { return c.provider.Name() }

// Score returns the cached score when present; otherwise it calls through
// and caches the result. Failures are never cached — the next sample retries.
func (c *Cached) Score(ctx context.Context, imagePath, text string) (float64, error) {
	key := cache.ScoreKey(c.provider.Name(), imagePath, text)

	if data, found := c.store.Get(key); found {
		if score, err := strconv.ParseFloat(string(data), 64); err == nil {
			return score, nil
		}
		// Corrupt entry: drop it and fall through to the provider.
		_ = c.store.Delete(key)
	}

	score, err := c.provider.Score(ctx, imagePath, text)
	if err != nil {
		return 0, err
	}

	_ = c.store.Set(key, []byte(strconv.FormatFloat(score, 'f', -1, 64)), c.ttl)
	return score, nil
}
