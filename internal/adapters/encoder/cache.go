package encoder

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/hirestorm/matchd/internal/domain/embedding"
	"github.com/hirestorm/matchd/pkg/metrics"
)

// Cache defaults.
const (
	defaultCacheTTL     = time.Hour
	defaultCacheCleanup = 10 * time.Minute
)

// CacheOption applies a configuration option to the cached encoder.
type CacheOption func(*Cached)

// WithCacheTTL sets how long encoded vectors stay cached.
func WithCacheTTL(ttl time.Duration) CacheOption {
	return func(c *Cached) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

// Cached memoizes encode calls in front of another encoder. Entity text is
// re-encoded on every ranking call otherwise; profiles and postings change
// far less often than they are matched.
type Cached struct {
	inner embedding.Encoder
	cache *gocache.Cache
	ttl   time.Duration
}

// NewCached wraps an encoder with a TTL cache.
func NewCached(inner embedding.Encoder, opts ...CacheOption) *Cached {
	c := &Cached{
		inner: inner,
		ttl:   defaultCacheTTL,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.cache = gocache.New(c.ttl, defaultCacheCleanup)
	return c
}

// Encode implements embedding.Encoder. Cache keys carry the purpose and
// model tag; the same text encodes differently per purpose and vectors are
// never shared across encoder models.
func (c *Cached) Encode(ctx context.Context, text string, purpose embedding.Purpose) ([]float32, error) {
	key := c.key(text, purpose)
	if v, ok := c.cache.Get(key); ok {
		metrics.RecordEncodeCacheHit()
		return v.([]float32), nil
	}
	metrics.RecordEncodeCacheMiss()

	vec, err := c.inner.Encode(ctx, text, purpose)
	if err != nil {
		return nil, err
	}
	c.cache.Set(key, vec, c.ttl)
	return vec, nil
}

func (c *Cached) key(text string, purpose embedding.Purpose) string {
	sum := sha256.Sum256([]byte(text))
	return string(purpose) + "|" + c.inner.Model() + "|" + hex.EncodeToString(sum[:])
}

// Dims implements embedding.Encoder.
func (c *Cached) Dims() int { return c.inner.Dims() }

// Model implements embedding.Encoder.
func (c *Cached) Model() string { return c.inner.Model() }
