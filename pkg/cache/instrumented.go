package cache

import (
	"context"
	"time"

	"github.com/matzehuels/stackscan/pkg/observability"
)

// Instrumented reports hits, misses and writes of the wrapped cache to
// the registered [observability.CacheHooks].
type Instrumented struct {
	Cache
}

// NewInstrumented wraps c. Wrapping a nil cache yields a [NullCache].
func NewInstrumented(c Cache) *Instrumented {
	if c == nil {
		c = NullCache{}
	}
	return &Instrumented{Cache: c}
}

// Get forwards to the wrapped cache and emits a hit or miss event.
func (c *Instrumented) Get(ctx context.Context, key string) ([]byte, bool, error) {
	data, ok, err := c.Cache.Get(ctx, key)
	if err == nil {
		if ok {
			observability.Cache().OnCacheHit(ctx, keyType(key))
		} else {
			observability.Cache().OnCacheMiss(ctx, keyType(key))
		}
	}
	return data, ok, err
}

// Set forwards to the wrapped cache and emits a write event.
func (c *Instrumented) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	if err := c.Cache.Set(ctx, key, data, ttl); err != nil {
		return err
	}
	observability.Cache().OnCacheSet(ctx, keyType(key), len(data))
	return nil
}

// Clear forwards to the wrapped cache when it supports clearing.
func (c *Instrumented) Clear(ctx context.Context) error {
	if cl, ok := c.Cache.(Clearer); ok {
		return cl.Clear(ctx)
	}
	return nil
}
