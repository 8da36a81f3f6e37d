package classifier

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/OneOfOne/xxhash"
	"github.com/redis/go-redis/v9"
)

const cacheTTL = 6 * time.Hour

// Cached memoizes classifier results in redis. Identical text resubmitted
// within the TTL (retries, duplicate attempts) skips the model call. The key
// is a cheap xxhash of the text; the cryptographic fingerprint stays the
// pipeline's concern.
type Cached struct {
	inner Client
	rdb   *redis.Client
}

func NewCached(inner Client, rdb *redis.Client) *Cached {
	return &Cached{inner: inner, rdb: rdb}
}

func cacheKey(text string) string {
	h := xxhash.NewS64(0)
	_, _ = h.WriteString(text)
	return fmt.Sprintf("classifier:%016x", h.Sum64())
}

func (c *Cached) Analyze(ctx context.Context, text string) (*Result, error) {
	key := cacheKey(text)

	if raw, err := c.rdb.Get(ctx, key).Bytes(); err == nil {
		var res Result
		if err := json.Unmarshal(raw, &res); err == nil {
			return &res, nil
		}
	}

	res, err := c.inner.Analyze(ctx, text)
	if err != nil {
		return nil, err
	}

	// fallback results are never cached
	if raw, err := json.Marshal(res); err == nil {
		_ = c.rdb.Set(ctx, key, raw, cacheTTL).Err()
	}
	return res, nil
}
