package classifier

import (
	"context"
	"testing"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veritrust/review-verify/src/RVApi/types"
)

type countingClient struct {
	calls  int
	result Result
}

func (c *countingClient) Analyze(ctx context.Context, text string) (*Result, error) {
	c.calls++
	r := c.result
	return &r, nil
}

func TestCacheKeyDeterminism(t *testing.T) {
	assert.Equal(t, cacheKey("same text"), cacheKey("same text"))
	assert.NotEqual(t, cacheKey("same text"), cacheKey("other text"))
}

func TestCachedPassThroughWhenRedisDown(t *testing.T) {
	// nothing listens here; both the read and the write-back fail and the
	// inner client's result must still come through
	rdb := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", MaxRetries: -1})
	inner := &countingClient{result: Result{FakeProbability: 12, Label: types.LabelReal}}
	cached := NewCached(inner, rdb)

	res, err := cached.Analyze(context.Background(), "review text")
	require.NoError(t, err)
	assert.Equal(t, types.LabelReal, res.Label)
	assert.Equal(t, 12, res.FakeProbability)
	assert.Equal(t, 1, inner.calls)
}
