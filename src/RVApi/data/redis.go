package data

import (
	"context"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	anchorConfirmedPrefix = "anchor:confirmed:"
	streamReviews         = "reviewverify.reviews"
)

func MustRedis(url string) *redis.Client {
	opt, err := redis.ParseURL(url)
	if err != nil {
		log.Fatalf("redis: %v", err)
	}
	return redis.NewClient(opt)
}

// ConfirmAnchor marks a ledger reference as settled. Written by the
// settlement watcher when the fingerprint shows up on-chain.
func ConfirmAnchor(ctx context.Context, rdb *redis.Client, ref string) error {
	return rdb.Set(ctx, anchorConfirmedPrefix+ref, "1", 24*time.Hour).Err()
}

// IsAnchorConfirmed reports whether the watcher has seen the reference
// settle. A miss is not authoritative; callers fall back to the gateway.
func IsAnchorConfirmed(ctx context.Context, rdb *redis.Client, ref string) bool {
	ok, err := rdb.Exists(ctx, anchorConfirmedPrefix+ref).Result()
	return err == nil && ok > 0
}

// PublishReviewEvent pushes an accepted review onto the event stream consumed
// by the notifier bot.
func PublishReviewEvent(ctx context.Context, rdb *redis.Client, payload map[string]interface{}) error {
	_, err := rdb.XAdd(ctx, &redis.XAddArgs{
		Stream: streamReviews,
		Values: payload,
	}).Result()
	return err
}

// ReviewStream returns the stream key the API publishes review events to.
func ReviewStream() string { return streamReviews }
