package rate

import (
	"context"
	_ "embed"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/kochabx/ratelimit/core/rule"
)

var (
	//go:embed tokenbucket.lua
	tokenBucketLua       string
	tokenBucketLuaScript = redis.NewScript(tokenBucketLua)
)

// TokenBucket holds up to capacity tokens per key and refills rate tokens
// per second.
type TokenBucket struct {
	client   redis.UniversalClient
	prefix   string
	capacity int
	rate     int
	script   *redis.Script
	opts     options
}

var (
	_ Limiter   = (*TokenBucket)(nil)
	_ rule.Rule = (*TokenBucket)(nil)
)

func NewTokenBucket(client redis.UniversalClient, prefix string, capacity, rate int, opts ...Option) *TokenBucket {
	return &TokenBucket{
		client:   client,
		prefix:   prefix,
		capacity: capacity,
		rate:     rate,
		script:   tokenBucketLuaScript,
		opts:     newOptions(opts),
	}
}

// Check takes one token from id's bucket.
func (lim *TokenBucket) Check(ctx context.Context, id rule.Identifier) (bool, error) {
	return lim.AllowN(ctx, bucketKey(lim.prefix, id), lim.opts.now(), 1)
}

func (lim *TokenBucket) AllowN(ctx context.Context, key string, t time.Time, n int) (bool, error) {
	result, err := lim.script.Run(ctx, lim.client, []string{key}, lim.capacity, lim.rate, t.Unix(), n).Int64()
	if err != nil {
		return false, fmt.Errorf("token bucket %s: %w", key, err)
	}
	return result == 1, nil
}

func (lim *TokenBucket) String() string {
	return fmt.Sprintf("token_bucket(capacity=%d, rate=%d/s)", lim.capacity, lim.rate)
}
