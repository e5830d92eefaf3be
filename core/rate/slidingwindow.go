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
	//go:embed slidingwindow.lua
	slidingWindowLua       string
	slidingWindowLuaScript = redis.NewScript(slidingWindowLua)
)

// SlidingWindow allows limit requests per window seconds. The previous
// window's count is weighted by how much of it still overlaps the sliding
// window, which smooths the burst at fixed window boundaries.
type SlidingWindow struct {
	client redis.UniversalClient
	prefix string
	window int
	limit  int
	script *redis.Script
	opts   options
}

var (
	_ Limiter   = (*SlidingWindow)(nil)
	_ rule.Rule = (*SlidingWindow)(nil)
)

func NewSlidingWindow(client redis.UniversalClient, prefix string, window, limit int, opts ...Option) *SlidingWindow {
	return &SlidingWindow{
		client: client,
		prefix: prefix,
		window: window,
		limit:  limit,
		script: slidingWindowLuaScript,
		opts:   newOptions(opts),
	}
}

// Check counts one request for id.
func (limiter *SlidingWindow) Check(ctx context.Context, id rule.Identifier) (bool, error) {
	return limiter.AllowN(ctx, bucketKey(limiter.prefix, id), limiter.opts.now(), 1)
}

func (limiter *SlidingWindow) AllowN(ctx context.Context, key string, t time.Time, n int) (bool, error) {
	result, err := limiter.script.Run(ctx, limiter.client, []string{key}, limiter.window, limiter.limit, t.Unix(), n).Int64()
	if err != nil {
		return false, fmt.Errorf("sliding window %s: %w", key, err)
	}
	return result == 1, nil
}

func (limiter *SlidingWindow) String() string {
	return fmt.Sprintf("sliding_window(window=%ds, limit=%d)", limiter.window, limiter.limit)
}
