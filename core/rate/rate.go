// Package rate provides redis backed limiters usable as leaf rules.
package rate

import (
	"context"
	"time"

	"github.com/kochabx/ratelimit/core/rule"
)

// Limiter consumes n units for key at time t. It reports false without
// consuming anything when the key is over its limit.
type Limiter interface {
	AllowN(ctx context.Context, key string, t time.Time, n int) (bool, error)
}

// Option configures a limiter.
type Option func(*options)

type options struct {
	now func() time.Time
}

// WithClock replaces time.Now, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		o.now = now
	}
}

func newOptions(opts []Option) options {
	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// bucketKey wraps prefix and identifier in a hash tag so every key a script
// derives from it maps to the same cluster slot.
func bucketKey(prefix string, id rule.Identifier) string {
	return "{" + prefix + ":" + id.Key() + "}"
}
