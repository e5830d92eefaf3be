// Package rule defines the rule capability evaluated by the limiter and the
// boolean combinators used to compose rules into trees.
package rule

import "context"

// Identifier is the subject a rule is checked against, e.g. a client ip or an
// api key. Combinators never inspect it; leaf rules use Key to address their
// counters.
type Identifier interface {
	Key() string
}

// Key is the plain string Identifier.
type Key string

// Key returns the string itself.
func (k Key) Key() string {
	return string(k)
}

// Rule reports whether an identifier passes. A non-nil error means the rule
// could not be evaluated; the boolean is meaningless in that case.
type Rule interface {
	Check(ctx context.Context, id Identifier) (bool, error)
}

// Func adapts an ordinary function to a Rule.
type Func func(ctx context.Context, id Identifier) (bool, error)

// Check calls f(ctx, id).
func (f Func) Check(ctx context.Context, id Identifier) (bool, error) {
	return f(ctx, id)
}

type constant bool

func (c constant) Check(context.Context, Identifier) (bool, error) {
	return bool(c), nil
}

var (
	// Allow passes every identifier.
	Allow Rule = constant(true)
	// Deny rejects every identifier.
	Deny Rule = constant(false)
)
