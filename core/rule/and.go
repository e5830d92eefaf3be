package rule

import (
	"context"
	"slices"
)

// And passes when every sub-rule passes. Sub-rules are evaluated in the order
// given to NewAnd and evaluation stops at the first rule that fails or errors.
type And struct {
	rules []Rule
}

// NewAnd creates an And over rules. The slice is copied, so later changes to
// the caller's backing array do not affect the rule. An And without sub-rules
// always passes.
func NewAnd(rules ...Rule) *And {
	return &And{rules: slices.Clone(rules)}
}

// Check evaluates the sub-rules against id. An error from a sub-rule is
// returned as is.
func (a *And) Check(ctx context.Context, id Identifier) (bool, error) {
	for _, r := range a.rules {
		ok, err := r.Check(ctx, id)
		if err != nil {
			return false, err
		}
		if !ok {
			return false, nil
		}
	}
	return true, nil
}

// Rules returns a copy of the sub-rules in evaluation order.
func (a *And) Rules() []Rule {
	return slices.Clone(a.rules)
}
