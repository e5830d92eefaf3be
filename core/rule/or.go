package rule

import (
	"context"
	"slices"
)

// Or passes when any sub-rule passes. Evaluation stops at the first rule that
// passes or errors. An Or without sub-rules never passes.
type Or struct {
	rules []Rule
}

// NewOr creates an Or over a copy of rules.
func NewOr(rules ...Rule) *Or {
	return &Or{rules: slices.Clone(rules)}
}

// Check evaluates the sub-rules against id.
func (o *Or) Check(ctx context.Context, id Identifier) (bool, error) {
	for _, r := range o.rules {
		ok, err := r.Check(ctx, id)
		if err != nil {
			return false, err
		}
		if ok {
			return true, nil
		}
	}
	return false, nil
}

// Rules returns a copy of the sub-rules in evaluation order.
func (o *Or) Rules() []Rule {
	return slices.Clone(o.rules)
}
