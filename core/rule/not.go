package rule

import "context"

// Not inverts a rule.
type Not struct {
	rule Rule
}

func NewNot(r Rule) *Not {
	return &Not{rule: r}
}

func (n *Not) Check(ctx context.Context, id Identifier) (bool, error) {
	ok, err := n.rule.Check(ctx, id)
	if err != nil {
		return false, err
	}
	return !ok, nil
}

// Rule returns the inverted rule.
func (n *Not) Rule() Rule {
	return n.rule
}
