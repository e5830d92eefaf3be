package rule

import "context"

// NamedRule attaches a name to a rule for logs and metrics. Check delegates
// to the wrapped rule unchanged.
type NamedRule struct {
	name string
	rule Rule
}

func Named(name string, r Rule) *NamedRule {
	return &NamedRule{name: name, rule: r}
}

func (n *NamedRule) Name() string {
	return n.name
}

func (n *NamedRule) Unwrap() Rule {
	return n.rule
}

func (n *NamedRule) Check(ctx context.Context, id Identifier) (bool, error) {
	return n.rule.Check(ctx, id)
}

// NameOf returns the name attached with Named, or "" for anonymous rules.
func NameOf(r Rule) string {
	if n, ok := r.(*NamedRule); ok {
		return n.name
	}
	return ""
}
