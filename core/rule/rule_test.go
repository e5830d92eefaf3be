package rule

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// countingRule records how many times it was evaluated.
type countingRule struct {
	result bool
	err    error
	calls  atomic.Int64
	seen   []Identifier
}

func (c *countingRule) Check(_ context.Context, id Identifier) (bool, error) {
	c.calls.Add(1)
	c.seen = append(c.seen, id)
	return c.result, c.err
}

func pass() *countingRule { return &countingRule{result: true} }
func fail() *countingRule { return &countingRule{result: false} }

func TestAndMatchesConjunction(t *testing.T) {
	tests := []struct {
		name   string
		values []bool
		want   bool
	}{
		{name: "single true", values: []bool{true}, want: true},
		{name: "single false", values: []bool{false}, want: false},
		{name: "all true", values: []bool{true, true, true}, want: true},
		{name: "last false", values: []bool{true, true, false}, want: false},
		{name: "first false", values: []bool{false, true, true}, want: false},
		{name: "mixed", values: []bool{true, false, true, false}, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rules := make([]Rule, len(tt.values))
			for i, v := range tt.values {
				rules[i] = &countingRule{result: v}
			}

			ok, err := NewAnd(rules...).Check(context.Background(), Key("client"))
			require.NoError(t, err)
			assert.Equal(t, tt.want, ok)
		})
	}
}

func TestAndShortCircuits(t *testing.T) {
	r1, r2, r3, r4 := pass(), pass(), fail(), pass()

	ok, err := NewAnd(r1, r2, r3, r4).Check(context.Background(), Key("any"))
	require.NoError(t, err)
	assert.False(t, ok)

	assert.EqualValues(t, 1, r1.calls.Load())
	assert.EqualValues(t, 1, r2.calls.Load())
	assert.EqualValues(t, 1, r3.calls.Load())
	assert.EqualValues(t, 0, r4.calls.Load(), "rules after the first failure must not run")
}

func TestAndOrderChangesEvaluatedRules(t *testing.T) {
	a, b, c := pass(), pass(), fail()
	ok, err := NewAnd(a, b, c).Check(context.Background(), Key("k"))
	require.NoError(t, err)
	assert.False(t, ok)
	assert.EqualValues(t, 1, a.calls.Load())
	assert.EqualValues(t, 1, b.calls.Load())

	a2, b2, c2 := pass(), pass(), fail()
	ok, err = NewAnd(c2, a2, b2).Check(context.Background(), Key("k"))
	require.NoError(t, err)
	assert.False(t, ok)
	assert.EqualValues(t, 1, c2.calls.Load())
	assert.EqualValues(t, 0, a2.calls.Load())
	assert.EqualValues(t, 0, b2.calls.Load())
}

func TestAndEmptyPasses(t *testing.T) {
	ok, err := NewAnd().Check(context.Background(), Key("k"))
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestAndPropagatesErrorUnchanged(t *testing.T) {
	boom := errors.New("counter store unavailable")
	first := pass()
	broken := &countingRule{err: boom}
	after := pass()

	ok, err := NewAnd(first, broken, after).Check(context.Background(), Key("k"))
	assert.False(t, ok)
	assert.Same(t, boom, err)
	assert.EqualValues(t, 0, after.calls.Load())
}

func TestAndPassesSameIdentifier(t *testing.T) {
	r1, r2 := pass(), pass()
	id := Key("203.0.113.7")

	_, err := NewAnd(r1, r2).Check(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, []Identifier{id}, r1.seen)
	assert.Equal(t, []Identifier{id}, r2.seen)
}

func TestAndCopiesRules(t *testing.T) {
	rules := []Rule{Allow, Allow}
	and := NewAnd(rules...)

	rules[1] = Deny

	ok, err := and.Check(context.Background(), Key("k"))
	require.NoError(t, err)
	assert.True(t, ok)

	got := and.Rules()
	got[0] = Deny
	ok, err = and.Check(context.Background(), Key("k"))
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestAndNests(t *testing.T) {
	inner := NewAnd(Allow, Allow)
	outer := NewAnd(inner, NewAnd(Allow, Deny))

	ok, err := outer.Check(context.Background(), Key("k"))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestOr(t *testing.T) {
	t.Run("short-circuits on first pass", func(t *testing.T) {
		r1, r2, r3 := fail(), pass(), pass()
		ok, err := NewOr(r1, r2, r3).Check(context.Background(), Key("k"))
		require.NoError(t, err)
		assert.True(t, ok)
		assert.EqualValues(t, 0, r3.calls.Load())
	})

	t.Run("all fail", func(t *testing.T) {
		ok, err := NewOr(Deny, Deny).Check(context.Background(), Key("k"))
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("empty fails", func(t *testing.T) {
		ok, err := NewOr().Check(context.Background(), Key("k"))
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("error propagates", func(t *testing.T) {
		boom := errors.New("boom")
		ok, err := NewOr(Deny, Func(func(context.Context, Identifier) (bool, error) {
			return true, boom
		})).Check(context.Background(), Key("k"))
		assert.False(t, ok)
		assert.Same(t, boom, err)
	})
}

func TestNot(t *testing.T) {
	ok, err := NewNot(Allow).Check(context.Background(), Key("k"))
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = NewNot(Deny).Check(context.Background(), Key("k"))
	require.NoError(t, err)
	assert.True(t, ok)

	boom := errors.New("boom")
	ok, err = NewNot(&countingRule{err: boom}).Check(context.Background(), Key("k"))
	assert.False(t, ok)
	assert.Same(t, boom, err)
}

func TestNamed(t *testing.T) {
	r := Named("burst", Deny)
	assert.Equal(t, "burst", NameOf(r))
	assert.Equal(t, "", NameOf(Allow))
	assert.Equal(t, Deny, r.Unwrap())

	ok, err := r.Check(context.Background(), Key("k"))
	require.NoError(t, err)
	assert.False(t, ok)
}
