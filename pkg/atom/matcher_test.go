package atom

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// multiVal matches any atom twice, binding $m to it both times.
type multiVal struct{}

func (multiVal) GroundedType() Atom { return NewSymbol("MultiVal") }

func (multiVal) GroundedEqual(other GroundedValue) bool {
	_, ok := other.(multiVal)
	return ok
}

func (multiVal) String() string { return "multi" }

func (multiVal) CustomMatch(other Atom) BindingsIter {
	return func(yield func(*Bindings) bool) {
		for i := 0; i < 2; i++ {
			b := NewBindings()
			if b.Insert(V("m"), other) != nil {
				return
			}
			if !yield(b) {
				return
			}
		}
	}
}

func TestMatchSymbols(t *testing.T) {
	got := MatchAll(S("foo"), S("foo"))
	require.Len(t, got, 1)
	assert.True(t, got[0].IsEmpty())

	assert.Empty(t, MatchAll(S("foo"), S("bar")))
}

func TestMatchPatternVariable(t *testing.T) {
	got := MatchAll(S("foo"), V("x"))
	require.Len(t, got, 1)
	gx, ok := got[0].Get(V("x"))
	require.True(t, ok)
	assert.True(t, gx.Equal(S("foo")))
}

func TestMatchNestedExpression(t *testing.T) {
	data := E(S("+"), S("A"), E(S("*"), S("B"), S("C")))
	pattern := E(S("+"), V("a"), E(S("*"), V("b"), V("c")))
	got := MatchAll(data, pattern)
	require.Len(t, got, 1)
	for name, want := range map[string]Atom{"a": S("A"), "b": S("B"), "c": S("C")} {
		bound, ok := got[0].Get(V(name))
		require.True(t, ok, "missing %s", name)
		assert.True(t, bound.Equal(want))
	}
}

func TestMatchRejectsConflictingDoubleUse(t *testing.T) {
	data := E(S("+"), S("A"), E(S("*"), S("B"), S("C")))
	pattern := E(S("+"), V("a"), E(S("*"), V("a"), V("c")))
	assert.Empty(t, MatchAll(data, pattern))
}

func TestMatchDoubleUseAccepted(t *testing.T) {
	data := E(S("+"), S("A"), S("A"))
	pattern := E(S("+"), V("a"), V("a"))
	got := MatchAll(data, pattern)
	require.Len(t, got, 1)
	ga, _ := got[0].Get(V("a"))
	assert.True(t, ga.Equal(S("A")))
}

func TestMatchExpressionArityMustAgree(t *testing.T) {
	assert.Empty(t, MatchAll(E(S("f"), S("A")), E(S("f"), S("A"), V("x"))))
	assert.Empty(t, MatchAll(E(S("f"), S("A"), S("B")), E(S("f"), V("x"))))
}

func TestMatchPatternVariableHasPriority(t *testing.T) {
	data := MakeVariablesUnique(E(S("equals"), V("x"), V("x")))
	got := MatchAll(data, E(S("equals"), V("y"), V("z")))
	require.Len(t, got, 1)

	gy, ok := got[0].Get(V("y"))
	require.True(t, ok)
	gz, ok := got[0].Get(V("z"))
	require.True(t, ok)
	assert.IsType(t, &Variable{}, gy, "query variables must bind to the shared data variable")
	assert.IsType(t, &Variable{}, gz)
	assert.True(t, gy.Equal(gz))
}

func TestMatchQueryVariableThroughDataVariable(t *testing.T) {
	data := MakeVariablesUnique(E(V("x"), V("x")))
	got := MatchAll(data, E(V("y"), E(V("z"))))
	require.Len(t, got, 1)
	gy, ok := got[0].Get(V("y"))
	require.True(t, ok)
	assert.True(t, gy.Equal(E(V("z"))), "got %s", gy)
}

func TestMatchDataVariableResolvesIntoResult(t *testing.T) {
	data := MakeVariablesUnique(E(S("="), E(S("if"), S("True"), V("then")), V("then")))
	pattern := E(S("="), E(S("if"), S("True"), S("42")), V("X"))
	got := MatchAll(data, pattern)
	require.Len(t, got, 1)
	gx, ok := got[0].Get(V("X"))
	require.True(t, ok)
	assert.True(t, gx.Equal(S("42")))
}

func TestMatchOccursCheckOnSharedVariable(t *testing.T) {
	// The pattern variable would have to contain itself.
	data := E(S("f"), V("x"), E(S("g"), V("x")))
	pattern := E(S("f"), V("p"), E(S("g"), E(S("h"), V("p"))))
	assert.Empty(t, MatchAll(data, pattern))
}

func TestMatchGroundedEquality(t *testing.T) {
	assert.Len(t, MatchAll(G(testVal{1}), G(testVal{1})), 1)
	assert.Empty(t, MatchAll(G(testVal{1}), G(testVal{2})))
}

func TestMatchGroundedCustomMatcherFansOut(t *testing.T) {
	got := MatchAll(G(multiVal{}), S("foo"))
	require.Len(t, got, 2)
	for _, b := range got {
		gm, ok := b.Get(V("m"))
		require.True(t, ok)
		assert.True(t, gm.Equal(S("foo")))
	}
}

func TestMatchLazyStop(t *testing.T) {
	count := 0
	for range Match(G(multiVal{}), S("foo")) {
		count++
		break
	}
	assert.Equal(t, 1, count)
}

func TestUnifySymmetricVariables(t *testing.T) {
	res := Unify(V("x"), S("A"))
	require.NotNil(t, res)
	gx, ok := res.DataBindings.Get(V("x"))
	require.True(t, ok)
	assert.True(t, gx.Equal(S("A")))
	assert.True(t, res.PatternBindings.IsEmpty())

	res = Unify(S("A"), V("x"))
	require.NotNil(t, res)
	gx, ok = res.PatternBindings.Get(V("x"))
	require.True(t, ok)
	assert.True(t, gx.Equal(S("A")))
}

func TestUnifyBothSidesBind(t *testing.T) {
	res := Unify(E(S("f"), V("x"), S("B")), E(S("f"), S("A"), V("y")))
	require.NotNil(t, res)
	gx, _ := res.DataBindings.Get(V("x"))
	gy, _ := res.PatternBindings.Get(V("y"))
	assert.True(t, gx.Equal(S("A")))
	assert.True(t, gy.Equal(S("B")))
}

func TestUnifyFailure(t *testing.T) {
	assert.Nil(t, Unify(S("A"), S("B")))
	assert.Nil(t, Unify(E(S("f")), E(S("g"))))
	assert.Nil(t, Unify(E(S("f"), S("A")), S("A")))
}

func TestUnifyDefersGroundedCustomMatch(t *testing.T) {
	res := Unify(G(multiVal{}), E(S("f"), V("x")))
	require.NotNil(t, res)
	require.Len(t, res.Unifications, 1)
	assert.True(t, res.Unifications[0].Data.Equal(G(multiVal{})))
	assert.True(t, res.Unifications[0].Pattern.Equal(E(S("f"), V("x"))))
	assert.True(t, res.DataBindings.IsEmpty())
	assert.True(t, res.PatternBindings.IsEmpty())
}

func TestUnifyOccursCheck(t *testing.T) {
	assert.Nil(t, Unify(V("x"), E(S("f"), V("x"))))
}
