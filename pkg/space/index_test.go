package space

import (
	"sort"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amebel/metta-go/pkg/atom"
)

// intVal is a grounded placeholder for index tests; grounded atoms are
// indexed as wildcards.
type intVal int

func (v intVal) GroundedType() atom.Atom { return atom.NewSymbol("Int") }

func (v intVal) GroundedEqual(other atom.GroundedValue) bool {
	o, ok := other.(intVal)
	return ok && v == o
}

func (v intVal) String() string { return "int" }

func collectSorted(ix *index[int], pattern atom.Atom) []int {
	seen := make(map[int]struct{})
	for p := range ix.get(pattern) {
		seen[p] = struct{}{}
	}
	out := make([]int, 0, len(seen))
	for p := range seen {
		out = append(out, p)
	}
	sort.Ints(out)
	return out
}

func TestKeysFromAtomSpans(t *testing.T) {
	// ((A) B) linearizes to six keys; the outer span covers everything
	// after the outer begin, the inner span covers the inner content.
	keys := keysFromAtom(atom.E(atom.E(atom.S("A")), atom.S("B")))
	require.Len(t, keys, 6)

	outer := keys[len(keys)-1]
	assert.Equal(t, keyExprBegin, outer.kind)
	assert.Equal(t, 5, outer.span)

	inner := keys[len(keys)-2]
	assert.Equal(t, keyExprBegin, inner.kind)
	assert.Equal(t, 2, inner.span)
}

func TestKeysFromAtomWildcards(t *testing.T) {
	assert.Equal(t, keyWildcard, keysFromAtom(atom.V("x"))[0].kind)
	assert.Equal(t, keyWildcard, keysFromAtom(atom.G(intVal(1)))[0].kind)
	assert.Equal(t, keySymbol, keysFromAtom(atom.S("A"))[0].kind)
}

func TestIndexBasicRetrieval(t *testing.T) {
	ix := newIndex[int]()
	ix.add(atom.S("A"), 1)
	ix.add(atom.G(intVal(1)), 2)
	ix.add(atom.V("a"), 3)
	ix.add(atom.E(atom.S("A"), atom.S("B")), 4)

	// Grounded atoms are wildcards both when stored and when queried.
	if diff := cmp.Diff([]int{1, 2, 3}, collectSorted(ix, atom.S("A"))); diff != "" {
		t.Errorf("get(A) mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]int{2, 3}, collectSorted(ix, atom.S("B"))); diff != "" {
		t.Errorf("get(B) mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]int{1, 2, 3, 4}, collectSorted(ix, atom.G(intVal(1)))); diff != "" {
		t.Errorf("get(grounded) mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]int{2, 3, 4}, collectSorted(ix, atom.E(atom.S("A"), atom.S("B")))); diff != "" {
		t.Errorf("get((A B)) mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]int{2, 3}, collectSorted(ix, atom.E(atom.S("A"), atom.S("C")))); diff != "" {
		t.Errorf("get((A C)) mismatch (-want +got):\n%s", diff)
	}
}

func TestIndexExpressionFanOut(t *testing.T) {
	ix := newIndex[int]()
	ix.add(atom.E(atom.E(atom.S("A")), atom.S("B")), 1)
	ix.add(atom.E(atom.V("a"), atom.S("C")), 2)

	assert.Equal(t, []int{1}, collectSorted(ix, atom.E(atom.V("a"), atom.S("B"))))
	assert.Equal(t, []int{2}, collectSorted(ix, atom.E(atom.E(atom.S("A")), atom.S("C"))))
}

func TestIndexVariablePatternReachesEverything(t *testing.T) {
	ix := newIndex[int]()
	ix.add(atom.S("A"), 1)
	ix.add(atom.E(atom.S("f"), atom.S("B")), 2)
	ix.add(atom.V("v"), 3)

	assert.Equal(t, []int{1, 2, 3}, collectSorted(ix, atom.V("q")))
}

func TestIndexRemove(t *testing.T) {
	ix := newIndex[int]()
	a := atom.E(atom.S("f"), atom.V("x"))
	ix.add(a, 7)

	require.True(t, ix.remove(a, 7))
	assert.False(t, ix.remove(a, 7), "second removal must report a miss")
	assert.Empty(t, collectSorted(ix, a))
}

func TestIndexRemoveDistinguishesPayloads(t *testing.T) {
	ix := newIndex[int]()
	a := atom.S("A")
	ix.add(a, 1)
	ix.add(a, 2)

	require.True(t, ix.remove(a, 1))
	assert.Equal(t, []int{2}, collectSorted(ix, a))
}

func TestIndexDuplicatePayloadsTolerated(t *testing.T) {
	// An expression stored under a wildcard-duplicated path may be
	// yielded more than once; callers dedupe.
	ix := newIndex[int]()
	ix.add(atom.E(atom.E(atom.S("A")), atom.S("B")), 1)

	var raw []int
	for p := range ix.get(atom.V("q")) {
		raw = append(raw, p)
	}
	assert.GreaterOrEqual(t, len(raw), 1)
	assert.Equal(t, []int{1}, collectSorted(ix, atom.V("q")))
}
