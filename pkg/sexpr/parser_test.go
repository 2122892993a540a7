package sexpr

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amebel/metta-go/pkg/atom"
)

// markVal marks words consumed by a registered token.
type markVal string

func (m markVal) GroundedType() atom.Atom { return atom.NewSymbol("Mark") }

func (m markVal) GroundedEqual(other atom.GroundedValue) bool {
	o, ok := other.(markVal)
	return ok && m == o
}

func (m markVal) String() string { return string(m) }

func parseAll(t *testing.T, src string, tok *Tokenizer) []atom.Atom {
	t.Helper()
	p := NewParser(src, tok)
	var out []atom.Atom
	for {
		a, err := p.Parse()
		require.NoError(t, err)
		if a == nil {
			return out
		}
		out = append(out, a)
	}
}

func TestParseSymbol(t *testing.T) {
	got := parseAll(t, "foo", nil)
	require.Len(t, got, 1)
	assert.True(t, got[0].Equal(atom.S("foo")))
}

func TestParseVariable(t *testing.T) {
	got := parseAll(t, "$x", nil)
	require.Len(t, got, 1)
	assert.True(t, got[0].Equal(atom.V("x")))
}

func TestParseExpression(t *testing.T) {
	got := parseAll(t, "(+ $a (* $b c))", nil)
	require.Len(t, got, 1)
	want := atom.E(atom.S("+"), atom.V("a"), atom.E(atom.S("*"), atom.V("b"), atom.S("c")))
	assert.True(t, got[0].Equal(want), "got %s", got[0])
}

func TestParseEmptyExpression(t *testing.T) {
	got := parseAll(t, "()", nil)
	require.Len(t, got, 1)
	assert.True(t, got[0].Equal(atom.E()))
}

func TestParseMultipleAtoms(t *testing.T) {
	got := parseAll(t, "(a b) c $d", nil)
	require.Len(t, got, 3)
}

func TestParseSkipsComments(t *testing.T) {
	src := "; leading comment\n(a b) ; trailing\n; full line\nc"
	got := parseAll(t, src, nil)
	require.Len(t, got, 2)
	assert.True(t, got[0].Equal(atom.E(atom.S("a"), atom.S("b"))))
	assert.True(t, got[1].Equal(atom.S("c")))
}

func TestParseBangMarksEvaluation(t *testing.T) {
	got := parseAll(t, "!(f A)", nil)
	require.Len(t, got, 1)
	want := atom.E(BangSymbol, atom.E(atom.S("f"), atom.S("A")))
	assert.True(t, got[0].Equal(want))
}

func TestParseStringWithoutTokenFallsBackToSymbol(t *testing.T) {
	got := parseAll(t, `"hello world"`, nil)
	require.Len(t, got, 1)
	assert.True(t, got[0].Equal(atom.S(`"hello world"`)))
}

func TestParseStringEscapes(t *testing.T) {
	got := parseAll(t, `"a \" b"`, nil)
	require.Len(t, got, 1)
	assert.True(t, got[0].Equal(atom.S(`"a \" b"`)))
}

func TestTokenizerConstructsGroundedAtoms(t *testing.T) {
	tok := NewTokenizer()
	tok.RegisterToken(regexp.MustCompile(`\d+`), func(word string) (atom.Atom, error) {
		return atom.G(markVal(word)), nil
	})
	got := parseAll(t, "(f 42 x)", tok)
	require.Len(t, got, 1)
	expr := got[0].(*atom.Expression)
	assert.True(t, expr.Children()[1].Equal(atom.G(markVal("42"))))
	assert.True(t, expr.Children()[2].Equal(atom.S("x")), "non-matching words stay symbols")
}

func TestTokenizerLaterRegistrationWins(t *testing.T) {
	tok := NewTokenizer()
	tok.RegisterToken(regexp.MustCompile(`\d+`), func(word string) (atom.Atom, error) {
		return atom.G(markVal("old")), nil
	})
	tok.RegisterToken(regexp.MustCompile(`\d+`), func(word string) (atom.Atom, error) {
		return atom.G(markVal("new")), nil
	})
	got := parseAll(t, "7", tok)
	require.Len(t, got, 1)
	assert.True(t, got[0].Equal(atom.G(markVal("new"))))
}

func TestTokenizerRequiresFullWordMatch(t *testing.T) {
	tok := NewTokenizer()
	tok.RegisterToken(regexp.MustCompile(`\d+`), func(word string) (atom.Atom, error) {
		return atom.G(markVal(word)), nil
	})
	got := parseAll(t, "a1", tok)
	require.Len(t, got, 1)
	assert.True(t, got[0].Equal(atom.S("a1")))
}

func TestParseErrors(t *testing.T) {
	for _, src := range []string{"(a b", ")", "(a))", `"unterminated`, "!"} {
		p := NewParser(src, nil)
		var err error
		for {
			var a atom.Atom
			a, err = p.Parse()
			if err != nil || a == nil {
				break
			}
		}
		assert.Error(t, err, "source %q must fail", src)
	}
}

func TestTokenizerClone(t *testing.T) {
	tok := NewTokenizer()
	tok.RegisterToken(regexp.MustCompile(`\d+`), func(word string) (atom.Atom, error) {
		return atom.G(markVal(word)), nil
	})
	clone := tok.Clone()
	clone.RegisterToken(regexp.MustCompile(`x`), func(word string) (atom.Atom, error) {
		return atom.G(markVal("x")), nil
	})

	got := parseAll(t, "x", tok)
	require.Len(t, got, 1)
	assert.True(t, got[0].Equal(atom.S("x")), "clone registrations must not leak back")
}
