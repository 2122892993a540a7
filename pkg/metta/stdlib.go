package metta

import (
	"fmt"
	"regexp"
	"strconv"

	"github.com/amebel/metta-go/pkg/atom"
	"github.com/amebel/metta-go/pkg/sexpr"
)

// Grounded literal types produced by the standard tokens.

// Int is an integer literal.
type Int int64

// GroundedType returns the number type descriptor.
func (i Int) GroundedType() atom.Atom { return atom.NewSymbol("Number") }

// GroundedEqual compares numbers across integer and float
// representations.
func (i Int) GroundedEqual(other atom.GroundedValue) bool {
	switch o := other.(type) {
	case Int:
		return i == o
	case Float:
		return float64(i) == float64(o)
	default:
		return false
	}
}

func (i Int) String() string { return strconv.FormatInt(int64(i), 10) }

// Float is a floating point literal.
type Float float64

// GroundedType returns the number type descriptor.
func (f Float) GroundedType() atom.Atom { return atom.NewSymbol("Number") }

// GroundedEqual compares numbers across integer and float
// representations.
func (f Float) GroundedEqual(other atom.GroundedValue) bool {
	switch o := other.(type) {
	case Float:
		return f == o
	case Int:
		return float64(f) == float64(o)
	default:
		return false
	}
}

func (f Float) String() string { return strconv.FormatFloat(float64(f), 'g', -1, 64) }

// Str is a string literal.
type Str string

// GroundedType returns the string type descriptor.
func (s Str) GroundedType() atom.Atom { return atom.NewSymbol("String") }

// GroundedEqual compares string values.
func (s Str) GroundedEqual(other atom.GroundedValue) bool {
	o, ok := other.(Str)
	return ok && s == o
}

func (s Str) String() string { return strconv.Quote(string(s)) }

// groundedOp is a named executable operation.
type groundedOp struct {
	name string
	fn   func(args []atom.Atom) ([]atom.Atom, error)
}

func (op *groundedOp) GroundedType() atom.Atom { return atom.NewSymbol("Function") }

func (op *groundedOp) GroundedEqual(other atom.GroundedValue) bool {
	o, ok := other.(*groundedOp)
	return ok && op.name == o.name
}

func (op *groundedOp) String() string { return op.name }

func (op *groundedOp) Execute(args []atom.Atom) ([]atom.Atom, error) {
	return op.fn(args)
}

// Boolean result symbols.
var (
	TrueSymbol  = atom.NewSymbol("True")
	FalseSymbol = atom.NewSymbol("False")
)

func boolAtom(v bool) atom.Atom {
	if v {
		return TrueSymbol
	}
	return FalseSymbol
}

// number extracts the numeric value of a grounded literal.
func number(a atom.Atom) (int64, float64, bool, error) {
	g, ok := a.(*atom.Grounded)
	if !ok {
		return 0, 0, false, fmt.Errorf("%s is not a number", a)
	}
	switch v := g.Value().(type) {
	case Int:
		return int64(v), float64(v), true, nil
	case Float:
		return 0, float64(v), false, nil
	default:
		return 0, 0, false, fmt.Errorf("%s is not a number", a)
	}
}

type num struct {
	i     int64
	f     float64
	isInt bool
}

// binaryNumbers validates a two-argument numeric call.
func binaryNumbers(name string, args []atom.Atom) (num, num, error) {
	var l, r num
	if len(args) != 2 {
		return l, r, fmt.Errorf("%s expects 2 arguments, got %d", name, len(args))
	}
	var err error
	l.i, l.f, l.isInt, err = number(args[0])
	if err != nil {
		return l, r, err
	}
	r.i, r.f, r.isInt, err = number(args[1])
	return l, r, err
}

// arith builds an arithmetic operation that stays integral when both
// arguments are integers.
func arith(name string, intFn func(a, b int64) (int64, error), floatFn func(a, b float64) float64) *groundedOp {
	return &groundedOp{name: name, fn: func(args []atom.Atom) ([]atom.Atom, error) {
		l, r, err := binaryNumbers(name, args)
		if err != nil {
			return nil, err
		}
		if l.isInt && r.isInt {
			v, err := intFn(l.i, r.i)
			if err != nil {
				return nil, err
			}
			return []atom.Atom{atom.NewGrounded(Int(v))}, nil
		}
		return []atom.Atom{atom.NewGrounded(Float(floatFn(l.f, r.f)))}, nil
	}}
}

// compare builds a numeric comparison operation.
func compare(name string, fn func(a, b float64) bool) *groundedOp {
	return &groundedOp{name: name, fn: func(args []atom.Atom) ([]atom.Atom, error) {
		l, r, err := binaryNumbers(name, args)
		if err != nil {
			return nil, err
		}
		return []atom.Atom{boolAtom(fn(l.f, r.f))}, nil
	}}
}

var (
	intPattern    = regexp.MustCompile(`[+-]?\d+`)
	floatPattern  = regexp.MustCompile(`[+-]?\d+\.\d*(?:[eE][+-]?\d+)?`)
	stringPattern = regexp.MustCompile(`"(?:\\.|[^"\\])*"`)
)

// registerStdTokens installs the literal tokens and the arithmetic and
// comparison operations on the tokenizer.
func registerStdTokens(tok *sexpr.Tokenizer) {
	tok.RegisterToken(intPattern, func(word string) (atom.Atom, error) {
		v, err := strconv.ParseInt(word, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("parse integer %q: %w", word, err)
		}
		return atom.NewGrounded(Int(v)), nil
	})
	tok.RegisterToken(floatPattern, func(word string) (atom.Atom, error) {
		v, err := strconv.ParseFloat(word, 64)
		if err != nil {
			return nil, fmt.Errorf("parse float %q: %w", word, err)
		}
		return atom.NewGrounded(Float(v)), nil
	})
	tok.RegisterToken(stringPattern, func(word string) (atom.Atom, error) {
		v, err := strconv.Unquote(word)
		if err != nil {
			return nil, fmt.Errorf("parse string %s: %w", word, err)
		}
		return atom.NewGrounded(Str(v)), nil
	})

	ops := []*groundedOp{
		arith("+", func(a, b int64) (int64, error) { return a + b, nil },
			func(a, b float64) float64 { return a + b }),
		arith("-", func(a, b int64) (int64, error) { return a - b, nil },
			func(a, b float64) float64 { return a - b }),
		arith("*", func(a, b int64) (int64, error) { return a * b, nil },
			func(a, b float64) float64 { return a * b }),
		arith("/", func(a, b int64) (int64, error) {
			if b == 0 {
				return 0, fmt.Errorf("division by zero")
			}
			return a / b, nil
		}, func(a, b float64) float64 { return a / b }),
		compare("<", func(a, b float64) bool { return a < b }),
		compare(">", func(a, b float64) bool { return a > b }),
		{name: "==", fn: func(args []atom.Atom) ([]atom.Atom, error) {
			if len(args) != 2 {
				return nil, fmt.Errorf("== expects 2 arguments, got %d", len(args))
			}
			return []atom.Atom{boolAtom(args[0].Equal(args[1]))}, nil
		}},
	}
	for _, op := range ops {
		op := op
		word := regexp.QuoteMeta(op.name)
		tok.RegisterToken(regexp.MustCompile(word), func(string) (atom.Atom, error) {
			return atom.NewGrounded(op), nil
		})
	}
}
