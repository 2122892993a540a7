// Package atom defines the term model shared by all parts of the system:
// symbols, variables, expressions and grounded host values, together with
// variable bindings and the structural matcher that produces them.
//
// Atoms are immutable value types. Mutating operations such as substitution
// always build new atoms and share unchanged subtrees.
package atom

import (
	"fmt"
	"hash/fnv"
	"iter"
	"strings"
)

// Atom is the universal term. Exactly four implementations exist: Symbol,
// Variable, Expression and Grounded.
type Atom interface {
	// Equal reports structural equality with another atom.
	Equal(other Atom) bool

	// String renders the atom in S-expression syntax.
	String() string

	// hashInto feeds the atom's structure into h for structural hashing.
	hashInto(h hashWriter)
}

type hashWriter interface {
	Write(p []byte) (int, error)
}

// Hash returns a structural hash of the atom. Equal atoms hash equally.
func Hash(a Atom) uint64 {
	h := fnv.New64a()
	a.hashInto(h)
	return h.Sum64()
}

// Symbol is an interned name compared by value.
type Symbol struct {
	name string
}

// NewSymbol creates a symbol atom with the given name.
func NewSymbol(name string) *Symbol {
	return &Symbol{name: name}
}

// Name returns the symbol's name.
func (s *Symbol) Name() string { return s.name }

func (s *Symbol) Equal(other Atom) bool {
	o, ok := other.(*Symbol)
	return ok && s.name == o.name
}

func (s *Symbol) String() string { return s.name }

func (s *Symbol) hashInto(h hashWriter) {
	h.Write([]byte{0x01})
	h.Write([]byte(s.name))
}

// Variable is a named placeholder. The id distinguishes fresh copies of the
// same source variable: two variables are equal only when both name and id
// match.
type Variable struct {
	name string
	id   uint64
}

// NewVariable creates a variable with the given name and id zero, the form
// produced by the reader.
func NewVariable(name string) *Variable {
	return &Variable{name: name}
}

// Name returns the variable's source name without the freshness id.
func (v *Variable) Name() string { return v.name }

func (v *Variable) Equal(other Atom) bool {
	o, ok := other.(*Variable)
	return ok && v.name == o.name && v.id == o.id
}

func (v *Variable) String() string {
	if v.id == 0 {
		return "$" + v.name
	}
	return fmt.Sprintf("$%s#%d", v.name, v.id)
}

func (v *Variable) hashInto(h hashWriter) {
	h.Write([]byte{0x02})
	h.Write([]byte(v.name))
	var buf [8]byte
	putUint64(buf[:], v.id)
	h.Write(buf[:])
}

func putUint64(b []byte, v uint64) {
	for i := 0; i < 8; i++ {
		b[i] = byte(v >> (8 * i))
	}
}

// key returns the comparable map key identifying this variable.
func (v *Variable) key() varKey { return varKey{name: v.name, id: v.id} }

type varKey struct {
	name string
	id   uint64
}

// Expression is an ordered sequence of child atoms, possibly empty.
type Expression struct {
	children []Atom
}

// NewExpression creates an expression atom from the given children. The
// slice is not copied; callers must not mutate it afterwards.
func NewExpression(children ...Atom) *Expression {
	return &Expression{children: children}
}

// Children returns the expression's children. The returned slice must be
// treated as read-only.
func (e *Expression) Children() []Atom { return e.children }

// Len returns the number of children.
func (e *Expression) Len() int { return len(e.children) }

func (e *Expression) Equal(other Atom) bool {
	o, ok := other.(*Expression)
	if !ok || len(e.children) != len(o.children) {
		return false
	}
	for i, c := range e.children {
		if !c.Equal(o.children[i]) {
			return false
		}
	}
	return true
}

func (e *Expression) String() string {
	var sb strings.Builder
	sb.WriteByte('(')
	for i, c := range e.children {
		if i > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteString(c.String())
	}
	sb.WriteByte(')')
	return sb.String()
}

func (e *Expression) hashInto(h hashWriter) {
	h.Write([]byte{0x03})
	for _, c := range e.children {
		c.hashInto(h)
	}
	h.Write([]byte{0x04})
}

// BindingsIter is a lazy sequence of match results.
type BindingsIter = iter.Seq[*Bindings]

// GroundedValue is the capability contract a host value must satisfy to be
// carried inside an atom. Optional capabilities are expressed by the
// CustomMatcher and Executable interfaces and probed by type assertion.
type GroundedValue interface {
	// GroundedType returns the type descriptor of the value, itself an atom.
	GroundedType() Atom

	// GroundedEqual reports equality with another grounded value.
	GroundedEqual(other GroundedValue) bool

	// String renders the value.
	String() string
}

// CustomMatcher is implemented by grounded values that define their own
// matching semantics instead of plain equality.
type CustomMatcher interface {
	// CustomMatch yields one bindings instance per way the value matches
	// the other atom. An empty sequence means no match.
	CustomMatch(other Atom) BindingsIter
}

// Executable is implemented by grounded values that can be applied to
// argument atoms by the interpreter.
type Executable interface {
	// Execute consumes the argument atoms and produces result atoms.
	Execute(args []Atom) ([]Atom, error)
}

// Grounded wraps an opaque host value as an atom.
type Grounded struct {
	value GroundedValue
}

// NewGrounded creates a grounded atom carrying the given host value.
func NewGrounded(value GroundedValue) *Grounded {
	return &Grounded{value: value}
}

// Value returns the wrapped host value.
func (g *Grounded) Value() GroundedValue { return g.value }

func (g *Grounded) Equal(other Atom) bool {
	o, ok := other.(*Grounded)
	return ok && g.value.GroundedEqual(o.value)
}

func (g *Grounded) String() string { return g.value.String() }

func (g *Grounded) hashInto(h hashWriter) {
	h.Write([]byte{0x05})
	h.Write([]byte(g.value.String()))
}

// S builds a symbol atom. Shorthand for tests and embedders.
func S(name string) *Symbol { return NewSymbol(name) }

// V builds a variable atom. Shorthand for tests and embedders.
func V(name string) *Variable { return NewVariable(name) }

// E builds an expression atom. Shorthand for tests and embedders.
func E(children ...Atom) *Expression { return NewExpression(children...) }

// G builds a grounded atom. Shorthand for tests and embedders.
func G(value GroundedValue) *Grounded { return NewGrounded(value) }
