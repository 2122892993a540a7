package atom

import (
	"errors"
	"strings"
)

// Binding errors returned by Insert and Merge helpers.
var (
	// ErrOccursCheck reports that a variable would appear inside its own
	// binding target.
	ErrOccursCheck = errors.New("variable occurs in its own binding")

	// ErrConflict reports that a variable is already bound to an atom that
	// cannot be unified with the new one.
	ErrConflict = errors.New("conflicting binding")
)

// Bindings is a finite map from variables to atoms. It is kept
// self-consistent at all times: applying the bindings to any of its own
// values is a fixed point, no variable maps to itself, and no variable
// occurs inside its own target.
type Bindings struct {
	order []*Variable
	m     map[varKey]Atom
}

// NewBindings creates an empty bindings instance.
func NewBindings() *Bindings {
	return &Bindings{m: make(map[varKey]Atom)}
}

// Len returns the number of bound variables.
func (b *Bindings) Len() int { return len(b.m) }

// IsEmpty reports whether no variable is bound.
func (b *Bindings) IsEmpty() bool { return len(b.m) == 0 }

// Get returns the atom bound to v, if any. The lookup is exact; use Apply
// for transitive resolution.
func (b *Bindings) Get(v *Variable) (Atom, bool) {
	a, ok := b.m[v.key()]
	return a, ok
}

// Variables returns the bound variables in insertion order.
func (b *Bindings) Variables() []*Variable {
	vars := make([]*Variable, len(b.order))
	copy(vars, b.order)
	return vars
}

// Clone returns an independent copy.
func (b *Bindings) Clone() *Bindings {
	c := &Bindings{
		order: make([]*Variable, len(b.order)),
		m:     make(map[varKey]Atom, len(b.m)),
	}
	copy(c.order, b.order)
	for k, v := range b.m {
		c.m[k] = v
	}
	return c
}

// Apply substitutes every bound variable occurring in a by its target and
// returns the resulting atom. Unbound variables pass through. Unchanged
// subtrees are shared, not copied.
func (b *Bindings) Apply(a Atom) Atom {
	if len(b.m) == 0 {
		return a
	}
	switch t := a.(type) {
	case *Variable:
		if target, ok := b.m[t.key()]; ok {
			// Targets are fully resolved by construction, but a target
			// may itself be a variable bound later; chase it.
			if _, isVar := target.(*Variable); isVar {
				return b.applyVarChain(target, 0)
			}
			return b.Apply(target)
		}
		return t
	case *Expression:
		changed := false
		children := make([]Atom, len(t.children))
		for i, c := range t.children {
			children[i] = b.Apply(c)
			if children[i] != c {
				changed = true
			}
		}
		if !changed {
			return t
		}
		return &Expression{children: children}
	default:
		return a
	}
}

// applyVarChain follows variable-to-variable links with a hop limit as a
// guard against a corrupted map.
func (b *Bindings) applyVarChain(a Atom, depth int) Atom {
	v, ok := a.(*Variable)
	if !ok {
		return b.Apply(a)
	}
	if depth > len(b.m) {
		return v
	}
	if target, ok := b.m[v.key()]; ok {
		return b.applyVarChain(target, depth+1)
	}
	return v
}

// Insert adds the constraint v = a. It fails with ErrOccursCheck when v
// would occur inside its own resolved target and with ErrConflict when v is
// already bound to a non-unifiable atom. On success the bindings remain
// self-consistent.
func (b *Bindings) Insert(v *Variable, a Atom) error {
	return b.addConstraint(v, a)
}

// addConstraint unifies the pair (x, y) into the bindings using a worklist
// of pending sub-pairs.
func (b *Bindings) addConstraint(x, y Atom) error {
	type pair struct{ x, y Atom }
	work := []pair{{x, y}}
	for len(work) > 0 {
		p := work[len(work)-1]
		work = work[:len(work)-1]

		px := b.Apply(p.x)
		py := b.Apply(p.y)
		if px.Equal(py) {
			continue
		}
		if v, ok := px.(*Variable); ok {
			if ContainsVariable(py, v) {
				return ErrOccursCheck
			}
			if err := b.set(v, py); err != nil {
				return err
			}
			continue
		}
		if v, ok := py.(*Variable); ok {
			if ContainsVariable(px, v) {
				return ErrOccursCheck
			}
			if err := b.set(v, px); err != nil {
				return err
			}
			continue
		}
		ex, okx := px.(*Expression)
		ey, oky := py.(*Expression)
		if okx && oky && len(ex.children) == len(ey.children) {
			for i := range ex.children {
				work = append(work, pair{ex.children[i], ey.children[i]})
			}
			continue
		}
		return ErrConflict
	}
	return nil
}

// set records v -> target and re-closes the map so every stored value stays
// fully resolved.
func (b *Bindings) set(v *Variable, target Atom) error {
	if _, ok := b.m[v.key()]; !ok {
		b.order = append(b.order, v)
	}
	b.m[v.key()] = target
	for k, val := range b.m {
		resolved := b.Apply(val)
		if resolved != val {
			b.m[k] = resolved
		}
	}
	for _, bv := range b.order {
		if ContainsVariable(b.m[bv.key()], bv) {
			return ErrOccursCheck
		}
	}
	return nil
}

// Merge combines two bindings. It returns nil when a shared variable is
// constrained to non-unifiable atoms. The result is the self-consistent
// closure of the union and is independent of both inputs.
func Merge(b1, b2 *Bindings) *Bindings {
	if b1 == nil || b2 == nil {
		return nil
	}
	out := b1.Clone()
	for _, v := range b2.order {
		target := b2.m[v.key()]
		if err := out.Insert(v, target); err != nil {
			return nil
		}
	}
	return out
}

// ApplyToBindings rewrites every value of dst through src and returns the
// result. It fails with ErrOccursCheck when the rewrite makes a variable
// appear inside its own target.
func ApplyToBindings(src, dst *Bindings) (*Bindings, error) {
	out := &Bindings{
		order: make([]*Variable, len(dst.order)),
		m:     make(map[varKey]Atom, len(dst.m)),
	}
	copy(out.order, dst.order)
	for _, v := range dst.order {
		resolved := src.Apply(dst.m[v.key()])
		if ContainsVariable(resolved, v) {
			return nil, ErrOccursCheck
		}
		out.m[v.key()] = resolved
	}
	return out, nil
}

// Filter removes every binding the predicate rejects.
func (b *Bindings) Filter(keep func(v *Variable, target Atom) bool) {
	kept := b.order[:0]
	for _, v := range b.order {
		if keep(v, b.m[v.key()]) {
			kept = append(kept, v)
		} else {
			delete(b.m, v.key())
		}
	}
	b.order = kept
}

// Equal reports whether both bindings contain exactly the same constraints,
// ignoring insertion order.
func (b *Bindings) Equal(other *Bindings) bool {
	if b == nil || other == nil {
		return b == other
	}
	if len(b.m) != len(other.m) {
		return false
	}
	for k, v := range b.m {
		ov, ok := other.m[k]
		if !ok || !v.Equal(ov) {
			return false
		}
	}
	return true
}

func (b *Bindings) String() string {
	var sb strings.Builder
	sb.WriteByte('{')
	for i, v := range b.order {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(v.String())
		sb.WriteString(" <- ")
		sb.WriteString(b.m[v.key()].String())
	}
	sb.WriteByte('}')
	return sb.String()
}
