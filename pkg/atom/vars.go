package atom

import "sync/atomic"

// freshCounter feeds MakeVariablesUnique. Ids start at 1 so that id zero
// stays reserved for variables as written in source text.
var freshCounter atomic.Uint64

// nextVariableID returns a process-unique freshness id.
func nextVariableID() uint64 {
	return freshCounter.Add(1)
}

// NewFreshVariable creates a variable with the given name and a fresh id,
// distinct from every variable produced so far.
func NewFreshVariable(name string) *Variable {
	return &Variable{name: name, id: nextVariableID()}
}

// MakeVariablesUnique returns a copy of a in which every variable has been
// renamed with a fresh id. Occurrences of the same variable within a are
// renamed consistently. Stored atoms are renamed this way before matching so
// their variables cannot be captured by identically named query variables.
func MakeVariablesUnique(a Atom) Atom {
	renamed := make(map[varKey]*Variable)
	return renameVariables(a, renamed)
}

func renameVariables(a Atom, renamed map[varKey]*Variable) Atom {
	switch t := a.(type) {
	case *Variable:
		if fresh, ok := renamed[t.key()]; ok {
			return fresh
		}
		fresh := &Variable{name: t.name, id: nextVariableID()}
		renamed[t.key()] = fresh
		return fresh
	case *Expression:
		changed := false
		children := make([]Atom, len(t.children))
		for i, c := range t.children {
			children[i] = renameVariables(c, renamed)
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

// CollectVariables gathers every variable occurring in a. The result keeps
// first-occurrence order and contains each variable once.
func CollectVariables(a Atom) []*Variable {
	seen := make(map[varKey]struct{})
	var vars []*Variable
	var walk func(Atom)
	walk = func(a Atom) {
		switch t := a.(type) {
		case *Variable:
			if _, ok := seen[t.key()]; !ok {
				seen[t.key()] = struct{}{}
				vars = append(vars, t)
			}
		case *Expression:
			for _, c := range t.children {
				walk(c)
			}
		}
	}
	walk(a)
	return vars
}

// ContainsVariable reports whether v occurs anywhere inside a.
func ContainsVariable(a Atom, v *Variable) bool {
	switch t := a.(type) {
	case *Variable:
		return t.Equal(v)
	case *Expression:
		for _, c := range t.children {
			if ContainsVariable(c, v) {
				return true
			}
		}
	}
	return false
}
