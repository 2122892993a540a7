package atom

// matchState carries the two binding sides built up during a structural
// descent. Pattern bindings hold query variables, data bindings hold
// variables that occur in the stored atom.
type matchState struct {
	data    *Bindings
	pattern *Bindings
}

// Match performs asymmetric matching of pattern against data and yields one
// bindings instance per way they match. Pattern variables bind to data
// sub-terms; variables inside data bind on the data side and are resolved
// into the yielded result. Callers are expected to rename data variables
// fresh beforehand when capture must be avoided. An empty sequence means no
// match.
func Match(data, pattern Atom) BindingsIter {
	return func(yield func(*Bindings) bool) {
		states := matchRec(data, pattern, &matchState{data: NewBindings(), pattern: NewBindings()})
		for _, st := range states {
			closed, err := ApplyToBindings(st.data, st.pattern)
			if err != nil {
				continue
			}
			if !yield(closed) {
				return
			}
		}
	}
}

// MatchAll collects every result of Match into a slice.
func MatchAll(data, pattern Atom) []*Bindings {
	var out []*Bindings
	for b := range Match(data, pattern) {
		out = append(out, b)
	}
	return out
}

// matchRec descends both atoms in lock step. It returns every surviving
// state; an empty slice means the branch failed. Pattern variables take
// priority over data variables so that a query variable ends up bound even
// when the stored atom has a variable at the same position.
func matchRec(data, pattern Atom, st *matchState) []*matchState {
	if pv, ok := pattern.(*Variable); ok {
		if err := st.pattern.Insert(pv, data); err != nil {
			return nil
		}
		return []*matchState{st}
	}
	if dv, ok := data.(*Variable); ok {
		if err := st.data.Insert(dv, pattern); err != nil {
			return nil
		}
		return []*matchState{st}
	}
	switch d := data.(type) {
	case *Symbol:
		if d.Equal(pattern) {
			return []*matchState{st}
		}
		return nil
	case *Grounded:
		if custom, ok := d.value.(CustomMatcher); ok {
			var states []*matchState
			for b := range custom.CustomMatch(pattern) {
				merged := Merge(st.pattern, b)
				if merged == nil {
					continue
				}
				states = append(states, &matchState{data: st.data.Clone(), pattern: merged})
			}
			return states
		}
		if d.Equal(pattern) {
			return []*matchState{st}
		}
		return nil
	case *Expression:
		pe, ok := pattern.(*Expression)
		if !ok || len(d.children) != len(pe.children) {
			return nil
		}
		states := []*matchState{st}
		for i := range d.children {
			var next []*matchState
			for _, s := range states {
				next = append(next, matchRec(d.children[i], pe.children[i], s)...)
			}
			if len(next) == 0 {
				return nil
			}
			states = next
		}
		return states
	default:
		return nil
	}
}

// Unification is a pair whose resolution was deferred because one side is a
// grounded atom with custom match semantics.
type Unification struct {
	Data    Atom
	Pattern Atom
}

// UnifyResult holds the outcome of symmetric unification: bindings for
// variables on the data side, bindings for variables on the pattern side,
// and residual pairs left for the caller to resolve.
type UnifyResult struct {
	DataBindings    *Bindings
	PatternBindings *Bindings
	Unifications    []Unification
}

// Unify performs symmetric unification of data and pattern. Variables on
// either side may bind. It returns nil when the atoms cannot be unified.
func Unify(data, pattern Atom) *UnifyResult {
	res := &UnifyResult{
		DataBindings:    NewBindings(),
		PatternBindings: NewBindings(),
	}
	if !unifyRec(data, pattern, res) {
		return nil
	}
	return res
}

func unifyRec(data, pattern Atom, res *UnifyResult) bool {
	if dv, ok := data.(*Variable); ok {
		return res.DataBindings.Insert(dv, pattern) == nil
	}
	if pv, ok := pattern.(*Variable); ok {
		return res.PatternBindings.Insert(pv, data) == nil
	}
	dg, dGrounded := data.(*Grounded)
	pg, pGrounded := pattern.(*Grounded)
	if dGrounded || pGrounded {
		if dGrounded {
			if _, ok := dg.value.(CustomMatcher); ok {
				res.Unifications = append(res.Unifications, Unification{Data: data, Pattern: pattern})
				return true
			}
		}
		if pGrounded {
			if _, ok := pg.value.(CustomMatcher); ok {
				res.Unifications = append(res.Unifications, Unification{Data: data, Pattern: pattern})
				return true
			}
		}
		return dGrounded && pGrounded && dg.Equal(pg)
	}
	switch d := data.(type) {
	case *Symbol:
		return d.Equal(pattern)
	case *Expression:
		pe, ok := pattern.(*Expression)
		if !ok || len(d.children) != len(pe.children) {
			return false
		}
		for i := range d.children {
			if !unifyRec(d.children[i], pe.children[i], res) {
				return false
			}
		}
		return true
	default:
		return false
	}
}
