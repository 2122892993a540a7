package space

import (
	"go.uber.org/zap"

	"github.com/amebel/metta-go/pkg/atom"
)

// CommaSymbol glues sub-queries into a conjunctive query.
var CommaSymbol = atom.NewSymbol(",")

// entry wraps one content atom. The pointer doubles as the index payload so
// candidates can be collected into a set without hashing atoms.
type entry struct {
	a atom.Atom
}

// Space is the mutable container of atoms. Content keeps insertion order
// and permits duplicates; the index mirrors it for candidate retrieval.
// A Space is not safe for concurrent use.
type Space struct {
	content   []*entry
	index     *index[*entry]
	observers []weakObserver
	log       *zap.Logger
}

// Option configures a Space.
type Option func(*Space)

// WithLogger attaches a logger used for query tracing. The default is a
// nop logger.
func WithLogger(log *zap.Logger) Option {
	return func(s *Space) { s.log = log }
}

// New constructs an empty space.
func New(opts ...Option) *Space {
	s := &Space{
		index: newIndex[*entry](),
		log:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// FromSlice constructs a space seeded with the given atoms, in order.
// No events are emitted for the seed content.
func FromSlice(atoms []atom.Atom, opts ...Option) *Space {
	s := New(opts...)
	for _, a := range atoms {
		e := &entry{a: a}
		s.content = append(s.content, e)
		s.index.add(a, e)
	}
	return s
}

// notify delivers the event to live observers in registration order and
// compacts registrations whose holders have been collected.
func (s *Space) notify(ev Event) {
	cleanup := false
	for _, w := range s.observers {
		if o := w(); o != nil {
			o.Notify(ev)
		} else {
			cleanup = true
		}
	}
	if cleanup {
		live := s.observers[:0]
		for _, w := range s.observers {
			if w() != nil {
				live = append(live, w)
			}
		}
		s.observers = live
	}
}

// Add appends a to the content and the index.
func (s *Space) Add(a atom.Atom) {
	e := &entry{a: a}
	s.content = append(s.content, e)
	s.index.add(a, e)
	s.notify(AddEvent(a))
}

// Remove deletes the first content atom equal to a. It reports whether an
// atom was removed.
func (s *Space) Remove(a atom.Atom) bool {
	for i, e := range s.content {
		if e.a.Equal(a) {
			s.content = append(s.content[:i], s.content[i+1:]...)
			s.index.remove(e.a, e)
			s.notify(RemoveEvent(a))
			return true
		}
	}
	return false
}

// Replace overwrites the first content atom equal to old with replacement,
// preserving its position. It reports whether a replacement happened;
// replacement is not added when old is absent.
func (s *Space) Replace(old, replacement atom.Atom) bool {
	for _, e := range s.content {
		if e.a.Equal(old) {
			s.index.remove(e.a, e)
			e.a = replacement
			s.index.add(replacement, e)
			s.notify(ReplaceEvent(old, replacement))
			return true
		}
	}
	return false
}

// Len returns the number of content atoms.
func (s *Space) Len() int { return len(s.content) }

// Content returns a copy of the content atoms in insertion order.
func (s *Space) Content() []atom.Atom {
	out := make([]atom.Atom, len(s.content))
	for i, e := range s.content {
		out[i] = e.a
	}
	return out
}

// Clone returns a deep copy of the space content. Observers are not
// carried over.
func (s *Space) Clone() *Space {
	c := New(WithLogger(s.log))
	for _, e := range s.content {
		ce := &entry{a: e.a}
		c.content = append(c.content, ce)
		c.index.add(ce.a, ce)
	}
	return c
}

// Equal reports whether both spaces hold equal content in the same order.
func (s *Space) Equal(other *Space) bool {
	if len(s.content) != len(other.content) {
		return false
	}
	for i, e := range s.content {
		if !e.a.Equal(other.content[i].a) {
			return false
		}
	}
	return true
}

// Query answers q with every set of variable bindings under which q is
// present in the space. A query expression headed by CommaSymbol is treated
// as a conjunction of its remaining children.
func (s *Space) Query(q atom.Atom) []*atom.Bindings {
	if expr, ok := q.(*atom.Expression); ok && expr.Len() > 0 && CommaSymbol.Equal(expr.Children()[0]) {
		return s.conjunctiveQuery(expr)
	}
	return s.singleQuery(q)
}

// conjunctiveQuery folds the sub-queries left to right. Each prior result
// is substituted into the next sub-query, inner results are merged back and
// re-closed, and merge conflicts drop the branch. The final bindings are
// restricted to the variables of the compound query itself.
func (s *Space) conjunctiveQuery(q *atom.Expression) []*atom.Bindings {
	queryVars := atom.CollectVariables(q)
	acc := []*atom.Bindings{atom.NewBindings()}
	for _, sub := range q.Children()[1:] {
		if len(acc) == 0 {
			break
		}
		var next []*atom.Bindings
		for _, prev := range acc {
			bound := prev.Apply(sub)
			for _, inner := range s.Query(bound) {
				merged := atom.Merge(prev, inner)
				if merged == nil {
					continue
				}
				closed, err := atom.ApplyToBindings(merged, merged)
				if err != nil {
					continue
				}
				next = append(next, closed)
			}
		}
		acc = next
		s.log.Debug("conjunctive query step", zap.Stringer("sub", sub), zap.Int("results", len(acc)))
	}
	for _, b := range acc {
		b.Filter(func(v *atom.Variable, _ atom.Atom) bool {
			for _, qv := range queryVars {
				if qv.Equal(v) {
					return true
				}
			}
			return false
		})
	}
	return acc
}

// singleQuery matches q against index-filtered candidates. Every candidate
// is renamed fresh before matching so stored variables cannot capture query
// variables. Results follow content order, then per-candidate match order.
func (s *Space) singleQuery(q atom.Atom) []*atom.Bindings {
	cands := make(map[*entry]struct{})
	for e := range s.index.get(q) {
		cands[e] = struct{}{}
	}
	var out []*atom.Bindings
	for _, e := range s.content {
		if _, ok := cands[e]; !ok {
			continue
		}
		data := atom.MakeVariablesUnique(e.a)
		for b := range atom.Match(data, q) {
			out = append(out, b)
		}
	}
	s.log.Debug("single query", zap.Stringer("query", q), zap.Int("results", len(out)))
	return out
}

// Subst queries pattern and applies each result to template, returning one
// atom per query result.
func (s *Space) Subst(pattern, template atom.Atom) []atom.Atom {
	results := s.Query(pattern)
	out := make([]atom.Atom, 0, len(results))
	for _, b := range results {
		out = append(out, b.Apply(template))
	}
	return out
}

// UnifyMatch is one result of Space.Unify: the closed bindings for a
// content atom plus the residual pairs deferred to the caller.
type UnifyMatch struct {
	Bindings     *atom.Bindings
	Unifications []atom.Unification
}

// Unify runs symmetric unification of pattern against every content atom.
// Pattern-side bindings are merged into the data-side bindings to close
// each result; a content atom whose two sides conflict is skipped.
func (s *Space) Unify(pattern atom.Atom) []UnifyMatch {
	var out []UnifyMatch
	for _, e := range s.content {
		res := atom.Unify(e.a, pattern)
		if res == nil {
			continue
		}
		closed := atom.Merge(res.DataBindings, res.PatternBindings)
		if closed == nil {
			continue
		}
		out = append(out, UnifyMatch{Bindings: closed, Unifications: res.Unifications})
	}
	return out
}

// GroundedType marks a space used as a grounded value.
func (s *Space) GroundedType() atom.Atom { return atom.NewSymbol("GroundingSpace") }

// GroundedEqual compares spaces by content.
func (s *Space) GroundedEqual(other atom.GroundedValue) bool {
	o, ok := other.(*Space)
	return ok && s.Equal(o)
}

// CustomMatch lets a space embedded as a grounded atom answer matches with
// its query results.
func (s *Space) CustomMatch(other atom.Atom) atom.BindingsIter {
	return func(yield func(*atom.Bindings) bool) {
		for _, b := range s.Query(other) {
			if !yield(b) {
				return
			}
		}
	}
}

func (s *Space) String() string { return "GroundingSpace" }
