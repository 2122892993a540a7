// Package interp reduces expressions to normal form against the rewrite
// rules stored in a space. Reduction is driven stepwise: the caller owns
// the loop and advances the plan one leaf at a time.
package interp

import (
	"errors"

	"github.com/hashicorp/go-multierror"
	"go.uber.org/zap"

	"github.com/amebel/metta-go/pkg/atom"
	"github.com/amebel/metta-go/pkg/space"
)

// EqualSymbol heads stored expressions that act as rewrite rules.
var EqualSymbol = atom.NewSymbol("=")

// ErrNotFinished is returned by IntoResult while active leaves remain.
var ErrNotFinished = errors.New("interpretation is not finished")

// planNode is one node of the reduction plan. A node is exactly one of:
// pending (awaiting expansion), expanded (delegating to children), a result
// leaf, or an error leaf.
type planNode struct {
	pending  atom.Atom
	bindings *atom.Bindings
	expanded bool
	children []*planNode
	result   atom.Atom
	err      error
}

// State is an in-flight interpretation. It is advanced by Step and
// consumed by IntoResult.
type State struct {
	space *space.Space
	root  *planNode
	log   *zap.Logger
}

// Option configures an interpretation.
type Option func(*State)

// WithLogger attaches a logger for step tracing. The default is a nop
// logger.
func WithLogger(log *zap.Logger) Option {
	return func(s *State) { s.log = log }
}

// Init constructs the plan for expr and takes the initial step.
func Init(sp *space.Space, expr atom.Atom, opts ...Option) *State {
	st := &State{
		space: sp,
		root:  &planNode{pending: expr, bindings: atom.NewBindings()},
		log:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(st)
	}
	return Step(st)
}

// HasNext reports whether any leaf still awaits reduction.
func (s *State) HasNext() bool {
	return findActive(s.root) != nil
}

// findActive locates the leftmost innermost pending leaf.
func findActive(n *planNode) *planNode {
	if n.expanded {
		for _, c := range n.children {
			if a := findActive(c); a != nil {
				return a
			}
		}
		return nil
	}
	if n.pending != nil {
		return n
	}
	return nil
}

// Step advances exactly one active leaf and returns the state. Calling
// Step on a finished state is a no-op.
func Step(s *State) *State {
	n := findActive(s.root)
	if n == nil {
		return s
	}
	s.expand(n)
	return s
}

// expand reduces one pending node. An expression is first tried against
// the stored rewrite rules; with no applicable rule an executable grounded
// head is applied; otherwise the expression is its own normal form.
func (s *State) expand(n *planNode) {
	expr, ok := n.pending.(*atom.Expression)
	if !ok {
		n.result = n.pending
		n.pending = nil
		s.log.Debug("reduced to result", zap.Stringer("atom", n.result))
		return
	}

	rhsVar := atom.NewFreshVariable("rhs")
	rulePattern := atom.NewExpression(EqualSymbol, expr, rhsVar)
	matches := s.space.Query(rulePattern)
	if len(matches) > 0 {
		for _, b := range matches {
			merged := atom.Merge(n.bindings, b)
			if merged == nil {
				continue
			}
			next := merged.Apply(rhsVar)
			merged.Filter(func(v *atom.Variable, _ atom.Atom) bool {
				return !v.Equal(rhsVar)
			})
			n.children = append(n.children, &planNode{pending: next, bindings: merged})
		}
		n.expanded = true
		n.pending = nil
		s.log.Debug("applied rules", zap.Stringer("expr", expr), zap.Int("alternatives", len(n.children)))
		return
	}

	if exec, ok := executableHead(expr); ok {
		results, err := exec.Execute(expr.Children()[1:])
		if err != nil {
			n.err = err
			n.pending = nil
			s.log.Debug("execute failed", zap.Stringer("expr", expr), zap.Error(err))
			return
		}
		if len(results) == 0 {
			// Execute produced nothing, so the expression is its own
			// normal form.
			n.result = expr
			n.pending = nil
			s.log.Debug("executed to normal form", zap.Stringer("expr", expr))
			return
		}
		for _, r := range results {
			n.children = append(n.children, &planNode{result: r})
		}
		n.expanded = true
		n.pending = nil
		s.log.Debug("executed", zap.Stringer("expr", expr), zap.Int("results", len(results)))
		return
	}

	n.result = expr
	n.pending = nil
	s.log.Debug("normal form", zap.Stringer("expr", expr))
}

// executableHead returns the executable capability of the expression's
// head, if it has one.
func executableHead(expr *atom.Expression) (atom.Executable, bool) {
	if expr.Len() == 0 {
		return nil, false
	}
	g, ok := expr.Children()[0].(*atom.Grounded)
	if !ok {
		return nil, false
	}
	exec, ok := g.Value().(atom.Executable)
	return exec, ok
}

// IntoResult collects all result leaves in depth-first order. It fails
// with ErrNotFinished while the plan is still active, and with the
// aggregated leaf errors when every branch failed.
func (s *State) IntoResult() ([]atom.Atom, error) {
	if s.HasNext() {
		return nil, ErrNotFinished
	}
	var results []atom.Atom
	var errs error
	var walk func(*planNode)
	walk = func(n *planNode) {
		switch {
		case n.expanded:
			for _, c := range n.children {
				walk(c)
			}
		case n.result != nil:
			results = append(results, n.result)
		case n.err != nil:
			errs = multierror.Append(errs, n.err)
		}
	}
	walk(s.root)
	if len(results) == 0 && errs != nil {
		return nil, errs
	}
	return results, nil
}

// Interpret runs a full reduction of expr to termination and returns the
// terminal atoms.
func Interpret(sp *space.Space, expr atom.Atom, opts ...Option) ([]atom.Atom, error) {
	st := Init(sp, expr, opts...)
	for st.HasNext() {
		st = Step(st)
	}
	return st.IntoResult()
}
