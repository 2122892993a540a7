// Package metta stitches the parser, space and interpreter into a program
// runner: rule and fact expressions accumulate in the space, expressions
// marked for evaluation are reduced, and modules resolve through the
// platform environment.
package metta

import (
	"fmt"
	"os"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/amebel/metta-go/pkg/atom"
	"github.com/amebel/metta-go/pkg/env"
	"github.com/amebel/metta-go/pkg/interp"
	"github.com/amebel/metta-go/pkg/sexpr"
	"github.com/amebel/metta-go/pkg/space"
)

// VoidSymbol denotes an empty evaluation result for callers that need a
// placeholder atom.
var VoidSymbol = atom.NewSymbol("%void%")

// Reserved type-label symbols. Typing collaborators attach meaning to
// them; the space stores them as ordinary symbols.
var (
	UndefinedSymbol      = atom.NewSymbol("%Undefined%")
	TypeSymbol           = atom.NewSymbol("Type")
	AtomTypeSymbol       = atom.NewSymbol("Atom")
	SymbolTypeSymbol     = atom.NewSymbol("Symbol")
	VariableTypeSymbol   = atom.NewSymbol("Variable")
	ExpressionTypeSymbol = atom.NewSymbol("Expression")
	GroundedTypeSymbol   = atom.NewSymbol("Grounded")
)

// Runner owns a space, a tokenizer and the environment used for module
// resolution.
type Runner struct {
	space *space.Space
	tok   *sexpr.Tokenizer
	env   *env.Environment
	log   *zap.Logger
}

// Option configures a Runner.
type Option func(*Runner)

// WithLogger attaches a logger. The default is a nop logger.
func WithLogger(log *zap.Logger) Option {
	return func(r *Runner) { r.log = log }
}

// WithEnvironment overrides the environment used for module resolution.
// The default is the platform environment.
func WithEnvironment(e *env.Environment) Option {
	return func(r *Runner) { r.env = e }
}

// NewRunner creates a runner with an empty space and the standard tokens
// registered.
func NewRunner(opts ...Option) *Runner {
	r := &Runner{
		tok: sexpr.NewTokenizer(),
		env: env.PlatformEnv(),
		log: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.space = space.New(space.WithLogger(r.log))
	registerStdTokens(r.tok)
	return r
}

// Space returns the runner's space.
func (r *Runner) Space() *space.Space { return r.space }

// Tokenizer returns the runner's tokenizer for embedders registering their
// own tokens.
func (r *Runner) Tokenizer() *sexpr.Tokenizer { return r.tok }

// Run consumes the parser to its end. Expressions marked for evaluation by
// the reader are interpreted and contribute one result vector each, in
// program order; every other expression is added to the space. The first
// evaluation error aborts the run.
func (r *Runner) Run(p *sexpr.Parser) ([][]atom.Atom, error) {
	runID := uuid.NewString()
	log := r.log.With(zap.String("run_id", runID))
	var results [][]atom.Atom
	for {
		a, err := p.Parse()
		if err != nil {
			return results, err
		}
		if a == nil {
			return results, nil
		}
		if inner, ok := evaluationTarget(a); ok {
			log.Debug("evaluating", zap.Stringer("expr", inner))
			res, err := r.EvaluateAtom(inner)
			if err != nil {
				return results, fmt.Errorf("evaluate %s: %w", inner, err)
			}
			results = append(results, orVoid(res))
			continue
		}
		log.Debug("adding", zap.Stringer("atom", a))
		r.space.Add(a)
	}
}

// RunString parses and runs src.
func (r *Runner) RunString(src string) ([][]atom.Atom, error) {
	return r.Run(sexpr.NewParser(src, r.tok))
}

// EvaluateAtom reduces a single atom against the space to termination.
func (r *Runner) EvaluateAtom(a atom.Atom) ([]atom.Atom, error) {
	return interp.Interpret(r.space, a, interp.WithLogger(r.log))
}

// LoadModule resolves name through the environment and runs the module
// file. Evaluation results produced by the module are discarded.
func (r *Runner) LoadModule(name string) error {
	path, ok := r.env.FindModule(name)
	if !ok {
		return fmt.Errorf("module %q not found", name)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read module %q: %w", name, err)
	}
	if _, err := r.RunString(string(data)); err != nil {
		return fmt.Errorf("load module %q: %w", name, err)
	}
	r.log.Info("module loaded", zap.String("module", name), zap.String("path", path))
	return nil
}

// orVoid stands in VoidSymbol for an empty result group, so callers always
// receive at least one atom per evaluated expression. A reduction comes up
// empty when every alternative of the plan was discarded.
func orVoid(results []atom.Atom) []atom.Atom {
	if len(results) == 0 {
		return []atom.Atom{VoidSymbol}
	}
	return results
}

// evaluationTarget unwraps an expression the reader marked for evaluation.
func evaluationTarget(a atom.Atom) (atom.Atom, bool) {
	expr, ok := a.(*atom.Expression)
	if !ok || expr.Len() != 2 || !sexpr.BangSymbol.Equal(expr.Children()[0]) {
		return nil, false
	}
	return expr.Children()[1], true
}
