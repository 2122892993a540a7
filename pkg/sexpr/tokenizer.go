// Package sexpr reads S-expression text into atoms. A tokenizer maps
// regex-matched words to atom constructors, letting embedders attach
// grounded values to literal syntax; everything else parses to symbols,
// variables and expressions.
package sexpr

import (
	"regexp"

	"github.com/amebel/metta-go/pkg/atom"
)

// TokenConstructor builds an atom from a matched word.
type TokenConstructor func(word string) (atom.Atom, error)

type tokenEntry struct {
	re   *regexp.Regexp
	ctor TokenConstructor
}

// Tokenizer resolves words to atoms through an ordered list of token
// definitions.
type Tokenizer struct {
	entries []tokenEntry
}

// NewTokenizer creates an empty tokenizer. A word no definition matches
// parses as a plain symbol.
func NewTokenizer() *Tokenizer {
	return &Tokenizer{}
}

// RegisterToken adds a token definition. Definitions registered later take
// precedence, so embedders can override earlier ones.
func (t *Tokenizer) RegisterToken(re *regexp.Regexp, ctor TokenConstructor) {
	t.entries = append(t.entries, tokenEntry{re: re, ctor: ctor})
}

// Clone returns an independent copy of the tokenizer.
func (t *Tokenizer) Clone() *Tokenizer {
	c := &Tokenizer{entries: make([]tokenEntry, len(t.entries))}
	copy(c.entries, t.entries)
	return c
}

// construct resolves word through the registered definitions, most recent
// first. The regex must match the whole word.
func (t *Tokenizer) construct(word string) (atom.Atom, bool, error) {
	for i := len(t.entries) - 1; i >= 0; i-- {
		e := t.entries[i]
		if m := e.re.FindString(word); m == word && m != "" {
			a, err := e.ctor(word)
			if err != nil {
				return nil, true, err
			}
			return a, true, nil
		}
	}
	return nil, false, nil
}
