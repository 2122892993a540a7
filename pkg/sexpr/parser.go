package sexpr

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/amebel/metta-go/pkg/atom"
)

// BangSymbol heads expressions the reader marks for evaluation.
var BangSymbol = atom.NewSymbol("!")

// Parser is an incremental S-expression reader. Each Parse call returns
// the next atom; nil without error signals the end of input.
type Parser struct {
	text []rune
	pos  int
	tok  *Tokenizer
}

// NewParser creates a parser over src consulting tok for word
// construction. A nil tokenizer parses every word as a symbol.
func NewParser(src string, tok *Tokenizer) *Parser {
	if tok == nil {
		tok = NewTokenizer()
	}
	return &Parser{text: []rune(src), tok: tok}
}

// Parse returns the next atom from the input, nil at end of input, or an
// error on malformed text.
func (p *Parser) Parse() (atom.Atom, error) {
	p.skipBlank()
	if p.pos >= len(p.text) {
		return nil, nil
	}
	return p.parseAtom()
}

func (p *Parser) skipBlank() {
	for p.pos < len(p.text) {
		c := p.text[p.pos]
		if unicode.IsSpace(c) {
			p.pos++
			continue
		}
		if c == ';' {
			for p.pos < len(p.text) && p.text[p.pos] != '\n' {
				p.pos++
			}
			continue
		}
		break
	}
}

func (p *Parser) parseAtom() (atom.Atom, error) {
	switch c := p.text[p.pos]; {
	case c == '(':
		return p.parseExpression()
	case c == ')':
		return nil, fmt.Errorf("unexpected ')' at offset %d", p.pos)
	case c == '$':
		return p.parseVariable()
	case c == '"':
		return p.parseString()
	case c == '!':
		p.pos++
		inner, err := p.Parse()
		if err != nil {
			return nil, err
		}
		if inner == nil {
			return nil, fmt.Errorf("unexpected end of input after '!'")
		}
		return atom.NewExpression(BangSymbol, inner), nil
	default:
		return p.parseWord()
	}
}

func (p *Parser) parseExpression() (atom.Atom, error) {
	start := p.pos
	p.pos++ // consume '('
	var children []atom.Atom
	for {
		p.skipBlank()
		if p.pos >= len(p.text) {
			return nil, fmt.Errorf("unbalanced '(' at offset %d", start)
		}
		if p.text[p.pos] == ')' {
			p.pos++
			return atom.NewExpression(children...), nil
		}
		child, err := p.parseAtom()
		if err != nil {
			return nil, err
		}
		children = append(children, child)
	}
}

func (p *Parser) parseVariable() (atom.Atom, error) {
	p.pos++ // consume '$'
	name := p.readWord()
	if name == "" {
		return nil, fmt.Errorf("empty variable name at offset %d", p.pos)
	}
	return atom.NewVariable(name), nil
}

// parseString reads a double-quoted literal. The quoted form, escapes
// intact, is offered to the tokenizer so a registered string token can
// build a grounded value; without one it becomes a symbol carrying the
// quoted text.
func (p *Parser) parseString() (atom.Atom, error) {
	start := p.pos
	var sb strings.Builder
	sb.WriteByte('"')
	p.pos++
	for {
		if p.pos >= len(p.text) {
			return nil, fmt.Errorf("unterminated string at offset %d", start)
		}
		c := p.text[p.pos]
		p.pos++
		sb.WriteRune(c)
		if c == '\\' {
			if p.pos >= len(p.text) {
				return nil, fmt.Errorf("unterminated escape at offset %d", p.pos)
			}
			sb.WriteRune(p.text[p.pos])
			p.pos++
			continue
		}
		if c == '"' {
			break
		}
	}
	word := sb.String()
	if a, ok, err := p.tok.construct(word); ok {
		return a, err
	}
	return atom.NewSymbol(word), nil
}

func (p *Parser) parseWord() (atom.Atom, error) {
	word := p.readWord()
	if word == "" {
		return nil, fmt.Errorf("unexpected character %q at offset %d", p.text[p.pos], p.pos)
	}
	if a, ok, err := p.tok.construct(word); ok {
		return a, err
	}
	return atom.NewSymbol(word), nil
}

func (p *Parser) readWord() string {
	start := p.pos
	for p.pos < len(p.text) {
		c := p.text[p.pos]
		if unicode.IsSpace(c) || c == '(' || c == ')' || c == ';' || c == '"' {
			break
		}
		p.pos++
	}
	return string(p.text[start:p.pos])
}
