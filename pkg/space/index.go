// Package space provides the mutable atom container: an ordered content
// vector mirrored by a trie index for candidate retrieval, plus mutation
// events delivered to weakly referenced observers.
package space

import (
	"iter"

	"github.com/emirpasic/gods/v2/maps/linkedhashmap"

	"github.com/amebel/metta-go/pkg/atom"
)

type keyKind uint8

const (
	keySymbol keyKind = iota
	keyWildcard
	keyExprBegin
	keyExprEnd
)

// indexKey is one element of an atom's linearized form. For expression
// begin keys, expr identifies the subexpression and span is the number of
// keys its content occupies, the closing end key included.
type indexKey struct {
	kind keyKind
	sym  string
	expr atom.Atom
	span int
}

// keysFromAtom linearizes an atom. The result is consumed by popping from
// the tail, so an expression emits its end key first, its children in
// reverse order, and its begin key last. Variables and grounded atoms map
// to wildcards because their matching cannot be precomputed.
func keysFromAtom(a atom.Atom) []indexKey {
	switch t := a.(type) {
	case *atom.Symbol:
		return []indexKey{{kind: keySymbol, sym: t.Name()}}
	case *atom.Expression:
		keys := []indexKey{{kind: keyExprEnd}}
		span := 1
		children := t.Children()
		for i := len(children) - 1; i >= 0; i-- {
			childKeys := keysFromAtom(children[i])
			span += len(childKeys)
			keys = append(keys, childKeys...)
		}
		keys = append(keys, indexKey{kind: keyExprBegin, expr: t, span: span})
		return keys
	default:
		return []indexKey{{kind: keyWildcard}}
	}
}

// exprEdge is a child labeled by an expression begin key. Expression edges
// are compared by structural equality of the subexpression, so they live in
// a slice rather than a map.
type exprEdge[T comparable] struct {
	expr atom.Atom
	span int
	node *indexNode[T]
}

// indexNode is one trie node. Symbol children sit in an insertion-ordered
// map; the wildcard and expression-end children are single slots.
type indexNode[T comparable] struct {
	syms  *linkedhashmap.Map[string, *indexNode[T]]
	wild  *indexNode[T]
	end   *indexNode[T]
	exprs []exprEdge[T]
	leaf  []T
}

func newIndexNode[T comparable]() *indexNode[T] {
	return &indexNode[T]{syms: linkedhashmap.New[string, *indexNode[T]]()}
}

func (n *indexNode[T]) symChild(name string, create bool) *indexNode[T] {
	if c, ok := n.syms.Get(name); ok {
		return c
	}
	if !create {
		return nil
	}
	c := newIndexNode[T]()
	n.syms.Put(name, c)
	return c
}

func (n *indexNode[T]) wildChild(create bool) *indexNode[T] {
	if n.wild == nil && create {
		n.wild = newIndexNode[T]()
	}
	return n.wild
}

func (n *indexNode[T]) endChild(create bool) *indexNode[T] {
	if n.end == nil && create {
		n.end = newIndexNode[T]()
	}
	return n.end
}

func (n *indexNode[T]) exprChild(expr atom.Atom, span int, create bool) *indexNode[T] {
	for _, e := range n.exprs {
		if e.span == span && e.expr.Equal(expr) {
			return e.node
		}
	}
	if !create {
		return nil
	}
	c := newIndexNode[T]()
	n.exprs = append(n.exprs, exprEdge[T]{expr: expr, span: span, node: c})
	return c
}

// index is the trie root.
type index[T comparable] struct {
	root *indexNode[T]
}

func newIndex[T comparable]() *index[T] {
	return &index[T]{root: newIndexNode[T]()}
}

// add inserts payload under every path the atom's linearization produces.
// At each expression begin key the payload is additionally inserted along
// the path that skips the whole subexpression, so a later lookup whose
// pattern has a variable at that position still reaches it.
func (ix *index[T]) add(a atom.Atom, payload T) {
	ix.root.walkAdd(keysFromAtom(a), payload)
}

func (n *indexNode[T]) walkAdd(keys []indexKey, payload T) {
	node := n
	for len(keys) > 0 {
		k := keys[len(keys)-1]
		keys = keys[:len(keys)-1]
		switch k.kind {
		case keySymbol:
			node = node.symChild(k.sym, true)
		case keyWildcard:
			node = node.wildChild(true)
		case keyExprEnd:
			node = node.endChild(true)
		case keyExprBegin:
			child := node.exprChild(k.expr, k.span, true)
			child.walkAdd(keys[:len(keys)-k.span], payload)
			node = child
		}
	}
	node.leaf = append(node.leaf, payload)
}

// remove walks the exact, non-duplicated path of the atom and removes one
// occurrence of payload from the reached leaf bag. Payload copies left
// behind on wildcard-duplicated paths stay in place; retrieval is a filter
// and downstream matching re-verifies every candidate.
func (ix *index[T]) remove(a atom.Atom, payload T) bool {
	node := ix.root
	keys := keysFromAtom(a)
	for len(keys) > 0 {
		k := keys[len(keys)-1]
		keys = keys[:len(keys)-1]
		switch k.kind {
		case keySymbol:
			node = node.symChild(k.sym, false)
		case keyWildcard:
			node = node.wildChild(false)
		case keyExprEnd:
			node = node.endChild(false)
		case keyExprBegin:
			node = node.exprChild(k.expr, k.span, false)
		}
		if node == nil {
			return false
		}
	}
	for i, v := range node.leaf {
		if v == payload {
			node.leaf = append(node.leaf[:i], node.leaf[i+1:]...)
			return true
		}
	}
	return false
}

type indexFrame[T comparable] struct {
	node *indexNode[T]
	keys []indexKey
}

// get yields every payload whose stored atom may structurally match the
// pattern. The result is a superset: symbols fan out to the wildcard
// branch, pattern expressions fan out to stored variables and, when no
// identical subexpression was stored, to every stored subexpression, and
// pattern wildcards fan out to everything except expression ends. Payloads
// may be yielded more than once.
func (ix *index[T]) get(pattern atom.Atom) iter.Seq[T] {
	return func(yield func(T) bool) {
		stack := []indexFrame[T]{{node: ix.root, keys: keysFromAtom(pattern)}}
		for len(stack) > 0 {
			fr := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			if len(fr.keys) == 0 {
				for _, v := range fr.node.leaf {
					if !yield(v) {
						return
					}
				}
				continue
			}
			k := fr.keys[len(fr.keys)-1]
			rest := fr.keys[:len(fr.keys)-1]
			push := func(n *indexNode[T], keys []indexKey) {
				if n != nil {
					stack = append(stack, indexFrame[T]{node: n, keys: keys})
				}
			}
			switch k.kind {
			case keySymbol:
				push(fr.node.symChild(k.sym, false), rest)
				push(fr.node.wild, rest)
			case keyExprEnd:
				push(fr.node.end, rest)
			case keyExprBegin:
				push(fr.node.wild, rest[:len(rest)-k.span])
				if exact := fr.node.exprChild(k.expr, k.span, false); exact != nil {
					push(exact, rest)
				} else {
					for _, e := range fr.node.exprs {
						push(e.node, rest)
					}
				}
			case keyWildcard:
				it := fr.node.syms.Iterator()
				for it.Next() {
					push(it.Value(), rest)
				}
				push(fr.node.wild, rest)
				for _, e := range fr.node.exprs {
					push(e.node, rest)
				}
			}
		}
	}
}
