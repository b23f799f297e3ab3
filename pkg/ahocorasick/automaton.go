// Package ahocorasick implements an Aho-Corasick automaton over single-byte
// symbols with suffix links, terminal (dictionary) links and a lazily
// memoized goto function.
//
// Build an automaton with a Builder, then walk it through NodeRef values:
//
//	b := ahocorasick.NewBuilder()
//	b.Add("he", 1)
//	b.Add("she", 2)
//	a := b.Build()
//
//	state := a.Root()
//	for i := 0; i < len(text); i++ {
//	    state = state.Next(text[i])
//	    a.GenerateMatches(state, func(id int) { ... })
//	}
package ahocorasick

import (
	"errors"
	"fmt"
	"iter"
	"sync/atomic"
)

// ErrInvalidNode is the panic value raised when a zero NodeRef, or a NodeRef
// belonging to another automaton, is dereferenced.
var ErrInvalidNode = errors.New("ahocorasick: invalid node reference")

// Automaton is a compiled Aho-Corasick automaton.
//
// The trie and its links are fixed after Build. The only state that changes
// afterwards is the transition cache, which is filled on first use of each
// (node, byte) pair. Cache slots are written atomically and always receive the
// same value, so an Automaton may be walked from several goroutines at once.
type Automaton struct {
	nodes []node

	// transitions[node] is allocated on the first cached step out of node.
	transitions []atomic.Pointer[transitionRow]
}

// transitionRow holds target+1 per byte; zero means not computed.
type transitionRow [alphabetSize]atomic.Int32

// Root returns a reference to the root node.
func (a *Automaton) Root() NodeRef {
	return NodeRef{automaton: a, index: rootIndex}
}

// Len returns the number of nodes in the automaton.
func (a *Automaton) Len() int {
	return len(a.nodes)
}

// GenerateMatches calls onMatch for every word that is a suffix of the input
// read so far, given the state reached after reading it. Words at the state
// itself are reported first, then those along its terminal-link chain, longest
// first. Nothing is reported at the root.
func (a *Automaton) GenerateMatches(ref NodeRef, onMatch func(id int)) {
	a.check(ref)
	for idx := ref.index; idx != rootIndex; idx = a.nodes[idx].terminal {
		for _, id := range a.nodes[idx].matches {
			onMatch(id)
		}
	}
}

// Matches is the iterator form of GenerateMatches.
func (a *Automaton) Matches(ref NodeRef) iter.Seq[int] {
	a.check(ref)
	return func(yield func(int) bool) {
		for idx := ref.index; idx != rootIndex; idx = a.nodes[idx].terminal {
			for _, id := range a.nodes[idx].matches {
				if !yield(id) {
					return
				}
			}
		}
	}
}

// Precompute fills the whole transition table, about 1 KiB per node.
// Afterwards Next never writes. Without it rows are allocated only for nodes
// a walk actually leaves.
func (a *Automaton) Precompute() {
	for v := range a.nodes {
		for ch := 0; ch < alphabetSize; ch++ {
			a.next(int32(v), byte(ch))
		}
	}
}

func (a *Automaton) check(ref NodeRef) {
	if ref.automaton != a {
		panic(ErrInvalidNode)
	}
}

func (a *Automaton) cached(v int32, ch byte) int32 {
	if row := a.transitions[v].Load(); row != nil {
		return row[ch].Load()
	}
	return 0
}

func (a *Automaton) row(v int32) *transitionRow {
	if row := a.transitions[v].Load(); row != nil {
		return row
	}
	a.transitions[v].CompareAndSwap(nil, new(transitionRow))
	return a.transitions[v].Load()
}

// next is the goto function. It follows suffix links from v until a cached
// transition, a trie child or the root is found, and then caches the result
// for every node it passed, since all of them share the same transition on ch.
func (a *Automaton) next(v int32, ch byte) int32 {
	if cached := a.cached(v, ch); cached != 0 {
		return cached - 1
	}

	var pending []int32
	result := rootIndex
	for current := v; ; current = a.nodes[current].suffix {
		if cached := a.cached(current, ch); cached != 0 {
			result = cached - 1
			break
		}
		pending = append(pending, current)
		if child, ok := trieTransition(a.nodes, current, ch); ok {
			result = child
			break
		}
		if current == rootIndex {
			result = rootIndex
			break
		}
	}

	for _, p := range pending {
		a.row(p)[ch].Store(result + 1)
	}
	return result
}

// NodeRef is a handle to an automaton node. Two references are equal when
// they denote the same node of the same automaton. The zero NodeRef is
// invalid: Valid reports false and every other method panics with
// ErrInvalidNode.
type NodeRef struct {
	automaton *Automaton
	index     int32
}

// Valid reports whether r refers to a node.
func (r NodeRef) Valid() bool {
	return r.automaton != nil
}

func (r NodeRef) mustBeValid() {
	if r.automaton == nil {
		panic(ErrInvalidNode)
	}
}

// Next returns the state reached from r on ch.
func (r NodeRef) Next(ch byte) NodeRef {
	r.mustBeValid()
	return NodeRef{automaton: r.automaton, index: r.automaton.next(r.index, ch)}
}

// SuffixLink returns the node for the longest proper suffix of r's prefix
// that is also a trie prefix. The root links to itself.
func (r NodeRef) SuffixLink() NodeRef {
	r.mustBeValid()
	return NodeRef{automaton: r.automaton, index: r.automaton.nodes[r.index].suffix}
}

// TerminalLink returns the nearest strict suffix-link ancestor that ends a
// word, or the root when there is none.
func (r NodeRef) TerminalLink() NodeRef {
	r.mustBeValid()
	return NodeRef{automaton: r.automaton, index: r.automaton.nodes[r.index].terminal}
}

// MatchedIDs yields the ids of words ending exactly at r.
func (r NodeRef) MatchedIDs() iter.Seq[int] {
	r.mustBeValid()
	matches := r.automaton.nodes[r.index].matches
	return func(yield func(int) bool) {
		for _, id := range matches {
			if !yield(id) {
				return
			}
		}
	}
}

// IsRoot reports whether r is the root of its automaton.
func (r NodeRef) IsRoot() bool {
	r.mustBeValid()
	return r.index == rootIndex
}

// Equal reports whether r and other denote the same node.
func (r NodeRef) Equal(other NodeRef) bool {
	return r == other
}

// String implements fmt.Stringer.
func (r NodeRef) String() string {
	if !r.Valid() {
		return "node(invalid)"
	}
	return fmt.Sprintf("node(%d)", r.index)
}
