package ahocorasick

import "sync/atomic"

// Builder collects words and compiles them into an Automaton.
//
// A Builder is meant to be used once. Words added after Build do not affect
// automata that were already built.
type Builder struct {
	words []string
	ids   []int
}

// NewBuilder creates an empty builder.
func NewBuilder() *Builder {
	return &Builder{}
}

// Add queues word for insertion under id. Any string is accepted, including
// the empty string and duplicates. Nothing is inserted until Build.
func (b *Builder) Add(word string, id int) {
	b.words = append(b.words, word)
	b.ids = append(b.ids, id)
}

// Len returns the number of queued words.
func (b *Builder) Len() int {
	return len(b.words)
}

// Build inserts every queued word into a fresh trie, computes suffix links and
// then terminal links, and returns the finished automaton.
func (b *Builder) Build() *Automaton {
	nodes := []node{newNode()}
	for i, word := range b.words {
		nodes = insertWord(nodes, word, b.ids[i])
	}

	computeSuffixLinks(nodes)
	computeTerminalLinks(nodes)

	return &Automaton{
		nodes:       nodes,
		transitions: make([]atomic.Pointer[transitionRow], len(nodes)),
	}
}
