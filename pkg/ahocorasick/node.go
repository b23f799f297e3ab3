package ahocorasick

import (
	"maps"
	"slices"
)

// alphabetSize is the number of distinct input symbols (single bytes).
const alphabetSize = 256

// rootIndex is the arena index of the trie root. The root also serves as the
// terminal-link sentinel: a chain of terminal links stops when it reaches it.
const rootIndex int32 = 0

// noLink marks a suffix or terminal link that has not been computed yet.
const noLink int32 = -1

// node is a trie/automaton vertex stored in the automaton arena.
// All cross references are arena indexes.
type node struct {
	children map[byte]int32 // trie edges only
	matches  []int          // ids of words ending exactly here, in insertion order
	suffix   int32
	terminal int32
}

func newNode() node {
	return node{suffix: noLink, terminal: noLink}
}

// trieEdge is a labelled trie edge between two arena nodes.
type trieEdge struct {
	source int32
	target int32
	char   byte
}

// trieGraph exposes trie children as a traversable graph. It never reports
// memoized automaton transitions and is used only while building.
type trieGraph struct {
	nodes []node
}

// OutgoingEdges returns the trie edges leaving v in ascending byte order.
func (g trieGraph) OutgoingEdges(v int32) []trieEdge {
	children := g.nodes[v].children
	if len(children) == 0 {
		return nil
	}
	edges := make([]trieEdge, 0, len(children))
	for _, ch := range slices.Sorted(maps.Keys(children)) {
		edges = append(edges, trieEdge{source: v, target: children[ch], char: ch})
	}
	return edges
}

// Target returns the node an edge points to.
func (g trieGraph) Target(e trieEdge) int32 {
	return e.target
}

// trieTransition returns the direct trie child of v for ch.
func trieTransition(nodes []node, v int32, ch byte) (int32, bool) {
	child, ok := nodes[v].children[ch]
	return child, ok
}

// insertWord walks word from the root, creating nodes on demand, and records
// id on the final node. An empty word records id on the root.
func insertWord(nodes []node, word string, id int) []node {
	current := rootIndex
	for i := 0; i < len(word); i++ {
		ch := word[i]
		child, ok := trieTransition(nodes, current, ch)
		if !ok {
			child = int32(len(nodes))
			nodes = append(nodes, newNode())
			if nodes[current].children == nil {
				nodes[current].children = make(map[byte]int32)
			}
			nodes[current].children[ch] = child
		}
		current = child
	}
	nodes[current].matches = append(nodes[current].matches, id)
	return nodes
}
