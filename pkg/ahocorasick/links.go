package ahocorasick

import "github.com/praetorian-inc/wildscan/pkg/traverse"

// computeSuffixLinks assigns a suffix link to every node reachable from the
// root. Edges are examined in BFS order, so every node shallower than an
// edge's target already has its link when the target is processed.
func computeSuffixLinks(nodes []node) {
	nodes[rootIndex].suffix = rootIndex

	traverse.BreadthFirstSearch[int32, trieEdge](rootIndex, trieGraph{nodes: nodes}, traverse.Visitor[int32, trieEdge]{
		ExamineEdge: func(e trieEdge) {
			nodes[e.target].suffix = suffixTarget(nodes, e)
		},
	})
}

// suffixTarget finds the longest proper suffix of the target's prefix that is
// itself a trie prefix.
func suffixTarget(nodes []node, e trieEdge) int32 {
	if e.source == rootIndex {
		return rootIndex
	}
	for next := nodes[e.source].suffix; ; next = nodes[next].suffix {
		if child, ok := trieTransition(nodes, next, e.char); ok {
			return child
		}
		if next == rootIndex {
			return rootIndex
		}
	}
}

// computeTerminalLinks assigns terminal links. It must run after
// computeSuffixLinks has finished: the walk below relies on every non-root
// node having a suffix link that leads to the root.
func computeTerminalLinks(nodes []node) {
	traverse.BreadthFirstSearch[int32, trieEdge](rootIndex, trieGraph{nodes: nodes}, traverse.Visitor[int32, trieEdge]{
		DiscoverVertex: func(v int32) {
			if v == rootIndex {
				nodes[v].terminal = rootIndex
				return
			}
			link := nodes[v].suffix
			for link != rootIndex && len(nodes[link].matches) == 0 {
				link = nodes[link].suffix
			}
			nodes[v].terminal = link
		},
	})
}
