// Package traverse provides a generic breadth-first traversal with
// closure-based visitor hooks.
package traverse

// Graph exposes the outgoing edges of a vertex and the vertex each edge
// points to.
type Graph[V comparable, E any] interface {
	OutgoingEdges(v V) []E
	Target(e E) V
}

// Visitor holds optional hooks invoked during BreadthFirstSearch.
// Nil hooks are skipped.
type Visitor[V comparable, E any] struct {
	// DiscoverVertex is called once per vertex, when it is dequeued.
	// The origin is discovered first.
	DiscoverVertex func(v V)

	// ExamineEdge is called once per outgoing edge, when its source is dequeued.
	ExamineEdge func(e E)

	// ExamineVertex is called once per non-origin vertex, when it is first enqueued.
	ExamineVertex func(v V)
}

// BreadthFirstSearch visits every vertex reachable from origin in
// non-decreasing order of distance. Each vertex is discovered exactly once
// and each edge of a reachable vertex is examined exactly once.
func BreadthFirstSearch[V comparable, E any](origin V, g Graph[V, E], visitor Visitor[V, E]) {
	order := []V{origin}
	visited := map[V]struct{}{origin: {}}

	for head := 0; head < len(order); head++ {
		next := order[head]
		if visitor.DiscoverVertex != nil {
			visitor.DiscoverVertex(next)
		}

		for _, edge := range g.OutgoingEdges(next) {
			if visitor.ExamineEdge != nil {
				visitor.ExamineEdge(edge)
			}
			target := g.Target(edge)
			if _, seen := visited[target]; seen {
				continue
			}
			visited[target] = struct{}{}
			if visitor.ExamineVertex != nil {
				visitor.ExamineVertex(target)
			}
			order = append(order, target)
		}
	}
}
