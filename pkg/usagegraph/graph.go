package usagegraph

import (
	"errors"
	"fmt"
	"slices"

	"github.com/l3aro/go-usage-graph/pkg/resolved"
)

var (
	// ErrForeignNode is the panic value used when an edge would connect nodes
	// of different graphs.
	ErrForeignNode = errors.New("node belongs to a different graph")

	// ErrForestViolation is returned by [Graph.CheckForest] when the parent links
	// contain a cycle or reference a missing node.
	ErrForestViolation = errors.New("containment forest violated")
)

// Graph is the arena owning the nodes and edges of one usage graph.
//
// A Graph is built by a single goroutine. Once construction is complete it may
// be read concurrently; the only field written after construction is the
// per-node processed counter, which is atomic.
type Graph struct {
	name  string
	nodes []Node
	edges []*Edge // indexed by EdgeID; removed edges are nil
	live  int

	// controlSeq numbers control nodes for labeling.
	controlSeq int
}

// New creates an empty graph. Name identifies the analyzed program.
func New(name string) *Graph {
	return &Graph{name: name}
}

// Name returns the name the graph was created with.
func (g *Graph) Name() string { return g.name }

// Len returns the number of nodes.
func (g *Graph) Len() int { return len(g.nodes) }

// Node returns the node with the given id.
func (g *Graph) Node(id NodeID) (Node, bool) {
	if id < 0 || int(id) >= len(g.nodes) {
		return nil, false
	}
	return g.nodes[id], true
}

// Nodes returns all nodes in creation order.
func (g *Graph) Nodes() []Node {
	return slices.Clone(g.nodes)
}

// Roots returns the nodes without a parent, in creation order.
func (g *Graph) Roots() []Node {
	var out []Node
	for _, n := range g.nodes {
		if !n.core().hasParent {
			out = append(out, n)
		}
	}
	return out
}

// Edges returns the live edges in creation order, optionally filtered by kind.
func (g *Graph) Edges(kinds ...EdgeKind) []*Edge {
	out := make([]*Edge, 0, g.live)
	for _, e := range g.edges {
		if e != nil && matchKind(e.kind, kinds) {
			out = append(out, e)
		}
	}
	return out
}

// EdgeCount returns the number of live edges.
func (g *Graph) EdgeCount() int { return g.live }

// AddEdge creates a directed edge of the given kind. The edge is registered as
// outgoing on start and incoming on end and stamped with the creation ordinal
// on each side. AddEdge panics with ErrForeignNode if either node belongs to
// another graph.
func (g *Graph) AddEdge(start, end Node, kind EdgeKind) *Edge {
	if start == nil || end == nil || start.core().g != g || end.core().g != g {
		panic(ErrForeignNode)
	}
	e := &Edge{
		g:     g,
		id:    EdgeID(len(g.edges)),
		start: start.ID(),
		end:   end.ID(),
		kind:  kind,
	}
	e.startOrdinal = start.core().addOutgoing(e)
	e.endOrdinal = end.core().addIncoming(e)
	g.edges = append(g.edges, e)
	g.live++
	return e
}

// HasEdge reports whether a live edge of kind connects start to end.
func (g *Graph) HasEdge(start, end Node, kind EdgeKind) bool {
	for _, e := range start.Outgoing(kind) {
		if e.end == end.ID() {
			return true
		}
	}
	return false
}

// RemoveEdge detaches e from both endpoints. Ordinals of the remaining edges are
// left untouched. It reports false if e was already removed.
func (g *Graph) RemoveEdge(e *Edge) bool {
	if e == nil || e.g != g || g.edges[e.id] == nil {
		return false
	}
	g.nodes[e.start].core().dropOutgoing(e.id)
	g.nodes[e.end].core().dropIncoming(e.id)
	g.edges[e.id] = nil
	e.removed = true
	g.live--
	return true
}

// RemoveRedundantEdges removes every edge that duplicates an earlier live edge
// with the same start, end and kind. It returns the number of edges removed.
func (g *Graph) RemoveRedundantEdges() int {
	type key struct {
		start, end NodeID
		kind       EdgeKind
	}
	seen := make(map[key]bool, g.live)
	removed := 0
	for _, e := range g.edges {
		if e == nil {
			continue
		}
		k := key{e.start, e.end, e.kind}
		if seen[k] {
			g.RemoveEdge(e)
			removed++
			continue
		}
		seen[k] = true
	}
	return removed
}

// Walk dispatches v over every node in creation order, then over every live edge.
func (g *Graph) Walk(v Visitor) {
	for _, n := range g.nodes {
		n.Accept(v)
	}
	for _, e := range g.edges {
		if e != nil {
			v.VisitEdge(e)
		}
	}
}

// CheckForest verifies that following parent links from any node reaches a
// root in finite steps and that parent and child lists agree.
func (g *Graph) CheckForest() error {
	for _, n := range g.nodes {
		c := n.core()
		steps := 0
		for cur := c; cur.hasParent; cur = g.nodes[cur.parent].core() {
			steps++
			if steps > len(g.nodes) {
				return fmt.Errorf("%w: node %d is its own ancestor", ErrForestViolation, c.id)
			}
		}
		for _, child := range c.children {
			cc := g.nodes[child].core()
			if !cc.hasParent || cc.parent != c.id {
				return fmt.Errorf("%w: child %d of node %d points elsewhere", ErrForestViolation, child, c.id)
			}
		}
	}
	return nil
}

func (g *Graph) edgesOf(ids []EdgeID, kinds []EdgeKind) []*Edge {
	out := make([]*Edge, 0, len(ids))
	for _, id := range ids {
		e := g.edges[id]
		if matchKind(e.kind, kinds) {
			out = append(out, e)
		}
	}
	return out
}

func matchKind(k EdgeKind, kinds []EdgeKind) bool {
	return len(kinds) == 0 || slices.Contains(kinds, k)
}

// register adds a freshly constructed node to the arena.
func (g *Graph) register(n Node, c *nodeCore, ast resolved.Node) {
	c.g = g
	c.id = NodeID(len(g.nodes))
	c.self = n
	c.ast = ast
	g.nodes = append(g.nodes, n)
}

// Edge is a directed, kind-tagged relationship between two nodes of one graph.
// Kind and ordinals never change after creation.
type Edge struct {
	g            *Graph
	id           EdgeID
	start, end   NodeID
	kind         EdgeKind
	startOrdinal int
	endOrdinal   int
	removed      bool
}

// ID returns the edge identity.
func (e *Edge) ID() EdgeID { return e.id }

// Kind returns the edge kind.
func (e *Edge) Kind() EdgeKind { return e.kind }

// Start returns the start node.
func (e *Edge) Start() Node { return e.g.nodes[e.start] }

// End returns the end node.
func (e *Edge) End() Node { return e.g.nodes[e.end] }

// StartOrdinal is the position of e among the outgoing edges ever created on its start node.
func (e *Edge) StartOrdinal() int { return e.startOrdinal }

// EndOrdinal is the position of e among the incoming edges ever created on its end node.
func (e *Edge) EndOrdinal() int { return e.endOrdinal }

// Removed reports whether the edge was removed from its graph.
func (e *Edge) Removed() bool { return e.removed }

func (e *Edge) String() string {
	return fmt.Sprintf("%d -%s-> %d", e.start, e.kind, e.end)
}
