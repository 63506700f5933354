// Package analysis provides read-only queries over finished usage graphs:
// dependence slices, unresolved reads and containment lookups.
//
// All functions only read the graph and may run concurrently on the same graph.
package analysis

import (
	"container/list"
	"slices"

	"github.com/l3aro/go-usage-graph/pkg/usagegraph"
)

var dataKinds = []usagegraph.EdgeKind{usagegraph.EdgeDataRead, usagegraph.EdgeDataRedefinition}

// BackwardSlice returns the nodes the start node depends on, including start,
// in id order. Only edges of the given kinds are followed; without kinds both
// data dependency kinds are.
func BackwardSlice(g *usagegraph.Graph, start usagegraph.NodeID, kinds ...usagegraph.EdgeKind) []usagegraph.Node {
	return slice(g, start, kinds, func(n usagegraph.Node, ks []usagegraph.EdgeKind) []usagegraph.Node {
		return n.StartsOfIncoming(ks...)
	})
}

// ForwardSlice returns the nodes depending on the start node, including start,
// in id order. Edge kinds are selected as in BackwardSlice.
func ForwardSlice(g *usagegraph.Graph, start usagegraph.NodeID, kinds ...usagegraph.EdgeKind) []usagegraph.Node {
	return slice(g, start, kinds, func(n usagegraph.Node, ks []usagegraph.EdgeKind) []usagegraph.Node {
		return n.EndsOfOutgoing(ks...)
	})
}

func slice(g *usagegraph.Graph, start usagegraph.NodeID, kinds []usagegraph.EdgeKind, next func(usagegraph.Node, []usagegraph.EdgeKind) []usagegraph.Node) []usagegraph.Node {
	if g == nil {
		return nil
	}
	first, ok := g.Node(start)
	if !ok {
		return nil
	}
	if len(kinds) == 0 {
		kinds = dataKinds
	}

	// BFS with visited set; the temporal graph is acyclic but data edges need not be
	visited := map[usagegraph.NodeID]bool{start: true}
	queue := list.New()
	queue.PushBack(first)

	var result []usagegraph.Node
	for queue.Len() > 0 {
		cur := queue.Remove(queue.Front()).(usagegraph.Node)
		result = append(result, cur)
		for _, n := range next(cur, kinds) {
			if visited[n.ID()] {
				continue
			}
			visited[n.ID()] = true
			queue.PushBack(n)
		}
	}

	slices.SortFunc(result, byID)
	return result
}

func byID(a, b usagegraph.Node) int {
	return int(a.ID()) - int(b.ID())
}

// NodesAtLine returns the nodes whose originating AST node sits on line, in id order.
func NodesAtLine(g *usagegraph.Graph, line int) []usagegraph.Node {
	var out []usagegraph.Node
	for _, n := range g.Nodes() {
		if ast, ok := n.ASTNode(); ok && ast.Position().Line == line {
			out = append(out, n)
		}
	}
	return out
}

// Lines extracts the sorted, distinct source lines of nodes. Nodes without an
// AST position are skipped.
func Lines(nodes []usagegraph.Node) []int {
	var lines []int
	for _, n := range nodes {
		ast, ok := n.ASTNode()
		if !ok || ast.Position().Line <= 0 {
			continue
		}
		lines = append(lines, ast.Position().Line)
	}
	slices.Sort(lines)
	return slices.Compact(lines)
}

// SliceLines runs a slice from every node on line and returns the lines involved.
func SliceLines(g *usagegraph.Graph, line int, forward bool, kinds ...usagegraph.EdgeKind) []int {
	seen := map[usagegraph.NodeID]bool{}
	var all []usagegraph.Node
	for _, start := range NodesAtLine(g, line) {
		var part []usagegraph.Node
		if forward {
			part = ForwardSlice(g, start.ID(), kinds...)
		} else {
			part = BackwardSlice(g, start.ID(), kinds...)
		}
		for _, n := range part {
			if !seen[n.ID()] {
				seen[n.ID()] = true
				all = append(all, n)
			}
		}
	}
	return Lines(all)
}
