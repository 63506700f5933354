package usagegraph

import (
	"slices"
	"sync/atomic"

	"github.com/l3aro/go-usage-graph/pkg/resolved"
)

// Node is implemented by every concrete node kind of the usage graph. The set of
// implementations is closed: the interface carries unexported methods, so only
// this package can add kinds, and every kind has a dedicated Visitor method.
type Node interface {
	ID() NodeID
	Kind() NodeKind
	Label() string
	Graph() *Graph

	// Parent returns the containing node, if any.
	Parent() (Node, bool)
	// Children returns the directly owned nodes in attachment order.
	Children() []Node
	// AddChild attaches n as a child. It reports false, without changing
	// anything, when n already has a parent, is this node, belongs to another
	// graph, or is an ancestor of this node.
	AddChild(n Node) bool
	// AddChildren attaches each node with AddChild and returns how many were attached.
	AddChildren(ns []Node) int
	// SetParent attaches this node to p. It succeeds only while no parent is set;
	// repeating the call with the current parent reports true.
	SetParent(p Node) bool
	// IsOrDescendantOf reports whether n is this node or one of its ancestors.
	IsOrDescendantOf(n Node) bool
	// HasAncestorLike reports whether some strict ancestor has the same kind
	// (and control or action type) as n.
	HasAncestorLike(n Node) bool

	Incoming(kinds ...EdgeKind) []*Edge
	Outgoing(kinds ...EdgeKind) []*Edge
	StartsOfIncoming(kinds ...EdgeKind) []Node
	EndsOfOutgoing(kinds ...EdgeKind) []Node

	// ASTNode returns the originating AST node. Pattern graphs have none.
	ASTNode() (resolved.Node, bool)
	// ControlParent returns the nearest enclosing control construct.
	ControlParent() (*ControlNode, bool)
	SetControlParent(c *ControlNode)

	// ProcessedCounter returns the processing index, once one was set.
	ProcessedCounter() (int64, bool)
	// SetProcessedCounter stores v unless a value is already stored. It is
	// safe for concurrent use; the first successful write wins.
	SetProcessedCounter(v int64) bool

	Accept(v Visitor)

	core() *nodeCore
	shape() string
}

// nodeCore holds the state shared by all node kinds.
type nodeCore struct {
	g    *Graph
	id   NodeID
	self Node

	parent    NodeID
	hasParent bool
	children  []NodeID

	incoming []EdgeID
	outgoing []EdgeID
	// created counters stamp edge ordinals; they never decrease.
	inCreated  int
	outCreated int

	ast resolved.Node

	controlParent    NodeID
	hasControlParent bool

	processed atomic.Pointer[int64]
}

func (c *nodeCore) core() *nodeCore { return c }

func (c *nodeCore) ID() NodeID { return c.id }

func (c *nodeCore) Graph() *Graph { return c.g }

func (c *nodeCore) Parent() (Node, bool) {
	if !c.hasParent {
		return nil, false
	}
	return c.g.nodes[c.parent], true
}

func (c *nodeCore) Children() []Node {
	out := make([]Node, 0, len(c.children))
	for _, id := range c.children {
		out = append(out, c.g.nodes[id])
	}
	return out
}

func (c *nodeCore) AddChild(n Node) bool {
	if n == nil {
		return false
	}
	child := n.core()
	if child == c || child.g != c.g || child.hasParent {
		return false
	}
	// Attaching an ancestor would close a cycle in the parent forest.
	if c.IsOrDescendantOf(n) {
		return false
	}
	child.parent = c.id
	child.hasParent = true
	c.children = append(c.children, child.id)
	return true
}

func (c *nodeCore) AddChildren(ns []Node) int {
	added := 0
	for _, n := range ns {
		if c.AddChild(n) {
			added++
		}
	}
	return added
}

func (c *nodeCore) SetParent(p Node) bool {
	if p == nil {
		return false
	}
	if c.hasParent {
		return p.core() == c.g.nodes[c.parent].core()
	}
	return p.AddChild(c.self)
}

func (c *nodeCore) IsOrDescendantOf(n Node) bool {
	if n == nil {
		return false
	}
	target := n.core()
	cur := c
	// The forest invariant bounds the walk; the limit guards against corruption.
	for steps := 0; steps <= len(c.g.nodes); steps++ {
		if cur == target {
			return true
		}
		if !cur.hasParent {
			return false
		}
		cur = c.g.nodes[cur.parent].core()
	}
	return false
}

func (c *nodeCore) HasAncestorLike(n Node) bool {
	if n == nil {
		return false
	}
	want := n.shape()
	p, ok := c.Parent()
	for steps := 0; ok && steps <= len(c.g.nodes); steps++ {
		if p.shape() == want {
			return true
		}
		p, ok = p.Parent()
	}
	return false
}

func (c *nodeCore) Incoming(kinds ...EdgeKind) []*Edge {
	return c.g.edgesOf(c.incoming, kinds)
}

func (c *nodeCore) Outgoing(kinds ...EdgeKind) []*Edge {
	return c.g.edgesOf(c.outgoing, kinds)
}

func (c *nodeCore) StartsOfIncoming(kinds ...EdgeKind) []Node {
	edges := c.Incoming(kinds...)
	out := make([]Node, 0, len(edges))
	for _, e := range edges {
		out = append(out, e.Start())
	}
	return out
}

func (c *nodeCore) EndsOfOutgoing(kinds ...EdgeKind) []Node {
	edges := c.Outgoing(kinds...)
	out := make([]Node, 0, len(edges))
	for _, e := range edges {
		out = append(out, e.End())
	}
	return out
}

func (c *nodeCore) ASTNode() (resolved.Node, bool) {
	return c.ast, c.ast != nil
}

func (c *nodeCore) ControlParent() (*ControlNode, bool) {
	if !c.hasControlParent {
		return nil, false
	}
	return c.g.nodes[c.controlParent].(*ControlNode), true
}

func (c *nodeCore) SetControlParent(cn *ControlNode) {
	if cn == nil {
		c.hasControlParent = false
		return
	}
	c.controlParent = cn.id
	c.hasControlParent = true
}

func (c *nodeCore) ProcessedCounter() (int64, bool) {
	p := c.processed.Load()
	if p == nil {
		return 0, false
	}
	return *p, true
}

func (c *nodeCore) SetProcessedCounter(v int64) bool {
	return c.processed.CompareAndSwap(nil, &v)
}

func (c *nodeCore) addIncoming(e *Edge) int {
	c.incoming = append(c.incoming, e.id)
	ord := c.inCreated
	c.inCreated++
	return ord
}

func (c *nodeCore) addOutgoing(e *Edge) int {
	c.outgoing = append(c.outgoing, e.id)
	ord := c.outCreated
	c.outCreated++
	return ord
}

func (c *nodeCore) dropIncoming(id EdgeID) {
	c.incoming = slices.DeleteFunc(c.incoming, func(x EdgeID) bool { return x == id })
}

func (c *nodeCore) dropOutgoing(id EdgeID) {
	c.outgoing = slices.DeleteFunc(c.outgoing, func(x EdgeID) bool { return x == id })
}
