package usagegraph

import (
	"fmt"

	"github.com/l3aro/go-usage-graph/pkg/resolved"
)

// ControlNode marks a control construct: loops, branches, blocks, returns and
// function boundaries. It carries no payload besides its type and a sequence
// number used for labeling.
type ControlNode struct {
	nodeCore
	controlType ControlType
	seq         int
}

// NewControl adds a control node of type t. ast may be nil.
func (g *Graph) NewControl(t ControlType, ast resolved.Node) *ControlNode {
	if !t.Valid() {
		panic(fmt.Sprintf("usagegraph: invalid control type %d", uint8(t)))
	}
	n := &ControlNode{controlType: t, seq: g.controlSeq}
	g.controlSeq++
	g.register(n, &n.nodeCore, ast)
	return n
}

// ControlType returns the construct this node marks.
func (n *ControlNode) ControlType() ControlType { return n.controlType }

// Seq returns the sequence number assigned at construction.
func (n *ControlNode) Seq() int { return n.seq }

// IsConditional reports whether the marked construct is conditional.
func (n *ControlNode) IsConditional() bool { return n.controlType.IsConditional() }

func (n *ControlNode) Kind() NodeKind { return KindControl }

func (n *ControlNode) Label() string {
	return fmt.Sprintf("%s [%d]", n.controlType, n.seq)
}

func (n *ControlNode) Accept(v Visitor) { v.VisitControl(n) }

func (n *ControlNode) shape() string { return "control:" + n.controlType.String() }
