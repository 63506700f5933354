package analysis

import (
	"github.com/l3aro/go-usage-graph/pkg/resolved"
	"github.com/l3aro/go-usage-graph/pkg/usagegraph"
)

// unresolved collects reading actions whose referenced instance was never set.
type unresolved struct {
	out []usagegraph.Action
}

func (u *unresolved) check(a usagegraph.Action) {
	if _, ok := a.ReferencedInstance(); !ok {
		u.out = append(u.out, a)
	}
}

func (u *unresolved) VisitControl(*usagegraph.ControlNode)                           {}
func (u *unresolved) VisitDefinition(*usagegraph.Definition)                         {}
func (u *unresolved) VisitDefinitionByImport(*usagegraph.DefinitionByImport)         {}
func (u *unresolved) VisitConstRef(*usagegraph.ConstRef)                             {}
func (u *unresolved) VisitParameterInstantiation(*usagegraph.ParameterInstantiation) {}
func (u *unresolved) VisitExpression(*usagegraph.Expression)                         {}
func (u *unresolved) VisitPassAsParameter(*usagegraph.PassAsParameter)               {}
func (u *unresolved) VisitEdge(*usagegraph.Edge)                                     {}
func (u *unresolved) VisitFunctionCall(n *usagegraph.FunctionCall)                   { u.check(n) }
func (u *unresolved) VisitVariableReference(n *usagegraph.VariableReference)         { u.check(n) }
func (u *unresolved) VisitReferenceInGraph(n *usagegraph.ReferenceInGraph)           { u.check(n) }

func (u *unresolved) VisitMethodAccess(n *usagegraph.MethodAccess) {
	if _, ok := n.Receiver(); ok {
		u.check(n)
	}
}

func (u *unresolved) VisitPropertyAccess(n *usagegraph.PropertyAccess) {
	if _, ok := n.Receiver(); ok {
		u.check(n)
	}
}

// UnresolvedReads returns the reads that no definition reaches, in id order.
// Accesses on computed receivers are not reads of a symbol and never reported.
func UnresolvedReads(g *usagegraph.Graph) []usagegraph.Action {
	u := &unresolved{}
	g.Walk(u)
	return u.out
}

// AccessesInside returns the member accesses contained in scope, at any depth.
func AccessesInside(g *usagegraph.Graph, scope usagegraph.Node) []usagegraph.Action {
	var out []usagegraph.Action
	for _, n := range g.Nodes() {
		if n.ID() == scope.ID() || !n.IsOrDescendantOf(scope) {
			continue
		}
		switch a := n.(type) {
		case *usagegraph.MethodAccess:
			out = append(out, a)
		case *usagegraph.PropertyAccess:
			out = append(out, a)
		}
	}
	return out
}

// DefinitionsOf returns the actions introducing an instance of sym, in id order:
// definitions, imports, parameter bindings and mutating method calls.
func DefinitionsOf(g *usagegraph.Graph, sym *resolved.Symbol) []usagegraph.Action {
	var out []usagegraph.Action
	for _, n := range g.Nodes() {
		var s *resolved.Symbol
		switch a := n.(type) {
		case *usagegraph.Definition:
			s, _ = a.Symbol()
		case *usagegraph.DefinitionByImport:
			s, _ = a.InstanceSymbol()
		case *usagegraph.ParameterInstantiation:
			s, _ = a.Parameter()
		case *usagegraph.MethodAccess:
			if _, ok := a.ProducedInstance(); ok {
				s, _ = a.Receiver()
			}
		}
		if s != nil && s == sym {
			out = append(out, n.(usagegraph.Action))
		}
	}
	return out
}

// Stats counts nodes per kind and edges per kind.
type Stats struct {
	Nodes map[usagegraph.NodeKind]int `json:"nodes"`
	Edges map[usagegraph.EdgeKind]int `json:"edges"`
}

type statsVisitor struct{ s *Stats }

func (v statsVisitor) node(k usagegraph.NodeKind) { v.s.Nodes[k]++ }

func (v statsVisitor) VisitControl(*usagegraph.ControlNode) { v.node(usagegraph.KindControl) }
func (v statsVisitor) VisitDefinition(*usagegraph.Definition) {
	v.node(usagegraph.KindDefinition)
}
func (v statsVisitor) VisitDefinitionByImport(*usagegraph.DefinitionByImport) {
	v.node(usagegraph.KindDefinitionByImport)
}
func (v statsVisitor) VisitConstRef(*usagegraph.ConstRef) { v.node(usagegraph.KindConstRef) }
func (v statsVisitor) VisitFunctionCall(*usagegraph.FunctionCall) {
	v.node(usagegraph.KindFunctionCall)
}
func (v statsVisitor) VisitMethodAccess(*usagegraph.MethodAccess) {
	v.node(usagegraph.KindMethodAccess)
}
func (v statsVisitor) VisitPropertyAccess(*usagegraph.PropertyAccess) {
	v.node(usagegraph.KindPropertyAccess)
}
func (v statsVisitor) VisitParameterInstantiation(*usagegraph.ParameterInstantiation) {
	v.node(usagegraph.KindParameterInstantiation)
}
func (v statsVisitor) VisitVariableReference(*usagegraph.VariableReference) {
	v.node(usagegraph.KindVariableReference)
}
func (v statsVisitor) VisitReferenceInGraph(*usagegraph.ReferenceInGraph) {
	v.node(usagegraph.KindReferenceInGraph)
}
func (v statsVisitor) VisitExpression(*usagegraph.Expression) { v.node(usagegraph.KindExpression) }
func (v statsVisitor) VisitPassAsParameter(*usagegraph.PassAsParameter) {
	v.node(usagegraph.KindPassAsParameter)
}
func (v statsVisitor) VisitEdge(e *usagegraph.Edge) { v.s.Edges[e.Kind()]++ }

// Summarize computes the Stats of g.
func Summarize(g *usagegraph.Graph) Stats {
	s := Stats{
		Nodes: make(map[usagegraph.NodeKind]int),
		Edges: make(map[usagegraph.EdgeKind]int),
	}
	g.Walk(statsVisitor{s: &s})
	return s
}
