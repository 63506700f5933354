package usagegraph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGraph_AddEdge_Ordinals(t *testing.T) {
	g := New("test")
	def := g.NewDefinition(newVar("x"), 1, nil)
	r1 := g.NewVariableReference(newVar("x"), nil)
	r2 := g.NewVariableReference(newVar("x"), nil)
	r3 := g.NewVariableReference(newVar("x"), nil)

	e1 := g.AddEdge(def, r1, EdgeDataRead)
	e2 := g.AddEdge(def, r2, EdgeDataRead)
	e3 := g.AddEdge(def, r3, EdgeDataRead)

	assert.Equal(t, 0, e1.StartOrdinal())
	assert.Equal(t, 1, e2.StartOrdinal())
	assert.Equal(t, 2, e3.StartOrdinal())
	assert.Equal(t, 0, e2.EndOrdinal())

	require.True(t, g.RemoveEdge(e2))
	assert.False(t, g.RemoveEdge(e2), "second removal is a no-op")
	assert.True(t, e2.Removed())

	assert.Equal(t, 0, e1.StartOrdinal())
	assert.Equal(t, 2, e3.StartOrdinal())
	assert.Equal(t, []*Edge{e1, e3}, def.Outgoing())
	assert.Empty(t, r2.Incoming())
	assert.Equal(t, 2, g.EdgeCount())

	// new edges continue numbering after the removed one
	e4 := g.AddEdge(def, r2, EdgeDataRead)
	assert.Equal(t, 3, e4.StartOrdinal())
	assert.Equal(t, 1, e4.EndOrdinal())
}

func TestGraph_RemoveRedundantEdges(t *testing.T) {
	g := New("test")
	def := g.NewDefinition(newVar("x"), 1, nil)
	ref := g.NewVariableReference(newVar("x"), nil)

	first := g.AddEdge(def, ref, EdgeDataRead)
	temporal := g.AddEdge(def, ref, EdgeTemporal)
	dup := g.AddEdge(def, ref, EdgeDataRead)
	back := g.AddEdge(ref, def, EdgeDataRead)

	assert.Equal(t, 1, g.RemoveRedundantEdges())
	assert.True(t, dup.Removed())
	assert.False(t, first.Removed(), "the earliest edge is kept")
	assert.False(t, temporal.Removed(), "kinds are distinct")
	assert.False(t, back.Removed(), "direction matters")
	assert.Equal(t, []*Edge{first, temporal}, def.Outgoing())
	assert.Equal(t, 3, g.EdgeCount())

	assert.Zero(t, g.RemoveRedundantEdges())
}

func TestGraph_AddEdge_Foreign(t *testing.T) {
	g1, g2 := New("a"), New("b")
	a := g1.NewControl(ControlBlock, nil)
	b := g2.NewControl(ControlBlock, nil)

	assert.PanicsWithValue(t, ErrForeignNode, func() { g1.AddEdge(a, b, EdgeTemporal) })
	assert.PanicsWithValue(t, ErrForeignNode, func() { g1.AddEdge(a, nil, EdgeTemporal) })
}

func TestGraph_EdgeFilters(t *testing.T) {
	g := New("test")
	def := g.NewDefinition(newVar("x"), 1, nil)
	ref := g.NewVariableReference(newVar("x"), nil)
	m := g.NewMethodAccess(newVar("x"), &testMutator, 2, nil)

	g.AddEdge(def, ref, EdgeTemporal)
	g.AddEdge(def, ref, EdgeDataRead)
	g.AddEdge(ref, m, EdgeTemporal)
	g.AddEdge(def, m, EdgeDataRedefinition)

	assert.Len(t, def.Outgoing(), 3)
	assert.Len(t, def.Outgoing(EdgeTemporal), 1)
	assert.Len(t, def.Outgoing(EdgeDataRead, EdgeDataRedefinition), 2)
	assert.Equal(t, []Node{def, ref}, m.StartsOfIncoming())
	assert.Equal(t, []Node{m}, ref.EndsOfOutgoing(EdgeTemporal))
	assert.Len(t, g.Edges(EdgeTemporal), 2)
	assert.True(t, g.HasEdge(def, m, EdgeDataRedefinition))
	assert.False(t, g.HasEdge(m, def, EdgeDataRedefinition))
}

func TestGraph_Roots(t *testing.T) {
	g := New("test")
	fn := g.NewControl(ControlBeginFunc, nil)
	body := g.NewControl(ControlBlock, nil)
	top := g.NewDefinition(newVar("x"), 1, nil)
	require.True(t, fn.AddChild(body))

	assert.Equal(t, []Node{fn, top}, g.Roots())
	assert.Equal(t, 3, g.Len())

	n, ok := g.Node(body.ID())
	require.True(t, ok)
	assert.Same(t, body, n)
	_, ok = g.Node(NodeID(99))
	assert.False(t, ok)
}

func TestGraph_CheckForest(t *testing.T) {
	g := New("test")
	a := g.NewControl(ControlBlock, nil)
	b := g.NewControl(ControlBlock, nil)
	require.True(t, a.AddChild(b))
	require.NoError(t, g.CheckForest())

	// corrupt the arena directly
	a.core().parent = b.ID()
	a.core().hasParent = true
	assert.ErrorIs(t, g.CheckForest(), ErrForestViolation)
}

type countingVisitor struct {
	kinds map[NodeKind]int
	edges int
}

func (v *countingVisitor) VisitControl(*ControlNode)       { v.kinds[KindControl]++ }
func (v *countingVisitor) VisitDefinition(*Definition)     { v.kinds[KindDefinition]++ }
func (v *countingVisitor) VisitConstRef(*ConstRef)         { v.kinds[KindConstRef]++ }
func (v *countingVisitor) VisitFunctionCall(*FunctionCall) { v.kinds[KindFunctionCall]++ }
func (v *countingVisitor) VisitMethodAccess(*MethodAccess) { v.kinds[KindMethodAccess]++ }
func (v *countingVisitor) VisitExpression(*Expression)     { v.kinds[KindExpression]++ }
func (v *countingVisitor) VisitEdge(*Edge)                 { v.edges++ }
func (v *countingVisitor) VisitDefinitionByImport(*DefinitionByImport) {
	v.kinds[KindDefinitionByImport]++
}
func (v *countingVisitor) VisitPropertyAccess(*PropertyAccess) { v.kinds[KindPropertyAccess]++ }
func (v *countingVisitor) VisitParameterInstantiation(*ParameterInstantiation) {
	v.kinds[KindParameterInstantiation]++
}
func (v *countingVisitor) VisitVariableReference(*VariableReference) {
	v.kinds[KindVariableReference]++
}
func (v *countingVisitor) VisitReferenceInGraph(*ReferenceInGraph) { v.kinds[KindReferenceInGraph]++ }
func (v *countingVisitor) VisitPassAsParameter(*PassAsParameter)   { v.kinds[KindPassAsParameter]++ }

func TestGraph_Walk(t *testing.T) {
	g := New("test")
	x := newVar("x")
	g.NewControl(ControlBlock, nil)
	def := g.NewDefinition(x, 1, nil)
	g.NewDefinitionByImport(x, nil, newVar("remote"), 2, nil)
	lit := g.NewConstRef(1, nil, 3, nil)
	g.NewFunctionCall(newVar("f"), nil)
	g.NewMethodAccess(x, &testMutator, 4, nil)
	g.NewPropertyAccess(x, newVar("hp"), 5, nil)
	g.NewParameterInstantiation(newVar("p"), 0, 6, nil)
	ref := g.NewVariableReference(x, nil)
	g.NewReferenceInGraph(x, nil)
	g.NewExpression(OpPlus, []Node{lit}, 7, nil)
	g.NewPassAsParameter(0, []Node{ref}, 8, nil)
	g.AddEdge(def, ref, EdgeDataRead)

	v := &countingVisitor{kinds: map[NodeKind]int{}}
	g.Walk(v)

	assert.Len(t, v.kinds, 12, "every kind dispatches to its own method")
	for k, c := range v.kinds {
		assert.Equal(t, 1, c, k)
	}
	assert.Equal(t, 1, v.edges)
}
