package usagegraph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/l3aro/go-usage-graph/pkg/resolved"
)

var testMutator = resolved.Symbol{
	Name:     "increment",
	Kind:     resolved.SymbolKindMember,
	Type:     &resolved.Type{Name: "fn()", Kind: resolved.TypeKindFunction},
	Mutating: true,
}

func TestControlType_Classification(t *testing.T) {
	tests := []struct {
		ct          ControlType
		conditional bool
		operands    bool
	}{
		{ControlNone, false, false},
		{ControlWhileLoop, true, true},
		{ControlForLoop, true, true},
		{ControlCountingForLoop, true, true},
		{ControlIfStmt, true, true},
		{ControlIfElseStmt, true, false},
		{ControlElseStmt, true, false},
		{ControlBlock, false, false},
		{ControlReturnStmt, false, true},
		{ControlBeginFunc, false, false},
		{ControlEndFunc, false, false},
	}
	require.Len(t, tests, len(ControlTypes()), "every control type is classified")
	for _, tc := range tests {
		t.Run(tc.ct.String(), func(t *testing.T) {
			assert.Equal(t, tc.conditional, tc.ct.IsConditional())
			assert.Equal(t, tc.operands, tc.ct.ReadsOperands())
		})
	}

	assert.Panics(t, func() { _ = ControlType(200).IsConditional() })
	assert.Panics(t, func() { _ = ControlType(200).ReadsOperands() })
}

func TestControlNode_Seq(t *testing.T) {
	g := New("test")
	a := g.NewControl(ControlIfStmt, nil)
	b := g.NewControl(ControlBlock, nil)

	assert.Equal(t, 0, a.Seq())
	assert.Equal(t, 1, b.Seq())
	assert.Equal(t, "ifStmt [0]", a.Label())
	assert.True(t, a.IsConditional())

	// counters are per graph
	other := New("other").NewControl(ControlBlock, nil)
	assert.Equal(t, 0, other.Seq())
}

func TestAction_ReferencedInstance(t *testing.T) {
	g := New("test")
	ref := g.NewVariableReference(newVar("x"), nil)

	_, ok := ref.ReferencedInstance()
	assert.False(t, ok)
	assert.Equal(t, "referencedInExpression x [?]", ref.Label())

	assert.True(t, ref.SetReferencedInstance(4))
	assert.False(t, ref.SetReferencedInstance(5))
	id, ok := ref.ReferencedInstance()
	require.True(t, ok)
	assert.Equal(t, InstanceID(4), id)
	assert.Equal(t, "referencedInExpression x [4]", ref.Label())
}

func TestAction_MissingSymbol(t *testing.T) {
	g := New("test")
	def := g.NewDefinition(nil, 1, nil)
	call := g.NewFunctionCall(nil, nil)
	lit := g.NewConstRef(nil, nil, 2, nil)

	_, ok := def.Symbol()
	assert.False(t, ok)
	_, ok = call.Function()
	assert.False(t, ok)
	_, ok = lit.Type()
	assert.False(t, ok)

	assert.Equal(t, "definition <no symbol> [1]", def.Label())
	assert.Equal(t, "functionCall <no symbol>() [?]", call.Label())
	assert.Contains(t, lit.Label(), "<no type>")
}

func TestDefinitionByImport_Slots(t *testing.T) {
	g := New("test")
	entity := &resolved.Type{Name: "entity", Kind: resolved.TypeKindAggregate}
	remoteFn := &resolved.Symbol{Name: "spawn", Kind: resolved.SymbolKindFunction}
	localFn := &resolved.Symbol{Name: "spawn", Kind: resolved.SymbolKindImportedFunction, Original: remoteFn}
	remoteType := &resolved.Symbol{Name: "entity", Kind: resolved.SymbolKindAggregateType, Type: entity}
	localType := &resolved.Symbol{Name: "entity", Kind: resolved.SymbolKindImportedType, Original: remoteType}

	fn := g.NewDefinitionByImport(localFn, nil, remoteFn, 1, nil)
	ty := g.NewDefinitionByImport(localType, entity, remoteType, 2, nil)

	_, ok := fn.ImportedType()
	assert.False(t, ok, "imported functions leave the type slot unset")
	inst, ok := fn.InstanceSymbol()
	require.True(t, ok)
	assert.Same(t, localFn, inst)
	orig, ok := fn.OriginalSymbol()
	require.True(t, ok)
	assert.Same(t, remoteFn, orig)

	typ, ok := ty.ImportedType()
	require.True(t, ok)
	assert.Same(t, entity, typ)
	assert.Equal(t, ActionDefinitionByImport, ty.ActionType())
	assert.True(t, ty.ActionType().IsDefinition())
}

func TestMemberAccess(t *testing.T) {
	g := New("test")
	x := newVar("x")
	hp := &resolved.Symbol{Name: "hp", Kind: resolved.SymbolKindMember}

	m := g.NewMethodAccess(x, &testMutator, 10, nil)
	p := g.NewPropertyAccess(nil, hp, 11, nil)

	assert.True(t, m.Mutating())
	acc, ok := m.AccessInstance()
	require.True(t, ok)
	assert.Equal(t, InstanceID(10), acc)
	_, ok = m.ProducedInstance()
	assert.False(t, ok)
	assert.True(t, m.SetProducedInstance(12))
	assert.False(t, m.SetProducedInstance(13))
	prod, _ := m.ProducedInstance()
	assert.Equal(t, InstanceID(12), prod)
	assert.Equal(t, "functionCallAccess x.increment() [?]", m.Label())

	_, ok = p.Receiver()
	assert.False(t, ok)
	assert.Equal(t, "propertyAccess _.hp [?]", p.Label())

	pure := g.NewMethodAccess(x, &resolved.Symbol{Name: "size", Kind: resolved.SymbolKindMember}, 14, nil)
	assert.False(t, pure.Mutating())
}

func TestExpression_Operands(t *testing.T) {
	g := New("test")
	a := g.NewConstRef(1, nil, 1, nil)
	b := g.NewVariableReference(newVar("y"), nil)
	owned := g.NewConstRef(2, nil, 2, nil)
	holder := g.NewControl(ControlBlock, nil)
	require.True(t, holder.AddChild(owned))

	e := g.NewExpression(OpPlus, []Node{a, b, owned}, 3, nil)
	assert.Equal(t, []Node{a, b}, e.Operands(), "operands with a parent stay where they are")
	assert.Equal(t, OpPlus, e.Operator())
	assert.True(t, e.Operator().IsArithmetic())

	blank := g.NewExpression("", nil, 4, nil)
	assert.Equal(t, OpNone, blank.Operator())
	assert.Equal(t, "expression [4]", blank.Label())

	arg := g.NewPassAsParameter(1, []Node{e}, 5, nil)
	assert.Equal(t, 1, arg.Index())
	assert.Equal(t, []Node{e}, arg.Operands())
	assert.Equal(t, "passAsParameter #1 [5]", arg.Label())
}

func TestOperator_Classes(t *testing.T) {
	tests := []struct {
		op      Operator
		cmp     bool
		arith   bool
		boolean bool
	}{
		{OpNone, false, false, false},
		{OpEquals, true, false, false},
		{OpLessEquals, true, false, false},
		{OpMul, false, true, false},
		{OpAnd, false, false, true},
		{OpNot, false, false, true},
	}
	for _, tc := range tests {
		t.Run(string(tc.op), func(t *testing.T) {
			assert.Equal(t, tc.cmp, tc.op.IsComparison())
			assert.Equal(t, tc.arith, tc.op.IsArithmetic())
			assert.Equal(t, tc.boolean, tc.op.IsBoolean())
		})
	}
}

func TestActionType_Text(t *testing.T) {
	b, err := ActionFunctionCallAccess.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "functionCallAccess", string(b))

	_, err = ActionType(99).MarshalText()
	assert.Error(t, err)
	assert.Equal(t, "ActionType(99)", ActionType(99).String())

	_, err = ControlType(99).MarshalText()
	assert.Error(t, err)
}
