package usagegraph

import (
	"fmt"

	"github.com/l3aro/go-usage-graph/pkg/resolved"
)

// Action is implemented by every node capturing what happens to a value version.
type Action interface {
	Node
	ActionType() ActionType
	// ReferencedInstance returns the value version this action touches, once known.
	ReferencedInstance() (InstanceID, bool)
	// SetReferencedInstance stores id unless an instance is already set.
	SetReferencedInstance(id InstanceID) bool
}

type actionCore struct {
	nodeCore
	actionType  ActionType
	instance    InstanceID
	hasInstance bool
}

func (a *actionCore) ActionType() ActionType { return a.actionType }

func (a *actionCore) ReferencedInstance() (InstanceID, bool) {
	return a.instance, a.hasInstance
}

func (a *actionCore) SetReferencedInstance(id InstanceID) bool {
	if a.hasInstance {
		return false
	}
	a.instance = id
	a.hasInstance = true
	return true
}

func (a *actionCore) shape() string { return "action:" + a.actionType.String() }

func (a *actionCore) label(subject string) string {
	inst := "?"
	if a.hasInstance {
		inst = fmt.Sprint(a.instance)
	}
	if subject == "" {
		return fmt.Sprintf("%s [%s]", a.actionType, inst)
	}
	return fmt.Sprintf("%s %s [%s]", a.actionType, subject, inst)
}

func (a *actionCore) init(t ActionType, inst *InstanceID) {
	a.actionType = t
	if inst != nil {
		a.instance = *inst
		a.hasInstance = true
	}
}

func optSymbol(s *resolved.Symbol) (*resolved.Symbol, bool) { return s, s != nil }

func optType(t *resolved.Type) (*resolved.Type, bool) { return t, t != nil }

// ----------------------------------------------------------------------------
// Definitions

// Definition introduces a new instance bound to a resolved symbol.
type Definition struct {
	actionCore
	symbol *resolved.Symbol
}

// NewDefinition adds a definition of sym producing instance inst.
func (g *Graph) NewDefinition(sym *resolved.Symbol, inst InstanceID, ast resolved.Node) *Definition {
	n := &Definition{symbol: sym}
	n.init(ActionDefinition, &inst)
	g.register(n, &n.nodeCore, ast)
	return n
}

// Symbol returns the defined symbol.
func (n *Definition) Symbol() (*resolved.Symbol, bool) { return optSymbol(n.symbol) }

func (n *Definition) Kind() NodeKind   { return KindDefinition }
func (n *Definition) Label() string    { return n.label(n.symbol.String()) }
func (n *Definition) Accept(v Visitor) { v.VisitDefinition(n) }

// DefinitionByImport introduces an instance for a symbol brought in by an import.
// Imported functions populate the instance and original symbols; imported
// aggregate types additionally populate the imported type.
type DefinitionByImport struct {
	actionCore
	importedType   *resolved.Type
	instanceSymbol *resolved.Symbol
	originalSymbol *resolved.Symbol
}

// NewDefinitionByImport adds a definition for an imported symbol. Any of the
// three slots may be nil.
func (g *Graph) NewDefinitionByImport(local *resolved.Symbol, importedType *resolved.Type, original *resolved.Symbol, inst InstanceID, ast resolved.Node) *DefinitionByImport {
	n := &DefinitionByImport{
		importedType:   importedType,
		instanceSymbol: local,
		originalSymbol: original,
	}
	n.init(ActionDefinitionByImport, &inst)
	g.register(n, &n.nodeCore, ast)
	return n
}

// ImportedType returns the type the import brings in, for imported types.
func (n *DefinitionByImport) ImportedType() (*resolved.Type, bool) { return optType(n.importedType) }

// InstanceSymbol returns the local symbol the import binds.
func (n *DefinitionByImport) InstanceSymbol() (*resolved.Symbol, bool) {
	return optSymbol(n.instanceSymbol)
}

// OriginalSymbol returns the remote declaration.
func (n *DefinitionByImport) OriginalSymbol() (*resolved.Symbol, bool) {
	return optSymbol(n.originalSymbol)
}

func (n *DefinitionByImport) Kind() NodeKind { return KindDefinitionByImport }

func (n *DefinitionByImport) Label() string {
	name := n.instanceSymbol.String()
	if n.originalSymbol != nil {
		name += " <- " + n.originalSymbol.Name
	}
	return n.label(name)
}

func (n *DefinitionByImport) Accept(v Visitor) { v.VisitDefinitionByImport(n) }

// ParameterInstantiation binds a formal parameter to an instance at call time.
type ParameterInstantiation struct {
	actionCore
	param *resolved.Symbol
	index int
}

// NewParameterInstantiation adds the binding of the index-th parameter.
func (g *Graph) NewParameterInstantiation(param *resolved.Symbol, index int, inst InstanceID, ast resolved.Node) *ParameterInstantiation {
	n := &ParameterInstantiation{param: param, index: index}
	n.init(ActionParameterInstantiation, &inst)
	g.register(n, &n.nodeCore, ast)
	return n
}

// Parameter returns the formal parameter symbol.
func (n *ParameterInstantiation) Parameter() (*resolved.Symbol, bool) { return optSymbol(n.param) }

// Index returns the parameter position.
func (n *ParameterInstantiation) Index() int { return n.index }

func (n *ParameterInstantiation) Kind() NodeKind   { return KindParameterInstantiation }
func (n *ParameterInstantiation) Label() string    { return n.label(n.param.String()) }
func (n *ParameterInstantiation) Accept(v Visitor) { v.VisitParameterInstantiation(n) }

// ----------------------------------------------------------------------------
// Values and references

// ConstRef is a literal value of a static type.
type ConstRef struct {
	actionCore
	value any
	typ   *resolved.Type
}

// NewConstRef adds a literal.
func (g *Graph) NewConstRef(value any, typ *resolved.Type, inst InstanceID, ast resolved.Node) *ConstRef {
	n := &ConstRef{value: value, typ: typ}
	n.init(ActionConstRef, &inst)
	g.register(n, &n.nodeCore, ast)
	return n
}

// Value returns the literal value.
func (n *ConstRef) Value() any { return n.value }

// Type returns the static type of the literal.
func (n *ConstRef) Type() (*resolved.Type, bool) { return optType(n.typ) }

func (n *ConstRef) Kind() NodeKind { return KindConstRef }

func (n *ConstRef) Label() string {
	return n.label(fmt.Sprintf("%s %v", n.typ, n.value))
}

func (n *ConstRef) Accept(v Visitor) { v.VisitConstRef(n) }

// VariableReference reads a previously defined instance.
type VariableReference struct {
	actionCore
	symbol *resolved.Symbol
}

// NewVariableReference adds a read of sym. The instance is resolved later.
func (g *Graph) NewVariableReference(sym *resolved.Symbol, ast resolved.Node) *VariableReference {
	n := &VariableReference{symbol: sym}
	n.init(ActionReferencedInExpression, nil)
	g.register(n, &n.nodeCore, ast)
	return n
}

// Symbol returns the referenced symbol.
func (n *VariableReference) Symbol() (*resolved.Symbol, bool) { return optSymbol(n.symbol) }

func (n *VariableReference) Kind() NodeKind   { return KindVariableReference }
func (n *VariableReference) Label() string    { return n.label(n.symbol.String()) }
func (n *VariableReference) Accept(v Visitor) { v.VisitVariableReference(n) }

// ReferenceInGraph is a read made from inside a graph definition, recorded in
// the bookkeeping of the enclosing scope.
type ReferenceInGraph struct {
	actionCore
	symbol *resolved.Symbol
}

// NewReferenceInGraph adds a graph-statement read of sym.
func (g *Graph) NewReferenceInGraph(sym *resolved.Symbol, ast resolved.Node) *ReferenceInGraph {
	n := &ReferenceInGraph{symbol: sym}
	n.init(ActionReferencedInGraph, nil)
	g.register(n, &n.nodeCore, ast)
	return n
}

// Symbol returns the referenced symbol.
func (n *ReferenceInGraph) Symbol() (*resolved.Symbol, bool) { return optSymbol(n.symbol) }

func (n *ReferenceInGraph) Kind() NodeKind   { return KindReferenceInGraph }
func (n *ReferenceInGraph) Label() string    { return n.label(n.symbol.String()) }
func (n *ReferenceInGraph) Accept(v Visitor) { v.VisitReferenceInGraph(n) }

// ----------------------------------------------------------------------------
// Calls and member accesses

// FunctionCall invokes a resolved function symbol.
type FunctionCall struct {
	actionCore
	function *resolved.Symbol
}

// NewFunctionCall adds a call of fn. The instance of fn is resolved later.
func (g *Graph) NewFunctionCall(fn *resolved.Symbol, ast resolved.Node) *FunctionCall {
	n := &FunctionCall{function: fn}
	n.init(ActionFunctionCall, nil)
	g.register(n, &n.nodeCore, ast)
	return n
}

// Function returns the called symbol.
func (n *FunctionCall) Function() (*resolved.Symbol, bool) { return optSymbol(n.function) }

func (n *FunctionCall) Kind() NodeKind   { return KindFunctionCall }
func (n *FunctionCall) Label() string    { return n.label(n.function.String() + "()") }
func (n *FunctionCall) Accept(v Visitor) { v.VisitFunctionCall(n) }

// memberAccess is shared by property and method accesses. The access instance
// identifies the access event itself; the referenced instance is the receiver
// version that was accessed.
type memberAccess struct {
	actionCore
	receiver  *resolved.Symbol
	member    *resolved.Symbol
	access    InstanceID
	hasAccess bool
}

// Receiver returns the receiver symbol when the receiver is a plain variable.
func (m *memberAccess) Receiver() (*resolved.Symbol, bool) { return optSymbol(m.receiver) }

// Member returns the accessed member symbol.
func (m *memberAccess) Member() (*resolved.Symbol, bool) { return optSymbol(m.member) }

// AccessInstance returns the instance identifying this access occurrence.
func (m *memberAccess) AccessInstance() (InstanceID, bool) { return m.access, m.hasAccess }

func (m *memberAccess) subject() string {
	recv := "_"
	if m.receiver != nil {
		recv = m.receiver.Name
	}
	return recv + "." + m.member.String()
}

// PropertyAccess reads a property of a receiver instance.
type PropertyAccess struct {
	memberAccess
}

// NewPropertyAccess adds a read of property on receiver. receiver is nil when the
// receiver is itself a computed value.
func (g *Graph) NewPropertyAccess(receiver, property *resolved.Symbol, access InstanceID, ast resolved.Node) *PropertyAccess {
	n := &PropertyAccess{memberAccess{receiver: receiver, member: property, access: access, hasAccess: true}}
	n.init(ActionPropertyAccess, nil)
	g.register(n, &n.nodeCore, ast)
	return n
}

func (n *PropertyAccess) Kind() NodeKind   { return KindPropertyAccess }
func (n *PropertyAccess) Label() string    { return n.label(n.subject()) }
func (n *PropertyAccess) Accept(v Visitor) { v.VisitPropertyAccess(n) }

// MethodAccess invokes a member function on a receiver instance. A mutating
// method produces a new version of its receiver.
type MethodAccess struct {
	memberAccess
	produced    InstanceID
	hasProduced bool
}

// NewMethodAccess adds a call of method on receiver.
func (g *Graph) NewMethodAccess(receiver, method *resolved.Symbol, access InstanceID, ast resolved.Node) *MethodAccess {
	n := &MethodAccess{memberAccess: memberAccess{receiver: receiver, member: method, access: access, hasAccess: true}}
	n.init(ActionFunctionCallAccess, nil)
	g.register(n, &n.nodeCore, ast)
	return n
}

// Mutating reports whether the method changes its receiver.
func (n *MethodAccess) Mutating() bool { return n.member != nil && n.member.Mutating }

// ProducedInstance returns the receiver version a mutating call produces.
func (n *MethodAccess) ProducedInstance() (InstanceID, bool) { return n.produced, n.hasProduced }

// SetProducedInstance stores id unless a produced instance is already set.
func (n *MethodAccess) SetProducedInstance(id InstanceID) bool {
	if n.hasProduced {
		return false
	}
	n.produced = id
	n.hasProduced = true
	return true
}

func (n *MethodAccess) Kind() NodeKind   { return KindMethodAccess }
func (n *MethodAccess) Label() string    { return n.label(n.subject() + "()") }
func (n *MethodAccess) Accept(v Visitor) { v.VisitMethodAccess(n) }

// ----------------------------------------------------------------------------
// Composite expressions

type exprCore struct {
	actionCore
	op Operator
}

// Operator returns the operator applied to the operands.
func (e *exprCore) Operator() Operator { return e.op }

// Operands returns the owned operand nodes.
func (e *exprCore) Operands() []Node { return e.Children() }

// Expression owns its operand nodes as children and applies an operator.
type Expression struct {
	exprCore
}

// NewExpression adds an expression owning operands. Operands that already have a
// parent are left where they are.
func (g *Graph) NewExpression(op Operator, operands []Node, inst InstanceID, ast resolved.Node) *Expression {
	if op == "" {
		op = OpNone
	}
	n := &Expression{exprCore{op: op}}
	n.init(ActionExpression, &inst)
	g.register(n, &n.nodeCore, ast)
	n.AddChildren(operands)
	return n
}

func (n *Expression) Kind() NodeKind { return KindExpression }

func (n *Expression) Label() string {
	if n.op == OpNone {
		return n.label("")
	}
	return n.label(string(n.op))
}

func (n *Expression) Accept(v Visitor) { v.VisitExpression(n) }

// PassAsParameter is the expression occupying one argument slot of a call.
type PassAsParameter struct {
	exprCore
	index int
}

// NewPassAsParameter adds the index-th argument slot owning the argument nodes.
func (g *Graph) NewPassAsParameter(index int, operands []Node, inst InstanceID, ast resolved.Node) *PassAsParameter {
	n := &PassAsParameter{exprCore: exprCore{op: OpNone}, index: index}
	n.init(ActionPassAsParameter, &inst)
	g.register(n, &n.nodeCore, ast)
	n.AddChildren(operands)
	return n
}

// Index returns the argument position.
func (n *PassAsParameter) Index() int { return n.index }

func (n *PassAsParameter) Kind() NodeKind   { return KindPassAsParameter }
func (n *PassAsParameter) Label() string    { return n.label(fmt.Sprintf("#%d", n.index)) }
func (n *PassAsParameter) Accept(v Visitor) { v.VisitPassAsParameter(n) }
