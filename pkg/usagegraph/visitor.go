package usagegraph

// Visitor handles every node kind and edges. There is intentionally no base
// implementation to embed: adding a node kind adds a method here, and every
// visitor stops compiling until it handles the new kind.
type Visitor interface {
	VisitControl(*ControlNode)
	VisitDefinition(*Definition)
	VisitDefinitionByImport(*DefinitionByImport)
	VisitConstRef(*ConstRef)
	VisitFunctionCall(*FunctionCall)
	VisitMethodAccess(*MethodAccess)
	VisitPropertyAccess(*PropertyAccess)
	VisitParameterInstantiation(*ParameterInstantiation)
	VisitVariableReference(*VariableReference)
	VisitReferenceInGraph(*ReferenceInGraph)
	VisitExpression(*Expression)
	VisitPassAsParameter(*PassAsParameter)
	VisitEdge(*Edge)
}

// Compile-time checks that every kind satisfies its interfaces.
var (
	_ Node   = (*ControlNode)(nil)
	_ Action = (*Definition)(nil)
	_ Action = (*DefinitionByImport)(nil)
	_ Action = (*ConstRef)(nil)
	_ Action = (*FunctionCall)(nil)
	_ Action = (*MethodAccess)(nil)
	_ Action = (*PropertyAccess)(nil)
	_ Action = (*ParameterInstantiation)(nil)
	_ Action = (*VariableReference)(nil)
	_ Action = (*ReferenceInGraph)(nil)
	_ Action = (*Expression)(nil)
	_ Action = (*PassAsParameter)(nil)
)

// AsAction returns n as an Action when it is one.
func AsAction(n Node) (Action, bool) {
	a, ok := n.(Action)
	return a, ok
}
