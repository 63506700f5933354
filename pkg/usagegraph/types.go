// Package usagegraph defines the usage graph: a program-dependence style graph
// recording, for one analyzed program, the temporal order of its actions and the
// data dependencies between the value versions those actions touch.
//
// Nodes live in an arena owned by a Graph and are addressed by NodeID. Edges are
// stored separately as (start, end, kind) triples. Independently of the edges,
// nodes form a containment forest (parent/children) describing scopes such as
// "this access happens inside that loop".
package usagegraph

import "fmt"

// NodeID identifies a node within its Graph. IDs follow creation order.
type NodeID int

// EdgeID identifies an edge within its Graph. IDs follow creation order.
type EdgeID int

// InstanceID tags a specific version of a value, comparable to an SSA version.
type InstanceID int64

// NodeKind names the concrete kind of a node. The set is closed.
type NodeKind string

const (
	KindControl                NodeKind = "control"
	KindDefinition             NodeKind = "definition"
	KindDefinitionByImport     NodeKind = "definition_by_import"
	KindConstRef               NodeKind = "const_ref"
	KindFunctionCall           NodeKind = "function_call"
	KindMethodAccess           NodeKind = "method_access"
	KindPropertyAccess         NodeKind = "property_access"
	KindParameterInstantiation NodeKind = "parameter_instantiation"
	KindVariableReference      NodeKind = "variable_reference"
	KindReferenceInGraph       NodeKind = "reference_in_graph"
	KindExpression             NodeKind = "expression"
	KindPassAsParameter        NodeKind = "pass_as_parameter"
)

// ControlType tags a control node.
type ControlType uint8

const (
	ControlNone ControlType = iota
	ControlWhileLoop
	ControlForLoop
	ControlCountingForLoop
	ControlIfStmt
	ControlIfElseStmt
	ControlElseStmt
	ControlBlock
	ControlReturnStmt
	ControlBeginFunc
	ControlEndFunc

	numControlTypes
)

type controlTypeInfo struct {
	name        string
	conditional bool
	// operands marks constructs that evaluate a condition, an iterable or a
	// returned value ahead of the control node.
	operands bool
}

// controlTypes holds one entry per ControlType, in declaration order.
var controlTypes = [...]controlTypeInfo{
	{"none", false, false},
	{"whileLoop", true, true},
	{"forLoop", true, true},
	{"countingForLoop", true, true},
	{"ifStmt", true, true},
	{"ifElseStmt", true, false},
	{"elseStmt", true, false},
	{"block", false, false},
	{"returnStmt", false, true},
	{"beginFunc", false, false},
	{"endFunc", false, false},
}

// Adding a ControlType without a table entry (or the reverse) fails to compile.
var (
	_ [len(controlTypes) - int(numControlTypes)]struct{}
	_ [int(numControlTypes) - len(controlTypes)]struct{}
)

// ControlTypes returns every control type in declaration order.
func ControlTypes() []ControlType {
	out := make([]ControlType, numControlTypes)
	for i := range out {
		out[i] = ControlType(i)
	}
	return out
}

// IsConditional reports whether the construct executes its body conditionally.
func (t ControlType) IsConditional() bool {
	return t.info().conditional
}

// ReadsOperands reports whether the construct evaluates operands of its own:
// the condition of an if or while, the iterable of a for, the returned value.
func (t ControlType) ReadsOperands() bool {
	return t.info().operands
}

// Valid reports whether t is a declared control type.
func (t ControlType) Valid() bool {
	return t < numControlTypes
}

func (t ControlType) String() string {
	return t.info().name
}

func (t ControlType) info() controlTypeInfo {
	if !t.Valid() {
		panic(fmt.Sprintf("usagegraph: invalid control type %d", uint8(t)))
	}
	return controlTypes[t]
}

// MarshalText encodes the control type by name.
func (t ControlType) MarshalText() ([]byte, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("invalid control type %d", uint8(t))
	}
	return []byte(t.String()), nil
}

// ActionType tags an action node.
type ActionType uint8

const (
	ActionNone ActionType = iota
	ActionDefinition
	ActionDefinitionByImport
	ActionParameterInstantiation
	ActionFunctionCall
	ActionPropertyAccess
	ActionFunctionCallAccess
	ActionReferencedInExpression
	ActionPassAsParameter
	ActionExpression
	ActionReferencedInGraph
	ActionConstRef

	numActionTypes
)

var actionTypeNames = [...]string{
	"none",
	"definition",
	"definitionByImport",
	"parameterInstantiation",
	"functionCall",
	"propertyAccess",
	"functionCallAccess",
	"referencedInExpression",
	"passAsParameter",
	"expression",
	"referencedInGraph",
	"constRef",
}

var (
	_ [len(actionTypeNames) - int(numActionTypes)]struct{}
	_ [int(numActionTypes) - len(actionTypeNames)]struct{}
)

// Valid reports whether t is a declared action type.
func (t ActionType) Valid() bool {
	return t < numActionTypes
}

func (t ActionType) String() string {
	if !t.Valid() {
		return fmt.Sprintf("ActionType(%d)", uint8(t))
	}
	return actionTypeNames[t]
}

// MarshalText encodes the action type by name.
func (t ActionType) MarshalText() ([]byte, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("invalid action type %d", uint8(t))
	}
	return []byte(t.String()), nil
}

// IsDefinition reports whether the action introduces a new instance.
func (t ActionType) IsDefinition() bool {
	return t == ActionDefinition || t == ActionDefinitionByImport || t == ActionParameterInstantiation
}

// EdgeKind tags an edge.
type EdgeKind string

const (
	// EdgeTemporal: start happens before end.
	EdgeTemporal EdgeKind = "temporal"
	// EdgeDataRead: end reads the value version held at start.
	EdgeDataRead EdgeKind = "data_dependency_read"
	// EdgeDataRedefinition: end produces a new version of the value start held.
	EdgeDataRedefinition EdgeKind = "data_dependency_redefinition"
)

// IsData reports whether the edge kind is one of the data dependency kinds.
func (k EdgeKind) IsData() bool {
	return k == EdgeDataRead || k == EdgeDataRedefinition
}

// Operator tags the operation an Expression node applies to its operands.
type Operator string

const (
	OpNone          Operator = "none"
	OpEquals        Operator = "equals"
	OpNotEquals     Operator = "notEquals"
	OpGreater       Operator = "greater"
	OpGreaterEquals Operator = "greaterEquals"
	OpLess          Operator = "less"
	OpLessEquals    Operator = "lessEquals"
	OpPlus          Operator = "plus"
	OpMinus         Operator = "minus"
	OpMul           Operator = "mul"
	OpDiv           Operator = "div"
	OpAnd           Operator = "and"
	OpOr            Operator = "or"
	OpNot           Operator = "not"
)

// IsComparison reports whether op compares its operands.
func (op Operator) IsComparison() bool {
	switch op {
	case OpEquals, OpNotEquals, OpGreater, OpGreaterEquals, OpLess, OpLessEquals:
		return true
	}
	return false
}

// IsArithmetic reports whether op is an arithmetic operator.
func (op Operator) IsArithmetic() bool {
	switch op {
	case OpPlus, OpMinus, OpMul, OpDiv:
		return true
	}
	return false
}

// IsBoolean reports whether op is a boolean connective.
func (op Operator) IsBoolean() bool {
	switch op {
	case OpAnd, OpOr, OpNot:
		return true
	}
	return false
}
