package resolved

// Node is implemented by every resolved AST node.
type Node interface {
	Position() Pos
	aNode()
}

// Stmt is implemented by statement nodes.
type Stmt interface {
	Node
	aStmt()
}

// Expr is implemented by expression nodes.
type Expr interface {
	Node
	aExpr()
}

type node struct {
	Pos Pos
}

func (n *node) Position() Pos { return n.Pos }
func (n *node) aNode()        {}

type stmt struct{ node }

func (*stmt) aStmt() {}

type expr struct{ node }

func (*expr) aExpr() {}

// Operator is a unary or binary operator.
type Operator string

const (
	OpNone          Operator = ""
	OpEquals        Operator = "=="
	OpNotEquals     Operator = "!="
	OpGreater       Operator = ">"
	OpGreaterEquals Operator = ">="
	OpLess          Operator = "<"
	OpLessEquals    Operator = "<="
	OpPlus          Operator = "+"
	OpMinus         Operator = "-"
	OpMul           Operator = "*"
	OpDiv           Operator = "/"
	OpAnd           Operator = "and"
	OpOr            Operator = "or"
	OpNot           Operator = "not"
)

// ----------------------------------------------------------------------------
// Statements

// Program is the root of a resolved file.
type Program struct {
	node
	Name  string
	Stmts []Stmt
}

// FuncDef declares a function.
type FuncDef struct {
	stmt
	Symbol *Symbol
	Params []*ParamDef
	Body   []Stmt
}

// ParamDef is a formal parameter of a FuncDef.
type ParamDef struct {
	node
	Symbol *Symbol
}

// VarDecl declares a variable, optionally with an initializer.
type VarDecl struct {
	stmt
	Symbol *Symbol
	Init   Expr
}

// Assign stores a new value in an already declared variable.
type Assign struct {
	stmt
	Target *Ident
	Value  Expr
}

// ExprStmt evaluates an expression for its effects.
type ExprStmt struct {
	stmt
	X Expr
}

// Return leaves the enclosing function, optionally with a value.
type Return struct {
	stmt
	Value Expr
}

// Block groups statements.
type Block struct {
	stmt
	Stmts []Stmt
}

// If is a conditional with an optional else branch.
type If struct {
	stmt
	Cond Expr
	Then *Block
	Else *Block
}

// While loops while Cond holds.
type While struct {
	stmt
	Cond Expr
	Body *Block
}

// For iterates over Iterable binding each element to Var.
type For struct {
	stmt
	Var      *Symbol
	Iterable Expr
	Body     *Block
}

// CountingFor is a For that also binds the iteration counter.
type CountingFor struct {
	stmt
	Var      *Symbol
	Counter  *Symbol
	Iterable Expr
	Body     *Block
}

// Import brings a remote declaration into scope. Symbol is the local symbol,
// Symbol.Original the remote declaration.
type Import struct {
	stmt
	Path   string
	Symbol *Symbol
}

// GraphDef defines a dot graph whose statements reference other values.
type GraphDef struct {
	stmt
	Symbol *Symbol
	Edges  [][]*Ident
}

// ----------------------------------------------------------------------------
// Expressions

// Ident references a resolved symbol. Symbol is nil when resolution found nothing.
type Ident struct {
	expr
	Name   string
	Symbol *Symbol
}

// Literal is a constant value of a static type.
type Literal struct {
	expr
	Value any
	Type  *Type
}

// Call invokes a function symbol.
type Call struct {
	expr
	Func *Symbol
	Args []Expr
}

// MethodCall invokes a member function on a receiver.
type MethodCall struct {
	expr
	Receiver Expr
	Method   *Symbol
	Args     []Expr
}

// MemberAccess reads a property of a receiver.
type MemberAccess struct {
	expr
	Receiver Expr
	Member   *Symbol
}

// Binary applies Op to two operands.
type Binary struct {
	expr
	Op    Operator
	Left  Expr
	Right Expr
}

// Unary applies Op to one operand.
type Unary struct {
	expr
	Op Operator
	X  Expr
}
