package builder

import (
	"fmt"
	"slices"

	"github.com/l3aro/go-usage-graph/pkg/resolved"
	"github.com/l3aro/go-usage-graph/pkg/usagegraph"
)

// fragment is the part of the temporal graph built for one AST subtree.
type fragment struct {
	nodes   []usagegraph.Node
	sources []usagegraph.Node
	sinks   []usagegraph.Node
	// exits are return statements that leave the enclosing function.
	exits []usagegraph.Node
	// result is the node holding the value of an expression fragment.
	result usagegraph.Node
}

func (f fragment) empty() bool { return len(f.nodes) == 0 }

func single(n usagegraph.Node) fragment {
	return fragment{
		nodes:   []usagegraph.Node{n},
		sources: []usagegraph.Node{n},
		sinks:   []usagegraph.Node{n},
		result:  n,
	}
}

// seq composes a then b, connecting every sink of a to every source of b.
// The result of the composition is the result of b.
func (s *state) seq(a, b fragment) fragment {
	if a.empty() {
		return b
	}
	if b.empty() {
		return a
	}
	for _, from := range a.sinks {
		for _, to := range b.sources {
			s.g.AddEdge(from, to, usagegraph.EdgeTemporal)
		}
	}
	out := fragment{
		nodes:   slices.Concat(a.nodes, b.nodes),
		sources: a.sources,
		sinks:   b.sinks,
		exits:   slices.Concat(a.exits, b.exits),
		result:  b.result,
	}
	// Nothing flows past a return; b is unreachable.
	if len(a.sinks) == 0 {
		out.sinks = nil
	}
	return out
}

// par composes fragments that are not ordered with respect to each other.
func par(fs ...fragment) fragment {
	var out fragment
	for _, f := range fs {
		out.nodes = append(out.nodes, f.nodes...)
		out.sources = append(out.sources, f.sources...)
		out.sinks = append(out.sinks, f.sinks...)
		out.exits = append(out.exits, f.exits...)
	}
	return out
}

// withSink adds n as an extra sink, for constructs whose body may be skipped.
func withSink(f fragment, n usagegraph.Node) fragment {
	if !slices.Contains(f.sinks, n) {
		f.sinks = append(slices.Clone(f.sinks), n)
	}
	return f
}

// action registers n with the enclosing control construct and wraps it.
func (s *state) action(n usagegraph.Node) fragment {
	s.mark(n)
	return single(n)
}

func unowned(ns []usagegraph.Node) []usagegraph.Node {
	var out []usagegraph.Node
	for _, n := range ns {
		if _, ok := n.Parent(); !ok {
			out = append(out, n)
		}
	}
	return out
}

// program lowers top-level statements. Function definitions are not ordered
// with respect to the statements around them.
func (s *state) program(list []resolved.Stmt) fragment {
	var main fragment
	var funcs []fragment
	for _, st := range list {
		if fd, ok := st.(*resolved.FuncDef); ok {
			funcs = append(funcs, s.funcDef(fd))
			continue
		}
		main = s.seq(main, s.stmt(st))
	}
	return par(append([]fragment{main}, funcs...)...)
}

func (s *state) stmts(list []resolved.Stmt) fragment {
	var f fragment
	for _, st := range list {
		if s.err != nil {
			break
		}
		f = s.seq(f, s.stmt(st))
	}
	return f
}

func (s *state) body(b *resolved.Block) fragment {
	if b == nil {
		return fragment{}
	}
	return s.stmts(b.Stmts)
}

func (s *state) stmt(st resolved.Stmt) fragment {
	switch x := st.(type) {
	case *resolved.VarDecl:
		return s.define(x.Symbol, x.Init, x)
	case *resolved.Assign:
		return s.define(s.lookup(x.Target), x.Value, x)
	case *resolved.ExprStmt:
		return s.expr(x.X)
	case *resolved.Return:
		return s.returnStmt(x)
	case *resolved.Block:
		c := s.g.NewControl(usagegraph.ControlBlock, x)
		s.pushControl(c)
		inner := s.stmts(x.Stmts)
		s.popControl()
		s.own(c, inner.nodes)
		return s.seq(single(c), inner)
	case *resolved.If:
		return s.ifStmt(x)
	case *resolved.While:
		c := s.g.NewControl(usagegraph.ControlWhileLoop, x)
		s.pushControl(c)
		cond := s.expr(x.Cond)
		loop := s.body(x.Body)
		s.popControl()
		s.own(c, cond.nodes)
		s.own(c, loop.nodes)
		return withSink(s.seq(s.seq(cond, single(c)), loop), c)
	case *resolved.For:
		return s.forLoop(usagegraph.ControlForLoop, x, x.Iterable, x.Body, x.Var)
	case *resolved.CountingFor:
		return s.forLoop(usagegraph.ControlCountingForLoop, x, x.Iterable, x.Body, x.Var, x.Counter)
	case *resolved.FuncDef:
		return s.funcDef(x)
	case *resolved.Import:
		return s.importStmt(x)
	case *resolved.GraphDef:
		return s.graphDef(x)
	case nil:
		return fragment{}
	default:
		panic(fmt.Sprintf("builder: unhandled statement %T", st))
	}
}

// define lowers a declaration or assignment: the value first, then the
// definition. The instance is allocated before the value so that the
// definition receives the lower id.
func (s *state) define(sym *resolved.Symbol, value resolved.Expr, ast resolved.Node) fragment {
	inst := s.fresh()
	f := s.initializer(value)
	def := s.g.NewDefinition(sym, inst, ast)
	return s.seq(f, s.action(def))
}

// initializer wraps a right-hand side in an Expression unless it already is one.
func (s *state) initializer(value resolved.Expr) fragment {
	if value == nil {
		return fragment{}
	}
	f := s.expr(value)
	if _, ok := f.result.(*usagegraph.Expression); ok {
		return f
	}
	e := s.g.NewExpression(usagegraph.OpNone, unowned(f.nodes), s.fresh(), value)
	return s.seq(f, s.action(e))
}

func (s *state) returnStmt(x *resolved.Return) fragment {
	c := s.g.NewControl(usagegraph.ControlReturnStmt, x)
	s.pushControl(c)
	value := s.expr(x.Value)
	s.popControl()
	s.own(c, value.nodes)

	f := s.seq(value, single(c))
	f.sinks = nil
	f.exits = append(slices.Clone(f.exits), c)
	return f
}

func (s *state) ifStmt(x *resolved.If) fragment {
	if x.Else == nil {
		c := s.g.NewControl(usagegraph.ControlIfStmt, x)
		s.pushControl(c)
		cond := s.expr(x.Cond)
		then := s.body(x.Then)
		s.popControl()
		s.own(c, cond.nodes)
		s.own(c, then.nodes)
		return withSink(s.seq(s.seq(cond, single(c)), then), c)
	}

	outer := s.g.NewControl(usagegraph.ControlIfElseStmt, x)
	s.pushControl(outer)

	ifc := s.g.NewControl(usagegraph.ControlIfStmt, x)
	s.pushControl(ifc)
	cond := s.expr(x.Cond)
	then := s.body(x.Then)
	s.popControl()

	elc := s.g.NewControl(usagegraph.ControlElseStmt, x.Else)
	s.pushControl(elc)
	els := s.body(x.Else)
	s.popControl()

	s.popControl()

	s.own(ifc, cond.nodes)
	s.own(ifc, then.nodes)
	s.own(elc, els.nodes)
	s.own(outer, []usagegraph.Node{ifc, elc})

	head := s.seq(s.seq(single(outer), cond), single(ifc))
	thenPart := s.seq(head, then)
	elsePart := s.seq(single(elc), els)
	// The else branch is taken when the condition fails.
	s.g.AddEdge(ifc, elc, usagegraph.EdgeTemporal)

	return fragment{
		nodes:   slices.Concat(thenPart.nodes, elsePart.nodes),
		sources: head.sources,
		sinks:   slices.Concat(thenPart.sinks, elsePart.sinks),
		exits:   slices.Concat(thenPart.exits, elsePart.exits),
	}
}

// forLoop lowers iteration: the iterable, the loop node, one definition per
// loop variable, then the body.
func (s *state) forLoop(t usagegraph.ControlType, ast resolved.Node, iterable resolved.Expr, loopBody *resolved.Block, vars ...*resolved.Symbol) fragment {
	c := s.g.NewControl(t, ast)
	s.pushControl(c)
	it := s.expr(iterable)
	var rest fragment
	for _, v := range vars {
		rest = s.seq(rest, s.action(s.g.NewDefinition(v, s.fresh(), ast)))
	}
	rest = s.seq(rest, s.body(loopBody))
	s.popControl()

	s.own(c, it.nodes)
	s.own(c, rest.nodes)
	return withSink(s.seq(s.seq(it, single(c)), rest), c)
}

// funcDef lowers a function: beginFunc, parameters, body and endFunc, all owned
// by the function's Definition, which comes last.
func (s *state) funcDef(x *resolved.FuncDef) fragment {
	inst := s.fresh()

	begin := s.g.NewControl(usagegraph.ControlBeginFunc, x)
	s.pushControl(begin)
	f := single(begin)
	for i, p := range x.Params {
		param := s.g.NewParameterInstantiation(p.Symbol, i, s.fresh(), p)
		f = s.seq(f, s.action(param))
	}
	f = s.seq(f, s.stmts(x.Body))
	s.popControl()

	end := s.g.NewControl(usagegraph.ControlEndFunc, x)
	s.mark(end)
	for _, n := range slices.Concat(f.sinks, f.exits) {
		s.g.AddEdge(n, end, usagegraph.EdgeTemporal)
	}
	def := s.g.NewDefinition(x.Symbol, inst, x)
	s.mark(def)
	s.g.AddEdge(end, def, usagegraph.EdgeTemporal)

	s.own(def, append(slices.Clone(f.nodes), end))
	return fragment{
		nodes:   slices.Concat(f.nodes, []usagegraph.Node{end, def}),
		sources: []usagegraph.Node{begin},
		sinks:   []usagegraph.Node{def},
		result:  def,
	}
}

func (s *state) importStmt(x *resolved.Import) fragment {
	sym := x.Symbol
	if sym == nil || sym.Original == nil {
		s.fail(fmt.Errorf("%w: %s (%s) at %s", ErrUnresolvedImport, sym, x.Path, x.Position()))
		return fragment{}
	}
	var typ *resolved.Type
	if sym.Kind == resolved.SymbolKindImportedType {
		typ = sym.Original.Type
	}
	return s.action(s.g.NewDefinitionByImport(sym, typ, sym.Original, s.fresh(), x))
}

// graphDef lowers a graph declaration: one ReferenceInGraph per distinct
// referenced symbol, then the graph's Definition, which reads each of them.
func (s *state) graphDef(x *resolved.GraphDef) fragment {
	inst := s.fresh()

	var refs fragment
	seen := make(map[string]bool)
	for _, chain := range x.Edges {
		for _, id := range chain {
			if id == nil || seen[id.Name] {
				continue
			}
			seen[id.Name] = true
			refs = s.seq(refs, s.action(s.g.NewReferenceInGraph(s.lookup(id), id)))
		}
	}

	def := s.g.NewDefinition(x.Symbol, inst, x)
	f := s.seq(refs, s.action(def))
	for _, ref := range refs.nodes {
		s.g.AddEdge(ref, def, usagegraph.EdgeDataRead)
	}
	s.own(def, refs.nodes)
	return f
}

func (s *state) expr(e resolved.Expr) fragment {
	switch x := e.(type) {
	case nil:
		return fragment{}
	case *resolved.Ident:
		return s.action(s.g.NewVariableReference(s.lookup(x), x))
	case *resolved.Literal:
		return s.action(s.g.NewConstRef(x.Value, x.Type, s.constInstance(x), x))
	case *resolved.Binary:
		f := s.seq(s.expr(x.Left), s.expr(x.Right))
		return s.seq(f, s.action(s.g.NewExpression(operator(x.Op), unowned(f.nodes), s.fresh(), x)))
	case *resolved.Unary:
		f := s.expr(x.X)
		return s.seq(f, s.action(s.g.NewExpression(operator(x.Op), unowned(f.nodes), s.fresh(), x)))
	case *resolved.Call:
		f := s.args(x.Args)
		return s.seq(f, s.action(s.g.NewFunctionCall(x.Func, x)))
	case *resolved.MethodCall:
		recvSym, recv := s.receiver(x.Receiver)
		f := s.seq(recv, s.args(x.Args))
		m := s.g.NewMethodAccess(recvSym, x.Method, s.fresh(), x)
		if m.Mutating() && recvSym != nil {
			m.SetProducedInstance(s.fresh())
		}
		s.linkReceiver(recv, m)
		return s.seq(f, s.action(m))
	case *resolved.MemberAccess:
		recvSym, recv := s.receiver(x.Receiver)
		p := s.g.NewPropertyAccess(recvSym, x.Member, s.fresh(), x)
		s.linkReceiver(recv, p)
		return s.seq(recv, s.action(p))
	default:
		panic(fmt.Sprintf("builder: unhandled expression %T", e))
	}
}

// args lowers call arguments, one PassAsParameter per slot owning the nodes of
// its argument.
func (s *state) args(list []resolved.Expr) fragment {
	var f fragment
	for i, a := range list {
		af := s.expr(a)
		p := s.g.NewPassAsParameter(i, unowned(af.nodes), s.fresh(), a)
		f = s.seq(f, s.seq(af, s.action(p)))
	}
	return f
}

// receiver returns the receiver symbol for plain variables and the lowered
// receiver expression otherwise.
func (s *state) receiver(e resolved.Expr) (*resolved.Symbol, fragment) {
	if id, ok := e.(*resolved.Ident); ok {
		return s.lookup(id), fragment{}
	}
	return nil, s.expr(e)
}

type accessInstancer interface {
	AccessInstance() (usagegraph.InstanceID, bool)
}

// linkReceiver connects a computed receiver to the access reading it.
func (s *state) linkReceiver(recv fragment, access usagegraph.Action) {
	if recv.result == nil {
		return
	}
	s.g.AddEdge(recv.result, access, usagegraph.EdgeDataRead)
	switch r := recv.result.(type) {
	case accessInstancer:
		if id, ok := r.AccessInstance(); ok {
			access.SetReferencedInstance(id)
		}
	case *usagegraph.Expression, *usagegraph.PassAsParameter, *usagegraph.ConstRef:
		if id, ok := r.(usagegraph.Action).ReferencedInstance(); ok {
			access.SetReferencedInstance(id)
		}
	}
}

var operators = map[resolved.Operator]usagegraph.Operator{
	resolved.OpNone:          usagegraph.OpNone,
	resolved.OpEquals:        usagegraph.OpEquals,
	resolved.OpNotEquals:     usagegraph.OpNotEquals,
	resolved.OpGreater:       usagegraph.OpGreater,
	resolved.OpGreaterEquals: usagegraph.OpGreaterEquals,
	resolved.OpLess:          usagegraph.OpLess,
	resolved.OpLessEquals:    usagegraph.OpLessEquals,
	resolved.OpPlus:          usagegraph.OpPlus,
	resolved.OpMinus:         usagegraph.OpMinus,
	resolved.OpMul:           usagegraph.OpMul,
	resolved.OpDiv:           usagegraph.OpDiv,
	resolved.OpAnd:           usagegraph.OpAnd,
	resolved.OpOr:            usagegraph.OpOr,
	resolved.OpNot:           usagegraph.OpNot,
}

func operator(op resolved.Operator) usagegraph.Operator {
	if o, ok := operators[op]; ok {
		return o
	}
	return usagegraph.OpNone
}
