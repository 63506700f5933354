package resolved

import (
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// ErrInvalidProgram is returned by Load when a program description cannot be
// turned into a resolved AST.
var ErrInvalidProgram = errors.New("invalid program description")

// The YAML program description mirrors the output of name resolution: types and
// symbols are declared up front and statements refer to them by name.
type programDoc struct {
	Name    string      `yaml:"name"`
	File    string      `yaml:"file"`
	Types   []typeDoc   `yaml:"types"`
	Symbols []symbolDoc `yaml:"symbols"`
	Stmts   []stmtDoc   `yaml:"stmts"`
}

type typeDoc struct {
	Name string   `yaml:"name"`
	Kind TypeKind `yaml:"kind"`
}

type symbolDoc struct {
	Name     string     `yaml:"name"`
	Kind     SymbolKind `yaml:"kind"`
	Type     string     `yaml:"type"`
	Original string     `yaml:"original"`
	Mutating bool       `yaml:"mutating"`
}

type stmtDoc struct {
	Line   int        `yaml:"line"`
	Var    *varDoc    `yaml:"var"`
	Assign *assignDoc `yaml:"assign"`
	Expr   *exprDoc   `yaml:"expr"`
	Return *returnDoc `yaml:"return"`
	Block  []stmtDoc  `yaml:"block"`
	If     *ifDoc     `yaml:"if"`
	While  *whileDoc  `yaml:"while"`
	For    *forDoc    `yaml:"for"`
	Func   *funcDoc   `yaml:"func"`
	Import *importDoc `yaml:"import"`
	Graph  *graphDoc  `yaml:"graph"`
}

type varDoc struct {
	Symbol string   `yaml:"symbol"`
	Init   *exprDoc `yaml:"init"`
}

type assignDoc struct {
	Target string   `yaml:"target"`
	Value  *exprDoc `yaml:"value"`
}

type returnDoc struct {
	Value *exprDoc `yaml:"value"`
}

type ifDoc struct {
	Cond *exprDoc  `yaml:"cond"`
	Then []stmtDoc `yaml:"then"`
	Else []stmtDoc `yaml:"else"`
}

type whileDoc struct {
	Cond *exprDoc  `yaml:"cond"`
	Body []stmtDoc `yaml:"body"`
}

type forDoc struct {
	Var     string    `yaml:"var"`
	Counter string    `yaml:"counter"`
	In      *exprDoc  `yaml:"in"`
	Body    []stmtDoc `yaml:"body"`
}

type funcDoc struct {
	Symbol string    `yaml:"symbol"`
	Params []string  `yaml:"params"`
	Body   []stmtDoc `yaml:"body"`
}

type importDoc struct {
	Path   string `yaml:"path"`
	Symbol string `yaml:"symbol"`
}

type graphDoc struct {
	Symbol string     `yaml:"symbol"`
	Edges  [][]string `yaml:"edges"`
}

type exprDoc struct {
	Line     int       `yaml:"line"`
	Ident    string    `yaml:"ident"`
	Lit      any       `yaml:"lit"`
	Type     string    `yaml:"type"`
	Call     string    `yaml:"call"`
	Method   string    `yaml:"method"`
	Member   string    `yaml:"member"`
	Receiver *exprDoc  `yaml:"receiver"`
	Args     []exprDoc `yaml:"args"`
	Op       Operator  `yaml:"op"`
	Left     *exprDoc  `yaml:"left"`
	Right    *exprDoc  `yaml:"right"`
	X        *exprDoc  `yaml:"x"`
}

// LoadFile reads a YAML program description from path.
func LoadFile(path string) (*Program, *SymbolTable, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open program %s: %w", path, err)
	}
	defer f.Close()

	prog, table, err := Load(f)
	if err != nil {
		return nil, nil, fmt.Errorf("load program %s: %w", path, err)
	}
	return prog, table, nil
}

// Load decodes a YAML program description.
func Load(r io.Reader) (*Program, *SymbolTable, error) {
	var doc programDoc
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrInvalidProgram, err)
	}

	l := &loader{
		file:  doc.File,
		types: make(map[string]*Type),
		table: NewSymbolTable(),
	}
	if err := l.declare(doc); err != nil {
		return nil, nil, err
	}

	stmts, err := l.stmts(doc.Stmts)
	if err != nil {
		return nil, nil, err
	}

	prog := &Program{Name: doc.Name, Stmts: stmts}
	prog.Pos = Pos{File: doc.File, Line: 1}
	return prog, l.table, nil
}

type loader struct {
	file  string
	types map[string]*Type
	table *SymbolTable
	// line of the enclosing statement, used for expressions without their own
	line int
}

func (l *loader) declare(doc programDoc) error {
	for _, td := range doc.Types {
		if td.Name == "" {
			return fmt.Errorf("%w: type without name", ErrInvalidProgram)
		}
		kind := td.Kind
		if kind == "" {
			kind = TypeKindBasic
		}
		l.types[td.Name] = &Type{Name: td.Name, Kind: kind}
	}

	for _, sd := range doc.Symbols {
		if sd.Name == "" {
			return fmt.Errorf("%w: symbol without name", ErrInvalidProgram)
		}
		typ, err := l.typ(sd.Type)
		if err != nil {
			return err
		}
		kind := sd.Kind
		if kind == "" {
			kind = SymbolKindVariable
		}
		l.table.Add(&Symbol{Name: sd.Name, Kind: kind, Type: typ, Mutating: sd.Mutating})
	}

	// Originals are linked in a second pass so imports may name declarations
	// listed after them. A missing original stays nil; the builder reports it.
	for _, sd := range doc.Symbols {
		if sd.Original == "" {
			continue
		}
		sym, _ := l.table.Lookup(sd.Name)
		if orig, ok := l.table.Lookup(sd.Original); ok && orig != sym {
			sym.Original = orig
		}
	}
	return nil
}

func (l *loader) typ(name string) (*Type, error) {
	if name == "" {
		return nil, nil
	}
	t, ok := l.types[name]
	if !ok {
		return nil, fmt.Errorf("%w: unknown type %q", ErrInvalidProgram, name)
	}
	return t, nil
}

func (l *loader) declared(name string) (*Symbol, error) {
	sym, ok := l.table.Lookup(name)
	if !ok {
		return nil, fmt.Errorf("%w: undeclared symbol %q", ErrInvalidProgram, name)
	}
	return sym, nil
}

func (l *loader) pos(line int) Pos {
	if line <= 0 {
		line = l.line
	}
	return Pos{File: l.file, Line: line}
}

func (l *loader) stmts(docs []stmtDoc) ([]Stmt, error) {
	out := make([]Stmt, 0, len(docs))
	for i := range docs {
		s, err := l.stmt(&docs[i])
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

func (l *loader) block(line int, docs []stmtDoc) (*Block, error) {
	stmts, err := l.stmts(docs)
	if err != nil {
		return nil, err
	}
	b := &Block{Stmts: stmts}
	b.Pos = l.pos(line)
	return b, nil
}

func (l *loader) stmt(d *stmtDoc) (Stmt, error) {
	prev := l.line
	if d.Line > 0 {
		l.line = d.Line
	}
	defer func() { l.line = prev }()

	switch {
	case d.Var != nil:
		sym, err := l.declared(d.Var.Symbol)
		if err != nil {
			return nil, err
		}
		init, err := l.optExpr(d.Var.Init)
		if err != nil {
			return nil, err
		}
		s := &VarDecl{Symbol: sym, Init: init}
		s.Pos = l.pos(d.Line)
		return s, nil

	case d.Assign != nil:
		target := l.ident(d.Assign.Target, d.Line)
		value, err := l.expr(d.Assign.Value)
		if err != nil {
			return nil, err
		}
		s := &Assign{Target: target, Value: value}
		s.Pos = l.pos(d.Line)
		return s, nil

	case d.Expr != nil:
		x, err := l.expr(d.Expr)
		if err != nil {
			return nil, err
		}
		s := &ExprStmt{X: x}
		s.Pos = l.pos(d.Line)
		return s, nil

	case d.Return != nil:
		value, err := l.optExpr(d.Return.Value)
		if err != nil {
			return nil, err
		}
		s := &Return{Value: value}
		s.Pos = l.pos(d.Line)
		return s, nil

	case d.Block != nil:
		return l.block(d.Line, d.Block)

	case d.If != nil:
		cond, err := l.expr(d.If.Cond)
		if err != nil {
			return nil, err
		}
		then, err := l.block(d.Line, d.If.Then)
		if err != nil {
			return nil, err
		}
		s := &If{Cond: cond, Then: then}
		if d.If.Else != nil {
			if s.Else, err = l.block(d.Line, d.If.Else); err != nil {
				return nil, err
			}
		}
		s.Pos = l.pos(d.Line)
		return s, nil

	case d.While != nil:
		cond, err := l.expr(d.While.Cond)
		if err != nil {
			return nil, err
		}
		body, err := l.block(d.Line, d.While.Body)
		if err != nil {
			return nil, err
		}
		s := &While{Cond: cond, Body: body}
		s.Pos = l.pos(d.Line)
		return s, nil

	case d.For != nil:
		return l.forStmt(d)

	case d.Func != nil:
		return l.funcDef(d)

	case d.Import != nil:
		sym, err := l.declared(d.Import.Symbol)
		if err != nil {
			return nil, err
		}
		s := &Import{Path: d.Import.Path, Symbol: sym}
		s.Pos = l.pos(d.Line)
		return s, nil

	case d.Graph != nil:
		sym, err := l.declared(d.Graph.Symbol)
		if err != nil {
			return nil, err
		}
		s := &GraphDef{Symbol: sym}
		for _, names := range d.Graph.Edges {
			ids := make([]*Ident, 0, len(names))
			for _, name := range names {
				ids = append(ids, l.ident(name, d.Line))
			}
			s.Edges = append(s.Edges, ids)
		}
		s.Pos = l.pos(d.Line)
		return s, nil
	}
	return nil, fmt.Errorf("%w: empty statement at line %d", ErrInvalidProgram, d.Line)
}

func (l *loader) forStmt(d *stmtDoc) (Stmt, error) {
	v, err := l.declared(d.For.Var)
	if err != nil {
		return nil, err
	}
	iterable, err := l.expr(d.For.In)
	if err != nil {
		return nil, err
	}
	body, err := l.block(d.Line, d.For.Body)
	if err != nil {
		return nil, err
	}
	if d.For.Counter == "" {
		s := &For{Var: v, Iterable: iterable, Body: body}
		s.Pos = l.pos(d.Line)
		return s, nil
	}
	counter, err := l.declared(d.For.Counter)
	if err != nil {
		return nil, err
	}
	s := &CountingFor{Var: v, Counter: counter, Iterable: iterable, Body: body}
	s.Pos = l.pos(d.Line)
	return s, nil
}

func (l *loader) funcDef(d *stmtDoc) (Stmt, error) {
	sym, err := l.declared(d.Func.Symbol)
	if err != nil {
		return nil, err
	}
	s := &FuncDef{Symbol: sym}
	for _, name := range d.Func.Params {
		psym, err := l.declared(name)
		if err != nil {
			return nil, err
		}
		p := &ParamDef{Symbol: psym}
		p.Pos = l.pos(d.Line)
		s.Params = append(s.Params, p)
	}
	if s.Body, err = l.stmts(d.Func.Body); err != nil {
		return nil, err
	}
	s.Pos = l.pos(d.Line)
	return s, nil
}

// ident never fails: an unknown name yields an Ident without symbol.
func (l *loader) ident(name string, line int) *Ident {
	sym, _ := l.table.Lookup(name)
	id := &Ident{Name: name, Symbol: sym}
	id.Pos = l.pos(line)
	return id
}

func (l *loader) optExpr(d *exprDoc) (Expr, error) {
	if d == nil {
		return nil, nil
	}
	return l.expr(d)
}

func (l *loader) exprs(docs []exprDoc) ([]Expr, error) {
	out := make([]Expr, 0, len(docs))
	for i := range docs {
		x, err := l.expr(&docs[i])
		if err != nil {
			return nil, err
		}
		out = append(out, x)
	}
	return out, nil
}

func (l *loader) expr(d *exprDoc) (Expr, error) {
	if d == nil {
		return nil, fmt.Errorf("%w: missing expression", ErrInvalidProgram)
	}
	switch {
	case d.Ident != "":
		return l.ident(d.Ident, d.Line), nil

	case d.Lit != nil:
		typ, err := l.typ(d.Type)
		if err != nil {
			return nil, err
		}
		x := &Literal{Value: d.Lit, Type: typ}
		x.Pos = l.pos(d.Line)
		return x, nil

	case d.Call != "":
		sym, _ := l.table.Lookup(d.Call)
		args, err := l.exprs(d.Args)
		if err != nil {
			return nil, err
		}
		x := &Call{Func: sym, Args: args}
		x.Pos = l.pos(d.Line)
		return x, nil

	case d.Method != "":
		recv, err := l.expr(d.Receiver)
		if err != nil {
			return nil, err
		}
		sym, _ := l.table.Lookup(d.Method)
		args, err := l.exprs(d.Args)
		if err != nil {
			return nil, err
		}
		x := &MethodCall{Receiver: recv, Method: sym, Args: args}
		x.Pos = l.pos(d.Line)
		return x, nil

	case d.Member != "":
		recv, err := l.expr(d.Receiver)
		if err != nil {
			return nil, err
		}
		sym, _ := l.table.Lookup(d.Member)
		x := &MemberAccess{Receiver: recv, Member: sym}
		x.Pos = l.pos(d.Line)
		return x, nil

	case d.Left != nil || d.Right != nil:
		left, err := l.expr(d.Left)
		if err != nil {
			return nil, err
		}
		right, err := l.expr(d.Right)
		if err != nil {
			return nil, err
		}
		x := &Binary{Op: d.Op, Left: left, Right: right}
		x.Pos = l.pos(d.Line)
		return x, nil

	case d.X != nil:
		operand, err := l.expr(d.X)
		if err != nil {
			return nil, err
		}
		x := &Unary{Op: d.Op, X: operand}
		x.Pos = l.pos(d.Line)
		return x, nil
	}
	return nil, fmt.Errorf("%w: empty expression at line %d", ErrInvalidProgram, d.Line)
}
