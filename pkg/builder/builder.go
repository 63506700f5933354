// Package builder constructs a usage graph from a resolved program.
//
// Construction runs in two passes over one program. The first walks the AST and
// creates nodes, containment links and temporal edges. The second computes
// reaching definitions over the temporal edges and adds the data dependency
// edges, resolving which instance every read refers to.
package builder

import (
	"errors"
	"fmt"

	"github.com/l3aro/go-usage-graph/internal/log"
	"github.com/l3aro/go-usage-graph/pkg/resolved"
	"github.com/l3aro/go-usage-graph/pkg/usagegraph"
)

var (
	// ErrNilProgram is returned when Build is called without a program.
	ErrNilProgram = errors.New("nil program")

	// ErrUnresolvedImport is returned when an import refers to a declaration
	// that cannot be found.
	ErrUnresolvedImport = errors.New("unresolved import")

	// ErrStructuralViolation is returned in strict mode when a containment
	// link could not be established.
	ErrStructuralViolation = errors.New("structural violation")
)

// Builder turns resolved programs into usage graphs. A Builder holds only
// configuration and may be reused and shared; every Build call owns its own
// counters.
type Builder struct {
	logger         log.Logger
	strict         bool
	globalFallback bool
}

// Option configures a Builder.
type Option func(*Builder)

// WithLogger sets the logger used for progress output.
func WithLogger(l log.Logger) Option {
	return func(b *Builder) {
		if l != nil {
			b.logger = l
		}
	}
}

// WithStrictStructure turns absorbed containment failures into ErrStructuralViolation.
func WithStrictStructure(strict bool) Option {
	return func(b *Builder) {
		b.strict = strict
	}
}

// WithGlobalFallback controls whether reads with no reaching definition resolve
// to file-global definitions of the same symbol. Enabled by default.
func WithGlobalFallback(enabled bool) Option {
	return func(b *Builder) {
		b.globalFallback = enabled
	}
}

// New creates a Builder.
func New(opts ...Option) *Builder {
	b := &Builder{
		logger:         log.Nop(),
		globalFallback: true,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Build constructs the usage graph of prog. The symbol table is consulted for
// symbols the AST refers to by name only; it may be nil. On error no graph is
// returned.
func (b *Builder) Build(prog *resolved.Program, table *resolved.SymbolTable) (*usagegraph.Graph, error) {
	if prog == nil {
		return nil, ErrNilProgram
	}
	progress := log.NewProgress(b.logger)

	s := &state{
		b:       b,
		g:       usagegraph.New(prog.Name),
		table:   table,
		consts:  make(map[constKey]usagegraph.InstanceID),
		natives: make(map[*resolved.Symbol]usagegraph.InstanceID),
	}

	s.program(prog.Stmts)
	if s.err != nil {
		return nil, fmt.Errorf("build %q: %w", prog.Name, s.err)
	}
	b.logger.Debug("temporal pass done", "program", prog.Name, "nodes", s.g.Len(), "edges", s.g.EdgeCount())

	s.resolveData()
	if s.err != nil {
		return nil, fmt.Errorf("build %q: %w", prog.Name, s.err)
	}
	if err := s.g.CheckForest(); err != nil {
		return nil, fmt.Errorf("build %q: %w", prog.Name, err)
	}
	if s.absorbed > 0 {
		b.logger.Warn("absorbed containment no-ops", "program", prog.Name, "count", s.absorbed)
	}

	progress.Done("usage graph built", "program", prog.Name, "nodes", s.g.Len(), "edges", s.g.EdgeCount())
	return s.g, nil
}

type constKey struct {
	typ   string
	value string
}

// state is the per-build context. It owns the instance counter, so ids are
// deterministic for a given program and never shared between builds.
type state struct {
	b     *Builder
	g     *usagegraph.Graph
	table *resolved.SymbolTable

	nextInstance usagegraph.InstanceID
	consts       map[constKey]usagegraph.InstanceID
	natives      map[*resolved.Symbol]usagegraph.InstanceID

	// controls is the stack of enclosing control nodes.
	controls []*usagegraph.ControlNode

	absorbed int
	err      error
}

// fresh allocates a new instance id. Ids start at 1.
func (s *state) fresh() usagegraph.InstanceID {
	s.nextInstance++
	return s.nextInstance
}

// constInstance returns the id shared by every occurrence of one literal value.
func (s *state) constInstance(lit *resolved.Literal) usagegraph.InstanceID {
	key := constKey{typ: lit.Type.String(), value: fmt.Sprintf("%#v", lit.Value)}
	if id, ok := s.consts[key]; ok {
		return id
	}
	id := s.fresh()
	s.consts[key] = id
	return id
}

// nativeInstance returns the id standing for a function defined outside the program.
func (s *state) nativeInstance(sym *resolved.Symbol) usagegraph.InstanceID {
	if id, ok := s.natives[sym]; ok {
		return id
	}
	id := s.fresh()
	s.natives[sym] = id
	return id
}

func (s *state) fail(err error) {
	if s.err == nil {
		s.err = err
	}
}

// own attaches every node in ns that has no parent yet to parent.
func (s *state) own(parent usagegraph.Node, ns []usagegraph.Node) {
	for _, n := range ns {
		if _, ok := n.Parent(); ok {
			continue
		}
		if !parent.AddChild(n) {
			s.absorbed++
			s.b.logger.Debug("containment no-op", "parent", parent.Label(), "child", n.Label())
			if s.b.strict {
				s.fail(fmt.Errorf("%w: cannot attach %s to %s", ErrStructuralViolation, n.Label(), parent.Label()))
			}
		}
	}
}

// pushControl makes c the control parent of nodes created until popControl.
func (s *state) pushControl(c *usagegraph.ControlNode) {
	s.mark(c)
	s.controls = append(s.controls, c)
}

func (s *state) popControl() {
	s.controls = s.controls[:len(s.controls)-1]
}

// mark records the innermost enclosing control node on n.
func (s *state) mark(n usagegraph.Node) {
	if len(s.controls) > 0 {
		n.SetControlParent(s.controls[len(s.controls)-1])
	}
}

// lookup resolves an identifier through the symbol table when the AST carries
// no symbol.
func (s *state) lookup(id *resolved.Ident) *resolved.Symbol {
	if id == nil {
		return nil
	}
	if id.Symbol != nil || s.table == nil {
		return id.Symbol
	}
	sym, _ := s.table.Lookup(id.Name)
	return sym
}
