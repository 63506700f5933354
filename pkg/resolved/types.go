// Package resolved defines the resolved program representation consumed by the
// usage graph builder: AST nodes annotated with the symbols and types that name
// resolution attached to them, plus the symbol table they were resolved against.
package resolved

import "fmt"

// Pos is a position in a source file.
type Pos struct {
	File   string `json:"file,omitempty" yaml:"file"`
	Line   int    `json:"line" yaml:"line"`
	Column int    `json:"column" yaml:"column"`
}

func (p Pos) String() string {
	if p.File == "" {
		return fmt.Sprintf("%d:%d", p.Line, p.Column)
	}
	return fmt.Sprintf("%s:%d:%d", p.File, p.Line, p.Column)
}

// TypeKind classifies a static type.
type TypeKind string

const (
	TypeKindBasic     TypeKind = "basic"     // int, float, string, bool
	TypeKindAggregate TypeKind = "aggregate" // user defined record/aggregate
	TypeKindFunction  TypeKind = "function"  // callable
	TypeKindGraph     TypeKind = "graph"     // dot graph value
	TypeKindList      TypeKind = "list"
	TypeKindSet       TypeKind = "set"
	TypeKindMap       TypeKind = "map"
)

// Type is a resolved static type.
type Type struct {
	Name string   `json:"name" yaml:"name"`
	Kind TypeKind `json:"kind" yaml:"kind"`
}

func (t *Type) String() string {
	if t == nil {
		return "<no type>"
	}
	return t.Name
}

// SymbolKind classifies a resolved symbol.
type SymbolKind string

const (
	SymbolKindVariable         SymbolKind = "variable"
	SymbolKindParameter        SymbolKind = "parameter"
	SymbolKindFunction         SymbolKind = "function"
	SymbolKindAggregateType    SymbolKind = "aggregate_type"
	SymbolKindMember           SymbolKind = "member"
	SymbolKindImportedFunction SymbolKind = "imported_function"
	SymbolKindImportedType     SymbolKind = "imported_type"
)

// Symbol is a resolved name.
type Symbol struct {
	Name string     `json:"name"`
	Kind SymbolKind `json:"kind"`
	Type *Type      `json:"type,omitempty"`

	// Original is the remote declaration an imported symbol refers to.
	Original *Symbol `json:"-"`

	// Mutating marks member functions that change the state of their receiver.
	Mutating bool `json:"mutating,omitempty"`
}

func (s *Symbol) String() string {
	if s == nil {
		return "<no symbol>"
	}
	return s.Name
}

// IsCallable reports whether the symbol names something that can be invoked.
func (s *Symbol) IsCallable() bool {
	if s == nil {
		return false
	}
	switch s.Kind {
	case SymbolKindFunction, SymbolKindImportedFunction:
		return true
	case SymbolKindMember:
		return s.Type != nil && s.Type.Kind == TypeKindFunction
	}
	return false
}

// IsImported reports whether the symbol was brought in through an import.
func (s *Symbol) IsImported() bool {
	return s != nil && (s.Kind == SymbolKindImportedFunction || s.Kind == SymbolKindImportedType)
}

// SymbolTable maps names to resolved symbols. Iteration order is insertion order.
type SymbolTable struct {
	byName  map[string]*Symbol
	symbols []*Symbol
}

// NewSymbolTable creates an empty symbol table.
func NewSymbolTable() *SymbolTable {
	return &SymbolTable{byName: make(map[string]*Symbol)}
}

// Add registers a symbol. A symbol with an already registered name replaces the
// lookup entry but stays in the ordered symbol list.
func (t *SymbolTable) Add(sym *Symbol) *Symbol {
	if sym == nil {
		return nil
	}
	t.byName[sym.Name] = sym
	t.symbols = append(t.symbols, sym)
	return sym
}

// Lookup returns the symbol registered under name.
func (t *SymbolTable) Lookup(name string) (*Symbol, bool) {
	if t == nil {
		return nil, false
	}
	sym, ok := t.byName[name]
	return sym, ok
}

// Symbols returns all registered symbols in insertion order.
func (t *SymbolTable) Symbols() []*Symbol {
	if t == nil {
		return nil
	}
	out := make([]*Symbol, len(t.symbols))
	copy(out, t.symbols)
	return out
}

// Len returns the number of registered symbols.
func (t *SymbolTable) Len() int {
	if t == nil {
		return 0
	}
	return len(t.symbols)
}
