package builder

import (
	"container/list"
	"slices"

	"github.com/l3aro/go-usage-graph/pkg/resolved"
	"github.com/l3aro/go-usage-graph/pkg/usagegraph"
)

// defFact is a node producing a new instance of a symbol.
type defFact struct {
	node usagegraph.Node
	sym  *resolved.Symbol
	inst usagegraph.InstanceID
}

// useFact is a node consuming the instance of a symbol reaching it.
type useFact struct {
	node usagegraph.Action
	sym  *resolved.Symbol
	// redefine marks uses that advance the version instead of reading it.
	redefine bool
	// resolve marks uses whose referenced instance comes from the reaching definition.
	resolve bool
}

// facts collects the definitions and uses of a graph. It visits every kind so
// that a new kind cannot be silently ignored by the data pass.
type facts struct {
	defs map[usagegraph.NodeID]defFact
	uses []useFact
}

func (f *facts) def(n usagegraph.Node, sym *resolved.Symbol, inst usagegraph.InstanceID) {
	if sym != nil {
		f.defs[n.ID()] = defFact{node: n, sym: sym, inst: inst}
	}
}

func (f *facts) use(n usagegraph.Action, sym *resolved.Symbol, redefine, resolve bool) {
	if sym != nil {
		f.uses = append(f.uses, useFact{node: n, sym: sym, redefine: redefine, resolve: resolve})
	}
}

func (f *facts) VisitControl(*usagegraph.ControlNode)             {}
func (f *facts) VisitConstRef(*usagegraph.ConstRef)               {}
func (f *facts) VisitExpression(*usagegraph.Expression)           {}
func (f *facts) VisitPassAsParameter(*usagegraph.PassAsParameter) {}
func (f *facts) VisitEdge(*usagegraph.Edge)                       {}

func (f *facts) VisitDefinition(n *usagegraph.Definition) {
	sym, _ := n.Symbol()
	inst, _ := n.ReferencedInstance()
	f.def(n, sym, inst)
	// A definition reached by an earlier one of the same symbol is a re-assignment.
	f.use(n, sym, true, false)
}

func (f *facts) VisitDefinitionByImport(n *usagegraph.DefinitionByImport) {
	sym, _ := n.InstanceSymbol()
	inst, _ := n.ReferencedInstance()
	f.def(n, sym, inst)
}

func (f *facts) VisitParameterInstantiation(n *usagegraph.ParameterInstantiation) {
	sym, _ := n.Parameter()
	inst, _ := n.ReferencedInstance()
	f.def(n, sym, inst)
}

func (f *facts) VisitFunctionCall(n *usagegraph.FunctionCall) {
	sym, _ := n.Function()
	f.use(n, sym, false, true)
}

func (f *facts) VisitMethodAccess(n *usagegraph.MethodAccess) {
	recv, ok := n.Receiver()
	if !ok {
		return
	}
	if prod, ok := n.ProducedInstance(); ok && n.Mutating() {
		f.def(n, recv, prod)
		f.use(n, recv, true, true)
		return
	}
	f.use(n, recv, false, true)
}

func (f *facts) VisitPropertyAccess(n *usagegraph.PropertyAccess) {
	if recv, ok := n.Receiver(); ok {
		f.use(n, recv, false, true)
	}
}

func (f *facts) VisitVariableReference(n *usagegraph.VariableReference) {
	sym, _ := n.Symbol()
	f.use(n, sym, false, true)
}

func (f *facts) VisitReferenceInGraph(n *usagegraph.ReferenceInGraph) {
	sym, _ := n.Symbol()
	f.use(n, sym, false, true)
}

type defSet map[usagegraph.NodeID]struct{}

// entryFacts are pseudo definitions meaning "defined outside the enclosing
// function". One exists per symbol with a file-global definition; every
// beginFunc generates all of them, so one reaches a use exactly when some path
// through the function leaves the symbol without a local definition. Their ids
// are negative and never collide with node ids.
type entryFacts struct {
	syms map[usagegraph.NodeID]*resolved.Symbol
	gen  map[usagegraph.NodeID][]usagegraph.NodeID
}

func (s *state) functionEntries(order []usagegraph.Node, globals map[*resolved.Symbol][]usagegraph.NodeID) entryFacts {
	ef := entryFacts{
		syms: make(map[usagegraph.NodeID]*resolved.Symbol),
		gen:  make(map[usagegraph.NodeID][]usagegraph.NodeID),
	}
	if !s.b.globalFallback || len(globals) == 0 {
		return ef
	}

	syms := make([]*resolved.Symbol, 0, len(globals))
	for sym := range globals {
		syms = append(syms, sym)
	}
	slices.SortFunc(syms, func(a, b *resolved.Symbol) int {
		return int(slices.Min(globals[a])) - int(slices.Min(globals[b]))
	})
	keys := make([]usagegraph.NodeID, len(syms))
	for i, sym := range syms {
		keys[i] = usagegraph.NodeID(-1 - i)
		ef.syms[keys[i]] = sym
	}

	for _, n := range order {
		if c, ok := n.(*usagegraph.ControlNode); ok && c.ControlType() == usagegraph.ControlBeginFunc {
			ef.gen[n.ID()] = keys
		}
	}
	return ef
}

// resolveData runs reaching definitions over the temporal edges and adds the
// data dependency edges. It also stamps every node's processed counter with its
// position in temporal order.
func (s *state) resolveData() {
	order := temporalOrder(s.g)
	rank := make(map[usagegraph.NodeID]int, len(order))
	for i, n := range order {
		rank[n.ID()] = i
		n.SetProcessedCounter(int64(i))
	}

	fs := &facts{defs: make(map[usagegraph.NodeID]defFact)}
	s.g.Walk(fs)

	// Parentless definitions are file-global.
	globals := make(map[*resolved.Symbol][]usagegraph.NodeID)
	defined := make(map[*resolved.Symbol]bool)
	for _, n := range s.g.Nodes() {
		d, ok := fs.defs[n.ID()]
		if !ok {
			continue
		}
		defined[d.sym] = true
		if _, ok := n.Parent(); !ok {
			globals[d.sym] = append(globals[d.sym], n.ID())
		}
	}

	entry := s.functionEntries(order, globals)
	in := s.reachingDefs(order, fs.defs, entry)

	added := 0
	for _, u := range fs.uses {
		var local []usagegraph.NodeID
		outside := false
		for id := range in[u.node.ID()] {
			switch {
			case id < 0:
				outside = outside || entry.syms[id] == u.sym
			case fs.defs[id].sym == u.sym:
				local = append(local, id)
			}
		}
		slices.Sort(local)

		// Re-assignments only gain edges from the fallback; their own instance
		// is fixed at construction.
		var fallback []usagegraph.NodeID
		if s.b.globalFallback && (outside || (len(local) == 0 && u.resolve)) {
			for _, id := range notAfter(u.node, globals[u.sym], fs.defs) {
				if id != u.node.ID() && !slices.Contains(local, id) {
					fallback = append(fallback, id)
				}
			}
			slices.Sort(fallback)
		}

		kind := usagegraph.EdgeDataRead
		if u.redefine {
			kind = usagegraph.EdgeDataRedefinition
		}
		for _, id := range slices.Concat(local, fallback) {
			s.g.AddEdge(fs.defs[id].node, u.node, kind)
			added++
		}

		if !u.resolve {
			continue
		}
		// A local definition is more recent than anything from outside.
		latest, ok := latestOf(local, rank, fs.defs)
		if !ok {
			latest, ok = latestOf(fallback, rank, fs.defs)
		}
		switch {
		case ok:
			u.node.SetReferencedInstance(latest.inst)
		case u.sym.IsCallable() && !defined[u.sym]:
			u.node.SetReferencedInstance(s.nativeInstance(u.sym))
		default:
			s.b.logger.Debug("unresolved read", "node", u.node.Label())
		}
	}
	added += s.involveControls(fs.defs)
	removed := s.g.RemoveRedundantEdges()
	s.b.logger.Debug("data pass done", "defs", len(fs.defs), "uses", len(fs.uses), "edges", added, "redundant", removed)
}

// latestOf returns the definition among ids that comes last in temporal order.
// Definitions on parallel branches are ordered by rank, so after an if/else the
// branch lowered last wins.
func latestOf(ids []usagegraph.NodeID, rank map[usagegraph.NodeID]int, defs map[usagegraph.NodeID]defFact) (defFact, bool) {
	var latest defFact
	found := false
	for _, id := range ids {
		if !found || rank[id] > rank[latest.node.ID()] {
			latest = defs[id]
			found = true
		}
	}
	return latest, found
}

// involveControls gives every control node that evaluates operands a data read
// edge from each definition its condition, iterable or returned value reads.
// Operand nodes are the descendants that come before the control node in
// temporal order; the body follows it.
func (s *state) involveControls(defs map[usagegraph.NodeID]defFact) int {
	added := 0
	for _, n := range s.g.Nodes() {
		if _, ok := n.(*usagegraph.ControlNode); ok {
			continue
		}
		sources := n.StartsOfIncoming(usagegraph.EdgeDataRead, usagegraph.EdgeDataRedefinition)
		if len(sources) == 0 {
			continue
		}
		for p, ok := n.Parent(); ok; p, ok = p.Parent() {
			c, isControl := p.(*usagegraph.ControlNode)
			if !isControl || !c.ControlType().ReadsOperands() || !precedes(n, c) {
				continue
			}
			for _, src := range sources {
				if _, isDef := defs[src.ID()]; !isDef || s.g.HasEdge(src, c, usagegraph.EdgeDataRead) {
					continue
				}
				s.g.AddEdge(src, c, usagegraph.EdgeDataRead)
				added++
			}
		}
	}
	return added
}

// precedes reports whether a is processed before b.
func precedes(a, b usagegraph.Node) bool {
	pa, _ := a.ProcessedCounter()
	pb, _ := b.ProcessedCounter()
	return pa < pb
}

// reachingDefs computes, for every node, the set of definitions reaching it
// along temporal edges. Each node is its own block: gen is the node's own
// definition plus any entry facts it generates, and kill is every other
// definition of the same symbol.
func (s *state) reachingDefs(order []usagegraph.Node, defs map[usagegraph.NodeID]defFact, entry entryFacts) map[usagegraph.NodeID]defSet {
	symOf := func(id usagegraph.NodeID) *resolved.Symbol {
		if id < 0 {
			return entry.syms[id]
		}
		return defs[id].sym
	}

	in := make(map[usagegraph.NodeID]defSet, len(order))
	out := make(map[usagegraph.NodeID]defSet, len(order))
	for _, n := range order {
		in[n.ID()] = defSet{}
		out[n.ID()] = defSet{}
	}

	worklist := list.New()
	for _, n := range order {
		worklist.PushBack(n)
	}

	for worklist.Len() > 0 {
		n := worklist.Remove(worklist.Front()).(usagegraph.Node)
		id := n.ID()

		inSet := defSet{}
		for _, pred := range n.StartsOfIncoming(usagegraph.EdgeTemporal) {
			for d := range out[pred.ID()] {
				inSet[d] = struct{}{}
			}
		}
		in[id] = inSet

		outSet := defSet{}
		own, isDef := defs[id]
		for d := range inSet {
			if isDef && symOf(d) == own.sym {
				continue
			}
			outSet[d] = struct{}{}
		}
		if isDef {
			outSet[id] = struct{}{}
		}
		for _, d := range entry.gen[id] {
			outSet[d] = struct{}{}
		}

		if !setsEqual(out[id], outSet) {
			out[id] = outSet
			for _, succ := range n.EndsOfOutgoing(usagegraph.EdgeTemporal) {
				worklist.PushBack(succ)
			}
		}
	}
	return in
}

func setsEqual(a, b defSet) bool {
	if len(a) != len(b) {
		return false
	}
	for k := range a {
		if _, ok := b[k]; !ok {
			return false
		}
	}
	return true
}

// notAfter drops the candidates that are temporally reachable from n, keeping
// only definitions that do not happen after it. A definition enclosing n, such
// as the function a recursive call sits in, is always kept.
func notAfter(n usagegraph.Node, candidates []usagegraph.NodeID, defs map[usagegraph.NodeID]defFact) []usagegraph.NodeID {
	if len(candidates) == 0 {
		return nil
	}
	later := map[usagegraph.NodeID]bool{}
	queue := []usagegraph.Node{n}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, next := range cur.EndsOfOutgoing(usagegraph.EdgeTemporal) {
			if !later[next.ID()] {
				later[next.ID()] = true
				queue = append(queue, next)
			}
		}
	}
	var out []usagegraph.NodeID
	for _, id := range candidates {
		if !later[id] || n.IsOrDescendantOf(defs[id].node) {
			out = append(out, id)
		}
	}
	return out
}

// temporalOrder returns the nodes in topological order of the temporal edges,
// breaking ties by node id. Nodes on a temporal cycle, which construction never
// produces, are appended in id order.
func temporalOrder(g *usagegraph.Graph) []usagegraph.Node {
	nodes := g.Nodes()
	indeg := make([]int, len(nodes))
	for _, e := range g.Edges(usagegraph.EdgeTemporal) {
		indeg[e.End().ID()]++
	}

	var ready []usagegraph.NodeID
	for i, d := range indeg {
		if d == 0 {
			ready = append(ready, usagegraph.NodeID(i))
		}
	}

	order := make([]usagegraph.Node, 0, len(nodes))
	placed := make([]bool, len(nodes))
	for len(ready) > 0 {
		id := ready[0]
		ready = ready[1:]
		order = append(order, nodes[id])
		placed[id] = true
		for _, next := range nodes[id].EndsOfOutgoing(usagegraph.EdgeTemporal) {
			nid := next.ID()
			indeg[nid]--
			if indeg[nid] == 0 {
				i, _ := slices.BinarySearch(ready, nid)
				ready = slices.Insert(ready, i, nid)
			}
		}
	}
	for i, n := range nodes {
		if !placed[i] {
			order = append(order, n)
		}
	}
	return order
}
