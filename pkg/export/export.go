// Package export turns a finished usage graph into a flat, storage-friendly
// document: one record per node, with every edge kind and the containment
// forest expressed as named relationships between stable node keys.
package export

import (
	"fmt"
	"strconv"

	"github.com/google/uuid"

	"github.com/l3aro/go-usage-graph/pkg/resolved"
	"github.com/l3aro/go-usage-graph/pkg/usagegraph"
)

// Relationship names used in Record.Relationships.
const (
	RelParentOf         = "PARENT_OF"
	RelControlParent    = "CONTROL_PARENT"
	RelTemporal         = "TEMPORAL"
	RelDataRead         = "DATA_READ"
	RelDataRedefinition = "DATA_REDEFINITION"
)

// MixedTargets is the target kind of a relationship whose targets differ in kind.
const MixedTargets = "node"

var edgeRelationships = map[usagegraph.EdgeKind]string{
	usagegraph.EdgeTemporal:         RelTemporal,
	usagegraph.EdgeDataRead:         RelDataRead,
	usagegraph.EdgeDataRedefinition: RelDataRedefinition,
}

var namespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://github.com/l3aro/go-usage-graph"))

// GraphID returns the identity of the graph built for the named program. The
// same name always yields the same id.
func GraphID(name string) uuid.UUID {
	return uuid.NewSHA1(namespace, []byte(name))
}

// NodeKey returns the stable key of node id within the graph identified by graphID.
func NodeKey(graphID uuid.UUID, id usagegraph.NodeID) string {
	return graphID.String() + "/" + strconv.Itoa(int(id))
}

// Relationship lists the keys of the nodes one record points to under one name.
type Relationship struct {
	TargetKind string   `json:"target_kind" msgpack:"target_kind"`
	Targets    []string `json:"targets" msgpack:"targets"`
}

// Record is the exported form of a single node.
type Record struct {
	Key           string                  `json:"key" msgpack:"key"`
	ID            int                     `json:"id" msgpack:"id"`
	Kind          usagegraph.NodeKind     `json:"kind" msgpack:"kind"`
	Label         string                  `json:"label" msgpack:"label"`
	Properties    map[string]string       `json:"properties,omitempty" msgpack:"properties,omitempty"`
	Relationships map[string]Relationship `json:"relationships,omitempty" msgpack:"relationships,omitempty"`
}

// Document is the exported form of a whole graph. Records are in node id order.
type Document struct {
	GraphID string   `json:"graph_id" msgpack:"graph_id"`
	Name    string   `json:"name" msgpack:"name"`
	Records []Record `json:"records" msgpack:"records"`
}

// Record returns the record with the given node id.
func (d *Document) Record(id usagegraph.NodeID) (*Record, bool) {
	if id < 0 || int(id) >= len(d.Records) || d.Records[id].ID != int(id) {
		return nil, false
	}
	return &d.Records[id], true
}

// Collect builds the document of g.
func Collect(g *usagegraph.Graph) *Document {
	gid := GraphID(g.Name())
	c := &collector{gid: gid}
	g.Walk(c)
	for i := range c.records {
		r := &c.records[i]
		if len(r.Properties) == 0 {
			r.Properties = nil
		}
		if len(r.Relationships) == 0 {
			r.Relationships = nil
		}
	}
	return &Document{
		GraphID: gid.String(),
		Name:    g.Name(),
		Records: c.records,
	}
}

// collector fills one record per visited node. Node properties depend on the
// concrete kind; everything structural is shared in begin.
type collector struct {
	gid     uuid.UUID
	records []Record
	cur     *Record
}

func (c *collector) key(n usagegraph.Node) string { return NodeKey(c.gid, n.ID()) }

func (c *collector) begin(n usagegraph.Node) {
	c.records = append(c.records, Record{
		Key:           c.key(n),
		ID:            int(n.ID()),
		Kind:          n.Kind(),
		Label:         n.Label(),
		Properties:    map[string]string{},
		Relationships: map[string]Relationship{},
	})
	c.cur = &c.records[len(c.records)-1]

	if ast, ok := n.ASTNode(); ok {
		pos := ast.Position()
		if pos.File != "" {
			c.set("file", pos.File)
		}
		if pos.Line > 0 {
			c.set("line", strconv.Itoa(pos.Line))
		}
	}
	if p, ok := n.ProcessedCounter(); ok {
		c.set("processed", strconv.FormatInt(p, 10))
	}

	if children := n.Children(); len(children) > 0 {
		c.relate(RelParentOf, children)
	}
	if cp, ok := n.ControlParent(); ok {
		c.relate(RelControlParent, []usagegraph.Node{cp})
	}
	for _, kind := range []usagegraph.EdgeKind{usagegraph.EdgeTemporal, usagegraph.EdgeDataRead, usagegraph.EdgeDataRedefinition} {
		if ends := n.EndsOfOutgoing(kind); len(ends) > 0 {
			c.relate(edgeRelationships[kind], ends)
		}
	}

	if a, ok := usagegraph.AsAction(n); ok {
		c.set("action_type", a.ActionType().String())
		if inst, ok := a.ReferencedInstance(); ok {
			c.set("instance", strconv.FormatInt(int64(inst), 10))
		}
	}
}

func (c *collector) set(k, v string) { c.cur.Properties[k] = v }

func (c *collector) symbol(k string, s *resolved.Symbol, ok bool) {
	if ok {
		c.set(k, s.Name)
	}
}

// relate records nodes under name. The target kind is the kind the targets
// share, or MixedTargets when they differ.
func (c *collector) relate(name string, nodes []usagegraph.Node) {
	keys := make([]string, len(nodes))
	kind := string(nodes[0].Kind())
	for i, n := range nodes {
		keys[i] = c.key(n)
		if string(n.Kind()) != kind {
			kind = MixedTargets
		}
	}
	c.cur.Relationships[name] = Relationship{TargetKind: kind, Targets: keys}
}

func (c *collector) member(recv, member *resolved.Symbol, recvOK, memberOK bool, access usagegraph.InstanceID, accessOK bool) {
	c.symbol("receiver", recv, recvOK)
	c.symbol("member", member, memberOK)
	if accessOK {
		c.set("access_instance", strconv.FormatInt(int64(access), 10))
	}
}

func (c *collector) VisitControl(n *usagegraph.ControlNode) {
	c.begin(n)
	c.set("control_type", n.ControlType().String())
	c.set("conditional", strconv.FormatBool(n.IsConditional()))
	c.set("seq", strconv.Itoa(n.Seq()))
}

func (c *collector) VisitDefinition(n *usagegraph.Definition) {
	c.begin(n)
	s, ok := n.Symbol()
	c.symbol("symbol", s, ok)
}

func (c *collector) VisitDefinitionByImport(n *usagegraph.DefinitionByImport) {
	c.begin(n)
	s, ok := n.InstanceSymbol()
	c.symbol("symbol", s, ok)
	o, ok := n.OriginalSymbol()
	c.symbol("original", o, ok)
	if t, ok := n.ImportedType(); ok {
		c.set("imported_type", t.String())
	}
}

func (c *collector) VisitConstRef(n *usagegraph.ConstRef) {
	c.begin(n)
	c.set("value", fmt.Sprint(n.Value()))
	if t, ok := n.Type(); ok {
		c.set("type", t.String())
	}
}

func (c *collector) VisitFunctionCall(n *usagegraph.FunctionCall) {
	c.begin(n)
	s, ok := n.Function()
	c.symbol("function", s, ok)
}

func (c *collector) VisitMethodAccess(n *usagegraph.MethodAccess) {
	c.begin(n)
	recv, recvOK := n.Receiver()
	m, mOK := n.Member()
	access, accessOK := n.AccessInstance()
	c.member(recv, m, recvOK, mOK, access, accessOK)
	c.set("mutating", strconv.FormatBool(n.Mutating()))
	if p, ok := n.ProducedInstance(); ok {
		c.set("produced_instance", strconv.FormatInt(int64(p), 10))
	}
}

func (c *collector) VisitPropertyAccess(n *usagegraph.PropertyAccess) {
	c.begin(n)
	recv, recvOK := n.Receiver()
	m, mOK := n.Member()
	access, accessOK := n.AccessInstance()
	c.member(recv, m, recvOK, mOK, access, accessOK)
}

func (c *collector) VisitParameterInstantiation(n *usagegraph.ParameterInstantiation) {
	c.begin(n)
	s, ok := n.Parameter()
	c.symbol("symbol", s, ok)
	c.set("index", strconv.Itoa(n.Index()))
}

func (c *collector) VisitVariableReference(n *usagegraph.VariableReference) {
	c.begin(n)
	s, ok := n.Symbol()
	c.symbol("symbol", s, ok)
}

func (c *collector) VisitReferenceInGraph(n *usagegraph.ReferenceInGraph) {
	c.begin(n)
	s, ok := n.Symbol()
	c.symbol("symbol", s, ok)
}

func (c *collector) VisitExpression(n *usagegraph.Expression) {
	c.begin(n)
	if op := n.Operator(); op != usagegraph.OpNone {
		c.set("operator", string(op))
	}
}

func (c *collector) VisitPassAsParameter(n *usagegraph.PassAsParameter) {
	c.begin(n)
	c.set("index", strconv.Itoa(n.Index()))
}

func (c *collector) VisitEdge(*usagegraph.Edge) {}
