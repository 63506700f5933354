package export

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/l3aro/go-usage-graph/pkg/usagegraph"
)

// Format names an output encoding.
type Format string

const (
	FormatJSON    Format = "json"
	FormatMsgpack Format = "msgpack"
	FormatDOT     Format = "dot"
)

// Formats lists the supported output encodings.
func Formats() []Format {
	return []Format{FormatJSON, FormatMsgpack, FormatDOT}
}

// ParseFormat validates a format name.
func ParseFormat(s string) (Format, error) {
	for _, f := range Formats() {
		if string(f) == strings.ToLower(s) {
			return f, nil
		}
	}
	return "", fmt.Errorf("unknown export format %q", s)
}

// WriteJSON writes doc as indented JSON.
func WriteJSON(w io.Writer, doc *Document) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("failed to encode document: %w", err)
	}
	return nil
}

// WriteMsgpack writes doc in msgpack encoding.
func WriteMsgpack(w io.Writer, doc *Document) error {
	enc := msgpack.NewEncoder(w)
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("failed to encode document: %w", err)
	}
	return nil
}

// ReadMsgpack reads a document written by WriteMsgpack.
func ReadMsgpack(r io.Reader) (*Document, error) {
	var doc Document
	dec := msgpack.NewDecoder(r)
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("failed to decode document: %w", err)
	}
	return &doc, nil
}

// DOTOptions configures WriteDOT.
type DOTOptions struct {
	// InvisibleTemporalEdges keeps temporal edges in the layout but hides them,
	// leaving only the data dependencies visible.
	InvisibleTemporalEdges bool
}

// Write encodes g in format f. DOT output goes straight from the graph; the
// other formats go through Collect.
func Write(w io.Writer, g *usagegraph.Graph, f Format, opts DOTOptions) error {
	switch f {
	case FormatJSON:
		return WriteJSON(w, Collect(g))
	case FormatMsgpack:
		return WriteMsgpack(w, Collect(g))
	case FormatDOT:
		return WriteDOT(w, g, opts)
	}
	return fmt.Errorf("unknown export format %q", f)
}

// WriteDOT writes g in Graphviz DOT syntax. Nodes owning children become
// clusters containing their children and themselves; an edge between two
// siblings is placed in their parent's cluster.
func WriteDOT(w io.Writer, g *usagegraph.Graph, opts DOTOptions) error {
	d := &dotWriter{opts: opts, local: map[usagegraph.NodeID][]*usagegraph.Edge{}}
	for _, e := range g.Edges() {
		sp, ok1 := e.Start().Parent()
		ep, ok2 := e.End().Parent()
		if ok1 && ok2 && sp.ID() == ep.ID() {
			d.local[sp.ID()] = append(d.local[sp.ID()], e)
			continue
		}
		d.global = append(d.global, e)
	}

	d.buf.WriteString("digraph G {\n")
	d.buf.WriteString("  graph [ranksep=0.1];\n")
	d.buf.WriteString("  node [width=0.1, fontsize=20];\n")
	d.buf.WriteString("  edge [minlen=1, fontsize=20];\n")
	d.buf.WriteString("\n")
	for _, n := range g.Roots() {
		d.node(n, 1)
	}
	for _, e := range d.global {
		d.edge(e, 1)
	}
	d.buf.WriteString("}\n")

	_, err := w.Write(d.buf.Bytes())
	return err
}

type dotWriter struct {
	buf    bytes.Buffer
	opts   DOTOptions
	local  map[usagegraph.NodeID][]*usagegraph.Edge
	global []*usagegraph.Edge
}

func dotID(n usagegraph.Node) string {
	if n.Kind() == usagegraph.KindControl {
		return fmt.Sprintf("c%d", n.ID())
	}
	return fmt.Sprintf("a%d", n.ID())
}

func dotLabel(n usagegraph.Node) string {
	if p, ok := n.ProcessedCounter(); ok {
		return fmt.Sprintf("%s proc idx: %d", n.Label(), p)
	}
	return n.Label()
}

func (d *dotWriter) node(n usagegraph.Node, depth int) {
	indent := strings.Repeat("  ", depth)
	shape := "ellipse"
	if n.Kind() == usagegraph.KindControl {
		shape = "diamond"
	}
	decl := fmt.Sprintf("%s [label=%q, shape=%s];\n", dotID(n), dotLabel(n), shape)

	children := n.Children()
	if len(children) == 0 {
		d.buf.WriteString(indent + decl)
		return
	}

	fmt.Fprintf(&d.buf, "%ssubgraph cluster_%s {\n", indent, dotID(n))
	fmt.Fprintf(&d.buf, "%s  label=%q;\n", indent, n.Label())
	fmt.Fprintf(&d.buf, "%s  fontsize=20;\n", indent)
	for _, c := range children {
		d.node(c, depth+1)
	}
	d.buf.WriteString(indent + "  " + decl)
	for _, e := range d.local[n.ID()] {
		d.edge(e, depth+1)
	}
	d.buf.WriteString(indent + "}\n")
}

func (d *dotWriter) edge(e *usagegraph.Edge, depth int) {
	style := "solid"
	if e.Kind() == usagegraph.EdgeTemporal && d.opts.InvisibleTemporalEdges {
		style = "invis"
	}
	fmt.Fprintf(&d.buf, "%s%s -> %s [label=%s, style=%s];\n",
		strings.Repeat("  ", depth), dotID(e.Start()), dotID(e.End()), e.Kind(), style)
}
