package export

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/l3aro/go-usage-graph/pkg/builder"
	"github.com/l3aro/go-usage-graph/pkg/resolved"
	"github.com/l3aro/go-usage-graph/pkg/usagegraph"
)

// demoGraph is `x = 1; x` built by hand: the literal is owned by the
// definition, which the reference follows and reads.
func demoGraph() *usagegraph.Graph {
	g := usagegraph.New("demo")
	x := &resolved.Symbol{Name: "x"}
	lit := g.NewConstRef(1, &resolved.Type{Name: "int"}, 2, nil)
	def := g.NewDefinition(x, 1, nil)
	def.AddChild(lit)
	ref := g.NewVariableReference(x, nil)
	ref.SetReferencedInstance(1)
	g.AddEdge(lit, def, usagegraph.EdgeTemporal)
	g.AddEdge(def, ref, usagegraph.EdgeTemporal)
	g.AddEdge(def, ref, usagegraph.EdgeDataRead)
	return g
}

func TestGraphID(t *testing.T) {
	a := GraphID("demo")
	assert.Equal(t, a, GraphID("demo"))
	assert.NotEqual(t, a, GraphID("other"))
	assert.Equal(t, uuid.Version(5), a.Version())

	key := NodeKey(a, 3)
	assert.True(t, strings.HasPrefix(key, a.String()))
	assert.True(t, strings.HasSuffix(key, "/3"))
}

func TestCollect(t *testing.T) {
	g := demoGraph()
	doc := Collect(g)
	gid := GraphID("demo")

	assert.Equal(t, gid.String(), doc.GraphID)
	assert.Equal(t, "demo", doc.Name)
	require.Len(t, doc.Records, 3)

	lit, ok := doc.Record(0)
	require.True(t, ok)
	assert.Equal(t, usagegraph.KindConstRef, lit.Kind)
	assert.Equal(t, "1", lit.Properties["value"])
	assert.Equal(t, "int", lit.Properties["type"])
	assert.Equal(t, "2", lit.Properties["instance"])
	assert.Equal(t, Relationship{TargetKind: "definition", Targets: []string{NodeKey(gid, 1)}}, lit.Relationships[RelTemporal])

	def, ok := doc.Record(1)
	require.True(t, ok)
	assert.Equal(t, "x", def.Properties["symbol"])
	assert.Equal(t, "definition", def.Properties["action_type"])
	assert.Equal(t, Relationship{TargetKind: "const_ref", Targets: []string{NodeKey(gid, 0)}}, def.Relationships[RelParentOf])
	assert.Equal(t, []string{NodeKey(gid, 2)}, def.Relationships[RelTemporal].Targets)
	assert.Equal(t, []string{NodeKey(gid, 2)}, def.Relationships[RelDataRead].Targets)
	assert.Equal(t, "variable_reference", def.Relationships[RelDataRead].TargetKind)
	assert.NotContains(t, def.Relationships, RelDataRedefinition)

	ref, ok := doc.Record(2)
	require.True(t, ok)
	assert.Equal(t, "1", ref.Properties["instance"])
	assert.Nil(t, ref.Relationships, "sink without children has no relationships")

	_, ok = doc.Record(3)
	assert.False(t, ok)
}

func TestCollect_ControlParent(t *testing.T) {
	g := usagegraph.New("ctl")
	c := g.NewControl(usagegraph.ControlWhileLoop, nil)
	call := g.NewFunctionCall(&resolved.Symbol{Name: "tick", Kind: resolved.SymbolKindFunction}, nil)
	call.SetControlParent(c)

	doc := Collect(g)
	ctl, _ := doc.Record(0)
	assert.Equal(t, "whileLoop", ctl.Properties["control_type"])
	assert.Equal(t, "true", ctl.Properties["conditional"])

	rec, _ := doc.Record(1)
	assert.Equal(t, "tick", rec.Properties["function"])
	assert.Equal(t, Relationship{TargetKind: "control", Targets: []string{NodeKey(GraphID("ctl"), 0)}}, rec.Relationships[RelControlParent])
}

func TestCollect_TargetKinds(t *testing.T) {
	g := usagegraph.New("kinds")
	loop := g.NewControl(usagegraph.ControlWhileLoop, nil)
	inner := g.NewControl(usagegraph.ControlIfStmt, nil)
	block := g.NewControl(usagegraph.ControlBlock, nil)
	loop.AddChild(inner)
	loop.AddChild(block)
	x := &resolved.Symbol{Name: "x"}
	def := g.NewDefinition(x, 1, nil)
	ref := g.NewVariableReference(x, nil)
	g.AddEdge(loop, def, usagegraph.EdgeTemporal)
	g.AddEdge(loop, ref, usagegraph.EdgeTemporal)

	doc := Collect(g)
	rec, ok := doc.Record(loop.ID())
	require.True(t, ok)
	assert.Equal(t, "control", rec.Relationships[RelParentOf].TargetKind, "every child is a control node")
	assert.Equal(t, MixedTargets, rec.Relationships[RelTemporal].TargetKind)
	assert.Len(t, rec.Relationships[RelTemporal].Targets, 2)
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, Collect(demoGraph())))

	var got map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, "demo", got["name"])
	assert.Len(t, got["records"], 3)
}

func TestMsgpackRoundTrip(t *testing.T) {
	doc := Collect(demoGraph())

	var buf bytes.Buffer
	require.NoError(t, WriteMsgpack(&buf, doc))
	got, err := ReadMsgpack(&buf)
	require.NoError(t, err)
	assert.Equal(t, doc, got)

	_, err = ReadMsgpack(strings.NewReader("not msgpack"))
	assert.Error(t, err)
}

func TestWriteDOT(t *testing.T) {
	tests := []struct {
		name      string
		invisible bool
		want      []string
	}{
		{
			name: "visible",
			want: []string{
				"digraph G {",
				"subgraph cluster_a1 {",
				"a0 [label=",
				"a1 -> a2 [label=temporal, style=solid];",
				"a1 -> a2 [label=data_dependency_read, style=solid];",
			},
		},
		{
			name:      "invisible temporal",
			invisible: true,
			want: []string{
				"a0 -> a1 [label=temporal, style=invis];",
				"a1 -> a2 [label=data_dependency_read, style=solid];",
			},
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, WriteDOT(&buf, demoGraph(), DOTOptions{InvisibleTemporalEdges: tc.invisible}))
			out := buf.String()
			for _, w := range tc.want {
				assert.Contains(t, out, w)
			}
			assert.True(t, strings.HasSuffix(out, "}\n"))
		})
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{in: "json", want: FormatJSON},
		{in: "MSGPACK", want: FormatMsgpack},
		{in: "dot", want: FormatDOT},
		{in: "svg", wantErr: true},
	}
	for _, tc := range tests {
		t.Run(tc.in, func(t *testing.T) {
			got, err := ParseFormat(tc.in)
			if tc.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestWrite_BuiltProgram(t *testing.T) {
	src := `
name: export
file: export.dng
types:
  - {name: int}
symbols:
  - {name: x, type: int}
  - {name: print, kind: function}
stmts:
  - {line: 1, var: {symbol: x, init: {lit: 4, type: int}}}
  - {line: 2, expr: {call: print, args: [{ident: x}]}}
`
	prog, table, err := resolved.Load(strings.NewReader(src))
	require.NoError(t, err)
	g, err := builder.New().Build(prog, table)
	require.NoError(t, err)

	doc := Collect(g)
	require.Len(t, doc.Records, g.Len())
	for i, r := range doc.Records {
		assert.Equal(t, i, r.ID)
		assert.Equal(t, "export.dng", r.Properties["file"])
		assert.NotEmpty(t, r.Properties["processed"])
	}

	for _, f := range Formats() {
		var buf bytes.Buffer
		require.NoError(t, Write(&buf, g, f, DOTOptions{}))
		assert.NotZero(t, buf.Len(), f)
	}
	assert.Error(t, Write(&bytes.Buffer{}, g, Format("svg"), DOTOptions{}))
}
