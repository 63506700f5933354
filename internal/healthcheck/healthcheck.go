package healthcheck

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/l3aro/go-usage-graph/internal/config"
	"github.com/l3aro/go-usage-graph/pkg/builder"
	"github.com/l3aro/go-usage-graph/pkg/export"
	"github.com/l3aro/go-usage-graph/pkg/resolved"
	"github.com/l3aro/go-usage-graph/pkg/usagegraph"
)

// Status values reported by a check.
const (
	StatusReady   = "ready"
	StatusError   = "error"
	StatusSkipped = "skipped"
)

// CheckStatus represents the outcome of a single check.
type CheckStatus struct {
	Name   string
	Status string // "ready", "error" or "skipped"
	Detail string
	Error  string
}

// HealthCheckResult contains the full health check output for display.
type HealthCheckResult struct {
	SavedPath      string
	SavedScope     string // "global" or "project"
	EffectivePath  string
	EffectiveScope string // "global" or "project"
	Config         CheckStatus
	Builder        CheckStatus
	Export         CheckStatus
}

// OK reports whether no check failed.
func (r *HealthCheckResult) OK() bool {
	for _, c := range []CheckStatus{r.Config, r.Builder, r.Export} {
		if c.Status == StatusError {
			return false
		}
	}
	return true
}

// probe is a program exercising definitions, a loop, a mutating call and a
// read after it. Building it must succeed under every valid configuration.
const probe = `
name: probe
file: probe.dng
types:
  - {name: int}
  - {name: entity, kind: aggregate}
symbols:
  - {name: hero, type: entity}
  - {name: n, type: int}
  - {name: heal, kind: member, mutating: true}
  - {name: hp, kind: member}
  - {name: print, kind: function}
stmts:
  - {line: 1, var: {symbol: hero}}
  - {line: 2, var: {symbol: n, init: {lit: 3, type: int}}}
  - line: 3
    while:
      cond: {op: ">", left: {ident: n}, right: {lit: 0, type: int}}
      body:
        - {line: 4, expr: {method: heal, receiver: {ident: hero}}}
  - {line: 5, expr: {call: print, args: [{member: hp, receiver: {ident: hero}}]}}
`

// Check performs a health check against the given config.
// savedPath is where the user saved config (may be empty outside init).
// effectivePath is the config file actually in use (considering priority).
func Check(cfg *config.Config, savedPath string, effectivePath string) (*HealthCheckResult, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is nil")
	}

	result := &HealthCheckResult{
		SavedPath:      savedPath,
		SavedScope:     scopeFromPath(savedPath),
		EffectivePath:  effectivePath,
		EffectiveScope: scopeFromPath(effectivePath),
	}

	result.Config = checkConfig(cfg)
	var g *usagegraph.Graph
	result.Builder, g = checkBuilder(cfg)
	result.Export = checkExport(cfg, g)

	return result, nil
}

// scopeFromPath determines "global" or "project" scope from a config file path.
// Returns empty string if path is empty.
func scopeFromPath(path string) string {
	if path == "" {
		return ""
	}

	home, err := os.UserHomeDir()
	if err == nil {
		globalDir := filepath.Join(home, ".ugraph")
		if strings.HasPrefix(path, globalDir) {
			return "global"
		}
	}

	return "project"
}

func checkConfig(cfg *config.Config) CheckStatus {
	st := CheckStatus{Name: "config"}
	if err := cfg.Validate(); err != nil {
		st.Status = StatusError
		st.Error = err.Error()
		return st
	}
	st.Status = StatusReady
	st.Detail = fmt.Sprintf("strict=%v global_fallback=%v", cfg.StrictStructure, cfg.GlobalFallback)
	return st
}

// checkBuilder builds the probe program with the configured options and
// verifies the result. The graph is returned for the export check.
func checkBuilder(cfg *config.Config) (CheckStatus, *usagegraph.Graph) {
	st := CheckStatus{Name: "builder"}
	fail := func(err error) (CheckStatus, *usagegraph.Graph) {
		st.Status = StatusError
		st.Error = err.Error()
		return st, nil
	}

	prog, table, err := resolved.Load(strings.NewReader(probe))
	if err != nil {
		return fail(err)
	}
	b := builder.New(
		builder.WithStrictStructure(cfg.StrictStructure),
		builder.WithGlobalFallback(cfg.GlobalFallback),
	)
	g, err := b.Build(prog, table)
	if err != nil {
		return fail(err)
	}
	if err := g.CheckForest(); err != nil {
		return fail(err)
	}
	for _, n := range g.Nodes() {
		if _, ok := n.ProcessedCounter(); !ok {
			return fail(fmt.Errorf("node %s was never processed", n.Label()))
		}
	}
	if len(g.Edges(usagegraph.EdgeDataRedefinition)) == 0 {
		return fail(fmt.Errorf("mutating call did not redefine its receiver"))
	}

	st.Status = StatusReady
	st.Detail = fmt.Sprintf("%d nodes, %d edges", g.Len(), g.EdgeCount())
	return st, g
}

func checkExport(cfg *config.Config, g *usagegraph.Graph) CheckStatus {
	st := CheckStatus{Name: "export"}
	if g == nil {
		st.Status = StatusSkipped
		return st
	}
	format, err := export.ParseFormat(cfg.ExportFormat)
	if err != nil {
		st.Status = StatusError
		st.Error = err.Error()
		return st
	}
	opts := export.DOTOptions{InvisibleTemporalEdges: cfg.InvisibleTemporalEdges}
	if err := export.Write(io.Discard, g, format, opts); err != nil {
		st.Status = StatusError
		st.Error = err.Error()
		return st
	}
	st.Status = StatusReady
	st.Detail = string(format)
	return st
}
