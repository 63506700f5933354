// Package commands provides the CLI commands for the ugraph tool.
package commands

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/l3aro/go-usage-graph/internal/config"
	"github.com/l3aro/go-usage-graph/internal/log"
	"github.com/l3aro/go-usage-graph/pkg/builder"
	"github.com/l3aro/go-usage-graph/pkg/resolved"
	"github.com/l3aro/go-usage-graph/pkg/usagegraph"
)

// loadConfig reads the config file given with --config, or the layered
// default files, and applies the persistent command-line overrides.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if path, _ := cmd.Flags().GetString("config"); path != "" {
		cfg, err = config.LoadFromFile(path)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	if v, _ := cmd.Flags().GetBool("verbose"); v {
		cfg.Verbose = true
	}
	if v, _ := cmd.Flags().GetBool("strict"); v {
		cfg.StrictStructure = true
	}
	if v, _ := cmd.Flags().GetBool("no-global-fallback"); v {
		cfg.GlobalFallback = false
	}
	return cfg, nil
}

func newLogger(cfg *config.Config, prefix string) log.Logger {
	return log.New(log.LoggerConfig{
		Level:      log.ParseLevel(cfg.EffectiveLogLevel()),
		JSONOutput: cfg.JSONLog,
		Output:     os.Stderr,
		Prefix:     prefix,
	})
}

// buildGraph loads the program at path and builds its usage graph.
func buildGraph(cfg *config.Config, logger log.Logger, path string) (*usagegraph.Graph, *resolved.SymbolTable, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, nil, fmt.Errorf("stat file: %w", err)
	}
	if info.IsDir() {
		return nil, nil, fmt.Errorf("path is a directory, expected a file: %s", path)
	}

	prog, table, err := resolved.LoadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("loading program: %w", err)
	}

	b := builder.New(
		builder.WithLogger(logger),
		builder.WithStrictStructure(cfg.StrictStructure),
		builder.WithGlobalFallback(cfg.GlobalFallback),
	)
	g, err := b.Build(prog, table)
	if err != nil {
		return nil, nil, fmt.Errorf("building graph: %w", err)
	}
	return g, table, nil
}

// prepare is the common prologue of the graph commands.
func prepare(cmd *cobra.Command, path string) (*config.Config, *usagegraph.Graph, *resolved.SymbolTable, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, nil, nil, err
	}
	g, table, err := buildGraph(cfg, newLogger(cfg, cmd.Name()), path)
	if err != nil {
		return nil, nil, nil, err
	}
	return cfg, g, table, nil
}

func printJSON(v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling JSON: %w", err)
	}
	fmt.Println(string(data))
	return nil
}
