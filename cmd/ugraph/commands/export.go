package commands

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/l3aro/go-usage-graph/pkg/export"
)

var exportCmd = &cobra.Command{
	Use:   "export <program.yaml> [--format json|msgpack|dot] [--output FILE]",
	Short: "Export the usage graph of a program",
	Long: `Builds the usage graph of a resolved program and writes it in one of the
export formats. The format defaults to export_format from the configuration.

json and msgpack write one record per node with its relationships.
dot writes a Graphviz digraph with a cluster for every node owning children.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, g, _, err := prepare(cmd, args[0])
		if err != nil {
			return err
		}

		name := cfg.ExportFormat
		if cmd.Flags().Changed("format") {
			name, _ = cmd.Flags().GetString("format")
		}
		format, err := export.ParseFormat(name)
		if err != nil {
			return err
		}

		opts := export.DOTOptions{InvisibleTemporalEdges: cfg.InvisibleTemporalEdges}
		if cmd.Flags().Changed("invisible-temporal") {
			opts.InvisibleTemporalEdges, _ = cmd.Flags().GetBool("invisible-temporal")
		}

		var w io.Writer = os.Stdout
		if out, _ := cmd.Flags().GetString("output"); out != "" {
			f, err := os.Create(out)
			if err != nil {
				return fmt.Errorf("creating output file: %w", err)
			}
			defer f.Close()
			w = f
		}

		return export.Write(w, g, format, opts)
	},
}

func init() {
	exportCmd.Flags().StringP("format", "f", "json", "Output format (json, msgpack or dot)")
	exportCmd.Flags().StringP("output", "o", "", "Output file (default: stdout)")
	exportCmd.Flags().Bool("invisible-temporal", false, "Hide temporal edges in DOT output")
	RootCmd.AddCommand(exportCmd)
}
