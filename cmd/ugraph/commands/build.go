package commands

import (
	"fmt"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/l3aro/go-usage-graph/pkg/analysis"
	"github.com/l3aro/go-usage-graph/pkg/export"
	"github.com/l3aro/go-usage-graph/pkg/usagegraph"
)

var buildCmd = &cobra.Command{
	Use:   "build <program.yaml> [--tree] [--json]",
	Short: "Build the usage graph of a program and print a summary",
	Long: `Builds the usage graph of a resolved program and reports node and edge counts.
With --tree the containment forest is printed as well.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		_, g, _, err := prepare(cmd, args[0])
		if err != nil {
			return err
		}

		stats := analysis.Summarize(g)
		jsonOutput, _ := cmd.Flags().GetBool("json")
		if jsonOutput {
			return printJSON(struct {
				GraphID string         `json:"graph_id"`
				Name    string         `json:"name"`
				Stats   analysis.Stats `json:"stats"`
			}{
				GraphID: export.GraphID(g.Name()).String(),
				Name:    g.Name(),
				Stats:   stats,
			})
		}

		printSummary(g, stats)
		if tree, _ := cmd.Flags().GetBool("tree"); tree {
			fmt.Println("\nContainment:")
			for _, root := range g.Roots() {
				printTree(root, 1)
			}
		}
		return nil
	},
}

func printSummary(g *usagegraph.Graph, stats analysis.Stats) {
	fmt.Printf("=== Usage graph: %s (%s) ===\n", g.Name(), export.GraphID(g.Name()))

	fmt.Printf("\nNodes (%d):\n", g.Len())
	kinds := make([]string, 0, len(stats.Nodes))
	for k := range stats.Nodes {
		kinds = append(kinds, string(k))
	}
	slices.Sort(kinds)
	for _, k := range kinds {
		fmt.Printf("  %-24s %d\n", k, stats.Nodes[usagegraph.NodeKind(k)])
	}

	fmt.Printf("\nEdges (%d):\n", g.EdgeCount())
	edges := make([]string, 0, len(stats.Edges))
	for k := range stats.Edges {
		edges = append(edges, string(k))
	}
	slices.Sort(edges)
	for _, k := range edges {
		fmt.Printf("  %-30s %d\n", k, stats.Edges[usagegraph.EdgeKind(k)])
	}
}

func printTree(n usagegraph.Node, depth int) {
	fmt.Printf("%s%s\n", strings.Repeat("  ", depth), n.Label())
	for _, c := range n.Children() {
		printTree(c, depth+1)
	}
}

func init() {
	buildCmd.Flags().Bool("tree", false, "Print the containment forest")
	buildCmd.Flags().BoolP("json", "j", false, "Output as JSON")
	RootCmd.AddCommand(buildCmd)
}
