package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/l3aro/go-usage-graph/pkg/analysis"
)

type unresolvedRead struct {
	Node  int    `json:"node"`
	Type  string `json:"type"`
	Label string `json:"label"`
	Line  int    `json:"line,omitempty"`
}

var unresolvedCmd = &cobra.Command{
	Use:   "unresolved <program.yaml> [--json]",
	Short: "List reads that no definition reaches",
	Long: `Builds the usage graph of a resolved program and lists every read whose
referenced instance could not be determined, such as uses of undeclared names or
reads before any definition.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		_, g, _, err := prepare(cmd, args[0])
		if err != nil {
			return err
		}

		reads := analysis.UnresolvedReads(g)
		out := make([]unresolvedRead, 0, len(reads))
		for _, a := range reads {
			r := unresolvedRead{Node: int(a.ID()), Type: a.ActionType().String(), Label: a.Label()}
			if ast, ok := a.ASTNode(); ok {
				r.Line = ast.Position().Line
			}
			out = append(out, r)
		}

		jsonOutput, _ := cmd.Flags().GetBool("json")
		if jsonOutput {
			return printJSON(out)
		}

		if len(out) == 0 {
			fmt.Println("All reads resolved.")
			return nil
		}
		fmt.Printf("Unresolved reads (%d):\n", len(out))
		for _, r := range out {
			fmt.Printf("  line %d: %s\n", r.Line, r.Label)
		}
		return nil
	},
}

func init() {
	unresolvedCmd.Flags().BoolP("json", "j", false, "Output as JSON")
	RootCmd.AddCommand(unresolvedCmd)
}
