package commands

import (
	"github.com/spf13/cobra"
)

// RootCmd represents the base command when called without any subcommands
var RootCmd = &cobra.Command{
	Use:   "ugraph",
	Short: "ugraph - Usage graphs for resolved programs",
	Long: `ugraph builds usage graphs: the temporal order of a program's actions and the
data dependencies between the value versions they touch.

Programs are read as resolved YAML descriptions (symbols, types and statements).

Commands:
  build       Build a graph and print its summary
  export      Export a graph as JSON, msgpack or DOT
  slice       Backward or forward dependence slice from a line
  unresolved  List reads no definition reaches
  init        Create a configuration file interactively
  doctor      Check configuration and graph construction

Use "ugraph [command] --help" for more information about a command.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately
func Execute() error {
	return RootCmd.Execute()
}

func init() {
	RootCmd.PersistentFlags().String("config", "", "Config file path (default: layered ~/.ugraph and ./.ugraph)")
	RootCmd.PersistentFlags().BoolP("verbose", "v", false, "Verbose logging")
	RootCmd.PersistentFlags().Bool("strict", false, "Fail on rejected containment links")
	RootCmd.PersistentFlags().Bool("no-global-fallback", false, "Do not resolve reads against file-level definitions")
}
