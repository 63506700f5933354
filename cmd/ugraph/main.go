// Package main implements the usage graph CLI (ugraph).
// It builds usage graphs from resolved program descriptions and exports or
// queries them.
package main

import (
	"os"

	"github.com/l3aro/go-usage-graph/cmd/ugraph/commands"
)

var version = "dev"

func main() {
	commands.RootCmd.Version = version
	commands.RootCmd.SetVersionTemplate(`ugraph version {{.Version}}
`)

	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
