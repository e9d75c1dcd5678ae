// Command nmlc compiles nml documents to HTML, answers language
// server queries over stdio, and maintains the reference cache
// database a multi-document build shares.
package main

import (
	"github.com/spf13/cobra"

	"github.com/termfx/nml/internal/config"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		config.PrintFatal(err)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "nmlc",
		Short:         "nmlc compiles nml documents.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newBuildCmd(), newCheckCmd(), newLSPCmd(), newCacheCmd())
	return root
}
