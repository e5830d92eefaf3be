package main

import (
	"fmt"
	goruntime "runtime"

	"github.com/spf13/cobra"
)

// Version information (set at build time).
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "ruled %s (commit %s, built %s, %s)\n",
				Version, GitCommit, BuildDate, goruntime.Version())
		},
	}
}
