package main

import (
	"github.com/spf13/cobra"
)

type rootOptions struct {
	configFile string
}

// newRootCommand 创建 ruled 根命令
func newRootCommand() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "ruled",
		Short: "ruled - composable rate limit rules",
		Long: `ruled evaluates named rate limit policies built from composable rules
(and, or, not, token_bucket, sliding_window) backed by redis counters.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVarP(&opts.configFile, "config", "c", "ruled.yaml", "config file (yaml, json or toml)")

	cmd.AddCommand(
		newServeCommand(opts),
		newCheckCommand(opts),
		newVersionCommand(),
	)
	return cmd
}
