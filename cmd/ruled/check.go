package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kochabx/ratelimit/core/rule"
)

func newCheckCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "check <policy> <key>...",
		Short: "Evaluate a policy for one or more keys",
		Long: `Evaluate a policy once for each key and print one line per key.

Counters are consumed exactly as a served request would consume them.`,
		Example: `  ruled check --config ruled.yaml api 203.0.113.7
  ruled check api alice bob carol`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := newRuntime(cmd.Context(), opts.configFile)
			if err != nil {
				return err
			}
			defer func() { _ = rt.close(cmd.Context()) }()

			policy := args[0]
			ids := make([]rule.Identifier, 0, len(args)-1)
			for _, k := range args[1:] {
				ids = append(ids, rule.Key(k))
			}

			decisions, err := rt.engine.CheckBatch(cmd.Context(), policy, ids)
			if decisions == nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, d := range decisions {
				switch {
				case d.Err != nil:
					_, _ = fmt.Fprintf(out, "%s\terror: %v\n", d.Key, d.Err)
				case d.Allowed:
					_, _ = fmt.Fprintf(out, "%s\tallowed\n", d.Key)
				default:
					_, _ = fmt.Fprintf(out, "%s\tdenied\n", d.Key)
				}
			}
			return err
		},
	}
}
