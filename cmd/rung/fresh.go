package main

import (
	"github.com/spf13/cobra"
)

func newFreshCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "fresh",
		Short: "Drop every table and re-apply all migrations from scratch",
		Long: `Drop every table in the schema (the migration ledger excepted), then
apply the full forward plan as a new first batch. Fresh never consults
backward sequences, so it also works when migrations are irreversible.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			manager, err := newManager()
			if err != nil {
				return err
			}

			result, err := manager.Fresh(cmd.Context())
			printResult(result)
			return err
		},
	}
}
