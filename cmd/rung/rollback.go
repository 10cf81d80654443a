package main

import (
	"github.com/spf13/cobra"
)

func newRollbackCmd() *cobra.Command {
	var steps int

	cmd := &cobra.Command{
		Use:   "rollback",
		Short: "Reverse the latest batch, or --steps individual migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			manager, err := newManager()
			if err != nil {
				return err
			}

			result, err := manager.Rollback(cmd.Context(), steps)
			printResult(result)
			return err
		},
	}

	cmd.Flags().IntVarP(&steps, "steps", "s", 0, "number of migrations to reverse (default: the whole latest batch)")

	return cmd
}
