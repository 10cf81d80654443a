package main

import (
	"github.com/spf13/cobra"
)

func newRefreshCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "refresh",
		Short: "Reset and re-apply every migration",
		RunE: func(cmd *cobra.Command, args []string) error {
			manager, err := newManager()
			if err != nil {
				return err
			}

			result, err := manager.Refresh(cmd.Context())
			printResult(result)
			return err
		},
	}
}
