package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show applied and pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			manager, err := newManager()
			if err != nil {
				return err
			}

			report, err := manager.Status(cmd.Context())
			if err != nil {
				return err
			}

			applied := color.New(color.FgGreen)
			pending := color.New(color.FgYellow)

			if len(report.Applied) == 0 && len(report.Pending) == 0 {
				fmt.Println("No migrations found.")
				return nil
			}

			for _, m := range report.Applied {
				applied.Printf("  up    %-40s batch %d  %s\n", m.Name, m.Batch, m.AppliedAt.Format("2006-01-02 15:04:05"))
			}
			for _, name := range report.Pending {
				pending.Printf("  down  %s\n", name)
			}

			fmt.Printf("\n%d applied (latest batch %d), %d pending\n",
				len(report.Applied), report.LatestBatch, len(report.Pending))
			return nil
		},
	}
}
