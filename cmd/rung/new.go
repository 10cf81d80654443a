package main

import (
	"fmt"
	"time"

	"github.com/openrung/rung"
	"github.com/spf13/cobra"
)

func newNewCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "new <name>",
		Short: "Scaffold a migration file in the migrations directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}

			name := fmt.Sprintf("%s_%s", time.Now().Format("20060102150405"), args[0])
			migration := &rung.Migration{
				Name:        name,
				Description: "TODO describe the change",
				Forward: []rung.Operation{
					rung.RawSQL("-- forward SQL here"),
				},
				Backward: []rung.Operation{
					rung.RawSQL("-- backward SQL here"),
				},
			}

			source := rung.NewDirSource(cfg.MigrationsDir)
			if err := source.WriteMigration(migration); err != nil {
				return err
			}

			fmt.Printf("Created %s/%s.json\n", cfg.MigrationsDir, name)
			return nil
		},
	}
}
