package main

import (
	"fmt"
	"log/slog"

	"github.com/openrung/rung"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

var (
	configPath string
	verbose    bool
)

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "rung",
		Short:         "Batch-ledger schema migrations",
		Long:          "rung applies and reverses schema migrations in deterministic order,\nkeeping a durable ledger of what has been applied and in which batch.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if verbose {
				logrus.SetLevel(logrus.DebugLevel)
			}
		},
	}

	cmd.PersistentFlags().StringVarP(&configPath, "config", "c", "rung.yaml", "path to configuration file")
	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose logging")

	cmd.AddCommand(
		newMigrateCmd(),
		newRollbackCmd(),
		newResetCmd(),
		newFreshCmd(),
		newRefreshCmd(),
		newStatusCmd(),
		newNewCmd(),
	)

	return cmd
}

// newManager builds a manager from the CLI configuration: a gorm
// connection for the configured driver and a DirSource over the
// migrations directory. Library logs go through logrus via slog.
func newManager() (*rung.Manager, error) {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return nil, err
	}

	db, err := openDatabase(cfg)
	if err != nil {
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(logrus.StandardLogger().Writer(), &slog.HandlerOptions{Level: level}))

	return rung.NewManager(db,
		rung.WithSource(rung.NewDirSource(cfg.MigrationsDir)),
		rung.WithLogger(logger),
	)
}

func openDatabase(cfg Config) (*gorm.DB, error) {
	gormCfg := &gorm.Config{
		Logger: gormlogger.Discard,
	}

	switch cfg.Driver {
	case "postgres":
		return gorm.Open(postgres.Open(cfg.DSN), gormCfg)
	case "mysql":
		return gorm.Open(mysql.Open(cfg.DSN), gormCfg)
	case "sqlite", "sqlite3":
		return gorm.Open(sqlite.Open(cfg.DSN), gormCfg)
	default:
		return nil, fmt.Errorf("unsupported driver %q (postgres, mysql and sqlite are supported)", cfg.Driver)
	}
}
