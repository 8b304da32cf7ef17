package main

import (
	"errors"

	"github.com/spf13/cobra"
)

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		Long: `Apply all pending *.up.sql migrations. Files come from DB_MIGRATIONS_PATH when
set, otherwise from the migrations embedded in the binary. Already applied files
whose checksum changed abort the run.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if cfg.Database.Driver != "postgres" {
				return errors.New("migrate requires DB_DRIVER=postgres")
			}

			db, _, err := openStore(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer func() { _ = db.Close() }()

			return runMigrations(cmd.Context(), db, &cfg.Database)
		},
	}
}
