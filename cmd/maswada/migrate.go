package main

import (
	"fmt"

	"maswada-backend/infrastructure/config"
	"maswada-backend/infrastructure/persistence/sqlstore"

	"github.com/spf13/cobra"
)

func newMigrateCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending schema migrations to the SQL database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}

			var driver, dsn string
			switch cfg.Database.Driver {
			case config.DriverSQLite:
				driver, dsn = sqlstore.DriverSQLite, cfg.Database.SQLitePath
			case config.DriverPostgres:
				driver, dsn = sqlstore.DriverPostgres, cfg.Database.URL
			default:
				return fmt.Errorf("driver %q has no SQL schema to migrate", cfg.Database.Driver)
			}

			ctx := cmd.Context()
			db, dialect, err := sqlstore.Open(ctx, driver, dsn)
			if err != nil {
				return err
			}
			defer db.Close()

			applied, err := sqlstore.NewMigrator(db, dialect, opts.logger()).Migrate(ctx)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(applied) == 0 {
				fmt.Fprintln(out, "Schema is up to date")
				return nil
			}
			for _, version := range applied {
				fmt.Fprintf(out, "Applied %s\n", version)
			}
			return nil
		},
	}
}
