package main

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/stdlib"
	"github.com/spf13/cobra"

	postgres "github.com/climbing-section/backoffice/internal/adapters/postgres"
	"github.com/climbing-section/backoffice/internal/platform/config"
)

var errNotPostgres = errors.New("migrations require STORAGE_BACKEND=postgres")

func newMigrateCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the Postgres schema",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Apply pending migrations",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return withDB(cmd, opts, func(db *sql.DB) error {
					if err := postgres.Migrate(cmd.Context(), db); err != nil {
						return err
					}
					fmt.Fprintln(cmd.OutOrStdout(), "migrations applied")
					return nil
				})
			},
		},
		&cobra.Command{
			Use:   "status",
			Short: "Print the state of every migration",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return withDB(cmd, opts, func(db *sql.DB) error {
					return postgres.MigrationStatus(cmd.Context(), db)
				})
			},
		},
	)
	return cmd
}

func withDB(cmd *cobra.Command, opts *rootOptions, fn func(db *sql.DB) error) error {
	cfg, err := opts.loadConfig()
	if err != nil {
		return err
	}
	if cfg.Storage.Backend != config.BackendPostgres {
		return errNotPostgres
	}
	pool, err := postgres.NewPool(cmd.Context(), cfg.Storage.DatabaseURL, postgres.PoolOptions{MaxConns: 2})
	if err != nil {
		return err
	}
	defer pool.Close()

	db := stdlib.OpenDBFromPool(pool)
	defer db.Close()
	return fn(db)
}
