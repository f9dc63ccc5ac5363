// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Keygate Contributors

package main

import (
	"strconv"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/keygate/keygate/internal/config"
	"github.com/keygate/keygate/internal/store"
)

// NewMigrateCmd creates the migrate subcommand.
func NewMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
		Long:  `Apply all pending schema migrations to the PostgreSQL database.`,
		RunE:  runMigrateUp,
	}

	cmd.PersistentFlags().String("database-url", "", "PostgreSQL connection string")

	cmd.AddCommand(&cobra.Command{
		Use:   "down",
		Short: "Roll back all migrations",
		RunE:  runMigrateDown,
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "steps <n>",
		Short: "Apply n migrations (negative n rolls back)",
		Args:  cobra.ExactArgs(1),
		RunE:  runMigrateSteps,
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Show the current migration version",
		RunE:  runMigrateVersion,
	})

	return cmd
}

func openMigrator(cmd *cobra.Command) (*store.Migrator, error) {
	cfg, err := config.Load(configFile, cmd.Flags())
	if err != nil {
		return nil, err
	}
	if cfg.DatabaseURL == "" {
		return nil, oops.Code("CONFIG_INVALID").Errorf("database_url is required (or set DATABASE_URL)")
	}
	return store.NewMigrator(cfg.DatabaseURL)
}

func runMigrateUp(cmd *cobra.Command, _ []string) error {
	m, err := openMigrator(cmd)
	if err != nil {
		return err
	}
	defer m.Close() //nolint:errcheck // close error is secondary to the migration result

	cmd.Println("Running migrations...")
	if err := m.Up(); err != nil {
		return err
	}
	cmd.Println("Migrations completed successfully")
	return nil
}

func runMigrateDown(cmd *cobra.Command, _ []string) error {
	m, err := openMigrator(cmd)
	if err != nil {
		return err
	}
	defer m.Close() //nolint:errcheck // close error is secondary to the migration result

	cmd.Println("Rolling back migrations...")
	if err := m.Down(); err != nil {
		return err
	}
	cmd.Println("Rollback completed")
	return nil
}

func runMigrateSteps(cmd *cobra.Command, args []string) error {
	n, err := strconv.Atoi(args[0])
	if err != nil {
		return oops.Code("INVALID_STEPS").With("value", args[0]).Wrap(err)
	}

	m, err := openMigrator(cmd)
	if err != nil {
		return err
	}
	defer m.Close() //nolint:errcheck // close error is secondary to the migration result

	if err := m.Steps(n); err != nil {
		return err
	}
	cmd.Printf("Applied %d step(s)\n", n)
	return nil
}

func runMigrateVersion(cmd *cobra.Command, _ []string) error {
	m, err := openMigrator(cmd)
	if err != nil {
		return err
	}
	defer m.Close() //nolint:errcheck // close error is secondary to the version query

	version, dirty, err := m.Version()
	if err != nil {
		return err
	}
	cmd.Printf("version: %d dirty: %v\n", version, dirty)
	return nil
}
