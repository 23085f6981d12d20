// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"codeberg.org/oliverandrich/unigo/internal/database"
	"github.com/urfave/cli/v3"
)

type migrateFunc func(db *sql.DB, dialect database.Dialect) error

func migrateCommand() *cli.Command {
	return &cli.Command{
		Name:  "migrate",
		Usage: "Manage the database schema",
		Commands: []*cli.Command{
			{
				Name:   "up",
				Usage:  "Apply all pending migrations",
				Action: migrateAction(database.RunMigrations),
			},
			{
				Name:   "down",
				Usage:  "Roll back the last migration",
				Action: migrateAction(database.MigrateDown),
			},
			{
				Name:   "reset",
				Usage:  "Roll back all migrations",
				Action: migrateAction(database.MigrateReset),
			},
			{
				Name:   "version",
				Usage:  "Print the current schema version",
				Action: migrateAction(nil),
			},
		},
	}
}

// migrateAction connects to the configured database without migrating it,
// runs step and logs the resulting schema version.
func migrateAction(step migrateFunc) cli.ActionFunc {
	return func(_ context.Context, cmd *cli.Command) error {
		dsn := cmd.String("database-dsn")
		dialect := database.DialectFor(dsn)

		db, err := database.Connect(dsn)
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		defer func() {
			_ = db.Close()
		}()

		if step != nil {
			if err := step(db.DB, dialect); err != nil {
				return err
			}
		}

		version, err := database.MigrationVersion(db.DB, dialect)
		if err != nil {
			return err
		}
		slog.Info("schema version", "version", version)
		return nil
	}
}
