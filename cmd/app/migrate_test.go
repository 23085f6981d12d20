// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package main

import (
	"context"
	"testing"

	"codeberg.org/oliverandrich/unigo/internal/config"
	"codeberg.org/oliverandrich/unigo/internal/database"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v3"
)

func runMigrate(t *testing.T, dsn string, args ...string) {
	t.Helper()
	cmd := &cli.Command{
		Name:     "unigo",
		Flags:    config.Flags(),
		Commands: []*cli.Command{migrateCommand()},
	}
	argv := append([]string{"unigo", "--database-dsn", dsn, "migrate"}, args...)
	require.NoError(t, cmd.Run(context.Background(), argv))
}

func schemaVersion(t *testing.T, dsn string) int64 {
	t.Helper()
	db, err := database.Connect(dsn)
	require.NoError(t, err)
	defer func() {
		_ = db.Close()
	}()

	version, err := database.MigrationVersion(db.DB, database.DialectFor(dsn))
	require.NoError(t, err)
	return version
}

func TestMigrate_DownSteps(t *testing.T) {
	dsn := t.TempDir() + "/migrate.db"

	runMigrate(t, dsn, "up")
	assert.Equal(t, int64(2), schemaVersion(t, dsn))

	runMigrate(t, dsn, "down")
	assert.Equal(t, int64(1), schemaVersion(t, dsn))

	runMigrate(t, dsn, "down")
	assert.Equal(t, int64(0), schemaVersion(t, dsn))
}

func TestMigrate_VersionDoesNotMigrate(t *testing.T) {
	dsn := t.TempDir() + "/migrate.db"

	runMigrate(t, dsn, "version")

	assert.Equal(t, int64(0), schemaVersion(t, dsn))
}

func TestMigrate_Reset(t *testing.T) {
	dsn := t.TempDir() + "/migrate.db"

	runMigrate(t, dsn, "up")
	runMigrate(t, dsn, "reset")

	assert.Equal(t, int64(0), schemaVersion(t, dsn))
}
