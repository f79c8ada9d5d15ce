package db

import (
	"context"
	"database/sql"
	"fmt"
)

// Migration represents a database migration.
type Migration struct {
	Version int
	Name    string
	Up      func(ctx context.Context, tx *sql.Tx) error
}

// migrations is the list of all migrations in order.
var migrations = []Migration{
	{
		Version: 1,
		Name:    "create_base_schema",
		Up: func(ctx context.Context, tx *sql.Tx) error {
			_, err := tx.ExecContext(ctx, SchemaSQL)
			return err
		},
	},
}

// LatestVersion returns the highest known migration version.
func LatestVersion() int {
	return migrations[len(migrations)-1].Version
}

// CurrentVersion returns the applied schema version, 0 for an empty database.
func CurrentVersion(ctx context.Context, database *sql.DB) (int, error) {
	if err := ensureVersionTable(ctx, database); err != nil {
		return 0, err
	}
	var version int
	if err := database.QueryRowContext(ctx, "SELECT COALESCE(MAX(version), 0) FROM schema_version").Scan(&version); err != nil {
		return 0, fmt.Errorf("failed to get current schema version: %w", err)
	}
	return version, nil
}

// RunMigrations executes all pending migrations, each in its own transaction.
// It returns the migrations that were applied.
func RunMigrations(ctx context.Context, database *sql.DB) ([]Migration, error) {
	current, err := CurrentVersion(ctx, database)
	if err != nil {
		return nil, err
	}

	var applied []Migration
	for _, migration := range migrations {
		if migration.Version <= current {
			continue
		}

		tx, err := database.BeginTx(ctx, nil)
		if err != nil {
			return applied, fmt.Errorf("failed to begin transaction for migration %d: %w", migration.Version, err)
		}

		if err := migration.Up(ctx, tx); err != nil {
			_ = tx.Rollback()
			return applied, fmt.Errorf("migration %d failed: %w", migration.Version, err)
		}

		if _, err := tx.ExecContext(ctx, "INSERT INTO schema_version (version, name) VALUES (?, ?)", migration.Version, migration.Name); err != nil {
			_ = tx.Rollback()
			return applied, fmt.Errorf("failed to record migration %d: %w", migration.Version, err)
		}

		if err := tx.Commit(); err != nil {
			return applied, fmt.Errorf("failed to commit migration %d: %w", migration.Version, err)
		}
		applied = append(applied, migration)
	}

	return applied, nil
}

func ensureVersionTable(ctx context.Context, database *sql.DB) error {
	_, err := database.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_version (
			version INTEGER PRIMARY KEY,
			name TEXT NOT NULL DEFAULT '',
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create schema_version table: %w", err)
	}
	return nil
}
