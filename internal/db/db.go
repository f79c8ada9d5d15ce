// Package db opens the SQLite database, owns the authoritative schema and
// provides the transaction boundary used by the repositories.
package db

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
)

// MemoryPath opens a private in-memory database.
const MemoryPath = ":memory:"

// Options tunes the connection.
type Options struct {
	// BusyTimeoutMS is how long a writer waits for the lock before failing.
	BusyTimeoutMS int
	// SkipMigrations leaves the schema untouched (used by `kanban migrate`).
	SkipMigrations bool
}

// DSN builds the go-sqlite3 connection string for path.
// Transactions take the write lock up front (BEGIN IMMEDIATE) so that a
// guarded read-then-write inside WithinTx cannot interleave with another writer.
func DSN(path string, opts Options) string {
	params := url.Values{}
	params.Set("_foreign_keys", "on")
	params.Set("_txlock", "immediate")
	if opts.BusyTimeoutMS > 0 {
		params.Set("_busy_timeout", fmt.Sprintf("%d", opts.BusyTimeoutMS))
	}
	if path == MemoryPath {
		return "file::memory:?" + params.Encode()
	}
	params.Set("_journal_mode", "WAL")
	return "file:" + path + "?" + params.Encode()
}

// Open opens the database at path, creating its directory if needed, and
// brings the schema up to date.
func Open(ctx context.Context, path string, opts Options) (*sql.DB, error) {
	if path != MemoryPath {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	database, err := sql.Open("sqlite3", DSN(path, opts))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Every connection to :memory: is a separate database.
	if path == MemoryPath {
		database.SetMaxOpenConns(1)
	}

	if err := database.PingContext(ctx); err != nil {
		database.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if !opts.SkipMigrations {
		if _, err := RunMigrations(ctx, database); err != nil {
			database.Close()
			return nil, fmt.Errorf("failed to initialize schema: %w", err)
		}
	}

	return database, nil
}
