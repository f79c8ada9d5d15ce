// Package sqlite_test contains integration tests for SQLite repositories.
//
// # Schema Protection
//
// This file is the SINGLE POINT where the database schema is loaded for tests.
// All test setup functions use db.GetSchemaSQL() to ensure tests run against
// the authoritative schema, preventing drift between test and production.
//
// DO NOT hardcode CREATE TABLE statements in test files. Instead, use
// setupTestDB() and the seed* helpers.
package sqlite_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/example/kanban/internal/adapters/sqlite"
	"github.com/example/kanban/internal/db"
	"github.com/example/kanban/internal/ports/secondary"
)

var testNow = time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

// setupTestDB creates an in-memory database with the authoritative schema.
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	testDB, err := sql.Open("sqlite3", db.DSN(db.MemoryPath, db.Options{}))
	require.NoError(t, err, "failed to open test db")
	testDB.SetMaxOpenConns(1)

	_, err = testDB.Exec(db.GetSchemaSQL())
	require.NoError(t, err, "failed to create schema")

	t.Cleanup(func() {
		testDB.Close()
	})

	return testDB
}

// setupStore wraps a fresh test database in a Store.
func setupStore(t *testing.T) (*sqlite.Store, *sql.DB) {
	t.Helper()
	testDB := setupTestDB(t)
	return sqlite.NewStore(db.NewSQLiteUnitOfWork(testDB), func() time.Time { return testNow }), testDB
}

// seedWorkspace inserts a workspace and returns its ID.
func seedWorkspace(t *testing.T, conn *sql.DB, id, prefix string) string {
	t.Helper()
	if id == "" {
		id = "ws-1"
	}
	if prefix == "" {
		prefix = "WS"
	}
	err := sqlite.NewWorkspaceRepository(conn).Create(context.Background(), &secondary.WorkspaceRecord{
		ID: id, Name: "Workspace " + id, Prefix: prefix, CreatedAt: testNow, UpdatedAt: testNow,
	})
	require.NoError(t, err, "failed to seed workspace")
	return id
}

// seedTicket inserts an unclaimed ticket and returns its ID.
func seedTicket(t *testing.T, conn *sql.DB, workspaceID, id, parentID string, number int) string {
	t.Helper()
	err := sqlite.NewTicketRepository(conn).Create(context.Background(), &secondary.TicketRecord{
		ID:          id,
		WorkspaceID: workspaceID,
		Number:      number,
		Title:       "Ticket " + id,
		ParentID:    parentID,
		Order:       float64(number) * 1024,
		Status:      "unclaimed",
		CreatedAt:   testNow,
		UpdatedAt:   testNow,
	})
	require.NoError(t, err, "failed to seed ticket")
	return id
}

// seedDoc inserts a feature doc and returns its ID.
func seedDoc(t *testing.T, conn *sql.DB, workspaceID, id, parentID string, number int) string {
	t.Helper()
	err := sqlite.NewDocRepository(conn).Create(context.Background(), &secondary.DocRecord{
		ID:          id,
		WorkspaceID: workspaceID,
		Number:      number,
		Title:       "Doc " + id,
		Status:      "unclaimed",
		Order:       float64(number) * 1024,
		ParentID:    parentID,
		CreatedAt:   testNow,
		UpdatedAt:   testNow,
	})
	require.NoError(t, err, "failed to seed doc")
	return id
}
