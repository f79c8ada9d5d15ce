package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// Seed fixture identifiers, stable so that docs and scripts can refer to them.
const (
	SeedWorkspaceID = "00000000-0000-4000-8000-000000000001"
	SeedOwnerID     = "dev-user"
)

// SeedFixtures populates an empty database with a small demo workspace: an
// owner membership, one feature doc and a parent ticket with two children.
func SeedFixtures(ctx context.Context, database *sql.DB, at time.Time) error {
	now := FormatTime(at)

	if _, err := database.ExecContext(ctx,
		"INSERT INTO workspaces (id, name, prefix, ticket_counter, doc_counter, created_at, updated_at) VALUES (?, ?, ?, 3, 1, ?, ?)",
		SeedWorkspaceID, "Demo Board", "DB", now, now,
	); err != nil {
		return fmt.Errorf("seed workspaces: %w", err)
	}

	if _, err := database.ExecContext(ctx,
		"INSERT INTO memberships (workspace_id, user_id, role, created_at) VALUES (?, ?, 'owner', ?)",
		SeedWorkspaceID, SeedOwnerID, now,
	); err != nil {
		return fmt.Errorf("seed memberships: %w", err)
	}

	if _, err := database.ExecContext(ctx,
		"INSERT INTO user_profiles (id, email, display_name, updated_at) VALUES (?, ?, ?, ?)",
		SeedOwnerID, "dev@example.com", "Dev User", now,
	); err != nil {
		return fmt.Errorf("seed user_profiles: %w", err)
	}

	docID := "00000000-0000-4000-8000-0000000000d1"
	if _, err := database.ExecContext(ctx,
		"INSERT INTO feature_docs (id, workspace_id, number, title, content, order_key, created_at, updated_at) VALUES (?, ?, 1, ?, ?, 1024, ?, ?)",
		docID, SeedWorkspaceID, "Onboarding", "# Onboarding\n\nFirst steps on the board.", now, now,
	); err != nil {
		return fmt.Errorf("seed feature_docs: %w", err)
	}

	tickets := []struct {
		id, parentID, title, status string
		number                      int
		order                       float64
		childCount, childDone       int
	}{
		{"00000000-0000-4000-8000-0000000000a1", "", "Set up the board", "in_progress", 1, 1024, 2, 1},
		{"00000000-0000-4000-8000-0000000000a2", "00000000-0000-4000-8000-0000000000a1", "Invite the team", "done", 2, 1024, 0, 0},
		{"00000000-0000-4000-8000-0000000000a3", "00000000-0000-4000-8000-0000000000a1", "Create an agent key", "unclaimed", 3, 2048, 0, 0},
	}
	for _, t := range tickets {
		var parentID, ownerID, ownerType, ownerName sql.NullString
		if t.parentID != "" {
			parentID = sql.NullString{String: t.parentID, Valid: true}
		}
		if t.status != "unclaimed" {
			ownerID = sql.NullString{String: SeedOwnerID, Valid: true}
			ownerType = sql.NullString{String: "user", Valid: true}
			ownerName = sql.NullString{String: "Dev User", Valid: true}
		}
		if _, err := database.ExecContext(ctx,
			`INSERT INTO tickets (id, workspace_id, number, title, doc_id, parent_id, order_key, status,
				owner_id, owner_type, owner_display_name, child_count, child_done_count, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			t.id, SeedWorkspaceID, t.number, t.title, docID, parentID, t.order, t.status,
			ownerID, ownerType, ownerName, t.childCount, t.childDone, now, now,
		); err != nil {
			return fmt.Errorf("seed tickets: %w", err)
		}
	}

	return nil
}
