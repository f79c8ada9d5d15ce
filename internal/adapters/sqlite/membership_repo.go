package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/example/kanban/internal/db"
	"github.com/example/kanban/internal/ports/secondary"
)

// MembershipRepository implements secondary.MembershipRepository with SQLite.
type MembershipRepository struct {
	db db.DBTX
}

// NewMembershipRepository creates a new SQLite membership repository.
func NewMembershipRepository(db db.DBTX) *MembershipRepository {
	return &MembershipRepository{db: db}
}

const membershipSelectCols = "workspace_id, user_id, role, created_at"

func scanMembership(scanner rowScanner) (*secondary.MembershipRecord, error) {
	var createdAt string
	record := &secondary.MembershipRecord{}
	if err := scanner.Scan(&record.WorkspaceID, &record.UserID, &record.Role, &createdAt); err != nil {
		return nil, err
	}
	record.CreatedAt = db.ParseTime(createdAt)
	return record, nil
}

// Create persists a membership.
func (r *MembershipRepository) Create(ctx context.Context, m *secondary.MembershipRecord) error {
	_, err := r.db.ExecContext(ctx,
		"INSERT INTO memberships (workspace_id, user_id, role, created_at) VALUES (?, ?, ?, ?)",
		m.WorkspaceID, m.UserID, m.Role, ts(m.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to create membership: %w", err)
	}
	return nil
}

// Get retrieves a single membership.
func (r *MembershipRepository) Get(ctx context.Context, workspaceID, userID string) (*secondary.MembershipRecord, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+membershipSelectCols+" FROM memberships WHERE workspace_id = ? AND user_id = ?",
		workspaceID, userID,
	)
	record, err := scanMembership(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound("membership", workspaceID+"/"+userID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get membership: %w", err)
	}
	return record, nil
}

// ListByWorkspace returns members ordered by join time.
func (r *MembershipRepository) ListByWorkspace(ctx context.Context, workspaceID string) ([]*secondary.MembershipRecord, error) {
	return r.query(ctx,
		"SELECT "+membershipSelectCols+" FROM memberships WHERE workspace_id = ? ORDER BY created_at ASC, user_id ASC",
		workspaceID,
	)
}

// ListByUser returns a user's memberships.
func (r *MembershipRepository) ListByUser(ctx context.Context, userID string) ([]*secondary.MembershipRecord, error) {
	return r.query(ctx,
		"SELECT "+membershipSelectCols+" FROM memberships WHERE user_id = ? ORDER BY created_at ASC",
		userID,
	)
}

func (r *MembershipRepository) query(ctx context.Context, query string, args ...any) ([]*secondary.MembershipRecord, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list memberships: %w", err)
	}
	defer rows.Close()

	var members []*secondary.MembershipRecord
	for rows.Next() {
		record, err := scanMembership(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan membership: %w", err)
		}
		members = append(members, record)
	}
	return members, rows.Err()
}

// UpdateRole changes a member's role.
func (r *MembershipRepository) UpdateRole(ctx context.Context, workspaceID, userID, role string) error {
	result, err := r.db.ExecContext(ctx,
		"UPDATE memberships SET role = ? WHERE workspace_id = ? AND user_id = ?",
		role, workspaceID, userID,
	)
	if err != nil {
		return fmt.Errorf("failed to update membership: %w", err)
	}
	return expectOne(result, "membership", workspaceID+"/"+userID)
}

// Delete removes a membership.
func (r *MembershipRepository) Delete(ctx context.Context, workspaceID, userID string) error {
	result, err := r.db.ExecContext(ctx,
		"DELETE FROM memberships WHERE workspace_id = ? AND user_id = ?",
		workspaceID, userID,
	)
	if err != nil {
		return fmt.Errorf("failed to delete membership: %w", err)
	}
	return expectOne(result, "membership", workspaceID+"/"+userID)
}

// CountOwners counts the owners of a workspace.
func (r *MembershipRepository) CountOwners(ctx context.Context, workspaceID string) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM memberships WHERE workspace_id = ? AND role = 'owner'",
		workspaceID,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count owners: %w", err)
	}
	return n, nil
}

func expectOne(result sql.Result, entity, id string) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return notFound(entity, id)
	}
	return nil
}

var _ secondary.MembershipRepository = (*MembershipRepository)(nil)
