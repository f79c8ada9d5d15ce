package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/example/kanban/internal/db"
	"github.com/example/kanban/internal/ports/secondary"
)

// TicketRepository implements secondary.TicketRepository with SQLite.
type TicketRepository struct {
	db db.DBTX
}

// NewTicketRepository creates a new SQLite ticket repository.
func NewTicketRepository(db db.DBTX) *TicketRepository {
	return &TicketRepository{db: db}
}

const ticketSelectCols = "id, workspace_id, number, title, description, doc_id, parent_id, order_key, archived, status, owner_id, owner_type, owner_display_name, child_count, child_done_count, created_at, updated_at"

// scanTicket scans a ticket row into a TicketRecord.
func scanTicket(scanner rowScanner) (*secondary.TicketRecord, error) {
	var (
		docID, parentID             sql.NullString
		ownerID, ownerType, ownerNm sql.NullString
		createdAt, updatedAt        string
	)

	record := &secondary.TicketRecord{}
	err := scanner.Scan(
		&record.ID, &record.WorkspaceID, &record.Number, &record.Title, &record.Description,
		&docID, &parentID, &record.Order, &record.Archived, &record.Status,
		&ownerID, &ownerType, &ownerNm, &record.ChildCount, &record.ChildDoneCount,
		&createdAt, &updatedAt,
	)
	if err != nil {
		return nil, err
	}

	record.DocID = docID.String
	record.ParentID = parentID.String
	record.OwnerID = ownerID.String
	record.OwnerType = ownerType.String
	record.OwnerDisplayName = ownerNm.String
	record.CreatedAt = db.ParseTime(createdAt)
	record.UpdatedAt = db.ParseTime(updatedAt)

	return record, nil
}

// Create persists a new ticket.
func (r *TicketRepository) Create(ctx context.Context, t *secondary.TicketRecord) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO tickets (id, workspace_id, number, title, description, doc_id, parent_id, order_key, archived, status,
			owner_id, owner_type, owner_display_name, child_count, child_done_count, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.WorkspaceID, t.Number, t.Title, t.Description, nullString(t.DocID), nullString(t.ParentID),
		t.Order, t.Archived, t.Status, nullString(t.OwnerID), nullString(t.OwnerType), nullString(t.OwnerDisplayName),
		t.ChildCount, t.ChildDoneCount, ts(t.CreatedAt), ts(t.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to create ticket: %w", err)
	}
	return nil
}

// GetByID retrieves a ticket by its ID.
func (r *TicketRepository) GetByID(ctx context.Context, id string) (*secondary.TicketRecord, error) {
	row := r.db.QueryRowContext(ctx, "SELECT "+ticketSelectCols+" FROM tickets WHERE id = ?", id)

	record, err := scanTicket(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound("ticket", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get ticket: %w", err)
	}
	return record, nil
}

// GetByNumber retrieves a ticket by its workspace-scoped number.
func (r *TicketRepository) GetByNumber(ctx context.Context, workspaceID string, number int) (*secondary.TicketRecord, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+ticketSelectCols+" FROM tickets WHERE workspace_id = ? AND number = ?",
		workspaceID, number,
	)

	record, err := scanTicket(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound("ticket", fmt.Sprintf("#%d", number))
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get ticket: %w", err)
	}
	return record, nil
}

// List retrieves tickets matching the given filters.
func (r *TicketRepository) List(ctx context.Context, filters secondary.TicketFilters) ([]*secondary.TicketRecord, error) {
	query := "SELECT " + ticketSelectCols + " FROM tickets WHERE workspace_id = ?"
	args := []any{filters.WorkspaceID}

	if filters.Status != "" {
		query += " AND status = ?"
		args = append(args, filters.Status)
	}

	if filters.RootOnly {
		query += " AND parent_id IS NULL"
	} else if filters.ParentID != "" {
		query += " AND parent_id = ?"
		args = append(args, filters.ParentID)
	}

	if filters.DocID != "" {
		query += " AND doc_id = ?"
		args = append(args, filters.DocID)
	}

	if filters.OwnerID != "" {
		query += " AND owner_id = ?"
		args = append(args, filters.OwnerID)
	}

	query += archivedClause(filters.Archived)
	query += " ORDER BY order_key ASC, number ASC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list tickets: %w", err)
	}
	defer rows.Close()

	var tickets []*secondary.TicketRecord
	for rows.Next() {
		record, err := scanTicket(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan ticket: %w", err)
		}
		tickets = append(tickets, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list tickets: %w", err)
	}

	return tickets, nil
}

// Update writes every mutable column. Owner and status are written together
// so the unclaimed-without-owner constraint is checked on a single row image.
func (r *TicketRepository) Update(ctx context.Context, t *secondary.TicketRecord) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE tickets SET title = ?, description = ?, doc_id = ?, parent_id = ?, order_key = ?, archived = ?,
			status = ?, owner_id = ?, owner_type = ?, owner_display_name = ?, updated_at = ?
		WHERE id = ?`,
		t.Title, t.Description, nullString(t.DocID), nullString(t.ParentID), t.Order, t.Archived,
		t.Status, nullString(t.OwnerID), nullString(t.OwnerType), nullString(t.OwnerDisplayName), ts(t.UpdatedAt),
		t.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update ticket: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return notFound("ticket", t.ID)
	}
	return nil
}

// Claim performs the guarded unclaimed -> in_progress flip in one statement.
func (r *TicketRepository) Claim(ctx context.Context, id string, owner secondary.OwnerRecord, at time.Time) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`UPDATE tickets SET status = 'in_progress', owner_id = ?, owner_type = ?, owner_display_name = ?, updated_at = ?
		WHERE id = ? AND status = 'unclaimed'`,
		owner.ID, owner.Type, nullString(owner.DisplayName), ts(at), id,
	)
	if err != nil {
		return false, fmt.Errorf("failed to claim ticket: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rowsAffected == 1, nil
}

// Delete removes a single ticket row.
func (r *TicketRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM tickets WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete ticket: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return notFound("ticket", id)
	}
	return nil
}

// ChildIDs returns the ids of the immediate children of a ticket.
func (r *TicketRepository) ChildIDs(ctx context.Context, id string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT id FROM tickets WHERE parent_id = ? ORDER BY order_key ASC", id)
	if err != nil {
		return nil, fmt.Errorf("failed to list child tickets: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var childID string
		if err := rows.Scan(&childID); err != nil {
			return nil, fmt.Errorf("failed to scan child ticket: %w", err)
		}
		ids = append(ids, childID)
	}
	return ids, rows.Err()
}

// ParentID returns the parent of a ticket, or "" for a root ticket.
func (r *TicketRepository) ParentID(ctx context.Context, id string) (string, error) {
	var parentID sql.NullString
	err := r.db.QueryRowContext(ctx, "SELECT parent_id FROM tickets WHERE id = ?", id).Scan(&parentID)
	if errors.Is(err, sql.ErrNoRows) {
		return "", notFound("ticket", id)
	}
	if err != nil {
		return "", fmt.Errorf("failed to get ticket parent: %w", err)
	}
	return parentID.String, nil
}

// LastSiblingOrder returns the highest order in a sibling group.
func (r *TicketRepository) LastSiblingOrder(ctx context.Context, workspaceID, parentID string) (*float64, error) {
	var row *sql.Row
	if parentID == "" {
		row = r.db.QueryRowContext(ctx, "SELECT MAX(order_key) FROM tickets WHERE workspace_id = ? AND parent_id IS NULL", workspaceID)
	} else {
		row = r.db.QueryRowContext(ctx, "SELECT MAX(order_key) FROM tickets WHERE workspace_id = ? AND parent_id = ?", workspaceID, parentID)
	}

	order, err := lastOrder(row)
	if err != nil {
		return nil, fmt.Errorf("failed to get sibling order: %w", err)
	}
	return order, nil
}

// AdjustCounters applies deltas to a ticket's child counters.
func (r *TicketRepository) AdjustCounters(ctx context.Context, id string, childDelta, doneDelta int) error {
	if childDelta == 0 && doneDelta == 0 {
		return nil
	}
	_, err := r.db.ExecContext(ctx,
		`UPDATE tickets SET child_count = MAX(child_count + ?, 0), child_done_count = MAX(child_done_count + ?, 0)
		WHERE id = ?`,
		childDelta, doneDelta, id,
	)
	if err != nil {
		return fmt.Errorf("failed to adjust ticket counters: %w", err)
	}
	return nil
}

// CountChildren counts live children and done children of a ticket.
func (r *TicketRepository) CountChildren(ctx context.Context, id string) (int, int, error) {
	var total, done int
	err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*), COALESCE(SUM(CASE WHEN status = 'done' THEN 1 ELSE 0 END), 0) FROM tickets WHERE parent_id = ?",
		id,
	).Scan(&total, &done)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to count child tickets: %w", err)
	}
	return total, done, nil
}

// SetCounters overwrites a ticket's child counters.
func (r *TicketRepository) SetCounters(ctx context.Context, id string, total, done int) error {
	_, err := r.db.ExecContext(ctx,
		"UPDATE tickets SET child_count = ?, child_done_count = ? WHERE id = ?",
		total, done, id,
	)
	if err != nil {
		return fmt.Errorf("failed to set ticket counters: %w", err)
	}
	return nil
}

// ArchiveByDoc archives every ticket referencing the doc.
func (r *TicketRepository) ArchiveByDoc(ctx context.Context, docID string, at time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx,
		"UPDATE tickets SET archived = 1, updated_at = ? WHERE doc_id = ? AND archived = 0",
		ts(at), docID,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to archive doc tickets: %w", err)
	}
	return result.RowsAffected()
}

var _ secondary.TicketRepository = (*TicketRepository)(nil)
