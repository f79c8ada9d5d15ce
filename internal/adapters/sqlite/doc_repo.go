package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/example/kanban/internal/db"
	"github.com/example/kanban/internal/ports/secondary"
)

// DocRepository implements secondary.DocRepository with SQLite.
type DocRepository struct {
	db db.DBTX
}

// NewDocRepository creates a new SQLite feature doc repository.
func NewDocRepository(db db.DBTX) *DocRepository {
	return &DocRepository{db: db}
}

const docSelectCols = "id, workspace_id, number, title, content, status, order_key, parent_id, archived, created_at, updated_at"

func scanDoc(scanner rowScanner) (*secondary.DocRecord, error) {
	var (
		parentID             sql.NullString
		createdAt, updatedAt string
	)

	record := &secondary.DocRecord{}
	err := scanner.Scan(
		&record.ID, &record.WorkspaceID, &record.Number, &record.Title, &record.Content,
		&record.Status, &record.Order, &parentID, &record.Archived, &createdAt, &updatedAt,
	)
	if err != nil {
		return nil, err
	}

	record.ParentID = parentID.String
	record.CreatedAt = db.ParseTime(createdAt)
	record.UpdatedAt = db.ParseTime(updatedAt)
	return record, nil
}

// Create persists a new doc.
func (r *DocRepository) Create(ctx context.Context, d *secondary.DocRecord) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO feature_docs (id, workspace_id, number, title, content, status, order_key, parent_id, archived, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		d.ID, d.WorkspaceID, d.Number, d.Title, d.Content, d.Status, d.Order, nullString(d.ParentID),
		d.Archived, ts(d.CreatedAt), ts(d.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to create doc: %w", err)
	}
	return nil
}

// GetByID retrieves a doc by its ID.
func (r *DocRepository) GetByID(ctx context.Context, id string) (*secondary.DocRecord, error) {
	row := r.db.QueryRowContext(ctx, "SELECT "+docSelectCols+" FROM feature_docs WHERE id = ?", id)

	record, err := scanDoc(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound("doc", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get doc: %w", err)
	}
	return record, nil
}

// List retrieves docs matching the given filters.
func (r *DocRepository) List(ctx context.Context, filters secondary.DocFilters) ([]*secondary.DocRecord, error) {
	query := "SELECT " + docSelectCols + " FROM feature_docs WHERE workspace_id = ?"
	args := []any{filters.WorkspaceID}

	if filters.RootOnly {
		query += " AND parent_id IS NULL"
	} else if filters.ParentID != "" {
		query += " AND parent_id = ?"
		args = append(args, filters.ParentID)
	}

	query += archivedClause(filters.Archived)
	query += " ORDER BY order_key ASC, number ASC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list docs: %w", err)
	}
	defer rows.Close()

	var docs []*secondary.DocRecord
	for rows.Next() {
		record, err := scanDoc(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan doc: %w", err)
		}
		docs = append(docs, record)
	}
	return docs, rows.Err()
}

// Update writes every mutable column.
func (r *DocRepository) Update(ctx context.Context, d *secondary.DocRecord) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE feature_docs SET title = ?, content = ?, status = ?, order_key = ?, parent_id = ?, archived = ?, updated_at = ?
		WHERE id = ?`,
		d.Title, d.Content, d.Status, d.Order, nullString(d.ParentID), d.Archived, ts(d.UpdatedAt), d.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update doc: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return notFound("doc", d.ID)
	}
	return nil
}

// Delete removes a doc. Referencing tickets and child docs are released by
// the ON DELETE SET NULL foreign keys.
func (r *DocRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM feature_docs WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete doc: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return notFound("doc", id)
	}
	return nil
}

// ParentID returns the parent of a doc, or "" for a root doc.
func (r *DocRepository) ParentID(ctx context.Context, id string) (string, error) {
	var parentID sql.NullString
	err := r.db.QueryRowContext(ctx, "SELECT parent_id FROM feature_docs WHERE id = ?", id).Scan(&parentID)
	if errors.Is(err, sql.ErrNoRows) {
		return "", notFound("doc", id)
	}
	if err != nil {
		return "", fmt.Errorf("failed to get doc parent: %w", err)
	}
	return parentID.String, nil
}

// LastSiblingOrder returns the highest order in a sibling group.
func (r *DocRepository) LastSiblingOrder(ctx context.Context, workspaceID, parentID string) (*float64, error) {
	var row *sql.Row
	if parentID == "" {
		row = r.db.QueryRowContext(ctx, "SELECT MAX(order_key) FROM feature_docs WHERE workspace_id = ? AND parent_id IS NULL", workspaceID)
	} else {
		row = r.db.QueryRowContext(ctx, "SELECT MAX(order_key) FROM feature_docs WHERE workspace_id = ? AND parent_id = ?", workspaceID, parentID)
	}

	order, err := lastOrder(row)
	if err != nil {
		return nil, fmt.Errorf("failed to get sibling order: %w", err)
	}
	return order, nil
}

var _ secondary.DocRepository = (*DocRepository)(nil)
