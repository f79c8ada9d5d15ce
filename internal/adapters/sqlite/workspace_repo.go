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

// WorkspaceRepository implements secondary.WorkspaceRepository with SQLite.
type WorkspaceRepository struct {
	db db.DBTX
}

// NewWorkspaceRepository creates a new SQLite workspace repository.
func NewWorkspaceRepository(db db.DBTX) *WorkspaceRepository {
	return &WorkspaceRepository{db: db}
}

const workspaceSelectCols = "w.id, w.name, w.prefix, w.docs, w.ticket_counter, w.doc_counter, w.created_at, w.updated_at"

func scanWorkspace(scanner rowScanner) (*secondary.WorkspaceRecord, error) {
	var createdAt, updatedAt string
	record := &secondary.WorkspaceRecord{}
	err := scanner.Scan(
		&record.ID, &record.Name, &record.Prefix, &record.Docs,
		&record.TicketCounter, &record.DocCounter, &createdAt, &updatedAt,
	)
	if err != nil {
		return nil, err
	}
	record.CreatedAt = db.ParseTime(createdAt)
	record.UpdatedAt = db.ParseTime(updatedAt)
	return record, nil
}

// Create persists a new workspace.
func (r *WorkspaceRepository) Create(ctx context.Context, ws *secondary.WorkspaceRecord) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO workspaces (id, name, prefix, docs, ticket_counter, doc_counter, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		ws.ID, ws.Name, ws.Prefix, ws.Docs, ws.TicketCounter, ws.DocCounter, ts(ws.CreatedAt), ts(ws.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to create workspace: %w", err)
	}
	return nil
}

// GetByID retrieves a workspace by its ID.
func (r *WorkspaceRepository) GetByID(ctx context.Context, id string) (*secondary.WorkspaceRecord, error) {
	row := r.db.QueryRowContext(ctx, "SELECT "+workspaceSelectCols+" FROM workspaces w WHERE w.id = ?", id)

	record, err := scanWorkspace(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound("workspace", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get workspace: %w", err)
	}
	return record, nil
}

// List returns every workspace.
func (r *WorkspaceRepository) List(ctx context.Context) ([]*secondary.WorkspaceRecord, error) {
	return r.query(ctx, "SELECT "+workspaceSelectCols+" FROM workspaces w ORDER BY w.created_at ASC")
}

// ListForUser returns the workspaces the user is a member of.
func (r *WorkspaceRepository) ListForUser(ctx context.Context, userID string) ([]*secondary.WorkspaceRecord, error) {
	return r.query(ctx,
		"SELECT "+workspaceSelectCols+` FROM workspaces w
		JOIN memberships m ON m.workspace_id = w.id
		WHERE m.user_id = ? ORDER BY w.created_at ASC`,
		userID,
	)
}

func (r *WorkspaceRepository) query(ctx context.Context, query string, args ...any) ([]*secondary.WorkspaceRecord, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list workspaces: %w", err)
	}
	defer rows.Close()

	var workspaces []*secondary.WorkspaceRecord
	for rows.Next() {
		record, err := scanWorkspace(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan workspace: %w", err)
		}
		workspaces = append(workspaces, record)
	}
	return workspaces, rows.Err()
}

// Rename changes the display name. The prefix is fixed at creation.
func (r *WorkspaceRepository) Rename(ctx context.Context, id, name string, at time.Time) error {
	return r.exec(ctx, id, "UPDATE workspaces SET name = ?, updated_at = ? WHERE id = ?", name, ts(at), id)
}

// SetDocs replaces the workspace docs blob.
func (r *WorkspaceRepository) SetDocs(ctx context.Context, id, docs string, at time.Time) error {
	return r.exec(ctx, id, "UPDATE workspaces SET docs = ?, updated_at = ? WHERE id = ?", docs, ts(at), id)
}

// Delete removes the workspace and, through foreign keys, everything it owns.
func (r *WorkspaceRepository) Delete(ctx context.Context, id string) error {
	return r.exec(ctx, id, "DELETE FROM workspaces WHERE id = ?", id)
}

func (r *WorkspaceRepository) exec(ctx context.Context, id, query string, args ...any) error {
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update workspace: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return notFound("workspace", id)
	}
	return nil
}

// NextTicketNumber increments and returns the ticket counter.
func (r *WorkspaceRepository) NextTicketNumber(ctx context.Context, id string) (int, error) {
	return r.next(ctx, "UPDATE workspaces SET ticket_counter = ticket_counter + 1 WHERE id = ? RETURNING ticket_counter", id)
}

// NextDocNumber increments and returns the doc counter.
func (r *WorkspaceRepository) NextDocNumber(ctx context.Context, id string) (int, error) {
	return r.next(ctx, "UPDATE workspaces SET doc_counter = doc_counter + 1 WHERE id = ? RETURNING doc_counter", id)
}

func (r *WorkspaceRepository) next(ctx context.Context, query, id string) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, query, id).Scan(&n)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, notFound("workspace", id)
	}
	if err != nil {
		return 0, fmt.Errorf("failed to allocate number: %w", err)
	}
	return n, nil
}

var _ secondary.WorkspaceRepository = (*WorkspaceRepository)(nil)

// DocsHistoryRepository implements secondary.WorkspaceDocsHistoryRepository.
type DocsHistoryRepository struct {
	db db.DBTX
}

// NewDocsHistoryRepository creates a new SQLite docs history repository.
func NewDocsHistoryRepository(db db.DBTX) *DocsHistoryRepository {
	return &DocsHistoryRepository{db: db}
}

// Create stores a superseded docs version.
func (r *DocsHistoryRepository) Create(ctx context.Context, v *secondary.DocsVersionRecord) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO workspace_docs_history (id, workspace_id, content, actor_type, actor_id, actor_name, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		v.ID, v.WorkspaceID, v.Content, v.ActorType, v.ActorID, nullString(v.ActorName), ts(v.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to create docs version: %w", err)
	}
	return nil
}

// List returns versions newest first.
func (r *DocsHistoryRepository) List(ctx context.Context, workspaceID string, limit int) ([]*secondary.DocsVersionRecord, error) {
	query := `SELECT id, workspace_id, content, actor_type, actor_id, actor_name, created_at
		FROM workspace_docs_history WHERE workspace_id = ? ORDER BY created_at DESC, rowid DESC`
	args := []any{workspaceID}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list docs history: %w", err)
	}
	defer rows.Close()

	var versions []*secondary.DocsVersionRecord
	for rows.Next() {
		var (
			v         secondary.DocsVersionRecord
			actorName sql.NullString
			createdAt string
		)
		if err := rows.Scan(&v.ID, &v.WorkspaceID, &v.Content, &v.ActorType, &v.ActorID, &actorName, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan docs version: %w", err)
		}
		v.ActorName = actorName.String
		v.CreatedAt = db.ParseTime(createdAt)
		versions = append(versions, &v)
	}
	return versions, rows.Err()
}

var _ secondary.WorkspaceDocsHistoryRepository = (*DocsHistoryRepository)(nil)
