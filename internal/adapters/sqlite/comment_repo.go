package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/example/kanban/internal/db"
	"github.com/example/kanban/internal/ports/secondary"
)

// CommentRepository implements secondary.CommentRepository with SQLite.
type CommentRepository struct {
	db db.DBTX
}

// NewCommentRepository creates a new SQLite comment repository.
func NewCommentRepository(db db.DBTX) *CommentRepository {
	return &CommentRepository{db: db}
}

// Create appends a comment.
func (r *CommentRepository) Create(ctx context.Context, c *secondary.CommentRecord) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO ticket_comments (id, workspace_id, ticket_id, body, author_type, author_id, author_name, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.WorkspaceID, c.TicketID, c.Body, c.AuthorType, c.AuthorID, nullString(c.AuthorName), ts(c.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to create comment: %w", err)
	}
	return nil
}

// ListByTicket returns a ticket's comments oldest first.
func (r *CommentRepository) ListByTicket(ctx context.Context, ticketID string) ([]*secondary.CommentRecord, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, workspace_id, ticket_id, body, author_type, author_id, author_name, created_at
		FROM ticket_comments WHERE ticket_id = ? ORDER BY created_at ASC, rowid ASC`,
		ticketID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list comments: %w", err)
	}
	defer rows.Close()

	var comments []*secondary.CommentRecord
	for rows.Next() {
		var (
			c          secondary.CommentRecord
			authorName sql.NullString
			createdAt  string
		)
		if err := rows.Scan(&c.ID, &c.WorkspaceID, &c.TicketID, &c.Body, &c.AuthorType, &c.AuthorID, &authorName, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan comment: %w", err)
		}
		c.AuthorName = authorName.String
		c.CreatedAt = db.ParseTime(createdAt)
		comments = append(comments, &c)
	}
	return comments, rows.Err()
}

var _ secondary.CommentRepository = (*CommentRepository)(nil)
