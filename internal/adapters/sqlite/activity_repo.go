package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/example/kanban/internal/db"
	"github.com/example/kanban/internal/ports/secondary"
)

// ActivityRepository implements secondary.ActivityRepository with SQLite.
// It only inserts and reads; the table rejects updates.
type ActivityRepository struct {
	db db.DBTX
}

// NewActivityRepository creates a new SQLite activity repository.
func NewActivityRepository(db db.DBTX) *ActivityRepository {
	return &ActivityRepository{db: db}
}

// Create appends an activity event.
func (r *ActivityRepository) Create(ctx context.Context, a *secondary.ActivityRecord) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO ticket_activity (id, workspace_id, ticket_id, type, actor_type, actor_id, actor_name, data, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.WorkspaceID, a.TicketID, a.Type, a.ActorType, a.ActorID, nullString(a.ActorName), nullString(a.Data), ts(a.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to create activity: %w", err)
	}
	return nil
}

// ListByTicket returns a ticket's activity newest first.
func (r *ActivityRepository) ListByTicket(ctx context.Context, ticketID string, limit int) ([]*secondary.ActivityRecord, error) {
	query := `SELECT id, workspace_id, ticket_id, type, actor_type, actor_id, actor_name, data, created_at
		FROM ticket_activity WHERE ticket_id = ? ORDER BY created_at DESC, rowid DESC`
	args := []any{ticketID}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list activity: %w", err)
	}
	defer rows.Close()

	var events []*secondary.ActivityRecord
	for rows.Next() {
		var (
			a               secondary.ActivityRecord
			actorName, data sql.NullString
			createdAt       string
		)
		if err := rows.Scan(&a.ID, &a.WorkspaceID, &a.TicketID, &a.Type, &a.ActorType, &a.ActorID, &actorName, &data, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan activity: %w", err)
		}
		a.ActorName = actorName.String
		a.Data = data.String
		a.CreatedAt = db.ParseTime(createdAt)
		events = append(events, &a)
	}
	return events, rows.Err()
}

var _ secondary.ActivityRepository = (*ActivityRepository)(nil)
