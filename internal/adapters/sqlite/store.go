package sqlite

import (
	"context"
	"time"

	"github.com/example/kanban/internal/db"
	"github.com/example/kanban/internal/ports/secondary"
)

// Store implements secondary.Store over a db.SQLiteUnitOfWork.
type Store struct {
	uow *db.SQLiteUnitOfWork
	now func() time.Time
}

// NewStore creates a Store. now stamps activity records; nil means time.Now.
func NewStore(uow *db.SQLiteUnitOfWork, now func() time.Time) *Store {
	if now == nil {
		now = time.Now
	}
	return &Store{uow: uow, now: now}
}

// Repos returns repositories bound to the connection pool.
func (s *Store) Repos() secondary.Repos {
	return s.reposFor(s.uow.DB())
}

// WithinTx runs fn with repositories bound to a single transaction.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, repos secondary.Repos) error) error {
	return s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		return fn(ctx, s.reposFor(tx))
	})
}

// Ping checks the database connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.uow.DB().PingContext(ctx)
}

func (s *Store) reposFor(conn db.DBTX) secondary.Repos {
	activity := NewActivityRepository(conn)
	return secondary.Repos{
		Workspaces:  NewWorkspaceRepository(conn),
		DocsHistory: NewDocsHistoryRepository(conn),
		Members:     NewMembershipRepository(conn),
		APIKeys:     NewAPIKeyRepository(conn),
		Profiles:    NewUserProfileRepository(conn),
		Docs:        NewDocRepository(conn),
		Tickets:     NewTicketRepository(conn),
		Comments:    NewCommentRepository(conn),
		Activity:    activity,
		Ledger:      NewActivityWriterAdapter(activity, s.now),
	}
}

var _ secondary.Store = (*Store)(nil)
