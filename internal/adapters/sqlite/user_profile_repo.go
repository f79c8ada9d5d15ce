package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/example/kanban/internal/db"
	"github.com/example/kanban/internal/ports/secondary"
)

// UserProfileRepository implements secondary.UserProfileRepository with SQLite.
type UserProfileRepository struct {
	db db.DBTX
}

// NewUserProfileRepository creates a new SQLite user profile repository.
func NewUserProfileRepository(db db.DBTX) *UserProfileRepository {
	return &UserProfileRepository{db: db}
}

// Upsert inserts or refreshes a cached profile.
func (r *UserProfileRepository) Upsert(ctx context.Context, p *secondary.UserProfileRecord) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO user_profiles (id, email, display_name, avatar_url, updated_at) VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			email = excluded.email,
			display_name = excluded.display_name,
			avatar_url = excluded.avatar_url,
			updated_at = excluded.updated_at`,
		p.ID, nullString(p.Email), nullString(p.DisplayName), nullString(p.AvatarURL), ts(p.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert user profile: %w", err)
	}
	return nil
}

// GetByID retrieves a cached profile.
func (r *UserProfileRepository) GetByID(ctx context.Context, id string) (*secondary.UserProfileRecord, error) {
	var (
		email, name, avatar sql.NullString
		updatedAt           string
	)
	record := &secondary.UserProfileRecord{}
	err := r.db.QueryRowContext(ctx,
		"SELECT id, email, display_name, avatar_url, updated_at FROM user_profiles WHERE id = ?", id,
	).Scan(&record.ID, &email, &name, &avatar, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound("user profile", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user profile: %w", err)
	}
	record.Email = email.String
	record.DisplayName = name.String
	record.AvatarURL = avatar.String
	record.UpdatedAt = db.ParseTime(updatedAt)
	return record, nil
}

var _ secondary.UserProfileRepository = (*UserProfileRepository)(nil)
