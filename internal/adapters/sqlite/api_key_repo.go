package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/example/kanban/internal/db"
	"github.com/example/kanban/internal/ports/secondary"
)

// APIKeyRepository implements secondary.APIKeyRepository with SQLite.
type APIKeyRepository struct {
	db db.DBTX
}

// NewAPIKeyRepository creates a new SQLite API key repository.
func NewAPIKeyRepository(db db.DBTX) *APIKeyRepository {
	return &APIKeyRepository{db: db}
}

const apiKeySelectCols = "id, workspace_id, name, key_hash, role, created_at"

func scanAPIKey(scanner rowScanner) (*secondary.APIKeyRecord, error) {
	var createdAt string
	record := &secondary.APIKeyRecord{}
	if err := scanner.Scan(&record.ID, &record.WorkspaceID, &record.Name, &record.KeyHash, &record.Role, &createdAt); err != nil {
		return nil, err
	}
	record.CreatedAt = db.ParseTime(createdAt)
	return record, nil
}

// Create persists a key. Only the hash is stored.
func (r *APIKeyRepository) Create(ctx context.Context, k *secondary.APIKeyRecord) error {
	_, err := r.db.ExecContext(ctx,
		"INSERT INTO api_keys (id, workspace_id, name, key_hash, role, created_at) VALUES (?, ?, ?, ?, ?, ?)",
		k.ID, k.WorkspaceID, k.Name, k.KeyHash, k.Role, ts(k.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to create api key: %w", err)
	}
	return nil
}

// GetByID retrieves a key by its ID.
func (r *APIKeyRepository) GetByID(ctx context.Context, id string) (*secondary.APIKeyRecord, error) {
	return r.get(ctx, "SELECT "+apiKeySelectCols+" FROM api_keys WHERE id = ?", id)
}

// GetByHash retrieves a key by the digest of its secret.
func (r *APIKeyRepository) GetByHash(ctx context.Context, hash string) (*secondary.APIKeyRecord, error) {
	return r.get(ctx, "SELECT "+apiKeySelectCols+" FROM api_keys WHERE key_hash = ?", hash)
}

func (r *APIKeyRepository) get(ctx context.Context, query, arg string) (*secondary.APIKeyRecord, error) {
	record, err := scanAPIKey(r.db.QueryRowContext(ctx, query, arg))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound("api key", "")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get api key: %w", err)
	}
	return record, nil
}

// ListByWorkspace returns a workspace's keys, oldest first.
func (r *APIKeyRepository) ListByWorkspace(ctx context.Context, workspaceID string) ([]*secondary.APIKeyRecord, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+apiKeySelectCols+" FROM api_keys WHERE workspace_id = ? ORDER BY created_at ASC",
		workspaceID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list api keys: %w", err)
	}
	defer rows.Close()

	var keys []*secondary.APIKeyRecord
	for rows.Next() {
		record, err := scanAPIKey(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan api key: %w", err)
		}
		keys = append(keys, record)
	}
	return keys, rows.Err()
}

// UpdateRole changes a key's role.
func (r *APIKeyRepository) UpdateRole(ctx context.Context, id, role string) error {
	result, err := r.db.ExecContext(ctx, "UPDATE api_keys SET role = ? WHERE id = ?", role, id)
	if err != nil {
		return fmt.Errorf("failed to update api key: %w", err)
	}
	return expectOne(result, "api key", id)
}

// Delete removes a key.
func (r *APIKeyRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM api_keys WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete api key: %w", err)
	}
	return expectOne(result, "api key", id)
}

var _ secondary.APIKeyRepository = (*APIKeyRepository)(nil)
