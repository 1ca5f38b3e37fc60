package postgres

import (
	"context"
	"errors"

	"github.com/and161185/passvault/internal/errs"
	"github.com/gofrs/uuid/v5"
	"github.com/jackc/pgx/v5"
)

// UserRepo implements UserRepository using PostgreSQL.
type UserRepo struct{ db *DB }

// NewUserRepo constructs a user repository.
func NewUserRepo(db *DB) *UserRepo { return &UserRepo{db: db} }

// GetMasterHash selects the stored master password hash for a user.
func (r *UserRepo) GetMasterHash(ctx context.Context, userID uuid.UUID) (string, error) {
	const q = `SELECT master_hash FROM vault_users WHERE id=$1`
	var hash string
	if err := r.db.Pool.QueryRow(ctx, q, userID).Scan(&hash); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", errs.ErrNotFound
		}
		return "", err
	}
	if hash == "" {
		return "", errs.ErrNotFound
	}
	return hash, nil
}

// SetMasterHash inserts or replaces the master password hash for a user.
func (r *UserRepo) SetMasterHash(ctx context.Context, userID uuid.UUID, hash string) error {
	const q = `
INSERT INTO vault_users (id, master_hash)
VALUES ($1, $2)
ON CONFLICT (id) DO UPDATE SET master_hash = EXCLUDED.master_hash, updated = now()`
	_, err := r.db.Pool.Exec(ctx, q, userID, hash)
	return err
}
