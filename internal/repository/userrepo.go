// Package repository defines storage interfaces implemented by concrete backends.
package repository

import (
	"context"

	"github.com/gofrs/uuid/v5"
)

// UserRepository provides access to per-user master credential state.
// Only the one-way hash of the master password is ever stored.
type UserRepository interface {
	// GetMasterHash returns the stored master password hash for a user,
	// or errs.ErrNotFound if no credential has been created yet.
	GetMasterHash(ctx context.Context, userID uuid.UUID) (string, error)

	// SetMasterHash stores (or replaces) the master password hash.
	SetMasterHash(ctx context.Context, userID uuid.UUID, hash string) error
}
