package repository

import (
	"context"

	"github.com/and161185/passvault/internal/model"
	"github.com/gofrs/uuid/v5"
)

// EntryRepository provides CRUD access to stored password entries.
// The password argument/field is always the sealed blob; this layer never
// sees plaintext secrets.
type EntryRepository interface {
	// GetFullList returns all entries of a user.
	GetFullList(ctx context.Context, userID uuid.UUID) ([]model.Entry, error)

	// GetOne returns a single entry by ID or errs.ErrNotFound.
	GetOne(ctx context.Context, userID, id uuid.UUID) (*model.Entry, error)

	// Create inserts a new entry with the sealed password blob.
	Create(ctx context.Context, userID uuid.UUID, in model.EntryInput, sealed string) (*model.Entry, error)

	// Update replaces the non-secret fields and the sealed blob of an entry.
	Update(ctx context.Context, userID, id uuid.UUID, in model.EntryInput, sealed string) (*model.Entry, error)

	// SetPinned updates only the pinned flag.
	SetPinned(ctx context.Context, userID, id uuid.UUID, pinned bool) (*model.Entry, error)

	// Delete removes an entry or returns errs.ErrNotFound.
	Delete(ctx context.Context, userID, id uuid.UUID) error
}
