package postgres

import (
	"context"
	"errors"

	"github.com/and161185/passvault/internal/errs"
	"github.com/and161185/passvault/internal/model"
	"github.com/gofrs/uuid/v5"
	"github.com/jackc/pgx/v5"
)

// EntryRepo implements EntryRepository using PostgreSQL.
type EntryRepo struct{ db *DB }

// NewEntryRepo constructs an entry repository.
func NewEntryRepo(db *DB) *EntryRepo { return &EntryRepo{db: db} }

const entryColumns = `id, name, icon, color, website, username, password, pinned, created, updated`

func scanEntry(row pgx.Row, e *model.Entry) error {
	return row.Scan(&e.ID, &e.Name, &e.Icon, &e.Color, &e.Website, &e.Username,
		&e.Password, &e.Pinned, &e.Created, &e.Updated)
}

// GetFullList returns all entries of a user ordered by name.
func (r *EntryRepo) GetFullList(ctx context.Context, userID uuid.UUID) ([]model.Entry, error) {
	const q = `
SELECT ` + entryColumns + `
FROM entries WHERE user_id=$1
ORDER BY name ASC`
	rows, err := r.db.Pool.Query(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Entry
	for rows.Next() {
		var e model.Entry
		if err = scanEntry(rows, &e); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// GetOne returns a single entry by id.
func (r *EntryRepo) GetOne(ctx context.Context, userID, id uuid.UUID) (*model.Entry, error) {
	const q = `
SELECT ` + entryColumns + `
FROM entries WHERE user_id=$1 AND id=$2`
	var e model.Entry
	if err := scanEntry(r.db.Pool.QueryRow(ctx, q, userID, id), &e); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errs.ErrNotFound
		}
		return nil, err
	}
	return &e, nil
}

// Create inserts a new entry row and returns it.
func (r *EntryRepo) Create(ctx context.Context, userID uuid.UUID, in model.EntryInput, sealed string) (*model.Entry, error) {
	id, err := uuid.NewV4()
	if err != nil {
		return nil, err
	}
	const q = `
INSERT INTO entries (id, user_id, name, icon, color, website, username, password, pinned)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,false)
RETURNING ` + entryColumns
	var e model.Entry
	row := r.db.Pool.QueryRow(ctx, q, id, userID, in.Name, in.Icon, in.Color, in.Website, in.Username, sealed)
	if err := scanEntry(row, &e); err != nil {
		return nil, err
	}
	return &e, nil
}

// Update replaces non-secret fields and the sealed blob of an entry.
func (r *EntryRepo) Update(ctx context.Context, userID, id uuid.UUID, in model.EntryInput, sealed string) (*model.Entry, error) {
	const q = `
UPDATE entries
SET name=$3, icon=$4, color=$5, website=$6, username=$7, password=$8, updated=now()
WHERE user_id=$1 AND id=$2
RETURNING ` + entryColumns
	var e model.Entry
	row := r.db.Pool.QueryRow(ctx, q, userID, id, in.Name, in.Icon, in.Color, in.Website, in.Username, sealed)
	if err := scanEntry(row, &e); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errs.ErrNotFound
		}
		return nil, err
	}
	return &e, nil
}

// SetPinned updates only the pinned flag.
func (r *EntryRepo) SetPinned(ctx context.Context, userID, id uuid.UUID, pinned bool) (*model.Entry, error) {
	const q = `
UPDATE entries
SET pinned=$3, updated=now()
WHERE user_id=$1 AND id=$2
RETURNING ` + entryColumns
	var e model.Entry
	if err := scanEntry(r.db.Pool.QueryRow(ctx, q, userID, id, pinned), &e); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errs.ErrNotFound
		}
		return nil, err
	}
	return &e, nil
}

// Delete removes an entry row.
func (r *EntryRepo) Delete(ctx context.Context, userID, id uuid.UUID) error {
	const q = `DELETE FROM entries WHERE user_id=$1 AND id=$2`
	tag, err := r.db.Pool.Exec(ctx, q, userID, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return errs.ErrNotFound
	}
	return nil
}
