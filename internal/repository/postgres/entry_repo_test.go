package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/jackc/pgx/v5"
	pgxmock "github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/require"

	"github.com/and161185/passvault/internal/errs"
	"github.com/and161185/passvault/internal/model"
)

func newDB(t *testing.T) (*DB, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	return &DB{Pool: mock}, mock
}

var entryCols = []string{"id", "name", "icon", "color", "website", "username", "password", "pinned", "created", "updated"}

func entryRow(id uuid.UUID, name string, pinned bool) *pgxmock.Rows {
	now := time.Now()
	return pgxmock.NewRows(entryCols).
		AddRow(id, name, "icon", "#fff", "example.com", "user", "c2VhbGVk", pinned, now, now)
}

func TestEntryRepo_GetFullList(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewEntryRepo(db)

	userID := uuid.Must(uuid.NewV4())
	idA := uuid.Must(uuid.NewV4())
	idB := uuid.Must(uuid.NewV4())

	now := time.Now()
	rows := pgxmock.NewRows(entryCols).
		AddRow(idA, "alpha", "", "", "", "", "blobA", false, now, now).
		AddRow(idB, "beta", "", "", "", "", "blobB", true, now, now)

	mock.ExpectQuery(`FROM entries WHERE user_id=\$1\s+ORDER BY name ASC`).
		WithArgs(userID).
		WillReturnRows(rows)

	out, err := r.GetFullList(context.Background(), userID)
	require.NoError(t, err)
	require.Len(t, out, 2)
	require.Equal(t, "alpha", out[0].Name)
	require.Equal(t, "blobB", out[1].Password)
	require.True(t, out[1].Pinned)
}

func TestEntryRepo_GetOne_OK(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewEntryRepo(db)

	userID := uuid.Must(uuid.NewV4())
	id := uuid.Must(uuid.NewV4())

	mock.ExpectQuery(`FROM entries WHERE user_id=\$1 AND id=\$2`).
		WithArgs(userID, id).
		WillReturnRows(entryRow(id, "mail", true))

	e, err := r.GetOne(context.Background(), userID, id)
	require.NoError(t, err)
	require.Equal(t, id, e.ID)
	require.Equal(t, "c2VhbGVk", e.Password)
}

func TestEntryRepo_GetOne_NotFound(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewEntryRepo(db)

	userID := uuid.Must(uuid.NewV4())
	id := uuid.Must(uuid.NewV4())

	mock.ExpectQuery(`FROM entries WHERE user_id=\$1 AND id=\$2`).
		WithArgs(userID, id).
		WillReturnError(pgx.ErrNoRows)

	_, err := r.GetOne(context.Background(), userID, id)
	require.ErrorIs(t, err, errs.ErrNotFound)
}

func TestEntryRepo_Create(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewEntryRepo(db)

	userID := uuid.Must(uuid.NewV4())
	id := uuid.Must(uuid.NewV4())

	mock.ExpectQuery(`INSERT INTO entries`).
		WithArgs(pgxmock.AnyArg(), userID, "mail", "icon", "#fff", "example.com", "user", "c2VhbGVk").
		WillReturnRows(entryRow(id, "mail", false))

	e, err := r.Create(context.Background(), userID, model.EntryInput{
		Name: "mail", Icon: "icon", Color: "#fff", Website: "example.com", Username: "user",
	}, "c2VhbGVk")
	require.NoError(t, err)
	require.Equal(t, "mail", e.Name)
	require.False(t, e.Pinned)
}

func TestEntryRepo_Update_NotFound(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewEntryRepo(db)

	userID := uuid.Must(uuid.NewV4())
	id := uuid.Must(uuid.NewV4())

	mock.ExpectQuery(`UPDATE entries`).
		WithArgs(userID, id, "mail", "", "", "", "", "blob").
		WillReturnError(pgx.ErrNoRows)

	_, err := r.Update(context.Background(), userID, id, model.EntryInput{Name: "mail"}, "blob")
	require.ErrorIs(t, err, errs.ErrNotFound)
}

func TestEntryRepo_SetPinned(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewEntryRepo(db)

	userID := uuid.Must(uuid.NewV4())
	id := uuid.Must(uuid.NewV4())

	mock.ExpectQuery(`UPDATE entries\s+SET pinned=\$3, updated=now\(\)`).
		WithArgs(userID, id, true).
		WillReturnRows(entryRow(id, "mail", true))

	e, err := r.SetPinned(context.Background(), userID, id, true)
	require.NoError(t, err)
	require.True(t, e.Pinned)
}

func TestEntryRepo_Delete(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewEntryRepo(db)

	userID := uuid.Must(uuid.NewV4())
	id := uuid.Must(uuid.NewV4())

	mock.ExpectExec(`DELETE FROM entries WHERE user_id=\$1 AND id=\$2`).
		WithArgs(userID, id).
		WillReturnResult(pgxmock.NewResult("DELETE", 1))

	require.NoError(t, r.Delete(context.Background(), userID, id))
}

func TestEntryRepo_Delete_NotFound(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewEntryRepo(db)

	userID := uuid.Must(uuid.NewV4())
	id := uuid.Must(uuid.NewV4())

	mock.ExpectExec(`DELETE FROM entries WHERE user_id=\$1 AND id=\$2`).
		WithArgs(userID, id).
		WillReturnResult(pgxmock.NewResult("DELETE", 0))

	require.ErrorIs(t, r.Delete(context.Background(), userID, id), errs.ErrNotFound)
}
