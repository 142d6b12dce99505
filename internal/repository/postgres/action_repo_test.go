package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/jackc/pgx/v5/pgconn"
	pgxmock "github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/require"

	"github.com/karlsjo/sustainlog/internal/errs"
	"github.com/karlsjo/sustainlog/internal/model"
)

func newDB(t *testing.T) (*DB, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	return &DB{Pool: mock}, mock
}

const fpA = "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"

func TestActionRepo_Create_OK(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewActionRepo(db)

	ctx := context.Background()
	id := uuid.Must(uuid.NewV4())
	ownerID := uuid.Must(uuid.NewV4())
	createdAt := time.Now().UTC().Truncate(time.Second)

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO actions \(id, owner_id, text_enc, file_bytes, category, fingerprint\)`).
		WithArgs(id, ownerID, []byte("enc"), []byte("file"), "Operations", fpA).
		WillReturnRows(pgxmock.NewRows([]string{"created_at"}).AddRow(createdAt))
	mock.ExpectExec(`INSERT INTO notary_queue \(fingerprint, status, attempts, next_attempt_at\)`).
		WithArgs(fpA).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()

	a := &model.StoredAction{
		ID:          id,
		OwnerID:     ownerID,
		TextEnc:     []byte("enc"),
		FileBytes:   []byte("file"),
		Category:    model.CategoryOperations,
		Fingerprint: fpA,
	}
	require.NoError(t, r.Create(ctx, a))
	require.Equal(t, createdAt, a.CreatedAt)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestActionRepo_Create_DuplicateFingerprint(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewActionRepo(db)

	ctx := context.Background()
	id := uuid.Must(uuid.NewV4())
	ownerID := uuid.Must(uuid.NewV4())

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO actions`).
		WithArgs(id, ownerID, []byte("enc"), []byte(nil), "", fpA).
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "actions_fingerprint_key"})
	mock.ExpectRollback()

	a := &model.StoredAction{ID: id, OwnerID: ownerID, TextEnc: []byte("enc"), Fingerprint: fpA}
	err := r.Create(ctx, a)
	require.ErrorIs(t, err, errs.ErrDuplicateFingerprint)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestActionRepo_Create_EnqueueFailureRollsBack(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewActionRepo(db)

	ctx := context.Background()
	id := uuid.Must(uuid.NewV4())
	ownerID := uuid.Must(uuid.NewV4())

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO actions`).
		WithArgs(id, ownerID, []byte("enc"), []byte(nil), "", fpA).
		WillReturnRows(pgxmock.NewRows([]string{"created_at"}).AddRow(time.Now()))
	mock.ExpectExec(`INSERT INTO notary_queue`).
		WithArgs(fpA).
		WillReturnError(errors.New("disk full"))
	mock.ExpectRollback()

	a := &model.StoredAction{ID: id, OwnerID: ownerID, TextEnc: []byte("enc"), Fingerprint: fpA}
	require.Error(t, r.Create(ctx, a))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestActionRepo_ListByOwner_OrderedRows(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewActionRepo(db)

	ctx := context.Background()
	ownerID := uuid.Must(uuid.NewV4())
	id1 := uuid.Must(uuid.NewV4())
	id2 := uuid.Must(uuid.NewV4())
	t1 := time.Now().Add(-time.Hour)
	t2 := time.Now()

	mock.ExpectQuery(`SELECT id, owner_id, text_enc, file_bytes, category, fingerprint, created_at`).
		WithArgs(ownerID).
		WillReturnRows(pgxmock.
			NewRows([]string{"id", "owner_id", "text_enc", "file_bytes", "category", "fingerprint", "created_at"}).
			AddRow(id1, ownerID, []byte("e1"), []byte(nil), "Impact", "f1", t1).
			AddRow(id2, ownerID, []byte("e2"), []byte("att"), "", "f2", t2))

	out, err := r.ListByOwner(ctx, ownerID)
	require.NoError(t, err)
	require.Len(t, out, 2)
	require.Equal(t, id1, out[0].ID)
	require.Equal(t, model.CategoryImpact, out[0].Category)
	require.Equal(t, model.CategoryNone, out[1].Category)
	require.Equal(t, []byte("att"), out[1].FileBytes)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestActionRepo_ListByOwner_Empty(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewActionRepo(db)

	ownerID := uuid.Must(uuid.NewV4())
	mock.ExpectQuery(`SELECT id, owner_id, text_enc, file_bytes, category, fingerprint, created_at`).
		WithArgs(ownerID).
		WillReturnRows(pgxmock.NewRows([]string{"id", "owner_id", "text_enc", "file_bytes", "category", "fingerprint", "created_at"}))

	out, err := r.ListByOwner(context.Background(), ownerID)
	require.NoError(t, err)
	require.Empty(t, out)
}
