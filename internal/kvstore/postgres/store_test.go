package postgres

import (
	"context"
	"errors"
	"testing"

	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avelane/cartwish/internal/kvstore"
)

func newTestStore(t *testing.T) (*Store, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return NewStore(mock), mock
}

func TestStore_Load_Success(t *testing.T) {
	store, mock := newTestStore(t)

	payload := []byte(`{"schema_version":1,"items":[]}`)
	mock.ExpectQuery("SELECT value FROM kv_blobs").
		WithArgs("cartItems:sess-1").
		WillReturnRows(pgxmock.NewRows([]string{"value"}).AddRow(payload))

	got, err := store.Load(context.Background(), "cartItems:sess-1")
	require.NoError(t, err)
	assert.Equal(t, payload, got)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_Load_NotFound(t *testing.T) {
	store, mock := newTestStore(t)

	mock.ExpectQuery("SELECT value FROM kv_blobs").
		WithArgs("cartItems:missing").
		WillReturnRows(pgxmock.NewRows([]string{"value"}))

	_, err := store.Load(context.Background(), "cartItems:missing")
	assert.ErrorIs(t, err, kvstore.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_Save_Upserts(t *testing.T) {
	store, mock := newTestStore(t)

	mock.ExpectExec("INSERT INTO kv_blobs").
		WithArgs("k", []byte("v")).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	assert.NoError(t, store.Save(context.Background(), "k", []byte("v")))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_Save_ExecError(t *testing.T) {
	store, mock := newTestStore(t)

	mock.ExpectExec("INSERT INTO kv_blobs").
		WithArgs("k", []byte("v")).
		WillReturnError(errors.New("connection refused"))

	err := store.Save(context.Background(), "k", []byte("v"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "save blob")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_Remove_AbsentKeyIsNoop(t *testing.T) {
	store, mock := newTestStore(t)

	mock.ExpectExec("DELETE FROM kv_blobs").
		WithArgs("never-written").
		WillReturnResult(pgxmock.NewResult("DELETE", 0))

	assert.NoError(t, store.Remove(context.Background(), "never-written"))
	assert.NoError(t, mock.ExpectationsWereMet())
}
