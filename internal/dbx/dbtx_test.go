package dbx

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

func openMetadataDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", "file:"+t.Name()+"?mode=memory&cache=shared")
	require.NoError(t, err)
	db.SetMaxOpenConns(2)
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.Exec(`CREATE TABLE IF NOT EXISTS metadata (key TEXT PRIMARY KEY, value BLOB NOT NULL)`)
	require.NoError(t, err)
	return db
}

func keys(t *testing.T, db *sql.DB) int {
	t.Helper()
	var n int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM metadata`).Scan(&n))
	return n
}

func putSession(ctx context.Context, tx DBTX) error {
	_, err := tx.ExecContext(ctx, `INSERT INTO metadata(key, value) VALUES ('current_user', '{}')`)
	return err
}

func TestWithTx_Commit(t *testing.T) {
	db := openMetadataDB(t)

	require.NoError(t, WithTx(context.Background(), db, nil, putSession))
	require.Equal(t, 1, keys(t, db))
}

func TestWithTx_RollbackOnError(t *testing.T) {
	db := openMetadataDB(t)
	errStop := errors.New("stop")

	err := WithTx(context.Background(), db, nil, func(ctx context.Context, tx DBTX) error {
		require.NoError(t, putSession(ctx, tx))
		return errStop
	})
	require.ErrorIs(t, err, errStop)
	require.Zero(t, keys(t, db))
}

func TestWithTx_RollbackOnPanic(t *testing.T) {
	db := openMetadataDB(t)

	require.Panics(t, func() {
		_ = WithTx(context.Background(), db, nil, func(ctx context.Context, tx DBTX) error {
			require.NoError(t, putSession(ctx, tx))
			panic("write aborted")
		})
	})
	require.Zero(t, keys(t, db))
}

func TestWithTx_ClosedDB(t *testing.T) {
	db := openMetadataDB(t)
	require.NoError(t, db.Close())

	err := WithTx(context.Background(), db, nil, putSession)
	require.Error(t, err)
}

type failingBeginner struct{ err error }

func (b failingBeginner) BeginTx(context.Context, *sql.TxOptions) (*sql.Tx, error) {
	return nil, b.err
}

func TestWithTx_WrapsBeginError(t *testing.T) {
	cause := errors.New("pool exhausted")
	called := false

	err := WithTx(context.Background(), failingBeginner{err: cause}, nil, func(context.Context, DBTX) error {
		called = true
		return nil
	})
	require.ErrorIs(t, err, cause)
	require.Contains(t, err.Error(), "begin tx")
	require.False(t, called)
}
