package metadata

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/cargotrack/internal/dbx"
)

// Dialect selects the placeholder and upsert syntax.
type Dialect int

const (
	SQLite Dialect = iota
	Postgres
)

type queries struct {
	get, set, del string
}

var dialectQueries = map[Dialect]queries{
	SQLite: {
		get: `SELECT value FROM metadata WHERE key = ?`,
		set: `
		INSERT INTO metadata (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`,
		del: `DELETE FROM metadata WHERE key = ?`,
	},
	Postgres: {
		get: `SELECT value FROM metadata WHERE key = $1`,
		set: `
		INSERT INTO metadata (key, value) VALUES ($1, $2)
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value
	`,
		del: `DELETE FROM metadata WHERE key = $1`,
	},
}

// SQLRepository implements Repository on top of database/sql for both
// supported dialects.
type SQLRepository struct {
	db dbx.DBTX
	q  queries
}

func NewSQLRepository(db dbx.DBTX, d Dialect) *SQLRepository {
	return &SQLRepository{db: db, q: dialectQueries[d]}
}

func (r *SQLRepository) Get(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	err := r.db.QueryRowContext(ctx, r.q.get, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get metadata[%s]: %w", key, err)
	}
	return value, nil
}

func (r *SQLRepository) Set(ctx context.Context, key string, value []byte) error {
	if value == nil {
		value = []byte{}
	}
	_, err := r.db.ExecContext(ctx, r.q.set, key, value)
	if err != nil {
		return fmt.Errorf("failed to set metadata[%s]: %w", key, err)
	}
	return nil
}

func (r *SQLRepository) Delete(ctx context.Context, key string) error {
	_, err := r.db.ExecContext(ctx, r.q.del, key)
	if err != nil {
		return fmt.Errorf("failed to delete metadata[%s]: %w", key, err)
	}
	return nil
}
