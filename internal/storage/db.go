// Package storage opens the local metadata database and runs its
// migrations. SQLite is the default; a postgres:// DSN selects PostgreSQL
// for shared daemon deployments.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"

	"github.com/dmitrijs2005/cargotrack/internal/dbx"
	"github.com/dmitrijs2005/cargotrack/internal/filex"
	"github.com/dmitrijs2005/cargotrack/internal/storage/metadata"
	"github.com/dmitrijs2005/cargotrack/internal/storage/migrations"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"
)

type DB struct {
	conn     *sql.DB
	dialect  metadata.Dialect
	Metadata metadata.Repository
}

var (
	gooseMu sync.Mutex
	gooseUp = goose.UpContext
)

// Open connects to dsn and applies pending migrations.
func Open(ctx context.Context, dsn string) (*DB, error) {
	driver, source, dialect := parseDSN(dsn)
	if dialect == metadata.SQLite {
		if _, err := filex.EnsureParentDir(source); err != nil {
			return nil, err
		}
	}

	conn, err := sql.Open(driver, source)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}
	if dialect == metadata.SQLite {
		conn.SetMaxOpenConns(1)
	}

	if err := RunMigrations(ctx, conn, dialect); err != nil {
		_ = conn.Close()
		return nil, err
	}

	return &DB{
		conn:     conn,
		dialect:  dialect,
		Metadata: metadata.NewSQLRepository(conn, dialect),
	}, nil
}

func RunMigrations(ctx context.Context, conn *sql.DB, dialect metadata.Dialect) error {
	gooseMu.Lock()
	defer gooseMu.Unlock()

	goose.SetBaseFS(migrations.FS)
	goose.SetLogger(goose.NopLogger())

	name, dir := "sqlite3", "sqlite"
	if dialect == metadata.Postgres {
		name, dir = "postgres", "postgres"
	}
	if err := goose.SetDialect(name); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}
	if err := gooseUp(ctx, conn, dir); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}

func parseDSN(dsn string) (driver, source string, dialect metadata.Dialect) {
	switch {
	case strings.HasPrefix(dsn, "postgres://"), strings.HasPrefix(dsn, "postgresql://"):
		return "pgx", dsn, metadata.Postgres
	case strings.HasPrefix(dsn, "sqlite://"):
		return "sqlite", strings.TrimPrefix(dsn, "sqlite://"), metadata.SQLite
	default:
		return "sqlite", dsn, metadata.SQLite
	}
}

func (d *DB) Conn() *sql.DB {
	return d.conn
}

func (d *DB) Close() error {
	return d.conn.Close()
}

// DeleteKeys removes several metadata keys in one transaction.
func (d *DB) DeleteKeys(ctx context.Context, keys ...string) error {
	return dbx.WithTx(ctx, d.conn, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := metadata.NewSQLRepository(tx, d.dialect)
		for _, k := range keys {
			if err := repo.Delete(ctx, k); err != nil {
				return err
			}
		}
		return nil
	})
}
