// Package storage opens the catalog database named by a DSN: a postgres URL
// for the shop, or sqlite://path for a local working copy.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"

	"bookshop/db"
	"bookshop/internal/catalog"
	"bookshop/internal/reconcile"
)

const sqliteScheme = "sqlite://"

var ErrUnsupportedDSN = errors.New("unsupported database DSN")

// Store bundles the repositories backed by one database.
type Store struct {
	Catalog catalog.Repository
	Runs    reconcile.RunRepository
	Dialect string

	// SQL is a database/sql handle on the same database, for migrations.
	SQL *sql.DB

	pool *pgxpool.Pool
}

// Open connects and verifies the connection. SQLite files are migrated on
// open; postgres is migrated explicitly with cmd/migrate.
func Open(ctx context.Context, dsn string) (*Store, error) {
	switch {
	case strings.HasPrefix(dsn, "postgres://"), strings.HasPrefix(dsn, "postgresql://"):
		return openPostgres(ctx, dsn)
	case strings.HasPrefix(dsn, sqliteScheme):
		return openSQLite(ctx, strings.TrimPrefix(dsn, sqliteScheme))
	}
	return nil, fmt.Errorf("%w: %q", ErrUnsupportedDSN, redact(dsn))
}

func openPostgres(ctx context.Context, dsn string) (*Store, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return &Store{
		Catalog: catalog.NewPostgresRepo(pool),
		Runs:    reconcile.NewPostgresRunRepo(pool),
		Dialect: db.DialectPostgres,
		SQL:     stdlib.OpenDBFromPool(pool),
		pool:    pool,
	}, nil
}

func openSQLite(ctx context.Context, path string) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("%w: sqlite path is empty", ErrUnsupportedDSN)
	}
	conn, err := sql.Open("sqlite", path+"?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// One writer; avoids SQLITE_BUSY between the batch and its audit row.
	conn.SetMaxOpenConns(1)

	if err := conn.PingContext(ctx); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}
	if err := db.Up(ctx, conn, db.DialectSQLite); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("migrate sqlite: %w", err)
	}
	return &Store{
		Catalog: catalog.NewSQLiteRepo(conn),
		Runs:    reconcile.NewSQLiteRunRepo(conn),
		Dialect: db.DialectSQLite,
		SQL:     conn,
	}, nil
}

func (s *Store) Ping(ctx context.Context) error {
	if s.pool != nil {
		return s.pool.Ping(ctx)
	}
	return s.SQL.PingContext(ctx)
}

func (s *Store) Close() {
	_ = s.SQL.Close()
	if s.pool != nil {
		s.pool.Close()
	}
}

func redact(dsn string) string {
	if i := strings.Index(dsn, "@"); i >= 0 {
		return "***" + dsn[i:]
	}
	return dsn
}
