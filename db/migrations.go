// Package db embeds the goose migrations for both supported databases.
package db

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"path"

	"github.com/pressly/goose/v3"
)

//go:embed migrations/*/*.sql
var Migrations embed.FS

const (
	DialectPostgres = "postgres"
	DialectSQLite   = "sqlite3"
)

// Dir is the migrations directory for a goose dialect, relative to the
// embedded FS and to the repository root.
func Dir(dialect string) (string, error) {
	switch dialect {
	case DialectPostgres:
		return path.Join("migrations", "postgres"), nil
	case DialectSQLite:
		return path.Join("migrations", "sqlite"), nil
	}
	return "", fmt.Errorf("unsupported migration dialect %q", dialect)
}

// Up applies every pending embedded migration.
func Up(ctx context.Context, conn *sql.DB, dialect string) error {
	dir, err := Dir(dialect)
	if err != nil {
		return err
	}
	goose.SetBaseFS(Migrations)
	defer goose.SetBaseFS(nil)
	if err := goose.SetDialect(dialect); err != nil {
		return err
	}
	goose.SetLogger(goose.NopLogger())
	return goose.UpContext(ctx, conn, dir)
}
