package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

var _ Repository = (*SQLiteRepo)(nil)

// SQLiteRepo serves the same contract from a local database file, used for
// offline work and tests. The *sql.DB must be opened with the modernc driver.
type SQLiteRepo struct {
	db *sql.DB
}

func NewSQLiteRepo(db *sql.DB) *SQLiteRepo {
	return &SQLiteRepo{db: db}
}

func (r *SQLiteRepo) List(ctx context.Context, kind Kind) ([]Record, error) {
	query, err := selectSQL(sqliteDialect, kind, false)
	if err != nil {
		return nil, err
	}
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", kind, err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		rec, err := scanRecord(kind, rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (r *SQLiteRepo) ListAfter(ctx context.Context, kind Kind, afterCode string, limit int) ([]Record, error) {
	query, err := pageSQL(sqliteDialect, kind)
	if err != nil {
		return nil, err
	}
	rows, err := r.db.QueryContext(ctx, query, afterCode, limit)
	if err != nil {
		return nil, fmt.Errorf("list %s page: %w", kind, err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		rec, err := scanRecord(kind, rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (r *SQLiteRepo) Count(ctx context.Context, kind Kind) (int, error) {
	query, err := countSQL(kind)
	if err != nil {
		return 0, err
	}
	var n int
	if err := r.db.QueryRowContext(ctx, query).Scan(&n); err != nil {
		return 0, fmt.Errorf("count %s: %w", kind, err)
	}
	return n, nil
}

func (r *SQLiteRepo) GetByCode(ctx context.Context, kind Kind, code string) (Record, error) {
	query, err := selectSQL(sqliteDialect, kind, true)
	if err != nil {
		return Record{}, err
	}
	rec, err := scanRecord(kind, r.db.QueryRowContext(ctx, query, code))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Record{}, fmt.Errorf("%w: %s %s", ErrNotFound, kind, code)
		}
		return Record{}, err
	}
	return rec, nil
}

func (r *SQLiteRepo) Update(ctx context.Context, kind Kind, code string, patch Patch) (Record, error) {
	query, args, err := updateSQL(sqliteDialect, kind, code, patch)
	if err != nil {
		return Record{}, err
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return Record{}, fmt.Errorf("update %s %s: %w", kind, code, err)
	}
	return r.GetByCode(ctx, kind, code)
}

func (r *SQLiteRepo) Upsert(ctx context.Context, rec Record) error {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	query, args, err := upsertSQL(sqliteDialect, rec)
	if err != nil {
		return err
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert %s %s: %w", rec.Kind, rec.Code, err)
	}
	return nil
}
