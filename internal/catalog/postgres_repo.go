package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var _ Repository = (*PostgresRepo)(nil)

type PostgresRepo struct {
	db *pgxpool.Pool
}

func NewPostgresRepo(db *pgxpool.Pool) *PostgresRepo {
	return &PostgresRepo{db: db}
}

func (r *PostgresRepo) List(ctx context.Context, kind Kind) ([]Record, error) {
	query, err := selectSQL(postgresDialect, kind, false)
	if err != nil {
		return nil, err
	}
	rows, err := r.db.Query(ctx, query)
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

func (r *PostgresRepo) ListAfter(ctx context.Context, kind Kind, afterCode string, limit int) ([]Record, error) {
	query, err := pageSQL(postgresDialect, kind)
	if err != nil {
		return nil, err
	}
	rows, err := r.db.Query(ctx, query, afterCode, limit)
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

func (r *PostgresRepo) Count(ctx context.Context, kind Kind) (int, error) {
	query, err := countSQL(kind)
	if err != nil {
		return 0, err
	}
	var n int
	if err := r.db.QueryRow(ctx, query).Scan(&n); err != nil {
		return 0, fmt.Errorf("count %s: %w", kind, err)
	}
	return n, nil
}

func (r *PostgresRepo) GetByCode(ctx context.Context, kind Kind, code string) (Record, error) {
	query, err := selectSQL(postgresDialect, kind, true)
	if err != nil {
		return Record{}, err
	}
	rec, err := scanRecord(kind, r.db.QueryRow(ctx, query, code))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Record{}, fmt.Errorf("%w: %s %s", ErrNotFound, kind, code)
		}
		return Record{}, err
	}
	return rec, nil
}

func (r *PostgresRepo) Update(ctx context.Context, kind Kind, code string, patch Patch) (Record, error) {
	query, args, err := updateSQL(postgresDialect, kind, code, patch)
	if err != nil {
		return Record{}, err
	}
	if _, err := r.db.Exec(ctx, query, args...); err != nil {
		return Record{}, fmt.Errorf("update %s %s: %w", kind, code, err)
	}
	// Zero affected rows means either nothing changed or the code is unknown;
	// the read-back tells the two apart.
	return r.GetByCode(ctx, kind, code)
}

func (r *PostgresRepo) Upsert(ctx context.Context, rec Record) error {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	query, args, err := upsertSQL(postgresDialect, rec)
	if err != nil {
		return err
	}
	if _, err := r.db.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert %s %s: %w", rec.Kind, rec.Code, err)
	}
	return nil
}
