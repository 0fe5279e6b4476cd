package reconcile

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

type RunKind string

const (
	RunAssets RunKind = "ASSETS"
	RunISBN   RunKind = "ISBN"
	RunCommit RunKind = "COMMIT"
)

const (
	RunStatusRunning   = "RUNNING"
	RunStatusCompleted = "COMPLETED"
	RunStatusFailed    = "FAILED"
)

// Run is the audit row kept for every batch and commit.
type Run struct {
	ID          string
	Kind        RunKind
	StartedAt   time.Time
	FinishedAt  *time.Time
	Status      string // RUNNING, COMPLETED, FAILED
	Units       int
	Matched     int
	Unmatched   int
	QueryFailed int
	Cancelled   int
	Applied     int
	Failed      int
	Error       string
}

func (r *Run) recordCounts(c Counts) {
	r.Units = c.Total
	r.Matched = c.Matched
	r.Unmatched = c.Unmatched
	r.QueryFailed = c.QueryFailed
	r.Cancelled = c.Cancelled
}

func (r *Run) recordCommit(c CommitReport) {
	r.Units = len(c.Entries)
	r.Applied = c.Applied
	r.Failed = c.Failed
}

type RunRepository interface {
	CreateRun(ctx context.Context, run *Run) (string, error)
	UpdateRun(ctx context.Context, run *Run) error
}

type PostgresRunRepo struct {
	db *pgxpool.Pool
}

func NewPostgresRunRepo(db *pgxpool.Pool) *PostgresRunRepo {
	return &PostgresRunRepo{db: db}
}

func (r *PostgresRunRepo) CreateRun(ctx context.Context, run *Run) (string, error) {
	const query = `
		INSERT INTO reconcile_runs (kind, status, started_at)
		VALUES ($1, $2, $3)
		RETURNING id`

	var id string
	err := r.db.QueryRow(ctx, query, string(run.Kind), run.Status, run.StartedAt).Scan(&id)
	return id, err
}

func (r *PostgresRunRepo) UpdateRun(ctx context.Context, run *Run) error {
	const query = `
		UPDATE reconcile_runs SET
			finished_at = $1,
			status = $2,
			units = $3,
			matched = $4,
			unmatched = $5,
			query_failed = $6,
			cancelled = $7,
			applied = $8,
			failed = $9,
			error = $10
		WHERE id = $11`

	_, err := r.db.Exec(ctx, query, run.FinishedAt, run.Status, run.Units, run.Matched, run.Unmatched,
		run.QueryFailed, run.Cancelled, run.Applied, run.Failed, run.Error, run.ID)
	return err
}

type SQLiteRunRepo struct {
	db *sql.DB
}

func NewSQLiteRunRepo(db *sql.DB) *SQLiteRunRepo {
	return &SQLiteRunRepo{db: db}
}

func (r *SQLiteRunRepo) CreateRun(ctx context.Context, run *Run) (string, error) {
	const query = `
		INSERT INTO reconcile_runs (id, kind, status, started_at)
		VALUES (?, ?, ?, ?)`

	id := uuid.NewString()
	if _, err := r.db.ExecContext(ctx, query, id, string(run.Kind), run.Status, run.StartedAt); err != nil {
		return "", err
	}
	return id, nil
}

func (r *SQLiteRunRepo) UpdateRun(ctx context.Context, run *Run) error {
	const query = `
		UPDATE reconcile_runs SET
			finished_at = ?,
			status = ?,
			units = ?,
			matched = ?,
			unmatched = ?,
			query_failed = ?,
			cancelled = ?,
			applied = ?,
			failed = ?,
			error = ?
		WHERE id = ?`

	_, err := r.db.ExecContext(ctx, query, run.FinishedAt, run.Status, run.Units, run.Matched, run.Unmatched,
		run.QueryFailed, run.Cancelled, run.Applied, run.Failed, run.Error, run.ID)
	return err
}
