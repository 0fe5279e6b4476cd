package reconcile

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"bookshop/db"
	"bookshop/internal/testutil"
)

func TestRun_RecordCounts(t *testing.T) {
	run := &Run{Kind: RunISBN}
	run.recordCounts(Counts{Total: 4, Matched: 1, Unmatched: 1, QueryFailed: 1, Cancelled: 1})
	assert.Equal(t, 4, run.Units)
	assert.Equal(t, 1, run.Matched)
	assert.Equal(t, 1, run.Cancelled)

	run = &Run{Kind: RunCommit}
	run.recordCommit(CommitReport{Applied: 2, Failed: 1, Skipped: 3})
	assert.Equal(t, 2, run.Applied)
	assert.Equal(t, 1, run.Failed)
}

func exerciseRunRepo(t *testing.T, repo RunRepository) string {
	t.Helper()
	ctx := context.Background()

	run := &Run{Kind: RunAssets, Status: RunStatusRunning, StartedAt: time.Now().UTC()}
	id, err := repo.CreateRun(ctx, run)
	require.NoError(t, err)
	require.NotEmpty(t, id)

	finished := time.Now().UTC()
	run.ID = id
	run.FinishedAt = &finished
	run.Status = RunStatusFailed
	run.Units = 7
	run.Matched = 5
	run.Error = "asset listing failed"
	require.NoError(t, repo.UpdateRun(ctx, run))
	return id
}

func TestSQLiteRunRepo(t *testing.T) {
	conn, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "runs.db"))
	require.NoError(t, err)
	conn.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = conn.Close() })
	require.NoError(t, db.Up(context.Background(), conn, db.DialectSQLite))

	id := exerciseRunRepo(t, NewSQLiteRunRepo(conn))

	var (
		status string
		units  int
		msg    string
	)
	require.NoError(t, conn.QueryRow("SELECT status, units, error FROM reconcile_runs WHERE id = ?", id).Scan(&status, &units, &msg))
	assert.Equal(t, RunStatusFailed, status)
	assert.Equal(t, 7, units)
	assert.Equal(t, "asset listing failed", msg)
}

func TestPostgresRunRepo(t *testing.T) {
	pool := testutil.PostgresPool(t)

	id := exerciseRunRepo(t, NewPostgresRunRepo(pool))

	var (
		status  string
		matched int
	)
	require.NoError(t, pool.QueryRow(context.Background(),
		"SELECT status, matched FROM reconcile_runs WHERE id = $1", id).Scan(&status, &matched))
	assert.Equal(t, RunStatusFailed, status)
	assert.Equal(t, 5, matched)
}
