package catalog

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
)

func newSQLiteRepo(t *testing.T) (*SQLiteRepo, *sql.DB) {
	t.Helper()
	conn, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "catalog.db"))
	require.NoError(t, err)
	conn.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = conn.Close() })
	require.NoError(t, db.Up(context.Background(), conn, db.DialectSQLite))
	return NewSQLiteRepo(conn), conn
}

func strPtr(s string) *string { return &s }

func TestSQLiteRepo(t *testing.T) {
	ctx := context.Background()
	repo, conn := newSQLiteRepo(t)

	require.NoError(t, repo.Upsert(ctx, Record{Code: "A622", Kind: KindBook, Title: "Emma", Author: "Jane Austen"}))
	require.NoError(t, repo.Upsert(ctx, Record{Code: "A621", Kind: KindBook, Title: "Dune"}))
	require.NoError(t, repo.Upsert(ctx, Record{Code: "M10", Kind: KindItem, Title: "Tote", Category: "bags", PriceCents: 1500}))

	t.Run("list is ordered by code", func(t *testing.T) {
		books, err := repo.List(ctx, KindBook)
		require.NoError(t, err)
		require.Len(t, books, 2)
		assert.Equal(t, "A621", books[0].Code)
		assert.Equal(t, KindBook, books[0].Kind)
		assert.NotEmpty(t, books[0].ID)

		items, err := repo.List(ctx, KindItem)
		require.NoError(t, err)
		require.Len(t, items, 1)
		assert.Equal(t, "bags", items[0].Category)
		assert.Equal(t, int64(1500), items[0].PriceCents)
	})

	t.Run("pages after a code", func(t *testing.T) {
		page, err := repo.ListAfter(ctx, KindBook, "", 1)
		require.NoError(t, err)
		require.Len(t, page, 1)
		assert.Equal(t, "A621", page[0].Code)

		page, err = repo.ListAfter(ctx, KindBook, "A621", 10)
		require.NoError(t, err)
		require.Len(t, page, 1)
		assert.Equal(t, "A622", page[0].Code)

		n, err := repo.Count(ctx, KindItem)
		require.NoError(t, err)
		assert.Equal(t, 1, n)
	})

	t.Run("kinds are separate collections", func(t *testing.T) {
		_, err := repo.GetByCode(ctx, KindItem, "A621")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("update sets only patched fields", func(t *testing.T) {
		rec, err := repo.Update(ctx, KindBook, "A621", Patch{ImageURL: strPtr("https://drive/1")})
		require.NoError(t, err)
		assert.Equal(t, "https://drive/1", rec.ImageURL)
		assert.Equal(t, "Dune", rec.Title)
	})

	t.Run("multi-field update writes every column", func(t *testing.T) {
		year := 1965
		rec, err := repo.Update(ctx, KindBook, "A622", Patch{Author: strPtr("Jane Austen"), Publisher: strPtr("Penguin"), PublishedYear: &year})
		require.NoError(t, err)
		assert.Equal(t, "Penguin", rec.Publisher)
		assert.Equal(t, 1965, rec.PublishedYear)

		stored, err := repo.GetByCode(ctx, KindBook, "A622")
		require.NoError(t, err)
		assert.Equal(t, "Penguin", stored.Publisher)
	})

	t.Run("repeating an update changes nothing", func(t *testing.T) {
		_, err := conn.ExecContext(ctx, "UPDATE books SET updated_at = ? WHERE code = ?", "2020-01-01 00:00:00", "A621")
		require.NoError(t, err)
		before, err := repo.GetByCode(ctx, KindBook, "A621")
		require.NoError(t, err)

		after, err := repo.Update(ctx, KindBook, "A621", Patch{ImageURL: strPtr("https://drive/1")})
		require.NoError(t, err)
		assert.Equal(t, before, after)
		assert.Equal(t, 2020, after.UpdatedAt.Year())

		changed, err := repo.Update(ctx, KindBook, "A621", Patch{ImageURL: strPtr("https://drive/2")})
		require.NoError(t, err)
		assert.True(t, changed.UpdatedAt.After(time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC)))
	})

	t.Run("unknown code", func(t *testing.T) {
		_, err := repo.Update(ctx, KindBook, "Z9", Patch{ImageURL: strPtr("x")})
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("items reject book fields", func(t *testing.T) {
		_, err := repo.Update(ctx, KindItem, "M10", Patch{Author: strPtr("x")})
		assert.ErrorIs(t, err, ErrUnsupportedField)
	})

	t.Run("upsert keeps the code unique", func(t *testing.T) {
		require.NoError(t, repo.Upsert(ctx, Record{Code: "A622", Kind: KindBook, Title: "Emma (2nd ed.)"}))
		books, err := repo.List(ctx, KindBook)
		require.NoError(t, err)
		assert.Len(t, books, 2)
		assert.Equal(t, "Emma (2nd ed.)", books[1].Title)
	})
}
