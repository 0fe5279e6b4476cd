package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bookshop/internal/catalog"
	"bookshop/internal/reconcile"
	"bookshop/internal/storage"
)

const testSecret = "s3cret"

type stubLookup map[string]reconcile.Metadata

func (s stubLookup) Lookup(_ context.Context, isbn string) (reconcile.Metadata, error) {
	md, ok := s[isbn]
	if !ok {
		return reconcile.Metadata{}, errors.New("isbn not found")
	}
	return md, nil
}

type downDB struct{}

func (downDB) Ping(context.Context) error { return errors.New("connection refused") }

func newTestServer(t *testing.T, lookup reconcile.MetadataLookup) (http.Handler, *storage.Store) {
	t.Helper()
	ctx := context.Background()
	store, err := storage.Open(ctx, "sqlite://"+filepath.Join(t.TempDir(), "shop.db"))
	require.NoError(t, err)
	t.Cleanup(store.Close)

	require.NoError(t, store.Catalog.Upsert(ctx, catalog.Record{Code: "A621", Kind: catalog.KindBook, Title: "Dune"}))
	require.NoError(t, store.Catalog.Upsert(ctx, catalog.Record{Code: "M10", Kind: catalog.KindItem, Title: "Tote"}))

	svc := reconcile.NewService(store.Catalog, nil, lookup, store.Runs, reconcile.Config{}, zerolog.Nop())
	return newRouter(store, svc, testSecret, zerolog.Nop()), store
}

func TestRouter_Health(t *testing.T) {
	router, _ := newTestServer(t, nil)

	for path, body := range map[string]string{"/healthz": "ok", "/readyz": "ready"} {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusOK, rec.Code, path)
		assert.Equal(t, body, rec.Body.String(), path)
		assert.NotEmpty(t, rec.Header().Get("X-Request-ID"), path)
	}
}

func TestRouter_ReadyzReportsDatabaseDown(t *testing.T) {
	router := buildRouter(downDB{}, catalog.NewService(nil), nil, "", zerolog.Nop())

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestRouter_Catalog(t *testing.T) {
	router, _ := newTestServer(t, nil)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/catalog/items/M10", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"title":"Tote"`)
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/catalog/books", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestRouter_InternalRoutesRequireSecret(t *testing.T) {
	router, _ := newTestServer(t, nil)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/internal/reconcile/assets", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest(http.MethodPost, "/internal/reconcile/assets", nil)
	req.Header.Set("X-Internal-Secret", testSecret)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "NOT_CONFIGURED")
}

func TestRouter_ISBNThenCommit(t *testing.T) {
	router, store := newTestServer(t, stubLookup{
		"9780441013593": {ISBN: "9780441013593", Title: "Dune", Author: "Frank Herbert", PublishedYear: 1965, Source: "stub"},
	})

	req := httptest.NewRequest(http.MethodPost, "/internal/reconcile/isbn",
		strings.NewReader("9780441013593,A621\n0000000000,A621\n"))
	req.Header.Set("Content-Type", "text/csv")
	req.Header.Set("X-Internal-Secret", testSecret)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/x-ndjson", rec.Header().Get("Content-Type"))

	var (
		results []reconcile.MatchResult
		summary bool
	)
	sc := bufio.NewScanner(rec.Body)
	for sc.Scan() {
		var line struct {
			Type   string                 `json:"type"`
			Result *reconcile.MatchResult `json:"result"`
		}
		require.NoError(t, json.Unmarshal(sc.Bytes(), &line))
		switch line.Type {
		case "result":
			results = append(results, *line.Result)
		case "summary":
			summary = true
		}
	}
	require.Len(t, results, 2)
	assert.True(t, summary)
	assert.Equal(t, reconcile.Matched, results[0].Disposition)
	assert.Equal(t, reconcile.QueryFailed, results[1].Disposition)

	body, err := json.Marshal(map[string]any{"results": results})
	require.NoError(t, err)
	req = httptest.NewRequest(http.MethodPost, "/internal/reconcile/commit", strings.NewReader(string(body)))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Internal-Secret", testSecret)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	got, err := store.Catalog.GetByCode(context.Background(), catalog.KindBook, "A621")
	require.NoError(t, err)
	assert.Equal(t, "Frank Herbert", got.Author)
	assert.Equal(t, "Dune", got.Title)
}

func TestRedactDSN(t *testing.T) {
	assert.Equal(t, "postgres://***@db:5432/shop", redactDSN("postgres://u:p@db:5432/shop"))
	assert.Equal(t, "sqlite://shop.db", redactDSN("sqlite://shop.db"))
}
