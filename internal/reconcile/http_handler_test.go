package reconcile

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"bookshop/internal/catalog"
	"bookshop/internal/httpx"
	"bookshop/internal/testutil"
)

func TestHTTPHandler_ISBN_Streams(t *testing.T) {
	lookup := new(mockLookup)
	lookup.On("Lookup", mock.Anything, "9780441013593").Return(Metadata{ISBN: "9780441013593", Title: "One"}, nil)
	lookup.On("Lookup", mock.Anything, "9780141439518").Return(Metadata{}, errors.New("not found"))
	lookup.On("Lookup", mock.Anything, "0306406152").Return(Metadata{ISBN: "0306406152", Title: "Three"}, nil)

	h := NewHTTPHandler(NewService(newMemStore(), nil, lookup, nil, Config{}, zerolog.Nop()))

	req := httptest.NewRequest(http.MethodPost, "/internal/reconcile/isbn", strings.NewReader("9780441013593\n9780141439518;0306406152"))
	req.Header.Set("Content-Type", "text/plain")
	rec := httptest.NewRecorder()
	h.ISBN(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/x-ndjson", rec.Header().Get("Content-Type"))
	assert.True(t, rec.Flushed)

	var lines []map[string]json.RawMessage
	sc := bufio.NewScanner(rec.Body)
	for sc.Scan() {
		var line map[string]json.RawMessage
		require.NoError(t, json.Unmarshal(sc.Bytes(), &line))
		lines = append(lines, line)
	}
	require.Len(t, lines, 4)

	var dispositions []Disposition
	for _, line := range lines[:3] {
		assert.JSONEq(t, `"result"`, string(line["type"]))
		var res MatchResult
		require.NoError(t, json.Unmarshal(line["result"], &res))
		dispositions = append(dispositions, res.Disposition)
	}
	assert.Equal(t, []Disposition{Unmatched, QueryFailed, Unmatched}, dispositions)

	assert.JSONEq(t, `"summary"`, string(lines[3]["type"]))
	var rep Report
	require.NoError(t, json.Unmarshal(lines[3]["report"], &rep))
	assert.Equal(t, 2, rep.Counts().LookupsSucceeded)
	assert.Equal(t, 1, rep.Counts().LookupsFailed)
}

func TestHTTPHandler_ISBN_JSONBody(t *testing.T) {
	lookup := new(mockLookup)
	lookup.On("Lookup", mock.Anything, "9780441013593").Return(Metadata{ISBN: "9780441013593", Title: "One"}, nil).Once()
	h := NewHTTPHandler(NewService(newMemStore(book("A1", "One", "")), nil, lookup, nil, Config{}, zerolog.Nop()))

	body := `{"queries": [{"isbn": "9780441013593", "target": "A1"}]}`
	req := httptest.NewRequest(http.MethodPost, "/internal/reconcile/isbn", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json; charset=utf-8")
	rec := httptest.NewRecorder()
	h.ISBN(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"disposition":"MATCHED"`)
	lookup.AssertExpectations(t)
}

func TestHTTPHandler_ISBN_Validation(t *testing.T) {
	tests := []struct {
		name  string
		body  string
		field string
	}{
		{name: "malformed isbn", body: `{"queries": [{"isbn": "9780441013593"}, {"isbn": "97804410"}]}`, field: "queries[1].isbn"},
		{name: "blank isbn", body: `{"queries": [{"isbn": " "}]}`, field: "queries[0].isbn"},
		{name: "missing isbn", body: `{"queries": [{"target": "A1"}]}`, field: "queries[0].isbn"},
		{name: "no queries", body: `{"queries": []}`, field: "queries"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lookup := new(mockLookup)
			h := NewHTTPHandler(NewService(newMemStore(), nil, lookup, nil, Config{}, zerolog.Nop()))

			req := httptest.NewRequest(http.MethodPost, "/internal/reconcile/isbn", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")
			rec := httptest.NewRecorder()
			h.ISBN(rec, req)

			require.Equal(t, http.StatusBadRequest, rec.Code)
			var resp httpx.ErrorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.Equal(t, "VALIDATION_ERROR", resp.Error.Code)
			require.NotEmpty(t, resp.Error.Details)
			assert.Equal(t, tt.field, resp.Error.Details[0].Field)
			lookup.AssertNotCalled(t, "Lookup", mock.Anything, mock.Anything)
		})
	}
}

func TestHTTPHandler_ISBN_PlainTextInvalidIsFailedUnit(t *testing.T) {
	lookup := new(mockLookup)
	lookup.On("Lookup", mock.Anything, "9780441013593").Return(Metadata{ISBN: "9780441013593", Title: "Dune"}, nil).Once()
	h := NewHTTPHandler(NewService(newMemStore(), nil, lookup, nil, Config{}, zerolog.Nop()))

	req := httptest.NewRequest(http.MethodPost, "/internal/reconcile/isbn", strings.NewReader("not-an-isbn\n9780441013593"))
	req.Header.Set("Content-Type", "text/plain")
	rec := httptest.NewRecorder()
	h.ISBN(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"disposition":"QUERY_FAILED","reason":"invalid ISBN"`)
	lookup.AssertExpectations(t)
}

func TestHTTPHandler_ISBN_Empty(t *testing.T) {
	h := NewHTTPHandler(NewService(newMemStore(), nil, new(mockLookup), nil, Config{}, zerolog.Nop()))

	req := httptest.NewRequest(http.MethodPost, "/internal/reconcile/isbn", strings.NewReader(" \n "))
	rec := httptest.NewRecorder()
	h.ISBN(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHTTPHandler_Assets(t *testing.T) {
	t.Run("listing failure is a bad gateway", func(t *testing.T) {
		assets := new(mockAssets)
		assets.On("ListAssets", mock.Anything, "", DefaultAssetMaxResults).Return(nil, errors.New("quota"))
		h := NewHTTPHandler(NewService(newMemStore(), assets, nil, nil, Config{}, zerolog.Nop()))

		rec := httptest.NewRecorder()
		h.Assets(rec, httptest.NewRequest(http.MethodPost, "/internal/reconcile/assets", nil))

		assert.Equal(t, http.StatusBadGateway, rec.Code)
		var resp httpx.ErrorResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "ASSET_LISTING_FAILED", resp.Error.Code)
	})

	t.Run("not configured", func(t *testing.T) {
		h := NewHTTPHandler(NewService(newMemStore(), nil, nil, nil, Config{}, zerolog.Nop()))

		rec := httptest.NewRecorder()
		h.Assets(rec, httptest.NewRequest(http.MethodPost, "/internal/reconcile/assets", nil))

		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	})
}

func TestHTTPHandler_Commit(t *testing.T) {
	store := newMemStore(book("A621", "Dune", ""), book("A622", "Emma", ""))
	store.failOn["A622"] = errors.New("disk full")
	h := NewHTTPHandler(NewService(store, nil, nil, nil, Config{}, zerolog.Nop()))

	selected := assetMatches(t, store, "A621.jpg", "A622.jpg")
	body, err := json.Marshal(commitRequest{Results: selected})
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	h.Commit(rec, httptest.NewRequest(http.MethodPost, "/internal/reconcile/commit", strings.NewReader(string(body))))

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	var resp httpx.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "COMMIT_ABORTED", resp.Error.Code)
	require.Len(t, resp.Error.Details, 1)
	assert.Equal(t, "A622", resp.Error.Details[0].Field)
	assert.Contains(t, resp.Error.Details[0].Message, "disk full")

	got, err := store.GetByCode(context.Background(), catalog.KindBook, "A621")
	require.NoError(t, err)
	assert.Equal(t, "https://drive/A621.jpg", got.ImageURL)
}

func TestHTTPHandler_CommitApplied(t *testing.T) {
	store := newMemStore(book("A621", "Dune", ""))
	h := NewHTTPHandler(NewService(store, nil, nil, nil, Config{}, zerolog.Nop()))

	rec := httptest.NewRecorder()
	h.Commit(rec, testutil.NewRequest(http.MethodPost, "/internal/reconcile/commit",
		commitRequest{Results: assetMatches(t, store, "A621_2.jpg")}))

	resp := testutil.RecordHTTPResponse(rec)
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, true, resp.Body["success"])
	data, ok := resp.Body["data"].(map[string]any)
	require.True(t, ok)
	assert.EqualValues(t, 1, data["applied"])

	rec = httptest.NewRecorder()
	h.Commit(rec, testutil.NewRequest(http.MethodPost, "/internal/reconcile/commit", commitRequest{}))
	assert.Equal(t, http.StatusBadRequest, testutil.RecordHTTPResponse(rec).Code)
}

func TestHTTPHandler_CommitValidation(t *testing.T) {
	tests := []struct {
		name  string
		body  string
		field string
	}{
		{name: "unknown kind", body: `{"results": [{"unit": "asset", "code": "A621", "kind": "dvd", "disposition": "MATCHED"}]}`, field: "results[0].kind"},
		{name: "matched without code", body: `{"results": [{"unit": "asset", "kind": "book", "disposition": "MATCHED"}]}`, field: "results[0].code"},
		{name: "unknown disposition", body: `{"results": [{"unit": "asset", "code": "A621", "disposition": "DONE"}]}`, field: "results[0].disposition"},
		{name: "missing unit", body: `{"results": [{"code": "A621", "kind": "book", "disposition": "MATCHED"}]}`, field: "results[0].unit"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newMemStore(book("A621", "Dune", ""))
			h := NewHTTPHandler(NewService(store, nil, nil, nil, Config{}, zerolog.Nop()))

			rec := httptest.NewRecorder()
			h.Commit(rec, httptest.NewRequest(http.MethodPost, "/internal/reconcile/commit", strings.NewReader(tt.body)))

			require.Equal(t, http.StatusBadRequest, rec.Code)
			var resp httpx.ErrorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.Equal(t, "VALIDATION_ERROR", resp.Error.Code)
			require.Len(t, resp.Error.Details, 1)
			assert.Equal(t, tt.field, resp.Error.Details[0].Field)
			assert.Empty(t, store.writes)
		})
	}
}
