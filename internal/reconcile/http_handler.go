package reconcile

import (
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"
	"strings"

	"bookshop/internal/httpx"
)

type HTTPHandler struct {
	svc *Service
}

func NewHTTPHandler(svc *Service) *HTTPHandler {
	return &HTTPHandler{svc: svc}
}

// Assets handles POST /internal/reconcile/assets
// @Summary Reconcile asset folder
// @Description List the configured photo folder once and match every file against the catalog
// @Tags internal
// @Produce json
// @Param X-Internal-Secret header string true "Internal secret"
// @Success 200 {object} httpx.SuccessResponse
// @Failure 502 {object} httpx.ErrorResponse
// @Failure 503 {object} httpx.ErrorResponse
// @Router /internal/reconcile/assets [post]
func (h *HTTPHandler) Assets(w http.ResponseWriter, r *http.Request) {
	rep, err := h.svc.ReconcileAssets(r.Context())
	if err != nil {
		writeBatchError(w, r, err)
		return
	}
	httpx.JSONSuccess(w, r, rep, nil)
}

type isbnQuery struct {
	ISBN   string `json:"isbn" validate:"required,isbn"`
	Target string `json:"target"`
}

type isbnRequest struct {
	Queries []isbnQuery `json:"queries" validate:"required,min=1,dive"`
}

type streamLine struct {
	Type   string       `json:"type"`
	Result *MatchResult `json:"result,omitempty"`
	Report *Report      `json:"report,omitempty"`
}

// ISBN handles POST /internal/reconcile/isbn
// @Summary Reconcile ISBN batch
// @Description Look up each ISBN in order. The response is NDJSON: one "result" line per ISBN as soon as it is known, then a "summary" line.
// @Tags internal
// @Accept json,plain,csv
// @Produce x-ndjson
// @Param X-Internal-Secret header string true "Internal secret"
// @Success 200 {string} string "NDJSON stream"
// @Failure 400 {object} httpx.ErrorResponse "Malformed body or invalid ISBN in a JSON body"
// @Router /internal/reconcile/isbn [post]
func (h *HTTPHandler) ISBN(w http.ResponseWriter, r *http.Request) {
	queries, details, err := decodeQueries(r)
	if err != nil {
		httpx.JSONError(w, r, http.StatusBadRequest, "BAD_REQUEST", err.Error(), nil)
		return
	}
	if len(details) > 0 {
		httpx.JSONError(w, r, http.StatusBadRequest, "VALIDATION_ERROR", "invalid request body", details)
		return
	}
	if len(queries) == 0 {
		httpx.JSONError(w, r, http.StatusBadRequest, "BAD_REQUEST", "no ISBNs in request", nil)
		return
	}

	enc := json.NewEncoder(w)
	flusher, _ := w.(http.Flusher)
	started := false
	start := func() {
		if started {
			return
		}
		started = true
		w.Header().Set("Content-Type", "application/x-ndjson")
		w.WriteHeader(http.StatusOK)
	}

	rep, err := h.svc.ReconcileQueries(r.Context(), queries, func(res MatchResult) {
		start()
		_ = enc.Encode(streamLine{Type: "result", Result: &res})
		if flusher != nil {
			flusher.Flush()
		}
	})
	if err != nil {
		if !started {
			writeBatchError(w, r, err)
			return
		}
		_ = enc.Encode(map[string]string{"type": "error", "error": err.Error()})
		return
	}

	start()
	_ = enc.Encode(streamLine{Type: "summary", Report: rep})
}

type commitRequest struct {
	Results []MatchResult `json:"results" validate:"required,min=1,dive"`
}

// Commit handles POST /internal/reconcile/commit
// @Summary Commit approved matches
// @Description Write the given MATCHED results to the catalog in order, stopping at the first failed write
// @Tags internal
// @Accept json
// @Produce json
// @Param X-Internal-Secret header string true "Internal secret"
// @Success 200 {object} httpx.SuccessResponse
// @Failure 400 {object} httpx.ErrorResponse
// @Failure 500 {object} httpx.ErrorResponse
// @Router /internal/reconcile/commit [post]
func (h *HTTPHandler) Commit(w http.ResponseWriter, r *http.Request) {
	var req commitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.JSONError(w, r, http.StatusBadRequest, "BAD_REQUEST", "invalid JSON body", nil)
		return
	}
	if details := httpx.ValidateStruct(req); len(details) > 0 {
		httpx.JSONError(w, r, http.StatusBadRequest, "VALIDATION_ERROR", "invalid request body", details)
		return
	}

	rep, err := h.svc.Commit(r.Context(), req.Results)
	if err != nil {
		var details []httpx.ErrorDetail
		for _, e := range rep.Entries {
			if e.Status == CommitApplied {
				continue
			}
			details = append(details, httpx.ErrorDetail{Field: e.Code, Message: string(e.Status) + ": " + e.Error})
		}
		httpx.JSONError(w, r, http.StatusInternalServerError, "COMMIT_ABORTED", err.Error(), details)
		return
	}

	httpx.JSONSuccess(w, r, rep, nil)
}

// decodeQueries returns validation details instead of an error when a JSON
// body parses but breaks the request rules.
func decodeQueries(r *http.Request) ([]Query, []httpx.ErrorDetail, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch mediaType {
	case "application/json":
		var req isbnRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			return nil, nil, errors.New("invalid JSON body")
		}
		if details := httpx.ValidateStruct(req); len(details) > 0 {
			return nil, details, nil
		}
		qs := newQuerySet()
		for _, q := range req.Queries {
			qs.add(q.ISBN, q.Target)
		}
		return qs.list, nil, nil
	case "text/csv", "text/tab-separated-values":
		queries, err := ReadQueriesCSV(r.Body)
		return queries, nil, err
	}
	body, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, nil, err
	}
	return ParseQueries(strings.TrimSpace(string(body))), nil, nil
}

func writeBatchError(w http.ResponseWriter, r *http.Request, err error) {
	var listErr *BulkListingError
	switch {
	case errors.As(err, &listErr):
		httpx.JSONError(w, r, http.StatusBadGateway, "ASSET_LISTING_FAILED", err.Error(), nil)
	case errors.Is(err, ErrNotConfigured):
		httpx.JSONError(w, r, http.StatusServiceUnavailable, "NOT_CONFIGURED", err.Error(), nil)
	default:
		httpx.JSONError(w, r, http.StatusInternalServerError, "RECONCILE_FAILED", err.Error(), nil)
	}
}
