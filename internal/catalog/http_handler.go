package catalog

import (
	"errors"
	"net/http"
	"strconv"

	"bookshop/internal/httpx"
)

type HTTPHandler struct {
	svc *Service
}

func NewHTTPHandler(svc *Service) *HTTPHandler {
	return &HTTPHandler{svc: svc}
}

// List handles GET /v1/catalog/{kind}
// @Summary List catalog records
// @Description List books or other items, ordered by code. Without page_size every record is returned.
// @Tags catalog
// @Produce json
// @Param kind path string true "book or item"
// @Param page_size query int false "Records per page (max 500)"
// @Param cursor query string false "next_cursor from the previous page"
// @Success 200 {object} httpx.SuccessResponse
// @Failure 400 {object} httpx.ErrorResponse
// @Failure 500 {object} httpx.ErrorResponse
// @Router /v1/catalog/{kind} [get]
func (h *HTTPHandler) List(w http.ResponseWriter, r *http.Request) {
	kind, err := ParseKind(r.PathValue("kind"))
	if err != nil {
		httpx.JSONError(w, r, http.StatusBadRequest, "BAD_REQUEST", err.Error(), nil)
		return
	}

	query := r.URL.Query()
	if query.Get("page_size") == "" && query.Get("cursor") == "" {
		records, err := h.svc.List(r.Context(), kind)
		if err != nil {
			httpx.JSONError(w, r, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error", nil)
			return
		}
		httpx.JSONSuccess(w, r, records, map[string]any{"total": len(records)})
		return
	}

	pageSize, _ := strconv.Atoi(query.Get("page_size"))
	if pageSize <= 0 || pageSize > 500 {
		pageSize = 100
	}
	cursor, err := DecodeCursor(query.Get("cursor"))
	if err != nil {
		httpx.JSONError(w, r, http.StatusBadRequest, "BAD_REQUEST", err.Error(), nil)
		return
	}

	page, err := h.svc.ListPage(r.Context(), kind, cursor, pageSize)
	if err != nil {
		httpx.JSONError(w, r, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error", nil)
		return
	}

	httpx.JSONSuccess(w, r, page.Records, map[string]any{
		"page_size":   pageSize,
		"total":       page.Total,
		"next_cursor": EncodeCursor(page.Next),
	})
}

// GetByCode handles GET /v1/catalog/{kind}/{code}
// @Summary Get catalog record by code
// @Tags catalog
// @Produce json
// @Param kind path string true "book or item"
// @Param code path string true "Record code, e.g. A621"
// @Success 200 {object} httpx.SuccessResponse
// @Failure 404 {object} httpx.ErrorResponse
// @Failure 500 {object} httpx.ErrorResponse
// @Router /v1/catalog/{kind}/{code} [get]
func (h *HTTPHandler) GetByCode(w http.ResponseWriter, r *http.Request) {
	kind, err := ParseKind(r.PathValue("kind"))
	if err != nil {
		httpx.JSONError(w, r, http.StatusBadRequest, "BAD_REQUEST", err.Error(), nil)
		return
	}
	code := r.PathValue("code")
	if code == "" {
		httpx.JSONError(w, r, http.StatusBadRequest, "BAD_REQUEST", "code is required", nil)
		return
	}

	rec, err := h.svc.GetByCode(r.Context(), kind, code)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			httpx.JSONError(w, r, http.StatusNotFound, "NOT_FOUND", "Record not found in catalog", nil)
			return
		}
		httpx.JSONError(w, r, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error", nil)
		return
	}

	httpx.JSONSuccess(w, r, rec, nil)
}
