package httpx

import (
	"net/http"
)

// Exclusive lets at most one request through the wrapped handlers at a time.
// Concurrent callers get 409 instead of queueing.
type Exclusive struct {
	slot chan struct{}
}

func NewExclusive() *Exclusive {
	return &Exclusive{slot: make(chan struct{}, 1)}
}

func (e *Exclusive) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case e.slot <- struct{}{}:
		default:
			JSONError(w, r, http.StatusConflict, "BATCH_IN_PROGRESS", "another reconciliation batch is running", nil)
			return
		}
		defer func() { <-e.slot }()
		next.ServeHTTP(w, r)
	})
}
