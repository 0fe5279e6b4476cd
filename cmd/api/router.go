package main

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"bookshop/internal/catalog"
	"bookshop/internal/httpx"
	"bookshop/internal/reconcile"
	"bookshop/internal/storage"
)

const (
	maxBatchBody = 8 << 20
	publicRPS    = 20
	publicBurst  = 40
)

type pinger interface {
	Ping(ctx context.Context) error
}

func newRouter(store *storage.Store, reconcileService *reconcile.Service, internalSecret string, logger zerolog.Logger) http.Handler {
	return buildRouter(store, catalog.NewService(store.Catalog), reconcileService, internalSecret, logger)
}

func buildRouter(db pinger, catalogService *catalog.Service, reconcileService *reconcile.Service, internalSecret string, logger zerolog.Logger) http.Handler {
	catalogHandler := catalog.NewHTTPHandler(catalogService)
	reconcileHandler := reconcile.NewHTTPHandler(reconcileService)

	router := http.NewServeMux()

	router.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	router.HandleFunc("GET /readyz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 500*time.Millisecond)
		defer cancel()
		if err := db.Ping(ctx); err != nil {
			http.Error(w, "db not ready", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})

	public := httpx.NewRateLimitMiddleware(publicRPS, publicBurst)
	router.Handle("GET /v1/catalog/{kind}", public.Middleware(http.HandlerFunc(catalogHandler.List)))
	router.Handle("GET /v1/catalog/{kind}/{code}", public.Middleware(http.HandlerFunc(catalogHandler.GetByCode)))

	// One batch at a time across all internal routes.
	exclusive := httpx.NewExclusive()
	internal := func(h http.HandlerFunc) http.Handler {
		return httpx.Chain(h,
			httpx.InternalSecretMiddleware(internalSecret),
			httpx.RequestSizeLimitMiddleware(maxBatchBody),
			exclusive.Middleware,
		)
	}
	router.Handle("POST /internal/reconcile/assets", internal(reconcileHandler.Assets))
	router.Handle("POST /internal/reconcile/isbn", internal(reconcileHandler.ISBN))
	router.Handle("POST /internal/reconcile/commit", internal(reconcileHandler.Commit))

	return httpx.Chain(router,
		httpx.RequestIDMiddleware,
		httpx.AccessLogMiddleware(logger),
		httpx.RecoveryMiddleware(logger),
		httpx.SecurityHeadersMiddleware,
	)
}

func redactDSN(dsn string) string {
	const marker = "://"
	start := strings.Index(dsn, marker)
	if start < 0 {
		return dsn
	}
	start += len(marker)
	end := strings.Index(dsn[start:], "@")
	if end < 0 {
		return dsn
	}
	return dsn[:start] + "***" + dsn[start+end:]
}
