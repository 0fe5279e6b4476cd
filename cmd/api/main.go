package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"bookshop/internal/app"
	"bookshop/internal/config"
	"bookshop/internal/logging"
	"bookshop/internal/storage"
)

func main() {
	cfg, err := config.Load(os.Getenv("BOOKSHOP_CONFIG"))
	logger := logging.New(logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat, Output: cfg.LogOutput})
	if err != nil {
		logger.Fatal().Err(err).Msg("invalid configuration")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store := mustOpenStore(ctx, cfg.DatabaseDSN, logger)
	defer store.Close()

	if cfg.InternalSecret == "" {
		logger.Warn().Msg("INTERNAL_SECRET is empty; internal routes are unauthenticated")
	}

	reconcileService := app.NewReconcileService(ctx, cfg, store, logger)
	router := newRouter(store, reconcileService, cfg.InternalSecret, logger)

	// ISBN batches stream for as long as the lookups take.
	httpServer := &http.Server{
		Addr:         cfg.Addr,
		Handler:      router,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 30 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = httpServer.Shutdown(shutdownCtx)
	}()

	logger.Info().Str("addr", cfg.Addr).Msg("starting server")
	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal().Err(err).Msg("server error")
	}
}

func mustOpenStore(ctx context.Context, dsn string, logger zerolog.Logger) *storage.Store {
	openCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	store, err := storage.Open(openCtx, dsn)
	if err != nil {
		logger.Fatal().Err(err).Str("dsn", redactDSN(dsn)).Msg("cannot open database")
	}
	logger.Info().Str("dialect", store.Dialect).Msg("database connection OK")
	return store
}
