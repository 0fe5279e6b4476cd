// Package app builds the reconciliation service from configuration. Both
// binaries share it so they talk to the same sources the same way.
package app

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"bookshop/internal/config"
	"bookshop/internal/platform/drive"
	"bookshop/internal/platform/gemini"
	"bookshop/internal/platform/openlibrary"
	"bookshop/internal/reconcile"
	"bookshop/internal/storage"
)

// NewLookup returns the configured metadata lookup.
func NewLookup(ctx context.Context, cfg config.Config) (reconcile.MetadataLookup, error) {
	if err := cfg.RequireLookup(); err != nil {
		return nil, err
	}
	switch cfg.LookupProvider {
	case "gemini":
		c, err := gemini.NewClient(ctx, cfg.GeminiAPIKey, cfg.GeminiModel, cfg.GeminiRPS)
		if err != nil {
			return nil, err
		}
		return reconcile.NewGeminiLookup(c), nil
	case "openlibrary":
		return reconcile.NewOpenLibraryLookup(openlibrary.NewClient(cfg.OpenLibraryUserAgent, cfg.OpenLibraryRPS)), nil
	}
	return nil, fmt.Errorf("unknown lookup provider %q", cfg.LookupProvider)
}

// NewAssetLister returns the Drive folder lister.
func NewAssetLister(ctx context.Context, cfg config.Config) (reconcile.AssetLister, error) {
	if err := cfg.RequireAssets(); err != nil {
		return nil, err
	}
	l, err := drive.NewLister(ctx, cfg.DriveCredentialsFile, cfg.DriveFolderID)
	if err != nil {
		return nil, err
	}
	return reconcile.NewDriveAssets(l), nil
}

// NewReconcileService wires whatever sources are configured. A source that
// cannot be set up is logged and left out; batches needing it then fail
// with reconcile.ErrNotConfigured.
func NewReconcileService(ctx context.Context, cfg config.Config, store *storage.Store, logger zerolog.Logger) *reconcile.Service {
	lookup, err := NewLookup(ctx, cfg)
	if err != nil {
		logger.Warn().Err(err).Msg("metadata lookup disabled")
		lookup = nil
	}
	assets, err := NewAssetLister(ctx, cfg)
	if err != nil {
		logger.Warn().Err(err).Msg("asset listing disabled")
		assets = nil
	}

	return reconcile.NewService(store.Catalog, assets, lookup, store.Runs, reconcile.Config{
		AssetPrefix:     cfg.AssetPrefix,
		AssetMaxResults: cfg.AssetMaxResults,
	}, logger)
}
