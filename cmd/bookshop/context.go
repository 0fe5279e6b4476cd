package main

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"bookshop/internal/app"
	"bookshop/internal/config"
	"bookshop/internal/logging"
	"bookshop/internal/reconcile"
	"bookshop/internal/storage"
)

type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     config.Config
	configErr  error
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

func (c *commandContext) ensureConfig() (config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		c.config, c.configErr = config.Load(path)
	})
	return c.config, c.configErr
}

func (c *commandContext) logger() zerolog.Logger {
	cfg, _ := c.ensureConfig()
	return logging.New(logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat, Output: cfg.LogOutput})
}

// session is everything a command needs to talk to the catalog.
type session struct {
	cfg     config.Config
	store   *storage.Store
	service *reconcile.Service
	logger  zerolog.Logger
}

func (s *session) Close() {
	s.store.Close()
}

// openSession opens the catalog and wires the configured sources, after
// applying any flag overrides to a copy of the config. Call Close when done.
func (c *commandContext) openSession(ctx context.Context, overrides ...func(*config.Config)) (*session, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	for _, o := range overrides {
		o(&cfg)
	}
	logger := c.logger()

	store, err := storage.Open(ctx, cfg.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("open catalog: %w", err)
	}
	return &session{
		cfg:     cfg,
		store:   store,
		service: app.NewReconcileService(ctx, cfg, store, logger),
		logger:  logger,
	}, nil
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
