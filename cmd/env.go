// ABOUTME: Per-command environment: config, logger, session storage, and client
// ABOUTME: Restores the persisted session before any command logic runs

package cmd

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/markalston/newsdesk/internal/authgate"
	"github.com/markalston/newsdesk/internal/client"
	"github.com/markalston/newsdesk/internal/config"
	"github.com/markalston/newsdesk/internal/logger"
	"github.com/markalston/newsdesk/internal/session"
)

// appEnv holds what a command needs to talk to the API
type appEnv struct {
	cfg     *config.Config
	log     *slog.Logger
	store   session.Storage
	session *session.Session

	closeLog func()
}

// loadConfig reads env configuration and applies flag overrides
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	cfg.APIURL = GetAPIURL()
	if configDir != "" {
		cfg.ConfigDir = configDir
	}
	cfg.Sanitize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// openEnv builds the environment and restores the persisted session
func openEnv(ctx context.Context) (*appEnv, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	log, closeLog := logger.Init(cfg.ConfigDir, cfg.LogLevel, cfg.LogFormat, verbose)

	store, err := session.OpenStorage(ctx, cfg.SessionBackend, cfg.ConfigDir)
	if err != nil {
		closeLog()
		return nil, fmt.Errorf("open session storage: %w", err)
	}

	base := client.New(cfg.APIURL,
		client.WithTimeout(cfg.RequestTimeout),
		client.WithLogger(log),
	)
	sess := session.New(store, base,
		session.WithLogger(log),
		session.WithProfileSynthesis(cfg.SynthesizeProfile),
	)
	if err := sess.Restore(ctx); err != nil {
		store.Close()
		closeLog()
		return nil, err
	}

	return &appEnv{
		cfg:      cfg,
		log:      log,
		store:    store,
		session:  sess,
		closeLog: closeLog,
	}, nil
}

// requireLogin applies the auth gate to the restored session
func (e *appEnv) requireLogin() error {
	return authgate.Require(e.session.State())
}

// Close releases storage and the log file
func (e *appEnv) Close() {
	if err := e.store.Close(); err != nil {
		e.log.Warn("failed to close session storage", "error", err)
	}
	e.closeLog()
}
