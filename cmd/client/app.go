package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/iudanet/forkful/internal/client/auth"
	"github.com/iudanet/forkful/internal/client/cli"
	"github.com/iudanet/forkful/internal/client/iocli"
	"github.com/iudanet/forkful/internal/client/session"
	"github.com/iudanet/forkful/internal/client/share"
	"github.com/iudanet/forkful/internal/client/storage/boltdb"
	"github.com/iudanet/forkful/internal/config"
)

// app общее состояние команд: конфигурация, хранилище и CLI
type app struct {
	cfg    *config.Config
	logger *slog.Logger
	store  *boltdb.Storage
	cli    *cli.Cli
	flags  struct {
		config     string
		server     string
		db         string
		logLevel   string
		noRealtime bool
	}
}

func (a *app) setup() error {
	cfg, err := config.LoadOrDefault(a.flags.config)
	if err != nil {
		return err
	}
	// Флаги имеют приоритет над файлом и окружением
	if a.flags.server != "" {
		cfg.Server.URL = a.flags.server
	}
	if a.flags.db != "" {
		cfg.Storage.Path = a.flags.db
	}
	if a.flags.logLevel != "" {
		cfg.Logging.Level = a.flags.logLevel
	}
	if a.flags.noRealtime {
		cfg.Realtime.Disabled = true
	}
	if err := config.Validate(cfg); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	a.cfg = cfg

	a.logger, err = newLogger(os.Stderr, cfg.Logging)
	if err != nil {
		return err
	}

	// Открываем BoltDB storage
	a.store, err = boltdb.New(context.Background(), cfg.Storage.Path)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}

	term := iocli.NewStdio()
	authService := auth.NewService(a.store, a.store, a.logger)
	a.cli = cli.New(term, authService, func(ctx context.Context) (*session.Session, error) {
		return session.Open(ctx, a.cfg, session.Deps{
			Auth:      authService,
			Snapshots: a.store,
			Prompter:  iocli.NewSignInPrompt(term, "forkful"),
			Sheet:     share.NewConsoleSheet(term),
		}, a.logger)
	}, a.logger)
	return nil
}

func (a *app) teardown() {
	if a.store == nil {
		return
	}
	if err := a.store.Close(); err != nil {
		a.logger.Error("Failed to close database", "error", err)
	}
	a.store = nil
}

func newLogger(w io.Writer, cfg config.Logging) (*slog.Logger, error) {
	level, err := config.ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}
	opts := &slog.HandlerOptions{Level: level}
	if cfg.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	}
	return slog.New(slog.NewTextHandler(w, opts)), nil
}
