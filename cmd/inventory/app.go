package main

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"

	"github.com/goliatone/go-inventory"
	"github.com/goliatone/go-inventory/config"
)

// app holds the collaborators shared by every command.
type app struct {
	cfg      *config.Config
	db       *bun.DB
	repo     inventory.RepositoryManager
	provider inventory.LoggerProvider
}

func (a *app) GetLogger(name string) inventory.Logger {
	return a.provider.GetLogger(name)
}

func (a *app) Close() error {
	if a.db == nil {
		return nil
	}
	return a.db.Close()
}

// bootstrap loads the config and opens the database. The schema is not
// touched here.
func bootstrap(ctx context.Context) (*app, error) {
	cfg, err := config.Load(envFile)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	db, err := inventory.OpenDB(cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	a := &app{
		cfg:      cfg,
		db:       db,
		repo:     inventory.NewRepositoryManager(db),
		provider: inventory.NewZapLoggerProvider(logger),
	}

	a.GetLogger("app").Info("database ready",
		"dialect", inventory.DetectDialect(cfg.DatabaseURL),
		"env", cfg.Env,
	)
	return a, nil
}
