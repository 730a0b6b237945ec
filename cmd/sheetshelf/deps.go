// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sheetshelf Contributors

package main

import (
	"context"
	"log/slog"

	"github.com/sheetshelf/sheetshelf/internal/auth"
	"github.com/sheetshelf/sheetshelf/internal/catalog"
	"github.com/sheetshelf/sheetshelf/internal/library"
	librarypg "github.com/sheetshelf/sheetshelf/internal/library/postgres"
	"github.com/sheetshelf/sheetshelf/internal/observability"
	"github.com/sheetshelf/sheetshelf/internal/store"
	"github.com/sheetshelf/sheetshelf/internal/user"
	userpg "github.com/sheetshelf/sheetshelf/internal/user/postgres"
	"github.com/sheetshelf/sheetshelf/internal/web"
)

// ServeDeps contains injectable dependencies for the serve and seed commands.
// All fields with nil values will use their default implementations.
type ServeDeps struct {
	// DatabaseFactory opens the database.
	// Default: store.Connect with store.DefaultConnectOptions
	DatabaseFactory func(ctx context.Context, url string, logger *slog.Logger) (Database, error)

	// Migrate applies all pending migrations.
	// Default: store.NewMigrator(url).Up()
	Migrate func(url string) error

	// ObservabilityServerFactory creates an observability server.
	// Default: observability.NewServer
	ObservabilityServerFactory func(addr string, readinessChecker observability.ReadinessChecker) ObservabilityServer

	// APIServerFactory creates the JSON API server.
	// Default: web.NewServer
	APIServerFactory func(cfg web.Config, d web.Deps) (APIServer, error)
}

func (d *ServeDeps) withDefaults() *ServeDeps {
	out := ServeDeps{}
	if d != nil {
		out = *d
	}
	if out.DatabaseFactory == nil {
		out.DatabaseFactory = func(ctx context.Context, url string, logger *slog.Logger) (Database, error) {
			opts := store.DefaultConnectOptions
			opts.Logger = logger
			return store.Connect(ctx, url, opts)
		}
	}
	if out.Migrate == nil {
		out.Migrate = migrateUp
	}
	if out.ObservabilityServerFactory == nil {
		out.ObservabilityServerFactory = func(addr string, readinessChecker observability.ReadinessChecker) ObservabilityServer {
			return observability.NewServer(addr, readinessChecker)
		}
	}
	if out.APIServerFactory == nil {
		out.APIServerFactory = func(cfg web.Config, d web.Deps) (APIServer, error) {
			return web.NewServer(cfg, d)
		}
	}
	return &out
}

// Database wraps the methods used from *pgxpool.Pool.
type Database interface {
	store.Pool
	Ping(ctx context.Context) error
	Close()
}

// ObservabilityServer interface wraps the methods used from observability.Server.
type ObservabilityServer interface {
	Start() (<-chan error, error)
	Stop(ctx context.Context) error
	Addr() string
	Metrics() *observability.Metrics
}

// APIServer interface wraps the methods used from web.Server.
type APIServer interface {
	Start() (<-chan error, error)
	Stop(ctx context.Context) error
	Addr() string
}

// services are the domain services built over one database.
type services struct {
	users   *user.Service
	library *library.Manager
	tokens  *auth.TokenService
}

// buildServices wires repositories and services. lookups may be nil.
func buildServices(cfg *Config, db Database, lookups catalog.Observer, logger *slog.Logger) (*services, error) {
	var tokenOpts []auth.TokenOption
	if cfg.Auth.TokenTTL > 0 {
		tokenOpts = append(tokenOpts, auth.WithTokenTTL(cfg.Auth.TokenTTL))
	}
	tokens, err := auth.NewTokenService(cfg.Auth.Secret, tokenOpts...)
	if err != nil {
		return nil, err
	}

	var cat library.Catalog
	if cfg.Catalog.BaseURL != "" {
		opts := []catalog.Option{catalog.WithTimeout(cfg.Catalog.Timeout)}
		if lookups != nil {
			opts = append(opts, catalog.WithObserver(lookups))
		}
		client, err := catalog.NewClient(cfg.Catalog.BaseURL, opts...)
		if err != nil {
			return nil, err
		}
		cat = client
	} else {
		logger.Warn("catalog.base_url is not set, works will not be enriched")
	}

	tx := store.NewTransactor(db)
	users := userpg.NewUserRepository(db)
	entries := librarypg.NewEntryRepository(db)

	manager, err := library.NewManager(library.Deps{
		Works:      librarypg.NewWorkRepository(db),
		Entries:    entries,
		Users:      users,
		Transactor: tx,
		Enricher:   library.NewEnricher(cat, cfg.Catalog.Concurrency, logger),
		Logger:     logger,
	})
	if err != nil {
		return nil, err
	}

	userService, err := user.NewService(user.Deps{
		Users:      users,
		Entries:    entries,
		Library:    manager,
		Transactor: tx,
		Hasher:     auth.NewArgon2idHasher(),
		Tokens:     tokens,
		Logger:     logger,
	})
	if err != nil {
		return nil, err
	}

	return &services{users: userService, library: manager, tokens: tokens}, nil
}

func migrateUp(url string) error {
	m, err := store.NewMigrator(url)
	if err != nil {
		return err
	}
	defer func() { _ = m.Close() }()
	return m.Up()
}
