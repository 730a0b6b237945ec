// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sheetshelf Contributors

package main

import (
	"context"
	"errors"
	"io"
	"os"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/sheetshelf/sheetshelf/internal/library"
	"github.com/sheetshelf/sheetshelf/internal/logging"
	"github.com/sheetshelf/sheetshelf/internal/user"
	"github.com/sheetshelf/sheetshelf/pkg/errutil"
)

// Default timeout for seed command.
const defaultSeedTimeout = 30 * time.Second

// seedConfig holds configuration for the seed command.
type seedConfig struct {
	file    string
	timeout time.Duration
}

// SeedFile is the YAML document imported by the seed command.
type SeedFile struct {
	Users []SeedUser `yaml:"users"`
	Works []SeedWork `yaml:"works"`
}

// SeedUser is an account to create.
type SeedUser struct {
	Username string `yaml:"username"`
	Name     string `yaml:"name"`
	Email    string `yaml:"email"`
	Password string `yaml:"password"`
	IsAdmin  bool   `yaml:"isAdmin"`

	// PasswordHash imports an existing argon2id or bcrypt hash instead of
	// a plaintext password.
	PasswordHash string `yaml:"passwordHash"`
}

// SeedWork is a work to add to the shared catalog.
type SeedWork struct {
	ExternalID string `yaml:"externalId"`
	Title      string `yaml:"title"`
	Composer   string `yaml:"composer"`
}

type seedUsers interface {
	Register(ctx context.Context, in user.NewUser) (*user.User, string, error)
}

type seedWorks interface {
	CreateWork(ctx context.Context, in library.NewWork) (*library.Work, error)
}

// SeedResult counts what an import did.
type SeedResult struct {
	UsersCreated int
	UsersSkipped int
	WorksCreated int
	WorksSkipped int
}

// NewSeedCmd creates the seed subcommand.
func NewSeedCmd() *cobra.Command {
	cfg := &seedConfig{}

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Import users and works from a YAML file",
		Long: `Creates the users and works listed in a YAML seed file.
This command is idempotent - entries that already exist are skipped.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			appCfg, err := loadConfig(configFile, envFile, cmd.Flags())
			if err != nil {
				return err
			}
			return runSeedWithDeps(cmd, appCfg, cfg, nil)
		},
	}

	cmd.Flags().StringVarP(&cfg.file, "file", "f", "seed.yaml", "seed file to import")
	cmd.Flags().DurationVar(&cfg.timeout, "timeout", defaultSeedTimeout, "timeout for database operations (e.g., 30s, 1m)")
	bindConfigFlags(cmd.Flags(), "database-url", "catalog-url")

	return cmd
}

func runSeedWithDeps(cmd *cobra.Command, appCfg *Config, cfg *seedConfig, deps *ServeDeps) error {
	deps = deps.withDefaults()

	if err := appCfg.requireDatabase(); err != nil {
		return err
	}
	// Tokens issued while seeding are discarded.
	if appCfg.Auth.Secret == "" {
		appCfg.Auth.Secret = ulid.Make().String()
	}

	f, err := os.Open(cfg.file)
	if err != nil {
		return oops.Code("SEED_FILE_UNREADABLE").With("file", cfg.file).Wrap(err)
	}
	defer func() { _ = f.Close() }()

	seed, err := parseSeed(f)
	if err != nil {
		return oops.With("file", cfg.file).Wrap(err)
	}

	// Use cmd.Context() to respect SIGINT/SIGTERM signals
	ctx, cancel := context.WithTimeout(cmd.Context(), cfg.timeout)
	defer cancel()

	logger := logging.Setup(logging.Options{
		Service: "sheetshelf-seed",
		Version: version,
		Format:  "text",
		Level:   "warn",
		Writer:  cmd.ErrOrStderr(),
	})

	cmd.Println("Connecting to database...")
	db, err := deps.DatabaseFactory(ctx, appCfg.Database.URL, logger)
	if err != nil {
		return oops.Code("DB_CONNECT_FAILED").With("operation", "connect to database").Wrap(err)
	}
	defer db.Close()

	svc, err := buildServices(appCfg, db, nil, logger)
	if err != nil {
		return err
	}

	res, err := importSeed(ctx, svc.users, svc.library, seed)
	if err != nil {
		return err
	}

	cmd.Printf("Users: %d created, %d already present\n", res.UsersCreated, res.UsersSkipped)
	cmd.Printf("Works: %d created, %d already present\n", res.WorksCreated, res.WorksSkipped)
	return nil
}

// parseSeed decodes a seed document, rejecting unknown keys.
func parseSeed(r io.Reader) (*SeedFile, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var seed SeedFile
	if err := dec.Decode(&seed); err != nil && !errors.Is(err, io.EOF) {
		return nil, oops.Code("SEED_FILE_INVALID").Wrap(err)
	}
	return &seed, nil
}

// importSeed creates every user, then every work. Conflicts mean the entry
// exists already and are skipped; any other error stops the import.
func importSeed(ctx context.Context, users seedUsers, works seedWorks, seed *SeedFile) (SeedResult, error) {
	var res SeedResult

	for i, u := range seed.Users {
		_, _, err := users.Register(ctx, user.NewUser{
			Username:     u.Username,
			Name:         u.Name,
			Email:        u.Email,
			Password:     u.Password,
			IsAdmin:      u.IsAdmin,
			PasswordHash: u.PasswordHash,
		})
		switch {
		case err == nil:
			res.UsersCreated++
		case errors.Is(err, errutil.ErrConflict):
			res.UsersSkipped++
		default:
			return res, oops.Code("SEED_FAILED").With("user", i).With("username", u.Username).Wrap(err)
		}
	}

	for i, w := range seed.Works {
		_, err := works.CreateWork(ctx, library.NewWork{
			ExternalID: optional(w.ExternalID),
			Title:      optional(w.Title),
			Composer:   optional(w.Composer),
		})
		switch {
		case err == nil:
			res.WorksCreated++
		case errors.Is(err, errutil.ErrConflict):
			res.WorksSkipped++
		default:
			return res, oops.Code("SEED_FAILED").With("work", i).Wrap(err)
		}
	}

	return res, nil
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
