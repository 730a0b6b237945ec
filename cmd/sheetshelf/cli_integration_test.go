// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sheetshelf Contributors

//go:build integration

package main

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"time"

	. "github.com/onsi/ginkgo/v2" //nolint:revive // ginkgo convention
	. "github.com/onsi/gomega"    //nolint:revive // gomega convention
	"golang.org/x/crypto/bcrypt"

	"github.com/sheetshelf/sheetshelf/internal/library"
	"github.com/sheetshelf/sheetshelf/internal/user"
	"github.com/sheetshelf/sheetshelf/pkg/errutil"
)

var _ = Describe("CLI against PostgreSQL", Ordered, func() {
	var ctx context.Context

	BeforeAll(func() {
		Expect(migrateUp(env.connStr)).To(Succeed())
		// Applying again is a no-op.
		Expect(migrateUp(env.connStr)).To(Succeed())
	})

	BeforeEach(func() {
		ctx = context.Background()
		resetDatabase(ctx, env.pool)
	})

	Describe("seed", func() {
		runSeed := func() string {
			path := GinkgoT().TempDir() + "/seed.yaml"
			Expect(writeSeed(path)).To(Succeed())

			cmd, out := testCmd()
			cfg := &Config{Database: DatabaseConfig{URL: env.connStr}}
			cfg.Catalog.Timeout = time.Second
			cfg.Catalog.Concurrency = 2
			Expect(runSeedWithDeps(cmd, cfg, &seedConfig{file: path, timeout: 30 * time.Second}, nil)).To(Succeed())
			return out.String()
		}

		It("imports users and works", func() {
			out := runSeed()
			Expect(out).To(ContainSubstring("Users: 2 created, 0 already present"))
			Expect(out).To(ContainSubstring("Works: 2 created, 0 already present"))

			var admin bool
			Expect(env.pool.QueryRow(ctx, `SELECT is_admin FROM users WHERE username = 'admin'`).Scan(&admin)).To(Succeed())
			Expect(admin).To(BeTrue())
		})

		It("is idempotent", func() {
			runSeed()
			out := runSeed()
			Expect(out).To(ContainSubstring("Users: 0 created, 2 already present"))
			Expect(out).To(ContainSubstring("Works: 1 created, 1 already present"))
		})
	})

	Describe("services", func() {
		var svc *services

		BeforeEach(func() {
			catalogSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != "/work/detail/1234.json" {
					w.WriteHeader(http.StatusNotFound)
					return
				}
				_, _ = io.WriteString(w, `{"status":{"success":"true"},"work":{"title":"Clair de Lune","composer":{"name":"Debussy"}}}`)
			}))
			DeferCleanup(catalogSrv.Close)

			cfg := validConfig()
			cfg.Catalog.BaseURL = catalogSrv.URL
			var err error
			svc, err = buildServices(cfg, env.pool, nil, slog.New(slog.NewTextHandler(GinkgoWriter, nil)))
			Expect(err).NotTo(HaveOccurred())
		})

		It("keeps library entries consistent with users and works", func() {
			_, _, err := svc.users.Register(ctx, user.NewUser{
				Username: "bob", Name: "Bob", Email: "bob@example.com", Password: "pw",
			})
			Expect(err).NotTo(HaveOccurred())

			ext := "1234"
			resolved, err := svc.library.CreateWork(ctx, workInput(&ext, nil))
			Expect(err).NotTo(HaveOccurred())
			title := "Gnossienne No. 1"
			local, err := svc.library.CreateWork(ctx, workInput(nil, &title))
			Expect(err).NotTo(HaveOccurred())

			for _, id := range []int64{resolved.ID, local.ID} {
				_, err = svc.library.AddToLibrary(ctx, "bob", id)
				Expect(err).NotTo(HaveOccurred())
			}
			_, err = svc.library.AddToLibrary(ctx, "bob", local.ID)
			Expect(errutil.KindOf(err)).To(Equal(errutil.KindConflict))

			profile, err := svc.users.Get(ctx, "bob")
			Expect(err).NotTo(HaveOccurred())
			Expect(profile.Works).To(HaveLen(2))
			Expect(*profile.Works[0].Title).To(Equal("Clair de Lune"))
			Expect(*profile.Works[0].Composer).To(Equal("Debussy"))
			Expect(*profile.Works[1].Title).To(Equal(title))

			Expect(svc.library.DeleteWork(ctx, local.ID)).To(Succeed())
			Expect(svc.users.Remove(ctx, "bob")).To(Succeed())

			var entries int
			Expect(env.pool.QueryRow(ctx, `SELECT count(*) FROM library_entries`).Scan(&entries)).To(Succeed())
			Expect(entries).To(BeZero())
		})

		It("upgrades an imported bcrypt hash on first login", func() {
			legacy, err := bcrypt.GenerateFromPassword([]byte("old-secret"), bcrypt.MinCost)
			Expect(err).NotTo(HaveOccurred())
			_, _, err = svc.users.Register(ctx, user.NewUser{
				Username: "dave", Name: "Dave", Email: "dave@example.com", PasswordHash: string(legacy),
			})
			Expect(err).NotTo(HaveOccurred())

			_, _, err = svc.users.Login(ctx, "dave", "old-secret")
			Expect(err).NotTo(HaveOccurred())

			var stored string
			Expect(env.pool.QueryRow(ctx, `SELECT password_hash FROM users WHERE username = 'dave'`).Scan(&stored)).To(Succeed())
			Expect(stored).To(HavePrefix("$argon2id$"))

			_, _, err = svc.users.Login(ctx, "dave", "old-secret")
			Expect(err).NotTo(HaveOccurred())
		})

		It("logs in with the registered password", func() {
			_, _, err := svc.users.Register(ctx, user.NewUser{
				Username: "carol", Name: "Carol", Email: "carol@example.com", Password: "secret",
			})
			Expect(err).NotTo(HaveOccurred())

			u, token, err := svc.users.Login(ctx, "carol", "secret")
			Expect(err).NotTo(HaveOccurred())
			Expect(token).NotTo(BeEmpty())
			Expect(u.Username).To(Equal("carol"))

			id, err := svc.tokens.Decode(token)
			Expect(err).NotTo(HaveOccurred())
			Expect(id.Username).To(Equal("carol"))

			_, _, err = svc.users.Login(ctx, "carol", "wrong")
			Expect(errutil.KindOf(err)).To(Equal(errutil.KindUnauthorized))
		})
	})
})

func writeSeed(path string) error {
	return os.WriteFile(path, []byte(sampleSeed), 0o600)
}

func workInput(externalID, title *string) library.NewWork {
	return library.NewWork{ExternalID: externalID, Title: title}
}
