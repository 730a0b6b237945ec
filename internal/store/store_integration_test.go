// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sheetshelf Contributors

//go:build integration

package store_test

import (
	"context"
	"errors"

	. "github.com/onsi/ginkgo/v2" //nolint:revive // ginkgo convention
	. "github.com/onsi/gomega"    //nolint:revive // gomega convention

	"github.com/sheetshelf/sheetshelf/internal/store"
)

var _ = Describe("Migrator", Ordered, func() {
	var migrator *store.Migrator

	BeforeAll(func() {
		var err error
		migrator, err = store.NewMigrator(connStr)
		Expect(err).NotTo(HaveOccurred())
		DeferCleanup(func() { Expect(migrator.Close()).To(Succeed()) })
	})

	It("starts at version zero", func() {
		version, dirty, err := migrator.Version()
		Expect(err).NotTo(HaveOccurred())
		Expect(version).To(BeZero())
		Expect(dirty).To(BeFalse())
	})

	It("applies, steps and rolls back every migration", func() {
		Expect(migrator.Up()).To(Succeed())
		latest, _, err := migrator.Version()
		Expect(err).NotTo(HaveOccurred())
		Expect(latest).To(Equal(uint(3)))

		Expect(migrator.Steps(-1)).To(Succeed())
		version, _, err := migrator.Version()
		Expect(err).NotTo(HaveOccurred())
		Expect(version).To(Equal(latest - 1))

		Expect(migrator.Down()).To(Succeed())
		version, _, err = migrator.Version()
		Expect(err).NotTo(HaveOccurred())
		Expect(version).To(BeZero())

		Expect(migrator.Up()).To(Succeed())
	})

	Describe("schema constraints", func() {
		ctx := context.Background()

		BeforeEach(func() {
			_, err := pool.Exec(ctx, `TRUNCATE users, works, library_entries`)
			Expect(err).NotTo(HaveOccurred())
		})

		It("classifies duplicate usernames and emails as unique violations", func() {
			_, err := pool.Exec(ctx, `INSERT INTO users (username, name, email, password_hash) VALUES ('bob', 'Bob', 'bob@x.io', 'h')`)
			Expect(err).NotTo(HaveOccurred())

			_, err = pool.Exec(ctx, `INSERT INTO users (username, name, email, password_hash) VALUES ('bob', 'Bob', 'other@x.io', 'h')`)
			v, ok := store.ConstraintViolation(err)
			Expect(ok).To(BeTrue())
			Expect(v.IsUnique()).To(BeTrue())
			Expect(v.Constraint).To(Equal("users_pkey"))

			_, err = pool.Exec(ctx, `INSERT INTO users (username, name, email, password_hash) VALUES ('rob', 'Rob', 'BOB@x.io', 'h')`)
			v, ok = store.ConstraintViolation(err)
			Expect(ok).To(BeTrue())
			Expect(v.Constraint).To(Equal("users_email_key"))
		})

		It("rejects entries for missing works", func() {
			_, err := pool.Exec(ctx, `INSERT INTO users (username, name, email, password_hash) VALUES ('bob', 'Bob', 'bob@x.io', 'h')`)
			Expect(err).NotTo(HaveOccurred())

			_, err = pool.Exec(ctx, `INSERT INTO library_entries (username, work_id) VALUES ('bob', 999)`)
			v, ok := store.ConstraintViolation(err)
			Expect(ok).To(BeTrue())
			Expect(v.IsForeignKey()).To(BeTrue())
		})

		It("rolls back a failed transaction", func() {
			tx := store.NewTransactor(pool)
			err := tx.InTransaction(ctx, func(ctx context.Context) error {
				if _, err := store.Conn(ctx, pool).Exec(ctx,
					`INSERT INTO works (external_id, title) VALUES ('x1', 'Etude')`); err != nil {
					return err
				}
				return errors.New("abort")
			})
			Expect(err).To(MatchError("abort"))

			var count int
			Expect(pool.QueryRow(ctx, `SELECT count(*) FROM works`).Scan(&count)).To(Succeed())
			Expect(count).To(BeZero())
		})
	})
})
