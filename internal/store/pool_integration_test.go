// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Stoneforge Contributors

//go:build integration

package store_test

import (
	"context"
	"time"

	. "github.com/onsi/ginkgo/v2" //nolint:revive // ginkgo convention
	. "github.com/onsi/gomega"    //nolint:revive // gomega convention
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/stoneforge/stoneforge/internal/store"
)

var _ = Describe("NewPool", func() {
	var (
		container *postgres.PostgresContainer
		connStr   string
	)

	BeforeEach(func() {
		ctx := context.Background()

		var err error
		container, err = postgres.Run(ctx,
			"postgres:16-alpine",
			postgres.WithDatabase("stoneforge_test"),
			postgres.WithUsername("stoneforge"),
			postgres.WithPassword("stoneforge"),
			testcontainers.WithWaitStrategy(
				wait.ForLog("database system is ready to accept connections").
					WithOccurrence(2).
					WithStartupTimeout(30*time.Second),
			),
		)
		Expect(err).NotTo(HaveOccurred())

		connStr, err = container.ConnectionString(ctx, "sslmode=disable")
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		_ = container.Terminate(context.Background())
	})

	It("connects and answers queries", func() {
		ctx := context.Background()

		pool, err := store.NewPool(ctx, connStr)
		Expect(err).NotTo(HaveOccurred())
		defer pool.Close()

		var one int
		Expect(pool.QueryRow(ctx, "SELECT 1").Scan(&one)).To(Succeed())
		Expect(one).To(Equal(1))
	})

	It("supports migrate-then-query", func() {
		ctx := context.Background()

		migrator, err := store.NewMigrator(connStr)
		Expect(err).NotTo(HaveOccurred())
		Expect(migrator.Up()).To(Succeed())
		Expect(migrator.Close()).To(Succeed())

		pool, err := store.NewPool(ctx, connStr)
		Expect(err).NotTo(HaveOccurred())
		defer pool.Close()

		var count int
		Expect(pool.QueryRow(ctx, "SELECT COUNT(*) FROM players").Scan(&count)).To(Succeed())
		Expect(count).To(Equal(0))
	})
})
