// Package testutil builds throwaway databases for package tests.
package testutil

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/Skotchmaster/bookstore/internal/models"
	"github.com/Skotchmaster/bookstore/pkg/db"
)

// SQLite returns a migrated in-memory database that lives for the test.
func SQLite(t *testing.T) *gorm.DB {
	t.Helper()
	gdb, err := db.OpenSQLite(context.Background(), ":memory:")
	require.NoError(t, err)
	require.NoError(t, gdb.AutoMigrate(models.All()...))
	t.Cleanup(func() { _ = db.Close(gdb) })
	return gdb
}

// Postgres connects to BOOKSTORE_TEST_DATABASE_URL or skips the test.
func Postgres(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := os.Getenv("BOOKSTORE_TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("BOOKSTORE_TEST_DATABASE_URL is not set")
	}
	gdb, err := db.OpenPostgres(context.Background(), dsn)
	require.NoError(t, err)
	require.NoError(t, gdb.AutoMigrate(models.All()...))
	truncate(t, gdb)
	t.Cleanup(func() {
		truncate(t, gdb)
		_ = db.Close(gdb)
	})
	return gdb
}

func truncate(t *testing.T, gdb *gorm.DB) {
	t.Helper()
	require.NoError(t, gdb.Exec(
		"TRUNCATE TABLE order_items, orders, cart_items, reviews, refresh_tokens, users, books, authors, publishers, categories RESTART IDENTITY CASCADE",
	).Error)
}
