// Package storetest opens a migrated in-memory database for tests.
package storetest

import (
	"testing"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"

	"wallet_portfolio/internal/db"
)

// Open returns a fresh migrated sqlite database. The pool is capped at one
// connection so every query sees the same in-memory database.
func Open(t testing.TB) *gorm.DB {
	t.Helper()
	gdb, err := gorm.Open(sqlite.Open("file::memory:"), db.Options())
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := gdb.DB()
	if err != nil {
		t.Fatalf("sqlite pool: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	if err := db.Migrate(gdb); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return gdb
}
