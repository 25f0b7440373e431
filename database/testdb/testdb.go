// Package testdb opens throwaway migrated sqlite databases for tests.
package testdb

import (
	"path/filepath"
	"testing"

	"github.com/appcontrol-api/config"
	"github.com/appcontrol-api/database"
	"gorm.io/gorm"
)

// New returns a migrated database stored in t.TempDir; the pool is closed
// when the test ends.
func New(t testing.TB) *gorm.DB {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), "test.db")
	db, err := database.Open(config.DriverSQLite, dsn, "disabled")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}
