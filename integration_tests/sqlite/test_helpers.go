package main

import (
	"database/sql"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/mattn/go-sqlite3" // SQLite driver
	"github.com/mustun/cadstore"
)

func getTestDSN() string {
	dsn := os.Getenv("SQLITE_DSN")
	if dsn == "" {
		dsn = "cadstore_integration_test.db"
	}
	return dsn
}

// setupTestStore runs the versioned migrations against a fresh database
// file, then opens it through the façade. cadstore's own bootstrap is
// idempotent (CREATE TABLE IF NOT EXISTS) so running it again against an
// already-migrated schema is harmless; the migration step is what gives
// this suite a schema history independent of the library's internal DDL.
func setupTestStore(t *testing.T) *cadstore.Storage {
	t.Helper()
	dsn := getTestDSN()
	os.Remove(dsn)

	sqlDB, err := sql.Open("sqlite3", dsn)
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}

	driver, err := sqlite3.WithInstance(sqlDB, &sqlite3.Config{})
	if err != nil {
		sqlDB.Close()
		t.Fatalf("Failed to create migration driver: %v", err)
	}

	_, testFile, _, _ := runtime.Caller(0)
	migrationsPath := filepath.Join(filepath.Dir(testFile), "migrations")
	absPath, err := filepath.Abs(migrationsPath)
	if err != nil {
		sqlDB.Close()
		t.Fatalf("Failed to resolve migrations path: %v", err)
	}

	m, err := migrate.NewWithDatabaseInstance("file://"+filepath.ToSlash(absPath), "sqlite3", driver)
	if err != nil {
		sqlDB.Close()
		t.Fatalf("Failed to create migrate instance: %v", err)
	}
	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		sqlDB.Close()
		t.Fatalf("Failed to run migrations: %v", err)
	}
	sqlDB.Close()

	store, err := cadstore.NewStorage(dsn)
	if err != nil {
		t.Fatalf("Failed to open cadstore: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
		os.Remove(dsn)
	})
	return store
}
