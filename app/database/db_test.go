package database

import (
	"path/filepath"
	"testing"
	"time"
)

func setupTestDB(t *testing.T) *DB {
	t.Helper()

	db, err := NewConnection(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if _, _, err := RunMigrations(db); err != nil {
		t.Fatalf("Failed to run migrations: %v", err)
	}

	return db
}

func seedSource(t *testing.T, repo SourceRepository, name string) {
	t.Helper()
	err := repo.UpsertSource(name, "https://"+name+".example.com",
		"https://"+name+".example.com/rss", "feed", true, time.Hour)
	if err != nil {
		t.Fatalf("Failed to seed source %s: %v", name, err)
	}
}
