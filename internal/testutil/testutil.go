package testutil

import (
	"database/sql"
	"testing"

	_ "modernc.org/sqlite"

	"github.com/hostdeck/hostdeck/internal/repository/postgres"
	"github.com/hostdeck/hostdeck/migrations"
)

// NewTestDB creates an in-memory SQLite database with the full schema applied.
func NewTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	// A second connection would see an empty in-memory database.
	db.SetMaxOpenConns(1)

	if err := postgres.RunMigrations(db, migrations.FS); err != nil {
		t.Fatalf("Failed to apply migrations: %v", err)
	}

	t.Cleanup(func() { db.Close() })
	return db
}
