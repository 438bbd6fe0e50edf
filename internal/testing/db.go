// Package testing provides testing utilities and helpers shared across packages.
package testing

import (
	"path/filepath"
	"testing"

	"github.com/esfolk/DefiHedge/internal/database"
)

// NewTestDB creates a file-backed SQLite database in a per-test temp directory
// and applies the embedded schema for name ("history" is the only schema).
// The database is closed automatically when the test finishes.
func NewTestDB(t *testing.T, name string) *database.DB {
	t.Helper()

	db, err := database.New(database.Config{
		Path:    filepath.Join(t.TempDir(), name+".db"),
		Profile: database.ProfileCache,
		Name:    name,
	})
	if err != nil {
		t.Fatalf("Failed to create test database %s: %v", name, err)
	}

	if err := db.Migrate(); err != nil {
		_ = db.Close()
		t.Fatalf("Failed to migrate test database %s: %v", name, err)
	}

	t.Cleanup(func() {
		if err := db.Close(); err != nil {
			t.Logf("Warning: Failed to close test database %s: %v", name, err)
		}
	})

	return db
}
