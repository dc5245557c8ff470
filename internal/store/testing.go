package store

import (
	"context"
	"testing"

	"github.com/uptrace/bun"
)

// OpenForTest opens an in-memory sqlite store with the schema applied.
// The database is closed when the test finishes.
func OpenForTest(t *testing.T) *bun.DB {
	t.Helper()

	db, err := Open(Config{DSN: ":memory:"})
	if err != nil {
		t.Fatalf("open test store: %v", err)
	}

	if err := Migrate(context.Background(), db); err != nil {
		t.Fatalf("migrate test store: %v", err)
	}

	t.Cleanup(func() { _ = db.Close() })

	return db
}
