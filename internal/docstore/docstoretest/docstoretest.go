// Package docstoretest opens throwaway in-memory stores for tests.
package docstoretest

import (
	"context"
	"testing"
	"time"

	"newsmarker/internal/core"
	"newsmarker/internal/docstore"
)

// New returns a migrated store backed by a private in-memory SQLite database
func New(t testing.TB) *docstore.Store {
	t.Helper()

	logger := core.NewLoggerWithLevel("error")
	db, err := core.OpenDatabase(core.DatabaseConfig{Driver: core.DriverSQLite, DSN: ":memory:"}, logger)
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	store, err := docstore.Open(context.Background(), db, logger)
	if err != nil {
		t.Fatalf("Failed to migrate test database: %v", err)
	}
	return store
}

// Clock is a manually advanced clock for deterministic timestamps
type Clock struct {
	now time.Time
}

// NewClock starts a clock at t
func NewClock(t time.Time) *Clock {
	return &Clock{now: t}
}

// Now returns the current fake time
func (c *Clock) Now() time.Time {
	return c.now
}

// Advance moves the clock forward by d
func (c *Clock) Advance(d time.Duration) {
	c.now = c.now.Add(d)
}
