// Package testutil wires real storage for package tests.
package testutil

import (
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/amirasaad/codepay/infra"
	infrarepo "github.com/amirasaad/codepay/infra/repository"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// NewSQLiteDB opens a private in-memory sqlite database with the full schema.
func NewSQLiteDB(tb testing.TB) *gorm.DB {
	tb.Helper()
	db, err := infra.OpenSQLiteMemory(uuid.NewString())
	if err != nil {
		tb.Fatalf("open sqlite: %v", err)
	}
	if err := infrarepo.AutoMigrate(db); err != nil {
		tb.Fatalf("migrate sqlite: %v", err)
	}
	tb.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

// NewUoW returns a unit of work over a fresh sqlite database.
func NewUoW(tb testing.TB) (*infrarepo.UoW, *gorm.DB) {
	tb.Helper()
	db := NewSQLiteDB(tb)
	return infrarepo.NewUoW(db), db
}

// DiscardLogger returns a logger that drops everything.
func DiscardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// Clock is a settable time source for tests. It always returns UTC.
type Clock struct {
	mu  sync.Mutex
	now time.Time
}

// NewClock returns a clock frozen at t.
func NewClock(t time.Time) *Clock {
	return &Clock{now: t.UTC()}
}

// Now returns the current frozen time.
func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the clock forward by d.
func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}
