package postgres

import (
	"errors"
	"testing"
)

func TestNewPool_RequiresDatabaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "")

	pool, err := NewPool(t.Context())
	if !errors.Is(err, ErrDatabaseURLNotSet) {
		t.Fatalf("NewPool() error = %v, want %v", err, ErrDatabaseURLNotSet)
	}
	if pool != nil {
		t.Error("NewPool() returned a pool without DATABASE_URL")
	}
}
