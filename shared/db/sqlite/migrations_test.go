package sqlite

import (
	"database/sql"
	"path/filepath"
	"testing"
)

func tableExists(t *testing.T, sqlDB *sql.DB, kind, name string) bool {
	t.Helper()
	var count int
	err := sqlDB.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type = ? AND name = ?", kind, name).Scan(&count)
	if err != nil {
		t.Fatalf("Failed to look up %s %s: %v", kind, name, err)
	}
	return count == 1
}

func TestRunMigrations(t *testing.T) {
	database := NewSQLiteDB(&SQLiteConfig{Path: filepath.Join(t.TempDir(), "test.db")})
	if err := database.Connect(); err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	defer database.Close()

	sqlDB := database.DB()

	for _, obj := range []struct{ kind, name string }{
		{"table", "schema_migrations"},
		{"table", "posts"},
	} {
		if !tableExists(t, sqlDB, obj.kind, obj.name) {
			t.Errorf("%s %s not created", obj.kind, obj.name)
		}
	}

	var version int
	var name string
	err := sqlDB.QueryRow("SELECT version, name FROM schema_migrations WHERE version = 1").Scan(&version, &name)
	if err != nil {
		t.Fatalf("Failed to query schema_migrations: %v", err)
	}
	if name != "create_posts_table" {
		t.Errorf("name = %q, want %q", name, "create_posts_table")
	}
}

func TestRunMigrationsIdempotent(t *testing.T) {
	cfg := &SQLiteConfig{Path: filepath.Join(t.TempDir(), "test.db")}

	for i := 0; i < 2; i++ {
		database := NewSQLiteDB(cfg)
		if err := database.Connect(); err != nil {
			t.Fatalf("Connect() #%d error = %v", i+1, err)
		}

		var count int
		if err := database.DB().QueryRow("SELECT COUNT(*) FROM schema_migrations").Scan(&count); err != nil {
			t.Fatalf("Failed to count migrations: %v", err)
		}
		if count != len(migrations) {
			t.Errorf("connect #%d: recorded migrations = %d, want %d", i+1, count, len(migrations))
		}

		database.Close()
	}
}
