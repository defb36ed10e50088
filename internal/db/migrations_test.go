package db

import (
	"database/sql"
	"path/filepath"
	"testing"

	_ "github.com/mattn/go-sqlite3"
)

func TestMigrationsIdempotent(t *testing.T) {
	dir := t.TempDir()

	db, err := Initialize(dir)
	if err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}
	db.Close()

	// Reopening runs migrations again; nothing new to apply.
	db, err = Open(dir)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer db.Close()

	applied, err := db.RunMigrations()
	if err != nil {
		t.Fatalf("RunMigrations failed: %v", err)
	}
	if applied != 0 {
		t.Errorf("applied: got %d, want 0 on up-to-date schema", applied)
	}
}

func TestGetSchemaVersionQueryError(t *testing.T) {
	db := setupDB(t)

	// A broken schema_info table must surface as an error, not as version 0.
	if _, err := db.Conn().Exec(`DROP TABLE schema_info`); err != nil {
		t.Fatalf("drop table: %v", err)
	}
	if _, err := db.GetSchemaVersion(); err == nil {
		t.Fatal("GetSchemaVersion reported no error on a missing schema_info table")
	}
}

func TestColumnExists(t *testing.T) {
	db := setupDB(t)

	exists, err := db.columnExists("sync_history", "bytes_sent")
	if err != nil {
		t.Fatalf("columnExists failed: %v", err)
	}
	if !exists {
		t.Error("bytes_sent column missing after migrations")
	}

	exists, err = db.columnExists("sync_history", "nonexistent")
	if err != nil {
		t.Fatalf("columnExists failed: %v", err)
	}
	if exists {
		t.Error("nonexistent column reported present")
	}
}

// The outbox file must stay a plain SQLite database readable by the canonical
// cgo driver, not something only modernc can open.
func TestDatabaseReadableBySQLite3Driver(t *testing.T) {
	dir := t.TempDir()

	db, err := Initialize(dir)
	if err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}
	if err := db.SetExpectedRows(7); err != nil {
		t.Fatalf("SetExpectedRows failed: %v", err)
	}
	db.Close()

	conn, err := sql.Open("sqlite3", filepath.Join(dir, ".trigtrack", "outbox.db"))
	if err != nil {
		t.Fatalf("open with sqlite3 driver: %v", err)
	}
	defer conn.Close()

	var rows int64
	err = conn.QueryRow(`SELECT expected_rows FROM sync_state WHERE id = 1`).Scan(&rows)
	if err != nil {
		t.Fatalf("query via sqlite3 driver: %v", err)
	}
	if rows != 7 {
		t.Errorf("expected_rows via sqlite3 driver: got %d, want 7", rows)
	}
}
