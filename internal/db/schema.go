package db

import (
	"database/sql"
	"fmt"
)

// SchemaVersion is the current database schema version
const SchemaVersion = 2

const schema = `
-- Pending visit logs: at most one row per marker (delete-then-insert)
CREATE TABLE IF NOT EXISTS pending_logs (
    marker_id INTEGER PRIMARY KEY,
    visited_on TEXT NOT NULL,             -- YYYY-MM-DD
    visited_hour INTEGER NOT NULL DEFAULT 0,
    visited_minute INTEGER NOT NULL DEFAULT 0,
    send_time INTEGER NOT NULL DEFAULT 0,
    grid_ref TEXT NOT NULL DEFAULT '',
    note TEXT NOT NULL DEFAULT '',
    fb_number TEXT NOT NULL DEFAULT '',
    condition TEXT NOT NULL,
    score INTEGER NOT NULL,
    flag_admins INTEGER NOT NULL DEFAULT 0,
    flag_users INTEGER NOT NULL DEFAULT 0,
    created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

-- Pending photos: remote_log_id stays 0 until the marker's log is acked
CREATE TABLE IF NOT EXISTS pending_photos (
    photo_id INTEGER PRIMARY KEY AUTOINCREMENT,
    marker_id INTEGER NOT NULL,
    remote_log_id INTEGER NOT NULL DEFAULT 0,
    thumb_path TEXT NOT NULL,
    full_path TEXT NOT NULL,
    caption TEXT NOT NULL DEFAULT '',
    description TEXT NOT NULL DEFAULT '',
    subject TEXT NOT NULL DEFAULT 'T',
    is_public INTEGER NOT NULL DEFAULT 1,
    created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_pending_photos_marker ON pending_photos(marker_id);

-- Read cache of the server's per-marker logged condition (non-authoritative)
CREATE TABLE IF NOT EXISTS marker_cache (
    marker_id INTEGER PRIMARY KEY,
    condition TEXT NOT NULL
);

-- Single-row sync bookkeeping
CREATE TABLE IF NOT EXISTS sync_state (
    id INTEGER PRIMARY KEY CHECK (id = 1),
    expected_rows INTEGER NOT NULL DEFAULT 0,
    last_sync_at DATETIME
);

-- One row per completed sync run
CREATE TABLE IF NOT EXISTS sync_history (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    scope TEXT NOT NULL,
    result INTEGER NOT NULL,
    message TEXT NOT NULL DEFAULT '',
    bytes_sent INTEGER NOT NULL DEFAULT 0,
    started_at DATETIME NOT NULL,
    finished_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

-- Schema version tracking
CREATE TABLE IF NOT EXISTS schema_info (
    key TEXT PRIMARY KEY,
    value TEXT NOT NULL
);
`

// GetSchemaVersion returns the current schema version from the database.
// RunMigrations creates schema_info before calling this, so a missing row
// means a fresh database; any other failure is a real error.
func (db *DB) GetSchemaVersion() (int, error) {
	var version string
	err := db.conn.QueryRow("SELECT value FROM schema_info WHERE key = 'version'").Scan(&version)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read schema version: %w", err)
	}
	var v int
	fmt.Sscanf(version, "%d", &v)
	return v, nil
}

func (db *DB) setSchemaVersion(version int) error {
	_, err := db.conn.Exec(`INSERT OR REPLACE INTO schema_info (key, value) VALUES ('version', ?)`,
		fmt.Sprintf("%d", version))
	return err
}
