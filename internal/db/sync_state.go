package db

import (
	"database/sql"
	"time"
)

// SyncState holds persisted sync bookkeeping: the row count announced by the
// bulk feed's first line (used to pre-size the next run's progress bar) and
// the time of the last completed run.
type SyncState struct {
	ExpectedRows int64
	LastSyncAt   *time.Time
}

// GetSyncState returns the persisted sync state. A fresh database yields the
// zero state rather than an error.
func (db *DB) GetSyncState() (*SyncState, error) {
	var s SyncState
	var lastSync sql.NullTime

	err := db.conn.QueryRow(`SELECT expected_rows, last_sync_at FROM sync_state WHERE id = 1`).
		Scan(&s.ExpectedRows, &lastSync)
	if err == sql.ErrNoRows {
		return &SyncState{}, nil
	}
	if err != nil {
		return nil, err
	}
	if lastSync.Valid {
		s.LastSyncAt = &lastSync.Time
	}
	return &s, nil
}

// SetExpectedRows persists the feed's announced row count. Written as soon as
// the count line is read, deliberately outside the cache-refresh transaction:
// it survives a failed download.
func (db *DB) SetExpectedRows(n int64) error {
	_, err := db.conn.Exec(`
		INSERT INTO sync_state (id, expected_rows) VALUES (1, ?)
		ON CONFLICT(id) DO UPDATE SET expected_rows = excluded.expected_rows`, n)
	return err
}

// TouchLastSync records the completion time of a run.
func (db *DB) TouchLastSync() error {
	_, err := db.conn.Exec(`
		INSERT INTO sync_state (id, last_sync_at) VALUES (1, CURRENT_TIMESTAMP)
		ON CONFLICT(id) DO UPDATE SET last_sync_at = CURRENT_TIMESTAMP`)
	return err
}
