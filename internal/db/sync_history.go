package db

import (
	"time"
)

// SyncHistoryEntry represents a row from the sync_history table.
type SyncHistoryEntry struct {
	ID         int64
	Scope      string // "all" or a marker id
	Result     int    // terminal result code of the run
	Message    string
	BytesSent  int64
	StartedAt  time.Time
	FinishedAt time.Time
}

// RecordSyncRun appends one run to the history.
func (db *DB) RecordSyncRun(e *SyncHistoryEntry) error {
	_, err := db.conn.Exec(`
		INSERT INTO sync_history (scope, result, message, bytes_sent, started_at)
		VALUES (?, ?, ?, ?, ?)`,
		e.Scope, e.Result, e.Message, e.BytesSent, e.StartedAt.UTC().Format("2006-01-02 15:04:05"))
	return err
}

// GetSyncHistoryTail returns the last N runs in chronological order (oldest first).
func (db *DB) GetSyncHistoryTail(limit int) ([]SyncHistoryEntry, error) {
	rows, err := db.conn.Query(`
		SELECT id, scope, result, message, bytes_sent, started_at, finished_at
		FROM sync_history
		ORDER BY id DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []SyncHistoryEntry
	for rows.Next() {
		var e SyncHistoryEntry
		var started, finished string
		if err := rows.Scan(&e.ID, &e.Scope, &e.Result, &e.Message, &e.BytesSent, &started, &finished); err != nil {
			return nil, err
		}
		e.StartedAt, _ = parseTimestamp(started)
		e.FinishedAt, _ = parseTimestamp(finished)
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// Reverse to chronological order
	for i, j := 0, len(entries)-1; i < j; i, j = i+1, j-1 {
		entries[i], entries[j] = entries[j], entries[i]
	}
	return entries, nil
}

// PruneSyncHistory deletes rows not in the newest maxRows entries.
func (db *DB) PruneSyncHistory(maxRows int) error {
	_, err := db.conn.Exec(`
		DELETE FROM sync_history WHERE id NOT IN (
			SELECT id FROM sync_history ORDER BY id DESC LIMIT ?
		)`, maxRows)
	return err
}

// parseTimestamp tries common SQLite timestamp formats.
func parseTimestamp(s string) (time.Time, error) {
	for _, layout := range []string{
		"2006-01-02 15:04:05",
		time.RFC3339,
		"2006-01-02T15:04:05Z07:00",
	} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, &time.ParseError{Layout: "2006-01-02 15:04:05", Value: s}
}
