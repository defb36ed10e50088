package db

import "fmt"

// RunMigrations runs any pending database migrations.
// Returns the number of migrations applied.
func (db *DB) RunMigrations() (int, error) {
	if _, err := db.conn.Exec(schema); err != nil {
		return 0, fmt.Errorf("create schema: %w", err)
	}

	current, err := db.GetSchemaVersion()
	if err != nil {
		return 0, err
	}
	if current >= SchemaVersion {
		return 0, nil
	}

	applied := 0

	// v2: sync_history grew a bytes_sent column
	if current < 2 {
		exists, err := db.columnExists("sync_history", "bytes_sent")
		if err != nil {
			return applied, err
		}
		if !exists {
			if _, err := db.conn.Exec(`ALTER TABLE sync_history ADD COLUMN bytes_sent INTEGER NOT NULL DEFAULT 0`); err != nil {
				return applied, fmt.Errorf("migrate v2: %w", err)
			}
		}
		applied++
	}

	if err := db.setSchemaVersion(SchemaVersion); err != nil {
		return applied, fmt.Errorf("set schema version: %w", err)
	}
	return applied, nil
}

// columnExists checks whether a column exists on a table
func (db *DB) columnExists(table, column string) (bool, error) {
	rows, err := db.conn.Query(fmt.Sprintf("PRAGMA table_info(%s);", table))
	if err != nil {
		return false, err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			cid, notnull, pk int
			name, ctype      string
			dflt             any
		)
		if err := rows.Scan(&cid, &name, &ctype, &notnull, &dflt, &pk); err != nil {
			return false, err
		}
		if name == column {
			return true, nil
		}
	}
	return false, rows.Err()
}
