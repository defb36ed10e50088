package db

import (
	"database/sql"
	"fmt"

	"github.com/marcus/trigtrack/internal/models"
)

// UpdateMarkerCachedCondition upserts one marker's cached logged condition.
// Called after a successful log upload with the condition the user submitted.
func (db *DB) UpdateMarkerCachedCondition(markerID int64, cond models.Condition) error {
	_, err := db.conn.Exec(`
		INSERT OR REPLACE INTO marker_cache (marker_id, condition) VALUES (?, ?)`,
		markerID, string(cond))
	return err
}

// GetMarkerCachedCondition returns the cached condition for a marker,
// or ConditionNotLogged when the marker has no cache row.
func (db *DB) GetMarkerCachedCondition(markerID int64) (models.Condition, error) {
	var cond string
	err := db.conn.QueryRow(`SELECT condition FROM marker_cache WHERE marker_id = ?`, markerID).Scan(&cond)
	if err == sql.ErrNoRows {
		return models.ConditionNotLogged, nil
	}
	if err != nil {
		return "", err
	}
	return models.Condition(cond), nil
}

// ListMarkerCache returns every cached marker state, ordered by marker id.
func (db *DB) ListMarkerCache() ([]models.MarkerState, error) {
	rows, err := db.conn.Query(`SELECT marker_id, condition FROM marker_cache ORDER BY marker_id ASC`)
	if err != nil {
		return nil, fmt.Errorf("query marker cache: %w", err)
	}
	defer rows.Close()

	var states []models.MarkerState
	for rows.Next() {
		var s models.MarkerState
		var cond string
		if err := rows.Scan(&s.MarkerID, &cond); err != nil {
			return nil, fmt.Errorf("scan marker cache: %w", err)
		}
		s.Condition = models.Condition(cond)
		states = append(states, s)
	}
	return states, rows.Err()
}

// CacheRefresh is a transaction-scoped full replacement of the marker cache.
// The download phase clears and repopulates the cache inside exactly one
// transaction so a mid-stream failure leaves it untouched.
type CacheRefresh struct {
	tx   *sql.Tx
	done bool
}

// BeginCacheRefresh opens the transaction for an all-or-nothing cache refresh.
func (db *DB) BeginCacheRefresh() (*CacheRefresh, error) {
	tx, err := db.conn.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin cache refresh: %w", err)
	}
	return &CacheRefresh{tx: tx}, nil
}

// Clear deletes the entire marker cache within the transaction.
func (r *CacheRefresh) Clear() error {
	_, err := r.tx.Exec(`DELETE FROM marker_cache`)
	return err
}

// Apply upserts one feed row within the transaction.
func (r *CacheRefresh) Apply(cond models.Condition, markerID int64) error {
	_, err := r.tx.Exec(`INSERT OR REPLACE INTO marker_cache (marker_id, condition) VALUES (?, ?)`,
		markerID, string(cond))
	return err
}

// Commit makes the refreshed cache visible.
func (r *CacheRefresh) Commit() error {
	r.done = true
	return r.tx.Commit()
}

// Rollback discards the refresh, restoring the pre-download cache.
// Safe to call after Commit (no-op), so it can sit in a defer.
func (r *CacheRefresh) Rollback() error {
	if r.done {
		return nil
	}
	r.done = true
	return r.tx.Rollback()
}
