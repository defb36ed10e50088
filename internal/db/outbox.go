package db

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/marcus/trigtrack/internal/models"
)

// AllMarkers selects every queued row when passed as the markerID argument
// of the List* methods.
const AllMarkers int64 = 0

const visitDateLayout = "2006-01-02"

// QueueLog records a visit for a marker, replacing any queued entry for the
// same marker. Delete-then-insert, never merge: the outbox holds at most one
// pending log per marker.
func (db *DB) QueueLog(entry *models.PendingLogEntry) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM pending_logs WHERE marker_id = ?`, entry.MarkerID); err != nil {
		return fmt.Errorf("delete existing log: %w", err)
	}

	sendTime := 0
	if entry.Visited.SendTime {
		sendTime = 1
	}
	_, err = tx.Exec(`
		INSERT INTO pending_logs (marker_id, visited_on, visited_hour, visited_minute, send_time,
		                          grid_ref, note, fb_number, condition, score, flag_admins, flag_users)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.MarkerID,
		entry.Visited.Date.Format(visitDateLayout),
		entry.Visited.Date.Hour(),
		entry.Visited.Date.Minute(),
		sendTime,
		entry.GridRef, entry.Note, entry.FBNumber, string(entry.Condition), entry.Score,
		boolToInt(entry.FlagForAdmins), boolToInt(entry.FlagForUsers),
	)
	if err != nil {
		return fmt.Errorf("insert pending log: %w", err)
	}

	return tx.Commit()
}

// ListPendingLogs returns queued visit logs, oldest first.
// Pass AllMarkers for every queued marker, or a marker id for just that one.
func (db *DB) ListPendingLogs(markerID int64) ([]models.PendingLogEntry, error) {
	query := `
		SELECT marker_id, visited_on, visited_hour, visited_minute, send_time,
		       grid_ref, note, fb_number, condition, score, flag_admins, flag_users, created_at
		FROM pending_logs`
	args := []any{}
	if markerID != AllMarkers {
		query += ` WHERE marker_id = ?`
		args = append(args, markerID)
	}
	query += ` ORDER BY created_at ASC, marker_id ASC`

	rows, err := db.conn.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query pending logs: %w", err)
	}
	defer rows.Close()

	var entries []models.PendingLogEntry
	for rows.Next() {
		e, err := scanPendingLog(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func scanPendingLog(rows *sql.Rows) (models.PendingLogEntry, error) {
	var (
		e                      models.PendingLogEntry
		visitedOn, cond        string
		hour, minute, sendTime int
		flagAdmins, flagUsers  int
		createdAt              string
	)
	err := rows.Scan(&e.MarkerID, &visitedOn, &hour, &minute, &sendTime,
		&e.GridRef, &e.Note, &e.FBNumber, &cond, &e.Score, &flagAdmins, &flagUsers, &createdAt)
	if err != nil {
		return e, fmt.Errorf("scan pending log: %w", err)
	}

	date, err := time.Parse(visitDateLayout, visitedOn)
	if err != nil {
		return e, fmt.Errorf("parse visit date %q: %w", visitedOn, err)
	}
	e.Visited = models.VisitTime{
		Date:     time.Date(date.Year(), date.Month(), date.Day(), hour, minute, 0, 0, time.UTC),
		SendTime: sendTime != 0,
	}
	e.Condition = models.Condition(cond)
	e.FlagForAdmins = flagAdmins != 0
	e.FlagForUsers = flagUsers != 0
	e.CreatedAt, _ = parseTimestamp(createdAt)
	return e, nil
}

// DeletePendingLog removes the queued log for a marker (after server ack).
func (db *DB) DeletePendingLog(markerID int64) error {
	_, err := db.conn.Exec(`DELETE FROM pending_logs WHERE marker_id = ?`, markerID)
	return err
}

// QueuePhoto stores a photo for later upload and returns its local id.
func (db *DB) QueuePhoto(photo *models.PendingPhoto) (int64, error) {
	res, err := db.conn.Exec(`
		INSERT INTO pending_photos (marker_id, remote_log_id, thumb_path, full_path,
		                            caption, description, subject, is_public)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		photo.MarkerID, photo.RemoteLogID, photo.ThumbPath, photo.FullPath,
		photo.Caption, photo.Description, string(photo.Subject), boolToInt(photo.IsPublic),
	)
	if err != nil {
		return 0, fmt.Errorf("insert pending photo: %w", err)
	}
	return res.LastInsertId()
}

// ListPendingPhotos returns queued photos, oldest first.
// Pass AllMarkers for every queued marker, or a marker id for just that one.
func (db *DB) ListPendingPhotos(markerID int64) ([]models.PendingPhoto, error) {
	query := `
		SELECT photo_id, marker_id, remote_log_id, thumb_path, full_path,
		       caption, description, subject, is_public, created_at
		FROM pending_photos`
	args := []any{}
	if markerID != AllMarkers {
		query += ` WHERE marker_id = ?`
		args = append(args, markerID)
	}
	query += ` ORDER BY photo_id ASC`

	rows, err := db.conn.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query pending photos: %w", err)
	}
	defer rows.Close()

	var photos []models.PendingPhoto
	for rows.Next() {
		var (
			p         models.PendingPhoto
			subject   string
			isPublic  int
			createdAt string
		)
		err := rows.Scan(&p.PhotoID, &p.MarkerID, &p.RemoteLogID, &p.ThumbPath, &p.FullPath,
			&p.Caption, &p.Description, &subject, &isPublic, &createdAt)
		if err != nil {
			return nil, fmt.Errorf("scan pending photo: %w", err)
		}
		p.Subject = models.PhotoSubject(subject)
		p.IsPublic = isPublic != 0
		p.CreatedAt, _ = parseTimestamp(createdAt)
		photos = append(photos, p)
	}
	return photos, rows.Err()
}

// PatchPhotosLogID stamps the server-assigned log id onto every queued photo
// for a marker. One bulk update, issued by the engine right after the
// marker's log upload is acknowledged and before any photo upload starts.
func (db *DB) PatchPhotosLogID(markerID, remoteLogID int64) error {
	_, err := db.conn.Exec(`UPDATE pending_photos SET remote_log_id = ? WHERE marker_id = ?`,
		remoteLogID, markerID)
	return err
}

// DeletePendingPhoto removes one queued photo row (after server ack).
func (db *DB) DeletePendingPhoto(photoID int64) error {
	_, err := db.conn.Exec(`DELETE FROM pending_photos WHERE photo_id = ?`, photoID)
	return err
}

// CountPending returns the number of queued logs and photos.
func (db *DB) CountPending() (logs, photos int64, err error) {
	if err = db.conn.QueryRow(`SELECT COUNT(*) FROM pending_logs`).Scan(&logs); err != nil {
		return 0, 0, err
	}
	if err = db.conn.QueryRow(`SELECT COUNT(*) FROM pending_photos`).Scan(&photos); err != nil {
		return 0, 0, err
	}
	return logs, photos, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
