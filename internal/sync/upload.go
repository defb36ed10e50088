package sync

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"strconv"

	"github.com/marcus/trigtrack/internal/models"
)

// logAck is the server acknowledgment of one uploaded visit log.
type logAck struct {
	markerID  int64
	logID     int64
	condition models.Condition
}

// uploadLogs pushes every queued visit log in scope. Fail-fast: the first
// failure aborts the phase and the run; rows not yet attempted stay queued
// for the next run. Returns the number of rows in the phase's input set.
func (e *Engine) uploadLogs(ctx context.Context, scope Scope, stats *Stats) (int, error) {
	logs, err := e.store.ListPendingLogs(scope.MarkerID())
	if err != nil {
		return 0, fmt.Errorf("list pending logs: %w", err)
	}
	if len(logs) == 0 {
		return 0, nil
	}

	e.reporter.SetMax(int64(len(logs)))

	it := newLogIterator(logs)
	for {
		rec, ok := it.next()
		if !ok {
			break
		}
		if err := checkCancel(ctx); err != nil {
			return len(logs), err
		}

		ack, err := e.uploadLog(ctx, rec)
		if err != nil {
			return len(logs), fmt.Errorf("upload log for marker %d: %w", rec.MarkerID, err)
		}
		if err := e.applyLogAck(ack); err != nil {
			return len(logs), err
		}

		stats.LogsUploaded++
		e.reporter.Progress(int64(it.pos()))
	}

	return len(logs), nil
}

// uploadLog serializes one pending log into the form-encoded log-sync request
// and parses the acknowledgment. Pure with respect to the store: all local
// mutation happens in applyLogAck.
func (e *Engine) uploadLog(ctx context.Context, rec models.PendingLogEntry) (*logAck, error) {
	username, password := e.tokens.Credentials()

	form := url.Values{}
	form.Set("username", username)
	form.Set("password", password)
	form.Set("id", strconv.FormatInt(rec.MarkerID, 10))
	form.Set("year", strconv.Itoa(rec.Visited.Date.Year()))
	form.Set("month", strconv.Itoa(int(rec.Visited.Date.Month())))
	form.Set("day", strconv.Itoa(rec.Visited.Date.Day()))
	form.Set("sendtime", yn(rec.Visited.SendTime))
	form.Set("hour", strconv.Itoa(rec.Visited.Date.Hour()))
	form.Set("minutes", strconv.Itoa(rec.Visited.Date.Minute()))
	form.Set("comment", rec.Note)
	form.Set("gridref", rec.GridRef)
	form.Set("fb", rec.FBNumber)
	form.Set("adminflag", yn(rec.FlagForAdmins))
	form.Set("userflag", yn(rec.FlagForUsers))
	form.Set("score", strconv.Itoa(rec.Score))
	form.Set("condition", string(rec.Condition))
	form.Set("sendemail", yn(e.sendEmail))
	form.Set("appversion", e.appVersion)

	// Cancellation is observed between items only; the request itself
	// runs to completion or timeout.
	reply, err := e.client.PostForm(context.WithoutCancel(ctx), logSyncPath, form)
	if err != nil {
		return nil, err
	}
	if reply.Status != 0 {
		return nil, &ServerError{Status: reply.Status, Msg: reply.Msg}
	}
	return &logAck{markerID: rec.MarkerID, logID: reply.LogID, condition: rec.Condition}, nil
}

// applyLogAck commits the local consequences of an acknowledged log: the
// queued row is gone, the marker's queued photos carry the server log id
// (before any photo upload is issued), and the read cache reflects the
// submitted condition.
func (e *Engine) applyLogAck(ack *logAck) error {
	if err := e.store.DeletePendingLog(ack.markerID); err != nil {
		return fmt.Errorf("delete pending log %d: %w", ack.markerID, err)
	}
	if err := e.store.PatchPhotosLogID(ack.markerID, ack.logID); err != nil {
		return fmt.Errorf("patch photos log id for marker %d: %w", ack.markerID, err)
	}
	if err := e.store.UpdateMarkerCachedCondition(ack.markerID, ack.condition); err != nil {
		return fmt.Errorf("update marker cache %d: %w", ack.markerID, err)
	}
	return nil
}

// uploadPhotos pushes every queued photo in scope through a byte-progress
// instrumented multipart post. A photo row and its two local image files are
// only deleted after the server acknowledges that photo. Fail-fast like the
// log phase. Returns the number of rows in the phase's input set.
func (e *Engine) uploadPhotos(ctx context.Context, scope Scope, stats *Stats) (int, error) {
	photos, err := e.store.ListPendingPhotos(scope.MarkerID())
	if err != nil {
		return 0, fmt.Errorf("list pending photos: %w", err)
	}
	if len(photos) == 0 {
		return 0, nil
	}

	// Pre-scan for the aggregate byte denominator.
	sizes := make([]int64, len(photos))
	var totalBytes int64
	for i, p := range photos {
		info, err := os.Stat(p.FullPath)
		if err != nil {
			return len(photos), fmt.Errorf("stat photo %d: %w", p.PhotoID, err)
		}
		sizes[i] = info.Size()
		totalBytes += info.Size()
	}
	e.reporter.SetMax(totalBytes)

	var sentBefore int64
	for i, p := range photos {
		if err := checkCancel(ctx); err != nil {
			return len(photos), err
		}
		e.reporter.StepCount(i+1, len(photos))

		base := sentBefore
		if err := e.uploadPhoto(ctx, p, func(sent int64) {
			e.reporter.Progress(base + sent)
		}); err != nil {
			return len(photos), fmt.Errorf("upload photo %d: %w", p.PhotoID, err)
		}

		if err := e.store.DeletePendingPhoto(p.PhotoID); err != nil {
			return len(photos), fmt.Errorf("delete pending photo %d: %w", p.PhotoID, err)
		}
		removeLocalFile(p.FullPath)
		removeLocalFile(p.ThumbPath)

		sentBefore += sizes[i]
		stats.PhotosUploaded++
		stats.BytesSent = sentBefore
		e.reporter.Progress(sentBefore)
	}

	return len(photos), nil
}

// uploadPhoto issues the multipart photo-sync request for one queued photo.
func (e *Engine) uploadPhoto(ctx context.Context, p models.PendingPhoto, onProgress func(int64)) error {
	username, password := e.tokens.Credentials()

	fields := map[string]string{
		"username":   username,
		"password":   password,
		"photoid":    strconv.FormatInt(p.PhotoID, 10),
		"tlog_id":    strconv.FormatInt(p.RemoteLogID, 10),
		"trig":       strconv.FormatInt(p.MarkerID, 10),
		"name":       p.Caption,
		"descr":      p.Description,
		"subject":    string(p.Subject),
		"ispublic":   yn(p.IsPublic),
		"appversion": e.appVersion,
	}

	reply, err := e.client.PostMultipart(context.WithoutCancel(ctx), photoSyncPath, fields, "photo", p.FullPath, onProgress)
	if err != nil {
		return err
	}
	if reply.Status != 0 {
		return &ServerError{Status: reply.Status, Msg: reply.Msg}
	}
	return nil
}

// removeLocalFile reclaims a photo file after upload. Losing the file is the
// point; failing to lose it is only worth a log line.
func removeLocalFile(path string) {
	if path == "" {
		return
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn("remove uploaded photo file", "path", path, "err", err)
	}
}

// logIterator yields one outbox record at a time, tracking position for
// progress reporting.
type logIterator struct {
	logs []models.PendingLogEntry
	i    int
}

func newLogIterator(logs []models.PendingLogEntry) *logIterator {
	return &logIterator{logs: logs}
}

func (it *logIterator) next() (models.PendingLogEntry, bool) {
	if it.i >= len(it.logs) {
		return models.PendingLogEntry{}, false
	}
	rec := it.logs[it.i]
	it.i++
	return rec, true
}

// pos returns the number of records yielded so far.
func (it *logIterator) pos() int { return it.i }

func yn(b bool) string {
	if b {
		return "Y"
	}
	return "N"
}
