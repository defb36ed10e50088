package cmd

import (
	"context"
	"log/slog"
	"time"

	"github.com/marcus/trigtrack/internal/db"
	"github.com/marcus/trigtrack/internal/output"
	"github.com/marcus/trigtrack/internal/sync"
	"github.com/marcus/trigtrack/internal/syncconfig"
)

// autoSyncAfterMutation runs a quiet marker-scoped sync right after a log or
// photo is queued, so fresh work reaches the server while connectivity holds.
// Disabled via config or TRIG_AUTO_SYNC=0. Failures stay in the outbox for
// the next explicit sync; only a hard error is surfaced.
func autoSyncAfterMutation(database *db.DB, markerID int64) {
	if !syncconfig.GetAutoSyncEnabled() {
		return
	}
	if !syncconfig.HasCredentials() {
		slog.Debug("auto-sync skipped", "reason", "not logged in")
		return
	}

	engine, err := newEngine(database, sync.NopReporter{}, false)
	if err != nil {
		slog.Debug("auto-sync skipped", "err", err)
		return
	}

	scope := sync.ScopeMarker(markerID)
	started := time.Now()
	code, stats, err := engine.Execute(context.Background(), sync.Options{
		Scope:      scope,
		Background: true,
	})
	recordRun(database, scope, code, errMessage(err), stats.BytesSent, started)

	switch code {
	case sync.Success:
		output.Subtle("Auto-synced %d log(s), %d photo(s).", stats.LogsUploaded, stats.PhotosUploaded)
	case sync.NoRows:
	default:
		output.Subtle("Auto-sync deferred (%s); items stay queued for 'trigtrack sync'.", code)
	}
}

func errMessage(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
