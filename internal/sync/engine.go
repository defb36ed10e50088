package sync

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"
)

// Service endpoint paths.
const (
	logSyncPath   = "/api/logsync.php"
	photoSyncPath = "/api/photosync.php"
	statusPath    = "/api/trigstatus.php"
)

// refreshTimeout bounds the best-effort token refresh at the start of a run.
const refreshTimeout = 10 * time.Second

// Config holds the collaborators for NewEngine.
type Config struct {
	Store      Store
	Tokens     TokenSource
	Transport  Transport
	Reporter   Reporter // nil means NopReporter
	AppVersion string   // sent as the appversion field
	SendEmail  bool     // ask the server to mail a log confirmation
	Debug      bool     // surface token-refresh failures through the reporter
}

// Engine orchestrates one synchronization run at a time: token refresh, log
// upload, photo upload, bulk status download, cache reconciliation. All
// phases of a run execute sequentially on the calling goroutine; the guard
// below keeps concurrent Execute calls out.
type Engine struct {
	store      Store
	tokens     TokenSource
	client     Transport
	reporter   Reporter
	appVersion string
	sendEmail  bool
	debug      bool

	running atomic.Bool
}

// NewEngine creates a sync engine.
func NewEngine(cfg Config) *Engine {
	rep := cfg.Reporter
	if rep == nil {
		rep = NopReporter{}
	}
	return &Engine{
		store:      cfg.Store,
		tokens:     cfg.Tokens,
		client:     cfg.Transport,
		reporter:   rep,
		appVersion: cfg.AppVersion,
		sendEmail:  cfg.SendEmail,
		debug:      cfg.Debug,
	}
}

// TryAcquire atomically claims the process-wide single-flight guard.
// Exported so tests can assert contention behavior directly.
func (e *Engine) TryAcquire() bool {
	return e.running.CompareAndSwap(false, true)
}

// Release clears the single-flight guard.
func (e *Engine) Release() {
	e.running.Store(false)
}

// Execute performs one end-to-end synchronization run and returns its
// terminal code plus run stats. The reporter receives progress events during
// the run and one Synced call at the end — except for missing-credential
// aborts of Background runs, which are logged but not surfaced.
func (e *Engine) Execute(ctx context.Context, opts Options) (Code, Stats, error) {
	if !e.TryAcquire() {
		e.reporter.Synced(Error, ErrAlreadyRunning.Error())
		return Error, Stats{}, ErrAlreadyRunning
	}
	defer e.Release()

	// Entry preconditions, checked before any store access.
	if e.client == nil || !e.tokens.IsLoggedIn() {
		if opts.Background {
			slog.Debug("sync skipped", "reason", "not logged in")
		} else {
			e.reporter.Synced(Error, ErrNotAuthenticated.Error())
		}
		return Error, Stats{}, ErrNotAuthenticated
	}

	e.refreshTokenIfStale(ctx)

	var stats Stats
	code, err := e.run(ctx, opts.Scope, &stats)

	msg := ""
	if err != nil {
		msg = err.Error()
	}
	slog.Debug("sync finished", "scope", opts.Scope.String(), "code", code.String(),
		"logs", stats.LogsUploaded, "photos", stats.PhotosUploaded, "bytes", stats.BytesSent)
	e.reporter.Synced(code, msg)
	return code, stats, err
}

// run executes the phases in order. Fail-fast: the first error aborts the
// rest of the run. Items committed before the failure stay committed.
func (e *Engine) run(ctx context.Context, scope Scope, stats *Stats) (Code, error) {
	logs, err := e.uploadLogs(ctx, scope, stats)
	if err != nil {
		return codeFor(err), err
	}

	photos, err := e.uploadPhotos(ctx, scope, stats)
	if err != nil {
		return codeFor(err), err
	}

	if scope.All() {
		if err := e.download(ctx, stats); err != nil {
			return codeFor(err), err
		}
	}

	if err := e.store.TouchLastSync(); err != nil {
		slog.Warn("record last sync time", "err", err)
	}

	if logs == 0 && photos == 0 {
		return NoRows, nil
	}
	return Success, nil
}

// refreshTokenIfStale refreshes the bearer-token lease when it is close to
// expiry. Best effort with a bounded wait: failures never fail the run and
// surface only in debug mode.
func (e *Engine) refreshTokenIfStale(ctx context.Context) {
	if !e.tokens.ShouldRefreshToken() {
		return
	}

	refreshCtx, cancel := context.WithTimeout(ctx, refreshTimeout)
	defer cancel()

	if _, err := e.tokens.RefreshToken(refreshCtx); err != nil {
		slog.Warn("token refresh failed", "err", err)
		if e.debug {
			e.reporter.Message("token refresh failed: " + err.Error())
		}
		return
	}
	slog.Debug("token refreshed")
}

// codeFor maps a phase error to the run's terminal code.
func codeFor(err error) Code {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return Cancelled
	}
	return Error
}

// checkCancel is the cooperative cancellation point between items and
// phases. In-flight requests are never aborted mid-transfer.
func checkCancel(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		return nil
	}
}
