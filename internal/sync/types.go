// Package sync implements the offline mutation outbox synchronization engine:
// one end-to-end run covering token refresh, visit-log upload, photo upload,
// and bulk status download with read-cache reconciliation.
package sync

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"

	"github.com/marcus/trigtrack/internal/auth"
	"github.com/marcus/trigtrack/internal/models"
	"github.com/marcus/trigtrack/internal/transfer"
)

// Code is the terminal result of one sync run.
type Code int

const (
	Success   Code = 0
	NoRows    Code = 1 // nothing queued — treated as success for UI purposes
	Error     Code = 2
	Cancelled Code = 3
)

// String returns a short name for the code.
func (c Code) String() string {
	switch c {
	case Success:
		return "success"
	case NoRows:
		return "no rows"
	case Error:
		return "error"
	case Cancelled:
		return "cancelled"
	default:
		return fmt.Sprintf("code(%d)", int(c))
	}
}

// Sentinel errors for run-level failures.
var (
	// ErrAlreadyRunning means another run holds the single-flight guard.
	// The contending run aborts without touching the outbox store.
	ErrAlreadyRunning = errors.New("sync already running")

	// ErrNotAuthenticated means no transfer client or blank stored
	// credentials; checked before any store or network access.
	ErrNotAuthenticated = errors.New("not logged in")
)

// ServerError is a reply with a non-zero status: the item was refused.
type ServerError struct {
	Status int
	Msg    string
}

func (e *ServerError) Error() string {
	if e.Msg != "" {
		return e.Msg
	}
	return fmt.Sprintf("server status %d", e.Status)
}

// Scope selects which markers a run covers: one marker, or everything.
// The download/reconciliation phase only runs for the all-markers scope.
type Scope struct {
	markerID int64
}

// ScopeAll covers every queued marker plus the bulk status download.
func ScopeAll() Scope { return Scope{} }

// ScopeMarker covers a single marker's queued log and photos.
func ScopeMarker(id int64) Scope { return Scope{markerID: id} }

// All reports whether this is the all-markers scope.
func (s Scope) All() bool { return s.markerID == 0 }

// MarkerID returns the selected marker, or 0 for the all-markers scope.
func (s Scope) MarkerID() int64 { return s.markerID }

func (s Scope) String() string {
	if s.All() {
		return "all"
	}
	return fmt.Sprintf("%d", s.markerID)
}

// Options controls one Execute call. Background marks runs triggered
// automatically (e.g. the post-download hook): missing-credential aborts are
// then logged but not surfaced through the reporter. That choice belongs to
// the trigger, never inferred by the engine.
type Options struct {
	Scope      Scope
	Background bool
}

// Reporter receives progress events during a run and exactly one terminal
// Synced call. The engine invokes it from its worker goroutine; callers that
// render on another goroutine (e.g. a TUI program) bridge the events over.
type Reporter interface {
	// SetMax announces the denominator for Progress: row count during the
	// log phase, total payload bytes during the photo phase.
	SetMax(n int64)
	// Progress reports monotonic progress toward the last SetMax.
	Progress(n int64)
	// Message reports a free-form status line.
	Message(text string)
	// StepCount reports "item i of n" within the current phase.
	StepCount(i, n int)
	// Synced delivers the terminal result exactly once per run.
	Synced(code Code, msg string)
}

// NopReporter discards all events.
type NopReporter struct{}

func (NopReporter) SetMax(int64)        {}
func (NopReporter) Progress(int64)      {}
func (NopReporter) Message(string)      {}
func (NopReporter) StepCount(int, int)  {}
func (NopReporter) Synced(Code, string) {}

// CacheTx is the transaction the download phase replaces the marker read
// cache in. Any failure mid-feed rolls the cache back to its pre-run state.
type CacheTx interface {
	Clear() error
	Apply(cond models.Condition, markerID int64) error
	Commit() error
	Rollback() error
}

// Store is the outbox storage the engine consumes. Implemented by
// internal/db via Adapt.
type Store interface {
	ListPendingLogs(markerID int64) ([]models.PendingLogEntry, error)
	DeletePendingLog(markerID int64) error
	PatchPhotosLogID(markerID, remoteLogID int64) error
	UpdateMarkerCachedCondition(markerID int64, cond models.Condition) error
	ListPendingPhotos(markerID int64) ([]models.PendingPhoto, error)
	DeletePendingPhoto(photoID int64) error
	BeginCacheRefresh() (CacheTx, error)
	SetExpectedRows(n int64) error
	TouchLastSync() error
}

// Transport is the HTTP exchange surface the engine consumes.
// Implemented by *transfer.Client.
type Transport interface {
	PostForm(ctx context.Context, path string, fields url.Values) (*transfer.Reply, error)
	PostMultipart(ctx context.Context, path string, fields map[string]string, fileField, filePath string, onProgress func(sent int64)) (*transfer.Reply, error)
	GetCompressedStream(ctx context.Context, path string) (io.ReadCloser, error)
}

// TokenSource is the authentication surface the engine consumes.
// Implemented by *auth.Provider.
type TokenSource interface {
	IsLoggedIn() bool
	ShouldRefreshToken() bool
	RefreshToken(ctx context.Context) (*auth.AuthData, error)
	Credentials() (username, password string)
}

// Stats summarizes one completed run.
type Stats struct {
	LogsUploaded   int
	PhotosUploaded int
	BytesSent      int64
	RowsDownloaded int64
}
