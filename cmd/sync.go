package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/marcus/trigtrack/internal/auth"
	"github.com/marcus/trigtrack/internal/db"
	"github.com/marcus/trigtrack/internal/output"
	"github.com/marcus/trigtrack/internal/sync"
	"github.com/marcus/trigtrack/internal/syncconfig"
	"github.com/marcus/trigtrack/internal/transfer"
	"github.com/marcus/trigtrack/internal/tui"
)

// History is pruned to this many rows after each recorded run.
const maxHistoryRows = 200

var (
	syncMarker int64
	syncEmail  bool
	syncStatus bool
)

var syncCmd = &cobra.Command{
	Use:     "sync",
	Short:   "Deliver queued logs and photos, refresh marker states",
	GroupID: "sync",
	Long: `Upload queued visit logs and photos to the remote service, then download
the bulk per-marker logged-state feed and replace the local cache with it.

With --marker only that marker's queued items are uploaded and the download
phase is skipped.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		database, err := db.Open(getBaseDir())
		if err != nil {
			output.Error("%v", err)
			return err
		}
		defer database.Close()

		if syncStatus {
			return printSyncStatus(database)
		}

		scope := sync.ScopeAll()
		if syncMarker > 0 {
			scope = sync.ScopeMarker(syncMarker)
		}
		opts := sync.Options{Scope: scope}

		started := time.Now()
		var (
			code  sync.Code
			stats sync.Stats
			msg   string
		)

		if output.IsTerminal() {
			type runResult struct {
				code  sync.Code
				stats sync.Stats
				err   error
			}
			done := make(chan runResult, 1)
			_, _, err = tui.RunSync(func(rep sync.Reporter) {
				engine, err := newEngine(database, rep, syncEmail)
				if err != nil {
					rep.Synced(sync.Error, err.Error())
					done <- runResult{code: sync.Error, err: err}
					return
				}
				c, s, e := engine.Execute(cmd.Context(), opts)
				done <- runResult{code: c, stats: s, err: e}
			})
			if err != nil {
				return err
			}
			res := <-done
			code, stats = res.code, res.stats
			if res.err != nil {
				msg = res.err.Error()
			}
		} else {
			engine, err := newEngine(database, plainReporter{}, syncEmail)
			if err != nil {
				output.Error("%v", err)
				return err
			}
			var runErr error
			code, stats, runErr = engine.Execute(cmd.Context(), opts)
			if runErr != nil {
				msg = runErr.Error()
			}
		}

		recordRun(database, scope, code, msg, stats.BytesSent, started)

		switch code {
		case sync.Success:
			output.Success("Synced: %d log(s), %d photo(s), %d marker state(s)",
				stats.LogsUploaded, stats.PhotosUploaded, stats.RowsDownloaded)
		case sync.NoRows:
			output.Info("Nothing queued; marker states refreshed (%d).", stats.RowsDownloaded)
		case sync.Cancelled:
			output.Warning("Sync cancelled; remaining items stay queued.")
		default:
			output.Error("sync failed: %s", msg)
			return fmt.Errorf("sync: %s", msg)
		}
		return nil
	},
}

// newEngine wires the sync engine from stored config: credentials, server
// URL, and debug surfacing.
func newEngine(database *db.DB, rep sync.Reporter, sendEmail bool) (*sync.Engine, error) {
	serverURL := syncconfig.GetServerURL()
	provider, err := auth.NewProvider(serverURL)
	if err != nil {
		return nil, err
	}

	return sync.NewEngine(sync.Config{
		Store:      sync.Adapt(database),
		Tokens:     provider,
		Transport:  transfer.New(serverURL),
		Reporter:   rep,
		AppVersion: version,
		SendEmail:  sendEmail,
		Debug:      syncconfig.DebugEnabled(),
	}), nil
}

// recordRun appends the run to sync_history; bookkeeping failures are
// reported but never fail the command.
func recordRun(database *db.DB, scope sync.Scope, code sync.Code, msg string, bytesSent int64, started time.Time) {
	err := database.RecordSyncRun(&db.SyncHistoryEntry{
		Scope:     scope.String(),
		Result:    int(code),
		Message:   msg,
		BytesSent: bytesSent,
		StartedAt: started,
	})
	if err != nil {
		output.Warning("record sync history: %v", err)
		return
	}
	if err := database.PruneSyncHistory(maxHistoryRows); err != nil {
		output.Warning("prune sync history: %v", err)
	}
}

// printSyncStatus shows what a run would cover and how the last one went,
// without starting one.
func printSyncStatus(database *db.DB) error {
	logs, photos, err := database.CountPending()
	if err != nil {
		return err
	}
	output.Info("Queued: %d log(s), %d photo(s)", logs, photos)

	state, err := database.GetSyncState()
	if err != nil {
		return err
	}
	if state.LastSyncAt != nil {
		output.Subtle("Last sync: %s", state.LastSyncAt.Local().Format("2006-01-02 15:04"))
	} else {
		output.Subtle("Never synced.")
	}
	if state.ExpectedRows > 0 {
		output.Subtle("Server feed size at last download: %d markers", state.ExpectedRows)
	}

	runs, err := database.GetSyncHistoryTail(1)
	if err != nil {
		return err
	}
	if len(runs) > 0 {
		last := runs[0]
		line := fmt.Sprintf("Last run: %s (scope %s)", sync.Code(last.Result), last.Scope)
		if last.Message != "" {
			line += ": " + last.Message
		}
		output.Subtle("%s", line)
	}
	return nil
}

// plainReporter prints progress as plain lines for non-TTY runs.
type plainReporter struct{}

func (plainReporter) SetMax(int64)   {}
func (plainReporter) Progress(int64) {}
func (plainReporter) Message(text string) {
	output.Subtle("%s", text)
}
func (plainReporter) StepCount(i, n int) {
	output.Subtle("photo %d of %d", i, n)
}
func (plainReporter) Synced(sync.Code, string) {}

func init() {
	syncCmd.Flags().Int64VarP(&syncMarker, "marker", "m", 0, "sync only this marker's queued items")
	syncCmd.Flags().BoolVar(&syncEmail, "email", false, "ask the server to mail a log confirmation")
	syncCmd.Flags().BoolVar(&syncStatus, "status", false, "show queued counts and the last run instead of syncing")

	rootCmd.AddCommand(syncCmd)
}
