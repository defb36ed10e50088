package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/marcus/trigtrack/internal/db"
	"github.com/marcus/trigtrack/internal/models"
	"github.com/marcus/trigtrack/internal/output"
)

var statusLong bool

var statusCmd = &cobra.Command{
	Use:     "status",
	Short:   "Show queued work and cached marker states",
	GroupID: "sync",
	RunE: func(cmd *cobra.Command, args []string) error {
		database, err := db.Open(getBaseDir())
		if err != nil {
			output.Error("%v", err)
			return err
		}
		defer database.Close()

		logs, err := database.ListPendingLogs(db.AllMarkers)
		if err != nil {
			return err
		}
		photos, err := database.ListPendingPhotos(db.AllMarkers)
		if err != nil {
			return err
		}

		if len(logs) == 0 && len(photos) == 0 {
			output.Info("Outbox empty.")
		} else {
			output.Info("Queued: %d log(s), %d photo(s)", len(logs), len(photos))
		}

		for _, e := range logs {
			line := fmt.Sprintf("  log    marker %-8d %s  %s",
				e.MarkerID, e.Visited.Date.Format("2006-01-02"), output.FormatCondition(e.Condition))
			if e.Score > 0 {
				line += "  " + output.FormatScore(e.Score)
			}
			output.Info("%s", line)
			if statusLong && strings.TrimSpace(e.Note) != "" {
				if rendered, err := output.RenderMarkdown(e.Note); err == nil {
					output.Info("%s", rendered)
				}
			}
		}
		for _, p := range photos {
			attach := "awaiting log ack"
			if p.RemoteLogID > 0 {
				attach = fmt.Sprintf("log %d", p.RemoteLogID)
			}
			output.Info("  photo  marker %-8d %s  (%s)", p.MarkerID, p.FullPath, attach)
		}

		state, err := database.GetSyncState()
		if err != nil {
			return err
		}
		if state.LastSyncAt != nil {
			output.Subtle("Last sync: %s", state.LastSyncAt.Local().Format("2006-01-02 15:04"))
		} else {
			output.Subtle("Never synced.")
		}

		if statusLong {
			if err := printMarkerCache(database); err != nil {
				return err
			}
		}
		return nil
	},
}

// printMarkerCache lists the cached logged state per marker, skipping
// not-logged rows to keep the listing short.
func printMarkerCache(database *db.DB) error {
	states, err := database.ListMarkerCache()
	if err != nil {
		return err
	}
	if len(states) == 0 {
		output.Subtle("Marker cache empty; run 'trigtrack sync' to populate it.")
		return nil
	}

	output.Info("Cached marker states (%d):", len(states))
	for _, s := range states {
		if s.Condition == models.ConditionNotLogged {
			continue
		}
		output.Info("  marker %-8d %s", s.MarkerID, output.FormatCondition(s.Condition))
	}
	return nil
}

func init() {
	statusCmd.Flags().BoolVarP(&statusLong, "long", "l", false, "include visit notes and the marker cache")

	rootCmd.AddCommand(statusCmd)
}
