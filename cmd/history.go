package cmd

import (
	"github.com/spf13/cobra"

	"github.com/marcus/trigtrack/internal/db"
	"github.com/marcus/trigtrack/internal/output"
	"github.com/marcus/trigtrack/internal/sync"
)

var historyLimit int

var historyCmd = &cobra.Command{
	Use:     "history",
	Short:   "Show recent sync runs",
	GroupID: "sync",
	RunE: func(cmd *cobra.Command, args []string) error {
		database, err := db.Open(getBaseDir())
		if err != nil {
			output.Error("%v", err)
			return err
		}
		defer database.Close()

		entries, err := database.GetSyncHistoryTail(historyLimit)
		if err != nil {
			return err
		}
		if len(entries) == 0 {
			output.Info("No sync runs recorded yet.")
			return nil
		}

		for _, e := range entries {
			when := e.StartedAt.Local().Format("2006-01-02 15:04")
			code := sync.Code(e.Result)
			switch code {
			case sync.Success, sync.NoRows:
				output.Info("%s  scope %-6s %s", when, e.Scope, code)
			case sync.Cancelled:
				output.Warning("%s  scope %-6s %s", when, e.Scope, code)
			default:
				output.Error("%s  scope %-6s %s: %s", when, e.Scope, code, e.Message)
			}
		}
		return nil
	},
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "number of runs to show")

	rootCmd.AddCommand(historyCmd)
}
