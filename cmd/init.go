package cmd

import (
	"github.com/marcus/trigtrack/internal/db"
	"github.com/marcus/trigtrack/internal/output"
	"github.com/spf13/cobra"
)

var initCmd = &cobra.Command{
	Use:     "init",
	Short:   "Create the local outbox database",
	GroupID: "system",
	RunE: func(cmd *cobra.Command, args []string) error {
		database, err := db.Initialize(getBaseDir())
		if err != nil {
			output.Error("initialize database: %v", err)
			return err
		}
		defer database.Close()

		output.Success("Initialized trigtrack outbox in %s", getBaseDir())
		output.Subtle("Next: 'trigtrack auth login' to store credentials")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
