package cmd

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/marcus/trigtrack/internal/dateparse"
	"github.com/marcus/trigtrack/internal/db"
	"github.com/marcus/trigtrack/internal/models"
	"github.com/marcus/trigtrack/internal/output"
)

var (
	logDate       string
	logGridRef    string
	logNote       string
	logFBNumber   string
	logCondition  string
	logScore      int
	logFlagAdmins bool
	logFlagUsers  bool
)

var logCmd = &cobra.Command{
	Use:     "log <marker-id>",
	Short:   "Queue a visit log for a marker",
	GroupID: "record",
	Long: `Queue a visit log for a survey marker. The entry waits in the local
outbox until the next sync delivers it; re-logging the same marker before
then replaces the queued entry.

Without --condition the command opens an interactive form.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		markerID, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil || markerID <= 0 {
			return fmt.Errorf("invalid marker id %q", args[0])
		}

		if logCondition == "" {
			if !output.IsTerminal() {
				return errors.New("--condition is required when not on a terminal")
			}
			if err := runLogForm(); err != nil {
				return err
			}
		}

		cond, err := models.ParseCondition(strings.ToUpper(strings.TrimSpace(logCondition)))
		if err != nil {
			return err
		}
		if logScore != 0 && !models.ValidScore(logScore) {
			return fmt.Errorf("score %d out of range (%d-%d half-stars)",
				logScore, models.MinScore, models.MaxScore)
		}

		visit, err := dateparse.Parse(logDate)
		if err != nil {
			return err
		}

		database, err := db.Open(getBaseDir())
		if err != nil {
			output.Error("%v", err)
			return err
		}
		defer database.Close()

		entry := &models.PendingLogEntry{
			MarkerID:      markerID,
			Visited:       models.VisitTime{Date: visit.Date, SendTime: visit.HasTime},
			GridRef:       strings.TrimSpace(logGridRef),
			Note:          logNote,
			FBNumber:      strings.TrimSpace(logFBNumber),
			Condition:     cond,
			Score:         logScore,
			FlagForAdmins: logFlagAdmins,
			FlagForUsers:  logFlagUsers,
		}
		if err := database.QueueLog(entry); err != nil {
			output.Error("queue log: %v", err)
			return err
		}

		output.Success("Queued visit for marker %d: %s%s",
			markerID, output.FormatCondition(cond), scoreSuffix(logScore))
		autoSyncAfterMutation(database, markerID)
		return nil
	},
}

// runLogForm collects the visit details interactively. Flag values already
// set on the command line pre-fill the form.
func runLogForm() error {
	score := strconv.Itoa(logScore)
	if logScore == 0 {
		score = ""
	}

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Condition").
				Options(
					huh.NewOption("Good", string(models.ConditionGood)),
					huh.NewOption("Slightly damaged", string(models.ConditionSlightlyDamaged)),
					huh.NewOption("Damaged", string(models.ConditionDamaged)),
					huh.NewOption("Toppled", string(models.ConditionToppled)),
					huh.NewOption("Moved", string(models.ConditionMoved)),
					huh.NewOption("Remains", string(models.ConditionRemains)),
					huh.NewOption("Possibly missing", string(models.ConditionPossiblyMissing)),
					huh.NewOption("Missing", string(models.ConditionMissing)),
					huh.NewOption("Visited, couldn't reach it", string(models.ConditionVisited)),
					huh.NewOption("Unknown", string(models.ConditionUnknown)),
				).
				Value(&logCondition),
			huh.NewInput().
				Title("Visited").
				Description("now, today, yesterday, -3d, monday, or 2026-03-01 14:30").
				Value(&logDate).
				Validate(func(s string) error {
					_, err := dateparse.Parse(s)
					return err
				}),
			huh.NewInput().
				Title("Grid reference").
				Placeholder("optional").
				Value(&logGridRef),
			huh.NewInput().
				Title("Score").
				Description("1-10 half-stars, blank to skip").
				Value(&score).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return nil
					}
					n, err := strconv.Atoi(strings.TrimSpace(s))
					if err != nil || !models.ValidScore(n) {
						return fmt.Errorf("score must be %d-%d", models.MinScore, models.MaxScore)
					}
					return nil
				}),
			huh.NewText().
				Title("Note").
				Description("markdown, shown publicly with the log").
				Value(&logNote),
		),
	)
	if err := form.Run(); err != nil {
		return err
	}

	if s := strings.TrimSpace(score); s != "" {
		logScore, _ = strconv.Atoi(s)
	}
	return nil
}

func scoreSuffix(score int) string {
	if score == 0 {
		return ""
	}
	return " " + output.FormatScore(score)
}

func init() {
	logCmd.Flags().StringVarP(&logDate, "date", "d", "today", "visit date (now, yesterday, -3d, 2026-03-01 14:30)")
	logCmd.Flags().StringVarP(&logGridRef, "gridref", "g", "", "grid reference of the marker as found")
	logCmd.Flags().StringVarP(&logNote, "note", "n", "", "visit note (markdown)")
	logCmd.Flags().StringVar(&logFBNumber, "fb", "", "flush bracket number, if present")
	logCmd.Flags().StringVarP(&logCondition, "condition", "c", "", "condition code (G, S, D, T, M, R, Q, X, V, U)")
	logCmd.Flags().IntVarP(&logScore, "score", "s", 0, "score in half-stars (1-10)")
	logCmd.Flags().BoolVar(&logFlagAdmins, "flag-admins", false, "flag this log for site admins")
	logCmd.Flags().BoolVar(&logFlagUsers, "flag-users", false, "flag this log for other users")

	rootCmd.AddCommand(logCmd)
}
