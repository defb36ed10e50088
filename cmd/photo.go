package cmd

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/marcus/trigtrack/internal/db"
	"github.com/marcus/trigtrack/internal/models"
	"github.com/marcus/trigtrack/internal/output"
)

var (
	photoThumb   string
	photoCaption string
	photoDescr   string
	photoSubject string
	photoPrivate bool
)

var photoCmd = &cobra.Command{
	Use:     "photo <marker-id> <file>",
	Short:   "Queue a photo of a marker",
	GroupID: "record",
	Long: `Queue a photo for upload. The file stays on disk until the next sync
delivers it; a thumbnail may be attached with --thumb.

If a visit log is queued for the same marker, the photo is attached to it
once the server acknowledges the log. Otherwise the photo attaches to the
marker's latest existing log on the server.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		markerID, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil || markerID <= 0 {
			return fmt.Errorf("invalid marker id %q", args[0])
		}

		fullPath := args[1]
		if _, err := os.Stat(fullPath); err != nil {
			return fmt.Errorf("photo file: %w", err)
		}
		if photoThumb != "" {
			if _, err := os.Stat(photoThumb); err != nil {
				return fmt.Errorf("thumbnail file: %w", err)
			}
		}

		subject, err := models.ParsePhotoSubject(strings.ToUpper(strings.TrimSpace(photoSubject)))
		if err != nil {
			return err
		}

		database, err := db.Open(getBaseDir())
		if err != nil {
			output.Error("%v", err)
			return err
		}
		defer database.Close()

		photo := &models.PendingPhoto{
			MarkerID:    markerID,
			ThumbPath:   photoThumb,
			FullPath:    fullPath,
			Caption:     photoCaption,
			Description: photoDescr,
			Subject:     subject,
			IsPublic:    !photoPrivate,
		}
		id, err := database.QueuePhoto(photo)
		if err != nil {
			output.Error("queue photo: %v", err)
			return err
		}

		output.Success("Queued photo #%d for marker %d", id, markerID)

		logs, err := database.ListPendingLogs(markerID)
		if err == nil && len(logs) == 0 {
			output.Subtle("No visit log queued for this marker; the photo will attach to its latest server log.")
		}

		autoSyncAfterMutation(database, markerID)
		return nil
	},
}

func init() {
	photoCmd.Flags().StringVar(&photoThumb, "thumb", "", "thumbnail file to upload alongside the photo")
	photoCmd.Flags().StringVarP(&photoCaption, "caption", "c", "", "short caption")
	photoCmd.Flags().StringVar(&photoDescr, "descr", "", "longer description")
	photoCmd.Flags().StringVarP(&photoSubject, "subject", "s", string(models.SubjectMarker),
		"subject code: T marker, F flush bracket, P people, L landscape, O other")
	photoCmd.Flags().BoolVar(&photoPrivate, "private", false, "hide the photo from public galleries")

	rootCmd.AddCommand(photoCmd)
}
