package cmd

import (
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

var (
	version string
	baseDir string
)

// SetVersion sets the version string reported by --version and sent to the
// server as the appversion field.
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}

var rootCmd = &cobra.Command{
	Use:   "trigtrack",
	Short: "Offline survey-marker visit logger with outbox sync",
	Long: `trigtrack - Record visits and photos of geodetic survey markers while
offline, then sync the queued logs and photos with the remote service.

Visits and photos queue locally until 'trigtrack sync' delivers them; the
server's per-marker logged state is mirrored back into a local cache.`,
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initBaseDir)

	rootCmd.AddGroup(
		&cobra.Group{ID: "record", Title: "Recording:"},
		&cobra.Group{ID: "sync", Title: "Sync:"},
		&cobra.Group{ID: "system", Title: "System:"},
	)
}

// initBaseDir resolves the working directory holding .trigtrack.
// Priority: TRIG_DIR env > nearest ancestor with .trigtrack > cwd.
func initBaseDir() {
	if v := os.Getenv("TRIG_DIR"); v != "" {
		baseDir = v
		return
	}

	dir, err := os.Getwd()
	if err != nil {
		baseDir = "."
		return
	}

	for d := dir; ; d = filepath.Dir(d) {
		if _, err := os.Stat(filepath.Join(d, ".trigtrack")); err == nil {
			baseDir = d
			return
		}
		if d == filepath.Dir(d) {
			break
		}
	}
	baseDir = dir
}

func getBaseDir() string {
	if baseDir == "" {
		initBaseDir()
	}
	return baseDir
}
