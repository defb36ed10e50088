package cmd

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/marcus/trigtrack/internal/auth"
	"github.com/marcus/trigtrack/internal/output"
	"github.com/marcus/trigtrack/internal/syncconfig"
)

var authCmd = &cobra.Command{
	Use:     "auth",
	Short:   "Manage stored credentials for the remote service",
	GroupID: "system",
}

var (
	loginUsername string
	loginPassword string
)

var authLoginCmd = &cobra.Command{
	Use:   "login",
	Short: "Store credentials and fetch a session token",
	RunE: func(cmd *cobra.Command, args []string) error {
		username := strings.TrimSpace(loginUsername)
		password := loginPassword

		if username == "" || password == "" {
			if !output.IsTerminal() {
				return errors.New("login requires --username and --password when not on a terminal")
			}
			form := huh.NewForm(huh.NewGroup(
				huh.NewInput().
					Title("Username").
					Value(&username).
					Validate(func(s string) error {
						if strings.TrimSpace(s) == "" {
							return errors.New("username is required")
						}
						return nil
					}),
				huh.NewInput().
					Title("Password").
					EchoMode(huh.EchoModePassword).
					Value(&password).
					Validate(func(s string) error {
						if s == "" {
							return errors.New("password is required")
						}
						return nil
					}),
			))
			if err := form.Run(); err != nil {
				return err
			}
			username = strings.TrimSpace(username)
		}

		if err := syncconfig.SaveAuth(&syncconfig.AuthCredentials{
			Username: username,
			Password: password,
		}); err != nil {
			output.Error("save credentials: %v", err)
			return err
		}

		// Verify against the server by fetching a token. Failure leaves the
		// credentials stored; sync retries the refresh on its own.
		provider, err := auth.NewProvider(syncconfig.GetServerURL())
		if err != nil {
			return err
		}
		ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
		defer cancel()
		if data, err := provider.RefreshToken(ctx); err != nil {
			output.Warning("credentials stored, but token fetch failed: %v", err)
		} else {
			output.Success("Logged in as %s (token valid until %s)",
				username, data.ExpiresAt.Local().Format("2006-01-02 15:04"))
			return nil
		}

		output.Success("Logged in as %s", username)
		return nil
	},
}

var authLogoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Remove stored credentials and session token",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := syncconfig.ClearAuth(); err != nil {
			output.Error("clear credentials: %v", err)
			return err
		}
		output.Success("Logged out")
		return nil
	},
}

var authStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the current login state",
	RunE: func(cmd *cobra.Command, args []string) error {
		creds, err := syncconfig.LoadAuth()
		if err != nil {
			return err
		}
		if creds == nil || strings.TrimSpace(creds.Username) == "" {
			output.Info("Not logged in. Run 'trigtrack auth login'.")
			return nil
		}

		output.Info("Logged in as %s", creds.Username)
		output.Subtle("Server: %s", syncconfig.GetServerURL())

		expiry := creds.TokenExpiry()
		switch {
		case expiry.IsZero():
			output.Subtle("Token: none (fetched on next sync)")
		case expiry.Before(time.Now()):
			output.Subtle("Token: expired %s (refreshed on next sync)",
				expiry.Local().Format("2006-01-02 15:04"))
		default:
			output.Subtle("Token: valid until %s", expiry.Local().Format("2006-01-02 15:04"))
		}
		return nil
	},
}

func init() {
	authLoginCmd.Flags().StringVarP(&loginUsername, "username", "u", "", "account username")
	authLoginCmd.Flags().StringVarP(&loginPassword, "password", "p", "", "account password")

	authCmd.AddCommand(authLoginCmd)
	authCmd.AddCommand(authLogoutCmd)
	authCmd.AddCommand(authStatusCmd)
	rootCmd.AddCommand(authCmd)
}
