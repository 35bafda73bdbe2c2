package main

import (
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

const defaultBaseURL = "http://localhost:3001"

type App struct {
	BaseURL   string
	TokenPath string
	Secret    string
	Client    *http.Client
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	app := &App{Client: &http.Client{Timeout: 15 * time.Second}}

	cmd := &cobra.Command{
		Use:          "inspirewall",
		Short:        "Operator CLI for the InspireWall API and showcase",
		SilenceUsage: true,
		Example: strings.TrimSpace(`
  # Add an address to the list
  inspirewall subscribe reader@example.com

  # Exchange the admin secret for a token, then read the log
  inspirewall token --secret dev-secret
  inspirewall emails --csv data/emails.csv

  # Follow the showcase and hover slot 1
  inspirewall watch
  inspirewall send pointer.enter --slot 1
`),
	}

	cmd.PersistentFlags().StringVar(&app.BaseURL, "api", envOr("INSPIREWALL_API", defaultBaseURL), "API base URL")
	cmd.PersistentFlags().StringVar(&app.TokenPath, "token-file", defaultTokenPath(), "admin token file path")
	cmd.PersistentFlags().StringVar(&app.Secret, "secret", os.Getenv("ADMIN_SECRET"), "admin secret (used instead of a saved token)")

	cmd.AddCommand(newSubscribeCmd(app))
	cmd.AddCommand(newEmailsCmd(app))
	cmd.AddCommand(newSubscriptionsCmd(app))
	cmd.AddCommand(newTokenCmd(app))
	cmd.AddCommand(newLogoutCmd(app))
	cmd.AddCommand(newWatchCmd(app))
	cmd.AddCommand(newSendCmd(app))
	cmd.AddCommand(newManifestCmd(app))

	return cmd
}

func envOr(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}
