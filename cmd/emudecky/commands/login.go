package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/emudecky/emudecky/cmd/emudecky/cmdutil"
	"github.com/emudecky/emudecky/internal/cli/prompt"
	"github.com/emudecky/emudecky/pkg/modules/emuchievements"
)

var (
	loginUsername string
	loginAPIKey   string
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Store RetroAchievements credentials",
	Long: `Store the RetroAchievements username and web API key used by the
Emuchievements module. The credentials are written directly to the settings
store, so the server does not need to be running; a running server picks them
up on the next achievements request.

The API key is shown on the RetroAchievements settings page.

Examples:
  # Prompt for both values
  emudecky login

  # Non-interactive
  emudecky login -u player1 --api-key 0123456789abcdef`,
	RunE: runLogin,
}

func init() {
	loginCmd.Flags().StringVarP(&loginUsername, "username", "u", "", "RetroAchievements username")
	loginCmd.Flags().StringVar(&loginAPIKey, "api-key", "", "RetroAchievements web API key")
}

func runLogin(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	username := loginUsername
	if username == "" {
		var err error
		if username, err = prompt.InputRequired("RetroAchievements username"); err != nil {
			return cmdutil.HandleAbort(out, err)
		}
	}

	apiKey := loginAPIKey
	if apiKey == "" {
		var err error
		if apiKey, err = prompt.Password("Web API key"); err != nil {
			return cmdutil.HandleAbort(out, err)
		}
	}

	cfg, err := cmdutil.LoadConfig()
	if err != nil {
		return err
	}

	ctx := context.Background()
	sess, err := cmdutil.OpenSession(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() { _ = sess.Close() }()

	// Login only touches the settings store, so no API client is needed.
	if err := emuchievements.New(nil).Login(ctx, sess.Host, username, apiKey); err != nil {
		return fmt.Errorf("login failed: %w", err)
	}

	cmdutil.PrintSuccess(out, fmt.Sprintf("Logged in to RetroAchievements as %s", username))
	return nil
}
