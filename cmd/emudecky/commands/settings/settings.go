// Package settings implements settings namespace commands.
package settings

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/emudecky/emudecky/cmd/emudecky/cmdutil"
)

// Cmd is the parent command for settings management.
var Cmd = &cobra.Command{
	Use:   "settings",
	Short: "Settings management",
	Long: `Manage the values stored in the plugin settings namespace.

Values are JSON. A value that is not valid JSON is stored as a string.
The "modules" key is managed by 'emudecky modules' and cannot be changed here.

Examples:
  # List all settings
  emudecky settings list

  # Get a specific setting
  emudecky settings get username

  # Set a setting value
  emudecky settings set hidden true

  # Delete a setting
  emudecky settings delete api_key`,
}

func init() {
	Cmd.AddCommand(listCmd)
	Cmd.AddCommand(getCmd)
	Cmd.AddCommand(setCmd)
	Cmd.AddCommand(deleteCmd)
}

func openSession(ctx context.Context) (*cmdutil.Session, error) {
	cfg, err := cmdutil.LoadConfig()
	if err != nil {
		return nil, err
	}
	return cmdutil.OpenSession(ctx, cfg)
}
