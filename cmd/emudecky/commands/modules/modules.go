// Package modules implements module enablement commands.
package modules

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/emudecky/emudecky/cmd/emudecky/cmdutil"
)

// Cmd is the parent command for module management.
var Cmd = &cobra.Command{
	Use:   "modules",
	Short: "Module enablement",
	Long: `Inspect and change which feature modules are enabled.

The flags are read from and written to the settings store directly, so these
commands work whether or not the server is running. A running server picks
the change up on its next restart.

Examples:
  # List modules
  emudecky modules list

  # Disable MetaDeck
  emudecky modules disable metadeck

  # Enable it again
  emudecky modules enable MetaDeck`,
}

func init() {
	Cmd.AddCommand(listCmd)
	Cmd.AddCommand(enableCmd)
	Cmd.AddCommand(disableCmd)
}

// openSession loads the configuration and opens the settings store.
func openSession(ctx context.Context) (*cmdutil.Session, error) {
	cfg, err := cmdutil.LoadConfig()
	if err != nil {
		return nil, err
	}
	return cmdutil.OpenSession(ctx, cfg)
}
