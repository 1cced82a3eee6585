package modules

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/emudecky/emudecky/cmd/emudecky/cmdutil"
	"github.com/emudecky/emudecky/pkg/controlplane/models"
)

var disableForce bool

var enableCmd = &cobra.Command{
	Use:   "enable <module>",
	Short: "Enable a module",
	Long: `Enable a module. Names are matched case-insensitively.

Examples:
  emudecky modules enable emuchievements`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runToggle(cmd, args[0], true)
	},
}

var disableCmd = &cobra.Command{
	Use:   "disable <module>",
	Short: "Disable a module",
	Long: `Disable a module. A disabled module is not started and its routed
methods report that it is not running.

Examples:
  # Disable with confirmation
  emudecky modules disable steamlesstimes

  # Skip confirmation
  emudecky modules disable steamlesstimes --force`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runToggle(cmd, args[0], false)
	},
}

func init() {
	disableCmd.Flags().BoolVarP(&disableForce, "force", "f", false, "Skip confirmation prompt")
}

func runToggle(cmd *cobra.Command, arg string, enable bool) error {
	name, err := cmdutil.ParseModuleArg(arg)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if !enable {
		ok, err := cmdutil.ConfirmWithForce(out, fmt.Sprintf("Disable module '%s'", name), disableForce)
		if err != nil || !ok {
			return err
		}
	}

	sess, err := openSession(cmd.Context())
	if err != nil {
		return err
	}
	defer func() { _ = sess.Close() }()

	changed, err := setEnabled(cmd.Context(), sess, name, enable)
	if err != nil {
		return err
	}

	state := "disabled"
	if enable {
		state = "enabled"
	}
	if !changed {
		cmdutil.PrintSuccess(out, fmt.Sprintf("Module '%s' is already %s", name, state))
		return nil
	}
	cmdutil.PrintSuccess(out, fmt.Sprintf("Module '%s' %s. Restart the server to apply.", name, state))
	return nil
}

// setEnabled updates a single flag and persists the map. It reports whether
// the flag changed.
func setEnabled(ctx context.Context, sess *cmdutil.Session, name models.ModuleName, enable bool) (bool, error) {
	flags := sess.Host.Modules.Get()
	if flags.Enabled(name) == enable {
		return false, nil
	}
	flags[name] = enable
	if err := sess.Host.Modules.Set(ctx, flags); err != nil {
		return false, fmt.Errorf("failed to save module flags: %w", err)
	}
	return true, nil
}
