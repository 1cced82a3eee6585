package settings

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/emudecky/emudecky/cmd/emudecky/cmdutil"
	"github.com/emudecky/emudecky/pkg/controlplane/models"
)

var deleteForce bool

var deleteCmd = &cobra.Command{
	Use:   "delete <key>",
	Short: "Delete a setting",
	Long: `Delete a setting from the store.

Examples:
  # Delete with confirmation
  emudecky settings delete api_key

  # Delete without confirmation
  emudecky settings delete api_key --force`,
	Args: cobra.ExactArgs(1),
	RunE: runDelete,
}

func init() {
	deleteCmd.Flags().BoolVarP(&deleteForce, "force", "f", false, "Skip confirmation prompt")
}

func runDelete(cmd *cobra.Command, args []string) error {
	key := args[0]
	if err := cmdutil.CheckSettingKey(key); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	ok, err := cmdutil.ConfirmWithForce(out, fmt.Sprintf("Delete setting '%s'", key), deleteForce)
	if err != nil || !ok {
		return err
	}

	sess, err := openSession(cmd.Context())
	if err != nil {
		return err
	}
	defer func() { _ = sess.Close() }()

	mgr := sess.Host.Settings
	if err := mgr.Delete(cmd.Context(), key); err != nil {
		if errors.Is(err, models.ErrSettingNotFound) {
			return fmt.Errorf("%w: %q", models.ErrSettingNotFound, key)
		}
		return err
	}
	if err := mgr.Commit(cmd.Context()); err != nil {
		return err
	}

	cmdutil.PrintSuccess(out, fmt.Sprintf("Setting '%s' deleted", key))
	return nil
}
