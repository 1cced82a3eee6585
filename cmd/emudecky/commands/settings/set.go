package settings

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/emudecky/emudecky/cmd/emudecky/cmdutil"
)

var setCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a setting value",
	Long: `Set a setting and write it to the store.

Examples:
  # Store a boolean
  emudecky settings set hidden true

  # Store a string (quotes optional)
  emudecky settings set username retro_fan

  # Store an object
  emudecky settings set playtimes '{"1234": 360}'`,
	Args: cobra.ExactArgs(2),
	RunE: runSet,
}

func runSet(cmd *cobra.Command, args []string) error {
	key := args[0]
	if err := cmdutil.CheckSettingKey(key); err != nil {
		return err
	}
	value := cmdutil.ParseValue(args[1])

	sess, err := openSession(cmd.Context())
	if err != nil {
		return err
	}
	defer func() { _ = sess.Close() }()

	mgr := sess.Host.Settings
	if err := mgr.Set(cmd.Context(), key, value); err != nil {
		return err
	}
	if err := mgr.Commit(cmd.Context()); err != nil {
		return err
	}

	cmdutil.PrintSuccess(cmd.OutOrStdout(), fmt.Sprintf("Setting '%s' updated", key))
	return nil
}
