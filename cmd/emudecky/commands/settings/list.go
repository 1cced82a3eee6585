package settings

import (
	"github.com/spf13/cobra"

	"github.com/emudecky/emudecky/cmd/emudecky/cmdutil"
	"github.com/emudecky/emudecky/internal/cli/output"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List all settings",
	Long: `List every key in the settings namespace.

Examples:
  # List as table
  emudecky settings list

  # List as YAML
  emudecky settings list -o yaml`,
	Args: cobra.NoArgs,
	RunE: runList,
}

func runList(cmd *cobra.Command, args []string) error {
	sess, err := openSession(cmd.Context())
	if err != nil {
		return err
	}
	defer func() { _ = sess.Close() }()

	values, err := sess.Host.Settings.Snapshot(cmd.Context())
	if err != nil {
		return err
	}

	compact := make(map[string]string, len(values))
	for k, v := range values {
		compact[k] = output.CompactJSON(v)
	}

	table := output.NewTableData("KEY", "VALUE")
	for _, kv := range output.SortedPairs(compact) {
		table.AddRow(kv[0], kv[1])
	}

	return cmdutil.PrintOutput(cmd.OutOrStdout(), values, len(values) == 0, "No settings stored.", table)
}
