package modules

import (
	"github.com/spf13/cobra"

	"github.com/emudecky/emudecky/cmd/emudecky/cmdutil"
	"github.com/emudecky/emudecky/pkg/controlplane/models"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List modules and whether they are enabled",
	Long: `List every module in startup order.

Examples:
  # List as table
  emudecky modules list

  # List as JSON
  emudecky modules list -o json`,
	Args: cobra.NoArgs,
	RunE: runList,
}

// ModuleList is a list of modules for table rendering.
type ModuleList []moduleRow

type moduleRow struct {
	Name    models.ModuleName
	Enabled bool
}

// Headers implements TableRenderer.
func (ml ModuleList) Headers() []string {
	return []string{"MODULE", "ENABLED"}
}

// Rows implements TableRenderer.
func (ml ModuleList) Rows() [][]string {
	rows := make([][]string, 0, len(ml))
	for _, m := range ml {
		rows = append(rows, []string{m.Name.String(), cmdutil.BoolToYesNo(m.Enabled)})
	}
	return rows
}

func runList(cmd *cobra.Command, args []string) error {
	sess, err := openSession(cmd.Context())
	if err != nil {
		return err
	}
	defer func() { _ = sess.Close() }()

	flags := sess.Host.Modules.Get()

	list := make(ModuleList, 0, len(models.KnownModules()))
	for _, name := range models.KnownModules() {
		list = append(list, moduleRow{Name: name, Enabled: flags.Enabled(name)})
	}

	return cmdutil.PrintOutput(cmd.OutOrStdout(), flags, false, "", list)
}
