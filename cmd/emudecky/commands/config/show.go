package config

import (
	"github.com/spf13/cobra"

	"github.com/emudecky/emudecky/cmd/emudecky/cmdutil"
	"github.com/emudecky/emudecky/internal/cli/output"
	"github.com/emudecky/emudecky/pkg/config"
)

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Display the effective configuration",
	Long: `Display the EmuDecky configuration after defaults and environment
overrides are applied. Table output is printed as YAML.

Examples:
  # Show config as YAML
  emudecky config show

  # Show as JSON
  emudecky config show --output json`,
	RunE: runConfigShow,
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cmdutil.Flags.ConfigFile)
	if err != nil {
		return err
	}

	format, err := cmdutil.GetOutputFormatParsed()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if format == output.FormatJSON {
		return output.PrintJSON(out, cfg)
	}
	return output.PrintYAML(out, cfg)
}
