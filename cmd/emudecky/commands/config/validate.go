package config

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/emudecky/emudecky/cmd/emudecky/cmdutil"
	"github.com/emudecky/emudecky/pkg/config"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration file",
	Long: `Validate the EmuDecky configuration file.

Checks for syntax errors, missing required fields, invalid values and unknown
module names in modules.defaults.

Examples:
  # Validate default config
  emudecky config validate

  # Validate specific config file
  emudecky config validate --config /etc/emudecky/config.yaml`,
	RunE: runConfigValidate,
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	configPath := cmdutil.Flags.ConfigFile

	cfg, err := config.MustLoad(configPath)
	if err != nil {
		return err
	}

	displayPath := configPath
	if displayPath == "" {
		displayPath = config.GetDefaultConfigPath()
	}

	var warnings []string
	if cfg.API.IsEnabled() && !cfg.API.HasJWTSecret() {
		warnings = append(warnings, "API secret not configured - the REST API accepts unauthenticated requests")
	}
	if flags := cfg.Modules.DefaultModuleFlags(); flags != nil && len(flags.EnabledModules()) == 0 {
		warnings = append(warnings, "modules.defaults disables every module")
	}

	out := cmd.OutOrStdout()
	_, _ = fmt.Fprintf(out, "Configuration file: %s\n", displayPath)
	_, _ = fmt.Fprintln(out, "Validation: OK")

	if len(warnings) > 0 {
		_, _ = fmt.Fprintln(out, "\nWarnings:")
		for _, w := range warnings {
			_, _ = fmt.Fprintf(out, "  - %s\n", w)
		}
	}

	_, _ = fmt.Fprintf(out, "\nConfiguration summary:\n")
	_, _ = fmt.Fprintf(out, "  Database type:   %s\n", cfg.Database.Type)
	_, _ = fmt.Fprintf(out, "  Namespace:       %s\n", cfg.Settings.Namespace)
	if cfg.API.IsEnabled() {
		_, _ = fmt.Fprintf(out, "  API port:        %d\n", cfg.API.Port)
	} else {
		_, _ = fmt.Fprintln(out, "  API port:        disabled")
	}
	_, _ = fmt.Fprintf(out, "  Log level:       %s\n", cfg.Logging.Level)

	return nil
}
