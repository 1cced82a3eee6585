package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/emudecky/emudecky/pkg/config"
	"github.com/emudecky/emudecky/pkg/controlplane/api"
)

var initForce bool

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize a sample configuration file",
	Long: `Initialize a sample EmuDecky configuration file.

By default, the configuration file is created at $XDG_CONFIG_HOME/emudecky/config.yaml.
Use --config to specify a custom path. A random API secret is generated so
the REST API requires tokens from the start.

Examples:
  # Initialize with default location
  emudecky init

  # Initialize with custom path
  emudecky init --config /etc/emudecky/config.yaml

  # Force overwrite existing config
  emudecky init --force`,
	RunE: runInit,
}

func init() {
	initCmd.Flags().BoolVar(&initForce, "force", false, "Force overwrite existing config file")
}

func runInit(cmd *cobra.Command, args []string) error {
	configFile := GetConfigFile()

	var configPath string
	var err error

	if configFile != "" {
		err = config.InitConfigToPath(configFile, initForce)
		configPath = configFile
	} else {
		configPath, err = config.InitConfig(initForce)
	}

	if err != nil {
		return fmt.Errorf("failed to initialize config: %w", err)
	}

	out := cmd.OutOrStdout()
	_, _ = fmt.Fprintf(out, "Configuration file created at: %s\n", configPath)
	_, _ = fmt.Fprintln(out, "\nNext steps:")
	_, _ = fmt.Fprintln(out, "  1. Edit the configuration file to customize your setup")
	_, _ = fmt.Fprintln(out, "  2. Start the server with: emudecky start")
	_, _ = fmt.Fprintln(out, "  3. Mint a token for clients with: emudecky token --save")
	_, _ = fmt.Fprintln(out, "\nSecurity note:")
	_, _ = fmt.Fprintln(out, "  A random API secret has been written to the file.")
	_, _ = fmt.Fprintln(out, "  To keep it out of the file, remove api.jwt.secret and export:")
	_, _ = fmt.Fprintf(out, "    export %s=$(openssl rand -hex 32)\n", api.EnvAPISecret)

	return nil
}
