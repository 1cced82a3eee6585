package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/emudecky/emudecky/cmd/emudecky/cmdutil"
)

var callCmd = &cobra.Command{
	Use:   "call <method> [json-args]",
	Short: "Invoke a module method on the running server",
	Long: `Invoke a routed feature method on a running EmuDecky server.

Arguments are a JSON object of named parameters. Use "-" to read them from
stdin. Methods run whether or not their module is enabled.

Methods:
  Emuchievements: Hash, Login, isLogin, Hidden, isHidden,
                  GetUserRecentlyPlayedGames, GetGameInfoAndUserProgress
  SteamlessTimes: on_lifetime_callback, on_game_start_callback,
                  on_suspend_callback, on_resume_callback,
                  get_playtimes, reset_playtime
  Host:           get_modules, set_modules

Examples:
  # Check whether a RetroAchievements login is stored
  emudecky call isLogin

  # Hash a ROM
  emudecky call Hash '{"path": "/home/deck/roms/psx/game.chd"}'

  # Recently played games as YAML
  emudecky call GetUserRecentlyPlayedGames '{"count": 5}' -o yaml`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runCall,
}

func runCall(cmd *cobra.Command, args []string) error {
	method := args[0]

	var callArgs json.RawMessage
	if len(args) == 2 {
		raw := args[1]
		if raw == "-" {
			data, err := io.ReadAll(cmd.InOrStdin())
			if err != nil {
				return fmt.Errorf("failed to read arguments: %w", err)
			}
			raw = string(data)
		}
		raw = strings.TrimSpace(raw)
		if !json.Valid([]byte(raw)) {
			return fmt.Errorf("arguments must be a JSON object, got %q", raw)
		}
		callArgs = json.RawMessage(raw)
	}

	client, err := cmdutil.GetClient()
	if err != nil {
		return err
	}

	result, err := client.Call(method, callArgs)
	if err != nil {
		return fmt.Errorf("call %s failed: %w", method, err)
	}

	printer, err := cmdutil.NewPrinter(cmd.OutOrStdout())
	if err != nil {
		return err
	}
	if len(result) == 0 {
		result = json.RawMessage("null")
	}
	return printer.PrintValue(result)
}
