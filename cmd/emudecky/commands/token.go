package commands

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/emudecky/emudecky/cmd/emudecky/cmdutil"
	"github.com/emudecky/emudecky/internal/cli/credentials"
	"github.com/emudecky/emudecky/internal/cli/output"
	"github.com/emudecky/emudecky/pkg/controlplane/api"
)

var (
	tokenClient string
	tokenTTL    time.Duration
	tokenSave   bool
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Mint an API token",
	Long: `Mint a bearer token for the REST API, signed with the configured secret.

The token names the client it was issued to. With --save the token and the
server URL are stored for "emudecky status" and "emudecky call".

Examples:
  # Print a token for the frontend
  emudecky token --client frontend

  # Mint a one-day token and save it for this CLI
  emudecky token --ttl 24h --save`,
	RunE: runToken,
}

func init() {
	tokenCmd.Flags().StringVar(&tokenClient, "client", "cli", "Client name recorded in the token")
	tokenCmd.Flags().DurationVar(&tokenTTL, "ttl", 0, "Token lifetime (default: api.jwt.token_duration)")
	tokenCmd.Flags().BoolVar(&tokenSave, "save", false, "Save the token for client commands")
}

func runToken(cmd *cobra.Command, args []string) error {
	cfg, err := cmdutil.LoadConfig()
	if err != nil {
		return err
	}

	jwtService, err := api.NewJWTService(cfg.API)
	if err != nil {
		return err
	}
	if jwtService == nil {
		return errors.New("no API secret configured (set api.jwt.secret or " + api.EnvAPISecret + ")")
	}

	token, err := jwtService.GenerateToken(tokenClient, tokenTTL)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if tokenSave {
		credStore, err := credentials.NewStore()
		if err != nil {
			return fmt.Errorf("failed to initialize credential store: %w", err)
		}
		serverURL := cmdutil.Flags.ServerURL
		if serverURL == "" {
			serverURL = fmt.Sprintf("http://localhost:%d", cfg.API.Port)
		}
		if err := credStore.SetRemote(credentials.Remote{
			ServerURL: serverURL,
			Token:     token.AccessToken,
			Client:    tokenClient,
			ExpiresAt: token.ExpiresAt,
		}); err != nil {
			return fmt.Errorf("failed to save token: %w", err)
		}
		cmdutil.PrintSuccess(out, fmt.Sprintf("Token saved to %s (expires %s)", credStore.Path(), token.ExpiresAt.Local().Format(time.RFC3339)))
	}

	format, err := cmdutil.GetOutputFormatParsed()
	if err != nil {
		return err
	}
	switch format {
	case output.FormatJSON:
		return output.PrintJSON(out, token)
	case output.FormatYAML:
		return output.PrintYAML(out, token)
	default:
		if !tokenSave {
			_, _ = fmt.Fprintln(out, token.AccessToken)
		}
		return nil
	}
}
