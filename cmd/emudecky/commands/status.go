package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/emudecky/emudecky/cmd/emudecky/cmdutil"
	"github.com/emudecky/emudecky/internal/cli/output"
	"github.com/emudecky/emudecky/internal/cli/timeutil"
	"github.com/emudecky/emudecky/pkg/apiclient"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show server status",
	Long: `Display the status of a running EmuDecky server.

The liveness probe reports uptime; the readiness probe reports the
coordinator state, the started modules, the settings backend and whether a
restart is required to apply changed module flags.

Examples:
  # Check the local server
  emudecky status

  # Check a remote server as JSON
  emudecky status --server http://steamdeck.local:8765 -o json`,
	RunE: runStatus,
}

// ServerStatus represents the server status information.
type ServerStatus struct {
	Running         bool     `json:"running" yaml:"running"`
	Ready           bool     `json:"ready" yaml:"ready"`
	Message         string   `json:"message" yaml:"message"`
	Server          string   `json:"server" yaml:"server"`
	StartedAt       string   `json:"started_at,omitempty" yaml:"started_at,omitempty"`
	Uptime          string   `json:"uptime,omitempty" yaml:"uptime,omitempty"`
	State           string   `json:"state,omitempty" yaml:"state,omitempty"`
	Started         []string `json:"started,omitempty" yaml:"started,omitempty"`
	Backend         string   `json:"backend,omitempty" yaml:"backend,omitempty"`
	RestartRequired bool     `json:"restart_required" yaml:"restart_required"`
}

func runStatus(cmd *cobra.Command, args []string) error {
	format, err := cmdutil.GetOutputFormatParsed()
	if err != nil {
		return err
	}

	client, err := cmdutil.GetClient()
	if err != nil {
		return err
	}

	status := collectStatus(client)

	out := cmd.OutOrStdout()
	switch format {
	case output.FormatJSON:
		return output.PrintJSON(out, status)
	case output.FormatYAML:
		return output.PrintYAML(out, status)
	default:
		return printStatusTable(cmd, status)
	}
}

// collectStatus queries both probes. Failures are folded into the message.
func collectStatus(client *apiclient.Client) ServerStatus {
	status := ServerStatus{
		Server:  client.BaseURL(),
		Message: "Server is not running",
	}

	live, err := client.Liveness()
	if err != nil {
		status.Message = fmt.Sprintf("Server is not reachable: %v", err)
		return status
	}
	status.Running = true
	status.StartedAt = live.StartedAt
	status.Uptime = live.Uptime

	report, ready, err := client.Ready()
	if err != nil {
		status.Message = fmt.Sprintf("Server is running but readiness failed: %v", err)
		return status
	}

	status.Ready = ready
	status.State = report.State
	status.Started = report.Started
	status.Backend = report.Backend
	status.RestartRequired = report.RestartRequired

	switch {
	case !ready:
		status.Message = fmt.Sprintf("Server is running but not ready (%s)", report.State)
	case report.RestartRequired:
		status.Message = "Server is running; restart required to apply module changes"
	default:
		status.Message = "Server is running and ready"
	}
	return status
}

func printStatusTable(cmd *cobra.Command, status ServerStatus) error {
	out := cmd.OutOrStdout()
	printer := output.NewPrinter(out, output.FormatTable, !cmdutil.IsColorDisabled())

	switch {
	case status.Ready && !status.RestartRequired:
		printer.Success(status.Message)
	case status.Running:
		printer.Warning(status.Message)
	default:
		printer.Error(status.Message)
		return nil
	}

	pairs := [][2]string{
		{"Server", status.Server},
		{"State", cmdutil.EmptyOr(status.State, "-")},
		{"Started", cmdutil.EmptyOr(strings.Join(status.Started, ", "), "-")},
		{"Backend", cmdutil.EmptyOr(status.Backend, "-")},
		{"Restart required", cmdutil.BoolToYesNo(status.RestartRequired)},
	}
	if status.StartedAt != "" {
		pairs = append(pairs, [2]string{"Started at", timeutil.FormatTime(status.StartedAt)})
	}
	if status.Uptime != "" {
		pairs = append(pairs, [2]string{"Uptime", timeutil.FormatUptime(status.Uptime)})
	}
	return output.SimpleTable(out, pairs)
}
