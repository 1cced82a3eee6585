// Package cmdutil provides shared utilities for emudecky commands.
package cmdutil

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/emudecky/emudecky/internal/cli/credentials"
	"github.com/emudecky/emudecky/internal/cli/output"
	"github.com/emudecky/emudecky/internal/cli/prompt"
	"github.com/emudecky/emudecky/internal/logger"
	"github.com/emudecky/emudecky/pkg/apiclient"
	"github.com/emudecky/emudecky/pkg/config"
	"github.com/emudecky/emudecky/pkg/controlplane/models"
	"github.com/emudecky/emudecky/pkg/controlplane/runtime/modules"
	"github.com/emudecky/emudecky/pkg/controlplane/settings"
	"github.com/emudecky/emudecky/pkg/controlplane/store"
)

// EnvToken overrides the saved API token for client commands.
const EnvToken = "EMUDECKY_TOKEN"

// Flags stores global flag values accessible by subcommands.
var Flags = &GlobalFlags{}

// GlobalFlags holds the global flag values.
type GlobalFlags struct {
	ConfigFile string
	ServerURL  string
	Token      string
	Output     string
	NoColor    bool
}

// LoadConfig loads the configuration named by --config, falling back to
// defaults when no file exists.
func LoadConfig() (*config.Config, error) {
	cfg, err := config.Load(Flags.ConfigFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}

// ============================================================================
// Offline access
// ============================================================================

// Session is direct access to the settings store for commands that run
// without a server.
type Session struct {
	Store store.Store
	Host  *modules.Host
}

// Close releases the store.
func (s *Session) Close() error {
	return s.Store.Close()
}

// OpenSession opens the configured store, reads the settings namespace and
// loads the module flags. Only warnings are logged, to stderr, so command
// output stays clean.
func OpenSession(ctx context.Context, cfg *config.Config) (*Session, error) {
	if err := logger.Init(logger.Config{Level: "WARN", Format: "text", Output: "stderr"}); err != nil {
		return nil, err
	}

	s, err := store.New(&cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to open settings store: %w", err)
	}

	mgr := settings.NewManager(s, cfg.Settings.Namespace)
	if err := mgr.Read(ctx); err != nil {
		_ = s.Close()
		return nil, err
	}

	host := modules.NewHost(mgr)
	if _, err := host.Modules.Load(ctx, cfg.Modules.DefaultModuleFlags()); err != nil {
		_ = s.Close()
		return nil, err
	}

	return &Session{Store: s, Host: host}, nil
}

// ParseModuleArg resolves a module name given on the command line.
func ParseModuleArg(arg string) (models.ModuleName, error) {
	name, err := models.ParseModuleName(arg)
	if err != nil {
		names := make([]string, 0, len(models.KnownModules()))
		for _, n := range models.KnownModules() {
			names = append(names, n.String())
		}
		return "", fmt.Errorf("%w: %q (valid: %s)", models.ErrUnknownModule, arg, strings.Join(names, ", "))
	}
	return name, nil
}

// CheckSettingKey rejects keys the settings commands must not touch.
// The module flags are managed through the modules commands.
func CheckSettingKey(key string) error {
	if key == "" {
		return models.ErrInvalidKey
	}
	if key == models.ModulesSettingKey {
		return fmt.Errorf("%w: %q is managed by 'emudecky modules'", models.ErrInvalidKey, key)
	}
	return nil
}

// ParseValue interprets a command-line value as JSON. Anything that is not
// valid JSON is stored as a JSON string.
func ParseValue(arg string) json.RawMessage {
	if json.Valid([]byte(arg)) {
		return json.RawMessage(arg)
	}
	quoted, _ := json.Marshal(arg)
	return quoted
}

// ============================================================================
// Client access
// ============================================================================

// GetClient returns an API client for the running server.
//
// The server URL comes from --server, then the saved credentials, then the
// configured API port on localhost. The token comes from --token, then
// EMUDECKY_TOKEN, then the saved credentials; without one the client is
// unauthenticated, which works against a server with no JWT secret.
func GetClient() (*apiclient.Client, error) {
	credStore, err := credentials.NewStore()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize credential store: %w", err)
	}
	saved := credStore.Remote()

	url := Flags.ServerURL
	if url == "" {
		url = saved.ServerURL
	}
	if url == "" {
		cfg, err := LoadConfig()
		if err != nil {
			return nil, err
		}
		url = fmt.Sprintf("http://localhost:%d", cfg.API.Port)
	}

	client := apiclient.New(url)

	token := Flags.Token
	if token == "" {
		token = os.Getenv(EnvToken)
	}
	if token == "" {
		token, err = credStore.Token()
		if err != nil && !errors.Is(err, credentials.ErrNoToken) {
			return nil, err
		}
	}
	if token != "" {
		client.SetToken(token)
	}
	return client, nil
}

// ============================================================================
// Output
// ============================================================================

// GetOutputFormatParsed returns the parsed output format.
func GetOutputFormatParsed() (output.Format, error) {
	return output.ParseFormat(Flags.Output)
}

// IsColorDisabled returns whether color output is disabled.
func IsColorDisabled() bool {
	return Flags.NoColor
}

// NewPrinter returns a printer for the --output and --no-color flags.
func NewPrinter(w io.Writer) (*output.Printer, error) {
	format, err := GetOutputFormatParsed()
	if err != nil {
		return nil, err
	}
	return output.NewPrinter(w, format, !IsColorDisabled()), nil
}

// PrintOutput prints data in the specified format (JSON, YAML, or table).
// For table format, it displays emptyMsg if data is empty, otherwise uses the tableRenderer.
func PrintOutput(w io.Writer, data any, isEmpty bool, emptyMsg string, tableRenderer output.TableRenderer) error {
	format, err := GetOutputFormatParsed()
	if err != nil {
		return err
	}

	switch format {
	case output.FormatJSON:
		return output.PrintJSON(w, data)
	case output.FormatYAML:
		return output.PrintYAML(w, data)
	default:
		if isEmpty {
			_, _ = fmt.Fprintln(w, emptyMsg)
			return nil
		}
		return output.PrintTable(w, tableRenderer)
	}
}

// PrintSuccess prints a success message if the output format is table.
func PrintSuccess(w io.Writer, msg string) {
	format, err := GetOutputFormatParsed()
	if err != nil || format != output.FormatTable {
		return
	}
	output.NewPrinter(w, format, !IsColorDisabled()).Success(msg)
}

// PrintWarning prints a warning to stderr.
func PrintWarning(msg string) {
	output.NewPrinter(os.Stderr, output.FormatTable, !IsColorDisabled()).Warning(msg)
}

// ConfirmWithForce prompts for confirmation unless force is set. It returns
// false, with no error, when the user declines or aborts.
func ConfirmWithForce(w io.Writer, label string, force bool) (bool, error) {
	confirmed, err := prompt.ConfirmWithForce(label, force)
	if err != nil {
		return false, HandleAbort(w, err)
	}
	if !confirmed {
		_, _ = fmt.Fprintln(w, "Aborted.")
	}
	return confirmed, nil
}

// BoolToYesNo converts a boolean to "yes" or "no" string.
func BoolToYesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

// EmptyOr returns the value if not empty, otherwise returns the fallback.
// Useful for table display where empty fields should show "-".
func EmptyOr(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}

// HandleAbort checks if error is an abort (Ctrl+C) and prints a message.
// Returns nil for abort (user cancelled), otherwise returns the original error.
func HandleAbort(w io.Writer, err error) error {
	if prompt.IsAborted(err) {
		_, _ = fmt.Fprintln(w, "\nAborted.")
		return nil
	}
	return err
}
