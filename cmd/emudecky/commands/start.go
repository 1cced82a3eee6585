package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/emudecky/emudecky/internal/logger"
	"github.com/emudecky/emudecky/internal/telemetry"
	"github.com/emudecky/emudecky/pkg/config"
	"github.com/emudecky/emudecky/pkg/controlplane/api"
	"github.com/emudecky/emudecky/pkg/controlplane/runtime"
	"github.com/emudecky/emudecky/pkg/controlplane/runtime/lifecycle"
	"github.com/emudecky/emudecky/pkg/controlplane/store"
	"github.com/emudecky/emudecky/pkg/modules/emuchievements"

	// Import prometheus metrics to register init() functions
	_ "github.com/emudecky/emudecky/pkg/metrics/prometheus"
)

var pidFile string

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the EmuDecky server",
	Long: `Start the EmuDecky server in the foreground.

The server reads the module flags from the settings store, starts the enabled
modules in order (Emuchievements, MetaDeck, SteamlessTimes) and serves the REST
API until SIGINT or SIGTERM, then stops the started modules.

Use --config to specify a custom configuration file, or it will use the
default location at $XDG_CONFIG_HOME/emudecky/config.yaml.

Examples:
  # Start with the default config
  emudecky start

  # Start with custom config file
  emudecky start --config /etc/emudecky/config.yaml

  # Start with environment variable overrides
  EMUDECKY_LOGGING_LEVEL=DEBUG emudecky start`,
	RunE: runStart,
}

func init() {
	startCmd.Flags().StringVar(&pidFile, "pid-file", "", "Path to PID file (written while running)")
}

func runStart(cmd *cobra.Command, args []string) error {
	cfg, err := config.MustLoad(GetConfigFile())
	if err != nil {
		return err
	}

	// Initialize the structured logger
	if err := InitLogger(cfg); err != nil {
		return err
	}
	defer func() { _ = logger.Close() }()

	// Create cancellable context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize OpenTelemetry (if enabled)
	telemetryShutdown, err := telemetry.Init(ctx, telemetry.Config{
		Enabled:        cfg.Telemetry.Enabled,
		ServiceName:    telemetry.DefaultServiceName,
		ServiceVersion: Version,
		Endpoint:       cfg.Telemetry.Endpoint,
		Insecure:       cfg.Telemetry.Insecure,
		SampleRate:     cfg.Telemetry.SampleRate,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize telemetry: %w", err)
	}
	defer func() {
		if err := telemetryShutdown(context.Background()); err != nil {
			logger.Error("telemetry shutdown error", logger.KeyError, err)
		}
	}()

	// Initialize Pyroscope profiling (if enabled)
	profilingShutdown, err := telemetry.InitProfiling(telemetry.ProfilingConfig{
		Enabled:        cfg.Telemetry.Profiling.Enabled,
		ServiceName:    telemetry.DefaultServiceName,
		ServiceVersion: Version,
		Endpoint:       cfg.Telemetry.Profiling.Endpoint,
		ProfileTypes:   cfg.Telemetry.Profiling.ProfileTypes,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize profiling: %w", err)
	}
	defer func() {
		if err := profilingShutdown(); err != nil {
			logger.Error("profiling shutdown error", logger.KeyError, err)
		}
	}()

	logger.Info("EmuDecky starting", "version", Version)
	logger.Info("Log level", "level", cfg.Logging.Level, "format", cfg.Logging.Format)
	logger.Info("Configuration loaded", "source", getConfigSource(GetConfigFile()))
	if telemetry.IsEnabled() {
		logger.Info("Telemetry enabled", "endpoint", cfg.Telemetry.Endpoint, "sample_rate", cfg.Telemetry.SampleRate)
	}
	if telemetry.IsProfilingEnabled() {
		logger.Info("Profiling enabled", "endpoint", cfg.Telemetry.Profiling.Endpoint, "profile_types", cfg.Telemetry.Profiling.ProfileTypes)
	}

	// Initialize metrics (if enabled)
	metricsResult := config.InitializeMetrics(cfg)

	settingsStore, err := store.New(&cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to initialize settings store: %w", err)
	}
	defer func() {
		if err := settingsStore.Close(); err != nil {
			logger.Error("settings store close error", logger.KeyError, err)
		}
	}()
	logger.Info("Settings store opened", logger.KeyBackend, settingsStore.Type(), logger.KeyNamespace, cfg.Settings.Namespace)

	rt, err := runtime.New(settingsStore, runtime.Options{
		Namespace:          cfg.Settings.Namespace,
		Defaults:           cfg.Modules.DefaultModuleFlags(),
		AchievementsClient: emuchievements.NewHTTPClient(cfg.Emuchievements.BaseURL, cfg.Emuchievements.Timeout),
		PollInterval:       cfg.Modules.PollInterval,
		LifecycleMetrics:   metricsResult.Lifecycle,
		SettingsMetrics:    metricsResult.Settings,
	})
	if err != nil {
		return fmt.Errorf("failed to create runtime: %w", err)
	}

	svc := lifecycle.New(cfg.ShutdownTimeout)

	// Set metrics server if enabled
	if metricsResult.Server != nil {
		svc.SetMetricsServer(metricsResult.Server)
	} else {
		logger.Info("Metrics collection disabled")
	}

	if cfg.API.IsEnabled() {
		apiServer, err := api.NewServer(cfg.API, rt)
		if err != nil {
			return fmt.Errorf("failed to create API server: %w", err)
		}
		svc.SetAPIServer(apiServer)
	} else {
		logger.Info("API server disabled")
	}

	// Write PID file if specified
	if pidFile != "" {
		if err := os.WriteFile(pidFile, []byte(fmt.Sprintf("%d", os.Getpid())), 0644); err != nil {
			return fmt.Errorf("failed to write PID file: %w", err)
		}
		defer func() { _ = os.Remove(pidFile) }()
	}

	// Start runtime in background
	serverDone := make(chan error, 1)
	go func() {
		serverDone <- rt.Serve(ctx, svc)
	}()

	// Wait for interrupt signal or server error
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	logger.Info("Server is running. Press Ctrl+C to stop.")

	select {
	case <-sigChan:
		signal.Stop(sigChan)
		logger.Info("Shutdown signal received, initiating graceful shutdown")
		cancel()

		// Wait for server to shut down gracefully
		if err := <-serverDone; err != nil {
			logger.Error("Server shutdown error", logger.KeyError, err)
			return err
		}
		logger.Info("Server stopped gracefully")

	case err := <-serverDone:
		signal.Stop(sigChan)
		if err != nil {
			logger.Error("Server error", logger.KeyError, err)
			return err
		}
		logger.Info("Server stopped")
	}

	return nil
}
