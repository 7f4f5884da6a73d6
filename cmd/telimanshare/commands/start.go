package commands

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/telimanlogistique/telimanshare/internal/email"
	"github.com/telimanlogistique/telimanshare/internal/logger"
	"github.com/telimanlogistique/telimanshare/internal/preview"
	"github.com/telimanlogistique/telimanshare/internal/telemetry"
	"github.com/telimanlogistique/telimanshare/pkg/accounts"
	"github.com/telimanlogistique/telimanshare/pkg/api"
	"github.com/telimanlogistique/telimanshare/pkg/api/auth"
	"github.com/telimanlogistique/telimanshare/pkg/api/handlers"
	"github.com/telimanlogistique/telimanshare/pkg/config"
	"github.com/telimanlogistique/telimanshare/pkg/metrics"
	"github.com/telimanlogistique/telimanshare/pkg/share"
	"github.com/telimanlogistique/telimanshare/pkg/store/meta"
	"github.com/telimanlogistique/telimanshare/pkg/store/object"
)

var pidFile string

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the TelimanShare server",
	Long: `Start the TelimanShare server with the specified configuration.

The server runs in the foreground; use a process supervisor (systemd,
runit, Docker) for background operation.

Use --config to specify a custom configuration file, or it will use the
default location at $XDG_CONFIG_HOME/telimanshare/config.yaml.

Examples:
  # Start the server
  telimanshare start

  # Start with custom config file
  telimanshare start --config /etc/telimanshare/config.yaml

  # Start with environment variable overrides
  TELIMANSHARE_LOGGING_LEVEL=DEBUG telimanshare start`,
	RunE: runStart,
}

func init() {
	startCmd.Flags().StringVar(&pidFile, "pid-file", "", "Path to PID file (optional)")
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

	if !cfg.API.IsEnabled() {
		return fmt.Errorf("api.enabled is false; nothing to serve")
	}
	if !cfg.API.HasJWTSecret() {
		return fmt.Errorf("JWT secret is not configured\nSet api.jwt.secret in the config file or export %s", api.EnvJWTSecret)
	}

	// Create cancellable context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize OpenTelemetry (if enabled)
	telemetryCfg := telemetry.Config{
		Enabled:        cfg.Telemetry.Enabled,
		ServiceName:    "telimanshare",
		ServiceVersion: Version,
		Endpoint:       cfg.Telemetry.Endpoint,
		Insecure:       cfg.Telemetry.Insecure,
		SampleRate:     cfg.Telemetry.SampleRate,
	}
	telemetryShutdown, err := telemetry.Init(ctx, telemetryCfg)
	if err != nil {
		return fmt.Errorf("failed to initialize telemetry: %w", err)
	}
	defer func() {
		if err := telemetryShutdown(ctx); err != nil {
			logger.Error("telemetry shutdown error", "error", err)
		}
	}()

	// Initialize Pyroscope profiling (if enabled)
	profilingCfg := telemetry.ProfilingConfig{
		Enabled:        cfg.Telemetry.Profiling.Enabled,
		ServiceName:    "telimanshare",
		ServiceVersion: Version,
		Endpoint:       cfg.Telemetry.Profiling.Endpoint,
		ProfileTypes:   cfg.Telemetry.Profiling.ProfileTypes,
	}
	profilingShutdown, err := telemetry.InitProfiling(profilingCfg)
	if err != nil {
		return fmt.Errorf("failed to initialize profiling: %w", err)
	}
	defer func() {
		if err := profilingShutdown(); err != nil {
			logger.Error("profiling shutdown error", "error", err)
		}
	}()

	fmt.Println("TelimanShare - Internal document sharing")
	logger.Info("Log level", "level", cfg.Logging.Level, "format", cfg.Logging.Format)
	logger.Info("Configuration loaded", "source", getConfigSource(GetConfigFile()))
	if telemetry.IsEnabled() {
		logger.Info("Telemetry enabled", "endpoint", cfg.Telemetry.Endpoint, "sample_rate", cfg.Telemetry.SampleRate)
	} else {
		logger.Info("Telemetry disabled")
	}
	if telemetry.IsProfilingEnabled() {
		logger.Info("Profiling enabled", "endpoint", cfg.Telemetry.Profiling.Endpoint, "profile_types", cfg.Telemetry.Profiling.ProfileTypes)
	} else {
		logger.Info("Profiling disabled")
	}

	// Initialize accounts store for users and the activity log
	store, err := accounts.New(&cfg.Accounts)
	if err != nil {
		return fmt.Errorf("failed to initialize accounts store: %w", err)
	}
	defer func() { _ = store.Close() }()

	// Ensure admin user exists (generates random password on first run)
	adminPassword, err := store.EnsureAdminUser(ctx, cfg.Admin.Email)
	if err != nil {
		return fmt.Errorf("failed to ensure admin user: %w", err)
	}
	if adminPassword != "" {
		logger.Info("Admin user created", "email", cfg.Admin.Email)
		fmt.Printf("\n*** IMPORTANT: Admin user %s created with password: %s ***\n", cfg.Admin.Email, adminPassword)
		fmt.Println("Please save this password. It will not be shown again.")
		fmt.Println()
	}

	// Initialize storage backends
	objects, err := config.CreateObjectStore(ctx, cfg.Storage.Objects)
	if err != nil {
		return fmt.Errorf("failed to initialize object store: %w", err)
	}
	logger.Info("Object store initialized", "type", cfg.Storage.Objects.Type)

	metaStore, err := config.CreateMetaStore(ctx, cfg.Storage.Meta)
	if err != nil {
		return fmt.Errorf("failed to initialize metadata store: %w", err)
	}
	defer func() { _ = metaStore.Close() }()
	logger.Info("Metadata store initialized", "type", cfg.Storage.Meta.Type)

	// Build the share service
	opts := []share.Option{share.WithActivityRecorder(store)}
	if cfg.Preview.Enabled {
		opts = append(opts, share.WithPreviewRequester(preview.New(cfg.Preview, objects, metaStore)))
		logger.Info("Preview conversion enabled", "endpoint", cfg.Preview.Endpoint)
	}
	service := share.NewService(objects, metaStore, opts...)

	// Mailer no-ops when disabled, so it is always wired
	mailer := email.New(cfg.Email)
	if cfg.Email.Enabled {
		logger.Info("Email notifications enabled", "admin", cfg.Email.AdminEmail)
	}

	jwtService, err := auth.NewJWTService(auth.JWTConfig{
		Secret:               cfg.API.GetJWTSecret(),
		AccessTokenDuration:  cfg.API.JWT.AccessTokenDuration,
		RefreshTokenDuration: cfg.API.JWT.RefreshTokenDuration,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize JWT service: %w", err)
	}

	// Start metrics server if enabled
	if cfg.Metrics.Enabled {
		metricsServer := metrics.NewServer(fmt.Sprintf(":%d", cfg.Metrics.Port))
		go func() {
			if err := metricsServer.Start(); err != nil {
				logger.Error("metrics server error", "error", err)
			}
		}()
		defer func() {
			shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
			defer cancelShutdown()
			if err := metricsServer.Shutdown(shutdownCtx); err != nil {
				logger.Error("metrics server shutdown error", "error", err)
			}
		}()
		logger.Info("Metrics enabled", "port", cfg.Metrics.Port)
	} else {
		logger.Info("Metrics collection disabled")
	}

	apiServer := api.NewServer(cfg.API, api.Dependencies{
		Share:             service,
		Accounts:          store,
		JWT:               jwtService,
		Notifier:          mailer,
		HealthCheckers:    buildHealthCheckers(store, objects, metaStore),
		MaxUploadBytes:    int64(cfg.API.MaxUploadBytes),
		ProxyAllowedHosts: proxyAllowedHosts(cfg),
	})
	logger.Info("API server configured", "port", cfg.API.Port)

	// Write PID file if specified
	if pidFile != "" {
		if err := os.WriteFile(pidFile, []byte(fmt.Sprintf("%d", os.Getpid())), 0644); err != nil {
			return fmt.Errorf("failed to write PID file: %w", err)
		}
		defer func() { _ = os.Remove(pidFile) }()
	}

	// Start server in background
	serverDone := make(chan error, 1)
	go func() {
		serverDone <- apiServer.Start(ctx)
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
			logger.Error("Server shutdown error", "error", err)
			return err
		}
		logger.Info("Server stopped gracefully")

	case err := <-serverDone:
		signal.Stop(sigChan)
		if err != nil {
			logger.Error("Server error", "error", err)
			return err
		}
		logger.Info("Server stopped")
	}

	return nil
}

// proxyAllowedHosts resolves the hosts the office-viewer proxy may fetch
// from. An explicit config list wins; otherwise the S3 endpoint's host is
// used, falling back to AWS's own domain when no endpoint is configured.
func proxyAllowedHosts(cfg *config.Config) []string {
	if len(cfg.API.ProxyAllowedHosts) > 0 {
		return cfg.API.ProxyAllowedHosts
	}
	if endpoint := cfg.Storage.Objects.S3.Endpoint; endpoint != "" {
		if u, err := url.Parse(endpoint); err == nil && u.Hostname() != "" {
			return []string{u.Hostname()}
		}
	}
	return []string{".amazonaws.com"}
}

// buildHealthCheckers wires the readiness probe to the three backends. The
// object and metadata probes address a key that never exists; a clean
// not-found answer proves the backend is reachable.
func buildHealthCheckers(store *accounts.GORMStore, objects object.Store, metaStore meta.Store) []handlers.HealthChecker {
	const probeKey = ".readiness-probe"

	return []handlers.HealthChecker{
		{
			Name: "accounts",
			Check: func(ctx context.Context) error {
				sqlDB, err := store.DB().DB()
				if err != nil {
					return err
				}
				return sqlDB.PingContext(ctx)
			},
		},
		{
			Name: "objects",
			Check: func(ctx context.Context) error {
				_, err := objects.Stat(ctx, probeKey)
				if errors.Is(err, object.ErrNotFound) {
					return nil
				}
				return err
			},
		},
		{
			Name: "meta",
			Check: func(ctx context.Context) error {
				_, err := metaStore.Get(ctx, probeKey)
				if errors.Is(err, meta.ErrNotFound) {
					return nil
				}
				return err
			},
		},
	}
}
