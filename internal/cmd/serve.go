package cmd

import (
	"context"
	"errors"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/fulmenhq/gofulmen/signals"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/namelens/brandlens/internal/config"
	errwrap "github.com/namelens/brandlens/internal/errors"
	"github.com/namelens/brandlens/internal/evaluate"
	"github.com/namelens/brandlens/internal/metrics"
	"github.com/namelens/brandlens/internal/observability"
	"github.com/namelens/brandlens/internal/schema"
	"github.com/namelens/brandlens/internal/server"
	"github.com/namelens/brandlens/internal/server/handlers"
	"github.com/namelens/brandlens/internal/store"
)

var (
	serverPort int
	serverHost string
)

// telemetryHealthChecker ensures telemetry system and exporter are available
type telemetryHealthChecker struct{}

func (telemetryHealthChecker) CheckHealth(ctx context.Context) error {
	if observability.TelemetrySystem == nil || observability.PrometheusExporter == nil {
		return errwrap.NewInternalError("telemetry system not initialized")
	}
	return nil
}

// identityHealthChecker validates app identity metadata
type identityHealthChecker struct {
	binaryName string
	envPrefix  string
	configName string
}

func (i identityHealthChecker) CheckHealth(ctx context.Context) error {
	switch {
	case i.binaryName == "":
		return errwrap.NewConfigInvalidError("app identity missing binary name")
	case i.envPrefix == "":
		return errwrap.NewConfigInvalidError("app identity missing env prefix")
	case i.configName == "":
		return errwrap.NewConfigInvalidError("app identity missing config name")
	}
	return nil
}

// swappableEvaluator lets SIGHUP replace the evaluation service while
// requests are in flight.
type swappableEvaluator struct {
	current atomic.Pointer[evaluate.Service]
}

func (s *swappableEvaluator) Evaluate(ctx context.Context, req schema.BrandEvaluationRequest) (*schema.BrandEvaluationResponse, error) {
	return s.current.Load().Evaluate(ctx, req)
}

func (s *swappableEvaluator) Run(ctx context.Context, req schema.BrandEvaluationRequest, opts evaluate.RunOptions) (*evaluate.Result, error) {
	return s.current.Load().Run(ctx, req, opts)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	Long: `Start the HTTP API server with graceful shutdown support.

Signal Handling:
  • Ctrl+C (SIGINT) or SIGTERM: Graceful shutdown
  • Ctrl+C twice within 2s: Force quit
  • SIGHUP: Reload configuration and rebuild the evaluator

The server drains in-flight requests, closes the store, and flushes logs on shutdown.`,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	cfg, err := loadConfig(ctx, serveOverrides(cmd))
	if err != nil {
		return err
	}

	identity := GetAppIdentity()
	namespace := identity.TelemetryNamespace()

	observability.InitServerLogger(identity.BinaryName, cfg.Logging.Level, namespace)
	logger := observability.ServerLogger

	if cfg.Metrics.Enabled {
		if err := observability.InitMetrics(observability.MetricsOptions{Namespace: namespace, Port: cfg.Metrics.Port}); err != nil {
			logger.Error("Failed to initialize metrics", zap.Error(err))
			return errwrap.WrapInternal(ctx, err, "metrics initialization failed")
		}
	}

	st, err := openStore(ctx, cfg)
	if err != nil {
		logger.Error("Failed to open store", zap.String("store", describeStore(cfg.Store)), zap.Error(err))
		return errwrap.WrapDatabaseError(ctx, err, "store initialization failed")
	}

	svc, err := buildEvaluator(cfg, st)
	if err != nil {
		_ = st.Close()
		return errwrap.WrapConfigInvalid(ctx, err, "evaluator initialization failed")
	}
	evaluator := &swappableEvaluator{}
	evaluator.current.Store(svc)

	logger.Info("Initializing server",
		zap.String("service", identity.BinaryName),
		zap.String("namespace", namespace),
		zap.String("version", versionInfo.Version),
		zap.String("host", cfg.Server.Host),
		zap.Int("port", cfg.Server.Port),
		zap.String("store", describeStore(cfg.Store)),
		zap.String("cache_scope", svc.Options.CacheScope),
		zap.Bool("metrics_enabled", cfg.Metrics.Enabled),
		zap.Int("metrics_port", observability.GetMetricsPort()))

	hm := handlers.NewHealthManager(versionInfo.Version)
	hm.RegisterChecker("store", handlers.CheckerFunc(st.Ping))
	hm.RegisterChecker("app_identity", identityHealthChecker{
		binaryName: identity.BinaryName,
		envPrefix:  identity.EnvPrefix,
		configName: identity.ConfigName,
	})
	if cfg.Metrics.Enabled {
		hm.RegisterChecker("telemetry", telemetryHealthChecker{})
	}

	handlers.SetAppIdentity(identity)
	srv := server.New(cfg.Server, &handlers.API{Evaluator: evaluator, Store: st}, hm)

	registerShutdown(srv, st, cfg.Server.ShutdownTimeout)
	registerReload(st, evaluator)

	// Enable double-tap force quit (Ctrl+C within 2 seconds)
	if err := signals.EnableDoubleTap(signals.DoubleTapConfig{
		Window:  2 * time.Second,
		Message: "Press Ctrl+C again within 2 seconds to force quit",
	}); err != nil {
		logger.Warn("Failed to enable double-tap force quit", zap.Error(err))
	}

	metrics.SetServerStartTime(time.Now().Unix())

	errChan := make(chan error, 1)
	go func() {
		logger.Info("Starting HTTP server...",
			zap.String("host", cfg.Server.Host),
			zap.Int("port", cfg.Server.Port))
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	go func() {
		if err := signals.Listen(ctx); err != nil {
			logger.Error("Signal handler error", zap.Error(err))
			errChan <- err
		}
	}()

	if err := <-errChan; err != nil {
		return errwrap.WrapInternal(ctx, err, "server error")
	}
	return nil
}

// registerShutdown registers handlers in LIFO order: the HTTP server stops
// first, then the store closes, then the metrics exporter stops, then logs
// flush.
func registerShutdown(srv *server.Server, st *store.Store, timeout time.Duration) {
	logger := observability.ServerLogger
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	signals.OnShutdown(func(ctx context.Context) error {
		logger.Info("Flushing logger...")
		if err := logger.Sync(); err != nil {
			// Sync errors are often benign (stdout/stderr already closed)
			logger.Warn("Logger sync returned error (may be benign)", zap.Error(err))
		}
		return nil
	})

	signals.OnShutdown(func(ctx context.Context) error {
		if err := observability.StopMetrics(); err != nil {
			logger.Warn("Metrics exporter stop returned error", zap.Error(err))
		}
		return nil
	})

	signals.OnShutdown(func(ctx context.Context) error {
		logger.Info("Closing store...")
		if err := st.Close(); err != nil {
			return errwrap.WrapDatabaseError(ctx, err, "store close failed")
		}
		return nil
	})

	signals.OnShutdown(func(ctx context.Context) error {
		logger.Info("Shutting down HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			return errwrap.WrapInternal(ctx, err, "server shutdown failed")
		}

		logger.Info("HTTP server stopped gracefully")
		return nil
	})
}

// registerReload rebuilds the evaluator from fresh configuration on SIGHUP.
// Listener, store and logger settings need a restart.
func registerReload(st *store.Store, evaluator *swappableEvaluator) {
	logger := observability.ServerLogger
	signals.OnReload(func(ctx context.Context) error {
		logger.Info("Received SIGHUP: reloading configuration")

		cfg, err := config.Load(ctx, config.LoadOptions{ConfigFile: cfgFile, EnvFile: envFile})
		if err != nil {
			logger.Error("Failed to reload configuration", zap.Error(err))
			return errwrap.WrapConfigInvalid(ctx, err, "config reload failed")
		}

		svc, err := buildEvaluator(cfg, st)
		if err != nil {
			logger.Error("Failed to rebuild evaluator", zap.Error(err))
			return errwrap.WrapConfigInvalid(ctx, err, "evaluator rebuild failed")
		}
		evaluator.current.Store(svc)

		logger.Info("Configuration reloaded",
			zap.String("cache_scope", svc.Options.CacheScope),
			zap.Int("max_retries", svc.Options.MaxRetries))
		return nil
	})
}

func serveOverrides(cmd *cobra.Command) map[string]any {
	overrides := map[string]any{}
	listen := map[string]any{}
	if cmd.Flags().Changed("host") {
		listen["host"] = serverHost
	}
	if cmd.Flags().Changed("port") {
		listen["port"] = serverPort
	}
	if len(listen) > 0 {
		overrides["server"] = listen
	}
	return overrides
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serverHost, "host", "localhost", "server host")
	serveCmd.Flags().IntVarP(&serverPort, "port", "p", 8080, "server port")
}
