package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/fulmenhq/gofulmen/appidentity"
	"github.com/fulmenhq/gofulmen/foundry"
	"github.com/fulmenhq/gofulmen/telemetry"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/namelens/brandlens/internal/ailink/driver"
	"github.com/namelens/brandlens/internal/appid"
	"github.com/namelens/brandlens/internal/config"
	"github.com/namelens/brandlens/internal/observability"
)

var (
	cfgFile   string
	envFile   string
	verbose   bool
	traceFile string

	// App identity loaded from .fulmen/app.yaml or the embedded copy
	appIdentity *appidentity.Identity

	// Version info set by main package
	versionInfo struct {
		Version   string
		Commit    string
		BuildDate string
	}

	traceCleanup func()
)

// SetVersionInfo is called by main package to set version information
func SetVersionInfo(version, commit, buildDate string) {
	versionInfo.Version = version
	versionInfo.Commit = commit
	versionInfo.BuildDate = buildDate
}

// GetAppIdentity returns the loaded app identity (only valid after initConfig)
func GetAppIdentity() *appidentity.Identity {
	return appIdentity
}

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	// NOTE: initConfig() overwrites these from app identity.
	Use:   filepath.Base(os.Args[0]),
	Short: "Brand name evaluation service",
	Long: `Evaluate candidate brand names for a category, price tier, and market.

Use the subcommands to run evaluations, serve the HTTP API, or inspect history.`,
	SilenceUsage: true,
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if traceCleanup != nil {
			traceCleanup()
		}
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Disable global telemetry early to prevent config loading from emitting
	// metrics to stdout. Server mode will initialize proper telemetry later.
	disabledConfig := &telemetry.Config{Enabled: false}
	if sys, err := telemetry.NewSystem(disabledConfig); err == nil {
		telemetry.SetGlobalSystem(sys)
	}

	// Load app identity early for help text (before cobra processes --help)
	if identity, err := appid.Get(context.Background()); err == nil && identity != nil {
		appIdentity = identity
		applyIdentity(identity)
	}

	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (optional; defaults to app identity config path)")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", "", ".env file to load (default: ./.env or project root)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output (sets log level to debug)")
	rootCmd.PersistentFlags().StringVar(&traceFile, "trace", "", "trace AILink requests/responses to NDJSON file")
}

func applyIdentity(identity *appidentity.Identity) {
	if identity.BinaryName != "" {
		rootCmd.Use = identity.BinaryName
	}
	if identity.Description != "" {
		rootCmd.Short = identity.Description
		rootCmd.Long = fmt.Sprintf("%s - %s\n\nUse the subcommands to run evaluations, serve the HTTP API, or inspect history.", identity.BinaryName, identity.Description)
	}
	if f := rootCmd.PersistentFlags().Lookup("config"); f != nil && identity.ConfigName != "" {
		f.Usage = fmt.Sprintf("config file (default is $XDG_CONFIG_HOME/%s/config.yaml)", identity.ConfigName)
	}
}

// initConfig loads the app identity and the CLI logger. Configuration itself
// is loaded per command by loadConfig so commands like version never fail
// on a broken config file.
func initConfig() {
	identity, err := appid.Get(context.Background())
	if err != nil {
		ExitWithCodeStderr(foundry.ExitFileNotFound, "Failed to load app identity", err)
	}
	appIdentity = identity
	applyIdentity(identity)

	observability.InitCLILogger(appIdentity.BinaryName, verbose)

	if traceFile != "" {
		enableTracing(traceFile)
	}
}

func enableTracing(path string) {
	if traceCleanup != nil {
		return
	}
	cleanup, err := driver.EnableTracing(path)
	if err != nil {
		observability.CLILogger.Warn("Failed to enable tracing", zap.Error(err))
		return
	}
	observability.CLILogger.Debug("AILink tracing enabled", zap.String("file", path))
	traceCleanup = cleanup
}

// loadConfig reads the layered configuration. Overrides carry flag values
// and win over every other layer.
func loadConfig(ctx context.Context, overrides ...map[string]any) (*config.Config, error) {
	cfg, err := config.Load(ctx, config.LoadOptions{
		ConfigFile: cfgFile,
		EnvFile:    envFile,
		Overrides:  overrides,
	})
	if err != nil {
		return nil, &configError{err: err}
	}
	if traceFile == "" && cfg.AILink.Debug.TraceFile != "" {
		enableTracing(cfg.AILink.Debug.TraceFile)
	}
	if verbose {
		observability.CLILogger.Debug("Configuration loaded",
			zap.String("store", describeStore(cfg.Store)),
			zap.String("default_provider", cfg.AILink.DefaultProvider))
	}
	return cfg, nil
}

// configError marks configuration failures so main can exit with the
// config-invalid code.
type configError struct{ err error }

func (e *configError) Error() string { return e.err.Error() }
func (e *configError) Unwrap() error { return e.err }
