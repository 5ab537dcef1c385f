package cmd

import (
	"context"
	"time"

	"github.com/fulmenhq/gofulmen/foundry"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	errwrap "github.com/namelens/brandlens/internal/errors"
	"github.com/namelens/brandlens/internal/observability"
)

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Run self-health check",
	Long:  "Run a self-health check: version info, logger, configuration, and the evaluation store.",
	Run: func(cmd *cobra.Command, args []string) {
		if observability.CLILogger == nil {
			ExitWithCodeStderr(foundry.ExitConfigInvalid, "Logger not initialized", errwrap.NewConfigInvalidError("Logger not initialized"))
			return
		}
		logger := observability.CLILogger
		logger.Info("Running health check...")

		if versionInfo.Version == "" {
			ExitWithCode(logger, foundry.ExitConfigInvalid, "Version information missing", errwrap.NewConfigInvalidError("Version information missing"))
			return
		}
		logger.Debug("Version check passed", zap.String("version", versionInfo.Version))
		logger.Info("✅ Version information available")

		ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
		defer cancel()

		cfg, err := loadConfig(ctx)
		if err != nil {
			ExitWithCode(logger, ExitCodeFor(err), "Configuration invalid", err)
			return
		}
		logger.Info("✅ Configuration loaded")

		st, err := openStore(ctx, cfg)
		if err != nil {
			ExitWithCode(logger, foundry.ExitExternalServiceUnavailable, "Store unavailable", err)
			return
		}
		defer st.Close() // nolint:errcheck // best-effort cleanup
		if err := st.Ping(ctx); err != nil {
			ExitWithCode(logger, foundry.ExitExternalServiceUnavailable, "Store ping failed", err)
			return
		}
		logger.Info("✅ Store reachable", zap.String("store", describeStore(cfg.Store)))

		if _, err := buildPromptRegistry(cfg); err != nil {
			ExitWithCode(logger, foundry.ExitConfigInvalid, "Prompts failed to load", err)
			return
		}
		logger.Info("✅ Prompts loaded")

		logger.Info("")
		logger.Info("✅ All health checks passed")
	},
}

func init() {
	rootCmd.AddCommand(healthCmd)
}
