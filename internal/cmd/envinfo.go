package cmd

import (
	"fmt"
	"runtime"
	"strings"

	"github.com/fulmenhq/gofulmen/crucible"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/namelens/brandlens/internal/config"
	"github.com/namelens/brandlens/internal/observability"
)

var envInfoCmd = &cobra.Command{
	Use:   "envinfo",
	Short: "Display environment information",
	Long:  "Display environment, configuration, and version information.",
	Run: func(cmd *cobra.Command, args []string) {
		log := observability.CLILogger
		version := crucible.GetVersion()

		log.Info("=== BrandLens Environment Information ===")
		log.Info("")

		binary := rootCmd.Name()
		if identity := GetAppIdentity(); identity != nil {
			binary = identity.BinaryName
		}
		log.Info("Application:")
		log.Info("  Name:       " + binary)
		log.Info("  Version:    " + versionInfo.Version)
		log.Info("  Commit:     " + versionInfo.Commit)
		log.Info("  Built:      " + versionInfo.BuildDate)
		log.Info("")

		log.Info("SSOT:")
		log.Info("  Gofulmen:   "+version.Gofulmen, zap.String("gofulmen_version", version.Gofulmen))
		log.Info("  Crucible:   "+version.Crucible, zap.String("crucible_version", version.Crucible))
		log.Info("")

		log.Info("Runtime:")
		log.Info("  Go Version: "+runtime.Version(), zap.String("go_version", runtime.Version()))
		log.Info("  GOOS:       "+runtime.GOOS, zap.String("goos", runtime.GOOS))
		log.Info("  GOARCH:     "+runtime.GOARCH, zap.String("goarch", runtime.GOARCH))
		log.Info(fmt.Sprintf("  NumCPU:     %d", runtime.NumCPU()), zap.Int("num_cpu", runtime.NumCPU()))
		log.Info("")

		cfg, err := loadConfig(cmd.Context())
		if err != nil {
			log.Warn("Config load failed", zap.Error(err))
			return
		}

		configFile := cfgFile
		if configFile == "" {
			configFile = config.DefaultConfigPath()
		}
		log.Info("Configuration:")
		log.Info("  Config File:    "+configFile, zap.String("config_file", configFile))
		log.Info("  Server:         "+fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port), zap.String("host", cfg.Server.Host), zap.Int("port", cfg.Server.Port))
		log.Info(fmt.Sprintf("  Max Body:       %d bytes", cfg.Server.MaxBodyBytes))
		log.Info("  Log Level:      "+cfg.Logging.Level, zap.String("log_level", cfg.Logging.Level))
		log.Info("  Log Profile:    "+cfg.Logging.Profile, zap.String("log_profile", cfg.Logging.Profile))
		log.Info("  Store Driver:   "+cfg.Store.Driver, zap.String("store_driver", cfg.Store.Driver))
		log.Info("  Store:          "+describeStore(cfg.Store), zap.String("store", describeStore(cfg.Store)))
		log.Info(fmt.Sprintf("  Metrics:        %t (port %d)", cfg.Metrics.Enabled, cfg.Metrics.Port), zap.Int("metrics_port", cfg.Metrics.Port))
		log.Info(fmt.Sprintf("  Workers:        %d", cfg.Workers))
		log.Info("")

		log.Info("Evaluation:")
		log.Info("  Prompt:         " + firstNonEmpty(cfg.Evaluation.Prompt, "(default)"))
		log.Info("  Role:           " + firstNonEmpty(cfg.Evaluation.Role, "(prompt slug)"))
		log.Info("  Model:          " + firstNonEmpty(cfg.Evaluation.Model, "(provider default)"))
		log.Info("  Timeout:        " + cfg.Evaluation.Timeout.String())
		log.Info(fmt.Sprintf("  Max Retries:    %d (backoff %s)", cfg.Evaluation.MaxRetries, cfg.Evaluation.RetryBackoff))
		log.Info(fmt.Sprintf("  Cache:          %t (ttl %s)", cfg.Evaluation.CacheEnabled, cfg.Cache.EvaluationTTL), zap.Bool("cache_enabled", cfg.Evaluation.CacheEnabled))
		log.Info("  Defaults:       " + fmt.Sprintf("%s / %s / %s / %s",
			cfg.Evaluation.DefaultCategory, cfg.Evaluation.DefaultPositioning,
			cfg.Evaluation.DefaultMarketScope, strings.Join(cfg.Evaluation.DefaultCountries, ", ")))
		log.Info("")

		log.Info("Domain Verification:")
		log.Info(fmt.Sprintf("  Enabled:        %t", cfg.Domain.Verify), zap.Bool("domain_verify", cfg.Domain.Verify))
		log.Info("  TLD:            " + cfg.Domain.TLD)
		log.Info("  Timeout:        " + cfg.Domain.Timeout.String())
		log.Info(fmt.Sprintf("  Cache TTLs:     available %s, taken %s, error %s", cfg.Cache.AvailableTTL, cfg.Cache.TakenTTL, cfg.Cache.ErrorTTL))
		log.Info("")

		log.Info("AILink:")
		log.Info("  Default Provider: " + cfg.AILink.DefaultProvider)
		log.Info("  Default Timeout:  " + cfg.AILink.DefaultTimeout.String())
		log.Info("  Prompts Dir:      " + firstNonEmpty(cfg.AILink.PromptsDir, "(built-in only)"))
		providerID := strings.TrimSpace(cfg.AILink.DefaultProvider)
		if providerID == "" {
			providerID = "(unset)"
		}
		providerCfg, ok := cfg.AILink.Providers[providerID]
		if !ok {
			log.Info(fmt.Sprintf("  %s: (not configured)", providerID))
		} else {
			log.Info(fmt.Sprintf("  %s.enabled: %t", providerID, providerCfg.Enabled))
			log.Info(fmt.Sprintf("  %s.ai_provider: %s", providerID, providerCfg.AIProvider))
			log.Info(fmt.Sprintf("  %s.base_url: %s", providerID, providerCfg.BaseURL))
			log.Info(fmt.Sprintf("  %s.model: %s", providerID, providerCfg.Models["default"]))
			keys := 0
			for _, c := range providerCfg.Credentials {
				if c.Enabled && strings.TrimSpace(c.APIKey) != "" {
					keys++
				}
			}
			log.Info(fmt.Sprintf("  %s.credentials: %d usable", providerID, keys))
		}
		log.Info("")

		log.Info("=== End Environment Information ===")
	},
}

func init() {
	rootCmd.AddCommand(envInfoCmd)
}
