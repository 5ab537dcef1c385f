package cmd

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/fulmenhq/gofulmen/crucible"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/namelens/brandlens/internal/ailink"
	"github.com/namelens/brandlens/internal/config"
	"github.com/namelens/brandlens/internal/evaluate"
	"github.com/namelens/brandlens/internal/observability"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Run diagnostic checks",
	Long:  "Run diagnostic checks on the installation and suggest fixes for common issues.",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		log := observability.CLILogger

		log.Info("=== " + rootCmd.Name() + " doctor ===")
		log.Info("")

		healthy := true
		const total = 6

		goVersion := runtime.Version()
		log.Info(fmt.Sprintf("[1/%d] Go runtime... ✅ %s %s/%s", total, goVersion, runtime.GOOS, runtime.GOARCH),
			zap.String("go_version", goVersion))

		version := crucible.GetVersion()
		if version.Crucible != "" && version.Gofulmen != "" {
			log.Info(fmt.Sprintf("[2/%d] Gofulmen/Crucible... ✅ %s / %s", total, version.Gofulmen, version.Crucible))
		} else {
			log.Warn(fmt.Sprintf("[2/%d] Gofulmen/Crucible... ⚠️  version metadata missing", total))
			healthy = false
		}

		configPath := config.DefaultConfigPath()
		if cfgFile != "" {
			configPath = cfgFile
		}
		if fileExists(configPath) {
			log.Info(fmt.Sprintf("[3/%d] Config file... ✅ %s", total, configPath))
		} else {
			log.Info(fmt.Sprintf("[3/%d] Config file... ℹ️  %s (missing, using defaults; run 'doctor init')", total, configPath))
		}

		cfg, err := loadConfig(ctx)
		if err != nil {
			log.Error(fmt.Sprintf("[4/%d] Configuration... ❌ invalid", total), zap.Error(err))
			log.Warn("⚠️  Remaining checks skipped.")
			return
		}
		log.Info(fmt.Sprintf("[4/%d] Configuration... ✅ loaded", total))

		st, err := openStore(ctx, cfg)
		if err != nil {
			log.Warn(fmt.Sprintf("[5/%d] Store... ⚠️  %s (cannot open)", total, describeStore(cfg.Store)), zap.Error(err))
			healthy = false
		} else {
			defer st.Close() // nolint:errcheck // best-effort cleanup
			detail := describeStore(cfg.Store)
			if info, statErr := os.Stat(detail); statErr == nil {
				detail = fmt.Sprintf("%s (%s)", detail, formatFileSize(info.Size()))
			}
			log.Info(fmt.Sprintf("[5/%d] Store... ✅ %s", total, detail))
		}

		if source, err := checkEvaluationRouting(cfg); err != nil {
			log.Warn(fmt.Sprintf("[6/%d] AI provider... ⚠️  %v", total, err))
			log.Info("       Evaluations require a provider; run 'doctor init' or set ailink.providers in the config.")
			healthy = false
		} else {
			log.Info(fmt.Sprintf("[6/%d] AI provider... ✅ %s", total, source))
		}

		log.Info("")
		if healthy {
			log.Info("✅ All checks passed.")
		} else {
			log.Warn("⚠️  Some checks failed. Review the output above for details.")
		}
	},
}

// checkEvaluationRouting resolves the evaluation role and reports how the
// provider was chosen.
func checkEvaluationRouting(cfg *config.Config) (string, error) {
	prompts, err := buildPromptRegistry(cfg)
	if err != nil {
		return "", fmt.Errorf("prompts failed to load: %w", err)
	}
	slug := firstNonEmpty(cfg.Evaluation.Prompt, evaluate.DefaultPrompt)
	role := firstNonEmpty(cfg.Evaluation.Role, slug)
	def, err := prompts.Get(slug)
	if err != nil {
		return "", err
	}
	resolved, err := ailink.NewRegistry(cfg.AILink).Resolve(role, def, cfg.Evaluation.Model)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(resolved.Credential.APIKey) == "" {
		return "", fmt.Errorf("provider %s has no api key", resolved.ProviderID)
	}
	return fmt.Sprintf("%s via %s (%s)", resolved.ProviderID, routingSource(cfg.AILink, role), resolved.Model), nil
}

// routingSource mirrors the registry's resolution order.
func routingSource(cfg ailink.Config, role string) string {
	if strings.TrimSpace(cfg.Routing[role]) != "" {
		return "routing"
	}
	for _, p := range cfg.Providers {
		if !p.Enabled {
			continue
		}
		for _, r := range p.Roles {
			if strings.EqualFold(strings.TrimSpace(r), role) {
				return "roles"
			}
		}
	}
	if strings.TrimSpace(cfg.DefaultProvider) != "" {
		return "default_provider"
	}
	return "only_enabled_provider"
}

var (
	doctorInitForce    bool
	doctorInitProvider string
	doctorInitAPIKey   string
	doctorResetConfig  bool
	doctorResetData    bool
	doctorResetAll     bool
)

var doctorInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize a default config file",
	RunE: func(cmd *cobra.Command, args []string) error {
		configPath := config.DefaultConfigPath()
		if configPath == "" {
			return fmt.Errorf("config path not resolved")
		}
		if _, err := os.Stat(configPath); err == nil && !doctorInitForce {
			return fmt.Errorf("config file already exists: %s (use --force to overwrite)", configPath)
		}

		key := strings.TrimSpace(doctorInitAPIKey)
		if strings.EqualFold(key, "prompt") {
			value, err := promptForValue(os.Stdin, os.Stdout, "Enter API key (leave blank to skip): ")
			if err != nil {
				return err
			}
			key = value
		}

		contents, err := buildInitConfig(doctorInitProvider, key)
		if err != nil {
			return err
		}
		if err := os.MkdirAll(filepath.Dir(configPath), 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
		mode := os.FileMode(0o644)
		if key != "" {
			mode = 0o600
		}
		if err := os.WriteFile(configPath, []byte(contents), mode); err != nil {
			return fmt.Errorf("write config file: %w", err)
		}

		observability.CLILogger.Info("Config initialized", zap.String("path", configPath))
		return nil
	},
}

var doctorValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the current config file",
	RunE: func(cmd *cobra.Command, args []string) error {
		configPath := cfgFile
		if configPath == "" {
			configPath = config.DefaultConfigPath()
		}
		if _, err := os.Stat(configPath); err != nil {
			return fmt.Errorf("config file not found: %s: %w", configPath, err)
		}
		if _, err := loadConfig(cmd.Context()); err != nil {
			return err
		}
		observability.CLILogger.Info("Config is valid", zap.String("path", configPath))
		return nil
	},
}

var doctorResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Remove user configuration and/or the local database",
	RunE: func(cmd *cobra.Command, args []string) error {
		if doctorResetAll {
			doctorResetConfig = true
			doctorResetData = true
		}
		if !doctorResetConfig && !doctorResetData {
			return fmt.Errorf("specify --config, --data, or --all")
		}

		if doctorResetConfig {
			if err := removeIfPresent("Config", config.DefaultConfigPath()); err != nil {
				return err
			}
		}
		if doctorResetData {
			cfg, err := loadConfig(cmd.Context())
			if err != nil {
				return err
			}
			if strings.TrimSpace(cfg.Store.URL) != "" {
				return fmt.Errorf("remote store configured; database reset is not supported")
			}
			if err := removeIfPresent("Database", describeStore(cfg.Store)); err != nil {
				return err
			}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(doctorCmd)
	doctorCmd.AddCommand(doctorInitCmd)
	doctorCmd.AddCommand(doctorValidateCmd)
	doctorCmd.AddCommand(doctorResetCmd)

	doctorInitCmd.Flags().BoolVar(&doctorInitForce, "force", false, "overwrite existing config file")
	doctorInitCmd.Flags().StringVar(&doctorInitProvider, "provider", "openai", "provider driver: openai or xai")
	doctorInitCmd.Flags().StringVar(&doctorInitAPIKey, "api-key", "", "set the provider api key or use 'prompt' to enter")

	doctorResetCmd.Flags().BoolVar(&doctorResetConfig, "config", false, "remove user config file")
	doctorResetCmd.Flags().BoolVar(&doctorResetData, "data", false, "remove local database")
	doctorResetCmd.Flags().BoolVar(&doctorResetAll, "all", false, "remove config and data")
}

func removeIfPresent(label, path string) error {
	if path == "" {
		observability.CLILogger.Warn(label + " path not resolved; skipping")
		return nil
	}
	switch err := os.Remove(path); {
	case err == nil:
		observability.CLILogger.Info(label+" removed", zap.String("path", path))
	case os.IsNotExist(err):
		observability.CLILogger.Info(label+" already removed", zap.String("path", path))
	default:
		return fmt.Errorf("remove %s: %w", strings.ToLower(label), err)
	}
	return nil
}

var initProviders = map[string]struct{ baseURL, model string }{
	"openai": {baseURL: "https://api.openai.com/v1", model: "gpt-4o"},
	"xai":    {baseURL: "https://api.x.ai/v1", model: "grok-4-1-fast-reasoning"},
}

func buildInitConfig(provider, apiKey string) (string, error) {
	provider = strings.ToLower(strings.TrimSpace(provider))
	defaults, ok := initProviders[provider]
	if !ok {
		return "", fmt.Errorf("unsupported provider %q (use openai or xai)", provider)
	}
	id := "brandlens-" + provider
	envKey := "BRANDLENS_AILINK_PROVIDERS_" + strings.ToUpper(strings.ReplaceAll(id, "-", "_")) + "_CREDENTIALS_0_API_KEY"

	lines := []string{
		"# brandlens config - created by 'brandlens doctor init'",
		"evaluation:",
		"  cache_enabled: true",
		"domain:",
		"  verify: false",
		"ailink:",
		"  default_provider: " + id,
		"  providers:",
		"    " + id + ":",
		"      enabled: true",
		"      ai_provider: " + provider,
		"      base_url: " + defaults.baseURL,
		"      models:",
		"        default: " + defaults.model,
		"      credentials:",
		"        - label: default",
		"          enabled: true",
		"          priority: 0",
	}
	if apiKey != "" {
		lines = append(lines, fmt.Sprintf("          api_key: %q", apiKey))
	} else {
		lines = append(lines, "          # api_key: \"\"  # or set "+envKey)
	}
	return strings.Join(lines, "\n") + "\n", nil
}

func promptForValue(in io.Reader, out io.Writer, prompt string) (string, error) {
	if _, err := fmt.Fprint(out, prompt); err != nil {
		return "", err
	}
	value, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && err != io.EOF {
		return "", err
	}
	return strings.TrimSpace(value), nil
}

func fileExists(path string) bool {
	if path == "" {
		return false
	}
	_, err := os.Stat(path)
	return err == nil
}

func formatFileSize(bytes int64) string {
	const (
		KB = 1024
		MB = KB * 1024
		GB = MB * 1024
	)
	switch {
	case bytes >= GB:
		return fmt.Sprintf("%.1f GB", float64(bytes)/float64(GB))
	case bytes >= MB:
		return fmt.Sprintf("%.1f MB", float64(bytes)/float64(MB))
	case bytes >= KB:
		return fmt.Sprintf("%.1f KB", float64(bytes)/float64(KB))
	default:
		return fmt.Sprintf("%d bytes", bytes)
	}
}
