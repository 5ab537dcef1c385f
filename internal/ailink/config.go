package ailink

import "time"

// Config defines provider configuration for AILink.
//
// This is intentionally self-contained so it can later be extracted as a
// standalone library configuration subtree.
type Config struct {
	DefaultProvider string        `mapstructure:"default_provider"`
	DefaultTimeout  time.Duration `mapstructure:"default_timeout"`

	// PromptsDir allows applications to override the built-in prompt set.
	PromptsDir string `mapstructure:"prompts_dir"`

	// Debug controls optional diagnostics like raw payload capture.
	Debug DebugConfig `mapstructure:"debug"`

	// Providers is a set of provider instances keyed by a user-defined id (slug).
	// Each instance declares its underlying provider type via AIProvider.
	Providers map[string]ProviderInstanceConfig `mapstructure:"providers"`

	// Routing maps a role to a provider id. Fallbacks lists provider ids to
	// try, in order, when the routed provider fails with a transient error.
	Routing   map[string]string   `mapstructure:"routing"`
	Fallbacks map[string][]string `mapstructure:"fallbacks"`
}

type DebugConfig struct {
	CaptureRawEnabled  bool   `mapstructure:"capture_raw_enabled"`
	CaptureRawMaxBytes int    `mapstructure:"capture_raw_max_bytes"`
	TraceFile          string `mapstructure:"trace_file"`
}

// ProviderInstanceConfig defines a configured provider instance (e.g. "brandlens-openai").
type ProviderInstanceConfig struct {
	Enabled bool `mapstructure:"enabled"`

	// AIProvider is the driver identifier: "openai", "xai", or "compat" for
	// any other OpenAI-compatible endpoint.
	AIProvider string `mapstructure:"ai_provider"`

	// SelectionPolicy controls which credential is chosen.
	// Supported values: "priority" (default), "round_robin".
	SelectionPolicy string `mapstructure:"selection_policy"`

	// DefaultCredential, if set, forces selecting the matching credential label.
	// If missing/invalid, selection falls back to SelectionPolicy.
	DefaultCredential string `mapstructure:"default_credential"`

	BaseURL      string            `mapstructure:"base_url"`
	Models       map[string]string `mapstructure:"models"`
	Capabilities Capabilities      `mapstructure:"capabilities"`
	Roles        []string          `mapstructure:"roles"`

	Credentials []CredentialConfig `mapstructure:"credentials"`
}

// CredentialConfig is a single credential for a provider instance.
//
// Multiple credentials enable key rotation and per-key rate limit handling.
type CredentialConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Label    string `mapstructure:"label"`
	APIKey   string `mapstructure:"api_key"`
	Priority int    `mapstructure:"priority"`
}

// Capabilities describes provider-level hints. Only "compat" providers read
// StructuredOutput; the openai and xai drivers know their own.
type Capabilities struct {
	StructuredOutput bool `mapstructure:"structured_output"`
}
