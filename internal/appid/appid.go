package appid

import (
	"context"

	"github.com/fulmenhq/gofulmen/appidentity"

	appidentityassets "github.com/namelens/brandlens/internal/assets/appidentity"
)

func init() {
	// Best-effort registration.
	//
	// Explicit identity overrides remain authoritative (Options.ExplicitPath and
	// FULMEN_APP_IDENTITY_PATH). Embedded identity provides standalone-binary
	// behavior when no external `.fulmen/app.yaml` can be found.
	_ = appidentity.RegisterEmbeddedIdentityYAML(appidentityassets.YAML)
}

func Get(ctx context.Context) (*appidentity.Identity, error) {
	return appidentity.Get(ctx)
}

// EnvPrefix returns the identity's environment prefix with a trailing
// underscore.
func EnvPrefix(identity *appidentity.Identity) string {
	prefix := "BRANDLENS_"
	if identity != nil && identity.EnvPrefix != "" {
		prefix = identity.EnvPrefix
	}
	if prefix[len(prefix)-1] != '_' {
		prefix += "_"
	}
	return prefix
}
