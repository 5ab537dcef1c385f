package domaincheck

import (
	"fmt"
	"strings"
)

// Slug reduces a brand name to a domain label: lowercase, keeping only
// [a-z0-9-], with leading and trailing hyphens trimmed.
func Slug(brand string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(brand) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '-' {
			b.WriteRune(r)
		}
	}
	return strings.Trim(b.String(), "-")
}

// DomainFor returns the exact-match domain for brand under tld, or "" when
// the brand has no usable characters.
func DomainFor(brand, tld string) string {
	slug := Slug(brand)
	if slug == "" {
		return ""
	}
	tld = strings.TrimPrefix(strings.ToLower(strings.TrimSpace(tld)), ".")
	if tld == "" {
		tld = "com"
	}
	return slug + "." + tld
}

// Annotate prefixes an LLM domain assessment with a verified lookup. Lookups
// without a definitive answer leave the text unchanged.
func Annotate(result *Result, text string) string {
	if result == nil || !result.Status.Verified() {
		return text
	}
	prefix := fmt.Sprintf("%s: %s (RDAP verified).", result.Domain, result.Status)
	if strings.TrimSpace(text) == "" {
		return prefix
	}
	return prefix + " " + text
}
