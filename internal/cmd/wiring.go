package cmd

import (
	"context"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/openrdap/rdap"

	"github.com/namelens/brandlens/internal/ailink"
	"github.com/namelens/brandlens/internal/ailink/prompt"
	"github.com/namelens/brandlens/internal/config"
	"github.com/namelens/brandlens/internal/domaincheck"
	"github.com/namelens/brandlens/internal/evaluate"
	"github.com/namelens/brandlens/internal/schema"
	"github.com/namelens/brandlens/internal/store"
)

// schemaRefPrefix namespaces record schemas referenced from prompt
// frontmatter, e.g. "brandlens/BrandEvaluationResponse".
const schemaRefPrefix = "brandlens/"

func openStore(ctx context.Context, cfg *config.Config) (*store.Store, error) {
	db, err := store.Open(ctx, cfg.Store)
	if err != nil {
		return nil, err
	}

	if err := db.Migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}

	return db, nil
}

func buildPromptRegistry(cfg *config.Config) (prompt.Registry, error) {
	dir := ""
	if cfg != nil {
		dir = cfg.AILink.PromptsDir
	}
	return prompt.RegistryWithOverrides(dir)
}

// resolveRecordSchema expands a prompt's response schema reference into the
// standalone record schema.
func resolveRecordSchema(ref string) (map[string]any, error) {
	record, ok := strings.CutPrefix(strings.TrimSpace(ref), schemaRefPrefix)
	if !ok {
		return nil, fmt.Errorf("unknown schema reference %q", ref)
	}
	return schema.RecordSchema(record)
}

func newDomainChecker(cfg *config.Config, st *store.Store) *domaincheck.Checker {
	checker := &domaincheck.Checker{
		Client: &rdap.Client{HTTP: &http.Client{Timeout: cfg.Domain.Timeout}},
		CachePolicy: domaincheck.CachePolicy{
			AvailableTTL: cfg.Cache.AvailableTTL,
			TakenTTL:     cfg.Cache.TakenTTL,
			ErrorTTL:     cfg.Cache.ErrorTTL,
		},
		Timeout: cfg.Domain.Timeout,
	}
	if st != nil {
		checker.Cache = st
	}
	return checker
}

// buildEvaluator wires the provider registry, prompts, store and domain
// checker into an evaluation service. st may be nil, which disables the
// cache and history.
func buildEvaluator(cfg *config.Config, st *store.Store) (*evaluate.Service, error) {
	prompts, err := buildPromptRegistry(cfg)
	if err != nil {
		return nil, fmt.Errorf("load prompts: %w", err)
	}

	providers := ailink.NewRegistry(cfg.AILink)
	generator := &ailink.Service{
		Providers: providers,
		Prompts:   prompts,
		Schemas:   resolveRecordSchema,
	}

	opts := evaluate.Options{
		Role:          cfg.Evaluation.Role,
		Prompt:        cfg.Evaluation.Prompt,
		Model:         cfg.Evaluation.Model,
		Timeout:       cfg.Evaluation.Timeout,
		MaxRetries:    cfg.Evaluation.MaxRetries,
		RetryBackoff:  cfg.Evaluation.RetryBackoff,
		CacheEnabled:  cfg.Evaluation.CacheEnabled && st != nil,
		CacheTTL:      cfg.Cache.EvaluationTTL,
		CacheScope:    cacheScope(providers, prompts, cfg),
		VerifyDomains: cfg.Domain.Verify,
		DomainTLD:     cfg.Domain.TLD,
		Workers:       cfg.Workers,
	}

	// A nil *store.Store must not become a non-nil interface.
	var evalStore evaluate.Store
	if st != nil {
		evalStore = st
	}
	return evaluate.NewService(generator, evalStore, newDomainChecker(cfg, st), opts), nil
}

// cacheScope identifies the provider endpoint answering the evaluation
// role, so switching providers does not serve another provider's answers.
func cacheScope(providers *ailink.Registry, prompts prompt.Registry, cfg *config.Config) string {
	slug := strings.TrimSpace(cfg.Evaluation.Prompt)
	if slug == "" {
		slug = evaluate.DefaultPrompt
	}
	role := strings.TrimSpace(cfg.Evaluation.Role)
	if role == "" {
		role = slug
	}
	def, err := prompts.Get(slug)
	if err != nil {
		return ""
	}
	resolved, err := providers.Resolve(role, def, cfg.Evaluation.Model)
	if err != nil {
		return ""
	}
	return resolved.ProviderID + "|" + resolved.BaseURL
}

func describeStore(cfg config.StoreConfig) string {
	if strings.TrimSpace(cfg.URL) != "" {
		return cfg.URL
	}
	path := cfg.Path
	if path == "" {
		path = config.DefaultStorePath()
	}
	if abs, err := filepath.Abs(path); err == nil && !strings.HasPrefix(path, ":memory:") {
		return abs
	}
	return path
}
