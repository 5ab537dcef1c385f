// Package evaluate produces BrandEvaluationResponses for evaluation
// requests through the configured LLM provider.
package evaluate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/namelens/brandlens/internal/ailink"
	"github.com/namelens/brandlens/internal/domaincheck"
	"github.com/namelens/brandlens/internal/metrics"
	"github.com/namelens/brandlens/internal/observability"
	"github.com/namelens/brandlens/internal/schema"
	"github.com/namelens/brandlens/internal/store"
)

const (
	DefaultPrompt       = "brand-evaluation"
	defaultRetryBackoff = 500 * time.Millisecond
	defaultWorkers      = 4
)

// Evaluator turns a request into an evaluation. The HTTP layer depends on
// this interface only.
type Evaluator interface {
	Evaluate(ctx context.Context, req schema.BrandEvaluationRequest) (*schema.BrandEvaluationResponse, error)
}

// Generator runs a prompt against a provider. *ailink.Service satisfies it.
type Generator interface {
	Generate(ctx context.Context, req ailink.GenerateRequest) (*ailink.GenerateResponse, error)
}

// Store is the persistence the service needs. *store.Store satisfies it.
type Store interface {
	GetEvaluationCache(ctx context.Context, key string) (*store.EvaluationCacheEntry, error)
	SetEvaluationCache(ctx context.Context, key string, entry store.EvaluationCacheEntry, ttl time.Duration) error
	SaveEvaluation(ctx context.Context, ev store.Evaluation) error
}

// DomainChecker verifies a single domain. *domaincheck.Checker satisfies it.
type DomainChecker interface {
	Check(ctx context.Context, domain string) (*domaincheck.Result, error)
}

// Options configures a Service.
type Options struct {
	Role    string
	Prompt  string
	Model   string
	Timeout time.Duration

	MaxRetries   int
	RetryBackoff time.Duration

	CacheEnabled bool
	CacheTTL     time.Duration
	// CacheScope distinguishes providers sharing one cache table, usually
	// "<provider>|<base url>".
	CacheScope string

	VerifyDomains bool
	DomainTLD     string
	Workers       int
}

// RunOptions adjusts a single evaluation.
type RunOptions struct {
	NoCache       bool
	VerifyDomains *bool
}

// Result is an evaluation plus where it came from.
type Result struct {
	ID       string                          `json:"id,omitempty"`
	Response *schema.BrandEvaluationResponse `json:"response"`
	Provider string                          `json:"provider,omitempty"`
	Model    string                          `json:"model,omitempty"`
	Cached   bool                            `json:"cached"`
	Domains  []*domaincheck.Result           `json:"domains,omitempty"`
}

// Service is the AILink-backed Evaluator.
type Service struct {
	Generator Generator
	Store     Store
	Domains   DomainChecker
	Options   Options

	Clock func() time.Time
	NewID func() string
	Sleep func(ctx context.Context, d time.Duration) error
}

// NewService builds a Service with defaults applied to opts.
func NewService(gen Generator, st Store, domains DomainChecker, opts Options) *Service {
	if strings.TrimSpace(opts.Prompt) == "" {
		opts.Prompt = DefaultPrompt
	}
	if strings.TrimSpace(opts.Role) == "" {
		opts.Role = opts.Prompt
	}
	if opts.RetryBackoff <= 0 {
		opts.RetryBackoff = defaultRetryBackoff
	}
	if opts.MaxRetries < 0 {
		opts.MaxRetries = 0
	}
	if opts.Workers <= 0 {
		opts.Workers = defaultWorkers
	}
	return &Service{Generator: gen, Store: st, Domains: domains, Options: opts}
}

// Evaluate implements Evaluator.
func (s *Service) Evaluate(ctx context.Context, req schema.BrandEvaluationRequest) (*schema.BrandEvaluationResponse, error) {
	result, err := s.Run(ctx, req, RunOptions{})
	if err != nil {
		return nil, err
	}
	return result.Response, nil
}

// Run evaluates req, consulting and filling the cache, verifying domains
// when enabled, and recording the outcome in history.
func (s *Service) Run(ctx context.Context, req schema.BrandEvaluationRequest, run RunOptions) (*Result, error) {
	if s == nil || s.Generator == nil {
		return nil, errors.New("evaluation service not configured")
	}
	started := time.Now()
	logger := observability.Logger()

	if err := req.Validate(); err != nil {
		metrics.RecordEvaluation("validation", time.Since(started))
		return nil, err
	}

	useCache := s.Options.CacheEnabled && !run.NoCache && s.Store != nil
	var key string
	if useCache {
		k, err := cacheKey(req, s.Options)
		if err != nil {
			return nil, fmt.Errorf("compute cache key: %w", err)
		}
		key = k
	}

	result := s.fromCache(ctx, key)
	if result == nil {
		fresh, err := s.generate(ctx, req)
		if err != nil {
			metrics.RecordEvaluation(failureStatus(err), time.Since(started))
			if logger != nil {
				logger.Warn("Evaluation failed",
					zap.Strings("brand_names", req.BrandNames),
					zap.Error(err))
			}
			return nil, err
		}
		result = fresh
		if key != "" {
			s.storeCache(ctx, key, result)
		}
	}

	verify := s.Options.VerifyDomains
	if run.VerifyDomains != nil {
		verify = *run.VerifyDomains
	}
	if verify && s.Domains != nil {
		result.Domains = s.verifyDomains(ctx, req.BrandNames, result.Response)
	}

	result.ID = s.record(ctx, req, result)

	status := "success"
	if result.Cached {
		status = "cached"
	}
	metrics.RecordEvaluation(status, time.Since(started))
	if logger != nil {
		logger.Info("Evaluation completed",
			zap.String("id", result.ID),
			zap.Strings("brand_names", req.BrandNames),
			zap.String("provider", result.Provider),
			zap.String("model", result.Model),
			zap.Bool("cached", result.Cached),
			zap.Duration("duration", time.Since(started)))
	}
	return result, nil
}

func (s *Service) generate(ctx context.Context, req schema.BrandEvaluationRequest) (*Result, error) {
	genReq := ailink.GenerateRequest{
		Role:       s.Options.Role,
		PromptSlug: s.Options.Prompt,
		Variables:  promptVariables(req),
		Model:      s.Options.Model,
		Timeout:    s.Options.Timeout,
	}

	var (
		resp *ailink.GenerateResponse
		err  error
	)
	for attempt := 0; ; attempt++ {
		resp, err = s.Generator.Generate(ctx, genReq)
		if err == nil {
			break
		}
		if attempt >= s.Options.MaxRetries || !retryable(err) || ctx.Err() != nil {
			return nil, &UpstreamError{Stage: "generation", Err: err}
		}
		reason := ailink.Classify(err).Code
		metrics.RecordEvaluationRetry(reason)
		if logger := observability.Logger(); logger != nil {
			logger.Debug("Retrying evaluation",
				zap.Int("attempt", attempt+1),
				zap.String("reason", reason),
				zap.Error(err))
		}
		if sleepErr := s.sleep(ctx, s.Options.RetryBackoff<<attempt); sleepErr != nil {
			return nil, &UpstreamError{Stage: "generation", Err: err}
		}
	}

	parsed, err := schema.ParseBrandEvaluationResponse(resp.Raw)
	if err != nil {
		return nil, &UpstreamError{Stage: "response", Err: err}
	}
	aligned, err := align(req.BrandNames, parsed.BrandScores)
	if err != nil {
		return nil, err
	}
	parsed.BrandScores = aligned

	return &Result{Response: &parsed, Provider: resp.Provider, Model: resp.Model}, nil
}

// fromCache returns a cached evaluation. Unreadable entries count as a miss.
func (s *Service) fromCache(ctx context.Context, key string) *Result {
	if key == "" {
		return nil
	}
	entry, err := s.Store.GetEvaluationCache(ctx, key)
	if err != nil || entry == nil {
		return nil
	}
	parsed, err := schema.ParseBrandEvaluationResponse([]byte(entry.ResponseJSON))
	if err != nil {
		return nil
	}
	metrics.RecordEvaluationCacheHit()
	return &Result{Response: &parsed, Provider: entry.Provider, Model: entry.Model, Cached: true}
}

func (s *Service) storeCache(ctx context.Context, key string, result *Result) {
	payload, err := json.Marshal(result.Response)
	if err == nil {
		err = s.Store.SetEvaluationCache(ctx, key, store.EvaluationCacheEntry{
			ResponseJSON: string(payload),
			Provider:     result.Provider,
			Model:        result.Model,
		}, s.Options.CacheTTL)
	}
	if err != nil {
		if logger := observability.Logger(); logger != nil {
			logger.Warn("Failed to cache evaluation", zap.Error(err))
		}
	}
}

// verifyDomains checks each brand's exact-match domain concurrently and
// annotates domain_analysis.exact_match_status with definitive answers.
func (s *Service) verifyDomains(ctx context.Context, names []string, resp *schema.BrandEvaluationResponse) []*domaincheck.Result {
	checks := make([]*domaincheck.Result, len(names))

	var g errgroup.Group
	g.SetLimit(s.Options.Workers)
	for i, name := range names {
		domain := domaincheck.DomainFor(name, s.Options.DomainTLD)
		if domain == "" {
			continue
		}
		g.Go(func() error {
			result, err := s.Domains.Check(ctx, domain)
			if err != nil {
				if logger := observability.Logger(); logger != nil {
					logger.Debug("Domain verification skipped", zap.String("domain", domain), zap.Error(err))
				}
				return nil
			}
			checks[i] = result
			return nil
		})
	}
	_ = g.Wait()

	out := make([]*domaincheck.Result, 0, len(checks))
	for i, check := range checks {
		if check == nil {
			continue
		}
		out = append(out, check)
		if i < len(resp.BrandScores) {
			analysis := &resp.BrandScores[i].DomainAnalysis
			analysis.ExactMatchStatus = domaincheck.Annotate(check, analysis.ExactMatchStatus)
		}
	}
	return out
}

// record saves the evaluation to history and returns its id, or "" when
// history is unavailable.
func (s *Service) record(ctx context.Context, req schema.BrandEvaluationRequest, result *Result) string {
	if s.Store == nil {
		return ""
	}
	id := s.newID()
	err := s.Store.SaveEvaluation(ctx, store.Evaluation{
		ID:        id,
		Request:   req,
		Response:  *result.Response,
		Provider:  result.Provider,
		Model:     result.Model,
		CreatedAt: s.now(),
	})
	if err != nil {
		if logger := observability.Logger(); logger != nil {
			logger.Warn("Failed to record evaluation history", zap.Error(err))
		}
		return ""
	}
	return id
}

func (s *Service) sleep(ctx context.Context, d time.Duration) error {
	if s.Sleep != nil {
		return s.Sleep(ctx, d)
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (s *Service) now() time.Time {
	if s.Clock != nil {
		return s.Clock().UTC()
	}
	return time.Now().UTC()
}

func (s *Service) newID() string {
	if s.NewID != nil {
		return s.NewID()
	}
	return uuid.New().String()
}

func promptVariables(req schema.BrandEvaluationRequest) map[string]string {
	return map[string]string{
		"brand_names":  strings.Join(req.BrandNames, ", "),
		"category":     req.Category,
		"positioning":  string(req.Positioning),
		"market_scope": string(req.MarketScope),
		"countries":    strings.Join(req.Countries, ", "),
	}
}

// retryable is true for transient provider failures only. Invalid output
// and client errors are returned immediately.
func retryable(err error) bool {
	if ailink.Classify(err).Code == ailink.CodeInvalidResponse {
		return false
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	return ailink.IsRetryable(err)
}

func failureStatus(err error) string {
	var alignErr *AlignmentError
	var upstream *UpstreamError
	switch {
	case errors.As(err, &alignErr):
		return "alignment"
	case errors.As(err, &upstream):
		return "provider"
	default:
		return "error"
	}
}
