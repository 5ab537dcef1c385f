package ailink

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/fulmenhq/gofulmen/schema"

	"github.com/namelens/brandlens/internal/ailink/driver"
	"github.com/namelens/brandlens/internal/ailink/prompt"
	"github.com/namelens/brandlens/internal/metrics"
)

const (
	defaultTimeout = 60 * time.Second
	maxTimeout     = 5 * time.Minute
)

// GenerateRequest runs one prompt with the given template variables.
type GenerateRequest struct {
	Role       string
	PromptSlug string
	Variables  map[string]string
	Model      string
	Timeout    time.Duration
}

// GenerateResponse carries the provider's JSON output, already checked
// against the prompt's response schema when it declares one.
type GenerateResponse struct {
	Raw      json.RawMessage
	Provider string
	Model    string
	Usage    *driver.Usage
}

// SchemaResolver expands a response schema reference such as
// "brandlens/BrandEvaluationResponse" into a standalone schema document.
type SchemaResolver func(ref string) (map[string]any, error)

// Service coordinates prompt loading, provider selection, and driver execution.
type Service struct {
	Providers *Registry
	Prompts   prompt.Registry
	Schemas   SchemaResolver

	validators sync.Map // schema ref -> func([]byte) error
}

// Generate renders the prompt, sends it to the provider routed for the role
// and validates the reply. Transport failures move on to the role's
// fallback providers; an invalid reply does not.
func (s *Service) Generate(ctx context.Context, req GenerateRequest) (*GenerateResponse, error) {
	if s == nil || s.Providers == nil {
		return nil, errors.New("ailink provider registry not configured")
	}
	if s.Prompts == nil {
		return nil, errors.New("ailink prompt registry not configured")
	}

	slug := strings.TrimSpace(req.PromptSlug)
	if slug == "" {
		return nil, errors.New("prompt slug is required")
	}
	promptDef, err := s.Prompts.Get(slug)
	if err != nil {
		return nil, err
	}

	system, user, err := promptDef.Render(req.Variables)
	if err != nil {
		return nil, err
	}

	schemaDoc, err := s.responseSchema(promptDef)
	if err != nil {
		return nil, err
	}

	role := strings.TrimSpace(req.Role)
	if role == "" {
		role = slug
	}
	primary, err := s.Providers.Resolve(role, promptDef, req.Model)
	if err != nil {
		return nil, err
	}
	candidates := append([]*ResolvedProvider{primary}, s.Providers.ResolveFallbacks(role, promptDef, req.Model)...)

	var lastErr error
	for _, candidate := range candidates {
		resp, err := s.complete(ctx, candidate, promptDef, schemaDoc, system, user, req.Timeout)
		metrics.RecordProviderCall(candidate.ProviderID, err == nil)
		if err == nil {
			return resp, nil
		}
		lastErr = err
		if ctx.Err() != nil || !isTransportFailure(err) {
			break
		}
	}
	return nil, lastErr
}

func (s *Service) complete(ctx context.Context, resolved *ResolvedProvider, def *prompt.Prompt, schemaDoc map[string]any, system, user string, timeout time.Duration) (*GenerateResponse, error) {
	driverReq := &driver.Request{
		Model:          resolved.Model,
		Messages:       []driver.Message{driver.System(system), driver.User(user)},
		ResponseFormat: responseFormatFor(resolved.Driver, def, schemaDoc),
		Temperature:    def.Config.ProviderHints.Temperature,
		MaxTokens:      def.Config.ProviderHints.MaxTokens,
		PromptSlug:     def.Config.Slug,
	}

	cfg := s.Providers.Config()
	duration := cfg.DefaultTimeout
	if duration <= 0 {
		duration = defaultTimeout
	}
	if timeout > 0 {
		duration = timeout
	}
	if duration > maxTimeout {
		duration = maxTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, duration)
	defer cancel()

	resp, err := resolved.Driver.Complete(ctx, driverReq)
	if err != nil && driverReq.ResponseFormat.Type == "json_schema" && isUnsupportedSchemaError(err) {
		fallbackToJSONObject(driverReq)
		resp, err = resolved.Driver.Complete(ctx, driverReq)
	}
	if err != nil {
		return nil, err
	}

	raw := extractJSON(resp.Text)
	if raw == "" {
		return nil, &RawResponseError{Err: errors.New("empty response content")}
	}
	if !json.Valid([]byte(raw)) {
		return nil, &RawResponseError{Err: errors.New("response is not valid JSON"), Raw: captureRaw(cfg, raw)}
	}
	if err := s.validateResponse(def, []byte(raw)); err != nil {
		return nil, &RawResponseError{Err: err, Raw: captureRaw(cfg, raw)}
	}

	return &GenerateResponse{
		Raw:      json.RawMessage(raw),
		Provider: resolved.ProviderID,
		Model:    resolved.Model,
		Usage:    resp.Usage,
	}, nil
}

// responseSchema returns the prompt's response schema with any $ref
// expanded, since providers cannot resolve references.
func (s *Service) responseSchema(def *prompt.Prompt) (map[string]any, error) {
	if len(def.Config.ResponseSchema) == 0 {
		return nil, nil
	}
	ref := strings.TrimSpace(def.SchemaRef())
	if ref == "" {
		return def.Config.ResponseSchema, nil
	}
	if s.Schemas == nil {
		return nil, fmt.Errorf("prompt %s references schema %q but no schema resolver is configured", def.Config.Slug, ref)
	}
	doc, err := s.Schemas(ref)
	if err != nil {
		return nil, fmt.Errorf("resolve schema %q: %w", ref, err)
	}
	return doc, nil
}

func (s *Service) validateResponse(def *prompt.Prompt, payload []byte) error {
	key := def.SchemaRef()
	if key == "" {
		key = "prompt:" + def.Config.Slug
	}
	if cached, ok := s.validators.Load(key); ok {
		return cached.(func([]byte) error)(payload)
	}

	doc, err := s.responseSchema(def)
	if err != nil {
		return err
	}
	if doc == nil {
		return nil
	}
	schemaBytes, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode response schema: %w", err)
	}
	validator, err := schema.NewValidator(schemaBytes)
	if err != nil {
		return fmt.Errorf("compile response schema: %w", err)
	}
	check := func(data []byte) error {
		diagnostics, err := validator.ValidateJSON(data)
		if err != nil {
			return err
		}
		if len(diagnostics) > 0 {
			return fmt.Errorf("response schema validation failed: %s: %s", diagnostics[0].Pointer, diagnostics[0].Message)
		}
		return nil
	}
	s.validators.Store(key, check)
	return check(payload)
}
