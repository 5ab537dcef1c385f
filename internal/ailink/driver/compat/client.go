// Package compat implements the OpenAI-compatible chat/completions protocol
// shared by the openai and xai drivers.
package compat

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/namelens/brandlens/internal/ailink/driver"
)

// maxResponseBytes bounds how much of a provider response is read.
const maxResponseBytes = 8 << 20

// Client speaks chat/completions over HTTP.
type Client struct {
	Provider   string
	BaseURL    string
	APIKey     string
	HTTPClient *http.Client
	Timeout    time.Duration

	// StructuredOutput forwards json_schema response formats. When false
	// they are downgraded to json_object before sending.
	StructuredOutput bool
}

func (c *Client) Name() string {
	return c.Provider
}

func (c *Client) Capabilities() driver.Capabilities {
	return driver.Capabilities{StructuredOutput: c.StructuredOutput}
}

// Complete sends one chat completion request.
func (c *Client) Complete(ctx context.Context, req *driver.Request) (*driver.Response, error) {
	if c == nil {
		return nil, fmt.Errorf("chat client not configured")
	}
	if strings.TrimSpace(c.APIKey) == "" {
		return nil, fmt.Errorf("%s: api key is required", c.Provider)
	}

	payload, err := buildRequest(req, c.StructuredOutput)
	if err != nil {
		return nil, err
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}

	if c.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.Timeout)
		defer cancel()
	}

	endpoint := strings.TrimRight(c.BaseURL, "/") + "/chat/completions"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.APIKey)
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")

	httpClient := c.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	trace := driver.TraceEntry{
		Driver:      c.Provider,
		Endpoint:    endpoint,
		Model:       payload.Model,
		PromptSlug:  req.PromptSlug,
		RequestBody: body,
	}
	start := time.Now()

	resp, err := httpClient.Do(httpReq)
	if err != nil {
		trace.Error = err.Error()
		trace.DurationMs = time.Since(start).Milliseconds()
		driver.Trace(trace)
		return nil, fmt.Errorf("%s request failed: %w", c.Provider, err)
	}
	defer resp.Body.Close() // nolint:errcheck // best-effort cleanup

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	trace.DurationMs = time.Since(start).Milliseconds()
	trace.StatusCode = resp.StatusCode
	trace.Response = respBody
	driver.Trace(trace)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, &driver.ProviderError{
			Provider:    c.Provider,
			StatusCode:  resp.StatusCode,
			Message:     strings.TrimSpace(string(respBody)),
			RawResponse: respBody,
		}
	}

	var parsed chatResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return parsed.toDriver()
}
