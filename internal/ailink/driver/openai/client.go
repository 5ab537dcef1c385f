// Package openai configures the chat driver for api.openai.com.
package openai

import (
	"strings"

	"github.com/namelens/brandlens/internal/ailink/driver/compat"
)

const defaultBaseURL = "https://api.openai.com/v1"

// NewClient returns an OpenAI driver. OpenAI honors json_schema response
// formats.
func NewClient(baseURL, apiKey string) *compat.Client {
	url := strings.TrimSpace(baseURL)
	if url == "" {
		url = defaultBaseURL
	}
	return &compat.Client{
		Provider:         "openai",
		BaseURL:          url,
		APIKey:           strings.TrimSpace(apiKey),
		StructuredOutput: true,
	}
}
