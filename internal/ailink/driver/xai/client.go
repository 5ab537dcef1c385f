// Package xai configures the chat driver for api.x.ai, which speaks the
// OpenAI chat/completions shape.
package xai

import (
	"strings"

	"github.com/namelens/brandlens/internal/ailink/driver/compat"
)

const defaultBaseURL = "https://api.x.ai/v1"

func NewClient(baseURL, apiKey string) *compat.Client {
	url := strings.TrimSpace(baseURL)
	if url == "" {
		url = defaultBaseURL
	}
	return &compat.Client{
		Provider: "xai",
		BaseURL:  url,
		APIKey:   strings.TrimSpace(apiKey),
	}
}
