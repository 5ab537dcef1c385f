package driver

import "context"

// Driver is a chat-completion backend.
type Driver interface {
	Complete(ctx context.Context, req *Request) (*Response, error)
	// Name returns the driver identifier (e.g. "openai", "xai").
	Name() string
	Capabilities() Capabilities
}

// Capabilities describes what a driver can do with a request.
type Capabilities struct {
	// StructuredOutput is true when the provider honors a JSON Schema
	// response_format.
	StructuredOutput bool
	SupportedModels  []string
}

// Message is a single chat turn.
type Message struct {
	Role string `json:"role"`
	Text string `json:"content"`
}

// ResponseFormat requests JSON output. Type is "json_object" or
// "json_schema"; the latter carries Schema.
type ResponseFormat struct {
	Type   string      `json:"type"`
	Schema *JSONSchema `json:"json_schema,omitempty"`
}

// JSONSchema is a named response schema. Name must be alphanumeric or
// underscore for OpenAI.
type JSONSchema struct {
	Name   string         `json:"name"`
	Strict bool           `json:"strict"`
	Schema map[string]any `json:"schema"`
}

// Usage contains token usage statistics.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Request is a provider-agnostic completion request.
type Request struct {
	Model          string
	Messages       []Message
	ResponseFormat *ResponseFormat
	Temperature    *float64
	MaxTokens      *int
	PromptSlug     string
}

// Response is a provider-agnostic completion response.
type Response struct {
	Text         string
	FinishReason string
	Usage        *Usage
}

// System and User build messages for the two roles prompts use.
func System(text string) Message { return Message{Role: "system", Text: text} }

func User(text string) Message { return Message{Role: "user", Text: text} }
