package compat

import (
	"fmt"
	"strings"

	"github.com/namelens/brandlens/internal/ailink/driver"
)

type chatRequest struct {
	Model          string                 `json:"model"`
	Messages       []driver.Message       `json:"messages"`
	ResponseFormat *driver.ResponseFormat `json:"response_format,omitempty"`
	Temperature    *float64               `json:"temperature,omitempty"`
	MaxTokens      *int                   `json:"max_tokens,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
			Refusal string `json:"refusal,omitempty"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Usage *driver.Usage `json:"usage,omitempty"`
}

func buildRequest(req *driver.Request, structured bool) (*chatRequest, error) {
	if req == nil {
		return nil, fmt.Errorf("request is required")
	}
	if strings.TrimSpace(req.Model) == "" {
		return nil, fmt.Errorf("model is required")
	}
	if len(req.Messages) == 0 {
		return nil, fmt.Errorf("messages are required")
	}

	out := &chatRequest{
		Model:       req.Model,
		Messages:    req.Messages,
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
	}
	if rf := req.ResponseFormat; rf != nil {
		if rf.Type == "json_schema" && (!structured || rf.Schema == nil) {
			out.ResponseFormat = &driver.ResponseFormat{Type: "json_object"}
		} else {
			out.ResponseFormat = rf
		}
	}
	return out, nil
}

func (r *chatResponse) toDriver() (*driver.Response, error) {
	if len(r.Choices) == 0 {
		return nil, fmt.Errorf("empty response choices")
	}
	choice := r.Choices[0]
	if choice.Message.Content == "" && choice.Message.Refusal != "" {
		return nil, fmt.Errorf("model refused: %s", choice.Message.Refusal)
	}
	return &driver.Response{
		Text:         choice.Message.Content,
		FinishReason: choice.FinishReason,
		Usage:        r.Usage,
	}, nil
}
