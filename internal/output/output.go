package output

import (
	"fmt"
	"strings"

	"github.com/namelens/brandlens/internal/schema"
	"github.com/namelens/brandlens/internal/store"
)

// Format represents an output format.
type Format string

const (
	FormatTable    Format = "table"
	FormatJSON     Format = "json"
	FormatMarkdown Format = "markdown"
)

// Formatter renders evaluation results.
type Formatter interface {
	FormatEvaluation(resp *schema.BrandEvaluationResponse) (string, error)
	FormatStatusChecks(checks []schema.StatusCheck) (string, error)
	FormatHistory(entries []store.EvaluationSummary) (string, error)
}

// ParseFormat validates and normalizes a format string.
func ParseFormat(value string) (Format, error) {
	normalized := strings.ToLower(strings.TrimSpace(value))
	switch normalized {
	case "", string(FormatTable):
		return FormatTable, nil
	case string(FormatJSON):
		return FormatJSON, nil
	case string(FormatMarkdown), "md":
		return FormatMarkdown, nil
	default:
		return "", fmt.Errorf("unsupported output format: %s", value)
	}
}

// NewFormatter returns a formatter for the requested format.
func NewFormatter(format Format) Formatter {
	switch format {
	case FormatJSON:
		return &JSONFormatter{Indent: true}
	case FormatMarkdown:
		return &MarkdownFormatter{}
	default:
		return &TableFormatter{}
	}
}

// FormatEvaluationList renders several stored responses, e.g. for
// `history show` with multiple ids.
func FormatEvaluationList(format Format, responses []*schema.BrandEvaluationResponse) (string, error) {
	if format == FormatJSON {
		data, err := schema.MarshalIndent(responses)
		if err != nil {
			return "", err
		}
		return string(data), nil
	}

	formatter := NewFormatter(format)
	rendered := make([]string, 0, len(responses))
	for _, resp := range responses {
		if resp == nil {
			continue
		}
		value, err := formatter.FormatEvaluation(resp)
		if err != nil {
			return "", err
		}
		if strings.TrimSpace(value) == "" {
			continue
		}
		rendered = append(rendered, value)
	}

	return strings.Join(rendered, "\n\n"), nil
}
