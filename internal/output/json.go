package output

import (
	"encoding/json"

	"github.com/namelens/brandlens/internal/schema"
	"github.com/namelens/brandlens/internal/store"
)

// JSONFormatter renders results as JSON.
type JSONFormatter struct {
	Indent bool
}

// FormatEvaluation renders a response in its wire form.
func (f *JSONFormatter) FormatEvaluation(resp *schema.BrandEvaluationResponse) (string, error) {
	if resp == nil {
		return "", nil
	}
	if f.Indent {
		data, err := schema.MarshalIndent(resp)
		if err != nil {
			return "", err
		}
		return string(data), nil
	}
	return f.encode(resp)
}

func (f *JSONFormatter) FormatStatusChecks(checks []schema.StatusCheck) (string, error) {
	if checks == nil {
		checks = []schema.StatusCheck{}
	}
	return f.encode(checks)
}

func (f *JSONFormatter) FormatHistory(entries []store.EvaluationSummary) (string, error) {
	if entries == nil {
		entries = []store.EvaluationSummary{}
	}
	return f.encode(entries)
}

func (f *JSONFormatter) encode(v any) (string, error) {
	var (
		data []byte
		err  error
	)

	if f.Indent {
		data, err = json.MarshalIndent(v, "", "  ")
	} else {
		data, err = json.Marshal(v)
	}
	if err != nil {
		return "", err
	}

	return string(data), nil
}
