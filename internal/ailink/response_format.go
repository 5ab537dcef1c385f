package ailink

import (
	"errors"
	"strings"

	"github.com/namelens/brandlens/internal/ailink/driver"
	"github.com/namelens/brandlens/internal/ailink/prompt"
)

// responseFormatFor asks for schema-constrained output when the driver can
// honor it and plain JSON mode otherwise.
func responseFormatFor(drv driver.Driver, def *prompt.Prompt, schemaDoc map[string]any) *driver.ResponseFormat {
	if drv == nil || def == nil || len(schemaDoc) == 0 || !drv.Capabilities().StructuredOutput {
		return &driver.ResponseFormat{Type: "json_object"}
	}
	name := strings.TrimSpace(def.Config.Slug)
	if name == "" {
		name = "brandlens_schema"
	}
	// OpenAI requires name to be alphanumeric/underscore.
	name = strings.NewReplacer("-", "_", ".", "_", "/", "_").Replace(name)
	return &driver.ResponseFormat{
		Type: "json_schema",
		// Strict mode rejects optional properties and open maps, both of
		// which the response records use.
		Schema: &driver.JSONSchema{Name: name, Strict: false, Schema: schemaDoc},
	}
}

func isUnsupportedSchemaError(err error) bool {
	var perr *driver.ProviderError
	if errors.As(err, &perr) && perr != nil && perr.StatusCode == 400 {
		msg := strings.ToLower(perr.Message)
		return strings.Contains(msg, "json_schema") || strings.Contains(msg, "response_format")
	}
	return false
}

func fallbackToJSONObject(req *driver.Request) {
	if req == nil || req.ResponseFormat == nil {
		return
	}
	req.ResponseFormat = &driver.ResponseFormat{Type: "json_object"}
}

// extractJSON strips a markdown code fence some models wrap JSON in.
func extractJSON(text string) string {
	out := strings.TrimSpace(text)
	if !strings.HasPrefix(out, "```") {
		return out
	}
	out = strings.TrimPrefix(out, "```")
	if nl := strings.IndexByte(out, '\n'); nl != -1 {
		out = out[nl+1:]
	} else {
		out = strings.TrimPrefix(out, "json")
	}
	out = strings.TrimSuffix(strings.TrimSpace(out), "```")
	return strings.TrimSpace(out)
}
