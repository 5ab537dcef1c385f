package ailink

import (
	"encoding/json"
	"strings"
)

func truncateJSONRaw(input json.RawMessage, max int) json.RawMessage {
	if max <= 0 {
		return nil
	}
	if len(input) <= max {
		return input
	}
	out := make(json.RawMessage, 0, max)
	out = append(out, input[:max]...)
	return out
}

// captureRaw returns the payload to attach to a RawResponseError, or nil when
// raw capture is disabled. A non-positive limit keeps the whole payload.
func captureRaw(cfg Config, raw string) json.RawMessage {
	if !cfg.Debug.CaptureRawEnabled {
		return nil
	}
	payload := json.RawMessage(raw)
	if limit := cfg.Debug.CaptureRawMaxBytes; limit > 0 {
		return truncateJSONRaw(payload, limit)
	}
	return payload
}

func safeOneLine(s string) string {
	return strings.TrimSpace(strings.ReplaceAll(s, "\n", " "))
}
