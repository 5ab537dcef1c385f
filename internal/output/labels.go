package output

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/namelens/brandlens/internal/schema"
)

func formatScore(v float64) string {
	if v == float64(int64(v)) {
		return strconv.FormatInt(int64(v), 10)
	}
	return strconv.FormatFloat(v, 'f', 1, 64)
}

func verdictLabel(v schema.Verdict) string {
	if strings.TrimSpace(string(v)) == "" {
		return "unknown"
	}
	return string(v)
}

func riskLabel(key string) string {
	words := strings.Split(key, "_")
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

func timestampLabel(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

func joinOr(values []string, fallback string) string {
	cleaned := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			cleaned = append(cleaned, v)
		}
	}
	if len(cleaned) == 0 {
		return fallback
	}
	return strings.Join(cleaned, ", ")
}

func alternativeLabel(alt map[string]string) string {
	domain := strings.TrimSpace(alt["domain"])
	example := strings.TrimSpace(alt["example"])
	switch {
	case domain != "" && example != "":
		return fmt.Sprintf("%s (%s)", domain, example)
	case domain != "":
		return domain
	default:
		return example
	}
}
