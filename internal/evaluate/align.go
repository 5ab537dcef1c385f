package evaluate

import (
	"strings"

	"github.com/namelens/brandlens/internal/schema"
)

// align reorders scores to follow names. Names match case-insensitively
// after trimming; every requested name must receive exactly one score.
func align(names []string, scores []schema.BrandScore) ([]schema.BrandScore, error) {
	pending := make(map[string][]schema.BrandScore, len(scores))
	order := make([]string, 0, len(scores))
	for _, score := range scores {
		key := normalizeName(score.BrandName)
		if _, seen := pending[key]; !seen {
			order = append(order, key)
		}
		pending[key] = append(pending[key], score)
	}

	out := make([]schema.BrandScore, 0, len(names))
	var missing []string
	for _, name := range names {
		key := normalizeName(name)
		queue := pending[key]
		if len(queue) == 0 {
			missing = append(missing, name)
			continue
		}
		out = append(out, queue[0])
		pending[key] = queue[1:]
	}

	var extra []string
	for _, key := range order {
		for _, score := range pending[key] {
			extra = append(extra, score.BrandName)
		}
	}

	if len(missing) > 0 || len(extra) > 0 {
		return nil, &AlignmentError{Missing: missing, Extra: extra}
	}
	return out, nil
}

func normalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
