package middleware

import (
	"net/http"
	"strings"

	"github.com/go-chi/cors"
)

// EvaluationIDHeader and EvaluationCachedHeader annotate evaluation
// responses; browsers may read them cross-origin.
const (
	EvaluationIDHeader     = "X-Evaluation-ID"
	EvaluationCachedHeader = "X-Evaluation-Cached"
)

// CORS answers browser preflight requests and tags responses for the
// allowed origins. "*" allows any origin. No origins disables CORS.
func CORS(origins []string) func(http.Handler) http.Handler {
	allowed := make([]string, 0, len(origins))
	for _, origin := range origins {
		origin = strings.TrimRight(strings.TrimSpace(origin), "/")
		if origin != "" {
			allowed = append(allowed, origin)
		}
	}
	if len(allowed) == 0 {
		return func(next http.Handler) http.Handler { return next }
	}

	return cors.Handler(cors.Options{
		AllowedOrigins: allowed,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", "Authorization", RequestIDHeader},
		ExposedHeaders: []string{RequestIDHeader, EvaluationIDHeader, EvaluationCachedHeader},
		MaxAge:         600,
	})
}
