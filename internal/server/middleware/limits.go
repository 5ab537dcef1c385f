package middleware

import (
	"net/http"

	chimw "github.com/go-chi/chi/v5/middleware"
)

// BodyLimit caps request bodies at maxBytes; zero or less disables the
// cap. Handlers see an *http.MaxBytesError when reading past the limit.
func BodyLimit(maxBytes int64) func(http.Handler) http.Handler {
	if maxBytes <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	return chimw.RequestSize(maxBytes)
}
