package driver

import (
	"fmt"
	"net/http"
)

// ProviderError is returned when a provider responds with a non-2xx status.
// RawResponse holds the response body and never includes API keys.
type ProviderError struct {
	Provider    string
	StatusCode  int
	Message     string
	RawResponse []byte
}

func (e *ProviderError) Error() string {
	if e == nil {
		return "provider error"
	}
	if e.StatusCode > 0 {
		return fmt.Sprintf("%s request failed: status %d: %s", e.Provider, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s request failed: %s", e.Provider, e.Message)
}

// Temporary reports whether the failure is worth retrying: rate limiting,
// request timeouts, and server-side errors.
func (e *ProviderError) Temporary() bool {
	if e == nil {
		return false
	}
	switch {
	case e.StatusCode == http.StatusTooManyRequests, e.StatusCode == http.StatusRequestTimeout:
		return true
	case e.StatusCode >= 500:
		return true
	}
	return false
}
