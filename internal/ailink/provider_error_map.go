package ailink

import (
	"context"
	"errors"
	"net"

	"github.com/namelens/brandlens/internal/ailink/driver"
)

// Error codes reported by Classify.
const (
	CodeProviderTimeout     = "AILINK_PROVIDER_TIMEOUT"
	CodeProviderAuth        = "AILINK_PROVIDER_AUTH"
	CodeProviderRateLimit   = "AILINK_PROVIDER_RATE_LIMIT"
	CodeProviderUnavailable = "AILINK_PROVIDER_UNAVAILABLE"
	CodeProviderBadRequest  = "AILINK_PROVIDER_BAD_REQUEST"
	CodeProviderError       = "AILINK_PROVIDER_ERROR"
	CodeInvalidResponse     = "AILINK_INVALID_RESPONSE"
)

// Error is a classified AILink failure suitable for surfacing to callers.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

func (e *Error) Error() string {
	if e == nil {
		return "ailink error"
	}
	if e.Details == "" {
		return e.Message
	}
	return e.Message + ": " + e.Details
}

// Classify maps a provider or response error onto an Error. It returns nil
// for a nil error.
func Classify(err error) *Error {
	if err == nil {
		return nil
	}
	var already *Error
	if errors.As(err, &already) {
		return already
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return &Error{Code: CodeProviderTimeout, Message: "provider request timed out"}
	}

	var raw *RawResponseError
	if errors.As(err, &raw) {
		return &Error{Code: CodeInvalidResponse, Message: "provider returned an invalid response", Details: safeOneLine(raw.Error())}
	}

	var perr *driver.ProviderError
	if errors.As(err, &perr) && perr != nil {
		status := perr.StatusCode
		details := safeOneLine(perr.Message)
		switch {
		case status == 401 || status == 403:
			return &Error{Code: CodeProviderAuth, Message: "provider authentication failed", Details: details}
		case status == 429:
			return &Error{Code: CodeProviderRateLimit, Message: "provider rate limited", Details: details}
		case status == 408:
			return &Error{Code: CodeProviderTimeout, Message: "provider request timed out", Details: details}
		case status >= 500 && status <= 599:
			return &Error{Code: CodeProviderUnavailable, Message: "provider unavailable", Details: details}
		case status >= 400 && status <= 499:
			return &Error{Code: CodeProviderBadRequest, Message: "provider rejected request", Details: details}
		default:
			return &Error{Code: CodeProviderError, Message: "provider request failed", Details: details}
		}
	}

	return &Error{Code: CodeProviderError, Message: "provider request failed", Details: safeOneLine(err.Error())}
}

// IsRetryable reports whether err is transient: a timeout, a rate limit, or
// a provider-side failure. Invalid responses are retryable too since a new
// sample may conform.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	var perr *driver.ProviderError
	if errors.As(err, &perr) && perr != nil {
		return perr.Temporary()
	}
	switch Classify(err).Code {
	case CodeProviderTimeout, CodeProviderRateLimit, CodeProviderUnavailable, CodeInvalidResponse:
		return true
	}
	return false
}

// isTransportFailure is narrower than IsRetryable: it excludes invalid
// responses, which should not move a request to a fallback provider.
func isTransportFailure(err error) bool {
	var raw *RawResponseError
	if errors.As(err, &raw) {
		return false
	}
	var netErr net.Error
	return IsRetryable(err) || errors.As(err, &netErr)
}
