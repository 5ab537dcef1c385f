package evaluate

import (
	"fmt"
	"strings"
)

// UpstreamError reports a failure of the evaluation provider: a transport
// error, an exhausted retry budget, or output that is not a valid
// BrandEvaluationResponse.
type UpstreamError struct {
	Stage string
	Err   error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("evaluation %s failed: %v", e.Stage, e.Err)
}

func (e *UpstreamError) Unwrap() error { return e.Err }

// AlignmentError is returned when the provider's brand_scores do not match
// the requested brand names one to one.
type AlignmentError struct {
	Missing []string
	Extra   []string
}

func (e *AlignmentError) Error() string {
	var parts []string
	if len(e.Missing) > 0 {
		parts = append(parts, "missing scores for "+strings.Join(e.Missing, ", "))
	}
	if len(e.Extra) > 0 {
		parts = append(parts, "unrequested scores for "+strings.Join(e.Extra, ", "))
	}
	return "brand_scores do not match request: " + strings.Join(parts, "; ")
}
