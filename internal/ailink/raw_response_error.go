package ailink

import "encoding/json"

// RawResponseError wraps an error with the raw response payload.
//
// It is returned when the model produced output that failed decoding or
// schema validation. Raw is only populated when raw capture is enabled.
type RawResponseError struct {
	Err error
	Raw json.RawMessage
}

func (e *RawResponseError) Error() string {
	if e == nil || e.Err == nil {
		return "ailink error"
	}
	return e.Err.Error()
}

func (e *RawResponseError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}
