package driver

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

// TraceEntry is one provider exchange written as an NDJSON line.
type TraceEntry struct {
	Timestamp   time.Time       `json:"timestamp"`
	Driver      string          `json:"driver"`
	Endpoint    string          `json:"endpoint"`
	Model       string          `json:"model,omitempty"`
	PromptSlug  string          `json:"prompt_slug,omitempty"`
	RequestBody json.RawMessage `json:"request_body,omitempty"`
	StatusCode  int             `json:"status_code,omitempty"`
	Response    json.RawMessage `json:"response,omitempty"`
	Error       string          `json:"error,omitempty"`
	DurationMs  int64           `json:"duration_ms"`
}

// Tracer appends entries to a writer, one JSON document per line.
type Tracer struct {
	mu sync.Mutex
	w  io.WriteCloser
}

// NewTracer wraps w. Closing the tracer closes w.
func NewTracer(w io.WriteCloser) *Tracer {
	return &Tracer{w: w}
}

var (
	activeMu sync.RWMutex
	active   *Tracer
)

// EnableTracing opens path for appending and routes every driver exchange to
// it until the returned cleanup runs.
func EnableTracing(path string) (func(), error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600) // #nosec G304 -- trace path is operator supplied
	if err != nil {
		return nil, fmt.Errorf("open trace file: %w", err)
	}
	SetTracer(NewTracer(f))
	return func() { SetTracer(nil) }, nil
}

// SetTracer replaces the active tracer, closing the previous one.
func SetTracer(t *Tracer) {
	activeMu.Lock()
	prev := active
	active = t
	activeMu.Unlock()
	if prev != nil && prev != t {
		_ = prev.Close()
	}
}

// IsTracingEnabled reports whether a tracer is active.
func IsTracingEnabled() bool {
	activeMu.RLock()
	defer activeMu.RUnlock()
	return active != nil
}

// Trace records entry on the active tracer, if any.
func Trace(entry TraceEntry) {
	activeMu.RLock()
	t := active
	activeMu.RUnlock()
	t.Write(entry)
}

func (t *Tracer) Write(entry TraceEntry) {
	if t == nil || t.w == nil {
		return
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now().UTC()
	}
	if len(entry.Response) > 0 && !json.Valid(entry.Response) {
		quoted, _ := json.Marshal(string(entry.Response))
		entry.Response = quoted
	}
	line, err := json.Marshal(entry)
	if err != nil {
		return
	}
	line = append(line, '\n')

	t.mu.Lock()
	defer t.mu.Unlock()
	_, _ = t.w.Write(line)
}

func (t *Tracer) Close() error {
	if t == nil || t.w == nil {
		return nil
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.w.Close()
}
