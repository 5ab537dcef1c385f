package driver

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnableTracingWritesNDJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trace.ndjson")

	cleanup, err := EnableTracing(path)
	require.NoError(t, err)
	assert.True(t, IsTracingEnabled())

	Trace(TraceEntry{Driver: "openai", Endpoint: "https://example/chat", Response: []byte("not json"), StatusCode: 500})
	Trace(TraceEntry{Driver: "xai", Endpoint: "https://example/chat", Response: []byte(`{"ok":true}`)})
	cleanup()
	assert.False(t, IsTracingEnabled())

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close() // nolint:errcheck

	var entries []TraceEntry
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var e TraceEntry
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &e))
		entries = append(entries, e)
	}
	require.Len(t, entries, 2)
	assert.Equal(t, "openai", entries[0].Driver)
	assert.JSONEq(t, `"not json"`, string(entries[0].Response))
	assert.False(t, entries[1].Timestamp.IsZero())
}

func TestProviderErrorTemporary(t *testing.T) {
	assert.True(t, (&ProviderError{StatusCode: 503}).Temporary())
	assert.True(t, (&ProviderError{StatusCode: 429}).Temporary())
	assert.False(t, (&ProviderError{StatusCode: 401}).Temporary())
	assert.False(t, (&ProviderError{StatusCode: 400}).Temporary())
}
