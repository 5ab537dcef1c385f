package observability

import (
	"testing"

	"github.com/fulmenhq/gofulmen/crucible"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func resetLoggers(t *testing.T) {
	t.Helper()
	prevCLI, prevServer := CLILogger, ServerLogger
	CLILogger, ServerLogger = nil, nil
	t.Cleanup(func() {
		CLILogger, ServerLogger = prevCLI, prevServer
	})
}

func TestInitLoggers(t *testing.T) {
	resetLoggers(t)

	InitCLILogger("brandlens-test", true)
	require.NotNil(t, CLILogger)
	CLILogger.Debug("cli logger ready", zap.String("mode", "verbose"))

	InitServerLogger("brandlens-test", "debug", "test")
	require.NotNil(t, ServerLogger)
	ServerLogger.Info("server logger ready", zap.String("component", "test"))
}

func TestLoggerPrefersServer(t *testing.T) {
	resetLoggers(t)

	fallback := Logger()
	require.NotNil(t, fallback)
	assert.Same(t, fallback, Logger())

	InitCLILogger("brandlens-test", false)
	assert.Same(t, CLILogger, Logger())

	InitServerLogger("brandlens-test", "info")
	assert.Same(t, ServerLogger, Logger())
}

func TestParseLogLevel(t *testing.T) {
	cases := map[string]string{
		"trace":    "TRACE",
		"DEBUG":    "DEBUG",
		" info ":   "INFO",
		"warning":  "WARN",
		"warn":     "WARN",
		"error":    "ERROR",
		"":         "INFO",
		"shouting": "INFO",
	}
	for in, want := range cases {
		assert.Equal(t, want, parseLogLevel(in), in)
	}
}

func TestResolvePort(t *testing.T) {
	port, err := resolvePort("127.0.0.1:9191")
	require.NoError(t, err)
	assert.Equal(t, 9191, port)

	port, err = resolvePort("[::]:8080")
	require.NoError(t, err)
	assert.Equal(t, 8080, port)

	_, err = resolvePort("not-an-addr")
	assert.Error(t, err)
}

func TestCrucibleVersion(t *testing.T) {
	version := crucible.GetVersion()
	assert.NotEmpty(t, version.Gofulmen)
	assert.NotEmpty(t, version.Crucible)
	assert.NotEmpty(t, crucible.GetVersionString())
}
