package compat

import (
	"os"
	"path/filepath"
	"testing"

	astrolog "github.com/Contykpo/AstroLogger"
	"github.com/panjf2000/gnet/v2/pkg/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valyala/fasthttp"
)

// Compile-time interface conformance
var (
	_ logging.Logger  = (*GnetAdapter)(nil)
	_ fasthttp.Logger = (*FastHTTPAdapter)(nil)
)

func newFileLogger(t *testing.T) *astrolog.Logger {
	t.Helper()
	dir := t.TempDir()

	l, err := astrolog.NewBuilder().
		Name("compat").
		Template("%s-u: %m").
		LogsDirectory(filepath.Join(dir, "logs")).
		CrashesDirectory(filepath.Join(dir, "crashes")).
		MinSeverity("Debug").
		EnableConsole(false).
		Async(false).
		Build()
	require.NoError(t, err)
	t.Cleanup(func() { l.Close() })
	return l
}

func readLog(t *testing.T, l *astrolog.Logger) string {
	t.Helper()
	data, err := os.ReadFile(l.Channel().Path())
	require.NoError(t, err)
	return string(data)
}

func TestGnetAdapterRoutesSeverities(t *testing.T) {
	l := newFileLogger(t)
	adapter := NewGnetAdapter(l)

	adapter.Debugf("dbg %d", 1)
	adapter.Infof("inf %d", 2)
	adapter.Warnf("wrn %d", 3)
	adapter.Errorf("err %d", 4)

	content := readLog(t, l)
	assert.Equal(t, "DEBUG: dbg 1\nINFO: inf 2\nWARNING: wrn 3\nERROR: err 4\n", content)
}

func TestGnetAdapterFatalHandler(t *testing.T) {
	l := newFileLogger(t)

	var fatalMsg string
	adapter := NewGnetAdapter(l, WithFatalHandler(func(msg string) {
		fatalMsg = msg
	}))

	adapter.Fatalf("going down: %s", "oom")

	assert.Equal(t, "going down: oom", fatalMsg)
	assert.True(t, l.Crashed())
	assert.Contains(t, readLog(t, l), "CRITICALERROR: going down: oom")
}

func TestFastHTTPAdapterDetectsSeverity(t *testing.T) {
	l := newFileLogger(t)
	adapter := NewFastHTTPAdapter(l)

	adapter.Printf("accepted connection from %s", "10.0.0.1")
	adapter.Printf("warning: slow handler")
	adapter.Printf("request failed: %v", "timeout")

	content := readLog(t, l)
	assert.Equal(t,
		"INFO: accepted connection from 10.0.0.1\n"+
			"WARNING: warning: slow handler\n"+
			"ERROR: request failed: timeout\n",
		content)
}

func TestFastHTTPAdapterCustomDetector(t *testing.T) {
	l := newFileLogger(t)
	adapter := NewFastHTTPAdapter(l,
		WithSeverityDetector(nil),
		WithDefaultSeverity(astrolog.SeverityWarning))

	adapter.Printf("anything at all")
	assert.Equal(t, "WARNING: anything at all\n", readLog(t, l))
}

func TestDetectSeverity(t *testing.T) {
	cases := map[string]astrolog.Severity{
		"panic in handler":      astrolog.SeverityCriticalError,
		"fatal listener state":  astrolog.SeverityCriticalError,
		"error reading body":    astrolog.SeverityError,
		"handshake failed":      astrolog.SeverityError,
		"warn: queue backlog":   astrolog.SeverityWarning,
		"debug trace enabled":   astrolog.SeverityDebug,
		"listening on :8080":    astrolog.SeverityInfo,
	}
	for msg, want := range cases {
		assert.Equal(t, want, DetectSeverity(msg), msg)
	}
}

func TestAdapterBuilder(t *testing.T) {
	l := newFileLogger(t)

	gnetAdapter, err := NewBuilder().WithLogger(l).Gnet()
	require.NoError(t, err)
	assert.NotNil(t, gnetAdapter)

	httpAdapter, err := NewBuilder().WithLogger(l).FastHTTP()
	require.NoError(t, err)
	assert.NotNil(t, httpAdapter)

	_, err = NewBuilder().WithLogger(nil).Gnet()
	assert.Error(t, err)
}
