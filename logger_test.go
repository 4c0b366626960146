package astrolog

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// syncBuffer is a mutex-guarded console sink, safe to read while the
// dispatch worker is still writing into it.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

// pinFileStamp fixes the wall-clock stamp used for new log file names, so
// loggers built at different instants still resolve the same path.
func pinFileStamp(t *testing.T) {
	t.Helper()
	restore := timeNow
	stamp := time.Date(2024, 6, 1, 10, 30, 0, 0, time.UTC)
	timeNow = func() time.Time { return stamp }
	t.Cleanup(func() { timeNow = restore })
}

// testLoggerConfig returns a synchronous configuration rooted in a temp
// directory with a minimal template, so output assertions stay exact.
func testLoggerConfig(t *testing.T) *Config {
	t.Helper()
	dir := t.TempDir()

	cfg := DefaultConfig()
	cfg.Name = "test"
	cfg.Template = "%s-u: %m"
	cfg.LogsDirectory = filepath.Join(dir, "logs")
	cfg.CrashesDirectory = filepath.Join(dir, "crashes")
	cfg.MinSeverity = "Debug"
	cfg.Async = false
	return cfg
}

func readChannelFile(t *testing.T, l *Logger) string {
	t.Helper()
	require.NotNil(t, l.Channel())
	data, err := os.ReadFile(l.Channel().Path())
	require.NoError(t, err)
	return string(data)
}

func TestLoggerConsoleOutput(t *testing.T) {
	cfg := testLoggerConfig(t)
	cfg.EnableFile = false

	l, err := NewLogger(cfg, nil)
	require.NoError(t, err)
	defer l.Close()

	buf := &bytes.Buffer{}
	l.console = buf

	l.Info("hello")
	l.Warning("caution")

	assert.Equal(t, "INFO: hello\nWARNING: caution\n", buf.String())
}

func TestLoggerSeverityFilter(t *testing.T) {
	cfg := testLoggerConfig(t)
	cfg.EnableFile = false
	cfg.MinSeverity = "Warning"

	l, err := NewLogger(cfg, nil)
	require.NoError(t, err)
	defer l.Close()

	buf := &bytes.Buffer{}
	l.console = buf

	l.Debug("ignored")
	l.Info("ignored")
	l.Warning("kept")
	l.Error("kept")

	assert.Equal(t, "WARNING: kept\nERROR: kept\n", buf.String())
}

func TestLoggerFileOutput(t *testing.T) {
	cfg := testLoggerConfig(t)
	cfg.EnableConsole = false

	l, err := NewLogger(cfg, nil)
	require.NoError(t, err)

	l.Info("to disk")
	l.Error("also to disk")

	content := readChannelFile(t, l)
	assert.Equal(t, "INFO: to disk\nERROR: also to disk\n", content)

	require.NoError(t, l.Close())
}

func TestLoggerArgumentStringification(t *testing.T) {
	cfg := testLoggerConfig(t)
	cfg.EnableFile = false
	cfg.Template = "%m"

	l, err := NewLogger(cfg, nil)
	require.NoError(t, err)
	defer l.Close()

	buf := &bytes.Buffer{}
	l.console = buf

	l.Info("count", 42, true, nil)

	assert.Equal(t, "count 42 true nil\n", buf.String())
}

func TestLoggerAsyncDelivery(t *testing.T) {
	cfg := testLoggerConfig(t)
	cfg.EnableFile = false
	cfg.Async = true

	l, err := NewLogger(cfg, nil)
	require.NoError(t, err)
	defer l.Close()

	buf := &syncBuffer{}
	l.console = buf

	l.Info("queued")

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if strings.Contains(buf.String(), "queued") {
			break
		}
		time.Sleep(minWaitTime)
	}
	assert.Equal(t, "INFO: queued\n", buf.String())
}

func TestLoggerCrashPromotesLogFile(t *testing.T) {
	cfg := testLoggerConfig(t)

	l, err := NewLogger(cfg, nil)
	require.NoError(t, err)
	defer l.Close()

	buf := &bytes.Buffer{}
	l.console = buf

	l.Info("before the end")
	originalPath := l.Channel().Path()

	l.Critical("fatal condition")

	assert.True(t, l.Crashed())
	assert.Contains(t, buf.String(), "CRITICALERROR: fatal condition")

	// The live log file was renamed into the crashes directory
	assert.NoFileExists(t, originalPath)
	entries, err := os.ReadDir(cfg.CrashesDirectory)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	name := entries[0].Name()
	assert.True(t, strings.HasPrefix(name, "Crash "))
	assert.True(t, strings.HasSuffix(name, ".crash"))

	// Channel now points at the crash file, with the full history intact
	crashPath := filepath.Join(cfg.CrashesDirectory, name)
	assert.Equal(t, crashPath, l.Channel().Path())
	data, err := os.ReadFile(crashPath)
	require.NoError(t, err)
	assert.Equal(t, "INFO: before the end\nCRITICALERROR: fatal condition\n", string(data))
}

func TestLoggerSharedRegistry(t *testing.T) {
	pinFileStamp(t)
	cfg := testLoggerConfig(t)
	cfg.EnableConsole = false
	reg := NewRegistry()

	first, err := NewLogger(cfg, reg)
	require.NoError(t, err)
	second, err := NewLogger(cfg, reg)
	require.NoError(t, err)

	// Both loggers multiplex onto the same physical file
	require.Same(t, first.Channel(), second.Channel())
	assert.Equal(t, 2, first.Channel().Owners())

	first.Info("from first")
	second.Info("from second")

	content := readChannelFile(t, first)
	assert.Equal(t, "INFO: from first\nINFO: from second\n", content)

	require.NoError(t, first.Close())
	require.NoError(t, second.Close())
	assert.Equal(t, 0, reg.ChannelCount())
}

func TestLoggerCloseIdempotent(t *testing.T) {
	cfg := testLoggerConfig(t)
	cfg.EnableFile = false

	l, err := NewLogger(cfg, nil)
	require.NoError(t, err)

	require.NoError(t, l.Close())
	require.NoError(t, l.Close())

	buf := &bytes.Buffer{}
	l.console = buf
	l.Info("after close")
	assert.Empty(t, buf.String())
}

func TestLoggerNilConfigUsesDefaults(t *testing.T) {
	// Defaults write under the working directory; redirect before building
	dir := t.TempDir()
	cwd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	defer os.Chdir(cwd)

	l, err := NewLogger(nil, nil)
	require.NoError(t, err)
	defer l.Close()

	assert.Equal(t, "astro", l.Name())
	assert.NotNil(t, l.Channel())
}

func TestLoggerRejectsInvalidConfig(t *testing.T) {
	cfg := testLoggerConfig(t)
	cfg.EnableConsole = false
	cfg.EnableFile = false

	_, err := NewLogger(cfg, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no destinations enabled")
}
