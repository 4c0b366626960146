package astrolog

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"
)

// timeNow stamps new log file names, swappable in tests to pin the name.
var timeNow = time.Now

// Logger is the public shell over the delivery pipeline: it filters by
// severity, constructs records at the call site, and hands them to the
// synchronous path or the dispatch queue.
type Logger struct {
	name         string
	minSeverity  Severity
	destinations Destination
	writeTimeout time.Duration

	registry *Registry
	plan     *Plan
	channel  *FileChannel
	queue    *DispatchQueue
	relay    atomic.Pointer[ConsoleRelay]
	console  io.Writer

	crashesDir    string
	maxCrashFiles int

	internalErrors bool
	crashed        atomic.Bool
	closed         atomic.Bool
}

// NewLogger builds a logger from cfg on the given registry. A nil registry
// gets a private one; passing a shared registry is how multiple loggers
// multiplex onto one physical file. A nil cfg uses the defaults.
func NewLogger(cfg *Config, registry *Registry) (*Logger, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if registry == nil {
		registry = NewRegistry()
	}

	l := &Logger{
		name:           cfg.Name,
		minSeverity:    cfg.minSeverity(),
		destinations:   cfg.destinations(),
		writeTimeout:   time.Duration(cfg.WriteTimeoutMs) * time.Millisecond,
		registry:       registry,
		plan:           registry.Plan(cfg.Template),
		maxCrashFiles:  int(cfg.MaxCrashFiles),
		internalErrors: cfg.InternalErrorsToStderr,
	}

	if cfg.ConsoleTarget == "stderr" {
		l.console = os.Stderr
	} else {
		l.console = os.Stdout
	}

	crashesDir, err := filepath.Abs(cfg.CrashesDirectory)
	if err != nil {
		return nil, fmtErrorf("failed to resolve crashes directory '%s': %w", cfg.CrashesDirectory, err)
	}
	l.crashesDir = crashesDir
	if err := os.MkdirAll(crashesDir, 0755); err != nil {
		return nil, fmtErrorf("failed to create crashes directory '%s': %w", crashesDir, err)
	}

	if cfg.EnableFile {
		logsDir, err := filepath.Abs(cfg.LogsDirectory)
		if err != nil {
			return nil, fmtErrorf("failed to resolve logs directory '%s': %w", cfg.LogsDirectory, err)
		}
		prefix := sanitizePrefix(cfg.FilePrefix)
		path := filepath.Join(logsDir, generalLogFileName(prefix, timeNow()))
		channel, err := registry.Acquire(path, prefix, int(cfg.MaxLogFiles))
		if err != nil {
			return nil, err
		}
		l.channel = channel
	}

	if cfg.Async {
		l.queue = NewDispatchQueue(
			int(cfg.QueueSize),
			time.Duration(cfg.EnqueueWaitMs)*time.Millisecond,
			int(cfg.MaxRecordsPerSec),
			l.deliver,
		)
	}

	return l, nil
}

// Name returns the logger's display name as used by the %g directive.
func (l *Logger) Name() string {
	return l.name
}

// Channel returns the file channel this logger writes through, nil when file
// output is disabled.
func (l *Logger) Channel() *FileChannel {
	return l.channel
}

// Crashed reports whether a CriticalError record has gone through.
func (l *Logger) Crashed() bool {
	return l.crashed.Load()
}

// Debug logs a message at debug severity
func (l *Logger) Debug(args ...any) {
	l.logAt(SeverityDebug, args)
}

// Info logs a message at info severity
func (l *Logger) Info(args ...any) {
	l.logAt(SeverityInfo, args)
}

// Warning logs a message at warning severity
func (l *Logger) Warning(args ...any) {
	l.logAt(SeverityWarning, args)
}

// Error logs a message at error severity
func (l *Logger) Error(args ...any) {
	l.logAt(SeverityError, args)
}

// Critical logs a message at critical-error severity. This is the terminal
// path: the record is delivered everywhere, the live log file is promoted to
// a crash file, and the relay is told to discard everything else.
func (l *Logger) Critical(args ...any) {
	l.logAt(SeverityCriticalError, args)
}

// StartConsoleRelay attaches an external display process to this logger.
// Delivered and crash notifications flow to it from the delivery path.
func (l *Logger) StartConsoleRelay(title, processPath string, waitForKeypress, waitForProcessExit, waitForQueueDrain bool) error {
	relay, err := StartConsoleRelay(title, processPath, waitForKeypress, waitForProcessExit, waitForQueueDrain)
	if err != nil {
		return err
	}
	l.relay.Store(relay)
	return nil
}

// Close stops the queue and relay and unlinks from the file channel. It
// waits briefly for the workers; records still buffered after the stop
// signal are not guaranteed to be delivered.
func (l *Logger) Close() error {
	if !l.closed.CompareAndSwap(false, true) {
		return nil
	}

	var err error
	if l.queue != nil {
		l.queue.Stop()
		if !l.queue.Join(time.Second) {
			err = fmtErrorf("dispatch worker did not exit within timeout")
		}
	}
	if relay := l.relay.Swap(nil); relay != nil {
		relay.Stop()
		relay.Join(time.Second)
	}
	if l.channel != nil {
		l.registry.Release(l.channel)
		l.channel = nil
	}
	return err
}

// logAt is the shared logging entry: filter, build the record, route it.
func (l *Logger) logAt(severity Severity, args []any) {
	if l.closed.Load() || severity < l.minSeverity {
		return
	}

	content := stringifyArgs(args)
	rec := NewRecord(content, severity, l.destinations, l.name, 2)

	if l.queue != nil {
		if !l.queue.Enqueue(rec) {
			l.internalLog("record dropped, queue rejected enqueue\n")
		}
		return
	}
	l.deliver(rec)
}

// deliver renders one record and writes it to every configured destination.
// Invoked inline on the synchronous path and by the dispatch worker on the
// asynchronous path.
func (l *Logger) deliver(rec *Record) {
	text := l.plan.Render(rec)

	if rec.Severity == SeverityCriticalError {
		l.deliverCrash(rec, text)
		return
	}

	if rec.Destinations.Has(DestConsole) {
		fmt.Fprintln(l.console, text)
	}
	if rec.Destinations.Has(DestFile) && l.channel != nil {
		if !l.channel.Write(text, l.writeTimeout) && !rec.Destinations.Has(DestConsole) {
			// Degrade to console rather than lose the message entirely
			fmt.Fprintln(l.console, text)
		}
	}
	if relay := l.relay.Load(); relay != nil {
		relay.Delivered(text, rec.Severity)
	}
}

// deliverCrash completes every side effect of a crash record before
// signaling termination: console echo, file write, crash rotation, promotion
// of the live log to a crash file, relay notification.
func (l *Logger) deliverCrash(rec *Record, text string) {
	fmt.Fprintln(l.console, text)

	if l.channel != nil {
		l.channel.Write(text, l.writeTimeout)

		EnforceLimit(l.crashesDir, categoryCrash, "", l.maxCrashFiles)
		crashPath := filepath.Join(l.crashesDir, crashFileName(rec.Time))
		if !l.channel.Move(crashPath, true) {
			l.internalLog("failed to promote log to crash file '%s'\n", crashPath)
		}
	}

	if relay := l.relay.Load(); relay != nil {
		relay.Crash(text)
	}
	l.crashed.Store(true)
}

// internalLog handles writing internal logger diagnostics to stderr, if enabled.
func (l *Logger) internalLog(format string, args ...any) {
	if !l.internalErrors {
		return
	}
	if len(format) < 10 || format[:10] != "astrolog: " {
		format = "astrolog: " + format
	}
	fmt.Fprintf(os.Stderr, format, args...)
}
