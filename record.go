package astrolog

import (
	"fmt"
	"path/filepath"
	"runtime"
	"strings"
	"time"
)

// Record is a single log event. It is immutable after construction: the
// pipeline reads it, renders it, and drops it, never mutating fields.
type Record struct {
	Content      string
	Severity     Severity
	Destinations Destination
	File         string
	Function     string
	Line         int
	LoggerName   string
	GoroutineID  uint64
	Time         time.Time
}

// NewRecord builds a record at the call site. skip counts stack frames above
// this function when resolving the source location, in runtime.Caller terms.
func NewRecord(content string, severity Severity, destinations Destination, loggerName string, skip int) *Record {
	rec := &Record{
		Content:      content,
		Severity:     severity,
		Destinations: destinations,
		LoggerName:   loggerName,
		GoroutineID:  goroutineID(),
		Time:         time.Now(),
	}

	pc, file, line, ok := runtime.Caller(skip + 1)
	if !ok {
		return rec
	}
	rec.File = filepath.Base(file)
	rec.Line = line
	if fn := runtime.FuncForPC(pc); fn != nil {
		name := fn.Name()
		if idx := strings.LastIndex(name, "."); idx >= 0 {
			name = name[idx+1:]
		}
		rec.Function = name
	}
	return rec
}

// goroutineID extracts the numeric id of the calling goroutine from its
// stack header. Go does not expose the id, so the stack text is the only
// stable source; failures yield 0 rather than an error.
func goroutineID() uint64 {
	buf := make([]byte, 64)
	n := runtime.Stack(buf, false)
	// Header shape: "goroutine 12 [running]:"
	fields := strings.Fields(string(buf[:n]))
	if len(fields) < 2 {
		return 0
	}
	var id uint64
	if _, err := fmt.Sscanf(fields[1], "%d", &id); err != nil {
		return 0
	}
	return id
}

// String returns the severity name used in rendered output and on the relay
// wire. The names are part of the wire protocol and must not change.
func (s Severity) String() string {
	switch s {
	case SeverityDebug:
		return "Debug"
	case SeverityInfo:
		return "Info"
	case SeverityWarning:
		return "Warning"
	case SeverityError:
		return "Error"
	case SeverityCriticalError:
		return "CriticalError"
	default:
		return fmt.Sprintf("Severity(%d)", int(s))
	}
}

// ParseSeverity converts a severity name to its constant. Matching is
// case-insensitive so the relay receiver can parse wire names directly.
func ParseSeverity(name string) (Severity, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "debug":
		return SeverityDebug, nil
	case "info":
		return SeverityInfo, nil
	case "warning":
		return SeverityWarning, nil
	case "error":
		return SeverityError, nil
	case "criticalerror":
		return SeverityCriticalError, nil
	default:
		return SeverityDebug, fmtErrorf("invalid severity: '%s' (use Debug, Info, Warning, Error, CriticalError)", name)
	}
}
