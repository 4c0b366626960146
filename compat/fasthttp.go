package compat

import (
	"fmt"
	"strings"

	astrolog "github.com/Contykpo/AstroLogger"
)

// FastHTTPAdapter wraps astrolog.Logger to implement the fasthttp Logger interface
type FastHTTPAdapter struct {
	logger          *astrolog.Logger
	defaultSeverity astrolog.Severity
	detector        func(string) astrolog.Severity // Detects severity from message text
}

// NewFastHTTPAdapter creates a new fasthttp-compatible logger adapter
func NewFastHTTPAdapter(logger *astrolog.Logger, opts ...FastHTTPOption) *FastHTTPAdapter {
	adapter := &FastHTTPAdapter{
		logger:          logger,
		defaultSeverity: astrolog.SeverityInfo,
		detector:        DetectSeverity,
	}

	for _, opt := range opts {
		opt(adapter)
	}

	return adapter
}

// FastHTTPOption allows customizing adapter behavior
type FastHTTPOption func(*FastHTTPAdapter)

// WithDefaultSeverity sets the severity used when detection finds nothing
func WithDefaultSeverity(severity astrolog.Severity) FastHTTPOption {
	return func(a *FastHTTPAdapter) {
		a.defaultSeverity = severity
	}
}

// WithSeverityDetector sets a custom severity detection function
func WithSeverityDetector(detector func(string) astrolog.Severity) FastHTTPOption {
	return func(a *FastHTTPAdapter) {
		a.detector = detector
	}
}

// Printf implements the fasthttp.Logger interface, routing the message at a
// severity guessed from its text
func (a *FastHTTPAdapter) Printf(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)

	severity := a.defaultSeverity
	if a.detector != nil {
		severity = a.detector(msg)
	}

	switch severity {
	case astrolog.SeverityDebug:
		a.logger.Debug(msg)
	case astrolog.SeverityWarning:
		a.logger.Warning(msg)
	case astrolog.SeverityError:
		a.logger.Error(msg)
	case astrolog.SeverityCriticalError:
		a.logger.Critical(msg)
	default:
		a.logger.Info(msg)
	}
}

// DetectSeverity guesses a severity from common keywords in the message
func DetectSeverity(msg string) astrolog.Severity {
	lower := strings.ToLower(msg)
	switch {
	case strings.Contains(lower, "panic") || strings.Contains(lower, "fatal"):
		return astrolog.SeverityCriticalError
	case strings.Contains(lower, "error") || strings.Contains(lower, "failed"):
		return astrolog.SeverityError
	case strings.Contains(lower, "warn"):
		return astrolog.SeverityWarning
	case strings.Contains(lower, "debug"):
		return astrolog.SeverityDebug
	default:
		return astrolog.SeverityInfo
	}
}
