package astrolog

import (
	"time"
)

// Severity is the ordered classification of a log record.
// CriticalError marks the crash path.
type Severity int

const (
	SeverityDebug Severity = iota
	SeverityInfo
	SeverityWarning
	SeverityError
	SeverityCriticalError
)

// Destination selects where a record is delivered.
type Destination uint8

const (
	DestConsole Destination = 1 << iota
	DestFile
	DestAll = DestConsole | DestFile
)

// Has reports whether d contains flag.
func (d Destination) Has(flag Destination) bool {
	return d&flag != 0
}

// Format template
const (
	// formatMarker starts a directive token in a format template
	formatMarker = '%'

	// DefaultTemplate is used when a configuration leaves the template empty
	DefaultTemplate = "%d %s-u: %m"

	// defaultTimeLayout is the date directive fallback when no option is given
	defaultTimeLayout = "02-01-2006 15:04:05"

	// defaultSeparatorBanner is emitted by the separator directive
	defaultSeparatorBanner = "--------------------------------------------------"
)

// File naming
const (
	// DefaultFilePrefix replaces empty or invalid file name prefixes
	DefaultFilePrefix = "AstroLogger"

	// generalStampLayout produces "<prefix> 02-01 (15-04-05).log" names
	generalStampLayout = "02-01 (15-04-05)"

	// crashStampLayout produces "Crash 02-01 (03-04-05 PM).crash" names
	crashStampLayout = "02-01 (03-04-05 PM)"

	logExtension       = ".log"
	crashExtension     = ".crash"
	crashFilePrefix    = "Crash"
	invalidPrefixRunes = `/\:?*<>|`
)

// Relay wire protocol tokens, one per line, newline terminated
const (
	tokenBegin      = "BEG"
	tokenMessage    = "MSG"
	tokenSeverity   = "SEV"
	tokenEndMessage = "ENDMSG"
	tokenEnd        = "END"

	// relayHandleID is the child-side descriptor of the inherited pipe:
	// the first ExtraFiles entry always lands on fd 3
	relayHandleID = "3"
)

// Timers
const (
	// minWaitTime is the shortest poll interval used throughout the package
	minWaitTime = 10 * time.Millisecond

	// relayPollInterval paces the relay broadcast loop between buffered items
	relayPollInterval = 20 * time.Millisecond

	// relayBufferSize bounds the relay event buffer; overflow drops silently
	relayBufferSize = 1024

	// defaultQueueSize is the dispatch queue capacity fallback
	defaultQueueSize = 1024
)
