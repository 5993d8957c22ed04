package logbridge

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog"
)

// Severity is the script-facing log level, ordered from most to least severe.
type Severity int

const (
	SeverityError Severity = iota
	SeverityCritical
	SeverityWarning
	SeverityMessage
	SeverityInfo
	SeverityDebug
)

// Severities lists every severity in order.
var Severities = []Severity{
	SeverityError,
	SeverityCritical,
	SeverityWarning,
	SeverityMessage,
	SeverityInfo,
	SeverityDebug,
}

var severityNames = [...]string{"error", "critical", "warning", "message", "info", "debug"}

// severityLevels maps each severity onto a distinct zerolog level. Error is
// emitted at the fatal level through WithLevel, which never exits.
var severityLevels = [...]zerolog.Level{
	zerolog.FatalLevel,
	zerolog.ErrorLevel,
	zerolog.WarnLevel,
	zerolog.InfoLevel,
	zerolog.DebugLevel,
	zerolog.TraceLevel,
}

// ParseSeverity matches name case-insensitively. Unknown or empty names
// yield SeverityMessage.
func ParseSeverity(name string) Severity {
	name = strings.ToLower(strings.TrimSpace(name))
	for i, n := range severityNames {
		if n == name {
			return Severity(i)
		}
	}
	return SeverityMessage
}

func (s Severity) valid() bool {
	return s >= SeverityError && s <= SeverityDebug
}

// String returns the script-facing name.
func (s Severity) String() string {
	if !s.valid() {
		return fmt.Sprintf("severity(%d)", int(s))
	}
	return severityNames[s]
}

// Level returns the zerolog level for s. An out-of-range severity means the
// bridge itself is broken, so it panics.
func (s Severity) Level() zerolog.Level {
	if !s.valid() {
		panic(fmt.Sprintf("logbridge: invalid severity index %d", int(s)))
	}
	return severityLevels[s]
}
