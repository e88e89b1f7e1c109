// Package diag defines the build error taxonomy: structural errors,
// collision errors, bundler diagnostics and provenance degradations, each
// carrying a phase, a stable code and a source location when one is known.
package diag

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Severity represents the severity level of a diagnostic
type Severity int

const (
	Info Severity = iota
	Warning
	Error
	Fatal
)

// String returns the string representation of the severity
func (s Severity) String() string {
	switch s {
	case Info:
		return "info"
	case Warning:
		return "warning"
	case Error:
		return "error"
	case Fatal:
		return "fatal"
	default:
		return "unknown"
	}
}

// MarshalJSON implements json.Marshaler for Severity
func (s Severity) MarshalJSON() ([]byte, error) {
	return []byte(`"` + s.String() + `"`), nil
}

// Diagnostic codes. Structural and collision codes are always fatal;
// BUNDLE001 carries the external bundler's own message verbatim.
const (
	CodeMissingAgentsDir = "PROJ001"
	CodeMissingAppRoot   = "PROJ002"
	CodeMissingAgent     = "AGENT001"
	CodeOrphanSubagent   = "AGENT002"
	CodeMissingRouter    = "ROUTE001"
	CodeDuplicateEval    = "EVAL001"
	CodeIdentCollision   = "REG001"
	CodeReservedName     = "REG002"
	CodeBundler          = "BUNDLE001"
)

// Location represents a location in source code
type Location struct {
	File   string `json:"file"`
	Line   int    `json:"line,omitempty"`
	Column int    `json:"column,omitempty"`
}

// BuildError represents a single build diagnostic
type BuildError struct {
	Phase    string   `json:"phase"` // "discover", "extract", "registry", "bundle", "dedup", "write"
	Code     string   `json:"code"`
	Message  string   `json:"message"`
	Severity Severity `json:"severity"`
	Location Location `json:"location"`
}

// Error implements the error interface
func (e BuildError) Error() string {
	if e.Location.File == "" {
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	if e.Location.Line == 0 {
		return fmt.Sprintf("%s: %s: %s", e.Location.File, e.Code, e.Message)
	}
	return fmt.Sprintf("%s:%d:%d: %s: %s",
		e.Location.File, e.Location.Line, e.Location.Column, e.Code, e.Message)
}

// New creates a BuildError at Error severity.
func New(phase, code, message string, loc Location) BuildError {
	return BuildError{
		Phase:    phase,
		Code:     code,
		Message:  message,
		Severity: Error,
		Location: loc,
	}
}

// Newf creates a BuildError with a formatted message.
func Newf(phase, code string, loc Location, format string, args ...any) BuildError {
	return New(phase, code, fmt.Sprintf(format, args...), loc)
}

// List aggregates diagnostics from one build. Collision errors are batched
// into a List so every colliding item is reported together.
type List struct {
	Errors []BuildError
}

// Append adds a diagnostic to the list.
func (l *List) Append(errs ...BuildError) {
	l.Errors = append(l.Errors, errs...)
}

// HasErrors reports whether any diagnostic is at Error severity or above.
func (l *List) HasErrors() bool {
	for _, e := range l.Errors {
		if e.Severity >= Error {
			return true
		}
	}
	return false
}

// Error implements the error interface
func (l *List) Error() string {
	if len(l.Errors) == 0 {
		return "no errors"
	}
	if len(l.Errors) == 1 {
		return l.Errors[0].Error()
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "%d errors:", len(l.Errors))
	for _, e := range l.Errors {
		sb.WriteString("\n  ")
		sb.WriteString(e.Error())
	}
	return sb.String()
}

// ErrOrNil returns the list as an error when it holds any error-severity
// diagnostic, nil otherwise.
func (l *List) ErrOrNil() error {
	if l.HasErrors() {
		return l
	}
	return nil
}

// MarshalJSON implements json.Marshaler
func (l *List) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Success bool         `json:"success"`
		Errors  []BuildError `json:"errors"`
	}{
		Success: !l.HasErrors(),
		Errors:  l.Errors,
	})
}
