// Package diagnostic collects recoverable conditions found while converting
// a component: ignored decorators, dropped setters, members kept as comments.
package diagnostic

import (
	"errors"
	"fmt"
	"strings"
)

// Diagnostic codes.
const (
	CodeUnknownDecorator  = "unknown-decorator"
	CodeUnresolvedSetter  = "unresolved-setter"
	CodeUnsupportedMember = "unsupported-member"
	CodeDuplicateWatch    = "duplicate-watch"
	CodeExtraClass        = "extra-class"
	CodeNoClass           = "no-class"
	CodeOrphanHandler     = "orphan-watch-handler"
)

// Severity represents the severity level of a diagnostic.
type Severity int

// Severity levels.
const (
	SeverityInfo Severity = iota
	SeverityWarning
	SeverityError
)

// String returns a human-readable severity name.
func (s Severity) String() string {
	switch s {
	case SeverityInfo:
		return "info"
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	default:
		return "unknown"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (s Severity) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Diagnostic is a single recoverable finding.
type Diagnostic struct {
	Severity Severity `json:"severity"`
	// Code is a stable identifier such as "unresolved-setter".
	Code    string `json:"code"`
	Message string `json:"message"`
	// Member names the class member involved, if any.
	Member string `json:"member,omitempty"`
	// Line is the 1-based source line, zero when unknown.
	Line int `json:"line,omitempty"`
}

// String returns a formatted diagnostic string.
func (d Diagnostic) String() string {
	var prefix []string

	if d.Line > 0 {
		prefix = append(prefix, fmt.Sprintf("line %d", d.Line))
	}

	if d.Member != "" {
		prefix = append(prefix, d.Member)
	}

	msg := d.Message
	if d.Code != "" {
		msg = fmt.Sprintf("[%s] %s", d.Code, msg)
	}

	if len(prefix) > 0 {
		return strings.Join(prefix, " ") + ": " + msg
	}

	return msg
}

// Diagnostics holds all findings of one conversion in report order.
type Diagnostics struct {
	Items []Diagnostic `json:"items"`
}

// Add appends a diagnostic.
func (d *Diagnostics) Add(item Diagnostic) {
	d.Items = append(d.Items, item)
}

// AddInfo adds an info diagnostic.
func (d *Diagnostics) AddInfo(code, message, member string, line int) {
	d.Add(Diagnostic{Severity: SeverityInfo, Code: code, Message: message, Member: member, Line: line})
}

// AddWarning adds a warning diagnostic.
func (d *Diagnostics) AddWarning(code, message, member string, line int) {
	d.Add(Diagnostic{Severity: SeverityWarning, Code: code, Message: message, Member: member, Line: line})
}

// AddError adds an error diagnostic.
func (d *Diagnostics) AddError(code, message, member string, line int) {
	d.Add(Diagnostic{Severity: SeverityError, Code: code, Message: message, Member: member, Line: line})
}

// Filter returns the diagnostics at exactly the given severity.
func (d *Diagnostics) Filter(severity Severity) []Diagnostic {
	var out []Diagnostic

	for _, item := range d.Items {
		if item.Severity == severity {
			out = append(out, item)
		}
	}

	return out
}

// Count returns how many diagnostics are at or above the given severity.
func (d *Diagnostics) Count(atLeast Severity) int {
	count := 0

	for _, item := range d.Items {
		if item.Severity >= atLeast {
			count++
		}
	}

	return count
}

// HasErrors returns true if there are any error diagnostics.
func (d *Diagnostics) HasErrors() bool {
	return d.Count(SeverityError) > 0
}

// Merge appends the findings of another collection.
func (d *Diagnostics) Merge(other Diagnostics) {
	d.Items = append(d.Items, other.Items...)
}

// Err returns a combined error from all error diagnostics, or nil.
func (d *Diagnostics) Err() error {
	var errs []error

	for _, item := range d.Filter(SeverityError) {
		errs = append(errs, errors.New(item.String()))
	}

	return errors.Join(errs...)
}
