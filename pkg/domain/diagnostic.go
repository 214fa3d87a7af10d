package domain

import (
	"fmt"
	"strings"
)

// Severity grades a compile diagnostic.
type Severity int

const (
	SeverityWarning Severity = iota
	SeverityError
)

func (s Severity) String() string {
	if s == SeverityError {
		return "error"
	}
	return "warning"
}

// MarshalText lets severities serialize by name.
func (s Severity) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Diagnostic is a message produced while compiling a script.
type Diagnostic struct {
	Source   string   `json:"source,omitempty" yaml:"source,omitempty"`
	Line     int      `json:"line" yaml:"line"`
	Severity Severity `json:"severity" yaml:"severity"`
	Message  string   `json:"message" yaml:"message"`
}

func (d Diagnostic) String() string {
	src := d.Source
	if src == "" {
		src = "<script>"
	}
	return fmt.Sprintf("%s:%d: %s: %s", src, d.Line, d.Severity, d.Message)
}

// Diagnostics accumulates compile messages in the order they were found.
type Diagnostics struct {
	Source string
	List   []Diagnostic
}

// Warnf records a warning at the given line.
func (ds *Diagnostics) Warnf(line int, format string, args ...any) {
	ds.add(line, SeverityWarning, format, args...)
}

// Errorf records an error at the given line.
func (ds *Diagnostics) Errorf(line int, format string, args ...any) {
	ds.add(line, SeverityError, format, args...)
}

func (ds *Diagnostics) add(line int, sev Severity, format string, args ...any) {
	ds.List = append(ds.List, Diagnostic{
		Source:   ds.Source,
		Line:     line,
		Severity: sev,
		Message:  fmt.Sprintf(format, args...),
	})
}

// HasErrors reports whether any error-severity diagnostic was recorded.
func (ds Diagnostics) HasErrors() bool {
	for _, d := range ds.List {
		if d.Severity == SeverityError {
			return true
		}
	}
	return false
}

func (ds Diagnostics) Errors() []Diagnostic   { return ds.filter(SeverityError) }
func (ds Diagnostics) Warnings() []Diagnostic { return ds.filter(SeverityWarning) }

func (ds Diagnostics) filter(sev Severity) []Diagnostic {
	var out []Diagnostic
	for _, d := range ds.List {
		if d.Severity == sev {
			out = append(out, d)
		}
	}
	return out
}

// Err returns a *CompileError when errors were recorded, nil otherwise.
func (ds Diagnostics) Err() error {
	errs := ds.Errors()
	if len(errs) == 0 {
		return nil
	}
	return &CompileError{Source: ds.Source, Diagnostics: errs}
}

// CompileError aggregates the error diagnostics of a failed compile.
type CompileError struct {
	Source      string
	Diagnostics []Diagnostic
}

func (e *CompileError) Error() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s: %d error(s):", e.Source, len(e.Diagnostics))
	for _, d := range e.Diagnostics {
		sb.WriteString("\n  - ")
		sb.WriteString(d.String())
	}
	return sb.String()
}

func (e *CompileError) Unwrap() error { return ErrCompileFailed }
