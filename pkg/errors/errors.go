// Package errors provides the structured error type shared by dotprompt packages.
//
// ContextualError records which component failed, during which operation, and
// the underlying cause. It implements Unwrap so sentinel checks with errors.Is
// keep working through the wrapper.
//
// Usage:
//
//	err := errors.New("persistence", "Load", cause)
//	err = err.WithDetail("name", "greet").WithDetail("variant", "formal")
package errors

import (
	"fmt"
	"sort"
	"strings"
)

// ContextualError is a structured error carrying the location and cause of a failure.
type ContextualError struct {
	// Component identifies the package that produced the error (e.g. "persistence", "prompt").
	Component string

	// Operation names what was being done when the error occurred.
	Operation string

	// StatusCode is an optional application-level status code.
	StatusCode int

	// Details holds optional structured metadata about the error.
	Details map[string]any

	// Cause is the underlying error, if any.
	Cause error
}

// New creates a ContextualError with the given component, operation, and cause.
func New(component, operation string, cause error) *ContextualError {
	return &ContextualError{
		Component: component,
		Operation: operation,
		Cause:     cause,
	}
}

// Newf creates a ContextualError whose cause is built from a format string.
// The %w verb is honoured, so the cause may itself wrap a sentinel.
func Newf(component, operation, format string, args ...any) *ContextualError {
	return New(component, operation, fmt.Errorf(format, args...))
}

// Error returns a human-readable representation of the error.
// Details are rendered in key order so messages are stable.
func (e *ContextualError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "[%s] %s", e.Component, e.Operation)

	if e.StatusCode != 0 {
		fmt.Fprintf(&b, " (status %d)", e.StatusCode)
	}

	if len(e.Details) > 0 {
		keys := make([]string, 0, len(e.Details))
		for k := range e.Details {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		b.WriteString(" {")
		for i, k := range keys {
			if i > 0 {
				b.WriteString(", ")
			}
			fmt.Fprintf(&b, "%s=%v", k, e.Details[k])
		}
		b.WriteString("}")
	}

	if e.Cause != nil {
		b.WriteString(": ")
		b.WriteString(e.Cause.Error())
	}

	return b.String()
}

// Unwrap returns the underlying cause, enabling use with errors.Is and errors.As.
func (e *ContextualError) Unwrap() error {
	return e.Cause
}

// WithStatusCode sets the status code and returns the receiver for chaining.
func (e *ContextualError) WithStatusCode(code int) *ContextualError {
	e.StatusCode = code
	return e
}

// WithDetails replaces the details map and returns the receiver for chaining.
func (e *ContextualError) WithDetails(details map[string]any) *ContextualError {
	e.Details = details
	return e
}

// WithDetail sets a single detail entry, allocating the map on first use.
// Empty string values are skipped.
func (e *ContextualError) WithDetail(key string, value any) *ContextualError {
	if s, ok := value.(string); ok && s == "" {
		return e
	}
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}
