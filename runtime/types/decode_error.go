package types

import (
	"errors"
	"fmt"
	"strconv"
)

// DecodeErrorKind classifies a content decoding failure.
type DecodeErrorKind int

// Decode error kinds.
const (
	// NoVariantMatched means the payload matched none of the Part shapes.
	NoVariantMatched DecodeErrorKind = iota + 1
	// InvalidPendingFlag means a pending-shaped payload did not carry pending: true.
	InvalidPendingFlag
	// SchemaViolation means a structurally recognised entity had a malformed field.
	SchemaViolation
)

// String returns the kind name.
func (k DecodeErrorKind) String() string {
	switch k {
	case NoVariantMatched:
		return "no variant matched"
	case InvalidPendingFlag:
		return "invalid pending flag"
	case SchemaViolation:
		return "schema violation"
	default:
		return "decode error"
	}
}

// Sentinels matched by DecodeError.Is, so callers can test the kind with errors.Is.
var (
	ErrNoVariantMatched   = errors.New("no part variant matched")
	ErrInvalidPendingFlag = errors.New("pending flag must be true")
	ErrSchemaViolation    = errors.New("schema violation")
)

// DecodeError reports malformed wire content.
type DecodeError struct {
	Kind DecodeErrorKind
	// Path locates the offending value, e.g. "messages[1].content[2]". Empty at the top level.
	Path   string
	Reason string
}

func (e *DecodeError) Error() string {
	msg := "decode"
	if e.Path != "" {
		msg += " " + e.Path
	}
	msg += ": " + e.Kind.String()
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	return msg
}

// Is reports whether target is the sentinel for e's kind.
func (e *DecodeError) Is(target error) bool {
	switch target {
	case ErrNoVariantMatched:
		return e.Kind == NoVariantMatched
	case ErrInvalidPendingFlag:
		return e.Kind == InvalidPendingFlag
	case ErrSchemaViolation:
		return e.Kind == SchemaViolation
	}
	return false
}

func newDecodeError(kind DecodeErrorKind, format string, args ...any) *DecodeError {
	return &DecodeError{Kind: kind, Reason: fmt.Sprintf(format, args...)}
}

// withPath prefixes the location of a DecodeError with segment.
// Other errors are returned unchanged.
func withPath(err error, segment string) error {
	var de *DecodeError
	if !errors.As(err, &de) {
		return err
	}
	out := *de
	switch {
	case out.Path == "":
		out.Path = segment
	case out.Path[0] == '[':
		out.Path = segment + out.Path
	default:
		out.Path = segment + "." + out.Path
	}
	return &out
}

func indexed(field string, i int) string {
	return field + "[" + strconv.Itoa(i) + "]"
}
