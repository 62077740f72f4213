package persistence

import (
	"encoding/json"
	"errors"
	"fmt"

	pkgerrors "github.com/google/dotprompt/pkg/errors"
	"github.com/google/dotprompt/runtime/prompt"
	"github.com/google/dotprompt/runtime/types"
)

const component = "persistence"

// Resource names the kind of stored item an error refers to.
type Resource string

// Stored resource kinds.
const (
	ResourcePrompt  Resource = "prompt"
	ResourcePartial Resource = "partial"
)

// Sentinel errors for store operations. Match with errors.Is.
var (
	// ErrNotFound is matched by every *NotFoundError.
	ErrNotFound = errors.New("not found")

	// ErrVersionMismatch is matched by every *VersionMismatchError. It is the
	// same value as prompt.ErrVersionMismatch.
	ErrVersionMismatch = prompt.ErrVersionMismatch

	// ErrIO marks failures of the underlying storage medium.
	ErrIO = errors.New("storage i/o failure")

	// ErrSerialization marks encode/decode plumbing failures that are not
	// content decode errors.
	ErrSerialization = errors.New("serialization failure")

	// ErrCustom marks backend-specific failures.
	ErrCustom = errors.New("backend failure")

	// ErrInvalidCursor is returned for cursors that are malformed or were
	// issued by a different store.
	ErrInvalidCursor = errors.New("invalid cursor")

	// ErrInvalidLimit is returned for a negative page limit.
	ErrInvalidLimit = errors.New("invalid page limit")

	// ErrInvalidName is returned when a name or saved payload fails validation.
	ErrInvalidName = errors.New("invalid name")

	// ErrNilStore is returned when a helper is given a nil store.
	ErrNilStore = errors.New("store cannot be nil")
)

// NotFoundError reports a missing (name, variant) pair.
type NotFoundError struct {
	Resource Resource
	Name     string
	Variant  string
}

// NewNotFound returns a *NotFoundError for key.
func NewNotFound(resource Resource, key prompt.Key) *NotFoundError {
	return &NotFoundError{Resource: resource, Name: key.Name, Variant: key.Variant}
}

func (e *NotFoundError) Error() string {
	if e.Variant == "" {
		return fmt.Sprintf("%s %q not found", e.Resource, e.Name)
	}
	return fmt.Sprintf("%s %q variant %q not found", e.Resource, e.Name, e.Variant)
}

// Is reports whether target is ErrNotFound.
func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// VersionMismatchError reports a Load whose requested version differs from
// the stored content's computed version.
type VersionMismatchError struct {
	Resource Resource
	Name     string
	Variant  string
	Expected string
	Actual   string
}

func (e *VersionMismatchError) Error() string {
	key := prompt.Key{Name: e.Name, Variant: e.Variant}
	return fmt.Sprintf("%s %q: version mismatch: expected %s, got %s", e.Resource, key, e.Expected, e.Actual)
}

// Is reports whether target is ErrVersionMismatch.
func (e *VersionMismatchError) Is(target error) bool { return target == ErrVersionMismatch }

// CheckVersion compares a requested version with the computed one and
// returns a *VersionMismatchError when they differ. An empty request passes.
func CheckVersion(resource Resource, key prompt.Key, requested, actual string) error {
	if prompt.VerifyVersion(requested, actual) == nil {
		return nil
	}
	return &VersionMismatchError{
		Resource: resource,
		Name:     key.Name,
		Variant:  key.Variant,
		Expected: requested,
		Actual:   actual,
	}
}

// WrapIO marks err as a storage medium failure that happened during op.
// A nil err returns nil.
func WrapIO(op string, err error) error {
	return wrap(op, ErrIO, err)
}

// WrapSerialization marks err as a serialization failure that happened during op.
// A nil err returns nil.
func WrapSerialization(op string, err error) error {
	return wrap(op, ErrSerialization, err)
}

// WrapCustom marks err as a backend-specific failure that happened during op.
// A nil err returns nil.
func WrapCustom(op string, err error) error {
	return wrap(op, ErrCustom, err)
}

func wrap(op string, kind, err error) error {
	if err == nil {
		return nil
	}
	return pkgerrors.New(component, op, fmt.Errorf("%w: %w", kind, err))
}

// ErrorKind classifies store errors for callers that branch on the failure
// kind, e.g. falling back to a default variant only on NotFound.
type ErrorKind string

// Error kinds returned by KindOf.
const (
	KindNone            ErrorKind = ""
	KindNotFound        ErrorKind = "not_found"
	KindVersionMismatch ErrorKind = "version_mismatch"
	KindDecode          ErrorKind = "decode"
	KindIO              ErrorKind = "io"
	KindSerialization   ErrorKind = "serialization"
	KindCustom          ErrorKind = "custom"
	KindUnknown         ErrorKind = "unknown"
)

// KindOf classifies err. It returns KindNone for a nil error. Malformed
// JSON text counts as a serialization failure; well-formed JSON with the
// wrong shape or a wrong-typed field is a decode failure.
func KindOf(err error) ErrorKind {
	if err == nil {
		return KindNone
	}

	var decodeErr *types.DecodeError
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError

	switch {
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	case errors.Is(err, ErrVersionMismatch):
		return KindVersionMismatch
	case errors.As(err, &decodeErr),
		errors.As(err, &typeErr),
		errors.Is(err, types.ErrNoVariantMatched),
		errors.Is(err, types.ErrInvalidPendingFlag),
		errors.Is(err, types.ErrSchemaViolation):
		return KindDecode
	case errors.Is(err, ErrIO):
		return KindIO
	case errors.Is(err, ErrSerialization),
		errors.As(err, &syntaxErr):
		return KindSerialization
	case errors.Is(err, ErrCustom):
		return KindCustom
	default:
		return KindUnknown
	}
}
