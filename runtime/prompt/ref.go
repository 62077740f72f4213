// Package prompt defines how prompts and partials are addressed, versioned
// and described: refs and payloads, content-hash versions, frontmatter
// metadata, parsed and rendered prompts, and the resolver callbacks used to
// expand tool and schema names.
package prompt

import (
	"crypto/sha1" //nolint:gosec // content fingerprint shared with other dotprompt stores, not a security boundary
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// VersionLength is the number of hex characters in a computed version.
const VersionLength = 8

// Identity errors.
var (
	ErrEmptyName       = errors.New("name is required")
	ErrNameWhitespace  = errors.New("name has leading or trailing whitespace")
	ErrVersionMismatch = errors.New("version mismatch")
)

// VersionOf returns the content fingerprint of a prompt or partial source:
// the first eight hex digits of the SHA-1 of its UTF-8 bytes. The value
// matches the versions computed by the dotprompt directory stores in other
// languages, so refs can be compared across implementations.
func VersionOf(source string) string {
	sum := sha1.Sum([]byte(source)) //nolint:gosec // see import
	return hex.EncodeToString(sum[:])[:VersionLength]
}

// VerifyVersion checks a requested version against the actual one.
// An empty request always passes.
func VerifyVersion(requested, actual string) error {
	if requested == "" || requested == actual {
		return nil
	}
	return fmt.Errorf("%w: expected %s, got %s", ErrVersionMismatch, requested, actual)
}

// ValidateName checks that a resource name is usable as an identity.
func ValidateName(name string) error {
	if name == "" {
		return ErrEmptyName
	}
	if strings.TrimSpace(name) != name {
		return fmt.Errorf("%w: %q", ErrNameWhitespace, name)
	}
	return nil
}

// Key is the logical identity of a prompt or partial. Version is not part of it.
// The empty Variant is the default variant.
type Key struct {
	Name    string
	Variant string
}

// String renders "name" for the default variant and "name[variant]"
// otherwise. A part containing brackets or quotes is written as a Go quoted
// string, so distinct keys never render the same.
func (k Key) String() string {
	name := quoteKeyPart(k.Name)
	if k.Variant == "" {
		return name
	}
	return name + "[" + quoteKeyPart(k.Variant) + "]"
}

func quoteKeyPart(s string) string {
	if strings.ContainsAny(s, `[]"`) {
		return strconv.Quote(s)
	}
	return s
}

// IsDefault reports whether k addresses the default variant.
func (k Key) IsDefault() bool { return k.Variant == "" }

// Less orders keys by name, then variant, with the default variant first.
func (k Key) Less(o Key) bool {
	if k.Name != o.Name {
		return k.Name < o.Name
	}
	return k.Variant < o.Variant
}

// PromptRef addresses a prompt.
type PromptRef struct {
	Name    string `json:"name" yaml:"name"`
	Variant string `json:"variant,omitempty" yaml:"variant,omitempty"`
	Version string `json:"version,omitempty" yaml:"version,omitempty"`
}

// Key returns the logical identity of the ref.
func (r PromptRef) Key() Key { return Key{Name: r.Name, Variant: r.Variant} }

// SameResource reports whether r and o address the same prompt, ignoring version.
func (r PromptRef) SameResource(o PromptRef) bool { return r.Key() == o.Key() }

// PartialRef addresses a partial. It has the same shape and identity rules as PromptRef.
type PartialRef struct {
	Name    string `json:"name" yaml:"name"`
	Variant string `json:"variant,omitempty" yaml:"variant,omitempty"`
	Version string `json:"version,omitempty" yaml:"version,omitempty"`
}

// Key returns the logical identity of the ref.
func (r PartialRef) Key() Key { return Key{Name: r.Name, Variant: r.Variant} }

// SameResource reports whether r and o address the same partial, ignoring version.
func (r PartialRef) SameResource(o PartialRef) bool { return r.Key() == o.Key() }

// PromptData is a prompt's ref plus its raw source, frontmatter included.
type PromptData struct {
	PromptRef `yaml:",inline"`
	Source    string `json:"source" yaml:"source"`
}

// WithComputedVersion returns a copy with Version set from Source.
func (d PromptData) WithComputedVersion() PromptData {
	d.Version = VersionOf(d.Source)
	return d
}

// PartialData is a partial's ref plus its raw source.
type PartialData struct {
	PartialRef `yaml:",inline"`
	Source     string `json:"source" yaml:"source"`
}

// WithComputedVersion returns a copy with Version set from Source.
func (d PartialData) WithComputedVersion() PartialData {
	d.Version = VersionOf(d.Source)
	return d
}
