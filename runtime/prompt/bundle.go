package prompt

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/Masterminds/semver/v3"
	"gopkg.in/yaml.v3"
)

// BundleFormatVersion is the bundle format written by this package.
// Bundles with the same major version can be read.
const BundleFormatVersion = "1.0.0"

// Bundle is a portable snapshot of prompts and partials.
type Bundle struct {
	FormatVersion string        `json:"formatVersion,omitempty" yaml:"formatVersion,omitempty"`
	Generator     string        `json:"generator,omitempty" yaml:"generator,omitempty"`
	Partials      []PartialData `json:"partials" yaml:"partials"`
	Prompts       []PromptData  `json:"prompts" yaml:"prompts"`
}

// Bundle validation errors.
var (
	ErrDuplicateResource    = errors.New("duplicate resource in bundle")
	ErrUnsupportedBundle    = errors.New("unsupported bundle format version")
	ErrInvalidFormatVersion = errors.New("invalid bundle format version")
)

// Validate checks the format version, names, versions and uniqueness of
// every entry. An empty FormatVersion is accepted as the current one.
func (b *Bundle) Validate() error {
	if err := checkFormatVersion(b.FormatVersion); err != nil {
		return err
	}

	seen := make(map[Key]bool, len(b.Partials))
	for i, p := range b.Partials {
		if err := checkEntry(fmt.Sprintf("partials[%d]", i), p.Key(), p.Version, p.Source, seen); err != nil {
			return err
		}
	}
	seen = make(map[Key]bool, len(b.Prompts))
	for i, p := range b.Prompts {
		if err := checkEntry(fmt.Sprintf("prompts[%d]", i), p.Key(), p.Version, p.Source, seen); err != nil {
			return err
		}
	}
	return nil
}

func checkEntry(path string, key Key, version, source string, seen map[Key]bool) error {
	if err := ValidateName(key.Name); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	if seen[key] {
		return fmt.Errorf("%s: %w: %s", path, ErrDuplicateResource, key)
	}
	seen[key] = true
	if err := VerifyVersion(version, VersionOf(source)); err != nil {
		return fmt.Errorf("%s (%s): %w", path, key, err)
	}
	return nil
}

// checkFormatVersion accepts MAJOR.MINOR.PATCH, optionally v-prefixed,
// with the same major as BundleFormatVersion.
func checkFormatVersion(v string) error {
	if v == "" {
		return nil
	}
	// StrictNewVersion rejects "1.0"; NewVersion would complete it.
	got, err := semver.StrictNewVersion(strings.TrimPrefix(v, "v"))
	if err != nil {
		return fmt.Errorf("%w %q: %w", ErrInvalidFormatVersion, v, err)
	}
	current := semver.MustParse(BundleFormatVersion)
	if got.Major() != current.Major() {
		return fmt.Errorf("%w: %s (supported: %d.x)", ErrUnsupportedBundle, v, current.Major())
	}
	return nil
}

// EncodeYAML encodes the bundle as YAML. Multi-line sources are written
// as literal blocks.
func (b *Bundle) EncodeYAML() ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(b.normalized()); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// EncodeJSON encodes the bundle as indented JSON.
func (b *Bundle) EncodeJSON() ([]byte, error) {
	return json.MarshalIndent(b.normalized(), "", "  ")
}

// normalized returns a copy whose nil lists are empty, so both keys are always written.
func (b *Bundle) normalized() *Bundle {
	out := *b
	if out.Partials == nil {
		out.Partials = []PartialData{}
	}
	if out.Prompts == nil {
		out.Prompts = []PromptData{}
	}
	return &out
}

// ParseBundle decodes a JSON or YAML bundle and validates it.
func ParseBundle(data []byte) (*Bundle, error) {
	var b Bundle
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		if err := json.Unmarshal(trimmed, &b); err != nil {
			return nil, fmt.Errorf("parse bundle: %w", err)
		}
	} else if err := yaml.Unmarshal(data, &b); err != nil {
		return nil, fmt.Errorf("parse bundle: %w", err)
	}
	if err := b.Validate(); err != nil {
		return nil, err
	}
	return &b, nil
}
