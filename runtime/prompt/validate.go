package prompt

import (
	"errors"
	"fmt"
	"maps"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"github.com/google/dotprompt/runtime/types"
)

// FieldError is a single JSON Schema violation.
type FieldError struct {
	Field       string
	Description string
	Value       any
}

func (e FieldError) Error() string {
	if e.Value != nil {
		return fmt.Sprintf("%s: %s (value: %v)", e.Field, e.Description, e.Value)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Description)
}

// SchemaValidationError lists every violation found when validating a value.
// It matches types.ErrSchemaViolation with errors.Is.
type SchemaValidationError struct {
	// Target is what was validated, e.g. "input" or "output".
	Target string
	Errors []FieldError
}

func (e *SchemaValidationError) Error() string {
	lines := make([]string, 0, len(e.Errors))
	for _, fe := range e.Errors {
		lines = append(lines, "  - "+fe.Error())
	}
	return fmt.Sprintf("%s does not match schema:\n%s", e.Target, strings.Join(lines, "\n"))
}

// Is reports whether target is types.ErrSchemaViolation.
func (e *SchemaValidationError) Is(target error) bool {
	return target == types.ErrSchemaViolation
}

// ErrUnresolvedSchema is returned when validation meets a schema that is
// still a name; run ResolveSchemas first.
var ErrUnresolvedSchema = errors.New("schema is an unresolved name")

// ValidateOutput validates data against a JSON schema.
func ValidateOutput(data any, schema Schema) error {
	return validateAgainst("output", data, schema)
}

// ValidateInput validates input, after defaults are applied, against
// meta's input schema. It is a no-op when there is no input schema.
func ValidateInput(meta *PromptMetadata, input map[string]any) error {
	if meta == nil || meta.Input == nil || meta.Input.Schema == nil {
		return nil
	}
	return validateAgainst("input", ApplyInputDefaults(meta, input), meta.Input.Schema)
}

// ApplyInputDefaults returns input layered over meta's input defaults.
// Neither argument is modified.
func ApplyInputDefaults(meta *PromptMetadata, input map[string]any) map[string]any {
	out := make(map[string]any)
	if meta != nil && meta.Input != nil {
		maps.Copy(out, meta.Input.Default)
	}
	maps.Copy(out, input)
	return out
}

func validateAgainst(target string, data any, schema Schema) error {
	switch s := schema.(type) {
	case nil:
		return nil
	case string:
		return fmt.Errorf("%s: %w: %q", target, ErrUnresolvedSchema, s)
	}

	result, err := gojsonschema.Validate(gojsonschema.NewGoLoader(schema), gojsonschema.NewGoLoader(data))
	if err != nil {
		return fmt.Errorf("%s: schema validation failed: %w", target, err)
	}
	if result.Valid() {
		return nil
	}

	verr := &SchemaValidationError{Target: target}
	for _, re := range result.Errors() {
		verr.Errors = append(verr.Errors, FieldError{
			Field:       re.Field(),
			Description: re.Description(),
			Value:       re.Value(),
		})
	}
	return verr
}
