package prompt

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// ResolverKind names what a resolver produces.
type ResolverKind string

// Resolver kinds.
const (
	ResolverKindTool    ResolverKind = "tool"
	ResolverKindSchema  ResolverKind = "schema"
	ResolverKindPartial ResolverKind = "partial"
)

// ErrNotResolved is wrapped by ResolverFailedError when a resolver reports
// that it does not know a name.
var ErrNotResolved = errors.New("name not resolved")

// ErrNoResolver is returned when a name needs resolving but no resolver is configured.
var ErrNoResolver = errors.New("no resolver configured")

// ResolverFailedError reports a failed name lookup.
type ResolverFailedError struct {
	Name string
	Kind ResolverKind
	Err  error
}

func (e *ResolverFailedError) Error() string {
	return fmt.Sprintf("failed to resolve %s %q: %v", e.Kind, e.Name, e.Err)
}

func (e *ResolverFailedError) Unwrap() error { return e.Err }

// ToolResolver looks up a tool definition by name. A nil definition with a
// nil error means the name is unknown.
type ToolResolver func(ctx context.Context, name string) (*ToolDefinition, error)

// SchemaResolver looks up a JSON schema by name. A nil schema with a nil
// error means the name is unknown.
type SchemaResolver func(ctx context.Context, name string) (JSONSchema, error)

// PartialResolver looks up partial source by name; ok is false when the
// name is unknown.
type PartialResolver func(ctx context.Context, name string) (source string, ok bool, err error)

// BlockingToolResolver is the context-free form of ToolResolver.
type BlockingToolResolver func(name string) (*ToolDefinition, error)

// BlockingSchemaResolver is the context-free form of SchemaResolver.
type BlockingSchemaResolver func(name string) (JSONSchema, error)

// BlockingPartialResolver is the context-free form of PartialResolver.
type BlockingPartialResolver func(name string) (string, bool, error)

// WithContext adapts f to ToolResolver. The context is checked before the call.
func (f BlockingToolResolver) WithContext() ToolResolver {
	return func(ctx context.Context, name string) (*ToolDefinition, error) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return f(name)
	}
}

// WithContext adapts f to SchemaResolver. The context is checked before the call.
func (f BlockingSchemaResolver) WithContext() SchemaResolver {
	return func(ctx context.Context, name string) (JSONSchema, error) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return f(name)
	}
}

// WithContext adapts f to PartialResolver. The context is checked before the call.
func (f BlockingPartialResolver) WithContext() PartialResolver {
	return func(ctx context.Context, name string) (string, bool, error) {
		if err := ctx.Err(); err != nil {
			return "", false, err
		}
		return f(name)
	}
}

// ResolveTool calls resolver for name and reports an unknown name as an error.
func ResolveTool(ctx context.Context, resolver ToolResolver, name string) (*ToolDefinition, error) {
	if resolver == nil {
		return nil, &ResolverFailedError{Name: name, Kind: ResolverKindTool, Err: ErrNoResolver}
	}
	def, err := resolver(ctx, name)
	if err != nil {
		return nil, &ResolverFailedError{Name: name, Kind: ResolverKindTool, Err: err}
	}
	if def == nil {
		return nil, &ResolverFailedError{Name: name, Kind: ResolverKindTool, Err: ErrNotResolved}
	}
	return def, nil
}

// ResolveSchema calls resolver for name and reports an unknown name as an error.
func ResolveSchema(ctx context.Context, resolver SchemaResolver, name string) (JSONSchema, error) {
	if resolver == nil {
		return nil, &ResolverFailedError{Name: name, Kind: ResolverKindSchema, Err: ErrNoResolver}
	}
	schema, err := resolver(ctx, name)
	if err != nil {
		return nil, &ResolverFailedError{Name: name, Kind: ResolverKindSchema, Err: err}
	}
	if schema == nil {
		return nil, &ResolverFailedError{Name: name, Kind: ResolverKindSchema, Err: ErrNotResolved}
	}
	return schema, nil
}

// ResolvePartial calls resolver for name and reports an unknown name as an error.
func ResolvePartial(ctx context.Context, resolver PartialResolver, name string) (string, error) {
	if resolver == nil {
		return "", &ResolverFailedError{Name: name, Kind: ResolverKindPartial, Err: ErrNoResolver}
	}
	source, ok, err := resolver(ctx, name)
	if err != nil {
		return "", &ResolverFailedError{Name: name, Kind: ResolverKindPartial, Err: err}
	}
	if !ok {
		return "", &ResolverFailedError{Name: name, Kind: ResolverKindPartial, Err: ErrNotResolved}
	}
	return source, nil
}

// maxConcurrentResolves bounds parallel resolver calls per metadata.
const maxConcurrentResolves = 8

// ResolveTools expands tool names in meta.Tools into full definitions.
//
// Names found in registered are used directly. Remaining names go to
// resolver; with a nil resolver they are left in Tools unchanged. Lookups
// run concurrently but the resulting ToolDefs keep the order of Tools,
// after any definitions meta already had. meta is not modified.
func ResolveTools(
	ctx context.Context, meta *PromptMetadata, registered map[string]ToolDefinition, resolver ToolResolver,
) (*PromptMetadata, error) {
	out := meta.Clone()
	if out == nil || len(out.Tools) == 0 {
		return out, nil
	}

	resolved := make([]*ToolDefinition, len(out.Tools))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentResolves)
	for i, name := range out.Tools {
		if def, ok := registered[name]; ok {
			resolved[i] = &def
			continue
		}
		if resolver == nil {
			continue
		}
		g.Go(func() error {
			def, err := ResolveTool(gctx, resolver, name)
			if err != nil {
				return err
			}
			resolved[i] = def
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var remaining []string
	for i, name := range out.Tools {
		if resolved[i] == nil {
			remaining = append(remaining, name)
			continue
		}
		out.ToolDefs = append(out.ToolDefs, *resolved[i])
	}
	out.Tools = remaining
	return out, nil
}

// ResolveSchemas replaces string schema references in the input and output
// configs with the schemas resolver returns. Both lookups run concurrently.
// meta is not modified.
func ResolveSchemas(ctx context.Context, meta *PromptMetadata, resolver SchemaResolver) (*PromptMetadata, error) {
	out := meta.Clone()
	if out == nil {
		return nil, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	resolveInto := func(slot *Schema) {
		name, ok := (*slot).(string)
		if !ok {
			return
		}
		g.Go(func() error {
			schema, err := ResolveSchema(gctx, resolver, name)
			if err != nil {
				return err
			}
			*slot = schema
			return nil
		})
	}
	if out.Input != nil {
		resolveInto(&out.Input.Schema)
	}
	if out.Output != nil {
		resolveInto(&out.Output.Schema)
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
