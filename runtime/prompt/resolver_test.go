package prompt

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func toolTable(defs ...ToolDefinition) BlockingToolResolver {
	return func(name string) (*ToolDefinition, error) {
		for _, d := range defs {
			if d.Name == name {
				return &d, nil
			}
		}
		return nil, nil
	}
}

func TestResolveTool(t *testing.T) {
	ctx := context.Background()
	resolver := toolTable(ToolDefinition{Name: "clock"}).WithContext()

	def, err := ResolveTool(ctx, resolver, "clock")
	require.NoError(t, err)
	assert.Equal(t, "clock", def.Name)

	_, err = ResolveTool(ctx, resolver, "missing")
	var rerr *ResolverFailedError
	require.ErrorAs(t, err, &rerr)
	assert.Equal(t, "missing", rerr.Name)
	assert.Equal(t, ResolverKindTool, rerr.Kind)
	assert.ErrorIs(t, err, ErrNotResolved)

	_, err = ResolveTool(ctx, nil, "clock")
	assert.ErrorIs(t, err, ErrNoResolver)

	boom := errors.New("backend down")
	_, err = ResolveTool(ctx, func(context.Context, string) (*ToolDefinition, error) { return nil, boom }, "clock")
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), `tool "clock"`)
}

func TestResolveSchemaAndPartial(t *testing.T) {
	ctx := context.Background()

	schemas := BlockingSchemaResolver(func(name string) (JSONSchema, error) {
		if name == "User" {
			return JSONSchema{"type": "object"}, nil
		}
		return nil, nil
	}).WithContext()
	s, err := ResolveSchema(ctx, schemas, "User")
	require.NoError(t, err)
	assert.Equal(t, "object", s["type"])
	_, err = ResolveSchema(ctx, schemas, "Other")
	assert.ErrorIs(t, err, ErrNotResolved)

	partials := BlockingPartialResolver(func(name string) (string, bool, error) {
		if name == "header" {
			return "", true, nil
		}
		return "", false, nil
	}).WithContext()
	src, err := ResolvePartial(ctx, partials, "header")
	require.NoError(t, err, "empty source is still a hit")
	assert.Empty(t, src)

	_, err = ResolvePartial(ctx, partials, "footer")
	var rerr *ResolverFailedError
	require.ErrorAs(t, err, &rerr)
	assert.Equal(t, ResolverKindPartial, rerr.Kind)
}

func TestBlockingResolver_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var calls atomic.Int32
	resolver := BlockingToolResolver(func(string) (*ToolDefinition, error) {
		calls.Add(1)
		return &ToolDefinition{}, nil
	}).WithContext()

	_, err := ResolveTool(ctx, resolver, "clock")
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, calls.Load())
}

func TestResolveTools_KeepsOrder(t *testing.T) {
	meta := &PromptMetadata{
		Tools:    []string{"a", "registered", "b", "c"},
		ToolDefs: []ToolDefinition{{Name: "existing"}},
	}
	registered := map[string]ToolDefinition{"registered": {Name: "registered", Description: "local"}}
	resolver := toolTable(
		ToolDefinition{Name: "a"}, ToolDefinition{Name: "b"}, ToolDefinition{Name: "c"},
	).WithContext()

	out, err := ResolveTools(context.Background(), meta, registered, resolver)
	require.NoError(t, err)

	names := make([]string, 0, len(out.ToolDefs))
	for _, d := range out.ToolDefs {
		names = append(names, d.Name)
	}
	assert.Equal(t, []string{"existing", "a", "registered", "b", "c"}, names)
	assert.Empty(t, out.Tools)
	assert.Len(t, meta.Tools, 4, "input metadata is not modified")
	assert.Len(t, meta.ToolDefs, 1)
}

func TestResolveTools_NilResolverLeavesNames(t *testing.T) {
	meta := &PromptMetadata{Tools: []string{"remote", "local"}}
	out, err := ResolveTools(context.Background(), meta,
		map[string]ToolDefinition{"local": {Name: "local"}}, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"remote"}, out.Tools)
	require.Len(t, out.ToolDefs, 1)
	assert.Equal(t, "local", out.ToolDefs[0].Name)
}

func TestResolveTools_FailureAborts(t *testing.T) {
	meta := &PromptMetadata{Tools: []string{"a", "unknown"}}
	_, err := ResolveTools(context.Background(), meta, nil, toolTable(ToolDefinition{Name: "a"}).WithContext())
	assert.ErrorIs(t, err, ErrNotResolved)
}

func TestResolveTools_NilMetadata(t *testing.T) {
	out, err := ResolveTools(context.Background(), nil, nil, nil)
	require.NoError(t, err)
	assert.Nil(t, out)
}

func TestResolveSchemas(t *testing.T) {
	resolver := BlockingSchemaResolver(func(name string) (JSONSchema, error) {
		return JSONSchema{"title": name}, nil
	}).WithContext()
	inline := map[string]any{"type": "string"}
	meta := &PromptMetadata{
		Input:  &InputConfig{Schema: "In"},
		Output: &OutputConfig{Schema: inline},
	}

	out, err := ResolveSchemas(context.Background(), meta, resolver)
	require.NoError(t, err)
	assert.Equal(t, JSONSchema{"title": "In"}, out.Input.Schema)
	assert.Equal(t, inline, out.Output.Schema)
	assert.Equal(t, "In", meta.Input.Schema, "input metadata is not modified")

	_, err = ResolveSchemas(context.Background(), meta, nil)
	assert.ErrorIs(t, err, ErrNoResolver)
}
