package prompt

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/google/dotprompt/runtime/types"
)

// JSONSchema is a JSON Schema document in generic form.
type JSONSchema = map[string]any

// Schema is either a JSONSchema or a string naming a schema that a
// SchemaResolver can expand.
type Schema = any

// OutputFormat is the requested output format. Values other than the
// constants below are custom formats and are passed through.
type OutputFormat string

// Known output formats.
const (
	OutputFormatJSON OutputFormat = "json"
	OutputFormatText OutputFormat = "text"
)

// ToolDefinition fully describes a tool a model may call.
type ToolDefinition struct {
	Name         string `json:"name"`
	Description  string `json:"description,omitempty"`
	InputSchema  Schema `json:"inputSchema"`
	OutputSchema Schema `json:"outputSchema,omitempty"`
}

// InputConfig describes the variables a prompt accepts.
type InputConfig struct {
	Default map[string]any `json:"default,omitempty"`
	Schema  Schema         `json:"schema,omitempty"`
}

// OutputConfig describes what a prompt asks the model to produce.
type OutputConfig struct {
	Format OutputFormat `json:"format,omitempty"`
	Schema Schema       `json:"schema,omitempty"`
}

// PromptMetadata is the configuration carried in a prompt's frontmatter.
//
// Raw is the complete unprocessed frontmatter map and Ext holds namespaced
// keys ("ns.key") split into namespace and key. Both are carried verbatim
// and never rewritten from the typed fields.
type PromptMetadata struct {
	Name        string                    `json:"name,omitempty"`
	Variant     string                    `json:"variant,omitempty"`
	Version     string                    `json:"version,omitempty"`
	Description string                    `json:"description,omitempty"`
	Model       string                    `json:"model,omitempty"`
	Tools       []string                  `json:"tools,omitempty"`
	ToolDefs    []ToolDefinition          `json:"toolDefs,omitempty"`
	Config      map[string]any            `json:"config,omitempty"`
	Input       *InputConfig              `json:"input,omitempty"`
	Output      *OutputConfig             `json:"output,omitempty"`
	Raw         map[string]any            `json:"raw,omitempty"`
	Ext         map[string]map[string]any `json:"ext,omitempty"`
	types.Envelope
}

// metadataKeys are the wire keys of PromptMetadata's typed fields.
var metadataKeys = []string{
	"name", "variant", "version", "description", "model", "tools",
	"toolDefs", "config", "input", "output", "raw", "ext",
}

// plainMetadata has PromptMetadata's fields without its JSON methods.
type plainMetadata PromptMetadata

// MarshalJSON implements json.Marshaler. The envelope's metadata and extra
// keys are emitted beside the typed fields.
func (m PromptMetadata) MarshalJSON() ([]byte, error) {
	return types.MarshalWithEnvelope(plainMetadata(m), m.Envelope, metadataKeys...)
}

// UnmarshalJSON implements json.Unmarshaler.
func (m *PromptMetadata) UnmarshalJSON(data []byte) error {
	var p plainMetadata
	env, err := types.UnmarshalWithEnvelope(data, &p, metadataKeys...)
	if err != nil {
		return err
	}
	p.Envelope = env
	*m = PromptMetadata(p)
	return nil
}

// Key returns the identity named by the metadata.
func (m *PromptMetadata) Key() Key { return Key{Name: m.Name, Variant: m.Variant} }

// Clone returns a copy that shares no slices or top-level maps with m.
func (m *PromptMetadata) Clone() *PromptMetadata {
	if m == nil {
		return nil
	}
	out := *m
	out.Tools = slices.Clone(m.Tools)
	out.ToolDefs = slices.Clone(m.ToolDefs)
	out.Config = maps.Clone(m.Config)
	out.Raw = maps.Clone(m.Raw)
	if m.Ext != nil {
		out.Ext = make(map[string]map[string]any, len(m.Ext))
		for ns, kv := range m.Ext {
			out.Ext[ns] = maps.Clone(kv)
		}
	}
	if m.Input != nil {
		in := *m.Input
		in.Default = maps.Clone(m.Input.Default)
		out.Input = &in
	}
	if m.Output != nil {
		o := *m.Output
		out.Output = &o
	}
	out.Envelope = m.Envelope.Clone()
	return &out
}

// MergeMetadata layers merges over base, later arguments winning. Set fields
// replace earlier ones, except Config and the envelope metadata, which are
// merged key by key. Nil merges are skipped. base is not modified.
func MergeMetadata(base *PromptMetadata, merges ...*PromptMetadata) *PromptMetadata {
	out := base.Clone()
	if out == nil {
		out = &PromptMetadata{}
	}
	for _, m := range merges {
		if m == nil {
			continue
		}
		setIf(&out.Name, m.Name)
		setIf(&out.Variant, m.Variant)
		setIf(&out.Version, m.Version)
		setIf(&out.Description, m.Description)
		setIf(&out.Model, m.Model)
		if m.Tools != nil {
			out.Tools = slices.Clone(m.Tools)
		}
		if m.ToolDefs != nil {
			out.ToolDefs = slices.Clone(m.ToolDefs)
		}
		if m.Input != nil {
			out.Input = m.Clone().Input
		}
		if m.Output != nil {
			out.Output = m.Clone().Output
		}
		if m.Raw != nil {
			out.Raw = maps.Clone(m.Raw)
		}
		if m.Ext != nil {
			out.Ext = m.Clone().Ext
		}
		out.Config = mergeMaps(out.Config, m.Config)
		out.Metadata = mergeMaps(out.Metadata, m.Metadata)
		if m.Extra != nil {
			out.Extra = mergeMaps(out.Extra, m.Extra)
		}
	}
	return out
}

func setIf(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func mergeMaps(dst, src map[string]any) map[string]any {
	if src == nil {
		return dst
	}
	if dst == nil {
		dst = make(map[string]any, len(src))
	}
	maps.Copy(dst, src)
	return dst
}

// ErrInvalidFrontmatter is returned when frontmatter YAML cannot be mapped onto PromptMetadata.
var ErrInvalidFrontmatter = errors.New("invalid frontmatter")

// MetadataFromFrontmatter builds PromptMetadata from the YAML frontmatter
// block of a prompt (without the --- fences). Typed fields are taken from
// the reserved keys, dotted keys are split into Ext, and Raw receives the
// full map. Other keys only appear in Raw.
func MetadataFromFrontmatter(frontmatter []byte) (*PromptMetadata, error) {
	var raw map[string]any
	if err := yaml.Unmarshal(frontmatter, &raw); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidFrontmatter, err)
	}
	if raw == nil {
		raw = map[string]any{}
	}

	typed := make(map[string]any)
	ext := make(map[string]map[string]any)
	for k, v := range raw {
		switch {
		case slices.Contains(metadataKeys, k):
			if k != "raw" && k != "ext" {
				typed[k] = v
			}
		case k == "metadata":
			typed[k] = v
		case strings.Contains(k, "."):
			i := strings.LastIndex(k, ".")
			ns, field := k[:i], k[i+1:]
			if ext[ns] == nil {
				ext[ns] = make(map[string]any)
			}
			ext[ns][field] = v
		}
	}

	data, err := json.Marshal(typed)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidFrontmatter, err)
	}
	meta := &PromptMetadata{}
	if err := json.Unmarshal(data, meta); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidFrontmatter, err)
	}
	meta.Raw = raw
	if len(ext) > 0 {
		meta.Ext = ext
	}
	return meta, nil
}

// ParsedPrompt is a prompt's metadata plus its template body with the
// frontmatter removed.
type ParsedPrompt struct {
	PromptMetadata
	Template string
}

// MarshalJSON implements json.Marshaler; "template" sits beside the metadata keys.
func (p ParsedPrompt) MarshalJSON() ([]byte, error) {
	wire := struct {
		*plainMetadata
		Template string `json:"template"`
	}{(*plainMetadata)(&p.PromptMetadata), p.Template}
	return types.MarshalWithEnvelope(wire, p.Envelope, append(slices.Clone(metadataKeys), "template")...)
}

// UnmarshalJSON implements json.Unmarshaler.
func (p *ParsedPrompt) UnmarshalJSON(data []byte) error {
	var wire struct {
		plainMetadata
		Template string `json:"template"`
	}
	env, err := types.UnmarshalWithEnvelope(data, &wire, append(slices.Clone(metadataKeys), "template")...)
	if err != nil {
		return err
	}
	wire.Envelope = env
	*p = ParsedPrompt{PromptMetadata: PromptMetadata(wire.plainMetadata), Template: wire.Template}
	return nil
}

// RenderedPrompt is the final output of a render: merged metadata and the
// messages to send to a model.
type RenderedPrompt struct {
	PromptMetadata
	Messages []types.Message
}

// MarshalJSON implements json.Marshaler; "messages" sits beside the metadata keys.
func (r RenderedPrompt) MarshalJSON() ([]byte, error) {
	messages := r.Messages
	if messages == nil {
		messages = []types.Message{}
	}
	wire := struct {
		*plainMetadata
		Messages []types.Message `json:"messages"`
	}{(*plainMetadata)(&r.PromptMetadata), messages}
	return types.MarshalWithEnvelope(wire, r.Envelope, append(slices.Clone(metadataKeys), "messages")...)
}

// UnmarshalJSON implements json.Unmarshaler.
func (r *RenderedPrompt) UnmarshalJSON(data []byte) error {
	var wire struct {
		plainMetadata
		Messages []types.Message `json:"messages"`
	}
	env, err := types.UnmarshalWithEnvelope(data, &wire, append(slices.Clone(metadataKeys), "messages")...)
	if err != nil {
		return err
	}
	wire.Envelope = env
	*r = RenderedPrompt{PromptMetadata: PromptMetadata(wire.plainMetadata), Messages: wire.Messages}
	return nil
}

// FrontmatterSplitter turns raw source into a ParsedPrompt. Implementations
// must put the complete frontmatter map in Raw and leave Template equal to
// the source with the frontmatter block removed.
type FrontmatterSplitter func(source string) (*ParsedPrompt, error)

// Renderer combines a parsed prompt with runtime data. overrides may be nil.
type Renderer interface {
	Render(ctx context.Context, prompt *ParsedPrompt, data *types.DataArgument, overrides *PromptMetadata) (*RenderedPrompt, error)
}

// RendererFunc adapts a function to Renderer.
type RendererFunc func(ctx context.Context, prompt *ParsedPrompt, data *types.DataArgument, overrides *PromptMetadata) (*RenderedPrompt, error)

// Render calls f.
func (f RendererFunc) Render(
	ctx context.Context, prompt *ParsedPrompt, data *types.DataArgument, overrides *PromptMetadata,
) (*RenderedPrompt, error) {
	return f(ctx, prompt, data, overrides)
}

// ParseStored splits stored source and fills identity fields the
// frontmatter left empty from the ref. Version is always the content version.
func ParseStored(split FrontmatterSplitter, data PromptData) (*ParsedPrompt, error) {
	if split == nil {
		return nil, errors.New("prompt: nil frontmatter splitter")
	}
	parsed, err := split(data.Source)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", data.Key(), err)
	}
	if parsed == nil {
		parsed = &ParsedPrompt{}
	}
	setIfEmpty(&parsed.Name, data.Name)
	setIfEmpty(&parsed.Variant, data.Variant)
	parsed.Version = VersionOf(data.Source)
	return parsed, nil
}

func setIfEmpty(dst *string, v string) {
	if *dst == "" {
		*dst = v
	}
}
