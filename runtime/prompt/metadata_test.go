package prompt

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/google/dotprompt/runtime/types"
)

func TestPromptMetadata_JSONRoundTrip(t *testing.T) {
	meta := PromptMetadata{
		Name:        "greet",
		Variant:     "formal",
		Description: "Greets a user",
		Model:       "googleai/gemini-2.0-flash",
		Tools:       []string{"lookupUser"},
		ToolDefs: []ToolDefinition{{
			Name:        "clock",
			InputSchema: map[string]any{"type": "object"},
		}},
		Config: map[string]any{"temperature": json.Number("0.2")},
		Input: &InputConfig{
			Default: map[string]any{"name": "friend"},
			Schema:  "UserInput",
		},
		Output: &OutputConfig{Format: OutputFormatJSON, Schema: map[string]any{"type": "string"}},
		Raw:    map[string]any{"model": "googleai/gemini-2.0-flash", "acme.tier": "gold"},
		Ext:    map[string]map[string]any{"acme": {"tier": "gold"}},
		Envelope: types.Envelope{
			Metadata: map[string]any{"owner": "growth"},
			Extra:    map[string]any{"x-unknown": []any{"kept"}},
		},
	}

	data, err := json.Marshal(meta)
	require.NoError(t, err)

	obj := map[string]any{}
	require.NoError(t, json.Unmarshal(data, &obj))
	assert.Equal(t, map[string]any{"owner": "growth"}, obj["metadata"])
	assert.Equal(t, []any{"kept"}, obj["x-unknown"])

	var back PromptMetadata
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, meta, back)
}

func TestPromptMetadata_CustomOutputFormat(t *testing.T) {
	var m PromptMetadata
	require.NoError(t, json.Unmarshal([]byte(`{"output":{"format":"media"}}`), &m))
	assert.Equal(t, OutputFormat("media"), m.Output.Format)
}

func TestPromptMetadata_ExtraCollidingWithFieldRejected(t *testing.T) {
	m := PromptMetadata{Envelope: types.Envelope{Extra: map[string]any{"model": "x"}}}
	_, err := json.Marshal(m)
	assert.ErrorIs(t, err, types.ErrReservedKey)
}

func TestPromptMetadata_LargeIntegersExact(t *testing.T) {
	wire := `{"config":{"seed":12345678901234567891},"metadata":{"rev":9007199254740993}}`

	var m PromptMetadata
	require.NoError(t, json.Unmarshal([]byte(wire), &m))
	assert.Equal(t, json.Number("12345678901234567891"), m.Config["seed"])

	data, err := json.Marshal(m)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"seed":12345678901234567891`)
	assert.Contains(t, string(data), `"rev":9007199254740993`)
}

func TestPromptMetadata_WrongTypedFieldIsSchemaViolation(t *testing.T) {
	var m PromptMetadata
	err := json.Unmarshal([]byte(`{"tools":5}`), &m)

	var de *types.DecodeError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, types.SchemaViolation, de.Kind)
	assert.Equal(t, "tools", de.Path)
	assert.ErrorIs(t, err, types.ErrSchemaViolation)
}

func TestParsedPrompt_JSON(t *testing.T) {
	p := ParsedPrompt{
		PromptMetadata: PromptMetadata{Name: "greet", Envelope: types.Envelope{Extra: map[string]any{"custom": true}}},
		Template:       "Hello {{name}}",
	}

	data, err := json.Marshal(p)
	require.NoError(t, err)
	assert.JSONEq(t, `{"name":"greet","template":"Hello {{name}}","custom":true}`, string(data))

	var back ParsedPrompt
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, p, back)
}

func TestRenderedPrompt_JSON(t *testing.T) {
	r := RenderedPrompt{
		PromptMetadata: PromptMetadata{Model: "m", Config: map[string]any{"topK": json.Number("3")}},
		Messages: []types.Message{
			types.NewMessage(types.RoleSystem, types.NewTextPart("Be brief.")),
			types.NewMessage(types.RoleUser, types.NewTextPart("Hi"), types.NewMediaPart("https://x/y.png", "image/png")),
		},
	}

	data, err := json.Marshal(r)
	require.NoError(t, err)

	var back RenderedPrompt
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, r, back)

	empty, err := json.Marshal(RenderedPrompt{})
	require.NoError(t, err)
	assert.JSONEq(t, `{"messages":[]}`, string(empty))
}

func TestRenderedPrompt_BadMessageIsDecodeError(t *testing.T) {
	var r RenderedPrompt
	err := json.Unmarshal([]byte(`{"messages":[{"role":"user","content":[{"metadata":{"pending":false}}]}]}`), &r)
	assert.ErrorIs(t, err, types.ErrInvalidPendingFlag)
}

func TestMetadataFromFrontmatter(t *testing.T) {
	fm := []byte(`
name: greet
model: googleai/gemini-2.0-flash
tools: [lookupUser, clock]
config:
  temperature: 0.7
input:
  default:
    name: friend
  schema:
    name: string
output:
  format: json
acme.tier: gold
acme.team.owner: growth
custom: value
`)

	meta, err := MetadataFromFrontmatter(fm)
	require.NoError(t, err)

	assert.Equal(t, "greet", meta.Name)
	assert.Equal(t, "googleai/gemini-2.0-flash", meta.Model)
	assert.Equal(t, []string{"lookupUser", "clock"}, meta.Tools)
	assert.Equal(t, map[string]any{"temperature": json.Number("0.7")}, meta.Config)
	assert.Equal(t, map[string]any{"name": "friend"}, meta.Input.Default)
	assert.Equal(t, OutputFormatJSON, meta.Output.Format)
	assert.Equal(t, map[string]map[string]any{
		"acme":      {"tier": "gold"},
		"acme.team": {"owner": "growth"},
	}, meta.Ext)

	assert.Equal(t, "value", meta.Raw["custom"])
	assert.Equal(t, "gold", meta.Raw["acme.tier"])
	assert.Len(t, meta.Raw, 9)
	assert.Nil(t, meta.Extra, "unknown keys stay in Raw only")
}

func TestMetadataFromFrontmatter_Empty(t *testing.T) {
	meta, err := MetadataFromFrontmatter(nil)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{}, meta.Raw)
	assert.Nil(t, meta.Ext)
}

func TestMetadataFromFrontmatter_Errors(t *testing.T) {
	_, err := MetadataFromFrontmatter([]byte("name: [unclosed"))
	assert.ErrorIs(t, err, ErrInvalidFrontmatter)

	_, err = MetadataFromFrontmatter([]byte("tools: just-a-string"))
	assert.ErrorIs(t, err, ErrInvalidFrontmatter)
}

func TestMergeMetadata(t *testing.T) {
	base := &PromptMetadata{
		Name:     "greet",
		Model:    "base-model",
		Config:   map[string]any{"temperature": 0.1, "topK": 5},
		Tools:    []string{"a"},
		Envelope: types.Envelope{Metadata: map[string]any{"owner": "x"}},
	}
	override := &PromptMetadata{
		Model:    "override-model",
		Config:   map[string]any{"temperature": 0.9},
		Envelope: types.Envelope{Metadata: map[string]any{"reviewed": true}},
	}

	out := MergeMetadata(base, nil, override)

	assert.Equal(t, "greet", out.Name)
	assert.Equal(t, "override-model", out.Model)
	assert.Equal(t, map[string]any{"temperature": 0.9, "topK": 5}, out.Config)
	assert.Equal(t, []string{"a"}, out.Tools)
	assert.Equal(t, map[string]any{"owner": "x", "reviewed": true}, out.Metadata)

	assert.Equal(t, "base-model", base.Model, "base is not modified")
	assert.Equal(t, map[string]any{"temperature": 0.1, "topK": 5}, base.Config)

	assert.Equal(t, &PromptMetadata{}, MergeMetadata(nil))
}

func TestPromptMetadata_CloneIsIndependent(t *testing.T) {
	orig := &PromptMetadata{
		Tools: []string{"a"},
		Input: &InputConfig{Default: map[string]any{"k": "v"}},
		Ext:   map[string]map[string]any{"ns": {"k": "v"}},
	}
	c := orig.Clone()
	c.Tools[0] = "b"
	c.Input.Default["k"] = "changed"
	c.Ext["ns"]["k"] = "changed"

	assert.Equal(t, "a", orig.Tools[0])
	assert.Equal(t, "v", orig.Input.Default["k"])
	assert.Equal(t, "v", orig.Ext["ns"]["k"])
	assert.Nil(t, (*PromptMetadata)(nil).Clone())
}

func TestParseStored(t *testing.T) {
	split := FrontmatterSplitter(func(source string) (*ParsedPrompt, error) {
		return &ParsedPrompt{PromptMetadata: PromptMetadata{Model: "m"}, Template: source}, nil
	})
	data := PromptData{PromptRef: PromptRef{Name: "greet", Variant: "formal", Version: "stale"}, Source: "Hello {{name}}"}

	parsed, err := ParseStored(split, data)
	require.NoError(t, err)
	assert.Equal(t, "greet", parsed.Name)
	assert.Equal(t, "formal", parsed.Variant)
	assert.Equal(t, "a6a1ea6e", parsed.Version)
	assert.Equal(t, "Hello {{name}}", parsed.Template)

	boom := errors.New("bad frontmatter")
	_, err = ParseStored(func(string) (*ParsedPrompt, error) { return nil, boom }, data)
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "greet[formal]")

	_, err = ParseStored(nil, data)
	assert.Error(t, err)
}

func TestRendererFunc(t *testing.T) {
	var r Renderer = RendererFunc(func(
		_ context.Context, p *ParsedPrompt, data *types.DataArgument, _ *PromptMetadata,
	) (*RenderedPrompt, error) {
		text := p.Template + " " + data.Input["name"].(string)
		return &RenderedPrompt{
			PromptMetadata: p.PromptMetadata,
			Messages:       []types.Message{types.NewMessage(types.RoleUser, types.NewTextPart(text))},
		}, nil
	})

	out, err := r.Render(context.Background(), &ParsedPrompt{Template: "Hello"},
		&types.DataArgument{Input: map[string]any{"name": "Ada"}}, nil)
	require.NoError(t, err)
	assert.Equal(t, "Hello Ada", out.Messages[0].Text())
}
