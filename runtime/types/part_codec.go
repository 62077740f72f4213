package types

import (
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"net/url"
)

// Encoding errors.
var (
	ErrNilPart         = errors.New("nil part")
	ErrUnsupportedPart = errors.New("unsupported part type")
	ErrReservedKey     = errors.New("extra key collides with a field of the entity")
	ErrAmbiguousPart   = errors.New("extra keys make the part decode as a different variant")
	ErrInvalidMediaURL = errors.New("media url is not an absolute URI")
)

const pendingKey = "pending"

// partShape recognises one variant from the value under its key. It returns
// a constructor on a match, or a reason describing why the value was rejected.
type partShape struct {
	key   string
	match func(v json.RawMessage) (build func(Envelope) Part, reason string)
}

// partShapes is the decode priority order. Pending is handled last and
// separately because its key is the metadata object itself.
var partShapes = []partShape{
	{key: "text", match: matchText},
	{key: "data", match: matchData},
	{key: "media", match: matchMedia},
	{key: "toolRequest", match: matchToolRequest},
	{key: "toolResponse", match: matchToolResponse},
}

// UnmarshalPart decodes a Part from its wire form.
//
// Shapes are tried in the order Text, Data, Media, ToolRequest, ToolResponse,
// Pending and the first structurally compatible one wins. Keys belonging to
// other shapes end up in the part's Extra map. Input matching no shape fails
// with a *DecodeError of kind NoVariantMatched; a pending-shaped object
// whose metadata.pending is not literally true fails with InvalidPendingFlag.
// Numbers inside data, tool bodies, metadata and extra keys decode as
// json.Number.
func UnmarshalPart(data []byte) (Part, error) {
	raw, ok, err := decodeObject(data)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, newDecodeError(NoVariantMatched, "part must be a JSON object")
	}
	return decodePart(raw)
}

func decodePart(raw map[string]json.RawMessage) (Part, error) {
	var nearMiss string
	for _, shape := range partShapes {
		v, ok := raw[shape.key]
		if !ok {
			continue
		}
		build, reason := shape.match(v)
		if build == nil {
			if nearMiss == "" {
				nearMiss = reason
			}
			continue
		}
		env, err := takeEnvelope(raw, shape.key)
		if err != nil {
			return nil, err
		}
		return build(env), nil
	}

	if md, ok := raw[metadataKey]; ok && isJSONObject(md) {
		return decodePending(raw, md)
	}

	if nearMiss == "" {
		nearMiss = "expected one of text, data, media, toolRequest, toolResponse or metadata.pending"
	}
	return nil, newDecodeError(NoVariantMatched, "%s", nearMiss)
}

func decodePending(raw map[string]json.RawMessage, md json.RawMessage) (Part, error) {
	var metadata map[string]any
	if err := decodeValue(md, &metadata); err != nil {
		return nil, err
	}
	flag, present := metadata[pendingKey]
	if b, isBool := flag.(bool); !present || !isBool || !b {
		return nil, newDecodeError(InvalidPendingFlag, "metadata.pending is %s", describe(flag, present))
	}
	delete(metadata, pendingKey)
	if len(metadata) == 0 {
		metadata = nil
	}
	extra, err := leftovers(raw, metadataKey)
	if err != nil {
		return nil, err
	}
	return PendingPart{Envelope: Envelope{Metadata: metadata, Extra: extra}}, nil
}

func describe(v any, present bool) string {
	if !present {
		return "missing"
	}
	return fmt.Sprintf("%T(%v)", v, v)
}

func matchText(v json.RawMessage) (func(Envelope) Part, string) {
	if !isJSONString(v) {
		return nil, "text must be a string"
	}
	var s string
	if err := json.Unmarshal(v, &s); err != nil {
		return nil, "text: " + err.Error()
	}
	return func(env Envelope) Part { return TextPart{Text: s, Envelope: env} }, ""
}

func matchData(v json.RawMessage) (func(Envelope) Part, string) {
	var d any
	if err := decodeValue(v, &d); err != nil {
		return nil, "data: " + err.Error()
	}
	return func(env Envelope) Part { return DataPart{Data: d, Envelope: env} }, ""
}

func matchMedia(v json.RawMessage) (func(Envelope) Part, string) {
	var m struct {
		URL         *string `json:"url"`
		ContentType *string `json:"contentType"`
	}
	if !isJSONObject(v) {
		return nil, "media must be an object"
	}
	if err := json.Unmarshal(v, &m); err != nil {
		return nil, "media: " + err.Error()
	}
	if m.URL == nil {
		return nil, "media.url is required"
	}
	if err := validateMediaURL(*m.URL); err != nil {
		return nil, err.Error()
	}
	media := Media{URL: *m.URL}
	if m.ContentType != nil {
		media.ContentType = *m.ContentType
	}
	return func(env Envelope) Part { return MediaPart{Media: media, Envelope: env} }, ""
}

// toolCall is the shared wire shape of toolRequest and toolResponse.
type toolCall struct {
	Name *string `json:"name"`
	Ref  *string `json:"ref"`
}

func matchToolCall(field, bodyKey string, v json.RawMessage) (name, ref string, body any, reason string) {
	if !isJSONObject(v) {
		return "", "", nil, field + " must be an object"
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(v, &fields); err != nil {
		return "", "", nil, field + ": " + err.Error()
	}
	var tc toolCall
	if err := json.Unmarshal(v, &tc); err != nil {
		return "", "", nil, field + ": " + err.Error()
	}
	if tc.Name == nil {
		return "", "", nil, field + ".name must be a string"
	}
	if tc.Ref != nil {
		ref = *tc.Ref
	}
	if b, ok := fields[bodyKey]; ok {
		if err := decodeValue(b, &body); err != nil {
			return "", "", nil, field + "." + bodyKey + ": " + err.Error()
		}
	}
	return *tc.Name, ref, body, ""
}

func matchToolRequest(v json.RawMessage) (func(Envelope) Part, string) {
	name, ref, input, reason := matchToolCall("toolRequest", "input", v)
	if reason != "" {
		return nil, reason
	}
	req := ToolRequest{Name: name, Input: input, Ref: ref}
	return func(env Envelope) Part { return ToolRequestPart{ToolRequest: req, Envelope: env} }, ""
}

func matchToolResponse(v json.RawMessage) (func(Envelope) Part, string) {
	name, ref, output, reason := matchToolCall("toolResponse", "output", v)
	if reason != "" {
		return nil, reason
	}
	resp := ToolResponse{Name: name, Output: output, Ref: ref}
	return func(env Envelope) Part { return ToolResponsePart{ToolResponse: resp, Envelope: env} }, ""
}

func validateMediaURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" {
		return fmt.Errorf("%w: %q", ErrInvalidMediaURL, raw)
	}
	return nil
}

// MarshalPart encodes a Part into its wire form. Output is deterministic:
// keys are emitted in sorted order.
func MarshalPart(p Part) ([]byte, error) {
	obj, err := partObject(p)
	if err != nil {
		return nil, err
	}
	data, err := json.Marshal(obj)
	if err != nil {
		return nil, err
	}
	if len(p.envelope().Extra) > 0 {
		back, err := UnmarshalPart(data)
		if err != nil || back.Kind() != p.Kind() {
			return nil, fmt.Errorf("%w: %s part", ErrAmbiguousPart, p.Kind())
		}
	}
	return data, nil
}

func partObject(p Part) (map[string]any, error) {
	if p == nil {
		return nil, ErrNilPart
	}
	obj := make(map[string]any, 2)
	var own string
	switch v := p.(type) {
	case TextPart:
		own, obj["text"] = "text", v.Text
	case DataPart:
		own, obj["data"] = "data", v.Data
	case MediaPart:
		if err := validateMediaURL(v.Media.URL); err != nil {
			return nil, err
		}
		own, obj["media"] = "media", v.Media
	case ToolRequestPart:
		own, obj["toolRequest"] = "toolRequest", v.ToolRequest
	case ToolResponsePart:
		own, obj["toolResponse"] = "toolResponse", v.ToolResponse
	case PendingPart:
		if _, ok := v.Metadata[pendingKey]; ok {
			return nil, fmt.Errorf("%w: metadata.%s", ErrReservedKey, pendingKey)
		}
		md := make(map[string]any, len(v.Metadata)+1)
		maps.Copy(md, v.Metadata)
		md[pendingKey] = true
		obj[metadataKey] = md
		if err := v.emit(obj, false); err != nil {
			return nil, err
		}
		return obj, nil
	default:
		return nil, fmt.Errorf("%w %T: parts are encoded by value", ErrUnsupportedPart, p)
	}
	if err := p.envelope().emit(obj, true, own); err != nil {
		return nil, err
	}
	return obj, nil
}

// MarshalJSON implements json.Marshaler.
func (p TextPart) MarshalJSON() ([]byte, error) { return MarshalPart(p) }

// MarshalJSON implements json.Marshaler.
func (p DataPart) MarshalJSON() ([]byte, error) { return MarshalPart(p) }

// MarshalJSON implements json.Marshaler.
func (p MediaPart) MarshalJSON() ([]byte, error) { return MarshalPart(p) }

// MarshalJSON implements json.Marshaler.
func (p ToolRequestPart) MarshalJSON() ([]byte, error) { return MarshalPart(p) }

// MarshalJSON implements json.Marshaler.
func (p ToolResponsePart) MarshalJSON() ([]byte, error) { return MarshalPart(p) }

// MarshalJSON implements json.Marshaler.
func (p PendingPart) MarshalJSON() ([]byte, error) { return MarshalPart(p) }

// marshalParts encodes a part list, locating failures by index under field.
// A nil list encodes as an empty array.
func marshalParts(field string, parts []Part) ([]json.RawMessage, error) {
	out := make([]json.RawMessage, len(parts))
	for i, p := range parts {
		data, err := MarshalPart(p)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", indexed(field, i), err)
		}
		out[i] = data
	}
	return out, nil
}

// unmarshalParts decodes a required part array under field.
func unmarshalParts(field string, raw map[string]json.RawMessage) ([]Part, error) {
	v, ok := raw[field]
	if !ok || !isJSONArray(v) {
		return nil, &DecodeError{Kind: SchemaViolation, Path: field, Reason: "must be an array"}
	}
	var items []json.RawMessage
	if err := json.Unmarshal(v, &items); err != nil {
		return nil, err
	}
	parts := make([]Part, 0, len(items))
	for i, item := range items {
		p, err := UnmarshalPart(item)
		if err != nil {
			return nil, withPath(err, indexed(field, i))
		}
		parts = append(parts, p)
	}
	return parts, nil
}
