package types

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Role identifies the author of a message.
type Role string

// Supported roles.
const (
	RoleUser   Role = "user"
	RoleModel  Role = "model"
	RoleTool   Role = "tool"
	RoleSystem Role = "system"
)

// Valid reports whether r is one of the supported roles.
func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleModel, RoleTool, RoleSystem:
		return true
	}
	return false
}

// Message is one conversation turn. Content order is significant.
type Message struct {
	Role    Role
	Content []Part
	Envelope
}

// NewMessage creates a message with the given role and parts.
func NewMessage(role Role, parts ...Part) Message {
	return Message{Role: role, Content: parts}
}

// Text concatenates the text of all text parts.
func (m Message) Text() string {
	var b strings.Builder
	for _, p := range m.Content {
		if t, ok := p.(TextPart); ok {
			b.WriteString(t.Text)
		}
	}
	return b.String()
}

// HasPendingParts reports whether any part is still pending.
func (m Message) HasPendingParts() bool {
	for _, p := range m.Content {
		if _, ok := p.(PendingPart); ok {
			return true
		}
	}
	return false
}

// ToolRequests returns the tool requests in content order.
func (m Message) ToolRequests() []ToolRequest {
	var out []ToolRequest
	for _, p := range m.Content {
		if tr, ok := p.(ToolRequestPart); ok {
			out = append(out, tr.ToolRequest)
		}
	}
	return out
}

// ToolResponses returns the tool responses in content order.
func (m Message) ToolResponses() []ToolResponse {
	var out []ToolResponse
	for _, p := range m.Content {
		if tr, ok := p.(ToolResponsePart); ok {
			out = append(out, tr.ToolResponse)
		}
	}
	return out
}

// UnansweredToolRequests returns the requests in history that have no
// matching response later in the conversation. Requests and responses with
// a ref are matched by ref; those without are matched by tool name.
func UnansweredToolRequests(history []Message) []ToolRequest {
	var open []ToolRequest
	for _, m := range history {
		open = append(open, m.ToolRequests()...)
		for _, resp := range m.ToolResponses() {
			for i, req := range open {
				if correlates(req, resp) {
					open = append(open[:i], open[i+1:]...)
					break
				}
			}
		}
	}
	return open
}

func correlates(req ToolRequest, resp ToolResponse) bool {
	if req.Ref != "" || resp.Ref != "" {
		return req.Ref == resp.Ref
	}
	return req.Name == resp.Name
}

// MarshalJSON implements json.Marshaler. Nil content encodes as [].
func (m Message) MarshalJSON() ([]byte, error) {
	if !m.Role.Valid() {
		return nil, fmt.Errorf("%w: invalid role %q", ErrSchemaViolation, m.Role)
	}
	content, err := marshalParts("content", m.Content)
	if err != nil {
		return nil, err
	}
	obj := map[string]any{"role": m.Role, "content": content}
	if err := m.emit(obj, true, "role", "content"); err != nil {
		return nil, err
	}
	return json.Marshal(obj)
}

// UnmarshalJSON implements json.Unmarshaler.
func (m *Message) UnmarshalJSON(data []byte) error {
	raw, ok, err := decodeObject(data)
	if err != nil {
		return err
	}
	if !ok {
		return newDecodeError(SchemaViolation, "message must be a JSON object")
	}

	var role string
	if v, ok := raw["role"]; !ok || !isJSONString(v) || json.Unmarshal(v, &role) != nil {
		return &DecodeError{Kind: SchemaViolation, Path: "role", Reason: "must be a string"}
	}
	if !Role(role).Valid() {
		return &DecodeError{Kind: SchemaViolation, Path: "role", Reason: fmt.Sprintf("unknown role %q", role)}
	}

	content, err := unmarshalParts("content", raw)
	if err != nil {
		return err
	}
	env, err := takeEnvelope(raw, "role", "content")
	if err != nil {
		return err
	}
	*m = Message{Role: Role(role), Content: content, Envelope: env}
	return nil
}

// Document is context material supplied to a render; it has no role.
type Document struct {
	Content []Part
	Envelope
}

// NewDocument creates a document from parts.
func NewDocument(parts ...Part) Document {
	return Document{Content: parts}
}

// Text concatenates the text of all text parts.
func (d Document) Text() string {
	return Message{Content: d.Content}.Text()
}

// MarshalJSON implements json.Marshaler. Nil content encodes as [].
func (d Document) MarshalJSON() ([]byte, error) {
	content, err := marshalParts("content", d.Content)
	if err != nil {
		return nil, err
	}
	obj := map[string]any{"content": content}
	if err := d.emit(obj, true, "content"); err != nil {
		return nil, err
	}
	return json.Marshal(obj)
}

// UnmarshalJSON implements json.Unmarshaler.
func (d *Document) UnmarshalJSON(data []byte) error {
	raw, ok, err := decodeObject(data)
	if err != nil {
		return err
	}
	if !ok {
		return newDecodeError(SchemaViolation, "document must be a JSON object")
	}
	content, err := unmarshalParts("content", raw)
	if err != nil {
		return err
	}
	env, err := takeEnvelope(raw, "content")
	if err != nil {
		return err
	}
	*d = Document{Content: content, Envelope: env}
	return nil
}

// DataArgument is the runtime input to a render call: template variables,
// context documents, prior turns and per-key state. Treat it as immutable
// once handed to a renderer.
type DataArgument struct {
	Input    map[string]any `json:"input,omitempty"`
	Docs     []Document     `json:"docs,omitempty"`
	Messages []Message      `json:"messages,omitempty"`
	Context  map[string]any `json:"context,omitempty"`
}

// UnmarshalJSON implements json.Unmarshaler, locating content errors
// by their position, e.g. "messages[1].content[0]".
func (a *DataArgument) UnmarshalJSON(data []byte) error {
	var wire struct {
		Input    map[string]any    `json:"input"`
		Docs     []json.RawMessage `json:"docs"`
		Messages []json.RawMessage `json:"messages"`
		Context  map[string]any    `json:"context"`
	}
	if err := decodeValue(data, &wire); err != nil {
		return err
	}

	out := DataArgument{Input: wire.Input, Context: wire.Context}
	for i, raw := range wire.Docs {
		var d Document
		if err := d.UnmarshalJSON(raw); err != nil {
			return withPath(err, indexed("docs", i))
		}
		out.Docs = append(out.Docs, d)
	}
	for i, raw := range wire.Messages {
		var m Message
		if err := m.UnmarshalJSON(raw); err != nil {
			return withPath(err, indexed("messages", i))
		}
		out.Messages = append(out.Messages, m)
	}
	*a = out
	return nil
}
