package types

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"maps"
)

// metadataKey is the wire key of the metadata object.
const metadataKey = "metadata"

// Envelope is the open-ended metadata attached to parts, messages and documents.
// This package never interprets it; it only carries it across encode/decode.
type Envelope struct {
	// Metadata is the wire "metadata" object. A nil map is not emitted;
	// an empty non-nil map is emitted as {}.
	Metadata map[string]any `json:"-" yaml:"-"`

	// Extra holds wire keys that are not fields of the entity. They are
	// emitted back as siblings of the entity's own fields. Empty means nil.
	Extra map[string]any `json:"-" yaml:"-"`
}

// IsZero reports whether the envelope carries nothing.
func (e Envelope) IsZero() bool {
	return e.Metadata == nil && len(e.Extra) == 0
}

// Clone returns a copy whose top-level maps are not shared with e.
func (e Envelope) Clone() Envelope {
	out := Envelope{Extra: maps.Clone(e.Extra)}
	if e.Metadata != nil {
		out.Metadata = maps.Clone(e.Metadata)
	}
	if len(out.Extra) == 0 {
		out.Extra = nil
	}
	return out
}

// emit writes the envelope into obj. Extra keys that collide with the
// entity's own fields or the metadata key are rejected.
func (e Envelope) emit(obj map[string]any, withMetadata bool, reserved ...string) error {
	for k, v := range e.Extra {
		if k == metadataKey || contains(reserved, k) {
			return fmt.Errorf("%w: %q", ErrReservedKey, k)
		}
		obj[k] = v
	}
	if withMetadata && e.Metadata != nil {
		obj[metadataKey] = e.Metadata
	}
	return nil
}

// takeEnvelope reads the metadata object and every key not listed in
// recognized from raw. A metadata value that is neither an object nor null
// is a schema violation.
func takeEnvelope(raw map[string]json.RawMessage, recognized ...string) (Envelope, error) {
	var env Envelope
	if md, ok := raw[metadataKey]; ok && !isJSONNull(md) {
		if !isJSONObject(md) {
			return Envelope{}, newDecodeError(SchemaViolation, "metadata must be an object")
		}
		env.Metadata = map[string]any{}
		if err := decodeValue(md, &env.Metadata); err != nil {
			return Envelope{}, err
		}
	}
	extra, err := leftovers(raw, append(recognized, metadataKey)...)
	if err != nil {
		return Envelope{}, err
	}
	env.Extra = extra
	return env, nil
}

// leftovers decodes the keys of raw not listed in recognized. Nil when none remain.
func leftovers(raw map[string]json.RawMessage, recognized ...string) (map[string]any, error) {
	var out map[string]any
	for k, v := range raw {
		if contains(recognized, k) {
			continue
		}
		var val any
		if err := decodeValue(v, &val); err != nil {
			return nil, err
		}
		if out == nil {
			out = make(map[string]any)
		}
		out[k] = val
	}
	return out, nil
}

func contains(keys []string, k string) bool {
	for _, r := range keys {
		if r == k {
			return true
		}
	}
	return false
}

func firstByte(raw json.RawMessage) byte {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return 0
	}
	return raw[0]
}

func isJSONObject(raw json.RawMessage) bool { return firstByte(raw) == '{' }
func isJSONArray(raw json.RawMessage) bool  { return firstByte(raw) == '[' }
func isJSONString(raw json.RawMessage) bool { return firstByte(raw) == '"' }
func isJSONNull(raw json.RawMessage) bool   { return bytes.Equal(bytes.TrimSpace(raw), []byte("null")) }

// decodeObject decodes data as a JSON object. Valid JSON that is not an
// object yields ok == false and no error.
func decodeObject(data []byte) (raw map[string]json.RawMessage, ok bool, err error) {
	if !isJSONObject(data) {
		if !json.Valid(data) {
			return nil, false, json.Unmarshal(data, new(any))
		}
		return nil, false, nil
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, false, err
	}
	return raw, true, nil
}

// MarshalWithEnvelope encodes v, a struct without its own marshaler, and
// merges env into the resulting object. known lists every wire key v can
// produce; Extra keys colliding with them are rejected even when v omits
// the field, since they would decode back into it.
func MarshalWithEnvelope(v any, env Envelope, known ...string) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	if env.IsZero() {
		return data, nil
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, err
	}
	obj := make(map[string]any, len(fields)+len(env.Extra)+1)
	for k, v := range fields {
		obj[k] = v
	}
	if err := env.emit(obj, true, known...); err != nil {
		return nil, err
	}
	return json.Marshal(obj)
}

// UnmarshalWithEnvelope decodes data into v and returns the envelope built
// from the metadata object and every key not listed in known. Numbers in
// untyped values decode as json.Number.
func UnmarshalWithEnvelope(data []byte, v any, known ...string) (Envelope, error) {
	raw, ok, err := decodeObject(data)
	if err != nil {
		return Envelope{}, err
	}
	if !ok {
		return Envelope{}, newDecodeError(SchemaViolation, "expected a JSON object")
	}
	if err := decodeValue(data, v); err != nil {
		return Envelope{}, err
	}
	return takeEnvelope(raw, known...)
}

// decodeValue decodes raw into v keeping numbers as json.Number, so
// integers beyond float64 precision encode back unchanged. A well-formed
// value of the wrong type is a SchemaViolation.
func decodeValue(raw []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(v); err != nil {
		return schemaViolation(err)
	}
	return nil
}

func schemaViolation(err error) error {
	var te *json.UnmarshalTypeError
	if !errors.As(err, &te) {
		return err
	}
	return &DecodeError{Kind: SchemaViolation, Path: te.Field, Reason: fmt.Sprintf("cannot use %s as %s", te.Value, te.Type)}
}
