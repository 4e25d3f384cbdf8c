package message

import (
	"encoding/json"
)

// Type is the value of a message's "type" field.
type Type string

// Recognised message types
const (
	TypeSchema Type = "SCHEMA"
	TypeRecord Type = "RECORD"
	TypeState  Type = "STATE"
)

// Message is implemented by *Schema, *Record and *State only.
type Message interface {
	Type() Type
	// Line returns the input line the message was decoded from.
	Line() []byte
	sealed()
}

// envelope holds the raw top-level fields shared by every message type.
type envelope struct {
	line   []byte
	fields map[string]json.RawMessage
}

func (e envelope) Line() []byte { return e.line }

func (envelope) sealed() {}

// encode re-serializes the message, replacing key with doc.
func (e envelope) encode(key string, doc any) ([]byte, error) {
	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, err
	}
	out := make(map[string]json.RawMessage, len(e.fields))
	for k, v := range e.fields {
		out[k] = v
	}
	out[key] = raw
	return json.Marshal(out)
}

// Schema declares or replaces the structure of a stream.
type Schema struct {
	envelope
	Stream string
	Schema map[string]any
	// KeyProperties is nil when the message has no key_properties field.
	KeyProperties      []string
	BookmarkProperties []string
}

// Type implements Message.
func (*Schema) Type() Type { return TypeSchema }

// Encode serializes the message with its current Schema document.
func (s *Schema) Encode() ([]byte, error) {
	return s.encode("schema", s.Schema)
}

// Record carries one data row for a stream.
type Record struct {
	envelope
	Stream        string
	Record        map[string]any
	// TimeExtracted and Version hold the raw optional fields, nil when absent
	// or null. They are only interpreted when metadata is added.
	TimeExtracted json.RawMessage
	Version       json.RawMessage
}

// Type implements Message.
func (*Record) Type() Type { return TypeRecord }

// Encode serializes the message with its current Record document.
func (r *Record) Encode() ([]byte, error) {
	return r.encode("record", r.Record)
}

// State carries an opaque checkpoint value.
type State struct {
	envelope
	// Value is the raw JSON value; it is nil or "null" when no checkpoint is set.
	Value json.RawMessage
}

// Type implements Message.
func (*State) Type() Type { return TypeState }

// IsNull reports whether the state carries no checkpoint.
func (s *State) IsNull() bool {
	return len(s.Value) == 0 || string(s.Value) == "null"
}
