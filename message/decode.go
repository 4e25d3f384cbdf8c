package message

import (
	"bytes"
	"encoding/json"
	stderrors "errors"
	"fmt"

	"github.com/c360/target-singer-jsonl/errors"
)

var errNotObject = stderrors.New("expected a JSON object")

// Decode parses a single protocol line.
func Decode(line []byte) (Message, error) {
	line = bytes.TrimSpace(line)

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(line, &fields); err != nil {
		return nil, errors.Malformed(string(line), err)
	}
	if fields == nil {
		return nil, errors.Malformed(string(line), errNotObject)
	}

	rawType, ok := fields["type"]
	if !ok {
		return nil, errors.MissingField("type", "")
	}
	var typ string
	if err := json.Unmarshal(rawType, &typ); err != nil {
		return nil, malformedField("type", err)
	}

	env := envelope{line: line, fields: fields}

	switch Type(typ) {
	case TypeSchema:
		return decodeSchema(env)
	case TypeRecord:
		return decodeRecord(env)
	case TypeState:
		return decodeState(env)
	default:
		return nil, errors.UnknownType(typ)
	}
}

func decodeSchema(env envelope) (*Schema, error) {
	stream, err := streamName(env.fields)
	if err != nil {
		return nil, err
	}

	doc, err := objectField(env.fields, "schema", stream)
	if err != nil {
		return nil, err
	}

	msg := &Schema{envelope: env, Stream: stream, Schema: doc}

	if raw, ok := env.fields["key_properties"]; ok {
		if msg.KeyProperties, err = stringList(raw, "key_properties"); err != nil {
			return nil, err
		}
	}
	if raw, ok := env.fields["bookmark_properties"]; ok {
		if msg.BookmarkProperties, err = stringList(raw, "bookmark_properties"); err != nil {
			return nil, err
		}
	}

	return msg, nil
}

func decodeRecord(env envelope) (*Record, error) {
	stream, err := streamName(env.fields)
	if err != nil {
		return nil, err
	}

	doc, err := objectField(env.fields, "record", stream)
	if err != nil {
		return nil, err
	}

	msg := &Record{envelope: env, Stream: stream, Record: doc}

	if raw, ok := env.fields["time_extracted"]; ok && !isNull(raw) {
		msg.TimeExtracted = raw
	}
	if raw, ok := env.fields["version"]; ok && !isNull(raw) {
		msg.Version = raw
	}

	return msg, nil
}

func decodeState(env envelope) (*State, error) {
	raw, ok := env.fields["value"]
	if !ok {
		return nil, errors.MissingField("value", "")
	}
	return &State{envelope: env, Value: raw}, nil
}

func streamName(fields map[string]json.RawMessage) (string, error) {
	raw, ok := fields["stream"]
	if !ok || isNull(raw) {
		return "", errors.MissingField("stream", "")
	}
	var stream string
	if err := json.Unmarshal(raw, &stream); err != nil {
		return "", malformedField("stream", err)
	}
	return stream, nil
}

// objectField decodes a required JSON object, keeping numbers as json.Number
// so integers survive re-serialization unchanged.
func objectField(fields map[string]json.RawMessage, key, stream string) (map[string]any, error) {
	raw, ok := fields[key]
	if !ok {
		return nil, errors.MissingField(key, stream)
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var doc map[string]any
	if err := dec.Decode(&doc); err != nil {
		me := malformedField(key, err)
		me.Stream = stream
		return nil, me
	}
	if doc == nil {
		me := malformedField(key, errNotObject)
		me.Stream = stream
		return nil, me
	}
	return doc, nil
}

func stringList(raw json.RawMessage, field string) ([]string, error) {
	var list []string
	if err := json.Unmarshal(raw, &list); err != nil {
		return nil, malformedField(field, err)
	}
	if list == nil {
		list = []string{}
	}
	return list, nil
}

func isNull(raw json.RawMessage) bool {
	return string(bytes.TrimSpace(raw)) == "null"
}

func malformedField(field string, err error) *errors.MessageError {
	return &errors.MessageError{
		Kind:  errors.ErrMalformedMessage,
		Field: field,
		Err:   fmt.Errorf("field %s: %w", field, err),
	}
}
