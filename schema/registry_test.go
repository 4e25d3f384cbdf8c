package schema

import (
	"encoding/json"
	stderrors "errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xeipuuv/gojsonschema"

	"github.com/c360/target-singer-jsonl/errors"
	"github.com/c360/target-singer-jsonl/message"
)

func usersSchema() *message.Schema {
	return &message.Schema{
		Stream: "users",
		Schema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"id":   map[string]any{"type": "integer"},
				"name": map[string]any{"type": "string"},
			},
			"required": []any{"id"},
		},
		KeyProperties: []string{"id"},
	}
}

type markAugmenter struct{ calls int }

func (m *markAugmenter) AugmentSchema(doc map[string]any) {
	m.calls++
	props := doc["properties"].(map[string]any)
	props["_mark"] = map[string]any{"type": "boolean"}
}

func TestRegister(t *testing.T) {
	reg := NewRegistry()
	entry, err := reg.Register(usersSchema())
	require.NoError(t, err)

	assert.Equal(t, "users", entry.Stream)
	assert.Equal(t, []string{"id"}, entry.KeyProperties)

	got, ok := reg.Lookup("users")
	require.True(t, ok)
	assert.Same(t, entry, got)

	_, ok = reg.Lookup("orders")
	assert.False(t, ok)
}

func TestRegister_MissingKeyProperties(t *testing.T) {
	msg := usersSchema()
	msg.KeyProperties = nil

	_, err := NewRegistry().Register(msg)
	require.Error(t, err)
	assert.True(t, stderrors.Is(err, errors.ErrMissingField))

	var me *errors.MessageError
	require.True(t, stderrors.As(err, &me))
	assert.Equal(t, "key_properties", me.Field)
	assert.Equal(t, "users", me.Stream)
}

func TestRegister_EmptyKeyPropertiesAllowed(t *testing.T) {
	msg := usersSchema()
	msg.KeyProperties = []string{}

	_, err := NewRegistry().Register(msg)
	assert.NoError(t, err)
}

func TestRegister_InvalidSchema(t *testing.T) {
	msg := usersSchema()
	msg.Schema = map[string]any{"type": 42}

	_, err := NewRegistry().Register(msg)
	require.Error(t, err)
	assert.True(t, stderrors.Is(err, errors.ErrInvalidSchema))
	assert.True(t, errors.IsFatal(err))
}

func TestRegister_LastWriteWins(t *testing.T) {
	reg := NewRegistry()
	_, err := reg.Register(usersSchema())
	require.NoError(t, err)

	strict := usersSchema()
	strict.Schema["properties"].(map[string]any)["id"] = map[string]any{"type": "string"}
	_, err = reg.Register(strict)
	require.NoError(t, err)

	entry, _ := reg.Lookup("users")
	assert.Error(t, entry.Validate(map[string]any{"id": 1}))
	assert.NoError(t, entry.Validate(map[string]any{"id": "1"}))
}

func TestRegister_Augmenter(t *testing.T) {
	aug := &markAugmenter{}
	reg := NewRegistry(WithAugmenter(aug))

	msg := usersSchema()
	entry, err := reg.Register(msg)
	require.NoError(t, err)

	assert.Equal(t, 1, aug.calls)
	assert.Contains(t, msg.Schema["properties"], "_mark")
	assert.Error(t, entry.Validate(map[string]any{"id": 1, "_mark": "yes"}))
}

func TestValidate(t *testing.T) {
	entry, err := NewRegistry().Register(usersSchema())
	require.NoError(t, err)

	tests := []struct {
		name    string
		record  map[string]any
		wantErr bool
	}{
		{"valid", map[string]any{"id": 1, "name": "ada"}, false},
		{"extra fields allowed", map[string]any{"id": 1, "age": 30}, false},
		{"wrong type", map[string]any{"id": "one"}, true},
		{"missing required", map[string]any{"name": "ada"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := entry.Validate(tt.record)
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, stderrors.Is(err, errors.ErrSchemaValidation))

			var ve *ValidationError
			require.True(t, stderrors.As(err, &ve))
			assert.NotEmpty(t, ve.Violations)
			assert.Contains(t, err.Error(), `(stream "users")`)
		})
	}
}

func TestValidate_Draft4Integers(t *testing.T) {
	msg := &message.Schema{
		Stream: "orders",
		Schema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"id":       map[string]any{"type": "integer"},
				"version":  map[string]any{"type": []any{"null", "integer"}},
				"amount":   map[string]any{"type": []any{"integer", "number"}},
				"customer": map[string]any{"type": "object", "properties": map[string]any{"age": map[string]any{"type": "integer"}}},
				"lines":    map[string]any{"type": "array", "items": map[string]any{"type": "integer"}},
				"ranked":   map[string]any{"allOf": []any{map[string]any{"type": "integer"}}},
			},
			"additionalProperties": map[string]any{"type": "integer"},
		},
		KeyProperties: []string{"id"},
	}
	entry, err := NewRegistry().Register(msg)
	require.NoError(t, err)

	tests := []struct {
		name      string
		record    map[string]any
		wantField string
	}{
		{"integer literal", map[string]any{"id": json.Number("1")}, ""},
		{"union with number accepts fraction", map[string]any{"id": json.Number("1"), "amount": json.Number("2.0")}, ""},
		{"null in union", map[string]any{"id": json.Number("1"), "version": nil}, ""},
		{"decimal point", map[string]any{"id": json.Number("1.0")}, "id"},
		{"exponent", map[string]any{"id": json.Number("1e3")}, "id"},
		{"nullable integer", map[string]any{"id": json.Number("1"), "version": json.Number("3.0")}, "version"},
		{"nested property", map[string]any{"id": json.Number("1"), "customer": map[string]any{"age": json.Number("40.0")}}, "customer.age"},
		{"array item", map[string]any{"id": json.Number("1"), "lines": []any{json.Number("1"), json.Number("2.0")}}, "lines.1"},
		{"additional property", map[string]any{"id": json.Number("1"), "extra": json.Number("5.0")}, "extra"},
		{"allOf branch", map[string]any{"id": json.Number("1"), "ranked": json.Number("7.0")}, "ranked"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := entry.Validate(tt.record)
			if tt.wantField == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, stderrors.Is(err, errors.ErrSchemaValidation))

			var ve *ValidationError
			require.True(t, stderrors.As(err, &ve))
			assert.Contains(t, ve.Violations, tt.wantField+": Invalid type. Expected: integer, given: number")
		})
	}
}

func TestStreams_Sorted(t *testing.T) {
	reg := NewRegistry()
	for _, name := range []string{"orders", "users", "accounts"} {
		msg := usersSchema()
		msg.Stream = name
		_, err := reg.Register(msg)
		require.NoError(t, err)
	}
	assert.Equal(t, []string{"accounts", "orders", "users"}, reg.Streams())
}

func TestCompile_Draft4(t *testing.T) {
	// exclusiveMinimum is a boolean modifier in draft 4
	v, err := Compile(map[string]any{
		"type":             "integer",
		"minimum":          0,
		"exclusiveMinimum": true,
	})
	require.NoError(t, err)

	res, err := v.Validate(gojsonschemaGo(0))
	require.NoError(t, err)
	assert.False(t, res.Valid())

	res, err = v.Validate(gojsonschemaGo(1))
	require.NoError(t, err)
	assert.True(t, res.Valid())
}

func gojsonschemaGo(v any) gojsonschema.JSONLoader {
	return gojsonschema.NewGoLoader(v)
}
