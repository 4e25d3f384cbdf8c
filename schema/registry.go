// Package schema keeps the latest JSON Schema declared for each stream and
// validates records against it using Draft-4 semantics.
package schema

import (
	"fmt"
	"sort"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"github.com/c360/target-singer-jsonl/errors"
	"github.com/c360/target-singer-jsonl/message"
)

// Augmenter mutates a schema document before it is compiled.
type Augmenter interface {
	AugmentSchema(doc map[string]any)
}

// Entry is the registered state of one stream.
type Entry struct {
	Stream             string
	Schema             map[string]any
	KeyProperties      []string
	BookmarkProperties []string

	validator *gojsonschema.Schema
}

// ValidationError lists every violation found in one record.
type ValidationError struct {
	Violations []string
}

func (e *ValidationError) Error() string {
	return strings.Join(e.Violations, "; ")
}

const rootField = "(root)"

// Validate checks record against the entry's compiled schema.
func (e *Entry) Validate(record map[string]any) error {
	result, err := e.validator.Validate(gojsonschema.NewGoLoader(record))
	if err != nil {
		return errors.SchemaValidation(e.Stream, err)
	}

	violations := make([]string, 0, len(result.Errors()))
	for _, desc := range result.Errors() {
		violations = append(violations, fmt.Sprintf("%s: %s", desc.Field(), desc.Description()))
	}
	violations = append(violations, integerViolations(e.Schema, record, rootField)...)

	if len(violations) == 0 {
		return nil
	}
	sort.Strings(violations)
	return errors.SchemaValidation(e.Stream, &ValidationError{Violations: violations})
}

// Registry maps stream names to their latest Entry. It is owned by a single
// run and is not safe for concurrent mutation.
type Registry struct {
	entries   map[string]*Entry
	augmenter Augmenter
}

// Option configures a Registry.
type Option func(*Registry)

// WithAugmenter injects extra property definitions into every registered schema.
func WithAugmenter(a Augmenter) Option {
	return func(r *Registry) {
		r.augmenter = a
	}
}

// NewRegistry creates an empty registry.
func NewRegistry(opts ...Option) *Registry {
	r := &Registry{entries: make(map[string]*Entry)}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register compiles msg's schema and stores it as the stream's entry,
// replacing any previous one. msg.Schema is augmented in place.
func (r *Registry) Register(msg *message.Schema) (*Entry, error) {
	if msg.KeyProperties == nil {
		return nil, errors.MissingField("key_properties", msg.Stream)
	}

	if r.augmenter != nil {
		r.augmenter.AugmentSchema(msg.Schema)
	}

	validator, err := Compile(msg.Schema)
	if err != nil {
		return nil, errors.InvalidSchema(msg.Stream, err)
	}

	entry := &Entry{
		Stream:             msg.Stream,
		Schema:             msg.Schema,
		KeyProperties:      msg.KeyProperties,
		BookmarkProperties: msg.BookmarkProperties,
		validator:          validator,
	}
	r.entries[msg.Stream] = entry
	return entry, nil
}

// Lookup returns the entry registered for stream.
func (r *Registry) Lookup(stream string) (*Entry, bool) {
	e, ok := r.entries[stream]
	return e, ok
}

// Streams returns the registered stream names in sorted order.
func (r *Registry) Streams() []string {
	names := make([]string, 0, len(r.entries))
	for name := range r.entries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Compile builds a Draft-4 validator for doc.
func Compile(doc map[string]any) (*gojsonschema.Schema, error) {
	loader := gojsonschema.NewSchemaLoader()
	loader.Draft = gojsonschema.Draft4
	loader.AutoDetect = false
	return loader.Compile(gojsonschema.NewGoLoader(doc))
}
