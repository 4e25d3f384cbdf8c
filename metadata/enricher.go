// Package metadata adds the _sdc_* ingestion columns to schemas and records.
package metadata

import (
	"bytes"
	"encoding/json"
	"time"

	"github.com/c360/target-singer-jsonl/message"
	"github.com/c360/target-singer-jsonl/pkg/timestamp"
)

// Column names injected by the Enricher.
const (
	ExtractedAt  = "_sdc_extracted_at"
	ReceivedAt   = "_sdc_received_at"
	BatchedAt    = "_sdc_batched_at"
	DeletedAt    = "_sdc_deleted_at"
	Sequence     = "_sdc_sequence"
	TableVersion = "_sdc_table_version"
)

// Columns lists every injected column in a stable order.
var Columns = []string{ExtractedAt, ReceivedAt, BatchedAt, DeletedAt, Sequence, TableVersion}

var dateTimeColumns = []string{ExtractedAt, ReceivedAt, BatchedAt, DeletedAt}

var integerColumns = []string{Sequence, TableVersion}

// Enricher augments schemas and records with ingestion metadata.
type Enricher struct {
	runStart time.Time
	clock    func() time.Time
}

// Option configures an Enricher.
type Option func(*Enricher)

// WithClock replaces the wall clock used for received/batched timestamps.
func WithClock(clock func() time.Time) Option {
	return func(e *Enricher) {
		e.clock = clock
	}
}

// NewEnricher creates an Enricher. runStart is used as _sdc_extracted_at for
// records without time_extracted.
func NewEnricher(runStart time.Time, opts ...Option) *Enricher {
	e := &Enricher{runStart: runStart, clock: time.Now}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// AugmentSchema adds the six property definitions to doc["properties"],
// creating the properties object when absent. Existing definitions with the
// same names are overwritten.
func (e *Enricher) AugmentSchema(doc map[string]any) {
	props, ok := doc["properties"].(map[string]any)
	if !ok {
		props = make(map[string]any, len(Columns))
		doc["properties"] = props
	}
	for _, name := range dateTimeColumns {
		props[name] = map[string]any{
			"type":   []any{"null", "string"},
			"format": "date-time",
		}
	}
	for _, name := range integerColumns {
		props[name] = map[string]any{
			"type": []any{"null", "integer"},
		}
	}
}

// AugmentRecord writes the metadata columns into rec.Record in place.
func (e *Enricher) AugmentRecord(rec *message.Record) {
	now := e.clock()
	if rec.Record == nil {
		rec.Record = make(map[string]any, len(Columns))
	}

	rec.Record[ExtractedAt] = timestamp.Format(e.extractedAt(rec.TimeExtracted))
	rec.Record[ReceivedAt] = timestamp.Format(now)
	rec.Record[BatchedAt] = timestamp.Format(now)
	if _, ok := rec.Record[DeletedAt]; !ok {
		rec.Record[DeletedAt] = nil
	}
	rec.Record[Sequence] = timestamp.ToUnixMs(now)
	rec.Record[TableVersion] = tableVersion(rec.Version)
}

// extractedAt reads time_extracted, falling back to the run start when it is
// absent or not a recognisable timestamp.
func (e *Enricher) extractedAt(raw json.RawMessage) time.Time {
	if len(raw) == 0 {
		return e.runStart
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return e.runStart
	}
	if t, ok := timestamp.ParseLenient(s); ok {
		return t
	}
	return e.runStart
}

// tableVersion copies version through. Integral numbers become int64; any
// other value is kept as sent and left to schema validation.
func tableVersion(raw json.RawMessage) any {
	if len(raw) == 0 {
		return nil
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil
	}
	if n, ok := v.(json.Number); ok {
		if i, err := n.Int64(); err == nil {
			return i
		}
	}
	return v
}
