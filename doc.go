// Package targetjsonl is a Singer target that persists tap output as
// JSON-lines artifacts.
//
// # Pipeline
//
// A run reads newline-delimited Singer messages and handles each in order:
//
//   - SCHEMA registers or replaces the Draft-4 schema for a stream
//   - RECORD is validated against its stream schema and buffered
//   - STATE is remembered as the candidate checkpoint
//
// When input ends, every stream buffer is flushed to one artifact through a
// storage.Opener (local disk, S3 or a NATS JetStream object store). Only
// after all artifacts are committed is the last checkpoint written to stdout
// as a single compact JSON line. A protocol error anywhere aborts the run
// before anything is committed.
//
// # Packages
//
//   - message: decoding of the three message types
//   - schema: stream schema registry and record validation
//   - metadata: optional _sdc_* column enrichment
//   - target: processor, run state, routing and flush
//   - storage: artifact naming, encoding and the writer backends
//   - config: layered JSON/YAML configuration with environment overrides
//   - metric: Prometheus run metrics and textfile export
//   - natsclient: NATS connection management for the object store backend
//   - errors: protocol error taxonomy and error classification
//
// The command lives in cmd/target-singer-jsonl.
package targetjsonl
