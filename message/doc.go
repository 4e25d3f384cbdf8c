// Package message decodes Singer protocol lines into a closed set of message
// types: SCHEMA, RECORD and STATE.
//
// Decode parses exactly one line. The result is one of *Schema, *Record or
// *State; callers switch on the concrete type and treat anything else as a
// programming error. Protocol violations are returned as
// *errors.MessageError values whose Kind is one of the protocol sentinels,
// so callers can use errors.Is to distinguish them.
//
// Messages keep every top-level field of the original line. Encode re-emits
// the message with any in-place changes to the schema or record document,
// which is how enriched records and augmented schemas are persisted without
// dropping fields such as bookmark_properties or time_extracted.
package message
