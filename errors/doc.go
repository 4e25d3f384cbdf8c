// Package errors provides standardized error handling for the Singer JSONL target.
//
// # Overview
//
// Two layers share this package:
//
//   - Classification: ErrorClass (transient, invalid, fatal) and ClassifiedError,
//     produced by Wrap, WrapTransient, WrapInvalid and WrapFatal. Storage and
//     configuration code uses these.
//   - Protocol taxonomy: sentinel errors (ErrMalformedMessage, ErrMissingField,
//     ErrUnknownMessageType, ErrMissingSchema, ErrSchemaValidation,
//     ErrInvalidSchema, ErrUnsupportedDestination) reported through MessageError,
//     which carries the stream, field, offending value and input line.
//
// Every protocol error is fatal. The target never retries or suppresses them:
// the first one aborts the run before the flush stage, so no artifact is
// committed and no checkpoint is emitted.
//
// # Error Wrapping Pattern
//
// All infrastructure wrapping follows the format:
//
//	"component.method: action failed: <cause>"
//
// Protocol errors are matched with the standard library:
//
//	if errors.Is(err, errs.ErrMissingSchema) {
//	    var me *errs.MessageError
//	    errors.As(err, &me)
//	    slog.Error("record before schema", "stream", me.Stream, "line", me.LineNo)
//	}
package errors
