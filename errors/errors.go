// Package errors provides error classification and the protocol error taxonomy
// for the Singer JSONL target. Every protocol error is fatal: the run aborts
// before any artifact is committed.
package errors

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrorClass represents the classification of errors for handling purposes
type ErrorClass int

const (
	// ErrorTransient represents temporary errors, typically storage I/O
	ErrorTransient ErrorClass = iota
	// ErrorInvalid represents errors due to invalid input or configuration
	ErrorInvalid
	// ErrorFatal represents unrecoverable errors that must stop the run
	ErrorFatal
)

// String returns the string representation of ErrorClass
func (ec ErrorClass) String() string {
	switch ec {
	case ErrorTransient:
		return "transient"
	case ErrorInvalid:
		return "invalid"
	case ErrorFatal:
		return "fatal"
	default:
		return "unknown"
	}
}

// Protocol errors. Each one aborts the run.
var (
	ErrMalformedMessage       = errors.New("malformed message")
	ErrMissingField           = errors.New("missing required field")
	ErrUnknownMessageType     = errors.New("unknown message type")
	ErrMissingSchema          = errors.New("record encountered before schema")
	ErrSchemaValidation       = errors.New("record failed schema validation")
	ErrInvalidSchema          = errors.New("schema cannot be compiled")
	ErrUnsupportedDestination = errors.New("destination not supported")
	ErrInvalidStreamName      = errors.New("stream name cannot be used in an artifact path")
)

// Infrastructure errors
var (
	ErrInvalidConfig      = errors.New("invalid configuration")
	ErrMissingConfig      = errors.New("missing required configuration")
	ErrStorageUnavailable = errors.New("storage unavailable")
	ErrConnectionTimeout  = errors.New("connection timeout")
	ErrNoConnection       = errors.New("no connection available")
	ErrBucketNotFound     = errors.New("bucket not found")
	ErrWriterClosed       = errors.New("writer already closed")
)

var protocolErrors = []error{
	ErrMalformedMessage,
	ErrMissingField,
	ErrUnknownMessageType,
	ErrMissingSchema,
	ErrSchemaValidation,
	ErrInvalidSchema,
	ErrUnsupportedDestination,
	ErrInvalidStreamName,
}

// ClassifiedError wraps an error with its classification
type ClassifiedError struct {
	Class     ErrorClass
	Err       error
	Message   string
	Component string
	Operation string
}

// Error implements the error interface
func (ce *ClassifiedError) Error() string {
	if ce.Message != "" {
		return ce.Message
	}
	return ce.Err.Error()
}

// Unwrap returns the underlying error
func (ce *ClassifiedError) Unwrap() error {
	return ce.Err
}

// MessageError reports a protocol violation with enough context to diagnose
// the input without re-running it. Kind is one of the protocol sentinels.
type MessageError struct {
	Kind   error
	Stream string
	Field  string
	Value  string
	LineNo int
	Line   string
	Err    error
}

// Error implements the error interface
func (me *MessageError) Error() string {
	var b strings.Builder
	b.WriteString(me.Kind.Error())
	if me.Field != "" {
		fmt.Fprintf(&b, " %q", me.Field)
	}
	if me.Value != "" {
		fmt.Fprintf(&b, " %q", me.Value)
	}
	if me.Stream != "" {
		fmt.Fprintf(&b, " (stream %q)", me.Stream)
	}
	if me.LineNo > 0 {
		fmt.Fprintf(&b, " at line %d", me.LineNo)
	}
	if me.Err != nil {
		b.WriteString(": ")
		b.WriteString(me.Err.Error())
	}
	return b.String()
}

// Unwrap exposes both the kind sentinel and the underlying cause to errors.Is/As.
func (me *MessageError) Unwrap() []error {
	if me.Err == nil {
		return []error{me.Kind}
	}
	return []error{me.Kind, me.Err}
}

// Malformed reports a line that is not a usable JSON message.
func Malformed(line string, err error) *MessageError {
	return &MessageError{Kind: ErrMalformedMessage, Line: line, Err: err}
}

// MissingField reports a required field absent from a message.
func MissingField(field, stream string) *MessageError {
	return &MessageError{Kind: ErrMissingField, Field: field, Stream: stream}
}

// UnknownType reports a message type outside SCHEMA, RECORD and STATE.
func UnknownType(value string) *MessageError {
	return &MessageError{Kind: ErrUnknownMessageType, Value: value}
}

// MissingSchema reports a record for a stream with no registered schema.
func MissingSchema(stream string) *MessageError {
	return &MessageError{Kind: ErrMissingSchema, Stream: stream}
}

// SchemaValidation reports a record that does not conform to its schema.
func SchemaValidation(stream string, detail error) *MessageError {
	return &MessageError{Kind: ErrSchemaValidation, Stream: stream, Err: detail}
}

// InvalidSchema reports a schema document the validator cannot compile.
func InvalidSchema(stream string, detail error) *MessageError {
	return &MessageError{Kind: ErrInvalidSchema, Stream: stream, Err: detail}
}

// UnsupportedDestination reports a destination with no writer implementation.
func UnsupportedDestination(value string) *MessageError {
	return &MessageError{Kind: ErrUnsupportedDestination, Value: value}
}

// InvalidStreamName reports a stream whose name would leave its artifact directory.
func InvalidStreamName(stream string, detail error) *MessageError {
	return &MessageError{Kind: ErrInvalidStreamName, Stream: stream, Err: detail}
}

// WithLine annotates err with the input position when it is a MessageError
// that does not carry one yet. Other errors are returned unchanged.
func WithLine(err error, lineNo int, line string) error {
	var me *MessageError
	if !errors.As(err, &me) {
		return err
	}
	if me.LineNo == 0 {
		me.LineNo = lineNo
	}
	if me.Line == "" {
		me.Line = line
	}
	return err
}

// IsProtocol reports whether err is one of the protocol taxonomy errors.
func IsProtocol(err error) bool {
	if err == nil {
		return false
	}
	for _, target := range protocolErrors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// IsTransient checks if an error is transient
func IsTransient(err error) bool {
	if err == nil {
		return false
	}

	var ce *ClassifiedError
	if errors.As(err, &ce) {
		return ce.Class == ErrorTransient
	}

	if IsProtocol(err) {
		return false
	}

	return errors.Is(err, ErrConnectionTimeout) ||
		errors.Is(err, ErrStorageUnavailable) ||
		errors.Is(err, ErrNoConnection) ||
		errors.Is(err, context.DeadlineExceeded)
}

// IsFatal checks if an error is fatal and should stop processing
func IsFatal(err error) bool {
	if err == nil {
		return false
	}

	var ce *ClassifiedError
	if errors.As(err, &ce) {
		return ce.Class == ErrorFatal
	}

	return IsProtocol(err) ||
		errors.Is(err, ErrInvalidConfig) ||
		errors.Is(err, ErrMissingConfig)
}

// IsInvalid checks if an error is due to invalid input
func IsInvalid(err error) bool {
	if err == nil {
		return false
	}

	var ce *ClassifiedError
	if errors.As(err, &ce) {
		return ce.Class == ErrorInvalid
	}

	return false
}

// Classify returns the error class for an error
func Classify(err error) ErrorClass {
	if err == nil {
		return ErrorTransient
	}

	if IsFatal(err) {
		return ErrorFatal
	}
	if IsInvalid(err) {
		return ErrorInvalid
	}
	return ErrorTransient
}

func newClassified(class ErrorClass, err error, component, operation, message string) *ClassifiedError {
	return &ClassifiedError{
		Class:     class,
		Err:       err,
		Message:   message,
		Component: component,
		Operation: operation,
	}
}

// Wrap creates a standardized error with context following the pattern:
// "component.method: action failed: %w"
func Wrap(err error, component, method, action string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s.%s: %s failed: %w", component, method, action, err)
}

// WrapTransient wraps an error as transient with context
func WrapTransient(err error, component, method, action string) error {
	if err == nil {
		return nil
	}
	wrappedErr := Wrap(err, component, method, action)
	return newClassified(ErrorTransient, wrappedErr, component, method, wrappedErr.Error())
}

// WrapFatal wraps an error as fatal with context
func WrapFatal(err error, component, method, action string) error {
	if err == nil {
		return nil
	}
	wrappedErr := Wrap(err, component, method, action)
	return newClassified(ErrorFatal, wrappedErr, component, method, wrappedErr.Error())
}

// WrapInvalid wraps an error as invalid with context
func WrapInvalid(err error, component, method, action string) error {
	if err == nil {
		return nil
	}
	wrappedErr := Wrap(err, component, method, action)
	return newClassified(ErrorInvalid, wrappedErr, component, method, wrappedErr.Error())
}
