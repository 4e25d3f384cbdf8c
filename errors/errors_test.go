package errors

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestErrorClass_String(t *testing.T) {
	tests := []struct {
		class    ErrorClass
		expected string
	}{
		{ErrorTransient, "transient"},
		{ErrorInvalid, "invalid"},
		{ErrorFatal, "fatal"},
		{ErrorClass(999), "unknown"},
	}

	for _, test := range tests {
		t.Run(test.expected, func(t *testing.T) {
			result := test.class.String()
			if result != test.expected {
				t.Errorf("expected %s, got %s", test.expected, result)
			}
		})
	}
}

func TestIsFatal(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{"nil error", nil, false},
		{"malformed", Malformed("{", fmt.Errorf("eof")), true},
		{"missing field", MissingField("type", ""), true},
		{"unknown type", UnknownType("ACTIVATE_VERSION"), true},
		{"missing schema", MissingSchema("orders"), true},
		{"validation", SchemaValidation("users", fmt.Errorf("id: wrong type")), true},
		{"invalid schema", InvalidSchema("users", fmt.Errorf("bad")), true},
		{"unsupported destination", UnsupportedDestination("ftp"), true},
		{"invalid stream name", InvalidStreamName("../x", fmt.Errorf("separator")), true},
		{"wrapped protocol", fmt.Errorf("line 3: %w", MissingSchema("a")), true},
		{"invalid config", ErrInvalidConfig, true},
		{"connection timeout", ErrConnectionTimeout, false},
		{"classified fatal", &ClassifiedError{Class: ErrorFatal, Err: fmt.Errorf("test")}, true},
		{"classified transient", &ClassifiedError{Class: ErrorTransient, Err: fmt.Errorf("test")}, false},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if got := IsFatal(test.err); got != test.expected {
				t.Errorf("expected %v, got %v for error: %v", test.expected, got, test.err)
			}
		})
	}
}

func TestIsTransient(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{"nil error", nil, false},
		{"storage unavailable", ErrStorageUnavailable, true},
		{"deadline", context.DeadlineExceeded, true},
		{"protocol error", MissingSchema("x"), false},
		{"classified transient", WrapTransient(fmt.Errorf("reset"), "Writer", "Close", "upload"), true},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if got := IsTransient(test.err); got != test.expected {
				t.Errorf("expected %v, got %v for error: %v", test.expected, got, test.err)
			}
		})
	}
}

func TestClassify(t *testing.T) {
	if got := Classify(UnknownType("X")); got != ErrorFatal {
		t.Errorf("expected fatal, got %s", got)
	}
	if got := Classify(WrapInvalid(ErrInvalidConfig, "Config", "Validate", "check")); got != ErrorInvalid {
		t.Errorf("expected invalid, got %s", got)
	}
	if got := Classify(fmt.Errorf("disk hiccup")); got != ErrorTransient {
		t.Errorf("expected transient, got %s", got)
	}
}

func TestMessageError_Is(t *testing.T) {
	cause := fmt.Errorf("expected integer, given string")
	err := SchemaValidation("users", cause)

	if !errors.Is(err, ErrSchemaValidation) {
		t.Error("expected errors.Is to match the kind sentinel")
	}
	if !errors.Is(err, cause) {
		t.Error("expected errors.Is to match the cause")
	}
	if errors.Is(err, ErrMissingSchema) {
		t.Error("unexpected match against a different kind")
	}

	var me *MessageError
	if !errors.As(fmt.Errorf("wrapped: %w", err), &me) {
		t.Fatal("expected errors.As to find MessageError")
	}
	if me.Stream != "users" {
		t.Errorf("expected stream users, got %q", me.Stream)
	}
}

func TestMessageError_Message(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		contains []string
	}{
		{"missing field", MissingField("stream", ""), []string{"missing required field", `"stream"`}},
		{"unknown type", UnknownType("ACTIVATE_VERSION"), []string{"unknown message type", `"ACTIVATE_VERSION"`}},
		{"missing schema", MissingSchema("orders"), []string{"before schema", `(stream "orders")`}},
		{"destination", UnsupportedDestination("ftp"), []string{"not supported", `"ftp"`}},
		{"stream name", InvalidStreamName("a/b", fmt.Errorf("separator")), []string{"artifact path", `(stream "a/b")`}},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			msg := test.err.Error()
			for _, want := range test.contains {
				if !strings.Contains(msg, want) {
					t.Errorf("expected %q in %q", want, msg)
				}
			}
		})
	}
}

func TestWithLine(t *testing.T) {
	err := WithLine(MissingSchema("orders"), 7, `{"type":"RECORD"}`)

	var me *MessageError
	if !errors.As(err, &me) {
		t.Fatal("expected MessageError")
	}
	if me.LineNo != 7 || me.Line != `{"type":"RECORD"}` {
		t.Errorf("unexpected position: %d %q", me.LineNo, me.Line)
	}
	if !strings.Contains(err.Error(), "at line 7") {
		t.Errorf("expected line number in message: %s", err)
	}

	// Existing positions are kept and non-protocol errors pass through.
	err = WithLine(err, 9, "other")
	if me.LineNo != 7 {
		t.Errorf("line number overwritten: %d", me.LineNo)
	}
	plain := fmt.Errorf("plain")
	if WithLine(plain, 1, "x") != plain {
		t.Error("expected plain error unchanged")
	}
}

func TestWrap(t *testing.T) {
	if Wrap(nil, "C", "M", "a") != nil {
		t.Error("expected nil for nil error")
	}

	base := fmt.Errorf("permission denied")
	err := Wrap(base, "LocalOpener", "Open", "create temp file")
	expected := "LocalOpener.Open: create temp file failed: permission denied"
	if err.Error() != expected {
		t.Errorf("expected %q, got %q", expected, err.Error())
	}
	if !errors.Is(err, base) {
		t.Error("expected wrapped error to unwrap to base")
	}
}

func TestWrapClassified(t *testing.T) {
	base := fmt.Errorf("boom")

	fatal := WrapFatal(base, "Flush", "Run", "commit")
	var ce *ClassifiedError
	if !errors.As(fatal, &ce) {
		t.Fatal("expected ClassifiedError")
	}
	if ce.Class != ErrorFatal || ce.Component != "Flush" || ce.Operation != "Run" {
		t.Errorf("unexpected classification: %+v", ce)
	}
	if !errors.Is(fatal, base) {
		t.Error("expected classified error to unwrap to base")
	}

	if WrapFatal(nil, "a", "b", "c") != nil || WrapInvalid(nil, "a", "b", "c") != nil ||
		WrapTransient(nil, "a", "b", "c") != nil {
		t.Error("expected nil for nil error")
	}
}
