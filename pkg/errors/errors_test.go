package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestNew(t *testing.T) {
	err := New(ErrCodeMissingInput, "missing jar: %s", "client")

	if err.Code != ErrCodeMissingInput {
		t.Errorf("Code = %v, want %v", err.Code, ErrCodeMissingInput)
	}

	if err.Message != "missing jar: client" {
		t.Errorf("Message = %v, want %v", err.Message, "missing jar: client")
	}

	expected := "MISSING_INPUT: missing jar: client"
	if err.Error() != expected {
		t.Errorf("Error() = %v, want %v", err.Error(), expected)
	}
}

func TestWrap(t *testing.T) {
	cause := errors.New("underlying error")
	err := Wrap(ErrCodeNetwork, cause, "failed to fetch")

	if err.Code != ErrCodeNetwork {
		t.Errorf("Code = %v, want %v", err.Code, ErrCodeNetwork)
	}

	if err.Cause != cause {
		t.Errorf("Cause = %v, want %v", err.Cause, cause)
	}

	unwrapped := errors.Unwrap(err)
	if unwrapped != cause {
		t.Errorf("Unwrap() = %v, want %v", unwrapped, cause)
	}

	if !errors.Is(err, cause) {
		t.Error("errors.Is(err, cause) = false, want true")
	}
}

func TestIs(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		code     Code
		expected bool
	}{
		{
			name:     "matching code",
			err:      New(ErrCodeCorruptArchive, "test"),
			code:     ErrCodeCorruptArchive,
			expected: true,
		},
		{
			name:     "non-matching code",
			err:      New(ErrCodeCorruptArchive, "test"),
			code:     ErrCodeNetwork,
			expected: false,
		},
		{
			name:     "outer code",
			err:      Wrap(ErrCodeIO, New(ErrCodeInvalidInput, "inner"), "outer"),
			code:     ErrCodeIO,
			expected: true,
		},
		{
			name:     "inner code",
			err:      Wrap(ErrCodeIO, New(ErrCodeCorruptArchive, "inner"), "outer"),
			code:     ErrCodeCorruptArchive,
			expected: true,
		},
		{
			name:     "behind fmt wrapping",
			err:      fmt.Errorf("merge: %w", New(ErrCodeCorruptArchive, "inner")),
			code:     ErrCodeCorruptArchive,
			expected: true,
		},
		{
			name:     "non-Error type",
			err:      errors.New("plain error"),
			code:     ErrCodeInvalidInput,
			expected: false,
		},
		{
			name:     "nil error",
			err:      nil,
			code:     ErrCodeInvalidInput,
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Is(tt.err, tt.code); got != tt.expected {
				t.Errorf("Is() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestGetCode(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected Code
	}{
		{
			name:     "Error type",
			err:      New(ErrCodeTransformFailed, "test"),
			expected: ErrCodeTransformFailed,
		},
		{
			name:     "outermost wins",
			err:      Wrap(ErrCodeTransformFailed, New(ErrCodeIO, "inner"), "outer"),
			expected: ErrCodeTransformFailed,
		},
		{
			name:     "plain error",
			err:      errors.New("plain"),
			expected: "",
		},
		{
			name:     "nil",
			err:      nil,
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := GetCode(tt.err); got != tt.expected {
				t.Errorf("GetCode() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestUserMessage(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected string
	}{
		{
			name:     "Error type",
			err:      New(ErrCodeConfiguration, "mappings file not found"),
			expected: "mappings file not found",
		},
		{
			name:     "with cause",
			err:      Wrap(ErrCodeTransformFailed, errors.New("bad class"), "failed to remap"),
			expected: "failed to remap: bad class",
		},
		{
			name:     "plain error",
			err:      errors.New("plain error"),
			expected: "plain error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := UserMessage(tt.err); got != tt.expected {
				t.Errorf("UserMessage() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestIsTransient(t *testing.T) {
	tests := []struct {
		err  error
		want bool
	}{
		{New(ErrCodeIO, "disk"), true},
		{New(ErrCodeNetwork, "timeout"), true},
		{New(ErrCodeChecksumMismatch, "sha1"), true},
		{New(ErrCodeCorruptArchive, "zip"), false},
		{errors.New("plain"), false},
	}

	for _, tt := range tests {
		if got := IsTransient(tt.err); got != tt.want {
			t.Errorf("IsTransient(%v) = %v, want %v", tt.err, got, tt.want)
		}
	}
}
