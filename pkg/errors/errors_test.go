package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestNew(t *testing.T) {
	err := New(ErrCodeNotFound, "resource not found")
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if err.Code != ErrCodeNotFound {
		t.Errorf("expected code %s, got %s", ErrCodeNotFound, err.Code)
	}
	if err.Message != "resource not found" {
		t.Errorf("expected message 'resource not found', got %s", err.Message)
	}
	if err.Cause != nil {
		t.Errorf("expected nil cause, got %v", err.Cause)
	}
}

func TestNewf(t *testing.T) {
	err := Newf(ErrCodeConfig, "unable to parse the range %q", "abc")
	if err.Message != `unable to parse the range "abc"` {
		t.Errorf("unexpected message %q", err.Message)
	}
}

func TestWrap(t *testing.T) {
	cause := errors.New("underlying error")
	err := Wrap(ErrCodeInternal, "operation failed", cause)

	if err.Code != ErrCodeInternal {
		t.Errorf("expected code %s, got %s", ErrCodeInternal, err.Code)
	}
	if !errors.Is(err, cause) {
		t.Errorf("expected cause to be wrapped")
	}
}

func TestWrapWithContext(t *testing.T) {
	cause := errors.New("no such file")
	ctx := map[string]any{
		"path": "/sys/devices/system/cpu/cpu0/cpufreq/scaling_driver",
	}

	err := WrapWithContext(ErrCodePrecondition, "cpufreq driver unavailable", cause, ctx)

	if err.Code != ErrCodePrecondition {
		t.Errorf("expected code %s, got %s", ErrCodePrecondition, err.Code)
	}
	if err.Context == nil {
		t.Fatal("expected context to be set")
	}
	if err.Context["path"] != "/sys/devices/system/cpu/cpu0/cpufreq/scaling_driver" {
		t.Errorf("expected path in context")
	}
}

func TestError(t *testing.T) {
	tests := []struct {
		name     string
		err      *StructuredError
		expected string
	}{
		{
			name:     "error without cause",
			err:      New(ErrCodeNotFound, "not found"),
			expected: "[NOT_FOUND] not found",
		},
		{
			name:     "error with cause",
			err:      Wrap(ErrCodeInternal, "failed", errors.New("root cause")),
			expected: "[INTERNAL] failed: root cause",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.err.Error()
			if got != tt.expected {
				t.Errorf("expected %q, got %q", tt.expected, got)
			}
		})
	}
}

func TestCodeOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorCode
	}{
		{"nil", nil, ""},
		{"plain error", errors.New("plain"), ""},
		{"direct", New(ErrCodeVerification, "mismatch"), ErrCodeVerification},
		{"wrapped by fmt", fmt.Errorf("run phase: %w", New(ErrCodeAggregateIO, "read failures")), ErrCodeAggregateIO},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CodeOf(tt.err); got != tt.want {
				t.Errorf("CodeOf() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestIsCode(t *testing.T) {
	err := fmt.Errorf("setup: %w", New(ErrCodePrecondition, "wrong governor"))
	if !IsCode(err, ErrCodePrecondition) {
		t.Error("expected PRECONDITION code")
	}
	if IsCode(err, ErrCodeConfig) {
		t.Error("unexpected CONFIG code")
	}
	if IsCode(nil, "") {
		t.Error("nil error should never match")
	}
}

func TestErrorCodes(t *testing.T) {
	codes := []ErrorCode{
		ErrCodeConfig,
		ErrCodePrecondition,
		ErrCodeVerification,
		ErrCodeAggregateIO,
		ErrCodeNotFound,
		ErrCodeInternal,
	}

	for _, code := range codes {
		if string(code) == "" {
			t.Errorf("error code should not be empty: %v", code)
		}
	}
}
