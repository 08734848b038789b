package browser

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
)

// TestIsRetryable tests error classification.
func TestIsRetryable(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "nil", err: nil, want: false},
		{name: "navigation", err: NewActionError("navigate", "u", ErrNavigation, errors.New("net")), want: true},
		{name: "deadline becomes timeout", err: NewActionError("click", "b", ErrElementNotFound, context.DeadlineExceeded), want: true},
		{name: "missing element", err: NewActionError("click", "b", ErrElementNotFound, nil), want: false},
		{name: "wrapped navigation", err: fmt.Errorf("visit: %w", NewActionError("navigate", "u", ErrNavigation, nil)), want: true},
		{name: "unrelated", err: errors.New("boom"), want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := IsRetryable(tt.err); got != tt.want {
				t.Errorf("IsRetryable(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

// TestActionError tests error formatting and unwrapping.
func TestActionError(t *testing.T) {
	t.Parallel()

	cause := errors.New("connection refused")
	err := NewActionError("navigate", "https://example.com/", ErrNavigation, cause)

	if !errors.Is(err, ErrNavigation) || !errors.Is(err, cause) {
		t.Error("expected error to wrap kind and cause")
	}
	if !strings.Contains(err.Error(), "navigate") || !strings.Contains(err.Error(), "https://example.com/") {
		t.Errorf("unexpected message %q", err.Error())
	}
}

// TestIsRetryableCancelled tests that cancellation is never retried.
func TestIsRetryableCancelled(t *testing.T) {
	t.Parallel()

	err := NewActionError("navigate", "u", ErrNavigation, context.Canceled)
	if IsRetryable(err) {
		t.Error("cancelled navigation must not be retryable")
	}
}
