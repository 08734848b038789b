package browser

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrNavigation is returned when a page cannot be loaded.
	ErrNavigation = errors.New("navigation failed")

	// ErrElementNotFound is returned when an action targets a selector that
	// matches nothing on the current page.
	ErrElementNotFound = errors.New("element not found")

	// ErrScript is returned when a script evaluation fails.
	ErrScript = errors.New("script evaluation failed")

	// ErrTimeout is returned when a browser action exceeds its deadline.
	ErrTimeout = errors.New("browser action timed out")

	// ErrClosed is returned by actions on a closed page.
	ErrClosed = errors.New("page closed")
)

// ActionError records which action failed and on what target.
type ActionError struct {
	// Action is the page method that failed, e.g. "navigate" or "click".
	Action string

	// Target is the URL or selector the action was applied to.
	Target string

	// Err is the underlying error. It wraps one of the sentinel errors.
	Err error
}

func (e *ActionError) Error() string {
	return fmt.Sprintf("browser %s %q: %v", e.Action, e.Target, e.Err)
}

func (e *ActionError) Unwrap() error {
	return e.Err
}

// NewActionError wraps err with the failing action and target.
// A context deadline is reported as ErrTimeout.
func NewActionError(action, target string, kind, err error) *ActionError {
	if errors.Is(err, context.DeadlineExceeded) {
		kind = ErrTimeout
	}
	if err == nil {
		return &ActionError{Action: action, Target: target, Err: kind}
	}
	return &ActionError{Action: action, Target: target, Err: fmt.Errorf("%w: %w", kind, err)}
}

// IsRetryable reports whether err might succeed if the unit of work is
// attempted again.
func IsRetryable(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return false
	}
	return errors.Is(err, ErrNavigation) || errors.Is(err, ErrTimeout)
}
