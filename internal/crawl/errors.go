package crawl

import (
	"errors"
	"fmt"

	"github.com/nao1215/netspider/internal/browser"
)

// ErrorKind classifies crawl failures.
type ErrorKind int

const (
	// KindStorage is a failure to load or checkpoint state.
	KindStorage ErrorKind = iota
	// KindSignIn is a failure to authenticate.
	KindSignIn
	// KindPage is a failure of a browser action such as a navigation.
	KindPage
	// KindExtract is a failure to interpret a page.
	KindExtract
)

// String returns the kind name used in logs and metrics.
func (k ErrorKind) String() string {
	switch k {
	case KindStorage:
		return "storage"
	case KindSignIn:
		return "signin"
	case KindPage:
		return "page"
	case KindExtract:
		return "extract"
	default:
		return "unknown"
	}
}

// Error is a classified crawl failure.
type Error struct {
	// Kind classifies the failure.
	Kind ErrorKind

	// State is the state the crawler was in.
	State State

	// Target is the identifier being processed, if any.
	Target string

	// Err is the underlying error.
	Err error
}

func (e *Error) Error() string {
	if e.Target != "" {
		return fmt.Sprintf("%s failure in %s (target %q): %v", e.Kind, e.State, e.Target, e.Err)
	}
	return fmt.Sprintf("%s failure in %s: %v", e.Kind, e.State, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Retryable reports whether the unit of work may succeed when attempted
// again. Only transient browser failures qualify.
func (e *Error) Retryable() bool {
	return e.Kind == KindPage && browser.IsRetryable(e.Err)
}

// IsRetryable reports whether err is a retryable crawl error.
func IsRetryable(err error) bool {
	var ce *Error
	return errors.As(err, &ce) && ce.Retryable()
}

// KindOf returns the kind of a crawl error and false for other errors.
func KindOf(err error) (ErrorKind, bool) {
	var ce *Error
	if errors.As(err, &ce) {
		return ce.Kind, true
	}
	return 0, false
}

// classify picks the kind of a failure raised while working on a page.
// Browser action failures are page failures; anything else means the page
// could not be interpreted.
func classify(err error) ErrorKind {
	switch {
	case errors.Is(err, browser.ErrNavigation),
		errors.Is(err, browser.ErrTimeout),
		errors.Is(err, browser.ErrElementNotFound),
		errors.Is(err, browser.ErrScript),
		errors.Is(err, browser.ErrClosed):
		return KindPage
	default:
		return KindExtract
	}
}
