// api/schemas/errors.go
package schemas

import (
	"fmt"
	"time"
)

// NavigationTimeoutError reports a navigation that exceeded its bound. The
// message carries the literal millisecond bound that was exceeded.
type NavigationTimeoutError struct {
	URL     string
	Timeout time.Duration
}

func (e *NavigationTimeoutError) Error() string {
	return fmt.Sprintf("navigation to %s timed out after %d ms", e.URL, e.Timeout.Milliseconds())
}

// SelectorTimeoutError reports a selector wait (dialog, QR code, container or
// detachment variant, distinguished by Stage) that exceeded its bound.
type SelectorTimeoutError struct {
	Selector string
	Stage    string
	State    WaitState
	Timeout  time.Duration
}

func (e *SelectorTimeoutError) Error() string {
	state := e.State
	if state == "" {
		state = WaitVisible
	}
	return fmt.Sprintf("timed out after %d ms waiting for %s (%q to become %s)",
		e.Timeout.Milliseconds(), e.Stage, e.Selector, state)
}

// LoginVerificationError means the post-login identity probe came back
// negative. Distinct from a timeout: the wait completed, the check failed.
type LoginVerificationError struct{}

func (e *LoginVerificationError) Error() string {
	return "login verification failed: identity probe negative after QR confirmation"
}

// LoginFailedError is terminal: every login attempt was exhausted. It wraps
// the last attempt's cause and reports the configured attempt ceiling.
type LoginFailedError struct {
	Attempts int
	Err      error
}

func (e *LoginFailedError) Error() string {
	return fmt.Sprintf("login failed after %d attempts: %v", e.Attempts, e.Err)
}

func (e *LoginFailedError) Unwrap() error { return e.Err }

// NotAuthenticatedError means the session probe came back negative outside
// the login flow; the caller must establish a session first.
type NotAuthenticatedError struct{}

func (e *NotAuthenticatedError) Error() string {
	return "not authenticated: no valid session, run login first"
}

// PageNotInitializedError guards against workflow calls before a page or
// context exists. Seeing it indicates a caller bug, not a site failure.
type PageNotInitializedError struct{}

func (e *PageNotInitializedError) Error() string {
	return "page not initialized"
}
