// api/schemas/interfaces.go
package schemas

import (
	"context"
	"time"
)

// WaitState selects what a selector wait is waiting for.
type WaitState string

const (
	// WaitVisible waits until at least one matching element is visible.
	WaitVisible WaitState = "visible"
	// WaitDetached waits until no matching element remains in the document.
	WaitDetached WaitState = "detached"
)

// WaitOptions bounds a single selector wait. Stage is a short human-readable
// label ("login dialog", "qr code", ...) carried into timeout errors so the
// caller can tell the wait variants apart.
type WaitOptions struct {
	Timeout time.Duration
	State   WaitState
	Stage   string
}

// Page is one browser tab. All operations accept an explicit context and,
// where they block on the network or the DOM, an explicit timeout; there is
// no global default hiding inside the implementation.
type Page interface {
	// Goto navigates and waits for the document to be ready, bounded by
	// timeout. Exceeding the bound yields a *NavigationTimeoutError.
	Goto(ctx context.Context, url string, timeout time.Duration) error
	// WaitForSelector blocks until the selector reaches opts.State.
	// Exceeding opts.Timeout yields a *SelectorTimeoutError.
	WaitForSelector(ctx context.Context, selector string, opts WaitOptions) error
	// Evaluate runs a JavaScript expression in page context and unmarshals
	// the result into out (which may be nil to discard it).
	Evaluate(ctx context.Context, expr string, out any) error
	// Click dispatches a click on the first element matching selector.
	Click(ctx context.Context, selector string) error
	// OuterHTML returns the serialized subtree of the first match.
	OuterHTML(ctx context.Context, selector string) (string, error)
	// Location returns the page's current URL.
	Location(ctx context.Context) (string, error)
	Close(ctx context.Context) error
}

// BrowserContext is one browsing context: an isolated tab group sharing a
// cookie set. Contexts are cheap; the browser process behind them is not.
type BrowserContext interface {
	NewPage(ctx context.Context) (Page, error)
	// Cookies reads the full cookie set currently held by the context,
	// including HttpOnly cookies.
	Cookies(ctx context.Context) ([]Cookie, error)
	Close(ctx context.Context) error
}

// BrowserControl is the headless-browser collaborator. One implementation
// drives a real browser process; tests substitute doubles.
type BrowserControl interface {
	// NewContext creates a browsing context, optionally pre-seeded with
	// cookies. The caller owns the returned context and must Close it.
	NewContext(ctx context.Context, cookies []Cookie) (BrowserContext, error)
	// Close terminates the shared browser process.
	Close(ctx context.Context) error
}

// CredentialStore persists the session cookie set across process restarts.
// Save overwrites prior content atomically: a concurrent Load observes either
// the old set or the new one, never a partial write.
type CredentialStore interface {
	Load() ([]Cookie, error)
	Save(cookies []Cookie) error
}

// Pacer injects human-like delays between machine-speed DOM interactions.
// The production implementation draws uniformly from [minSeconds,maxSeconds];
// tests substitute a zero-delay implementation.
type Pacer interface {
	Wait(ctx context.Context, minSeconds, maxSeconds float64) error
}
