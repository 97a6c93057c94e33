// File: internal/session/manager.go
package session

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/veiloak/rednote-cli/api/schemas"
	"github.com/veiloak/rednote-cli/internal/config"
)

// probePollInterval is how often the identity probe is re-evaluated while
// waiting for the human to scan the QR code.
const probePollInterval = time.Second

// Manager owns the login state machine and the one authenticated browsing
// context. All mutation of session state happens here; everything else reads.
//
// The state machine per attempt: CookieReplay -> Probe -> {Authenticated |
// LoginRequired -> DialogWait -> QrWait -> HumanWait -> Verify ->
// Authenticated}. A failed attempt closes its page and context (never the
// browser process), backs off a constant delay, and retries up to the
// configured ceiling before surfacing a terminal LoginFailedError.
type Manager struct {
	logger  *zap.Logger
	cfg     *config.Config
	browser schemas.BrowserControl
	store   schemas.CredentialStore
	budget  Budget

	// group collapses concurrent EnsureAuthenticated calls onto one login
	// flow so the single-authenticated-context invariant holds.
	group singleflight.Group

	mu      sync.Mutex
	authCtx schemas.BrowserContext
	state   *schemas.SessionState
}

// NewManager wires the session manager to its collaborators.
func NewManager(browser schemas.BrowserControl, store schemas.CredentialStore, cfg *config.Config, logger *zap.Logger) *Manager {
	return &Manager{
		logger:  logger.Named("session"),
		cfg:     cfg,
		browser: browser,
		store:   store,
	}
}

// EnsureAuthenticated establishes (or re-validates) the authenticated
// session within the overall timeout. It always walks the replay+probe path,
// so a subsequent call with valid cookies is a cheap re-validation that never
// touches the login dialog.
func (m *Manager) EnsureAuthenticated(ctx context.Context, total time.Duration) (*schemas.SessionState, error) {
	v, err, _ := m.group.Do("ensure", func() (interface{}, error) {
		return m.ensure(ctx, total)
	})
	if err != nil {
		return nil, err
	}
	return v.(*schemas.SessionState), nil
}

func (m *Manager) ensure(ctx context.Context, total time.Duration) (*schemas.SessionState, error) {
	maxAttempts := m.cfg.Session.MaxLoginAttempts

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		state, err := m.attempt(ctx, total)
		if err == nil {
			return state, nil
		}
		lastErr = err
		m.logger.Warn("Login attempt failed.",
			zap.Int("attempt", attempt),
			zap.Int("max_attempts", maxAttempts),
			zap.Error(err))

		if attempt < maxAttempts {
			// Constant inter-attempt backoff, deliberately not exponential:
			// the dominant failure mode is a human not scanning in time.
			select {
			case <-time.After(m.cfg.Session.RetryBackoff):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
	}

	return nil, &schemas.LoginFailedError{Attempts: maxAttempts, Err: lastErr}
}

// attempt runs one pass of the state machine: cookie replay when persisted
// cookies exist, falling back to the QR-driven manual login.
func (m *Manager) attempt(ctx context.Context, total time.Duration) (*schemas.SessionState, error) {
	cookies, err := m.store.Load()
	if err != nil {
		// A corrupt or unreadable cookie file downgrades to a fresh login.
		m.logger.Warn("Failed to load persisted cookies.", zap.Error(err))
		cookies = nil
	}
	cookies = filterDomain(cookies, m.cfg.Session.CookieDomain)

	if len(cookies) > 0 {
		state, authed, err := m.replay(ctx, cookies, total)
		if err != nil {
			return nil, err
		}
		if authed {
			return state, nil
		}
		m.logger.Info("Persisted session rejected by identity probe; manual login required.")
	}

	return m.qrLogin(ctx, total)
}

// replay seeds a fresh context with the persisted cookies and probes it.
// authed=false with a nil error means the probe ran and came back negative.
func (m *Manager) replay(ctx context.Context, cookies []schemas.Cookie, total time.Duration) (state *schemas.SessionState, authed bool, err error) {
	bc, err := m.browser.NewContext(ctx, cookies)
	if err != nil {
		return nil, false, fmt.Errorf("failed to create replay context: %w", err)
	}

	pg, err := bc.NewPage(ctx)
	if err != nil {
		ReleaseContext(m.logger, bc)
		return nil, false, err
	}

	adopted := false
	defer func() {
		ReleasePage(m.logger, pg)
		if !adopted {
			ReleaseContext(m.logger, bc)
		}
	}()

	if err := pg.Goto(ctx, m.cfg.Session.BaseURL, m.budget.Stage(total)); err != nil {
		return nil, false, err
	}

	ok, err := m.evalProbe(ctx, pg)
	if err != nil {
		return nil, false, err
	}
	if !ok {
		return nil, false, nil
	}

	st, err := m.persistAndAdopt(ctx, bc)
	if err != nil {
		return nil, false, err
	}
	adopted = true
	return st, true, nil
}

// qrLogin opens a clean context and walks the manual login: wait for the
// login dialog, wait for the QR image (both bounded sub-waits), then hand
// the full remaining budget to the human-paced confirmation wait.
func (m *Manager) qrLogin(ctx context.Context, total time.Duration) (*schemas.SessionState, error) {
	bc, err := m.browser.NewContext(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create login context: %w", err)
	}

	pg, err := bc.NewPage(ctx)
	if err != nil {
		ReleaseContext(m.logger, bc)
		return nil, err
	}

	adopted := false
	defer func() {
		ReleasePage(m.logger, pg)
		if !adopted {
			ReleaseContext(m.logger, bc)
		}
	}()

	if err := pg.Goto(ctx, m.cfg.Session.BaseURL, m.budget.Stage(total)); err != nil {
		return nil, err
	}

	if err := pg.WaitForSelector(ctx, m.cfg.Session.LoginDialogSelector, schemas.WaitOptions{
		Timeout: m.budget.Stage(total),
		Stage:   "login dialog",
	}); err != nil {
		return nil, err
	}

	if err := pg.WaitForSelector(ctx, m.cfg.Session.QrImageSelector, schemas.WaitOptions{
		Timeout: m.budget.Stage(total),
		Stage:   "qr code",
	}); err != nil {
		return nil, err
	}

	m.logger.Info("Login required. Scan the QR code with the mobile app to continue.",
		zap.Duration("wait_budget", m.budget.Human(total)))

	if err := m.waitForIdentity(ctx, pg, m.budget.Human(total)); err != nil {
		return nil, err
	}

	// Verification is a distinct step: the wait can race a page rerender,
	// so the probe is evaluated once more before the session is trusted.
	ok, err := m.evalProbe(ctx, pg)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, &schemas.LoginVerificationError{}
	}

	st, err := m.persistAndAdopt(ctx, bc)
	if err != nil {
		return nil, err
	}
	adopted = true
	return st, nil
}

// waitForIdentity polls the identity probe until it flips true. This is the
// human-paced stage: it gets the entire caller budget, not a subdivision.
func (m *Manager) waitForIdentity(ctx context.Context, pg schemas.Page, total time.Duration) error {
	deadline := time.NewTimer(total)
	defer deadline.Stop()
	ticker := time.NewTicker(probePollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-deadline.C:
			return &schemas.SelectorTimeoutError{
				Selector: m.cfg.Session.IdentitySelector,
				Stage:    "login confirmation",
				Timeout:  total,
			}
		case <-ticker.C:
			ok, err := m.evalProbe(ctx, pg)
			if err != nil {
				// The page reloads as the login lands; transient evaluate
				// failures are expected mid-transition.
				m.logger.Debug("Identity probe evaluation failed; retrying.", zap.Error(err))
				continue
			}
			if ok {
				return nil
			}
		}
	}
}

// evalProbe checks whether the sidebar identity element's trimmed text
// equals the configured self-identity marker.
func (m *Manager) evalProbe(ctx context.Context, pg schemas.Page) (bool, error) {
	expr := fmt.Sprintf(
		`(() => { const el = document.querySelector(%q); return el && el.textContent ? el.textContent.trim() : ""; })()`,
		m.cfg.Session.IdentitySelector)

	var text string
	if err := pg.Evaluate(ctx, expr, &text); err != nil {
		return false, err
	}
	return text == m.cfg.Session.IdentityMarker, nil
}

// persistAndAdopt reads the live cookie set back from the context, persists
// it (idempotent refresh), and installs the context as the authenticated one.
func (m *Manager) persistAndAdopt(ctx context.Context, bc schemas.BrowserContext) (*schemas.SessionState, error) {
	fresh, err := bc.Cookies(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read session cookies: %w", err)
	}
	if err := m.store.Save(fresh); err != nil {
		return nil, fmt.Errorf("failed to persist session cookies: %w", err)
	}

	state := &schemas.SessionState{Cookies: fresh, IsAuthenticated: true}

	m.mu.Lock()
	old := m.authCtx
	m.authCtx = bc
	m.state = state
	m.mu.Unlock()

	if old != nil {
		ReleaseContext(m.logger, old)
	}

	m.logger.Info("Session authenticated.", zap.Int("cookies", len(fresh)))
	return state, nil
}

// Page opens a fresh tab from the authenticated context. Each extraction
// call owns exactly one such page; pages are never shared across requests.
func (m *Manager) Page(ctx context.Context) (schemas.Page, error) {
	m.mu.Lock()
	bc := m.authCtx
	m.mu.Unlock()

	if bc == nil {
		return nil, &schemas.NotAuthenticatedError{}
	}
	return bc.NewPage(ctx)
}

// State returns the last established session state, or nil.
func (m *Manager) State() *schemas.SessionState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Close releases the authenticated context and terminates the browser
// process. The manager must not be reused afterwards.
func (m *Manager) Close(ctx context.Context) error {
	m.mu.Lock()
	bc := m.authCtx
	m.authCtx = nil
	m.state = nil
	m.mu.Unlock()

	if bc != nil {
		ReleaseContext(m.logger, bc)
	}
	return m.browser.Close(ctx)
}

// filterDomain drops cookies that do not belong to the target site's
// registrable domain; a replay context must never be seeded with strays.
func filterDomain(cookies []schemas.Cookie, domain string) []schemas.Cookie {
	if domain == "" {
		return cookies
	}
	kept := cookies[:0]
	for _, c := range cookies {
		d := strings.TrimPrefix(c.Domain, ".")
		if d == domain || strings.HasSuffix(d, "."+domain) {
			kept = append(kept, c)
		}
	}
	return kept
}
