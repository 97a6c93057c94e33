// File: internal/browser/context.go
package browser

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/cdproto/storage"
	"github.com/chromedp/chromedp"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/veiloak/rednote-cli/api/schemas"
	"github.com/veiloak/rednote-cli/internal/config"
)

// closeWait bounds how long Close waits for a tab to confirm termination.
const closeWait = 10 * time.Second

// browserContext is one tab group sharing a cookie set, implemented as a
// chromedp context derived from the manager's root tab.
type browserContext struct {
	id     string
	logger *zap.Logger
	cfg    *config.Config

	ctx    context.Context
	cancel context.CancelFunc

	onClose   func()
	closeOnce sync.Once
}

var _ schemas.BrowserContext = (*browserContext)(nil)

func newBrowserContext(rootCtx context.Context, cfg *config.Config, logger *zap.Logger, cookies []schemas.Cookie, onClose func()) (*browserContext, error) {
	id := uuid.New().String()

	tabCtx, cancel := chromedp.NewContext(rootCtx)
	bc := &browserContext{
		id:      id,
		logger:  logger.With(zap.String("context_id", id[:8])),
		cfg:     cfg,
		ctx:     tabCtx,
		cancel:  cancel,
		onClose: onClose,
	}

	// Materialize the tab and seed cookies before anything navigates.
	if err := chromedp.Run(tabCtx, seedCookies(cookies)); err != nil {
		bc.release()
		return nil, fmt.Errorf("failed to initialize browsing context: %w", err)
	}

	bc.logger.Debug("Browsing context created.", zap.Int("seeded_cookies", len(cookies)))
	return bc, nil
}

// seedCookies installs the persisted cookie set into the context.
func seedCookies(cookies []schemas.Cookie) chromedp.Action {
	return chromedp.ActionFunc(func(ctx context.Context) error {
		for _, c := range cookies {
			params := network.SetCookie(c.Name, c.Value).
				WithDomain(c.Domain).
				WithPath(c.Path).
				WithHTTPOnly(c.HTTPOnly).
				WithSecure(c.Secure)
			if c.Expires > 0 {
				exp := cdp.TimeSinceEpoch(time.Unix(int64(c.Expires), 0))
				params = params.WithExpires(&exp)
			}
			if err := params.Do(ctx); err != nil {
				return fmt.Errorf("failed to set cookie %q: %w", c.Name, err)
			}
		}
		return nil
	})
}

// NewPage opens a new tab in this context.
func (bc *browserContext) NewPage(ctx context.Context) (schemas.Page, error) {
	if bc.ctx == nil {
		return nil, &schemas.PageNotInitializedError{}
	}

	tabCtx, cancel := chromedp.NewContext(bc.ctx)

	// Run a no-op to force tab creation now rather than on first use.
	initCtx, cancelInit := combineContext(tabCtx, ctx)
	defer cancelInit()
	if err := chromedp.Run(initCtx, chromedp.Navigate("about:blank")); err != nil {
		cancel()
		return nil, fmt.Errorf("failed to open page: %w", err)
	}

	p := newPage(tabCtx, cancel, bc.logger)
	bc.logger.Debug("Page opened.", zap.String("page_id", p.id[:8]))
	return p, nil
}

// Cookies reads the full cookie set held by the browser, HttpOnly included.
func (bc *browserContext) Cookies(ctx context.Context) ([]schemas.Cookie, error) {
	if bc.ctx == nil {
		return nil, &schemas.PageNotInitializedError{}
	}

	runCtx, cancel := combineContext(bc.ctx, ctx)
	defer cancel()

	var raw []*network.Cookie
	err := chromedp.Run(runCtx, chromedp.ActionFunc(func(ctx context.Context) error {
		var err error
		raw, err = storage.GetCookies().Do(ctx)
		return err
	}))
	if err != nil {
		return nil, fmt.Errorf("failed to read cookies: %w", err)
	}

	cookies := make([]schemas.Cookie, 0, len(raw))
	for _, c := range raw {
		cookies = append(cookies, schemas.Cookie{
			Name:     c.Name,
			Value:    c.Value,
			Domain:   c.Domain,
			Path:     c.Path,
			Expires:  c.Expires,
			HTTPOnly: c.HTTPOnly,
			Secure:   c.Secure,
		})
	}
	return cookies, nil
}

// Close terminates the context's tab. Safe to call more than once.
func (bc *browserContext) Close(ctx context.Context) error {
	bc.closeOnce.Do(func() {
		bc.logger.Debug("Closing browsing context.")
		tabCtx := bc.ctx
		bc.cancel()

		if tabCtx != nil {
			waitCtx, cancelWait := context.WithTimeout(ctx, closeWait)
			defer cancelWait()
			select {
			case <-tabCtx.Done():
			case <-waitCtx.Done():
				bc.logger.Warn("Deadline exceeded waiting for context to close.", zap.Error(waitCtx.Err()))
			}
		}

		if bc.onClose != nil {
			bc.onClose()
		}
	})
	return nil
}

// release tears down without the close bookkeeping; used on failed init only.
func (bc *browserContext) release() {
	bc.closeOnce.Do(func() {
		bc.cancel()
	})
}
