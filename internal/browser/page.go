// File: internal/browser/page.go
package browser

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/veiloak/rednote-cli/api/schemas"
)

// page is a single tab implementing schemas.Page on top of chromedp.
type page struct {
	id     string
	logger *zap.Logger

	ctx    context.Context
	cancel context.CancelFunc

	closeOnce sync.Once
}

var _ schemas.Page = (*page)(nil)

func newPage(tabCtx context.Context, cancel context.CancelFunc, logger *zap.Logger) *page {
	id := uuid.New().String()
	return &page{
		id:     id,
		logger: logger.With(zap.String("page_id", id[:8])),
		ctx:    tabCtx,
		cancel: cancel,
	}
}

// run executes actions bounded by the caller's context, the tab lifecycle,
// and (when positive) an explicit timeout. The bool reports whether the
// failure was the explicit bound expiring rather than an outer cancellation.
func (p *page) run(ctx context.Context, timeout time.Duration, actions ...chromedp.Action) (bool, error) {
	if p.ctx == nil {
		return false, &schemas.PageNotInitializedError{}
	}

	runCtx, cancel := combineContext(p.ctx, ctx)
	defer cancel()

	if timeout > 0 {
		var cancelTimeout context.CancelFunc
		runCtx, cancelTimeout = context.WithTimeout(runCtx, timeout)
		defer cancelTimeout()
	}

	err := chromedp.Run(runCtx, actions...)
	if err == nil {
		return false, nil
	}

	timedOut := errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil
	return timedOut, err
}

// Goto navigates and waits for the document body to be ready.
func (p *page) Goto(ctx context.Context, url string, timeout time.Duration) error {
	p.logger.Debug("Navigating.", zap.String("url", url), zap.Duration("timeout", timeout))

	timedOut, err := p.run(ctx, timeout,
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
	)
	if timedOut {
		return &schemas.NavigationTimeoutError{URL: url, Timeout: timeout}
	}
	if err != nil {
		return fmt.Errorf("navigation to %s failed: %w", url, err)
	}
	return nil
}

// WaitForSelector blocks until the selector reaches the requested state.
func (p *page) WaitForSelector(ctx context.Context, selector string, opts schemas.WaitOptions) error {
	var action chromedp.Action
	switch opts.State {
	case schemas.WaitDetached:
		action = chromedp.WaitNotPresent(selector, chromedp.ByQuery)
	default:
		action = chromedp.WaitVisible(selector, chromedp.ByQuery)
	}

	timedOut, err := p.run(ctx, opts.Timeout, action)
	if timedOut {
		return &schemas.SelectorTimeoutError{
			Selector: selector,
			Stage:    opts.Stage,
			State:    opts.State,
			Timeout:  opts.Timeout,
		}
	}
	if err != nil {
		return fmt.Errorf("wait for %q failed: %w", selector, err)
	}
	return nil
}

// Evaluate runs a JavaScript expression in page context.
func (p *page) Evaluate(ctx context.Context, expr string, out any) error {
	_, err := p.run(ctx, 0, chromedp.Evaluate(expr, out))
	if err != nil {
		return fmt.Errorf("evaluate failed: %w", err)
	}
	return nil
}

// Click dispatches a click on the first element matching selector.
func (p *page) Click(ctx context.Context, selector string) error {
	_, err := p.run(ctx, 0, chromedp.Click(selector, chromedp.ByQuery))
	if err != nil {
		return fmt.Errorf("click on %q failed: %w", selector, err)
	}
	return nil
}

// OuterHTML returns the serialized subtree of the first match.
func (p *page) OuterHTML(ctx context.Context, selector string) (string, error) {
	var html string
	_, err := p.run(ctx, 0, chromedp.OuterHTML(selector, &html, chromedp.ByQuery))
	if err != nil {
		return "", fmt.Errorf("outer html of %q failed: %w", selector, err)
	}
	return html, nil
}

// Location returns the page's current URL.
func (p *page) Location(ctx context.Context) (string, error) {
	var loc string
	_, err := p.run(ctx, 0, chromedp.Location(&loc))
	if err != nil {
		return "", fmt.Errorf("location failed: %w", err)
	}
	return loc, nil
}

// Close terminates the tab. Safe to call more than once.
func (p *page) Close(ctx context.Context) error {
	p.closeOnce.Do(func() {
		p.logger.Debug("Closing page.")
		tabCtx := p.ctx
		p.cancel()

		if tabCtx != nil {
			waitCtx, cancelWait := context.WithTimeout(ctx, closeWait)
			defer cancelWait()
			select {
			case <-tabCtx.Done():
			case <-waitCtx.Done():
				p.logger.Warn("Deadline exceeded waiting for page to close.", zap.Error(waitCtx.Err()))
			}
		}
	})
	return nil
}
