// File: internal/browser/manager.go
package browser

import (
	"context"
	"fmt"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"github.com/veiloak/rednote-cli/api/schemas"
	"github.com/veiloak/rednote-cli/internal/config"
)

// launchProbeTimeout bounds the initial about:blank round-trip used to
// verify the browser process actually started.
const launchProbeTimeout = 30 * time.Second

// Manager owns the lifecycle of the single headless browser process and
// mints browsing contexts from it. It implements schemas.BrowserControl.
type Manager struct {
	logger *zap.Logger
	cfg    *config.Config

	// allocatorCtx manages the browser process. rootCtx is the first tab;
	// every session context is derived from it so they all share the one
	// process instead of spawning a browser per context.
	allocatorCtx    context.Context
	allocatorCancel context.CancelFunc
	rootCtx         context.Context
	rootCancel      context.CancelFunc

	// wg tracks open contexts for a graceful shutdown.
	wg sync.WaitGroup

	mu     sync.Mutex
	closed bool
}

var _ schemas.BrowserControl = (*Manager)(nil)

// NewManager launches the browser process and verifies it is responsive.
func NewManager(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Manager, error) {
	m := &Manager{
		logger: logger.Named("browser_manager"),
		cfg:    cfg,
	}

	if err := m.launch(ctx); err != nil {
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}
	return m, nil
}

// launch prepares allocator options and starts the headless browser process.
func (m *Manager) launch(ctx context.Context) error {
	m.logger.Info("Initializing browser allocator...")

	allocCtx, cancel := chromedp.NewExecAllocator(ctx, m.buildAllocatorOptions()...)
	m.allocatorCtx = allocCtx
	m.allocatorCancel = cancel

	// The root tab keeps the browser process alive; sessions derive from it.
	rootCtx, rootCancel := chromedp.NewContext(allocCtx)
	m.rootCtx = rootCtx
	m.rootCancel = rootCancel

	probeCtx, cancelProbe := context.WithTimeout(rootCtx, launchProbeTimeout)
	defer cancelProbe()

	if err := chromedp.Run(probeCtx, chromedp.Navigate("about:blank")); err != nil {
		rootCancel()
		m.allocatorCancel()
		return fmt.Errorf("browser failed to start or respond: %w", err)
	}

	m.logger.Info("Browser launched successfully and is responsive.")
	return nil
}

// buildAllocatorOptions assembles the flags for a stealthy browser instance.
func (m *Manager) buildAllocatorOptions() []chromedp.ExecAllocatorOption {
	opts := append([]chromedp.ExecAllocatorOption{}, chromedp.DefaultExecAllocatorOptions[:]...)

	opts = append(opts,
		// A false bool flag overrides the default and drops the automation
		// banner from the launched browser.
		chromedp.Flag("enable-automation", false),
		chromedp.Flag("headless", m.cfg.Browser.Headless),
		chromedp.Flag("ignore-certificate-errors", m.cfg.Browser.IgnoreTLSErrors),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.Flag("disable-extensions", true),
		chromedp.Flag("disable-gpu", m.cfg.Browser.Headless),
		chromedp.UserAgent(m.cfg.Browser.UserAgent),
	)

	// Custom arguments from config.
	for _, arg := range m.cfg.Browser.Args {
		name, value := parseBrowserArg(arg)
		opts = append(opts, chromedp.Flag(name, value))
	}

	// Flags required when running inside containers.
	if runtime.GOOS == "linux" {
		opts = append(opts,
			chromedp.Flag("no-sandbox", true),
			chromedp.Flag("disable-dev-shm-usage", true),
			chromedp.Flag("disable-setuid-sandbox", true),
		)
	}

	return opts
}

// parseBrowserArg turns a command-line style argument ("--proxy-server=x" or
// "disable-sync") into a flag name and value.
func parseBrowserArg(arg string) (string, any) {
	parts := strings.SplitN(arg, "=", 2)
	name := strings.TrimPrefix(parts[0], "--")
	if len(parts) == 2 {
		return name, parts[1]
	}
	return name, true
}

// NewContext creates an isolated browsing context (tab group) in the shared
// browser process, optionally pre-seeded with cookies.
func (m *Manager) NewContext(ctx context.Context, cookies []schemas.Cookie) (schemas.BrowserContext, error) {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil, fmt.Errorf("browser manager is closed")
	}
	m.wg.Add(1)
	m.mu.Unlock()

	bc, err := newBrowserContext(m.rootCtx, m.cfg, m.logger, cookies, m.wg.Done)
	if err != nil {
		m.wg.Done()
		return nil, err
	}
	return bc, nil
}

// Close waits for open contexts to finish and terminates the browser process.
func (m *Manager) Close(ctx context.Context) error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil
	}
	m.closed = true
	m.mu.Unlock()

	m.logger.Info("Browser shutdown initiated. Waiting for open contexts...")

	done := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		m.logger.Debug("All contexts have closed.")
	case <-ctx.Done():
		m.logger.Warn("Shutdown deadline exceeded. Forcing browser termination.", zap.Error(ctx.Err()))
	}

	if m.rootCancel != nil {
		m.rootCancel()
	}
	if m.allocatorCancel != nil {
		m.allocatorCancel()
		<-m.allocatorCtx.Done()
	}
	m.logger.Info("Browser process terminated.")
	return nil
}

// combineContext creates a context canceled when either parent is canceled.
// Operations must respect both the tab lifecycle and the caller's deadline.
func combineContext(parentCtx, secondaryCtx context.Context) (context.Context, context.CancelFunc) {
	combinedCtx, cancel := context.WithCancel(parentCtx)

	go func() {
		select {
		case <-secondaryCtx.Done():
			cancel()
		case <-combinedCtx.Done():
		}
	}()

	return combinedCtx, cancel
}
