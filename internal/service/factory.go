// File: internal/service/factory.go
package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/veiloak/rednote-cli/internal/browser"
	"github.com/veiloak/rednote-cli/internal/config"
	"github.com/veiloak/rednote-cli/internal/extract"
	"github.com/veiloak/rednote-cli/internal/session"
	"github.com/veiloak/rednote-cli/internal/store"
)

// Build assembles the full production stack: browser process, cookie store,
// session manager, orchestrator, service. The returned Service owns the
// browser; Close it when done.
func Build(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Service, error) {
	mgr, err := browser.NewManager(ctx, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to start browser: %w", err)
	}

	st, err := store.New(cfg.Session.CookieFile, logger)
	if err != nil {
		// The browser is already up; do not leak it on a bad cookie path.
		_ = mgr.Close(ctx)
		return nil, fmt.Errorf("failed to open cookie store: %w", err)
	}

	sessions := session.NewManager(mgr, st, cfg, logger)
	orchestrator := extract.New(sessions, cfg, logger)
	return NewService(orchestrator, cfg, logger), nil
}
