// File: internal/session/reaper.go
package session

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/veiloak/rednote-cli/api/schemas"
)

// closeGrace bounds each best-effort teardown. Releases run on a detached
// context so an expired caller deadline cannot leave a tab behind.
const closeGrace = 5 * time.Second

// ReleasePage closes a page on any exit path. Close errors are secondary to
// whatever the workflow is already returning, so they are logged and
// swallowed, never allowed to mask the primary error.
func ReleasePage(logger *zap.Logger, pg schemas.Page) {
	if pg == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), closeGrace)
	defer cancel()
	if err := pg.Close(ctx); err != nil {
		logger.Debug("Page close failed.", zap.Error(err))
	}
}

// ReleaseContext closes a browsing context with the same best-effort policy.
func ReleaseContext(logger *zap.Logger, bc schemas.BrowserContext) {
	if bc == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), closeGrace)
	defer cancel()
	if err := bc.Close(ctx); err != nil {
		logger.Debug("Context close failed.", zap.Error(err))
	}
}
