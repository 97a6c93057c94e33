// File: cmd/helpers.go
package cmd

import (
	"context"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/veiloak/rednote-cli/internal/config"
	"github.com/veiloak/rednote-cli/internal/observability"
	"github.com/veiloak/rednote-cli/internal/service"
)

const shutdownGrace = 15 * time.Second

// withService builds the full production stack, runs fn, then tears the
// stack down on a fresh grace-period context so a canceled command context
// cannot leak the browser process.
func withService(cmd *cobra.Command, fn func(ctx context.Context, svc *service.Service, timeout time.Duration) error) error {
	ctx := cmd.Context()
	logger := observability.GetLogger()

	cfg, err := config.NewConfigFromViper(viper.GetViper())
	if err != nil {
		return err
	}

	timeout, err := cmd.Flags().GetDuration("timeout")
	if err != nil {
		return err
	}

	svc, err := service.Build(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		if err := svc.Close(shutdownCtx); err != nil {
			logger.Warn("Error during shutdown", zap.Error(err))
		}
	}()

	return fn(ctx, svc, timeout)
}
