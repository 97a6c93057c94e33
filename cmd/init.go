// File: cmd/init.go
package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/veiloak/rednote-cli/internal/observability"
	"github.com/veiloak/rednote-cli/internal/service"
)

// newInitCmd creates and configures the `init` command.
func newInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Establishes an authenticated session, driving the QR login flow if needed",
		Long: `Replays the persisted cookies against the site and verifies them. When the
cookies are missing or stale, the login dialog is opened and the QR code is
shown in the browser window; scan it with the mobile app to complete login.
The verified cookie set is persisted for subsequent commands.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withService(cmd, func(ctx context.Context, svc *service.Service, timeout time.Duration) error {
				logger := observability.GetLogger()

				state, err := svc.Login(ctx, timeout)
				if err != nil {
					logger.Error("Session establishment failed", zap.Error(err))
					return err
				}

				logger.Info("Session established",
					zap.Int("cookies", len(state.Cookies)),
					zap.Bool("authenticated", state.IsAuthenticated))
				fmt.Println("Login successful. Session cookies saved.")
				return nil
			})
		},
	}
}
