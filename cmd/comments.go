// File: cmd/comments.go
package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/veiloak/rednote-cli/internal/service"
)

// newCommentsCmd creates and configures the `comments` command.
func newCommentsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "comments <url>",
		Short: "Extracts the visible comments of a note and prints them as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withService(cmd, func(ctx context.Context, svc *service.Service, timeout time.Duration) error {
				out, err := svc.Comments(ctx, args[0], timeout)
				if err != nil {
					return err
				}
				fmt.Println(out)
				return nil
			})
		},
	}
}
