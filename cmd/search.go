// File: cmd/search.go
package cmd

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/veiloak/rednote-cli/internal/service"
)

// newSearchCmd creates and configures the `search` command.
func newSearchCmd() *cobra.Command {
	searchCmd := &cobra.Command{
		Use:   "search [keywords...]",
		Short: "Searches for notes and prints them as JSON",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			limit, err := cmd.Flags().GetInt("limit")
			if err != nil {
				return err
			}
			keywords := strings.Join(args, " ")

			return withService(cmd, func(ctx context.Context, svc *service.Service, timeout time.Duration) error {
				out, err := svc.Search(ctx, keywords, limit, timeout)
				if err != nil {
					return err
				}
				fmt.Println(out)
				return nil
			})
		},
	}

	searchCmd.Flags().IntP("limit", "n", 0, "Maximum number of notes to extract. (Overrides config/env)")
	return searchCmd
}
