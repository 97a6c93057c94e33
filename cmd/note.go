// File: cmd/note.go
package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/veiloak/rednote-cli/internal/service"
)

// newNoteCmd creates and configures the `note` command.
func newNoteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "note <url>",
		Short: "Extracts a single note and prints it as JSON",
		Long: `Accepts a canonical note URL or an app share link (xhslink.com). Share links
are resolved automatically; the printed note reports the URL you passed in.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withService(cmd, func(ctx context.Context, svc *service.Service, timeout time.Duration) error {
				out, err := svc.NoteDetail(ctx, args[0], timeout)
				if err != nil {
					return err
				}
				fmt.Println(out)
				return nil
			})
		},
	}
}
