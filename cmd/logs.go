// File: cmd/logs.go
package cmd

import (
	"fmt"
	"os/exec"
	"runtime"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/veiloak/rednote-cli/internal/config"
	"github.com/veiloak/rednote-cli/internal/observability"
)

// newLogsCmd creates and configures the `logs` command group.
func newLogsCmd() *cobra.Command {
	logsCmd := &cobra.Command{
		Use:   "logs",
		Short: "Utilities for working with the application's log files",
	}

	logsCmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Prints the directory the log files are written to",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.NewConfigFromViper(viper.GetViper())
			if err != nil {
				return err
			}
			dir := observability.LogDirectory(cfg.Logger)
			if dir == "" {
				return fmt.Errorf("file logging is disabled (logger.log_file is empty)")
			}
			fmt.Println(dir)
			return nil
		},
	})

	logsCmd.AddCommand(&cobra.Command{
		Use:   "open",
		Short: "Opens the log directory in the system file browser",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.NewConfigFromViper(viper.GetViper())
			if err != nil {
				return err
			}
			dir := observability.LogDirectory(cfg.Logger)
			if dir == "" {
				return fmt.Errorf("file logging is disabled (logger.log_file is empty)")
			}
			return openInFileBrowser(dir)
		},
	})

	packageCmd := &cobra.Command{
		Use:   "package",
		Short: "Zips the current and rotated log files into a single archive",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out, err := cmd.Flags().GetString("output")
			if err != nil {
				return err
			}
			cfg, err := config.NewConfigFromViper(viper.GetViper())
			if err != nil {
				return err
			}

			count, err := observability.PackageLogs(cfg.Logger, out)
			if err != nil {
				return err
			}
			observability.GetLogger().Info("Packaged log files",
				zap.Int("files", count), zap.String("archive", out))
			fmt.Printf("Packaged %d log file(s) into %s\n", count, out)
			return nil
		},
	}
	packageCmd.Flags().StringP("output", "o", "rednote-logs.zip", "Output path for the archive.")
	logsCmd.AddCommand(packageCmd)

	return logsCmd
}

// openInFileBrowser launches the platform file browser on dir.
func openInFileBrowser(dir string) error {
	switch runtime.GOOS {
	case "darwin":
		return exec.Command("open", dir).Start()
	case "windows":
		return exec.Command("explorer", dir).Start()
	default:
		return exec.Command("xdg-open", dir).Start()
	}
}
