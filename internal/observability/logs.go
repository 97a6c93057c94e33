// File: internal/observability/logs.go
package observability

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/veiloak/rednote-cli/internal/config"
)

// LogDirectory returns the directory the configured log file lives in, or an
// empty string when file logging is disabled.
func LogDirectory(cfg config.LoggerConfig) string {
	if cfg.LogFile == "" {
		return ""
	}
	return filepath.Dir(cfg.LogFile)
}

// PackageLogs zips every log file (current and rotated) from the configured
// log directory into outPath. Returns the number of files archived.
func PackageLogs(cfg config.LoggerConfig, outPath string) (int, error) {
	dir := LogDirectory(cfg)
	if dir == "" {
		return 0, fmt.Errorf("file logging is disabled, nothing to package")
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, fmt.Errorf("failed to read log directory %s: %w", dir, err)
	}

	out, err := os.Create(outPath)
	if err != nil {
		return 0, fmt.Errorf("failed to create archive %s: %w", outPath, err)
	}
	defer out.Close()

	zw := zip.NewWriter(out)
	defer zw.Close()

	base := strings.TrimSuffix(filepath.Base(cfg.LogFile), filepath.Ext(cfg.LogFile))
	count := 0
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasPrefix(entry.Name(), base) {
			continue
		}
		if err := addFileToArchive(zw, filepath.Join(dir, entry.Name()), entry.Name()); err != nil {
			return count, err
		}
		count++
	}
	return count, nil
}

func addFileToArchive(zw *zip.Writer, path, name string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	w, err := zw.Create(name)
	if err != nil {
		return err
	}
	_, err = io.Copy(w, f)
	return err
}
