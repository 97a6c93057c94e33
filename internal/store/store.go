// File: internal/store/store.go
package store

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	jsoniter "github.com/json-iterator/go"
	homedir "github.com/mitchellh/go-homedir"
	"go.uber.org/zap"

	"github.com/veiloak/rednote-cli/api/schemas"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// appDirName is the fixed per-user application directory holding the
// persisted cookie file, created on first use.
const appDirName = ".rednote-cli"

// cookieFileName is the default file name inside the application directory.
const cookieFileName = "cookies.json"

// Store is a file-backed schemas.CredentialStore. Save replaces the file
// atomically (temp file + rename) so a concurrent Load never observes a
// partial write.
type Store struct {
	path string
	log  *zap.Logger
}

var _ schemas.CredentialStore = (*Store)(nil)

// New creates a store at the given path. An empty path resolves to the
// default location under the user's home directory.
func New(path string, logger *zap.Logger) (*Store, error) {
	if path == "" {
		home, err := homedir.Dir()
		if err != nil {
			return nil, fmt.Errorf("failed to resolve home directory: %w", err)
		}
		path = filepath.Join(home, appDirName, cookieFileName)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("failed to create credential directory: %w", err)
	}

	return &Store{
		path: path,
		log:  logger.Named("store"),
	}, nil
}

// Path returns the location of the cookie file, for diagnostics.
func (s *Store) Path() string { return s.path }

// Load reads the persisted cookie set. A missing file is not an error: it
// returns an empty set, the same as a first run.
func (s *Store) Load() ([]schemas.Cookie, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read cookie file %s: %w", s.path, err)
	}

	var cookies []schemas.Cookie
	if err := json.Unmarshal(data, &cookies); err != nil {
		return nil, fmt.Errorf("failed to parse cookie file %s: %w", s.path, err)
	}

	s.log.Debug("Loaded persisted cookies.", zap.Int("count", len(cookies)))
	return cookies, nil
}

// Save overwrites the persisted cookie set. The write goes to a temp file in
// the same directory followed by a rename, so the visible file is always a
// complete snapshot.
func (s *Store) Save(cookies []schemas.Cookie) error {
	data, err := json.MarshalIndent(cookies, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode cookies: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), cookieFileName+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp cookie file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write temp cookie file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close temp cookie file: %w", err)
	}

	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to replace cookie file: %w", err)
	}

	s.log.Debug("Persisted cookies.", zap.Int("count", len(cookies)), zap.String("path", s.path))
	return nil
}

// Clear removes the persisted cookie file. Missing files are ignored.
func (s *Store) Clear() error {
	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}
