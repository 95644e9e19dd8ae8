// Package file implements storage.Store as one file per key in a directory,
// the server-side counterpart of browser local storage.
package file

import (
	"context"
	"net/url"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/go-faster/errors"
	"github.com/spf13/afero"

	"github.com/xenking/marketbarrio/internal/storage"
)

const (
	suffix    = ".json"
	tmpPrefix = ".tmp-"
)

var (
	_ storage.Store  = (*Store)(nil)
	_ storage.Lister = (*Store)(nil)
)

// Store persists each key in <dir>/<escaped key>.json.
type Store struct {
	fs  afero.Fs
	dir string
}

// New creates dir on the local filesystem if needed and returns a Store
// rooted there.
func New(dir string) (*Store, error) {
	return NewWithFs(afero.NewOsFs(), dir)
}

// NewWithFs is like New but operates on an arbitrary afero filesystem.
func NewWithFs(fs afero.Fs, dir string) (*Store, error) {
	if err := fs.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrapf(err, "create store dir %s", dir)
	}
	return &Store{fs: fs, dir: dir}, nil
}

// Get reads the value stored under key.
func (s *Store) Get(_ context.Context, key string) (string, error) {
	data, err := afero.ReadFile(s.fs, s.path(key))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", storage.ErrNotFound
		}
		return "", errors.Wrapf(err, "read key %q", key)
	}
	return string(data), nil
}

// Set replaces the value for key. The file is written to a temporary name
// and renamed into place so readers never observe a partial value.
func (s *Store) Set(_ context.Context, key, value string) error {
	tmp, err := afero.TempFile(s.fs, s.dir, tmpPrefix+"*")
	if err != nil {
		return errors.Wrapf(err, "create temp file for key %q", key)
	}
	tmpName := tmp.Name()

	if _, err := tmp.WriteString(value); err != nil {
		_ = tmp.Close()
		_ = s.fs.Remove(tmpName)
		return errors.Wrapf(err, "write key %q", key)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		_ = s.fs.Remove(tmpName)
		return errors.Wrapf(err, "sync key %q", key)
	}
	if err := tmp.Close(); err != nil {
		_ = s.fs.Remove(tmpName)
		return errors.Wrapf(err, "close key %q", key)
	}
	if err := s.fs.Rename(tmpName, s.path(key)); err != nil {
		_ = s.fs.Remove(tmpName)
		return errors.Wrapf(err, "commit key %q", key)
	}
	return nil
}

// Keys returns the sorted keys starting with prefix.
func (s *Store) Keys(_ context.Context, prefix string) ([]string, error) {
	entries, err := afero.ReadDir(s.fs, s.dir)
	if err != nil {
		return nil, errors.Wrapf(err, "list %s", s.dir)
	}

	var keys []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || strings.HasPrefix(name, tmpPrefix) || !strings.HasSuffix(name, suffix) {
			continue
		}
		key, err := url.QueryUnescape(strings.TrimSuffix(name, suffix))
		if err != nil {
			continue
		}
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
	}
	slices.Sort(keys)
	return keys, nil
}

// path maps key to a file name that is safe on every platform.
func (s *Store) path(key string) string {
	return filepath.Join(s.dir, url.QueryEscape(key)+suffix)
}
