// Package local keeps objects as plain files under a base directory.
package local

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/jenkass/reddit-parser/internal/model"
)

var (
	_ model.Storage  = (*Filesystem)(nil)
	_ model.Appender = (*Filesystem)(nil)
)

// Filesystem is a model.Storage rooted at a directory.
type Filesystem struct {
	baseDir string
}

// New creates the base directory if needed.
func New(baseDir string) (*Filesystem, error) {
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create base dir: %w", err)
	}
	return &Filesystem{baseDir: baseDir}, nil
}

func (f *Filesystem) path(key string) (string, error) {
	if key == "" || strings.Contains(key, "..") {
		return "", fmt.Errorf("invalid key %q", key)
	}
	return filepath.Join(f.baseDir, key), nil
}

// Upload replaces the file at key with the reader's content.
func (f *Filesystem) Upload(_ context.Context, key string, reader io.Reader) error {
	p, err := f.path(key)
	if err != nil {
		return err
	}

	file, err := os.Create(p)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	if _, err := io.Copy(file, reader); err != nil {
		file.Close()
		return fmt.Errorf("failed to write file: %w", err)
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("failed to close file: %w", err)
	}
	return nil
}

// Append adds the reader's content to the end of the file at key,
// creating the file if it does not exist.
func (f *Filesystem) Append(_ context.Context, key string, reader io.Reader) error {
	p, err := f.path(key)
	if err != nil {
		return err
	}

	file, err := os.OpenFile(p, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open file: %w", err)
	}
	if _, err := io.Copy(file, reader); err != nil {
		file.Close()
		return fmt.Errorf("failed to append to file: %w", err)
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("failed to close file: %w", err)
	}
	return nil
}

// Download opens the file at key. A missing file yields model.ErrNotFound.
func (f *Filesystem) Download(_ context.Context, key string) (io.ReadCloser, error) {
	p, err := f.path(key)
	if err != nil {
		return nil, err
	}

	file, err := os.Open(p)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, model.ErrNotFound
		}
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	return file, nil
}

// Exists reports whether the file at key exists.
func (f *Filesystem) Exists(_ context.Context, key string) (bool, error) {
	p, err := f.path(key)
	if err != nil {
		return false, err
	}

	_, err = os.Stat(p)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	return false, fmt.Errorf("failed to stat file: %w", err)
}
