// Package filex contains small filesystem helpers used by the transfer and
// configuration layers.
package filex

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// EnsureDir creates dir (and parents) if it is absent and returns its
// absolute form.
func EnsureDir(dir string) (string, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("abs %s: %w", dir, err)
	}

	if err := os.MkdirAll(abs, 0o770); err != nil {
		return "", fmt.Errorf("mkdir %s: %w", abs, err)
	}

	return abs, nil
}

// ResolveDownloadDir returns the first directory of preferred, fallback that
// can be created. An empty preferred goes straight to fallback.
func ResolveDownloadDir(preferred, fallback string) (string, error) {
	if preferred != "" {
		if dir, err := EnsureDir(preferred); err == nil {
			return dir, nil
		}
	}
	if fallback == "" {
		return "", errors.New("no usable download directory")
	}
	return EnsureDir(fallback)
}

// ReplaceFile writes the content produced by fill into a temporary file in
// the target's directory and renames it over target. An existing target is
// replaced, never appended to; on any failure the temporary file is removed
// and target is left untouched.
func ReplaceFile(target string, fill func(w io.Writer) error) (err error) {
	tmp, err := os.CreateTemp(filepath.Dir(target), "."+filepath.Base(target)+".part-*")
	if err != nil {
		return fmt.Errorf("create temp: %w", err)
	}

	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmp.Name())
		}
	}()

	if err = fill(tmp); err != nil {
		return err
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("close temp: %w", err)
	}
	if err = os.Rename(tmp.Name(), target); err != nil {
		return fmt.Errorf("rename: %w", err)
	}
	return nil
}

// Exists reports whether path names an existing regular file.
func Exists(path string) bool {
	fi, err := os.Stat(path)
	return err == nil && fi.Mode().IsRegular()
}
