// Package storage writes generated export files to a local directory.
package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// ErrInvalidName is returned for file names that would land outside the export directory.
var ErrInvalidName = errors.New("invalid export file name")

// ExportDir persists export files under a base directory.
type ExportDir struct {
	baseDir string
}

// NewExportDir ensures dir exists and returns a handle to it.
func NewExportDir(dir string) (*ExportDir, error) {
	if dir == "" {
		dir = "./exports"
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolve export directory: %w", err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("create export directory: %w", err)
	}
	return &ExportDir{baseDir: abs}, nil
}

// Save writes data to filename inside the directory and returns the full path.
func (d *ExportDir) Save(filename string, data []byte) (string, error) {
	path, err := d.resolve(filename)
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write export file: %w", err)
	}
	return path, nil
}

// PruneOlderThan removes regular files last modified before now minus age and returns
// their names.
func (d *ExportDir) PruneOlderThan(age time.Duration, now time.Time) ([]string, error) {
	entries, err := os.ReadDir(d.baseDir)
	if err != nil {
		return nil, fmt.Errorf("read export directory: %w", err)
	}
	cutoff := now.Add(-age)
	removed := make([]string, 0)
	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			return removed, fmt.Errorf("stat %s: %w", entry.Name(), err)
		}
		if !info.ModTime().Before(cutoff) {
			continue
		}
		if err := os.Remove(filepath.Join(d.baseDir, entry.Name())); err != nil && !os.IsNotExist(err) {
			return removed, fmt.Errorf("remove %s: %w", entry.Name(), err)
		}
		removed = append(removed, entry.Name())
	}
	return removed, nil
}

// Dir returns the absolute directory path.
func (d *ExportDir) Dir() string {
	return d.baseDir
}

func (d *ExportDir) resolve(filename string) (string, error) {
	name := strings.TrimSpace(filename)
	if name == "" || name != filepath.Base(name) || name == "." || name == ".." {
		return "", fmt.Errorf("%w: %q", ErrInvalidName, filename)
	}
	return filepath.Join(d.baseDir, name), nil
}
