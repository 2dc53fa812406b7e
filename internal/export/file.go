package export

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"taxis/internal/core"
)

// SaveReport writes r into dir under FileName and returns the file path.
func SaveReport(dir string, r core.Report, f Format) (string, error) {
	return save(dir, FileName(r.Destination, f), func(w io.Writer) error {
		return WriteReport(w, r, f)
	})
}

// SaveGlobal writes the rollup into dir and returns the file path.
func SaveGlobal(dir string, reports []core.Report, f Format) (string, error) {
	if !f.SupportsGlobal() {
		return "", fmt.Errorf("%w: %q for global rollup", ErrUnsupportedFormat, f)
	}
	return save(dir, FileName("", f), func(w io.Writer) error {
		return WriteGlobal(w, reports, f)
	})
}

// save renders into a temporary file in dir and renames it into place.
func save(dir, name string, render func(io.Writer) error) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create export dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, "."+name+".*")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := render(tmp); err != nil {
		tmp.Close()
		return "", err
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("close temp file: %w", err)
	}

	path := filepath.Join(dir, name)
	if err := os.Rename(tmp.Name(), path); err != nil {
		return "", fmt.Errorf("rename export: %w", err)
	}
	return path, nil
}
