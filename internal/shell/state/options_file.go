// Package state persists installer options between runs. Generated values
// such as database passwords survive reruns because saved options are never
// overwritten by defaults.
package state

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/phabops/phabctl/internal/core/domain"
)

// =============================================================================
// Options File
// =============================================================================

// OptionsFile loads and saves installer options as a YAML mapping.
type OptionsFile struct {
	path string
}

// NewOptionsFile creates an options file handle for the given path.
func NewOptionsFile(path string) *OptionsFile {
	return &OptionsFile{path: path}
}

// Path returns the backing file path.
func (f *OptionsFile) Path() string {
	return f.path
}

// Load reads options from the file. A missing file yields empty options so
// a first run starts from defaults.
func (f *OptionsFile) Load() (*domain.Options, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return domain.NewOptions(), nil
		}
		return nil, fmt.Errorf("read options file %s: %w", f.path, err)
	}

	values := make(map[string]string)
	if err := yaml.Unmarshal(data, &values); err != nil {
		return nil, fmt.Errorf("parse options file %s: %w", f.path, err)
	}

	return domain.OptionsFromMap(values), nil
}

// Save writes options to the file atomically via a temp file and rename.
func (f *OptionsFile) Save(options *domain.Options) error {
	data, err := yaml.Marshal(options.Snapshot())
	if err != nil {
		return fmt.Errorf("serialize options: %w", err)
	}

	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create options directory %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, ".options-*.yaml")
	if err != nil {
		return fmt.Errorf("create temp options file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("write temp options file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("close temp options file: %w", err)
	}

	if err := os.Chmod(tmpPath, 0o600); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("chmod temp options file: %w", err)
	}

	if err := os.Rename(tmpPath, f.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("replace options file %s: %w", f.path, err)
	}

	return nil
}
