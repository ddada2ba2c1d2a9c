package core

import (
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// YAMLStore is a generic atomic-write YAML persistence helper shared by the
// manifest and lock file loaders: read unmarshals T from path; Write
// marshals T back via a temp-file-then-rename so a crash mid-write never
// leaves a truncated file on disk.
type YAMLStore[T any] struct {
	Path string
}

// NewYAMLStore creates a store bound to path.
func NewYAMLStore[T any](path string) *YAMLStore[T] {
	return &YAMLStore[T]{Path: path}
}

// Read loads and unmarshals the file at Path into a new T.
func (s *YAMLStore[T]) Read() (T, error) {
	var zero T
	data, err := os.ReadFile(s.Path)
	if err != nil {
		return zero, err
	}
	var v T
	if err := yaml.Unmarshal(data, &v); err != nil {
		return zero, err
	}
	return v, nil
}

// Exists reports whether the backing file is present.
func (s *YAMLStore[T]) Exists() bool {
	_, err := os.Stat(s.Path)
	return err == nil
}

// Write marshals v and atomically replaces the file at Path.
func (s *YAMLStore[T]) Write(v T) error {
	data, err := yaml.Marshal(v)
	if err != nil {
		return err
	}

	dir := filepath.Dir(s.Path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".tmp-yamlstore-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmpName, s.Path)
}
