package core

import (
	"bytes"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/ams-compose/ams-compose/internal/types"
)

// ManifestStore loads and validates ams-compose.yaml at the project root.
type ManifestStore struct {
	Path string
}

// NewManifestStore creates a ManifestStore rooted at projectRoot.
func NewManifestStore(projectRoot string) *ManifestStore {
	return &ManifestStore{Path: filepath.Join(projectRoot, ManifestFile)}
}

// Exists reports whether the manifest file is present.
func (s *ManifestStore) Exists() bool {
	_, err := os.Stat(s.Path)
	return err == nil
}

// Load parses and validates the manifest. Unknown top-level and per-import
// keys are rejected outright (yaml.Decoder.KnownFields), catching typos like
// "souce_path" instead of silently ignoring them.
func (s *ManifestStore) Load() (types.Manifest, error) {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return types.Manifest{}, ErrManifestNotFound
		}
		return types.Manifest{}, &ConfigError{Detail: "failed to read manifest", Cause: err}
	}

	var m types.Manifest
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&m); err != nil {
		return types.Manifest{}, &ConfigError{Detail: "failed to parse manifest", Cause: err}
	}

	if err := validateManifest(m); err != nil {
		return types.Manifest{}, err
	}
	return m, nil
}

// Save writes m back to Path, used by `init` to scaffold a starter manifest.
func (s *ManifestStore) Save(m types.Manifest) error {
	data, err := yaml.Marshal(m)
	if err != nil {
		return err
	}
	return os.WriteFile(s.Path, data, 0o644)
}

// validateManifest checks required fields and structural invariants that
// YAML decoding alone can't express.
func validateManifest(m types.Manifest) error {
	for name, spec := range m.Imports {
		if name == "" {
			return &ConfigError{Detail: "import name must not be empty"}
		}
		if spec.Repo == "" {
			return &ConfigError{Detail: "library " + name + ": repo is required"}
		}
		if spec.Ref == "" {
			return &ConfigError{Detail: "library " + name + ": ref is required"}
		}
		if spec.SourcePath == "" {
			return &ConfigError{Detail: "library " + name + ": source_path is required (use \".\" for the repo root)"}
		}
	}
	return nil
}
