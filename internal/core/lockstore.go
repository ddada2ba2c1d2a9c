package core

import (
	"bufio"
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ams-compose/ams-compose/internal/types"
)

// mergeConflictMarkers are the line prefixes git leaves behind on an
// unresolved merge; finding one in the lock file means a human edited it by
// hand and lost, not that the schema is malformed.
var mergeConflictMarkers = []string{"<<<<<<<", "=======", ">>>>>>>"}

// LockStore loads and persists the lock file at <project_root>/.ams-compose.lock.
type LockStore struct {
	store *YAMLStore[types.LockFile]
	path  string
}

// NewLockStore creates a LockStore rooted at projectRoot.
func NewLockStore(projectRoot string) *LockStore {
	path := filepath.Join(projectRoot, LockFileName)
	return &LockStore{store: NewYAMLStore[types.LockFile](path), path: path}
}

// Load reads the lock file, returning an empty LockFile (current schema
// version, no libraries) if it doesn't exist yet.
func (s *LockStore) Load() (types.LockFile, error) {
	if !s.store.Exists() {
		return types.LockFile{SchemaVersion: types.CurrentSchemaVersion, Libraries: map[string]types.LockEntry{}}, nil
	}

	if err := detectMergeConflict(s.path); err != nil {
		return types.LockFile{}, err
	}

	lf, err := s.store.Read()
	if err != nil {
		return types.LockFile{}, &LockParseError{Cause: err}
	}
	if lf.Libraries == nil {
		lf.Libraries = map[string]types.LockEntry{}
	}
	if lf.SchemaVersion > types.CurrentSchemaVersion {
		return types.LockFile{}, fmt.Errorf("%w: file has version %d, this build supports up to %d",
			ErrLockSchemaTooNew, lf.SchemaVersion, types.CurrentSchemaVersion)
	}
	if lf.SchemaVersion == 0 {
		lf.SchemaVersion = types.CurrentSchemaVersion
	}
	return lf, nil
}

// Save atomically persists lf to disk, stamping the current schema version.
func (s *LockStore) Save(lf types.LockFile) error {
	lf.SchemaVersion = types.CurrentSchemaVersion
	return s.store.Write(lf)
}

// detectMergeConflict scans path for unresolved git merge-conflict markers
// at the start of a line, refusing to proceed rather than silently
// "parsing" mangled YAML.
func detectMergeConflict(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		for _, marker := range mergeConflictMarkers {
			if bytes.HasPrefix(line, []byte(marker)) {
				return &LockParseError{Cause: fmt.Errorf("unresolved merge-conflict marker %q found in %s", strings.TrimSpace(marker), path)}
			}
		}
	}
	return scanner.Err()
}
