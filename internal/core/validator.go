package core

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/ams-compose/ams-compose/internal/types"
)

// Validator checks installed libraries against their lock entries and
// cleans up orphaned extractions.
type Validator struct {
	ProjectRoot string
}

// NewValidator creates a Validator rooted at projectRoot.
func NewValidator(projectRoot string) *Validator {
	return &Validator{ProjectRoot: projectRoot}
}

// ValidateLibrary recomputes the tree checksum at entry.LocalPath and
// compares it against the locked checksum:
//   - missing if local_path doesn't exist at all
//   - error if the checksum can't be computed (permissions, etc.)
//   - modified if the checksum differs from the lock
//   - valid otherwise
func (v *Validator) ValidateLibrary(name string, entry types.LockEntry) types.ValidationStatus {
	info, err := os.Stat(entry.LocalPath)
	if err != nil || !info.IsDir() {
		return types.ValidationMissing
	}

	sum, err := TreeDigest(entry.LocalPath, provenanceExclude)
	if err != nil {
		return types.ValidationError
	}
	if sum != entry.Checksum {
		return types.ValidationModified
	}
	return types.ValidationValid
}

// ValidateInstallation runs ValidateLibrary over every library named in
// either the manifest or the lock: manifest entries without a lock record
// are ValidationNotInstalled, and lock entries with no corresponding
// manifest import are ValidationOrphaned.
func (v *Validator) ValidateInstallation(manifest types.Manifest, lf types.LockFile) map[string]types.ValidationStatus {
	statuses := make(map[string]types.ValidationStatus, len(manifest.Imports)+len(lf.Libraries))
	for name := range manifest.Imports {
		if entry, ok := lf.Libraries[name]; ok {
			statuses[name] = v.ValidateLibrary(name, entry)
		} else {
			statuses[name] = types.ValidationNotInstalled
		}
	}
	for name := range lf.Libraries {
		if _, ok := manifest.Imports[name]; !ok {
			statuses[name] = types.ValidationOrphaned
		}
	}
	return statuses
}

// Orphans returns lock entries with no corresponding manifest import —
// libraries removed from ams-compose.yaml but never cleaned up.
func (v *Validator) Orphans(manifest types.Manifest, lf types.LockFile) []string {
	var orphans []string
	for name := range lf.Libraries {
		if _, ok := manifest.Imports[name]; !ok {
			orphans = append(orphans, name)
		}
	}
	return orphans
}

// PathConflict describes two libraries whose resolved local_path either
// collide outright or nest one inside the other, which would make one
// library's extraction silently clobber or shadow the other's.
type PathConflict struct {
	First, Second string
	Path1, Path2  string
}

// DetectConflicts reports every pair of libraries in the manifest whose
// resolved local_path collide or nest, surfaced by `ams-compose validate
// --conflicts` as warnings rather than hard failures — nothing enforces
// local_path uniqueness when the manifest is parsed, and the manifest may
// be momentarily inconsistent mid-edit.
func (v *Validator) DetectConflicts(guard *PathGuard, manifest types.Manifest) []PathConflict {
	type resolved struct {
		name string
		path string
	}
	var paths []resolved
	for name, spec := range manifest.Imports {
		p, err := guard.ResolveLibraryPath(manifest, name, spec)
		if err != nil {
			continue // an invalid local_path is reported by Plan, not here
		}
		paths = append(paths, resolved{name: name, path: filepath.Clean(p)})
	}

	var conflicts []PathConflict
	for i := 0; i < len(paths); i++ {
		for j := i + 1; j < len(paths); j++ {
			a, b := paths[i], paths[j]
			if a.path == b.path || isPathWithin(a.path, b.path) || isPathWithin(b.path, a.path) {
				conflicts = append(conflicts, PathConflict{
					First: a.name, Second: b.name, Path1: a.path, Path2: b.path,
				})
			}
		}
	}
	return conflicts
}

// isPathWithin reports whether inner is a strict descendant of outer.
func isPathWithin(outer, inner string) bool {
	if outer == inner {
		return false
	}
	rel, err := filepath.Rel(outer, inner)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// Clean removes the extracted directories for every orphaned library and
// deletes their lock entries; it never touches the project's own
// .gitignore, per the Open Question decision recorded in SPEC_FULL.md.
func (v *Validator) Clean(lf types.LockFile, orphans []string) (types.LockFile, error) {
	for _, name := range orphans {
		entry, ok := lf.Libraries[name]
		if !ok {
			continue
		}
		resolved := filepath.Clean(entry.LocalPath)
		if resolved == filepath.Clean(v.ProjectRoot) {
			continue // never delete the project root itself
		}
		if err := os.RemoveAll(entry.LocalPath); err != nil {
			return lf, &CopyFailedError{Library: name, Path: entry.LocalPath, Cause: err}
		}
		delete(lf.Libraries, name)
	}
	return lf, nil
}
