package core

import (
	"io"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/ams-compose/ams-compose/internal/types"
)

// Extractor copies a library's source_path out of a ready mirror checkout
// and into its resolved local_path, applying the IgnoreEngine, forced
// LICENSE preservation, and provenance metadata.
type Extractor struct {
	ProjectRoot string
}

// NewExtractor creates an Extractor rooted at projectRoot.
func NewExtractor(projectRoot string) *Extractor {
	return &Extractor{ProjectRoot: projectRoot}
}

// Extract implements the following algorithm:
//  1. Resolve and contain source_path within the mirror root.
//  2. Copy files into a quarantine directory next to local_path, applying
//     the IgnoreEngine and forced-preserve overrides.
//  3. When checkin and source_path != ".", force-copy the repo root's
//     LICENSE-like files even if source_path's subtree has none.
//  4. Write the provenance metadata file.
//  5. Compute the tree checksum of the quarantine directory, excluding the
//     provenance file.
//  6. When checkin is false, write a local .gitignore excluding everything
//     except the provenance file into the quarantine directory.
//  7. Atomically replace local_path with the quarantine directory.
func (x *Extractor) Extract(name string, spec types.ImportSpec, mirrorRoot, localPath, commit string, license types.LicenseInfo) (checksum string, err error) {
	sourceAbs := mirrorRoot
	if spec.SourcePath != "" && spec.SourcePath != "." {
		sourceAbs = filepath.Join(mirrorRoot, spec.SourcePath)
	}
	sourceAbs = filepath.Clean(sourceAbs)
	if sourceAbs != filepath.Clean(mirrorRoot) && !isWithin(filepath.Clean(mirrorRoot), sourceAbs) {
		return "", &SourceMissingError{Library: name, SourcePath: spec.SourcePath}
	}
	if info, statErr := os.Stat(sourceAbs); statErr != nil || !info.IsDir() {
		return "", &SourceMissingError{Library: name, SourcePath: spec.SourcePath}
	}

	ignoreEngine, err := NewIgnoreEngine(x.ProjectRoot, spec.IgnorePatterns, spec.CheckinOrDefault())
	if err != nil {
		return "", &ExtractionAbortedError{Library: name, Cause: err}
	}

	quarantine := localPath + ".tmp-extract"
	if err := os.RemoveAll(quarantine); err != nil {
		return "", &ExtractionAbortedError{Library: name, Cause: err}
	}
	if err := os.MkdirAll(quarantine, 0o755); err != nil {
		return "", &ExtractionAbortedError{Library: name, Cause: err}
	}

	if err := copyTree(sourceAbs, quarantine, "", ignoreEngine); err != nil {
		_ = os.RemoveAll(quarantine)
		return "", &CopyFailedError{Library: name, Path: sourceAbs, Cause: err}
	}

	if spec.CheckinOrDefault() && spec.SourcePath != "" && spec.SourcePath != "." {
		if err := forceCopyRepoLicense(mirrorRoot, quarantine); err != nil {
			_ = os.RemoveAll(quarantine)
			return "", &CopyFailedError{Library: name, Path: mirrorRoot, Cause: err}
		}
	}

	meta := types.ProvenanceMetadata{
		Library:           name,
		Repo:              spec.Repo,
		Ref:               spec.Ref,
		Commit:            commit,
		SourcePath:        spec.SourcePath,
		Checkin:           spec.CheckinOrDefault(),
		License:           license.Identifier,
		LicenseFile:       license.FilePath,
		ExtractedAt:       time.Now().UTC().Format(time.RFC3339),
		ToolSchemaVersion: CurrentSchemaVersion,
	}
	if err := writeProvenance(quarantine, meta); err != nil {
		_ = os.RemoveAll(quarantine)
		return "", &ExtractionAbortedError{Library: name, Cause: err}
	}

	sum, err := TreeDigest(quarantine, provenanceExclude)
	if err != nil {
		_ = os.RemoveAll(quarantine)
		return "", &ExtractionAbortedError{Library: name, Cause: err}
	}

	if !spec.CheckinOrDefault() {
		if err := writeLocalGitignore(quarantine); err != nil {
			_ = os.RemoveAll(quarantine)
			return "", &ExtractionAbortedError{Library: name, Cause: err}
		}
	}

	if err := os.MkdirAll(filepath.Dir(localPath), 0o755); err != nil {
		_ = os.RemoveAll(quarantine)
		return "", &ExtractionAbortedError{Library: name, Cause: err}
	}
	backup := localPath + ".tmp-backup"
	_ = os.RemoveAll(backup)
	if _, statErr := os.Stat(localPath); statErr == nil {
		if err := os.Rename(localPath, backup); err != nil {
			_ = os.RemoveAll(quarantine)
			return "", &ExtractionAbortedError{Library: name, Cause: err}
		}
	}
	if err := os.Rename(quarantine, localPath); err != nil {
		if _, statErr := os.Stat(backup); statErr == nil {
			_ = os.Rename(backup, localPath)
		}
		return "", &ExtractionAbortedError{Library: name, Cause: err}
	}
	_ = os.RemoveAll(backup)

	return sum, nil
}

func isWithin(root, candidate string) bool {
	rel, err := filepath.Rel(root, candidate)
	if err != nil {
		return false
	}
	return rel != ".." && !hasParentEscape(rel)
}

func hasParentEscape(rel string) bool {
	return len(rel) >= 2 && rel[:2] == ".."
}

// copyTree recursively copies src into dst, honoring engine's exclusions and
// forced-preserve overrides. Symlinks are recreated as symlinks, not
// followed, so a malicious upstream symlink can't be used to read files
// outside the source tree through the copy. rel is src's path relative to
// the extraction source root ("" at the top), so the engine sees full
// relative paths.
func copyTree(src, dst, rel string, engine *IgnoreEngine) error {
	entries, err := os.ReadDir(src)
	if err != nil {
		return err
	}
	for _, entry := range entries {
		srcPath := filepath.Join(src, entry.Name())
		dstPath := filepath.Join(dst, entry.Name())
		relPath := entry.Name()
		if rel != "" {
			relPath = rel + "/" + entry.Name()
		}

		info, err := entry.Info()
		if err != nil {
			return err
		}

		isDir := entry.IsDir()
		excluded := engine.ShouldExclude(relPath, isDir)
		if excluded && engine.IsForcedPreserve(relPath) {
			excluded = false
		}
		if excluded {
			continue
		}

		switch {
		case info.Mode()&os.ModeSymlink != 0:
			target, err := os.Readlink(srcPath)
			if err != nil {
				return err
			}
			if err := os.Symlink(target, dstPath); err != nil {
				return err
			}
		case isDir:
			if err := os.MkdirAll(dstPath, 0o755); err != nil {
				return err
			}
			if err := copyTree(srcPath, dstPath, relPath, engine); err != nil {
				return err
			}
		default:
			if err := copyFile(srcPath, dstPath, info.Mode()); err != nil {
				return err
			}
		}
	}
	return nil
}

func copyFile(src, dst string, mode os.FileMode) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer func() { _ = in.Close() }()

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, mode)
	if err != nil {
		return err
	}
	defer func() { _ = out.Close() }()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Sync()
}

// forceCopyRepoLicense copies any canonical license file found at the
// mirror's repo root into dst, when source_path isn't the repo root itself:
// a library vendored from a subdirectory still carries the enclosing
// repo's license.
func forceCopyRepoLicense(mirrorRoot, dst string) error {
	path, ok := findLicenseFile(mirrorRoot)
	if !ok {
		return nil
	}

	dstPath := filepath.Join(dst, filepath.Base(path))
	if _, err := os.Stat(dstPath); err == nil {
		return nil // the extracted subtree already carries its own license file
	} else if !os.IsNotExist(err) {
		return err
	}

	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	return copyFile(path, dstPath, info.Mode())
}

func writeProvenance(dir string, meta types.ProvenanceMetadata) error {
	data, err := yaml.Marshal(meta)
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, types.ProvenanceFileName), data, 0o644)
}

// writeLocalGitignore writes a per-library .gitignore that excludes
// everything except the provenance file, used when checkin is false so the
// extracted tree stays out of the consuming project's own VCS.
func writeLocalGitignore(dir string) error {
	content := "*\n!" + types.ProvenanceFileName + "\n"
	return os.WriteFile(filepath.Join(dir, ".gitignore"), []byte(content), 0o644)
}
