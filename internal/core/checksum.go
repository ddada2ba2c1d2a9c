package core

import (
	"crypto/sha256"
	"encoding/hex"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// ExcludePredicate reports whether a path, relative to a tree root, should be
// left out of a tree digest.
type ExcludePredicate func(relPath string) bool

// FileDigest returns the hex-encoded SHA-256 of a file's byte contents.
func FileDigest(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", &ChecksumFailedError{Path: path, Cause: err}
	}
	defer func() { _ = f.Close() }()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", &ChecksumFailedError{Path: path, Cause: err}
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// TreeDigest computes the content-addressed digest of a directory tree: for
// every surviving file, hash relative_path || 0x00 || sha256(content); sort
// entries by relative path; hash the concatenation.
// Symlinks are hashed by their target string, not followed. Empty
// directories contribute nothing.
func TreeDigest(root string, exclude ExcludePredicate) (string, error) {
	type entry struct {
		relPath string
		sum     [sha256.Size]byte
	}
	var entries []entry

	err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if path == root {
			return nil
		}
		relPath, relErr := filepath.Rel(root, path)
		if relErr != nil {
			return relErr
		}
		relPath = filepath.ToSlash(relPath)

		if info.IsDir() {
			if exclude != nil && exclude(relPath) {
				return filepath.SkipDir
			}
			return nil
		}
		if exclude != nil && exclude(relPath) {
			return nil
		}

		var contentSum [sha256.Size]byte
		if info.Mode()&os.ModeSymlink != 0 {
			target, linkErr := os.Readlink(path)
			if linkErr != nil {
				return linkErr
			}
			contentSum = sha256.Sum256([]byte(target))
		} else {
			data, readErr := os.ReadFile(path)
			if readErr != nil {
				return readErr
			}
			contentSum = sha256.Sum256(data)
		}

		h := sha256.New()
		h.Write([]byte(relPath))
		h.Write([]byte{0x00})
		h.Write(contentSum[:])
		var sum [sha256.Size]byte
		copy(sum[:], h.Sum(nil))

		entries = append(entries, entry{relPath: relPath, sum: sum})
		return nil
	})
	if err != nil {
		return "", &ChecksumFailedError{Path: root, Cause: err}
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].relPath < entries[j].relPath })

	final := sha256.New()
	for _, e := range entries {
		final.Write(e.sum[:])
	}
	return hex.EncodeToString(final.Sum(nil)), nil
}

// RepoURLDigest normalizes a repo URL (lowercase scheme, strip trailing
// slash, strip .git suffix, strip fragment/query) and returns the first 16
// hex characters of its SHA-256, stable across runs and platforms.
func RepoURLDigest(rawURL string) string {
	normalized := normalizeRepoURL(rawURL)
	sum := sha256.Sum256([]byte(normalized))
	return hex.EncodeToString(sum[:])[:16]
}

func normalizeRepoURL(rawURL string) string {
	s := strings.TrimSpace(rawURL)

	// Strip fragment/query without requiring the URL to be RFC-valid (SCP-style
	// git@host:owner/repo URLs are not parseable by net/url).
	if i := strings.IndexAny(s, "?#"); i >= 0 {
		s = s[:i]
	}

	if idx := strings.Index(s, "://"); idx >= 0 {
		scheme := strings.ToLower(s[:idx])
		rest := s[idx+3:]
		s = scheme + "://" + rest
	}

	if parsed, err := url.Parse(s); err == nil && parsed.Scheme != "" {
		parsed.Scheme = strings.ToLower(parsed.Scheme)
		parsed.Fragment = ""
		parsed.RawQuery = ""
		s = parsed.String()
	}

	s = strings.TrimSuffix(s, "/")
	s = strings.TrimSuffix(s, ".git")
	return s
}

// provenanceExclude is the ExcludePredicate used for LockEntry checksums: it
// rejects the Extractor's own provenance file and any built-in VCS path
// component, consistently across install and validate.
func provenanceExclude(relPath string) bool {
	if relPath == "" {
		return false
	}
	parts := strings.Split(filepath.ToSlash(relPath), "/")
	base := parts[len(parts)-1]
	for _, p := range parts {
		for _, builtin := range builtinIgnoreNames {
			if p == builtin {
				return true
			}
		}
	}
	return base == provenanceFileBase
}

const provenanceFileBase = ".ams-compose-metadata.yaml"
