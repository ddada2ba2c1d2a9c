package core

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ams-compose/ams-compose/internal/types"
)

// acceptedURLSchemes lists the schemes ImportSpec.Repo may use.
var acceptedURLSchemes = []string{"https", "ssh", "git", "git+https", "git+ssh"}

// PathGuard validates user-supplied local paths and repository URLs before
// any I/O touches the filesystem or network.
type PathGuard struct {
	ProjectRoot string
	TestMode    bool
}

// NewPathGuard creates a PathGuard rooted at projectRoot. TestMode is read
// from the process environment once, never from a user-facing flag.
func NewPathGuard(projectRoot string) *PathGuard {
	return &PathGuard{
		ProjectRoot: projectRoot,
		TestMode:    os.Getenv(TestModeEnvVar) != "",
	}
}

// ResolveLibraryPath implements a four-step resolution: pick the
// candidate path, reject absolute candidates, join+canonicalize
// against the project root lexically (no symlink following — avoids
// TOCTOU), and reject escapes or a resolution equal to the root itself.
func (g *PathGuard) ResolveLibraryPath(manifest types.Manifest, name string, spec types.ImportSpec) (string, error) {
	candidate := spec.LocalPath
	if candidate == "" {
		libRoot := manifest.LibraryRoot
		if libRoot == "" {
			libRoot = DefaultLibraryRoot
		}
		candidate = filepath.Join(libRoot, name)
	}

	if filepath.IsAbs(candidate) {
		return "", &PathEscapeError{Name: name, Candidate: candidate, Resolved: candidate}
	}

	joined := filepath.Join(g.ProjectRoot, candidate)
	resolved := lexicalClean(joined)
	root := lexicalClean(g.ProjectRoot)

	if resolved == root {
		return "", &PathEscapeError{Name: name, Candidate: candidate, Resolved: resolved}
	}

	rootWithSep := root + string(filepath.Separator)
	if !strings.HasPrefix(resolved, rootWithSep) {
		return "", &PathEscapeError{Name: name, Candidate: candidate, Resolved: resolved}
	}

	return resolved, nil
}

// lexicalClean resolves "." and ".." purely lexically (filepath.Clean),
// without touching the filesystem — so a symlink planted at the candidate
// path cannot be used to redirect the containment check (TOCTOU).
func lexicalClean(p string) string {
	abs, err := filepath.Abs(p)
	if err != nil {
		return filepath.Clean(p)
	}
	return filepath.Clean(abs)
}

// shellMetacharacters are rejected outright in repo URLs: even though
// exec.Command never invokes a shell, a URL containing these is either
// malformed input or an attempt to smuggle something past a downstream
// shell (e.g. a hook script that interpolates the URL unsafely).
var shellMetacharacters = []string{";", "|", "`", "$(", "\n", "\r"}

// ValidateRepoURL checks the URL scheme and rejects shell metacharacters,
// lexically only — no DNS resolution.
func (g *PathGuard) ValidateRepoURL(rawURL string) error {
	trimmed := strings.TrimSpace(rawURL)
	if trimmed == "" {
		return &UnsafeURLError{URL: rawURL, Reason: "empty URL"}
	}

	for _, bad := range shellMetacharacters {
		if strings.Contains(trimmed, bad) {
			return &UnsafeURLError{URL: rawURL, Reason: fmt.Sprintf("contains shell metacharacter %q", bad)}
		}
	}

	lower := strings.ToLower(trimmed)

	if strings.HasPrefix(lower, "file://") {
		if g.TestMode {
			return nil
		}
		return &UnsafeURLError{URL: rawURL, Reason: "file:// is only accepted in test mode"}
	}

	// SCP-style shorthand: host:owner/repo (or user@host:owner/repo), no "://".
	if !strings.Contains(trimmed, "://") {
		if looksLikeSCPShorthand(trimmed) {
			return nil
		}
		return &UnsafeURLError{URL: rawURL, Reason: "not a recognized host:owner/repo shorthand"}
	}

	idx := strings.Index(trimmed, "://")
	scheme := strings.ToLower(trimmed[:idx])
	for _, accepted := range acceptedURLSchemes {
		if scheme == accepted {
			return nil
		}
	}
	return &UnsafeURLError{URL: rawURL, Reason: fmt.Sprintf("scheme %q is not accepted", scheme)}
}

// looksLikeSCPShorthand matches "host:owner/repo" or "user@host:owner/repo",
// rejecting Windows drive letters (C:\...) which would otherwise be
// misclassified as a shorthand host.
func looksLikeSCPShorthand(s string) bool {
	colon := strings.Index(s, ":")
	if colon <= 0 {
		return false
	}
	host := s[:colon]
	rest := s[colon+1:]
	if rest == "" || strings.HasPrefix(rest, "/") || strings.HasPrefix(rest, "\\") {
		return false
	}
	if len(host) == 1 { // single letter before ':' => drive letter, not a host
		return false
	}
	if strings.ContainsAny(host, "/\\") {
		return false
	}
	return true
}
