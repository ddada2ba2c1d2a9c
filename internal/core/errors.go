package core

import (
	"errors"
	"fmt"
)

// Error format follows the project convention:
//
//	Error: <what went wrong>
//	  Context: <relevant details>
//	  Fix: <what the user should do>

// =============================================================================
// Sentinel errors
// =============================================================================

var (
	// ErrManifestNotFound indicates ams-compose.yaml is missing.
	ErrManifestNotFound = errors.New("ams-compose.yaml not found. Run 'ams-compose init' first")

	// ErrLockSchemaTooNew indicates the lock file's schema_version is newer
	// than this build understands.
	ErrLockSchemaTooNew = errors.New("lock file schema version is newer than this build supports")
)

// =============================================================================
// Security errors
// =============================================================================

// PathEscapeError is returned when a resolved local_path would land outside
// the project root.
type PathEscapeError struct {
	Name      string
	Candidate string
	Resolved  string
}

func (e *PathEscapeError) Error() string {
	return fmt.Sprintf(
		"Error: local_path escapes the project root\n"+
			"  Context: library %q resolves %q to %q, outside the project root\n"+
			"  Fix: choose a local_path under the project root",
		e.Name, e.Candidate, e.Resolved)
}

// UnsafeURLError is returned when an ImportSpec's repo URL fails validation.
type UnsafeURLError struct {
	Name   string
	URL    string
	Reason string
}

func (e *UnsafeURLError) Error() string {
	return fmt.Sprintf(
		"Error: unsafe repository URL\n"+
			"  Context: library %q has repo %q (%s)\n"+
			"  Fix: use an https://, ssh://, git://, git+https://, or git+ssh:// URL",
		e.Name, e.URL, e.Reason)
}

// =============================================================================
// Git errors
// =============================================================================

// GitTimeoutError is returned when a git subprocess exceeds its deadline.
type GitTimeoutError struct {
	Op      string
	Seconds int
	Cause   error
}

func (e *GitTimeoutError) Error() string {
	return fmt.Sprintf(
		"Error: git %s timed out after %ds\n"+
			"  Context: %v\n"+
			"  Fix: check network connectivity or increase the operation timeout",
		e.Op, e.Seconds, e.Cause)
}

func (e *GitTimeoutError) Unwrap() error { return e.Cause }

// GitRefNotFoundError is returned when a ref cannot be resolved in the mirror.
type GitRefNotFoundError struct {
	Repo string
	Ref  string
}

func (e *GitRefNotFoundError) Error() string {
	return fmt.Sprintf(
		"Error: ref not found\n"+
			"  Context: %q has no ref %q\n"+
			"  Fix: verify the ref exists upstream, or run with remote probing enabled",
		e.Repo, e.Ref)
}

// MirrorCorruptError is returned when a mirror directory is not a usable git
// working copy and recovery (delete-and-rebuild) also failed.
type MirrorCorruptError struct {
	MirrorPath string
	Cause      error
}

func (e *MirrorCorruptError) Error() string {
	return fmt.Sprintf(
		"Error: mirror is corrupt and could not be recovered\n"+
			"  Context: %s: %v\n"+
			"  Fix: remove %s manually and retry",
		e.MirrorPath, e.Cause, e.MirrorPath)
}

func (e *MirrorCorruptError) Unwrap() error { return e.Cause }

// =============================================================================
// Extraction errors
// =============================================================================

// SourceMissingError is returned when source_path does not exist in the mirror.
type SourceMissingError struct {
	Library    string
	SourcePath string
}

func (e *SourceMissingError) Error() string {
	return fmt.Sprintf(
		"Error: source path not found\n"+
			"  Context: library %q has no path %q at the resolved ref\n"+
			"  Fix: check source_path against the upstream repository layout",
		e.Library, e.SourcePath)
}

// CopyFailedError wraps a filesystem error encountered while extracting files.
type CopyFailedError struct {
	Library string
	Path    string
	Cause   error
}

func (e *CopyFailedError) Error() string {
	return fmt.Sprintf(
		"Error: failed to copy extracted files\n"+
			"  Context: library %q, path %q: %v\n"+
			"  Fix: check filesystem permissions and available disk space",
		e.Library, e.Path, e.Cause)
}

func (e *CopyFailedError) Unwrap() error { return e.Cause }

// ChecksumFailedError wraps a failure computing a tree or file digest.
type ChecksumFailedError struct {
	Path  string
	Cause error
}

func (e *ChecksumFailedError) Error() string {
	return fmt.Sprintf(
		"Error: checksum computation failed\n"+
			"  Context: %s: %v\n"+
			"  Fix: ensure the path is readable and retry",
		e.Path, e.Cause)
}

func (e *ChecksumFailedError) Unwrap() error { return e.Cause }

// ExtractionAbortedError wraps a failure that triggered cleanup of a partial
// extraction; Cause names the underlying error kind.
type ExtractionAbortedError struct {
	Library string
	Cause   error
}

func (e *ExtractionAbortedError) Error() string {
	return fmt.Sprintf(
		"Error: extraction aborted\n"+
			"  Context: library %q: %v\n"+
			"  Fix: address the underlying error and retry; no partial output was left behind",
		e.Library, e.Cause)
}

func (e *ExtractionAbortedError) Unwrap() error { return e.Cause }

// =============================================================================
// Config / Lock errors
// =============================================================================

// ConfigError is returned for manifest parse/validation failures. Fatal for
// the whole run (exit 2).
type ConfigError struct {
	Detail string
	Cause  error
}

func (e *ConfigError) Error() string {
	msg := fmt.Sprintf("Error: invalid manifest\n  Context: %s", e.Detail)
	if e.Cause != nil {
		msg += fmt.Sprintf(": %v", e.Cause)
	}
	return msg + "\n  Fix: correct ams-compose.yaml and retry"
}

func (e *ConfigError) Unwrap() error { return e.Cause }

// LockParseError is returned when the lock file cannot be parsed.
type LockParseError struct {
	Cause error
}

func (e *LockParseError) Error() string {
	return fmt.Sprintf(
		"Error: failed to parse lock file\n"+
			"  Context: %v\n"+
			"  Fix: inspect .ams-compose.lock for corruption, or delete it and re-run install",
		e.Cause)
}

func (e *LockParseError) Unwrap() error { return e.Cause }

// =============================================================================
// Error type checking helpers
// =============================================================================

func IsPathEscape(err error) bool {
	var e *PathEscapeError
	return errors.As(err, &e)
}

func IsUnsafeURL(err error) bool {
	var e *UnsafeURLError
	return errors.As(err, &e)
}

func IsGitTimeout(err error) bool {
	var e *GitTimeoutError
	return errors.As(err, &e)
}

func IsMirrorCorrupt(err error) bool {
	var e *MirrorCorruptError
	return errors.As(err, &e)
}

func IsSourceMissing(err error) bool {
	var e *SourceMissingError
	return errors.As(err, &e)
}
