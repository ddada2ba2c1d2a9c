package git

import "strings"

// GitError wraps a failed git subprocess invocation with the command that
// was run and its stderr, so callers (MirrorCache, in particular) can embed
// the real git diagnostic in a GitTimeoutError/GitRefNotFoundError instead
// of a bare exit-status message.
type GitError struct {
	Args   []string // git subcommand and arguments
	Stderr string   // stderr output from git
	Err    error    // underlying exec error
}

func (e *GitError) Error() string {
	s := strings.TrimSpace(e.Stderr)
	if s != "" {
		return s
	}
	return e.Err.Error()
}

func (e *GitError) Unwrap() error {
	return e.Err
}
