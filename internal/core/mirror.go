package core

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"time"

	git "github.com/ams-compose/ams-compose/pkg/gitshell"
)

// MirrorState is the lifecycle state of a single repo's entry in the
// content-addressed mirror cache.
type MirrorState string

const (
	MirrorAbsent   MirrorState = "absent"
	MirrorBuilding MirrorState = "building"
	MirrorReady    MirrorState = "ready"
	MirrorCorrupt  MirrorState = "corrupt"
)

// MirrorCache manages the on-disk mirror of upstream repositories, keyed by
// RepoURLDigest, under <project_root>/.mirror/<digest>.
type MirrorCache struct {
	Root        string // <project_root>/.mirror
	CloneTO     time.Duration
	OpTO        time.Duration
	RemoteProbe bool
}

// NewMirrorCache creates a MirrorCache rooted at projectRoot/.mirror.
func NewMirrorCache(projectRoot string, remoteProbe bool) *MirrorCache {
	return &MirrorCache{
		Root:        filepath.Join(projectRoot, MirrorDir),
		CloneTO:     CloneTimeoutSeconds * time.Second,
		OpTO:        OpsTimeoutSeconds * time.Second,
		RemoteProbe: remoteProbe,
	}
}

// mirrorPath returns the mirror checkout directory for a given repo URL.
func (m *MirrorCache) mirrorPath(repoURL string) string {
	return filepath.Join(m.Root, RepoURLDigest(repoURL))
}

// State inspects the on-disk mirror for repoURL and reports its lifecycle
// state: absent if the directory doesn't exist; ready if it's a clean,
// HEAD-resolvable git worktree; corrupt otherwise (a leftover partial
// clone, a directory with a bad .git, etc.).
func (m *MirrorCache) State(ctx context.Context, repoURL string) MirrorState {
	path := m.mirrorPath(repoURL)
	info, err := os.Stat(path)
	if err != nil {
		return MirrorAbsent
	}
	if !info.IsDir() {
		return MirrorCorrupt
	}

	g := git.New(path)
	opCtx, cancel := context.WithTimeout(ctx, m.OpTO)
	defer cancel()
	if _, err := g.Run(opCtx, "rev-parse", "--git-dir"); err != nil {
		return MirrorCorrupt
	}
	return MirrorReady
}

// Ensure guarantees a ready mirror for repoURL at ref, fetching or cloning
// as needed, and returns the resolved commit SHA the ref points at.
//
// Algorithm:
//  1. If absent, clone (bare-ish working clone, --recurse-submodules) into a
//     temp directory under .mirror and atomically rename into place.
//  2. If ready, fetch before resolving when RemoteProbe is set or the ref
//     does not yet resolve locally; otherwise reuse the existing fetch.
//  3. If corrupt, attempt exactly one delete-and-rebuild; a second failure
//     surfaces MirrorCorruptError without a further retry.
func (m *MirrorCache) Ensure(ctx context.Context, repoURL, ref string) (commit string, mirrorRoot string, err error) {
	state := m.State(ctx, repoURL)

	switch state {
	case MirrorAbsent:
		if err := m.clone(ctx, repoURL); err != nil {
			return "", "", err
		}
	case MirrorCorrupt:
		path := m.mirrorPath(repoURL)
		if rmErr := os.RemoveAll(path); rmErr != nil {
			return "", "", &MirrorCorruptError{MirrorPath: path, Cause: rmErr}
		}
		if err := m.clone(ctx, repoURL); err != nil {
			return "", "", &MirrorCorruptError{MirrorPath: path, Cause: err}
		}
	case MirrorReady:
		if m.RemoteProbe || !m.refResolvesLocally(ctx, repoURL, ref) {
			if err := m.fetch(ctx, repoURL); err != nil {
				return "", "", err
			}
		}
	}

	path := m.mirrorPath(repoURL)
	g := git.New(path)

	opCtx, cancel := context.WithTimeout(ctx, m.OpTO)
	defer cancel()

	resolved, resolveErr := resolveRef(opCtx, g, ref)
	if resolveErr != nil {
		return "", "", &GitRefNotFoundError{Repo: repoURL, Ref: ref}
	}

	checkoutCtx, cancel2 := context.WithTimeout(ctx, m.OpTO)
	defer cancel2()
	if err := g.RunSilent(checkoutCtx, "checkout", "--detach", "--force", resolved); err != nil {
		return "", "", &GitRefNotFoundError{Repo: repoURL, Ref: ref}
	}

	submoduleCtx, cancel3 := context.WithTimeout(ctx, m.CloneTO)
	defer cancel3()
	_ = g.RunSilent(submoduleCtx, "submodule", "update", "--init", "--recursive")

	return resolved, path, nil
}

func (m *MirrorCache) clone(ctx context.Context, repoURL string) error {
	if err := os.MkdirAll(m.Root, 0o755); err != nil {
		return err
	}
	tmp, err := os.MkdirTemp(m.Root, "clone-*")
	if err != nil {
		return err
	}

	cloneCtx, cancel := context.WithTimeout(ctx, m.CloneTO)
	defer cancel()

	g := git.New(tmp)
	if err := g.RunSilent(cloneCtx, "clone", "--recurse-submodules", "--no-single-branch", repoURL, "."); err != nil {
		_ = os.RemoveAll(tmp)
		var gitTimeout error
		if errors.Is(cloneCtx.Err(), context.DeadlineExceeded) {
			gitTimeout = &GitTimeoutError{Op: "clone", Seconds: CloneTimeoutSeconds, Cause: err}
			return gitTimeout
		}
		return err
	}

	final := m.mirrorPath(repoURL)
	if err := os.Rename(tmp, final); err != nil {
		_ = os.RemoveAll(tmp)
		return err
	}
	return nil
}

func (m *MirrorCache) fetch(ctx context.Context, repoURL string) error {
	path := m.mirrorPath(repoURL)
	g := git.New(path)

	fetchCtx, cancel := context.WithTimeout(ctx, m.OpTO)
	defer cancel()

	if err := g.RunSilent(fetchCtx, "fetch", "--tags", "--force", "--prune", "origin"); err != nil {
		if errors.Is(fetchCtx.Err(), context.DeadlineExceeded) {
			return &GitTimeoutError{Op: "fetch", Seconds: OpsTimeoutSeconds, Cause: err}
		}
		return err
	}
	return nil
}

func (m *MirrorCache) refResolvesLocally(ctx context.Context, repoURL, ref string) bool {
	path := m.mirrorPath(repoURL)
	g := git.New(path)
	opCtx, cancel := context.WithTimeout(ctx, m.OpTO)
	defer cancel()
	_, err := resolveRef(opCtx, g, ref)
	return err == nil
}

// tagExistsLocally reports whether ref already resolves as a tag in the
// mirror.
func (m *MirrorCache) tagExistsLocally(ctx context.Context, repoURL, ref string) bool {
	path := m.mirrorPath(repoURL)
	g := git.New(path)
	opCtx, cancel := context.WithTimeout(ctx, m.OpTO)
	defer cancel()
	_, err := g.Run(opCtx, "rev-parse", "--verify", "refs/tags/"+ref+"^{commit}")
	return err == nil
}

// resolveRef resolves ref to a commit SHA, preferring an exact tag match
// over a branch of the same name (refs/tags/<ref> checked before
// refs/remotes/origin/<ref>), then falling back to a bare rev-parse.
func resolveRef(ctx context.Context, g *git.Git, ref string) (string, error) {
	if sha, err := g.Run(ctx, "rev-parse", "--verify", "refs/tags/"+ref+"^{commit}"); err == nil {
		return sha, nil
	}
	if sha, err := g.Run(ctx, "rev-parse", "--verify", "refs/remotes/origin/"+ref); err == nil {
		return sha, nil
	}
	if sha, err := g.Run(ctx, "rev-parse", "--verify", ref+"^{commit}"); err == nil {
		return sha, nil
	}
	return "", &GitRefNotFoundError{Ref: ref}
}
