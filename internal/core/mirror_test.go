package core

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/ams-compose/ams-compose/pkg/gitshell/testutil"
)

func fileURL(dir string) string {
	return "file://" + filepath.ToSlash(dir)
}

func TestMirrorCache_EnsureClonesOnFirstUse(t *testing.T) {
	repo := testutil.NewTestRepo(t)
	sha := repo.Commit("initial", map[string]string{"README.md": "hello"})

	projectRoot := t.TempDir()
	mc := NewMirrorCache(projectRoot, false)
	ctx := context.Background()

	commit, mirrorRoot, err := mc.Ensure(ctx, fileURL(repo.Dir), "main")
	if err != nil {
		// default branch name may be "master" on older git installs
		commit, mirrorRoot, err = mc.Ensure(ctx, fileURL(repo.Dir), repo.CurrentBranch())
	}
	if err != nil {
		t.Fatalf("Ensure: %v", err)
	}
	if commit != sha {
		t.Errorf("expected resolved commit %s, got %s", sha, commit)
	}
	if _, statErr := os.Stat(filepath.Join(mirrorRoot, "README.md")); statErr != nil {
		t.Errorf("expected checked-out README.md in mirror: %v", statErr)
	}

	if got := mc.State(ctx, fileURL(repo.Dir)); got != MirrorReady {
		t.Errorf("expected MirrorReady after clone, got %s", got)
	}
}

func TestMirrorCache_EnsureResolvesTagOverBranch(t *testing.T) {
	repo := testutil.NewTestRepo(t)
	mainBranch := repo.CurrentBranch()
	tagCommitSHA := repo.Commit("v1 content", map[string]string{"a.txt": "v1"})
	repo.Tag("v1.0.0")

	// A branch sharing the tag's name but pointing at different, later
	// content: Ensure must still resolve "v1.0.0" to the tag, not the branch.
	repo.Branch("v1.0.0")
	repo.Commit("branch content diverges", map[string]string{"a.txt": "branch"})
	repo.Checkout(mainBranch)

	projectRoot := t.TempDir()
	mc := NewMirrorCache(projectRoot, false)
	ctx := context.Background()

	commit, _, err := mc.Ensure(ctx, fileURL(repo.Dir), "v1.0.0")
	if err != nil {
		t.Fatalf("Ensure: %v", err)
	}
	if commit != tagCommitSHA {
		t.Errorf("expected tag resolution %s, got %s", tagCommitSHA, commit)
	}
}

func TestMirrorCache_EnsureReusesCachedBranchUntilRemoteProbe(t *testing.T) {
	repo := testutil.NewTestRepo(t)
	repo.Commit("first", map[string]string{"a.txt": "1"})
	branch := repo.CurrentBranch()

	projectRoot := t.TempDir()
	mc := NewMirrorCache(projectRoot, false)
	ctx := context.Background()

	first, _, err := mc.Ensure(ctx, fileURL(repo.Dir), branch)
	if err != nil {
		t.Fatalf("first Ensure: %v", err)
	}

	second := repo.Commit("second", map[string]string{"a.txt": "2"})

	// Without RemoteProbe, a branch ref already resolved locally is reused
	// as-is: the mirror won't see the new commit until a probe or a
	// not-yet-resolvable ref forces a fetch.
	got, _, err := mc.Ensure(ctx, fileURL(repo.Dir), branch)
	if err != nil {
		t.Fatalf("second Ensure: %v", err)
	}
	if got != first {
		t.Errorf("expected cached resolution %s without remote probe, got %s", first, got)
	}

	mc.RemoteProbe = true
	got, _, err = mc.Ensure(ctx, fileURL(repo.Dir), branch)
	if err != nil {
		t.Fatalf("third Ensure: %v", err)
	}
	if got != second {
		t.Errorf("expected remote-probed Ensure to see new commit %s, got %s", second, got)
	}
}

func TestMirrorCache_EnsureRebuildsCorruptMirror(t *testing.T) {
	repo := testutil.NewTestRepo(t)
	repo.Commit("initial", map[string]string{"a.txt": "1"})
	branch := repo.CurrentBranch()

	projectRoot := t.TempDir()
	mc := NewMirrorCache(projectRoot, false)
	ctx := context.Background()

	if _, _, err := mc.Ensure(ctx, fileURL(repo.Dir), branch); err != nil {
		t.Fatalf("initial Ensure: %v", err)
	}

	path := mc.mirrorPath(fileURL(repo.Dir))
	if err := os.RemoveAll(filepath.Join(path, ".git")); err != nil {
		t.Fatal(err)
	}

	if got := mc.State(ctx, fileURL(repo.Dir)); got != MirrorCorrupt {
		t.Fatalf("expected MirrorCorrupt after removing .git, got %s", got)
	}

	if _, _, err := mc.Ensure(ctx, fileURL(repo.Dir), branch); err != nil {
		t.Fatalf("rebuild Ensure: %v", err)
	}
	if got := mc.State(ctx, fileURL(repo.Dir)); got != MirrorReady {
		t.Errorf("expected MirrorReady after rebuild, got %s", got)
	}
}

func TestMirrorCache_EnsureUnknownRefFails(t *testing.T) {
	repo := testutil.NewTestRepo(t)
	repo.Commit("initial", map[string]string{"a.txt": "1"})

	projectRoot := t.TempDir()
	mc := NewMirrorCache(projectRoot, false)
	ctx := context.Background()

	_, _, err := mc.Ensure(ctx, fileURL(repo.Dir), "does-not-exist")
	if err == nil {
		t.Fatal("expected an error for an unresolvable ref")
	}
	var refErr *GitRefNotFoundError
	if !errors.As(err, &refErr) {
		t.Errorf("expected a GitRefNotFoundError, got %T: %v", err, err)
	}
}
