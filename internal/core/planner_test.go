package core

import (
	"context"
	"os"
	"testing"

	"github.com/ams-compose/ams-compose/internal/types"
	"github.com/ams-compose/ams-compose/pkg/gitshell/testutil"
)

func planTestGuard(t *testing.T) *PathGuard {
	t.Helper()
	t.Setenv(TestModeEnvVar, "1")
	return NewPathGuard(t.TempDir())
}

func TestPlanner_Plan_InstallsWhenNoLockEntry(t *testing.T) {
	guard := planTestGuard(t)
	mirror := NewMirrorCache(t.TempDir(), false)
	p := NewPlanner(guard, mirror)

	manifest := types.Manifest{Imports: map[string]types.ImportSpec{
		"foo": {Repo: "file:///tmp/foo", Ref: "main", SourcePath: "."},
	}}
	plan := p.Plan(context.Background(), manifest, types.LockFile{}, types.PlannerFlags{})

	if len(plan) != 1 || plan[0].Action != types.ActionInstall {
		t.Fatalf("expected a single ActionInstall, got %+v", plan)
	}
}

func TestPlanner_Plan_SkipsUntargetedLibraries(t *testing.T) {
	guard := planTestGuard(t)
	mirror := NewMirrorCache(t.TempDir(), false)
	p := NewPlanner(guard, mirror)

	manifest := types.Manifest{Imports: map[string]types.ImportSpec{
		"foo": {Repo: "file:///tmp/foo", Ref: "main", SourcePath: "."},
		"bar": {Repo: "file:///tmp/bar", Ref: "main", SourcePath: "."},
	}}
	flags := types.PlannerFlags{Targets: map[string]bool{"foo": true}}
	plan := p.Plan(context.Background(), manifest, types.LockFile{}, flags)

	byName := map[string]types.Action{}
	for _, item := range plan {
		byName[item.Name] = item.Action
	}
	if byName["foo"] != types.ActionInstall {
		t.Errorf("expected foo to be installed, got %s", byName["foo"])
	}
	if byName["bar"] != types.ActionSkip {
		t.Errorf("expected bar to be skipped, got %s", byName["bar"])
	}
}

func TestPlanner_Plan_UpToDateWhenLockMatches(t *testing.T) {
	guard := planTestGuard(t)
	mirror := NewMirrorCache(t.TempDir(), false)
	p := NewPlanner(guard, mirror)

	spec := types.ImportSpec{Repo: "file:///tmp/foo", Ref: "main", SourcePath: "."}
	manifest := types.Manifest{Imports: map[string]types.ImportSpec{"foo": spec}}
	resolvedPath, err := guard.ResolveLibraryPath(manifest, "foo", spec)
	if err != nil {
		t.Fatal(err)
	}
	if err := os.MkdirAll(resolvedPath, 0o755); err != nil {
		t.Fatal(err)
	}
	lock := types.LockFile{Libraries: map[string]types.LockEntry{
		"foo": {Repo: spec.Repo, Ref: spec.Ref, SourcePath: spec.SourcePath, LocalPath: resolvedPath, Checkin: true, Commit: "abc"},
	}}

	plan := p.Plan(context.Background(), manifest, lock, types.PlannerFlags{})
	if len(plan) != 1 || plan[0].Action != types.ActionUpToDate {
		t.Fatalf("expected ActionUpToDate, got %+v", plan)
	}
}

func TestPlanner_Plan_ForceOverridesUpToDate(t *testing.T) {
	guard := planTestGuard(t)
	mirror := NewMirrorCache(t.TempDir(), false)
	p := NewPlanner(guard, mirror)

	spec := types.ImportSpec{Repo: "file:///tmp/foo", Ref: "main", SourcePath: "."}
	manifest := types.Manifest{Imports: map[string]types.ImportSpec{"foo": spec}}
	resolvedPath, _ := guard.ResolveLibraryPath(manifest, "foo", spec)
	if err := os.MkdirAll(resolvedPath, 0o755); err != nil {
		t.Fatal(err)
	}
	lock := types.LockFile{Libraries: map[string]types.LockEntry{
		"foo": {Repo: spec.Repo, Ref: spec.Ref, SourcePath: spec.SourcePath, LocalPath: resolvedPath, Checkin: true, Commit: "abc"},
	}}

	plan := p.Plan(context.Background(), manifest, lock, types.PlannerFlags{Force: true})
	if len(plan) != 1 || plan[0].Action != types.ActionInstall {
		t.Fatalf("expected ActionInstall under --force (unconditional), got %+v", plan)
	}
}

func TestPlanner_Plan_RefBumpTriggersUpdate(t *testing.T) {
	guard := planTestGuard(t)
	mirror := NewMirrorCache(t.TempDir(), false)
	p := NewPlanner(guard, mirror)

	spec := types.ImportSpec{Repo: "file:///tmp/foo", Ref: "v2.0.0", SourcePath: "."}
	manifest := types.Manifest{Imports: map[string]types.ImportSpec{"foo": spec}}
	resolvedPath, _ := guard.ResolveLibraryPath(manifest, "foo", spec)
	if err := os.MkdirAll(resolvedPath, 0o755); err != nil {
		t.Fatal(err)
	}
	lock := types.LockFile{Libraries: map[string]types.LockEntry{
		"foo": {Repo: spec.Repo, Ref: "v1.0.0", SourcePath: spec.SourcePath, LocalPath: resolvedPath, Checkin: true, Commit: "abc"},
	}}

	plan := p.Plan(context.Background(), manifest, lock, types.PlannerFlags{})
	if len(plan) != 1 || plan[0].Action != types.ActionUpdate {
		t.Fatalf("expected ActionUpdate when the manifest ref differs from the locked ref, got %+v", plan)
	}
}

func TestPlanner_Plan_MissingExtractedDirectoryTriggersInstall(t *testing.T) {
	guard := planTestGuard(t)
	mirror := NewMirrorCache(t.TempDir(), false)
	p := NewPlanner(guard, mirror)

	spec := types.ImportSpec{Repo: "file:///tmp/foo", Ref: "main", SourcePath: "."}
	manifest := types.Manifest{Imports: map[string]types.ImportSpec{"foo": spec}}
	resolvedPath, _ := guard.ResolveLibraryPath(manifest, "foo", spec)
	// resolvedPath is deliberately never created on disk, simulating an
	// out-of-band deletion of the extracted library directory.
	lock := types.LockFile{Libraries: map[string]types.LockEntry{
		"foo": {Repo: spec.Repo, Ref: spec.Ref, SourcePath: spec.SourcePath, LocalPath: resolvedPath, Checkin: true, Commit: "abc"},
	}}

	plan := p.Plan(context.Background(), manifest, lock, types.PlannerFlags{})
	if len(plan) != 1 || plan[0].Action != types.ActionInstall {
		t.Fatalf("expected ActionInstall when the extracted directory is missing, got %+v", plan)
	}
}

func TestPlanner_Plan_InvalidRepoURLIsActionError(t *testing.T) {
	guard := NewPathGuard(t.TempDir()) // no test mode: file:// rejected
	mirror := NewMirrorCache(t.TempDir(), false)
	p := NewPlanner(guard, mirror)

	manifest := types.Manifest{Imports: map[string]types.ImportSpec{
		"foo": {Repo: "file:///tmp/foo", Ref: "main", SourcePath: "."},
	}}
	plan := p.Plan(context.Background(), manifest, types.LockFile{}, types.PlannerFlags{})
	if len(plan) != 1 || plan[0].Action != types.ActionError {
		t.Fatalf("expected ActionError for an unsafe URL, got %+v", plan)
	}
}

func TestPlanner_Plan_RemoteProbeDetectsUpdate(t *testing.T) {
	repo := testutil.NewTestRepo(t)
	firstSHA := repo.Commit("v1", map[string]string{"a.txt": "1"})
	branch := repo.CurrentBranch()

	guard := planTestGuard(t)
	mirrorRoot := t.TempDir()
	mirror := NewMirrorCache(mirrorRoot, true)
	p := NewPlanner(guard, mirror)

	spec := types.ImportSpec{Repo: fileURL(repo.Dir), Ref: branch, SourcePath: "."}
	manifest := types.Manifest{Imports: map[string]types.ImportSpec{"foo": spec}}
	resolvedPath, _ := guard.ResolveLibraryPath(manifest, "foo", spec)
	if err := os.MkdirAll(resolvedPath, 0o755); err != nil {
		t.Fatal(err)
	}
	lock := types.LockFile{Libraries: map[string]types.LockEntry{
		"foo": {Repo: spec.Repo, Ref: spec.Ref, SourcePath: spec.SourcePath, LocalPath: resolvedPath, Checkin: true, Commit: firstSHA},
	}}

	plan := p.Plan(context.Background(), manifest, lock, types.PlannerFlags{RemoteProbe: true})
	if len(plan) != 1 || plan[0].Action != types.ActionUpToDate {
		t.Fatalf("expected ActionUpToDate when remote commit is unchanged, got %+v", plan)
	}

	repo.Commit("v2", map[string]string{"a.txt": "2"})
	plan = p.Plan(context.Background(), manifest, lock, types.PlannerFlags{RemoteProbe: true})
	if len(plan) != 1 || plan[0].Action != types.ActionUpdate {
		t.Fatalf("expected ActionUpdate once upstream has moved, got %+v", plan)
	}
}
