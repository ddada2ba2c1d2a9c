package core

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/ams-compose/ams-compose/internal/types"
	"github.com/ams-compose/ams-compose/pkg/gitshell/testutil"
)

func TestOrchestrator_Run_InstallsAndPopulatesLockEntry(t *testing.T) {
	repo := testutil.NewTestRepo(t)
	repo.Commit("initial", map[string]string{
		"LICENSE": "MIT License\n\nPermission is hereby granted, free of charge...",
		"lib/a.go": "package lib",
	})
	branch := repo.CurrentBranch()

	projectRoot := t.TempDir()
	t.Setenv(TestModeEnvVar, "1")

	guard := NewPathGuard(projectRoot)
	mirror := NewMirrorCache(projectRoot, false)
	extractor := NewExtractor(projectRoot)
	lockStore := NewLockStore(projectRoot)
	orch := NewOrchestrator(projectRoot, guard, mirror, extractor, lockStore)

	spec := types.ImportSpec{Repo: fileURL(repo.Dir), Ref: branch, SourcePath: "lib"}
	manifest := types.Manifest{Imports: map[string]types.ImportSpec{"foo": spec}}
	plan := []types.PlannedLibrary{{Name: "foo", Spec: spec, Action: types.ActionInstall}}

	lf, results := orch.Run(context.Background(), manifest, types.LockFile{}, plan)
	if len(results) != 1 || results[0].Err != nil {
		t.Fatalf("expected a clean install, got %+v", results)
	}

	entry, ok := lf.Libraries["foo"]
	if !ok {
		t.Fatal("expected a lock entry for foo")
	}
	if entry.Commit == "" || entry.Checksum == "" {
		t.Errorf("expected commit and checksum to be populated: %+v", entry)
	}
	if entry.License == nil || *entry.License != "MIT" {
		t.Errorf("expected the repo-root LICENSE to be detected via subpath fallback, got %+v", entry.License)
	}
	if entry.InstallStatus != types.StatusInstalled {
		t.Errorf("expected StatusInstalled, got %s", entry.InstallStatus)
	}

	resolvedPath, _ := guard.ResolveLibraryPath(manifest, "foo", spec)
	if _, err := os.Stat(filepath.Join(resolvedPath, "a.go")); err != nil {
		t.Errorf("expected a.go to be extracted at the resolved path: %v", err)
	}
}

func TestOrchestrator_Run_UpdatePreservesInstalledAt(t *testing.T) {
	repo := testutil.NewTestRepo(t)
	repo.Commit("initial", map[string]string{"a.go": "package lib"})
	branch := repo.CurrentBranch()

	projectRoot := t.TempDir()
	t.Setenv(TestModeEnvVar, "1")

	guard := NewPathGuard(projectRoot)
	mirror := NewMirrorCache(projectRoot, false)
	extractor := NewExtractor(projectRoot)
	lockStore := NewLockStore(projectRoot)
	orch := NewOrchestrator(projectRoot, guard, mirror, extractor, lockStore)

	spec := types.ImportSpec{Repo: fileURL(repo.Dir), Ref: branch, SourcePath: "."}
	manifest := types.Manifest{Imports: map[string]types.ImportSpec{"foo": spec}}
	resolvedPath, _ := guard.ResolveLibraryPath(manifest, "foo", spec)

	const originalInstalledAt = "2020-01-01T00:00:00Z"
	lf := types.LockFile{Libraries: map[string]types.LockEntry{
		"foo": {
			Repo: spec.Repo, Ref: spec.Ref, SourcePath: spec.SourcePath, LocalPath: resolvedPath,
			Checkin: true, Commit: "stale", InstalledAt: originalInstalledAt, UpdatedAt: originalInstalledAt,
		},
	}}
	plan := []types.PlannedLibrary{{Name: "foo", Spec: spec, Action: types.ActionUpdate}}

	lf, results := orch.Run(context.Background(), manifest, lf, plan)
	if len(results) != 1 || results[0].Err != nil {
		t.Fatalf("expected a clean update, got %+v", results)
	}

	entry := lf.Libraries["foo"]
	if entry.InstalledAt != originalInstalledAt {
		t.Errorf("expected installed_at to be preserved as %q, got %q", originalInstalledAt, entry.InstalledAt)
	}
	if entry.UpdatedAt == originalInstalledAt {
		t.Errorf("expected updated_at to advance past %q", originalInstalledAt)
	}
	if entry.InstallStatus != types.StatusUpdated {
		t.Errorf("expected StatusUpdated, got %s", entry.InstallStatus)
	}
}

func TestOrchestrator_Run_IsolatesPerLibraryFailures(t *testing.T) {
	goodRepo := testutil.NewTestRepo(t)
	goodRepo.Commit("initial", map[string]string{"a.go": "package good"})
	goodBranch := goodRepo.CurrentBranch()

	projectRoot := t.TempDir()
	t.Setenv(TestModeEnvVar, "1")

	guard := NewPathGuard(projectRoot)
	mirror := NewMirrorCache(projectRoot, false)
	extractor := NewExtractor(projectRoot)
	lockStore := NewLockStore(projectRoot)
	orch := NewOrchestrator(projectRoot, guard, mirror, extractor, lockStore)

	goodSpec := types.ImportSpec{Repo: fileURL(goodRepo.Dir), Ref: goodBranch, SourcePath: "."}
	badSpec := types.ImportSpec{Repo: fileURL(t.TempDir()), Ref: "main", SourcePath: "."}
	manifest := types.Manifest{Imports: map[string]types.ImportSpec{"good": goodSpec, "bad": badSpec}}
	plan := []types.PlannedLibrary{
		{Name: "good", Spec: goodSpec, Action: types.ActionInstall},
		{Name: "bad", Spec: badSpec, Action: types.ActionInstall},
	}

	lf, results := orch.Run(context.Background(), manifest, types.LockFile{}, plan)

	var goodResult, badResult *types.PlannedLibrary
	for i := range results {
		switch results[i].Name {
		case "good":
			goodResult = &results[i]
		case "bad":
			badResult = &results[i]
		}
	}
	if goodResult == nil || goodResult.Err != nil {
		t.Errorf("expected good to install cleanly, got %+v", goodResult)
	}
	if badResult == nil || badResult.Action != types.ActionError {
		t.Errorf("expected bad to fail in isolation, got %+v", badResult)
	}
	if _, ok := lf.Libraries["good"]; !ok {
		t.Error("expected good's lock entry to be present despite bad's failure")
	}
	if _, ok := lf.Libraries["bad"]; ok {
		t.Error("expected no lock entry for the failed library")
	}
}
