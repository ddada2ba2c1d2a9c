package core

import (
	"context"
	"os"

	"github.com/ams-compose/ams-compose/internal/types"
)

// Planner reconciles the manifest against the lock file (and, optionally,
// live remote state) into a per-library action plan, without performing any
// mutation itself.
type Planner struct {
	Guard  *PathGuard
	Mirror *MirrorCache
}

// NewPlanner creates a Planner.
func NewPlanner(guard *PathGuard, mirror *MirrorCache) *Planner {
	return &Planner{Guard: guard, Mirror: mirror}
}

// Plan computes one PlannedLibrary per manifest entry:
//  1. If flags.Targets is non-empty and name isn't in it, ActionSkip.
//  2. Validate the repo URL and local_path; a failure here is ActionError
//     and skips every later step for that library.
//  3. If flags.Force, ActionInstall unconditionally.
//  4. If there is no lock entry, or the lock entry doesn't match the
//     manifest's current spec (repo/source_path/local_path/checkin),
//     ActionInstall.
//  5. If the lock entry's ref no longer matches the manifest's ref,
//     ActionUpdate.
//  6. If the lock entry matches but the resolved local_path is missing on
//     disk, ActionInstall (the extracted tree was removed out-of-band).
//  7. Otherwise, if flags.RemoteProbe and the mirror's resolved commit for
//     ref differs from the locked commit, ActionUpdate.
//  8. Otherwise ActionUpToDate.
func (p *Planner) Plan(ctx context.Context, manifest types.Manifest, lock types.LockFile, flags types.PlannerFlags) []types.PlannedLibrary {
	var plan []types.PlannedLibrary

	for name, spec := range manifest.Imports {
		if len(flags.Targets) > 0 && !flags.Targets[name] {
			plan = append(plan, types.PlannedLibrary{Name: name, Spec: spec, Action: types.ActionSkip})
			continue
		}

		if err := p.Guard.ValidateRepoURL(spec.Repo); err != nil {
			plan = append(plan, types.PlannedLibrary{Name: name, Spec: spec, Action: types.ActionError, Err: err})
			continue
		}
		resolvedPath, err := p.Guard.ResolveLibraryPath(manifest, name, spec)
		if err != nil {
			plan = append(plan, types.PlannedLibrary{Name: name, Spec: spec, Action: types.ActionError, Err: err})
			continue
		}

		if flags.Force {
			plan = append(plan, types.PlannedLibrary{Name: name, Spec: spec, Action: types.ActionInstall})
			continue
		}

		entry, locked := lock.Libraries[name]
		if !locked || !entry.MatchesSpec(name, spec, resolvedPath) {
			plan = append(plan, types.PlannedLibrary{Name: name, Spec: spec, Action: types.ActionInstall})
			continue
		}

		if entry.Ref != spec.Ref {
			plan = append(plan, types.PlannedLibrary{Name: name, Spec: spec, Action: types.ActionUpdate})
			continue
		}

		if _, statErr := os.Stat(resolvedPath); statErr != nil {
			plan = append(plan, types.PlannedLibrary{Name: name, Spec: spec, Action: types.ActionInstall})
			continue
		}

		if flags.RemoteProbe {
			commit, _, probeErr := p.Mirror.Ensure(ctx, spec.Repo, spec.Ref)
			if probeErr != nil {
				plan = append(plan, types.PlannedLibrary{Name: name, Spec: spec, Action: types.ActionError, Err: probeErr})
				continue
			}
			if commit != entry.Commit {
				plan = append(plan, types.PlannedLibrary{Name: name, Spec: spec, Action: types.ActionUpdate})
				continue
			}
		}

		plan = append(plan, types.PlannedLibrary{Name: name, Spec: spec, Action: types.ActionUpToDate})
	}

	// Libraries present in the lock but removed from the manifest are left
	// untouched here — Validator.Clean handles orphan removal, to
	// keep the two concerns independently testable.

	return plan
}
