package core

import (
	"context"
	"time"

	"github.com/ams-compose/ams-compose/internal/types"
)

// Orchestrator drives the install/update pipeline for a computed plan:
// MirrorCache.Ensure -> LicenseScan -> Extractor.Extract -> lock entry,
// isolating failures per library so one bad repo doesn't abort the run.
type Orchestrator struct {
	ProjectRoot string
	Guard       *PathGuard
	Mirror      *MirrorCache
	Extractor   *Extractor
	Lock        *LockStore
}

// NewOrchestrator wires the components needed to run a plan.
func NewOrchestrator(projectRoot string, guard *PathGuard, mirror *MirrorCache, extractor *Extractor, lock *LockStore) *Orchestrator {
	return &Orchestrator{
		ProjectRoot: projectRoot,
		Guard:       guard,
		Mirror:      mirror,
		Extractor:   extractor,
		Lock:        lock,
	}
}

// Run executes plan against manifest, updating lf in place even though
// individual libraries may have failed independently. It does not write the
// lock file itself: it returns the updated lock file, which the caller
// persists once, and the per-library results for CLI reporting.
func (o *Orchestrator) Run(ctx context.Context, manifest types.Manifest, lf types.LockFile, plan []types.PlannedLibrary) (types.LockFile, []types.PlannedLibrary) {
	if lf.Libraries == nil {
		lf.Libraries = map[string]types.LockEntry{}
	}

	results := make([]types.PlannedLibrary, 0, len(plan))

	for _, item := range plan {
		switch item.Action {
		case types.ActionSkip, types.ActionError, types.ActionUpToDate:
			results = append(results, item)
			continue
		}

		prior, hadPrior := lf.Libraries[item.Name]

		entry, err := o.installOne(ctx, manifest, item.Name, item.Spec, prior, hadPrior && item.Action == types.ActionUpdate)
		if err != nil {
			item.Action = types.ActionError
			item.Err = err
			results = append(results, item)
			continue
		}

		if hadPrior && prior.License != nil &&
			entry.License != nil && *prior.License != *entry.License {
			changed := *prior.License + " -> " + *entry.License
			entry.LicenseChange = &changed
		}

		entry.InstallStatus = installStatusFor(item.Action)
		lf.Libraries[item.Name] = entry
		results = append(results, item)
	}

	return lf, results
}

func installStatusFor(action types.Action) types.InstallStatus {
	switch action {
	case types.ActionUpdate:
		return types.StatusUpdated
	default:
		return types.StatusInstalled
	}
}

// installOne performs a single library's Ensure/Scan/Extract pipeline and
// returns the resulting lock entry. When preserveInstalledAt is true (an
// update against a pre-existing lock entry), prior.InstalledAt is carried
// forward instead of being overwritten with the current time.
func (o *Orchestrator) installOne(ctx context.Context, manifest types.Manifest, name string, spec types.ImportSpec, prior types.LockEntry, preserveInstalledAt bool) (types.LockEntry, error) {
	localPath, err := o.Guard.ResolveLibraryPath(manifest, name, spec)
	if err != nil {
		return types.LockEntry{}, err
	}

	commit, mirrorRoot, err := o.Mirror.Ensure(ctx, spec.Repo, spec.Ref)
	if err != nil {
		return types.LockEntry{}, err
	}

	license, _ := LicenseScan(mirrorRoot, spec.SourcePath)
	var licenseWarning *string
	if spec.License != "" && spec.License != license.Identifier {
		// user-asserted override: keep their string, detection result is
		// only consulted to flag a mismatch via LicenseWarning.
		warning := "manifest asserts license " + spec.License + " but detected " + license.Identifier
		licenseWarning = &warning
		license.Identifier = spec.License
	}

	checksum, err := o.Extractor.Extract(name, spec, mirrorRoot, localPath, commit, license)
	if err != nil {
		return types.LockEntry{}, err
	}

	now := time.Now().UTC().Format(time.RFC3339)
	licenseID := license.Identifier
	licenseFile := license.FilePath

	installedAt := now
	if preserveInstalledAt && prior.InstalledAt != "" {
		installedAt = prior.InstalledAt
	}

	return types.LockEntry{
		Repo:           spec.Repo,
		Ref:            spec.Ref,
		SourcePath:     spec.SourcePath,
		LocalPath:      localPath,
		Checkin:        spec.CheckinOrDefault(),
		Commit:         commit,
		Checksum:       checksum,
		InstalledAt:    installedAt,
		UpdatedAt:      now,
		License:        &licenseID,
		LicenseFile:    &licenseFile,
		LicenseWarning: licenseWarning,
	}, nil
}
