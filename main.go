// Package main implements the ams-compose CLI for installing and tracking
// vendored libraries pinned to upstream git refs.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"

	"github.com/ams-compose/ams-compose/cmd"
	"github.com/ams-compose/ams-compose/internal/core"
	"github.com/ams-compose/ams-compose/internal/tui"
	"github.com/ams-compose/ams-compose/internal/types"
	"github.com/ams-compose/ams-compose/internal/version"
	"github.com/mattn/go-isatty"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, os.Args[1:]); err != nil {
		if ce, ok := err.(*cliError); ok {
			fmt.Fprintln(os.Stderr, ce.Error())
			os.Exit(ce.code)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// cliError carries a process exit code alongside the error message.
type cliError struct {
	code int
	err  error
}

func (e *cliError) Error() string { return e.err.Error() }

func fail(code int, err error) error { return &cliError{code: code, err: err} }

func run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		printUsage()
		return fail(1, fmt.Errorf("no command given"))
	}

	command := args[0]
	rest := args[1:]

	projectRoot, err := os.Getwd()
	if err != nil {
		return fail(1, err)
	}

	switch command {
	case "init":
		return cmdInit(projectRoot)
	case "install":
		return cmdInstallOrUpdate(ctx, projectRoot, rest, false)
	case "update":
		return cmdInstallOrUpdate(ctx, projectRoot, rest, true)
	case "list":
		return cmdList(projectRoot, rest)
	case "validate":
		return cmdValidate(projectRoot, rest)
	case "clean":
		return cmdClean(projectRoot, rest)
	case "schema":
		return cmdSchema()
	case "sbom":
		return cmdSBOM(projectRoot, rest)
	case "watch":
		return cmdWatch(ctx, projectRoot)
	case "completion":
		return cmdCompletion(rest)
	case "version":
		fmt.Println(version.GetFullVersion())
		return nil
	case "help", "-h", "--help":
		printUsage()
		return nil
	default:
		printUsage()
		return fail(1, fmt.Errorf("unknown command %q", command))
	}
}

func printUsage() {
	fmt.Println(`ams-compose: install and track vendored git libraries

Usage:
  ams-compose init
  ams-compose install [names...] [--force] [--remote-probe] [--json]
  ams-compose update [names...] [--force] [--remote-probe] [--json]
  ams-compose list [--json]
  ams-compose validate [--json] [--conflicts]
  ams-compose clean [--yes] [--json]
  ams-compose schema
  ams-compose sbom [--output path] [--format cyclonedx|spdx]
  ams-compose watch
  ams-compose completion <bash|zsh|fish|powershell>
  ams-compose version`)
}

// flags bundles the non-positional arguments common to install/update/list/
// validate/clean, following the teacher's approach of parsing a flat flag
// set before touching positional library names.
type flags struct {
	force       bool
	remoteProbe bool
	json        bool
	yes         bool
	names       []string
}

func parseFlags(args []string) flags {
	var f flags
	for _, a := range args {
		switch a {
		case "--force":
			f.force = true
		case "--remote-probe":
			f.remoteProbe = true
		case "--json":
			f.json = true
		case "--yes", "-y":
			f.yes = true
		default:
			f.names = append(f.names, a)
		}
	}
	return f
}

func cmdInit(projectRoot string) error {
	store := core.NewManifestStore(projectRoot)
	if store.Exists() {
		return fail(2, fmt.Errorf("%s already exists", core.ManifestFile))
	}
	manifest := types.Manifest{
		LibraryRoot: core.DefaultLibraryRoot,
		Imports:     map[string]types.ImportSpec{},
	}
	if err := store.Save(manifest); err != nil {
		return fail(2, err)
	}
	fmt.Printf("wrote %s\n", core.ManifestFile)
	return nil
}

func loadProject(projectRoot string) (types.Manifest, *core.LockStore, types.LockFile, error) {
	manifestStore := core.NewManifestStore(projectRoot)
	manifest, err := manifestStore.Load()
	if err != nil {
		return types.Manifest{}, nil, types.LockFile{}, err
	}
	lockStore := core.NewLockStore(projectRoot)
	lf, err := lockStore.Load()
	if err != nil {
		return types.Manifest{}, nil, types.LockFile{}, err
	}
	return manifest, lockStore, lf, nil
}

func cmdInstallOrUpdate(ctx context.Context, projectRoot string, args []string, defaultForce bool) error {
	f := parseFlags(args)
	manifest, lockStore, lf, err := loadProject(projectRoot)
	if err != nil {
		return fail(2, err)
	}

	guard := core.NewPathGuard(projectRoot)
	mirror := core.NewMirrorCache(projectRoot, f.remoteProbe)
	extractor := core.NewExtractor(projectRoot)
	orchestrator := core.NewOrchestrator(projectRoot, guard, mirror, extractor, lockStore)
	planner := core.NewPlanner(guard, mirror)

	pf := types.PlannerFlags{Force: f.force || defaultForce, RemoteProbe: f.remoteProbe}
	if len(f.names) > 0 {
		pf.Targets = map[string]bool{}
		for _, n := range f.names {
			pf.Targets[n] = true
		}
	}

	plan := planner.Plan(ctx, manifest, lf, pf)

	progress := newProgressTracker(len(plan), "installing libraries", f.json)
	progress.SetTotal(len(plan))

	lf, results := orchestrator.Run(ctx, manifest, lf, plan)
	for _, r := range results {
		if r.Err != nil {
			progress.Increment(fmt.Sprintf("%s: %v", r.Name, r.Err))
		} else {
			progress.Increment(fmt.Sprintf("%s: %s", r.Name, r.Action))
		}
	}

	if err := lockStore.Save(lf); err != nil {
		progress.Fail(err)
		return fail(2, err)
	}

	hadError := false
	for _, r := range results {
		if r.Action == types.ActionError {
			hadError = true
		}
	}
	if hadError {
		progress.Fail(fmt.Errorf("one or more libraries failed"))
	} else {
		progress.Complete()
	}

	if f.json {
		return printJSON(results)
	}
	for _, r := range results {
		if r.Err != nil {
			fmt.Printf("%-20s %-12s %v\n", r.Name, r.Action, r.Err)
		} else {
			fmt.Printf("%-20s %-12s\n", r.Name, r.Action)
		}
	}
	if hadError {
		return fail(3, fmt.Errorf("install completed with errors"))
	}
	return nil
}

func cmdList(projectRoot string, args []string) error {
	f := parseFlags(args)
	_, _, lf, err := loadProject(projectRoot)
	if err != nil {
		return fail(2, err)
	}
	if f.json {
		return printJSON(lf.Libraries)
	}
	for name, entry := range lf.Libraries {
		license := "Unknown"
		if entry.License != nil {
			license = *entry.License
		}
		fmt.Printf("%-20s %-10s %s %s\n", name, entry.Ref, entry.Commit, license)
	}
	return nil
}

func cmdValidate(projectRoot string, args []string) error {
	f := parseFlags(args)
	checkConflicts := false
	var names []string
	for _, n := range f.names {
		if n == "--conflicts" {
			checkConflicts = true
			continue
		}
		names = append(names, n)
	}
	f.names = names

	manifest, _, lf, err := loadProject(projectRoot)
	if err != nil {
		return fail(2, err)
	}

	validator := core.NewValidator(projectRoot)
	statuses := validator.ValidateInstallation(manifest, lf)

	var conflicts []core.PathConflict
	if checkConflicts {
		guard := core.NewPathGuard(projectRoot)
		conflicts = validator.DetectConflicts(guard, manifest)
	}

	if f.json {
		if checkConflicts {
			return printJSON(struct {
				Statuses  map[string]types.ValidationStatus `json:"statuses"`
				Conflicts []core.PathConflict               `json:"conflicts"`
			}{statuses, conflicts})
		}
		return printJSON(statuses)
	}

	invalid := false
	for name, status := range statuses {
		fmt.Printf("%-20s %s\n", name, status)
		if status != types.ValidationValid {
			invalid = true
		}
	}
	for _, c := range conflicts {
		fmt.Printf("warning: %s (%s) and %s (%s) resolve to conflicting paths\n", c.First, c.Path1, c.Second, c.Path2)
	}
	if invalid {
		return fail(4, fmt.Errorf("one or more libraries failed validation"))
	}
	return nil
}

func cmdClean(projectRoot string, args []string) error {
	f := parseFlags(args)
	manifest, lockStore, lf, err := loadProject(projectRoot)
	if err != nil {
		return fail(2, err)
	}

	validator := core.NewValidator(projectRoot)
	orphans := validator.Orphans(manifest, lf)
	if len(orphans) == 0 {
		fmt.Println("nothing to clean")
		return nil
	}

	if !f.yes && isatty.IsTerminal(os.Stdin.Fd()) {
		fmt.Printf("remove %d orphaned libraries? [y/N] ", len(orphans))
		var reply string
		_, _ = fmt.Scanln(&reply)
		if reply != "y" && reply != "Y" {
			fmt.Println("aborted")
			return nil
		}
	}

	lf, err = validator.Clean(lf, orphans)
	if err != nil {
		return fail(2, err)
	}
	if err := lockStore.Save(lf); err != nil {
		return fail(2, err)
	}

	if f.json {
		return printJSON(orphans)
	}
	for _, name := range orphans {
		fmt.Printf("removed %s\n", name)
	}
	return nil
}

func cmdSchema() error {
	fmt.Println(manifestSchemaJSON)
	fmt.Println(lockSchemaJSON)
	return nil
}

func cmdSBOM(projectRoot string, args []string) error {
	f := parseFlags(args)
	format := core.SBOMFormatCycloneDX
	var output string
	for i := 0; i < len(f.names); i++ {
		switch f.names[i] {
		case "--format":
			if i+1 < len(f.names) {
				format = core.SBOMFormat(f.names[i+1])
				i++
			}
		case "--output":
			if i+1 < len(f.names) {
				output = f.names[i+1]
				i++
			}
		}
	}

	_, _, lf, err := loadProject(projectRoot)
	if err != nil {
		return fail(2, err)
	}

	gen := core.NewSBOMGenerator(projectRoot)
	data, err := gen.Generate(lf, format)
	if err != nil {
		return fail(2, err)
	}

	if output != "" {
		return os.WriteFile(output, data, 0o644)
	}
	fmt.Println(string(data))
	return nil
}

func cmdWatch(ctx context.Context, projectRoot string) error {
	manifestStore := core.NewManifestStore(projectRoot)
	if !manifestStore.Exists() {
		return fail(2, core.ErrManifestNotFound)
	}
	return core.WatchManifest(manifestStore.Path, func() error {
		return cmdInstallOrUpdate(ctx, projectRoot, nil, false)
	})
}

func cmdCompletion(args []string) error {
	if len(args) == 0 {
		return fail(1, fmt.Errorf("usage: ams-compose completion <bash|zsh|fish|powershell>"))
	}
	switch args[0] {
	case "bash":
		fmt.Print(cmd.GenerateBashCompletion())
	case "zsh":
		fmt.Print(cmd.GenerateZshCompletion())
	case "fish":
		fmt.Print(cmd.GenerateFishCompletion())
	case "powershell":
		fmt.Print(cmd.GeneratePowerShellCompletion())
	default:
		return fail(1, fmt.Errorf("unsupported shell %q", args[0]))
	}
	return nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func newProgressTracker(total int, label string, jsonMode bool) progressTracker {
	if jsonMode || !isatty.IsTerminal(os.Stdout.Fd()) {
		return tui.NewNoOpProgressTracker()
	}
	if os.Getenv("AMS_COMPOSE_PLAIN_PROGRESS") != "" {
		return tui.NewTextProgressTracker(total, label)
	}
	return tui.NewBubbletaeProgressTracker(total, label)
}

// progressTracker is the minimal surface cmdInstallOrUpdate needs from any
// of tui's tracker implementations.
type progressTracker interface {
	Increment(message string)
	SetTotal(total int)
	Complete()
	Fail(err error)
}
