// Package types defines the data structures shared across ams-compose:
// the user-authored manifest, the resolved lock file, and the small
// value objects the core components pass between each other.
package types

// Manifest represents the root configuration file (ams-compose.yaml).
type Manifest struct {
	LibraryRoot string                `yaml:"library_root"`
	Imports     map[string]ImportSpec `yaml:"imports"`
}

// ImportSpec defines a single library import: where it comes from, which
// ref to pin, what subpath to extract, and where to put it.
type ImportSpec struct {
	Repo            string   `yaml:"repo"`
	Ref             string   `yaml:"ref"`
	SourcePath      string   `yaml:"source_path"`
	LocalPath       string   `yaml:"local_path,omitempty"`
	Checkin         *bool    `yaml:"checkin,omitempty"`
	IgnorePatterns  []string `yaml:"ignore_patterns,omitempty"`
	License         string   `yaml:"license,omitempty"`
}

// CheckinOrDefault returns the effective checkin value, defaulting to true
// when the manifest author left the field unset.
func (s ImportSpec) CheckinOrDefault() bool {
	if s.Checkin == nil {
		return true
	}
	return *s.Checkin
}

// InstallStatus is the ephemeral per-library result of an install/update run.
type InstallStatus string

const (
	StatusInstalled  InstallStatus = "installed"
	StatusUpdated    InstallStatus = "updated"
	StatusUpToDate   InstallStatus = "up_to_date"
	StatusError      InstallStatus = "error"
	StatusSkipped    InstallStatus = "skipped"
)

// ValidationStatus is the ephemeral verdict produced by the Validator.
type ValidationStatus string

const (
	ValidationValid        ValidationStatus = "valid"
	ValidationModified      ValidationStatus = "modified"
	ValidationMissing       ValidationStatus = "missing"
	ValidationOrphaned      ValidationStatus = "orphaned"
	ValidationError         ValidationStatus = "error"
	ValidationNotInstalled  ValidationStatus = "not_installed"
)

// LockEntry is the persisted record of one installed library's resolved
// state, plus the ephemeral fields populated on each Orchestrator/Validator
// run. Ephemeral fields are not required to survive a round-trip.
type LockEntry struct {
	Repo       string `yaml:"repo"`
	Ref        string `yaml:"ref"`
	SourcePath string `yaml:"source_path"`
	LocalPath  string `yaml:"local_path"`
	Checkin    bool   `yaml:"checkin"`

	Commit      string `yaml:"commit"`
	Checksum    string `yaml:"checksum"`
	InstalledAt string `yaml:"installed_at"`
	UpdatedAt   string `yaml:"updated_at"`

	License     *string `yaml:"license"`
	LicenseFile *string `yaml:"license_file"`

	// Ephemeral — populated per-run, readers must tolerate their absence.
	InstallStatus    InstallStatus    `yaml:"install_status,omitempty"`
	ValidationStatus ValidationStatus `yaml:"validation_status,omitempty"`
	LicenseChange    *string          `yaml:"license_change,omitempty"`
	LicenseWarning   *string          `yaml:"license_warning,omitempty"`

	// Diagnostic text for an error status; never persisted. No component
	// in this repository currently sets it.
	Diagnostic string `yaml:"-"`
}

// MatchesSpec reports whether the snapshot fields of the lock entry
// (everything the Planner treats as identity, deliberately excluding Ref
// since a ref bump alone should trigger update, not a full reinstall)
// still match the current ImportSpec.
func (e LockEntry) MatchesSpec(name string, spec ImportSpec, resolvedLocalPath string) bool {
	return e.Repo == spec.Repo &&
		e.SourcePath == spec.SourcePath &&
		e.LocalPath == resolvedLocalPath &&
		e.Checkin == spec.CheckinOrDefault()
}

// CurrentSchemaVersion is the schema_version written to new lock files.
const CurrentSchemaVersion = 1

// LockFile is the full contents of .ams-compose.lock.
type LockFile struct {
	SchemaVersion int                  `yaml:"schema_version"`
	Libraries     map[string]LockEntry `yaml:"libraries"`
}

// Action is the operation the Planner decided for one library.
type Action string

const (
	ActionInstall   Action = "install"
	ActionUpdate    Action = "update"
	ActionUpToDate  Action = "up_to_date"
	ActionSkip      Action = "skip"
	ActionError     Action = "error"
)

// PlannedLibrary is one entry in the Planner's output: a library name, its
// current ImportSpec, and the decided Action.
type PlannedLibrary struct {
	Name   string
	Spec   ImportSpec
	Action Action
	Err    error
}

// PlannerFlags configures a Planner run.
type PlannerFlags struct {
	Force       bool
	RemoteProbe bool
	Targets     map[string]bool // nil/empty means "all libraries"
}

// LicenseInfo is the result of a LicenseScan pass over a directory.
type LicenseInfo struct {
	Identifier string // SPDX-ish identifier, or "Unknown"
	FilePath   string // path to the detected file, relative to the scanned root; "" if none found
}

// ProvenanceMetadata is the content of .ams-compose-metadata.yaml, written
// into the root of every extracted library regardless of checkin.
type ProvenanceMetadata struct {
	Library         string `yaml:"library"`
	Repo            string `yaml:"repo"`
	Ref             string `yaml:"ref"`
	Commit          string `yaml:"commit"`
	SourcePath      string `yaml:"source_path"`
	Checkin         bool   `yaml:"checkin"`
	License         string `yaml:"license,omitempty"`
	LicenseFile     string `yaml:"license_file,omitempty"`
	ExtractedAt     string `yaml:"extracted_at"`
	ToolSchemaVersion int  `yaml:"tool_schema_version"`
}

// ProvenanceFileName is the name of the metadata file Extractor writes into
// every extracted library's destination root.
const ProvenanceFileName = ".ams-compose-metadata.yaml"
