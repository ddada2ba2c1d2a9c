package core

// File and directory names, relative to the project root.
const (
	// ManifestFile is the user-authored manifest filename.
	ManifestFile = "ams-compose.yaml"
	// LockFileName is the persisted lock filename.
	LockFileName = ".ams-compose.lock"
	// GlobalIgnoreFile holds project-wide gitignore-style patterns (IgnoreEngine Tier B).
	GlobalIgnoreFile = ".ams-compose-ignore"
	// MirrorDir is the root of the content-addressed mirror cache.
	MirrorDir = ".mirror"
	// MirrorLockFile guards concurrent invocations from racing the same mirror tree.
	MirrorLockFile = ".mirror/.lock"
	// DefaultLibraryRoot is used when the manifest omits library_root.
	DefaultLibraryRoot = "designs/libs"
)

// Timeouts for git subprocess operations.
const (
	CloneTimeoutSeconds = 300
	OpsTimeoutSeconds   = 60
)

// TestModeEnvVar enables PathGuard's file:// acceptance for test harnesses only.
// Never surfaced as a user-facing CLI flag.
const TestModeEnvVar = "AMS_COMPOSE_TEST_MODE"

// builtinIgnoreNames is Tier A of the IgnoreEngine: matched by basename,
// always active, regardless of project or per-library patterns.
var builtinIgnoreNames = []string{
	".git", ".gitignore", ".gitmodules",
	".svn", ".hg", "CVS",
	"__pycache__", ".ipynb_checkpoints",
	".vscode", ".idea",
	"node_modules",
	".DS_Store", "Thumbs.db", "desktop.ini",
}

// licenseFileNames is the canonical, priority-ordered set LicenseScan looks for.
var licenseFileNames = []string{
	"LICENSE", "LICENSE.txt", "LICENSE.md", "COPYING", "NOTICE", "COPYRIGHT",
}

// licenseShallowSubdirs are the well-known subdirectories LicenseScan falls back
// into, one level deep, when nothing matches at the scanned root.
var licenseShallowSubdirs = []string{"licenses", "LICENSES"}
