package core

import (
	"testing"

	"github.com/ams-compose/ams-compose/internal/testutil"
	"github.com/ams-compose/ams-compose/internal/types"
)

func TestImportSpec_YAMLRoundTrip(t *testing.T) {
	spec := types.ImportSpec{
		Repo:           "https://github.com/acme/foo",
		Ref:            "v1.2.3",
		SourcePath:     "lib",
		LocalPath:      "designs/libs/foo",
		Checkin:        testutil.BoolPtr(false),
		IgnorePatterns: []string{"*.md", "!README.md"},
		License:        "MIT",
	}
	testutil.AssertYAMLRoundTrip(t, spec)
}

func TestImportSpec_CheckinDefaultsToTrueWhenOmitted(t *testing.T) {
	spec := types.ImportSpec{Repo: "https://github.com/acme/foo", Ref: "main", SourcePath: "."}
	testutil.AssertYAMLOmitsField(t, spec, "checkin")
	if !spec.CheckinOrDefault() {
		t.Error("expected CheckinOrDefault to default to true when unset")
	}
}

func TestLockEntry_YAMLRoundTrip(t *testing.T) {
	entry := types.LockEntry{
		Repo: "https://github.com/acme/foo", Ref: "v1.2.3", SourcePath: "lib",
		LocalPath: "designs/libs/foo", Checkin: true,
		Commit: "abcdef1234567890", Checksum: "deadbeef",
		InstalledAt: "2026-01-01T00:00:00Z", UpdatedAt: "2026-01-01T00:00:00Z",
		License: testutil.StrPtr("MIT"), LicenseFile: testutil.StrPtr("LICENSE"),
	}
	testutil.AssertYAMLRoundTrip(t, entry)
	testutil.AssertYAMLContainsField(t, entry, "license")
}
