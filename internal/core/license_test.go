package core

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLicenseScan_FindsAtSourceRoot(t *testing.T) {
	mirror := t.TempDir()
	writeTestFile(t, mirror, "pkg/sub/LICENSE", "MIT License\n\nPermission is hereby granted, free of charge, to any person...")

	info, ok := LicenseScan(mirror, "pkg/sub")
	if !ok {
		t.Fatal("expected a license to be found")
	}
	if info.Identifier != "MIT" {
		t.Errorf("expected MIT, got %s", info.Identifier)
	}
	if info.FilePath != "LICENSE" {
		t.Errorf("expected LICENSE as the relative file path, got %s", info.FilePath)
	}
}

func TestLicenseScan_FallsBackToRepoRoot(t *testing.T) {
	mirror := t.TempDir()
	writeTestFile(t, mirror, "LICENSE", "Apache License\nVersion 2.0, January 2004")
	if err := os.MkdirAll(filepath.Join(mirror, "pkg", "sub"), 0o755); err != nil {
		t.Fatal(err)
	}

	info, ok := LicenseScan(mirror, "pkg/sub")
	if !ok {
		t.Fatal("expected a license to be found via repo root fallback")
	}
	if info.Identifier != "Apache-2.0" {
		t.Errorf("expected Apache-2.0, got %s", info.Identifier)
	}
}

func TestLicenseScan_FallsBackToShallowSubdir(t *testing.T) {
	mirror := t.TempDir()
	writeTestFile(t, mirror, "licenses/LICENSE", "This is free and unencumbered software released into the public domain.")

	info, ok := LicenseScan(mirror, "")
	if !ok {
		t.Fatal("expected a license to be found in the licenses/ subdir")
	}
	if info.Identifier != "Unlicense" {
		t.Errorf("expected Unlicense, got %s", info.Identifier)
	}
}

func TestLicenseScan_UnknownWhenNoLicenseFound(t *testing.T) {
	mirror := t.TempDir()
	writeTestFile(t, mirror, "main.go", "package main")

	info, ok := LicenseScan(mirror, "")
	if ok {
		t.Fatal("expected no license to be found")
	}
	if info.Identifier != UnknownLicense {
		t.Errorf("expected Unknown, got %s", info.Identifier)
	}
}

func TestLicenseScan_UnidentifiableTextStillReportsPath(t *testing.T) {
	mirror := t.TempDir()
	writeTestFile(t, mirror, "LICENSE", "All rights reserved, proprietary license terms apply.")

	info, ok := LicenseScan(mirror, "")
	if !ok {
		t.Fatal("expected LicenseScan to report the file even if unidentified")
	}
	if info.Identifier != UnknownLicense {
		t.Errorf("expected Unknown identifier for unrecognized text, got %s", info.Identifier)
	}
	if info.FilePath != "LICENSE" {
		t.Errorf("expected the file path to still be reported, got %s", info.FilePath)
	}
}

func TestLicenseScan_DistinguishesBSDVariants(t *testing.T) {
	mirror3 := t.TempDir()
	writeTestFile(t, mirror3, "LICENSE", "Redistributions in binary form must reproduce... "+
		"Redistributions of source code must retain... "+
		"Neither the name of the copyright holder... "+
		"without specific prior written permission.")
	info3, _ := LicenseScan(mirror3, "")
	if info3.Identifier != "BSD-3-Clause" {
		t.Errorf("expected BSD-3-Clause, got %s", info3.Identifier)
	}

	mirror2 := t.TempDir()
	writeTestFile(t, mirror2, "LICENSE", "Redistributions in binary form must reproduce... "+
		"Redistributions of source code must retain...")
	info2, _ := LicenseScan(mirror2, "")
	if info2.Identifier != "BSD-2-Clause" {
		t.Errorf("expected BSD-2-Clause, got %s", info2.Identifier)
	}
}

func TestValidateSPDXIdentifier(t *testing.T) {
	cases := map[string]bool{
		"MIT":          true,
		"Apache-2.0":   true,
		"":             false,
		UnknownLicense: false,
		"NotReal-1.0":  false,
	}
	for id, want := range cases {
		if got := ValidateSPDXIdentifier(id); got != want {
			t.Errorf("ValidateSPDXIdentifier(%q) = %v, want %v", id, got, want)
		}
	}
}
