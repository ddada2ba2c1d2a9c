package core

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/ams-compose/ams-compose/internal/types"
)

// UnknownLicense is returned when LicenseScan cannot identify any license
// text or file.
const UnknownLicense = "Unknown"

// licenseSignature pairs an SPDX identifier with a set of anchored phrases
// that, if found in a candidate license file's text, identify it. Matching
// is substring-based against lower-cased, whitespace-collapsed content —
// deliberately shallow, since LicenseScan is a lexical detector, not a
// legal one.
type licenseSignature struct {
	identifier string
	phrases    []string
}

var licenseSignatures = []licenseSignature{
	{"Apache-2.0", []string{"apache license", "version 2.0"}},
	{"MIT", []string{"permission is hereby granted, free of charge"}},
	{"BSD-3-Clause", []string{"redistributions in binary form", "neither the name", "without specific prior written permission"}},
	{"BSD-2-Clause", []string{"redistributions in binary form", "redistributions of source code"}},
	{"GPL-3.0", []string{"gnu general public license", "version 3"}},
	{"GPL-2.0", []string{"gnu general public license", "version 2"}},
	{"MPL-2.0", []string{"mozilla public license", "version 2.0"}},
	{"Unlicense", []string{"this is free and unencumbered software"}},
	{"CC0-1.0", []string{"creative commons", "cc0"}},
}

// LicenseScan locates and identifies the license governing source_path
// within a mirror checkout:
//  1. Look for a canonical license filename at source_path's own root.
//  2. If none found and source_path isn't the repo root, fall back to the
//     repo root.
//  3. If still none found, try one level into well-known subdirectories
//     (licenses/, LICENSES/) under the same root.
//  4. Identify the found file's content against known SPDX texts; fall back
//     to Unknown when nothing matches.
//
// mirrorRoot is the mirror's checkout root; sourcePath is relative to it
// ("" or "." for the repo root).
func LicenseScan(mirrorRoot, sourcePath string) (types.LicenseInfo, bool) {
	sourceAbs := mirrorRoot
	if sourcePath != "" && sourcePath != "." {
		sourceAbs = filepath.Join(mirrorRoot, sourcePath)
	}

	if path, ok := findLicenseFile(sourceAbs); ok {
		return identifyLicenseFile(path, sourceAbs), true
	}

	if sourceAbs != mirrorRoot {
		if path, ok := findLicenseFile(mirrorRoot); ok {
			return identifyLicenseFile(path, mirrorRoot), true
		}
	}

	for _, root := range []string{sourceAbs, mirrorRoot} {
		for _, sub := range licenseShallowSubdirs {
			dir := filepath.Join(root, sub)
			if path, ok := findLicenseFile(dir); ok {
				return identifyLicenseFile(path, root), true
			}
		}
		if root == sourceAbs && sourceAbs == mirrorRoot {
			break
		}
	}

	return types.LicenseInfo{Identifier: UnknownLicense}, false
}

// findLicenseFile looks for the first canonical license filename present
// directly within dir, in licenseFileNames priority order.
func findLicenseFile(dir string) (string, bool) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", false
	}
	byName := make(map[string]string, len(entries))
	for _, e := range entries {
		if !e.IsDir() {
			byName[strings.ToUpper(e.Name())] = e.Name()
		}
	}
	for _, candidate := range licenseFileNames {
		if name, ok := byName[strings.ToUpper(candidate)]; ok {
			return filepath.Join(dir, name), true
		}
	}
	return "", false
}

// identifyLicenseFile reads path and matches its content against known SPDX
// license signatures, returning Unknown (but still reporting the file path)
// when nothing matches.
func identifyLicenseFile(path, root string) types.LicenseInfo {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		rel = path
	}
	info := types.LicenseInfo{Identifier: UnknownLicense, FilePath: filepath.ToSlash(rel)}

	data, err := os.ReadFile(path)
	if err != nil {
		return info
	}
	normalized := normalizeLicenseText(string(data))

	for _, sig := range licenseSignatures {
		matched := true
		for _, phrase := range sig.phrases {
			if !strings.Contains(normalized, phrase) {
				matched = false
				break
			}
		}
		if matched {
			info.Identifier = sig.identifier
			break
		}
	}
	return info
}

var whitespaceRun = regexp.MustCompile(`\s+`)

func normalizeLicenseText(s string) string {
	lower := strings.ToLower(s)
	return whitespaceRun.ReplaceAllString(lower, " ")
}

// ValidateSPDXIdentifier reports whether identifier is one of the SPDX
// license identifiers LicenseScan knows how to detect. A user-asserted
// `license:` override is not checked against it; the Orchestrator records
// the user's string as given.
func ValidateSPDXIdentifier(identifier string) bool {
	if identifier == "" || identifier == UnknownLicense {
		return false
	}
	for _, sig := range licenseSignatures {
		if sig.identifier == identifier {
			return true
		}
	}
	return false
}
