package core

import (
	"os"
	"path/filepath"
	"strings"
)

// ignoreRule is one parsed line of a gitignore-style pattern file.
type ignoreRule struct {
	pattern  string
	negate   bool
	dirOnly  bool
	anchored bool // pattern had a leading "/"
}

// IgnoreEngine implements a three-tier gitignore-style filter: built-in
// exact-name matches (Tier A), project-global patterns (Tier B), and
// per-library patterns (Tier C), plus the forced-preserve overrides for
// LICENSE-like files.
type IgnoreEngine struct {
	projectGlobal []ignoreRule
	perLibrary    []ignoreRule
	forcePreserve bool
}

// NewIgnoreEngine parses the project-global ignore file (if present) and the
// per-library patterns. forcePreserve should be spec.checkin —
// forced-preserve is disabled when checkin is false.
func NewIgnoreEngine(projectRoot string, libraryPatterns []string, forcePreserve bool) (*IgnoreEngine, error) {
	e := &IgnoreEngine{forcePreserve: forcePreserve}

	globalPath := filepath.Join(projectRoot, GlobalIgnoreFile)
	if data, err := os.ReadFile(globalPath); err == nil {
		e.projectGlobal = parseIgnoreLines(string(data))
	} else if !os.IsNotExist(err) {
		return nil, err
	}

	e.perLibrary = parseIgnoreRules(libraryPatterns)
	return e, nil
}

func parseIgnoreLines(content string) []ignoreRule {
	var lines []string
	for _, l := range strings.Split(content, "\n") {
		lines = append(lines, l)
	}
	return parseIgnoreRules(lines)
}

func parseIgnoreRules(lines []string) []ignoreRule {
	var rules []ignoreRule
	for _, raw := range lines {
		line := strings.TrimRight(raw, "\r")
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}

		rule := ignoreRule{}
		if strings.HasPrefix(trimmed, "!") {
			rule.negate = true
			trimmed = trimmed[1:]
		}
		if strings.HasPrefix(trimmed, "/") {
			rule.anchored = true
			trimmed = trimmed[1:]
		}
		if strings.HasSuffix(trimmed, "/") {
			rule.dirOnly = true
			trimmed = strings.TrimSuffix(trimmed, "/")
		}
		rule.pattern = trimmed
		rules = append(rules, rule)
	}
	return rules
}

// IsBuiltinExcluded reports whether basename matches Tier A, the always-on
// built-in exact-name set.
func IsBuiltinExcluded(basename string) bool {
	for _, n := range builtinIgnoreNames {
		if basename == n {
			return true
		}
	}
	return false
}

// ShouldExclude decides, for a single candidate path relative to the
// extraction source root, whether it should be left out. isDir indicates
// whether the candidate is a directory; directories are matched under both
// "name" and "name/" forms by matchesRule.
func (e *IgnoreEngine) ShouldExclude(relPath string, isDir bool) bool {
	relPath = filepath.ToSlash(relPath)
	base := relPath
	if idx := strings.LastIndex(relPath, "/"); idx >= 0 {
		base = relPath[idx+1:]
	}

	if IsBuiltinExcluded(base) {
		return true
	}

	excluded := false
	for _, rule := range e.projectGlobal {
		if matchesRule(rule, relPath, isDir) {
			excluded = !rule.negate
		}
	}
	for _, rule := range e.perLibrary {
		if matchesRule(rule, relPath, isDir) {
			excluded = !rule.negate
		}
	}
	return excluded
}

// matchesRule tests a path under both the bare and trailing-slash forms, to
// paper over gitignore-library disagreement on whether "foo" matches a
// directory.
func matchesRule(rule ignoreRule, relPath string, isDir bool) bool {
	if rule.dirOnly && !isDir {
		return false
	}

	candidates := []string{relPath}
	if isDir {
		candidates = append(candidates, relPath+"/")
	}

	for _, candidate := range candidates {
		if matchGlob(candidate, rule.pattern) {
			return true
		}
		if !rule.anchored {
			// Unanchored patterns match at any depth — try every suffix
			// starting at a path-component boundary.
			for i := 0; i <= len(candidate); i++ {
				if i > 0 && candidate[i-1] != '/' {
					continue
				}
				if matchGlob(candidate[i:], rule.pattern) {
					return true
				}
			}
		}
	}
	return false
}

// matchGlob matches a path against a single gitignore-style glob pattern
// with "**" support. Both path and pattern are forward-slash normalized.
func matchGlob(path, pattern string) bool {
	if !strings.Contains(pattern, "**") {
		return matchSimple(path, pattern)
	}
	return matchDoublestar(path, pattern)
}

func matchDoublestar(path, pattern string) bool {
	parts := strings.SplitN(pattern, "**", 2)
	prefix := strings.TrimSuffix(parts[0], "/")
	suffix := strings.TrimPrefix(parts[1], "/")

	if suffix == "" {
		if prefix == "" {
			return true
		}
		return path == prefix || strings.HasPrefix(path, prefix+"/")
	}

	if prefix == "" {
		if matchGlob(path, suffix) {
			return true
		}
		for i := 0; i < len(path); i++ {
			if path[i] == '/' && matchGlob(path[i+1:], suffix) {
				return true
			}
		}
		return false
	}

	if path != prefix && !strings.HasPrefix(path, prefix+"/") {
		return false
	}
	remaining := strings.TrimPrefix(strings.TrimPrefix(path, prefix), "/")
	if matchGlob(remaining, suffix) {
		return true
	}
	for i := 0; i < len(remaining); i++ {
		if remaining[i] == '/' && matchGlob(remaining[i+1:], suffix) {
			return true
		}
	}
	return false
}

// matchSimple matches a path against a pattern without "**", converting both
// to OS-native separators so "*" never silently crosses directory boundaries
// on platforms where filepath.Match treats "\" as the separator.
func matchSimple(path, pattern string) bool {
	matched, _ := filepath.Match(filepath.FromSlash(pattern), filepath.FromSlash(path))
	return matched
}

// IsForcedPreserve reports whether relPath (relative to source_path) must be
// kept regardless of tier matches: any LICENSE*/COPYING*/NOTICE* file found
// within source_path, when checkin is true.
func (e *IgnoreEngine) IsForcedPreserve(relPath string) bool {
	if !e.forcePreserve {
		return false
	}
	base := filepath.Base(filepath.ToSlash(relPath))
	upper := strings.ToUpper(base)
	for _, prefix := range []string{"LICENSE", "COPYING", "NOTICE"} {
		if strings.HasPrefix(upper, prefix) {
			return true
		}
	}
	return false
}
