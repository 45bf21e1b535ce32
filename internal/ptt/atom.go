package ptt

import (
	"fmt"
	"regexp"
	"strings"
)

// Atom handling. Atoms arrive pre-validated ("=app-misc/foo-1.2.3"); these
// helpers only peel an atom down to the parts the emerge command line needs.

var (
	versionRe  = regexp.MustCompile(`^\d+(\.\d+)*[a-z]?(_(alpha|beta|pre|rc|p)\d*)*$`)
	revisionRe = regexp.MustCompile(`^r\d+$`)
)

// depGetCPV strips the version operator and any slot/use/repo suffix from an
// atom, yielding the bare category/name-version string.
func depGetCPV(atom string) string {
	cpv := strings.TrimPrefix(atom, "!")
	for _, op := range []string{">=", "<=", ">", "<", "=", "~"} {
		if strings.HasPrefix(cpv, op) {
			cpv = strings.TrimPrefix(cpv, op)
			break
		}
	}
	if i := strings.IndexAny(cpv, ":["); i >= 0 {
		cpv = cpv[:i]
	}
	cpv = strings.TrimSuffix(cpv, "*")
	return cpv
}

// pkgSplit splits a category/name-version string into its category/name part
// and its version (with any -rN revision re-attached). It mirrors how the
// package manager itself splits versions: the version starts at the first
// hyphen-separated component that looks like a version number.
func pkgSplit(cpv string) (cp string, version string, err error) {
	parts := strings.Split(cpv, "-")
	if len(parts) < 2 {
		return "", "", fmt.Errorf("no version in %q", cpv)
	}

	idx := len(parts) - 1
	if revisionRe.MatchString(parts[idx]) && len(parts) >= 3 {
		idx--
	}
	if !versionRe.MatchString(parts[idx]) {
		return "", "", fmt.Errorf("cannot split version out of %q", cpv)
	}

	cp = strings.Join(parts[:idx], "-")
	version = strings.Join(parts[idx:], "-")
	if cp == "" {
		return "", "", fmt.Errorf("empty package name in %q", cpv)
	}
	return cp, version, nil
}

// baseName derives the category/name of an atom, used for the
// prebuilt-binary exclusion list.
func baseName(atom string) (string, error) {
	cp, _, err := pkgSplit(depGetCPV(atom))
	if err != nil {
		return "", fmt.Errorf("invalid package atom %q: %w", atom, err)
	}
	return cp, nil
}
