// Package semver implements the version-number algebra for the release
// pipeline.
//
// Two shapes are accepted: a plain release version "MAJOR.MINOR.PATCH"
// and a development version "MAJOR.MINOR.PATCH.devN". Anything else is
// rejected with model.ErrInvalidVersion — a malformed version is a fatal
// input error for the package being processed, never guessed or repaired.
//
// All functions are pure: a Version is an immutable value and bumping
// produces a new one.
package semver

import (
	"fmt"
	"regexp"
	"strconv"

	"github.com/mmr-tortoise/drover/internal/model"
)

// versionRe matches both accepted shapes. The dev suffix group is
// optional; when present, the devN counter is captured separately.
var versionRe = regexp.MustCompile(`^(\d+)\.(\d+)\.(\d+)(?:\.dev(\d+))?$`)

// Version is an immutable parsed version value.
type Version struct {
	Major int
	Minor int
	Patch int

	// Dev is the development cycle counter. Only meaningful when
	// IsDev is true.
	Dev int

	// IsDev reports whether the version carries a .devN suffix.
	IsDev bool
}

// Parse constructs a Version from its string form. Strings not matching
// either accepted shape fail with model.ErrInvalidVersion.
func Parse(s string) (Version, error) {
	m := versionRe.FindStringSubmatch(s)
	if m == nil {
		return Version{}, fmt.Errorf("%w: %q", model.ErrInvalidVersion, s)
	}

	// The regexp guarantees each group is a run of digits, so Atoi can
	// only fail on overflow, which we treat the same as a bad shape.
	major, err := strconv.Atoi(m[1])
	if err != nil {
		return Version{}, fmt.Errorf("%w: %q", model.ErrInvalidVersion, s)
	}
	minor, err := strconv.Atoi(m[2])
	if err != nil {
		return Version{}, fmt.Errorf("%w: %q", model.ErrInvalidVersion, s)
	}
	patch, err := strconv.Atoi(m[3])
	if err != nil {
		return Version{}, fmt.Errorf("%w: %q", model.ErrInvalidVersion, s)
	}

	v := Version{Major: major, Minor: minor, Patch: patch}
	if m[4] != "" {
		dev, err := strconv.Atoi(m[4])
		if err != nil {
			return Version{}, fmt.Errorf("%w: %q", model.ErrInvalidVersion, s)
		}
		v.Dev = dev
		v.IsDev = true
	}
	return v, nil
}

// String renders the version back to its canonical string form.
func (v Version) String() string {
	if v.IsDev {
		return fmt.Sprintf("%d.%d.%d.dev%d", v.Major, v.Minor, v.Patch, v.Dev)
	}
	return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
}

// Compare orders two versions numerically. A development version sorts
// below the release it leads up to ("1.2.3.dev4" < "1.2.3"), matching
// the usual pre-release convention.
func (v Version) Compare(o Version) int {
	if c := cmp(v.Major, o.Major); c != 0 {
		return c
	}
	if c := cmp(v.Minor, o.Minor); c != 0 {
		return c
	}
	if c := cmp(v.Patch, o.Patch); c != 0 {
		return c
	}
	switch {
	case v.IsDev && !o.IsDev:
		return -1
	case !v.IsDev && o.IsDev:
		return 1
	case v.IsDev && o.IsDev:
		return cmp(v.Dev, o.Dev)
	default:
		return 0
	}
}

func cmp(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// Bump returns the successor of v under the requested kind.
//
// For patch/minor/major the dev suffix, if present, is dropped and the
// corresponding component incremented with lower-order components reset
// to zero. Exception: a patch bump of a dev version only strips the
// suffix without incrementing patch — finishing the current dev cycle is
// the terminal release of that cycle, not the next one.
//
// A dev bump increments the devN counter. Requesting a dev bump of a
// version without a dev suffix is an error: there is no defined "first
// dev bump" without a target cycle.
func (v Version) Bump(kind model.BumpKind) (Version, error) {
	switch kind {
	case model.BumpPatch:
		if v.IsDev {
			return Version{Major: v.Major, Minor: v.Minor, Patch: v.Patch}, nil
		}
		return Version{Major: v.Major, Minor: v.Minor, Patch: v.Patch + 1}, nil
	case model.BumpMinor:
		return Version{Major: v.Major, Minor: v.Minor + 1}, nil
	case model.BumpMajor:
		return Version{Major: v.Major + 1}, nil
	case model.BumpDev:
		if !v.IsDev {
			return Version{}, fmt.Errorf("dev bump of non-development version %s: %w", v, model.ErrInvalidVersion)
		}
		return Version{Major: v.Major, Minor: v.Minor, Patch: v.Patch, Dev: v.Dev + 1, IsDev: true}, nil
	default:
		return Version{}, fmt.Errorf("unknown bump kind %q", kind)
	}
}

// BumpString parses s, bumps it, and renders the result. Parse failures
// propagate unchanged.
func BumpString(s string, kind model.BumpKind) (string, error) {
	v, err := Parse(s)
	if err != nil {
		return "", err
	}
	next, err := v.Bump(kind)
	if err != nil {
		return "", err
	}
	return next.String(), nil
}

// NextDevelopment returns the version that opens the development cycle
// following a just-published release. If the release itself carried a dev
// suffix, the same cycle continues with devN+1. Otherwise a new cycle
// opens one patch ahead with dev0.
func NextDevelopment(release Version) Version {
	if release.IsDev {
		return Version{
			Major: release.Major,
			Minor: release.Minor,
			Patch: release.Patch,
			Dev:   release.Dev + 1,
			IsDev: true,
		}
	}
	return Version{
		Major: release.Major,
		Minor: release.Minor,
		Patch: release.Patch + 1,
		IsDev: true,
	}
}

// NextDevelopmentString is the string-in string-out form of
// NextDevelopment.
func NextDevelopmentString(release string) (string, error) {
	v, err := Parse(release)
	if err != nil {
		return "", err
	}
	return NextDevelopment(v).String(), nil
}
