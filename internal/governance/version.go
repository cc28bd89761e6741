package governance

import (
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/mod/semver"
)

// Bump is a semantic-version increment. Values are ordered by severity.
type Bump int

const (
	BumpNone Bump = iota
	BumpPatch
	BumpMinor
	BumpMajor
)

// String returns the lower-case bump name.
func (b Bump) String() string {
	switch b {
	case BumpMajor:
		return "major"
	case BumpMinor:
		return "minor"
	case BumpPatch:
		return "patch"
	default:
		return "none"
	}
}

// ParseBump parses a bump name.
func ParseBump(s string) (Bump, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "major":
		return BumpMajor, nil
	case "minor":
		return BumpMinor, nil
	case "patch":
		return BumpPatch, nil
	case "none", "":
		return BumpNone, nil
	default:
		return BumpNone, fmt.Errorf("unknown version bump %q", s)
	}
}

// MarshalText implements encoding.TextMarshaler.
func (b Bump) MarshalText() ([]byte, error) {
	return []byte(b.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (b *Bump) UnmarshalText(text []byte) error {
	parsed, err := ParseBump(string(text))
	if err != nil {
		return err
	}
	*b = parsed
	return nil
}

// PlanBump returns the bump mandated by the highest-severity non-empty
// partition. Approved breaking changes still force a major bump; refactors
// never force one.
func PlanBump(r Result) Bump {
	switch {
	case len(r.Breaking) > 0:
		return BumpMajor
	case len(r.Additive) > 0:
		return BumpMinor
	case len(r.DocsOnly) > 0:
		return BumpPatch
	default:
		return BumpNone
	}
}

// CheckConsistency reports whether a declared bump covers the required one.
// Over-bumping is allowed, under-bumping is not.
func CheckConsistency(declared, required Bump) bool {
	return declared >= required
}

type version struct {
	prefix              string
	major, minor, patch int
	// canonical is the trimmed version in semver.Canonical form.
	canonical string
}

func parseVersion(s string) (version, error) {
	s = strings.TrimSpace(s)
	prefix := ""
	v := s
	if strings.HasPrefix(s, "v") {
		prefix = "v"
	} else {
		v = "v" + s
	}
	if !semver.IsValid(v) {
		return version{}, fmt.Errorf("invalid semantic version %q", s)
	}

	core := strings.TrimPrefix(semver.Canonical(v), "v")
	core = strings.TrimSuffix(core, semver.Build(v))
	core = strings.TrimSuffix(core, semver.Prerelease(v))

	parts := strings.Split(core, ".")
	nums := make([]int, 3)
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil {
			return version{}, fmt.Errorf("invalid semantic version %q: %w", s, err)
		}
		nums[i] = n
	}
	return version{prefix: prefix, major: nums[0], minor: nums[1], patch: nums[2], canonical: semver.Canonical(v)}, nil
}

func (v version) String() string {
	return fmt.Sprintf("%s%d.%d.%d", v.prefix, v.major, v.minor, v.patch)
}

// NextVersion applies b to current and returns the new version, keeping a
// leading "v" if current had one. Pre-release and build metadata are
// dropped.
func NextVersion(current string, b Bump) (string, error) {
	v, err := parseVersion(current)
	if err != nil {
		return "", err
	}
	switch b {
	case BumpMajor:
		v.major, v.minor, v.patch = v.major+1, 0, 0
	case BumpMinor:
		v.minor, v.patch = v.minor+1, 0
	case BumpPatch:
		v.patch++
	}
	return v.String(), nil
}

// DeclaredBump infers the bump an author declared by moving from previous
// to proposed. A proposed version lower than previous is an error.
func DeclaredBump(previous, proposed string) (Bump, error) {
	prev, err := parseVersion(previous)
	if err != nil {
		return BumpNone, err
	}
	next, err := parseVersion(proposed)
	if err != nil {
		return BumpNone, err
	}

	if semver.Compare(next.canonical, prev.canonical) < 0 {
		return BumpNone, fmt.Errorf("proposed version %s is lower than %s", strings.TrimSpace(proposed), strings.TrimSpace(previous))
	}

	switch {
	case next.major != prev.major:
		return BumpMajor, nil
	case next.minor != prev.minor:
		return BumpMinor, nil
	case next.patch != prev.patch:
		return BumpPatch, nil
	default:
		return BumpNone, nil
	}
}
