package semver

import (
	"fmt"
	"strings"

	mm "github.com/Masterminds/semver/v3"
)

// Version is a semantic version.
//
// This is a thin wrapper around github.com/Masterminds/semver/v3. Package
// versions found in package metadata should go through NormalizeVersion first.
type Version struct {
	v *mm.Version
}

// Constraint is a semantic version constraint.
//
// Examples:
// - ">=2.26"
// - "<3.0.0"
// - "=1.2.11"
type Constraint struct {
	c *mm.Constraints
}

func ParseVersion(raw string) (Version, error) {
	v, err := mm.NewVersion(raw)
	if err != nil {
		return Version{}, fmt.Errorf("semver: parse version %q: %w", raw, err)
	}
	return Version{v: v}, nil
}

func MustParseVersion(raw string) Version {
	v, err := ParseVersion(raw)
	if err != nil {
		panic(err)
	}
	return v
}

// ParsePackageVersion normalizes a package version and parses it.
func ParsePackageVersion(raw string) (Version, error) {
	return ParseVersion(NormalizeVersion(raw))
}

func ParseConstraint(raw string) (Constraint, error) {
	c, err := mm.NewConstraint(raw)
	if err != nil {
		return Constraint{}, fmt.Errorf("semver: parse constraint %q: %w", raw, err)
	}
	return Constraint{c: c}, nil
}

func MustParseConstraint(raw string) Constraint {
	c, err := ParseConstraint(raw)
	if err != nil {
		panic(err)
	}
	return c
}

func Satisfies(v Version, c Constraint) bool {
	if v.v == nil || c.c == nil {
		return false
	}
	return c.c.Check(v.v)
}

func (v Version) String() string {
	if v.v == nil {
		return ""
	}
	return v.v.String()
}

func (c Constraint) String() string {
	if c.c == nil {
		return ""
	}
	return c.c.String()
}

// debianOperators maps the relational operators used in RDEPENDS version
// constraints to their semver equivalents. Longest operators come first.
var debianOperators = []struct{ from, to string }{
	{">=", ">="},
	{"<=", "<="},
	{">>", ">"},
	{"<<", "<"},
	{"=", "="},
	{">", ">"},
	{"<", "<"},
}

// ParseDependencyConstraint parses a package-manager style dependency
// constraint such as "(>= 2.26)" or "(<< 1:3.0-r1)". A bare version means
// equality.
func ParseDependencyConstraint(raw string) (Constraint, error) {
	s := strings.TrimSpace(raw)
	s = strings.TrimSuffix(strings.TrimPrefix(s, "("), ")")
	s = strings.TrimSpace(s)

	op := "="
	for _, candidate := range debianOperators {
		if strings.HasPrefix(s, candidate.from) {
			op = candidate.to
			s = strings.TrimSpace(s[len(candidate.from):])
			break
		}
	}
	if s == "" {
		return Constraint{}, fmt.Errorf("semver: parse dependency constraint %q: missing version", raw)
	}
	return ParseConstraint(op + NormalizeVersion(s))
}

// NormalizeVersion strips the parts of a package version that semver has no
// notion of: the epoch ("1:"), the package revision ("-r0") and anything after
// a "+" or "~" (source revision suffixes like "+gitAUTOINC+abc").
func NormalizeVersion(raw string) string {
	v := strings.TrimSpace(raw)
	if i := strings.IndexByte(v, ':'); i >= 0 {
		v = v[i+1:]
	}
	if i := strings.IndexAny(v, "+~"); i >= 0 {
		v = v[:i]
	}
	if i := strings.LastIndex(v, "-r"); i >= 0 && isDigits(v[i+2:]) {
		v = v[:i]
	}
	return v
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
