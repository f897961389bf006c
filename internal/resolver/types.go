package resolver

import (
	"k8s.io/apimachinery/pkg/util/sets"

	"github.com/bayleafwalker/licensetree/internal/graph"
	"github.com/bayleafwalker/licensetree/internal/license"
)

// DefaultMaxSolverIterations bounds the fixed-point rounds per tree node.
const DefaultMaxSolverIterations = 1024

// Options is the per-run configuration of a LicenseResolver.
type Options struct {
	// Tables defaults to license.DefaultTables().
	Tables *license.Tables
	// Prohibited licenses never appear in a result, e.g. GPLv3 and LGPLv3.
	Prohibited sets.Set[string]
	// Whitelist holds recipe names whose packages are not followed: depending
	// on them at runtime does not propagate licensing (D-Bus APIs, exec).
	Whitelist sets.Set[string]
	// MaxSolverIterations defaults to DefaultMaxSolverIterations.
	MaxSolverIterations int
	// CheckVersionConstraints compares every versioned runtime dependency
	// against the dependency's PKGV and reports mismatches as diagnostics.
	CheckVersionConstraints bool
}

// Input is the controller-normalized view of a single check.
type Input struct {
	Package string
}

// Result is the outcome of checking one package.
type Result struct {
	Package string
	// Passed is true when at least one outbound license survived.
	Passed bool
	// Licenses are the surviving outbound licenses, sorted.
	Licenses []string
	// Tree is the propagated dependency tree, kept for diagnostics.
	Tree        *graph.Node
	Diagnostics Diagnostics

	// Err is set by CheckAll when the check itself failed.
	Err error
}

// Diagnostics captures human-readable information about a resolution.
//
// This is useful for reports and for logging.
type Diagnostics struct {
	LookupFailures    []LookupFailure
	Whitelisted       []Edge
	DroppedCycles     []Edge
	VersionMismatches []VersionMismatch
}

// Edge is a runtime dependency that was not followed.
type Edge struct {
	From string
	To   string
}

type LookupFailure struct {
	Package string
	Query   string
	Reason  string
}

type VersionMismatch struct {
	Package    string
	Dependency string
	Constraint string
	Version    string
}
