package resolver

import "errors"

var (
	// ErrIterationLimit indicates the constraint solver did not reach a fixed
	// point within the configured number of rounds. The compatibility tables
	// most likely contain a degrade cycle.
	ErrIterationLimit = errors.New("license constraint solver exceeded its iteration limit")
	// ErrEmptyPackageName is returned for an Input without a package.
	ErrEmptyPackageName = errors.New("package name is empty")
)
