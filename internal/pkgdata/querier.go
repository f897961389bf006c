// Package pkgdata provides cached access to the package metadata of an
// OpenEmbedded build: recipe names, LICENSE values, runtime dependencies and
// package versions, as reported by oe-pkgdata-util.
package pkgdata

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"sigs.k8s.io/controller-runtime/pkg/log"
)

// Query names one kind of metadata lookup. The values match the
// oe-pkgdata-util subcommands they are served by.
type Query string

const (
	QueryRecipe   Query = "lookup-recipe"
	QueryPackage  Query = "lookup-pkg"
	QueryRdepends Query = "read-value RDEPENDS"
	QueryLicense  Query = "read-value LICENSE"
	QueryVersion  Query = "read-value PKGV"
)

const (
	// DefaultBinary is the tool used to read pkgdata from a build directory.
	DefaultBinary = "oe-pkgdata-util"
	// DefaultQueryTimeout bounds a single external query.
	DefaultQueryTimeout = 30 * time.Second

	stderrLimit = 8 << 10 // 8 KiB
)

// Querier answers raw metadata queries. Implementations must be safe for
// concurrent use.
type Querier interface {
	// LookupRecipe returns the recipe that produced a binary package.
	LookupRecipe(ctx context.Context, pkg string) (string, error)
	// LookupPackage maps a recipe-space package name to the runtime package
	// name it was packaged under.
	LookupPackage(ctx context.Context, name string) (string, error)
	// ReadValue returns the value of a pkgdata variable for a package.
	ReadValue(ctx context.Context, variable, pkg string) (string, error)
}

// ExecQuerier runs oe-pkgdata-util for every query.
type ExecQuerier struct {
	// Binary is the tool name or path. Defaults to DefaultBinary.
	Binary string
	// PkgdataDir is passed as -p when set. Without it the tool must run in an
	// initialized build environment.
	PkgdataDir string
	// Timeout bounds each invocation. Defaults to DefaultQueryTimeout.
	Timeout time.Duration
}

var _ Querier = (*ExecQuerier)(nil)

func (q *ExecQuerier) LookupRecipe(ctx context.Context, pkg string) (string, error) {
	out, err := q.run(ctx, "lookup-recipe", pkg)
	return strings.TrimSpace(out), err
}

func (q *ExecQuerier) LookupPackage(ctx context.Context, name string) (string, error) {
	out, err := q.run(ctx, "lookup-pkg", name)
	return strings.TrimSpace(out), err
}

func (q *ExecQuerier) ReadValue(ctx context.Context, variable, pkg string) (string, error) {
	out, err := q.run(ctx, "read-value", variable, pkg)
	return strings.TrimSpace(out), err
}

func (q *ExecQuerier) run(ctx context.Context, args ...string) (string, error) {
	binary := q.Binary
	if binary == "" {
		binary = DefaultBinary
	}
	binaryPath, err := exec.LookPath(binary)
	if err != nil {
		return "", fmt.Errorf("%s not found on PATH; source the build environment or pass --pkgdata-util", binary)
	}

	timeout := q.Timeout
	if timeout <= 0 {
		timeout = DefaultQueryTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	argv := make([]string, 0, len(args)+2)
	if q.PkgdataDir != "" {
		argv = append(argv, "-p", q.PkgdataDir)
	}
	argv = append(argv, args...)

	var stdout, stderr bytes.Buffer
	command := exec.CommandContext(ctx, binaryPath, argv...)
	command.Stdout = &stdout
	command.Stderr = &stderr

	log.FromContext(ctx).V(2).Info("executing", "command", command.String())

	if err := command.Run(); err != nil {
		// Normalize so callers can errors.Is(..., context.DeadlineExceeded).
		if ctx.Err() != nil {
			err = ctx.Err()
		}
		return "", formatError(binary, argv, &stderr, err)
	}
	return stdout.String(), nil
}

// formatError prefers the tool's stderr, which carries the actual reason,
// over the generic exec error.
func formatError(binary string, argv []string, stderr *bytes.Buffer, err error) error {
	commandString := binary + " " + strings.Join(argv, " ")
	stderrText := strings.TrimSpace(stderr.String())
	if len(stderrText) > stderrLimit {
		stderrText = stderrText[:stderrLimit] + "… (truncated)"
	}
	if stderrText != "" {
		return fmt.Errorf("%s: %w (stderr: %s)", commandString, err, stderrText)
	}
	return fmt.Errorf("%s: %w", commandString, err)
}
