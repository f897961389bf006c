package resolver

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"k8s.io/apimachinery/pkg/util/sets"
	"sigs.k8s.io/controller-runtime/pkg/log"

	"github.com/bayleafwalker/licensetree/internal/graph"
	"github.com/bayleafwalker/licensetree/internal/license"
	"github.com/bayleafwalker/licensetree/internal/metrics"
	"github.com/bayleafwalker/licensetree/internal/pkgdata"
	"github.com/bayleafwalker/licensetree/internal/semver"
)

// MetadataProvider is the subset of *pkgdata.Provider the resolver needs.
type MetadataProvider interface {
	Recipe(ctx context.Context, pkg string) (string, error)
	License(ctx context.Context, pkg string) (string, error)
	Version(ctx context.Context, pkg string) (string, error)
	RuntimeDependencies(ctx context.Context, pkg string) ([]pkgdata.Dependency, error)
}

// LicenseResolver builds the runtime dependency tree of a package and
// propagates license constraints bottom-up to find the outbound licenses the
// package may be distributed under.
type LicenseResolver struct {
	provider      MetadataProvider
	tables        *license.Tables
	prohibited    sets.Set[string]
	whitelist     sets.Set[string]
	maxIterations int
	checkVersions bool
}

var _ Resolver = (*LicenseResolver)(nil)

func NewLicenseResolver(provider MetadataProvider, opts Options) *LicenseResolver {
	r := &LicenseResolver{
		provider:      provider,
		tables:        opts.Tables,
		prohibited:    opts.Prohibited,
		whitelist:     opts.Whitelist,
		maxIterations: opts.MaxSolverIterations,
		checkVersions: opts.CheckVersionConstraints,
	}
	if r.tables == nil {
		r.tables = license.DefaultTables()
	}
	if r.prohibited == nil {
		r.prohibited = sets.New[string]()
	}
	if r.whitelist == nil {
		r.whitelist = sets.New[string]()
	}
	if r.maxIterations <= 0 {
		r.maxIterations = DefaultMaxSolverIterations
	}
	return r
}

func (r *LicenseResolver) Resolve(ctx context.Context, in Input) (Result, error) {
	if in.Package == "" {
		return Result{}, ErrEmptyPackageName
	}
	logger := log.FromContext(ctx).WithValues("package", in.Package)
	ctx = log.IntoContext(ctx, logger)
	start := time.Now()

	var diag Diagnostics
	tree, err := r.createTree(ctx, in.Package, &diag)
	if err != nil {
		metrics.PackagesCheckedTotal.WithLabelValues(metrics.ResultError).Inc()
		return Result{}, err
	}
	licenses, err := r.Propagate(ctx, tree)
	metrics.ResolutionDuration.Observe(time.Since(start).Seconds())
	metrics.TreeNodes.Observe(float64(tree.Len()))
	if err != nil {
		metrics.PackagesCheckedTotal.WithLabelValues(metrics.ResultError).Inc()
		return Result{}, fmt.Errorf("resolve %s: %w", in.Package, err)
	}

	res := Result{
		Package:     in.Package,
		Passed:      licenses.Len() > 0,
		Licenses:    sets.List(licenses),
		Tree:        tree,
		Diagnostics: diag,
	}
	if res.Passed {
		metrics.PackagesCheckedTotal.WithLabelValues(metrics.ResultPass).Inc()
	} else {
		metrics.PackagesCheckedTotal.WithLabelValues(metrics.ResultFail).Inc()
	}
	logger.V(1).Info("resolved package", "passed", res.Passed, "licenses", res.Licenses, "nodes", tree.Len())
	return res, nil
}

// TestPackage reports whether pkg may be distributed under at least one
// license. A failing package is logged together with its tree.
func (r *LicenseResolver) TestPackage(ctx context.Context, pkg string) (bool, error) {
	res, err := r.Resolve(ctx, Input{Package: pkg})
	if err != nil {
		return false, err
	}
	if !res.Passed {
		log.FromContext(ctx).Info("no suitable license found", "package", pkg, "tree", res.Tree.DumpString())
	}
	return res.Passed, nil
}

// CreateTree builds the runtime dependency tree of pkg without propagating it.
func (r *LicenseResolver) CreateTree(ctx context.Context, pkg string) (*graph.Node, error) {
	var diag Diagnostics
	return r.createTree(ctx, pkg, &diag)
}

func (r *LicenseResolver) createTree(ctx context.Context, pkg string, diag *Diagnostics) (*graph.Node, error) {
	return r.buildNode(ctx, pkg, "", []string{pkg}, diag)
}

// buildNode reads the metadata of name and recurses into its runtime
// dependencies. chain holds the ancestors of name including name itself.
func (r *LicenseResolver) buildNode(ctx context.Context, name, constraint string, chain []string, diag *Diagnostics) (*graph.Node, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	node := graph.NewNode(name, nil)
	node.Constraint = constraint

	raw, err := r.provider.License(ctx, name)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		r.failClosed(ctx, node, err, diag)
	} else {
		node.Licenses = r.tables.Parse(raw)
	}

	deps, err := r.provider.RuntimeDependencies(ctx, name)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		r.failClosed(ctx, node, err, diag)
		return node, nil
	}

	for _, dep := range deps {
		if r.whitelisted(ctx, dep.Name, diag) {
			diag.Whitelisted = append(diag.Whitelisted, Edge{From: name, To: dep.Name})
			continue
		}
		if slices.Contains(chain, dep.Name) {
			diag.DroppedCycles = append(diag.DroppedCycles, Edge{From: name, To: dep.Name})
			continue
		}
		if r.checkVersions && dep.Constraint != "" {
			r.checkConstraint(ctx, name, dep, diag)
		}
		child, err := r.buildNode(ctx, dep.Name, dep.Constraint, append(chain[:len(chain):len(chain)], dep.Name), diag)
		if err != nil {
			return nil, err
		}
		node.Children = append(node.Children, child)
	}
	return node, nil
}

// whitelisted reports whether pkg was built by a whitelisted recipe. A
// package whose recipe cannot be determined is not whitelisted.
func (r *LicenseResolver) whitelisted(ctx context.Context, pkg string, diag *Diagnostics) bool {
	if r.whitelist.Len() == 0 {
		return false
	}
	recipe, err := r.provider.Recipe(ctx, pkg)
	if err != nil {
		log.FromContext(ctx).V(1).Info("cannot determine recipe, following dependency", "dependency", pkg, "error", err.Error())
		diag.LookupFailures = append(diag.LookupFailures, lookupFailure(pkg, err))
		return false
	}
	return r.whitelist.Has(recipe)
}

func (r *LicenseResolver) failClosed(ctx context.Context, node *graph.Node, err error, diag *Diagnostics) {
	log.FromContext(ctx).Info("package metadata lookup failed, treating package as unlicensed", "node", node.Name, "error", err.Error())
	node.Licenses = sets.New[string]()
	if node.LookupErr == nil {
		node.LookupErr = err
	}
	diag.LookupFailures = append(diag.LookupFailures, lookupFailure(node.Name, err))
}

func lookupFailure(pkg string, err error) LookupFailure {
	f := LookupFailure{Package: pkg, Reason: err.Error()}
	var le *pkgdata.LookupError
	if errors.As(err, &le) {
		f.Query = string(le.Query)
	}
	return f
}

func (r *LicenseResolver) checkConstraint(ctx context.Context, parent string, dep pkgdata.Dependency, diag *Diagnostics) {
	logger := log.FromContext(ctx).WithValues("dependency", dep.Name, "constraint", dep.Constraint)

	c, err := semver.ParseDependencyConstraint(dep.Constraint)
	if err != nil {
		logger.V(1).Info("skipping unparseable version constraint", "error", err.Error())
		return
	}
	raw, err := r.provider.Version(ctx, dep.Name)
	if err != nil {
		logger.V(1).Info("cannot read dependency version", "error", err.Error())
		return
	}
	v, err := semver.ParsePackageVersion(raw)
	if err != nil {
		logger.V(1).Info("skipping unparseable dependency version", "version", raw, "error", err.Error())
		return
	}
	if !semver.Satisfies(v, c) {
		logger.Info("runtime dependency version does not satisfy constraint", "package", parent, "version", raw)
		diag.VersionMismatches = append(diag.VersionMismatches, VersionMismatch{
			Package:    parent,
			Dependency: dep.Name,
			Constraint: dep.Constraint,
			Version:    raw,
		})
	}
}

// Propagate computes the outbound licenses of every node below and including
// node, children first, and records them on the nodes.
func (r *LicenseResolver) Propagate(ctx context.Context, node *graph.Node) (sets.Set[string], error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(node.Children) == 0 {
		out := node.Licenses.Difference(r.prohibited)
		node.SetPropagated(out)
		return out, nil
	}

	constraints := make([]sets.Set[string], 0, len(node.Children))
	for _, child := range node.Children {
		c, err := r.Propagate(ctx, child)
		if err != nil {
			return nil, err
		}
		constraints = append(constraints, c)
	}
	out, err := r.resolveConstraints(constraints, node.Licenses)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", node.Name, err)
	}
	node.SetPropagated(out)
	return out, nil
}

// resolveConstraints narrows candidates to the outbound licenses that can
// accept one alternative of every constraint. Candidates that can only
// accept a dependency by degrading add the dependency's alternatives as new
// candidates and are themselves dropped from the result. Rounds repeat until
// the candidate set stops changing.
func (r *LicenseResolver) resolveConstraints(constraints []sets.Set[string], candidates sets.Set[string]) (sets.Set[string], error) {
	candidates = candidates.Clone()
	degraded := sets.New[string]()

	for round := 1; ; round++ {
		if candidates.Len() == 0 || degraded.IsSuperset(candidates) {
			metrics.SolverIterations.Observe(float64(round))
			return sets.New[string](), nil
		}
		if round > r.maxIterations {
			return nil, fmt.Errorf("%w (%d rounds)", ErrIterationLimit, r.maxIterations)
		}

		removed := sets.New[string]()
		added := sets.New[string]()
		for l := range candidates {
			feasible := true
			pending := sets.New[string]()
			for _, dep := range constraints {
				ok, degrade := r.tables.Accepts(l, dep)
				if !ok {
					feasible = false
					break
				}
				pending = pending.Union(degrade)
			}
			switch {
			case !feasible:
				removed.Insert(l)
			case pending.Len() > 0 && !degraded.Has(l):
				added = added.Union(pending)
				degraded.Insert(l)
			}
		}

		next := candidates.Union(added).Difference(removed)
		if next.Equal(candidates) {
			metrics.SolverIterations.Observe(float64(round))
			return candidates.Difference(degraded).Difference(r.prohibited), nil
		}
		candidates = next
	}
}
