package main

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"k8s.io/apimachinery/pkg/util/sets"
	"sigs.k8s.io/controller-runtime/pkg/log"

	licensetreev1alpha1 "github.com/bayleafwalker/licensetree/api/v1alpha1"
	"github.com/bayleafwalker/licensetree/internal/graph"
	"github.com/bayleafwalker/licensetree/internal/manifest"
	"github.com/bayleafwalker/licensetree/internal/report"
	"github.com/bayleafwalker/licensetree/internal/resolver"
)

// runCheck checks packages and prints one line per package, followed by the
// annotated tree for every failing one.
func runCheck(ctx context.Context, w io.Writer, r resolver.Resolver, packages []string, jobs int) int {
	results, err := resolver.CheckAll(ctx, r, packages, jobs)
	if err != nil {
		log.FromContext(ctx).Error(err, "license check aborted")
		return exitError
	}

	for _, res := range results {
		switch {
		case res.Err != nil:
			fmt.Fprintf(w, "ERROR %s: %v\n", res.Package, res.Err)
		case res.Passed:
			fmt.Fprintf(w, "PASS  %s [%s]\n", res.Package, strings.Join(res.Licenses, ", "))
		default:
			fmt.Fprintf(w, "FAIL  %s: no suitable license found\n", res.Package)
			_ = res.Tree.Dump(w)
		}
	}

	if err := resolver.Errors(results); err != nil {
		log.FromContext(ctx).Error(err, "some packages could not be checked")
		return exitError
	}
	if failed := resolver.Failed(results); len(failed) > 0 {
		log.FromContext(ctx).Info("license check failed", "packages", failed)
		return exitFail
	}
	return exitPass
}

type treeBuilder interface {
	resolver.Resolver
	CreateTree(ctx context.Context, pkg string) (*graph.Node, error)
	Propagate(ctx context.Context, node *graph.Node) (sets.Set[string], error)
}

// runTree prints the tree of pkg as read from package metadata and again after
// license propagation.
func runTree(ctx context.Context, w io.Writer, r treeBuilder, pkg string) int {
	tree, err := r.CreateTree(ctx, pkg)
	if err != nil {
		log.FromContext(ctx).Error(err, "unable to build dependency tree", "package", pkg)
		return exitError
	}
	fmt.Fprintln(w, "# dependency tree")
	_ = tree.Dump(w)

	licenses, err := r.Propagate(ctx, tree)
	if err != nil {
		log.FromContext(ctx).Error(err, "unable to propagate licenses", "package", pkg)
		return exitError
	}
	fmt.Fprintln(w, "# after propagation")
	_ = tree.Dump(w)

	if licenses.Len() == 0 {
		return exitFail
	}
	return exitPass
}

// runManifest checks the packages of an image manifest and writes a
// LicenseCheckReport to reportPath, or to w when reportPath is empty.
func runManifest(ctx context.Context, w io.Writer, r resolver.Resolver, policy *licensetreev1alpha1.LicensePolicy, path string, jobs int, reportPath string) int {
	logger := log.FromContext(ctx).WithValues("manifest", path)

	entries, err := manifest.ParseFile(path)
	if err != nil {
		logger.Error(err, "unable to read manifest")
		return exitError
	}
	checked, skipped := manifest.Filter(entries, policy.Spec.SkipPrefixes)
	packages := manifest.Packages(checked)
	logger.Info("checking image packages", "packages", len(packages), "skipped", len(skipped))

	results, err := resolver.CheckAll(ctx, r, packages, jobs)
	if err != nil {
		logger.Error(err, "license check aborted")
		return exitError
	}

	b := &report.Builder{
		Name:       reportName(path),
		PolicyName: policy.Name,
		Manifest:   path,
		Prohibited: policy.Spec.Prohibited,
	}
	rep := b.Build(results, manifest.Packages(skipped))
	if reportPath != "" {
		err = report.WriteFile(reportPath, rep)
	} else {
		err = report.Write(w, rep)
	}
	if err != nil {
		logger.Error(err, "unable to write report")
		return exitError
	}

	switch {
	case rep.Status.Summary.Errored > 0:
		return exitError
	case !report.IsCompliant(rep):
		logger.Info("license check failed", "packages", resolver.Failed(results))
		return exitFail
	default:
		return exitPass
	}
}

// reportName derives a report name from the manifest's directory, which image
// builds name after the image.
func reportName(manifestPath string) string {
	dir := filepath.Base(filepath.Dir(manifestPath))
	if dir == "." || dir == string(filepath.Separator) {
		return "license-check"
	}
	return strings.ToLower(dir)
}
