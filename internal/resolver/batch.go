package resolver

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
	utilerrors "k8s.io/apimachinery/pkg/util/errors"
)

// CheckAll resolves every package with at most jobs checks in flight and
// returns the results in input order. A check that fails with an error is
// recorded in Result.Err and does not stop the others; only cancellation of
// ctx aborts the batch.
func CheckAll(ctx context.Context, r Resolver, packages []string, jobs int) ([]Result, error) {
	if jobs < 1 {
		jobs = 1
	}
	results := make([]Result, len(packages))

	var g errgroup.Group
	g.SetLimit(jobs)
	for i, pkg := range packages {
		i, pkg := i, pkg
		g.Go(func() error {
			res, err := r.Resolve(ctx, Input{Package: pkg})
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				res = Result{Package: pkg, Err: err}
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// Errors aggregates the per-package errors of a batch, or returns nil.
func Errors(results []Result) error {
	var errs []error
	for _, res := range results {
		if res.Err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", res.Package, res.Err))
		}
	}
	return utilerrors.NewAggregate(errs)
}

// Failed returns the packages that resolved without a compatible license.
func Failed(results []Result) []string {
	var failed []string
	for _, res := range results {
		if res.Err == nil && !res.Passed {
			failed = append(failed, res.Package)
		}
	}
	return failed
}
