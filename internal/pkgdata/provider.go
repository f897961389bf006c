package pkgdata

import (
	"context"
	"fmt"
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/singleflight"
	"sigs.k8s.io/controller-runtime/pkg/log"

	"github.com/bayleafwalker/licensetree/internal/metrics"
)

// DefaultCacheSize is the number of entries kept per query kind.
const DefaultCacheSize = 16384

// Dependency is one entry of a package's RDEPENDS after name resolution.
type Dependency struct {
	// Name is the runtime package name.
	Name string
	// Constraint is the raw version constraint that followed the dependency,
	// e.g. "(>= 2.26)". Empty when none was declared.
	Constraint string
}

// Provider answers package metadata questions on top of a Querier and
// memoizes every successful answer. Failed queries are not cached, so asking
// again re-runs the query.
//
// Package metadata is immutable for the snapshot being analyzed, which is why
// entries are never invalidated. The caches only evict to bound memory.
type Provider struct {
	querier Querier

	recipes  *memo[string]
	packages *memo[string]
	rdepends *memo[[]Dependency]
	licenses *memo[string]
	versions *memo[string]
}

type providerOptions struct {
	cacheSize int
}

// Option configures a Provider.
type Option func(*providerOptions)

// WithCacheSize sets the number of entries kept per query kind.
func WithCacheSize(size int) Option {
	return func(o *providerOptions) {
		o.cacheSize = size
	}
}

func NewProvider(querier Querier, opts ...Option) (*Provider, error) {
	o := providerOptions{cacheSize: DefaultCacheSize}
	for _, opt := range opts {
		opt(&o)
	}
	if o.cacheSize <= 0 {
		o.cacheSize = DefaultCacheSize
	}

	p := &Provider{querier: querier}
	var err error
	if p.recipes, err = newMemo[string](QueryRecipe, o.cacheSize); err != nil {
		return nil, err
	}
	if p.packages, err = newMemo[string](QueryPackage, o.cacheSize); err != nil {
		return nil, err
	}
	if p.rdepends, err = newMemo[[]Dependency](QueryRdepends, o.cacheSize); err != nil {
		return nil, err
	}
	if p.licenses, err = newMemo[string](QueryLicense, o.cacheSize); err != nil {
		return nil, err
	}
	if p.versions, err = newMemo[string](QueryVersion, o.cacheSize); err != nil {
		return nil, err
	}
	return p, nil
}

// Recipe returns the recipe a binary package was built from. Whitelists are
// expressed in recipe names.
func (p *Provider) Recipe(ctx context.Context, pkg string) (string, error) {
	return p.recipes.get(ctx, pkg, func(ctx context.Context) (string, error) {
		return p.querier.LookupRecipe(ctx, pkg)
	})
}

// Package maps a recipe-space name to its runtime package name.
func (p *Provider) Package(ctx context.Context, name string) (string, error) {
	return p.packages.get(ctx, name, func(ctx context.Context) (string, error) {
		pkg, err := p.querier.LookupPackage(ctx, name)
		if err != nil {
			return "", err
		}
		if pkg == "" {
			return "", fmt.Errorf("%w: %s", ErrUnknownPackage, name)
		}
		return pkg, nil
	})
}

// License returns the raw LICENSE value of a package.
func (p *Provider) License(ctx context.Context, pkg string) (string, error) {
	return p.licenses.get(ctx, pkg, func(ctx context.Context) (string, error) {
		return p.querier.ReadValue(ctx, "LICENSE", pkg)
	})
}

// Version returns the raw PKGV value of a package.
func (p *Provider) Version(ctx context.Context, pkg string) (string, error) {
	return p.versions.get(ctx, pkg, func(ctx context.Context) (string, error) {
		return p.querier.ReadValue(ctx, "PKGV", pkg)
	})
}

// RuntimeDependencies returns the runtime dependencies of a package in
// declaration order. Each declared name is mapped to the runtime package that
// provides it. A name that cannot be mapped is dropped.
func (p *Provider) RuntimeDependencies(ctx context.Context, pkg string) ([]Dependency, error) {
	return p.rdepends.get(ctx, pkg, func(ctx context.Context) ([]Dependency, error) {
		raw, err := p.querier.ReadValue(ctx, "RDEPENDS", pkg)
		if err != nil {
			return nil, err
		}

		logger := log.FromContext(ctx).WithValues("package", pkg)
		declared := ParseRdepends(raw)
		deps := make([]Dependency, 0, len(declared))
		for _, d := range declared {
			name, err := p.Package(ctx, d.Name)
			if err != nil {
				if ctx.Err() != nil {
					return nil, ctx.Err()
				}
				logger.V(1).Info("dropping runtime dependency", "dependency", d.Name, "reason", err.Error())
				continue
			}
			deps = append(deps, Dependency{Name: name, Constraint: d.Constraint})
		}
		return deps, nil
	})
}

// ParseRdepends splits an RDEPENDS value into dependency names. Parenthesized
// version constraints, which may span several tokens ("(>=", "2.26)"), are
// not names. They are attached to the dependency they follow. When a
// constraint is never closed, the tokens after its opening one are read as
// names again, skipping any that start with "(" or end with ")".
func ParseRdepends(raw string) []Dependency {
	var deps []Dependency
	tokens := strings.Fields(raw)
	open := -1

	for i, token := range tokens {
		if open < 0 && strings.HasPrefix(token, "(") {
			open = i
		}
		if open < 0 && !strings.HasSuffix(token, ")") {
			deps = append(deps, Dependency{Name: token})
			continue
		}
		if strings.HasSuffix(token, ")") {
			if open >= 0 && len(deps) > 0 {
				deps[len(deps)-1].Constraint = strings.Join(tokens[open:i+1], " ")
			}
			open = -1
		}
	}

	if open >= 0 {
		for _, token := range tokens[open+1:] {
			if strings.HasPrefix(token, "(") || strings.HasSuffix(token, ")") {
				continue
			}
			deps = append(deps, Dependency{Name: token})
		}
	}
	return deps
}

// memo is one query kind's cache. Concurrent misses for the same key share a
// single query.
type memo[V any] struct {
	query Query
	cache *lru.Cache[string, V]
	group singleflight.Group
}

func newMemo[V any](query Query, size int) (*memo[V], error) {
	cache, err := lru.New[string, V](size)
	if err != nil {
		return nil, fmt.Errorf("create %s cache: %w", query, err)
	}
	return &memo[V]{query: query, cache: cache}, nil
}

func (m *memo[V]) get(ctx context.Context, name string, fetch func(context.Context) (V, error)) (V, error) {
	if v, ok := m.cache.Get(name); ok {
		metrics.PkgdataCacheHitsTotal.WithLabelValues(string(m.query)).Inc()
		return v, nil
	}

	res, err, _ := m.group.Do(name, func() (any, error) {
		if v, ok := m.cache.Get(name); ok {
			return v, nil
		}

		start := time.Now()
		v, err := fetch(ctx)
		metrics.PkgdataQueryDuration.WithLabelValues(string(m.query)).Observe(time.Since(start).Seconds())
		if err != nil {
			metrics.PkgdataQueriesTotal.WithLabelValues(string(m.query), "error").Inc()
			return nil, &LookupError{Query: m.query, Name: name, Err: err}
		}
		metrics.PkgdataQueriesTotal.WithLabelValues(string(m.query), "ok").Inc()
		m.cache.Add(name, v)
		return v, nil
	})
	if err != nil {
		var zero V
		return zero, err
	}
	return res.(V), nil
}
