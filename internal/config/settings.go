package config

import (
	"fmt"

	"k8s.io/apimachinery/pkg/util/sets"

	licensetreev1alpha1 "github.com/bayleafwalker/licensetree/api/v1alpha1"
	"github.com/bayleafwalker/licensetree/internal/license"
	"github.com/bayleafwalker/licensetree/internal/pkgdata"
	"github.com/bayleafwalker/licensetree/internal/resolver"
)

// ResolverOptions converts a validated policy into resolver options, reading
// the whitelist file if one is configured.
func ResolverOptions(p *licensetreev1alpha1.LicensePolicy) (resolver.Options, error) {
	whitelist := sets.New(p.Spec.Whitelist...)
	if p.Spec.WhitelistFile != "" {
		recipes, err := ReadWhitelist(p.Spec.WhitelistFile)
		if err != nil {
			return resolver.Options{}, err
		}
		whitelist.Insert(recipes...)
	}

	return resolver.Options{
		Tables:                  compatibilityTables(p),
		Prohibited:              sets.New(p.Spec.Prohibited...),
		Whitelist:               whitelist,
		MaxSolverIterations:     int(p.Spec.MaxSolverIterations),
		CheckVersionConstraints: p.Spec.CheckVersionConstraints,
	}, nil
}

// UnknownProhibited returns the prohibited licenses, sorted, that none of the
// compatibility tables mention. Such an entry never matches a known license and
// is most likely misspelled.
func UnknownProhibited(p *licensetreev1alpha1.LicensePolicy) []string {
	known := compatibilityTables(p).Vocabulary()
	return sets.List(sets.New(p.Spec.Prohibited...).Difference(known))
}

func compatibilityTables(p *licensetreev1alpha1.LicensePolicy) *license.Tables {
	tables := license.DefaultTables()
	if c := p.Spec.Compatibility; c != nil {
		tables = tables.Merge(c.Allowed, c.Disallowed, c.OrLater)
	}
	return tables
}

// NewQuerier returns the metadata source configured by p: a static fixture
// when one is set, the external tool otherwise.
func NewQuerier(p *licensetreev1alpha1.LicensePolicy) (pkgdata.Querier, error) {
	if f := p.Spec.Pkgdata.Fixture; f != "" {
		q, err := pkgdata.LoadFixture(f)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrConfiguration, err)
		}
		return q, nil
	}
	return &pkgdata.ExecQuerier{
		Binary:     p.Spec.Pkgdata.Binary,
		PkgdataDir: p.Spec.Pkgdata.Dir,
		Timeout:    QueryTimeout(p),
	}, nil
}

// NewResolver wires a metadata provider and a resolver for p.
func NewResolver(p *licensetreev1alpha1.LicensePolicy) (*resolver.LicenseResolver, error) {
	opts, err := ResolverOptions(p)
	if err != nil {
		return nil, err
	}
	q, err := NewQuerier(p)
	if err != nil {
		return nil, err
	}
	provider, err := pkgdata.NewProvider(q, pkgdata.WithCacheSize(int(p.Spec.Pkgdata.CacheSize)))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfiguration, err)
	}
	return resolver.NewLicenseResolver(provider, opts), nil
}
