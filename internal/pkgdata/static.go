package pkgdata

import (
	"context"
	"fmt"
	"os"
	"sync"

	"sigs.k8s.io/yaml"
)

// StaticPackage is the metadata StaticQuerier serves for one package.
type StaticPackage struct {
	// Recipe defaults to the package name.
	Recipe   string `json:"recipe,omitempty"`
	License  string `json:"license,omitempty"`
	RDepends string `json:"rdepends,omitempty"`
	Version  string `json:"version,omitempty"`
}

// Fixture is the on-disk form of a StaticQuerier.
type Fixture struct {
	Packages map[string]StaticPackage `json:"packages"`
	// Renames maps recipe-space dependency names to the runtime package that
	// provides them, e.g. "glibc" -> "libc6".
	Renames map[string]string `json:"renames,omitempty"`
}

// StaticQuerier serves metadata from memory. It backs tests and the
// --pkgdata-fixture mode, where a snapshot of pkgdata is checked without a
// build directory.
type StaticQuerier struct {
	fixture Fixture

	mu       sync.Mutex
	calls    map[string]int
	failures map[string]error
}

var _ Querier = (*StaticQuerier)(nil)

func NewStaticQuerier(fixture Fixture) *StaticQuerier {
	if fixture.Packages == nil {
		fixture.Packages = map[string]StaticPackage{}
	}
	return &StaticQuerier{
		fixture:  fixture,
		calls:    map[string]int{},
		failures: map[string]error{},
	}
}

// LoadFixture reads a YAML or JSON fixture file.
func LoadFixture(path string) (*StaticQuerier, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read pkgdata fixture: %w", err)
	}
	var fixture Fixture
	if err := yaml.UnmarshalStrict(raw, &fixture); err != nil {
		return nil, fmt.Errorf("decode pkgdata fixture %s: %w", path, err)
	}
	return NewStaticQuerier(fixture), nil
}

// Fail makes every future query of the given kind for name return err.
func (q *StaticQuerier) Fail(query Query, name string, err error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.failures[callKey(query, name)] = err
}

// Calls returns how many times a query was answered or failed for name.
func (q *StaticQuerier) Calls(query Query, name string) int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.calls[callKey(query, name)]
}

func (q *StaticQuerier) LookupRecipe(ctx context.Context, pkg string) (string, error) {
	if err := q.record(ctx, QueryRecipe, pkg); err != nil {
		return "", err
	}
	p, ok := q.fixture.Packages[pkg]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownPackage, pkg)
	}
	if p.Recipe == "" {
		return pkg, nil
	}
	return p.Recipe, nil
}

func (q *StaticQuerier) LookupPackage(ctx context.Context, name string) (string, error) {
	if err := q.record(ctx, QueryPackage, name); err != nil {
		return "", err
	}
	if renamed, ok := q.fixture.Renames[name]; ok {
		return renamed, nil
	}
	if _, ok := q.fixture.Packages[name]; !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownPackage, name)
	}
	return name, nil
}

func (q *StaticQuerier) ReadValue(ctx context.Context, variable, pkg string) (string, error) {
	query := Query("read-value " + variable)
	if err := q.record(ctx, query, pkg); err != nil {
		return "", err
	}
	p, ok := q.fixture.Packages[pkg]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownPackage, pkg)
	}
	switch query {
	case QueryRdepends:
		return p.RDepends, nil
	case QueryLicense:
		return p.License, nil
	case QueryVersion:
		return p.Version, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnknownVariable, variable)
	}
}

func (q *StaticQuerier) record(ctx context.Context, query Query, name string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	key := callKey(query, name)
	q.mu.Lock()
	defer q.mu.Unlock()
	q.calls[key]++
	return q.failures[key]
}

func callKey(query Query, name string) string {
	return string(query) + " " + name
}
