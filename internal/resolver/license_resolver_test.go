package resolver

import (
	"context"
	"errors"
	"math/rand"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"k8s.io/apimachinery/pkg/util/sets"

	"github.com/bayleafwalker/licensetree/internal/graph"
	"github.com/bayleafwalker/licensetree/internal/metrics"
	"github.com/bayleafwalker/licensetree/internal/pkgdata"
)

func newTestResolver(t *testing.T, packages map[string]pkgdata.StaticPackage, opts Options) (*LicenseResolver, *pkgdata.StaticQuerier) {
	t.Helper()
	q := pkgdata.NewStaticQuerier(pkgdata.Fixture{Packages: packages})
	p, err := pkgdata.NewProvider(q)
	if err != nil {
		t.Fatalf("NewProvider: %v", err)
	}
	return NewLicenseResolver(p, opts), q
}

func propagate(t *testing.T, r *LicenseResolver, n *graph.Node) []string {
	t.Helper()
	got, err := r.Propagate(context.Background(), n)
	if err != nil {
		t.Fatalf("Propagate: %v", err)
	}
	return sets.List(got)
}

func TestPropagate_LeafDropsProhibited(t *testing.T) {
	r := NewLicenseResolver(nil, Options{Prohibited: sets.New("GPLv3")})

	leaf := graph.NewNode("leaf", sets.New("GPLv3"))
	if got := propagate(t, r, leaf); len(got) != 0 {
		t.Fatalf("expected empty set, got %v", got)
	}
	if _, ok := leaf.PropagatedLicenses(); !ok {
		t.Fatalf("expected propagated set to be recorded on the leaf")
	}
}

func TestPropagate_SimpleCompatibleChain(t *testing.T) {
	r := NewLicenseResolver(nil, Options{})

	root := graph.NewNode("root", sets.New("MIT"), graph.NewNode("child", sets.New("BSD3")))
	if diff := cmp.Diff([]string{"MIT"}, propagate(t, r, root)); diff != "" {
		t.Fatalf("unexpected licenses (-want +got):\n%s", diff)
	}
}

func TestPropagate_DisallowedCombination(t *testing.T) {
	r := NewLicenseResolver(nil, Options{})

	root := graph.NewNode("root", sets.New("GPLv2"), graph.NewNode("child", sets.New("GPLv3")))
	if got := propagate(t, r, root); len(got) != 0 {
		t.Fatalf("expected empty set, got %v", got)
	}
}

func TestPropagate_Degrade(t *testing.T) {
	r := NewLicenseResolver(nil, Options{})

	// MIT cannot link SomeUnlistedLicense as-is but is not forbidden to, so the
	// package degrades to the child's license.
	root := graph.NewNode("root", sets.New("MIT"), graph.NewNode("child", sets.New("SomeUnlistedLicense")))
	if diff := cmp.Diff([]string{"SomeUnlistedLicense"}, propagate(t, r, root)); diff != "" {
		t.Fatalf("unexpected licenses (-want +got):\n%s", diff)
	}
}

func TestPropagate_DegradedLicenseStillProhibited(t *testing.T) {
	r := NewLicenseResolver(nil, Options{Prohibited: sets.New("SomeUnlistedLicense")})

	root := graph.NewNode("root", sets.New("MIT"), graph.NewNode("child", sets.New("SomeUnlistedLicense")))
	if got := propagate(t, r, root); len(got) != 0 {
		t.Fatalf("expected empty set, got %v", got)
	}
}

func TestPropagate_MultipleChildren(t *testing.T) {
	r := NewLicenseResolver(nil, Options{})

	// GPLv2 drops out because of the AFL-2-only child; LGPLv2.1 accepts both.
	root := graph.NewNode("root", sets.New("GPLv2", "LGPLv2.1"),
		graph.NewNode("zlib", sets.New("Zlib")),
		graph.NewNode("afl", sets.New("AFL-2")),
	)
	got := propagate(t, r, root)
	if sets.New(got...).Has("GPLv2") {
		t.Fatalf("expected GPLv2 to be eliminated, got %v", got)
	}
	if !sets.New(got...).Has("AFL-2") {
		t.Fatalf("expected LGPLv2.1 to degrade to AFL-2, got %v", got)
	}
}

func TestResolveConstraints_OrderIndependent(t *testing.T) {
	r := NewLicenseResolver(nil, Options{})

	constraints := []sets.Set[string]{
		sets.New("Zlib"),
		sets.New("SomeUnlistedLicense", "GPLv3"),
		sets.New("AFL-2", "GPLv2"),
		sets.New("OtherUnlisted"),
		sets.New("BSD3", "openssl"),
		sets.New("LGPLv2.1"),
	}
	candidates := sets.New("MIT", "GPLv2", "Apache-2.0", "SomeUnlistedLicense")

	want, err := r.resolveConstraints(constraints, candidates)
	if err != nil {
		t.Fatalf("resolveConstraints: %v", err)
	}

	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 50; i++ {
		permuted := make([]sets.Set[string], len(constraints))
		for j, k := range rng.Perm(len(constraints)) {
			permuted[j] = constraints[k]
		}
		got, err := r.resolveConstraints(permuted, candidates)
		if err != nil {
			t.Fatalf("resolveConstraints: %v", err)
		}
		if !got.Equal(want) {
			t.Fatalf("permutation %d: got %v, want %v", i, sets.List(got), sets.List(want))
		}
	}
}

func TestResolveConstraints_IterationLimit(t *testing.T) {
	r := NewLicenseResolver(nil, Options{MaxSolverIterations: 1})

	_, err := r.resolveConstraints([]sets.Set[string]{sets.New("SomeUnlistedLicense")}, sets.New("MIT"))
	if !errors.Is(err, ErrIterationLimit) {
		t.Fatalf("expected ErrIterationLimit, got %v", err)
	}

	root := graph.NewNode("root", sets.New("MIT"), graph.NewNode("child", sets.New("SomeUnlistedLicense")))
	if _, err := r.Propagate(context.Background(), root); !errors.Is(err, ErrIterationLimit) {
		t.Fatalf("expected Propagate to surface ErrIterationLimit, got %v", err)
	}
}

func TestResolveConstraints_DoesNotMutateCandidates(t *testing.T) {
	r := NewLicenseResolver(nil, Options{})

	candidates := sets.New("MIT")
	if _, err := r.resolveConstraints([]sets.Set[string]{sets.New("SomeUnlistedLicense")}, candidates); err != nil {
		t.Fatalf("resolveConstraints: %v", err)
	}
	if !candidates.Equal(sets.New("MIT")) {
		t.Fatalf("candidates were modified: %v", sets.List(candidates))
	}
}

func TestCreateTree_WhitelistPruning(t *testing.T) {
	r, _ := newTestResolver(t, map[string]pkgdata.StaticPackage{
		"connman":  {License: "GPLv2", RDepends: "dbus-lib libc6"},
		"dbus-lib": {Recipe: "dbus", License: "AFL-2 | GPLv2+"},
		"libc6":    {Recipe: "glibc", License: "GPLv2 & LGPLv2.1"},
	}, Options{Whitelist: sets.New("dbus")})

	var diag Diagnostics
	tree, err := r.createTree(context.Background(), "connman", &diag)
	if err != nil {
		t.Fatalf("createTree: %v", err)
	}
	tree.Walk(func(n *graph.Node, _ int) bool {
		if n.Name == "dbus-lib" {
			t.Fatalf("whitelisted package appeared in the tree")
		}
		return true
	})
	if len(tree.Children) != 1 || tree.Children[0].Name != "libc6" {
		t.Fatalf("expected only libc6 as child, got %s", tree.DumpString())
	}
	if diff := cmp.Diff([]Edge{{From: "connman", To: "dbus-lib"}}, diag.Whitelisted); diff != "" {
		t.Fatalf("unexpected whitelisted edges (-want +got):\n%s", diff)
	}
}

func TestCreateTree_CycleTerminates(t *testing.T) {
	r, _ := newTestResolver(t, map[string]pkgdata.StaticPackage{
		"a": {License: "MIT", RDepends: "b"},
		"b": {License: "MIT", RDepends: "a"},
	}, Options{})

	var diag Diagnostics
	tree, err := r.createTree(context.Background(), "a", &diag)
	if err != nil {
		t.Fatalf("createTree: %v", err)
	}
	if tree.Len() != 2 {
		t.Fatalf("expected a -> b only, got:\n%s", tree.DumpString())
	}
	if diff := cmp.Diff([]Edge{{From: "b", To: "a"}}, diag.DroppedCycles); diff != "" {
		t.Fatalf("unexpected dropped edges (-want +got):\n%s", diff)
	}
}

func TestCreateTree_SharedDependencyIsNotACycle(t *testing.T) {
	r, _ := newTestResolver(t, map[string]pkgdata.StaticPackage{
		"app":   {License: "MIT", RDepends: "liba libb"},
		"liba":  {License: "MIT", RDepends: "libc6"},
		"libb":  {License: "MIT", RDepends: "libc6"},
		"libc6": {License: "LGPLv2.1"},
	}, Options{})

	tree, err := r.CreateTree(context.Background(), "app")
	if err != nil {
		t.Fatalf("CreateTree: %v", err)
	}
	// libc6 appears under both branches; siblings must not see each other's chain.
	if tree.Len() != 5 {
		t.Fatalf("expected 5 nodes, got:\n%s", tree.DumpString())
	}
}

func TestCreateTree_LookupFailureFailsClosed(t *testing.T) {
	r, q := newTestResolver(t, map[string]pkgdata.StaticPackage{
		"app":  {License: "MIT", RDepends: "libz libx"},
		"libz": {License: "Zlib"},
		"libx": {License: "MIT"},
	}, Options{})
	q.Fail(pkgdata.QueryLicense, "libx", errors.New("pkgdata corrupted"))

	res, err := r.Resolve(context.Background(), Input{Package: "app"})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if res.Passed {
		t.Fatalf("expected failure when a dependency's license is unknown, got %v", res.Licenses)
	}
	var failed *graph.Node
	res.Tree.Walk(func(n *graph.Node, _ int) bool {
		if n.Name == "libx" {
			failed = n
		}
		return true
	})
	if failed == nil || failed.LookupErr == nil || failed.Licenses.Len() != 0 {
		t.Fatalf("expected libx to fail closed, got:\n%s", res.Tree.DumpString())
	}
	if len(res.Diagnostics.LookupFailures) != 1 || res.Diagnostics.LookupFailures[0].Query != string(pkgdata.QueryLicense) {
		t.Fatalf("unexpected lookup failures %+v", res.Diagnostics.LookupFailures)
	}
}

func TestCreateTree_RecipeFailureIsNotWhitelisted(t *testing.T) {
	r, q := newTestResolver(t, map[string]pkgdata.StaticPackage{
		"app":      {License: "MIT", RDepends: "dbus-lib"},
		"dbus-lib": {Recipe: "dbus", License: "BSD3"},
	}, Options{Whitelist: sets.New("dbus")})
	q.Fail(pkgdata.QueryRecipe, "dbus-lib", errors.New("no recipe"))

	tree, err := r.CreateTree(context.Background(), "app")
	if err != nil {
		t.Fatalf("CreateTree: %v", err)
	}
	if len(tree.Children) != 1 {
		t.Fatalf("expected dbus-lib to be followed, got:\n%s", tree.DumpString())
	}
}

func TestCreateTree_CanceledContext(t *testing.T) {
	r, _ := newTestResolver(t, map[string]pkgdata.StaticPackage{"a": {License: "MIT"}}, Options{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := r.Resolve(ctx, Input{Package: "a"}); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestTestPackage_EndToEnd(t *testing.T) {
	packages := map[string]pkgdata.StaticPackage{
		"P": {License: "MIT", RDepends: "Q"},
		"Q": {License: "GPLv2"},
	}

	r, _ := newTestResolver(t, packages, Options{})
	ok, err := r.TestPackage(context.Background(), "P")
	if err != nil {
		t.Fatalf("TestPackage: %v", err)
	}
	if !ok {
		t.Fatalf("expected P to pass without prohibited licenses")
	}

	r, _ = newTestResolver(t, packages, Options{Prohibited: sets.New("GPLv2")})
	ok, err = r.TestPackage(context.Background(), "P")
	if err != nil {
		t.Fatalf("TestPackage: %v", err)
	}
	if ok {
		t.Fatalf("expected P to fail once GPLv2 is prohibited")
	}
}

func TestResolve_ResultCarriesTree(t *testing.T) {
	r, _ := newTestResolver(t, map[string]pkgdata.StaticPackage{
		"connman": {License: "GPLv2", RDepends: "libc6"},
		"libc6":   {License: "GPLv2 & LGPLv2.1"},
	}, Options{Prohibited: sets.New("GPLv3")})

	res, err := r.Resolve(context.Background(), Input{Package: "connman"})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if !res.Passed || !cmp.Equal([]string{"GPLv2"}, res.Licenses) {
		t.Fatalf("expected pass with [GPLv2], got %+v", res)
	}
	dump := res.Tree.DumpString()
	if !strings.Contains(dump, "connman: [GPLv2] -> [GPLv2]") || !strings.Contains(dump, "\tlibc6: [GPLv2, LGPLv2.1] -> [GPLv2, LGPLv2.1]") {
		t.Fatalf("unexpected dump:\n%s", dump)
	}
}

func TestResolve_VersionMismatchDiagnostics(t *testing.T) {
	r, _ := newTestResolver(t, map[string]pkgdata.StaticPackage{
		"app":   {License: "MIT", RDepends: "libc6 (>= 2.30) libz (>= 1.2.0)"},
		"libc6": {License: "LGPLv2.1", Version: "2.26-r0"},
		"libz":  {License: "Zlib", Version: "1.2.11"},
	}, Options{CheckVersionConstraints: true})

	res, err := r.Resolve(context.Background(), Input{Package: "app"})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	want := []VersionMismatch{{Package: "app", Dependency: "libc6", Constraint: "(>= 2.30)", Version: "2.26-r0"}}
	if diff := cmp.Diff(want, res.Diagnostics.VersionMismatches); diff != "" {
		t.Fatalf("unexpected mismatches (-want +got):\n%s", diff)
	}
	if !res.Passed {
		t.Fatalf("version mismatches must not affect the license result")
	}
}

func TestResolve_EmptyPackage(t *testing.T) {
	r := NewLicenseResolver(nil, Options{})
	if _, err := r.Resolve(context.Background(), Input{}); !errors.Is(err, ErrEmptyPackageName) {
		t.Fatalf("expected ErrEmptyPackageName, got %v", err)
	}
}

func TestResolve_RecordsCheckedPackages(t *testing.T) {
	r, _ := newTestResolver(t, map[string]pkgdata.StaticPackage{
		"zlib":  {License: "Zlib"},
		"gnupg": {License: "GPLv3"},
	}, Options{Prohibited: sets.New("GPLv3")})

	pass := metrics.PackagesCheckedTotal.WithLabelValues(metrics.ResultPass)
	fail := metrics.PackagesCheckedTotal.WithLabelValues(metrics.ResultFail)
	passBefore, failBefore := testutil.ToFloat64(pass), testutil.ToFloat64(fail)

	for _, pkg := range []string{"zlib", "gnupg", "zlib"} {
		if _, err := r.Resolve(context.Background(), Input{Package: pkg}); err != nil {
			t.Fatalf("Resolve(%s): %v", pkg, err)
		}
	}

	if got := testutil.ToFloat64(pass) - passBefore; got != 2 {
		t.Fatalf("expected 2 passing checks recorded, got %v", got)
	}
	if got := testutil.ToFloat64(fail) - failBefore; got != 1 {
		t.Fatalf("expected 1 failing check recorded, got %v", got)
	}
}
