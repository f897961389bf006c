package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"sigs.k8s.io/controller-runtime/pkg/metrics"
)

// Result label values for PackagesCheckedTotal.
const (
	ResultPass  = "pass"
	ResultFail  = "fail"
	ResultError = "error"
)

var (
	PkgdataQueriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "licensetree_pkgdata_queries_total",
			Help: "Number of package metadata queries sent to the external tool, by query and outcome.",
		},
		[]string{"query", "outcome"},
	)
	PkgdataCacheHitsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "licensetree_pkgdata_cache_hits_total",
			Help: "Number of package metadata lookups served from the cache.",
		},
		[]string{"query"},
	)
	PkgdataQueryDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "licensetree_pkgdata_query_duration_seconds",
			Help:    "Time taken by a single external package metadata query.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"query"},
	)

	PackagesCheckedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "licensetree_resolver_packages_checked_total",
			Help: "Number of packages checked, by result.",
		},
		[]string{"result"},
	)
	ResolutionDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "licensetree_resolver_resolution_duration_seconds",
			Help:    "Time taken to build and propagate one dependency tree.",
			Buckets: prometheus.DefBuckets,
		},
	)
	TreeNodes = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "licensetree_resolver_tree_nodes",
			Help:    "Number of nodes in the runtime dependency tree of a checked package.",
			Buckets: prometheus.ExponentialBuckets(1, 2, 12),
		},
	)
	SolverIterations = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "licensetree_resolver_solver_iterations",
			Help:    "Number of fixed-point rounds needed to solve the constraints of one node.",
			Buckets: []float64{1, 2, 3, 4, 6, 8, 16, 32, 64},
		},
	)
)

func init() {
	metrics.Registry.MustRegister(
		PkgdataQueriesTotal,
		PkgdataCacheHitsTotal,
		PkgdataQueryDuration,
		PackagesCheckedTotal,
		ResolutionDuration,
		TreeNodes,
		SolverIterations,
	)
}
