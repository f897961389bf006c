package main

import (
	goflag "flag"
	"fmt"
	"os"
	"time"

	"github.com/spf13/pflag"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	ctrl "sigs.k8s.io/controller-runtime"
	"sigs.k8s.io/controller-runtime/pkg/log"
	"sigs.k8s.io/controller-runtime/pkg/log/zap"

	licensetreev1alpha1 "github.com/bayleafwalker/licensetree/api/v1alpha1"
	"github.com/bayleafwalker/licensetree/internal/config"
)

const (
	exitPass  = 0
	exitFail  = 1
	exitError = 2
)

const usage = `Usage: licensetree [flags] COMMAND [ARGS]

Commands:
  check PKG...     check packages, exit 1 if any has no compatible license
  tree PKG         print the dependency tree before and after propagation
  manifest FILE    check an image package.manifest and write a report
  serve            run the gRPC check service

Flags:
`

var setupLog = ctrl.Log.WithName("setup")

type options struct {
	policyPath     string
	whitelistPath  string
	prohibit       []string
	pkgdataDir     string
	pkgdataUtil    string
	pkgdataFixture string
	queryTimeout   time.Duration
	checkVersions  bool
	jobs           int
	reportPath     string
	grpcAddr       string
	metricsAddr    string
}

func main() {
	var o options
	fs := pflag.CommandLine
	fs.StringVar(&o.policyPath, "policy", "", "LicensePolicy file. Defaults to "+defaultPolicyHint()+" when present.")
	fs.StringVar(&o.whitelistPath, "whitelist", "", "File listing recipes whose runtime dependencies are not followed, one per line.")
	fs.StringSliceVar(&o.prohibit, "prohibit", nil, "Licenses that may not be among a package's outbound licenses, e.g. GPLv3,LGPLv3.")
	fs.StringVar(&o.pkgdataDir, "pkgdata-dir", "", "pkgdata directory passed to the metadata tool.")
	fs.StringVar(&o.pkgdataUtil, "pkgdata-util", "", "Metadata tool to run instead of oe-pkgdata-util on PATH.")
	fs.StringVar(&o.pkgdataFixture, "pkgdata-fixture", "", "Static YAML package metadata to use instead of the metadata tool.")
	fs.DurationVar(&o.queryTimeout, "query-timeout", 0, "Timeout of a single metadata query.")
	fs.BoolVar(&o.checkVersions, "check-versions", false, "Report runtime dependencies whose version does not satisfy the declared constraint.")
	fs.IntVar(&o.jobs, "jobs", 1, "Number of packages checked concurrently.")
	fs.StringVar(&o.reportPath, "report", "", "Write the manifest report to this file instead of stdout.")
	fs.StringVar(&o.grpcAddr, "grpc-bind-address", ":50051", "The address the gRPC check service binds to.")
	fs.StringVar(&o.metricsAddr, "metrics-bind-address", ":8080", "The address the metric and health endpoints bind to.")

	opts := zap.Options{Development: true}
	opts.BindFlags(goflag.CommandLine)
	fs.AddGoFlagSet(goflag.CommandLine)
	fs.Usage = func() {
		fmt.Fprint(os.Stderr, usage)
		fs.PrintDefaults()
	}
	pflag.Parse()

	ctrl.SetLogger(zap.New(zap.UseFlagOptions(&opts)))

	args := fs.Args()
	if len(args) == 0 {
		fs.Usage()
		os.Exit(exitError)
	}

	policy, err := loadPolicy(fs, &o)
	if err != nil {
		setupLog.Error(err, "unable to load policy")
		os.Exit(exitError)
	}
	if unknown := config.UnknownProhibited(policy); len(unknown) > 0 {
		setupLog.Info("prohibited licenses not found in the compatibility tables", "licenses", unknown)
	}
	r, err := config.NewResolver(policy)
	if err != nil {
		setupLog.Error(err, "unable to set up resolver")
		os.Exit(exitError)
	}

	ctx := log.IntoContext(ctrl.SetupSignalHandler(), ctrl.Log.WithName("licensetree"))

	switch cmd, rest := args[0], args[1:]; cmd {
	case "check":
		if len(rest) == 0 {
			setupLog.Info("check needs at least one package")
			os.Exit(exitError)
		}
		os.Exit(runCheck(ctx, os.Stdout, r, rest, o.jobs))
	case "tree":
		if len(rest) != 1 {
			setupLog.Info("tree needs exactly one package")
			os.Exit(exitError)
		}
		os.Exit(runTree(ctx, os.Stdout, r, rest[0]))
	case "manifest":
		if len(rest) != 1 {
			setupLog.Info("manifest needs exactly one file")
			os.Exit(exitError)
		}
		os.Exit(runManifest(ctx, os.Stdout, r, policy, rest[0], o.jobs, o.reportPath))
	case "serve":
		os.Exit(runServe(ctx, r, o.grpcAddr, o.metricsAddr))
	default:
		setupLog.Info("unknown command", "command", cmd)
		fs.Usage()
		os.Exit(exitError)
	}
}

func defaultPolicyHint() string {
	if p := config.DefaultPolicyPath(); p != "" {
		return p
	}
	return "$HOME/.config/licensetree/policy.yaml"
}

// loadPolicy reads the policy file, if any, and applies flags that were set
// explicitly on top of it.
func loadPolicy(fs *pflag.FlagSet, o *options) (*licensetreev1alpha1.LicensePolicy, error) {
	path := o.policyPath
	if path == "" {
		if def := config.DefaultPolicyPath(); def != "" {
			if _, err := os.Stat(def); err == nil {
				path = def
			}
		}
	}

	policy := config.DefaultPolicy()
	if path != "" {
		var err error
		if policy, err = config.LoadPolicy(path); err != nil {
			return nil, err
		}
		setupLog.Info("loaded policy", "path", path, "name", policy.Name)
	}

	spec := &policy.Spec
	if fs.Changed("prohibit") {
		spec.Prohibited = o.prohibit
	}
	if fs.Changed("whitelist") {
		spec.WhitelistFile = o.whitelistPath
	}
	if fs.Changed("pkgdata-dir") {
		spec.Pkgdata.Dir = o.pkgdataDir
	}
	if fs.Changed("pkgdata-util") {
		spec.Pkgdata.Binary = o.pkgdataUtil
	}
	if fs.Changed("pkgdata-fixture") {
		spec.Pkgdata.Fixture = o.pkgdataFixture
	}
	if fs.Changed("query-timeout") {
		spec.Pkgdata.QueryTimeout = &metav1.Duration{Duration: o.queryTimeout}
	}
	if fs.Changed("check-versions") {
		spec.CheckVersionConstraints = o.checkVersions
	}

	config.SetDefaults(policy)
	if err := config.Validate(policy); err != nil {
		return nil, err
	}
	return policy, nil
}
