// Package config loads, defaults and validates LicensePolicy objects and turns
// them into resolver and metadata provider settings.
package config

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/apimachinery/pkg/runtime/serializer"
	utilruntime "k8s.io/apimachinery/pkg/util/runtime"
	"k8s.io/client-go/util/homedir"

	licensetreev1alpha1 "github.com/bayleafwalker/licensetree/api/v1alpha1"
	"github.com/bayleafwalker/licensetree/internal/manifest"
	"github.com/bayleafwalker/licensetree/internal/pkgdata"
	"github.com/bayleafwalker/licensetree/internal/resolver"
)

var (
	scheme = runtime.NewScheme()
	codecs = serializer.NewCodecFactory(scheme, serializer.EnableStrict)
)

func init() {
	utilruntime.Must(licensetreev1alpha1.AddToScheme(scheme))
}

// DefaultPolicyPath is where the CLI looks for a policy when none is given.
// It is empty when the home directory cannot be determined.
func DefaultPolicyPath() string {
	home := homedir.HomeDir()
	if home == "" {
		return ""
	}
	return filepath.Join(home, ".config", "licensetree", "policy.yaml")
}

// DefaultPolicy returns a defaulted policy prohibiting nothing.
func DefaultPolicy() *licensetreev1alpha1.LicensePolicy {
	p := &licensetreev1alpha1.LicensePolicy{
		TypeMeta: metav1.TypeMeta{
			APIVersion: licensetreev1alpha1.GroupVersion.String(),
			Kind:       "LicensePolicy",
		},
		ObjectMeta: metav1.ObjectMeta{Name: "default"},
	}
	SetDefaults(p)
	return p
}

// LoadPolicy decodes a LicensePolicy from a YAML or JSON file. Relative
// whitelist and fixture paths are resolved against the policy's directory.
// The result is neither defaulted nor validated.
func LoadPolicy(path string) (*licensetreev1alpha1.LicensePolicy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: read policy: %v", ErrConfiguration, err)
	}
	obj, gvk, err := codecs.UniversalDeserializer().Decode(data, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: decode policy %s: %v", ErrConfiguration, path, err)
	}
	policy, ok := obj.(*licensetreev1alpha1.LicensePolicy)
	if !ok {
		return nil, fmt.Errorf("%w: %s: expected LicensePolicy, got %s", ErrConfiguration, path, gvk.Kind)
	}
	policy.Spec.WhitelistFile = relativeTo(path, policy.Spec.WhitelistFile)
	policy.Spec.Pkgdata.Fixture = relativeTo(path, policy.Spec.Pkgdata.Fixture)
	return policy, nil
}

func relativeTo(policyPath, file string) string {
	if file == "" || filepath.IsAbs(file) {
		return file
	}
	return filepath.Join(filepath.Dir(policyPath), file)
}

// SetDefaults fills unset fields. SkipPrefixes is only defaulted when nil so
// an explicit empty list disables skipping.
func SetDefaults(p *licensetreev1alpha1.LicensePolicy) {
	spec := &p.Spec
	if spec.Pkgdata.Binary == "" && spec.Pkgdata.Fixture == "" {
		spec.Pkgdata.Binary = pkgdata.DefaultBinary
	}
	if spec.Pkgdata.QueryTimeout == nil {
		spec.Pkgdata.QueryTimeout = &metav1.Duration{Duration: pkgdata.DefaultQueryTimeout}
	}
	if spec.Pkgdata.CacheSize == 0 {
		spec.Pkgdata.CacheSize = pkgdata.DefaultCacheSize
	}
	if spec.MaxSolverIterations == 0 {
		spec.MaxSolverIterations = resolver.DefaultMaxSolverIterations
	}
	if spec.SkipPrefixes == nil {
		spec.SkipPrefixes = append([]string(nil), manifest.DefaultSkipPrefixes...)
	}
}

// ReadWhitelist reads one recipe name per line. Blank lines are ignored.
func ReadWhitelist(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: read whitelist: %v", ErrConfiguration, err)
	}
	defer f.Close()

	var recipes []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		if line := strings.TrimSpace(scanner.Text()); line != "" {
			recipes = append(recipes, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("%w: read whitelist %s: %v", ErrConfiguration, path, err)
	}
	return recipes, nil
}

// QueryTimeout returns the effective per-query timeout of p.
func QueryTimeout(p *licensetreev1alpha1.LicensePolicy) time.Duration {
	if t := p.Spec.Pkgdata.QueryTimeout; t != nil && t.Duration > 0 {
		return t.Duration
	}
	return pkgdata.DefaultQueryTimeout
}
