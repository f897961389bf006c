package v1alpha1

import (
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
)

// LicensePolicy configures a license check run.
//
// +kubebuilder:object:root=true
// +kubebuilder:resource:scope=Cluster,shortName=lp
type LicensePolicy struct {
	metav1.TypeMeta   `json:",inline"`
	metav1.ObjectMeta `json:"metadata,omitempty"`

	Spec LicensePolicySpec `json:"spec"`
}

type LicensePolicySpec struct {
	// Prohibited licenses may not be among the outbound licenses of a package.
	Prohibited []string `json:"prohibited,omitempty"`

	// Whitelist lists recipes whose packages are not followed when building
	// dependency trees.
	Whitelist []string `json:"whitelist,omitempty"`

	// WhitelistFile is read in addition to Whitelist, one recipe per line.
	// Relative paths are resolved against the policy file.
	WhitelistFile string `json:"whitelistFile,omitempty"`

	// SkipPrefixes excludes image manifest entries from checking.
	SkipPrefixes []string `json:"skipPrefixes,omitempty"`

	Pkgdata PkgdataSource `json:"pkgdata,omitempty"`

	// MaxSolverIterations bounds the fixed-point rounds per tree node.
	// +kubebuilder:validation:Minimum=1
	MaxSolverIterations int32 `json:"maxSolverIterations,omitempty"`

	// CheckVersionConstraints reports runtime dependencies whose version does
	// not satisfy the declared constraint.
	CheckVersionConstraints bool `json:"checkVersionConstraints,omitempty"`

	// Compatibility extends the built-in license compatibility tables.
	Compatibility *CompatibilityOverrides `json:"compatibility,omitempty"`
}

type PkgdataSource struct {
	// Dir is passed to the metadata tool as its pkgdata directory.
	Dir string `json:"dir,omitempty"`
	// Binary is the metadata tool. Defaults to oe-pkgdata-util on PATH.
	Binary string `json:"binary,omitempty"`
	// Fixture replaces the tool with a static YAML description of packages.
	Fixture string `json:"fixture,omitempty"`
	// QueryTimeout bounds a single metadata query.
	QueryTimeout *metav1.Duration `json:"queryTimeout,omitempty"`
	// CacheSize bounds the number of memoized answers per query kind.
	// +kubebuilder:validation:Minimum=1
	CacheSize int32 `json:"cacheSize,omitempty"`
}

// CompatibilityOverrides entries are merged into the built-in tables. Lists
// for a license already known are unioned with the built-in list.
type CompatibilityOverrides struct {
	Allowed    map[string][]string `json:"allowed,omitempty"`
	Disallowed map[string][]string `json:"disallowed,omitempty"`
	OrLater    map[string][]string `json:"orLater,omitempty"`
}

// +kubebuilder:object:root=true
type LicensePolicyList struct {
	metav1.TypeMeta `json:",inline"`
	metav1.ListMeta `json:"metadata,omitempty"`
	Items           []LicensePolicy `json:"items"`
}

func init() {
	SchemeBuilder.Register(&LicensePolicy{}, &LicensePolicyList{})
}
