package v1alpha1

import (
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
)

// LicenseCheckReport records the outcome of checking a set of packages.
//
// +kubebuilder:object:root=true
// +kubebuilder:subresource:status
// +kubebuilder:resource:scope=Cluster,shortName=lcr
// +kubebuilder:printcolumn:name="Checked",type=integer,JSONPath=`.status.summary.checked`
// +kubebuilder:printcolumn:name="Failed",type=integer,JSONPath=`.status.summary.failed`
// +kubebuilder:printcolumn:name="Age",type=date,JSONPath=`.metadata.creationTimestamp`
type LicenseCheckReport struct {
	metav1.TypeMeta   `json:",inline"`
	metav1.ObjectMeta `json:"metadata,omitempty"`

	Spec   LicenseCheckReportSpec   `json:"spec"`
	Status LicenseCheckReportStatus `json:"status,omitempty"`
}

type LicenseCheckReportSpec struct {
	// PolicyRef names the LicensePolicy the check ran with.
	PolicyRef *ObjectRef `json:"policyRef,omitempty"`
	// Manifest is the image manifest the packages were read from, if any.
	Manifest string `json:"manifest,omitempty"`
	// Prohibited is the effective list of prohibited licenses.
	Prohibited []string `json:"prohibited,omitempty"`
}

type LicenseCheckReportStatus struct {
	Summary ReportSummary   `json:"summary"`
	Results []PackageResult `json:"results,omitempty"`
	// Skipped holds manifest entries excluded by skip prefixes.
	Skipped        []string           `json:"skipped,omitempty"`
	CompletionTime *metav1.Time       `json:"completionTime,omitempty"`
	Conditions     []metav1.Condition `json:"conditions,omitempty"`
}

type ReportSummary struct {
	Checked int32 `json:"checked"`
	Passed  int32 `json:"passed"`
	Failed  int32 `json:"failed"`
	Errored int32 `json:"errored"`
}

type PackageResult struct {
	Package string             `json:"package"`
	Result  PackageCheckResult `json:"result"`
	// Licenses are the outbound licenses the package may be distributed under.
	Licenses []string `json:"licenses,omitempty"`
	// Message explains an Error result.
	Message string `json:"message,omitempty"`
	// Tree is the annotated dependency tree of a failing package.
	Tree              string   `json:"tree,omitempty"`
	LookupFailures    []string `json:"lookupFailures,omitempty"`
	VersionMismatches []string `json:"versionMismatches,omitempty"`
}

// +kubebuilder:object:root=true
type LicenseCheckReportList struct {
	metav1.TypeMeta `json:",inline"`
	metav1.ListMeta `json:"metadata,omitempty"`
	Items           []LicenseCheckReport `json:"items"`
}

func init() {
	SchemeBuilder.Register(&LicenseCheckReport{}, &LicenseCheckReportList{})
}
