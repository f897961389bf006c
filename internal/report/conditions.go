package report

import (
	"fmt"

	"k8s.io/apimachinery/pkg/api/meta"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"

	licensetreev1alpha1 "github.com/bayleafwalker/licensetree/api/v1alpha1"
)

const (
	ReasonAllPackagesPassed   = "AllPackagesPassed"
	ReasonPackagesFailed      = "PackagesFailed"
	ReasonCheckErrors         = "CheckErrors"
	ReasonAllLookupsSucceeded = "AllLookupsSucceeded"
	ReasonLookupFailures      = "LookupFailures"
)

func setReportCondition(report *licensetreev1alpha1.LicenseCheckReport, condition metav1.Condition) {
	if report == nil {
		return
	}
	condition.ObservedGeneration = report.Generation
	meta.SetStatusCondition(&report.Status.Conditions, condition)
}

func compliantMessage(passed, total int32) string {
	if total <= 0 {
		return "No packages checked"
	}
	return fmt.Sprintf("%d/%d packages have a compatible license", passed, total)
}

// IsCompliant reports whether the report's Compliant condition is True.
func IsCompliant(report *licensetreev1alpha1.LicenseCheckReport) bool {
	return meta.IsStatusConditionTrue(report.Status.Conditions, licensetreev1alpha1.ConditionCompliant)
}
