// Package report renders check results as LicenseCheckReport objects.
package report

import (
	"fmt"
	"io"
	"os"

	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/utils/clock"
	"sigs.k8s.io/yaml"

	licensetreev1alpha1 "github.com/bayleafwalker/licensetree/api/v1alpha1"
	"github.com/bayleafwalker/licensetree/internal/resolver"
)

// Builder assembles reports. The zero value is usable.
type Builder struct {
	// Name of the generated report. Defaults to "license-check".
	Name       string
	PolicyName string
	Manifest   string
	Prohibited []string
	Clock      clock.PassiveClock
}

func (b *Builder) Build(results []resolver.Result, skipped []string) *licensetreev1alpha1.LicenseCheckReport {
	clk := b.Clock
	if clk == nil {
		clk = clock.RealClock{}
	}
	name := b.Name
	if name == "" {
		name = "license-check"
	}
	now := metav1.NewTime(clk.Now())

	r := &licensetreev1alpha1.LicenseCheckReport{
		TypeMeta: metav1.TypeMeta{
			APIVersion: licensetreev1alpha1.GroupVersion.String(),
			Kind:       "LicenseCheckReport",
		},
		ObjectMeta: metav1.ObjectMeta{Name: name, CreationTimestamp: now},
		Spec: licensetreev1alpha1.LicenseCheckReportSpec{
			Manifest:   b.Manifest,
			Prohibited: append([]string(nil), b.Prohibited...),
		},
	}
	if b.PolicyName != "" {
		r.Spec.PolicyRef = &licensetreev1alpha1.ObjectRef{Name: b.PolicyName}
	}

	status := &r.Status
	status.Skipped = append([]string(nil), skipped...)
	var lookupFailures int32
	for _, res := range results {
		pr := packageResult(res)
		switch pr.Result {
		case licensetreev1alpha1.PackageCheckPass:
			status.Summary.Passed++
		case licensetreev1alpha1.PackageCheckFail:
			status.Summary.Failed++
		default:
			status.Summary.Errored++
		}
		if len(pr.LookupFailures) > 0 {
			lookupFailures++
		}
		status.Results = append(status.Results, pr)
	}
	status.Summary.Checked = int32(len(results))
	status.CompletionTime = &now

	compliant := metav1.Condition{
		Type:               licensetreev1alpha1.ConditionCompliant,
		Status:             metav1.ConditionTrue,
		Reason:             ReasonAllPackagesPassed,
		Message:            compliantMessage(status.Summary.Passed, status.Summary.Checked),
		LastTransitionTime: now,
	}
	switch {
	case status.Summary.Errored > 0:
		compliant.Status = metav1.ConditionFalse
		compliant.Reason = ReasonCheckErrors
	case status.Summary.Failed > 0:
		compliant.Status = metav1.ConditionFalse
		compliant.Reason = ReasonPackagesFailed
	}
	setReportCondition(r, compliant)

	metadata := metav1.Condition{
		Type:               licensetreev1alpha1.ConditionMetadataComplete,
		Status:             metav1.ConditionTrue,
		Reason:             ReasonAllLookupsSucceeded,
		Message:            "Metadata was read for every dependency",
		LastTransitionTime: now,
	}
	if lookupFailures > 0 {
		metadata.Status = metav1.ConditionFalse
		metadata.Reason = ReasonLookupFailures
		metadata.Message = fmt.Sprintf("%d packages have dependencies treated as unlicensed after failed lookups", lookupFailures)
	}
	setReportCondition(r, metadata)

	return r
}

func packageResult(res resolver.Result) licensetreev1alpha1.PackageResult {
	pr := licensetreev1alpha1.PackageResult{Package: res.Package}
	if res.Err != nil {
		pr.Result = licensetreev1alpha1.PackageCheckError
		pr.Message = res.Err.Error()
		return pr
	}

	pr.Result = licensetreev1alpha1.PackageCheckPass
	pr.Licenses = res.Licenses
	if !res.Passed {
		pr.Result = licensetreev1alpha1.PackageCheckFail
		if res.Tree != nil {
			pr.Tree = res.Tree.DumpString()
		}
	}
	for _, f := range res.Diagnostics.LookupFailures {
		pr.LookupFailures = append(pr.LookupFailures, f.Package+": "+f.Reason)
	}
	for _, m := range res.Diagnostics.VersionMismatches {
		pr.VersionMismatches = append(pr.VersionMismatches,
			fmt.Sprintf("%s requires %s %s, found %s", m.Package, m.Dependency, m.Constraint, m.Version))
	}
	return pr
}

// Write renders r as YAML.
func Write(w io.Writer, r *licensetreev1alpha1.LicenseCheckReport) error {
	data, err := yaml.Marshal(r)
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	_, err = w.Write(data)
	return err
}

func WriteFile(path string, r *licensetreev1alpha1.LicenseCheckReport) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := Write(f, r); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
