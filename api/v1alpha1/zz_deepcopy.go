package v1alpha1

import (
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/runtime"
)

// DeepCopyInto copies the receiver, writing into out. in must be non-nil.
func (in *LicensePolicy) DeepCopyInto(out *LicensePolicy) {
	*out = *in
	out.TypeMeta = in.TypeMeta
	in.ObjectMeta.DeepCopyInto(&out.ObjectMeta)
	in.Spec.DeepCopyInto(&out.Spec)
}

// DeepCopy copies the receiver, creating a new LicensePolicy.
func (in *LicensePolicy) DeepCopy() *LicensePolicy {
	if in == nil {
		return nil
	}
	out := new(LicensePolicy)
	in.DeepCopyInto(out)
	return out
}

// DeepCopyObject copies the receiver, creating a new runtime.Object.
func (in *LicensePolicy) DeepCopyObject() runtime.Object {
	if c := in.DeepCopy(); c != nil {
		return c
	}
	return nil
}

// DeepCopyInto copies the receiver, writing into out. in must be non-nil.
func (in *LicensePolicyList) DeepCopyInto(out *LicensePolicyList) {
	*out = *in
	out.TypeMeta = in.TypeMeta
	in.ListMeta.DeepCopyInto(&out.ListMeta)
	if in.Items != nil {
		out.Items = make([]LicensePolicy, len(in.Items))
		for i := range in.Items {
			in.Items[i].DeepCopyInto(&out.Items[i])
		}
	}
}

// DeepCopy copies the receiver, creating a new LicensePolicyList.
func (in *LicensePolicyList) DeepCopy() *LicensePolicyList {
	if in == nil {
		return nil
	}
	out := new(LicensePolicyList)
	in.DeepCopyInto(out)
	return out
}

// DeepCopyObject copies the receiver, creating a new runtime.Object.
func (in *LicensePolicyList) DeepCopyObject() runtime.Object {
	if c := in.DeepCopy(); c != nil {
		return c
	}
	return nil
}

// DeepCopyInto copies the receiver, writing into out. in must be non-nil.
func (in *LicensePolicySpec) DeepCopyInto(out *LicensePolicySpec) {
	*out = *in
	out.Prohibited = copyStrings(in.Prohibited)
	out.Whitelist = copyStrings(in.Whitelist)
	out.SkipPrefixes = copyStrings(in.SkipPrefixes)
	in.Pkgdata.DeepCopyInto(&out.Pkgdata)
	if in.Compatibility != nil {
		in, out := &in.Compatibility, &out.Compatibility
		*out = new(CompatibilityOverrides)
		(*in).DeepCopyInto(*out)
	}
}

// DeepCopyInto copies the receiver, writing into out. in must be non-nil.
func (in *PkgdataSource) DeepCopyInto(out *PkgdataSource) {
	*out = *in
	if in.QueryTimeout != nil {
		in, out := &in.QueryTimeout, &out.QueryTimeout
		*out = new(metav1.Duration)
		**out = **in
	}
}

// DeepCopyInto copies the receiver, writing into out. in must be non-nil.
func (in *CompatibilityOverrides) DeepCopyInto(out *CompatibilityOverrides) {
	*out = *in
	out.Allowed = copyStringLists(in.Allowed)
	out.Disallowed = copyStringLists(in.Disallowed)
	out.OrLater = copyStringLists(in.OrLater)
}

// DeepCopyInto copies the receiver, writing into out. in must be non-nil.
func (in *LicenseCheckReport) DeepCopyInto(out *LicenseCheckReport) {
	*out = *in
	out.TypeMeta = in.TypeMeta
	in.ObjectMeta.DeepCopyInto(&out.ObjectMeta)
	in.Spec.DeepCopyInto(&out.Spec)
	in.Status.DeepCopyInto(&out.Status)
}

// DeepCopy copies the receiver, creating a new LicenseCheckReport.
func (in *LicenseCheckReport) DeepCopy() *LicenseCheckReport {
	if in == nil {
		return nil
	}
	out := new(LicenseCheckReport)
	in.DeepCopyInto(out)
	return out
}

// DeepCopyObject copies the receiver, creating a new runtime.Object.
func (in *LicenseCheckReport) DeepCopyObject() runtime.Object {
	if c := in.DeepCopy(); c != nil {
		return c
	}
	return nil
}

// DeepCopyInto copies the receiver, writing into out. in must be non-nil.
func (in *LicenseCheckReportList) DeepCopyInto(out *LicenseCheckReportList) {
	*out = *in
	out.TypeMeta = in.TypeMeta
	in.ListMeta.DeepCopyInto(&out.ListMeta)
	if in.Items != nil {
		out.Items = make([]LicenseCheckReport, len(in.Items))
		for i := range in.Items {
			in.Items[i].DeepCopyInto(&out.Items[i])
		}
	}
}

// DeepCopy copies the receiver, creating a new LicenseCheckReportList.
func (in *LicenseCheckReportList) DeepCopy() *LicenseCheckReportList {
	if in == nil {
		return nil
	}
	out := new(LicenseCheckReportList)
	in.DeepCopyInto(out)
	return out
}

// DeepCopyObject copies the receiver, creating a new runtime.Object.
func (in *LicenseCheckReportList) DeepCopyObject() runtime.Object {
	if c := in.DeepCopy(); c != nil {
		return c
	}
	return nil
}

// DeepCopyInto copies the receiver, writing into out. in must be non-nil.
func (in *LicenseCheckReportSpec) DeepCopyInto(out *LicenseCheckReportSpec) {
	*out = *in
	if in.PolicyRef != nil {
		in, out := &in.PolicyRef, &out.PolicyRef
		*out = new(ObjectRef)
		**out = **in
	}
	out.Prohibited = copyStrings(in.Prohibited)
}

// DeepCopyInto copies the receiver, writing into out. in must be non-nil.
func (in *LicenseCheckReportStatus) DeepCopyInto(out *LicenseCheckReportStatus) {
	*out = *in
	if in.Results != nil {
		out.Results = make([]PackageResult, len(in.Results))
		for i := range in.Results {
			in.Results[i].DeepCopyInto(&out.Results[i])
		}
	}
	out.Skipped = copyStrings(in.Skipped)
	if in.CompletionTime != nil {
		in, out := &in.CompletionTime, &out.CompletionTime
		*out = (*in).DeepCopy()
	}
	if in.Conditions != nil {
		out.Conditions = make([]metav1.Condition, len(in.Conditions))
		for i := range in.Conditions {
			in.Conditions[i].DeepCopyInto(&out.Conditions[i])
		}
	}
}

// DeepCopyInto copies the receiver, writing into out. in must be non-nil.
func (in *PackageResult) DeepCopyInto(out *PackageResult) {
	*out = *in
	out.Licenses = copyStrings(in.Licenses)
	out.LookupFailures = copyStrings(in.LookupFailures)
	out.VersionMismatches = copyStrings(in.VersionMismatches)
}

func copyStrings(in []string) []string {
	if in == nil {
		return nil
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}

func copyStringLists(in map[string][]string) map[string][]string {
	if in == nil {
		return nil
	}
	out := make(map[string][]string, len(in))
	for k, v := range in {
		out[k] = copyStrings(v)
	}
	return out
}
