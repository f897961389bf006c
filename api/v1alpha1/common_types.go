package v1alpha1

// NOTE: Policy and report objects are read from and written to files; they are
// never served by an API server.

type PackageCheckResult string

const (
	PackageCheckPass  PackageCheckResult = "Pass"
	PackageCheckFail  PackageCheckResult = "Fail"
	PackageCheckError PackageCheckResult = "Error"
)

const (
	// ConditionCompliant is True when every checked package has at least one
	// compatible license.
	ConditionCompliant = "Compliant"
	// ConditionMetadataComplete is False when package metadata could not be
	// read for some tree nodes. Those nodes were treated as unlicensed.
	ConditionMetadataComplete = "MetadataComplete"
)

type ObjectRef struct {
	Name string `json:"name"`
}
