package checkservice

import (
	"fmt"

	"google.golang.org/protobuf/types/known/structpb"

	"github.com/bayleafwalker/licensetree/internal/resolver"
)

// CheckResponse is the decoded form of a CheckPackage response.
type CheckResponse struct {
	Package  string
	Passed   bool
	Licenses []string
	// Tree is only set for failing packages.
	Tree           string
	LookupFailures []string
}

func encodeResult(res resolver.Result) (*structpb.Struct, error) {
	licenses := make([]interface{}, 0, len(res.Licenses))
	for _, l := range res.Licenses {
		licenses = append(licenses, l)
	}
	fields := map[string]interface{}{
		"package":  res.Package,
		"passed":   res.Passed,
		"licenses": licenses,
	}
	if !res.Passed && res.Tree != nil {
		fields["tree"] = res.Tree.DumpString()
	}
	if n := len(res.Diagnostics.LookupFailures); n > 0 {
		failures := make([]interface{}, 0, n)
		for _, f := range res.Diagnostics.LookupFailures {
			failures = append(failures, f.Package+": "+f.Reason)
		}
		fields["lookupFailures"] = failures
	}
	return structpb.NewStruct(fields)
}

func decodeResponse(s *structpb.Struct) (*CheckResponse, error) {
	f := s.GetFields()
	pkg, ok := f["package"]
	if !ok {
		return nil, fmt.Errorf("response has no package field")
	}
	resp := &CheckResponse{
		Package:  pkg.GetStringValue(),
		Passed:   f["passed"].GetBoolValue(),
		Licenses: stringList(f["licenses"]),
		Tree:     f["tree"].GetStringValue(),
	}
	resp.LookupFailures = stringList(f["lookupFailures"])
	return resp, nil
}

func stringList(v *structpb.Value) []string {
	values := v.GetListValue().GetValues()
	if len(values) == 0 {
		return nil
	}
	out := make([]string, 0, len(values))
	for _, item := range values {
		out = append(out, item.GetStringValue())
	}
	return out
}
