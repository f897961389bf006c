package config

import (
	"fmt"
	"strings"

	"k8s.io/apimachinery/pkg/util/sets"
	"k8s.io/apimachinery/pkg/util/validation/field"

	licensetreev1alpha1 "github.com/bayleafwalker/licensetree/api/v1alpha1"
)

// licenseSeparators may not appear in a single license identifier.
const licenseSeparators = " \t&|()"

// Validate checks a defaulted policy. All problems are reported together.
func Validate(p *licensetreev1alpha1.LicensePolicy) error {
	spec := field.NewPath("spec")
	var allErrs field.ErrorList

	allErrs = append(allErrs, validateIdentifiers(spec.Child("prohibited"), p.Spec.Prohibited)...)
	allErrs = append(allErrs, validateNames(spec.Child("whitelist"), p.Spec.Whitelist)...)

	if p.Spec.MaxSolverIterations < 1 {
		allErrs = append(allErrs, field.Invalid(spec.Child("maxSolverIterations"), p.Spec.MaxSolverIterations, "must be at least 1"))
	}

	src := spec.Child("pkgdata")
	if t := p.Spec.Pkgdata.QueryTimeout; t != nil && t.Duration <= 0 {
		allErrs = append(allErrs, field.Invalid(src.Child("queryTimeout"), t.Duration.String(), "must be positive"))
	}
	if p.Spec.Pkgdata.CacheSize < 1 {
		allErrs = append(allErrs, field.Invalid(src.Child("cacheSize"), p.Spec.Pkgdata.CacheSize, "must be at least 1"))
	}
	if p.Spec.Pkgdata.Fixture != "" && p.Spec.Pkgdata.Dir != "" {
		allErrs = append(allErrs, field.Forbidden(src.Child("dir"), "may not be set together with fixture"))
	}
	if p.Spec.Pkgdata.Fixture == "" && p.Spec.Pkgdata.Binary == "" {
		allErrs = append(allErrs, field.Required(src.Child("binary"), "either binary or fixture is required"))
	}

	if c := p.Spec.Compatibility; c != nil {
		compat := spec.Child("compatibility")
		allErrs = append(allErrs, validateTable(compat.Child("allowed"), c.Allowed)...)
		allErrs = append(allErrs, validateTable(compat.Child("disallowed"), c.Disallowed)...)
		allErrs = append(allErrs, validateTable(compat.Child("orLater"), c.OrLater)...)
	}

	if len(allErrs) > 0 {
		return fmt.Errorf("%w: policy %q: %v", ErrConfiguration, p.Name, allErrs.ToAggregate())
	}
	return nil
}

func validateIdentifiers(path *field.Path, ids []string) field.ErrorList {
	var allErrs field.ErrorList
	seen := sets.New[string]()
	for i, id := range ids {
		switch {
		case id == "":
			allErrs = append(allErrs, field.Required(path.Index(i), "license identifier is empty"))
		case strings.ContainsAny(id, licenseSeparators):
			allErrs = append(allErrs, field.Invalid(path.Index(i), id, "must be a single license identifier"))
		case seen.Has(id):
			allErrs = append(allErrs, field.Duplicate(path.Index(i), id))
		}
		seen.Insert(id)
	}
	return allErrs
}

func validateNames(path *field.Path, names []string) field.ErrorList {
	var allErrs field.ErrorList
	seen := sets.New[string]()
	for i, name := range names {
		switch {
		case strings.TrimSpace(name) == "":
			allErrs = append(allErrs, field.Required(path.Index(i), "recipe name is empty"))
		case seen.Has(name):
			allErrs = append(allErrs, field.Duplicate(path.Index(i), name))
		}
		seen.Insert(name)
	}
	return allErrs
}

func validateTable(path *field.Path, table map[string][]string) field.ErrorList {
	var allErrs field.ErrorList
	for _, key := range sets.List(sets.KeySet(table)) {
		if key == "" || strings.ContainsAny(key, licenseSeparators) {
			allErrs = append(allErrs, field.Invalid(path.Key(key), key, "must be a single license identifier"))
			continue
		}
		allErrs = append(allErrs, validateIdentifiers(path.Key(key), table[key])...)
	}
	return allErrs
}
