package license

import (
	"k8s.io/apimachinery/pkg/util/sets"
)

// Tables holds the license compatibility rules.
//
// Allowed[L] lists the licenses that code licensed under L may link against
// while the combined work keeps L as its outbound license. Disallowed[L] lists
// the licenses that can never be combined with L. Any pair found in neither
// table is "degradable": the outbound license may degrade to the dependency's
// license. OrLater maps "or later" style identifiers (and other safe aliases)
// to their concrete equivalents.
//
// Tables are read-only once built. Use Merge to derive an extended copy.
type Tables struct {
	Allowed    map[string]sets.Set[string]
	Disallowed map[string]sets.Set[string]
	OrLater    map[string][]string
}

// Assumption: GCC exception criteria are always fulfilled.
var defaultAllowed = map[string][]string{
	"MIT":                        {"MIT", "LGPLv2", "LGPLv2.1", "LGPLv3", "BSD3", "Zlib", "PD", "Unicode", "MPL-2.0", "PSFv2", "GPL-3.0-with-GCC-exception", "Apache-2.0", "bzip2"},
	"Apache-2.0":                 {"Apache-2.0", "MIT", "LGPLv2", "LGPLv2.1", "LGPLv3", "BSD3", "Zlib", "PD", "Unicode", "MPL-2.0", "PSFv2", "GPL-3.0-with-GCC-exception", "bzip2"},
	"BSD3":                       {"BSD3", "LGPLv2", "LGPLv2.1", "LGPLv3", "MIT", "Zlib", "PD", "Unicode", "MPL-2.0", "PSFv2", "GPL-3.0-with-GCC-exception", "Apache-2.0", "bzip2"},
	"LGPLv2":                     {"LGPLv2", "LGPLv2.1", "LGPLv3", "BSD3", "MIT", "Zlib", "PD", "Unicode", "PSFv2", "GPL-3.0-with-GCC-exception", "Apache-2.0", "bzip2"},
	"LGPLv2.1":                   {"LGPLv2.1", "LGPLv2", "LGPLv3", "BSD3", "MIT", "Zlib", "PD", "Unicode", "PSFv2", "GPL-3.0-with-GCC-exception", "Apache-2.0", "bzip2"},
	"LGPLv3":                     {"LGPLv2", "LGPLv2.1", "LGPLv3", "BSD3", "MIT", "Zlib", "PD", "Unicode", "PSFv2", "GPL-3.0-with-GCC-exception", "Apache-2.0", "bzip2"},
	"GPLv2":                      {"GPLv2", "LGPLv2", "LGPLv2.1", "LGPLv3", "MIT", "BSD3", "Zlib", "PD", "Unicode", "PSFv2", "GPL-3.0-with-GCC-exception", "bzip2"},
	"GPLv3":                      {"GPLv3", "LGPLv2", "LGPLv2.1", "LGPLv3", "MIT", "BSD3", "Zlib", "PD", "Unicode", "PSFv2", "GPL-3.0-with-GCC-exception", "Apache-2.0", "bzip2"},
	"openssl":                    {"openssl", "LGPLv2", "LGPLv2.1", "LGPLv3", "MIT", "BSD3", "Zlib", "PD", "Unicode", "MPL-2.0", "PSFv2", "GPL-3.0-with-GCC-exception", "Apache-2.0", "bzip2"},
	"Zlib":                       {"Zlib", "LGPLv2", "LGPLv2.1", "LGPLv3", "MIT", "BSD3", "PD", "Unicode", "MPL-2.0", "PSFv2", "GPL-3.0-with-GCC-exception", "Apache-2.0", "bzip2"},
	"AFL-2":                      {"AFL-2", "LGPLv2", "LGPLv2.1", "LGPLv3", "MIT", "BSD3", "Zlib", "PD", "Unicode", "MPL-2.0", "PSFv2", "GPL-3.0-with-GCC-exception", "Apache-2.0", "bzip2"},
	"PD":                         {"PD", "LGPLv2", "LGPLv2.1", "LGPLv3", "MIT", "BSD3", "Zlib", "Unicode", "MPL-2.0", "PSFv2", "GPL-3.0-with-GCC-exception", "Apache-2.0", "bzip2"},
	"MPL-2.0":                    {"MPL-2.0", "LGPLv2", "LGPLv2.1", "LGPLv3", "MIT", "BSD3", "Zlib", "PD", "Unicode", "PSFv2", "GPL-3.0-with-GCC-exception", "Apache-2.0", "bzip2"},
	"PSFv2":                      {"PSFv2", "MPL-2.0", "LGPLv2", "LGPLv2.1", "LGPLv3", "MIT", "BSD3", "Zlib", "PD", "Unicode", "GPL-3.0-with-GCC-exception", "Apache-2.0", "openssl", "bzip2"},
	"GPL-3.0-with-GCC-exception": {"GPL-3.0-with-GCC-exception", "PSFv2", "LGPLv2", "LGPLv2.1", "LGPLv3", "MIT", "BSD3", "Zlib", "PD", "Unicode", "Apache-2.0", "bzip2"},
	"bzip2":                      {"bzip2", "GPL-3.0-with-GCC-exception", "PSFv2", "LGPLv2", "LGPLv2.1", "LGPLv3", "MIT", "BSD3", "Zlib", "PD", "Unicode", "Apache-2.0", "MPL-2.0"},
	"Unicode":                    {"Unicode", "bzip2", "GPL-3.0-with-GCC-exception", "PSFv2", "LGPLv2", "LGPLv2.1", "LGPLv3", "MIT", "BSD3", "Zlib", "PD", "Apache-2.0", "MPL-2.0"},
}

// GPLv2 code can't be linked against GPLv3 code, and so on.
var defaultDisallowed = map[string][]string{
	"GPLv2":      {"GPLv3", "openssl", "AFL-2"},
	"GPLv3":      {"GPLv2", "openssl", "AFL-2"},
	"openssl":    {"GPLv2", "GPLv3"},
	"AFL-2":      {"GPLv2", "GPLv3"},
	"Apache-2.0": {"GPLv2"},
}

var defaultOrLater = map[string][]string{
	"GPLv2+":                          {"GPLv2", "GPLv3"},
	"GPLv2.0+":                        {"GPLv2", "GPLv3"},
	"GPL-2.0+":                        {"GPLv2", "GPLv3"},
	"GPLv3+":                          {"GPLv3"},
	"AGPL-3.0":                        {"GPLv3"},
	"GPL-3.0-with-autoconf-exception": {"GPLv3"},
	"LGPLv2+":                         {"LGPLv2", "LGPLv2.1", "LGPLv3"},
	"LGPLv2.1+":                       {"LGPLv2.1", "LGPLv3"},
	"LGPL-2.1+":                       {"LGPLv2.1", "LGPLv3"},
	"LGPLv3+":                         {"LGPLv3"},
	"MIT-style":                       {"MIT"},
	"ICU":                             {"Unicode"},
	"BSD":                             {"BSD3"},
	"BSD-3-Clause":                    {"BSD3"},
	"BSD-2-Clause":                    {"BSD3"}, // close enough for compatibility purposes
	"Libpng":                          {"Zlib"},
}

// DefaultTables returns a fresh copy of the built-in compatibility rules.
func DefaultTables() *Tables {
	return &Tables{
		Allowed:    toSets(defaultAllowed),
		Disallowed: toSets(defaultDisallowed),
		OrLater:    copyLists(defaultOrLater),
	}
}

// Merge returns new Tables with the extra entries added on top of t. For a key
// present in both, the license lists are unioned.
func (t *Tables) Merge(allowed, disallowed, orLater map[string][]string) *Tables {
	out := &Tables{
		Allowed:    cloneSets(t.Allowed),
		Disallowed: cloneSets(t.Disallowed),
		OrLater:    copyLists(t.OrLater),
	}
	for k, v := range allowed {
		out.Allowed[k] = out.Allowed[k].Union(sets.New(v...))
	}
	for k, v := range disallowed {
		out.Disallowed[k] = out.Disallowed[k].Union(sets.New(v...))
	}
	for k, v := range orLater {
		merged := sets.New(out.OrLater[k]...).Insert(v...)
		out.OrLater[k] = sets.List(merged)
	}
	return out
}

// Vocabulary returns every license identifier the tables know about.
func (t *Tables) Vocabulary() sets.Set[string] {
	vocab := sets.New[string]()
	for k, v := range t.Allowed {
		vocab.Insert(k)
		vocab = vocab.Union(v)
	}
	for k, v := range t.Disallowed {
		vocab.Insert(k)
		vocab = vocab.Union(v)
	}
	for _, v := range t.OrLater {
		vocab.Insert(v...)
	}
	return vocab
}

func toSets(in map[string][]string) map[string]sets.Set[string] {
	out := make(map[string]sets.Set[string], len(in))
	for k, v := range in {
		out[k] = sets.New(v...)
	}
	return out
}

func cloneSets(in map[string]sets.Set[string]) map[string]sets.Set[string] {
	out := make(map[string]sets.Set[string], len(in))
	for k, v := range in {
		out[k] = v.Clone()
	}
	return out
}

func copyLists(in map[string][]string) map[string][]string {
	out := make(map[string][]string, len(in))
	for k, v := range in {
		out[k] = append([]string(nil), v...)
	}
	return out
}
