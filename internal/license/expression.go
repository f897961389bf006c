package license

import (
	"strings"

	"k8s.io/apimachinery/pkg/util/sets"
)

// Parse converts a raw LICENSE value into the set of alternative licenses it
// offers.
//
// "&" is treated as "|": for multi-licensed projects the most liberal license
// usually applies to the library parts. That is an approximation. Grouping
// parentheses are dropped since nested expressions are not modeled, and "or
// later" identifiers are expanded through OrLater. The result is empty when raw
// carries no license identifiers at all.
func (t *Tables) Parse(raw string) sets.Set[string] {
	s := strings.ReplaceAll(raw, "&", "|")
	s = strings.NewReplacer("(", "", ")", "").Replace(s)

	out := sets.New[string]()
	for _, token := range strings.Split(s, "|") {
		token = strings.TrimSpace(token)
		if token == "" {
			continue
		}
		if expanded, ok := t.OrLater[token]; ok {
			out.Insert(expanded...)
			continue
		}
		out.Insert(token)
	}
	return out
}

// Accepts reports how code licensed under outbound can use a dependency that
// offers the alternatives in dep.
//
// ok is false when no alternative in dep is usable at all. When at least one
// alternative can be linked as-is, degrade is empty. Otherwise degrade holds
// the alternatives outbound would have to degrade to. A license is always
// compatible with itself.
func (t *Tables) Accepts(outbound string, dep sets.Set[string]) (ok bool, degrade sets.Set[string]) {
	good := t.Allowed[outbound]
	bad := t.Disallowed[outbound]

	degrade = sets.New[string]()
	for d := range dep {
		switch {
		case d == outbound || good.Has(d):
			return true, sets.New[string]()
		case bad.Has(d):
			continue
		default:
			ok = true
			degrade.Insert(d)
		}
	}
	return ok, degrade
}
