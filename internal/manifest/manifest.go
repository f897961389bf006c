// Package manifest reads the package.manifest file an image build writes
// next to its license directory.
package manifest

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"k8s.io/apimachinery/pkg/util/sets"
)

// DefaultSkipPrefixes exclude packages whose licensing cannot be checked
// automatically: kernel modules, pam (packaging issues), packagegroups (no
// payload) and linux-firmware (custom licenses).
var DefaultSkipPrefixes = []string{"kernel", "libpam", "pam", "packagegroup", "linux-firmware"}

// Entry is one installed package. Arch and Version are empty when the
// manifest only lists names.
type Entry struct {
	Package string
	Arch    string
	Version string
}

// Parse reads one entry per line. The first whitespace-separated column is the
// package name. Blank lines and lines starting with '#' are skipped.
func Parse(r io.Reader) ([]Entry, error) {
	var entries []Entry
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		text := strings.TrimSpace(scanner.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		fields := strings.Fields(text)
		e := Entry{Package: fields[0]}
		if len(fields) > 1 {
			e.Arch = fields[1]
		}
		if len(fields) > 2 {
			e.Version = fields[2]
		}
		entries = append(entries, e)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	return entries, nil
}

func ParseFile(path string) ([]Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	entries, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return entries, nil
}

// Filter splits entries into those to check and those matching one of the
// skip prefixes. Order is preserved in both.
func Filter(entries []Entry, skipPrefixes []string) (checked, skipped []Entry) {
	for _, e := range entries {
		if hasAnyPrefix(e.Package, skipPrefixes) {
			skipped = append(skipped, e)
			continue
		}
		checked = append(checked, e)
	}
	return checked, skipped
}

// Packages returns the package names of entries, dropping duplicates.
func Packages(entries []Entry) []string {
	seen := sets.New[string]()
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if seen.Has(e.Package) {
			continue
		}
		seen.Insert(e.Package)
		names = append(names, e.Package)
	}
	return names
}

func hasAnyPrefix(name string, prefixes []string) bool {
	for _, p := range prefixes {
		if p != "" && strings.HasPrefix(name, p) {
			return true
		}
	}
	return false
}
