package manifest

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

const sample = `busybox core2-64 1.24.1
connman core2-64 1.35

# generated by rootfs
kernel-module-e1000 intel_corei7_64 4.14
libpam-runtime all 1.3.0
packagegroup-core-boot intel_corei7_64 1.0
linux-firmware-i915 all 0.0+git
pam-plugin-unix core2-64 1.3.0
busybox core2-64 1.24.1
libc6
`

func TestParse(t *testing.T) {
	entries, err := Parse(strings.NewReader(sample))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(entries) != 9 {
		t.Fatalf("expected 9 entries, got %d: %+v", len(entries), entries)
	}
	if diff := cmp.Diff(Entry{Package: "busybox", Arch: "core2-64", Version: "1.24.1"}, entries[0]); diff != "" {
		t.Fatalf("unexpected first entry (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(Entry{Package: "libc6"}, entries[8]); diff != "" {
		t.Fatalf("expected name-only entry (-want +got):\n%s", diff)
	}
}

func TestFilter_DefaultSkipPrefixes(t *testing.T) {
	entries, err := Parse(strings.NewReader(sample))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	checked, skipped := Filter(entries, DefaultSkipPrefixes)
	if diff := cmp.Diff([]string{"busybox", "connman", "libc6"}, Packages(checked)); diff != "" {
		t.Fatalf("unexpected checked packages (-want +got):\n%s", diff)
	}
	want := []string{"kernel-module-e1000", "libpam-runtime", "packagegroup-core-boot", "linux-firmware-i915", "pam-plugin-unix"}
	if diff := cmp.Diff(want, Packages(skipped)); diff != "" {
		t.Fatalf("unexpected skipped packages (-want +got):\n%s", diff)
	}
}

func TestFilter_NoPrefixes(t *testing.T) {
	entries := []Entry{{Package: "kernel-image"}, {Package: "busybox"}}
	checked, skipped := Filter(entries, []string{""})
	if len(checked) != 2 || len(skipped) != 0 {
		t.Fatalf("expected nothing skipped, got checked=%v skipped=%v", checked, skipped)
	}
}

func TestParseFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "package.manifest")
	if err := os.WriteFile(path, []byte("busybox core2-64 1.24.1\n"), 0o644); err != nil {
		t.Fatalf("write manifest: %v", err)
	}
	entries, err := ParseFile(path)
	if err != nil {
		t.Fatalf("ParseFile: %v", err)
	}
	if len(entries) != 1 || entries[0].Package != "busybox" {
		t.Fatalf("unexpected entries %+v", entries)
	}

	if _, err := ParseFile(filepath.Join(t.TempDir(), "missing")); !os.IsNotExist(err) {
		t.Fatalf("expected not-exist error, got %v", err)
	}
}
