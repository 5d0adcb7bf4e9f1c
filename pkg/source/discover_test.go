package source

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/matzehuels/uptix/pkg/errors"
)

func writeTree(t *testing.T, files ...string) string {
	t.Helper()
	root := t.TempDir()
	for _, f := range files {
		path := filepath.Join(root, filepath.FromSlash(f))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte("{ }"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return root
}

func rel(t *testing.T, root string, paths []string) []string {
	t.Helper()
	out := make([]string, len(paths))
	for i, p := range paths {
		r, err := filepath.Rel(root, p)
		if err != nil {
			t.Fatal(err)
		}
		out[i] = filepath.ToSlash(r)
	}
	return out
}

func TestDiscover(t *testing.T) {
	root := writeTree(t,
		"flake.nix",
		"hosts/web/default.nix",
		"hosts/db.nix",
		"README.md",
		"modules/uptix.lock",
		".git/hooks/pre-commit.nix",
		".direnv/shell.nix",
		"modules/.hidden.nix",
		"result/nix-support.txt",
	)

	files, err := Discover(root, nil)
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	want := []string{"flake.nix", "hosts/db.nix", "hosts/web/default.nix"}
	if diff := cmp.Diff(want, rel(t, root, files)); diff != "" {
		t.Errorf("files mismatch (-want +got):\n%s", diff)
	}
}

func TestDiscoverExclude(t *testing.T) {
	root := writeTree(t,
		"flake.nix",
		"hosts/web/default.nix",
		"vendor/lib.nix",
		"hardware-configuration.nix",
	)

	files, err := Discover(root, []string{"vendor", "hardware-*.nix"})
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	want := []string{"flake.nix", "hosts/web/default.nix"}
	if diff := cmp.Diff(want, rel(t, root, files)); diff != "" {
		t.Errorf("files mismatch (-want +got):\n%s", diff)
	}
}

func TestDiscoverEmpty(t *testing.T) {
	files, err := Discover(t.TempDir(), nil)
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	if len(files) != 0 {
		t.Errorf("files = %v, want none", files)
	}
}

func TestDiscoverErrors(t *testing.T) {
	if _, err := Discover(filepath.Join(t.TempDir(), "missing"), nil); !errors.Is(err, errors.ErrCodeIO) {
		t.Errorf("missing root code = %v, want %v", errors.GetCode(err), errors.ErrCodeIO)
	}
	if _, err := Discover(t.TempDir(), []string{"["}); !errors.Is(err, errors.ErrCodeUsage) {
		t.Errorf("bad pattern code = %v, want %v", errors.GetCode(err), errors.ErrCodeUsage)
	}
}
