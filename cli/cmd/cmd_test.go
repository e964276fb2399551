package cmd

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/ardnew/l20n/lang"
	"github.com/ardnew/l20n/pkg"
)

// writeFiles creates files relative to dir and returns dir.
func writeFiles(t *testing.T, dir string, files map[string]string) string {
	t.Helper()

	for name, content := range files {
		path := filepath.Join(dir, name)

		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}

		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	return dir
}

func TestWithInclude(t *testing.T) {
	if got := includeFrom(t.Context()); got != nil {
		t.Errorf("includeFrom(empty) = %v, want nil", got)
	}

	dirs := []string{"/a", "/b"}
	ctx := WithInclude(t.Context(), dirs)

	if diff := cmp.Diff(dirs, includeFrom(ctx)); diff != "" {
		t.Errorf("includeFrom mismatch (-want +got):\n%s", diff)
	}
}

func TestUniqueSources(t *testing.T) {
	dir := writeFiles(t, t.TempDir(), map[string]string{
		"a.l20n": `<a "a">`,
		"b.l20n": `<b "b">`,
	})

	a := filepath.Join(dir, "a.l20n")
	b := filepath.Join(dir, "b.l20n")
	link := filepath.Join(dir, "link.l20n")
	missing := filepath.Join(dir, "missing.l20n")

	if err := os.Symlink(a, link); err != nil {
		t.Fatal(err)
	}

	t.Chdir(dir)

	tests := []struct {
		name    string
		sources []string
		want    []string
	}{
		{
			name:    "distinct files keep order",
			sources: []string{b, a},
			want:    []string{b, a},
		},
		{
			name:    "repeated path",
			sources: []string{a, b, a},
			want:    []string{a, b},
		},
		{
			name:    "relative and absolute",
			sources: []string{"a.l20n", a},
			want:    []string{"a.l20n"},
		},
		{
			name:    "symlink",
			sources: []string{a, link},
			want:    []string{a},
		},
		{
			name:    "stdin collapsed and last",
			sources: []string{"-", a, "-", b},
			want:    []string{a, b, "-"},
		},
		{
			name:    "missing file kept",
			sources: []string{missing, a},
			want:    []string{missing, a},
		},
		{
			name:    "empty",
			sources: nil,
			want:    []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := uniqueSources(t.Context(), tt.sources)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("uniqueSources mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestBuild(t *testing.T) {
	root := t.TempDir()
	lib := filepath.Join(root, "lib")

	writeFiles(t, root, map[string]string{
		"app/main.l20n":    `import("brand.l20n") <hello "Hello, {{ brandName }}!">`,
		"lib/brand.l20n":   `<brandName "Firefox">`,
		"app/broken.l20n":  `<hello "Hello"`,
		"app/missing.l20n": `import("nowhere.l20n") <hello "Hello">`,
	})

	tests := []struct {
		name    string
		path    string
		include []string
		want    string
		wantErr error
	}{
		{
			name:    "import from include path",
			path:    filepath.Join(root, "app", "main.l20n"),
			include: []string{lib},
			want:    "Hello, Firefox!",
		},
		{
			name:    "import not found",
			path:    filepath.Join(root, "app", "main.l20n"),
			wantErr: lang.ErrLoader,
		},
		{
			name:    "parse error",
			path:    filepath.Join(root, "app", "broken.l20n"),
			wantErr: lang.ErrParse,
		},
		{
			name:    "import missing from include path",
			path:    filepath.Join(root, "app", "missing.l20n"),
			include: []string{lib},
			wantErr: lang.ErrLoader,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := WithInclude(t.Context(), tt.include)

			prog, err := build(ctx, tt.path)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("build error = %v, want %v", err, tt.wantErr)
				}

				return
			}

			if err != nil {
				t.Fatalf("build failed: %v", err)
			}

			got, err := lang.NewContext(prog).Lookup("hello", nil)
			if err != nil {
				t.Fatalf("Lookup failed: %v", err)
			}

			if got != tt.want {
				t.Errorf("hello = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestParse_Missing(t *testing.T) {
	_, err := parse(t.Context(), filepath.Join(t.TempDir(), "missing.l20n"))
	if !errors.Is(err, pkg.ErrReadInput) {
		t.Errorf("parse error = %v, want %v", err, pkg.ErrReadInput)
	}
}

func TestReadSource(t *testing.T) {
	path := filepath.Join(writeFiles(t, t.TempDir(), map[string]string{
		"a.l20n": `<a "a">`,
	}), "a.l20n")

	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	got, err := readSource(f)
	if err != nil {
		t.Fatal(err)
	}

	if got != `<a "a">` {
		t.Errorf("readSource = %q", got)
	}
}
