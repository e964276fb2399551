package lang

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestResolveSimplePath(t *testing.T) {
	tests := []struct {
		base string
		path string
		want string
	}{
		{"", "aaa", "aaa"},
		{"", "/xyz", "xyz"},
		{"", "/a/b/../c/./d", "a/c/d"},
		{"", "..", ""},
		{"", "a/", "a/"},
		{"", "a//b", "a/b"},
		{"a/f1.l20n", "../../f2.l20n", "f2.l20n"},
		{"a/f1.l20n", "b/f2.l20n", "a/b/f2.l20n"},
		{"a/f1.l20n", "/f2.l20n", "f2.l20n"},
		{"a/b/", "c.l20n", "a/b/c.l20n"},
		{"base", "", "base"},
	}

	for _, tt := range tests {
		t.Run(tt.base+"+"+tt.path, func(t *testing.T) {
			if got := resolveSimplePath(tt.base, tt.path); got != tt.want {
				t.Errorf("resolveSimplePath(%q, %q) = %q, expected %q",
					tt.base, tt.path, got, tt.want)
			}
		})
	}
}

func TestMapLoader(t *testing.T) {
	l := NewMapLoader(map[string]string{"dir/a.l20n": `<a "a">`}, "dir/")

	path := l.PreparePath("a.l20n")
	if path != "dir/a.l20n" {
		t.Fatalf("expected %q, got %q", "dir/a.l20n", path)
	}

	src, err := l.LoadSource(t.Context(), path)
	if err != nil || src != `<a "a">` {
		t.Errorf("expected source, got %q (err %v)", src, err)
	}

	if got := l.PrepareImportPath(path, "../b.l20n"); got != "b.l20n" {
		t.Errorf("expected %q, got %q", "b.l20n", got)
	}

	if _, err := l.LoadSource(t.Context(), "b.l20n"); !errors.Is(err, ErrLoader) {
		t.Errorf("expected ErrLoader, got %v", err)
	}

	if got := l.FormatPath(path); got != path {
		t.Errorf("expected FormatPath to return the path unchanged, got %q", got)
	}
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}

	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
}

func TestFSLoader(t *testing.T) {
	root := t.TempDir()
	include := filepath.Join(root, "include")

	writeFile(t, filepath.Join(root, "app", "main.l20n"), `<main "main">`)
	writeFile(t, filepath.Join(root, "app", "local.l20n"), `<local "local">`)
	writeFile(t, filepath.Join(include, "shared.l20n"), `<shared "shared">`)
	writeFile(t, filepath.Join(include, "local.l20n"), `<local "shadowed">`)

	l := NewFSLoader(root, include, "")

	if got := l.Include(); len(got) != 1 || got[0] != include {
		t.Errorf("expected include dirs [%s], got %v", include, got)
	}

	main := l.PreparePath(filepath.Join("app", "main.l20n"))
	if main != filepath.Join(root, "app", "main.l20n") {
		t.Fatalf("unexpected prepared path %q", main)
	}

	if got := l.PreparePath(""); got != root+string(filepath.Separator) {
		t.Errorf("expected base directory with separator, got %q", got)
	}

	tests := []struct {
		name string
		uri  string
		want string
	}{
		{"sibling wins over include", "local.l20n", filepath.Join(root, "app", "local.l20n")},
		{"include directory", "shared.l20n", filepath.Join(include, "shared.l20n")},
		{"missing stays relative", "missing.l20n", filepath.Join(root, "app", "missing.l20n")},
		{"parent directory", "../include/shared.l20n", filepath.Join(include, "shared.l20n")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := l.PrepareImportPath(main, tt.uri); got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}

	src, err := l.LoadSource(t.Context(), main)
	if err != nil || src != `<main "main">` {
		t.Errorf("expected source, got %q (err %v)", src, err)
	}

	_, err = l.LoadSource(t.Context(), filepath.Join(root, "missing.l20n"))
	if !errors.Is(err, ErrLoader) || !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected ErrLoader wrapping os.ErrNotExist, got %v", err)
	}

	if got := l.FormatPath(main); got != filepath.Join("app", "main.l20n") {
		t.Errorf("expected path relative to base, got %q", got)
	}

	outside := filepath.Join(filepath.Dir(root), "elsewhere.l20n")
	if got := l.FormatPath(outside); got != outside {
		t.Errorf("expected path outside base unchanged, got %q", got)
	}
}

func TestReadAll(t *testing.T) {
	want := strings.Repeat("<entity \"value\">\n", 10000)

	got, err := readAll(strings.NewReader(want))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if string(got) != want {
		t.Errorf("expected %d bytes, got %d", len(want), len(got))
	}
}
