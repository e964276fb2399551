package lang

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
)

// countingLoader counts the sources read through a MapLoader.
type countingLoader struct {
	*MapLoader

	loads map[string]int
}

func newCountingLoader(files map[string]string) *countingLoader {
	return &countingLoader{MapLoader: NewMapLoader(files, ""), loads: map[string]int{}}
}

func (l *countingLoader) LoadSource(ctx context.Context, path string) (string, error) {
	l.loads[path]++

	return l.MapLoader.LoadSource(ctx, path)
}

func TestBuildStandalone(t *testing.T) {
	prog, err := BuildStandalone(t.Context(), `<a "x">`)
	if err != nil {
		t.Fatalf("build error: %v", err)
	}

	if got := resolveString(t, prog.NewEnv(), "a"); got != "x" {
		t.Errorf("expected %q, got %q", "x", got)
	}

	if _, err := BuildStandalone(t.Context(), `<a "x"> import("b.l20n")`); !errors.Is(err, ErrBuild) {
		t.Errorf("expected ErrBuild, got %v", err)
	}

	if _, err := BuildStandalone(t.Context(), `<a "x"`); !errors.Is(err, ErrParse) {
		t.Errorf("expected ErrParse, got %v", err)
	}
}

func TestBuildSource(t *testing.T) {
	files := map[string]string{
		"lib/brand.l20n": `<brand "Firefox">`,
	}

	prog, err := BuildSource(t.Context(),
		`import("brand.l20n") <title "{{ brand }} Settings">`, "lib/main.l20n",
		WithLoader(NewMapLoader(files, "")))
	if err != nil {
		t.Fatalf("build error: %v", err)
	}

	if got := resolveString(t, prog.NewEnv(), "title"); got != "Firefox Settings" {
		t.Errorf("expected %q, got %q", "Firefox Settings", got)
	}

	if prog.Path() != "lib/main.l20n" {
		t.Errorf("expected root path %q, got %q", "lib/main.l20n", prog.Path())
	}
}

func TestBuild_Errors(t *testing.T) {
	tests := []struct {
		name  string
		files map[string]string
		want  error
		path  string
	}{
		{
			name:  "missing root",
			files: map[string]string{},
			want:  ErrLoader,
		},
		{
			name: "missing import",
			files: map[string]string{
				"a.l20n": `import("missing.l20n")`,
			},
			want: ErrLoader,
		},
		{
			name: "parse error in import",
			files: map[string]string{
				"a.l20n": `import("b.l20n")`,
				"b.l20n": `<b "unclosed>`,
			},
			want: ErrParse,
			path: "b.l20n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cache := NewCache()

			_, err := BuildPath(t.Context(), "a.l20n",
				WithLoader(NewMapLoader(tt.files, "")),
				WithCache(cache))
			if !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}

			if tt.path != "" {
				var pe *ParseError
				if !errors.As(err, &pe) || pe.Pos.Path != tt.path {
					t.Errorf("expected parse error in %q, got %v", tt.path, err)
				}
			}

			if cache.Len() != 0 {
				t.Errorf("expected a failed build to cache nothing, got %d modules", cache.Len())
			}
		})
	}
}

func TestBuild_Cache(t *testing.T) {
	files := map[string]string{
		"a.l20n": `import("b.l20n") import("c.l20n") <a "{{ b }}{{ c }}">`,
		"b.l20n": `import("c.l20n") <b "b">`,
		"c.l20n": `<c "c">`,
	}

	loader := newCountingLoader(files)
	cache := NewCache()

	for range 3 {
		prog, err := BuildPath(t.Context(), "a.l20n", WithLoader(loader), WithCache(cache))
		if err != nil {
			t.Fatalf("build error: %v", err)
		}

		if got := resolveString(t, prog.NewEnv(), "a"); got != "bc" {
			t.Errorf("expected %q, got %q", "bc", got)
		}
	}

	for path, n := range loader.loads {
		if n != 1 {
			t.Errorf("expected %s to be loaded once, got %d", path, n)
		}
	}

	if cache.Len() != 3 {
		t.Errorf("expected 3 cached modules, got %d", cache.Len())
	}

	if _, ok := cache.Module("c.l20n"); !ok {
		t.Error("expected c.l20n to be cached")
	}

	// anonymous source reuses cached imports and is not cached itself
	prog, err := BuildSource(t.Context(), `import("c.l20n") <x "{{ c }}!">`, "",
		WithLoader(loader), WithCache(cache))
	if err != nil {
		t.Fatalf("build error: %v", err)
	}

	if got := resolveString(t, prog.NewEnv(), "x"); got != "c!" {
		t.Errorf("expected %q, got %q", "c!", got)
	}

	if loader.loads["c.l20n"] != 1 || cache.Len() != 3 {
		t.Errorf("expected the cached import to be reused, loads %v, cached %d",
			loader.loads, cache.Len())
	}

	cache.Clear()

	if cache.Len() != 0 {
		t.Errorf("expected an empty cache, got %d modules", cache.Len())
	}

	if _, err := BuildPath(t.Context(), "a.l20n", WithLoader(loader), WithCache(cache)); err != nil {
		t.Fatalf("build error: %v", err)
	}

	if loader.loads["a.l20n"] != 2 {
		t.Errorf("expected a reload after clearing, got %d loads", loader.loads["a.l20n"])
	}
}

func TestBuild_FSLoader(t *testing.T) {
	root := t.TempDir()
	include := filepath.Join(root, "shared")

	writeFile(t, filepath.Join(root, "en", "app.l20n"),
		`import("brand.l20n") import("plural.l20n")
		<unread[plural($n)] {one: "one message", *many: "{{ $n }} messages from {{ brand }}"}>`)
	writeFile(t, filepath.Join(root, "en", "brand.l20n"), `<brand "Firefox">`)
	writeFile(t, filepath.Join(include, "plural.l20n"), `<plural($n) { $n == 1 ? "one" : "many" }>`)

	prog, err := BuildPath(t.Context(), filepath.Join("en", "app.l20n"),
		WithLoader(NewFSLoader(root, include)))
	if err != nil {
		t.Fatalf("build error: %v", err)
	}

	env := prog.NewEnv(WithVars(map[string]any{"n": 3}))
	if got := resolveString(t, env, "unread"); got != "3 messages from Firefox" {
		t.Errorf("unexpected result %q", got)
	}
}
