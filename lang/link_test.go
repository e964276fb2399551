package lang

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func buildFiles(t *testing.T, files map[string]string, root string) (*Program, error) {
	t.Helper()

	return BuildPath(t.Context(), root, WithLoader(NewMapLoader(files, "")))
}

func mustBuildFiles(t *testing.T, files map[string]string, root string) *Program {
	t.Helper()

	prog, err := buildFiles(t, files, root)
	if err != nil {
		t.Fatalf("build error: %v", err)
	}

	return prog
}

func resolveString(t *testing.T, env *Env, name string) string {
	t.Helper()

	v, err := env.ResolveEntity(name)
	if err != nil {
		t.Fatalf("resolve %s: %v", name, err)
	}

	return FormatValue(v)
}

func TestLink_Scopes(t *testing.T) {
	tests := []struct {
		name  string
		files map[string]string
		query string
		want  string
	}{
		{
			name: "transitive import",
			files: map[string]string{
				"a.l20n": `import("b.l20n") <x "{{ y }}">`,
				"b.l20n": `import("c.l20n")`,
				"c.l20n": `<y "from c">`,
			},
			query: "x",
			want:  "from c",
		},
		{
			name: "own entries shadow imports",
			files: map[string]string{
				"a.l20n": `<x "own"> import("b.l20n")`,
				"b.l20n": `<x "imported">`,
			},
			query: "x",
			want:  "own",
		},
		{
			name: "later import overrides earlier",
			files: map[string]string{
				"a.l20n": `import("b.l20n") import("c.l20n")`,
				"b.l20n": `<x "b">`,
				"c.l20n": `<x "c">`,
			},
			query: "x",
			want:  "c",
		},
		{
			name: "imported entry sees its own module",
			files: map[string]string{
				"a.l20n": `import("b.l20n") <name "A">`,
				"b.l20n": `<greet "Hi {{ name }}"> <name "B">`,
			},
			query: "greet",
			want:  "Hi B",
		},
		{
			name: "imported macro sees its own module",
			files: map[string]string{
				"a.l20n":          `import("lib/plural.l20n") <n "{{ plural(1) }}"> <one "A">`,
				"lib/plural.l20n": `<plural($n) { $n == 1 ? one : "many" }> <one "one">`,
			},
			query: "n",
			want:  "one",
		},
		{
			name: "local entry used by its module",
			files: map[string]string{
				"a.l20n": `import("b.l20n")`,
				"b.l20n": `<_secret "hidden"> <pub "{{ _secret }}">`,
			},
			query: "pub",
			want:  "hidden",
		},
		{
			name: "diamond",
			files: map[string]string{
				"a.l20n": `import("b.l20n") import("c.l20n") <x "{{ b }} {{ c }}">`,
				"b.l20n": `import("d.l20n") <b "b{{ d }}">`,
				"c.l20n": `import("d.l20n") <c "c{{ d }}">`,
				"d.l20n": `<d "d">`,
			},
			query: "x",
			want:  "bd cd",
		},
		{
			name: "relative import paths",
			files: map[string]string{
				"app/main.l20n":     `import("../shared/brand.l20n") <title "{{ brand }}">`,
				"shared/brand.l20n": `<brand "Firefox">`,
			},
			query: "title",
			want:  "Firefox",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := "a.l20n"
			if _, ok := tt.files[root]; !ok {
				root = "app/main.l20n"
			}

			prog := mustBuildFiles(t, tt.files, root)

			if got := resolveString(t, prog.NewEnv(), tt.query); got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestLink_Locals(t *testing.T) {
	files := map[string]string{
		"a.l20n": `import("b.l20n") <leak "{{ _secret }}"> <_own "mine">`,
		"b.l20n": `<_secret "hidden">`,
	}

	prog := mustBuildFiles(t, files, "a.l20n")

	if prog.Has("_secret") {
		t.Error("expected local entry of an import to be invisible")
	}

	env := prog.NewEnv()

	if _, err := env.ResolveEntity("leak"); !errors.Is(err, ErrName) {
		t.Errorf("expected ErrName, got %v", err)
	}

	if _, err := env.ResolveEntity("_own"); !errors.Is(err, ErrName) {
		t.Errorf("expected ErrName querying a local entry, got %v", err)
	}

	if diff := cmp.Diff([]string{"leak"}, prog.Entities()); diff != "" {
		t.Errorf("entities mismatch (-want +got):\n%s", diff)
	}
}

func TestLink_Diamond_SharedModule(t *testing.T) {
	files := map[string]string{
		"a.l20n": `import("b.l20n") import("c.l20n")`,
		"b.l20n": `import("d.l20n")`,
		"c.l20n": `import("d.l20n")`,
		"d.l20n": `<d "d">`,
	}

	prog := mustBuildFiles(t, files, "a.l20n")

	deps := prog.Module().Deps()
	if len(deps) != 2 {
		t.Fatalf("expected 2 dependencies, got %d", len(deps))
	}

	if deps[0].Deps()[0] != deps[1].Deps()[0] {
		t.Error("expected both imports of d.l20n to share one module")
	}
}

func TestLink_Circular(t *testing.T) {
	tests := []struct {
		name  string
		files map[string]string
		chain string
	}{
		{
			name: "self import",
			files: map[string]string{
				"a.l20n": `import("a.l20n") <x "x">`,
			},
			chain: "a.l20n -> a.l20n",
		},
		{
			name: "two modules",
			files: map[string]string{
				"a.l20n": `import("b.l20n")`,
				"b.l20n": `import("a.l20n")`,
			},
			chain: "a.l20n -> b.l20n -> a.l20n",
		},
		{
			name: "longer cycle",
			files: map[string]string{
				"a.l20n": `import("b.l20n")`,
				"b.l20n": `import("c.l20n")`,
				"c.l20n": `import("b.l20n")`,
			},
			chain: "a.l20n -> b.l20n -> c.l20n -> b.l20n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := buildFiles(t, tt.files, "a.l20n")
			if !errors.Is(err, ErrCircularDependency) {
				t.Fatalf("expected ErrCircularDependency, got %v", err)
			}

			if !strings.Contains(err.Error(), tt.chain) {
				t.Errorf("expected %q in error, got %q", tt.chain, err.Error())
			}
		})
	}
}

func TestLink_MissingDeps(t *testing.T) {
	m := mustCompile(t, `import("b.l20n") <x "x">`)

	if _, err := Link(m); !errors.Is(err, ErrBuild) {
		t.Errorf("expected ErrBuild, got %v", err)
	}
}

func TestLink_Memoized(t *testing.T) {
	dep := mustCompile(t, `<d "d">`)
	dep.SetDeps(nil)

	m := mustCompile(t, `import("d") <x "{{ d }}">`)
	m.SetDeps([]*Module{dep})

	first, err := Link(m)
	if err != nil {
		t.Fatalf("link error: %v", err)
	}

	ns := dep.ns

	second, err := Link(m)
	if err != nil {
		t.Fatalf("link error: %v", err)
	}

	if dep.ns != ns {
		t.Error("expected relinking to reuse the linked dependency")
	}

	if first.Names()[0] != second.Names()[0] {
		t.Error("expected programs over the same module to agree")
	}
}

func TestProgram_Introspection(t *testing.T) {
	prog, err := BuildStandalone(t.Context(), `
		<a "x" title: "y">
		<b "{{ a }}">
		<_c "z">
		<m($n) { $n }>
		<h {k: "v"}>
	`)
	if err != nil {
		t.Fatalf("build error: %v", err)
	}

	if diff := cmp.Diff([]string{"_c", "a", "b", "h", "m"}, prog.Names()); diff != "" {
		t.Errorf("names mismatch (-want +got):\n%s", diff)
	}

	if diff := cmp.Diff([]string{"a", "b", "h"}, prog.Entities()); diff != "" {
		t.Errorf("entities mismatch (-want +got):\n%s", diff)
	}

	if diff := cmp.Diff([]string{"m"}, prog.Macros()); diff != "" {
		t.Errorf("macros mismatch (-want +got):\n%s", diff)
	}

	if !prog.Has("m") || prog.Has("missing") {
		t.Error("Has reported the wrong names")
	}

	direct := []struct {
		query string
		want  string
		ok    bool
	}{
		{"a", "x", true},
		{"a::title", "y", true},
		{"b", "", false},
		{"h", "", false},
		{"_c", "", false},
		{"missing", "", false},
	}

	for _, tt := range direct {
		got, ok := prog.Direct(tt.query)
		if got != tt.want || ok != tt.ok {
			t.Errorf("Direct(%q) = %q, %v; expected %q, %v", tt.query, got, ok, tt.want, tt.ok)
		}
	}
}
