package lang

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

const contextSource = `
	<one 'eins'>

	<types {
		str: "string",
		num: "number",
		bool: "boolean",
		*other: "other"
	}>

	<typesIndexed[$type] {
		str: "string",
		num: "number",
		bool: "boolean",
		*other: "other"
	}>

	<type "{{ types[$type] }}">

	<withAttribs
		'Me have attributes!'
		color:'red'
	>

	<withBadAttribs
		error:'{{ $noSuchVar }}'
		indexError[$noSuchVar]:{k1: "v1", k2: "v2"}
	>

	<withoutContent dummy:"dummy">

	<accessObjKeyProp "{{ $obj.key }}">

	<luckyNum "Your lucky number is {{ $num }}">
`

func newTestContext(t *testing.T) *Context {
	t.Helper()

	c, err := ContextFromSource(t.Context(), contextSource)
	if err != nil {
		t.Fatalf("context error: %v", err)
	}

	return c
}

func TestContext_Query(t *testing.T) {
	tests := []struct {
		name  string
		query string
		vars  map[string]any
		want  string
	}{
		{name: "plain entity", query: "one", want: "eins"},
		{name: "hash default", query: "types", want: "other"},
		{name: "hash lookup", query: "type", vars: map[string]any{"type": "num"}, want: "number"},
		{name: "attribute", query: "withAttribs::color", want: "red"},
		{name: "entity with attributes", query: "withAttribs", want: "Me have attributes!"},
		{name: "entity without content", query: "withoutContent", want: ""},
		{
			name:  "object property",
			query: "accessObjKeyProp",
			vars:  map[string]any{"obj": map[string]any{"key": "value"}},
			want:  "value",
		},
		{name: "failing placeable", query: "type", want: "{{ types[$type] }}"},
		{name: "failing index", query: "typesIndexed", want: "typesIndexed"},
		{name: "failing attribute", query: "withBadAttribs::error", want: "{{ $noSuchVar }}"},
		{
			name:  "failing attribute index",
			query: "withBadAttribs::indexError",
			want:  "withBadAttribs::indexError",
		},
		{name: "missing entity", query: "noSuchEntity", want: "noSuchEntity"},
	}

	c := newTestContext(t)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := c.Query(tt.query, tt.vars); got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestContext_Lookup(t *testing.T) {
	c := newTestContext(t)

	got, err := c.Lookup("type", map[string]any{"type": "bool"})
	if err != nil || got != "boolean" {
		t.Errorf("expected %q, got %q (err %v)", "boolean", got, err)
	}

	if _, err := c.Lookup("type", nil); !errors.Is(err, ErrName) {
		t.Errorf("expected ErrName, got %v", err)
	}

	if _, err := c.Lookup("withAttribs::size", nil); !errors.Is(err, ErrName) {
		t.Errorf("expected ErrName for a missing attribute, got %v", err)
	}
}

func TestContext_VariableOverrides(t *testing.T) {
	c := newTestContext(t)
	c.Set("num", 42)

	if got := c.Query("luckyNum", nil); got != "Your lucky number is 42" {
		t.Errorf("unexpected result %q", got)
	}

	if got := c.Query("luckyNum", map[string]any{"num": 13}); got != "Your lucky number is 13" {
		t.Errorf("unexpected result %q", got)
	}

	if v, _ := c.Get("num"); v != 42.0 {
		t.Errorf("expected per-query variables to leave the context unchanged, got %v", v)
	}
}

func TestContext_Variables(t *testing.T) {
	c := newTestContext(t)

	if _, ok := c.Get("missing"); ok {
		t.Error("expected missing variable")
	}

	if c.Has("missing") {
		t.Error("expected Has to report false")
	}

	c.Set("found", "yes")

	if v, ok := c.Get("found"); !ok || v != "yes" {
		t.Errorf("expected %q, got %v", "yes", v)
	}

	if !c.Has("found") {
		t.Error("expected Has to report true")
	}

	if diff := cmp.Diff(map[string]any{"found": "yes"}, c.Vars()); diff != "" {
		t.Errorf("vars mismatch (-want +got):\n%s", diff)
	}

	if err := c.Delete("found"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if c.Has("found") {
		t.Error("expected variable to be deleted")
	}

	if err := c.Delete("found"); !errors.Is(err, ErrName) {
		t.Errorf("expected ErrName deleting a missing variable, got %v", err)
	}
}

func TestContext_InitialVars(t *testing.T) {
	c, err := ContextFromSource(t.Context(), `<n "{{ $n }}">`,
		WithVars(map[string]any{"n": uint8(7)}))
	if err != nil {
		t.Fatalf("context error: %v", err)
	}

	if got := c.Query("n", nil); got != "7" {
		t.Errorf("expected %q, got %q", "7", got)
	}
}

func TestContext_ErrorHook(t *testing.T) {
	tests := []struct {
		name   string
		source string
		query  string
		want   string
	}{
		{"missing entity", "", "noSuchEntity", "noSuchEntity"},
		{"missing variable", `<a "{{ $missing }}">`, "a", "{{ $missing }}"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := ContextFromSource(t.Context(), tt.source)
			if err != nil {
				t.Fatalf("context error: %v", err)
			}

			var (
				gotQuery string
				gotErr   error
			)

			c.SetErrorHook(func(query string, err error) {
				gotQuery, gotErr = query, err
			})

			if got := c.Query(tt.query, nil); got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}

			if gotQuery != tt.query {
				t.Errorf("expected hook query %q, got %q", tt.query, gotQuery)
			}

			if !errors.Is(gotErr, ErrName) {
				t.Errorf("expected hook error to match ErrName, got %v", gotErr)
			}
		})
	}
}

func TestContextFromPath(t *testing.T) {
	dir := t.TempDir()

	err := os.WriteFile(filepath.Join(dir, "numbers.l20n"),
		[]byte(`<thousand "1000"> <pi "3.14">`), 0o600)
	if err != nil {
		t.Fatal(err)
	}

	c, err := ContextFromPath(t.Context(), "numbers.l20n", WithLoader(NewFSLoader(dir)))
	if err != nil {
		t.Fatalf("context error: %v", err)
	}

	if got := c.Query("thousand", nil); got != "1000" {
		t.Errorf("expected %q, got %q", "1000", got)
	}

	_, err = ContextFromPath(t.Context(), "no-such-file", WithLoader(NewFSLoader(dir)))
	if !errors.Is(err, ErrLoader) {
		t.Errorf("expected ErrLoader, got %v", err)
	}

	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected the error to wrap os.ErrNotExist, got %v", err)
	}
}

func TestContextFromSource_Imports(t *testing.T) {
	_, err := ContextFromSource(t.Context(), `import("other.l20n")`)
	if !errors.Is(err, ErrBuild) {
		t.Errorf("expected ErrBuild, got %v", err)
	}
}
