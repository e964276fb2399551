package cmd

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/alecthomas/kong"
	"github.com/google/go-cmp/cmp"

	"github.com/ardnew/l20n/lang"
)

type initCLI struct {
	Log struct {
		Level  string `default:"info"`
		Pretty bool   `default:"true"`
	} `embed:"" prefix:"log-"`

	Pprof struct {
		Mode string `default:"cpu"`
	} `embed:"" prefix:"pprof-"`

	Include []string
	Name    string
	Secret  string `default:"x" hidden:""`
	Depth   int    `default:"3"`
}

// initContext parses args into a kong context whose configuration path is
// confPath.
func initContext(t *testing.T, confPath string, args ...string) context.Context {
	t.Helper()

	var cli initCLI

	parser, err := kong.New(&cli, kong.Vars{ConfigIdentifier: confPath})
	if err != nil {
		t.Fatal(err)
	}

	ktx, err := parser.Parse(args)
	if err != nil {
		t.Fatal(err)
	}

	return WithContext(t.Context(), ktx)
}

func TestInit_Run(t *testing.T) {
	tests := []struct {
		name    string
		force   bool
		exists  bool
		wantErr error
	}{
		{name: "create new config"},
		{name: "overwrite existing with force", force: true, exists: true},
		{name: "fail without force", exists: true, wantErr: ErrFileExists},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			confPath := filepath.Join(t.TempDir(), "config")

			if tt.exists {
				if err := os.WriteFile(confPath, []byte(`<old "x">`), 0o600); err != nil {
					t.Fatal(err)
				}
			}

			ctx := initContext(t, confPath, "--include=/usr/share/l20n,/opt/l20n")

			err := (&Init{Force: tt.force}).Run(ctx)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) || !errors.Is(err, ErrWriteConfig) {
					t.Fatalf("Run error = %v, want %v", err, tt.wantErr)
				}

				return
			}

			if err != nil {
				t.Fatalf("Run failed: %v", err)
			}

			content, err := os.ReadFile(confPath)
			if err != nil {
				t.Fatal(err)
			}

			want := `<log_level "info">` + "\n" +
				`<log_pretty "true">` + "\n" +
				`<include "/usr/share/l20n,/opt/l20n">` + "\n" +
				`<depth "3">` + "\n"

			if diff := cmp.Diff(want, string(content)); diff != "" {
				t.Errorf("config mismatch (-want +got):\n%s", diff)
			}

			lctx, err := lang.ContextFromSource(t.Context(), string(content))
			if err != nil {
				t.Fatalf("generated config does not build: %v", err)
			}

			if got, err := lctx.Lookup("log_level", nil); err != nil || got != "info" {
				t.Errorf("log_level = %q, %v; want %q", got, err, "info")
			}
		})
	}
}

func TestInit_InvalidPath(t *testing.T) {
	confPath := filepath.Join(t.TempDir(), "missing", "dir", "config")

	err := (&Init{}).Run(initContext(t, confPath))
	if !errors.Is(err, ErrWriteConfig) {
		t.Errorf("Run error = %v, want %v", err, ErrWriteConfig)
	}
}

func TestFlagValue(t *testing.T) {
	tests := []struct {
		name   string
		value  any
		want   string
		wantOK bool
	}{
		{"nil", nil, "", false},
		{"true", true, "true", true},
		{"false", false, "false", true},
		{"string", "text", "text", true},
		{"empty string", "", "", false},
		{"int", 42, "42", true},
		{"float", 1.5, "1.5", true},
		{"strings", []string{"a", "b"}, "a,b", true},
		{"empty strings", []string{}, "", false},
		{"quotes are kept", `say "hi" {{ x }}`, `say "hi" {{ x }}`, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := flagValue(tt.value)
			if got != tt.want || ok != tt.wantOK {
				t.Errorf("flagValue(%v) = (%q, %v), want (%q, %v)",
					tt.value, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestInit_RoundTripEscapes(t *testing.T) {
	confPath := filepath.Join(t.TempDir(), "config")
	value := `it's "{{ quoted }}" \ ok`

	if err := (&Init{}).Run(initContext(t, confPath, "--name", value)); err != nil {
		t.Fatal(err)
	}

	content, err := os.ReadFile(confPath)
	if err != nil {
		t.Fatal(err)
	}

	lctx, err := lang.ContextFromSource(t.Context(), string(content))
	if err != nil {
		t.Fatalf("generated config does not build: %v\n%s", err, content)
	}

	got, err := lctx.Lookup("name", nil)
	if err != nil {
		t.Fatal(err)
	}

	if got != value {
		t.Errorf("name = %q, want %q", got, value)
	}
}
