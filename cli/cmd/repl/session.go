package repl

import (
	"context"
	"log/slog"
	"maps"
	"os"
	"slices"
	"strconv"
	"strings"

	"github.com/expr-lang/expr"

	"github.com/ardnew/l20n/lang"
	"github.com/ardnew/l20n/log"
)

// Session is a built resource together with the variables set in the REPL.
type Session struct {
	path   string
	source string
	opts   []lang.Option
	cache  *lang.Cache
	lctx   *lang.Context
	logger log.Logger
}

// NewSession builds source as if it were read from path. An empty path
// resolves imports against the working directory.
func NewSession(
	ctx context.Context,
	path, source string,
	logger log.Logger,
	opts ...lang.Option,
) (*Session, error) {
	s := &Session{
		path:   path,
		opts:   slices.Clip(opts),
		cache:  lang.NewCache(),
		logger: logger,
	}

	if err := s.Load(ctx, source); err != nil {
		return nil, err
	}

	return s, nil
}

// Load rebuilds the session from source, keeping the current variables.
// The session is unchanged if source does not build.
func (s *Session) Load(ctx context.Context, source string) error {
	prog, err := lang.BuildSource(ctx, source, s.path,
		append(s.opts, lang.WithCache(s.cache), lang.WithLogger(s.logger))...)
	if err != nil {
		return err
	}

	opts := append(s.opts, lang.WithLogger(s.logger))
	if s.lctx != nil {
		opts = append(opts, lang.WithVars(s.lctx.Vars()))
	}

	s.source = source
	s.lctx = lang.NewContext(prog, opts...)

	s.logger.TraceContext(ctx, "repl session loaded",
		slog.String("path", s.path),
		slog.Int("entity_count", len(prog.Entities())),
		slog.Int("macro_count", len(prog.Macros())),
	)

	return nil
}

// Reload discards cached imports and rebuilds the session, rereading the
// root source from its path when it has one.
func (s *Session) Reload(ctx context.Context) error {
	source := s.source

	if s.path != "" {
		b, err := os.ReadFile(s.path)
		if err != nil {
			return err
		}

		source = string(b)
	}

	s.cache.Clear()

	return s.Load(ctx, source)
}

// Path returns the path the source was read from.
func (s *Session) Path() string { return s.path }

// Source returns the source text of the root resource.
func (s *Session) Source() string { return s.source }

// Program returns the built program.
func (s *Session) Program() *lang.Program { return s.lctx.Program() }

// Vars returns a copy of the session variables.
func (s *Session) Vars() map[string]any { return s.lctx.Vars() }

// Set evaluates src as an expression and assigns the result to variable
// name. Source that does not evaluate is assigned as a string.
func (s *Session) Set(name, src string) {
	value, err := expr.Eval(src, nil)
	if err != nil || value == nil {
		value = src
	}

	s.lctx.Set(strings.TrimPrefix(name, "$"), value)
}

// Unset removes variable name.
func (s *Session) Unset(name string) error {
	return s.lctx.Delete(strings.TrimPrefix(name, "$"))
}

// env returns an evaluation environment over the program with the session
// variables.
func (s *Session) env() *lang.Env {
	return s.Program().NewEnv(
		append(s.opts, lang.WithLogger(s.logger), lang.WithVars(s.Vars()))...)
}

// Eval answers input. A query of the form "name" or "name::attribute" is
// looked up directly; anything else is evaluated as an expression in the
// scope of the resource's public entries.
func (s *Session) Eval(ctx context.Context, input string) (string, error) {
	if isQuery(input) {
		return s.lctx.Lookup(input, nil)
	}

	prog := s.Program()
	name := scratchName(prog)

	res, err := lang.Parse(ctx, "<"+name+"() { "+input+" }>",
		lang.WithLogger(s.logger))
	if err != nil {
		return "", err
	}

	m := lang.Compile(res)
	m.Imports = []string{prog.Path()}
	m.SetDeps([]*lang.Module{prog.Module()})

	scratch, err := lang.Link(m)
	if err != nil {
		return "", err
	}

	macro, err := scratch.NewEnv(
		append(s.opts, lang.WithLogger(s.logger), lang.WithVars(s.Vars()))...,
	).Macro(name)
	if err != nil {
		return "", err
	}

	v, err := macro.Invoke()
	if err != nil {
		return "", err
	}

	if v, err = lang.Resolve(v); err != nil {
		return "", err
	}

	return lang.FormatValue(v), nil
}

// scratchName returns a macro name not visible in prog.
func scratchName(prog *lang.Program) string {
	name := "repl"
	for i := 0; prog.Has(name); i++ {
		name = "repl" + strconv.Itoa(i)
	}

	return name
}

// isQuery reports whether input is "name" or "name::attribute".
func isQuery(input string) bool {
	name, attr, ok := strings.Cut(input, "::")
	if ok && !isIdentifier(attr) {
		return false
	}

	return isIdentifier(name)
}

func isIdentifier(s string) bool {
	if s == "" {
		return false
	}

	for i, r := range s {
		switch {
		case r == '_', 'a' <= r && r <= 'z', 'A' <= r && r <= 'Z':
		case i > 0 && '0' <= r && r <= '9':
		default:
			return false
		}
	}

	return true
}

// sortedVars returns the variable names of the session, sorted.
func (s *Session) sortedVars() []string {
	return slices.Sorted(maps.Keys(s.Vars()))
}
