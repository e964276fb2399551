package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/expr-lang/expr"
	"github.com/goccy/go-yaml"

	"github.com/ardnew/l20n/lang"
	"github.com/ardnew/l20n/log"
	"github.com/ardnew/l20n/pkg"
)

// Query evaluates entities and attributes of a resource.
type Query struct {
	Queries []string `arg:"" help:"Entity name or entity::attribute to evaluate" name:"query"`

	Source   string   `default:"-"      help:"Source input file or '-' for stdin"            short:"f"`
	Var      []string `help:"Set variable NAME to the value of expression EXPR" placeholder:"NAME=EXPR" sep:"none" short:"v"`
	Vars     string   `help:"Read variables from a YAML or JSON file"            placeholder:"FILE"      type:"existingfile"`
	Graceful bool     `help:"Print the failing source text instead of an error"                          short:"g"`

	MaxDepth     int `default:"${maxDepth}"     help:"Maximum nesting of evaluations"`
	MaxTailCalls int `default:"${maxTailCalls}" help:"Maximum tail calls of a macro invocation"`

	out io.Writer `kong:"-"`
}

// Run executes the query command.
func (q *Query) Run(ctx context.Context) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) { cancel(*err) }(&err)

	for _, query := range q.Queries {
		if !validQuery(query) {
			return pkg.ErrInvalidQuery.Wrapf("%q", query)
		}
	}

	vars, err := q.variables()
	if err != nil {
		return err
	}

	prog, err := build(ctx, q.Source)
	if err != nil {
		return err
	}

	c := lang.NewContext(prog,
		lang.WithLogger(log.Default()),
		lang.WithVars(vars),
		lang.WithMaxDepth(q.MaxDepth),
		lang.WithMaxTailCalls(q.MaxTailCalls),
	)

	c.SetErrorHook(func(query string, err error) {
		log.WarnContext(ctx, "query failed",
			log.Query(query),
			log.Err(err),
		)
	})

	w := output(q.out)

	for _, query := range q.Queries {
		var result string

		if q.Graceful {
			result = c.Query(query, nil)
		} else if result, err = c.Lookup(query, nil); err != nil {
			return ErrQuery.
				With(log.Query(query)).
				Wrap(err)
		}

		if _, err := fmt.Fprintln(w, result); err != nil {
			return err
		}
	}

	return nil
}

// variables merges the variables file with the command-line assignments.
// Assignments override the file.
func (q *Query) variables() (map[string]any, error) {
	vars := map[string]any{}

	if q.Vars != "" {
		b, err := os.ReadFile(q.Vars)
		if err != nil {
			return nil, ErrReadVars.
				With(slog.String("file", q.Vars)).
				Wrap(err)
		}

		if err := yaml.Unmarshal(b, &vars); err != nil {
			return nil, ErrReadVars.
				With(slog.String("file", q.Vars)).
				Wrap(err)
		}
	}

	for _, assign := range q.Var {
		name, value, err := parseVar(assign)
		if err != nil {
			return nil, err
		}

		vars[name] = value
	}

	return vars, nil
}

// parseVar splits an assignment of the form NAME=EXPR. EXPR is evaluated as
// an expression, so that "n=3" binds a number and "ok=true" a boolean;
// an EXPR that does not evaluate is taken literally as a string.
func parseVar(assign string) (string, any, error) {
	name, src, ok := strings.Cut(assign, "=")
	name = strings.TrimPrefix(strings.TrimSpace(name), "$")

	if !ok || !validIdentifier(name) {
		return "", nil, pkg.ErrInvalidVariable.Wrapf("%q", assign)
	}

	value, err := expr.Eval(src, nil)
	if err != nil || value == nil {
		return name, src, nil
	}

	return name, value, nil
}

// validQuery reports whether query is "name" or "name::attribute".
func validQuery(query string) bool {
	name, attr, ok := strings.Cut(query, "::")
	if ok && !validIdentifier(attr) {
		return false
	}

	return validIdentifier(name)
}

func validIdentifier(s string) bool {
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
