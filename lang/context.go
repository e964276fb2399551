package lang

import (
	"context"
	"errors"
	"maps"
	"slices"
	"strings"

	"github.com/ardnew/l20n/log"
)

// ErrorHook observes a failed query answered gracefully by
// [Context.Query].
type ErrorHook func(query string, err error)

// Context answers queries against a [Program] with a persistent set of
// variables.
//
// A query is an entity name ("name") or an attribute ("name::attr").
// [Context.Query] never fails: a query that cannot be evaluated yields the
// source text of the string that failed, or else the query itself.
type Context struct {
	prog *Program
	vars map[string]any
	opts []Option
	hook ErrorHook
}

// NewContext returns a context over prog. The options are passed to each
// [Program.NewEnv]; [WithVars] sets the initial variables.
func NewContext(prog *Program, opts ...Option) *Context {
	o := makeOptions(opts...)

	vars := make(map[string]any, len(o.vars))
	for k, v := range o.vars {
		vars[k] = normalize(v)
	}

	return &Context{prog: prog, vars: vars, opts: opts}
}

// ContextFromSource builds standalone source text into a context.
func ContextFromSource(ctx context.Context, source string, opts ...Option) (*Context, error) {
	prog, err := BuildStandalone(ctx, source, opts...)
	if err != nil {
		return nil, err
	}

	return NewContext(prog, opts...), nil
}

// ContextFromPath builds the module at path into a context.
func ContextFromPath(ctx context.Context, path string, opts ...Option) (*Context, error) {
	prog, err := BuildPath(ctx, path, opts...)
	if err != nil {
		return nil, err
	}

	return NewContext(prog, opts...), nil
}

// Program returns the program c queries.
func (c *Context) Program() *Program { return c.prog }

// SetErrorHook installs a hook called with each error [Context.Query]
// suppresses. A nil hook removes it.
func (c *Context) SetErrorHook(hook ErrorHook) { c.hook = hook }

// Set sets a variable.
func (c *Context) Set(name string, value any) { c.vars[name] = normalize(value) }

// Get returns a variable.
func (c *Context) Get(name string) (any, bool) {
	v, ok := c.vars[name]

	return v, ok
}

// Has reports whether a variable is set.
func (c *Context) Has(name string) bool {
	_, ok := c.vars[name]

	return ok
}

// Delete removes a variable. It fails with [ErrName] if the variable is
// not set.
func (c *Context) Delete(name string) error {
	if _, ok := c.vars[name]; !ok {
		return nameError("variable", name, sortedKeys(c.vars))
	}

	delete(c.vars, name)

	return nil
}

// Vars returns a copy of the variables.
func (c *Context) Vars() map[string]any { return maps.Clone(c.vars) }

// Query answers query, with vars overriding the context's variables for
// this query only.
//
// When evaluation fails, Query returns the source text of the innermost
// string literal that failed, or the query itself when no string literal
// is involved.
func (c *Context) Query(query string, vars map[string]any) string {
	s, err := c.Lookup(query, vars)
	if err == nil {
		return s
	}

	if c.hook != nil {
		c.hook(query, err)
	}

	if se := (*SourceError)(nil); errors.As(err, &se) {
		return se.Source
	}

	return query
}

// Lookup answers query like [Context.Query] but returns evaluation errors
// instead of a fallback.
func (c *Context) Lookup(query string, vars map[string]any) (string, error) {
	if s, ok := c.prog.Direct(query); ok {
		return s, nil
	}

	env := c.prog.NewEnv(append(slices.Clip(c.opts), WithVars(c.merge(vars)))...)

	var (
		v   any
		err error
	)

	if name, attr, ok := strings.Cut(query, "::"); ok {
		v, err = env.ResolveAttribute(name, attr)
	} else {
		v, err = env.ResolveEntity(query)
	}

	if err != nil {
		env.logger.Debug("query failed",
			log.Query(query),
			log.Err(err))

		return "", err
	}

	return FormatValue(v), nil
}

func (c *Context) merge(vars map[string]any) map[string]any {
	switch {
	case len(vars) == 0:
		return c.vars
	case len(c.vars) == 0:
		return vars
	}

	merged := maps.Clone(c.vars)
	maps.Copy(merged, vars)

	return merged
}
