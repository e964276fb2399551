package lang

import (
	"context"
	"log/slog"

	"github.com/ardnew/l20n/log"
)

// goal is one module requested during a build.
type goal struct {
	module  *Module
	imports []*goal
	path    string
	source  string // set for anonymous source
	anon    bool
	cached  bool
}

// builder resolves a root module and its transitive imports.
type builder struct {
	loader  Loader
	cache   *Cache
	logger  log.Logger
	opts    []Option
	goals   map[string]*goal
	all     []*goal
	pending []*goal
}

func newBuilder(opts ...Option) *builder {
	o := makeOptions(opts...)

	b := &builder{
		loader: o.loader,
		cache:  o.cache,
		logger: o.logger,
		opts:   opts,
		goals:  map[string]*goal{},
	}

	if b.loader == nil {
		b.loader = NewFSLoader("")
	}

	if b.cache == nil {
		b.cache = NewCache()
	}

	return b
}

// goal returns the goal for a prepared path, reusing a cached module when
// one exists.
func (b *builder) goal(path string) *goal {
	if g, ok := b.goals[path]; ok {
		return g
	}

	g := &goal{path: path}

	if m, ok := b.cache.Module(path); ok {
		g.module = m
		g.cached = true
	} else {
		b.pending = append(b.pending, g)
		b.all = append(b.all, g)
	}

	b.goals[path] = g

	return g
}

func (b *builder) anonymous(source, path string) *goal {
	g := &goal{path: b.loader.PreparePath(path), source: source, anon: true}

	b.pending = append(b.pending, g)
	b.all = append(b.all, g)

	return g
}

// run processes pending goals until every import is resolved, then records
// each new module's dependencies and caches it.
func (b *builder) run(ctx context.Context) error {
	for len(b.pending) > 0 {
		n := len(b.pending) - 1
		g := b.pending[n]
		b.pending = b.pending[:n]

		if err := b.process(ctx, g); err != nil {
			return err
		}
	}

	for _, g := range b.all {
		deps := make([]*Module, len(g.imports))
		for i, ig := range g.imports {
			deps[i] = ig.module
		}

		g.module.SetDeps(deps)

		if !g.anon {
			b.cache.store(g.path, g.module)
		}
	}

	return nil
}

func (b *builder) process(ctx context.Context, g *goal) error {
	source := g.source

	if !g.anon {
		var err error

		b.logger.DebugContext(ctx, "load module",
			slog.String("path", b.loader.FormatPath(g.path)))

		if source, err = b.loader.LoadSource(ctx, g.path); err != nil {
			return err
		}
	}

	res, err := b.cache.parse(ctx, source, g.path, b.opts...)
	if err != nil {
		return err
	}

	g.module = Compile(res)
	g.imports = make([]*goal, len(g.module.Imports))

	for i, uri := range g.module.Imports {
		g.imports[i] = b.goal(b.loader.PrepareImportPath(g.path, uri))
	}

	b.logger.TraceContext(ctx, "compile module",
		slog.String("path", b.loader.FormatPath(g.path)),
		slog.Int("entry_count", len(g.module.order)),
		slog.Int("import_count", len(g.module.Imports)),
	)

	return nil
}

func (b *builder) link(ctx context.Context, g *goal) (*Program, error) {
	prog, err := Link(g.module)
	if err != nil {
		b.logger.DebugContext(ctx, "link failed",
			slog.String("path", b.loader.FormatPath(g.path)),
			log.Err(err))

		return nil, err
	}

	return prog, nil
}

// BuildPath builds the module at path and its transitive imports. It
// honors [WithLoader], [WithCache], and [WithLogger]; the default loader is
// an [FSLoader] rooted at the working directory.
func BuildPath(ctx context.Context, path string, opts ...Option) (*Program, error) {
	b := newBuilder(opts...)
	g := b.goal(b.loader.PreparePath(path))

	if err := b.run(ctx); err != nil {
		return nil, err
	}

	return b.link(ctx, g)
}

// BuildSource builds source text as if it were read from path, resolving
// its imports through the loader. The module itself is not cached by path.
func BuildSource(
	ctx context.Context,
	source, path string,
	opts ...Option,
) (*Program, error) {
	b := newBuilder(opts...)
	g := b.anonymous(source, path)

	if err := b.run(ctx); err != nil {
		return nil, err
	}

	return b.link(ctx, g)
}

// BuildStandalone builds source text that has no imports. Source with an
// import statement fails with [ErrBuild].
func BuildStandalone(ctx context.Context, source string, opts ...Option) (*Program, error) {
	res, err := Parse(ctx, source, opts...)
	if err != nil {
		return nil, err
	}

	m := Compile(res)
	if len(m.Imports) > 0 {
		return nil, ErrBuild.Errorf("standalone source imports %q", m.Imports[0])
	}

	return Link(m)
}
