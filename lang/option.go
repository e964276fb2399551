package lang

import (
	"github.com/ardnew/l20n/log"
)

// DefaultMaxTailCalls bounds the tail calls a macro invocation may make
// before it returns.
const DefaultMaxTailCalls = 100000

// DefaultMaxDepth bounds the nesting of entity, attribute, hash item, and
// macro evaluations, and of expressions and hashes while parsing.
const DefaultMaxDepth = 1000

// Option configures parsing, building, or evaluation behavior.
// Options that do not apply to an operation are ignored by it.
type Option func(*options)

type options struct {
	logger       log.Logger
	loader       Loader
	cache        *Cache
	vars         map[string]any
	globals      map[string]Global
	path         string
	maxTailCalls int
	maxDepth     int
}

func makeOptions(opts ...Option) options {
	o := options{
		maxTailCalls: DefaultMaxTailCalls,
		maxDepth:     DefaultMaxDepth,
	}

	for _, opt := range opts {
		opt(&o)
	}

	return o
}

// WithLogger sets the logger used for trace and debug output.
// The zero [log.Logger] discards everything.
func WithLogger(logger log.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithPath records the origin path of parsed source in node positions.
func WithPath(path string) Option {
	return func(o *options) { o.path = path }
}

// WithLoader sets the loader used to resolve and read modules.
func WithLoader(loader Loader) Option {
	return func(o *options) { o.loader = loader }
}

// WithCache shares compiled modules across builds.
func WithCache(cache *Cache) Option {
	return func(o *options) { o.cache = cache }
}

// WithVars sets the variables visible to "$name" references.
func WithVars(vars map[string]any) Option {
	return func(o *options) { o.vars = vars }
}

// WithGlobals sets the values visible to "@name" references.
// A nil map disables globals; [DefaultGlobals] is used when unset.
func WithGlobals(globals map[string]Global) Option {
	return func(o *options) {
		if globals == nil {
			globals = map[string]Global{}
		}

		o.globals = globals
	}
}

// WithMaxTailCalls bounds the tail calls of a macro invocation. A macro that
// tail-calls itself exactly n times still returns.
// Values less than 1 select [DefaultMaxTailCalls].
func WithMaxTailCalls(n int) Option {
	return func(o *options) {
		if n < 1 {
			n = DefaultMaxTailCalls
		}

		o.maxTailCalls = n
	}
}

// WithMaxDepth bounds the nesting of evaluations and of parsed expressions.
// Values less than 1 select [DefaultMaxDepth].
func WithMaxDepth(n int) Option {
	return func(o *options) {
		if n < 1 {
			n = DefaultMaxDepth
		}

		o.maxDepth = n
	}
}
