package lang

import (
	"log/slog"
	"slices"
	"strings"
)

// visitState tracks a module's progress through linking.
type visitState int

const (
	unvisited visitState = iota
	inProgress
	done
)

// namespace maps the names visible to one module's code to their
// declarations.
type namespace struct {
	path  string
	names map[string]*binding
}

// binding is a declaration together with the namespace of the module that
// declared it. Imported entries keep their home namespace.
type binding struct {
	def  entry
	home *namespace
}

// local reports whether name is private to the module that declares it.
func local(name string) bool { return strings.HasPrefix(name, "_") }

// Link resolves the import graph rooted at m into a [Program].
//
// Imports are linked depth-first in declaration order. Each module sees the
// exported entries of its imports, later imports overriding earlier ones,
// and then its own entries, which always win. Linking a module is memoized,
// so a module imported along several paths is linked once.
func Link(m *Module) (*Program, error) {
	if err := link(m, nil); err != nil {
		return nil, err
	}

	return newProgram(m), nil
}

func link(m *Module, chain []string) error {
	switch m.state {
	case done:
		return nil

	case inProgress:
		cycle := append(slices.Clone(chain), m.Path)

		return ErrCircularDependency.Errorf("%s", strings.Join(cycle, " -> ")).
			With(slog.String("module", m.Path))
	}

	if len(m.deps) != len(m.Imports) {
		return ErrBuild.Errorf(
			"module %q has %d imports but %d resolved dependencies",
			m.Path, len(m.Imports), len(m.deps),
		)
	}

	m.state = inProgress
	chain = append(slices.Clone(chain), m.Path)

	ns := &namespace{
		path:  m.Path,
		names: make(map[string]*binding, len(m.entries)),
	}

	for _, dep := range m.deps {
		if err := link(dep, chain); err != nil {
			m.state = unvisited

			return err
		}

		for name, b := range dep.ns.names {
			if !local(name) {
				ns.names[name] = b
			}
		}
	}

	for _, name := range m.order {
		ns.names[name] = &binding{def: m.entries[name], home: ns}
	}

	m.ns = ns
	m.state = done

	return nil
}

// Program is a linked module graph ready for evaluation.
// A Program is immutable and may be shared by any number of [Env] values.
type Program struct {
	root   *Module
	direct map[string]string
}

func newProgram(m *Module) *Program {
	p := &Program{root: m, direct: map[string]string{}}

	for name, b := range m.ns.names {
		def, ok := b.def.(*entityDef)
		if !ok {
			continue
		}

		if s, ok := def.value.(*literalNode); ok {
			if str, ok := s.value.(string); ok {
				p.direct[name] = str
			}
		}

		for attr, n := range def.attrs {
			if s, ok := n.(*literalNode); ok {
				if str, ok := s.value.(string); ok {
					p.direct[name+"::"+attr] = str
				}
			}
		}
	}

	return p
}

// Path returns the path of the root module.
func (p *Program) Path() string { return p.root.Path }

// Module returns the root module.
func (p *Program) Module() *Module { return p.root }

// Names returns the sorted names visible in the root module.
func (p *Program) Names() []string {
	return sortedKeys(p.root.ns.names)
}

// Entities returns the sorted names of the entities visible in the root
// module, excluding local entities.
func (p *Program) Entities() []string {
	names := make([]string, 0, len(p.root.ns.names))

	for name, b := range p.root.ns.names {
		if _, ok := b.def.(*entityDef); ok && !local(name) {
			names = append(names, name)
		}
	}

	slices.Sort(names)

	return names
}

// Macros returns the sorted names of the macros visible in the root module.
func (p *Program) Macros() []string {
	names := make([]string, 0, len(p.root.ns.names))

	for name, b := range p.root.ns.names {
		if _, ok := b.def.(*macroDef); ok {
			names = append(names, name)
		}
	}

	slices.Sort(names)

	return names
}

// Has reports whether name is visible in the root module.
func (p *Program) Has(name string) bool {
	_, ok := p.root.ns.names[name]

	return ok
}

// Direct returns the value of a query whose answer is a plain string
// literal, such as "name" or "name::attr". It reports false when the query
// needs evaluation.
func (p *Program) Direct(query string) (string, bool) {
	if local(query) {
		return "", false
	}

	s, ok := p.direct[query]

	return s, ok
}

// NewEnv returns an evaluation environment over p. It honors [WithVars],
// [WithGlobals], [WithLogger], [WithMaxTailCalls], and [WithMaxDepth].
func (p *Program) NewEnv(opts ...Option) *Env {
	o := makeOptions(opts...)

	globals := o.globals
	if globals == nil {
		globals = DefaultGlobals()
	}

	vars := make(map[string]any, len(o.vars))
	for k, v := range o.vars {
		vars[k] = normalize(v)
	}

	return &Env{
		prog:         p,
		vars:         vars,
		globals:      globals,
		globalCache:  map[string]any{},
		logger:       o.logger,
		maxTailCalls: o.maxTailCalls,
		maxDepth:     o.maxDepth,
	}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}

	slices.Sort(keys)

	return keys
}
