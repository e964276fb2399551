package lang

import (
	"log/slog"

	"github.com/ardnew/l20n/log"
)

// Env evaluates entities of a [Program] against caller-supplied variables
// and globals.
//
// An Env is not safe for concurrent use. Create one Env per goroutine; the
// underlying Program may be shared.
type Env struct {
	prog         *Program
	vars         map[string]any
	globals      map[string]Global
	globalCache  map[string]any
	logger       log.Logger
	maxTailCalls int
	maxDepth     int
	depth        int
}

// Program returns the program e evaluates.
func (e *Env) Program() *Program { return e.prog }

// Entity returns the named entity of the root module.
func (e *Env) Entity(name string) (*BoundEntity, error) {
	v, err := e.lookup(name)
	if err != nil {
		return nil, err
	}

	entity, ok := v.(*BoundEntity)
	if !ok {
		return nil, ErrType.Errorf("%q is not an entity", name)
	}

	return entity, nil
}

// Macro returns the named macro of the root module.
func (e *Env) Macro(name string) (*BoundMacro, error) {
	v, err := e.lookup(name)
	if err != nil {
		return nil, err
	}

	macro, ok := v.(*BoundMacro)
	if !ok {
		return nil, ErrType.Errorf("%q is not a macro", name)
	}

	return macro, nil
}

// ResolveEntity evaluates the named entity to a primitive value.
func (e *Env) ResolveEntity(name string) (any, error) {
	entity, err := e.Entity(name)
	if err != nil {
		return nil, err
	}

	e.logger.Debug("resolve entity", log.Entity(name))

	return entity.Resolve()
}

// ResolveAttribute evaluates an attribute of the named entity to a
// primitive value.
func (e *Env) ResolveAttribute(name, attr string) (any, error) {
	entity, err := e.Entity(name)
	if err != nil {
		return nil, err
	}

	e.logger.Debug("resolve attribute",
		log.Entity(name),
		slog.String("attribute", attr),
	)

	return entity.ResolveAttribute(attr)
}

// lookup binds an exported name of the root module.
func (e *Env) lookup(name string) (any, error) {
	if local(name) {
		return nil, nameError("entity", name, e.prog.Entities())
	}

	return e.bind(e.prog.root.ns, name)
}

// bind returns the runtime value of a name visible in ns.
func (e *Env) bind(ns *namespace, name string) (any, error) {
	b, ok := ns.names[name]
	if !ok {
		return nil, nameError("entity", name, sortedKeys(ns.names)).
			With(log.Module(ns.path))
	}

	switch def := b.def.(type) {
	case *entityDef:
		return &BoundEntity{env: e, b: b, def: def}, nil
	case *macroDef:
		return &BoundMacro{env: e, b: b, def: def}, nil
	}

	return nil, ErrType.Errorf("%q cannot be bound", name)
}

func (e *Env) variable(name string) (any, error) {
	v, ok := e.vars[name]
	if !ok {
		return nil, nameError("variable", "$"+name, prefixed("$", sortedKeys(e.vars)))
	}

	return v, nil
}

func (e *Env) global(name string) (any, error) {
	if v, ok := e.globalCache[name]; ok {
		return v, nil
	}

	g, ok := e.globals[name]
	if !ok {
		return nil, nameError("global", "@"+name, prefixed("@", sortedKeys(e.globals)))
	}

	v, err := g.Value()
	if err != nil {
		return nil, err
	}

	v = normalize(v)
	e.globalCache[name] = v

	return v, nil
}

// enter records one level of nested evaluation.
func (e *Env) enter() error {
	if e.depth >= e.maxDepth {
		return ErrMaxDepthExceeded.Errorf("evaluation nested deeper than %d levels", e.maxDepth)
	}

	e.depth++

	return nil
}

func (e *Env) leave() { e.depth-- }

func prefixed(prefix string, names []string) []string {
	out := make([]string, len(names))
	for i, name := range names {
		out[i] = prefix + name
	}

	return out
}
