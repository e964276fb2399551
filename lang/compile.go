package lang

import (
	"slices"
)

// Module is the compiled form of one resource: its own entries keyed by
// name plus the import URIs in declaration order.
//
// The builder resolves each URI to a dependency module with [Module.SetDeps]
// before the module is linked.
type Module struct {
	Path    string
	Imports []string

	entries map[string]entry
	order   []string // entry names in first-declaration order
	deps    []*Module
	state   visitState
	ns      *namespace
}

// entry is a compiled entity or macro.
type entry interface {
	entryName() string
}

type entityDef struct {
	value node // nil when the entity has no content
	attrs map[string]node
	name  string
	order []string // attribute names in declaration order
}

type macroDef struct {
	body   node     // set for plain macros
	tail   tailExpr // set for tail macros
	name   string
	params []string
}

func (d *entityDef) entryName() string { return d.name }
func (d *macroDef) entryName() string  { return d.name }

// Entries returns the names of the module's own entries in declaration
// order.
func (m *Module) Entries() []string { return slices.Clone(m.order) }

// Deps returns the modules resolved for m's imports.
func (m *Module) Deps() []*Module { return m.deps }

// SetDeps records the modules resolved for m's imports, in import order.
func (m *Module) SetDeps(deps []*Module) {
	m.deps = deps
	m.ns = nil
	m.state = unvisited
}

// scope is the compile-time context threaded through expression
// compilation.
type scope struct {
	entry  string   // name of the enclosing entity or macro
	locals []string // macro parameter names by slot
	macro  bool
}

// Compile compiles a parsed resource into a module.
//
// Entries are compiled in declaration order; a later entry replaces an
// earlier one with the same name.
func Compile(res *Resource) *Module {
	m := &Module{
		Path:    res.Path,
		Imports: []string{},
		entries: make(map[string]entry, len(res.Entries)),
	}

	for _, e := range res.Entries {
		var def entry

		switch e := e.(type) {
		case *Comment:
			continue

		case *Import:
			m.Imports = append(m.Imports, e.URI.Content)

			continue

		case *Entity:
			def = compileEntity(e)

		case *Macro:
			def = compileMacro(e)
		}

		name := def.entryName()
		if _, ok := m.entries[name]; !ok {
			m.order = append(m.order, name)
		}

		m.entries[name] = def
	}

	return m
}

func compileEntity(e *Entity) *entityDef {
	sc := scope{entry: e.ID.Name}

	def := &entityDef{
		name:  e.ID.Name,
		attrs: make(map[string]node, len(e.Attrs)),
	}

	if e.Value != nil {
		def.value = compileValue(e.Value, e.Index, sc)
	}

	for _, a := range e.Attrs {
		index := a.Index
		if index == nil {
			index = e.Index
		}

		if _, ok := def.attrs[a.Key.Name]; !ok {
			def.order = append(def.order, a.Key.Name)
		}

		def.attrs[a.Key.Name] = compileValue(a.Value, index, sc)
	}

	return def
}

func compileMacro(m *Macro) *macroDef {
	params := make([]string, len(m.Args))
	for i, arg := range m.Args {
		params[i] = arg.ID.Name
	}

	sc := scope{entry: m.ID.Name, locals: params, macro: true}
	def := &macroDef{name: m.ID.Name, params: params}

	if tail, ok := compileTail(m.Body, sc); ok {
		def.tail = tail
	} else {
		def.body = compileExpr(m.Body, sc)
	}

	return def
}

// compileValue compiles an entity, attribute, or hash item value against an
// index chain. The head of the chain selects the key of the outermost hash;
// the rest applies to hashes nested in its items.
func compileValue(e Expr, index []Expr, sc scope) node {
	h, ok := e.(*Hash)
	if !ok {
		return compileExpr(e, sc)
	}

	var (
		head node
		rest []Expr
	)

	if len(index) > 0 {
		head = compileExpr(index[0], sc)
		rest = index[1:]
	}

	return compileHash(h, head, rest, sc)
}

func compileHash(h *Hash, index node, rest []Expr, sc scope) *hashNode {
	n := &hashNode{
		items: make(map[string]node, len(h.Items)),
		index: index,
		owner: sc.entry,
	}

	for _, item := range h.Items {
		n.items[item.Key.Name] = compileValue(item.Value, rest, sc)

		if item.Default {
			n.def = item.Key.Name
		}
	}

	return n
}

// compileTail compiles a macro body in tail position. It reports whether
// any self-call was turned into a tail call.
func compileTail(e Expr, sc scope) (tailExpr, bool) {
	switch e := e.(type) {
	case *ParenExpr:
		return compileTail(e.Expr, sc)

	case *ConditionalExpr:
		consequent, ct := compileTail(e.Consequent, sc)
		alternate, at := compileTail(e.Alternate, sc)

		return &tailCond{
			test:       compileExpr(e.Test, sc),
			consequent: consequent,
			alternate:  alternate,
		}, ct || at

	case *CallExpr:
		if isSelf(e.Callee, sc) && len(e.Args) == len(sc.locals) {
			return &tailCall{args: compileExprs(e.Args, sc)}, true
		}
	}

	return &tailValue{expr: compileExpr(e, sc)}, false
}

// isSelf reports whether callee names the macro being compiled.
func isSelf(callee Expr, sc scope) bool {
	switch c := callee.(type) {
	case *ThisExpr:
		return true
	case *Identifier:
		return c.Name == sc.entry
	}

	return false
}

func compileExprs(list []Expr, sc scope) []node {
	nodes := make([]node, len(list))
	for i, e := range list {
		nodes[i] = compileExpr(e, sc)
	}

	return nodes
}

func compileExpr(e Expr, sc scope) node {
	switch e := e.(type) {
	case *Number:
		return &literalNode{value: e.Value}

	case *String:
		return &literalNode{value: e.Content}

	case *ComplexString:
		return &complexNode{parts: compileExprs(e.Content, sc), source: e.Source}

	case *Identifier:
		return &entryNode{name: e.Name}

	case *Variable:
		if i := slices.Index(sc.locals, e.ID.Name); i >= 0 {
			return &localNode{slot: i, name: e.ID.Name}
		}

		return &varNode{name: e.ID.Name}

	case *GlobalsExpr:
		return &globalNode{name: e.ID.Name}

	case *ThisExpr:
		if sc.macro {
			return &thisNode{}
		}

		return &entryNode{name: sc.entry}

	case *ConditionalExpr:
		return &condNode{
			test:       compileExpr(e.Test, sc),
			consequent: compileExpr(e.Consequent, sc),
			alternate:  compileExpr(e.Alternate, sc),
		}

	case *BinaryExpr:
		return &binaryNode{
			op:    e.Operator,
			left:  compileExpr(e.Left, sc),
			right: compileExpr(e.Right, sc),
		}

	case *LogicalExpr:
		return &logicalNode{
			and:   e.Operator == "&&",
			left:  compileExpr(e.Left, sc),
			right: compileExpr(e.Right, sc),
		}

	case *UnaryExpr:
		return &unaryNode{op: e.Operator, arg: compileExpr(e.Argument, sc)}

	case *ParenExpr:
		return compileExpr(e.Expr, sc)

	case *PropertyExpr:
		return &propertyNode{
			expr: compileExpr(e.Expr, sc),
			key:  compileMember(e.Property, e.Computed, sc),
		}

	case *AttributeExpr:
		return &attributeNode{
			expr: compileExpr(e.Expr, sc),
			key:  compileMember(e.Attribute, e.Computed, sc),
		}

	case *CallExpr:
		return &callNode{
			callee: compileExpr(e.Callee, sc),
			args:   compileExprs(e.Args, sc),
		}

	case *Hash:
		return compileHash(e, nil, nil, sc)
	}

	panic("lang: unhandled expression type")
}

// compileMember compiles the key of a property or attribute access. A
// non-computed key is the literal identifier name.
func compileMember(e Expr, computed bool, sc scope) node {
	if id, ok := e.(*Identifier); ok && !computed {
		return &literalNode{value: id.Name}
	}

	return compileExpr(e, sc)
}
