package lang

import (
	"log/slog"
	"slices"
	"strconv"

	"github.com/ardnew/l20n/log"
)

// Kind classifies runtime values.
type Kind int

const (
	KindNull Kind = iota
	KindBool
	KindNumber
	KindString
	KindObject
)

// String implements fmt.Stringer.
func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "boolean"
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	default:
		return "object"
	}
}

// KindOf returns the kind of a runtime value. Bound entities, lazy hashes,
// macros, and caller-supplied maps are all [KindObject].
func KindOf(v any) Kind {
	switch v.(type) {
	case nil:
		return KindNull
	case bool:
		return KindBool
	case float64:
		return KindNumber
	case string:
		return KindString
	default:
		return KindObject
	}
}

// Resolvable is a compound value that can be forced to a simpler one.
type Resolvable interface {
	// ResolveOnce performs a single resolution step.
	ResolveOnce() (any, error)
}

// Resolve forces v until it is a primitive (boolean, number, or string).
func Resolve(v any) (any, error) {
	for {
		switch x := v.(type) {
		case bool, float64, string:
			return x, nil

		case Resolvable:
			next, err := x.ResolveOnce()
			if err != nil {
				return nil, err
			}

			v = next

		default:
			return nil, ErrType.Errorf("cannot resolve %s to a primitive value", describeValue(v))
		}
	}
}

// normalize converts caller-supplied Go values to runtime values.
func normalize(v any) any {
	switch x := v.(type) {
	case int:
		return float64(x)
	case int8:
		return float64(x)
	case int16:
		return float64(x)
	case int32:
		return float64(x)
	case int64:
		return float64(x)
	case uint:
		return float64(x)
	case uint8:
		return float64(x)
	case uint16:
		return float64(x)
	case uint32:
		return float64(x)
	case uint64:
		return float64(x)
	case float32:
		return float64(x)
	case map[string]string:
		m := make(map[string]any, len(x))
		for k, s := range x {
			m[k] = s
		}

		return m
	}

	return v
}

// FormatNumber formats a number the way placeables render it: integral
// values have no fractional part.
func FormatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// FormatValue formats a resolved primitive value as text.
func FormatValue(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case float64:
		return FormatNumber(x)
	case bool:
		return strconv.FormatBool(x)
	case *BoundEntity:
		return "<entity " + x.Name() + ">"
	case *BoundMacro:
		return "<macro " + x.Name() + ">"
	case *LazyHash:
		return "<hash>"
	}

	return "<" + KindOf(v).String() + ">"
}

func describeValue(v any) string {
	switch x := v.(type) {
	case *BoundEntity:
		return "entity " + strconv.Quote(x.Name())
	case *BoundMacro:
		return "macro " + strconv.Quote(x.Name())
	case *LazyHash:
		return "hash"
	}

	return KindOf(v).String()
}

// BoundEntity is an entity bound to an evaluation environment.
type BoundEntity struct {
	env *Env
	b   *binding
	def *entityDef
}

// Name returns the entity name.
func (e *BoundEntity) Name() string { return e.def.name }

// Attributes returns the attribute names in declaration order.
func (e *BoundEntity) Attributes() []string { return slices.Clone(e.def.order) }

func (e *BoundEntity) frame() *frame {
	return &frame{env: e.env, ns: e.b.home}
}

// ResolveOnce evaluates the entity's content without resolving the
// result. An entity without content evaluates to the empty string.
func (e *BoundEntity) ResolveOnce() (any, error) {
	if e.def.value == nil {
		return "", nil
	}

	if err := e.env.enter(); err != nil {
		return nil, err
	}
	defer e.env.leave()

	e.env.logger.Trace("evaluate entity", log.Entity(e.def.name))

	return e.def.value.eval(e.frame())
}

// Resolve evaluates the entity's content to a primitive value.
func (e *BoundEntity) Resolve() (any, error) {
	return Resolve(e)
}

// Get looks up a key in the entity's content.
func (e *BoundEntity) Get(key string) (any, error) {
	v, err := e.ResolveOnce()
	if err != nil {
		return nil, err
	}

	if _, ok := v.(string); ok {
		return nil, ErrType.Errorf("entity %q is not a hash", e.def.name)
	}

	return index(v, key)
}

// Attribute evaluates the named attribute without resolving the result.
func (e *BoundEntity) Attribute(name string) (any, error) {
	value, ok := e.def.attrs[name]
	if !ok {
		return nil, nameError("attribute", name, e.def.order).
			With(log.Entity(e.def.name))
	}

	if err := e.env.enter(); err != nil {
		return nil, err
	}
	defer e.env.leave()

	return value.eval(e.frame())
}

// ResolveAttribute evaluates the named attribute to a primitive value.
func (e *BoundEntity) ResolveAttribute(name string) (any, error) {
	v, err := e.Attribute(name)
	if err != nil {
		return nil, err
	}

	return Resolve(v)
}

// BoundMacro is a macro bound to an evaluation environment.
type BoundMacro struct {
	env *Env
	b   *binding
	def *macroDef
}

// Name returns the macro name.
func (m *BoundMacro) Name() string { return m.def.name }

// Params returns the parameter names.
func (m *BoundMacro) Params() []string { return slices.Clone(m.def.params) }

// Invoke calls the macro. The result is not resolved.
//
// A macro whose body calls itself in tail position runs in a loop bounded by
// the environment's tail call limit instead of recursing.
func (m *BoundMacro) Invoke(args ...any) (any, error) {
	if len(args) != len(m.def.params) {
		return nil, ErrType.Errorf(
			"macro %q expects %d arguments, got %d",
			m.def.name, len(m.def.params), len(args),
		)
	}

	if err := m.env.enter(); err != nil {
		return nil, err
	}
	defer m.env.leave()

	f := &frame{env: m.env, ns: m.b.home, macro: m, locals: args}

	if m.def.tail == nil {
		return m.def.body.eval(f)
	}

	// One step per tail call, plus the step that returns.
	for range m.env.maxTailCalls + 1 {
		st, err := m.def.tail.step(f)
		if err != nil {
			return nil, err
		}

		if !st.cont {
			return st.value, nil
		}

		f = &frame{env: m.env, ns: m.b.home, macro: m, locals: st.locals}
	}

	return nil, ErrTailCallLimit.Errorf(
		"macro %q did not finish within %d tail calls",
		m.def.name, m.env.maxTailCalls,
	)
}

// LazyHash is a hash whose items are evaluated on access.
type LazyHash struct {
	node  *hashNode
	frame *frame
}

// Keys returns the item keys in sorted order.
func (h *LazyHash) Keys() []string {
	return sortedKeys(h.node.items)
}

// DefaultKey returns the key of the default item, or "" if there is none.
func (h *LazyHash) DefaultKey() string { return h.node.def }

// Get returns the item for key. When no item matches, the hash falls back
// to the key selected by its index expression and then to its default item.
func (h *LazyHash) Get(key string) (any, error) {
	if item, ok := h.node.items[key]; ok {
		return h.eval(item)
	}

	return h.fallback(strconv.Quote(key))
}

// ResolveOnce returns the item selected by the index expression, or the
// default item.
func (h *LazyHash) ResolveOnce() (any, error) {
	return h.fallback("")
}

func (h *LazyHash) fallback(missing string) (any, error) {
	if h.node.index != nil {
		key, err := evalString(h.node.index, h.frame)
		if err != nil {
			return nil, err
		}

		if item, ok := h.node.items[key]; ok {
			return h.eval(item)
		}
	}

	if h.node.def != "" {
		return h.eval(h.node.items[h.node.def])
	}

	err := ErrLookup.Errorf("hash in %q has no default item", h.node.owner)
	if missing != "" {
		err = ErrLookup.Errorf("hash in %q has no key %s and no default item", h.node.owner, missing)
	}

	return nil, err.With(slog.String("entry", h.node.owner))
}

func (h *LazyHash) eval(item node) (any, error) {
	env := h.frame.env

	if err := env.enter(); err != nil {
		return nil, err
	}
	defer env.leave()

	return item.eval(h.frame)
}
