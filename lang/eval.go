package lang

import (
	"math"
	"strings"
)

// frame is the evaluation context of one entity, attribute, or macro body.
// Frames are never mutated once created; lazy hashes capture them.
type frame struct {
	env    *Env
	ns     *namespace  // namespace of the module that declared the code
	macro  *BoundMacro // enclosing macro, if any
	locals []any       // macro arguments by slot
}

// node is a compiled expression.
type node interface {
	eval(f *frame) (any, error)
}

// step is the result of evaluating a tail macro body once: either a final
// value, or a request to loop again with new arguments.
type step struct {
	value  any
	locals []any
	cont   bool
}

// tailExpr is a macro body compiled in tail position.
type tailExpr interface {
	step(f *frame) (step, error)
}

type (
	literalNode struct{ value any }

	complexNode struct {
		source string
		parts  []node
	}

	entryNode  struct{ name string }
	varNode    struct{ name string }
	globalNode struct{ name string }
	thisNode   struct{}

	localNode struct {
		name string
		slot int
	}

	condNode struct{ test, consequent, alternate node }

	binaryNode struct {
		left, right node
		op          string
	}

	logicalNode struct {
		left, right node
		and         bool
	}

	unaryNode struct {
		arg node
		op  string
	}

	propertyNode  struct{ expr, key node }
	attributeNode struct{ expr, key node }

	callNode struct {
		callee node
		args   []node
	}

	hashNode struct {
		items map[string]node
		index node   // key selector tried when a lookup misses
		owner string // enclosing entity or macro
		def   string // default item key, or empty
	}

	tailCond struct {
		test                  node
		consequent, alternate tailExpr
	}

	tailCall  struct{ args []node }
	tailValue struct{ expr node }
)

func (n *literalNode) eval(*frame) (any, error) { return n.value, nil }

func (n *complexNode) eval(f *frame) (any, error) {
	var sb strings.Builder

	for _, part := range n.parts {
		v, err := evalResolved(part, f)
		if err != nil {
			return nil, withSource(err, n.source)
		}

		switch v := v.(type) {
		case string:
			sb.WriteString(v)
		case float64:
			sb.WriteString(FormatNumber(v))
		default:
			err := ErrType.Errorf("placeable must be a string or number, got %s", KindOf(v))

			return nil, withSource(err, n.source)
		}
	}

	return sb.String(), nil
}

func (n *entryNode) eval(f *frame) (any, error) {
	return f.env.bind(f.ns, n.name)
}

func (n *localNode) eval(f *frame) (any, error) { return f.locals[n.slot], nil }

func (n *varNode) eval(f *frame) (any, error) { return f.env.variable(n.name) }

func (n *globalNode) eval(f *frame) (any, error) { return f.env.global(n.name) }

func (*thisNode) eval(f *frame) (any, error) { return f.macro, nil }

func (n *condNode) eval(f *frame) (any, error) {
	ok, err := evalBool(n.test, f)
	if err != nil {
		return nil, err
	}

	if ok {
		return n.consequent.eval(f)
	}

	return n.alternate.eval(f)
}

func (n *binaryNode) eval(f *frame) (any, error) {
	switch n.op {
	case "==", "!=":
		left, right, kind, err := evalSameKind(n.left, n.right, f)
		if err != nil {
			return nil, err
		}

		if kind != KindNumber && kind != KindString {
			return nil, ErrType.Errorf("operator %q requires numbers or strings, got %s", n.op, kind)
		}

		return (left == right) == (n.op == "=="), nil

	case "+":
		left, right, kind, err := evalSameKind(n.left, n.right, f)
		if err != nil {
			return nil, err
		}

		switch kind {
		case KindNumber:
			return left.(float64) + right.(float64), nil
		case KindString:
			return left.(string) + right.(string), nil
		}

		return nil, ErrType.Errorf(`operator "+" requires numbers or strings, got %s`, kind)
	}

	a, err := evalNumber(n.left, f)
	if err != nil {
		return nil, err
	}

	b, err := evalNumber(n.right, f)
	if err != nil {
		return nil, err
	}

	switch n.op {
	case "-":
		return a - b, nil
	case "*":
		return a * b, nil
	case "/":
		if b == 0 {
			return nil, ErrArithmetic.Errorf("division by zero")
		}

		return a / b, nil
	case "%":
		if b == 0 {
			return nil, ErrArithmetic.Errorf("modulo by zero")
		}

		return floorMod(a, b), nil
	case "<":
		return a < b, nil
	case "<=":
		return a <= b, nil
	case ">":
		return a > b, nil
	case ">=":
		return a >= b, nil
	}

	return nil, ErrType.Errorf("unknown operator %q", n.op)
}

// floorMod returns the remainder of a/b with the sign of b.
func floorMod(a, b float64) float64 {
	r := math.Mod(a, b)
	if r != 0 && (r < 0) != (b < 0) {
		r += b
	}

	return r
}

// evalSameKind evaluates and resolves both operands, failing unless they
// have the same kind.
func evalSameKind(l, r node, f *frame) (any, any, Kind, error) {
	left, err := evalResolved(l, f)
	if err != nil {
		return nil, nil, 0, err
	}

	right, err := evalResolved(r, f)
	if err != nil {
		return nil, nil, 0, err
	}

	kl, kr := KindOf(left), KindOf(right)
	if kl != kr {
		return nil, nil, 0, ErrType.Errorf("operands have different kinds: %s and %s", kl, kr)
	}

	return left, right, kl, nil
}

func (n *logicalNode) eval(f *frame) (any, error) {
	left, err := evalBool(n.left, f)
	if err != nil {
		return nil, err
	}

	if left != n.and {
		return left, nil
	}

	return evalBool(n.right, f)
}

func (n *unaryNode) eval(f *frame) (any, error) {
	if n.op == "!" {
		v, err := evalBool(n.arg, f)
		if err != nil {
			return nil, err
		}

		return !v, nil
	}

	v, err := evalNumber(n.arg, f)
	if err != nil {
		return nil, err
	}

	if n.op == "-" {
		return -v, nil
	}

	return v, nil
}

func (n *propertyNode) eval(f *frame) (any, error) {
	v, err := n.expr.eval(f)
	if err != nil {
		return nil, err
	}

	key, err := evalString(n.key, f)
	if err != nil {
		return nil, err
	}

	return index(v, key)
}

// index looks up key in an indexable value.
func index(v any, key string) (any, error) {
	switch v := v.(type) {
	case *BoundEntity:
		return v.Get(key)

	case *LazyHash:
		return v.Get(key)

	case map[string]any:
		item, ok := v[key]
		if !ok {
			return nil, ErrLookup.Errorf("no key %q", key)
		}

		return normalize(item), nil
	}

	return nil, ErrType.Errorf("cannot look up %q in %s", key, KindOf(v))
}

func (n *attributeNode) eval(f *frame) (any, error) {
	v, err := n.expr.eval(f)
	if err != nil {
		return nil, err
	}

	key, err := evalString(n.key, f)
	if err != nil {
		return nil, err
	}

	entity, ok := v.(*BoundEntity)
	if !ok {
		return nil, ErrType.Errorf("cannot access attribute %q of %s", key, describeValue(v))
	}

	return entity.Attribute(key)
}

func (n *callNode) eval(f *frame) (any, error) {
	callee, err := n.callee.eval(f)
	if err != nil {
		return nil, err
	}

	macro, ok := callee.(*BoundMacro)
	if !ok {
		return nil, ErrType.Errorf("cannot call %s", describeValue(callee))
	}

	args, err := evalAll(n.args, f)
	if err != nil {
		return nil, err
	}

	return macro.Invoke(args...)
}

func evalAll(nodes []node, f *frame) ([]any, error) {
	vals := make([]any, len(nodes))

	for i, n := range nodes {
		v, err := n.eval(f)
		if err != nil {
			return nil, err
		}

		vals[i] = v
	}

	return vals, nil
}

func (n *hashNode) eval(f *frame) (any, error) {
	return &LazyHash{node: n, frame: f}, nil
}

func (n *tailCond) step(f *frame) (step, error) {
	ok, err := evalBool(n.test, f)
	if err != nil {
		return step{}, err
	}

	if ok {
		return n.consequent.step(f)
	}

	return n.alternate.step(f)
}

func (n *tailCall) step(f *frame) (step, error) {
	args, err := evalAll(n.args, f)
	if err != nil {
		return step{}, err
	}

	return step{locals: args, cont: true}, nil
}

func (n *tailValue) step(f *frame) (step, error) {
	v, err := n.expr.eval(f)

	return step{value: v}, err
}

// evalResolved evaluates n and resolves the result to a primitive.
func evalResolved(n node, f *frame) (any, error) {
	v, err := n.eval(f)
	if err != nil {
		return nil, err
	}

	return Resolve(v)
}

func evalBool(n node, f *frame) (bool, error) {
	v, err := evalResolved(n, f)
	if err != nil {
		return false, err
	}

	b, ok := v.(bool)
	if !ok {
		return false, ErrType.Errorf("expected a boolean, got %s", KindOf(v))
	}

	return b, nil
}

func evalNumber(n node, f *frame) (float64, error) {
	v, err := evalResolved(n, f)
	if err != nil {
		return 0, err
	}

	x, ok := v.(float64)
	if !ok {
		return 0, ErrType.Errorf("expected a number, got %s", KindOf(v))
	}

	return x, nil
}

func evalString(n node, f *frame) (string, error) {
	v, err := evalResolved(n, f)
	if err != nil {
		return "", err
	}

	s, ok := v.(string)
	if !ok {
		return "", ErrType.Errorf("expected a string, got %s", KindOf(v))
	}

	return s, nil
}
