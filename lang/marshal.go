package lang

import (
	"encoding/json"
)

// MarshalJSON implements json.Marshaler for Resource.
func (r *Resource) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.ToMap())
}

// ToMap converts the resource to a tree of native Go maps and slices.
//
// Every node becomes a map with a "type" key naming the node kind
// ("L20n", "Entity", "BinaryExpression", ...) plus one key per child.
func (r *Resource) ToMap() map[string]any {
	entries := make([]any, len(r.Entries))
	for i, e := range r.Entries {
		entries[i] = ToNative(e)
	}

	return map[string]any{"type": "L20n", "entries": entries}
}

// ToNative converts a syntax node to its native map form. A nil node
// converts to nil.
func ToNative(n Node) any {
	switch n := n.(type) {
	case nil:
		return nil

	case *Comment:
		return nativeNode("Comment", "content", n.Content)

	case *Import:
		return nativeNode("ImportStatement", "uri", ToNative(n.URI))

	case *Entity:
		m := nativeNode("Entity",
			"id", ToNative(n.ID),
			"value", ToNative(n.Value),
			"index", nil,
			"attrs", natives(n.Attrs),
			"local", n.Local(),
		)

		if n.Index != nil {
			m["index"] = natives(n.Index)
		}

		return m

	case *Macro:
		return nativeNode("Macro",
			"id", ToNative(n.ID),
			"args", natives(n.Args),
			"expression", ToNative(n.Body),
		)

	case *Attribute:
		return nativeNode("Attribute",
			"key", ToNative(n.Key),
			"value", ToNative(n.Value),
			"index", natives(n.Index),
			"local", n.Local(),
		)

	case *HashItem:
		return nativeNode("HashItem",
			"key", ToNative(n.Key),
			"value", ToNative(n.Value),
			"default", n.Default,
		)

	case *Hash:
		return nativeNode("Hash", "content", natives(n.Items))

	case *Number:
		return nativeNode("Number", "value", n.Value)

	case *String:
		return nativeNode("String", "content", n.Content)

	case *ComplexString:
		return nativeNode("ComplexString", "content", natives(n.Content), "source", n.Source)

	case *Identifier:
		return nativeNode("Identifier", "name", n.Name)

	case *Variable:
		return nativeNode("Variable", "id", ToNative(n.ID))

	case *GlobalsExpr:
		return nativeNode("GlobalsExpression", "id", ToNative(n.ID))

	case *ThisExpr:
		return nativeNode("ThisExpression")

	case *ConditionalExpr:
		return nativeNode("ConditionalExpression",
			"test", ToNative(n.Test),
			"consequent", ToNative(n.Consequent),
			"alternate", ToNative(n.Alternate),
		)

	case *LogicalExpr:
		return nativeNode("LogicalExpression",
			"operator", nativeNode("LogicalOperator", "token", n.Operator),
			"left", ToNative(n.Left),
			"right", ToNative(n.Right),
		)

	case *BinaryExpr:
		return nativeNode("BinaryExpression",
			"operator", nativeNode("BinaryOperator", "token", n.Operator),
			"left", ToNative(n.Left),
			"right", ToNative(n.Right),
		)

	case *UnaryExpr:
		return nativeNode("UnaryExpression",
			"operator", nativeNode("UnaryOperator", "token", n.Operator),
			"argument", ToNative(n.Argument),
		)

	case *ParenExpr:
		return nativeNode("ParenthesisExpression", "expression", ToNative(n.Expr))

	case *PropertyExpr:
		return nativeNode("PropertyExpression",
			"expression", ToNative(n.Expr),
			"property", ToNative(n.Property),
			"computed", n.Computed,
		)

	case *AttributeExpr:
		return nativeNode("AttributeExpression",
			"expression", ToNative(n.Expr),
			"attribute", ToNative(n.Attribute),
			"computed", n.Computed,
		)

	case *CallExpr:
		return nativeNode("CallExpression",
			"callee", ToNative(n.Callee),
			"arguments", natives(n.Args),
		)
	}

	return nil
}

// nativeNode builds a native node of the given type from key/value pairs.
func nativeNode(typ string, kv ...any) map[string]any {
	m := make(map[string]any, len(kv)/2+1)
	m["type"] = typ

	for i := 0; i+1 < len(kv); i += 2 {
		m[kv[i].(string)] = kv[i+1]
	}

	return m
}

func natives[T Node](list []T) []any {
	out := make([]any, len(list))
	for i, n := range list {
		out[i] = ToNative(n)
	}

	return out
}
