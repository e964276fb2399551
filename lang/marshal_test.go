package lang

import (
	"encoding/json"
	"testing"

	"github.com/goccy/go-yaml"
	"github.com/google/go-cmp/cmp"
)

func TestResource_ToMap(t *testing.T) {
	res := mustParse(t, `<hello[$g] {*a: "Hi {{ $n + 1 }}"} title: "T">`)

	want := map[string]any{
		"type": "L20n",
		"entries": []any{
			map[string]any{
				"type":  "Entity",
				"id":    map[string]any{"type": "Identifier", "name": "hello"},
				"local": false,
				"index": []any{
					map[string]any{
						"type": "Variable",
						"id":   map[string]any{"type": "Identifier", "name": "g"},
					},
				},
				"value": map[string]any{
					"type": "Hash",
					"content": []any{
						map[string]any{
							"type":    "HashItem",
							"key":     map[string]any{"type": "Identifier", "name": "a"},
							"default": true,
							"value": map[string]any{
								"type":   "ComplexString",
								"source": "Hi {{ $n + 1 }}",
								"content": []any{
									map[string]any{"type": "String", "content": "Hi "},
									map[string]any{
										"type": "BinaryExpression",
										"operator": map[string]any{
											"type":  "BinaryOperator",
											"token": "+",
										},
										"left": map[string]any{
											"type": "Variable",
											"id":   map[string]any{"type": "Identifier", "name": "n"},
										},
										"right": map[string]any{"type": "Number", "value": 1.0},
									},
								},
							},
						},
					},
				},
				"attrs": []any{
					map[string]any{
						"type":  "Attribute",
						"key":   map[string]any{"type": "Identifier", "name": "title"},
						"value": map[string]any{"type": "String", "content": "T"},
						"index": []any{},
						"local": false,
					},
				},
			},
		},
	}

	if diff := cmp.Diff(want, res.ToMap()); diff != "" {
		t.Errorf("ToMap mismatch (-want +got):\n%s", diff)
	}
}

func TestToNative(t *testing.T) {
	tests := []struct {
		name string
		expr string
		typ  string
	}{
		{"conditional", "a ? b : c", "ConditionalExpression"},
		{"logical", "a && b", "LogicalExpression"},
		{"unary", "-a", "UnaryExpression"},
		{"paren", "(a)", "ParenthesisExpression"},
		{"property", "a.b", "PropertyExpression"},
		{"attribute", "a::b", "AttributeExpression"},
		{"call", "a()", "CallExpression"},
		{"global", "@os", "GlobalsExpression"},
		{"this", "~", "ThisExpression"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := mustParse(t, "<m() { "+tt.expr+" }>").Entries[0].(*Macro)

			native, ok := ToNative(m.Body).(map[string]any)
			if !ok {
				t.Fatalf("expected map, got %T", ToNative(m.Body))
			}

			if native["type"] != tt.typ {
				t.Errorf("expected type %q, got %v", tt.typ, native["type"])
			}
		})
	}

	if ToNative(nil) != nil {
		t.Error("expected nil for a nil node")
	}
}

func TestResource_MarshalJSON(t *testing.T) {
	res := mustParse(t, `import("other.l20n") /* c */ <m($x) { $x }>`)

	data, err := json.Marshal(res)
	if err != nil {
		t.Fatalf("JSON marshal error: %v", err)
	}

	var got map[string]any
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("JSON unmarshal error: %v", err)
	}

	entries, ok := got["entries"].([]any)
	if !ok || len(entries) != 3 {
		t.Fatalf("expected 3 entries, got %v", got["entries"])
	}

	types := make([]any, len(entries))
	for i, e := range entries {
		types[i] = e.(map[string]any)["type"]
	}

	if diff := cmp.Diff([]any{"ImportStatement", "Comment", "Macro"}, types); diff != "" {
		t.Errorf("entry types mismatch (-want +got):\n%s", diff)
	}
}

func TestResource_MarshalYAML(t *testing.T) {
	res := mustParse(t, `<a "x">`)

	data, err := yaml.Marshal(res.ToMap())
	if err != nil {
		t.Fatalf("YAML marshal error: %v", err)
	}

	var got map[string]any
	if err := yaml.Unmarshal(data, &got); err != nil {
		t.Fatalf("YAML unmarshal error: %v", err)
	}

	entry := got["entries"].([]any)[0].(map[string]any)
	value := entry["value"].(map[string]any)

	if value["content"] != "x" {
		t.Errorf("expected content %q, got %v", "x", value["content"])
	}
}
