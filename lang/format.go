package lang

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/goccy/go-yaml"
)

// Format writes the resource in canonical source form. Hashes with more
// than one item are broken across lines indented by indent spaces; an
// indent of zero keeps every entry on one line.
//
// The output parses to a resource equal to r, ignoring positions.
func (r *Resource) Format(_ context.Context, w io.Writer, indent int) error {
	f := &formatter{indent: indent}

	for i, e := range r.Entries {
		if i > 0 {
			f.sb.WriteString("\n")

			if indent > 0 {
				f.sb.WriteString("\n")
			}
		}

		f.entry(e)
	}

	f.sb.WriteString("\n")

	_, err := io.WriteString(w, f.sb.String())

	return err
}

// FormatJSON writes the resource as JSON.
func (r *Resource) FormatJSON(_ context.Context, w io.Writer, indent int) error {
	var (
		jsonData []byte
		err      error
	)

	if indent > 0 {
		jsonData, err = json.MarshalIndent(r, "", strings.Repeat(" ", indent))
	} else {
		jsonData, err = json.Marshal(r)
	}

	if err != nil {
		return err
	}

	_, err = fmt.Fprintln(w, string(jsonData))

	return err
}

// FormatYAML writes the resource as YAML.
func (r *Resource) FormatYAML(ctx context.Context, w io.Writer, indent int) error {
	var opts []yaml.EncodeOption
	if indent > 0 {
		opts = append(opts, yaml.Indent(indent))
	} else {
		opts = append(opts, yaml.Flow(true))
	}

	yamlData, err := yaml.MarshalContext(ctx, r.ToMap(), opts...)
	if err != nil {
		return err
	}

	_, err = w.Write(yamlData)

	return err
}

// FormatNode returns the source form of a single node.
func FormatNode(n Node) string {
	f := &formatter{}

	switch n := n.(type) {
	case Entry:
		f.entry(n)
	case Expr:
		f.expr(n)
	case *Attribute:
		f.attribute(n)
	case *HashItem:
		f.item(n)
	}

	return f.sb.String()
}

type formatter struct {
	sb     strings.Builder
	indent int
	depth  int
}

func (f *formatter) newline() {
	f.sb.WriteByte('\n')
	f.sb.WriteString(strings.Repeat(" ", f.indent*f.depth))
}

func (f *formatter) entry(e Entry) {
	switch e := e.(type) {
	case *Comment:
		f.sb.WriteString("/*")
		f.sb.WriteString(e.Content)
		f.sb.WriteString("*/")

	case *Import:
		f.sb.WriteString("import(")
		f.expr(e.URI)
		f.sb.WriteString(")")

	case *Macro:
		f.sb.WriteString("<")
		f.sb.WriteString(e.ID.Name)
		f.sb.WriteString("(")

		for i, arg := range e.Args {
			if i > 0 {
				f.sb.WriteString(", ")
			}

			f.expr(arg)
		}

		f.sb.WriteString(") { ")
		f.expr(e.Body)
		f.sb.WriteString(" }>")

	case *Entity:
		f.sb.WriteString("<")
		f.sb.WriteString(e.ID.Name)
		f.index(e.Index)

		if e.Value != nil {
			f.sb.WriteString(" ")
			f.value(e.Value)
		}

		f.depth++

		for _, a := range e.Attrs {
			if f.indent > 0 {
				f.newline()
			} else {
				f.sb.WriteString(" ")
			}

			f.attribute(a)
		}

		f.depth--

		f.sb.WriteString(">")
	}
}

func (f *formatter) index(index []Expr) {
	if index == nil {
		return
	}

	f.sb.WriteString("[")
	f.exprs(index)
	f.sb.WriteString("]")
}

func (f *formatter) attribute(a *Attribute) {
	f.sb.WriteString(a.Key.Name)
	f.index(a.Index)
	f.sb.WriteString(": ")
	f.value(a.Value)
}

func (f *formatter) item(item *HashItem) {
	if item.Default {
		f.sb.WriteString("*")
	}

	f.sb.WriteString(item.Key.Name)
	f.sb.WriteString(": ")
	f.value(item.Value)
}

// value writes an entity, attribute, or hash item value.
func (f *formatter) value(e Expr) {
	h, ok := e.(*Hash)
	if !ok {
		f.expr(e)

		return
	}

	if f.indent == 0 || len(h.Items) < 2 {
		f.sb.WriteString("{")

		for i, item := range h.Items {
			if i > 0 {
				f.sb.WriteString(", ")
			}

			f.item(item)
		}

		f.sb.WriteString("}")

		return
	}

	f.sb.WriteString("{")
	f.depth++

	for i, item := range h.Items {
		if i > 0 {
			f.sb.WriteString(",")
		}

		f.newline()
		f.item(item)
	}

	f.depth--
	f.newline()
	f.sb.WriteString("}")
}

func (f *formatter) exprs(list []Expr) {
	for i, e := range list {
		if i > 0 {
			f.sb.WriteString(", ")
		}

		f.expr(e)
	}
}

func (f *formatter) expr(e Expr) {
	switch e := e.(type) {
	case *Number:
		f.sb.WriteString(FormatNumber(e.Value))

	case *String:
		f.sb.WriteByte('"')
		f.text(e.Content)
		f.sb.WriteByte('"')

	case *ComplexString:
		f.sb.WriteByte('"')

		for _, part := range e.Content {
			if s, ok := part.(*String); ok {
				f.text(s.Content)

				continue
			}

			f.sb.WriteString("{{ ")
			f.expr(part)
			f.sb.WriteString(" }}")
		}

		f.sb.WriteByte('"')

	case *Identifier:
		f.sb.WriteString(e.Name)

	case *Variable:
		f.sb.WriteString("$")
		f.sb.WriteString(e.ID.Name)

	case *GlobalsExpr:
		f.sb.WriteString("@")
		f.sb.WriteString(e.ID.Name)

	case *ThisExpr:
		f.sb.WriteString("~")

	case *ConditionalExpr:
		f.expr(e.Test)
		f.sb.WriteString(" ? ")
		f.expr(e.Consequent)
		f.sb.WriteString(" : ")
		f.expr(e.Alternate)

	case *BinaryExpr:
		f.expr(e.Left)
		f.sb.WriteString(" " + e.Operator + " ")
		f.expr(e.Right)

	case *LogicalExpr:
		f.expr(e.Left)
		f.sb.WriteString(" " + e.Operator + " ")
		f.expr(e.Right)

	case *UnaryExpr:
		f.sb.WriteString(e.Operator)
		f.expr(e.Argument)

	case *ParenExpr:
		f.sb.WriteString("(")
		f.expr(e.Expr)
		f.sb.WriteString(")")

	case *PropertyExpr:
		f.expr(e.Expr)

		if e.Computed {
			f.sb.WriteString("[")
			f.expr(e.Property)
			f.sb.WriteString("]")
		} else {
			f.sb.WriteString(".")
			f.expr(e.Property)
		}

	case *AttributeExpr:
		f.expr(e.Expr)

		if e.Computed {
			f.sb.WriteString("::[")
			f.expr(e.Attribute)
			f.sb.WriteString("]")
		} else {
			f.sb.WriteString("::")
			f.expr(e.Attribute)
		}

	case *CallExpr:
		f.expr(e.Callee)
		f.sb.WriteString("(")
		f.exprs(e.Args)
		f.sb.WriteString(")")

	case *Hash:
		f.value(e)
	}
}

// text writes string content escaped for a double-quoted literal.
func (f *formatter) text(s string) {
	for _, r := range s {
		switch r {
		case '\\', '"', '\'', '{':
			f.sb.WriteByte('\\')
		}

		f.sb.WriteRune(r)
	}
}
