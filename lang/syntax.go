package lang

import (
	"strconv"
	"strings"
)

// Position identifies a location in a source file.
// Line and Column are 1-based; Column counts runes.
type Position struct {
	Path   string
	Line   int
	Column int
}

// Location returns the position formatted as "path:line:column".
func (p Position) Location() string {
	var sb strings.Builder

	if p.Path != "" {
		sb.WriteString(p.Path)
		sb.WriteByte(':')
	}

	sb.WriteString(strconv.Itoa(p.Line))
	sb.WriteByte(':')
	sb.WriteString(strconv.Itoa(p.Column))

	return sb.String()
}

// Node is implemented by every syntax tree node.
type Node interface {
	Pos() Position
}

// Entry is a top-level declaration of a [Resource].
// It is one of [*Comment], [*Import], [*Entity], or [*Macro].
type Entry interface {
	Node
	entry()
}

// Expr is an expression node.
type Expr interface {
	Node
	expr()
}

// Resource is the parsed form of one source file.
type Resource struct {
	Path    string
	Entries []Entry
}

// Comment is a top-level block comment.
type Comment struct {
	Content string
	Position
}

// Import declares a dependency on another module.
type Import struct {
	URI *String
	Position
}

// Entity is a named, queryable value with optional index and attributes.
//
// Value is nil for an entity declared with attributes only. Index is nil
// when the entity has no index.
type Entity struct {
	ID    *Identifier
	Value Expr
	Index []Expr
	Attrs []*Attribute
	Position
}

// Local reports whether the entity is private to its module.
func (e *Entity) Local() bool { return strings.HasPrefix(e.ID.Name, "_") }

// Macro is a named, parametrized expression.
type Macro struct {
	ID   *Identifier
	Args []*Variable
	Body Expr
	Position
}

// Attribute is a key/value pair attached to an entity.
type Attribute struct {
	Key   *Identifier
	Value Expr
	Index []Expr
	Position
}

// Local reports whether the attribute is private.
func (a *Attribute) Local() bool { return strings.HasPrefix(a.Key.Name, "_") }

// HashItem is one key/value pair of a [Hash].
type HashItem struct {
	Key     *Identifier
	Value   Expr
	Default bool
	Position
}

// Number is a non-negative decimal integer literal.
type Number struct {
	Value float64
	Position
}

// String is a string literal without placeables.
type String struct {
	Content string
	Position
}

// ComplexString is a string literal with at least one placeable.
// Content interleaves [*String] pieces and placeable expressions.
// Source holds the raw text between the quotes.
type ComplexString struct {
	Content []Expr
	Source  string
	Position
}

// Identifier names an entity or macro, or a key of a hash or attribute.
type Identifier struct {
	Name string
	Position
}

// Variable is a "$name" reference.
type Variable struct {
	ID *Identifier
	Position
}

// GlobalsExpr is an "@name" reference.
type GlobalsExpr struct {
	ID *Identifier
	Position
}

// ConditionalExpr is "test ? consequent : alternate".
type ConditionalExpr struct {
	Test       Expr
	Consequent Expr
	Alternate  Expr
	Position
}

// BinaryExpr applies one of the arithmetic, relational or equality
// operators.
type BinaryExpr struct {
	Left     Expr
	Right    Expr
	Operator string
	Position
}

// LogicalExpr applies "&&" or "||".
type LogicalExpr struct {
	Left     Expr
	Right    Expr
	Operator string
	Position
}

// UnaryExpr applies a prefix "!", "-" or "+".
type UnaryExpr struct {
	Argument Expr
	Operator string
	Position
}

// ParenExpr is a parenthesized expression.
type ParenExpr struct {
	Expr Expr
	Position
}

// PropertyExpr is "expr.name" or "expr[computed]".
type PropertyExpr struct {
	Expr     Expr
	Property Expr
	Computed bool
	Position
}

// AttributeExpr is "expr::name" or "expr::[computed]".
type AttributeExpr struct {
	Expr      Expr
	Attribute Expr
	Computed  bool
	Position
}

// ThisExpr is "~".
type ThisExpr struct {
	Position
}

// CallExpr is "callee(args...)".
type CallExpr struct {
	Callee Expr
	Args   []Expr
	Position
}

// Hash is a "{key: value, ...}" literal.
type Hash struct {
	Items []*HashItem
	Position
}

// Pos returns the position of the node's first token.
func (p Position) Pos() Position { return p }

func (*Comment) entry() {}
func (*Import) entry()  {}
func (*Entity) entry()  {}
func (*Macro) entry()   {}

func (*Number) expr()          {}
func (*String) expr()          {}
func (*ComplexString) expr()   {}
func (*Identifier) expr()      {}
func (*Variable) expr()        {}
func (*GlobalsExpr) expr()     {}
func (*ConditionalExpr) expr() {}
func (*BinaryExpr) expr()      {}
func (*LogicalExpr) expr()     {}
func (*UnaryExpr) expr()       {}
func (*ParenExpr) expr()       {}
func (*PropertyExpr) expr()    {}
func (*AttributeExpr) expr()   {}
func (*ThisExpr) expr()        {}
func (*CallExpr) expr()        {}
func (*Hash) expr()            {}
