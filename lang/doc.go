// Package lang implements the l20n localization template language: a
// tokenizer and parser producing a syntax tree, a per-module compiler, a
// linker resolving imports, and a lazy evaluator.
//
// # Entries
//
// A resource is a sequence of entries:
//
//   - Entity: a named string or hash, with optional index and attributes
//   - Macro: a named expression with parameters
//   - Import: a dependency on another module
//   - Comment: a block comment
//
// # Grammar
//
// Informal EBNF:
//
//	Resource   → Entry* EOF
//	Entry      → Entity | Macro | Import | Comment
//	Entity     → '<' Identifier Index? ' ' Value? (' ' Attribute)* '>'
//	Macro      → '<' Identifier '(' Variable* ')' '{' Expression '}' '>'
//	Import     → 'import' '(' String ')'
//	Index      → '[' Expression (',' Expression)* ']'
//	Attribute  → Identifier Index? ':' Value
//	Value      → String | Hash
//	Hash       → '{' '*'? Identifier ':' Value (',' '*'? Identifier ':' Value)* '}'
//	String     → quoted text with '{{' Expression '}}' placeables
//
// Expressions follow C precedence, from lowest to highest: conditional,
// "||", "&&", equality, relational, "+" and "-", "%", "*", "/", unary,
// then member access (".name", "[expr]", "::name", "::[expr]", calls).
// Primaries are numbers, strings, hashes, identifiers, "$variables",
// "@globals", "~" (this), and parenthesized expressions.
//
// White space is significant in a few places: none between "<" and the
// entry name, none between a macro name and "(", none between an entity
// name and its index, and at least one after an entity name and value.
//
// # Example
//
//	<brandName "Firefox">
//
//	<plural($n) { $n == 1 ? "one" : "many" }>
//
//	<unread[plural($count)] {
//	  one: "You have one unread message",
//	  *many: "You have {{ $count }} unread messages"
//	}>
//
//	<about "About {{ brandName }}"
//	  accesskey: "A">
//
// # Modules
//
// Each source file compiles to a [Module]. [Link] resolves a module's
// imports depth-first: a module sees the exported entries of its imports,
// later imports overriding earlier ones, and then its own entries. Entries
// whose names start with "_" are local to their module. Circular imports
// fail with [ErrCircularDependency].
//
// The [BuildPath], [BuildSource], and [BuildStandalone] functions load,
// compile, and link a module graph through a [Loader] and an optional
// [Cache].
//
// # Evaluation
//
// A [Program] evaluates in an [Env] carrying variables and globals.
// Entities, hashes, and macro results are evaluated lazily and resolved to
// a primitive (boolean, number, or string) only where one is needed.
// A macro calling itself in tail position runs in a bounded loop, so deep
// self-recursion does not grow the stack.
//
// [Context] wraps a Program for applications: it keeps variables between
// queries and falls back to source text when a query fails.
package lang
