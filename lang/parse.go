package lang

import (
	"context"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/ardnew/l20n/log"
)

// ParseReader parses a resource from an io.Reader.
func ParseReader(
	ctx context.Context,
	r io.Reader,
	opts ...Option,
) (*Resource, error) {
	data, err := readAll(r)
	if err != nil {
		return nil, ErrReadInput.Wrap(err).
			With(slog.String("source", "reader"))
	}

	return Parse(ctx, string(data), opts...)
}

// Parse parses a resource from source text.
// Malformed input yields a [*ParseError], as does nesting of expressions and
// hashes deeper than the [WithMaxDepth] bound.
func Parse(ctx context.Context, source string, opts ...Option) (*Resource, error) {
	o := makeOptions(opts...)

	p := &parser{
		tz:       NewTokenizer(source, o.path),
		logger:   o.logger,
		maxDepth: o.maxDepth,
	}

	res, err := p.parseResource()
	if err != nil {
		p.logger.DebugContext(ctx, "parse failed",
			slog.String("path", o.path),
			log.Err(err))

		return nil, err
	}

	res.Path = o.path

	p.logger.TraceContext(ctx, "parse complete",
		slog.String("path", o.path),
		slog.Int("entry_count", len(res.Entries)))

	return res, nil
}

// parser holds the parser state.
//
// tok is the current (not yet consumed) token and space reports whether
// white space preceded it. depth counts the expressions and hashes being
// parsed.
type parser struct {
	tz       *Tokenizer
	logger   log.Logger
	tok      Token
	depth    int
	maxDepth int
	space    bool
}

// enter descends one level of nesting. Each successful call must be paired
// with leave.
func (p *parser) enter() error {
	if p.depth >= p.maxDepth {
		return p.fail("Expression nested too deeply")
	}

	p.depth++

	return nil
}

func (p *parser) leave() { p.depth-- }

// next advances to the next regular token, skipping one run of white space.
func (p *parser) next() error {
	tok, err := p.tz.Next()
	if err != nil {
		return err
	}

	p.space = tok.Kind == tokSpace
	if p.space {
		if tok, err = p.tz.Next(); err != nil {
			return err
		}
	}

	p.tok = tok

	return nil
}

// nextText advances to the next token of a string body.
func (p *parser) nextText(delim string) error {
	tok, err := p.tz.NextText(delim)
	if err != nil {
		return err
	}

	p.tok = tok
	p.space = false

	return nil
}

func (p *parser) fail(msg string) *ParseError {
	return &ParseError{Msg: msg, Pos: p.tok.Pos, Source: p.tz.src}
}

func (p *parser) errorExpected(desc string) *ParseError {
	switch p.tok.Kind {
	case tokComment:
		return p.fail("Comments can be used only as top-level entries")
	case tokEOF:
		return p.fail("Expected " + desc + ", but end of input reached")
	default:
		return p.fail("Expected " + desc + ", but got " + describe(p.tok) + " instead")
	}
}

func describe(tok Token) string {
	switch tok.Kind {
	case tokIdent, tokNumber:
		return `"` + tok.Value + `"`
	case tokVariable:
		return `"$` + tok.Value + `"`
	case tokGlobal:
		return `"@` + tok.Value + `"`
	case tokStringStart:
		return "string"
	case tokEOF:
		return `"eof"`
	default:
		return `"` + tok.Value + `"`
	}
}

func (p *parser) is(sym string) bool {
	return p.tok.Kind == tokSymbol && p.tok.Value == sym
}

// skip consumes the symbol or fails.
func (p *parser) skip(sym string) error {
	if !p.is(sym) {
		return p.errorExpected(`"` + sym + `"`)
	}

	return p.next()
}

// trySkip consumes the symbol if it is current. With allowSpace false, white
// space before the symbol is an error.
func (p *parser) trySkip(sym string, allowSpace bool) (bool, error) {
	if !p.is(sym) {
		return false, nil
	}

	if !allowSpace && p.space {
		return false, p.fail("Unexpected white space before " + describe(p.tok))
	}

	return true, p.next()
}

// parseResource parses the entire input as a list of entries.
func (p *parser) parseResource() (*Resource, error) {
	if err := p.next(); err != nil {
		return nil, err
	}

	res := &Resource{Entries: []Entry{}}

	for p.tok.Kind != tokEOF {
		entry, err := p.parseEntry()
		if err != nil {
			return nil, err
		}

		res.Entries = append(res.Entries, entry)
	}

	return res, nil
}

func (p *parser) parseEntry() (Entry, error) {
	pos := p.tok.Pos

	switch {
	case p.is("<"):
		if err := p.next(); err != nil {
			return nil, err
		}

		if p.tok.Kind == tokIdent && p.space {
			return nil, p.fail(`Unexpected white space between "<" and entity/macro name`)
		}

		id, err := p.parseIdentifier()
		if err != nil {
			return nil, err
		}

		if p.is("(") {
			if p.space {
				return nil, p.fail(`Unexpected white space between macro name and "("`)
			}

			if err := p.next(); err != nil {
				return nil, err
			}

			return p.parseMacroTail(pos, id)
		}

		var index []Expr

		if p.is("[") {
			if p.space {
				return nil, p.fail(`Unexpected white space between entity name and "["`)
			}

			if err := p.next(); err != nil {
				return nil, err
			}

			if index, err = parseList(p, p.parseExpression, "]"); err != nil {
				return nil, err
			}
		}

		return p.parseEntityTail(pos, id, index)

	case p.tok.Kind == tokComment:
		content := p.tok.Value

		if err := p.next(); err != nil {
			return nil, err
		}

		return &Comment{Content: content, Position: pos}, nil

	case p.tok.Kind == tokIdent && p.tok.Value == "import":
		if err := p.next(); err != nil {
			return nil, err
		}

		return p.parseImport(pos)
	}

	return nil, p.errorExpected("entry")
}

func (p *parser) parseIdentifier() (*Identifier, error) {
	if p.tok.Kind != tokIdent {
		return nil, p.errorExpected("identifier")
	}

	id := &Identifier{Name: p.tok.Value, Position: p.tok.Pos}

	return id, p.next()
}

func (p *parser) parseVariable() (*Variable, error) {
	if p.tok.Kind != tokVariable {
		return nil, p.errorExpected("variable")
	}

	pos := p.tok.Pos
	id := &Identifier{Name: p.tok.Value, Position: shift(pos, 1)}

	return &Variable{ID: id, Position: pos}, p.next()
}

func (p *parser) parseMacroTail(pos Position, id *Identifier) (*Macro, error) {
	if strings.HasPrefix(id.Name, "_") {
		return nil, p.fail(`Macro identifier cannot start with "_"`)
	}

	args, err := parseList(p, p.parseVariable, ")")
	if err != nil {
		return nil, err
	}

	if err := p.skip("{"); err != nil {
		return nil, err
	}

	body, err := p.parseExpression()
	if err != nil {
		return nil, err
	}

	if err := p.skip("}"); err != nil {
		return nil, err
	}

	if err := p.skip(">"); err != nil {
		return nil, err
	}

	return &Macro{ID: id, Args: args, Body: body, Position: pos}, nil
}

func (p *parser) parseEntityTail(
	pos Position,
	id *Identifier,
	index []Expr,
) (*Entity, error) {
	if !p.space {
		if index != nil {
			return nil, p.fail("Expected white space after index")
		}

		return nil, p.fail("Expected white space after entity name")
	}

	value, err := p.parseOptionalValue()
	if err != nil {
		return nil, err
	}

	entity := &Entity{ID: id, Value: value, Index: index, Position: pos}

	if p.is(">") {
		if value == nil {
			return nil, p.fail("Entity may not be empty")
		}

		return entity, p.next()
	}

	if !p.space {
		return nil, p.fail("Expected white space after entity value")
	}

	if entity.Attrs, err = p.parseAttributes(); err != nil {
		return nil, err
	}

	return entity, nil
}

func (p *parser) parseAttributes() ([]*Attribute, error) {
	var attrs []*Attribute

	for {
		pos := p.tok.Pos

		key, err := p.parseIdentifier()
		if err != nil {
			return nil, err
		}

		attr := &Attribute{Key: key, Position: pos}

		ok, err := p.trySkip("[", false)
		if err != nil {
			return nil, err
		}

		if ok {
			if attr.Index, err = parseList(p, p.parseExpression, "]"); err != nil {
				return nil, err
			}
		}

		if err := p.skip(":"); err != nil {
			return nil, err
		}

		if attr.Value, err = p.parseValue(); err != nil {
			return nil, err
		}

		attrs = append(attrs, attr)

		if p.is(">") {
			return attrs, p.next()
		}

		if !p.space {
			return nil, p.fail("Expected white space after attribute value")
		}
	}
}

func (p *parser) parseImport(pos Position) (*Import, error) {
	if !p.is("(") {
		return nil, p.errorExpected(`"("`)
	}

	if p.space {
		return nil, p.fail(`Unexpected white space between "import" and "("`)
	}

	if err := p.next(); err != nil {
		return nil, err
	}

	uriPos := p.tok.Pos

	uri, err := p.parseString()
	if err != nil {
		return nil, err
	}

	str, ok := uri.(*String)
	if !ok {
		return nil, &ParseError{
			Msg:    "Import URI must not contain placeables",
			Pos:    uriPos,
			Source: p.tz.src,
		}
	}

	if err := p.skip(")"); err != nil {
		return nil, err
	}

	return &Import{URI: str, Position: pos}, nil
}

// parseOptionalValue parses a string or hash, or returns nil if neither
// starts at the current token.
func (p *parser) parseOptionalValue() (Expr, error) {
	if p.tok.Kind == tokStringStart {
		return p.parseString()
	}

	if p.is("{") {
		pos := p.tok.Pos

		if err := p.next(); err != nil {
			return nil, err
		}

		return p.parseHash(pos)
	}

	return nil, nil
}

func (p *parser) parseValue() (Expr, error) {
	value, err := p.parseOptionalValue()
	if err != nil {
		return nil, err
	}

	if value == nil {
		return nil, p.errorExpected("value")
	}

	return value, nil
}

func (p *parser) parseHash(pos Position) (*Hash, error) {
	if err := p.enter(); err != nil {
		return nil, err
	}
	defer p.leave()

	hash := &Hash{Position: pos}
	hasDefault := false

	for {
		item := &HashItem{Position: p.tok.Pos}

		ok, err := p.trySkip("*", true)
		if err != nil {
			return nil, err
		}

		if ok {
			if hasDefault {
				return nil, p.fail("Default item redefinition")
			}

			item.Default, hasDefault = true, true
		}

		if item.Key, err = p.parseIdentifier(); err != nil {
			return nil, err
		}

		if err := p.skip(":"); err != nil {
			return nil, err
		}

		if item.Value, err = p.parseValue(); err != nil {
			return nil, err
		}

		hash.Items = append(hash.Items, item)

		switch {
		case p.is(","):
			if err := p.next(); err != nil {
				return nil, err
			}

		case p.is("}"):
			return hash, p.next()

		default:
			return nil, p.errorExpected(`"," or "}"`)
		}
	}
}

// parseString parses a string literal. The result is a [*String] unless the
// literal contains a placeable, in which case it is a [*ComplexString].
func (p *parser) parseString() (Expr, error) {
	if p.tok.Kind != tokStringStart {
		return nil, p.errorExpected("string")
	}

	pos := p.tok.Pos
	delim := p.tok.Value
	start := p.tz.Offset()

	if err := p.nextText(delim); err != nil {
		return nil, err
	}

	var (
		buf    strings.Builder
		bufPos Position
		body   []Expr
	)

	flush := func() {
		if buf.Len() > 0 {
			body = append(body, &String{Content: buf.String(), Position: bufPos})
			buf.Reset()
		}
	}

	for {
		switch p.tok.Kind {
		case tokText:
			if buf.Len() == 0 {
				bufPos = p.tok.Pos
			}

			buf.WriteString(p.tok.Value)

			if err := p.nextText(delim); err != nil {
				return nil, err
			}

		case tokPlaceable:
			flush()

			if err := p.next(); err != nil {
				return nil, err
			}

			expr, err := p.parseExpression()
			if err != nil {
				return nil, err
			}

			body = append(body, expr)

			if !p.is("}") {
				return nil, p.errorExpected(`"}}"`)
			}

			if err := p.next(); err != nil {
				return nil, err
			}

			if !p.is("}") || p.space {
				return nil, p.errorExpected(`"}}"`)
			}

			if err := p.nextText(delim); err != nil {
				return nil, err
			}

		case tokStringEnd:
			end := p.tz.Offset() - len(delim)

			if err := p.next(); err != nil {
				return nil, err
			}

			if body == nil {
				return &String{Content: buf.String(), Position: pos}, nil
			}

			flush()

			return &ComplexString{
				Content:  body,
				Source:   p.tz.Source(start, end),
				Position: pos,
			}, nil

		default:
			return nil, p.fail("Unclosed string")
		}
	}
}

func (p *parser) parseExpression() (Expr, error) {
	if err := p.enter(); err != nil {
		return nil, err
	}
	defer p.leave()

	test, err := p.parseOr()
	if err != nil {
		return nil, err
	}

	if !p.is("?") {
		return test, nil
	}

	if err := p.next(); err != nil {
		return nil, err
	}

	consequent, err := p.parseExpression()
	if err != nil {
		return nil, err
	}

	if err := p.skip(":"); err != nil {
		return nil, err
	}

	alternate, err := p.parseExpression()
	if err != nil {
		return nil, err
	}

	return &ConditionalExpr{
		Test:       test,
		Consequent: consequent,
		Alternate:  alternate,
		Position:   test.Pos(),
	}, nil
}

func (p *parser) parseOr() (Expr, error) {
	return p.parseLogical(p.parseAnd, "||")
}

func (p *parser) parseAnd() (Expr, error) {
	return p.parseLogical(p.parseEquality, "&&")
}

func (p *parser) parseEquality() (Expr, error) {
	return p.parseBinary(p.parseRelational, "==", "!=")
}

func (p *parser) parseRelational() (Expr, error) {
	return p.parseBinary(p.parseAdditive, "<", "<=", ">", ">=")
}

func (p *parser) parseAdditive() (Expr, error) {
	return p.parseBinary(p.parseModulo, "+", "-")
}

func (p *parser) parseModulo() (Expr, error) {
	return p.parseBinary(p.parseMultiplicative, "%")
}

func (p *parser) parseMultiplicative() (Expr, error) {
	return p.parseBinary(p.parseDivisive, "*")
}

func (p *parser) parseDivisive() (Expr, error) {
	return p.parseBinary(p.parseUnary, "/")
}

// parseBinary parses a left-associative chain of the given operators.
func (p *parser) parseBinary(operand func() (Expr, error), ops ...string) (Expr, error) {
	return p.parseChain(operand, ops, func(op string, left, right Expr) Expr {
		return &BinaryExpr{Operator: op, Left: left, Right: right, Position: left.Pos()}
	})
}

func (p *parser) parseLogical(operand func() (Expr, error), op string) (Expr, error) {
	return p.parseChain(operand, []string{op}, func(op string, left, right Expr) Expr {
		return &LogicalExpr{Operator: op, Left: left, Right: right, Position: left.Pos()}
	})
}

func (p *parser) parseChain(
	operand func() (Expr, error),
	ops []string,
	build func(op string, left, right Expr) Expr,
) (Expr, error) {
	left, err := operand()
	if err != nil {
		return nil, err
	}

	for p.tok.Kind == tokSymbol && containsString(ops, p.tok.Value) {
		op := p.tok.Value

		if err := p.next(); err != nil {
			return nil, err
		}

		right, err := operand()
		if err != nil {
			return nil, err
		}

		left = build(op, left, right)
	}

	return left, nil
}

func (p *parser) parseUnary() (Expr, error) {
	if !p.is("+") && !p.is("-") && !p.is("!") {
		return p.parseMember()
	}

	if err := p.enter(); err != nil {
		return nil, err
	}
	defer p.leave()

	op, pos := p.tok.Value, p.tok.Pos

	if err := p.next(); err != nil {
		return nil, err
	}

	arg, err := p.parseUnary()
	if err != nil {
		return nil, err
	}

	return &UnaryExpr{Operator: op, Argument: arg, Position: pos}, nil
}

func (p *parser) parseMember() (Expr, error) {
	expr, err := p.parseParen()
	if err != nil {
		return nil, err
	}

	for {
		var op string

		for _, sym := range []string{".", "[", "::", "::[", "("} {
			ok, err := p.trySkip(sym, false)
			if err != nil {
				return nil, err
			}

			if ok {
				op = sym

				break
			}
		}

		switch op {
		case ".":
			expr, err = p.parsePropertyTail(expr, false)
		case "[":
			expr, err = p.parsePropertyTail(expr, true)
		case "::":
			expr, err = p.parseAttributeTail(expr, false)
		case "::[":
			expr, err = p.parseAttributeTail(expr, true)
		case "(":
			expr, err = p.parseCallTail(expr)
		default:
			return expr, nil
		}

		if err != nil {
			return nil, err
		}
	}
}

func (p *parser) parseParen() (Expr, error) {
	if !p.is("(") {
		return p.parsePrimary()
	}

	pos := p.tok.Pos

	if err := p.next(); err != nil {
		return nil, err
	}

	expr, err := p.parseExpression()
	if err != nil {
		return nil, err
	}

	if err := p.skip(")"); err != nil {
		return nil, err
	}

	return &ParenExpr{Expr: expr, Position: pos}, nil
}

func (p *parser) parsePropertyTail(expr Expr, computed bool) (Expr, error) {
	prop, err := p.parseMemberName(computed, `"."`, "property")
	if err != nil {
		return nil, err
	}

	return &PropertyExpr{
		Expr:     expr,
		Property: prop,
		Computed: computed,
		Position: expr.Pos(),
	}, nil
}

func (p *parser) parseAttributeTail(expr Expr, computed bool) (Expr, error) {
	switch expr.(type) {
	case *ParenExpr, *Identifier, *ThisExpr:
	default:
		return nil, p.fail(
			`The left expression of attribute access must be entity name, ` +
				`this ("~") or parentheses`,
		)
	}

	attr, err := p.parseMemberName(computed, `"::"`, "attribute")
	if err != nil {
		return nil, err
	}

	return &AttributeExpr{
		Expr:      expr,
		Attribute: attr,
		Computed:  computed,
		Position:  expr.Pos(),
	}, nil
}

// parseMemberName parses the name following "." or "::", or the computed
// expression and closing bracket following "[" or "::[".
func (p *parser) parseMemberName(computed bool, op, what string) (Expr, error) {
	if computed {
		expr, err := p.parseExpression()
		if err != nil {
			return nil, err
		}

		return expr, p.skip("]")
	}

	if p.tok.Kind == tokIdent && p.space {
		return nil, p.fail("Unexpected white space between " + op + " and " + what + " name")
	}

	return p.parseIdentifier()
}

func (p *parser) parseCallTail(callee Expr) (Expr, error) {
	args, err := parseList(p, p.parseExpression, ")")
	if err != nil {
		return nil, err
	}

	return &CallExpr{Callee: callee, Args: args, Position: callee.Pos()}, nil
}

func (p *parser) parsePrimary() (Expr, error) {
	pos := p.tok.Pos

	switch p.tok.Kind {
	case tokNumber:
		v, err := strconv.ParseFloat(p.tok.Value, 64)
		if err != nil {
			return nil, p.fail("Invalid number: " + p.tok.Value)
		}

		return &Number{Value: v, Position: pos}, p.next()

	case tokIdent:
		return p.parseIdentifier()

	case tokGlobal:
		id := &Identifier{Name: p.tok.Value, Position: shift(pos, 1)}

		return &GlobalsExpr{ID: id, Position: pos}, p.next()

	case tokVariable:
		return p.parseVariable()
	}

	if p.is("~") {
		return &ThisExpr{Position: pos}, p.next()
	}

	value, err := p.parseOptionalValue()
	if err != nil {
		return nil, err
	}

	if value == nil {
		return nil, p.errorExpected("expression")
	}

	return value, nil
}

// parseList parses items separated by "," up to the closing symbol.
// An empty list yields a non-nil empty slice.
func parseList[T Node](p *parser, item func() (T, error), closing string) ([]T, error) {
	items := []T{}

	ok, err := p.trySkip(closing, true)
	if err != nil || ok {
		return items, err
	}

	for {
		it, err := item()
		if err != nil {
			return nil, err
		}

		items = append(items, it)

		switch {
		case p.is(","):
			if err := p.next(); err != nil {
				return nil, err
			}

		case p.is(closing):
			return items, p.next()

		default:
			return nil, p.errorExpected(`"," or "` + closing + `"`)
		}
	}
}

func shift(pos Position, columns int) Position {
	pos.Column += columns

	return pos
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}

	return false
}
