package lang

import (
	"strconv"
	"strings"
	"unicode/utf8"
)

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokSpace
	tokComment
	tokIdent
	tokVariable
	tokGlobal
	tokSymbol
	tokStringStart
	tokNumber

	// Text mode.
	tokStringEnd
	tokPlaceable
	tokText
)

// Token is a lexical unit of source text.
type Token struct {
	Value string
	Pos   Position
	Kind  tokenKind
}

// symbols lists the operators and punctuation, longest first.
var symbols = []string{
	"::[", "::", "==", "!=", "<=", ">=", "&&", "||",
	"?", "!", ":", "<", ">", "(", ")", "{", "}", "[", "]",
	"+", "-", "*", "/", "%", "~", ",", ".",
}

// Tokenizer splits source text into tokens.
//
// Next scans regular tokens. NextText scans the body of a string literal
// and is used between a string start token and the matching delimiter.
type Tokenizer struct {
	src  string
	path string
	pos  int // byte offset of the next unread character
	line int // zero-based line of mark
	mark int // byte offset up to which line and col are counted
	col  int // zero-based rune column of mark
}

// NewTokenizer returns a Tokenizer reading src. Path is recorded in every
// token position.
func NewTokenizer(src, path string) *Tokenizer {
	return &Tokenizer{src: src, path: path}
}

// Offset returns the byte offset of the next unread character.
func (t *Tokenizer) Offset() int { return t.pos }

// Source returns the raw source between two offsets.
func (t *Tokenizer) Source(start, end int) string { return t.src[start:end] }

// Position returns the position of the next unread character.
func (t *Tokenizer) Position() Position {
	t.linescan()

	return t.positionAt(t.pos)
}

// positionAt returns the position of offset. Offsets before the last counted
// offset must lie on its line.
func (t *Tokenizer) positionAt(offset int) Position {
	offset = min(offset, len(t.src))
	line, col := t.line, t.col

	if offset < t.mark {
		col -= utf8.RuneCountInString(t.src[offset:t.mark])
	} else {
		seg := t.src[t.mark:offset]

		if i := strings.LastIndexByte(seg, '\n'); i >= 0 {
			line += strings.Count(seg[:i], "\n") + 1
			col = utf8.RuneCountInString(seg[i+1:])
		} else {
			col += utf8.RuneCountInString(seg)
		}
	}

	return Position{
		Path:   t.path,
		Line:   line + 1,
		Column: col + 1,
	}
}

func (t *Tokenizer) errorAt(offset int, msg string) *ParseError {
	return &ParseError{Msg: msg, Pos: t.positionAt(offset), Source: t.src}
}

// linescan advances the line and column counters over the text consumed
// since the last call. Each byte is counted once.
func (t *Tokenizer) linescan() {
	p := t.positionAt(t.pos)
	t.line, t.col, t.mark = p.Line-1, p.Column-1, t.pos
}

// Next scans the next regular token.
func (t *Tokenizer) Next() (Token, error) {
	pos := t.Position()

	if t.pos >= len(t.src) {
		return Token{Kind: tokEOF, Pos: pos}, nil
	}

	rest := t.src[t.pos:]
	c := rest[0]

	switch {
	case isSpace(c):
		n := 1
		for n < len(rest) && isSpace(rest[n]) {
			n++
		}

		t.pos += n
		t.linescan()

		return Token{Kind: tokSpace, Pos: pos}, nil

	case strings.HasPrefix(rest, "/*"):
		end := strings.Index(rest[2:], "*/")
		if end < 0 {
			t.pos = len(t.src)
			t.linescan()

			return Token{}, t.errorAt(t.pos, "Unclosed comment")
		}

		t.pos += end + 4
		t.linescan()

		return Token{Kind: tokComment, Value: rest[2 : end+2], Pos: pos}, nil

	case isIdentStart(c) ||
		((c == '@' || c == '$') && len(rest) > 1 && isIdentStart(rest[1])):
		n := 1
		for n < len(rest) && isIdentPart(rest[n]) {
			n++
		}

		t.pos += n

		switch c {
		case '@':
			return Token{Kind: tokGlobal, Value: rest[1:n], Pos: pos}, nil
		case '$':
			return Token{Kind: tokVariable, Value: rest[1:n], Pos: pos}, nil
		default:
			return Token{Kind: tokIdent, Value: rest[:n], Pos: pos}, nil
		}

	case c == '"' || c == '\'':
		delim := rest[:1]
		if triple := strings.Repeat(delim, 3); strings.HasPrefix(rest, triple) {
			delim = triple
		}

		t.pos += len(delim)

		return Token{Kind: tokStringStart, Value: delim, Pos: pos}, nil

	case isDigit(c):
		n := 1
		for n < len(rest) && isDigit(rest[n]) {
			n++
		}

		t.pos += n

		return Token{Kind: tokNumber, Value: rest[:n], Pos: pos}, nil
	}

	for _, sym := range symbols {
		if strings.HasPrefix(rest, sym) {
			t.pos += len(sym)

			return Token{Kind: tokSymbol, Value: sym, Pos: pos}, nil
		}
	}

	r, _ := utf8.DecodeRuneInString(rest)

	return Token{}, t.errorAt(t.pos, `Unrecognized character: "`+string(r)+`"`)
}

// NextText scans the next token of a string body terminated by delim.
func (t *Tokenizer) NextText(delim string) (Token, error) {
	pos := t.Position()

	if t.pos >= len(t.src) {
		return Token{Kind: tokEOF, Pos: pos}, nil
	}

	rest := t.src[t.pos:]

	switch {
	case strings.HasPrefix(rest, delim):
		t.pos += len(delim)

		return Token{Kind: tokStringEnd, Pos: pos}, nil

	case strings.HasPrefix(rest, "{{"):
		t.pos += 2

		return Token{Kind: tokPlaceable, Pos: pos}, nil

	case rest[0] == '\\':
		value, size, err := t.escape()
		if err != nil {
			return Token{}, err
		}

		t.pos += size
		t.linescan()

		return Token{Kind: tokText, Value: value, Pos: pos}, nil
	}

	// One character unconditionally, then a run of safe characters.
	_, n := utf8.DecodeRuneInString(rest)
	for n < len(rest) && isSafeText(rest[n]) {
		n++
	}

	t.pos += n
	t.linescan()

	return Token{Kind: tokText, Value: rest[:n], Pos: pos}, nil
}

// escape decodes the escape sequence at the current offset and returns the
// decoded text with the number of bytes consumed.
func (t *Tokenizer) escape() (string, int, error) {
	rest := t.src[t.pos:]
	if len(rest) < 2 {
		return "", 0, t.errorAt(t.pos, "Invalid escape")
	}

	if rest[1] != 'u' {
		r, n := utf8.DecodeRuneInString(rest[1:])

		return string(r), n + 1, nil
	}

	hi, ok := hex4(rest[2:])
	if !ok {
		return "", 0, t.errorAt(t.pos, "Invalid escape")
	}

	switch {
	case isHighSurrogate(hi):
		if !strings.HasPrefix(rest[6:], `\u`) {
			return "", 0, t.errorAt(t.pos, "Invalid escape - missing low surrogate")
		}

		lo, ok := hex4(rest[8:])
		if !ok {
			return "", 0, t.errorAt(t.pos, "Invalid escape")
		}

		if !isLowSurrogate(lo) {
			return "", 0, t.errorAt(t.pos+6, "Invalid escape - not a low surrogate")
		}

		r := 0x10000 + (((hi - 0xd800) << 10) | (lo - 0xdc00))

		return string(rune(r)), 12, nil

	case isLowSurrogate(hi):
		return "", 0, t.errorAt(t.pos, "Invalid escape - low surrogate")
	}

	return string(rune(hi)), 6, nil
}

func hex4(s string) (int, bool) {
	if len(s) < 4 {
		return 0, false
	}

	for i := range 4 {
		if !isHexDigit(s[i]) {
			return 0, false
		}
	}

	v, err := strconv.ParseUint(s[:4], 16, 32)
	if err != nil {
		return 0, false
	}

	return int(v), true
}

func isHighSurrogate(v int) bool { return v >= 0xd800 && v <= 0xdbff }
func isLowSurrogate(v int) bool  { return v >= 0xdc00 && v <= 0xdfff }

func isSpace(c byte) bool {
	return c == ' ' || c == '\n' || c == '\r' || c == '\t'
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func isHexDigit(c byte) bool {
	return isDigit(c) || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentPart(c byte) bool { return isIdentStart(c) || isDigit(c) }

func isSafeText(c byte) bool {
	return c != '{' && c != '\'' && c != '"' && c != '\\'
}
