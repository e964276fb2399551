package lang

import (
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"unicode/utf8"
)

// Predefined errors (sentinel values).
//
// Errors returned by this package match one of these with [errors.Is],
// even after being wrapped or decorated with attributes.
var (
	ErrParse              = NewError("parse error")
	ErrCircularDependency = NewError("circular dependency")
	ErrName               = NewError("name error")
	ErrType               = NewError("type error")
	ErrLookup             = NewError("lookup error")
	ErrArithmetic         = NewError("arithmetic error")
	ErrTailCallLimit      = NewError("tail call limit exceeded")
	ErrMaxDepthExceeded   = NewError("maximum evaluation depth exceeded")
	ErrLoader             = NewError("loader error")
	ErrBuild              = NewError("build error")
	ErrReadInput          = NewError("failed to read input")
)

// Error represents an error with optional structured logging attributes.
// It implements both error and slog.LogValuer interfaces.
type Error struct {
	msg   string
	err   error       // Wrapped error (for errors.Unwrap)
	kind  *Error      // Sentinel this error derives from
	attrs []slog.Attr // Attributes for structured logging
}

// NewError creates a new Error with a message.
func NewError(msg string) *Error {
	return &Error{msg: msg}
}

// WrapError wraps a standard error into an Error.
func WrapError(err error) *Error {
	ee := &Error{}
	if errors.As(err, &ee) {
		return ee
	}

	return &Error{err: err}
}

// Error implements the error interface.
func (e *Error) Error() string {
	// Build error message using the first available format,
	// depending on which fields are set:
	//
	//   1. "<msg>: <err>" // base and wrapped error both set
	//   2. "<msg>"        // wrapped error is nil
	//   3. "<err>"        // base error message is empty
	//   4. ""             // no fields are set
	part := make([]string, 0, 2)

	if e.msg != "" {
		part = append(part, e.msg)
	}

	if e.err != nil {
		part = append(part, e.err.Error())
	}

	return strings.Join(part, ": ")
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *Error) Unwrap() error { return e.err }

// Is reports whether target is the sentinel e was derived from.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)

	return ok && t.root() == e.root()
}

func (e *Error) root() *Error {
	if e.kind != nil {
		return e.kind
	}

	return e
}

// LogValue implements slog.LogValuer for rich structured logging.
func (e *Error) LogValue() slog.Value {
	attrs := make([]slog.Attr, 0, len(e.attrs)+2)

	if e.msg != "" {
		attrs = append(attrs, slog.String("error", e.msg))
	}

	if e.err != nil {
		attrs = append(attrs, slog.String("cause", e.err.Error()))
	}

	return slog.GroupValue(append(attrs, e.attrs...)...)
}

// Wrap creates a new Error wrapping another error.
func (e *Error) Wrap(err error) *Error {
	return &Error{
		msg:   e.msg,
		err:   err,
		kind:  e.root(),
		attrs: e.attrs, // Share attrs
	}
}

// Errorf creates a new Error wrapping a formatted detail message.
func (e *Error) Errorf(format string, args ...any) *Error {
	return e.Wrap(fmt.Errorf(format, args...))
}

// With adds attributes to the error for structured logging.
// This creates a new Error instance to maintain immutability.
func (e *Error) With(attrs ...slog.Attr) *Error {
	newAttrs := make([]slog.Attr, len(e.attrs)+len(attrs))
	copy(newAttrs, e.attrs)
	copy(newAttrs[len(e.attrs):], attrs)

	return &Error{
		msg:   e.msg,
		err:   e.err,
		kind:  e.root(),
		attrs: newAttrs,
	}
}

// ParseError reports malformed source text.
// It matches [ErrParse] with [errors.Is].
type ParseError struct {
	Msg    string
	Source string // The original source input
	Pos    Position
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	var buf strings.Builder

	buf.WriteString("parse error at ")

	if e.Pos.Path != "" {
		buf.WriteString(e.Pos.Path)
		buf.WriteString(", ")
	}

	buf.WriteString("line ")
	buf.WriteString(strconv.Itoa(e.Pos.Line))
	buf.WriteString(", column ")
	buf.WriteString(strconv.Itoa(e.Pos.Column))
	buf.WriteString(": ")
	buf.WriteString(e.Msg)

	return buf.String()
}

// Unwrap returns [ErrParse].
func (e *ParseError) Unwrap() error { return ErrParse }

// LogValue implements slog.LogValuer.
func (e *ParseError) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("error", e.Msg),
		slog.String("path", e.Pos.Path),
		slog.Int("line", e.Pos.Line),
		slog.Int("column", e.Pos.Column),
	)
}

// Snippet renders the offending source line with a marker under the
// error column. It returns an empty string if the source is unavailable.
func (e *ParseError) Snippet() string {
	if e.Source == "" || e.Pos.Line <= 0 {
		return ""
	}

	lines := strings.Split(e.Source, "\n")
	if e.Pos.Line > len(lines) {
		return ""
	}

	line := strings.TrimRight(lines[e.Pos.Line-1], "\r")

	var src strings.Builder

	// Print the line with line number
	src.WriteString("  ")
	src.WriteString(strconv.Itoa(e.Pos.Line))
	src.WriteString(" | ")
	src.WriteString(line)
	src.WriteRune('\n')

	// +5 accounts for: 2 leading spaces + " | " (3 chars)
	padding := strings.Repeat(" ", len(strconv.Itoa(e.Pos.Line))+5)

	if col := min(e.Pos.Column, utf8.RuneCountInString(line)+1); col > 0 {
		padding += strings.Repeat(" ", col-1)
	}

	src.WriteString(padding + "^\n")

	return src.String()
}

// SourceError attributes an evaluation failure to the raw text of the
// string literal whose placeable failed.
type SourceError struct {
	Err    error
	Source string
}

// Error implements the error interface.
func (e *SourceError) Error() string {
	return e.Err.Error() + " (in " + strconv.Quote(e.Source) + ")"
}

// Unwrap returns the underlying failure.
func (e *SourceError) Unwrap() error { return e.Err }

// withSource wraps err in a [SourceError] unless a string nested deeper
// already claimed it.
func withSource(err error, source string) error {
	if se := (*SourceError)(nil); errors.As(err, &se) {
		return err
	}

	return &SourceError{Err: err, Source: source}
}
