package log

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"sync"
	"time"
)

// ANSI color codes for pretty printing.
const (
	colorReset   = "\033[0m"
	colorGray    = "\033[90m"
	colorRed     = "\033[31m"
	colorGreen   = "\033[32m"
	colorYellow  = "\033[33m"
	colorBlue    = "\033[34m"
	colorMagenta = "\033[35m"
	colorCyan    = "\033[36m"
	colorBold    = "\033[1m"
)

// keyColor highlights the values of the shared l20n attributes, so that the
// subject of a message stands out from its details.
var keyColor = map[string]string{
	KeyEntity: colorBold + colorMagenta,
	KeyModule: colorBold + colorBlue,
	KeyQuery:  colorBold + colorCyan,
	KeyError:  colorRed,
}

// writeKeyed writes the string form of v in the color assigned to key.
// It reports false if key has no assigned color.
func writeKeyed(buf *bytes.Buffer, key string, v slog.Value) bool {
	color, ok := keyColor[key]
	if !ok {
		return false
	}

	buf.WriteString(color)
	buf.WriteString(v.Resolve().String())
	buf.WriteString(colorReset)

	return true
}

// timeAttr returns the timestamp attribute for t rendered by ReplaceAttr.
// The result is empty when t is zero or timestamps are disabled.
func timeAttr(opts slog.HandlerOptions, t time.Time) slog.Attr {
	if t.IsZero() {
		return slog.Attr{}
	}

	a := slog.Time(slog.TimeKey, t)
	if opts.ReplaceAttr != nil {
		a = opts.ReplaceAttr(nil, a)
	}

	return a
}

// prettyTextHandler implements a colorized text handler for log messages.
type prettyTextHandler struct {
	opts   slog.HandlerOptions
	mu     *sync.Mutex
	w      io.Writer
	groups []string
	attrs  []slog.Attr
}

func newPrettyTextHandler(
	w io.Writer,
	opts *slog.HandlerOptions,
) *prettyTextHandler {
	return &prettyTextHandler{
		opts:   *opts,
		mu:     &sync.Mutex{},
		w:      w,
		groups: []string{},
	}
}

func (h *prettyTextHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.opts.Level.Level()
}

func (h *prettyTextHandler) Handle(_ context.Context, r slog.Record) error {
	buf := new(bytes.Buffer)

	if a := timeAttr(h.opts, r.Time); a.Key != "" {
		h.writeAttr(buf, a)
	}

	// Write level
	levelAttr := slog.Any(slog.LevelKey, r.Level)
	h.writeAttr(buf, levelAttr)

	// Write source if configured
	if h.opts.AddSource {
		if src := r.Source(); src != nil {
			// Format as file:line
			sourceStr := fmt.Sprintf("%s:%d", src.File, src.Line)
			sourceAttr := slog.String(slog.SourceKey, sourceStr)
			h.writeAttr(buf, sourceAttr)
		}
	}

	// Write message
	msgAttr := slog.String(slog.MessageKey, r.Message)
	h.writeAttr(buf, msgAttr)

	for _, a := range h.attrs {
		h.writeAttr(buf, a)
	}

	// Write each attribute
	r.Attrs(func(a slog.Attr) bool {
		h.writeAttr(buf, a)

		return true
	})

	h.mu.Lock()
	defer h.mu.Unlock()

	_, err := h.w.Write(buf.Bytes())
	if err != nil {
		return err
	}

	_, err = h.w.Write([]byte("\n"))

	return err
}

func (h *prettyTextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &prettyTextHandler{
		opts:   h.opts,
		mu:     h.mu,
		w:      h.w,
		groups: h.groups,
		attrs:  append(h.attrs[:len(h.attrs):len(h.attrs)], attrs...),
	}
}

func (h *prettyTextHandler) WithGroup(name string) slog.Handler {
	return &prettyTextHandler{
		opts:   h.opts,
		mu:     h.mu,
		w:      h.w,
		groups: append(h.groups[:len(h.groups):len(h.groups)], name),
		attrs:  h.attrs,
	}
}

func (h *prettyTextHandler) writeAttr(buf *bytes.Buffer, a slog.Attr) {
	if a.Equal(slog.Attr{}) {
		return
	}

	if buf.Len() > 0 {
		buf.WriteByte(' ')
	}

	// Write key in gray
	buf.WriteString(colorGray)
	buf.WriteString(a.Key)
	buf.WriteString(colorReset)
	buf.WriteByte('=')

	// Write value in color based on type
	if !writeKeyed(buf, a.Key, a.Value) {
		h.writeValue(buf, a.Value)
	}
}

func (h *prettyTextHandler) writeValue(buf *bytes.Buffer, v slog.Value) {
	switch v.Kind() {
	case slog.KindString:
		// String values in cyan, no quotes
		buf.WriteString(colorCyan)
		buf.WriteString(v.String())
		buf.WriteString(colorReset)

	case slog.KindInt64:
		// Numbers in yellow
		buf.WriteString(colorYellow)
		buf.WriteString(strconv.FormatInt(v.Int64(), 10))
		buf.WriteString(colorReset)

	case slog.KindUint64:
		buf.WriteString(colorYellow)
		buf.WriteString(strconv.FormatUint(v.Uint64(), 10))
		buf.WriteString(colorReset)

	case slog.KindFloat64:
		buf.WriteString(colorYellow)
		buf.WriteString(strconv.FormatFloat(v.Float64(), 'g', -1, 64))
		buf.WriteString(colorReset)

	case slog.KindBool:
		// Booleans in green/red
		if v.Bool() {
			buf.WriteString(colorGreen)
			buf.WriteString("true")
		} else {
			buf.WriteString(colorRed)
			buf.WriteString("false")
		}

		buf.WriteString(colorReset)

	case slog.KindDuration:
		buf.WriteString(colorMagenta)
		buf.WriteString(v.Duration().String())
		buf.WriteString(colorReset)

	case slog.KindTime:
		buf.WriteString(colorBlue)
		buf.WriteString(v.Time().String())
		buf.WriteString(colorReset)

	case slog.KindAny:
		// Handle slog.Level specially
		if level, ok := v.Any().(slog.Level); ok {
			// Color code based on level
			switch {
			case level >= slog.LevelError:
				buf.WriteString(colorRed)
			case level >= slog.LevelWarn:
				buf.WriteString(colorYellow)
			case level >= slog.LevelInfo:
				buf.WriteString(colorGreen)
			default:
				buf.WriteString(colorBlue)
			}

			buf.WriteString(Level(level).String())
			buf.WriteString(colorReset)
		} else {
			// Fallback for other Any types
			buf.WriteString(colorCyan)
			buf.WriteString(v.String())
			buf.WriteString(colorReset)
		}

	default:
		// Fallback for other types
		buf.WriteString(colorCyan)
		buf.WriteString(v.String())
		buf.WriteString(colorReset)
	}
}

// prettyJSONHandler implements a pretty-printed JSON handler for log messages.
type prettyJSONHandler struct {
	opts  slog.HandlerOptions
	mu    *sync.Mutex
	w     io.Writer
	attrs []slog.Attr
}

func newPrettyJSONHandler(
	w io.Writer,
	opts *slog.HandlerOptions,
) *prettyJSONHandler {
	return &prettyJSONHandler{
		opts: *opts,
		mu:   &sync.Mutex{},
		w:    w,
	}
}

func (h *prettyJSONHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.opts.Level.Level()
}

func (h *prettyJSONHandler) Handle(_ context.Context, r slog.Record) error {
	buf := new(bytes.Buffer)

	buf.WriteString("{\n")

	// Add standard fields
	first := true
	if a := timeAttr(h.opts, r.Time); a.Key != "" {
		h.writeJSONAttr(buf, a, &first)
	}

	h.writeJSONField(buf, slog.LevelKey, Level(r.Level).String(), &first)

	// Write source if configured
	if h.opts.AddSource {
		if src := r.Source(); src != nil {
			// Format as file:line
			sourceStr := fmt.Sprintf("%s:%d", src.File, src.Line)
			h.writeJSONField(buf, slog.SourceKey, sourceStr, &first)
		}
	}

	h.writeJSONField(buf, slog.MessageKey, r.Message, &first)

	for _, a := range h.attrs {
		h.writeJSONAttr(buf, a, &first)
	}

	// Add custom attributes
	r.Attrs(func(a slog.Attr) bool {
		h.writeJSONAttr(buf, a, &first)

		return true
	})

	buf.WriteString("\n}")

	h.mu.Lock()
	defer h.mu.Unlock()

	_, err := h.w.Write(buf.Bytes())
	if err != nil {
		return err
	}

	_, err = h.w.Write([]byte("\n"))

	return err
}

func (h *prettyJSONHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &prettyJSONHandler{
		opts:  h.opts,
		mu:    h.mu,
		w:     h.w,
		attrs: append(h.attrs[:len(h.attrs):len(h.attrs)], attrs...),
	}
}

func (h *prettyJSONHandler) WithGroup(string) slog.Handler {
	return &prettyJSONHandler{
		opts:  h.opts,
		mu:    h.mu,
		w:     h.w,
		attrs: h.attrs,
	}
}

func (h *prettyJSONHandler) writeJSONField(
	buf *bytes.Buffer,
	key string,
	value any,
	first *bool,
) {
	if !*first {
		buf.WriteString(",\n")
	}

	*first = false

	buf.WriteString("  ")
	// Key in gray
	buf.WriteString(colorGray)
	buf.WriteString(key)
	buf.WriteString(colorReset)
	buf.WriteString(": ")

	// Write value based on type
	h.writeJSONValue(buf, value)
}

func (h *prettyJSONHandler) writeJSONAttr(
	buf *bytes.Buffer,
	a slog.Attr,
	first *bool,
) {
	if a.Equal(slog.Attr{}) {
		return
	}

	if !*first {
		buf.WriteString(",\n")
	}

	*first = false

	buf.WriteString("  ")
	// Key in gray
	buf.WriteString(colorGray)
	buf.WriteString(a.Key)
	buf.WriteString(colorReset)
	buf.WriteString(": ")

	// Write value
	if !writeKeyed(buf, a.Key, a.Value) {
		h.writeJSONValue(buf, a.Value.Any())
	}
}

func (h *prettyJSONHandler) writeJSONValue(buf *bytes.Buffer, v any) {
	switch val := v.(type) {
	case string:
		// String without quotes, cyan color
		buf.WriteString(colorCyan)
		buf.WriteString(val)
		buf.WriteString(colorReset)

	case int, int8, int16, int32, int64:
		// Numbers in yellow
		buf.WriteString(colorYellow)
		fmt.Fprint(buf, val)
		buf.WriteString(colorReset)

	case uint, uint8, uint16, uint32, uint64:
		buf.WriteString(colorYellow)
		fmt.Fprint(buf, val)
		buf.WriteString(colorReset)

	case float32, float64:
		buf.WriteString(colorYellow)
		fmt.Fprint(buf, val)
		buf.WriteString(colorReset)

	case bool:
		if val {
			buf.WriteString(colorGreen)
			buf.WriteString("true")
		} else {
			buf.WriteString(colorRed)
			buf.WriteString("false")
		}

		buf.WriteString(colorReset)

	case nil:
		buf.WriteString(colorGray)
		buf.WriteString("null")
		buf.WriteString(colorReset)

	default:
		// For complex types, convert to string without quotes
		buf.WriteString(colorCyan)
		fmt.Fprint(buf, val)
		buf.WriteString(colorReset)
	}
}
