package log

//go:generate go tool stringer --linecomment --type Level,Format --output config_string.go

import (
	"io"
	"iter"
	"log/slog"
	"slices"
	"strings"
	"time"
)

// Level represents the severity of a log message.
type Level slog.Level

const (
	LevelTrace Level = Level(slog.LevelDebug - 4) // trace
	LevelDebug Level = Level(slog.LevelDebug)     // debug
	LevelInfo  Level = Level(slog.LevelInfo)      // info
	LevelWarn  Level = Level(slog.LevelWarn)      // warn
	LevelError Level = Level(slog.LevelError)     // error
)

// DefaultLevel reports warnings from loading and querying resources and
// hides per-entity evaluation traffic.
const DefaultLevel = LevelInfo

var levels = []Level{LevelTrace, LevelDebug, LevelInfo, LevelWarn, LevelError}

// Levels returns the names of all log levels from least to most severe.
func Levels() iter.Seq[string] {
	return func(yield func(string) bool) {
		for _, level := range levels {
			if !yield(level.String()) {
				return
			}
		}
	}
}

// ParseLevel returns the level named by s, ignoring case. Besides the names
// yielded by [Levels], any form accepted by [slog.Level.UnmarshalText] is
// recognized, such as "debug+2". Unrecognized names select [DefaultLevel].
func ParseLevel(s string) Level {
	s = strings.TrimSpace(s)

	if i := slices.IndexFunc(levels, func(l Level) bool {
		return strings.EqualFold(l.String(), s)
	}); i >= 0 {
		return levels[i]
	}

	var l slog.Level
	if err := l.UnmarshalText([]byte(s)); err != nil {
		return DefaultLevel
	}

	return Level(l)
}

// Format represents the output format for log messages.
type Format int

const (
	FormatText Format = iota // text
	FormatJSON               // json
)

// DefaultFormat is text, since diagnostics from the l20n command are read by
// translators at a terminal more often than by machines.
const DefaultFormat = FormatText

// Formats returns the names of all log formats.
func Formats() iter.Seq[string] {
	return func(yield func(string) bool) {
		for _, format := range []Format{FormatText, FormatJSON} {
			if !yield(format.String()) {
				return
			}
		}
	}
}

// ParseFormat returns the format named by s, ignoring case.
// Unrecognized names select [DefaultFormat].
func ParseFormat(s string) Format {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case FormatJSON.String():
		return FormatJSON
	case FormatText.String():
		return FormatText
	default:
		return DefaultFormat
	}
}

// FormatTime renders a timestamp. An empty result omits the time field.
type FormatTime func(time.Time) string

// DefaultTimeLayout is the layout of log timestamps.
const DefaultTimeLayout = time.RFC3339

// DefaultCaller disables source locations in log output.
const DefaultCaller = false

// DefaultPretty enables colorized output.
const DefaultPretty = true

// config is an immutable description of a [Logger]. Options modify a private
// copy, so a config can be shared between loggers without locking.
type config struct {
	output     io.Writer
	formatTime FormatTime
	level      Level
	format     Format
	caller     bool
	pretty     bool
}

// makeConfig returns the default configuration writing to w, modified by
// opts.
func makeConfig(w io.Writer, opts ...Option) config {
	return config{}.with(append([]Option{WithDefaults(w)}, opts...)...)
}

// with returns a copy of c modified by opts.
func (c config) with(opts ...Option) config {
	for _, opt := range opts {
		opt(&c)
	}

	return c
}

// replaceAttr renders timestamps with the configured layout and levels by
// name, so that trace messages read "TRACE" instead of "DEBUG-4".
func (c config) replaceAttr(_ []string, a slog.Attr) slog.Attr {
	switch a.Key {
	case slog.TimeKey:
		if t, ok := a.Value.Any().(time.Time); ok {
			formatted := c.formatTime(t)
			if formatted == "" {
				return slog.Attr{}
			}

			a.Value = slog.StringValue(formatted)
		}

	case slog.LevelKey:
		if level, ok := a.Value.Any().(slog.Level); ok {
			a.Value = slog.StringValue(strings.ToUpper(Level(level).String()))
		}
	}

	return a
}

// handler returns the [slog.Handler] described by c.
func (c config) handler() slog.Handler {
	opts := &slog.HandlerOptions{
		AddSource:   c.caller,
		Level:       slog.Level(c.level),
		ReplaceAttr: c.replaceAttr,
	}

	switch {
	case c.format == FormatJSON && c.pretty:
		return newPrettyJSONHandler(c.output, opts)
	case c.format == FormatJSON:
		return slog.NewJSONHandler(c.output, opts)
	case c.format == FormatText && c.pretty:
		return newPrettyTextHandler(c.output, opts)
	case c.format == FormatText:
		return slog.NewTextHandler(c.output, opts)
	default:
		return slog.DiscardHandler
	}
}

// WithDefaults resets every setting to its default and directs output to w.
// A nil w discards all output.
func WithDefaults(w io.Writer) Option {
	return func(c *config) {
		*c = config{
			formatTime: makeFormatTimeFunc(DefaultTimeLayout),
			level:      DefaultLevel,
			format:     DefaultFormat,
			caller:     DefaultCaller,
			pretty:     DefaultPretty,
		}

		WithOutput(w)(c)
	}
}

// WithOutput directs output to w. A nil w discards all output.
func WithOutput(w io.Writer) Option {
	return func(c *config) {
		if w == nil {
			w = io.Discard
		}

		c.output = w
	}
}

// WithLevel discards messages less severe than level.
func WithLevel(level Level) Option {
	return func(c *config) { c.level = level }
}

// WithFormat selects the output format.
func WithFormat(format Format) Option {
	return func(c *config) { c.format = format }
}

// WithTimeLayout sets the layout of timestamps.
//
// The layout is either one of the names in [time] ("RFC3339", "Kitchen",
// "StampMilli", ...), a short alias such as "ms" or "none", or a layout passed
// verbatim to [time.Time.Format]. Names are matched ignoring case and
// punctuation. An empty layout omits timestamps.
func WithTimeLayout(layout string) Option {
	format := makeFormatTimeFunc(layout)

	return func(c *config) { c.formatTime = format }
}

// WithCaller includes the source location of each message when enable is
// true.
func WithCaller(enable bool) Option {
	return func(c *config) { c.caller = enable }
}

// WithPretty selects colorized output when enable is true. Text output
// drops quoting and colors keys and values; JSON output is indented.
func WithPretty(enable bool) Option {
	return func(c *config) { c.pretty = enable }
}

// timeLayout maps normalized layout names to layouts.
var timeLayout = map[string]string{
	"none": "",

	"rfc3339":     time.RFC3339,
	"rfc3339nano": time.RFC3339Nano,
	"ansic":       time.ANSIC,
	"unixdate":    time.UnixDate,
	"rubydate":    time.RubyDate,
	"rfc822":      time.RFC822,
	"rfc822z":     time.RFC822Z,
	"rfc850":      time.RFC850,
	"kitchen":     time.Kitchen,
	"datetime":    time.DateTime,
	"timeonly":    time.TimeOnly,

	"stamp":      time.Stamp,
	"stampmilli": time.StampMilli,
	"stampmicro": time.StampMicro,
	"stampnano":  time.StampNano,

	"ms": time.StampMilli,
	"us": time.StampMicro,
	"ns": time.StampNano,
}

// normalizeLayout lowercases name and drops everything but letters and
// digits, so that "RFC-3339" and "rfc3339" select the same layout.
func normalizeLayout(name string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case 'a' <= r && r <= 'z', '0' <= r && r <= '9':
			return r
		default:
			return -1
		}
	}, strings.ToLower(name))
}

func makeFormatTimeFunc(layout string) FormatTime {
	key := normalizeLayout(layout)
	if key == "" {
		return func(time.Time) string { return "" }
	}

	if std, ok := timeLayout[key]; ok {
		layout = std
	}

	if layout == "" {
		return func(time.Time) string { return "" }
	}

	return func(t time.Time) string { return t.Format(layout) }
}
