package log

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"testing"
)

// decodeJSON returns the records written by a plain JSON logger.
func decodeJSON(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()

	var records []map[string]any

	dec := json.NewDecoder(buf)
	for dec.More() {
		var rec map[string]any
		if err := dec.Decode(&rec); err != nil {
			t.Fatalf("invalid JSON record: %v", err)
		}

		records = append(records, rec)
	}

	return records
}

func TestMake_Defaults(t *testing.T) {
	var buf bytes.Buffer

	logger := Make(&buf)

	if logger.Level() != DefaultLevel || logger.Format() != DefaultFormat {
		t.Errorf("Make() has level %v format %v", logger.Level(), logger.Format())
	}

	logger.Debug("resolve entity", Entity("brandName"))

	if buf.Len() != 0 {
		t.Errorf("debug message written at default level: %q", buf.String())
	}

	logger.Info("module linked", Module("app.l20n"))

	if out := buf.String(); !strings.Contains(out, "module linked") ||
		!strings.Contains(out, "app.l20n") {
		t.Errorf("info message missing from %q", out)
	}
}

func TestLogger_LevelFiltering(t *testing.T) {
	tests := []struct {
		name   string
		log    func(Logger, string, ...slog.Attr)
		min    Level
		logged bool
	}{
		{"trace at trace", Logger.Trace, LevelTrace, true},
		{"trace at debug", Logger.Trace, LevelDebug, false},
		{"debug at debug", Logger.Debug, LevelDebug, true},
		{"debug at info", Logger.Debug, LevelInfo, false},
		{"info at warn", Logger.Info, LevelWarn, false},
		{"warn at warn", Logger.Warn, LevelWarn, true},
		{"warn at error", Logger.Warn, LevelError, false},
		{"error at trace", Logger.Error, LevelTrace, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer

			tt.log(Make(&buf, WithLevel(tt.min)), "evaluate entity", Entity("title"))

			if got := buf.Len() > 0; got != tt.logged {
				t.Errorf("logged = %v, want %v (output %q)", got, tt.logged, buf.String())
			}
		})
	}
}

func TestLogger_ContextMethods(t *testing.T) {
	tests := []struct {
		level Level
		log   func(Logger, string, ...slog.Attr)
	}{
		{LevelTrace, func(l Logger, msg string, attrs ...slog.Attr) { l.TraceContext(t.Context(), msg, attrs...) }},
		{LevelDebug, func(l Logger, msg string, attrs ...slog.Attr) { l.DebugContext(t.Context(), msg, attrs...) }},
		{LevelInfo, func(l Logger, msg string, attrs ...slog.Attr) { l.InfoContext(t.Context(), msg, attrs...) }},
		{LevelWarn, func(l Logger, msg string, attrs ...slog.Attr) { l.WarnContext(t.Context(), msg, attrs...) }},
		{LevelError, func(l Logger, msg string, attrs ...slog.Attr) { l.ErrorContext(t.Context(), msg, attrs...) }},
	}

	for _, tt := range tests {
		t.Run(tt.level.String(), func(t *testing.T) {
			var buf bytes.Buffer

			logger := Make(&buf, WithLevel(LevelTrace), WithFormat(FormatJSON), WithPretty(false))
			tt.log(logger, "query answered", Query("brandName::short"))

			records := decodeJSON(t, &buf)
			if len(records) != 1 {
				t.Fatalf("expected 1 record, got %d", len(records))
			}

			rec := records[0]
			if rec[slog.LevelKey] != strings.ToUpper(tt.level.String()) {
				t.Errorf("level = %v, want %v", rec[slog.LevelKey], tt.level)
			}

			if rec[KeyQuery] != "brandName::short" {
				t.Errorf("query = %v", rec[KeyQuery])
			}
		})
	}
}

func TestLogger_Formats(t *testing.T) {
	tests := []struct {
		name   string
		opts   []Option
		want   []string
		absent []string
	}{
		{
			name: "text",
			opts: []Option{WithFormat(FormatText), WithPretty(false)},
			want: []string{"msg=\"compile module\"", "module=brand.l20n", "level=TRACE"},
		},
		{
			name: "json",
			opts: []Option{WithFormat(FormatJSON), WithPretty(false)},
			want: []string{`"msg":"compile module"`, `"module":"brand.l20n"`, `"level":"TRACE"`},
		},
		{
			name: "pretty text",
			opts: []Option{WithFormat(FormatText), WithPretty(true)},
			want: []string{"compile module", "brand.l20n", "trace"},
		},
		{
			name:   "pretty json",
			opts:   []Option{WithFormat(FormatJSON), WithPretty(true)},
			want:   []string{"{\n", "compile module", "brand.l20n"},
			absent: []string{`"module"`},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer

			opts := append([]Option{WithLevel(LevelTrace)}, tt.opts...)
			Make(&buf, opts...).Trace("compile module", Module("brand.l20n"))

			out := buf.String()
			for _, s := range tt.want {
				if !strings.Contains(out, s) {
					t.Errorf("output %q missing %q", out, s)
				}
			}

			for _, s := range tt.absent {
				if strings.Contains(out, s) {
					t.Errorf("output %q contains %q", out, s)
				}
			}
		})
	}
}

func TestLogger_PrettyKeyColors(t *testing.T) {
	for _, format := range []Format{FormatText, FormatJSON} {
		var buf bytes.Buffer

		Make(&buf, WithFormat(format), WithPretty(true)).Error("query failed",
			Entity("title"),
			Err(errors.New("unknown entity")),
			slog.Int("line", 3))

		out := buf.String()
		for _, want := range []string{
			keyColor[KeyEntity] + "title" + colorReset,
			keyColor[KeyError] + "unknown entity" + colorReset,
			colorYellow + "3" + colorReset,
		} {
			if !strings.Contains(out, want) {
				t.Errorf("%v: output %q missing %q", format, out, want)
			}
		}
	}
}

func TestLogger_TimeLayout(t *testing.T) {
	for _, format := range []Format{FormatText, FormatJSON} {
		for _, pretty := range []bool{false, true} {
			var buf bytes.Buffer

			Make(&buf,
				WithFormat(format),
				WithPretty(pretty),
				WithTimeLayout("none"),
			).Info("build started")

			if strings.Contains(buf.String(), slog.TimeKey) {
				t.Errorf("%v pretty=%v: timestamp written with layout none: %q",
					format, pretty, buf.String())
			}

			buf.Reset()

			Make(&buf,
				WithFormat(format),
				WithPretty(pretty),
				WithTimeLayout("2006@"),
			).Info("build started")

			if !strings.Contains(buf.String(), "@") {
				t.Errorf("%v pretty=%v: custom layout not applied: %q",
					format, pretty, buf.String())
			}
		}
	}
}

func TestLogger_Caller(t *testing.T) {
	var buf bytes.Buffer

	Make(&buf, WithCaller(true), WithFormat(FormatJSON), WithPretty(false)).
		Warn("ignoring configuration")

	records := decodeJSON(t, &buf)
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}

	src, ok := records[0][slog.SourceKey].(map[string]any)
	if !ok {
		t.Fatalf("missing source in %v", records[0])
	}

	// The location is the test, not this package's logging methods.
	if file, _ := src["file"].(string); !strings.HasSuffix(file, "log_test.go") {
		t.Errorf("source file = %v", src["file"])
	}

	buf.Reset()

	Make(&buf, WithCaller(false), WithFormat(FormatJSON), WithPretty(false)).
		Warn("ignoring configuration")

	if strings.Contains(buf.String(), slog.SourceKey) {
		t.Errorf("source written with caller disabled: %q", buf.String())
	}
}

func TestLogger_With(t *testing.T) {
	var buf bytes.Buffer

	base := Make(&buf, WithFormat(FormatJSON), WithPretty(false))
	scoped := base.With(Module("app.l20n"))

	scoped.Info("link failed", Entity("title"), Err(errors.New("unknown entity")))
	base.Info("link failed", Err(nil))

	records := decodeJSON(t, &buf)
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}

	if records[0][KeyModule] != "app.l20n" || records[0][KeyEntity] != "title" ||
		records[0][KeyError] != "unknown entity" {
		t.Errorf("scoped record = %v", records[0])
	}

	if _, ok := records[1][KeyModule]; ok {
		t.Errorf("With modified its receiver: %v", records[1])
	}

	if _, ok := records[1][KeyError]; ok {
		t.Errorf("nil error recorded: %v", records[1])
	}
}

func TestLogger_Wrap(t *testing.T) {
	var buf bytes.Buffer

	base := Make(&buf, WithLevel(LevelWarn), WithFormat(FormatJSON), WithPretty(false))
	verbose := base.Wrap(WithLevel(LevelDebug))

	if base.Level() != LevelWarn || verbose.Level() != LevelDebug {
		t.Fatalf("levels = %v, %v", base.Level(), verbose.Level())
	}

	if verbose.Format() != FormatJSON {
		t.Errorf("Wrap dropped format, got %v", verbose.Format())
	}

	base.Debug("load module")
	verbose.Debug("load module")

	if n := len(decodeJSON(t, &buf)); n != 1 {
		t.Errorf("expected 1 record, got %d", n)
	}
}

func TestLogger_ZeroValue(t *testing.T) {
	var l Logger

	l.Trace("evaluate entity")
	l.Info("module linked")
	l.ErrorContext(t.Context(), "query failed", Err(errors.New("x")))

	if w := l.With(Entity("title")); w.Logger != nil {
		t.Error("With on the zero Logger returned a live logger")
	}

	if l.Level() != DefaultLevel || l.Format() != DefaultFormat {
		t.Errorf("zero Logger has level %v format %v", l.Level(), l.Format())
	}

	// Wrap of the zero Logger discards.
	if w := l.Wrap(WithLevel(LevelTrace)); w.Logger == nil || w.Level() != LevelTrace {
		t.Errorf("Wrap of zero Logger = %+v", w)
	}
}

func TestLogger_Concurrent(t *testing.T) {
	var buf syncBuffer

	logger := Make(&buf, WithFormat(FormatJSON), WithPretty(false))

	var wg sync.WaitGroup
	for i := range 100 {
		wg.Go(func() {
			logger.With(Entity("title")).Info("resolve entity", slog.Int("worker", i))
		})
	}

	wg.Wait()

	if lines := strings.Count(buf.String(), "\n"); lines != 100 {
		t.Errorf("expected 100 lines, got %d", lines)
	}
}

// syncBuffer serializes writes from handlers that do not lock.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.buf.String()
}

func BenchmarkLogger_Info(b *testing.B) {
	benchmarks := []struct {
		name string
		opts []Option
	}{
		{"text", []Option{WithPretty(false)}},
		{"json", []Option{WithFormat(FormatJSON), WithPretty(false)}},
		{"pretty", nil},
		{"caller", []Option{WithCaller(true), WithPretty(false)}},
	}

	for _, bm := range benchmarks {
		b.Run(bm.name, func(b *testing.B) {
			var buf bytes.Buffer

			logger := Make(&buf, bm.opts...).With(Module("app.l20n"))

			for b.Loop() {
				buf.Reset()
				logger.Info("resolve entity", Entity("brandName"))
			}
		})
	}
}
