// Package log is the structured logger shared by the l20n packages and the
// l20n command, built on [log/slog].
//
// A [Logger] is an immutable value configured with functional options when it
// is created:
//
//	logger := log.Make(os.Stderr,
//		log.WithLevel(log.LevelDebug),
//		log.WithFormat(log.FormatJSON),
//		log.WithTimeLayout("RFC3339Nano"))
//
//	logger.Info("module linked", log.Module("app.l20n"))
//	logger.Error("query failed", log.Query("title"), log.Err(err))
//
// [Logger.Wrap] derives a logger with a modified configuration and
// [Logger.With] one that adds attributes to every message. The zero Logger
// discards everything, so it is a valid default for optional loggers.
//
// # Attributes
//
// [Entity], [Module], [Query], and [Err] build the attributes that the l20n
// packages attach to messages, under the keys [KeyEntity], [KeyModule],
// [KeyQuery], and [KeyError].
//
// # Levels
//
// Five levels are defined. [LevelTrace] reports every entity evaluation and
// cache lookup, [LevelDebug] module loading and resolution, and
// [LevelInfo], [LevelWarn], and [LevelError] the outcomes of commands.
// [ParseLevel] and [ParseFormat] accept the names yielded by [Levels] and
// [Formats].
//
// # Output
//
// [FormatText] (the default) and [FormatJSON] are written by the [log/slog]
// handlers, or by colorized handlers when [WithPretty] is enabled.
// [WithTimeLayout] accepts the named layouts of package [time] as well as
// custom layouts; the layout "none" omits timestamps.
//
// # Package-Level Logging
//
// The functions [Trace], [Info], [ErrorContext], and so on write to the logger
// returned by [Default], which [Config] reconfigures. Functions and methods
// without a context argument use [DefaultContextProvider].
package log
