// Package cli contains the command line interface for l20n.
//
// # Usage
//
//	l20n [flags] query -f app.l20n unreadMessages --var n=3
//	l20n [flags] check app.l20n other.l20n
//	l20n [flags] fmt native app.l20n
//	l20n [flags] repl -f app.l20n
//	l20n [flags] init
//
// Query is the default command, so the word "query" may be omitted.
//
// # Import Search Path
//
// Imports resolve against the directory of the importing file, then against
// each directory given with --include (-I), then against each directory listed
// in the L20N_PATH environment variable. The variable name follows the
// executable name, so a binary named l20n-dev reads L20N_DEV_PATH.
//
// # Configuration
//
// Default flag values are read from a configuration file in the user's
// configuration directory, e.g., ~/.config/l20n/config. The file is itself
// written in l20n: each public entity supplies the value of the flag with
// the same name, with hyphens written as underscores.
//
//	<log_level "debug">
//	<log_format "{{ @os == 'win' ? 'json' : 'text' }}">
//
// A JSON file with the same base name and a ".json" extension is also read.
// Command-line flags override configuration values. The init command writes
// a configuration file containing the current flag values.
//
// # Logging Options
//
//   - --log-level: Set minimum log level (trace, debug, info, warn, error)
//   - --log-format: Set log output format (text, json)
//   - --log-time-layout: Set timestamp format (RFC3339, RFC3339Nano, etc.)
//   - --log-caller: Include caller information in log output
//   - --log-pretty: Colorize log output
//
// # Profiling Options
//
// Profiling is only available when built with the pprof build tag:
//
//	go build -tags pprof -o l20n .
//
// The profiling flags are then:
//
//   - --pprof-mode: Enable profiling (allocs, block, clock, cpu, goroutine,
//     heap, mem, mutex, thread, trace)
//   - --pprof-dir: Set profile output directory (default:
//     ~/.cache/l20n/pprof)
package cli
