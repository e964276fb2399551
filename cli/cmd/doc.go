// Package cmd implements the l20n subcommands: query, check, fmt, repl, and
// init.
//
// Commands that build resources share the import search path stored in the
// command context by [WithInclude], and read stdin when given the source "-".
package cmd

var (
	// CacheIdentifier is the kong variable identifier containing the path to
	// the runtime cache directory.
	CacheIdentifier = "cache"

	// ConfigIdentifier is the kong variable identifier containing the path to
	// the configuration file.
	ConfigIdentifier = "config"
)
