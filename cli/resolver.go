package cli

import (
	"context"
	"io"
	"log/slog"
	"strings"

	"github.com/alecthomas/kong"

	"github.com/ardnew/l20n/lang"
	"github.com/ardnew/l20n/log"
)

// resolve returns a [kong.ConfigurationLoader] for configuration files
// written in the l20n language.
//
// It can be used with [kong.Configuration] like this:
//
//	kong.Configuration(resolve(ctx), "/path/to/config")
//
// The file is built as a standalone program (imports are not allowed) and
// every public entity is evaluated once, with the default globals and no
// variables:
//   - Each entity supplies the value of the flag with the same name
//   - Flag names with hyphens (e.g., "log-level") should use underscores
//     in the config file (e.g., "log_level")
//   - Entities that fail to evaluate are skipped
//   - Macros, attributes, and local entities are ignored
//
// Example config file:
//
//	<log_level "debug">
//	<log_format "text">
//	<log_pretty "{{ @os == 'win' ? 'false' : 'true' }}">
//	<include "/usr/share/l20n">
//
// This configuration will be applied to Kong flags:
//
//	--log-level=debug
//	--log-format=text
//	--log-pretty=true
//	--include=/usr/share/l20n
//
// Command-line flags override config file values. A file that does not
// build is reported and otherwise ignored.
func resolve(ctx context.Context) kong.ConfigurationLoader {
	return func(r io.Reader) (kong.Resolver, error) {
		res, err := lang.ParseReader(ctx, r, lang.WithLogger(log.Default()))
		if err != nil {
			log.WarnContext(ctx, "ignoring configuration", log.Err(err))

			return config{}, nil
		}

		m := lang.Compile(res)
		if len(m.Imports) > 0 {
			log.WarnContext(ctx, "ignoring configuration imports",
				slog.Any("imports", m.Imports))

			m.Imports = nil
		}

		prog, err := lang.Link(m)
		if err != nil {
			log.WarnContext(ctx, "ignoring configuration", log.Err(err))

			return config{}, nil
		}

		return makeConfig(ctx, lang.NewContext(prog)), nil
	}
}

// config implements [kong.Resolver] for l20n configuration files.
type config map[string]string

// makeConfig evaluates every public entity of c.
func makeConfig(ctx context.Context, c *lang.Context) config {
	conf := config{}

	for _, name := range c.Program().Entities() {
		value, err := c.Lookup(name, nil)
		if err != nil {
			log.DebugContext(ctx, "skipping configuration entity",
				log.Entity(name),
				log.Err(err),
			)

			continue
		}

		conf[name] = value
	}

	return conf
}

// Validate implements [kong.Resolver].
func (r config) Validate(*kong.Application) error {
	// No validation needed; unknown entities are ignored.
	return nil
}

// Resolve implements [kong.Resolver].
func (r config) Resolve(
	_ *kong.Context,
	_ *kong.Path,
	flag *kong.Flag,
) (any, error) {
	// Kong flags use hyphens (e.g., "log-level") but l20n identifiers
	// cannot. Try both forms.
	for _, name := range []string{
		flag.Name,
		strings.ReplaceAll(flag.Name, "-", "_"),
	} {
		if value, ok := r[name]; ok {
			return value, nil
		}
	}

	// Not found - return nil to let Kong use defaults
	return nil, nil
}
