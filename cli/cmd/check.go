package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"strings"

	"github.com/ardnew/l20n/lang"
	"github.com/ardnew/l20n/log"
	"github.com/ardnew/l20n/pkg"
)

// Check builds resources and reports parse, import, and link errors.
type Check struct {
	Sources []string `arg:"" default:"-" help:"Source input files or '-' for stdin" name:"source"`

	List bool `help:"List the entities and macros of each resource" short:"l"`

	out io.Writer `kong:"-"`
}

// Run executes the check command.
func (c *Check) Run(ctx context.Context) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) { cancel(*err) }(&err)

	// Imports shared by several sources are compiled once.
	cache := lang.NewCache()
	w := output(c.out)

	var failed pkg.Error

	for _, src := range uniqueSources(ctx, c.Sources) {
		prog, err := build(ctx, src, lang.WithCache(cache))
		if err != nil {
			report(ctx, w, src, err)
			failed = failed.Wrapf("%s", src)

			continue
		}

		log.DebugContext(ctx, "resource ok",
			slog.String("path", src),
			slog.Int("entities", len(prog.Entities())),
			slog.Int("macros", len(prog.Macros())),
		)

		if c.List {
			if err := list(w, src, prog); err != nil {
				return err
			}
		}
	}

	if len(failed) > 0 {
		return ErrCheckFailed.
			With(slog.Int("failed", len(failed))).
			Wrap(failed)
	}

	return nil
}

// report writes a diagnostic for a source that failed to build. Parse errors
// include the offending source line.
func report(ctx context.Context, w io.Writer, src string, err error) {
	log.ErrorContext(ctx, "resource failed", slog.String("path", src), log.Err(err))

	fmt.Fprintf(w, "%s: %v\n", src, err)

	if pe := (*lang.ParseError)(nil); errors.As(err, &pe) {
		fmt.Fprint(w, pe.Snippet())
	}
}

// list writes the public entities of prog with their public attributes, and
// its macros with their parameters.
func list(w io.Writer, src string, prog *lang.Program) error {
	env := prog.NewEnv(lang.WithLogger(log.Default()))

	var sb strings.Builder

	sb.WriteString(src + ":\n")

	for _, name := range prog.Entities() {
		sb.WriteString("  " + name)

		if entity, err := env.Entity(name); err == nil {
			attrs := slices.DeleteFunc(entity.Attributes(), func(attr string) bool {
				return strings.HasPrefix(attr, "_")
			})
			if len(attrs) > 0 {
				sb.WriteString(" [" + strings.Join(attrs, ", ") + "]")
			}
		}

		sb.WriteByte('\n')
	}

	for _, name := range prog.Macros() {
		sb.WriteString("  " + name + "(")

		if macro, err := env.Macro(name); err == nil {
			params := macro.Params()
			for i := range params {
				params[i] = "$" + params[i]
			}

			sb.WriteString(strings.Join(params, ", "))
		}

		sb.WriteString(")\n")
	}

	_, err := io.WriteString(w, sb.String())

	return err
}
