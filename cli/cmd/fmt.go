package cmd

import (
	"context"
	"io"
	"log/slog"

	"github.com/ardnew/l20n/lang"
)

// Fmt parses a resource and formats it in the chosen format.
type Fmt struct {
	Native Native `cmd:"" default:"withargs" help:"Format as native l20n syntax (default)."`
	JSON   JSON   `cmd:""                    help:"Format as JSON."`
	YAML   YAML   `cmd:""                    help:"Format as YAML."`
}

// formatInput holds the flags common to every output format.
type formatInput struct {
	Indent int `default:"2" help:"Indent width for formatted output" short:"i"`

	Source string `arg:"" default:"-" help:"Source input file or '-' for default stdin." name:"source"`

	out io.Writer `kong:"-"`
}

// format parses the source and writes it with fn.
func (f *formatInput) format(
	ctx context.Context,
	name string,
	fn func(*lang.Resource, context.Context, io.Writer, int) error,
) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) { cancel(*err) }(&err)

	res, err := parse(ctx, f.Source)
	if err != nil {
		return lang.WrapError(err).
			With(slog.String("format", name))
	}

	return fn(res, ctx, output(f.out), f.Indent)
}

// Native formats input as native l20n syntax.
type Native struct {
	Input formatInput `embed:""`
}

// Run executes the native command.
func (f *Native) Run(ctx context.Context) error {
	return f.Input.format(ctx, "native", (*lang.Resource).Format)
}

// JSON formats the syntax tree of the input as JSON.
type JSON struct {
	Input formatInput `embed:""`
}

// Run executes the json command.
func (j *JSON) Run(ctx context.Context) error {
	return j.Input.format(ctx, "json", (*lang.Resource).FormatJSON)
}

// YAML formats the syntax tree of the input as YAML.
type YAML struct {
	Input formatInput `embed:""`
}

// Run executes the yaml command.
func (y *YAML) Run(ctx context.Context) error {
	return y.Input.format(ctx, "yaml", (*lang.Resource).FormatYAML)
}
