package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"slices"
	"strconv"
	"strings"

	"github.com/alecthomas/kong"

	"github.com/ardnew/l20n/lang"
	"github.com/ardnew/l20n/log"
	"github.com/ardnew/l20n/profile"
)

// Init generates a default configuration file with current flag values.
type Init struct {
	Force bool `help:"Overwrite existing configuration file" short:"f"`
}

// Run executes the init command.
func (i *Init) Run(ctx context.Context) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) { cancel(*err) }(&err)

	ktx := kongContextFrom(ctx)

	confPath, ok := ktx.Model.Vars()[ConfigIdentifier]
	if !ok {
		panic("internal error: config path undefined")
	}

	// Check if file exists and force not set
	_, err = os.Stat(confPath)
	if err == nil && !i.Force {
		return ErrWriteConfig.
			With(slog.String("file", confPath)).
			With(slog.Bool("exists", true)).
			Wrap(ErrFileExists)
	}

	file, err := os.Create(confPath)
	if err != nil {
		return ErrWriteConfig.
			With(slog.String("file", confPath)).
			Wrap(err)
	}
	defer file.Close()

	res := i.buildResource(ktx)

	err = res.Format(ctx, file, 0)
	if err != nil {
		return ErrWriteConfig.
			With(slog.String("file", confPath)).
			Wrap(err)
	}

	log.DebugContext(ctx, "initialized configuration file",
		slog.String("path", confPath),
		slog.Int("entities", len(res.Entries)),
	)

	return nil
}

// buildResource constructs the configuration resource from current flag
// values: one entity per flag, named like the flag with hyphens replaced by
// underscores.
func (i *Init) buildResource(ktx *kong.Context) *lang.Resource {
	res := new(lang.Resource)

	prefixIgnore := []string{"help", "version", profile.Tag}

	for _, flag := range ktx.Model.Flags {
		if flag.Hidden || slices.ContainsFunc(prefixIgnore, func(s string) bool {
			return strings.HasPrefix(flag.Name, s)
		}) {
			continue
		}

		val, ok := flagValue(ktx.FlagValue(flag))
		if !ok {
			continue
		}

		res.Entries = append(res.Entries, &lang.Entity{
			ID:    &lang.Identifier{Name: strings.ReplaceAll(flag.Name, "-", "_")},
			Value: &lang.String{Content: val},
		})
	}

	return res
}

// flagValue returns the configuration text of a flag value, or false if the
// flag is unset. Lists are joined with commas, the separator kong splits
// them on.
func flagValue(val any) (string, bool) {
	switch v := val.(type) {
	case nil:
		return "", false

	case bool:
		return strconv.FormatBool(v), true

	case string:
		return v, v != ""

	case fmt.Stringer:
		return v.String(), true

	case []string:
		return strings.Join(v, ","), len(v) > 0

	default:
		if s := fmt.Sprint(v); s != "" {
			return s, true
		}

		return "", false
	}
}
