package cli

import (
	"context"
	"log/slog"
	"strconv"
	"strings"

	"github.com/alecthomas/kong"

	"github.com/ardnew/l20n/cli/cmd"
	"github.com/ardnew/l20n/lang"
	"github.com/ardnew/l20n/log"
	"github.com/ardnew/l20n/pkg"
)

// CLI is the top-level command-line interface for l20n.
type CLI struct {
	Log   logConfig   `embed:"" group:"log"   prefix:"log-"`
	Pprof pprofConfig `embed:"" group:"pprof" prefix:"pprof-"`

	Version kong.VersionFlag `help:"Print version and exit"`

	Include []string `help:"Import search directories, searched before ${includeVar}" name:"include" placeholder:"DIR" short:"I" type:"path"`

	Init  cmd.Init  `cmd:"" help:"Initialize configuration file"`
	Fmt   cmd.Fmt   `cmd:"" help:"Format resources"`
	Check cmd.Check `cmd:"" help:"Build resources and report errors"`
	Repl  cmd.Repl  `cmd:"" help:"Query resources interactively"`

	Query cmd.Query `cmd:"" default:"withargs" help:"Query entities and attributes"`
}

// Run executes the l20n CLI with the given context and arguments.
// The exit function is called with the appropriate exit code upon completion.
func Run(
	ctx context.Context,
	exit func(code int),
	args ...string,
) error {
	var cli CLI

	err := mkdirAllRequired()
	if err != nil {
		return err
	}

	configFilePath := configPath(baseConfig)

	vars := kong.Vars{
		"version":            strings.TrimSpace(pkg.Version),
		"includeVar":         includeVar,
		"maxDepth":           strconv.Itoa(lang.DefaultMaxDepth),
		"maxTailCalls":       strconv.Itoa(lang.DefaultMaxTailCalls),
		cmd.ConfigIdentifier: configFilePath,
		cmd.CacheIdentifier:  pkg.CacheDir(),
	}.
		CloneWith(cli.Log.vars()).
		CloneWith(cli.Pprof.vars())

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Pre-scan for logger flags to ensure early configuration regardless of
	// flag position. TextUnmarshaler on logFormat/logLevel handles those flags
	// during normal parsing, but this early scan also catches boolean flags
	// like --log-pretty.
	cli.Log.scan(args)

	// Parse command line
	parser, err := kong.New(&cli,
		kong.Name(pkg.Name),
		kong.Description(pkg.Description),
		kong.UsageOnError(),
		kong.Exit(exit),
		kong.ExplicitGroups(
			[]kong.Group{cli.Log.group(), cli.Pprof.group()},
		),
		kong.ConfigureHelp(
			kong.HelpOptions{
				Compact:             true,
				Summary:             true,
				Tree:                true,
				FlagsLast:           false,
				NoAppSummary:        false,
				NoExpandSubcommands: true,
			}),
		kong.Configuration(kong.JSON, configFilePath+".json"),
		kong.Configuration(resolve(ctx), configFilePath),
		vars,
	)
	if err != nil {
		return err
	}

	ktx, err := parser.Parse(args)
	if err != nil {
		return err
	}

	// Finalize logger configuration with all parsed values including
	// TimeLayout and Caller which don't use TextUnmarshaler.
	cli.Log.start(ctx)

	include := includePath(cli.Include...)

	log.DebugContext(ctx, "include path",
		slog.Any("dirs", include),
		slog.String("env", includeVar),
	)

	// Stuff additional context values for use by commands
	ctx = cmd.WithContext(ctx, ktx)
	ctx = cmd.WithInclude(ctx, include)

	// [pprofConfig.start] is no-op unless built with tag pprof and enabled.
	defer cli.Pprof.start(ctx)()

	// Execute the selected command
	ktx.BindTo(ctx, (*context.Context)(nil))

	return ktx.Run(&cli)
}
