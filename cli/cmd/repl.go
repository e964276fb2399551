package cmd

import (
	"context"
	"os"

	"github.com/ardnew/l20n/cli/cmd/repl"
	"github.com/ardnew/l20n/lang"
	"github.com/ardnew/l20n/log"
	"github.com/ardnew/l20n/pkg"
)

// Repl queries a resource interactively.
type Repl struct {
	Source string   `default:"-" help:"Source input file or '-' for stdin" short:"f"`
	Var    []string `help:"Set variable NAME to the value of expression EXPR" placeholder:"NAME=EXPR" sep:"none" short:"v"`
}

// Run executes the repl command.
func (r *Repl) Run(ctx context.Context) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) { cancel(*err) }(&err)

	vars := map[string]any{}

	for _, assign := range r.Var {
		name, value, err := parseVar(assign)
		if err != nil {
			return err
		}

		vars[name] = value
	}

	path := r.Source

	var source string

	if path == stdinSource {
		path = ""

		if source, err = readSource(os.Stdin); err != nil {
			return err
		}
	} else {
		b, err := os.ReadFile(path)
		if err != nil {
			return pkg.ErrReadInput.Wrap(err)
		}

		source = string(b)
	}

	session, err := repl.NewSession(ctx, path, source, log.Default(),
		buildOptions(ctx, lang.WithVars(vars))...)
	if err != nil {
		return err
	}

	cacheDir := kongContextFrom(ctx).Model.Vars()[CacheIdentifier]

	return repl.Run(ctx, session, cacheDir, log.Default())
}
