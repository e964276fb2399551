package repl

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/ardnew/l20n/lang"
	"github.com/ardnew/l20n/log"
)

const defaultEditor = "vi"

// editCommand implements [tea.ExecCommand] for the edit-build-retry loop.
// It writes the session source to a temp file, opens the user's editor, and
// rebuilds the session from the result. On a build error the user is
// prompted to re-edit; declining exits the program.
type editCommand struct {
	session *Session
	ctxFunc func() context.Context
	logger  log.Logger
	loaded  bool
	stdin   io.Reader
	stdout  io.Writer
	stderr  io.Writer
}

// SetStdin sets the stdin reader for the command.
func (c *editCommand) SetStdin(r io.Reader) { c.stdin = r }

// SetStdout sets the stdout writer for the command.
func (c *editCommand) SetStdout(w io.Writer) { c.stdout = w }

// SetStderr sets the stderr writer for the command.
func (c *editCommand) SetStderr(w io.Writer) { c.stderr = w }

// Run executes the edit-build-retry loop. If the user declines to re-edit,
// it returns [ErrEditDeclined].
func (c *editCommand) Run() error {
	ctx := c.ctxFunc()
	content := c.session.Source()

	pattern := "l20n-repl-*.l20n"
	if path := c.session.Path(); path != "" {
		pattern = "l20n-repl-*-" + filepath.Base(path)
	}

	f, err := os.CreateTemp(os.TempDir(), pattern)
	if err != nil {
		return err
	}

	tmpPath := f.Name()

	defer os.Remove(tmpPath)

	if err := f.Chmod(0o600); err != nil {
		f.Close()

		return err
	}

	f.Close()

	for {
		if err := os.WriteFile(tmpPath, []byte(content), 0o600); err != nil {
			return err
		}

		data, err := runEditor(ctx, c.stdin, c.stdout, c.stderr, tmpPath)
		if err != nil {
			return err
		}

		// User cleared the content.
		if strings.TrimSpace(data) == "" {
			return nil
		}

		buildErr := c.session.Load(ctx, data)
		c.logger.TraceContext(ctx, "editor build attempt",
			slog.Int("content_length", len(data)),
			slog.Bool("success", buildErr == nil),
		)

		if buildErr == nil {
			c.loaded = true

			return nil
		}

		fmt.Fprintf(c.stderr, "\nBuild error: %s\n", buildErr)

		if pe := (*lang.ParseError)(nil); errors.As(buildErr, &pe) {
			fmt.Fprint(c.stderr, pe.Snippet())
		}

		fmt.Fprintf(c.stdout, "Re-edit? [Y/n] ")

		scanner := bufio.NewScanner(c.stdin)
		if !scanner.Scan() {
			return ErrEditDeclined
		}

		response := strings.TrimSpace(strings.ToLower(scanner.Text()))
		if response == "n" || response == "no" {
			return ErrEditDeclined
		}

		content = data
	}
}

// runEditor launches the user's editor on the given file path and returns
// the edited file content.
func runEditor(
	ctx context.Context,
	stdin io.Reader,
	stdout io.Writer,
	stderr io.Writer,
	path string,
) (string, error) {
	// EDITOR may carry arguments, e.g., "code --wait".
	args := strings.Fields(os.Getenv("EDITOR"))
	if len(args) == 0 {
		args = []string{defaultEditor}
	}

	cmd := exec.CommandContext(ctx, args[0], append(args[1:], path)...)
	cmd.Stdin = stdin
	cmd.Stdout = stdout
	cmd.Stderr = stderr

	if err := cmd.Run(); err != nil {
		return "", err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}

	return string(data), nil
}
