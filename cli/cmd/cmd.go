package cmd

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"syscall"

	"github.com/alecthomas/kong"

	"github.com/ardnew/l20n/lang"
	"github.com/ardnew/l20n/log"
	"github.com/ardnew/l20n/pkg"
)

// ContextKey is used to store a [kong.Context] value in [context.Context].
type contextKey struct{}

// WithContext returns a new context.Context containing the given kong.Context.
func WithContext(ctx context.Context, ktx *kong.Context) context.Context {
	return context.WithValue(ctx, contextKey{}, ktx)
}

func kongContextFrom(ctx context.Context) *kong.Context {
	ktx, ok := ctx.Value(contextKey{}).(*kong.Context)
	if !ok || ktx == nil {
		return nil
	}

	return ktx
}

type includeKey struct{}

// WithInclude returns a new context.Context containing the import search
// directories used when building resources.
func WithInclude(ctx context.Context, dirs []string) context.Context {
	return context.WithValue(ctx, includeKey{}, dirs)
}

func includeFrom(ctx context.Context) []string {
	dirs, _ := ctx.Value(includeKey{}).([]string)

	return dirs
}

// stdinSource is the special source indicator for reading from stdin.
const stdinSource = "-"

// buildOptions returns the options shared by every command that builds a
// program: the logger and a filesystem loader searching the include path.
func buildOptions(ctx context.Context, opts ...lang.Option) []lang.Option {
	return append([]lang.Option{
		lang.WithLogger(log.Default()),
		lang.WithLoader(lang.NewFSLoader("", includeFrom(ctx)...)),
	}, opts...)
}

// build parses, compiles, and links the resource at path. Source "-" is read
// from stdin and its imports resolve against the working directory.
func build(
	ctx context.Context,
	path string,
	opts ...lang.Option,
) (*lang.Program, error) {
	opts = buildOptions(ctx, opts...)

	if path != stdinSource {
		return lang.BuildPath(ctx, path, opts...)
	}

	src, err := readSource(os.Stdin)
	if err != nil {
		return nil, err
	}

	return lang.BuildSource(ctx, src, "", opts...)
}

// parse reads and parses the resource at path without resolving imports.
func parse(ctx context.Context, path string) (*lang.Resource, error) {
	var r io.Reader = os.Stdin

	if path != stdinSource {
		file, err := os.Open(path)
		if err != nil {
			return nil, pkg.ErrReadInput.Wrap(err)
		}
		defer file.Close()

		r = file
	} else {
		path = ""
	}

	return lang.ParseReader(ctx, r,
		lang.WithLogger(log.Default()),
		lang.WithPath(path),
	)
}

func readSource(r io.Reader) (string, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return "", pkg.ErrReadInput.Wrap(err)
	}

	return string(b), nil
}

// fileKey uniquely identifies a file by its device and inode numbers.
// This handles deduplication across symlinks, absolute/relative paths, and
// special device files.
type fileKey struct {
	dev uint64
	ino uint64
}

// uniqueSources removes duplicate paths from sources by resolving symlinks
// and comparing device/inode pairs. All occurrences of "-" (and any path
// naming the same file as stdin) are replaced with a single "-" placed last.
// Paths that cannot be resolved are kept so that building them reports the
// error.
func uniqueSources(ctx context.Context, sources []string) []string {
	unique := make([]string, 0, len(sources))
	seen := make(map[fileKey]struct{})

	var stdinKey fileKey

	stdinInfo, err := os.Stdin.Stat()
	if err == nil {
		stdinKey, _ = makeFileKey(stdinInfo)
	}

	hasStdin := false

	for _, src := range sources {
		if src == stdinSource {
			hasStdin = true

			continue
		}

		key, ok := resolveFileKey(src)
		if !ok {
			unique = append(unique, src)

			continue
		}

		if key == stdinKey {
			hasStdin = true

			continue
		}

		if _, exists := seen[key]; exists {
			log.TraceContext(ctx, "skipping duplicate source",
				slog.String("path", src))

			continue
		}

		seen[key] = struct{}{}
		unique = append(unique, src)
	}

	if hasStdin {
		unique = append(unique, stdinSource)
	}

	return unique
}

// resolveFileKey resolves path to its target and returns its device/inode
// pair.
func resolveFileKey(path string) (fileKey, bool) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return fileKey{}, false
	}

	resolved, err := filepath.EvalSymlinks(absPath)
	if err != nil {
		return fileKey{}, false
	}

	info, err := os.Stat(resolved)
	if err != nil {
		return fileKey{}, false
	}

	return makeFileKey(info)
}

// makeFileKey creates a fileKey from os.FileInfo.
// Returns false if the underlying Sys() data is not of type *syscall.Stat_t.
func makeFileKey(info os.FileInfo) (key fileKey, ok bool) {
	stat, ok := info.Sys().(*syscall.Stat_t)
	if !ok {
		return key, false
	}

	return fileKey{dev: uint64(stat.Dev), ino: stat.Ino}, true
}

// output returns w, or os.Stdout if w is nil.
func output(w io.Writer) io.Writer {
	if w == nil {
		return os.Stdout
	}

	return w
}
