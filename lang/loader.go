package lang

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/readahead"
)

// Loader locates and reads modules.
//
// Paths passed to a Loader are either raw (supplied by the caller or an
// import statement) or prepared. Only prepared paths identify modules; the
// builder uses them as cache keys.
type Loader interface {
	// PreparePath prepares a raw path supplied by the caller. An empty path
	// denotes source text that did not come from the loader.
	PreparePath(path string) string

	// PrepareImportPath prepares the URI of an import statement found in the
	// module at prepared path base.
	PrepareImportPath(base, path string) string

	// LoadSource reads the module at a prepared path. Failures match
	// [ErrLoader].
	LoadSource(ctx context.Context, path string) (string, error)

	// FormatPath returns a prepared path in a form suitable for messages.
	FormatPath(path string) string
}

// FSLoader loads modules from the file system.
//
// Imports resolve against the directory of the importing module. An import
// not found there is searched for in each include directory in order.
type FSLoader struct {
	base    string
	include []string
}

// NewFSLoader returns a loader resolving raw paths against base, or the
// working directory if base is empty.
func NewFSLoader(base string, include ...string) *FSLoader {
	l := &FSLoader{base: absPath(base)}

	for _, dir := range include {
		if dir != "" {
			l.include = append(l.include, absPath(dir))
		}
	}

	return l
}

func absPath(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		return filepath.Clean(path)
	}

	return abs
}

// Include returns the include directories.
func (l *FSLoader) Include() []string { return l.include }

// PreparePath returns the absolute form of path. The prepared form of an
// empty path is the base directory with a trailing separator, so imports
// from anonymous source resolve against the base directory.
func (l *FSLoader) PreparePath(path string) string {
	if path == "" {
		return l.base + string(filepath.Separator)
	}

	if filepath.IsAbs(path) {
		return filepath.Clean(path)
	}

	return filepath.Join(l.base, path)
}

// PrepareImportPath resolves path against the directory of base, then
// against each include directory.
func (l *FSLoader) PrepareImportPath(base, path string) string {
	if filepath.IsAbs(path) {
		return filepath.Clean(path)
	}

	rel := filepath.Join(filepath.Dir(base), path)
	if exists(rel) {
		return rel
	}

	for _, dir := range l.include {
		if p := filepath.Join(dir, path); exists(p) {
			return p
		}
	}

	return rel
}

// LoadSource reads the file at path.
func (l *FSLoader) LoadSource(ctx context.Context, path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", ErrLoader.Wrap(err).With(slog.String("path", path))
	}
	defer f.Close()

	data, err := readAll(f)
	if err != nil {
		return "", ErrLoader.Wrap(err).With(slog.String("path", path))
	}

	return string(data), nil
}

// FormatPath returns path relative to the base directory when it lies
// beneath it.
func (l *FSLoader) FormatPath(path string) string {
	rel, err := filepath.Rel(l.base, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return path
	}

	return rel
}

func exists(path string) bool {
	info, err := os.Stat(path)

	return err == nil && !info.IsDir()
}

// readAll reads r to the end through an asynchronous read-ahead buffer.
func readAll(r io.Reader) ([]byte, error) {
	ra := readahead.NewReader(r)
	defer ra.Close()

	return io.ReadAll(ra)
}

// MapLoader loads modules from memory, keyed by URI-like paths.
//
// Path segments are separated by "/". Prepared paths never start with "/"
// and contain no "." or ".." segments, and repeated slashes collapse.
type MapLoader struct {
	Files map[string]string
	base  string
}

// NewMapLoader returns a loader over files, resolving raw paths against
// base.
func NewMapLoader(files map[string]string, base string) *MapLoader {
	return &MapLoader{Files: files, base: resolveSimplePath("", base)}
}

// PreparePath implements [Loader].
func (l *MapLoader) PreparePath(path string) string {
	return resolveSimplePath(l.base, path)
}

// PrepareImportPath implements [Loader].
func (l *MapLoader) PrepareImportPath(base, path string) string {
	return resolveSimplePath(base, path)
}

// LoadSource implements [Loader].
func (l *MapLoader) LoadSource(_ context.Context, path string) (string, error) {
	src, ok := l.Files[path]
	if !ok {
		return "", ErrLoader.Errorf("no such module: %q", path).
			With(slog.String("path", path))
	}

	return src, nil
}

// FormatPath implements [Loader].
func (l *MapLoader) FormatPath(path string) string { return path }

// resolveSimplePath resolves a "/"-separated path against the directory of
// base. A trailing empty, ".", or ".." segment leaves a trailing slash.
func resolveSimplePath(base, path string) string {
	if path == "" {
		return base
	}

	var segs []string

	if strings.HasPrefix(path, "/") {
		segs = strings.Split(path, "/")
	} else {
		dir := strings.Split(base, "/")
		segs = append(dir[:len(dir)-1], strings.Split(path, "/")...)
	}

	out := make([]string, 0, len(segs))

	for _, seg := range segs {
		switch seg {
		case "..":
			if len(out) > 0 {
				out = out[:len(out)-1]
			}
		case "", ".":
		default:
			out = append(out, seg)
		}
	}

	switch segs[len(segs)-1] {
	case "", ".", "..":
		out = append(out, "")
	}

	return strings.Join(out, "/")
}
