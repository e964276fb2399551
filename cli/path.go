package cli

import (
	"os"
	"path/filepath"

	"github.com/ardnew/mung"

	"github.com/ardnew/l20n/pkg"
)

// baseConfig is the base name of the configuration file.
const baseConfig = "config"

// defaultDirMode is the default permission mode for created directories.
var defaultDirMode os.FileMode = 0o700

// includeVar is the name of the environment variable listing import search
// directories, separated by [os.PathListSeparator].
var includeVar = pkg.EnvVar("path")

// configPath returns the absolute path to a file or directory formed by joining
// the global configuration directory path with the given path elements.
//
// If no elements are given, it is equivalent to calling [pkg.ConfigDir].
func configPath(elem ...string) string {
	return filepath.Join(append([]string{pkg.ConfigDir()}, elem...)...)
}

// mkdirAllRequired creates all required runtime directories.
func mkdirAllRequired() error {
	// Create base config directory
	err := os.MkdirAll(pkg.ConfigDir(), defaultDirMode)
	if err != nil {
		return err
	}

	// Create base cache directory
	err = os.MkdirAll(pkg.CacheDir(), defaultDirMode)
	if err != nil {
		return err
	}

	return nil
}

// includePath returns the import search directories: the given directories
// followed by those listed in the environment variable named by includeVar.
// Directories that do not exist are dropped.
func includePath(dirs ...string) []string {
	list := mung.Make(
		mung.WithSubjectItems(filepath.SplitList(os.Getenv(includeVar))...),
		mung.WithDelim(string(os.PathListSeparator)),
		mung.WithPrefixItems(dirs...),
		mung.WithFilter(isDir),
	).String()

	return filepath.SplitList(list)
}

func isDir(path string) bool {
	info, err := os.Stat(path)

	return err == nil && info.IsDir()
}
