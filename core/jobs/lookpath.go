package jobs

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"go.trai.ch/zerr"
)

// errNotFound marks a candidate path that doesn't exist.
var errNotFound = errors.New("executable file not found")

func findExecutable(file string) error {
	d, err := os.Stat(file)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return errNotFound
	case err != nil:
		return err
	}
	if m := d.Mode(); !m.IsDir() && m&0111 != 0 {
		return nil
	}
	return fs.ErrPermission
}

// LookPath searches for an executable named file in the directories named by
// the PATH environment variable. If file contains a slash, it is tried directly
// and the PATH is not consulted. The result may be an absolute path or a path
// relative to the current directory.
func LookPath(file string) (string, error) {
	if strings.Contains(file, "/") {
		if err := findExecutable(file); err != nil {
			return "", lookPathError(file, err)
		}
		return file, nil
	}

	var lastErr error = errNotFound
	for _, dir := range filepath.SplitList(os.Getenv("PATH")) {
		if dir == "" {
			// Unix shell semantics: path element "" means "."
			dir = "."
		}
		path := filepath.Join(dir, file)
		err := findExecutable(path)
		if err == nil {
			return path, nil
		}
		if !errors.Is(lastErr, fs.ErrPermission) {
			lastErr = err
		}
	}
	return "", lookPathError(file, lastErr)
}

func lookPathError(file string, err error) error {
	if errors.Is(err, errNotFound) {
		return zerr.With(fmt.Errorf("%w", ErrExecNotFound), "command", file)
	}
	return zerr.With(fmt.Errorf("%w: %w", ErrExec, err), "command", file)
}
