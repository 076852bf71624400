// Package fileio reads input files and writes output files atomically.
package fileio

import (
	"errors"
	"io"
	"os"

	"github.com/moby/sys/atomicwriter"
)

// DefaultPerm is the mode of newly written output files.
const DefaultPerm os.FileMode = 0o644

// ReadFile reads the whole file at path. The handle is released on every
// return path. Errors are the *fs.PathError values of package os, which
// already name the operation and the path.
func ReadFile(path string) (_ []byte, retErr error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := f.Close(); err != nil && retErr == nil {
			retErr = err
		}
	}()

	return io.ReadAll(f)
}

// WriteFile writes data to a temporary file next to path and renames it
// into place, so path either keeps its old content or holds all of data.
// An existing file keeps its permissions.
func WriteFile(path string, data []byte) error {
	perm := DefaultPerm
	if fi, err := os.Stat(path); err == nil {
		perm = fi.Mode().Perm()
	}
	return atomicwriter.WriteFile(path, data, perm)
}

// Exists reports whether path names an existing file.
func Exists(path string) bool {
	_, err := os.Stat(path)
	return !errors.Is(err, os.ErrNotExist)
}
