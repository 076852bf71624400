package cli

import (
	"errors"
	"os"

	"github.com/calumari/bsonwalk/internal/fileio"
)

// ReadInput reads the file at path. A missing file is an ArgumentError;
// any other failure is an IOError.
func ReadInput(path string) ([]byte, error) {
	data, err := fileio.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, ArgumentErrorf("input file %s does not exist", path)
	}
	if err != nil {
		return nil, &IOError{Op: "read", Path: path, Err: err}
	}
	return data, nil
}

// WriteOutput atomically replaces the file at path with data.
func WriteOutput(path string, data []byte) error {
	if err := fileio.WriteFile(path, data); err != nil {
		return &IOError{Op: "write", Path: path, Err: err}
	}
	return nil
}
