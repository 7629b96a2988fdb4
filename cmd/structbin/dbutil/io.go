package dbutil

import (
	"bufio"
	"io"
	"os"

	"github.com/cockroachdb/errors"

	"github.com/chaisql/structbin/internal/schema"
	"github.com/chaisql/structbin/internal/types"
)

// ReadFile returns the content of the file at path, or of the standard input
// if path is empty or "-".
func ReadFile(path string) ([]byte, error) {
	if path == "" || path == "-" {
		return io.ReadAll(bufio.NewReader(os.Stdin))
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot read %q", path)
	}
	return data, nil
}

// ReadSchema parses the JSON schema stored at path.
func ReadSchema(path string) (*schema.Schema, error) {
	if path == "" {
		return nil, errors.New("missing schema")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot read schema %q", path)
	}

	s, err := schema.Parse(data)
	if err != nil {
		return nil, errors.Wrapf(err, "schema %q", path)
	}
	return s, nil
}

// ReadValue parses the JSON value stored at path, or read from the standard input.
func ReadValue(path string) (any, error) {
	data, err := ReadFile(path)
	if err != nil {
		return nil, err
	}

	return types.ParseJSON(data)
}

// Output returns the file at path, created or truncated, or the standard output
// if path is empty or "-". The returned function closes the file.
func Output(path string) (io.Writer, func() error, error) {
	if path == "" || path == "-" {
		return os.Stdout, func() error { return nil }, nil
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "cannot create %q", path)
	}
	return f, f.Close, nil
}

// WriteJSON writes v to w as JSON, followed by a new line.
func WriteJSON(w io.Writer, v any) error {
	data, err := types.MarshalJSON(v)
	if err != nil {
		return err
	}

	_, err = w.Write(append(data, '\n'))
	return err
}
