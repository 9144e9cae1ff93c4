// Package source abstracts where a dataset file comes from: the local
// filesystem, an HTTP endpoint, or S3-compatible object storage (see
// the s3 and minio subpackages).
package source

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"os"
)

// ErrNotFound is returned when the dataset does not exist at the
// source. Implementations map their own missing-object errors onto it.
var ErrNotFound = errors.New("dataset not found")

// Source is a handle to a remote or local dataset file.
type Source interface {
	// Open opens the dataset for reading. The caller closes the reader.
	Open(ctx context.Context) (io.ReadCloser, error)

	// Name identifies the source for logs and errors.
	Name() string
}

// Local reads a dataset from the local filesystem.
type Local struct {
	path string
}

// NewLocal creates a Source for the given file path.
func NewLocal(path string) *Local {
	return &Local{path: path}
}

// Open opens the file.
func (l *Local) Open(ctx context.Context) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := os.Open(l.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, errors.Join(ErrNotFound, err)
		}
		return nil, err
	}
	return f, nil
}

// Name returns the file path.
func (l *Local) Name() string {
	return l.path
}
