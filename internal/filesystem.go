package internal

import (
	"context"
	"io"
)

// Filesystem is the storage the cleaner reads input from and writes
// output to. Paths are implementation specific.
type Filesystem interface {
	Exists(ctx context.Context, path string) (bool, error)

	// List returns path itself when it names a file, otherwise every
	// visible file below it. Names starting with "_" or "." are hidden.
	List(ctx context.Context, path string) ([]string, error)

	Open(ctx context.Context, path string) (io.ReadCloser, error)

	// Create must fail when path already exists.
	Create(ctx context.Context, path string) (io.WriteCloser, error)
}

// IsHidden reports whether a file base name is ignored when reading a
// directory, following the Hadoop "_SUCCESS" / ".crc" conventions.
func IsHidden(name string) bool {
	return len(name) > 0 && (name[0] == '_' || name[0] == '.')
}
