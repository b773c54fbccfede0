package local

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/turbolytics/cleaner/internal"
	"go.uber.org/zap"
)

const dirPerm = 0755

type Option func(*Filesystem)

func WithLogger(logger *zap.Logger) Option {
	return func(f *Filesystem) {
		f.logger = logger
	}
}

// Filesystem reads and writes files on local disk.
type Filesystem struct {
	logger *zap.Logger
}

func New(opts ...Option) *Filesystem {
	f := &Filesystem{
		logger: zap.NewNop(),
	}

	for _, opt := range opts {
		opt(f)
	}
	return f
}

func (f *Filesystem) Exists(ctx context.Context, path string) (bool, error) {
	_, err := os.Stat(path)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return false, err
}

func (f *Filesystem) List(ctx context.Context, path string) ([]string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}

	if !info.IsDir() {
		return []string{path}, nil
	}

	var files []string
	err = filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if p == path {
			return nil
		}
		if internal.IsHidden(d.Name()) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.Type().IsRegular() {
			files = append(files, p)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Strings(files)
	return files, nil
}

func (f *Filesystem) Open(ctx context.Context, path string) (io.ReadCloser, error) {
	f.logger.Debug("opening file", zap.String("path", path))
	return os.Open(path)
}

// Create opens a new file for writing, creating parent directories.
// An existing file is never truncated.
func (f *Filesystem) Create(ctx context.Context, path string) (io.WriteCloser, error) {
	f.logger.Info("writing file", zap.String("path", path))

	// Ensure directory exists
	if err := os.MkdirAll(filepath.Dir(path), dirPerm); err != nil {
		return nil, err
	}

	return os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
}
