package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/turbolytics/cleaner/internal"
	"github.com/turbolytics/cleaner/internal/cleaner"
	"github.com/turbolytics/cleaner/internal/local"
	"github.com/turbolytics/cleaner/internal/parquet"
	"github.com/turbolytics/cleaner/internal/s3"
	"go.uber.org/zap"
)

var ErrEmptyPath = errors.New("empty path")

// Location is a path together with the filesystem that serves it.
type Location struct {
	FS   internal.Filesystem
	Path string
}

// Resolve picks the filesystem for a path. Plain paths and file:// URLs
// are local; s3://bucket/key is served by S3.
func (c *Config) Resolve(raw string, l *zap.Logger) (Location, error) {
	if raw == "" {
		return Location{}, ErrEmptyPath
	}

	if !strings.Contains(raw, "://") {
		return Location{
			FS:   local.New(local.WithLogger(l)),
			Path: raw,
		}, nil
	}

	u, err := url.Parse(raw)
	if err != nil {
		return Location{}, fmt.Errorf("invalid path %q: %w", raw, err)
	}

	switch u.Scheme {
	case "file":
		if u.Host != "" && u.Host != "localhost" {
			return Location{}, fmt.Errorf("file url %q must be absolute, e.g. file:///%s%s", raw, u.Host, u.Path)
		}
		if u.Path == "" {
			return Location{}, fmt.Errorf("%w: %s", ErrEmptyPath, raw)
		}
		return Location{
			FS:   local.New(local.WithLogger(l)),
			Path: u.Path,
		}, nil
	case s3.Scheme:
		l.Info("initializing s3 filesystem", zap.String("bucket", u.Host))
		fs, err := s3.New(
			s3.WithLogger(l),
			s3.WithRegion(c.S3.Region),
			s3.WithEndpoint(c.S3.Endpoint),
			s3.WithForcePathStyle(c.S3.ForcePathStyle),
			s3.WithStaticCredentials(c.S3.AccessKeyID, c.S3.SecretAccessKey),
		)
		if err != nil {
			return Location{}, fmt.Errorf("failed to create s3 filesystem: %w", err)
		}
		return Location{FS: fs, Path: raw}, nil
	default:
		return Location{}, fmt.Errorf("unsupported path scheme: %s", u.Scheme)
	}
}

func InitializeCleaner(c *Config, input, output Location, l *zap.Logger, opts ...cleaner.Option) (*cleaner.Cleaner, error) {
	format, err := cleaner.ParseFormat(c.Cleaner.Format)
	if err != nil {
		return nil, err
	}

	compression, err := parquet.ParseCompression(c.Cleaner.Parquet.Compression)
	if err != nil {
		return nil, err
	}

	return cleaner.New(append([]cleaner.Option{
		cleaner.WithLogger(l),
		cleaner.WithInputFilesystem(input.FS),
		cleaner.WithOutputFilesystem(output.FS),
		cleaner.WithFormat(format),
		cleaner.WithWorkers(c.Cleaner.Workers),
		cleaner.WithStrict(c.Cleaner.Strict),
		cleaner.WithMaxMalformedSamples(c.Cleaner.MaxMalformedSamples),
		cleaner.WithParquetCompression(compression),
		cleaner.WithParquetRowGroupSize(c.Cleaner.Parquet.RowGroupSize),
		cleaner.WithBufferSize(c.Cleaner.BufferSize),
	}, opts...)...)
}
