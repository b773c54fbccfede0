package config

import (
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/turbolytics/cleaner/internal/local"
	"github.com/turbolytics/cleaner/internal/s3"
	"go.uber.org/zap"
)

func TestNewFromFile(t *testing.T) {
	t.Run("valid config", func(t *testing.T) {
		c, err := NewFromFile("testdata/cleaner.yml")
		require.NoError(t, err)

		assert.Equal(t, "debug", c.Logger.Level)
		assert.Equal(t, 8, c.Cleaner.Workers)
		assert.True(t, c.Cleaner.Strict)
		assert.Equal(t, "parquet", c.Cleaner.Format)
		assert.Equal(t, "gzip", c.Cleaner.Parquet.Compression)
		assert.Equal(t, "us-west-2", c.S3.Region)
		assert.True(t, c.S3.ForcePathStyle)

		assert.Equal(t, int64(1048576), c.Cleaner.Parquet.RowGroupSize)
		assert.Equal(t, 64, c.Cleaner.BufferSize)

		// not in the file
		assert.Equal(t, 10, c.Cleaner.MaxMalformedSamples)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := NewFromFile(filepath.Join(t.TempDir(), "missing.yml"))
		assert.Error(t, err)
	})
}

func TestOverride(t *testing.T) {
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fs.Int("workers", 1, "")
	fs.Bool("strict", false, "")
	fs.String("format", "csv", "")
	require.NoError(t, fs.Parse([]string{"--workers", "3"}))

	v := viper.New()
	require.NoError(t, v.BindPFlags(fs))
	v.Set("log-level", "warn")

	c := Default()
	c.Cleaner.Format = "parquet"
	c.Override(v)

	assert.Equal(t, 3, c.Cleaner.Workers)
	assert.Equal(t, "warn", c.Logger.Level)
	// unchanged flags do not clobber file values
	assert.Equal(t, "parquet", c.Cleaner.Format)
	assert.False(t, c.Cleaner.Strict)
}

func TestLogger_New(t *testing.T) {
	l, err := Logger{Level: "debug"}.New()
	require.NoError(t, err)
	assert.NotNil(t, l)

	_, err = Logger{Level: "loud"}.New()
	assert.Error(t, err)
}

func TestResolve(t *testing.T) {
	c := Default()
	l := zap.NewNop()

	loc, err := c.Resolve("/data/transactions", l)
	require.NoError(t, err)
	assert.IsType(t, &local.Filesystem{}, loc.FS)
	assert.Equal(t, "/data/transactions", loc.Path)

	loc, err = c.Resolve("file:///data/transactions", l)
	require.NoError(t, err)
	assert.IsType(t, &local.Filesystem{}, loc.FS)
	assert.Equal(t, "/data/transactions", loc.Path)

	loc, err = c.Resolve("s3://petstore/raw", l)
	require.NoError(t, err)
	assert.IsType(t, &s3.Filesystem{}, loc.FS)
	assert.Equal(t, "s3://petstore/raw", loc.Path)

	loc, err = c.Resolve("file://localhost/data/transactions", l)
	require.NoError(t, err)
	assert.Equal(t, "/data/transactions", loc.Path)

	_, err = c.Resolve("hdfs://namenode/raw", l)
	assert.Error(t, err)

	t.Run("file url with a host", func(t *testing.T) {
		_, err := c.Resolve("file://out", l)
		assert.Error(t, err)

		_, err = c.Resolve("file://out/part-00000.csv", l)
		assert.Error(t, err)
	})

	t.Run("empty paths", func(t *testing.T) {
		_, err := c.Resolve("", l)
		assert.ErrorIs(t, err, ErrEmptyPath)

		_, err = c.Resolve("file://", l)
		assert.ErrorIs(t, err, ErrEmptyPath)
	})
}

func TestInitializeCleaner(t *testing.T) {
	l := zap.NewNop()
	loc := Location{FS: local.New(), Path: t.TempDir()}

	c := Default()
	cl, err := InitializeCleaner(c, loc, loc, l)
	require.NoError(t, err)
	assert.NotNil(t, cl)

	c.Cleaner.Format = "xml"
	_, err = InitializeCleaner(c, loc, loc, l)
	assert.Error(t, err)

	c = Default()
	c.Cleaner.Parquet.Compression = "zip"
	_, err = InitializeCleaner(c, loc, loc, l)
	assert.Error(t, err)
}
