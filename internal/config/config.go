package config

import (
	"os"
	"runtime"

	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"
)

type Logger struct {
	Level string `yaml:"level"`
}

// New builds a development logger at the configured level.
func (l Logger) New() (*zap.Logger, error) {
	cfg := zap.NewDevelopmentConfig()
	if l.Level != "" {
		level, err := zapcore.ParseLevel(l.Level)
		if err != nil {
			return nil, err
		}
		cfg.Level = zap.NewAtomicLevelAt(level)
	}
	return cfg.Build()
}

type S3 struct {
	Region          string `yaml:"region"`
	Endpoint        string `yaml:"endpoint"`
	ForcePathStyle  bool   `yaml:"force_path_style"`
	AccessKeyID     string `yaml:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key"`
}

type Parquet struct {
	Compression  string `yaml:"compression"`
	RowGroupSize int64  `yaml:"row_group_size"`
}

type Cleaner struct {
	Workers             int     `yaml:"workers"`
	Strict              bool    `yaml:"strict"`
	Format              string  `yaml:"format"`
	MaxMalformedSamples int     `yaml:"max_malformed_samples"`
	BufferSize          int     `yaml:"buffer_size"`
	Parquet             Parquet `yaml:"parquet"`
}

type Config struct {
	Logger  Logger  `yaml:"logger"`
	Cleaner Cleaner `yaml:"cleaner"`
	S3      S3      `yaml:"s3"`
}

func Default() *Config {
	return &Config{
		Logger: Logger{
			Level: "info",
		},
		Cleaner: Cleaner{
			Workers:             runtime.NumCPU(),
			Format:              "csv",
			MaxMalformedSamples: 10,
			BufferSize:          1024,
			Parquet: Parquet{
				Compression:  "snappy",
				RowGroupSize: 128 * 1024 * 1024,
			},
		},
		S3: S3{
			Region: "us-east-1",
		},
	}
}

// NewFromFile reads a YAML config. Keys missing from the file keep
// their defaults.
func NewFromFile(fpath string) (*Config, error) {
	bs, err := os.ReadFile(fpath)
	if err != nil {
		return nil, err
	}

	c := Default()
	if err := yaml.Unmarshal(bs, c); err != nil {
		return nil, err
	}

	return c, nil
}

// Override applies flags and CLEANER_* environment variables that were
// explicitly set.
func (c *Config) Override(v *viper.Viper) {
	if v.IsSet("workers") {
		c.Cleaner.Workers = v.GetInt("workers")
	}
	if v.IsSet("strict") {
		c.Cleaner.Strict = v.GetBool("strict")
	}
	if v.IsSet("format") {
		c.Cleaner.Format = v.GetString("format")
	}
	if v.IsSet("max-malformed-samples") {
		c.Cleaner.MaxMalformedSamples = v.GetInt("max-malformed-samples")
	}
	if v.IsSet("log-level") {
		c.Logger.Level = v.GetString("log-level")
	}
}
