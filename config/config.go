// Package config loads database configuration from YAML and builds the
// storage adapter it describes. Embedders that wire adapters in code do
// not need this package; it exists for CLI and service entry points.
package config

import (
	"context"
	"fmt"
	"os"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"gopkg.in/yaml.v3"

	"github.com/hyphadb/hypha/backend"
	"github.com/hyphadb/hypha/backend/badgerdb"
	"github.com/hyphadb/hypha/backend/miniostore"
	"github.com/hyphadb/hypha/backend/s3"
	"github.com/hyphadb/hypha/backend/sqlite"
	"github.com/hyphadb/hypha/cow"
)

// Backend kinds accepted in the `backend.kind` field.
const (
	KindMemory = "memory"
	KindLocal  = "local"
	KindBadger = "badger"
	KindSQLite = "sqlite"
	KindS3     = "s3"
	KindMinIO  = "minio"
)

// Config is the top-level YAML document.
type Config struct {
	Backend BackendConfig `yaml:"backend"`
	// Branch to check out on open; empty follows HEAD.
	Branch string `yaml:"branch"`
	// Compression names the blob compression algorithm: zstd (default),
	// lz4, xz or none.
	Compression string `yaml:"compression"`
}

// BackendConfig selects and parameterizes the storage adapter.
type BackendConfig struct {
	Kind string `yaml:"kind"`

	// Path is the data directory (local, badger) or database file
	// (sqlite).
	Path string `yaml:"path"`

	// Object store settings (s3, minio).
	Bucket    string `yaml:"bucket"`
	Prefix    string `yaml:"prefix"`
	Region    string `yaml:"region"`
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"accessKey"`
	SecretKey string `yaml:"secretKey"`
	UseSSL    bool   `yaml:"useSSL"`
}

// Load reads and validates a YAML config file.
func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(raw)
}

// Parse decodes and validates YAML config bytes.
func Parse(raw []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch c.Backend.Kind {
	case "", KindMemory:
	case KindLocal, KindBadger, KindSQLite:
		if c.Backend.Path == "" {
			return fmt.Errorf("backend %s requires path", c.Backend.Kind)
		}
	case KindS3, KindMinIO:
		if c.Backend.Bucket == "" {
			return fmt.Errorf("backend %s requires bucket", c.Backend.Kind)
		}
		if c.Backend.Kind == KindMinIO && c.Backend.Endpoint == "" {
			return fmt.Errorf("backend minio requires endpoint")
		}
	default:
		return fmt.Errorf("unknown backend kind: %s", c.Backend.Kind)
	}
	if c.Compression != "" {
		if _, ok := cow.CompressorByName(c.Compression); !ok {
			return fmt.Errorf("unknown compression: %s", c.Compression)
		}
	}
	return nil
}

// Compressor returns the configured blob compressor, or nil to use the
// database default (zstd).
func (c *Config) Compressor() cow.Compressor {
	if c.Compression == "" {
		return nil
	}
	comp, _ := cow.CompressorByName(c.Compression)
	return comp
}

// BuildAdapter constructs the storage adapter the config describes.
func (c *Config) BuildAdapter(ctx context.Context) (backend.Adapter, error) {
	b := c.Backend
	switch b.Kind {
	case "", KindMemory:
		return backend.NewMemoryAdapter(), nil

	case KindLocal:
		return backend.NewLocalAdapter(b.Path)

	case KindBadger:
		return badgerdb.Open(b.Path)

	case KindSQLite:
		return sqlite.Open(b.Path)

	case KindS3:
		var loadOpts []func(*awsconfig.LoadOptions) error
		if b.Region != "" {
			loadOpts = append(loadOpts, awsconfig.WithRegion(b.Region))
		}
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
		if err != nil {
			return nil, fmt.Errorf("load aws config: %w", err)
		}
		client := awss3.NewFromConfig(awsCfg, func(o *awss3.Options) {
			if b.Endpoint != "" {
				o.BaseEndpoint = &b.Endpoint
			}
		})
		return s3.New(client, b.Bucket, b.Prefix), nil

	case KindMinIO:
		client, err := minio.New(b.Endpoint, &minio.Options{
			Creds:  credentials.NewStaticV4(b.AccessKey, b.SecretKey, ""),
			Secure: b.UseSSL,
		})
		if err != nil {
			return nil, fmt.Errorf("minio client: %w", err)
		}
		return miniostore.New(client, b.Bucket, b.Prefix), nil

	default:
		return nil, fmt.Errorf("unknown backend kind: %s", b.Kind)
	}
}
