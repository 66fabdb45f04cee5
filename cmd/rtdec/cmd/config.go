package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"
	miniogo "github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"gopkg.in/yaml.v3"

	"github.com/qecflow/rtdec/artifact"
	"github.com/qecflow/rtdec/blobstore"
	minios "github.com/qecflow/rtdec/blobstore/minio"
	"github.com/qecflow/rtdec/blobstore/s3"
	"github.com/qecflow/rtdec/code"
	"github.com/qecflow/rtdec/noise"
)

// Duration is a time.Duration that unmarshals from "1ms" style YAML strings.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

// Config is the on-disk decoder configuration.
type Config struct {
	Code struct {
		Builtin  string `yaml:"builtin"` // "surface", "repetition" or "ring"
		Distance int    `yaml:"distance"`
		File     string `yaml:"file"` // custom code YAML, overrides builtin
	} `yaml:"code"`

	Noise struct {
		Type     string    `yaml:"type"` // "uniform" or "per-qubit"
		P        float64   `yaml:"p"`
		PerQubit []float64 `yaml:"per_qubit"`
	} `yaml:"noise"`

	Decoder struct {
		Deadline        Duration `yaml:"deadline"`
		Workers         int      `yaml:"workers"`
		Depth           int      `yaml:"depth"`
		MaxExactDefects int      `yaml:"max_exact_defects"`
		RateLimit       float64  `yaml:"rate_limit"` // cycles/sec, 0 = unlimited
	} `yaml:"decoder"`

	Artifacts struct {
		Backend     string `yaml:"backend"` // "local", "s3", "minio" or "memory"
		Compression string `yaml:"compression"`

		Local struct {
			Dir string `yaml:"dir"`
		} `yaml:"local"`

		S3 struct {
			Bucket string `yaml:"bucket"`
			Prefix string `yaml:"prefix"`
			Region string `yaml:"region"`
		} `yaml:"s3"`

		MinIO struct {
			Endpoint  string `yaml:"endpoint"`
			Bucket    string `yaml:"bucket"`
			Prefix    string `yaml:"prefix"`
			AccessKey string `yaml:"access_key"`
			SecretKey string `yaml:"secret_key"`
			UseSSL    bool   `yaml:"use_ssl"`
		} `yaml:"minio"`
	} `yaml:"artifacts"`
}

func loadConfig(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("cannot open config %s: %w", path, err)
	}
	defer f.Close()

	var cfg Config
	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("cannot parse config %s: %w", path, err)
	}
	return &cfg, nil
}

func (c *Config) buildCode() (*code.Description, error) {
	if c.Code.File != "" {
		return code.LoadYAMLFile(c.Code.File)
	}
	switch c.Code.Builtin {
	case "surface":
		return code.SurfaceCode(c.Code.Distance)
	case "repetition":
		return code.RepetitionCode(c.Code.Distance)
	case "ring":
		return code.CyclicRepetitionCode(c.Code.Distance)
	case "":
		return nil, fmt.Errorf("config names neither a builtin code nor a code file")
	default:
		return nil, fmt.Errorf("unknown builtin code %q", c.Code.Builtin)
	}
}

func (c *Config) buildNoise() (*noise.Model, error) {
	switch c.Noise.Type {
	case "", "uniform":
		p := c.Noise.P
		if p == 0 {
			p = 0.001
		}
		return noise.Uniform(p)
	case "per-qubit":
		return noise.PerQubit(c.Noise.PerQubit)
	default:
		return nil, fmt.Errorf("unknown noise type %q", c.Noise.Type)
	}
}

func (c *Config) compression() (artifact.Compression, error) {
	switch c.Artifacts.Compression {
	case "", "zstd":
		return artifact.CompressionZSTD, nil
	case "lz4":
		return artifact.CompressionLZ4, nil
	case "none":
		return artifact.CompressionNone, nil
	default:
		return 0, fmt.Errorf("unknown compression %q", c.Artifacts.Compression)
	}
}

func (c *Config) buildStore(ctx context.Context) (blobstore.BlobStore, error) {
	switch c.Artifacts.Backend {
	case "", "local":
		dir := c.Artifacts.Local.Dir
		if dir == "" {
			dir = "artifacts"
		}
		return blobstore.NewLocalStore(dir)

	case "memory":
		return blobstore.NewMemoryStore(), nil

	case "s3":
		opts := []func(*awsconfig.LoadOptions) error{}
		if c.Artifacts.S3.Region != "" {
			opts = append(opts, awsconfig.WithRegion(c.Artifacts.S3.Region))
		}
		awscfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
		if err != nil {
			return nil, fmt.Errorf("cannot load AWS config: %w", err)
		}
		client := awss3.NewFromConfig(awscfg)
		return s3.NewStore(client, c.Artifacts.S3.Bucket, c.Artifacts.S3.Prefix), nil

	case "minio":
		mc := c.Artifacts.MinIO
		client, err := miniogo.New(mc.Endpoint, &miniogo.Options{
			Creds:  credentials.NewStaticV4(mc.AccessKey, mc.SecretKey, ""),
			Secure: mc.UseSSL,
		})
		if err != nil {
			return nil, fmt.Errorf("cannot create MinIO client: %w", err)
		}
		return minios.NewStore(client, mc.Bucket, mc.Prefix), nil

	default:
		return nil, fmt.Errorf("unknown artifact backend %q", c.Artifacts.Backend)
	}
}
