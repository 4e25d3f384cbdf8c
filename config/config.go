package config

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/c360/target-singer-jsonl/errors"
	"github.com/c360/target-singer-jsonl/storage"
)

// Destination names
const (
	DestinationLocal = "local"
	DestinationS3    = "s3"
	DestinationNATS  = "nats"
)

// Config selects the destination and shapes the artifacts.
type Config struct {
	Destination string      `json:"destination"`
	Local       LocalConfig `json:"local"`
	S3          S3Config    `json:"s3"`
	NATS        NATSConfig  `json:"nats"`

	// AddRecordMetadata injects the _sdc_* columns. Off unless set.
	AddRecordMetadata bool   `json:"add_record_metadata"`
	Format            string `json:"format"`
	Compression       string `json:"compression"`
	FlushConcurrency  int    `json:"flush_concurrency"`
	MetricsFile       string `json:"metrics_file,omitempty"`
}

// LocalConfig configures the local filesystem destination.
type LocalConfig struct {
	Folder string `json:"folder"`
}

// S3Config configures the S3 destination.
type S3Config struct {
	Bucket          string `json:"bucket,omitempty"`
	Prefix          string `json:"prefix,omitempty"`
	Region          string `json:"region,omitempty"`
	Endpoint        string `json:"endpoint,omitempty"`
	AccessKeyID     string `json:"access_key_id,omitempty"`
	SecretAccessKey string `json:"secret_access_key,omitempty"`
	UsePathStyle    bool   `json:"use_path_style,omitempty"`
}

// NATSConfig configures the NATS JetStream object store destination.
type NATSConfig struct {
	URLs     []string `json:"urls,omitempty"`
	Bucket   string   `json:"bucket,omitempty"`
	Prefix   string   `json:"prefix,omitempty"`
	Token    string   `json:"token,omitempty"`
	Username string   `json:"username,omitempty"`
	Password string   `json:"password,omitempty"`
}

// Default returns the configuration used when no layer sets an option.
func Default() *Config {
	return &Config{
		Destination:      DestinationLocal,
		Local:            LocalConfig{Folder: "output"},
		NATS:             NATSConfig{URLs: []string{"nats://localhost:4222"}, Bucket: "SINGER_ARTIFACTS"},
		Format:           string(storage.FormatSinger),
		Compression:      string(storage.CompressionGzip),
		FlushConcurrency: 1,
	}
}

// Validate checks the configuration for errors
func (c *Config) Validate() error {
	switch c.Destination {
	case DestinationLocal:
		if c.Local.Folder == "" {
			return errors.WrapInvalid(errors.ErrMissingConfig, "Config", "Validate", "local.folder is required")
		}
	case DestinationS3:
		if c.S3.Bucket == "" {
			return errors.WrapInvalid(errors.ErrMissingConfig, "Config", "Validate", "s3.bucket is required")
		}
		if (c.S3.AccessKeyID == "") != (c.S3.SecretAccessKey == "") {
			return errors.WrapInvalid(errors.ErrInvalidConfig, "Config", "Validate",
				"s3.access_key_id and s3.secret_access_key must be set together")
		}
	case DestinationNATS:
		if len(c.NATS.URLs) == 0 {
			return errors.WrapInvalid(errors.ErrMissingConfig, "Config", "Validate", "nats.urls is required")
		}
		if c.NATS.Bucket == "" {
			return errors.WrapInvalid(errors.ErrMissingConfig, "Config", "Validate", "nats.bucket is required")
		}
		if (c.NATS.Username == "") != (c.NATS.Password == "") {
			return errors.WrapInvalid(errors.ErrInvalidConfig, "Config", "Validate",
				"nats.username and nats.password must be set together")
		}
	default:
		return errors.UnsupportedDestination(c.Destination)
	}

	if _, err := c.Layout(); err != nil {
		return err
	}

	if c.FlushConcurrency < 1 {
		return errors.WrapInvalid(errors.ErrInvalidConfig, "Config", "Validate",
			"flush_concurrency must be at least 1")
	}

	return nil
}

// Layout returns the artifact format and compression.
func (c *Config) Layout() (storage.Layout, error) {
	format, err := storage.ParseFormat(c.Format)
	if err != nil {
		return storage.Layout{}, errors.WrapInvalid(fmt.Errorf("%w: %v", errors.ErrInvalidConfig, err),
			"Config", "Layout", "parse format")
	}
	compression, err := storage.ParseCompression(c.Compression)
	if err != nil {
		return storage.Layout{}, errors.WrapInvalid(fmt.Errorf("%w: %v", errors.ErrInvalidConfig, err),
			"Config", "Layout", "parse compression")
	}
	return storage.Layout{Format: format, Compression: compression}, nil
}

// NATSURL joins the configured servers for nats.Connect.
func (c *Config) NATSURL() string {
	return strings.Join(c.NATS.URLs, ",")
}

const redacted = "********"

// String returns a JSON representation of the config with secrets redacted
func (c *Config) String() string {
	cp := *c
	if cp.S3.SecretAccessKey != "" {
		cp.S3.SecretAccessKey = redacted
	}
	if cp.NATS.Password != "" {
		cp.NATS.Password = redacted
	}
	if cp.NATS.Token != "" {
		cp.NATS.Token = redacted
	}
	data, _ := json.MarshalIndent(&cp, "", "  ")
	return string(data)
}
