// Package config loads coordinator and transport settings from YAML.
//
// A minimal file:
//
//	ranks: 4
//	codec: msgpack
//	compression:
//	  algorithm: zstd
//	  threshold: 1024
//	log:
//	  level: info
//	  format: json
//	transport:
//	  max_inflight: 64
//
// Missing fields keep the values of Default. Watch reloads the file on
// change, which is typically used to adjust a slog.LevelVar at runtime.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/hupe1980/distgraph"
	"github.com/hupe1980/distgraph/codec"
	"github.com/hupe1980/distgraph/transport/local"
)

// Config is the file format.
type Config struct {
	// Ranks is the process group size.
	Ranks       int               `yaml:"ranks" validate:"min=1"`
	Codec       string            `yaml:"codec" validate:"oneof=msgpack json go-json"`
	Compression CompressionConfig `yaml:"compression"`
	Log         LogConfig         `yaml:"log"`
	Transport   TransportConfig   `yaml:"transport"`
}

// CompressionConfig selects payload compression.
type CompressionConfig struct {
	Algorithm string `yaml:"algorithm" validate:"oneof=none zstd lz4"`
	// Threshold is the smallest payload size that is compressed.
	Threshold int `yaml:"threshold" validate:"min=0"`
}

// LogConfig configures the coordinator logger.
type LogConfig struct {
	Level  string `yaml:"level" validate:"oneof=debug info warn error"`
	Format string `yaml:"format" validate:"oneof=text json"`
}

// TransportConfig configures the in-process transport.
type TransportConfig struct {
	// MaxInflight bounds concurrent SendWithReply calls per rank; 0 is unbounded.
	MaxInflight int64 `yaml:"max_inflight" validate:"min=0"`
}

// Default returns the configuration used for absent fields.
func Default() *Config {
	return &Config{
		Ranks: 1,
		Codec: codec.Default.Name(),
		Compression: CompressionConfig{
			Algorithm: codec.CompressionNone.String(),
			Threshold: codec.DefaultCompressionThreshold,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

var validate = validator.New()

// Validate checks field ranges and enumerations.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s: failed %q (value %v)", fe.Namespace(), fe.Tag(), fe.Value()))
			}
			return fmt.Errorf("config: invalid: %s", strings.Join(msgs, "; "))
		}
		return fmt.Errorf("config: invalid: %w", err)
	}
	return nil
}

// Parse decodes YAML over Default and validates the result.
// Unknown fields are rejected.
func Parse(data []byte) (*Config, error) {
	cfg := Default()

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("config: decode: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Load reads and parses the file at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return Parse(data)
}

// Marshal encodes c as YAML.
func (c *Config) Marshal() ([]byte, error) {
	return yaml.Marshal(c)
}

// Level returns the configured log level.
func (c *Config) Level() slog.Level {
	var l slog.Level
	if err := l.UnmarshalText([]byte(c.Log.Level)); err != nil {
		return slog.LevelInfo
	}
	return l
}

// PayloadCodec builds the message codec, wrapped for compression if enabled.
func (c *Config) PayloadCodec() (codec.Codec, error) {
	inner, ok := codec.ByName(c.Codec)
	if !ok {
		return nil, fmt.Errorf("config: unknown codec %q", c.Codec)
	}
	alg, err := codec.ParseCompression(c.Compression.Algorithm)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if alg == codec.CompressionNone {
		return inner, nil
	}
	return codec.NewCompressed(inner, alg, c.Compression.Threshold), nil
}

// Logger builds a logger in the configured format. When level is non-nil it
// is set to the configured level and used by the handler, so later changes
// to it take effect immediately.
func (c *Config) Logger(level *slog.LevelVar) *distgraph.Logger {
	var leveler slog.Leveler = c.Level()
	if level != nil {
		level.Set(c.Level())
		leveler = level
	}
	if c.Log.Format == "json" {
		return distgraph.NewJSONLogger(leveler)
	}
	return distgraph.NewTextLogger(leveler)
}

// Options returns the coordinator options described by c.
func (c *Config) Options(level *slog.LevelVar) ([]distgraph.Option, error) {
	cd, err := c.PayloadCodec()
	if err != nil {
		return nil, err
	}
	return []distgraph.Option{
		distgraph.WithCodec(cd),
		distgraph.WithLogger(c.Logger(level)),
	}, nil
}

// TransportOptions returns the in-process group options described by c.
func (c *Config) TransportOptions() func(o *local.Options) {
	return func(o *local.Options) {
		o.MaxInflight = c.Transport.MaxInflight
	}
}

// NewGroup creates an in-process group sized and tuned by c.
func (c *Config) NewGroup() (*local.Group, error) {
	return local.NewGroup(c.Ranks, c.TransportOptions())
}
