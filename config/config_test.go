package config

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/distgraph/codec"
	"github.com/hupe1980/distgraph/transport/local"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	require.NoError(t, cfg.Validate())
	assert.Equal(t, 1, cfg.Ranks)
	assert.Equal(t, "msgpack", cfg.Codec)
	assert.Equal(t, "none", cfg.Compression.Algorithm)
	assert.Equal(t, codec.DefaultCompressionThreshold, cfg.Compression.Threshold)
	assert.Equal(t, slog.LevelInfo, cfg.Level())
}

func TestParse(t *testing.T) {
	cfg, err := Parse([]byte(`
ranks: 4
codec: go-json
compression:
  algorithm: lz4
  threshold: 64
log:
  level: debug
  format: json
transport:
  max_inflight: 8
`))
	require.NoError(t, err)

	assert.Equal(t, 4, cfg.Ranks)
	assert.Equal(t, "go-json", cfg.Codec)
	assert.Equal(t, CompressionConfig{Algorithm: "lz4", Threshold: 64}, cfg.Compression)
	assert.Equal(t, slog.LevelDebug, cfg.Level())
	assert.Equal(t, int64(8), cfg.Transport.MaxInflight)

	cd, err := cfg.PayloadCodec()
	require.NoError(t, err)
	assert.Equal(t, "lz4+go-json", cd.Name())

	var o local.Options
	cfg.TransportOptions()(&o)
	assert.Equal(t, int64(8), o.MaxInflight)
}

func TestParse_PartialKeepsDefaults(t *testing.T) {
	cfg, err := Parse([]byte("ranks: 3\n"))
	require.NoError(t, err)

	assert.Equal(t, 3, cfg.Ranks)
	assert.Equal(t, Default().Log, cfg.Log)
	assert.Equal(t, Default().Codec, cfg.Codec)
}

func TestParse_Empty(t *testing.T) {
	cfg, err := Parse(nil)
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{name: "zero ranks", yaml: "ranks: 0"},
		{name: "unknown codec", yaml: "codec: gob"},
		{name: "unknown compression", yaml: "compression:\n  algorithm: brotli"},
		{name: "negative threshold", yaml: "compression:\n  threshold: -1"},
		{name: "unknown level", yaml: "log:\n  level: trace"},
		{name: "unknown format", yaml: "log:\n  format: xml"},
		{name: "negative inflight", yaml: "transport:\n  max_inflight: -2"},
		{name: "unknown field", yaml: "shards: 2"},
		{name: "malformed", yaml: "ranks: [1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			assert.Error(t, err)
		})
	}
}

func TestConfig_MarshalRoundTrip(t *testing.T) {
	cfg := Default()
	cfg.Ranks = 5
	cfg.Compression.Algorithm = "zstd"

	data, err := cfg.Marshal()
	require.NoError(t, err)

	got, err := Parse(data)
	require.NoError(t, err)
	assert.Equal(t, cfg, got)
}

func TestConfig_Options(t *testing.T) {
	cfg := Default()
	cfg.Log.Level = "warn"

	var level slog.LevelVar
	opts, err := cfg.Options(&level)
	require.NoError(t, err)
	assert.Len(t, opts, 2)
	assert.Equal(t, slog.LevelWarn, level.Level())

	cd, err := cfg.PayloadCodec()
	require.NoError(t, err)
	assert.Equal(t, codec.MsgPack{}, cd)
}

func TestConfig_NewGroup(t *testing.T) {
	cfg := Default()
	cfg.Ranks = 3

	g, err := cfg.NewGroup()
	require.NoError(t, err)
	defer g.Close()
	assert.Equal(t, 3, g.Size())
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "distgraph.yaml")
	require.NoError(t, os.WriteFile(path, []byte("ranks: 2\n"), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 2, cfg.Ranks)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestWatcher_Reload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "distgraph.yaml")
	require.NoError(t, os.WriteFile(path, []byte("log:\n  level: info\n"), 0o600))

	var level slog.LevelVar
	reloaded := make(chan struct{}, 8)

	w, err := NewWatcher(path, func(cfg *Config, err error) {
		if err == nil {
			level.Set(cfg.Level())
		}
		select {
		case reloaded <- struct{}{}:
		default:
		}
	})
	require.NoError(t, err)
	w.debounce = 10 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	require.NoError(t, os.WriteFile(path, []byte("log:\n  level: error\n"), 0o600))

	// A reload may observe the truncated file first.
	deadline := time.After(5 * time.Second)
	for level.Level() != slog.LevelError {
		select {
		case <-reloaded:
		case <-deadline:
			t.Fatal("no reload observed")
		}
	}

	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
}
