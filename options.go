package distgraph

import (
	"log/slog"

	"github.com/hupe1980/distgraph/codec"
	"github.com/hupe1980/distgraph/pedigree"
)

type options struct {
	codec            codec.Codec
	metricsCollector MetricsCollector
	logger           *Logger
	distribution     pedigree.Distribution
	distributionData any
}

// Option configures coordinator construction.
type Option func(*options)

// WithCodec configures the codec used for message payloads.
// Every rank of a group must use the same codec.
//
// If nil is passed, codec.Default is used.
func WithCodec(c codec.Codec) Option {
	return func(o *options) {
		if c == nil {
			c = codec.Default
		}
		o.codec = c
	}
}

// WithMetricsCollector configures a metrics collector for monitoring operations.
// Pass nil to disable metrics collection.
//
// Example with BasicMetricsCollector:
//
//	metrics := &distgraph.BasicMetricsCollector{}
//	c, _ := distgraph.NewCoordinator(ch, distgraph.WithMetricsCollector(metrics))
//	// ... use c ...
//	stats := metrics.GetStats()
//	fmt.Printf("Edges: %d, forwarded: %d\n", stats.EdgeCount, stats.ForwardRoutes)
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		o.metricsCollector = mc
	}
}

// WithLogger configures structured logging for operations.
// Pass nil to disable logging.
//
// Example with JSON logging:
//
//	logger := distgraph.NewJSONLogger(slog.LevelInfo)
//	c, _ := distgraph.NewCoordinator(ch, distgraph.WithLogger(logger))
func WithLogger(logger *Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithLogLevel creates a text logger with the specified level and sets it.
// Convenience wrapper for WithLogger(NewTextLogger(level)).
func WithLogLevel(level slog.Level) Option {
	return func(o *options) {
		o.logger = NewTextLogger(level)
	}
}

// WithDistribution replaces the default DJB2 pedigree hash with fn.
// fn must be a pure function of its arguments and identical on every rank;
// its result is reduced modulo the group size.
func WithDistribution(fn pedigree.Distribution, userData any) Option {
	return func(o *options) {
		o.distribution = fn
		o.distributionData = userData
	}
}

func applyOptions(optFns []Option) options {
	o := options{
		codec:            codec.Default,
		metricsCollector: NoopMetricsCollector{},
		logger:           NoopLogger(),
	}
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}
	if o.metricsCollector == nil {
		o.metricsCollector = NoopMetricsCollector{}
	}
	if o.logger == nil {
		o.logger = NoopLogger()
	}
	return o
}
