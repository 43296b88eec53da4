package distgraph

import (
	"sync/atomic"
	"time"

	"github.com/hupe1980/distgraph/transport"
)

// MetricsCollector defines an interface for collecting operational metrics.
// Implement this interface to integrate with monitoring systems; the
// metrics/prometheus package provides a Prometheus implementation.
type MetricsCollector interface {
	// RecordAddVertex is called after each AddVertex/AddVertexAsync.
	RecordAddVertex(route Route, duration time.Duration, err error)

	// RecordAddEdge is called after each AddEdge/AddEdgeAsync.
	RecordAddEdge(route Route, duration time.Duration, err error)

	// RecordFind is called after each FindVertex/FindEdgeEndpoints.
	RecordFind(route Route, duration time.Duration, err error)

	// RecordSynchronize is called after each barrier.
	RecordSynchronize(duration time.Duration, err error)

	// RecordMessage is called after each inbound message was handled.
	RecordMessage(tag transport.Tag, duration time.Duration, err error)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
// Use this when metrics collection is not needed.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordAddVertex(Route, time.Duration, error)       {}
func (NoopMetricsCollector) RecordAddEdge(Route, time.Duration, error)         {}
func (NoopMetricsCollector) RecordFind(Route, time.Duration, error)            {}
func (NoopMetricsCollector) RecordSynchronize(time.Duration, error)            {}
func (NoopMetricsCollector) RecordMessage(transport.Tag, time.Duration, error) {}

// BasicMetricsCollector provides simple in-memory metrics collection.
// Useful for debugging and tests without external dependencies.
type BasicMetricsCollector struct {
	VertexCount     atomic.Int64
	VertexErrors    atomic.Int64
	EdgeCount       atomic.Int64
	EdgeErrors      atomic.Int64
	FindCount       atomic.Int64
	FindErrors      atomic.Int64
	SyncCount       atomic.Int64
	SyncErrors      atomic.Int64
	SyncTotalNanos  atomic.Int64
	MessageCount    atomic.Int64
	MessageErrors   atomic.Int64
	LocalRoutes     atomic.Int64
	ForwardRoutes   atomic.Int64
	AwaitReplyRoute atomic.Int64
}

// RecordAddVertex implements MetricsCollector.
func (b *BasicMetricsCollector) RecordAddVertex(route Route, _ time.Duration, err error) {
	b.VertexCount.Add(1)
	b.recordRoute(route)
	if err != nil {
		b.VertexErrors.Add(1)
	}
}

// RecordAddEdge implements MetricsCollector.
func (b *BasicMetricsCollector) RecordAddEdge(route Route, _ time.Duration, err error) {
	b.EdgeCount.Add(1)
	b.recordRoute(route)
	if err != nil {
		b.EdgeErrors.Add(1)
	}
}

// RecordFind implements MetricsCollector.
func (b *BasicMetricsCollector) RecordFind(route Route, _ time.Duration, err error) {
	b.FindCount.Add(1)
	b.recordRoute(route)
	if err != nil {
		b.FindErrors.Add(1)
	}
}

// RecordSynchronize implements MetricsCollector.
func (b *BasicMetricsCollector) RecordSynchronize(duration time.Duration, err error) {
	b.SyncCount.Add(1)
	b.SyncTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.SyncErrors.Add(1)
	}
}

// RecordMessage implements MetricsCollector.
func (b *BasicMetricsCollector) RecordMessage(_ transport.Tag, _ time.Duration, err error) {
	b.MessageCount.Add(1)
	if err != nil {
		b.MessageErrors.Add(1)
	}
}

func (b *BasicMetricsCollector) recordRoute(route Route) {
	switch route {
	case RouteLocal:
		b.LocalRoutes.Add(1)
	case RouteForward:
		b.ForwardRoutes.Add(1)
	case RouteAwaitReply:
		b.AwaitReplyRoute.Add(1)
	}
}

// GetStats returns a snapshot of current metrics.
func (b *BasicMetricsCollector) GetStats() BasicMetricsStats {
	return BasicMetricsStats{
		VertexCount:   b.VertexCount.Load(),
		VertexErrors:  b.VertexErrors.Load(),
		EdgeCount:     b.EdgeCount.Load(),
		EdgeErrors:    b.EdgeErrors.Load(),
		FindCount:     b.FindCount.Load(),
		FindErrors:    b.FindErrors.Load(),
		SyncCount:     b.SyncCount.Load(),
		SyncErrors:    b.SyncErrors.Load(),
		SyncAvgNanos:  b.getAvgSyncNanos(),
		MessageCount:  b.MessageCount.Load(),
		MessageErrors: b.MessageErrors.Load(),
		LocalRoutes:   b.LocalRoutes.Load(),
		ForwardRoutes: b.ForwardRoutes.Load(),
		ReplyRoutes:   b.AwaitReplyRoute.Load(),
	}
}

func (b *BasicMetricsCollector) getAvgSyncNanos() int64 {
	count := b.SyncCount.Load()
	if count == 0 {
		return 0
	}
	return b.SyncTotalNanos.Load() / count
}

// BasicMetricsStats is a snapshot of BasicMetricsCollector state.
type BasicMetricsStats struct {
	VertexCount   int64
	VertexErrors  int64
	EdgeCount     int64
	EdgeErrors    int64
	FindCount     int64
	FindErrors    int64
	SyncCount     int64
	SyncErrors    int64
	SyncAvgNanos  int64
	MessageCount  int64
	MessageErrors int64
	LocalRoutes   int64
	ForwardRoutes int64
	ReplyRoutes   int64
}
