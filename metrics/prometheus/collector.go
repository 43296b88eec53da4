// Package prometheus exports coordinator metrics to Prometheus.
//
//	reg := prom.NewRegistry() // github.com/prometheus/client_golang/prometheus
//	mc, _ := prometheus.New(reg, "distgraph")
//	c, _ := distgraph.NewCoordinator(ch, distgraph.WithMetricsCollector(mc))
package prometheus

import (
	"time"

	prom "github.com/prometheus/client_golang/prometheus"

	"github.com/hupe1980/distgraph"
	"github.com/hupe1980/distgraph/transport"
)

// Compile time check to ensure Collector satisfies the MetricsCollector interface.
var _ distgraph.MetricsCollector = (*Collector)(nil)

// Collector implements distgraph.MetricsCollector with Prometheus vectors.
type Collector struct {
	requests *prom.HistogramVec
	syncs    *prom.HistogramVec
	messages *prom.HistogramVec
}

// New creates a collector and registers its metrics with reg.
// A nil reg uses prometheus.DefaultRegisterer.
func New(reg prom.Registerer, namespace string) (*Collector, error) {
	if reg == nil {
		reg = prom.DefaultRegisterer
	}

	c := &Collector{
		requests: prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "request_duration_seconds",
			Help:      "Latency of coordinator requests by operation, route and status.",
			Buckets:   prom.DefBuckets,
		}, []string{"op", "route", "status"}),
		syncs: prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "synchronize_duration_seconds",
			Help:      "Latency of collective barriers.",
			Buckets:   prom.DefBuckets,
		}, []string{"status"}),
		messages: prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "message_duration_seconds",
			Help:      "Handler latency of inbound messages by tag.",
			Buckets:   prom.DefBuckets,
		}, []string{"tag", "status"}),
	}

	for _, col := range []prom.Collector{c.requests, c.syncs, c.messages} {
		if err := reg.Register(col); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// RecordAddVertex implements distgraph.MetricsCollector.
func (c *Collector) RecordAddVertex(route distgraph.Route, d time.Duration, err error) {
	c.requests.WithLabelValues("add_vertex", route.String(), status(err)).Observe(d.Seconds())
}

// RecordAddEdge implements distgraph.MetricsCollector.
func (c *Collector) RecordAddEdge(route distgraph.Route, d time.Duration, err error) {
	c.requests.WithLabelValues("add_edge", route.String(), status(err)).Observe(d.Seconds())
}

// RecordFind implements distgraph.MetricsCollector.
func (c *Collector) RecordFind(route distgraph.Route, d time.Duration, err error) {
	c.requests.WithLabelValues("find", route.String(), status(err)).Observe(d.Seconds())
}

// RecordSynchronize implements distgraph.MetricsCollector.
func (c *Collector) RecordSynchronize(d time.Duration, err error) {
	c.syncs.WithLabelValues(status(err)).Observe(d.Seconds())
}

// RecordMessage implements distgraph.MetricsCollector.
func (c *Collector) RecordMessage(tag transport.Tag, d time.Duration, err error) {
	c.messages.WithLabelValues(tag.String(), status(err)).Observe(d.Seconds())
}

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
