package observability

import (
	"context"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// PrometheusHooks records every hook event as a Prometheus metric.
// It implements LayoutHooks, StoreHooks, CacheHooks and APIHooks.
type PrometheusHooks struct {
	registry *prometheus.Registry

	RunsTotal          *prometheus.CounterVec
	RunDuration        prometheus.Histogram
	RunNodes           prometheus.Histogram
	RunsActive         prometheus.Gauge
	BatchesTotal       prometheus.Counter
	BatchDuration      prometheus.Histogram
	PositionsRejected  prometheus.Counter
	StoreOpsTotal      *prometheus.CounterVec
	StoreOpDuration    *prometheus.HistogramVec
	CacheEventsTotal   *prometheus.CounterVec
	HTTPRequestsTotal  *prometheus.CounterVec
	HTTPRequestSeconds *prometheus.HistogramVec
}

// NewPrometheusHooks registers pipeview's metrics on registry. A nil
// registry gets a fresh one.
func NewPrometheusHooks(registry *prometheus.Registry) *PrometheusHooks {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}
	f := promauto.With(registry)
	return &PrometheusHooks{
		registry: registry,
		RunsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pipeview_layout_runs_total",
				Help: "Layout runs by outcome",
			},
			[]string{"status"},
		),
		RunDuration: f.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "pipeview_layout_run_duration_seconds",
				Help:    "Wall time of a layout run",
				Buckets: prometheus.ExponentialBuckets(0.001, 4, 10),
			},
		),
		RunNodes: f.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "pipeview_layout_run_nodes",
				Help:    "Nodes per layout run",
				Buckets: prometheus.ExponentialBuckets(1, 2, 12),
			},
		),
		RunsActive: f.NewGauge(
			prometheus.GaugeOpts{
				Name: "pipeview_layout_runs_active",
				Help: "Layout runs in progress",
			},
		),
		BatchesTotal: f.NewCounter(
			prometheus.CounterOpts{
				Name: "pipeview_layout_batches_total",
				Help: "Published layout batches",
			},
		),
		BatchDuration: f.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "pipeview_layout_batch_duration_seconds",
				Help:    "Time to relax and publish one batch",
				Buckets: prometheus.ExponentialBuckets(0.00001, 4, 10),
			},
		),
		PositionsRejected: f.NewCounter(
			prometheus.CounterOpts{
				Name: "pipeview_positions_rejected_total",
				Help: "Persisted positions that failed to decode",
			},
		),
		StoreOpsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pipeview_store_operations_total",
				Help: "Position store operations",
			},
			[]string{"backend", "operation", "status"},
		),
		StoreOpDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "pipeview_store_operation_duration_seconds",
				Help:    "Position store operation latency",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"backend", "operation"},
		),
		CacheEventsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pipeview_cache_events_total",
				Help: "Layout cache events",
			},
			[]string{"key_type", "event"},
		),
		HTTPRequestsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pipeview_http_requests_total",
				Help: "Served API requests",
			},
			[]string{"method", "route", "status"},
		),
		HTTPRequestSeconds: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "pipeview_http_request_duration_seconds",
				Help:    "API request latency",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
	}
}

// Registry returns the registry the metrics live in.
func (p *PrometheusHooks) Registry() *prometheus.Registry { return p.registry }

// Register installs p as the layout, store, cache and API hooks.
func (p *PrometheusHooks) Register() {
	SetLayoutHooks(p)
	SetStoreHooks(p)
	SetCacheHooks(p)
	SetAPIHooks(p)
}

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

// OnRunStart implements LayoutHooks.
func (p *PrometheusHooks) OnRunStart(_ context.Context, _ string, nodes, _ int) {
	p.RunsActive.Inc()
	p.RunNodes.Observe(float64(nodes))
}

// OnBatch implements LayoutHooks.
func (p *PrometheusHooks) OnBatch(_ context.Context, _ string, _ int, d time.Duration) {
	p.BatchesTotal.Inc()
	p.BatchDuration.Observe(d.Seconds())
}

// OnRunComplete implements LayoutHooks.
func (p *PrometheusHooks) OnRunComplete(_ context.Context, _ string, _ int, d time.Duration, err error) {
	p.RunsActive.Dec()
	p.RunsTotal.WithLabelValues(status(err)).Inc()
	p.RunDuration.Observe(d.Seconds())
}

// OnPositionRejected implements LayoutHooks.
func (p *PrometheusHooks) OnPositionRejected(context.Context, string, string, error) {
	p.PositionsRejected.Inc()
}

// OnLoad implements StoreHooks.
func (p *PrometheusHooks) OnLoad(_ context.Context, backend, _ string, _ int, d time.Duration, err error) {
	p.StoreOpsTotal.WithLabelValues(backend, "load", status(err)).Inc()
	p.StoreOpDuration.WithLabelValues(backend, "load").Observe(d.Seconds())
}

// OnSave implements StoreHooks.
func (p *PrometheusHooks) OnSave(_ context.Context, backend, _ string, _ int, d time.Duration, err error) {
	p.StoreOpsTotal.WithLabelValues(backend, "save", status(err)).Inc()
	p.StoreOpDuration.WithLabelValues(backend, "save").Observe(d.Seconds())
}

// OnCacheHit implements CacheHooks.
func (p *PrometheusHooks) OnCacheHit(_ context.Context, keyType string) {
	p.CacheEventsTotal.WithLabelValues(keyType, "hit").Inc()
}

// OnCacheMiss implements CacheHooks.
func (p *PrometheusHooks) OnCacheMiss(_ context.Context, keyType string) {
	p.CacheEventsTotal.WithLabelValues(keyType, "miss").Inc()
}

// OnCacheSet implements CacheHooks.
func (p *PrometheusHooks) OnCacheSet(_ context.Context, keyType string, _ int) {
	p.CacheEventsTotal.WithLabelValues(keyType, "set").Inc()
}

// OnRequest implements APIHooks.
func (p *PrometheusHooks) OnRequest(_ context.Context, method, route string, code int, d time.Duration) {
	p.HTTPRequestsTotal.WithLabelValues(method, route, strconv.Itoa(code)).Inc()
	p.HTTPRequestSeconds.WithLabelValues(method, route).Observe(d.Seconds())
}

var (
	_ LayoutHooks = (*PrometheusHooks)(nil)
	_ StoreHooks  = (*PrometheusHooks)(nil)
	_ CacheHooks  = (*PrometheusHooks)(nil)
	_ APIHooks    = (*PrometheusHooks)(nil)
)
