// Package telemetry exposes prometheus collectors for the status board.
package telemetry

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "kiosk"

// Metrics owns a private registry. Every recording method is safe on a nil
// receiver so components can run without metrics.
type Metrics struct {
	registry *prometheus.Registry

	storeOps       *prometheus.CounterVec
	ticks          prometheus.Counter
	rotations      prometheus.Counter
	renderFailures prometheus.Counter
	pageIndex      prometheus.Gauge
	publishes      prometheus.Counter
	publishFails   prometheus.Counter
	dropped        prometheus.Counter
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		storeOps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "store_operations_total",
			Help:      "Repair store operations by operation and result.",
		}, []string{"op", "result"}),
		ticks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "board_ticks_total",
			Help:      "Display scheduler ticks.",
		}),
		rotations: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "board_rotations_total",
			Help:      "Rotations started (snapshot and re-sort).",
		}),
		renderFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "board_render_failures_total",
			Help:      "Pages the render sink failed to accept.",
		}),
		pageIndex: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "board_page_index",
			Help:      "Page index rendered by the last tick.",
		}),
		publishes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "summary_publishes_total",
			Help:      "Summaries computed by the monitor.",
		}),
		publishFails: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "summary_failures_total",
			Help:      "Summaries the presentation sink failed to accept.",
		}),
		dropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "display_dropped_messages_total",
			Help:      "Messages dropped because a display queue was full.",
		}),
	}

	m.registry.MustRegister(
		m.storeOps, m.ticks, m.rotations, m.renderFailures, m.pageIndex,
		m.publishes, m.publishFails, m.dropped,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// WatchStoreSize registers a gauge that reads size on every scrape.
func (m *Metrics) WatchStoreSize(size func() int) {
	if m == nil {
		return
	}
	m.registry.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "store_records",
		Help:      "Repair records currently held.",
	}, func() float64 { return float64(size()) }))
}

// WatchDisplays registers a gauge for connected displays.
func (m *Metrics) WatchDisplays(connected func() int) {
	if m == nil {
		return
	}
	m.registry.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "displays_connected",
		Help:      "Kiosk displays connected over websocket.",
	}, func() float64 { return float64(connected()) }))
}

func (m *Metrics) StoreOp(op string, ok bool) {
	if m == nil {
		return
	}
	result := "ok"
	if !ok {
		result = "rejected"
	}
	m.storeOps.WithLabelValues(op, result).Inc()
}

func (m *Metrics) Tick(pageIndex int) {
	if m == nil {
		return
	}
	m.ticks.Inc()
	m.pageIndex.Set(float64(pageIndex))
}

func (m *Metrics) Rotation() {
	if m == nil {
		return
	}
	m.rotations.Inc()
}

func (m *Metrics) RenderFailure() {
	if m == nil {
		return
	}
	m.renderFailures.Inc()
}

func (m *Metrics) SummaryPublished(ok bool) {
	if m == nil {
		return
	}
	m.publishes.Inc()
	if !ok {
		m.publishFails.Inc()
	}
}

func (m *Metrics) Dropped(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.dropped.Add(float64(n))
}

// Handler serves the registry in the prometheus text format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
