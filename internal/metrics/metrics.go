// Package metrics exposes Prometheus collectors for the settlement daemon.
package metrics

import (
	"bufio"
	"context"
	"errors"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/LeJamon/goMarketd/internal/core/settlement"
)

const namespace = "marketd"

// CacheStatser is implemented by state.Store.
type CacheStatser interface {
	CacheStats() (hits, misses uint64)
}

// Metrics owns a registry and every collector registered on it.
type Metrics struct {
	Registry *prometheus.Registry

	receipts  *prometheus.CounterVec
	offers    *prometheus.CounterVec
	transfers *prometheus.CounterVec

	httpInFlight prometheus.Gauge
	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec

	rpcCalls    *prometheus.CounterVec
	rpcDuration *prometheus.HistogramVec

	sweeps     *prometheus.CounterVec
	sweptTotal prometheus.Counter
}

var _ settlement.Listener = (*Metrics)(nil)

// New creates the collectors and registers them together with the process
// and Go runtime collectors.
func New() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),

		receipts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "settlement",
				Name:      "operations_total",
				Help:      "Committed settlement operations.",
			},
			[]string{"operation"},
		),
		offers: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "settlement",
				Name:      "offer_transitions_total",
				Help:      "Offer status changes, by resulting status.",
			},
			[]string{"status"},
		),
		transfers: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "settlement",
				Name:      "transfers_total",
				Help:      "Payment token movements caused by settlement operations.",
			},
			[]string{"operation"},
		),

		httpInFlight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "inflight_requests",
				Help:      "Current number of in-flight HTTP requests.",
			},
		),
		httpRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "requests_total",
				Help:      "Total number of HTTP requests handled.",
			},
			[]string{"method", "path", "status"},
		),
		httpDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "request_duration_seconds",
				Help:      "Duration of HTTP requests.",
				Buckets:   prometheus.ExponentialBuckets(0.001, 2, 12), // 1ms to ~4s
			},
			[]string{"method", "path"},
		),

		rpcCalls: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "rpc",
				Name:      "calls_total",
				Help:      "JSON-RPC calls by method and result.",
			},
			[]string{"method", "result"},
		),
		rpcDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "rpc",
				Name:      "call_duration_seconds",
				Help:      "Duration of JSON-RPC method handlers.",
				Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 12),
			},
			[]string{"method"},
		),

		sweeps: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "sweeper",
				Name:      "runs_total",
				Help:      "Expiry sweeper runs by outcome.",
			},
			[]string{"success"},
		),
		sweptTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "sweeper",
				Name:      "refunded_offers_total",
				Help:      "Expired offers refunded by the sweeper.",
			},
		),
	}

	m.Registry.MustRegister(
		m.receipts,
		m.offers,
		m.transfers,
		m.httpInFlight,
		m.httpRequests,
		m.httpDuration,
		m.rpcCalls,
		m.rpcDuration,
		m.sweeps,
		m.sweptTotal,
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
		prometheus.NewGoCollector(),
	)
	return m
}

// WatchCache exposes the committed-state cache counters of store.
func (m *Metrics) WatchCache(store CacheStatser) {
	m.Registry.MustRegister(
		prometheus.NewCounterFunc(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "state",
			Name:      "cache_hits_total",
			Help:      "Committed-state reads served from the cache.",
		}, func() float64 {
			hits, _ := store.CacheStats()
			return float64(hits)
		}),
		prometheus.NewCounterFunc(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "state",
			Name:      "cache_misses_total",
			Help:      "Committed-state reads that went to the database.",
		}, func() float64 {
			_, misses := store.CacheStats()
			return float64(misses)
		}),
	)
}

// OnReceipt counts a committed operation.
func (m *Metrics) OnReceipt(_ context.Context, r *settlement.Receipt) error {
	m.receipts.WithLabelValues(r.Operation).Inc()
	for _, o := range r.Offers {
		m.offers.WithLabelValues(o.Status.String()).Inc()
	}
	if len(r.Transfers) > 0 {
		m.transfers.WithLabelValues(r.Operation).Add(float64(len(r.Transfers)))
	}
	return nil
}

// RecordRPC records one JSON-RPC call. result is "success" or the error token.
func (m *Metrics) RecordRPC(method, result string, duration time.Duration) {
	if method == "" {
		method = "unknown"
	}
	m.rpcCalls.WithLabelValues(method, result).Inc()
	m.rpcDuration.WithLabelValues(method).Observe(duration.Seconds())
}

// RecordSweep records one sweeper run.
func (m *Metrics) RecordSweep(refunded int, success bool) {
	m.sweeps.WithLabelValues(strconv.FormatBool(success)).Inc()
	m.sweptTotal.Add(float64(refunded))
}

// Handler returns an HTTP handler exposing the registered metrics.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})
}

// InstrumentHandler wraps next with HTTP metrics collection.
func (m *Metrics) InstrumentHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/metrics" {
			next.ServeHTTP(w, r)
			return
		}

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()

		m.httpInFlight.Inc()
		defer m.httpInFlight.Dec()

		next.ServeHTTP(rec, r)

		path := canonicalPath(r.URL.Path)
		method := strings.ToUpper(r.Method)
		m.httpRequests.WithLabelValues(method, path, strconv.Itoa(rec.status)).Inc()
		m.httpDuration.WithLabelValues(method, path).Observe(time.Since(start).Seconds())
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// Hijack is needed by the websocket upgrader.
func (r *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := r.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("response writer does not support hijacking")
	}
	return h.Hijack()
}

func canonicalPath(raw string) string {
	trimmed := strings.Trim(raw, "/")
	if trimmed == "" {
		return "/"
	}
	first, _, _ := strings.Cut(trimmed, "/")
	switch first {
	case "rpc", "ws", "health", "metrics":
		return "/" + first
	default:
		return "/other"
	}
}
