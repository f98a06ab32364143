package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds Prometheus counters and gauges for the media gateway.
type Metrics struct {
	registry              *prometheus.Registry
	requestsTotal         prometheus.Counter
	errorsTotal           prometheus.Counter
	upstreamErrorsTotal   prometheus.Counter
	mockFallbacksTotal    prometheus.Counter
	playlistRewritesTotal prometheus.Counter
	streamClients         prometheus.Gauge
}

// New creates and registers Prometheus metrics for the gateway.
func New() *Metrics {
	registry := prometheus.NewRegistry()

	requestsTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "gateway_requests_total",
		Help: "Total number of HTTP requests received",
	})
	errorsTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "gateway_errors_total",
		Help: "Total number of HTTP responses with error status (4xx or 5xx)",
	})
	upstreamErrorsTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "gateway_upstream_errors_total",
		Help: "Total number of failed fetches to the camera device or HLS origin",
	})
	mockFallbacksTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "gateway_mock_fallbacks_total",
		Help: "Total number of responses served from local mock assets",
	})
	playlistRewritesTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "gateway_playlist_rewrites_total",
		Help: "Total number of HLS playlists rewritten",
	})
	streamClients := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "gateway_stream_clients",
		Help: "Number of currently connected mock MJPEG stream clients",
	})

	registry.MustRegister(
		requestsTotal,
		errorsTotal,
		upstreamErrorsTotal,
		mockFallbacksTotal,
		playlistRewritesTotal,
		streamClients,
	)

	return &Metrics{
		registry:              registry,
		requestsTotal:         requestsTotal,
		errorsTotal:           errorsTotal,
		upstreamErrorsTotal:   upstreamErrorsTotal,
		mockFallbacksTotal:    mockFallbacksTotal,
		playlistRewritesTotal: playlistRewritesTotal,
		streamClients:         streamClients,
	}
}

// IncRequests increments the total request counter.
func (m *Metrics) IncRequests() {
	m.requestsTotal.Inc()
}

// IncErrors increments the error response counter.
func (m *Metrics) IncErrors() {
	m.errorsTotal.Inc()
}

// IncUpstreamErrors increments the upstream fetch failure counter.
func (m *Metrics) IncUpstreamErrors() {
	m.upstreamErrorsTotal.Inc()
}

// IncMockFallbacks increments the mock fallback counter.
func (m *Metrics) IncMockFallbacks() {
	m.mockFallbacksTotal.Inc()
}

// IncPlaylistRewrites increments the playlist rewrite counter.
func (m *Metrics) IncPlaylistRewrites() {
	m.playlistRewritesTotal.Inc()
}

// AddStreamClient increments the connected stream client gauge.
func (m *Metrics) AddStreamClient() {
	m.streamClients.Inc()
}

// RemoveStreamClient decrements the connected stream client gauge.
func (m *Metrics) RemoveStreamClient() {
	m.streamClients.Dec()
}

// Handler returns an http.Handler that serves Prometheus metrics.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
