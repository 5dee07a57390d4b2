package metrics

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"

	"iris-api/internal/config"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	RequestsTotal    *prometheus.CounterVec
	ErrorsTotal      *prometheus.CounterVec
	RequestDuration  *prometheus.HistogramVec
	InFlight         prometheus.Gauge
	RateLimitedTotal prometheus.Counter
	PredictionsTotal *prometheus.CounterVec

	requestsCount    atomic.Uint64
	errorsCount      atomic.Uint64
	rateLimitedCount atomic.Uint64
	predictionsCount atomic.Uint64

	mu                   sync.Mutex
	predictionsBySpecies map[string]uint64
}

func New() *Metrics {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

func NewWithRegistry(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		RequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "iris_api_requests_total",
			Help: "Total number of HTTP requests handled",
		}, []string{"method", "path", "status"}),
		ErrorsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "iris_api_errors_total",
			Help: "Total number of HTTP responses with status >= 400",
		}, []string{"method", "path", "status"}),
		RequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "iris_api_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path"}),
		InFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "iris_api_requests_in_flight",
			Help: "Number of HTTP requests currently being served",
		}),
		RateLimitedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "iris_api_rate_limited_total",
			Help: "Total number of requests rejected by the rate limiter",
		}),
		PredictionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "iris_api_predictions_total",
			Help: "Predictions served by predicted species",
		}, []string{"species"}),
		predictionsBySpecies: map[string]uint64{},
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(
		m.RequestsTotal,
		m.ErrorsTotal,
		m.RequestDuration,
		m.InFlight,
		m.RateLimitedTotal,
		m.PredictionsTotal,
	)
	return m
}

func (m *Metrics) ObserveRequest(method, path string, status int, seconds float64) {
	code := strconv.Itoa(status)
	m.requestsCount.Add(1)
	m.RequestsTotal.WithLabelValues(method, path, code).Inc()
	m.RequestDuration.WithLabelValues(method, path).Observe(seconds)
	if status >= 400 {
		m.errorsCount.Add(1)
		m.ErrorsTotal.WithLabelValues(method, path, code).Inc()
	}
}

func (m *Metrics) IncRateLimited() {
	m.rateLimitedCount.Add(1)
	m.RateLimitedTotal.Inc()
}

func (m *Metrics) IncPrediction(species string) {
	if species == "" {
		return
	}
	m.predictionsCount.Add(1)
	m.PredictionsTotal.WithLabelValues(species).Inc()
	m.mu.Lock()
	m.predictionsBySpecies[species]++
	m.mu.Unlock()
}

type Snapshot struct {
	Requests             uint64
	Errors               uint64
	RateLimited          uint64
	Predictions          uint64
	PredictionsBySpecies map[string]uint64
}

func (m *Metrics) Snapshot() Snapshot {
	m.mu.Lock()
	species := make(map[string]uint64, len(m.predictionsBySpecies))
	for k, v := range m.predictionsBySpecies {
		species[k] = v
	}
	m.mu.Unlock()
	return Snapshot{
		Requests:             m.requestsCount.Load(),
		Errors:               m.errorsCount.Load(),
		RateLimited:          m.rateLimitedCount.Load(),
		Predictions:          m.predictionsCount.Load(),
		PredictionsBySpecies: species,
	}
}

func StartServer(ctx context.Context, cfg config.MetricsConfig) error {
	mux := http.NewServeMux()
	mux.Handle(cfg.Path, promhttp.Handler())

	srv := &http.Server{
		Addr:    cfg.Address,
		Handler: mux,
	}

	go func() {
		<-ctx.Done()
		_ = srv.Close()
	}()

	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("metrics server: %w", err)
	}
	return nil
}
