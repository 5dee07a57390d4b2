package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"iris-api/api"
	"iris-api/internal/config"
	"iris-api/internal/dataset"
	"iris-api/internal/metrics"
	"iris-api/internal/model"
	"iris-api/internal/monitor"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

func TestBuildLimiterDisabled(t *testing.T) {
	limiter, err := buildLimiter(context.Background(), &config.Config{})
	if err != nil {
		t.Fatalf("buildLimiter: %v", err)
	}
	if limiter != nil {
		t.Fatalf("expected nil limiter when rate limiting is disabled")
	}
}

func TestBuildLimiterEnabled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg := &config.Config{}
	cfg.RateLimit.Enabled = true
	cfg.RateLimit.MaxRequests = 5
	cfg.RateLimit.WindowSeconds = 2
	cfg.RateLimit.SweepIntervalSeconds = 60

	limiter, err := buildLimiter(ctx, cfg)
	if err != nil {
		t.Fatalf("buildLimiter: %v", err)
	}
	if limiter == nil {
		t.Fatalf("expected a limiter")
	}
	if limiter.MaxRequests() != 5 {
		t.Fatalf("expected max 5 requests, got %d", limiter.MaxRequests())
	}
	if limiter.Window() != 2*time.Second {
		t.Fatalf("expected 2s window, got %s", limiter.Window())
	}
}

func TestBuildAlertsWithoutThresholds(t *testing.T) {
	mon, err := monitor.New(10)
	if err != nil {
		t.Fatalf("monitor: %v", err)
	}
	cfg := &config.Config{}
	cfg.Monitor.HistoryLimit = 10

	if store := buildAlerts(context.Background(), cfg, mon); store != nil {
		t.Fatalf("expected no alert store without thresholds")
	}
}

func TestBuildAlertsEnabled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	mon, err := monitor.New(10)
	if err != nil {
		t.Fatalf("monitor: %v", err)
	}
	cfg := &config.Config{}
	cfg.Monitor.HistoryLimit = 10
	cfg.Monitor.Alerts.ErrorsThreshold = 1
	cfg.Monitor.Alerts.IntervalSeconds = 60

	store := buildAlerts(ctx, cfg, mon)
	if store == nil {
		t.Fatalf("expected an alert store")
	}
	if store.Limit() != 10 {
		t.Fatalf("expected limit 10, got %d", store.Limit())
	}
}

func TestBuildModelMissingArtifacts(t *testing.T) {
	cfg := &config.Config{}
	cfg.Model.Dir = t.TempDir()
	cfg.Model.Name = "iris"
	cfg.Model.Version = "latest"

	svc := buildModel(context.Background(), cfg, zap.NewNop())
	if svc == nil {
		t.Fatalf("expected a service even without artifacts")
	}
	if svc.Loaded() {
		t.Fatalf("expected unloaded service")
	}
}

func TestBuildModelLoadsSavedArtifacts(t *testing.T) {
	iris, err := dataset.LoadIris()
	if err != nil {
		t.Fatalf("load iris: %v", err)
	}
	artifacts, _, err := model.Train(iris.Samples, iris.Labels, dataset.FeatureNames, dataset.TargetNames, model.TrainOptions{Version: "v1"})
	if err != nil {
		t.Fatalf("train: %v", err)
	}

	dir := t.TempDir()
	if err := model.SaveArtifacts(dir, "iris", "v1", artifacts); err != nil {
		t.Fatalf("save artifacts: %v", err)
	}

	cfg := &config.Config{}
	cfg.Model.Dir = dir
	cfg.Model.Name = "iris"
	cfg.Model.Version = "latest"

	svc := buildModel(context.Background(), cfg, zap.NewNop())
	if !svc.Loaded() {
		t.Fatalf("expected loaded service")
	}
}

func TestBuildEnrichUnconfigured(t *testing.T) {
	if svc := buildEnrich(config.EnrichConfig{}, zap.NewNop()); svc != nil {
		t.Fatalf("expected nil enrich service without providers")
	}
}

func TestBuildEnrichHTTPProvider(t *testing.T) {
	cfg := config.EnrichConfig{GeoIPURL: "http://geoip.internal/lookup"}
	if svc := buildEnrich(cfg, zap.NewNop()); svc == nil {
		t.Fatalf("expected enrich service with http provider")
	}
}

func TestBuildEnrichMissingDatabase(t *testing.T) {
	cfg := config.EnrichConfig{GeoIPMMDB: "/nonexistent/geoip.mmdb"}
	if svc := buildEnrich(cfg, zap.NewNop()); svc != nil {
		t.Fatalf("expected nil enrich service when the database cannot be opened")
	}
}

func TestBuildLogHooks(t *testing.T) {
	if hooks := buildLogHooks(config.LoggingConfig{}); len(hooks) != 0 {
		t.Fatalf("expected no hooks, got %d", len(hooks))
	}
	cfg := config.LoggingConfig{
		LokiURL:    "http://loki.internal/api/v1/push",
		ElasticURL: "http://elastic.internal/logs/_doc",
	}
	if hooks := buildLogHooks(cfg); len(hooks) != 2 {
		t.Fatalf("expected 2 hooks, got %d", len(hooks))
	}
}

func TestNewRouterChain(t *testing.T) {
	gin.SetMode(gin.TestMode)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := config.LoadFromBytes([]byte(`
api:
  address: ":0"
rate_limit:
  enabled: true
  max_requests: 1
  window_seconds: 60
monitor:
  history_limit: 50
`))
	if err != nil {
		t.Fatalf("load config: %v", err)
	}

	mon, err := monitor.New(cfg.Monitor.HistoryLimit)
	if err != nil {
		t.Fatalf("monitor: %v", err)
	}
	limiter, err := buildLimiter(ctx, cfg)
	if err != nil {
		t.Fatalf("buildLimiter: %v", err)
	}
	handlers := &api.Handlers{
		Model:   model.NewService(cfg.Model),
		Monitor: mon,
		Metrics: metrics.NewWithRegistry(prometheus.NewRegistry()),
		Log:     zap.NewNop(),
	}
	router := newRouter(cfg, zap.NewNop(), handlers, limiter)

	first := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.1.1.1:1234"
	router.ServeHTTP(first, req)

	if first.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", first.Code)
	}
	if first.Header().Get("X-Request-ID") == "" {
		t.Fatalf("expected a request id header")
	}
	if first.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Fatalf("expected security headers on the response")
	}

	second := httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.1.1.1:1234"
	router.ServeHTTP(second, req)

	if second.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", second.Code)
	}
	var body map[string]any
	if err := json.Unmarshal(second.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal 429 body: %v", err)
	}
	if body["detail"] != "Too many requests. Please try again later." {
		t.Fatalf("unexpected detail: %v", body["detail"])
	}

	stats := mon.Statistics()
	if stats.TotalRequests != 2 {
		t.Fatalf("expected 2 recorded requests, got %d", stats.TotalRequests)
	}
	if stats.TotalErrors != 1 {
		t.Fatalf("expected the 429 to count as an error, got %d", stats.TotalErrors)
	}
}
