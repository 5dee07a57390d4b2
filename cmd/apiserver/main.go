package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"iris-api/api"
	"iris-api/internal/config"
	"iris-api/internal/logger"
	"iris-api/internal/metrics"
	"iris-api/internal/model"
	"iris-api/internal/monitor"
	"iris-api/internal/ratelimit"
	"iris-api/pkg/enrich"
	"iris-api/pkg/integrations/logs"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to config file")
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := config.Load(*configPath)
	if err != nil {
		panic(err)
	}

	log, err := logger.New(cfg.Logging)
	if err != nil {
		panic(err)
	}
	defer func() { _ = log.Sync() }()
	log.Info("config loaded", zap.String("path", *configPath))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	metricsSrv := metrics.New()
	go func() {
		if err := metrics.StartServer(ctx, cfg.Metrics); err != nil {
			log.Error("metrics server error", zap.Error(err))
		}
	}()

	mon, err := monitor.New(cfg.Monitor.HistoryLimit)
	if err != nil {
		panic(err)
	}
	limiter, err := buildLimiter(ctx, cfg)
	if err != nil {
		panic(err)
	}
	alerts := buildAlerts(ctx, cfg, mon)
	modelSvc := buildModel(ctx, cfg, log)
	enrichSvc := buildEnrich(cfg.Enrich, log)
	metrics.StartRemoteWrite(ctx, cfg.Metrics.Export, mon)

	handlers := &api.Handlers{
		Model:   modelSvc,
		Monitor: mon,
		Alerts:  alerts,
		Metrics: metricsSrv,
		Enrich:  enrichSvc,
		Log:     log,
	}
	router := newRouter(cfg, log, handlers, limiter)

	go func() {
		if err := serveAPI(ctx, cfg.API.Address, router); err != nil {
			log.Error("api server error", zap.Error(err))
		}
	}()
	if cfg.API.H3.Enabled {
		go func() {
			if err := api.StartHTTP3Server(ctx, cfg.API.H3, router); err != nil {
				log.Error("http3 server error", zap.Error(err))
			}
		}()
	}

	<-ctx.Done()
	log.Info("shutdown")
}

// newRouter assembles the middleware chain. Order matters: the monitor
// sits outside the rate limiter so rejected requests are still recorded,
// and auth runs after both so public probes never burn a token check.
func newRouter(cfg *config.Config, log *zap.Logger, handlers *api.Handlers, limiter *ratelimit.Limiter) *gin.Engine {
	router := gin.New()
	router.Use(api.RecoveryMiddleware(log))
	router.Use(api.SecurityHeadersMiddleware())
	router.Use(api.RequestIDMiddleware())
	router.Use(api.CORSMiddleware(cfg.CORS.AllowedOrigins))
	router.Use(api.MonitorMiddleware(handlers.Monitor, handlers.Metrics))
	router.Use(api.RateLimitMiddleware(limiter, handlers.Metrics, cfg.RateLimit.SkipPaths))
	router.Use(api.AuthMiddleware(cfg.Security, log))
	router.Use(api.AuditMiddleware(log))
	router.Use(api.RequestLogMiddleware(log, buildLogHooks(cfg.Logging)...))
	router.Use(api.CompressionMiddleware(cfg.Compression))

	api.RegisterRoutes(router, handlers)
	if cfg.Pprof.Enabled {
		api.RegisterPprof(router, cfg.Pprof.Path)
	}
	return router
}

func serveAPI(ctx context.Context, addr string, handler http.Handler) error {
	srv := &http.Server{
		Addr:    addr,
		Handler: handler,
	}
	go func() {
		<-ctx.Done()
		_ = srv.Close()
	}()
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func buildModel(ctx context.Context, cfg *config.Config, log *zap.Logger) *model.Service {
	if cfg.Model.S3.Enabled {
		syncModelArtifacts(ctx, cfg, log)
	}
	svc := model.NewService(cfg.Model)
	if err := svc.Load(); err != nil {
		// The API still starts; /health reports the missing model and
		// a retrain or artifact sync can bring it up later.
		log.Warn("model not loaded",
			zap.String("dir", cfg.Model.Dir),
			zap.String("name", cfg.Model.Name),
			zap.Error(err))
	}
	return svc
}

func syncModelArtifacts(ctx context.Context, cfg *config.Config, log *zap.Logger) {
	client, err := model.NewS3Client(ctx, cfg.Model.S3)
	if err != nil {
		log.Warn("s3 client unavailable", zap.Error(err))
		return
	}
	n, err := model.SyncArtifacts(ctx, client, cfg.Model.S3, cfg.Model.Dir)
	if err != nil {
		log.Warn("model artifact sync failed", zap.Error(err))
		return
	}
	log.Info("model artifacts synced", zap.Int("objects", n))
}

func buildLimiter(ctx context.Context, cfg *config.Config) (*ratelimit.Limiter, error) {
	if !cfg.RateLimit.Enabled {
		return nil, nil
	}
	limiter, err := ratelimit.New(cfg.RateLimit.MaxRequests, time.Duration(cfg.RateLimit.WindowSeconds)*time.Second)
	if err != nil {
		return nil, err
	}
	limiter.StartSweeper(ctx, time.Duration(cfg.RateLimit.SweepIntervalSeconds)*time.Second)
	return limiter, nil
}

func buildAlerts(ctx context.Context, cfg *config.Config, mon *monitor.Monitor) *monitor.AlertStore {
	acfg := cfg.Monitor.Alerts
	if acfg.ErrorsThreshold <= 0 && acfg.RequestsThreshold <= 0 {
		return nil
	}
	store := monitor.NewAlertStore(cfg.Monitor.HistoryLimit)
	monitor.StartAlertLoop(ctx, mon, store, monitor.AlertsConfig{
		ErrorsThreshold:   acfg.ErrorsThreshold,
		RequestsThreshold: acfg.RequestsThreshold,
	}, time.Duration(acfg.IntervalSeconds)*time.Second)
	return store
}

func buildEnrich(cfg config.EnrichConfig, log *zap.Logger) *enrich.Service {
	var geo enrich.Provider
	switch {
	case cfg.GeoIPMMDB != "":
		db, err := enrich.NewGeoIPMMDB(cfg.GeoIPMMDB)
		if err != nil {
			log.Warn("geoip database unavailable", zap.String("path", cfg.GeoIPMMDB), zap.Error(err))
		} else {
			geo = db
		}
	case cfg.GeoIPURL != "":
		geo = enrich.NewGeoIPHTTP(cfg.GeoIPURL, config.ResolveSecret(cfg.GeoIPToken), 0)
	}

	var asn enrich.Provider
	if cfg.ASNMMDB != "" {
		db, err := enrich.NewASNMMDB(cfg.ASNMMDB)
		if err != nil {
			log.Warn("asn database unavailable", zap.String("path", cfg.ASNMMDB), zap.Error(err))
		} else {
			asn = db
		}
	}

	if geo == nil && asn == nil {
		return nil
	}
	return enrich.NewService(geo, asn, time.Duration(cfg.CacheTTLSeconds)*time.Second)
}

func buildLogHooks(cfg config.LoggingConfig) []func(map[string]any) {
	var hooks []func(map[string]any)
	if hook := logs.NewLokiHook(cfg.LokiURL); hook != nil {
		hooks = append(hooks, hook)
	}
	if hook := logs.NewElasticHook(cfg.ElasticURL); hook != nil {
		hooks = append(hooks, hook)
	}
	return hooks
}
