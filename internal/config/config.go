package config

import (
	"bytes"
	"fmt"

	"github.com/spf13/viper"
)

type Config struct {
	API         APIConfig         `mapstructure:"api"`
	Security    SecurityConfig    `mapstructure:"security"`
	RateLimit   RateLimitConfig   `mapstructure:"rate_limit"`
	Monitor     MonitorConfig     `mapstructure:"monitor"`
	Metrics     MetricsConfig     `mapstructure:"metrics"`
	Model       ModelConfig       `mapstructure:"model"`
	Logging     LoggingConfig     `mapstructure:"logging"`
	Enrich      EnrichConfig      `mapstructure:"enrich"`
	CORS        CORSConfig        `mapstructure:"cors"`
	Pprof       PprofConfig       `mapstructure:"pprof"`
	Compression CompressionConfig `mapstructure:"compression"`
}

type APIConfig struct {
	Address string   `mapstructure:"address"`
	H3      H3Config `mapstructure:"h3"`
}

type H3Config struct {
	Enabled  bool   `mapstructure:"enabled"`
	Address  string `mapstructure:"address"`
	CertFile string `mapstructure:"cert_file"`
	KeyFile  string `mapstructure:"key_file"`
}

type SecurityConfig struct {
	Enabled     bool          `mapstructure:"enabled"`
	RequireAuth bool          `mapstructure:"require_auth"`
	Tokens      []TokenConfig `mapstructure:"tokens"`
	PublicPaths []string      `mapstructure:"public_paths"`
}

type TokenConfig struct {
	Role  string `mapstructure:"role"`
	Value string `mapstructure:"value"`
}

type RateLimitConfig struct {
	Enabled              bool     `mapstructure:"enabled"`
	MaxRequests          int      `mapstructure:"max_requests"`
	WindowSeconds        int      `mapstructure:"window_seconds"`
	SkipPaths            []string `mapstructure:"skip_paths"`
	SweepIntervalSeconds int      `mapstructure:"sweep_interval_seconds"`
}

type MonitorConfig struct {
	HistoryLimit int          `mapstructure:"history_limit"`
	Alerts       AlertsConfig `mapstructure:"alerts"`
}

type AlertsConfig struct {
	ErrorsThreshold   int `mapstructure:"errors_threshold"`
	RequestsThreshold int `mapstructure:"requests_threshold"`
	IntervalSeconds   int `mapstructure:"interval_seconds"`
}

type MetricsConfig struct {
	Address string              `mapstructure:"address"`
	Path    string              `mapstructure:"path"`
	Export  MetricsExportConfig `mapstructure:"export"`
}

type MetricsExportConfig struct {
	Enabled         bool   `mapstructure:"enabled"`
	RemoteWriteURL  string `mapstructure:"remote_write_url"`
	IntervalSeconds int    `mapstructure:"interval_seconds"`
}

type ModelConfig struct {
	Dir     string   `mapstructure:"dir"`
	Name    string   `mapstructure:"name"`
	Version string   `mapstructure:"version"`
	S3      S3Config `mapstructure:"s3"`
}

type S3Config struct {
	Enabled         bool   `mapstructure:"enabled"`
	Endpoint        string `mapstructure:"endpoint"`
	Region          string `mapstructure:"region"`
	Bucket          string `mapstructure:"bucket"`
	Prefix          string `mapstructure:"prefix"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	UsePathStyle    bool   `mapstructure:"use_path_style"`
}

type LoggingConfig struct {
	Level      string `mapstructure:"level"`
	File       string `mapstructure:"file"`
	LokiURL    string `mapstructure:"loki_url"`
	ElasticURL string `mapstructure:"elastic_url"`
}

type EnrichConfig struct {
	GeoIPMMDB       string `mapstructure:"geoip_mmdb"`
	GeoIPURL        string `mapstructure:"geoip_url"`
	GeoIPToken      string `mapstructure:"geoip_token"`
	ASNMMDB         string `mapstructure:"asn_mmdb"`
	CacheTTLSeconds int    `mapstructure:"cache_ttl_seconds"`
}

type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

type PprofConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

type CompressionConfig struct {
	EnableGzip   bool `mapstructure:"enable_gzip"`
	EnableBrotli bool `mapstructure:"enable_brotli"`
	MinSize      int  `mapstructure:"min_size"`
}

func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return unmarshal(v)
}

func LoadFromBytes(data []byte) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")

	if err := v.ReadConfig(bytes.NewReader(data)); err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return unmarshal(v)
}

func unmarshal(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	applyDefaults(&cfg)
	if err := validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func Validate(cfg *Config) error {
	return validate(cfg)
}

func applyDefaults(cfg *Config) {
	if cfg.API.Address == "" {
		cfg.API.Address = ":8000"
	}
	if cfg.Metrics.Address == "" {
		cfg.Metrics.Address = ":9090"
	}
	if cfg.Metrics.Path == "" {
		cfg.Metrics.Path = "/metrics"
	}
	if cfg.Metrics.Export.IntervalSeconds == 0 {
		cfg.Metrics.Export.IntervalSeconds = 10
	}
	if cfg.RateLimit.MaxRequests == 0 {
		cfg.RateLimit.MaxRequests = 10
	}
	if cfg.RateLimit.WindowSeconds == 0 {
		cfg.RateLimit.WindowSeconds = 60
	}
	if cfg.RateLimit.SkipPaths == nil {
		cfg.RateLimit.SkipPaths = []string{"/health", "/docs"}
	}
	if cfg.RateLimit.SweepIntervalSeconds == 0 {
		cfg.RateLimit.SweepIntervalSeconds = 300
	}
	if cfg.Monitor.HistoryLimit == 0 {
		cfg.Monitor.HistoryLimit = 1000
	}
	if cfg.Monitor.Alerts.IntervalSeconds == 0 {
		cfg.Monitor.Alerts.IntervalSeconds = 30
	}
	if cfg.Model.Dir == "" {
		cfg.Model.Dir = "models"
	}
	if cfg.Model.Name == "" {
		cfg.Model.Name = "iris"
	}
	if cfg.Model.Version == "" {
		cfg.Model.Version = "latest"
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Enrich.CacheTTLSeconds == 0 {
		cfg.Enrich.CacheTTLSeconds = 120
	}
	if cfg.CORS.AllowedOrigins == nil {
		cfg.CORS.AllowedOrigins = []string{"*"}
	}
	if cfg.Pprof.Path == "" {
		cfg.Pprof.Path = "/debug/pprof"
	}
	if cfg.Compression.MinSize == 0 {
		cfg.Compression.MinSize = 1024
	}
	if cfg.Security.Enabled {
		cfg.Security.RequireAuth = true
	}
	if cfg.Security.PublicPaths == nil {
		cfg.Security.PublicPaths = []string{"/", "/health"}
	}
}

func validate(cfg *Config) error {
	if cfg.RateLimit.MaxRequests <= 0 {
		return fmt.Errorf("rate_limit.max_requests must be positive, got %d", cfg.RateLimit.MaxRequests)
	}
	if cfg.RateLimit.WindowSeconds <= 0 {
		return fmt.Errorf("rate_limit.window_seconds must be positive, got %d", cfg.RateLimit.WindowSeconds)
	}
	if cfg.Monitor.HistoryLimit <= 0 {
		return fmt.Errorf("monitor.history_limit must be positive, got %d", cfg.Monitor.HistoryLimit)
	}
	for i, token := range cfg.Security.Tokens {
		if token.Role == "" {
			return fmt.Errorf("security.tokens[%d].role is required", i)
		}
	}
	if cfg.Model.S3.Enabled && cfg.Model.S3.Bucket == "" {
		return fmt.Errorf("model.s3.bucket is required when s3 sync is enabled")
	}
	if cfg.API.H3.Enabled {
		if cfg.API.H3.Address == "" {
			return fmt.Errorf("api.h3.address is required when h3 is enabled")
		}
		if cfg.API.H3.CertFile == "" || cfg.API.H3.KeyFile == "" {
			return fmt.Errorf("api.h3.cert_file and api.h3.key_file are required when h3 is enabled")
		}
	}
	return nil
}
