package api

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"iris-api/internal/config"
	"iris-api/internal/metrics"
	"iris-api/internal/monitor"
	"iris-api/internal/ratelimit"
)

const (
	roleAdmin         = "admin"
	roleDataScientist = "data_scientist"
	roleUser          = "user"
)

// RecoveryMiddleware converts panics into the standard 500 envelope.
// It sits outermost so that nothing escapes the process.
func RecoveryMiddleware(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				if log != nil {
					log.Error("panic recovered",
						zap.Any("panic", r),
						zap.String("method", c.Request.Method),
						zap.String("path", c.Request.URL.Path),
					)
				}
				abortWithDetail(c, http.StatusInternalServerError, "An unexpected error occurred")
			}
		}()
		c.Next()
	}
}

// SecurityHeadersMiddleware stamps the standard hardening headers on
// every response.
func SecurityHeadersMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		h := c.Writer.Header()
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("X-XSS-Protection", "1; mode=block")
		h.Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		h.Set("Content-Security-Policy", "default-src 'self'")
		c.Next()
	}
}

// RequestIDMiddleware tags every request with an ID for cross-log
// correlation, honoring one supplied by the caller.
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := strings.TrimSpace(c.GetHeader("X-Request-ID"))
		if id == "" {
			id = uuid.NewString()
		}
		c.Set("request_id", id)
		c.Header("X-Request-ID", id)
		c.Next()
	}
}

// CORSMiddleware answers preflight requests and marks allowed origins.
// An allowlist of ["*"] admits every origin.
func CORSMiddleware(allowedOrigins []string) gin.HandlerFunc {
	allowAll := false
	allowed := map[string]struct{}{}
	for _, origin := range allowedOrigins {
		if origin == "*" {
			allowAll = true
		}
		allowed[origin] = struct{}{}
	}
	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		if origin != "" {
			if allowAll {
				c.Header("Access-Control-Allow-Origin", "*")
			} else if _, ok := allowed[origin]; ok {
				c.Header("Access-Control-Allow-Origin", origin)
				c.Header("Vary", "Origin")
			}
			c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			c.Header("Access-Control-Allow-Headers", "Authorization, Content-Type, X-API-Key, X-Request-ID")
		}
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

// MonitorMiddleware feeds every request through the monitor exactly
// once and keeps the Prometheus view in step with it. Panics are
// recorded as 500s and re-raised for the recovery layer to answer.
func MonitorMiddleware(mon *monitor.Monitor, m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		if m != nil {
			m.InFlight.Inc()
		}
		defer func() {
			if m != nil {
				m.InFlight.Dec()
			}
			duration := time.Since(start)
			method := c.Request.Method
			path := c.FullPath()
			if path == "" {
				path = c.Request.URL.Path
			}
			client := c.ClientIP()
			if r := recover(); r != nil {
				if mon != nil {
					mon.RecordRequest(method, path, client, http.StatusInternalServerError, duration, fmt.Sprint(r))
				}
				if m != nil {
					m.ObserveRequest(method, path, http.StatusInternalServerError, duration.Seconds())
				}
				panic(r)
			}
			status := c.Writer.Status()
			if mon != nil {
				mon.RecordRequest(method, path, client, status, duration, "")
			}
			if m != nil {
				m.ObserveRequest(method, path, status, duration.Seconds())
			}
		}()
		c.Next()
	}
}

// RateLimitMiddleware enforces the per-client request budget. Paths on
// the skip list (health checks, docs) are never limited. It runs inside
// MonitorMiddleware so rejected requests still show up in the history.
func RateLimitMiddleware(limiter *ratelimit.Limiter, m *metrics.Metrics, skipPaths []string) gin.HandlerFunc {
	skip := make(map[string]struct{}, len(skipPaths))
	for _, path := range skipPaths {
		skip[path] = struct{}{}
	}
	return func(c *gin.Context) {
		if limiter == nil {
			c.Next()
			return
		}
		if _, ok := skip[c.Request.URL.Path]; ok {
			c.Next()
			return
		}
		if limiter.IsRateLimited(c.ClientIP()) {
			if m != nil {
				m.IncRateLimited()
			}
			abortWithDetail(c, http.StatusTooManyRequests, "Too many requests. Please try again later.")
			return
		}
		c.Next()
	}
}

// AuthMiddleware resolves the caller's role from its API token. Token
// values come from configuration and may use the env: and file:
// indirections; values with a sha256: prefix are matched against the
// digest of the presented token. With security disabled every request
// runs as admin.
func AuthMiddleware(cfg config.SecurityConfig, log *zap.Logger) gin.HandlerFunc {
	plain := map[string]string{}
	hashed := map[string]string{}
	for _, token := range cfg.Tokens {
		value := config.ResolveSecret(token.Value)
		if value == "" || token.Role == "" {
			continue
		}
		role := strings.ToLower(token.Role)
		if strings.HasPrefix(value, "sha256:") {
			hashed[strings.ToLower(strings.TrimPrefix(value, "sha256:"))] = role
			continue
		}
		plain[value] = role
	}
	public := map[string]struct{}{}
	for _, path := range cfg.PublicPaths {
		public[path] = struct{}{}
	}
	return func(c *gin.Context) {
		if !cfg.Enabled || !cfg.RequireAuth {
			c.Set("role", roleAdmin)
			c.Next()
			return
		}
		if _, ok := public[c.Request.URL.Path]; ok {
			c.Next()
			return
		}
		if len(plain)+len(hashed) == 0 {
			abortWithDetail(c, http.StatusServiceUnavailable, "auth not configured")
			return
		}
		token := strings.TrimSpace(c.GetHeader("X-API-Key"))
		if token == "" {
			auth := c.GetHeader("Authorization")
			if strings.HasPrefix(strings.ToLower(auth), "bearer ") {
				token = strings.TrimSpace(auth[7:])
			}
		}
		if token == "" {
			abortWithDetail(c, http.StatusUnauthorized, "Not authenticated")
			return
		}
		role, ok := plain[token]
		if !ok {
			sum := sha256.Sum256([]byte(token))
			role, ok = hashed[hex.EncodeToString(sum[:])]
		}
		if !ok {
			abortWithDetail(c, http.StatusUnauthorized, "Invalid API key")
			return
		}
		if log != nil {
			log.Debug("auth ok", zap.String("role", role), zap.String("path", c.FullPath()))
		}
		c.Set("role", role)
		c.Next()
	}
}

// RequireRole gates a route on the role hierarchy: admin above data
// scientist above user. A request with no resolved role is denied.
func RequireRole(required string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !roleAllowed(c.GetString("role"), required) {
			abortWithDetail(c, http.StatusForbidden, forbiddenDetail(required))
			return
		}
		c.Next()
	}
}

func forbiddenDetail(required string) string {
	switch required {
	case roleAdmin:
		return "Admin role required"
	case roleDataScientist:
		return "Data scientist or admin role required"
	default:
		return "Insufficient permissions"
	}
}

func roleAllowed(actual string, required string) bool {
	order := map[string]int{
		roleUser:          1,
		roleDataScientist: 2,
		roleAdmin:         3,
	}
	return order[strings.ToLower(actual)] >= order[strings.ToLower(required)]
}

// AuditMiddleware logs non-GET requests with the acting role once the
// handler finishes.
func AuditMiddleware(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		if log == nil {
			return
		}
		if c.Request.Method == http.MethodGet {
			return
		}
		log.Info("audit",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.String("role", c.GetString("role")),
		)
	}
}

// RequestLogMiddleware writes one log line on the way in and one on
// the way out, and mirrors the completion entry to the optional
// shipping hooks without blocking the response.
func RequestLogMiddleware(log *zap.Logger, hooks ...func(map[string]any)) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		if log != nil {
			log.Info("request",
				zap.String("method", c.Request.Method),
				zap.String("path", c.Request.URL.Path),
				zap.String("client", c.ClientIP()),
				zap.String("query", c.Request.URL.RawQuery),
			)
		}
		c.Next()
		durationMs := float64(time.Since(start).Microseconds()) / 1000.0
		status := c.Writer.Status()
		if log != nil {
			log.Info("response",
				zap.String("method", c.Request.Method),
				zap.String("path", c.Request.URL.Path),
				zap.Int("status", status),
				zap.Float64("duration_ms", durationMs),
				zap.String("request_id", c.GetString("request_id")),
			)
		}
		if len(hooks) == 0 {
			return
		}
		entry := map[string]any{
			"method":      c.Request.Method,
			"path":        c.Request.URL.Path,
			"status":      status,
			"duration_ms": durationMs,
			"client":      c.ClientIP(),
			"request_id":  c.GetString("request_id"),
		}
		for _, hook := range hooks {
			if hook == nil {
				continue
			}
			go hook(entry)
		}
	}
}
