package handlers

import (
	"audit-service/internal/metrics"
	"audit-service/internal/models"
	"audit-service/internal/services"
	"audit-service/utils"
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const claimsKey = "claims"

type claimsCtxKey struct{}

type Middleware struct {
	jwtService *services.JWTService
	logger     *zap.Logger
}

func NewMiddleware(jwtService *services.JWTService, logger *zap.Logger) *Middleware {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Middleware{
		jwtService: jwtService,
		logger:     logger,
	}
}

// RequireAuth admits only requests carrying a valid bearer token. Every failure gets the same 401.
func (m *Middleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString, ok := extractBearerToken(c.GetHeader("Authorization"))
		if !ok {
			m.reject(c, "missing bearer token")
			return
		}

		claims, err := m.jwtService.VerifyToken(tokenString)
		if err != nil {
			m.reject(c, err.Error())
			return
		}

		c.Set(claimsKey, claims)
		c.Request = c.Request.WithContext(context.WithValue(c.Request.Context(), claimsCtxKey{}, claims))
		c.Next()
	}
}

// RequireAdmin must run after RequireAuth.
func (m *Middleware) RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := GetClaims(c)
		if !ok {
			m.reject(c, "no claims on context")
			return
		}
		if !claims.IsAdmin() {
			c.AbortWithStatusJSON(http.StatusForbidden, utils.CreateErrorResponse("FORBIDDEN", "Supervisor access required"))
			return
		}
		c.Next()
	}
}

func (m *Middleware) reject(c *gin.Context, reason string) {
	m.logger.Debug("request rejected by access gate",
		zap.String("path", c.Request.URL.Path),
		zap.String("reason", reason))
	c.AbortWithStatusJSON(http.StatusUnauthorized, utils.CreateErrorResponse("UNAUTHORIZED", msgUnauthorized))
}

// GetClaims returns the claims attached by RequireAuth.
func GetClaims(c *gin.Context) (*models.Claims, bool) {
	value, ok := c.Get(claimsKey)
	if !ok {
		return nil, false
	}
	claims, ok := value.(*models.Claims)
	return claims, ok && claims != nil
}

// ClaimsFromContext returns the claims attached by RequireAuth to the request context.
func ClaimsFromContext(ctx context.Context) (*models.Claims, bool) {
	claims, ok := ctx.Value(claimsCtxKey{}).(*models.Claims)
	return claims, ok && claims != nil
}

func extractBearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// RequestLogger logs one line per request. Headers and bodies are never logged.
func RequestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
		}
		if c.Writer.Status() >= http.StatusInternalServerError {
			logger.Warn("request served", fields...)
			return
		}
		logger.Info("request served", fields...)
	}
}

// Metrics records request counts and latency per route template.
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		metrics.HTTPInFlight.Inc()
		defer metrics.HTTPInFlight.Dec()

		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		metrics.HTTPRequests.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
		metrics.HTTPDuration.WithLabelValues(c.Request.Method, route).Observe(time.Since(start).Seconds())
	}
}

// CorsMiddleware allows the listed origins. A "*" entry allows every origin without credentials.
func CorsMiddleware(allowedOrigins []string) gin.HandlerFunc {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Content-Length", "Accept", "Authorization", "X-Requested-With"},
		ExposeHeaders: []string{"Content-Length", "Content-Type"},
		MaxAge:        12 * time.Hour,
	}
	allowAll := len(allowedOrigins) == 0
	for _, o := range allowedOrigins {
		if o == "*" {
			allowAll = true
		}
	}
	if allowAll {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = allowedOrigins
		cfg.AllowCredentials = true
	}
	return cors.New(cfg)
}

// RecoveryHandler turns panics into the standard 500 envelope.
func RecoveryHandler(logger *zap.Logger, exposeDetails bool) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}
	w := errorWriter{exposeDetails: exposeDetails, logger: logger}
	return gin.CustomRecovery(func(c *gin.Context, recovered any) {
		w.internal(c, fmt.Errorf("panic: %v", recovered))
		c.Abort()
	})
}

// RateLimiter is a token bucket per client IP. Idle buckets are dropped after ttl.
type RateLimiter struct {
	mu        sync.Mutex
	buckets   map[string]*bucket
	perSecond rate.Limit
	burst     int
	ttl       time.Duration
	lastSweep time.Time
	now       func() time.Time
}

type bucket struct {
	lim      *rate.Limiter
	lastSeen time.Time
}

func NewRateLimiter(perSecond float64, burst int) *RateLimiter {
	if burst < 1 {
		burst = 1
	}
	return &RateLimiter{
		buckets:   make(map[string]*bucket),
		perSecond: rate.Limit(perSecond),
		burst:     burst,
		ttl:       5 * time.Minute,
		lastSweep: time.Now(),
		now:       time.Now,
	}
}

func (rl *RateLimiter) Allow(key string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	if now.Sub(rl.lastSweep) > time.Minute {
		for k, b := range rl.buckets {
			if now.Sub(b.lastSeen) > rl.ttl {
				delete(rl.buckets, k)
			}
		}
		rl.lastSweep = now
	}

	b, ok := rl.buckets[key]
	if !ok {
		b = &bucket{lim: rate.NewLimiter(rl.perSecond, rl.burst)}
		rl.buckets[key] = b
	}
	b.lastSeen = now
	return b.lim.AllowN(now, 1)
}

func (rl *RateLimiter) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		ip := c.ClientIP()
		if ip == "" {
			ip = "unknown"
		}
		if !rl.Allow(ip) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, utils.CreateErrorResponse("RATE_LIMITED", "Too many attempts, slow down"))
			return
		}
		c.Next()
	}
}
