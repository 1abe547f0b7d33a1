package api

import (
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/k-shtanenko/ridership-api/internal/config"
	"github.com/k-shtanenko/ridership-api/internal/pkg/logger"
)

const RequestIDHeader = "X-Request-ID"

type Middleware struct {
	logger         logger.Logger
	allowedOrigins []string
	cacheMaxAge    time.Duration

	limit    rate.Limit
	burst    int
	limiters map[string]*clientLimiter
	mu       sync.Mutex
	now      func() time.Time
}

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewMiddleware allows cfg.RateLimit requests per cfg.RateLimitWindow for
// each client IP.
func NewMiddleware(cfg config.APIConfig, log logger.Logger) *Middleware {
	return &Middleware{
		logger:         logger.Component(log, "middleware"),
		allowedOrigins: cfg.CorsAllowedOrigins,
		cacheMaxAge:    cfg.CacheMaxAge,
		limit:          rate.Limit(float64(cfg.RateLimit) / cfg.RateLimitWindow.Seconds()),
		burst:          cfg.RateLimit,
		limiters:       make(map[string]*clientLimiter),
		now:            time.Now,
	}
}

func (m *Middleware) RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if id == "" {
			id = uuid.New().String()
		}
		c.Set("request_id", id)
		c.Header(RequestIDHeader, id)
		c.Next()
	}
}

func (m *Middleware) CORS() gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		switch {
		case originAllowed(m.allowedOrigins, "*"):
			c.Header("Access-Control-Allow-Origin", "*")
		case origin != "" && originAllowed(m.allowedOrigins, origin):
			c.Header("Access-Control-Allow-Origin", origin)
			c.Header("Vary", "Origin")
		}
		c.Header("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, accept, origin, Cache-Control, X-Requested-With, "+RequestIDHeader)
		c.Header("Access-Control-Allow-Methods", "POST, OPTIONS, GET")
		c.Header("Access-Control-Expose-Headers", "Content-Disposition, "+RequestIDHeader)

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

func (m *Middleware) Logging() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		if raw := c.Request.URL.RawQuery; raw != "" {
			path += "?" + raw
		}

		c.Next()

		fields := map[string]interface{}{
			"status":     c.Writer.Status(),
			"latency":    time.Since(start).String(),
			"client_ip":  c.ClientIP(),
			"method":     c.Request.Method,
			"path":       path,
			"request_id": c.GetString("request_id"),
		}

		if len(c.Errors) > 0 {
			m.logger.WithFields(fields).Error(c.Errors.String())
			return
		}
		m.logger.WithFields(fields).Info("HTTP request")
	}
}

func (m *Middleware) RateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !m.limiter(c.ClientIP()).Allow() {
			m.logger.Warnf("Rate limit exceeded for IP: %s", c.ClientIP())
			c.AbortWithStatusJSON(http.StatusTooManyRequests, ErrorResponse{
				Error:   http.StatusText(http.StatusTooManyRequests),
				Message: "Rate limit exceeded",
				Time:    time.Now(),
			})
			return
		}
		c.Next()
	}
}

func (m *Middleware) limiter(ip string) *rate.Limiter {
	m.mu.Lock()
	defer m.mu.Unlock()

	l, ok := m.limiters[ip]
	if !ok {
		l = &clientLimiter{limiter: rate.NewLimiter(m.limit, m.burst)}
		m.limiters[ip] = l
	}
	l.lastSeen = m.now()
	return l.limiter
}

// SweepLimiters forgets clients idle for longer than idle and returns how
// many were removed. A client idle for a full rate window has a full bucket
// again, so dropping its limiter changes nothing for it.
func (m *Middleware) SweepLimiters(idle time.Duration) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	cutoff := m.now().Add(-idle)
	removed := 0
	for ip, l := range m.limiters {
		if l.lastSeen.Before(cutoff) {
			delete(m.limiters, ip)
			removed++
		}
	}
	if removed > 0 {
		m.logger.Debugf("Removed %d idle rate limiters", removed)
	}
	return removed
}

func (m *Middleware) LimiterCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.limiters)
}

// Cache marks successful GET responses cacheable by clients. Views change
// when the dataset is regenerated, so the max age stays short. Errors and
// every other method get no-store.
func (m *Middleware) Cache() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Cache-Control", "no-store")
		if c.Request.Method != http.MethodGet || m.cacheMaxAge <= 0 {
			c.Next()
			return
		}

		c.Writer = &cacheControlWriter{
			ResponseWriter: c.Writer,
			value:          fmt.Sprintf("public, max-age=%d", int(m.cacheMaxAge.Seconds())),
		}
		c.Next()
	}
}

// cacheControlWriter sets Cache-Control from the final status right before
// the headers go out. Responses that never reach it keep no-store.
type cacheControlWriter struct {
	gin.ResponseWriter
	value string
}

func (w *cacheControlWriter) WriteHeaderNow() {
	w.decide()
	w.ResponseWriter.WriteHeaderNow()
}

func (w *cacheControlWriter) Write(data []byte) (int, error) {
	w.decide()
	return w.ResponseWriter.Write(data)
}

func (w *cacheControlWriter) WriteString(s string) (int, error) {
	w.decide()
	return w.ResponseWriter.WriteString(s)
}

func (w *cacheControlWriter) decide() {
	if w.Written() {
		return
	}
	if code := w.Status(); code >= http.StatusOK && code < http.StatusMultipleChoices {
		w.Header().Set("Cache-Control", w.value)
	}
}

func (m *Middleware) Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				m.logger.Errorf("Panic recovered: %v", err)
				c.AbortWithStatusJSON(http.StatusInternalServerError, ErrorResponse{
					Error:   http.StatusText(http.StatusInternalServerError),
					Message: "An unexpected error occurred",
					Time:    time.Now(),
				})
			}
		}()
		c.Next()
	}
}

func originAllowed(allowed []string, origin string) bool {
	for _, o := range allowed {
		if o == "*" || strings.EqualFold(o, origin) {
			return true
		}
	}
	return false
}
