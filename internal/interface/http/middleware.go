package http

import (
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yanqian/airboard/internal/infra/config"
)

const (
	requestIDHeader = "X-Request-ID"
	requestIDKey    = "request_id"
)

// requestIDMiddleware propagates or assigns a request id for log correlation.
func requestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := strings.TrimSpace(c.GetHeader(requestIDHeader))
		if id == "" || len(id) > 64 {
			id = uuid.NewString()
		}
		c.Set(requestIDKey, id)
		c.Writer.Header().Set(requestIDHeader, id)
		c.Next()
	}
}

func requestLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		latency := time.Since(start)
		logger.Info("http request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"latency_ms", latency.Milliseconds(),
			"request_id", c.GetString(requestIDKey),
		)
	}
}

func errorHandlingMiddleware(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}

		httpErr := asHTTPError(c.Errors.Last().Err)
		message := httpErr.Message
		if message == "" {
			message = httpErr.Error()
		}

		if httpErr.Status >= http.StatusInternalServerError {
			logger.Error("request failed", "code", httpErr.Code, "status", httpErr.Status, "path", c.Request.URL.Path, "request_id", c.GetString(requestIDKey), "error", httpErr.Err)
		} else {
			logger.Warn("request failed", "code", httpErr.Code, "status", httpErr.Status, "path", c.Request.URL.Path, "request_id", c.GetString(requestIDKey), "error", httpErr.Err)
		}

		c.JSON(httpErr.Status, gin.H{
			"error": gin.H{
				"code":    httpErr.Code,
				"message": message,
			},
		})
	}
}

// rateLimitMiddleware applies a token bucket per client address. Rejected requests get a
// Retry-After hint and are logged with their request id.
func rateLimitMiddleware(cfg config.RateLimitConfig, logger *slog.Logger) gin.HandlerFunc {
	if !cfg.Enabled || cfg.RequestsPerMinute <= 0 {
		return func(c *gin.Context) { c.Next() }
	}

	buckets := newClientBuckets(cfg, time.Now)
	return func(c *gin.Context) {
		client := c.ClientIP()
		wait, ok := buckets.take(client)
		if ok {
			c.Next()
			return
		}
		retryAfter := int(math.Ceil(wait.Seconds()))
		c.Header("Retry-After", strconv.Itoa(retryAfter))
		logger.Warn("rate limit exceeded",
			"client", client,
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"request_id", c.GetString(requestIDKey),
			"retry_after_s", retryAfter,
		)
		abortWithError(c, NewHTTPError(http.StatusTooManyRequests, "rate_limit_exceeded", "too many requests", nil))
	}
}

// clientBuckets holds one token bucket per client. Buckets idle for longer than idleTTL
// are swept at most once per idleTTL.
type clientBuckets struct {
	mu        sync.Mutex
	buckets   map[string]*bucket
	perSecond float64
	capacity  float64
	idleTTL   time.Duration
	lastSweep time.Time
	now       func() time.Time
}

type bucket struct {
	tokens float64
	seen   time.Time
}

func newClientBuckets(cfg config.RateLimitConfig, now func() time.Time) *clientBuckets {
	capacity := float64(cfg.Burst)
	if capacity < 1 {
		capacity = 1
	}
	return &clientBuckets{
		buckets:   make(map[string]*bucket),
		perSecond: float64(cfg.RequestsPerMinute) / 60,
		capacity:  capacity,
		idleTTL:   5 * time.Minute,
		lastSweep: now(),
		now:       now,
	}
}

// take spends one token for client. When none is left it reports how long until one is.
func (b *clientBuckets) take(client string) (time.Duration, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	now := b.now()
	if now.Sub(b.lastSweep) >= b.idleTTL {
		b.sweep(now)
	}

	bk, ok := b.buckets[client]
	if !ok {
		bk = &bucket{tokens: b.capacity, seen: now}
		b.buckets[client] = bk
	} else {
		bk.tokens = math.Min(b.capacity, bk.tokens+now.Sub(bk.seen).Seconds()*b.perSecond)
		bk.seen = now
	}

	if bk.tokens >= 1 {
		bk.tokens--
		return 0, true
	}
	missing := (1 - bk.tokens) / b.perSecond
	return time.Duration(missing * float64(time.Second)), false
}

func (b *clientBuckets) sweep(now time.Time) {
	for client, bk := range b.buckets {
		if now.Sub(bk.seen) > b.idleTTL {
			delete(b.buckets, client)
		}
	}
	b.lastSweep = now
}
