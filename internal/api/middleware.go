// internal/api/middleware.go
package api

import (
	"strconv"
	"strings"
	"time"

	"wastewise/internal/authsvc"
	"wastewise/internal/common/errors"
	"wastewise/internal/common/logger"
	"wastewise/internal/common/metrics"
	"wastewise/internal/common/observability"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Context keys shared between middleware and handlers.
const (
	ctxRequestID = "request_id"
	ctxUserID    = "user_id"
	ctxUserEmail = "user_email"
	ctxToken     = "bearer_token"
)

// RequestID tags every request with an id, honoring one supplied by the
// caller so ids survive proxy hops.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader("X-Request-ID")
		if requestID == "" {
			requestID = uuid.New().String()
		}
		c.Set(ctxRequestID, requestID)
		c.Header("X-Request-ID", requestID)
		c.Next()
	}
}

// AccessLog writes one structured line per request.
func AccessLog(log logger.Logger) gin.HandlerFunc {
	accessLog := log.Named("http")
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		fields := map[string]interface{}{
			"requestId": c.GetString(ctxRequestID),
			"method":    c.Request.Method,
			"path":      c.Request.URL.Path,
			"status":    c.Writer.Status(),
			"duration":  time.Since(start).String(),
			"clientIp":  c.ClientIP(),
		}
		if userID := c.GetString(ctxUserID); userID != "" {
			fields["userId"] = userID
		}
		if c.Writer.Status() >= 500 {
			accessLog.Error("Request completed", fields)
			return
		}
		accessLog.Info("Request completed", fields)
	}
}

// Metrics records prometheus counters and latency per route.
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}

		metrics.RequestsInFlight.WithLabelValues(route).Inc()
		start := time.Now()
		c.Next()
		metrics.RequestsInFlight.WithLabelValues(route).Dec()

		status := strconv.Itoa(c.Writer.Status())
		metrics.RequestsTotal.WithLabelValues(route, c.Request.Method, status).Inc()
		metrics.RequestDuration.WithLabelValues(route, c.Request.Method).Observe(time.Since(start).Seconds())
	}
}

// Telemetry mirrors the request counters and latency into the OTel
// meter when telemetry is configured.
func Telemetry(obs *observability.Observability) gin.HandlerFunc {
	return func(c *gin.Context) {
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}

		start := time.Now()
		c.Next()

		ctx := c.Request.Context()
		obs.RecordRequest(ctx, route, strconv.Itoa(c.Writer.Status()))
		obs.RecordRequestDuration(ctx, route, time.Since(start))
	}
}

// Tracing opens a span per request when tracing is configured.
func Tracing(tracing *observability.Tracing) gin.HandlerFunc {
	return func(c *gin.Context) {
		if tracing == nil {
			c.Next()
			return
		}
		ctx, span := tracing.StartSpan(c.Request.Context(), c.Request.Method+" "+c.FullPath())
		defer span.End()

		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// Auth validates the Bearer token and stores the caller's identity in
// the request context. Revoked tokens are rejected.
func Auth(auth *authsvc.Service, responder *errors.HTTPResponder) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" || !strings.HasPrefix(header, "Bearer ") {
			responder.Respond(c, errors.NewTokenInvalidError("missing bearer token"))
			return
		}

		tokenString := strings.TrimPrefix(header, "Bearer ")
		claims, err := auth.Authenticate(c.Request.Context(), tokenString)
		if err != nil {
			responder.Respond(c, err)
			return
		}

		c.Set(ctxUserID, claims.Subject)
		c.Set(ctxUserEmail, claims.Email)
		c.Set(ctxToken, tokenString)
		c.Next()
	}
}
