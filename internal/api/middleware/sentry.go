package middleware

import (
	"fmt"
	"net/http"
	"time"

	"github.com/getsentry/sentry-go"
	sentrygin "github.com/getsentry/sentry-go/gin"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/Conceptual-Machines/magda-composer/internal/logger"
	"github.com/Conceptual-Machines/magda-composer/internal/metrics"
)

// RequestIDHeader carries the request id; a gateway may set it to correlate logs
const RequestIDHeader = "X-Request-ID"

var sentryMetrics = metrics.NewSentryMetrics()

// route names the matched route for logs and metrics, so ids in paths do not explode cardinality
func route(c *gin.Context) string {
	if r := c.FullPath(); r != "" {
		return r
	}
	return "unmatched"
}

// RequestTracking assigns a request id, tags the Sentry scope with it and the owner, and records
// the outcome of every request. cloudWatch may be nil.
func RequestTracking(cloudWatch *metrics.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(RequestIDHeader)
		if requestID == "" {
			requestID = uuid.New().String()
		}
		c.Set("request_id", requestID)
		c.Header(RequestIDHeader, requestID)

		if hub := sentrygin.GetHubFromContext(c); hub != nil {
			hub.Scope().SetTag("request_id", requestID)
		}

		start := time.Now()
		c.Next()
		duration := time.Since(start)
		status := c.Writer.Status()

		fields := logger.Fields{"route": route(c), "owner": c.GetString("user_id")}
		switch {
		case status >= http.StatusInternalServerError:
			fields["request_id"] = requestID
			fields["status_code"] = status
			fields["duration_ms"] = duration.Milliseconds()
			logger.Error("Request failed", c.Errors.Last(), fields)
		case status >= http.StatusBadRequest:
			fields["request_id"] = requestID
			fields["status_code"] = status
			fields["errors"] = c.Errors.String()
			logger.Warn("Request rejected", fields)
		default:
			logger.LogAPIRequest(c, duration, status, fields)
		}

		sentryMetrics.RecordAPIRequest(c.Request.Context(), route(c), status, duration)
		cloudWatch.RecordAPIRequest(route(c), status, duration)
	}
}

// SentryMiddleware binds a Sentry hub to each request. Panics are reported here and
// re-raised for RecoverWithSentry to answer.
func SentryMiddleware() gin.HandlerFunc {
	return sentrygin.New(sentrygin.Options{Repanic: true})
}

// RecoverWithSentry turns a panic into a 500 response carrying the request id
func RecoverWithSentry() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			recovered := recover()
			if recovered == nil {
				return
			}
			if hub := sentrygin.GetHubFromContext(c); hub != nil {
				hub.Scope().SetUser(sentry.User{ID: Owner(c)})
			}

			// sentrygin already captured the panic; log it without a second report
			logger.Error("Panic recovered", nil, logger.Fields{
				"request_id": c.GetString("request_id"),
				"route":      route(c),
				"panic":      fmt.Sprint(recovered),
			})
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
				"error":      "Internal server error",
				"request_id": c.GetString("request_id"),
			})
		}()
		c.Next()
	}
}
