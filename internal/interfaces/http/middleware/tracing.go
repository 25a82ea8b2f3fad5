// Package middleware provides HTTP middleware for the claims service.
package middleware

import (
	"github.com/claimswift/backend/internal/infrastructure/logger"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// untracedPaths are polled by load balancers and would drown real traffic.
var untracedPaths = map[string]bool{
	"/health":                 true,
	"/api/v1/payments/health": true,
}

// Tracing opens one server span per request through otelgin, named
// "METHOD /route/:pattern". otelgin fails the span on 5xx responses and on
// anything a handler pushed to c.Errors. Health probes are not traced.
// With enabled false it is a pass-through.
func Tracing(service string, enabled bool) gin.HandlerFunc {
	if !enabled {
		return passThrough
	}
	return otelgin.Middleware(service,
		otelgin.WithGinFilter(func(c *gin.Context) bool {
			return !untracedPaths[c.Request.URL.Path]
		}),
		otelgin.WithSpanNameFormatter(func(c *gin.Context) string {
			if route := c.FullPath(); route != "" {
				return c.Request.Method + " " + route
			}
			return ""
		}),
	)
}

// SpanIdentity tags the request span with request_id and user_id, and with
// claims.error_code once a handler has answered with an error envelope. It
// belongs after the identity middleware.
func SpanIdentity() gin.HandlerFunc {
	return func(c *gin.Context) {
		span := trace.SpanFromContext(c.Request.Context())
		if !span.IsRecording() {
			c.Next()
			return
		}
		span.SetAttributes(
			attribute.String("request_id", GetRequestID(c)),
			attribute.String("user_id", CallerID(c)),
		)
		c.Next()
		if code := c.GetString(logger.ErrorCodeKey); code != "" {
			span.SetAttributes(attribute.String("claims.error_code", code))
		}
	}
}
