package logger

import (
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// requestIDHeader is written by the request ID middleware ahead of AccessLog.
const requestIDHeader = "X-Request-ID"

// ErrorCodeKey is the gin context key under which handlers record the
// ERR_* code of a failed request.
const ErrorCodeKey = "error_code"

// AccessLog writes one "HTTP Request" line per request: error level for 5xx,
// warn for 4xx, info otherwise. Handlers downstream find a logger carrying
// the request id, method and path through FromContext or L.
func AccessLog(base *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		req := c.Request
		ctx, reqLog := WithRequestID(req.Context(),
			base.With(zap.String("method", req.Method), zap.String("path", req.URL.Path)),
			c.Writer.Header().Get(requestIDHeader))
		c.Request = req.WithContext(ctx)

		c.Next()

		status := c.Writer.Status()
		fields := []zap.Field{
			zap.Int("status", status),
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
			zap.Int("body_size", c.Writer.Size()),
		}
		if q := req.URL.RawQuery; q != "" {
			fields = append(fields, zap.String("query", q))
		}
		if route := c.FullPath(); route != "" {
			fields = append(fields, zap.String("route", route))
		}
		if caller := GetUserID(c.Request.Context()); caller != "" {
			fields = append(fields, zap.String("user_id", caller))
		}
		if code := c.GetString(ErrorCodeKey); code != "" {
			fields = append(fields, zap.String("error_code", code))
		}
		if len(c.Errors) > 0 {
			fields = append(fields, zap.Strings("errors", c.Errors.Errors()))
		}
		reqLog.Log(statusLevel(status), "HTTP Request", fields...)
	}
}

func statusLevel(status int) zapcore.Level {
	switch {
	case status >= http.StatusInternalServerError:
		return zapcore.ErrorLevel
	case status >= http.StatusBadRequest:
		return zapcore.WarnLevel
	}
	return zapcore.InfoLevel
}

// Recovery turns a handler panic into a 500 ERR_INTERNAL_ERROR envelope and
// logs the panic value with a stack trace. gin's own panic dump is discarded.
func Recovery(log *zap.Logger) gin.HandlerFunc {
	return gin.CustomRecoveryWithWriter(io.Discard, func(c *gin.Context, rec any) {
		log.Error("Panic recovered",
			zap.String("request_id", c.Writer.Header().Get(requestIDHeader)),
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Any("panic", rec),
			zap.Stack("stacktrace"),
		)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"success":   false,
			"timestamp": time.Now().UTC(),
			"error": gin.H{
				"code":    "ERR_INTERNAL_ERROR",
				"message": "An unexpected error occurred",
			},
		})
	})
}
