package logger

import (
	"context"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

type (
	loggerCtxKey    struct{}
	requestIDCtxKey struct{}
	userIDCtxKey    struct{}
)

// WithContext attaches l to ctx.
func WithContext(ctx context.Context, l *zap.Logger) context.Context {
	return context.WithValue(ctx, loggerCtxKey{}, l)
}

// FromContext returns the attached logger, or a no-op logger.
func FromContext(ctx context.Context) *zap.Logger {
	if l, ok := ctx.Value(loggerCtxKey{}).(*zap.Logger); ok {
		return l
	}
	return zap.NewNop()
}

// WithRequestID stores requestID in ctx and attaches l tagged with it.
func WithRequestID(ctx context.Context, l *zap.Logger, requestID string) (context.Context, *zap.Logger) {
	tagged := l.With(zap.String("request_id", requestID))
	ctx = context.WithValue(ctx, requestIDCtxKey{}, requestID)
	return WithContext(ctx, tagged), tagged
}

// WithUserID records the caller for L and the access log.
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDCtxKey{}, userID)
}

func GetRequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDCtxKey{}).(string)
	return id
}

func GetUserID(ctx context.Context) string {
	id, _ := ctx.Value(userIDCtxKey{}).(string)
	return id
}

// L is FromContext plus the active trace and span ids and the caller.
//
//	logger.L(ctx).Warn("Claim sync failed", zap.Int64("claim_id", id))
func L(ctx context.Context) *zap.Logger {
	l := FromContext(ctx)
	var fields []zap.Field
	if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
		fields = append(fields,
			zap.String("trace_id", sc.TraceID().String()),
			zap.String("span_id", sc.SpanID().String()))
	}
	if id := GetUserID(ctx); id != "" {
		fields = append(fields, zap.String("user_id", id))
	}
	if len(fields) == 0 {
		return l
	}
	return l.With(fields...)
}
