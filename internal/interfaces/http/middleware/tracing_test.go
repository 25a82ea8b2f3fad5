package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/claimswift/backend/internal/infrastructure/logger"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func recordSpans(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	prevTP, prevProp := otel.GetTracerProvider(), otel.GetTextMapPropagator()
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.TraceContext{})
	t.Cleanup(func() {
		_ = tp.Shutdown(t.Context())
		otel.SetTracerProvider(prevTP)
		otel.SetTextMapPropagator(prevProp)
	})
	return sr
}

// paymentsAPI answers GET /api/v1/payments/:id with status, recording code
// and, for 5xx, a gin error the way handlers do.
func paymentsAPI(status int, code string) *gin.Engine {
	r := gin.New()
	r.Use(RequestID(), Tracing("claims-test", true), HeaderIdentity(), SpanIdentity())
	r.GET("/api/v1/payments/:id", func(c *gin.Context) {
		if code != "" {
			c.Set(logger.ErrorCodeKey, code)
		}
		if status >= http.StatusInternalServerError {
			_ = c.Error(errors.New("gateway unavailable"))
		}
		c.Status(status)
	})
	r.GET("/api/v1/payments/health", func(c *gin.Context) { c.Status(http.StatusOK) })
	return r
}

func attrsOf(s sdktrace.ReadOnlySpan) map[attribute.Key]attribute.Value {
	out := map[attribute.Key]attribute.Value{}
	for _, kv := range s.Attributes() {
		out[kv.Key] = kv.Value
	}
	return out
}

func TestTracing_Disabled(t *testing.T) {
	sr := recordSpans(t)
	r := gin.New()
	r.Use(Tracing("claims-test", false))
	r.GET("/api/v1/claims", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/claims", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, sr.Ended())
}

func TestTracing_SpanNameAndIdentity(t *testing.T) {
	sr := recordSpans(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/payments/9", nil)
	req.Header.Set(RequestIDHeader, "req-123")
	req.Header.Set(UserIDHeader, "finance-1")
	paymentsAPI(http.StatusOK, "").ServeHTTP(httptest.NewRecorder(), req)

	spans := sr.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "GET /api/v1/payments/:id", spans[0].Name())
	attrs := attrsOf(spans[0])
	assert.Equal(t, "req-123", attrs["request_id"].AsString())
	assert.Equal(t, "finance-1", attrs["user_id"].AsString())
	assert.NotContains(t, attrs, attribute.Key("claims.error_code"))
	assert.NotEqual(t, codes.Error, spans[0].Status().Code)
}

func TestTracing_HealthIsNotTraced(t *testing.T) {
	sr := recordSpans(t)
	paymentsAPI(http.StatusOK, "").ServeHTTP(httptest.NewRecorder(),
		httptest.NewRequest(http.MethodGet, "/api/v1/payments/health", nil))
	assert.Empty(t, sr.Ended())
}

func TestSpanIdentity_ErrorCodes(t *testing.T) {
	tests := []struct {
		status    int
		code      string
		wantError bool
	}{
		{http.StatusNotFound, "ERR_PAYMENT_NOT_FOUND", false},
		{http.StatusConflict, "ERR_PAYMENT_ALREADY_EXISTS", false},
		{http.StatusBadGateway, "ERR_SERVICE_COMMUNICATION", true},
	}
	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			sr := recordSpans(t)
			paymentsAPI(tt.status, tt.code).ServeHTTP(httptest.NewRecorder(),
				httptest.NewRequest(http.MethodGet, "/api/v1/payments/9", nil))

			spans := sr.Ended()
			require.Len(t, spans, 1)
			assert.Equal(t, tt.code, attrsOf(spans[0])["claims.error_code"].AsString())
			assert.Equal(t, tt.wantError, spans[0].Status().Code == codes.Error)
		})
	}
}

func TestSpanIdentity_NoSpan(t *testing.T) {
	r := gin.New()
	r.Use(SpanIdentity())
	r.GET("/api/v1/claims", func(c *gin.Context) { c.Status(http.StatusInternalServerError) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/claims", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}
