package logger

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func tagRequest(id string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header(requestIDHeader, id)
		c.Next()
	}
}

func TestAccessLog(t *testing.T) {
	tests := []struct {
		name   string
		status int
		level  zapcore.Level
	}{
		{"ok is info", http.StatusOK, zapcore.InfoLevel},
		{"unknown claim is warn", http.StatusNotFound, zapcore.WarnLevel},
		{"gateway failure is error", http.StatusBadGateway, zapcore.ErrorLevel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			core, recorded := observer.New(zapcore.InfoLevel)

			r := gin.New()
			r.Use(tagRequest("req-123"), AccessLog(zap.New(core)))
			r.GET("/claims/:id", func(c *gin.Context) {
				assert.Equal(t, "req-123", GetRequestID(c.Request.Context()))
				c.Request = c.Request.WithContext(WithUserID(c.Request.Context(), "adjuster-7"))
				if tt.status >= http.StatusBadRequest {
					c.Set(ErrorCodeKey, "ERR_X")
				}
				c.Status(tt.status)
			})

			r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/claims/1?include=audit", nil))

			logs := recorded.FilterMessage("HTTP Request").All()
			require.Len(t, logs, 1)
			assert.Equal(t, tt.level, logs[0].Level)
			fields := logs[0].ContextMap()
			assert.Equal(t, "req-123", fields["request_id"])
			assert.Equal(t, "/claims/1", fields["path"])
			assert.Equal(t, "/claims/:id", fields["route"])
			assert.Equal(t, "include=audit", fields["query"])
			assert.Equal(t, "adjuster-7", fields["user_id"])
			assert.EqualValues(t, tt.status, fields["status"])
			if tt.status >= http.StatusBadRequest {
				assert.Equal(t, "ERR_X", fields["error_code"])
			} else {
				assert.NotContains(t, fields, "error_code")
			}
		})
	}
}

func TestAccessLog_HandlerLoggerCarriesRequest(t *testing.T) {
	core, recorded := observer.New(zapcore.InfoLevel)

	r := gin.New()
	r.Use(tagRequest("req-55"), AccessLog(zap.New(core)))
	r.POST("/payments", func(c *gin.Context) {
		FromContext(c.Request.Context()).Info("Processing payment")
		c.Status(http.StatusCreated)
	})
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/payments", nil))

	inner := recorded.FilterMessage("Processing payment").All()
	require.Len(t, inner, 1)
	assert.Equal(t, "req-55", inner[0].ContextMap()["request_id"])
	assert.Equal(t, http.MethodPost, inner[0].ContextMap()["method"])
}

func TestRecovery(t *testing.T) {
	core, recorded := observer.New(zapcore.ErrorLevel)

	r := gin.New()
	r.Use(tagRequest("req-boom"), Recovery(zap.New(core)))
	r.GET("/boom", func(c *gin.Context) {
		panic("ledger exploded")
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/boom", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "ERR_INTERNAL_ERROR", body["error"].(map[string]any)["code"])

	panics := recorded.FilterMessage("Panic recovered").All()
	require.Len(t, panics, 1)
	assert.Equal(t, "req-boom", panics[0].ContextMap()["request_id"])
	assert.Equal(t, "ledger exploded", panics[0].ContextMap()["panic"])
}
