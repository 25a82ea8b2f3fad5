package router

import (
	"net/http"
	"time"

	"github.com/claimswift/backend/internal/infrastructure/config"
	"github.com/claimswift/backend/internal/infrastructure/logger"
	"github.com/claimswift/backend/internal/infrastructure/telemetry"
	"github.com/claimswift/backend/internal/interfaces/http/dto"
	"github.com/claimswift/backend/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// EngineConfig carries what NewEngine needs to build the global middleware
// stack.
type EngineConfig struct {
	Logger       *zap.Logger
	HTTP         config.HTTPConfig
	ServiceName  string
	Telemetry    *telemetry.Provider
	MaxBodyBytes int64
}

// NewEngine returns a gin engine with the global middleware stack applied:
//
//	Recovery, RequestID, access log, tracing, HTTP metrics,
//	security headers, CORS, body limit.
//
// Unknown routes get an ERR_ROUTE_NOT_FOUND envelope.
func NewEngine(cfg EngineConfig) *gin.Engine {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}
	maxBody := cfg.MaxBodyBytes
	if maxBody <= 0 {
		maxBody = middleware.DefaultBodyLimit
	}

	engine := gin.New()
	engine.Use(logger.Recovery(log))
	engine.Use(middleware.RequestID())
	engine.Use(logger.AccessLog(log))
	engine.Use(middleware.Tracing(cfg.ServiceName, cfg.Telemetry.TracesEnabled()))
	engine.Use(middleware.HTTPMetrics(cfg.Telemetry))
	engine.Use(middleware.Secure())
	engine.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:  cfg.HTTP.CORSAllowOrigins,
		AllowMethods:  cfg.HTTP.CORSAllowMethods,
		AllowHeaders:  cfg.HTTP.CORSAllowHeaders,
		ExposeHeaders: []string{middleware.RequestIDHeader},
		MaxAge:        12 * time.Hour,
	}))
	engine.Use(middleware.BodyLimit(maxBody))

	engine.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, dto.NewErrorResponse(
			dto.ErrCodeRouteMissing, "Route not found", middleware.GetRequestID(c)))
	})

	return engine
}

// Identity resolves the caller on API routes. auth is the bearer token
// check when authentication is on; with nil the X-User-ID header is
// trusted. The caller is then copied onto the request span.
func Identity(auth gin.HandlerFunc) []gin.HandlerFunc {
	if auth == nil {
		auth = middleware.HeaderIdentity()
	}
	return []gin.HandlerFunc{auth, middleware.SpanIdentity()}
}
