package router

import (
	"github.com/gin-gonic/gin"
	"github.com/miv/backend/internal/infrastructure/auth"
	"github.com/miv/backend/internal/infrastructure/config"
	"github.com/miv/backend/internal/infrastructure/logger"
	"github.com/miv/backend/internal/infrastructure/telemetry"
	"github.com/miv/backend/internal/interfaces/http/middleware"
	"go.uber.org/zap"
)

// EngineDeps carries what the middleware chain needs. Metrics may be nil.
type EngineDeps struct {
	Config    *config.Config
	Logger    *zap.Logger
	Metrics   *telemetry.Metrics
	JWT       *auth.JWTService
	Blacklist auth.TokenBlacklist
}

// NewEngine builds a gin engine with the full middleware chain. The order
// matters: the request id and context logger come first so that recovery,
// tracing and request logs all carry it, and authentication runs last.
func NewEngine(deps EngineDeps) *gin.Engine {
	cfg := deps.Config
	if cfg.App.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	engine.HandleMethodNotAllowed = true

	metricsPath := cfg.Metrics.Path
	if metricsPath == "" {
		metricsPath = "/metrics"
	}

	engine.Use(
		middleware.ContextLogger(deps.Logger),
		middleware.RequestID(),
		logger.Recovery(deps.Logger),
		middleware.Tracing(cfg.Telemetry.ServiceName, cfg.Telemetry.Enabled),
		middleware.SpanErrorMarker(),
		logger.GinMiddleware(deps.Logger),
	)
	if deps.Metrics != nil {
		engine.Use(middleware.Metrics(deps.Metrics, metricsPath))
	}
	engine.Use(
		middleware.CORS(cfg.HTTP.CORSAllowedOrigins),
		middleware.Secure(),
		middleware.BodyLimit(cfg.HTTP.MaxBodyBytes()),
	)
	if cfg.HTTP.RateLimitEnabled {
		engine.Use(middleware.RateLimit(middleware.NewRateLimiter(cfg.HTTP.RateLimitRequests, cfg.HTTP.RateLimitWindow)))
	}
	if cfg.JWT.Enabled && deps.JWT != nil {
		jwtCfg := middleware.DefaultJWTConfig(deps.JWT)
		jwtCfg.TokenBlacklist = deps.Blacklist
		jwtCfg.Logger = deps.Logger
		jwtCfg.SkipPaths = append(jwtCfg.SkipPaths, metricsPath)
		engine.Use(middleware.JWTAuthMiddlewareWithConfig(jwtCfg))
	}
	engine.Use(middleware.TracingAttributeInjector())

	if deps.Metrics != nil && cfg.Metrics.Enabled {
		engine.GET(metricsPath, gin.WrapH(deps.Metrics.Handler()))
	}
	return engine
}
