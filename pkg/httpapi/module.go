package httpapi

import (
	"net/http"

	"smallbiznis-rewards/pkg/config"
	"smallbiznis-rewards/pkg/health"
	"smallbiznis-rewards/pkg/middleware"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
)

// Module provides the gin engine (also as http.Handler for pkg/server) with
// the shared middleware chain and health endpoints mounted.
var Module = fx.Module("httpapi",
	fx.Provide(
		NewEngine,
		NewHandler,
	),
	fx.Invoke(registerHealthEndpoints),
)

func NewEngine(cfg *config.Config) *gin.Engine {
	if cfg.AppEnv == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	engine.Use(
		gin.Recovery(),
		middleware.RequestID(),
		middleware.Logger(),
		middleware.Error(),
	)
	return engine
}

// NewHandler wraps the engine so every request starts an otel server span.
func NewHandler(e *gin.Engine, cfg *config.Config, tp trace.TracerProvider) http.Handler {
	return otelhttp.NewHandler(e, cfg.AppName, otelhttp.WithTracerProvider(tp))
}

func registerHealthEndpoints(engine *gin.Engine, h health.HealthService) {
	engine.GET("/healthz", h.Liveness)
	engine.GET("/readyz", h.Readiness)
}
