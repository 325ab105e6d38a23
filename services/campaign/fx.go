package campaign

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/fx"
)

var Module = fx.Module("campaign.service",
	fx.Provide(NewService),
)

var HTTP = fx.Module("campaign.http",
	fx.Provide(NewHandler),
	fx.Invoke(registerRoutes),
)

func registerRoutes(engine *gin.Engine, h *Handler) {
	h.Register(engine)
}
