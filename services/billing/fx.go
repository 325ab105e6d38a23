package billing

import (
	"smallbiznis-rewards/pkg/taskname"

	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"
	"go.uber.org/fx"
)

var Module = fx.Module("billing.service",
	fx.Provide(NewService),
)

var HTTP = fx.Module("billing.http",
	fx.Provide(NewHandler),
	fx.Invoke(registerRoutes),
)

var Worker = fx.Module("billing.worker",
	fx.Invoke(registerTaskHandlers),
)

func registerRoutes(engine *gin.Engine, h *Handler) {
	h.Register(engine)
}

func registerTaskHandlers(mux *asynq.ServeMux, svc *Service) {
	mux.HandleFunc(taskname.BillingDeductDaily, svc.HandleDeductDaily)
}
