package task

import (
	"github.com/hibiken/asynq"
	"go.uber.org/fx"
)

var Module = fx.Module("task.service",
	fx.Provide(NewService),
)

// Worker tracks job outcomes on the asynq mux and runs the scheduler.
var Worker = fx.Module("task.worker",
	fx.Provide(NewScheduler),
	fx.Invoke(
		registerMiddleware,
		registerScheduler,
	),
)

func registerMiddleware(mux *asynq.ServeMux, svc *Service) {
	mux.Use(svc.Middleware())
}
