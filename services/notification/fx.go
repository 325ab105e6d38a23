package notification

import (
	"smallbiznis-rewards/pkg/taskname"

	"github.com/hibiken/asynq"
	"go.uber.org/fx"
)

var Module = fx.Module("notification",
	fx.Provide(
		NewTaskNotifier,
		NewBestEffort,
	),
)

var Worker = fx.Module("notification.worker",
	fx.Provide(NewHandler),
	fx.Invoke(registerTaskHandlers),
)

func registerTaskHandlers(mux *asynq.ServeMux, h *Handler) {
	mux.HandleFunc(taskname.NotificationCampaignCompleted, h.HandleCampaignCompleted)
}
