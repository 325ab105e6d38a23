package main

import (
	"log"

	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"

	"smallbiznis-rewards/pkg/config"
	"smallbiznis-rewards/pkg/db"
	"smallbiznis-rewards/pkg/gen"
	"smallbiznis-rewards/pkg/hashistack/secretmanager"
	"smallbiznis-rewards/pkg/lock"
	"smallbiznis-rewards/pkg/logger"
	"smallbiznis-rewards/pkg/mailer"
	"smallbiznis-rewards/pkg/otelcol"
	"smallbiznis-rewards/pkg/payment"
	"smallbiznis-rewards/pkg/profiling"
	"smallbiznis-rewards/pkg/redis"
	"smallbiznis-rewards/pkg/sequence"
	queue "smallbiznis-rewards/pkg/task"
	"smallbiznis-rewards/services/billing"
	"smallbiznis-rewards/services/ledger"
	"smallbiznis-rewards/services/notification"
	"smallbiznis-rewards/services/schema"
	"smallbiznis-rewards/services/task"
	"smallbiznis-rewards/services/user"
)

func main() {
	opts := []fx.Option{
		secretmanager.Module,
		config.Module,
		logger.Module,
		otelcol.Module,
		profiling.Module,
		db.Module,
		schema.Module,
		gen.Module,
		redis.Module,
		lock.Module,
		sequence.Module,
		payment.Module,
		mailer.Module,
		queue.Client,
		queue.Server,

		user.Module,
		ledger.Module,
		ledger.Worker,
		notification.Worker,
		billing.Module,
		billing.Worker,
		task.Module,
		task.Worker,

		fxLogger,
	}

	if err := fx.ValidateApp(opts...); err != nil {
		log.Fatalf("fx validation failed: %v", err)
	}

	app := fx.New(opts...)

	app.Run()
}

var fxLogger = fx.WithLogger(func(cfg *config.Config, logger *zap.Logger) fxevent.Logger {
	return fxevent.NopLogger
})
