package main

import (
	"log"

	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"

	"smallbiznis-rewards/pkg/config"
	"smallbiznis-rewards/pkg/db"
	"smallbiznis-rewards/pkg/featureflags"
	"smallbiznis-rewards/pkg/gen"
	"smallbiznis-rewards/pkg/hashistack/secretmanager"
	"smallbiznis-rewards/pkg/health"
	"smallbiznis-rewards/pkg/httpapi"
	"smallbiznis-rewards/pkg/lock"
	"smallbiznis-rewards/pkg/logger"
	"smallbiznis-rewards/pkg/otelcol"
	"smallbiznis-rewards/pkg/payment"
	"smallbiznis-rewards/pkg/profiling"
	"smallbiznis-rewards/pkg/redis"
	"smallbiznis-rewards/pkg/sequence"
	"smallbiznis-rewards/pkg/server"
	"smallbiznis-rewards/pkg/task"
	"smallbiznis-rewards/services/billing"
	"smallbiznis-rewards/services/campaign"
	"smallbiznis-rewards/services/ledger"
	"smallbiznis-rewards/services/notification"
	"smallbiznis-rewards/services/reward"
	"smallbiznis-rewards/services/schema"
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
		task.Client,
		featureflags.Module,
		payment.Module,
		health.Module,
		httpapi.Module,

		user.Module,
		ledger.Module,
		ledger.HTTP,
		reward.Module,
		notification.Module,
		campaign.Module,
		campaign.HTTP,
		billing.Module,
		billing.HTTP,

		server.ProvideHTTPServer,
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
