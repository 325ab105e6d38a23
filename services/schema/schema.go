package schema

import (
	"context"

	"smallbiznis-rewards/pkg/config"
	"smallbiznis-rewards/services/billing"
	"smallbiznis-rewards/services/campaign"
	"smallbiznis-rewards/services/ledger"
	"smallbiznis-rewards/services/task"
	"smallbiznis-rewards/services/user"

	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Module migrates the schema on start when DATABASE.AUTO_MIGRATE is set.
var Module = fx.Module("schema",
	fx.Invoke(registerMigration),
)

// Models lists every persisted type in dependency order.
func Models() []any {
	return []any{
		&user.User{},
		&user.BusinessUser{},
		&ledger.TransactionHistory{},
		&campaign.Campaign{},
		&campaign.Question{},
		&campaign.DemographicCount{},
		&campaign.DailyCount{},
		&campaign.WatchTime{},
		&campaign.UserCampaignView{},
		&campaign.SurveySubmission{},
		&campaign.VideoWatchUser{},
		&billing.PaymentHistory{},
		&task.Task{},
		&task.Job{},
	}
}

func Migrate(ctx context.Context, db *gorm.DB) error {
	return db.WithContext(ctx).AutoMigrate(Models()...)
}

func registerMigration(lc fx.Lifecycle, cfg *config.Config, db *gorm.DB) {
	if !cfg.Database.AutoMigrate {
		return
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if err := Migrate(ctx, db); err != nil {
				zap.L().Error("failed to migrate schema", zap.Error(err))
				return err
			}
			zap.L().Info("schema migrated", zap.Int("models", len(Models())))
			return nil
		},
	})
}
