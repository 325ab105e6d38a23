package reward

import (
	"context"
	"errors"
	"fmt"

	"smallbiznis-rewards/pkg/db/option"
	"smallbiznis-rewards/pkg/errutil"
	"smallbiznis-rewards/services/ledger"
	"smallbiznis-rewards/services/user"

	"github.com/shopspring/decimal"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	centsPerSecond = decimal.NewFromFloat(0.01)
	freeDivisor    = decimal.NewFromInt(3)
)

// Details describes a completed credit.
type Details struct {
	EarnedAmount     decimal.Decimal `json:"earnedAmount"`
	TotalBalance     decimal.Decimal `json:"totalBalance"`
	RemainingBalance decimal.Decimal `json:"remainingBalance"`
	Message          string          `json:"message"`
}

// Calculate returns the reward for watching seconds on plan, rounded to
// cents. Premium earns a cent per second; every other plan a cent per three.
func Calculate(seconds int, plan user.Plan) decimal.Decimal {
	secs := decimal.NewFromInt(int64(seconds))
	if plan != user.PlanPremium {
		secs = secs.Div(freeDivisor)
	}
	return secs.Mul(centsPerSecond).Round(2)
}

type Service struct {
	db     *gorm.DB
	ledger *ledger.Service
}

type Params struct {
	fx.In
	DB     *gorm.DB
	Ledger *ledger.Service
}

func NewService(p Params) *Service {
	return &Service{db: p.DB, ledger: p.Ledger}
}

// Credit adds the reward for seconds to the user's balances and appends an
// earning entry in one transaction. A zero reward returns nil details and
// leaves the user untouched.
func (s *Service) Credit(ctx context.Context, userID string, seconds int, plan user.Plan) (*Details, error) {
	amount := Calculate(seconds, plan)
	if amount.IsZero() {
		return nil, nil
	}

	var details *Details
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var u user.User
		if err := tx.Scopes(option.LockingUpdate).Where("id = ?", userID).Take(&u).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return errutil.NotFound("User not found", nil)
			}
			return err
		}

		total := u.TotalBalance.Add(amount).Round(2)
		remaining := u.RemainingBalance.Add(amount).Round(2)

		if err := tx.Model(&user.User{}).Where("id = ?", userID).Updates(map[string]any{
			"total_balance":     total,
			"remaining_balance": remaining,
		}).Error; err != nil {
			return err
		}

		if _, err := s.ledger.Append(ctx, tx, userID, amount, ledger.EntryTypeEarning); err != nil {
			return err
		}

		details = &Details{
			EarnedAmount:     amount,
			TotalBalance:     total,
			RemainingBalance: remaining,
			Message:          fmt.Sprintf("You earned $%s for watching %d seconds (%s plan)", amount.StringFixed(2), seconds, plan),
		}
		return nil
	})
	if err != nil {
		if _, ok := errutil.As(err); ok {
			return nil, err
		}
		zap.L().Error("failed to credit reward", zap.String("user_id", userID), zap.Int("seconds", seconds), zap.Error(err))
		return nil, errutil.Internal("Internal server error", err)
	}

	return details, nil
}
