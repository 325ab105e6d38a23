package billing

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"smallbiznis-rewards/pkg/config"
	"smallbiznis-rewards/pkg/db"
	"smallbiznis-rewards/pkg/db/option"
	"smallbiznis-rewards/pkg/errutil"
	"smallbiznis-rewards/pkg/lock"
	"smallbiznis-rewards/pkg/payment"
	"smallbiznis-rewards/pkg/repository"
	"smallbiznis-rewards/pkg/sequence"
	"smallbiznis-rewards/services/campaign"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	MessageNoEngagements  = "No engagements to charge for today"
	MessageAlreadyCharged = "Engagements already charged for this day"
	MessageCharged        = "Payment processed successfully"
	MessageInProgress     = "Payment for this day is already in progress"

	defaultCurrency = "usd"
	defaultLockTTL  = 10 * time.Minute
)

// pricePerEngagement is one currency unit per engagement.
var pricePerEngagement = decimal.NewFromInt(1)

var errAttemptSettled = errors.New("payment attempt already settled")

type Service struct {
	db        *gorm.DB
	node      *snowflake.Node
	cfg       config.Billing
	processor payment.Processor
	sequence  sequence.Generator
	locker    lock.Locker
	now       func() time.Time

	campaigns repository.Repository[campaign.Campaign]
	daily     repository.Repository[campaign.DailyCount]
	payments  repository.Repository[PaymentHistory]
}

type ServiceParams struct {
	fx.In

	DB        *gorm.DB
	Node      *snowflake.Node
	Config    *config.Config
	Processor payment.Processor
	Sequence  sequence.Generator
	Locker    lock.Locker `optional:"true"`
}

func NewService(p ServiceParams) *Service {
	return &Service{
		db:        p.DB,
		node:      p.Node,
		cfg:       p.Config.Billing,
		processor: p.Processor,
		sequence:  p.Sequence,
		locker:    p.Locker,
		now:       time.Now,

		campaigns: repository.ProvideStore[campaign.Campaign](p.DB),
		daily:     repository.ProvideStore[campaign.DailyCount](p.DB),
		payments:  repository.ProvideStore[PaymentHistory](p.DB),
	}
}

func (s *Service) currency() string {
	if s.cfg.Currency != "" {
		return s.cfg.Currency
	}
	return defaultCurrency
}

// SettlementDay is the day the scheduled run bills by default.
func (s *Service) SettlementDay() string {
	now := s.now()
	if s.cfg.SettlePreviousDay {
		now = now.AddDate(0, 0, -1)
	}
	return campaign.DayOf(now)
}

// Deduct bills the oldest active campaign for today's engagements so far.
// Engagements recorded later in the day are billed by the next run for the
// same day.
func (s *Service) Deduct(ctx context.Context) (*DeductResult, error) {
	c, err := s.campaigns.FindOne(ctx,
		&campaign.Campaign{Status: campaign.CampaignStatusActive},
		option.WithSortBy(option.QuerySortBy{SortBy: "created_at", OrderBy: "asc"}),
	)
	if err != nil {
		zap.L().With(logFields(ctx)...).Error("failed to query active campaign", zap.Error(err))
		return nil, errutil.Internal("Internal server error", err)
	}
	if c == nil {
		return nil, errutil.NotFound("Campaign not found or not active", nil)
	}
	return s.DeductCampaign(ctx, c.ID, campaign.DayOf(s.now()))
}

// DeductCampaign charges the campaign's card for the engagements on day
// that no earlier attempt has billed, and draws the amount from its budget.
// Running it again for the same day only bills what was added since.
func (s *Service) DeductCampaign(ctx context.Context, campaignID, day string) (*DeductResult, error) {
	opts := append(logFields(ctx),
		zap.String("campaign_id", campaignID),
		zap.String("billing_day", day),
	)

	if _, err := time.Parse(time.DateOnly, day); err != nil {
		return nil, errutil.BadRequest("Invalid billing day", err)
	}

	c, err := s.campaigns.FindOne(ctx, &campaign.Campaign{ID: campaignID})
	if err != nil {
		zap.L().With(opts...).Error("failed to query campaign", zap.Error(err))
		return nil, errutil.Internal("Internal server error", err)
	}
	if c == nil {
		return nil, errutil.NotFound("Campaign not found", nil)
	}
	if c.PaymentMethodID == "" {
		return nil, errutil.BadRequest("No payment method associated with this campaign", nil)
	}

	count, err := s.engagementsOn(ctx, c.ID, day)
	if err != nil {
		zap.L().With(opts...).Error("failed to read daily engagements", zap.Error(err))
		return nil, errutil.Internal("Internal server error", err)
	}
	if count == 0 {
		return &DeductResult{
			Message:         MessageNoEngagements,
			CampaignID:      c.ID,
			BillingDay:      day,
			RemainingBudget: c.Budget,
		}, nil
	}

	attempts, err := s.payments.Find(ctx, &PaymentHistory{CampaignID: c.ID, BillingDay: day},
		option.WithSortBy(option.QuerySortBy{SortBy: "attempt", OrderBy: "asc", Allow: map[string]bool{"attempt": true}}),
	)
	if err != nil {
		zap.L().With(opts...).Error("failed to query payment history", zap.Error(err))
		return nil, errutil.Internal("Internal server error", err)
	}

	var (
		billed  int64
		last    *PaymentHistory
		pending *PaymentHistory
		next    = 1
	)
	for _, p := range attempts {
		next = p.Attempt + 1
		switch p.Status {
		case PaymentStatusSucceeded:
			billed += p.Engagement
			last = p
		case PaymentStatusPending:
			pending = p
		}
	}

	// an attempt whose charge outcome is unknown is resumed under its own key
	if pending != nil {
		zap.L().With(opts...).Info("resuming pending payment attempt", zap.Int("attempt", pending.Attempt))
		return s.settle(ctx, c, pending, count, opts)
	}

	unbilled := count - billed
	if unbilled <= 0 {
		res := &DeductResult{
			Message:          MessageAlreadyCharged,
			CampaignID:       c.ID,
			BillingDay:       day,
			EngagementsToday: count,
			RemainingBudget:  c.Budget,
		}
		if last != nil {
			res.PaymentIntentID = last.ChargeID
		}
		return res, nil
	}

	amount := pricePerEngagement.Mul(decimal.NewFromInt(unbilled))
	if c.Budget.LessThan(amount) {
		return nil, errutil.BadRequest("Insufficient campaign budget", nil,
			errutil.WithFields(map[string]any{
				"requiredAmount":  amount,
				"remainingBudget": c.Budget,
			}))
	}

	if c.ProcessorCustomerID == "" {
		customerID, err := s.processor.CreateCustomer(ctx, c.PaymentMethodID)
		if err != nil {
			zap.L().With(opts...).Warn("failed to create processor customer", zap.Error(err))
			return nil, errutil.BadRequest("Payment method cannot be reused. Please update card details.", err)
		}
		if _, err := campaign.NewUpdate().
			Set(campaign.FieldProcessorCustomerID, customerID).
			Apply(ctx, s.db, c.ID); err != nil {
			zap.L().With(opts...).Error("failed to store processor customer", zap.Error(err))
			return nil, errutil.Internal("Internal server error", err)
		}
		c.ProcessorCustomerID = customerID
	}

	attempt := &PaymentHistory{
		ID:         s.node.Generate().String(),
		CampaignID: c.ID,
		BillingDay: day,
		Attempt:    next,
		Engagement: unbilled,
		Amount:     amount,
		Currency:   s.currency(),
		Status:     PaymentStatusPending,
		CreatedAt:  s.now().UTC(),
	}
	if err := s.payments.Create(ctx, attempt); err != nil {
		if db.IsDuplicateKey(err) {
			// a concurrent run claimed this attempt first
			return &DeductResult{
				Message:          MessageInProgress,
				CampaignID:       c.ID,
				BillingDay:       day,
				EngagementsToday: count,
				RemainingBudget:  c.Budget,
			}, nil
		}
		zap.L().With(opts...).Error("failed to open payment attempt", zap.Error(err))
		return nil, errutil.Internal("Internal server error", err)
	}

	return s.settle(ctx, c, attempt, count, opts)
}

// settle charges a pending attempt and, on success, marks it succeeded and
// draws its amount from the budget in one transaction. A card rejection
// closes the attempt so the next run opens a fresh one with a new key. Any
// other failure leaves it pending: the charge may have gone through, and
// retrying under the same key cannot charge twice.
func (s *Service) settle(ctx context.Context, c *campaign.Campaign, p *PaymentHistory, count int64, opts []zap.Field) (*DeductResult, error) {
	opts = append(opts, zap.Int("attempt", p.Attempt))

	charge, err := s.processor.Charge(ctx, payment.ChargeRequest{
		CustomerID:      c.ProcessorCustomerID,
		PaymentMethodID: c.PaymentMethodID,
		AmountMinor:     p.Amount.Shift(2).IntPart(),
		Currency:        p.Currency,
		Description:     fmt.Sprintf("Daily engagement charge for %s (%s)", c.Title, p.BillingDay),
		IdempotencyKey:  p.ChargeKey(),
		Metadata: map[string]string{
			"campaignId": c.ID,
			"ownerId":    c.OwnerID,
			"billingDay": p.BillingDay,
			"attempt":    strconv.Itoa(p.Attempt),
		},
	})
	if err != nil {
		if payment.IsCardError(err) {
			zap.L().With(opts...).Warn("card declined", zap.Error(err))
			s.fail(ctx, p, err)
			return nil, errutil.BadRequest("Payment failed due to card issue", err)
		}
		zap.L().With(opts...).Error("payment processor failure", zap.Error(err))
		return nil, errutil.Internal("Payment failed", err)
	}

	billingDay, _ := time.Parse(time.DateOnly, p.BillingDay)
	reference, err := s.sequence.NextPaymentReference(ctx, billingDay)
	if err != nil {
		// the charge went through, so the row is written regardless
		zap.L().With(opts...).Warn("failed to allocate payment reference", zap.Error(err))
		reference = charge.ID
	}

	var remaining decimal.Decimal
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var current campaign.Campaign
		if err := tx.Scopes(option.LockingUpdate).Where("id = ?", c.ID).Take(&current).Error; err != nil {
			return err
		}

		res := tx.Model(&PaymentHistory{}).
			Where("id = ? AND status = ?", p.ID, PaymentStatusPending).
			Updates(map[string]any{
				"status":     PaymentStatusSucceeded,
				"charge_id":  charge.ID,
				"reference":  reference,
				"updated_at": s.now().UTC(),
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return errAttemptSettled
		}

		remaining = current.Budget.Sub(p.Amount).Round(2)
		_, err := campaign.NewUpdate().Set(campaign.FieldBudget, remaining).Apply(ctx, tx, c.ID)
		return err
	})
	if err != nil {
		if errors.Is(err, errAttemptSettled) {
			// a concurrent run settled the same attempt with the same key
			return &DeductResult{
				Message:          MessageAlreadyCharged,
				CampaignID:       c.ID,
				BillingDay:       p.BillingDay,
				EngagementsToday: count,
				PaymentIntentID:  charge.ID,
				RemainingBudget:  c.Budget.Sub(p.Amount),
			}, nil
		}
		zap.L().With(opts...).Error("failed to record payment", zap.String("charge_id", charge.ID), zap.Error(err))
		return nil, errutil.Internal("Internal server error", err)
	}

	zap.L().With(opts...).Info("campaign charged",
		zap.String("charge_id", charge.ID),
		zap.String("reference", reference),
		zap.Int64("engagements", p.Engagement),
		zap.String("amount", p.Amount.StringFixed(2)),
	)

	return &DeductResult{
		Message:          MessageCharged,
		CampaignID:       c.ID,
		BillingDay:       p.BillingDay,
		EngagementsToday: count,
		PaymentIntentID:  charge.ID,
		RemainingBudget:  remaining,
	}, nil
}

func (s *Service) fail(ctx context.Context, p *PaymentHistory, cause error) {
	err := s.db.WithContext(context.WithoutCancel(ctx)).Model(&PaymentHistory{}).
		Where("id = ? AND status = ?", p.ID, PaymentStatusPending).
		Updates(map[string]any{
			"status":     PaymentStatusFailed,
			"error_msg":  cause.Error(),
			"updated_at": s.now().UTC(),
		}).Error
	if err != nil {
		zap.L().Warn("failed to close payment attempt", zap.String("payment_id", p.ID), zap.Error(err))
	}
}

// DeductAll bills every campaign with a payment method that recorded
// engagements on day, whatever its status now: a campaign completed on day
// still owes that day's engagements. Failures are logged per campaign and
// do not stop the run.
func (s *Service) DeductAll(ctx context.Context, day string) (*Summary, error) {
	counts, err := s.daily.Find(ctx,
		&campaign.DailyCount{Metric: campaign.MetricEngagement, Day: day},
		option.WithWhere("count > 0"),
	)
	if err != nil {
		return nil, err
	}

	summary := &Summary{Day: day}
	if len(counts) == 0 {
		return summary, nil
	}
	ids := make([]string, 0, len(counts))
	for _, dc := range counts {
		ids = append(ids, dc.CampaignID)
	}

	list, err := s.campaigns.Find(ctx, nil,
		option.WithWhere("id IN ?", ids),
		option.WithWhere("payment_method_id <> ''"),
		option.WithSortBy(option.QuerySortBy{SortBy: "created_at", OrderBy: "asc"}),
	)
	if err != nil {
		return nil, err
	}

	for _, c := range list {
		res, err := s.DeductCampaign(ctx, c.ID, day)
		if err != nil {
			summary.Failed++
			zap.L().With(logFields(ctx)...).Warn("campaign deduction failed",
				zap.String("campaign_id", c.ID),
				zap.String("billing_day", day),
				zap.Error(err),
			)
			continue
		}
		if res.Message == MessageCharged {
			summary.Charged++
		} else {
			summary.Skipped++
		}
	}
	return summary, nil
}

// RunDaily is DeductAll under the per-day lock, so overlapping triggers of
// the same day never run together.
func (s *Service) RunDaily(ctx context.Context, day string) (*Summary, error) {
	if s.locker == nil {
		return s.DeductAll(ctx, day)
	}

	ttl := s.cfg.LockTTL
	if ttl <= 0 {
		ttl = defaultLockTTL
	}

	var summary *Summary
	err := s.locker.WithLock(ctx, "billing:deduct:"+day, ttl, func(ctx context.Context) error {
		var err error
		summary, err = s.DeductAll(ctx, day)
		return err
	})
	if errors.Is(err, lock.ErrLocked) {
		zap.L().Info("daily deduction already running", zap.String("billing_day", day))
		return &Summary{Day: day}, nil
	}
	return summary, err
}

func (s *Service) engagementsOn(ctx context.Context, campaignID, day string) (int64, error) {
	row, err := s.daily.FindOne(ctx, &campaign.DailyCount{
		CampaignID: campaignID,
		Metric:     campaign.MetricEngagement,
		Day:        day,
	})
	if err != nil || row == nil {
		return 0, err
	}
	return row.Count, nil
}

func logFields(ctx context.Context) []zap.Field {
	sc := trace.SpanFromContext(ctx).SpanContext()
	return []zap.Field{
		zap.String("trace_id", sc.TraceID().String()),
		zap.String("span_id", sc.SpanID().String()),
	}
}
