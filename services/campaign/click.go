package campaign

import (
	"context"
	"errors"

	"smallbiznis-rewards/pkg/errutil"
	"smallbiznis-rewards/pkg/gen"
	"smallbiznis-rewards/services/notification"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	MessageAlreadyCompleted = "Campaign already completed"
	MessageLimitReached     = "Campaign engagement limit reached"
	MessageCompleted        = "Campaign completed successfully"
	MessageRecorded         = "Engagement recorded"
)

var errGoalClosed = errors.New("campaign closed to engagements")

type ClickRequest struct {
	UserID     string `json:"userId"`
	CampaignID string `json:"campaignId"`
}

type ClickResult struct {
	Message   string
	Campaign  *Campaign
	Completed bool
}

func (r ClickRequest) validate() error {
	if r.UserID == "" || r.CampaignID == "" {
		return errutil.BadRequest("userId and campaignId are required", nil)
	}
	if !gen.ValidID(r.UserID) {
		return errutil.BadRequest("Invalid user ID format", nil)
	}
	if !gen.ValidID(r.CampaignID) {
		return errutil.BadRequest("Invalid campaign ID format", nil)
	}
	return nil
}

// RecordClick counts one engagement and click toward the campaign goal.
// The increment is a conditional update, so concurrent callers can never
// push the total past the goal and exactly one of them completes it.
func (s *Service) RecordClick(ctx context.Context, req ClickRequest) (*ClickResult, error) {
	opts := append(logFields(ctx),
		zap.String("campaign_id", req.CampaignID),
		zap.String("user_id", req.UserID),
	)

	if err := req.validate(); err != nil {
		return nil, err
	}

	if _, err := s.users.Get(ctx, req.UserID); err != nil {
		return nil, err
	}
	c, err := s.getCampaign(ctx, req.CampaignID)
	if err != nil {
		return nil, err
	}

	if c.IsCompleted() {
		return &ClickResult{Message: MessageAlreadyCompleted, Campaign: c}, nil
	}
	if c.GoalReached() {
		return &ClickResult{Message: MessageLimitReached, Campaign: c}, nil
	}

	day := DayOf(s.now())
	var after Campaign
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		affected, err := NewUpdate().
			CompleteOnGoal(1).
			Inc(FieldEngagementTotal, 1).
			Inc(FieldClickTotal, 1).
			WhereActiveBelowGoal().
			Apply(ctx, tx, c.ID)
		if err != nil {
			return err
		}
		if affected == 0 {
			return errGoalClosed
		}

		if err := incrementDaily(ctx, tx, c.ID, MetricEngagement, day); err != nil {
			return err
		}
		if err := incrementDaily(ctx, tx, c.ID, MetricClick, day); err != nil {
			return err
		}

		return tx.Where("id = ?", c.ID).Take(&after).Error
	})

	if errors.Is(err, errGoalClosed) {
		current, err := s.getCampaign(ctx, c.ID)
		if err != nil {
			return nil, err
		}
		return &ClickResult{Message: MessageLimitReached, Campaign: current}, nil
	}
	if err != nil {
		zap.L().With(opts...).Error("failed to record campaign click", zap.Error(err))
		return nil, errutil.Internal("Internal server error", err)
	}

	if !after.IsCompleted() {
		return &ClickResult{Message: MessageRecorded, Campaign: &after}, nil
	}

	zap.L().With(opts...).Info("campaign reached engagement goal",
		zap.Int64("engagement_goal", after.EngagementGoal),
		zap.Int64("engagement_total", after.EngagementTotal),
	)
	s.notifier.CampaignCompleted(ctx, notification.CampaignCompleted{
		CampaignID:  after.ID,
		OwnerID:     after.OwnerID,
		Title:       after.Title,
		Goal:        after.EngagementGoal,
		Achieved:    after.EngagementTotal,
		CompletedAt: s.now().UTC(),
	})

	return &ClickResult{Message: MessageCompleted, Campaign: &after, Completed: true}, nil
}
