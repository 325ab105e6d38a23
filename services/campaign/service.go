package campaign

import (
	"context"
	"encoding/json"
	"regexp"
	"strconv"
	"strings"
	"time"

	"smallbiznis-rewards/pkg/config"
	"smallbiznis-rewards/pkg/errutil"
	"smallbiznis-rewards/pkg/featureflags"
	"smallbiznis-rewards/pkg/repository"
	"smallbiznis-rewards/services/notification"
	"smallbiznis-rewards/services/reward"
	"smallbiznis-rewards/services/user"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ========================================================
// Service Definition
// ========================================================

type Service struct {
	db    *gorm.DB
	cfg   config.Campaign
	flags featureflags.FeatureFlag
	now   func() time.Time

	users    *user.Service
	rewards  *reward.Service
	notifier *notification.BestEffort

	campaign repository.Repository[Campaign]
	question repository.Repository[Question]
	views    repository.Repository[UserCampaignView]
	surveys  repository.Repository[SurveySubmission]
}

type ServiceParams struct {
	fx.In

	DB       *gorm.DB
	Config   *config.Config
	Flags    featureflags.FeatureFlag `optional:"true"`
	Users    *user.Service
	Rewards  *reward.Service
	Notifier *notification.BestEffort `optional:"true"`
}

func NewService(p ServiceParams) *Service {
	flags := p.Flags
	if flags == nil {
		flags = featureflags.Static{}
	}

	return &Service{
		db:    p.DB,
		cfg:   p.Config.Campaign,
		flags: flags,
		now:   time.Now,

		users:    p.Users,
		rewards:  p.Rewards,
		notifier: p.Notifier,

		campaign: repository.ProvideStore[Campaign](p.DB),
		question: repository.ProvideStore[Question](p.DB),
		views:    repository.ProvideStore[UserCampaignView](p.DB),
		surveys:  repository.ProvideStore[SurveySubmission](p.DB),
	}
}

// ========================================================
// Shared lookups
// ========================================================

func (s *Service) getCampaign(ctx context.Context, id string) (*Campaign, error) {
	c, err := s.campaign.FindOne(ctx, &Campaign{ID: id})
	if err != nil {
		zap.L().With(logFields(ctx)...).Error("failed to query campaign", zap.String("campaign_id", id), zap.Error(err))
		return nil, errutil.Internal("Internal server error", err)
	}
	if c == nil {
		return nil, errutil.NotFound("Campaign not found", nil)
	}
	return c, nil
}

// getQuestion returns (nil, nil) when the campaign has no question of kind.
func (s *Service) getQuestion(ctx context.Context, campaignID string, kind QuestionKind) (*Question, error) {
	q, err := s.question.FindOne(ctx, &Question{CampaignID: campaignID, Kind: kind})
	if err != nil {
		zap.L().With(logFields(ctx)...).Error("failed to query question",
			zap.String("campaign_id", campaignID),
			zap.String("kind", string(kind)),
			zap.Error(err),
		)
		return nil, errutil.Internal("Internal server error", err)
	}
	return q, nil
}

func (s *Service) hasViewed(ctx context.Context, userID, campaignID string) (bool, error) {
	n, err := s.views.Count(ctx, &UserCampaignView{UserID: userID, CampaignID: campaignID})
	if err != nil {
		return false, errutil.Internal("Internal server error", err)
	}
	return n > 0, nil
}

func alreadyRewarded() error {
	return errutil.BadRequest("You've already earned reward from this video", nil,
		errutil.WithFields(map[string]any{"alreadyCompleted": true}))
}

func logFields(ctx context.Context) []zap.Field {
	sc := trace.SpanFromContext(ctx).SpanContext()
	return []zap.Field{
		zap.String("trace_id", sc.TraceID().String()),
		zap.String("span_id", sc.SpanID().String()),
	}
}

// Numeric holds a JSON number or a numeric string as its text.
type Numeric string

var leadingInt = regexp.MustCompile(`^[+-]?[0-9]+`)

func (n *Numeric) UnmarshalJSON(b []byte) error {
	raw := strings.TrimSpace(string(b))
	if raw == "null" {
		*n = ""
		return nil
	}
	if strings.HasPrefix(raw, `"`) {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*n = Numeric(strings.TrimSpace(s))
		return nil
	}
	*n = Numeric(raw)
	return nil
}

func (n Numeric) Present() bool {
	return n != ""
}

// Int parses the leading integer of n the way form inputs are usually
// read: "12.5" is 12 and "abc" is not a number.
func (n Numeric) Int() (int, bool) {
	m := leadingInt.FindString(string(n))
	if m == "" {
		return 0, false
	}
	v, err := strconv.ParseInt(m, 10, 32)
	if err != nil {
		return 0, false
	}
	return int(v), true
}
