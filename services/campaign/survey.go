package campaign

import (
	"context"
	"fmt"
	"math"

	"smallbiznis-rewards/pkg/errutil"
	"smallbiznis-rewards/pkg/featureflags"
	"smallbiznis-rewards/pkg/gen"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type SurveyRequest struct {
	CampaignID      string  `json:"campaignId"`
	UserID          string  `json:"userId"`
	SurveyResponse1 Numeric `json:"surveyResponse1"`
	SurveyResponse2 Numeric `json:"surveyResponse2"`
}

type SurveyPercentage struct {
	Percentage string `json:"percentage"`
}

type BalanceDetails struct {
	TotalBalance     decimal.Decimal `json:"totalBalance"`
	RemainingBalance decimal.Decimal `json:"remainingBalance"`
}

type SurveyResult struct {
	Results        map[string]SurveyPercentage `json:"results"`
	BalanceDetails BalanceDetails              `json:"balanceDetails"`
}

type surveyAnswer struct {
	number int
	kind   QuestionKind
	option int
}

func (r SurveyRequest) validate() ([]surveyAnswer, error) {
	if r.CampaignID == "" || r.UserID == "" {
		return nil, errutil.BadRequest("Campaign ID and user ID are required", nil)
	}
	if !gen.ValidID(r.CampaignID) || !gen.ValidID(r.UserID) {
		return nil, errutil.BadRequest("Invalid ID format", nil)
	}
	if !r.SurveyResponse1.Present() && !r.SurveyResponse2.Present() {
		return nil, errutil.BadRequest("At least one survey response is required", nil)
	}

	var answers []surveyAnswer
	for i, raw := range []Numeric{r.SurveyResponse1, r.SurveyResponse2} {
		if !raw.Present() {
			continue
		}
		number := i + 1
		option, ok := raw.Int()
		if !ok || option < 1 || option > 4 {
			return nil, errutil.BadRequest(fmt.Sprintf("Survey response %d must be between 1 and 4", number), nil)
		}
		kind := QuestionKindSurvey1
		if number == 2 {
			kind = QuestionKindSurvey2
		}
		answers = append(answers, surveyAnswer{number: number, kind: kind, option: option})
	}
	return answers, nil
}

// surveyPercentage counts the caller's response as already cast.
func surveyPercentage(selected, total int64) int {
	if total <= 0 {
		return 100
	}
	return int(math.Round(float64(selected+1) / float64(total+1) * 100))
}

func (s *Service) surveyGuardEnabled(ctx context.Context) bool {
	return s.flags.Enabled(ctx, featureflags.SurveyDuplicateGuard, s.cfg.SurveyDuplicateGuard)
}

// SubmitSurvey records answers to the campaign's survey questions and
// returns the share of respondents who picked the same options.
func (s *Service) SubmitSurvey(ctx context.Context, req SurveyRequest) (*SurveyResult, error) {
	opts := append(logFields(ctx),
		zap.String("campaign_id", req.CampaignID),
		zap.String("user_id", req.UserID),
	)

	answers, err := req.validate()
	if err != nil {
		return nil, err
	}

	u, err := s.users.Get(ctx, req.UserID)
	if err != nil {
		return nil, err
	}
	c, err := s.getCampaign(ctx, req.CampaignID)
	if err != nil {
		return nil, err
	}

	if s.surveyGuardEnabled(ctx) {
		n, err := s.surveys.Count(ctx, &SurveySubmission{UserID: u.ID, CampaignID: c.ID})
		if err != nil {
			return nil, errutil.Internal("Internal server error", err)
		}
		if n > 0 {
			return nil, errutil.BadRequest("You've already submitted this survey", nil,
				errutil.WithFields(map[string]any{"alreadyCompleted": true}))
		}
	}

	results := make(map[string]SurveyPercentage, len(answers))
	updates := make([]*QuestionUpdate, 0, len(answers))
	for _, a := range answers {
		q, err := s.getQuestion(ctx, c.ID, a.kind)
		if err != nil {
			return nil, err
		}
		if q == nil {
			return nil, errutil.BadRequest(fmt.Sprintf("This campaign doesn't have survey question %d", a.number), nil)
		}

		field, err := OptionCountField(a.option)
		if err != nil {
			return nil, errutil.BadRequest(fmt.Sprintf("Survey response %d must be between 1 and 4", a.number), err)
		}
		updates = append(updates, NewQuestionUpdate(a.kind).Inc(field))

		pct := surveyPercentage(q.OptionCount(a.option), q.TotalResponses())
		results[fmt.Sprintf("surveyQuestion%d", a.number)] = SurveyPercentage{
			Percentage: fmt.Sprintf("%d%% of people selected this option", pct),
		}
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, qu := range updates {
			if err := qu.Apply(ctx, tx, c.ID); err != nil {
				return err
			}
		}
		return upsertSurveySubmission(ctx, tx, u.ID, c.ID)
	})
	if err != nil {
		zap.L().With(opts...).Error("failed to record survey response", zap.Error(err))
		return nil, errutil.Internal("Internal server error", err)
	}

	return &SurveyResult{
		Results: results,
		BalanceDetails: BalanceDetails{
			TotalBalance:     u.TotalBalance,
			RemainingBalance: u.RemainingBalance,
		},
	}, nil
}
