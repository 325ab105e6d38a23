package campaign

import (
	"context"
	"fmt"
	"math"

	"smallbiznis-rewards/pkg/db"
	"smallbiznis-rewards/pkg/errutil"
	"smallbiznis-rewards/pkg/gen"
	"smallbiznis-rewards/services/reward"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

type QuizRequest struct {
	CampaignID       string  `json:"campaignId"`
	UserID           string  `json:"userId"`
	QuestionResponse Numeric `json:"questionResponse"`
	WatchTime        Numeric `json:"watchTime"`
}

type QuizResult struct {
	Percentage          string          `json:"percentage"`
	IsCorrect           bool            `json:"isCorrect"`
	RewardDetails       *reward.Details `json:"rewardDetails"`
	CorrectAnswerNumber *int            `json:"correctAnswerNumber"`
}

func (r QuizRequest) validate() (int, error) {
	if r.CampaignID == "" || r.UserID == "" || !r.QuestionResponse.Present() {
		return 0, errutil.BadRequest("Campaign ID, question response, and user ID are required", nil)
	}
	if !gen.ValidID(r.CampaignID) || !gen.ValidID(r.UserID) {
		return 0, errutil.BadRequest("Invalid ID format", nil)
	}
	option, ok := r.QuestionResponse.Int()
	if !ok || option < 1 || option > 4 {
		return 0, errutil.BadRequest("Invalid question response (must be 1-4)", nil)
	}
	return option, nil
}

// watchSeconds parses and caps the watch time. Callers only ask when the
// request carries one.
func (s *Service) watchSeconds(raw Numeric) (int, error) {
	secs, ok := raw.Int()
	if !ok {
		return 0, errutil.BadRequest("Invalid watch time value", nil)
	}
	if limit := s.cfg.MaxWatchSeconds; limit > 0 && secs > limit {
		secs = limit
	}
	if secs <= 0 {
		return 0, errutil.BadRequest("Watch time must be positive", nil)
	}
	return secs, nil
}

// SubmitQuiz records a quiz answer. The first correct answer per user and
// campaign claims the view marker, counts the engagement and, with a watch
// time, credits the reward.
func (s *Service) SubmitQuiz(ctx context.Context, req QuizRequest) (*QuizResult, error) {
	opts := append(logFields(ctx),
		zap.String("campaign_id", req.CampaignID),
		zap.String("user_id", req.UserID),
	)

	option, err := req.validate()
	if err != nil {
		return nil, err
	}

	viewed, err := s.hasViewed(ctx, req.UserID, req.CampaignID)
	if err != nil {
		return nil, err
	}
	if viewed {
		return nil, alreadyRewarded()
	}

	u, err := s.users.Get(ctx, req.UserID)
	if err != nil {
		return nil, err
	}
	demo, err := s.users.DemographicsOf(u)
	if err != nil {
		return nil, err
	}

	c, err := s.getCampaign(ctx, req.CampaignID)
	if err != nil {
		return nil, err
	}
	q, err := s.getQuestion(ctx, c.ID, QuestionKindQuiz)
	if err != nil {
		return nil, err
	}
	if q == nil {
		return nil, errutil.NotFound("No quiz question found for this campaign", nil)
	}

	optionField, err := OptionCountField(option)
	if err != nil {
		return nil, errutil.BadRequest("Invalid question response (must be 1-4)", err)
	}

	isCorrect := q.Option(option) == q.Answer
	priorTotal := q.TotalResponses()

	var correctAnswer *int
	if n := q.AnswerOrdinal(); n > 0 {
		correctAnswer = &n
	}

	watch := 0
	if isCorrect && req.WatchTime.Present() {
		if watch, err = s.watchSeconds(req.WatchTime); err != nil {
			return nil, err
		}
	}

	var details *reward.Details
	if isCorrect {
		claim := &UserCampaignView{UserID: u.ID, CampaignID: c.ID, CreatedAt: s.now().UTC()}
		if err := s.views.Create(ctx, claim); err != nil {
			if db.IsDuplicateKey(err) {
				return nil, alreadyRewarded()
			}
			zap.L().With(opts...).Error("failed to claim campaign view", zap.Error(err))
			return nil, errutil.Internal("Internal server error", err)
		}

		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			return NewQuestionUpdate(QuestionKindQuiz).Inc(optionField).Apply(gctx, s.db, c.ID)
		})
		g.Go(func() error {
			return incrementDemographic(gctx, s.db, c.ID, DemographicKey{
				Question: QuestionKindQuiz,
				Option:   option,
				AgeGroup: demo.AgeGroup,
				Gender:   demo.Gender,
			})
		})
		g.Go(func() error {
			_, err := NewUpdate().Inc(FieldEngagementTotal, 1).Apply(gctx, s.db, c.ID)
			return err
		})

		if watch > 0 {
			g.Go(func() error {
				return incrementWatchTime(gctx, s.db, c.ID, watch)
			})
			g.Go(func() error {
				d, err := s.rewards.Credit(gctx, u.ID, watch, u.SubscriptionPlan)
				details = d
				return err
			})
			if c.VideoURL != "" {
				g.Go(func() error {
					return upsertVideoWatchUser(gctx, s.db, u.ID, c.VideoURL)
				})
			}
		}

		if err := g.Wait(); err != nil {
			zap.L().With(opts...).Error("failed to record quiz response", zap.Error(err))
			if _, ok := errutil.As(err); ok {
				return nil, err
			}
			return nil, errutil.Internal("Internal server error", err)
		}
	}

	updated, err := s.getQuestion(ctx, c.ID, QuestionKindQuiz)
	if err != nil {
		return nil, err
	}
	if updated == nil {
		updated = q
	}

	pct := int(math.Round(float64(updated.OptionCount(option)) / float64(priorTotal+1) * 100))

	zap.L().With(opts...).Info("quiz response recorded",
		zap.Bool("is_correct", isCorrect),
		zap.Int("watch_seconds", watch),
	)

	return &QuizResult{
		Percentage:          fmt.Sprintf("%d%% of people selected this option", pct),
		IsCorrect:           isCorrect,
		RewardDetails:       details,
		CorrectAnswerNumber: correctAnswer,
	}, nil
}
