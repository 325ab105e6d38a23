package campaign

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"smallbiznis-rewards/pkg/errutil"
	"smallbiznis-rewards/services/ledger"
	"smallbiznis-rewards/services/user"
)

func seedQuiz(t *testing.T, env *testEnv) {
	t.Helper()
	env.seedUser(t, "501", user.PlanPremium)
	env.seedCampaign(t, Campaign{ID: "701", Title: "Spring Sale", VideoURL: "https://cdn.example.com/spring.mp4", EngagementGoal: 100})
	env.seedQuestion(t, Question{
		ID:           "801",
		CampaignID:   "701",
		Kind:         QuestionKindQuiz,
		Prompt:       "What colour was the car?",
		Answer:       "Red",
		Option1Count: 3,
		Option2Count: 1,
	})
}

func TestSubmitQuizCorrectAnswerCreditsReward(t *testing.T) {
	env := newTestEnv(t, nil)
	seedQuiz(t, env)
	ctx := context.Background()

	res, err := env.svc.SubmitQuiz(ctx, QuizRequest{
		CampaignID:       "701",
		UserID:           "501",
		QuestionResponse: "1",
		WatchTime:        "20",
	})
	require.NoError(t, err)
	require.True(t, res.IsCorrect)
	require.Equal(t, "80% of people selected this option", res.Percentage)
	require.NotNil(t, res.CorrectAnswerNumber)
	require.Equal(t, 1, *res.CorrectAnswerNumber)
	require.NotNil(t, res.RewardDetails)
	require.Equal(t, "0.20", res.RewardDetails.EarnedAmount.StringFixed(2))

	var q Question
	require.NoError(t, env.db.Where("id = ?", "801").Take(&q).Error)
	require.Equal(t, int64(4), q.Option1Count)

	var demo DemographicCount
	require.NoError(t, env.db.Where("campaign_id = ? AND kind = ?", "701", QuestionKindQuiz).Take(&demo).Error)
	require.Equal(t, user.AgeGroup25To33, demo.AgeGroup)
	require.Equal(t, user.GenderFemale, demo.Gender)
	require.Equal(t, 1, demo.Option)
	require.Equal(t, int64(1), demo.Count)

	require.Equal(t, int64(1), env.reload(t, "701").EngagementTotal)

	var hist WatchTime
	require.NoError(t, env.db.Where("campaign_id = ?", "701").Take(&hist).Error)
	require.Equal(t, 20, hist.Seconds)

	var u user.User
	require.NoError(t, env.db.Where("id = ?", "501").Take(&u).Error)
	require.Equal(t, "0.20", u.TotalBalance.StringFixed(2))

	var entries int64
	require.NoError(t, env.db.Model(&ledger.TransactionHistory{}).Where("user_id = ?", "501").Count(&entries).Error)
	require.Equal(t, int64(1), entries)

	var watchers int64
	require.NoError(t, env.db.Model(&VideoWatchUser{}).Count(&watchers).Error)
	require.Equal(t, int64(1), watchers)
}

func TestSubmitQuizLeavesCompletionToClicks(t *testing.T) {
	env := newTestEnv(t, nil)
	env.seedUser(t, "501", user.PlanPremium)
	env.seedCampaign(t, Campaign{ID: "701", Title: "Spring Sale", EngagementGoal: 1, EngagementTotal: 1})
	env.seedQuestion(t, Question{ID: "801", CampaignID: "701", Kind: QuestionKindQuiz, Answer: "Red", Option1Count: 1})

	res, err := env.svc.SubmitQuiz(context.Background(), QuizRequest{
		CampaignID:       "701",
		UserID:           "501",
		QuestionResponse: "1",
		WatchTime:        "10",
	})
	require.NoError(t, err)
	require.True(t, res.IsCorrect)

	c := env.reload(t, "701")
	require.Equal(t, int64(2), c.EngagementTotal)
	require.Equal(t, CampaignStatusActive, c.Status)
}

func TestSubmitQuizRewardsOnlyOnce(t *testing.T) {
	env := newTestEnv(t, nil)
	seedQuiz(t, env)
	ctx := context.Background()

	req := QuizRequest{CampaignID: "701", UserID: "501", QuestionResponse: "1", WatchTime: "10"}
	_, err := env.svc.SubmitQuiz(ctx, req)
	require.NoError(t, err)

	_, err = env.svc.SubmitQuiz(ctx, req)
	be := requireStatus(t, err, errutil.StatusBadRequest, "You've already earned reward from this video")
	require.Equal(t, true, be.Fields["alreadyCompleted"])

	var u user.User
	require.NoError(t, env.db.Where("id = ?", "501").Take(&u).Error)
	require.Equal(t, "0.10", u.TotalBalance.StringFixed(2))
	require.Equal(t, int64(1), env.reload(t, "701").EngagementTotal)
}

func TestSubmitQuizWrongAnswerWritesNothing(t *testing.T) {
	env := newTestEnv(t, nil)
	seedQuiz(t, env)

	res, err := env.svc.SubmitQuiz(context.Background(), QuizRequest{
		CampaignID:       "701",
		UserID:           "501",
		QuestionResponse: "2",
		WatchTime:        "25",
	})
	require.NoError(t, err)
	require.False(t, res.IsCorrect)
	require.Nil(t, res.RewardDetails)
	require.Equal(t, "20% of people selected this option", res.Percentage)

	var views int64
	require.NoError(t, env.db.Model(&UserCampaignView{}).Count(&views).Error)
	require.Zero(t, views)
	require.Zero(t, env.reload(t, "701").EngagementTotal)
}

func TestSubmitQuizWatchTime(t *testing.T) {
	t.Run("invalid value writes nothing", func(t *testing.T) {
		env := newTestEnv(t, nil)
		seedQuiz(t, env)

		_, err := env.svc.SubmitQuiz(context.Background(), QuizRequest{
			CampaignID: "701", UserID: "501", QuestionResponse: "1", WatchTime: "soon",
		})
		requireStatus(t, err, errutil.StatusBadRequest, "Invalid watch time value")

		var views int64
		require.NoError(t, env.db.Model(&UserCampaignView{}).Count(&views).Error)
		require.Zero(t, views)
	})

	t.Run("zero is rejected", func(t *testing.T) {
		env := newTestEnv(t, nil)
		seedQuiz(t, env)

		_, err := env.svc.SubmitQuiz(context.Background(), QuizRequest{
			CampaignID: "701", UserID: "501", QuestionResponse: "1", WatchTime: "0",
		})
		requireStatus(t, err, errutil.StatusBadRequest, "Watch time must be positive")
	})

	t.Run("capped at the maximum", func(t *testing.T) {
		env := newTestEnv(t, nil)
		seedQuiz(t, env)

		res, err := env.svc.SubmitQuiz(context.Background(), QuizRequest{
			CampaignID: "701", UserID: "501", QuestionResponse: "1", WatchTime: "95",
		})
		require.NoError(t, err)
		require.Equal(t, "0.30", res.RewardDetails.EarnedAmount.StringFixed(2))
	})

	t.Run("missing watch time skips the reward", func(t *testing.T) {
		env := newTestEnv(t, nil)
		seedQuiz(t, env)

		res, err := env.svc.SubmitQuiz(context.Background(), QuizRequest{
			CampaignID: "701", UserID: "501", QuestionResponse: "1",
		})
		require.NoError(t, err)
		require.True(t, res.IsCorrect)
		require.Nil(t, res.RewardDetails)
		require.Equal(t, int64(1), env.reload(t, "701").EngagementTotal)
	})
}

func TestSubmitQuizValidation(t *testing.T) {
	env := newTestEnv(t, nil)
	seedQuiz(t, env)
	ctx := context.Background()

	cases := []struct {
		name string
		req  QuizRequest
		code errutil.CoreStatus
		msg  string
	}{
		{"missing fields", QuizRequest{CampaignID: "701"}, errutil.StatusBadRequest, "Campaign ID, question response, and user ID are required"},
		{"bad id", QuizRequest{CampaignID: "abc", UserID: "501", QuestionResponse: "1"}, errutil.StatusBadRequest, "Invalid ID format"},
		{"out of range", QuizRequest{CampaignID: "701", UserID: "501", QuestionResponse: "5"}, errutil.StatusBadRequest, "Invalid question response (must be 1-4)"},
		{"unknown campaign", QuizRequest{CampaignID: "999", UserID: "501", QuestionResponse: "1"}, errutil.StatusNotFound, "Campaign not found"},
		{"unknown user", QuizRequest{CampaignID: "701", UserID: "999", QuestionResponse: "1"}, errutil.StatusNotFound, "User not found"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := env.svc.SubmitQuiz(ctx, tc.req)
			requireStatus(t, err, tc.code, tc.msg)
		})
	}
}

func TestSubmitQuizWithoutQuestion(t *testing.T) {
	env := newTestEnv(t, nil)
	env.seedUser(t, "501", user.PlanFree)
	env.seedCampaign(t, Campaign{ID: "702", EngagementGoal: 10})

	_, err := env.svc.SubmitQuiz(context.Background(), QuizRequest{CampaignID: "702", UserID: "501", QuestionResponse: "1"})
	requireStatus(t, err, errutil.StatusNotFound, "No quiz question found for this campaign")
}
