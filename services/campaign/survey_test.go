package campaign

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"smallbiznis-rewards/pkg/errutil"
	"smallbiznis-rewards/pkg/featureflags"
	"smallbiznis-rewards/services/user"
)

func seedSurvey(t *testing.T, env *testEnv) {
	t.Helper()
	env.seedUser(t, "501", user.PlanFree)
	env.seedCampaign(t, Campaign{ID: "701", EngagementGoal: 100})
	env.seedQuestion(t, Question{ID: "811", CampaignID: "701", Kind: QuestionKindSurvey1, Prompt: "Favourite colour?", Option3Count: 1, Option4Count: 2})
	env.seedQuestion(t, Question{ID: "812", CampaignID: "701", Kind: QuestionKindSurvey2, Prompt: "Would you buy?"})
}

func TestSurveyPercentage(t *testing.T) {
	require.Equal(t, 100, surveyPercentage(0, 0))
	require.Equal(t, 50, surveyPercentage(1, 3))
	require.Equal(t, 25, surveyPercentage(0, 3))
}

func TestSubmitSurveyRecordsResponses(t *testing.T) {
	env := newTestEnv(t, nil)
	seedSurvey(t, env)

	res, err := env.svc.SubmitSurvey(context.Background(), SurveyRequest{
		CampaignID:      "701",
		UserID:          "501",
		SurveyResponse1: "3",
		SurveyResponse2: "1",
	})
	require.NoError(t, err)
	require.Equal(t, "50% of people selected this option", res.Results["surveyQuestion1"].Percentage)
	require.Equal(t, "100% of people selected this option", res.Results["surveyQuestion2"].Percentage)

	var q1, q2 Question
	require.NoError(t, env.db.Where("id = ?", "811").Take(&q1).Error)
	require.NoError(t, env.db.Where("id = ?", "812").Take(&q2).Error)
	require.Equal(t, int64(2), q1.Option3Count)
	require.Equal(t, int64(1), q2.Option1Count)

	var subs int64
	require.NoError(t, env.db.Model(&SurveySubmission{}).Count(&subs).Error)
	require.Equal(t, int64(1), subs)
}

func TestSubmitSurveyDuplicateGuard(t *testing.T) {
	req := SurveyRequest{CampaignID: "701", UserID: "501", SurveyResponse1: "1"}

	t.Run("disabled allows resubmission", func(t *testing.T) {
		env := newTestEnv(t, nil)
		seedSurvey(t, env)
		ctx := context.Background()

		_, err := env.svc.SubmitSurvey(ctx, req)
		require.NoError(t, err)
		_, err = env.svc.SubmitSurvey(ctx, req)
		require.NoError(t, err)

		var q Question
		require.NoError(t, env.db.Where("id = ?", "811").Take(&q).Error)
		require.Equal(t, int64(2), q.Option1Count)
	})

	t.Run("enabled rejects resubmission", func(t *testing.T) {
		env := newTestEnv(t, featureflags.Static{featureflags.SurveyDuplicateGuard: true})
		seedSurvey(t, env)
		ctx := context.Background()

		_, err := env.svc.SubmitSurvey(ctx, req)
		require.NoError(t, err)
		_, err = env.svc.SubmitSurvey(ctx, req)
		be := requireStatus(t, err, errutil.StatusBadRequest, "You've already submitted this survey")
		require.Equal(t, true, be.Fields["alreadyCompleted"])

		var q Question
		require.NoError(t, env.db.Where("id = ?", "811").Take(&q).Error)
		require.Equal(t, int64(1), q.Option1Count)
	})
}

func TestSubmitSurveyValidation(t *testing.T) {
	env := newTestEnv(t, nil)
	seedSurvey(t, env)
	env.seedCampaign(t, Campaign{ID: "702", EngagementGoal: 10})
	ctx := context.Background()

	cases := []struct {
		name string
		req  SurveyRequest
		code errutil.CoreStatus
		msg  string
	}{
		{"missing ids", SurveyRequest{UserID: "501"}, errutil.StatusBadRequest, "Campaign ID and user ID are required"},
		{"bad id", SurveyRequest{CampaignID: "x1", UserID: "501", SurveyResponse1: "1"}, errutil.StatusBadRequest, "Invalid ID format"},
		{"no responses", SurveyRequest{CampaignID: "701", UserID: "501"}, errutil.StatusBadRequest, "At least one survey response is required"},
		{"out of range", SurveyRequest{CampaignID: "701", UserID: "501", SurveyResponse2: "9"}, errutil.StatusBadRequest, "Survey response 2 must be between 1 and 4"},
		{"unknown user", SurveyRequest{CampaignID: "701", UserID: "999", SurveyResponse1: "1"}, errutil.StatusNotFound, "User not found"},
		{"missing question", SurveyRequest{CampaignID: "702", UserID: "501", SurveyResponse1: "1"}, errutil.StatusBadRequest, "This campaign doesn't have survey question 1"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := env.svc.SubmitSurvey(ctx, tc.req)
			requireStatus(t, err, tc.code, tc.msg)
		})
	}
}
