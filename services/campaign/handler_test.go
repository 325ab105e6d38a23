package campaign

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"smallbiznis-rewards/pkg/config"
	"smallbiznis-rewards/pkg/middleware"
	"smallbiznis-rewards/services/user"
)

func newTestRouter(t *testing.T, env *testEnv) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.Use(middleware.Error())
	NewHandler(HandlerParams{Service: env.svc, Config: &config.Config{}}).Register(r)
	return r
}

func doJSON(t *testing.T, r http.Handler, path, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return w, out
}

func TestHandlerRecordCampaignClick(t *testing.T) {
	env := newTestEnv(t, nil)
	env.seedUser(t, "501", user.PlanFree)
	env.seedCampaign(t, Campaign{ID: "701", Title: "Spring Sale", EngagementGoal: 1})
	r := newTestRouter(t, env)

	w, body := doJSON(t, r, "/v1/campaign/recordCampaignClick", `{"userId":"501","campaignId":"701"}`)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, true, body["success"])
	require.Equal(t, "Campaign completed successfully", body["message"])

	data, ok := body["data"].(map[string]any)
	require.True(t, ok)
	require.Equal(t, "Spring Sale", data["campaignTitle"])
	require.Equal(t, "Completed", data["status"])
	require.NotContains(t, data, "paymentMethodId")

	w, body = doJSON(t, r, "/v1/campaign/recordCampaignClick", `{"userId":"501","campaignId":"701"}`)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "Campaign already completed", body["message"])
}

func TestHandlerErrorEnvelope(t *testing.T) {
	env := newTestEnv(t, nil)
	r := newTestRouter(t, env)

	w, body := doJSON(t, r, "/v1/campaign/recordCampaignClick", `{"userId":"501"}`)
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Equal(t, false, body["success"])
	require.Equal(t, "userId and campaignId are required", body["message"])

	w, body = doJSON(t, r, "/v1/campaign/submitQuizQuestionResponse", `{"campaignId":"701","userId":"501","questionResponse":1}`)
	require.Equal(t, http.StatusNotFound, w.Code)
	require.Equal(t, "User not found", body["message"])
	require.NotContains(t, body, "percentage")
}

func TestHandlerSubmitQuizAlreadyRewarded(t *testing.T) {
	env := newTestEnv(t, nil)
	seedQuiz(t, env)
	r := newTestRouter(t, env)

	payload := `{"campaignId":"701","userId":"501","questionResponse":"1","watchTime":12}`
	w, body := doJSON(t, r, "/v1/campaign/submitQuizQuestionResponse", payload)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "Question response recorded successfully", body["message"])
	require.Equal(t, true, body["isCorrect"])
	require.Equal(t, float64(1), body["correctAnswerNumber"])

	details, ok := body["rewardDetails"].(map[string]any)
	require.True(t, ok)
	require.Equal(t, 0.12, details["earnedAmount"])

	w, body = doJSON(t, r, "/v1/campaign/submitQuizQuestionResponse", payload)
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Equal(t, true, body["alreadyCompleted"])
}

func TestHandlerFeed(t *testing.T) {
	env := newTestEnv(t, nil)
	seedFeed(t, env)
	r := newTestRouter(t, env)

	w, body := doJSON(t, r, "/v1/campaign/getAllSortedCampaigns?page=2", `{"gender":"Female"}`)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, float64(2), body["currentPage"])
	require.Equal(t, float64(2), body["totalPages"])
	require.Len(t, body["campaigns"], 3)
}
