package campaign

import (
	"strconv"

	"smallbiznis-rewards/pkg/config"
	"smallbiznis-rewards/pkg/errutil"
	"smallbiznis-rewards/pkg/httpapi"
	"smallbiznis-rewards/pkg/middleware"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis_rate/v10"
	"go.uber.org/fx"
)

type Handler struct {
	svc       *Service
	limiter   *redis_rate.Limiter
	perMinute int
}

type HandlerParams struct {
	fx.In

	Service *Service
	Config  *config.Config
	Limiter *redis_rate.Limiter `optional:"true"`
}

func NewHandler(p HandlerParams) *Handler {
	return &Handler{
		svc:       p.Service,
		limiter:   p.Limiter,
		perMinute: p.Config.RateLimit.EngagementPerMinute,
	}
}

func (h *Handler) Register(r gin.IRouter) {
	g := r.Group("/v1/campaign")
	g.POST("/getAllSortedCampaigns", h.GetAllSortedCampaigns)
	g.POST("/submitQuizQuestionResponse", h.SubmitQuizQuestionResponse)
	g.POST("/submitSurveyResponses", h.SubmitSurveyResponses)
	g.POST("/recordCampaignClick",
		middleware.RateLimit(h.limiter, "campaign_click", h.perMinute),
		h.RecordCampaignClick,
	)
}

func (h *Handler) GetAllSortedCampaigns(c *gin.Context) {
	var req FeedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(errutil.BadRequest("Please provide a valid gender (Male or Female)", err))
		return
	}
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))

	res, err := h.svc.Feed(c.Request.Context(), req, page)
	if err != nil {
		_ = c.Error(err)
		return
	}

	httpapi.OK(c, "Campaigns retrieved successfully", gin.H{
		"campaigns":   res.Campaigns,
		"currentPage": res.CurrentPage,
		"totalPages":  res.TotalPages,
	})
}

func (h *Handler) SubmitQuizQuestionResponse(c *gin.Context) {
	var req QuizRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(errutil.BadRequest("Campaign ID, question response, and user ID are required", err))
		return
	}

	res, err := h.svc.SubmitQuiz(c.Request.Context(), req)
	if err != nil {
		_ = c.Error(err)
		return
	}

	httpapi.OK(c, "Question response recorded successfully", gin.H{
		"percentage":          res.Percentage,
		"isCorrect":           res.IsCorrect,
		"rewardDetails":       res.RewardDetails,
		"correctAnswerNumber": res.CorrectAnswerNumber,
	})
}

func (h *Handler) SubmitSurveyResponses(c *gin.Context) {
	var req SurveyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(errutil.BadRequest("Campaign ID and user ID are required", err))
		return
	}

	res, err := h.svc.SubmitSurvey(c.Request.Context(), req)
	if err != nil {
		_ = c.Error(err)
		return
	}

	httpapi.OK(c, "Congratulations! You've earned reward for completing the survey", gin.H{
		"results":        res.Results,
		"balanceDetails": res.BalanceDetails,
	})
}

func (h *Handler) RecordCampaignClick(c *gin.Context) {
	var req ClickRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(errutil.BadRequest("userId and campaignId are required", err))
		return
	}

	res, err := h.svc.RecordClick(c.Request.Context(), req)
	if err != nil {
		_ = c.Error(err)
		return
	}

	httpapi.OK(c, res.Message, gin.H{"data": res.Campaign})
}
