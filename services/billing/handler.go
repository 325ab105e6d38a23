package billing

import (
	"context"

	"smallbiznis-rewards/pkg/httpapi"
	"smallbiznis-rewards/pkg/task"

	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Register(r gin.IRouter) {
	r.POST("/v1/campaign/paymentDeduct", h.PaymentDeduct)
}

func (h *Handler) PaymentDeduct(c *gin.Context) {
	res, err := h.svc.Deduct(c.Request.Context())
	if err != nil {
		_ = c.Error(err)
		return
	}

	if res.PaymentIntentID == "" {
		httpapi.OK(c, res.Message, gin.H{
			"campaignId":       res.CampaignID,
			"engagementsToday": res.EngagementsToday,
		})
		return
	}

	httpapi.OK(c, res.Message, gin.H{
		"paymentIntentId": res.PaymentIntentID,
		"remainingBudget": res.RemainingBudget,
	})
}

// HandleDeductDaily settles every active campaign for the payload day, or
// for the default settlement day when the payload carries none.
func (s *Service) HandleDeductDaily(ctx context.Context, t *asynq.Task) error {
	var p DeductDailyPayload
	if len(t.Payload()) > 0 {
		if err := task.DecodePayload(t, &p); err != nil {
			return err
		}
	}
	day := p.Day
	if day == "" {
		day = s.SettlementDay()
	}

	summary, err := s.RunDaily(ctx, day)
	if err != nil {
		return err
	}

	zap.L().Info("daily deduction finished",
		zap.String("task_type", t.Type()),
		zap.String("billing_day", summary.Day),
		zap.Int("charged", summary.Charged),
		zap.Int("skipped", summary.Skipped),
		zap.Int("failed", summary.Failed),
	)
	return nil
}
