package ledger

import (
	"context"

	"smallbiznis-rewards/pkg/errutil"
	"smallbiznis-rewards/pkg/httpapi"

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
	r.POST("/v1/subscription/getUserTransactionHistory", h.GetUserTransactionHistory)
}

func (h *Handler) GetUserTransactionHistory(c *gin.Context) {
	var req ListHistoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(errutil.BadRequest("User ID is required", err))
		return
	}

	resp, err := h.svc.ListHistory(c.Request.Context(), req)
	if err != nil {
		_ = c.Error(err)
		return
	}

	httpapi.OK(c, "Transaction history retrieved successfully", gin.H{
		"data":       resp.Data,
		"pagination": resp.Pagination,
	})
}

// HandleRetentionSweep runs the scheduled retention sweep.
func (s *Service) HandleRetentionSweep(ctx context.Context, t *asynq.Task) error {
	deleted, err := s.Sweep(ctx, s.now())
	if err != nil {
		return err
	}
	zap.L().Info("retention sweep finished", zap.String("task_type", t.Type()), zap.Int64("deleted", deleted))
	return nil
}
