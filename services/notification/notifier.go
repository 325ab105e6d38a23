package notification

import (
	"context"
	"time"

	"smallbiznis-rewards/pkg/task"
	"smallbiznis-rewards/pkg/taskname"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

// CampaignCompleted is the payload of the campaign completion task.
type CampaignCompleted struct {
	CampaignID  string    `json:"campaign_id"`
	OwnerID     string    `json:"owner_id"`
	Title       string    `json:"title"`
	Goal        int64     `json:"goal"`
	Achieved    int64     `json:"achieved"`
	CompletedAt time.Time `json:"completed_at"`
}

type Notifier interface {
	CampaignCompleted(ctx context.Context, ev CampaignCompleted) error
}

// TaskNotifier hands notifications to the worker through asynq.
type TaskNotifier struct {
	enqueuer task.Enqueuer
}

func NewTaskNotifier(enqueuer task.Enqueuer) Notifier {
	return &TaskNotifier{enqueuer: enqueuer}
}

func (n *TaskNotifier) CampaignCompleted(ctx context.Context, ev CampaignCompleted) error {
	t, err := task.NewJSONTask(taskname.NotificationCampaignCompleted, ev,
		asynq.Queue(task.QueueDefault),
		asynq.MaxRetry(3),
	)
	if err != nil {
		return err
	}

	info, err := n.enqueuer.Enqueue(ctx, t)
	if err != nil {
		return err
	}

	zap.L().Info("enqueued campaign completion notification",
		zap.String("campaign_id", ev.CampaignID),
		zap.String("task_id", info.ID),
	)
	return nil
}

// BestEffort delivers through next and only logs failures.
type BestEffort struct {
	next Notifier
}

func NewBestEffort(next Notifier) *BestEffort {
	return &BestEffort{next: next}
}

func (b *BestEffort) CampaignCompleted(ctx context.Context, ev CampaignCompleted) {
	if b == nil || b.next == nil {
		return
	}
	if err := b.next.CampaignCompleted(ctx, ev); err != nil {
		zap.L().Warn("failed to send campaign completion notification",
			zap.String("campaign_id", ev.CampaignID),
			zap.String("owner_id", ev.OwnerID),
			zap.Error(err),
		)
	}
}
