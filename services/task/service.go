package task

import (
	"context"
	"time"

	queue "smallbiznis-rewards/pkg/task"

	"github.com/bwmarrin/snowflake"
	"github.com/hibiken/asynq"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Service struct {
	db       *gorm.DB
	node     *snowflake.Node
	enqueuer queue.Enqueuer
	now      func() time.Time
	taskID   func(ctx context.Context) (string, bool)
}

type Params struct {
	fx.In
	DB       *gorm.DB
	Node     *snowflake.Node
	Enqueuer queue.Enqueuer
}

func NewService(p Params) *Service {
	return &Service{
		db:       p.DB,
		node:     p.Node,
		enqueuer: p.Enqueuer,
		now:      time.Now,
		taskID:   asynq.GetTaskID,
	}
}

// Dispatch records a pending Job and enqueues the task under the job id,
// so the worker can report the outcome against the same row.
func (s *Service) Dispatch(ctx context.Context, name string, payload any, opts ...asynq.Option) (*Job, error) {
	t, err := queue.NewJSONTask(name, payload)
	if err != nil {
		return nil, err
	}

	job := &Job{
		ID:       s.node.Generate().String(),
		Name:     name,
		Status:   JobStatusPending,
		Metadata: datatypes.JSON(t.Payload()),
	}
	if err := s.db.WithContext(ctx).Create(job).Error; err != nil {
		return nil, err
	}

	opts = append(opts, asynq.TaskID(job.ID))
	info, err := s.enqueuer.Enqueue(ctx, t, opts...)
	if err != nil {
		s.finish(ctx, job.ID, err)
		return nil, err
	}

	zap.L().Info("dispatched task",
		zap.String("task_type", name),
		zap.String("job_id", job.ID),
		zap.String("queue", info.Queue),
	)
	return job, nil
}

// Middleware moves the job of each processed task through running to
// success or failed. Tasks not created by Dispatch have no row and are
// left alone.
func (s *Service) Middleware() asynq.MiddlewareFunc {
	return func(next asynq.Handler) asynq.Handler {
		return asynq.HandlerFunc(func(ctx context.Context, t *asynq.Task) error {
			id, ok := s.taskID(ctx)
			if !ok {
				return next.ProcessTask(ctx, t)
			}

			s.start(ctx, id)
			err := next.ProcessTask(ctx, t)
			s.finish(ctx, id, err)
			return err
		})
	}
}

func (s *Service) Get(ctx context.Context, id string) (*Job, error) {
	var job Job
	if err := s.db.WithContext(ctx).Where("id = ?", id).Take(&job).Error; err != nil {
		return nil, err
	}
	return &job, nil
}

func (s *Service) start(ctx context.Context, id string) {
	now := s.now().UTC()
	err := s.db.WithContext(ctx).Model(&Job{}).Where("id = ?", id).Updates(map[string]any{
		"status":     JobStatusRunning,
		"started_at": now,
	}).Error
	if err != nil {
		zap.L().Warn("failed to mark job running", zap.String("job_id", id), zap.Error(err))
	}
}

func (s *Service) finish(ctx context.Context, id string, runErr error) {
	values := map[string]any{
		"status":       JobStatusSuccess,
		"completed_at": s.now().UTC(),
	}
	if runErr != nil {
		values["status"] = JobStatusFailed
		values["error_msg"] = runErr.Error()
	}

	err := s.db.WithContext(context.WithoutCancel(ctx)).Model(&Job{}).Where("id = ?", id).Updates(values).Error
	if err != nil {
		zap.L().Warn("failed to record job outcome", zap.String("job_id", id), zap.Error(err))
	}
}
