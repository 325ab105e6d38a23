package task

import (
	"context"
	"time"

	"smallbiznis-rewards/pkg/config"
	queue "smallbiznis-rewards/pkg/task"
	"smallbiznis-rewards/pkg/taskname"

	"github.com/hibiken/asynq"
	"github.com/robfig/cron/v3"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm/clause"
)

const dispatchTimeout = 30 * time.Second

// Entry is a task dispatched on a cron schedule.
type Entry struct {
	Name     string
	Schedule string
	Queue    string
	MaxRetry int
}

// Scheduler dispatches the configured entries in UTC.
type Scheduler struct {
	cron    *cron.Cron
	service *Service
	entries []Entry
}

func NewScheduler(cfg *config.Config, svc *Service) (*Scheduler, error) {
	s := &Scheduler{
		cron: cron.New(
			cron.WithLocation(time.UTC),
			cron.WithLogger(cron.PrintfLogger(zap.NewStdLog(zap.L().Named("cron")))),
		),
		service: svc,
	}

	for _, e := range DefaultEntries(cfg) {
		if err := s.Add(e); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// DefaultEntries is the daily billing run and the ledger retention sweep.
func DefaultEntries(cfg *config.Config) []Entry {
	return []Entry{
		{Name: taskname.BillingDeductDaily, Schedule: cfg.Billing.Schedule, Queue: queue.QueueCritical, MaxRetry: 3},
		{Name: taskname.LedgerRetentionSweep, Schedule: cfg.Ledger.SweepSchedule, Queue: queue.QueueLow, MaxRetry: 1},
	}
}

func (s *Scheduler) Add(e Entry) error {
	if _, err := s.cron.AddFunc(e.Schedule, func() { s.fire(e) }); err != nil {
		return err
	}
	s.entries = append(s.entries, e)
	return nil
}

func (s *Scheduler) Entries() []Entry {
	return s.entries
}

func (s *Scheduler) fire(e Entry) {
	ctx, cancel := context.WithTimeout(context.Background(), dispatchTimeout)
	defer cancel()

	job, err := s.service.Dispatch(ctx, e.Name, struct{}{},
		asynq.Queue(e.Queue),
		asynq.MaxRetry(e.MaxRetry),
	)
	if err != nil {
		zap.L().Error("[Scheduler] failed to dispatch task", zap.String("task_type", e.Name), zap.Error(err))
		return
	}
	zap.L().Info("[Scheduler] task dispatched", zap.String("task_type", e.Name), zap.String("job_id", job.ID))
}

// sync upserts a Task row per entry and deactivates the rest.
func (s *Scheduler) sync(ctx context.Context) error {
	db := s.service.db.WithContext(ctx)
	names := make([]string, 0, len(s.entries))
	for _, e := range s.entries {
		names = append(names, e.Name)
		row := Task{Name: e.Name, Schedule: e.Schedule, Queue: e.Queue, IsActive: true}
		err := db.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "name"}},
			DoUpdates: clause.AssignmentColumns([]string{"schedule", "queue", "is_active", "updated_at"}),
		}).Create(&row).Error
		if err != nil {
			return err
		}
	}

	q := db.Model(&Task{})
	if len(names) > 0 {
		q = q.Where("name NOT IN ?", names)
	}
	return q.Update("is_active", false).Error
}

func registerScheduler(lc fx.Lifecycle, s *Scheduler) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if err := s.sync(ctx); err != nil {
				zap.L().Warn("[Scheduler] failed to sync task definitions", zap.Error(err))
			}
			s.cron.Start()
			for _, e := range s.entries {
				zap.L().Info("[Scheduler] scheduled", zap.String("task_type", e.Name), zap.String("schedule", e.Schedule))
			}
			return nil
		},
		OnStop: func(ctx context.Context) error {
			select {
			case <-s.cron.Stop().Done():
			case <-ctx.Done():
			}
			return nil
		},
	})
}
