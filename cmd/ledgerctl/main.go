package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/spf13/cobra"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"smallbiznis-rewards/pkg/config"
	"smallbiznis-rewards/pkg/db"
	"smallbiznis-rewards/pkg/gen"
	"smallbiznis-rewards/pkg/hashistack/secretmanager"
	"smallbiznis-rewards/pkg/logger"
	"smallbiznis-rewards/pkg/redis"
	queue "smallbiznis-rewards/pkg/task"
	"smallbiznis-rewards/pkg/taskname"
	"smallbiznis-rewards/services/billing"
	"smallbiznis-rewards/services/schema"
	"smallbiznis-rewards/services/task"
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "ledgerctl",
		Short:         "operate the rewards ledger",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.AddCommand(
		migrateCommand(),
		deductCommand(),
		sweepCommand(),
		jobCommand(),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		fmt.Fprintln(os.Stderr, "[ERROR]", err)
		os.Exit(1)
	}
}

var fxLogger = fx.WithLogger(func(cfg *config.Config, logger *zap.Logger) fxevent.Logger {
	return fxevent.NopLogger
})

// withApp starts a minimal app, fills targets and runs fn before stopping it.
func withApp(ctx context.Context, fn func() error, opts ...fx.Option) error {
	base := []fx.Option{
		secretmanager.Module,
		config.Module,
		logger.Module,
		db.Module,
		fxLogger,
	}
	app := fx.New(append(base, opts...)...)
	if err := app.Err(); err != nil {
		return err
	}

	if err := app.Start(ctx); err != nil {
		return err
	}
	defer func() {
		stopCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 15*time.Second)
		defer cancel()
		_ = app.Stop(stopCtx)
	}()

	return fn()
}

// dispatcherOptions wires the job tracker and the asynq client it enqueues on.
func dispatcherOptions(svc **task.Service) []fx.Option {
	return []fx.Option{
		gen.Module,
		redis.Module,
		queue.Client,
		task.Module,
		fx.Populate(svc),
	}
}

func migrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "create or update the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			var gdb *gorm.DB
			return withApp(cmd.Context(), func() error {
				if err := schema.Migrate(cmd.Context(), gdb); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "migrated %d models\n", len(schema.Models()))
				return nil
			}, fx.Populate(&gdb))
		},
	}
}

func deductCommand() *cobra.Command {
	var day string
	cmd := &cobra.Command{
		Use:   "deduct",
		Short: "enqueue the daily engagement charge for every active campaign",
		RunE: func(cmd *cobra.Command, args []string) error {
			if day != "" {
				if _, err := time.Parse(time.DateOnly, day); err != nil {
					return fmt.Errorf("invalid --day %q, want YYYY-MM-DD", day)
				}
			}

			var svc *task.Service
			return withApp(cmd.Context(), func() error {
				job, err := svc.Dispatch(cmd.Context(), taskname.BillingDeductDaily,
					billing.DeductDailyPayload{Day: day},
					asynq.Queue(queue.QueueCritical),
				)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "dispatched %s as job %s\n", taskname.BillingDeductDaily, job.ID)
				return nil
			}, dispatcherOptions(&svc)...)
		},
	}
	cmd.Flags().StringVar(&day, "day", "", "billing day (YYYY-MM-DD), defaults to the configured settlement day")
	return cmd
}

func sweepCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "sweep",
		Short: "enqueue the ledger retention sweep",
		RunE: func(cmd *cobra.Command, args []string) error {
			var svc *task.Service
			return withApp(cmd.Context(), func() error {
				job, err := svc.Dispatch(cmd.Context(), taskname.LedgerRetentionSweep, struct{}{},
					asynq.Queue(queue.QueueLow),
				)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "dispatched %s as job %s\n", taskname.LedgerRetentionSweep, job.ID)
				return nil
			}, dispatcherOptions(&svc)...)
		},
	}
}

func jobCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "job <id>",
		Short: "show the status of a dispatched job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var svc *task.Service
			return withApp(cmd.Context(), func() error {
				job, err := svc.Get(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "id:        %s\n", job.ID)
				fmt.Fprintf(out, "name:      %s\n", job.Name)
				fmt.Fprintf(out, "status:    %s\n", job.Status)
				if job.StartedAt != nil {
					fmt.Fprintf(out, "started:   %s\n", job.StartedAt.Format(time.RFC3339))
				}
				if job.CompletedAt != nil {
					fmt.Fprintf(out, "completed: %s\n", job.CompletedAt.Format(time.RFC3339))
				}
				if job.ErrorMsg != "" {
					fmt.Fprintf(out, "error:     %s\n", job.ErrorMsg)
				}
				return nil
			}, dispatcherOptions(&svc)...)
		},
	}
}
