package queue

import (
	"context"
	"fmt"
	"time"

	"seller-gateway/config"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"
)

// RedisOpt converts the shared Redis settings into asynq's connection option.
func RedisOpt(cfg config.RedisConfig) asynq.RedisClientOpt {
	return asynq.RedisClientOpt{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	}
}

// NewServer creates the asynq server that consumes the ledger queue.
func NewServer(redis config.RedisConfig, worker config.WorkerConfig, log zerolog.Logger) *asynq.Server {
	concurrency := worker.Concurrency
	if concurrency < 1 {
		concurrency = 1
	}

	return asynq.NewServer(RedisOpt(redis), asynq.Config{
		Concurrency:     concurrency,
		Queues:          map[string]int{QueueLedger: 1},
		Logger:          NewLogger(log),
		ShutdownTimeout: 30 * time.Second,
		ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
			log.Error().Err(err).Str("task", task.Type()).Msg("task failed")
		}),
	})
}

// NewScheduler creates the scheduler and registers the periodic ledger tasks.
func NewScheduler(redis config.RedisConfig, worker config.WorkerConfig, log zerolog.Logger) (*asynq.Scheduler, error) {
	scheduler := asynq.NewScheduler(RedisOpt(redis), &asynq.SchedulerOpts{
		Location: time.UTC,
		Logger:   NewLogger(log),
	})

	if err := RegisterSchedules(scheduler, worker); err != nil {
		return nil, err
	}
	return scheduler, nil
}

// RegisterSchedules adds the reconciliation sweep on the configured cron spec.
func RegisterSchedules(scheduler *asynq.Scheduler, worker config.WorkerConfig) error {
	if _, err := scheduler.Register(worker.ReconcileCron, NewReconcilePendingTask()); err != nil {
		return fmt.Errorf("register %s on %q: %w", TypeReconcilePending, worker.ReconcileCron, err)
	}
	return nil
}

// Logger adapts zerolog to asynq.Logger.
type Logger struct {
	log zerolog.Logger
}

// NewLogger wraps a zerolog logger for asynq.
func NewLogger(log zerolog.Logger) *Logger {
	return &Logger{log: log.With().Str("component", "asynq").Logger()}
}

func (l *Logger) Debug(args ...any) { l.log.Debug().Msg(fmt.Sprint(args...)) }
func (l *Logger) Info(args ...any)  { l.log.Info().Msg(fmt.Sprint(args...)) }
func (l *Logger) Warn(args ...any)  { l.log.Warn().Msg(fmt.Sprint(args...)) }
func (l *Logger) Error(args ...any) { l.log.Error().Msg(fmt.Sprint(args...)) }
func (l *Logger) Fatal(args ...any) { l.log.Fatal().Msg(fmt.Sprint(args...)) }
