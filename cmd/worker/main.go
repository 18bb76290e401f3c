package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"

	"github.com/jobdiary/jobdiary/internal/app"
	jobmetrics "github.com/jobdiary/jobdiary/internal/jobs"
	"github.com/jobdiary/jobdiary/internal/platform/cache"
	"github.com/jobdiary/jobdiary/internal/platform/db"
	"github.com/jobdiary/jobdiary/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping worker startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	pool, err := db.New(ctx, cfg.Database())
	if err != nil {
		logger.Error("connect database", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	redisClient, err := cache.New(ctx, cfg.Redis())
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	redisOpts := cfg.Redis().TaskQueue()
	reminderClient, err := jobs.NewClient(redisOpts)
	if err != nil {
		logger.Error("init task client", slog.Any("error", err))
		os.Exit(1)
	}
	defer reminderClient.Close()

	services := app.NewServices(app.ServiceDeps{
		Config:    cfg,
		Pool:      pool,
		Redis:     redisClient,
		Logger:    logger,
		Reminders: reminderClient,
	})
	metrics := jobmetrics.NewMetrics(nil)

	reminderJob := &jobs.ReminderJob{
		Settings: services.Settings,
		Jobs:     services.Diary,
		Sender:   services.Dispatcher,
		Logger:   logger,
		Metrics:  metrics,
	}
	offerJob := &jobs.QuoteOfferJob{
		Settings: services.Settings,
		Quotes:   services.Diary,
		Sender:   services.Dispatcher,
		Logger:   logger,
		Metrics:  metrics,
	}

	offerTask, err := jobs.NewQuoteOfferScanTask(0)
	if err != nil {
		logger.Error("build quote offer task", slog.Any("error", err))
		os.Exit(1)
	}

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts:   redisOpts,
		Logger:      logger,
		Concurrency: cfg.WorkerConcurrency,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskAppointmentReminder, Handler: reminderJob.Handle},
			{Type: jobs.TaskQuoteOfferScan, Handler: offerJob.Handle},
		},
		Cron: []jobs.CronRegistration{
			{Spec: cfg.QuoteOfferCron, Task: offerTask, Options: []asynq.Option{asynq.Queue(jobs.QueueDefault), asynq.MaxRetry(0)}},
		},
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("worker run", slog.Any("error", err))
		os.Exit(1)
	}
}
