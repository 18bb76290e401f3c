package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/jobdiary/jobdiary/cmd/jobdiary/cli"
	"github.com/jobdiary/jobdiary/internal/app"
	"github.com/jobdiary/jobdiary/internal/customers"
	"github.com/jobdiary/jobdiary/internal/diary"
	"github.com/jobdiary/jobdiary/internal/notify"
	"github.com/jobdiary/jobdiary/internal/observability"
	"github.com/jobdiary/jobdiary/internal/payments"
	"github.com/jobdiary/jobdiary/internal/platform/cache"
	"github.com/jobdiary/jobdiary/internal/platform/db"
	"github.com/jobdiary/jobdiary/internal/rbac"
	"github.com/jobdiary/jobdiary/internal/registry"
	"github.com/jobdiary/jobdiary/internal/settings"
	"github.com/jobdiary/jobdiary/internal/shared"
	"github.com/jobdiary/jobdiary/internal/staff"
	"github.com/jobdiary/jobdiary/jobs"
	"github.com/jobdiary/jobdiary/report"
)

const sessionCookie = "jd_session"

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
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

	if len(os.Args) > 1 && os.Args[1] == "jobs" {
		if err := runJobsCommand(ctx, cfg, os.Args[2:]); err != nil {
			logger.Error("jobs command", slog.Any("error", err))
			os.Exit(1)
		}
		return
	}

	if err := run(ctx, stop, cfg, logger); err != nil {
		logger.Error("jobdiary", slog.Any("error", err))
		os.Exit(1)
	}
}

func run(ctx context.Context, stop context.CancelFunc, cfg *app.Config, logger *slog.Logger) error {
	pool, err := db.New(ctx, cfg.Database())
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	defer pool.Close()

	redisClient, err := cache.New(ctx, cfg.Redis())
	if err != nil {
		return fmt.Errorf("connect redis: %w", err)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	redisOpts := cfg.Redis().TaskQueue()
	reminderClient, err := jobs.NewClient(redisOpts)
	if err != nil {
		return fmt.Errorf("init task client: %w", err)
	}
	defer func() {
		if err := reminderClient.Close(); err != nil {
			logger.Warn("task client close", slog.Any("error", err))
		}
	}()

	metrics := observability.NewMetrics()
	services := app.NewServices(app.ServiceDeps{
		Config:    cfg,
		Pool:      pool,
		Redis:     redisClient,
		Logger:    logger,
		Reminders: reminderClient,
		Recorder:  metrics,
	})

	sessionManager := shared.NewSessionManager(redisClient, sessionCookie, cfg.SessionSecret, cfg.SessionTTL, cfg.IsProduction())
	csrfManager := shared.NewCSRFManager(cfg.CSRFSecret)
	rbacMiddleware := rbac.Middleware{Service: rbac.NewService(services.Staff), Logger: logger}

	inspector := asynq.NewInspector(redisOpts)
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()

	router := app.NewRouter(app.RouterParams{
		Logger:           logger,
		Config:           cfg,
		SessionManager:   sessionManager,
		CSRFManager:      csrfManager,
		RBACMiddleware:   rbacMiddleware,
		Metrics:          metrics,
		StaffHandler:     staff.NewHandler(logger, services.Staff, sessionManager, csrfManager),
		DiaryHandler:     diary.NewHandler(services.Diary, logger),
		PaymentsHandler:  payments.NewHandler(services.Payments, logger),
		CustomersHandler: customers.NewHandler(services.Customers),
		RegistryHandler:  registry.NewHandler(services.Registry, logger),
		SettingsHandler:  settings.NewHandler(services.Settings),
		NotifyHandler:    notify.NewHandler(services.Dispatcher),
		ReportHandler:    report.NewHandler(services.Invoices, services.PDF, logger),
		JobHandler:       jobs.NewHandler(inspector, logger),
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown: %w", err)
	}
	return nil
}

func runJobsCommand(ctx context.Context, cfg *app.Config, args []string) error {
	jobsCLI, err := cli.NewJobsCLI(cfg.Redis().TaskQueue())
	if err != nil {
		return err
	}
	defer jobsCLI.Close()
	return jobsCLI.Run(ctx, os.Stdout, args)
}
