package app

import (
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/jobdiary/jobdiary/internal/customers"
	"github.com/jobdiary/jobdiary/internal/diary"
	"github.com/jobdiary/jobdiary/internal/notify"
	"github.com/jobdiary/jobdiary/internal/payments"
	"github.com/jobdiary/jobdiary/internal/registry"
	"github.com/jobdiary/jobdiary/internal/settings"
	"github.com/jobdiary/jobdiary/internal/shared"
	"github.com/jobdiary/jobdiary/internal/staff"
	"github.com/jobdiary/jobdiary/report"
)

// Services holds the domain services shared by the server and the worker.
type Services struct {
	Settings   *settings.Service
	Staff      *staff.Service
	Customers  *customers.Service
	Diary      *diary.Service
	Payments   *payments.Service
	Registry   *registry.Service
	Dispatcher *notify.Dispatcher
	PDF        *report.Client
	Invoices   *report.InvoiceService
}

// ServiceDeps are the infrastructure handles NewServices wires together.
// Reminders and Recorder may be nil.
type ServiceDeps struct {
	Config    *Config
	Pool      *pgxpool.Pool
	Redis     *redis.Client
	Logger    *slog.Logger
	Reminders diary.ReminderScheduler
	Recorder  notify.Recorder
}

// NewServices builds every domain service. Payments are built before the
// diary and receive the dispatcher afterwards, so no package imports another
// in a cycle.
func NewServices(d ServiceDeps) *Services {
	cfg := d.Config
	logger := d.Logger
	audit := shared.NewAuditLogger(d.Pool)

	settingsSvc := settings.NewService(settings.NewRepository(d.Pool), settings.NewCache(d.Redis, cfg.SettingsCacheTTL), logger)
	staffSvc := staff.NewService(staff.NewRepository(d.Pool))
	customerSvc := customers.NewService(customers.NewRepository(d.Pool))
	diaryRepo := diary.NewRepository(d.Pool)

	paymentSvc := payments.NewService(payments.Deps{
		Repo:     payments.NewRepository(d.Pool),
		Jobs:     diaryRepo,
		Settings: settingsSvc,
		Staff:    staffSvc,
		Keys:     shared.NewIdempotencyStore(d.Redis, cfg.IdempotencyTTL),
		Audit:    audit,
		Logger:   logger,
	})

	diarySvc := diary.NewService(diary.Deps{
		Repo:      diaryRepo,
		Settings:  settingsSvc,
		Payments:  paymentSvc,
		Reminders: d.Reminders,
		Customers: customerSvc,
		Audit:     audit,
		Logger:    logger,
	})

	dispatcher := notify.NewDispatcher(notify.Deps{
		Settings:  settingsSvc,
		Jobs:      diarySvc,
		Customers: customerSvc,
		Payments:  paymentSvc,
		Mailer: notify.NewSMTPMailer(notify.SMTPConfig{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUsername,
			Password: cfg.SMTPPassword,
			From:     cfg.SMTPFrom,
			FromName: cfg.SMTPFromName,
			StartTLS: cfg.SMTPStartTLS,
		}),
		SMS:         notify.NewSMSService(notify.NewTwilioProvider(nil, cfg.NotifySendTimeout)),
		Log:         notify.NewLogRepository(d.Pool),
		Recorder:    d.Recorder,
		Logger:      logger,
		SendTimeout: cfg.NotifySendTimeout,
	})
	paymentSvc.SetEventSink(dispatcher)

	registrySvc := registry.NewService(settingsSvc, diarySvc, paymentSvc, audit, logger)

	pdf := report.NewClient(cfg.GotenbergURL, cfg.GotenbergTimeout)
	invoices := report.NewInvoiceService(report.Deps{
		Settings:  settingsSvc,
		Jobs:      diarySvc,
		Customers: customerSvc,
		Payments:  paymentSvc,
		Renderer:  pdf,
		Logger:    logger,
	})

	return &Services{
		Settings:   settingsSvc,
		Staff:      staffSvc,
		Customers:  customerSvc,
		Diary:      diarySvc,
		Payments:   paymentSvc,
		Registry:   registrySvc,
		Dispatcher: dispatcher,
		PDF:        pdf,
		Invoices:   invoices,
	}
}
