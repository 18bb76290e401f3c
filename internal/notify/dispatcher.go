// Package notify renders and sends customer notifications by email and SMS
// and logs every attempt.
package notify

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jobdiary/jobdiary/internal/customers"
	"github.com/jobdiary/jobdiary/internal/diary"
	"github.com/jobdiary/jobdiary/internal/payments"
	"github.com/jobdiary/jobdiary/internal/settings"
	"github.com/jobdiary/jobdiary/internal/shared"
	"github.com/jobdiary/jobdiary/internal/templating"
)

// DefaultSendTimeout bounds each outbound send.
const DefaultSendTimeout = 20 * time.Second

// SettingsSource supplies the current configuration.
type SettingsSource interface {
	Load(ctx context.Context) (settings.Settings, error)
}

// JobSource loads jobs.
type JobSource interface {
	Job(ctx context.Context, id int64) (*diary.Job, error)
}

// CustomerSource loads customers.
type CustomerSource interface {
	Get(ctx context.Context, id int64) (*customers.Customer, error)
}

// PaymentSource loads payments and job totals.
type PaymentSource interface {
	Get(ctx context.Context, id int64) (*payments.Payment, error)
	TotalForJob(ctx context.Context, jobID int64) (decimal.Decimal, error)
}

// Recorder counts notification outcomes.
type Recorder interface {
	NotificationAttempt(kind, channel, status string)
}

// Deps groups the collaborators of Dispatcher. Recorder and Logger may be nil.
type Deps struct {
	Settings    SettingsSource
	Jobs        JobSource
	Customers   CustomerSource
	Payments    PaymentSource
	Mailer      Mailer
	SMS         *SMSService
	Log         LogRepository
	Recorder    Recorder
	Logger      *slog.Logger
	SendTimeout time.Duration
}

// Dispatcher decides which channels to use, renders, sends and logs.
// Nothing is retried automatically.
type Dispatcher struct {
	settings    SettingsSource
	jobs        JobSource
	customers   CustomerSource
	payments    PaymentSource
	mailer      Mailer
	sms         *SMSService
	log         LogRepository
	recorder    Recorder
	logger      *slog.Logger
	sendTimeout time.Duration
	now         func() time.Time
}

// NewDispatcher constructs a Dispatcher.
func NewDispatcher(deps Deps) *Dispatcher {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	timeout := deps.SendTimeout
	if timeout <= 0 {
		timeout = DefaultSendTimeout
	}
	return &Dispatcher{
		settings:    deps.Settings,
		jobs:        deps.Jobs,
		customers:   deps.Customers,
		payments:    deps.Payments,
		mailer:      deps.Mailer,
		sms:         deps.SMS,
		log:         deps.Log,
		recorder:    deps.Recorder,
		logger:      logger,
		sendTimeout: timeout,
		now:         time.Now,
	}
}

// outbound is one rendered notification ready for its channels.
type outbound struct {
	kind     string
	jobID    *int64
	email    string
	phone    string
	subject  string
	body     string
	smsBody  string
	channels []string
}

// SendAppointmentReminder sends the fitting reminder for a job.
func (d *Dispatcher) SendAppointmentReminder(ctx context.Context, jobID int64, channel string) (bool, error) {
	channels, err := parseChannel(channel)
	if err != nil {
		return false, err
	}
	cfg, job, cust, err := d.loadJob(ctx, jobID)
	if err != nil {
		return false, err
	}
	if job.IsCancelled() {
		return false, shared.Validation("job_id", "entry %d is cancelled", jobID)
	}
	paid, err := d.payments.TotalForJob(ctx, jobID)
	if err != nil {
		return false, err
	}
	fields := templating.NewAssembler(cfg).Job(*job, cust, paid)
	return d.deliver(ctx, cfg, d.build(cfg, TypeAppointmentReminder, job, cust, channels, fields,
		cfg.Templates.ReminderEmailSubject, cfg.Templates.ReminderEmailBody, cfg.Templates.ReminderSMS))
}

// SendPaymentConfirmation confirms a recorded payment, quoting "PAID IN FULL"
// or the remaining balance.
func (d *Dispatcher) SendPaymentConfirmation(ctx context.Context, paymentID int64, channel string) (bool, error) {
	channels, err := parseChannel(channel)
	if err != nil {
		return false, err
	}
	p, err := d.payments.Get(ctx, paymentID)
	if err != nil {
		return false, err
	}
	cfg, job, cust, err := d.loadJob(ctx, p.JobID)
	if err != nil {
		return false, err
	}
	paid, err := d.payments.TotalForJob(ctx, p.JobID)
	if err != nil {
		return false, err
	}
	asm := templating.NewAssembler(cfg)
	fields := templating.Merge(asm.Job(*job, cust, paid), asm.Payment(p.Amount, p.Method, p.Type, p.RecordedAt))
	return d.deliver(ctx, cfg, d.build(cfg, TypePaymentConfirmation, job, cust, channels, fields,
		cfg.Templates.PaymentEmailSubject, cfg.Templates.PaymentEmailBody, cfg.Templates.PaymentSMS))
}

// SendQuoteDiscountOffer offers the configured percentage off an aged quote.
func (d *Dispatcher) SendQuoteDiscountOffer(ctx context.Context, jobID int64, channel string) (bool, error) {
	channels, err := parseChannel(channel)
	if err != nil {
		return false, err
	}
	cfg, job, cust, err := d.loadJob(ctx, jobID)
	if err != nil {
		return false, err
	}
	if !job.IsQuote() {
		return false, shared.Validation("job_id", "entry %d is not a quote", jobID)
	}
	asm := templating.NewAssembler(cfg)
	fields := asm.Job(*job, cust, decimal.Zero)
	total := job.Breakdown(cfg.VATConfig()).Total
	fields = templating.Merge(fields, asm.QuoteOffer(total, cfg.Notifications.QuoteDiscount.Percent))
	return d.deliver(ctx, cfg, d.build(cfg, TypeQuoteDiscount, job, cust, channels, fields,
		cfg.Templates.QuoteOfferEmailSubject, cfg.Templates.QuoteOfferEmailBody, cfg.Templates.QuoteOfferSMS))
}

// SendTestNotification sends a fixed message to recipient without touching
// any job. Callers check the elevated capability.
func (d *Dispatcher) SendTestNotification(ctx context.Context, channel, recipient string) (bool, error) {
	recipient = strings.TrimSpace(recipient)
	if recipient == "" {
		return false, shared.Validation("recipient", "recipient is required")
	}
	cfg, err := d.settings.Load(ctx)
	if err != nil {
		return false, err
	}
	engine := templating.EngineFor(cfg, d.now)
	msg := outbound{kind: TypeTest}
	switch channel {
	case ChannelEmail:
		msg.email = recipient
		msg.subject = engine.Render("Test notification from {company_name}", nil)
		msg.body = engine.Render("This is a test email from {company_name} sent on {current_date}.\n\nIf you received it, email delivery is working.", nil)
		msg.channels = []string{ChannelEmail}
	case ChannelSMS:
		msg.phone = recipient
		msg.smsBody = engine.Render("Test SMS from {company_name}. SMS delivery is working.", nil)
		msg.channels = []string{ChannelSMS}
	default:
		return false, shared.Validation("channel", "channel must be email or sms")
	}
	if channel == ChannelEmail && !cfg.Notifications.EmailEnabled {
		return false, shared.Validation("channel", "email notifications are disabled")
	}
	return d.deliver(ctx, cfg, msg)
}

// PaymentRecorded sends the payment confirmation when it is enabled.
func (d *Dispatcher) PaymentRecorded(ctx context.Context, p payments.Payment) error {
	cfg, err := d.settings.Load(ctx)
	if err != nil {
		return err
	}
	if !cfg.Notifications.PaymentConfirmationEnabled {
		return nil
	}
	ok, err := d.SendPaymentConfirmation(ctx, p.ID, cfg.Notifications.PaymentConfirmationChannel)
	if err != nil {
		return err
	}
	if !ok {
		d.logger.Info("payment confirmation not delivered", slog.Int64("payment_id", p.ID))
	}
	return nil
}

// LogForJob lists the notification attempts for a job.
func (d *Dispatcher) LogForJob(ctx context.Context, jobID int64) ([]LogEntry, error) {
	return d.log.ListForJob(ctx, jobID, 100)
}

func (d *Dispatcher) loadJob(ctx context.Context, jobID int64) (settings.Settings, *diary.Job, *customers.Customer, error) {
	cfg, err := d.settings.Load(ctx)
	if err != nil {
		return settings.Settings{}, nil, nil, err
	}
	job, err := d.jobs.Job(ctx, jobID)
	if err != nil {
		return settings.Settings{}, nil, nil, err
	}
	var cust *customers.Customer
	if job.CustomerID != nil {
		cust, err = d.customers.Get(ctx, *job.CustomerID)
		if err != nil && !errors.Is(err, shared.ErrNotFound) {
			return settings.Settings{}, nil, nil, err
		}
	}
	return cfg, job, cust, nil
}

// build renders the per-channel messages and drops channels the customer
// cannot receive.
func (d *Dispatcher) build(cfg settings.Settings, kind string, job *diary.Job, cust *customers.Customer, channels []string, fields templating.Context, subject, body, sms string) outbound {
	id := job.ID
	msg := outbound{kind: kind, jobID: &id}
	if cust == nil {
		return msg
	}
	engine := templating.EngineFor(cfg, d.now)
	for _, ch := range channels {
		switch ch {
		case ChannelEmail:
			if !cfg.Notifications.EmailEnabled || cust.EmailAddress() == "" {
				continue
			}
			msg.email = cust.EmailAddress()
			msg.subject = engine.Render(subject, fields)
			msg.body = engine.Render(body, fields)
			msg.channels = append(msg.channels, ChannelEmail)
		case ChannelSMS:
			if !cust.CanReceiveSMS() {
				continue
			}
			msg.phone = cust.PhoneNumber()
			msg.smsBody = engine.Render(sms, fields)
			msg.channels = append(msg.channels, ChannelSMS)
		}
	}
	return msg
}

// deliver sends on every prepared channel. The result is true only when at
// least one channel was attempted and all attempts succeeded.
func (d *Dispatcher) deliver(ctx context.Context, cfg settings.Settings, msg outbound) (bool, error) {
	if len(msg.channels) == 0 {
		d.logger.Info("notification skipped, no reachable channel", slog.String("type", msg.kind), jobAttr(msg.jobID))
		return false, nil
	}
	correlation := uuid.NewString()
	ok := true
	for _, ch := range msg.channels {
		entry := LogEntry{
			JobID:         msg.jobID,
			Type:          msg.kind,
			Channel:       ch,
			CorrelationID: correlation,
			Cost:          decimal.Zero,
		}
		sendCtx, cancel := context.WithTimeout(ctx, d.sendTimeout)
		switch ch {
		case ChannelEmail:
			entry.Recipient = msg.email
			err := d.mailer.Send(sendCtx, Message{
				To:      msg.email,
				Subject: msg.subject,
				Body:    msg.body,
				Headers: map[string]string{"X-Notification-ID": correlation},
			})
			entry.Status = StatusSent
			if err != nil {
				entry.Status = StatusFailed
				entry.Error = err.Error()
			}
		case ChannelSMS:
			entry.Recipient = msg.phone
			res, err := d.sms.Send(sendCtx, cfg.SMS, msg.phone, msg.smsBody)
			entry.Status = res.Status
			entry.Cost = res.Cost
			entry.ProviderRef = res.ProviderRef
			if err != nil {
				entry.Status = StatusFailed
				entry.Error = err.Error()
			}
		}
		cancel()

		if entry.Status == StatusFailed {
			ok = false
			d.logger.Warn("notification failed", slog.String("type", msg.kind), slog.String("channel", ch), jobAttr(msg.jobID), slog.String("error", entry.Error))
		} else {
			d.logger.Info("notification sent", slog.String("type", msg.kind), slog.String("channel", ch), slog.String("status", entry.Status), jobAttr(msg.jobID))
		}
		if d.recorder != nil {
			d.recorder.NotificationAttempt(msg.kind, ch, entry.Status)
		}
		entry.CreatedAt = d.now().UTC()
		if _, err := d.log.Insert(ctx, entry); err != nil {
			d.logger.Error("write notification log", slog.Any("error", err))
		}
	}
	return ok, nil
}

func parseChannel(channel string) ([]string, error) {
	switch strings.ToLower(strings.TrimSpace(channel)) {
	case ChannelEmail:
		return []string{ChannelEmail}, nil
	case ChannelSMS:
		return []string{ChannelSMS}, nil
	case ChannelBoth, "":
		return []string{ChannelEmail, ChannelSMS}, nil
	default:
		return nil, shared.Validation("channel", "channel must be email, sms or both")
	}
}

func jobAttr(id *int64) slog.Attr {
	if id == nil {
		return slog.String("job_id", "")
	}
	return slog.Int64("job_id", *id)
}
