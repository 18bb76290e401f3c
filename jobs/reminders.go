package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/jobdiary/jobdiary/internal/jobs"
	"github.com/jobdiary/jobdiary/internal/settings"
	"github.com/jobdiary/jobdiary/internal/shared"
)

// SettingsSource supplies the current configuration.
type SettingsSource interface {
	Load(ctx context.Context) (settings.Settings, error)
}

// ReminderChecker decides whether a queued reminder still applies.
type ReminderChecker interface {
	ReminderDue(ctx context.Context, jobID int64, appointment time.Time) (bool, error)
}

// ReminderSender delivers the reminder.
type ReminderSender interface {
	SendAppointmentReminder(ctx context.Context, jobID int64, channel string) (bool, error)
}

// ReminderJob handles TaskAppointmentReminder.
type ReminderJob struct {
	Settings SettingsSource
	Jobs     ReminderChecker
	Sender   ReminderSender
	Logger   *slog.Logger
	Metrics  *jobmetrics.Metrics
}

// Handle sends the reminder unless the job was cancelled, completed or
// rescheduled since it was queued. Delivery failures are logged by the
// dispatcher and not retried.
func (j *ReminderJob) Handle(ctx context.Context, t *asynq.Task) (err error) {
	var payload ReminderPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil || payload.JobID <= 0 {
		return asynq.SkipRetry
	}
	tracker := j.Metrics.Track("appointment_reminder")
	defer func() { err = tracker.End(err) }()

	logger := j.logger().With(slog.Int64("job_id", payload.JobID))

	cfg, err := j.Settings.Load(ctx)
	if err != nil {
		return fmt.Errorf("reminder: load settings: %w", err)
	}
	if !cfg.Notifications.ReminderEnabled {
		logger.Info("reminder skipped, reminders disabled")
		j.Metrics.AddItems("appointment_reminder", "skipped", 1)
		return nil
	}

	due, err := j.Jobs.ReminderDue(ctx, payload.JobID, payload.Appointment)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			logger.Info("reminder skipped, job deleted")
			return nil
		}
		return fmt.Errorf("reminder: check job: %w", err)
	}
	if !due {
		logger.Info("reminder skipped, appointment changed or job closed")
		j.Metrics.AddItems("appointment_reminder", "skipped", 1)
		return nil
	}

	channel := payload.Channel
	if channel == "" {
		channel = cfg.Notifications.ReminderChannel
	}
	sent, err := j.Sender.SendAppointmentReminder(ctx, payload.JobID, channel)
	if err != nil {
		return fmt.Errorf("reminder: send: %w", err)
	}
	if !sent {
		logger.Warn("reminder not delivered")
		j.Metrics.AddItems("appointment_reminder", "failed", 1)
		return nil
	}
	j.Metrics.AddItems("appointment_reminder", "sent", 1)
	return nil
}

func (j *ReminderJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger
	}
	return slog.Default()
}
