package jobs

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskAppointmentReminder sends the fitting reminder for one job.
	TaskAppointmentReminder = "notify:appointment_reminder"
	// TaskQuoteOfferScan offers a discount on aged quotes.
	TaskQuoteOfferScan = "quote:offer_scan"
)

// ReminderPayload identifies the appointment a reminder was scheduled for.
type ReminderPayload struct {
	JobID       int64     `json:"job_id"`
	Appointment time.Time `json:"appointment"`
	Channel     string    `json:"channel"`
}

// QuoteOfferScanPayload bounds one scan.
type QuoteOfferScanPayload struct {
	Limit int `json:"limit"`
}

// NewReminderTask constructs the reminder task.
func NewReminderTask(payload ReminderPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskAppointmentReminder, data), nil
}

// NewQuoteOfferScanTask constructs the periodic aged quote scan.
func NewQuoteOfferScanTask(limit int) (*asynq.Task, error) {
	data, err := json.Marshal(QuoteOfferScanPayload{Limit: limit})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskQuoteOfferScan, data), nil
}

// reminderTaskID is unique per job and appointment, so saving a job twice
// with the same fitting does not queue a second reminder.
func reminderTaskID(jobID int64, appointment time.Time) string {
	return fmt.Sprintf("reminder:%d:%d", jobID, appointment.Unix())
}
