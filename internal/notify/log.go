package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/jobdiary/jobdiary/internal/money"
)

// Notification types.
const (
	TypeAppointmentReminder = "appointment_reminder"
	TypePaymentConfirmation = "payment_confirmation"
	TypeQuoteDiscount       = "quote_discount"
	TypeTest                = "test"
)

// Channels.
const (
	ChannelEmail = "email"
	ChannelSMS   = "sms"
	ChannelBoth  = "both"
)

// Delivery statuses.
const (
	StatusSent   = "sent"
	StatusFailed = "failed"
	StatusTest   = "test"
)

// LogEntry records one attempted send on one channel.
type LogEntry struct {
	ID            int64           `json:"id"`
	JobID         *int64          `json:"job_id,omitempty"`
	Type          string          `json:"type"`
	Channel       string          `json:"channel"`
	Recipient     string          `json:"recipient"`
	Status        string          `json:"status"`
	Error         string          `json:"error,omitempty"`
	Cost          decimal.Decimal `json:"cost"`
	ProviderRef   string          `json:"provider_ref,omitempty"`
	CorrelationID string          `json:"correlation_id"`
	CreatedAt     time.Time       `json:"created_at"`
}

// LogRepository persists notification attempts.
type LogRepository interface {
	Insert(ctx context.Context, entry LogEntry) (int64, error)
	ListForJob(ctx context.Context, jobID int64, limit int) ([]LogEntry, error)
}

// PGLogRepository stores entries in notification_logs.
type PGLogRepository struct {
	pool *pgxpool.Pool
}

// NewLogRepository constructs a PGLogRepository.
func NewLogRepository(pool *pgxpool.Pool) *PGLogRepository {
	return &PGLogRepository{pool: pool}
}

func (r *PGLogRepository) Insert(ctx context.Context, e LogEntry) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx, `INSERT INTO notification_logs
(job_id, type, channel, recipient, status, error_detail, cost_minor, provider_ref, correlation_id, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10) RETURNING id`,
		e.JobID, e.Type, e.Channel, e.Recipient, e.Status, e.Error, money.ToMinor(e.Cost), e.ProviderRef, e.CorrelationID, e.CreatedAt,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("notify: insert log: %w", err)
	}
	return id, nil
}

// ListForJob returns the newest entries for a job.
func (r *PGLogRepository) ListForJob(ctx context.Context, jobID int64, limit int) ([]LogEntry, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.pool.Query(ctx, `SELECT id, job_id, type, channel, recipient, status, error_detail, cost_minor,
provider_ref, correlation_id, created_at
FROM notification_logs WHERE job_id = $1 ORDER BY created_at DESC, id DESC LIMIT $2`, jobID, limit)
	if err != nil {
		return nil, fmt.Errorf("notify: list logs: %w", err)
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (LogEntry, error) {
		var e LogEntry
		var cost int64
		err := row.Scan(&e.ID, &e.JobID, &e.Type, &e.Channel, &e.Recipient, &e.Status, &e.Error, &cost,
			&e.ProviderRef, &e.CorrelationID, &e.CreatedAt)
		e.Cost = money.FromMinor(cost)
		return e, err
	})
}

var _ LogRepository = (*PGLogRepository)(nil)
