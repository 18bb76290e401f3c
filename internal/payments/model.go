// Package payments is the append-only payment ledger kept against each job.
package payments

import (
	"time"

	"github.com/shopspring/decimal"
)

// Payment types.
const (
	TypeFull    = "full"
	TypePartial = "partial"
)

// Payment is one ledger row. Rows are never updated.
type Payment struct {
	ID         int64           `json:"id"`
	JobID      int64           `json:"job_id"`
	Amount     decimal.Decimal `json:"amount"`
	Method     string          `json:"method"`
	Type       string          `json:"type"`
	Notes      string          `json:"notes,omitempty"`
	RecordedBy *int64          `json:"recorded_by,omitempty"`
	RecordedAt time.Time       `json:"recorded_at"`
}

// View decorates a payment for display.
type View struct {
	Payment
	MethodLabel     string `json:"method_label"`
	RecordedByName  string `json:"recorded_by_name"`
	FormattedAmount string `json:"formatted_amount"`
	FormattedDate   string `json:"formatted_date"`
}

// AddInput is the add_payment payload.
type AddInput struct {
	JobID          int64           `json:"-"`
	Amount         decimal.Decimal `json:"amount"`
	Method         string          `json:"method" validate:"required,max=64"`
	Type           string          `json:"type" validate:"required,oneof=full partial"`
	Notes          string          `json:"notes" validate:"max=2000"`
	RecordedBy     int64           `json:"-"`
	IdempotencyKey string          `json:"-"`
}
