// Package diary manages jobs and quotes: saving, numbering, cancelling,
// converting quotes and deleting with everything a job owns.
package diary

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jobdiary/jobdiary/internal/money"
	"github.com/jobdiary/jobdiary/internal/settings"
)

// Kind separates booked jobs from quotes.
type Kind string

const (
	KindJob   Kind = "job"
	KindQuote Kind = "quote"
)

// Valid reports whether k is a known kind.
func (k Kind) Valid() bool {
	return k == KindJob || k == KindQuote
}

// ProductLine is one priced product on a job.
type ProductLine struct {
	ID          int64           `json:"id,omitempty"`
	Description string          `json:"description"`
	Size        string          `json:"size,omitempty"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
}

// Total is quantity × unit price.
func (l ProductLine) Total() decimal.Decimal {
	return l.line().Total()
}

func (l ProductLine) line() money.Line {
	return money.Line{Quantity: decimal.NewFromInt(int64(l.Quantity)), UnitPrice: l.UnitPrice}
}

// Accessory is an extra item sold with a job.
type Accessory struct {
	ID        int64           `json:"id,omitempty"`
	Name      string          `json:"name"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

// Total is quantity × unit price.
func (a Accessory) Total() decimal.Decimal {
	return a.line().Total()
}

func (a Accessory) line() money.Line {
	return money.Line{Quantity: decimal.NewFromInt(int64(a.Quantity)), UnitPrice: a.UnitPrice}
}

// Job is a diary entry. Quotes share the shape and differ only by Kind.
type Job struct {
	ID               int64           `json:"id"`
	Kind             Kind            `json:"kind"`
	CustomerID       *int64          `json:"customer_id,omitempty"`
	AssignedStaffID  *int64          `json:"assigned_staff_id,omitempty"`
	JobDate          time.Time       `json:"job_date"`
	FittingDate      *time.Time      `json:"fitting_date,omitempty"`
	FittingTime      string          `json:"fitting_time,omitempty"`
	BillingAddress   string          `json:"billing_address"`
	FittingAddress   *string         `json:"fitting_address,omitempty"`
	Lines            []ProductLine   `json:"lines"`
	Accessories      []Accessory     `json:"accessories"`
	FittingCost      decimal.Decimal `json:"fitting_cost"`
	Discount         money.Discount  `json:"discount"`
	Status           string          `json:"status"`
	OrderNumber      string          `json:"order_number"`
	Notes            string          `json:"notes,omitempty"`
	QuoteOfferSentAt *time.Time      `json:"quote_offer_sent_at,omitempty"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

// IsQuote reports whether the entry is a quote.
func (j Job) IsQuote() bool { return j.Kind == KindQuote }

// IsCancelled reports whether the entry was soft deleted.
func (j Job) IsCancelled() bool { return j.Status == settings.StatusCancelled }

// Location is the fitting address, falling back to the billing address.
func (j Job) Location() string {
	if j.FittingAddress != nil && strings.TrimSpace(*j.FittingAddress) != "" {
		return strings.TrimSpace(*j.FittingAddress)
	}
	return strings.TrimSpace(j.BillingAddress)
}

// PricingInput converts the job for the calculator.
func (j Job) PricingInput(vat money.VAT) money.Input {
	in := money.Input{
		FittingCost: j.FittingCost,
		Discount:    j.Discount,
		VAT:         vat,
		Lines:       make([]money.Line, 0, len(j.Lines)),
		Accessories: make([]money.Line, 0, len(j.Accessories)),
	}
	for _, l := range j.Lines {
		in.Lines = append(in.Lines, l.line())
	}
	for _, a := range j.Accessories {
		in.Accessories = append(in.Accessories, a.line())
	}
	return in
}

// Breakdown prices the job.
func (j Job) Breakdown(vat money.VAT) money.Breakdown {
	return money.Calculate(j.PricingInput(vat))
}

// Appointment is the fitting moment: the fitting date at the fitting time
// when it reads as a clock time, 09:00 for "AM" or unknown text and 13:00 for "PM".
func (j Job) Appointment() (time.Time, bool) {
	if j.FittingDate == nil {
		return time.Time{}, false
	}
	d := *j.FittingDate
	hour, minute := 9, 0
	text := strings.ToUpper(strings.TrimSpace(j.FittingTime))
	if t, err := time.Parse("15:04", text); err == nil {
		hour, minute = t.Hour(), t.Minute()
	} else if text == "PM" {
		hour = 13
	}
	return time.Date(d.Year(), d.Month(), d.Day(), hour, minute, 0, 0, d.Location()), true
}

// ReminderAt is when the appointment reminder is due: 24 hours before the
// appointment, or now when that moment has passed. ok is false without a
// future appointment.
func (j Job) ReminderAt(now time.Time) (time.Time, bool) {
	appt, ok := j.Appointment()
	if !ok || !appt.After(now) {
		return time.Time{}, false
	}
	at := appt.Add(-24 * time.Hour)
	if at.Before(now) {
		at = now
	}
	return at, true
}

// View is a job with its computed money state.
type View struct {
	Job
	StatusLabel      string          `json:"status_label"`
	Pricing          money.Breakdown `json:"pricing"`
	AmountPaid       decimal.Decimal `json:"amount_paid"`
	Balance          decimal.Decimal `json:"balance"`
	FormattedTotal   string          `json:"formatted_total"`
	FormattedPaid    string          `json:"formatted_paid"`
	FormattedBalance string          `json:"formatted_balance"`
}

// ListFilter narrows a job listing. Cancelled entries are never listed.
type ListFilter struct {
	Kind    Kind
	Status  string
	Page    int
	PerPage int
}

// AgedQuote is a quote due a discount offer.
type AgedQuote struct {
	ID        int64
	CreatedAt time.Time
}
